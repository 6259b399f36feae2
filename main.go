package main

import (
	"bitwise74/learning-api/app"
	"bitwise74/learning-api/config"
	"bitwise74/learning-api/internal"
	"bitwise74/learning-api/pkg/logger"
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	cfg, err := config.Setup()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFormat)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)

	if cfg.Session.SecretGenerated {
		zap.L().Warn("No session secret configured, using a random one. Sessions won't survive a restart")
	}

	if !cfg.Mail.Configured() {
		zap.L().Warn("Email not configured, verification and reset links will only be logged")
	}

	d, err := internal.NewDeps(cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize", zap.Error(err))
	}
	defer d.Close()

	if cfg.Admin.Email != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := d.Auth.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Username, cfg.Admin.Password)
		cancel()

		if err != nil {
			zap.L().Fatal("Failed to create admin account", zap.Error(err))
		}
	}

	router := app.NewRouter(d)
	addr := fmt.Sprintf(":%d", cfg.Host.Port)

	zap.L().Info("Server starting", zap.String("addr", addr))

	if cfg.Host.SSL.Enabled {
		err = router.RunTLS(addr, cfg.Host.SSL.CertPath, cfg.Host.SSL.KeyPath)
	} else {
		err = router.Run(addr)
	}

	if err != nil {
		zap.L().Fatal("Server stopped", zap.Error(err))
	}
}

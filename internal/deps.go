package internal

import (
	"bitwise74/learning-api/config"
	"bitwise74/learning-api/db"
	"bitwise74/learning-api/internal/service"
	"bitwise74/learning-api/internal/session"
	"bitwise74/learning-api/internal/store"
	"bitwise74/learning-api/pkg/middleware"
	"bitwise74/learning-api/pkg/security"
	"fmt"

	"gorm.io/gorm"
)

type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Store    *store.Store
	Hasher   security.Hasher
	Mailer   *service.Mailer
	Auth     *service.AuthService
	Admin    *service.AdminService
	Sessions *session.Holder
	Signer   *session.Signer
}

// NewDeps opens the database and builds every service from cfg.
func NewDeps(cfg *config.Config) (*Deps, error) {
	conn, err := db.New(cfg.DB)
	if err != nil {
		return nil, err
	}

	hasher, err := security.NewHasher(cfg.Security.Hasher, cfg.Security.BcryptCost)
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewHolder(cfg.Session.IdleTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create session holder, %w", err)
	}

	d := &Deps{
		Config:   cfg,
		DB:       conn,
		Store:    store.New(conn),
		Hasher:   hasher,
		Mailer:   service.NewMailer(cfg.Mail, cfg.App.URL),
		Sessions: sessions,
		Signer:   session.NewSigner(cfg.Session.Secret),
	}

	d.Auth = service.NewAuthService(d.Store, d.Hasher, d.Mailer, cfg.Auth)
	d.Admin = service.NewAdminService(d.Store)

	return d, nil
}

// SessionConfig returns what the session middleware and the login and logout
// handlers share.
func (d *Deps) SessionConfig() middleware.SessionConfig {
	return middleware.SessionConfig{
		CookieName: d.Config.Session.CookieName,
		Secure:     d.Config.Host.SSL.Enabled,
		Signer:     d.Signer,
		Holder:     d.Sessions,
		Store:      d.Store,
	}
}

// Close releases the session holder and the database.
func (d *Deps) Close() error {
	d.Sessions.Close()

	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

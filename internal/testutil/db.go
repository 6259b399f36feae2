// Package testutil holds helpers shared by tests
package testutil

import (
	"bitwise74/learning-api/config"
	"bitwise74/learning-api/db"
	"testing"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a migrated in-memory SQLite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := db.New(MemoryDB())
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return conn
}

// MemoryDB returns config for a fresh named in-memory SQLite database.
func MemoryDB() config.DB {
	return config.DB{
		Driver: "sqlite",
		DSN:    "file:" + gonanoid.Must(12) + "?mode=memory&cache=shared",
	}
}

// Config returns a valid config backed by a fresh in-memory database, with
// email delivery left unconfigured and the cheapest bcrypt cost.
func Config() *config.Config {
	return &config.Config{
		App: config.App{
			URL:       "http://localhost:8501",
			LogLevel:  "info",
			LogFormat: "console",
		},
		Host: config.Host{
			Port: 8080,
			CORS: []string{"http://localhost:8501"},
		},
		DB:   MemoryDB(),
		Mail: config.Mail{Port: 587},
		Auth: config.Auth{ResetTTL: time.Hour},
		Security: config.Security{
			Hasher:     "bcrypt",
			BcryptCost: 4,
		},
		Session: config.Session{
			Secret:     "test-secret",
			CookieName: "session",
			IdleTTL:    time.Hour,
		},
	}
}

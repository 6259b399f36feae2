// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	validLogLevels  = []string{"debug", "info", "warn", "error", "fatal"}
	validLogFormats = []string{"console", "json"}
	validDrivers    = []string{"sqlite", "postgres"}
	validHashers    = []string{"bcrypt", "argon2id"}
)

// Config is built once at startup and handed to everything that needs it.
type Config struct {
	App      App
	Host     Host
	DB       DB
	Mail     Mail
	Auth     Auth
	Security Security
	Session  Session
	Admin    Admin
}

type App struct {
	// URL is the public base used to build verification and reset links
	URL       string
	LogLevel  string
	LogFormat string
}

type Host struct {
	Port int
	CORS []string
	SSL  SSL
}

type SSL struct {
	Enabled  bool
	CertPath string
	KeyPath  string
}

type DB struct {
	Driver string
	DSN    string
}

type Mail struct {
	Host     string
	Port     int
	User     string
	Password string
	// From overrides the sender address, defaults to User
	From string
}

// Configured reports whether there's enough to attempt SMTP delivery.
func (m Mail) Configured() bool {
	return m.Host != "" && m.User != "" && m.Password != ""
}

// Sender returns the address used in the From header.
func (m Mail) Sender() string {
	if m.From != "" {
		return m.From
	}

	return m.User
}

type Auth struct {
	ResetTTL time.Duration
}

type Security struct {
	Hasher     string
	BcryptCost int
}

type Session struct {
	Secret     string
	CookieName string
	IdleTTL    time.Duration
	// SecretGenerated is set when no secret was configured and a random
	// one was made for this process
	SecretGenerated bool
}

// Admin describes an optional account seeded on startup.
type Admin struct {
	Email    string
	Username string
	Password string
}

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() (*Config, error) {
	return Load(os.Args[1:])
}

// Load reads flags from args, then the optional config file, then the
// environment, and validates the result.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("learning-api", pflag.ContinueOnError)
	fs.String("config", "", "Path to a config file")
	fs.Int("port", 0, "Port to listen on")
	fs.String("log-level", "", "Log level (debug, info, warn, error, fatal)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags, %w", err)
	}

	v := viper.New()

	//
	// ENVS
	//
	v.BindEnv("app.url", "APP_URL")
	v.BindEnv("app.log_level", "APP_LOG_LEVEL")
	v.BindEnv("app.log_format", "APP_LOG_FORMAT")

	v.BindEnv("host.port", "HOST_PORT")
	v.BindEnv("host.cors", "HOST_CORS")
	v.BindEnv("host.ssl.enabled", "HOST_SSL_ENABLED")
	v.BindEnv("host.ssl.certificate_path", "HOST_SSL_CERTIFICATE_PATH")
	v.BindEnv("host.ssl.certificate_key_path", "HOST_SSL_CERTIFICATE_KEY_PATH")

	v.BindEnv("db.driver", "DB_DRIVER")
	v.BindEnv("db.dsn", "DB_DSN")

	v.BindEnv("mail.host", "EMAIL_HOST")
	v.BindEnv("mail.port", "EMAIL_PORT")
	v.BindEnv("mail.user", "EMAIL_USER")
	v.BindEnv("mail.password", "EMAIL_PASSWORD")
	v.BindEnv("mail.from", "EMAIL_FROM")

	v.BindEnv("auth.reset_ttl", "AUTH_RESET_TTL")

	v.BindEnv("security.hasher", "SECURITY_HASHER")
	v.BindEnv("security.bcrypt_cost", "SECURITY_BCRYPT_COST")

	v.BindEnv("session.secret", "SESSION_SECRET")
	v.BindEnv("session.cookie_name", "SESSION_COOKIE_NAME")
	v.BindEnv("session.idle_ttl", "SESSION_IDLE_TTL")

	v.BindEnv("admin.email", "ADMIN_EMAIL")
	v.BindEnv("admin.username", "ADMIN_USERNAME")
	v.BindEnv("admin.password", "ADMIN_PASSWORD")

	//
	// Defaults
	//
	v.SetDefault("app.url", "http://localhost:8501")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "console")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors", "http://localhost:8501")
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "learning_platform.db")

	v.SetDefault("mail.port", 587)

	v.SetDefault("auth.reset_ttl", time.Hour)

	v.SetDefault("security.hasher", "bcrypt")
	v.SetDefault("security.bcrypt_cost", 12)

	v.SetDefault("session.cookie_name", "session")
	v.SetDefault("session.idle_ttl", time.Hour*12)

	path, _ := fs.GetString("config")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// A config file is optional unless one was asked for explicitly
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}
	}

	// Flags win over everything else but only when actually passed
	if fs.Changed("port") {
		port, _ := fs.GetInt("port")
		v.Set("host.port", port)
	}
	if fs.Changed("log-level") {
		level, _ := fs.GetString("log-level")
		v.Set("app.log_level", level)
	}

	cfg := &Config{
		App: App{
			URL:       v.GetString("app.url"),
			LogLevel:  strings.ToLower(v.GetString("app.log_level")),
			LogFormat: strings.ToLower(v.GetString("app.log_format")),
		},
		Host: Host{
			Port: v.GetInt("host.port"),
			CORS: splitList(v.GetString("host.cors")),
			SSL: SSL{
				Enabled:  v.GetBool("host.ssl.enabled"),
				CertPath: v.GetString("host.ssl.certificate_path"),
				KeyPath:  v.GetString("host.ssl.certificate_key_path"),
			},
		},
		DB: DB{
			Driver: strings.ToLower(v.GetString("db.driver")),
			DSN:    v.GetString("db.dsn"),
		},
		Mail: Mail{
			Host:     v.GetString("mail.host"),
			Port:     v.GetInt("mail.port"),
			User:     v.GetString("mail.user"),
			Password: v.GetString("mail.password"),
			From:     v.GetString("mail.from"),
		},
		Auth: Auth{
			ResetTTL: v.GetDuration("auth.reset_ttl"),
		},
		Security: Security{
			Hasher:     strings.ToLower(v.GetString("security.hasher")),
			BcryptCost: v.GetInt("security.bcrypt_cost"),
		},
		Session: Session{
			Secret:     v.GetString("session.secret"),
			CookieName: v.GetString("session.cookie_name"),
			IdleTTL:    v.GetDuration("session.idle_ttl"),
		},
		Admin: Admin{
			Email:    v.GetString("admin.email"),
			Username: v.GetString("admin.username"),
			Password: v.GetString("admin.password"),
		},
	}

	if cfg.Session.Secret == "" {
		cfg.Session.Secret = genSecret()
		cfg.Session.SecretGenerated = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values that would make the app unable to run.
func (c *Config) Validate() error {
	if c.App.URL == "" {
		return errors.New("app.url can't be empty")
	}

	if !slices.Contains(validLogLevels, c.App.LogLevel) {
		return errors.New("invalid log level provided")
	}

	if !slices.Contains(validLogFormats, c.App.LogFormat) {
		return errors.New("invalid log format provided")
	}

	if c.Host.Port <= 0 || c.Host.Port > 65535 {
		return errors.New("invalid port provided")
	}

	if len(c.Host.CORS) == 0 {
		return errors.New("host.cors needs at least one origin")
	}

	for _, o := range c.Host.CORS {
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("invalid cors origin %q, must start with http:// or https://", o)
		}
	}

	if c.Host.SSL.Enabled {
		if c.Host.SSL.CertPath == "" {
			return errors.New("no ssl certificate path provided")
		}

		if c.Host.SSL.KeyPath == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	if !slices.Contains(validDrivers, c.DB.Driver) {
		return errors.New("invalid database driver provided")
	}

	if c.DB.DSN == "" {
		return errors.New("db.dsn can't be empty")
	}

	if c.Mail.Port <= 0 || c.Mail.Port > 65535 {
		return errors.New("invalid email port provided")
	}

	if c.Auth.ResetTTL <= 0 {
		return errors.New("auth.reset_ttl must be bigger than 0")
	}

	if !slices.Contains(validHashers, c.Security.Hasher) {
		return errors.New("invalid password hasher provided")
	}

	// Same bounds as golang.org/x/crypto/bcrypt MinCost and MaxCost
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		return errors.New("security.bcrypt_cost must be between 4 and 31")
	}

	if c.Session.CookieName == "" {
		return errors.New("session.cookie_name can't be empty")
	}

	if c.Session.IdleTTL <= 0 {
		return errors.New("session.idle_ttl must be bigger than 0")
	}

	if c.Admin.Email != "" || c.Admin.Username != "" || c.Admin.Password != "" {
		if c.Admin.Email == "" || c.Admin.Username == "" || c.Admin.Password == "" {
			return errors.New("admin.email, admin.username and admin.password must be set together")
		}
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

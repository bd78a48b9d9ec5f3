// Package config loads the server configuration from the environment.
//
// Values are parsed with github.com/caarlos0/env; a .env file in the
// working directory is loaded first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// AppConfig composes the configuration sections.
type AppConfig struct {
	// IsDev enables template reloading and debug logging
	IsDev bool `env:"DEV" envDefault:"false"`

	HTTP     HTTPConfig
	Auth     AuthConfig     `envPrefix:"AUTH_"`
	Database DatabaseConfig `envPrefix:"DB_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Blog     BlogConfig     `envPrefix:"BLOG_"`
}

// Load reads .env (if any) and the environment.
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	return Parse()
}

// Parse reads the environment only.
func Parse() (AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, cfg.Validate()
}

// Sanitize applies guardrails to values loaded from env.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Auth.Sanitize()
	c.Database.Sanitize()
	c.Redis.Sanitize()
	c.Blog.Sanitize()
}

// Validate rejects configurations the server cannot start with.
func (c AppConfig) Validate() error {
	if len(c.Auth.SigningKey) < MinSigningKeyLength && !c.IsDev {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least %d characters", MinSigningKeyLength)
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("DB_DSN is required")
	}

	return nil
}

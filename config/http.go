package config

import (
	"strings"
	"time"
)

type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CSRF            bool          `env:"HTTP_CSRF" envDefault:"true"`

	// LoginRateLimit is the number of login POSTs allowed per client in
	// LoginRateWindow. Zero disables the limiter.
	LoginRateLimit  int           `env:"HTTP_LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginRateWindow time.Duration `env:"HTTP_LOGIN_RATE_WINDOW" envDefault:"1m"`

	// ViewsDir serves templates from disk instead of the embedded set
	ViewsDir string `env:"HTTP_VIEWS_DIR"`
}

func (c *HTTPConfig) Sanitize() {
	c.Addr = strings.TrimSpace(c.Addr)
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.LoginRateLimit < 0 {
		c.LoginRateLimit = 0
	}
	if c.LoginRateWindow <= 0 {
		c.LoginRateWindow = time.Minute
	}
}

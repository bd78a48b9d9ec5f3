package config

import "strings"

type DatabaseConfig struct {
	Driver               string `env:"DRIVER" envDefault:"sqlite"`
	DSN                  string `env:"DSN" envDefault:"file:blog.db?cache=shared&_fk=1"`
	RunMigrationsOnStart bool   `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
	Debug                bool   `env:"DEBUG" envDefault:"false"`
}

func (c *DatabaseConfig) Sanitize() {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	switch c.Driver {
	case "", "sqlite3":
		c.Driver = "sqlite"
	case "pgx", "postgresql":
		c.Driver = "postgres"
	}
}

type RedisConfig struct {
	Enabled  bool   `env:"ENABLED" envDefault:"false"`
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
	Prefix   string `env:"PREFIX" envDefault:"blog:revoked"`
}

func (c *RedisConfig) Sanitize() {
	c.Addr = strings.TrimSpace(c.Addr)
	if c.Addr == "" {
		c.Enabled = false
	}
	if c.DB < 0 {
		c.DB = 0
	}
}

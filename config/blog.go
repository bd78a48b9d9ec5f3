package config

import "strings"

// BlogConfig holds the defaults written on first-run initialization.
type BlogConfig struct {
	Theme        string `env:"THEME" envDefault:"standard"`
	ItemsPerPage int    `env:"ITEMS_PER_PAGE" envDefault:"10"`
	Version      string `env:"VERSION" envDefault:"1.0"`
	Logo         string `env:"LOGO" envDefault:"/img/logo.png"`
}

func (c *BlogConfig) Sanitize() {
	c.Theme = strings.TrimSpace(c.Theme)
	if c.Theme == "" || strings.ContainsAny(c.Theme, "/\\.") {
		c.Theme = "standard"
	}
	if c.ItemsPerPage <= 0 {
		c.ItemsPerPage = 10
	}
}

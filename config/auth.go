package config

import "strings"

const (
	MinSigningKeyLength = 32

	UserIDRandom = "uuid"
	UserIDHashid = "hashid"
)

// AuthConfig implements the account.Config getters.
type AuthConfig struct {
	SigningKey         string   `env:"SIGNING_KEY"`
	CookieName         string   `env:"COOKIE_NAME" envDefault:"blog_session"`
	TokenHours         int      `env:"TOKEN_HOURS" envDefault:"24"`
	ExtendedTokenHours int      `env:"EXTENDED_TOKEN_HOURS" envDefault:"720"`
	Issuer             string   `env:"ISSUER" envDefault:"blog-account"`
	Audience           []string `env:"AUDIENCE" envDefault:"blog" envSeparator:","`
	CookieSecure       bool     `env:"COOKIE_SECURE" envDefault:"true"`
	Lockout            bool     `env:"LOCKOUT" envDefault:"true"`
	MaxLoginAttempts   int      `env:"MAX_LOGIN_ATTEMPTS" envDefault:"5"`
	CoolDownPeriod     string   `env:"COOL_DOWN_PERIOD" envDefault:"24h"`
	PasswordHashCost   int      `env:"PASSWORD_HASH_COST" envDefault:"0"`
	UserIDStrategy     string   `env:"USER_ID_STRATEGY" envDefault:"uuid"`
}

func (c *AuthConfig) Sanitize() {
	c.CookieName = strings.TrimSpace(c.CookieName)
	if c.CookieName == "" {
		c.CookieName = "blog_session"
	}
	if c.TokenHours <= 0 {
		c.TokenHours = 24
	}
	if c.ExtendedTokenHours < c.TokenHours {
		c.ExtendedTokenHours = c.TokenHours
	}
	if c.MaxLoginAttempts <= 0 {
		c.MaxLoginAttempts = 5
	}
	if strings.TrimSpace(c.CoolDownPeriod) == "" {
		c.CoolDownPeriod = "24h"
	}

	switch strings.ToLower(strings.TrimSpace(c.UserIDStrategy)) {
	case UserIDHashid:
		c.UserIDStrategy = UserIDHashid
	default:
		c.UserIDStrategy = UserIDRandom
	}
}

func (c AuthConfig) GetSigningKey() string         { return c.SigningKey }
func (c AuthConfig) GetContextKey() string         { return c.CookieName }
func (c AuthConfig) GetTokenExpiration() int       { return c.TokenHours }
func (c AuthConfig) GetExtendedTokenDuration() int { return c.ExtendedTokenHours }
func (c AuthConfig) GetIssuer() string             { return c.Issuer }
func (c AuthConfig) GetAudience() []string         { return c.Audience }
func (c AuthConfig) GetCookieSecure() bool         { return c.CookieSecure }

// UseHashid reports whether user ids derive from the email
func (c AuthConfig) UseHashid() bool {
	return c.UserIDStrategy == UserIDHashid
}

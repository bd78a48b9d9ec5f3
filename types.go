package account

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetContextKey() string
	GetTokenExpiration() int
	GetExtendedTokenDuration() int
	GetIssuer() string
	GetAudience() []string
	GetCookieSecure() bool
}

// CredentialStore verifies, creates and updates identities.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	Create(ctx context.Context, user *User, password string) error
	Update(ctx context.Context, user *User) error
	VerifyPassword(ctx context.Context, user *User, password string, lockout bool) error
	GrantPermission(ctx context.Context, user *User, perm Permission) error
}

// SessionIssuer establishes and tears down the session bound to the
// current request.
type SessionIssuer interface {
	SignIn(ctx context.Context, user *User, persistent bool, opts ...SignInOption) error
	SignOut(ctx context.Context) error
}

// Revoker tracks signed out session tokens until they expire.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// SiteStore holds the single blog configuration.
type SiteStore interface {
	Exists(ctx context.Context) (bool, error)
	Get(ctx context.Context) (*BlogSettings, error)
	Set(ctx context.Context, settings *BlogSettings) error
}

// BlogInitializer runs the first-run sequence: administrator account,
// administrator permission and blog settings, all or nothing.
type BlogInitializer interface {
	Initialize(ctx context.Context, msg InitializeBlogMessage) error
}

// SignInOption tweaks how a session is issued.
type SignInOption func(*signInOptions)

type signInOptions struct {
	extended    bool
	extendedSet bool
}

// WithExtendedSession issues the session with the extended duration, used
// for "remember me" logins. Without it a re-issued session keeps the
// duration of the session it replaces.
func WithExtendedSession(extended bool) SignInOption {
	return func(o *signInOptions) {
		o.extended = extended
		o.extendedSet = true
	}
}

func resolveSignInOptions(opts []SignInOption) signInOptions {
	o := signInOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

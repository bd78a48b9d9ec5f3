package account

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims is the session token payload. Display fields are carried so
// views can show the current user without a database round trip, which is
// why the session is re-issued after a profile edit.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID         string     `json:"uid,omitempty"`
	Username    string     `json:"usr,omitempty"`
	NickName    string     `json:"nick,omitempty"`
	Avatar      string     `json:"avt,omitempty"`
	Permissions Permission `json:"perm,omitempty"`
	Extended    bool       `json:"ext,omitempty"`
}

// NewClaims builds the claims for a user
func NewClaims(user *User) *JWTClaims {
	return &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.ID.String(),
		},
		UID:         user.ID.String(),
		Username:    user.Username,
		NickName:    user.NickName,
		Avatar:      user.Avatar,
		Permissions: user.Permissions,
	}
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// TokenID returns the jti claim
func (c *JWTClaims) TokenID() string {
	return c.RegisteredClaims.ID
}

func (c *JWTClaims) HasPermission(p Permission) bool {
	return c.Permissions.Has(p)
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

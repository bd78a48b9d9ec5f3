package account

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is the authenticated identity bound to a request.
type Session struct {
	UserID      uuid.UUID  `json:"user_id"`
	Username    string     `json:"username,omitempty"`
	NickName    string     `json:"nickname,omitempty"`
	Avatar      string     `json:"avatar,omitempty"`
	Permissions Permission `json:"permissions"`
	TokenID     string     `json:"token_id,omitempty"`
	Extended    bool       `json:"extended,omitempty"`
	IssuedAt    time.Time  `json:"issued_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
}

func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != uuid.Nil
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Permissions.Has(PermissionAdmin)
}

// DisplayName is the nickname, falling back to the username
func (s *Session) DisplayName() string {
	if s == nil {
		return ""
	}
	if s.NickName != "" {
		return s.NickName
	}
	return s.Username
}

func (s Session) String() string {
	return fmt.Sprintf(
		"user=%s usr=%s perm=%s jti=%s exp=%s",
		s.UserID,
		s.Username,
		s.Permissions,
		s.TokenID,
		s.ExpiresAt.Format(time.RFC1123),
	)
}

func sessionFromClaims(claims *JWTClaims) (*Session, error) {
	if claims == nil {
		return nil, ErrTokenMalformed
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil, ErrTokenMalformed
	}

	return &Session{
		UserID:      id,
		Username:    claims.Username,
		NickName:    claims.NickName,
		Avatar:      claims.Avatar,
		Permissions: claims.Permissions,
		TokenID:     claims.TokenID(),
		Extended:    claims.Extended,
		IssuedAt:    claims.IssuedAt(),
		ExpiresAt:   claims.Expires(),
	}, nil
}

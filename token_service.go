package account

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenService signs and validates session tokens
type TokenService interface {
	Generate(user *User, ttl time.Duration, extended bool) (string, *JWTClaims, error)
	Validate(token string) (*JWTClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
	now        func() time.Time
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, issuer string, audience jwt.ClaimStrings, logger Logger) *TokenServiceImpl {
	return &TokenServiceImpl{
		signingKey: signingKey,
		issuer:     issuer,
		audience:   audience,
		logger:     normalizeLogger(logger),
		now:        time.Now,
	}
}

// Generate creates a signed token for the user valid for ttl
func (ts *TokenServiceImpl) Generate(user *User, ttl time.Duration, extended bool) (string, *JWTClaims, error) {
	if user == nil || user.ID == uuid.Nil {
		return "", nil, errors.New("user must not be empty", errors.CategoryInternal)
	}

	now := ts.now()
	claims := NewClaims(user)
	claims.Issuer = ts.issuer
	claims.Audience = ts.audience
	claims.RegisteredClaims.IssuedAt = jwt.NewNumericDate(now)
	claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.ID = uuid.NewString()
	claims.Extended = extended

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", nil, errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, claims, nil
}

// Validate parses and validates a token string
func (ts *TokenServiceImpl) Validate(tokenString string) (*JWTClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	parserOptions = append(parserOptions, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		ts.logger.Debug("TokenService validate rejected token", "error", err)
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	// jwt.WithAudience only takes one value, accept any configured audience
	if !ts.acceptsAudience(claims.Audience) {
		ts.logger.Debug("TokenService validate rejected audience", "aud", claims.Audience)
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

func (ts *TokenServiceImpl) acceptsAudience(aud jwt.ClaimStrings) bool {
	if len(ts.audience) == 0 {
		return true
	}
	for _, want := range ts.audience {
		for _, got := range aud {
			if got == want {
				return true
			}
		}
	}
	return false
}

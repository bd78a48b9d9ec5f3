package account

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// CookieSessions keeps the session in a signed token cookie
type CookieSessions struct {
	cfg                    Config
	tokens                 TokenService
	revoker                Revoker
	cookieName             string
	cookieDuration         time.Duration
	extendedCookieDuration time.Duration
	loginPath              string
	Logger                 Logger
}

func NewCookieSessions(cfg Config, tokens TokenService) *CookieSessions {
	cookieDuration := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	extendedCookieDuration := cookieDuration
	if cfg.GetExtendedTokenDuration() > 0 {
		extendedCookieDuration = time.Duration(cfg.GetExtendedTokenDuration()) * time.Hour
	}

	cookieName := cfg.GetContextKey()
	if cookieName == "" {
		cookieName = "blog_session"
	}

	return &CookieSessions{
		cfg:                    cfg,
		tokens:                 tokens,
		cookieName:             cookieName,
		cookieDuration:         cookieDuration,
		extendedCookieDuration: extendedCookieDuration,
		loginPath:              LoginPath,
		Logger:                 defaultLogger(),
	}
}

// WithRevoker makes sign out invalidate the token server side too
func (s *CookieSessions) WithRevoker(r Revoker) *CookieSessions {
	s.revoker = r
	return s
}

func (s *CookieSessions) WithLogger(l Logger) *CookieSessions {
	s.Logger = normalizeLogger(l)
	return s
}

func (s *CookieSessions) GetCookieDuration() time.Duration {
	return s.cookieDuration
}

func (s *CookieSessions) GetExtendedCookieDuration() time.Duration {
	return s.extendedCookieDuration
}

// CookieName is the name of the session cookie
func (s *CookieSessions) CookieName() string {
	return s.cookieName
}

// For returns the SessionIssuer bound to the request
func (s *CookieSessions) For(c router.Context) SessionIssuer {
	return &requestSession{sessions: s, c: c}
}

// Current validates the request cookie and returns its session
func (s *CookieSessions) Current(c router.Context) (*Session, error) {
	raw := c.Cookies(s.cookieName)
	if raw == "" {
		return nil, ErrUnableToFindSession
	}

	claims, err := s.tokens.Validate(raw)
	if err != nil {
		return nil, err
	}

	session, err := sessionFromClaims(claims)
	if err != nil {
		return nil, err
	}

	if s.revoker != nil && session.TokenID != "" {
		revoked, err := s.revoker.IsRevoked(c.Context(), session.TokenID)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check session revocation")
		}
		if revoked {
			return nil, ErrSessionRevoked
		}
	}

	return session, nil
}

const sessionLocalsKey = "account.session"

// SessionFromContext returns the session stored by RequireSession or
// OptionalSession.
func SessionFromContext(c router.Context) (*Session, bool) {
	session, ok := c.Locals(sessionLocalsKey).(*Session)
	return session, ok && session.IsAuthenticated()
}

// RequireSession rejects anonymous requests with a redirect to the login
// page, carrying the original path as redirectUri.
func (s *CookieSessions) RequireSession() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			session, err := s.Current(c)
			if err != nil {
				if !IsAuthError(err) {
					return err
				}

				s.Logger.Debug("session required, redirecting to login",
					"path", c.OriginalURL(),
					"reason", err.Error(),
				)

				if !errors.Is(err, ErrUnableToFindSession) {
					s.clearCookie(c)
				}

				return c.Redirect(s.loginRedirect(c.OriginalURL()), router.StatusFound)
			}

			c.Locals(sessionLocalsKey, session)
			return c.Next()
		}
	}
}

// OptionalSession loads the session when present and never rejects.
func (s *CookieSessions) OptionalSession() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if session, err := s.Current(c); err == nil {
				c.Locals(sessionLocalsKey, session)
			}
			return c.Next()
		}
	}
}

func (s *CookieSessions) loginRedirect(original string) string {
	return withRedirectURI(s.loginPath, original)
}

func (s *CookieSessions) setCookieToken(c router.Context, val string, expires time.Time) {
	c.Cookie(&router.Cookie{
		Name:     s.cookieName,
		Value:    val,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.cfg.GetCookieSecure(),
		SameSite: router.CookieSameSiteLaxMode,
	})
}

func (s *CookieSessions) clearCookie(c router.Context) {
	c.Cookie(&router.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   s.cfg.GetCookieSecure(),
		SameSite: router.CookieSameSiteLaxMode,
	})
}

func (s *CookieSessions) revoke(ctx context.Context, session *Session) {
	if s.revoker == nil || session == nil || session.TokenID == "" {
		return
	}

	if err := s.revoker.Revoke(ctx, session.TokenID, session.ExpiresAt); err != nil {
		s.Logger.Error("failed to revoke session", "token_id", session.TokenID, "error", err)
	}
}

type requestSession struct {
	sessions *CookieSessions
	c        router.Context
}

var _ SessionIssuer = (*requestSession)(nil)

// SignIn issues a new token cookie. The persistent flag sets an explicit
// expiry, otherwise the cookie lives for the browser session. A session
// already on the request is revoked so only the new token stays valid.
func (r *requestSession) SignIn(ctx context.Context, user *User, persistent bool, opts ...SignInOption) error {
	s := r.sessions
	o := resolveSignInOptions(opts)

	previous, _ := SessionFromContext(r.c)
	if previous == nil {
		previous, _ = s.Current(r.c)
	}

	extended := o.extended
	if !o.extendedSet && previous != nil {
		extended = previous.Extended
	}

	ttl := s.cookieDuration
	if extended {
		ttl = s.extendedCookieDuration
	}

	token, claims, err := s.tokens.Generate(user, ttl, extended)
	if err != nil {
		return err
	}

	expires := time.Time{}
	if persistent {
		expires = claims.Expires()
	}
	s.setCookieToken(r.c, token, expires)

	s.revoke(ctx, previous)

	if session, err := sessionFromClaims(claims); err == nil {
		r.c.Locals(sessionLocalsKey, session)
	}

	return nil
}

// SignOut clears the cookie and revokes the token. Safe without a session.
func (r *requestSession) SignOut(ctx context.Context) error {
	s := r.sessions

	previous, _ := SessionFromContext(r.c)
	if previous == nil {
		previous, _ = s.Current(r.c)
	}

	s.clearCookie(r.c)
	r.c.Locals(sessionLocalsKey, nil)
	s.revoke(ctx, previous)
	return nil
}

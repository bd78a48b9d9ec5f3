package account

import (
	"github.com/goliatone/go-errors"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode("IDENTITY_NOT_FOUND")

// ErrMismatchedHashAndPassword is returned for any failed password check
var ErrMismatchedHashAndPassword = errors.New("identity auth: mismatched password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("INVALID_CREDENTIALS")

// ErrTooManyLoginAttempts is returned while an account is locked out
var ErrTooManyLoginAttempts = errors.New("identity auth: too many login attempts", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("TOO_MANY_ATTEMPTS")

// ErrNoEmptyString refuses empty passwords
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode("EMPTY_PASSWORD")

// ErrDuplicateAccount is returned when the email or username is taken
var ErrDuplicateAccount = errors.New("an account with that email or username already exists", errors.CategoryConflict).
	WithCode(errors.CodeConflict).
	WithTextCode("DUPLICATE_ACCOUNT")

// ErrAlreadyInitialized is returned once the blog has been configured
var ErrAlreadyInitialized = errors.New("blog is already initialized", errors.CategoryConflict).
	WithCode(errors.CodeConflict).
	WithTextCode("ALREADY_INITIALIZED")

// ErrSiteNotConfigured is returned when no blog settings exist yet
var ErrSiteNotConfigured = errors.New("blog settings not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode("SITE_NOT_CONFIGURED")

// ErrSessionInvalidated is returned when an authenticated session points
// to an identity that no longer resolves
var ErrSessionInvalidated = errors.New("session no longer matches an identity", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("SESSION_INVALIDATED")

// ErrUnableToFindSession is the error when our request has no cookie
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("SESSION_MISSING")

// ErrSessionRevoked is returned for tokens that were signed out
var ErrSessionRevoked = errors.New("session has been revoked", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("SESSION_REVOKED")

// ErrTokenExpired is returned for expired session tokens
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("TOKEN_EXPIRED")

// ErrTokenMalformed is returned for tokens that fail to parse or verify
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("TOKEN_MALFORMED")

// IsAuthError reports whether err is an authentication failure, as
// opposed to an infrastructure error.
func IsAuthError(err error) bool {
	richErr, ok := asRichError(err)
	return ok && richErr.Category == errors.CategoryAuth
}

// IsConflictError reports whether err is a uniqueness conflict.
func IsConflictError(err error) bool {
	richErr, ok := asRichError(err)
	return ok && richErr.Category == errors.CategoryConflict
}

// IsNotFoundError reports whether err means the record does not exist.
func IsNotFoundError(err error) bool {
	richErr, ok := asRichError(err)
	return ok && richErr.Category == errors.CategoryNotFound
}

func asRichError(err error) (*errors.Error, bool) {
	if err == nil {
		return nil, false
	}
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return nil, false
	}
	return richErr, true
}

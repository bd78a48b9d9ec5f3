package account

import (
	"context"
	"sync"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// MaxLoginAttempts is the maximun number of attempts a user gets
// in a period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = "24h"

// UserProvider is the CredentialStore backed by the users repository
type UserProvider struct {
	repo      RepositoryManager
	register  *RegisterUserHandler
	logger    Logger
	hashCost  int
	useHashid bool

	dummyMu   sync.Mutex
	dummyHash string
	dummyCost int
}

var _ CredentialStore = (*UserProvider)(nil)

// NewUserProvider will create a new UserProvider
func NewUserProvider(repo RepositoryManager) *UserProvider {
	return &UserProvider{
		repo:     repo,
		register: NewRegisterUserHandler(repo),
		logger:   defaultLogger(),
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	u.logger = normalizeLogger(l)
	return u
}

// WithHashCost sets the bcrypt cost used for new passwords.
func (u *UserProvider) WithHashCost(cost int) *UserProvider {
	u.hashCost = cost
	u.register.hashCost = cost
	return u
}

// UseHashid derives new user ids from their email.
func (u *UserProvider) UseHashid(enabled bool) *UserProvider {
	u.useHashid = enabled
	return u
}

func (u *UserProvider) FindByEmail(ctx context.Context, email string) (*User, error) {
	return u.repo.Users().GetByEmail(ctx, email)
}

func (u *UserProvider) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return u.repo.Users().GetByID(ctx, id.String())
}

// Create stores a new user with the given cleartext password. The user
// record is updated in place with its id and timestamps.
func (u *UserProvider) Create(ctx context.Context, user *User, password string) error {
	if user == nil {
		return errors.New("user is required", errors.CategoryBadInput)
	}

	return u.register.Execute(ctx, RegisterUserMessage{
		User:      user,
		Password:  password,
		UseHashid: u.useHashid,
	})
}

func (u *UserProvider) Update(ctx context.Context, user *User) error {
	if user == nil || user.ID == uuid.Nil {
		return ErrIdentityNotFound
	}
	return u.repo.Users().UpdateProfile(ctx, user)
}

func (u *UserProvider) GrantPermission(ctx context.Context, user *User, perm Permission) error {
	if user == nil {
		return ErrIdentityNotFound
	}

	if err := u.repo.Users().GrantPermission(ctx, user.ID, perm); err != nil {
		return err
	}

	user.Permissions = user.Permissions.Grant(perm)
	return nil
}

// VerifyPassword checks the password against the stored hash. With lockout
// enabled, failed attempts are counted and the account is refused after
// MaxLoginAttempts failures inside CoolDownPeriod.
func (u *UserProvider) VerifyPassword(ctx context.Context, user *User, password string, lockout bool) error {
	if user == nil {
		// compare against a hash of the same cost real users have
		_ = ComparePasswordAndHash(password, u.unknownUserHash())
		return ErrMismatchedHashAndPassword
	}

	if lockout && user.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*user.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			user.LoginAttempts = 0
		}
	}

	//if we have too many attempts in the given window, cool off!
	if lockout && user.LoginAttempts > MaxLoginAttempts {
		return ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if !errors.Is(err, ErrMismatchedHashAndPassword) {
			u.logger.Warn("password hash comparison failed", "user_id", user.ID, "error", err)
		}

		if lockout {
			if err2 := u.repo.Users().TrackAttemptedLogin(ctx, user); err2 != nil {
				return errors.Wrap(err2, errors.CategoryInternal, "failed to track login attempt")
			}
		}

		return ErrMismatchedHashAndPassword
	}

	if err := u.repo.Users().TrackSuccessfulLogin(ctx, user); err != nil {
		u.logger.Error("failed to track successful login", "error", err)
	}

	return nil
}

func (u *UserProvider) unknownUserHash() string {
	u.dummyMu.Lock()
	defer u.dummyMu.Unlock()

	if u.dummyHash == "" || u.dummyCost != u.hashCost {
		u.dummyHash = RandomPasswordHashWithCost(u.hashCost)
		u.dummyCost = u.hashCost
	}
	return u.dummyHash
}

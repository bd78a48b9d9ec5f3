package account

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the bun backed user repository. Generic lookups and inserts come
// from the embedded repository; profile, permission and login tracking
// writes are column scoped and live here.
type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)

	UpdateProfile(ctx context.Context, user *User) error
	UpdateProfileTx(ctx context.Context, tx bun.IDB, user *User) error
	GrantPermission(ctx context.Context, id uuid.UUID, perm Permission) error
	GrantPermissionTx(ctx context.Context, tx bun.IDB, id uuid.UUID, perm Permission) error

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record, err := a.Repository.GetTx(ctx, tx, repository.SelectBy("email", "=", NormalizeEmail(email)))
	if err != nil {
		return nil, notFoundOr(err, "failed to find user by email")
	}
	return record, nil
}

func (a *users) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIDTx(ctx, a.db, id, criteria...)
}

func (a *users) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (*User, error) {
	uid, err := uuid.Parse(id)
	if err != nil || uid == uuid.Nil {
		return nil, ErrIdentityNotFound
	}

	record, err := a.Repository.GetByIDTx(ctx, tx, uid.String(), criteria...)
	if err != nil {
		return nil, notFoundOr(err, "failed to find user by id")
	}
	return record, nil
}

func (a *users) Create(ctx context.Context, user *User) (*User, error) {
	return a.CreateTx(ctx, a.db, user)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	if user == nil {
		return nil, errors.New("user is required", errors.CategoryBadInput)
	}

	prepareUserDefaults(user)

	record, err := a.Repository.CreateTx(ctx, tx, user)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateAccount
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to insert user")
	}

	return record, nil
}

func (a *users) UpdateProfile(ctx context.Context, user *User) error {
	return a.UpdateProfileTx(ctx, a.db, user)
}

// UpdateProfileTx persists the mutable profile columns only. Username,
// password and permissions are never written here.
func (a *users) UpdateProfileTx(ctx context.Context, tx bun.IDB, user *User) error {
	user.Email = NormalizeEmail(user.Email)
	user.UpdatedAt = time.Now()

	res, err := tx.NewUpdate().
		Model(user).
		Column("email", "nickname", "avatar", "bio", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateAccount
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to update user profile")
	}

	return ensureAffected(res)
}

func (a *users) GrantPermission(ctx context.Context, id uuid.UUID, perm Permission) error {
	return a.GrantPermissionTx(ctx, a.db, id, perm)
}

func (a *users) GrantPermissionTx(ctx context.Context, tx bun.IDB, id uuid.UUID, perm Permission) error {
	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("permissions = permissions | ?", perm).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to grant permission")
	}

	return ensureAffected(res)
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	loggedInAt := time.Now()
	_, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("loggedin_at = ?", loggedInAt).
		Set("login_attempt_at = NULL").
		Set("login_attempts = 0").
		Where("id = ?", user.ID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to track successful login")
	}

	user.LoggedInAt = &loggedInAt
	user.LoginAttempts = 0
	user.LoginAttemptAt = nil
	return nil
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	now := time.Now()
	attempts := user.LoginAttempts + 1

	_, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("login_attempts = ?", attempts).
		Set("login_attempt_at = ?", now).
		Where("id = ?", user.ID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to track login attempt")
	}

	user.LoginAttempts = attempts
	user.LoginAttemptAt = &now
	return nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	record.Email = NormalizeEmail(record.Email)

	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
}

func notFoundOr(err error, msg string) error {
	if repository.IsRecordNotFound(err) {
		return ErrIdentityNotFound
	}
	return errors.Wrap(err, errors.CategoryInternal, msg)
}

func ensureAffected(res sql.Result) error {
	if res == nil {
		return nil
	}
	if err := repository.SQLExpectedCount(res, 1); err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrIdentityNotFound
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to read affected rows")
	}
	return nil
}

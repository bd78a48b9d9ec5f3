package account

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RegisterUserMessage carries a new user and its cleartext password. The
// user is filled in with its id and timestamps once stored.
type RegisterUserMessage struct {
	User      *User
	Password  string
	UseHashid bool
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserHandler struct {
	repo     RepositoryManager
	hashCost int
}

func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return createUserTx(ctx, tx, h.repo.Users(), event.User, event.Password, h.hashCost, event.UseHashid)
	})

	return normalizeTxError(err, "user registration transaction failed")
}

func createUserTx(ctx context.Context, tx bun.IDB, users Users, user *User, password string, cost int, useHashid bool) error {
	hash, err := hashPassword(password, cost)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	user.Email = NormalizeEmail(user.Email)
	user.Username = getUsername(user.Username, user.Email)
	if user.NickName == "" {
		user.NickName = user.Username
	}

	if user.ID == uuid.Nil {
		user.ID = NewUserID(user.Email, useHashid)
	}

	_, err = users.CreateTx(ctx, tx, user)
	return err
}

func hashPassword(password string, cost int) (string, error) {
	var (
		hash string
		err  error
	)

	if cost > 0 {
		hash, err = HashPasswordWithCost(password, cost)
	} else {
		hash, err = HashPassword(password)
	}

	if err != nil {
		if _, ok := asRichError(err); ok {
			return "", err
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}
	return hash, nil
}

// normalizeTxError keeps rich errors as they are so callers can match the
// sentinels, and wraps everything else.
func normalizeTxError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if _, ok := asRichError(err); ok {
		return err
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, msg)
}

func getUsername(username, email string) string {
	username = strings.TrimSpace(username)
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}

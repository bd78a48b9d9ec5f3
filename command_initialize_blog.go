package account

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// InitializeBlogMessage is the first-run request: the administrator account
// and the blog title and description.
type InitializeBlogMessage struct {
	Username    string
	NickName    string
	Email       string
	Password    string
	Title       string
	Description string
	UseHashid   bool

	// Admin is set to the stored administrator on success
	Admin *User
}

func (e InitializeBlogMessage) Type() string { return "blog.initialize" }

// InitializeBlogHandler creates the administrator, grants it the admin
// permission and writes the blog settings in a single transaction.
type InitializeBlogHandler struct {
	repo     RepositoryManager
	defaults BlogDefaults
	hashCost int
	logger   Logger
}

var _ BlogInitializer = (*InitializeBlogHandler)(nil)

func NewInitializeBlogHandler(repo RepositoryManager) *InitializeBlogHandler {
	return &InitializeBlogHandler{
		repo:     repo,
		defaults: DefaultBlogDefaults(),
		logger:   defaultLogger(),
	}
}

func (h *InitializeBlogHandler) WithDefaults(d BlogDefaults) *InitializeBlogHandler {
	h.defaults = d.normalize()
	return h
}

func (h *InitializeBlogHandler) WithHashCost(cost int) *InitializeBlogHandler {
	h.hashCost = cost
	return h
}

func (h *InitializeBlogHandler) WithLogger(l Logger) *InitializeBlogHandler {
	h.logger = normalizeLogger(l)
	return h
}

// Initialize implements BlogInitializer.
func (h *InitializeBlogHandler) Initialize(ctx context.Context, msg InitializeBlogMessage) error {
	return h.Execute(ctx, &msg)
}

func (h *InitializeBlogHandler) Execute(ctx context.Context, event *InitializeBlogMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during blog initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializeBlogHandler) execute(ctx context.Context, event *InitializeBlogMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	admin := &User{
		Username: strings.TrimSpace(event.Username),
		NickName: strings.TrimSpace(event.NickName),
		Email:    event.Email,
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := h.repo.Blogs().ExistsTx(ctx, tx)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyInitialized
		}

		if err := createUserTx(ctx, tx, h.repo.Users(), admin, event.Password, h.hashCost, event.UseHashid); err != nil {
			return err
		}

		if err := h.repo.Users().GrantPermissionTx(ctx, tx, admin.ID, PermissionAdmin); err != nil {
			return err
		}
		admin.Permissions = admin.Permissions.Grant(PermissionAdmin)

		defaults := h.defaults.normalize()
		return h.repo.Blogs().CreateTx(ctx, tx, &BlogSettings{
			Title:        strings.TrimSpace(event.Title),
			Description:  strings.TrimSpace(event.Description),
			Theme:        defaults.Theme,
			ItemsPerPage: defaults.ItemsPerPage,
			Version:      defaults.Version,
			Logo:         defaults.Logo,
		})
	})

	if err = normalizeTxError(err, "blog initialization transaction failed"); err != nil {
		return err
	}

	h.logger.Info("blog initialized", "admin_id", admin.ID, "username", admin.Username)
	event.Admin = admin
	return nil
}

package account

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Blogs is the bun backed store for the single blog settings row. It
// implements SiteStore.
type Blogs interface {
	SiteStore
	ExistsTx(ctx context.Context, tx bun.IDB) (bool, error)
	CreateTx(ctx context.Context, tx bun.IDB, settings *BlogSettings) error
}

type blogs struct {
	repo repository.Repository[*BlogSettings]
	db   *bun.DB
}

var _ Blogs = (*blogs)(nil)

func NewBlogsRepository(db *bun.DB) Blogs {
	repo := repository.NewRepository[*BlogSettings](db, repository.ModelHandlers[*BlogSettings]{
		NewRecord: func() *BlogSettings { return &BlogSettings{} },
		GetID: func(b *BlogSettings) uuid.UUID {
			if b == nil {
				return uuid.Nil
			}
			return b.ID
		},
		SetID: func(b *BlogSettings, id uuid.UUID) {
			if b != nil {
				b.ID = id
			}
		},
		GetIdentifier: func() string {
			return "id"
		},
	})

	return &blogs{repo: repo, db: db}
}

func (b *blogs) Exists(ctx context.Context) (bool, error) {
	return b.ExistsTx(ctx, b.db)
}

func (b *blogs) ExistsTx(ctx context.Context, tx bun.IDB) (bool, error) {
	exists, err := tx.NewSelect().
		Model((*BlogSettings)(nil)).
		Exists(ctx)
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to check blog settings")
	}
	return exists, nil
}

func (b *blogs) Get(ctx context.Context) (*BlogSettings, error) {
	record, err := b.repo.GetByID(ctx, SingletonBlogID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrSiteNotConfigured
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load blog settings")
	}
	return record, nil
}

// Set writes the settings, creating the row when missing.
func (b *blogs) Set(ctx context.Context, settings *BlogSettings) error {
	prepareBlogDefaults(settings)

	_, err := b.db.NewInsert().
		Model(settings).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("description = EXCLUDED.description").
		Set("theme = EXCLUDED.theme").
		Set("items_per_page = EXCLUDED.items_per_page").
		Set("version = EXCLUDED.version").
		Set("logo = EXCLUDED.logo").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to save blog settings")
	}
	return nil
}

// CreateTx inserts the settings row and fails with ErrAlreadyInitialized
// when it already exists.
func (b *blogs) CreateTx(ctx context.Context, tx bun.IDB, settings *BlogSettings) error {
	prepareBlogDefaults(settings)

	if _, err := b.repo.CreateTx(ctx, tx, settings); err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyInitialized
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to create blog settings")
	}
	return nil
}

func prepareBlogDefaults(settings *BlogSettings) {
	if settings == nil {
		return
	}

	settings.ID = SingletonBlogID

	now := time.Now()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = now
	}
	settings.UpdatedAt = now
}

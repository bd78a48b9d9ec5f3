package account

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,type:uuid" json:"id,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	NickName       string     `bun:"nickname,notnull" json:"nickname,omitempty"`
	Avatar         string     `bun:"avatar" json:"avatar,omitempty"`
	Bio            string     `bun:"bio" json:"bio,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	Permissions    Permission `bun:"permissions,notnull,default:0" json:"permissions"`
	LoginAttempts  int        `bun:"login_attempts,notnull,default:0" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsAdmin reports whether the user holds the administrator permission.
func (u *User) IsAdmin() bool {
	return u != nil && u.Permissions.Has(PermissionAdmin)
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SingletonBlogID is the fixed primary key of the only blogs row. A second
// insert violates the key, which is what keeps initialization at most once.
var SingletonBlogID = uuid.MustParse("0b10c0de-0000-4000-8000-000000000001")

// BlogSettings is the site configuration written by first-run initialization.
type BlogSettings struct {
	bun.BaseModel `bun:"table:blogs,alias:blg"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"-"`
	Title         string    `bun:"title,notnull" json:"title"`
	Description   string    `bun:"description" json:"description,omitempty"`
	Theme         string    `bun:"theme,notnull" json:"theme"`
	ItemsPerPage  int       `bun:"items_per_page,notnull" json:"items_per_page"`
	Version       string    `bun:"version" json:"version,omitempty"`
	Logo          string    `bun:"logo" json:"logo,omitempty"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at,omitempty"`
}

// BlogDefaults are the system values a new blog starts with.
type BlogDefaults struct {
	Theme        string
	ItemsPerPage int
	Version      string
	Logo         string
}

const (
	DefaultTheme        = "standard"
	DefaultItemsPerPage = 10
	DefaultVersion      = "1.0"
	DefaultLogo         = "/img/logo.png"
)

// DefaultBlogDefaults returns the built in blog defaults.
func DefaultBlogDefaults() BlogDefaults {
	return BlogDefaults{
		Theme:        DefaultTheme,
		ItemsPerPage: DefaultItemsPerPage,
		Version:      DefaultVersion,
		Logo:         DefaultLogo,
	}
}

func (d BlogDefaults) normalize() BlogDefaults {
	if d.Theme == "" {
		d.Theme = DefaultTheme
	}
	if d.ItemsPerPage <= 0 {
		d.ItemsPerPage = DefaultItemsPerPage
	}
	if d.Version == "" {
		d.Version = DefaultVersion
	}
	if d.Logo == "" {
		d.Logo = DefaultLogo
	}
	return d
}

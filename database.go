package account

import (
	"context"
	"database/sql"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// OpenDatabase opens a bun database for one of the supported drivers.
// SQLite DSNs are passed as is, e.g. "file::memory:?cache=shared".
func OpenDatabase(driver, dsn string) (*bun.DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite, "sqlite3":
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open sqlite database")
		}
		// a shared in memory database disappears once the last connection closes
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case DriverPostgres, "pgx", "postgresql":
		sqldb, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open postgres database")
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return nil, errors.New("unsupported database driver: "+driver, errors.CategoryBadInput).
			WithTextCode("UNSUPPORTED_DRIVER")
	}
}

// Migrate creates the users and blogs tables when missing.
func Migrate(ctx context.Context, db bun.IDB) error {
	models := []any{
		(*User)(nil),
		(*BlogSettings)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to run migrations")
		}
	}

	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

package repo

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"
)

// SQLiteRepository provides access to a local SQLite database. It backs offline
// development and tests; notifications are not available on this driver.
type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLite opens a new connection to the SQLite database.
func NewSQLite(ctx context.Context, databasePath string, logger *slog.Logger) (*SQLiteRepository, error) {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		return nil, errors.New("sqlite database path is empty")
	}
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn = fmt.Sprintf("%s%s_pragma=busy_timeout=10000&_pragma=journal_mode=WAL&_pragma=foreign_keys=ON", dsn, sep)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// A single connection keeps in-memory databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping sqlite")
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger.With("component", "repo_sqlite"),
	}, nil
}

// Close releases the database connection.
func (r *SQLiteRepository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// Ping ensures the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// RunMigrations applies every .sql file of filesystem in name order.
func (r *SQLiteRepository) RunMigrations(ctx context.Context, filesystem fs.FS) error {
	scripts, err := readMigrations(filesystem)
	if err != nil {
		return err
	}
	for _, script := range scripts {
		if _, err := r.db.ExecContext(ctx, script.sql); err != nil {
			return errors.Wrapf(err, "apply migration %s", script.name)
		}
	}
	return nil
}

// Listen is not supported: SQLite has no notification channel.
func (r *SQLiteRepository) Listen(ctx context.Context, channel string) (Subscription, error) {
	return nil, errors.Wrapf(ErrNotSupported, "listen %s", channel)
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

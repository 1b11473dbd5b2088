package repo

import (
	"context"
	"io/fs"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ApplyMigrations executes SQL files against the provided pool in lexicographical order.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, filesystem fs.FS) error {
	scripts, err := readMigrations(filesystem)
	if err != nil {
		return err
	}
	for _, script := range scripts {
		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, script.sql)
			return err
		})
		if err != nil {
			return errors.Wrapf(err, "execute migration %s", script.name)
		}
	}
	return nil
}

type migrationScript struct {
	name string
	sql  string
}

// readMigrations returns the non-empty .sql files at the root of filesystem, sorted by name.
func readMigrations(filesystem fs.FS) ([]migrationScript, error) {
	entries, err := fs.ReadDir(filesystem, ".")
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var scripts []migrationScript
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := fs.ReadFile(filesystem, entry.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "read migration %s", entry.Name())
		}
		if len(data) == 0 {
			continue
		}
		scripts = append(scripts, migrationScript{name: entry.Name(), sql: string(data)})
	}
	return scripts, nil
}

package repo

import (
	"context"
	"io/fs"
	"log/slog"
	"time"

	"nexus-bot/internal/metrics"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository provides typed access to the Supabase (Postgres) store.
type PostgresRepository struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics *metrics.Metrics
	schema  string
}

// New opens a new connection pool to the database with the desired search_path.
func New(ctx context.Context, databaseURL, schema string, logger *slog.Logger, m *metrics.Metrics) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database url")
	}

	if cfg.ConnConfig.RuntimeParams == nil {
		cfg.ConnConfig.RuntimeParams = map[string]string{}
	}
	if schema != "" {
		cfg.ConnConfig.RuntimeParams["search_path"] = schema
	}
	// Supabase's pooler does not support prepared statements.
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create pool")
	}

	r := &PostgresRepository{
		pool:    pool,
		logger:  logger.With("component", "repo"),
		metrics: m,
		schema:  schema,
	}

	if err := r.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping database")
	}

	return r, nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// Ping ensures the database is reachable.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// WithTx executes fn within a database transaction.
func (r *PostgresRepository) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, r.pool, fn)
}

// RunMigrations applies schema migrations on the connected database.
func (r *PostgresRepository) RunMigrations(ctx context.Context, filesystem fs.FS) error {
	return ApplyMigrations(ctx, r.pool, filesystem)
}

func (r *PostgresRepository) observe(op string, start time.Time) {
	if r.metrics == nil {
		return
	}
	r.metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

package repo

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductInsertChannel is the notification channel fed by the products insert trigger.
const ProductInsertChannel = "products_insert"

// Listen dedicates a pooled connection to LISTEN on channel.
func (r *PostgresRepository) Listen(ctx context.Context, channel string) (Subscription, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "acquire listen connection")
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, errors.Wrapf(err, "listen %s", channel)
	}
	r.logger.Info("listening for notifications", "channel", channel)
	return &pgSubscription{conn: conn}, nil
}

type pgSubscription struct {
	conn *pgxpool.Conn
}

func (s *pgSubscription) Next(ctx context.Context) (string, error) {
	n, err := s.conn.Conn().WaitForNotification(ctx)
	if err != nil {
		return "", errors.Wrap(err, "wait for notification")
	}
	return n.Payload, nil
}

func (s *pgSubscription) Close(ctx context.Context) error {
	defer s.conn.Release()
	if _, err := s.conn.Exec(ctx, "UNLISTEN *"); err != nil {
		return errors.Wrap(err, "unlisten")
	}
	return nil
}

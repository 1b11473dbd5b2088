package repo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// UpsertAnnouncement stores the message reference under the admin-chosen id.
func (r *PostgresRepository) UpsertAnnouncement(ctx context.Context, ann Announcement) error {
	defer r.observe("upsert_announcement", time.Now())
	const q = `
INSERT INTO announcements (id, discord_message_id)
VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET discord_message_id = EXCLUDED.discord_message_id;
`
	if _, err := r.pool.Exec(ctx, q, ann.ID, ann.DiscordMessageID); err != nil {
		return errors.Wrap(err, "upsert announcement")
	}
	return nil
}

// GetAnnouncement returns the announcement stored under id.
func (r *PostgresRepository) GetAnnouncement(ctx context.Context, id string) (*Announcement, error) {
	defer r.observe("get_announcement", time.Now())
	var ann Announcement
	err := r.pool.QueryRow(ctx, `SELECT id, discord_message_id FROM announcements WHERE id = $1 LIMIT 1;`, id).
		Scan(&ann.ID, &ann.DiscordMessageID)
	if err != nil {
		return nil, wrapNoRows(err, "get announcement")
	}
	return &ann, nil
}

// DeleteAnnouncement removes the announcement record.
func (r *PostgresRepository) DeleteAnnouncement(ctx context.Context, id string) error {
	defer r.observe("delete_announcement", time.Now())
	if _, err := r.pool.Exec(ctx, `DELETE FROM announcements WHERE id = $1;`, id); err != nil {
		return errors.Wrap(err, "delete announcement")
	}
	return nil
}

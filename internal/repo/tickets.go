package repo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

const pgTicketColumns = `id::text, order_id::text, customer_id, COALESCE(discord_user_tag, ''), channel_id, status, closed_at`

// FindActiveTicket returns the active ticket of an order, if any.
func (r *PostgresRepository) FindActiveTicket(ctx context.Context, orderID string) (*Ticket, error) {
	defer r.observe("find_active_ticket", time.Now())
	q := `SELECT ` + pgTicketColumns + ` FROM tickets WHERE order_id::text = $1 AND status = 'active' LIMIT 1;`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, q, orderID))
	if err != nil {
		return nil, wrapNoRows(err, "find active ticket")
	}
	return ticket, nil
}

// CreateTicket inserts an active ticket. A zero ID is replaced with a fresh UUID.
func (r *PostgresRepository) CreateTicket(ctx context.Context, ticket Ticket) (*Ticket, error) {
	defer r.observe("create_ticket", time.Now())
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	if ticket.Status == "" {
		ticket.Status = TicketActive
	}
	q := `
INSERT INTO tickets (id, order_id, customer_id, discord_user_tag, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + pgTicketColumns + `;`
	created, err := scanTicket(r.pool.QueryRow(ctx, q, ticket.ID.String(), ticket.OrderID, ticket.CustomerID, ticket.CustomerTag, string(ticket.Status)))
	if err != nil {
		return nil, errors.Wrap(err, "create ticket")
	}
	return created, nil
}

// SetTicketChannel stores the provisioned channel id.
func (r *PostgresRepository) SetTicketChannel(ctx context.Context, ticketID uuid.UUID, channelID string) error {
	defer r.observe("set_ticket_channel", time.Now())
	ct, err := r.pool.Exec(ctx, `UPDATE tickets SET channel_id = $2 WHERE id::text = $1;`, ticketID.String(), channelID)
	if err != nil {
		return errors.Wrap(err, "set ticket channel")
	}
	if ct.RowsAffected() == 0 {
		return errors.Wrapf(ErrNotFound, "ticket %s", ticketID)
	}
	return nil
}

// CloseTicket marks a ticket closed at closedAt.
func (r *PostgresRepository) CloseTicket(ctx context.Context, ticketID uuid.UUID, closedAt time.Time) error {
	defer r.observe("close_ticket", time.Now())
	ct, err := r.pool.Exec(ctx, `UPDATE tickets SET status = 'closed', closed_at = $2 WHERE id::text = $1;`, ticketID.String(), closedAt.UTC())
	if err != nil {
		return errors.Wrap(err, "close ticket")
	}
	if ct.RowsAffected() == 0 {
		return errors.Wrapf(ErrNotFound, "ticket %s", ticketID)
	}
	return nil
}

// InsertTicketMessage appends a ticket message log entry.
func (r *PostgresRepository) InsertTicketMessage(ctx context.Context, msg TicketMessage) error {
	defer r.observe("insert_ticket_message", time.Now())
	const q = `
INSERT INTO ticket_messages (ticket_id, author_name, author_tag, content, is_bot)
VALUES ($1, $2, $3, $4, $5);
`
	if _, err := r.pool.Exec(ctx, q, msg.TicketID.String(), msg.AuthorName, msg.AuthorTag, msg.Content, msg.IsBot); err != nil {
		return errors.Wrap(err, "insert ticket message")
	}
	return nil
}

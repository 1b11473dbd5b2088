package repo

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

const sqliteOrderColumns = `id, order_id, nexus_code, status, COALESCE(email, ''), CAST(COALESCE(total, '0') AS TEXT),
       COALESCE(currency, ''), COALESCE(items, '[]'), discord_user_id, discord_user`

const sqliteTicketColumns = `id, order_id, customer_id, COALESCE(discord_user_tag, ''), channel_id, status, closed_at`

// -- Orders --

func (r *SQLiteRepository) GetOrderByCode(ctx context.Context, code string) (*Order, error) {
	q := `SELECT ` + sqliteOrderColumns + ` FROM orders WHERE nexus_code = ? LIMIT 1;`
	order, err := scanOrder(r.db.QueryRowContext(ctx, q, code))
	if err != nil {
		return nil, wrapNoRows(err, "get order by code")
	}
	return order, nil
}

func (r *SQLiteRepository) GetOrderByID(ctx context.Context, id string) (*Order, error) {
	q := `SELECT ` + sqliteOrderColumns + ` FROM orders WHERE id = ? LIMIT 1;`
	order, err := scanOrder(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, wrapNoRows(err, "get order by id")
	}
	return order, nil
}

func (r *SQLiteRepository) FindOrderByOrderID(ctx context.Context, orderID string) (*Order, error) {
	q := `SELECT ` + sqliteOrderColumns + ` FROM orders WHERE lower(order_id) = lower(?) LIMIT 1;`
	order, err := scanOrder(r.db.QueryRowContext(ctx, q, orderID))
	if err != nil {
		return nil, wrapNoRows(err, "find order by order id")
	}
	return order, nil
}

func (r *SQLiteRepository) TransitionOrderByID(ctx context.Context, id string, to OrderStatus, actor *string) (*Order, error) {
	current, err := r.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.transition(ctx, current, to, actor)
}

func (r *SQLiteRepository) TransitionOrderByOrderID(ctx context.Context, orderID string, to OrderStatus, actor *string) (*Order, error) {
	current, err := r.FindOrderByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return r.transition(ctx, current, to, actor)
}

// transition performs the same conditional update as the Postgres driver, keyed by the
// resolved internal id.
func (r *SQLiteRepository) transition(ctx context.Context, current *Order, to OrderStatus, actor *string) (*Order, error) {
	from := Predecessors(to)
	if len(from) == 0 {
		return nil, &TransitionError{OrderRef: current.OrderID, Current: current.Status, Target: to}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(from)), ", ")
	q := `
UPDATE orders
SET status = ?, discord_user = COALESCE(?, discord_user)
WHERE id = ? AND status IN (` + placeholders + `)
RETURNING ` + sqliteOrderColumns + `;`
	args := []any{string(to), actor, current.ID}
	for _, status := range from {
		args = append(args, status)
	}
	order, err := scanOrder(r.db.QueryRowContext(ctx, q, args...))
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(err, "transition order")
	}
	return nil, &TransitionError{OrderRef: current.OrderID, Current: current.Status, Target: to}
}

func (r *SQLiteRepository) LinkOrderCustomer(ctx context.Context, orderID, discordUserID string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE orders SET discord_user_id = ? WHERE order_id = ?;`, discordUserID, orderID); err != nil {
			return errors.Wrap(err, "link order customer")
		}
		if _, err := tx.ExecContext(ctx, `UPDATE redemption_codes SET discord_user_id = ? WHERE order_id = ?;`, discordUserID, orderID); err != nil {
			return errors.Wrap(err, "link redemption code customer")
		}
		return nil
	})
}

func (r *SQLiteRepository) CountOrdersByStatus(ctx context.Context, status OrderStatus) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM orders WHERE status = ?;`, string(status)).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count orders by status")
	}
	return count, nil
}

// AwardXP mirrors the add_xp procedure with a ledger row and a running total.
func (r *SQLiteRepository) AwardXP(ctx context.Context, discordUserID string, amount int64, reason string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		const upsert = `
INSERT INTO user_xp (discord_id, xp, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (discord_id) DO UPDATE SET xp = user_xp.xp + excluded.xp, updated_at = CURRENT_TIMESTAMP;`
		if _, err := tx.ExecContext(ctx, upsert, discordUserID, amount); err != nil {
			return errors.Wrap(err, "award xp")
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO xp_events (discord_id, amount, reason) VALUES (?, ?, ?);`, discordUserID, amount, reason); err != nil {
			return errors.Wrap(err, "record xp event")
		}
		return nil
	})
}

// -- Tickets --

func (r *SQLiteRepository) FindActiveTicket(ctx context.Context, orderID string) (*Ticket, error) {
	q := `SELECT ` + sqliteTicketColumns + ` FROM tickets WHERE order_id = ? AND status = 'active' LIMIT 1;`
	ticket, err := scanTicket(r.db.QueryRowContext(ctx, q, orderID))
	if err != nil {
		return nil, wrapNoRows(err, "find active ticket")
	}
	return ticket, nil
}

func (r *SQLiteRepository) CreateTicket(ctx context.Context, ticket Ticket) (*Ticket, error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	if ticket.Status == "" {
		ticket.Status = TicketActive
	}
	q := `
INSERT INTO tickets (id, order_id, customer_id, discord_user_tag, status)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + sqliteTicketColumns + `;`
	created, err := scanTicket(r.db.QueryRowContext(ctx, q, ticket.ID.String(), ticket.OrderID, ticket.CustomerID, ticket.CustomerTag, string(ticket.Status)))
	if err != nil {
		return nil, errors.Wrap(err, "create ticket")
	}
	return created, nil
}

func (r *SQLiteRepository) SetTicketChannel(ctx context.Context, ticketID uuid.UUID, channelID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tickets SET channel_id = ? WHERE id = ?;`, channelID, ticketID.String())
	if err != nil {
		return errors.Wrap(err, "set ticket channel")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(ErrNotFound, "ticket %s", ticketID)
	}
	return nil
}

func (r *SQLiteRepository) CloseTicket(ctx context.Context, ticketID uuid.UUID, closedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tickets SET status = 'closed', closed_at = ? WHERE id = ?;`, closedAt.UTC(), ticketID.String())
	if err != nil {
		return errors.Wrap(err, "close ticket")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(ErrNotFound, "ticket %s", ticketID)
	}
	return nil
}

func (r *SQLiteRepository) InsertTicketMessage(ctx context.Context, msg TicketMessage) error {
	const q = `
INSERT INTO ticket_messages (id, ticket_id, author_name, author_tag, content, is_bot)
VALUES (?, ?, ?, ?, ?, ?);
`
	if _, err := r.db.ExecContext(ctx, q, uuid.NewString(), msg.TicketID.String(), msg.AuthorName, msg.AuthorTag, msg.Content, msg.IsBot); err != nil {
		return errors.Wrap(err, "insert ticket message")
	}
	return nil
}

// -- Announcements --

func (r *SQLiteRepository) UpsertAnnouncement(ctx context.Context, ann Announcement) error {
	const q = `
INSERT INTO announcements (id, discord_message_id)
VALUES (?, ?)
ON CONFLICT (id) DO UPDATE SET discord_message_id = excluded.discord_message_id;`
	if _, err := r.db.ExecContext(ctx, q, ann.ID, ann.DiscordMessageID); err != nil {
		return errors.Wrap(err, "upsert announcement")
	}
	return nil
}

func (r *SQLiteRepository) GetAnnouncement(ctx context.Context, id string) (*Announcement, error) {
	var ann Announcement
	err := r.db.QueryRowContext(ctx, `SELECT id, discord_message_id FROM announcements WHERE id = ? LIMIT 1;`, id).
		Scan(&ann.ID, &ann.DiscordMessageID)
	if err != nil {
		return nil, wrapNoRows(err, "get announcement")
	}
	return &ann, nil
}

func (r *SQLiteRepository) DeleteAnnouncement(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = ?;`, id); err != nil {
		return errors.Wrap(err, "delete announcement")
	}
	return nil
}

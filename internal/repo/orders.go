package repo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
)

const pgOrderColumns = `id::text, order_id::text, nexus_code, status::text, COALESCE(email, ''), COALESCE(total, 0)::text,
       COALESCE(currency, ''), COALESCE(items::text, '[]'), discord_user_id, discord_user`

// GetOrderByCode looks up an order by its redemption code.
func (r *PostgresRepository) GetOrderByCode(ctx context.Context, code string) (*Order, error) {
	defer r.observe("get_order_by_code", time.Now())
	q := `SELECT ` + pgOrderColumns + ` FROM orders WHERE nexus_code = $1 LIMIT 1;`
	order, err := scanOrder(r.pool.QueryRow(ctx, q, code))
	if err != nil {
		return nil, wrapNoRows(err, "get order by code")
	}
	return order, nil
}

// GetOrderByID looks up an order by its internal identifier.
func (r *PostgresRepository) GetOrderByID(ctx context.Context, id string) (*Order, error) {
	defer r.observe("get_order_by_id", time.Now())
	q := `SELECT ` + pgOrderColumns + ` FROM orders WHERE id::text = $1 LIMIT 1;`
	order, err := scanOrder(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, wrapNoRows(err, "get order by id")
	}
	return order, nil
}

// FindOrderByOrderID looks up an order by its human id, ignoring case.
func (r *PostgresRepository) FindOrderByOrderID(ctx context.Context, orderID string) (*Order, error) {
	defer r.observe("find_order_by_order_id", time.Now())
	q := `SELECT ` + pgOrderColumns + ` FROM orders WHERE lower(order_id::text) = lower($1) LIMIT 1;`
	order, err := scanOrder(r.pool.QueryRow(ctx, q, orderID))
	if err != nil {
		return nil, wrapNoRows(err, "find order by order id")
	}
	return order, nil
}

// TransitionOrderByID moves the order with internal id to status `to`, provided its
// current status allows it. A non-nil actor is stored as the acting administrator.
func (r *PostgresRepository) TransitionOrderByID(ctx context.Context, id string, to OrderStatus, actor *string) (*Order, error) {
	defer r.observe("transition_order", time.Now())
	q := `
UPDATE orders
SET status = $2, discord_user = COALESCE($3, discord_user)
WHERE id::text = $1 AND status::text = ANY($4::text[])
RETURNING ` + pgOrderColumns + `;`
	order, err := scanOrder(r.pool.QueryRow(ctx, q, id, string(to), actor, Predecessors(to)))
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrap(err, "transition order")
	}
	return nil, r.explainRefusal(ctx, func() (*Order, error) { return r.GetOrderByID(ctx, id) }, id, to)
}

// TransitionOrderByOrderID is TransitionOrderByID keyed by the case-insensitive human id.
func (r *PostgresRepository) TransitionOrderByOrderID(ctx context.Context, orderID string, to OrderStatus, actor *string) (*Order, error) {
	defer r.observe("transition_order", time.Now())
	q := `
UPDATE orders
SET status = $2, discord_user = COALESCE($3, discord_user)
WHERE lower(order_id::text) = lower($1) AND status::text = ANY($4::text[])
RETURNING ` + pgOrderColumns + `;`
	order, err := scanOrder(r.pool.QueryRow(ctx, q, orderID, string(to), actor, Predecessors(to)))
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrap(err, "transition order")
	}
	return nil, r.explainRefusal(ctx, func() (*Order, error) { return r.FindOrderByOrderID(ctx, orderID) }, orderID, to)
}

// explainRefusal turns an UPDATE that matched nothing into ErrNotFound or a TransitionError.
func (r *PostgresRepository) explainRefusal(ctx context.Context, lookup func() (*Order, error), ref string, to OrderStatus) error {
	current, err := lookup()
	if err != nil {
		return err
	}
	return &TransitionError{OrderRef: ref, Current: current.Status, Target: to}
}

// LinkOrderCustomer records the requester's Discord id on the order and its redemption code.
func (r *PostgresRepository) LinkOrderCustomer(ctx context.Context, orderID, discordUserID string) error {
	defer r.observe("link_order_customer", time.Now())
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE orders SET discord_user_id = $2 WHERE order_id::text = $1;`, orderID, discordUserID); err != nil {
			return errors.Wrap(err, "link order customer")
		}
		if _, err := tx.Exec(ctx, `UPDATE redemption_codes SET discord_user_id = $2 WHERE order_id::text = $1;`, orderID, discordUserID); err != nil {
			return errors.Wrap(err, "link redemption code customer")
		}
		return nil
	})
}

// CountOrdersByStatus returns the number of orders in status.
func (r *PostgresRepository) CountOrdersByStatus(ctx context.Context, status OrderStatus) (int64, error) {
	defer r.observe("count_orders", time.Now())
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders WHERE status::text = $1;`, string(status)).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count orders by status")
	}
	return count, nil
}

// AwardXP calls the add_xp procedure.
func (r *PostgresRepository) AwardXP(ctx context.Context, discordUserID string, amount int64, reason string) error {
	defer r.observe("award_xp", time.Now())
	const q = `SELECT add_xp(user_discord_id => $1, amount => $2::int, reason => $3);`
	if _, err := r.pool.Exec(ctx, q, discordUserID, amount, reason); err != nil {
		return errors.Wrap(err, "award xp")
	}
	return nil
}

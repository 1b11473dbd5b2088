package repo

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// rowScanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanOrder reads the column list produced by orderColumns of either driver.
func scanOrder(row rowScanner) (*Order, error) {
	var (
		o      Order
		status string
		total  string
		items  string
	)
	if err := row.Scan(&o.ID, &o.OrderID, &o.NexusCode, &status, &o.Email, &total, &o.Currency, &items, &o.DiscordUserID, &o.DiscordUser); err != nil {
		return nil, err
	}
	o.Status = OrderStatus(status)

	amount, err := decimal.NewFromString(strings.TrimSpace(total))
	if err != nil {
		return nil, errors.Wrapf(err, "parse total of order %s", o.OrderID)
	}
	o.Total = amount

	if strings.TrimSpace(items) != "" {
		if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
			return nil, errors.Wrapf(err, "decode items of order %s", o.OrderID)
		}
	}
	return &o, nil
}

func scanTicket(row rowScanner) (*Ticket, error) {
	var (
		t      Ticket
		id     string
		status string
	)
	if err := row.Scan(&id, &t.OrderID, &t.CustomerID, &t.CustomerTag, &t.ChannelID, &status, &t.ClosedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.Wrapf(err, "parse ticket id %q", id)
	}
	t.ID = parsed
	t.Status = TicketStatus(status)
	return &t, nil
}

// DecodeProduct parses a products insert notification payload.
func DecodeProduct(payload string) (*Product, error) {
	var p Product
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, errors.Wrap(err, "decode product payload")
	}
	return &p, nil
}

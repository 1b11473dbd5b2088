package repo

import (
	"database/sql"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrTransitionRejected is returned when an order is not in a state that allows the change.
	ErrTransitionRejected = errors.New("order status transition rejected")
	// ErrNotSupported is returned by drivers lacking a capability (e.g. notifications on sqlite).
	ErrNotSupported = errors.New("operation not supported by store driver")
)

// TransitionError carries the order's current status when a transition is refused.
type TransitionError struct {
	OrderRef string
	Current  OrderStatus
	Target   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order %s: cannot move from %s to %s", e.OrderRef, e.Current, e.Target)
}

// Is lets errors.Is match ErrTransitionRejected.
func (e *TransitionError) Is(target error) bool {
	return target == ErrTransitionRejected
}

func wrapNoRows(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(ErrNotFound, op)
	}
	return errors.Wrap(err, op)
}

// Package retry holds the per-operation retry policies. Operations missing from the
// table are not retried.
package retry

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Operation names used as table keys.
const (
	ProductSyncSubscribe = "product_sync.subscribe"
)

// Policy describes how a failed operation may be repeated.
type Policy struct {
	Retryable   bool
	MaxAttempts int
	Backoff     time.Duration
}

// Table maps operations to their policy.
type Table map[string]Policy

// Default is the policy table used by the bot. Only the product feed resubscribes.
var Default = Table{
	ProductSyncSubscribe: {Retryable: true, MaxAttempts: 3, Backoff: 5 * time.Second},
}

// Lookup returns the policy of op; unknown operations get the zero, non-retryable policy.
func (t Table) Lookup(op string) Policy {
	return t[op]
}

// BackOff builds a fresh schedule for op. A non-retryable operation yields a schedule
// that stops immediately.
func (t Table) BackOff(op string) backoff.BackOff {
	p := t.Lookup(op)
	if !p.Retryable || p.MaxAttempts <= 0 {
		return &backoff.StopBackOff{}
	}
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Backoff), uint64(p.MaxAttempts))
}

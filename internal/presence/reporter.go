// Package presence rotates the bot's displayed activity.
package presence

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"nexus-bot/internal/metrics"
	"nexus-bot/internal/repo"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
)

// StatusSetter updates the gateway presence.
type StatusSetter interface {
	UpdateStatusComplex(usd discordgo.UpdateStatusData) error
}

// OrderCounter counts orders in a status.
type OrderCounter interface {
	CountOrdersByStatus(ctx context.Context, status repo.OrderStatus) (int64, error)
}

// Reporter refreshes the presence on a fixed interval.
type Reporter struct {
	setter   StatusSetter
	counter  OrderCounter
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	pick     func(n int) int
}

// New constructs a Reporter.
func New(setter StatusSetter, counter OrderCounter, m *metrics.Metrics, logger *slog.Logger, interval time.Duration) *Reporter {
	return &Reporter{
		setter:   setter,
		counter:  counter,
		interval: interval,
		logger:   logger.With("component", "presence"),
		metrics:  m,
		pick:     rand.IntN,
	}
}

// Activities lists the rotating statuses for the given verified order count.
func Activities(verified int64) []*discordgo.Activity {
	return []*discordgo.Activity{
		{Name: "NexusStore", Type: discordgo.ActivityTypeWatching},
		{Name: fmt.Sprintf("%d Verified Orders", verified), Type: discordgo.ActivityTypeWatching},
		{Name: "New Products", Type: discordgo.ActivityTypeGame},
		{Name: "!help | DM for Support", Type: discordgo.ActivityTypeListening},
	}
}

// Run updates the presence immediately and then every interval until ctx is done.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if err := r.Update(ctx); err != nil {
			r.logger.Error("error updating presence", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Update sets one randomly chosen activity. On failure the current presence is kept.
func (r *Reporter) Update(ctx context.Context) error {
	verified, err := r.counter.CountOrdersByStatus(ctx, repo.OrderVerified)
	if err != nil {
		r.metrics.Presence("error")
		return errors.Wrap(err, "count verified orders")
	}
	options := Activities(verified)
	activity := options[r.pick(len(options))]
	if err := r.setter.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{activity},
		Status:     string(discordgo.StatusOnline),
	}); err != nil {
		r.metrics.Presence("error")
		return errors.Wrap(err, "update status")
	}
	r.metrics.Presence("ok")
	r.logger.Debug("presence updated", "activity", activity.Name)
	return nil
}

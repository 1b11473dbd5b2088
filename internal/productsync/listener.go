// Package productsync announces newly inserted store products in the shop channel.
package productsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nexus-bot/internal/metrics"
	"nexus-bot/internal/repo"
	"nexus-bot/internal/retry"

	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"
)

// Status is the state reported for the product feed subscription.
type Status string

const (
	StatusSubscribed   Status = "SUBSCRIBED"
	StatusTimedOut     Status = "TIMED_OUT"
	StatusChannelError Status = "CHANNEL_ERROR"
	StatusClosed       Status = "CLOSED"
)

const (
	productColor      = 0xfacc15
	notPricedLabel    = "N/A"
	defaultSubTimeout = 10 * time.Second
	closeTimeout      = 5 * time.Second
)

// Notifier opens a notification subscription. Implemented by the Postgres repository.
type Notifier interface {
	Listen(ctx context.Context, channel string) (repo.Subscription, error)
}

// Poster publishes the announcement embed.
type Poster interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Config controls where products are announced and how the feed resubscribes.
type Config struct {
	ChannelID        string
	StoreURL         string
	SubscribeTimeout time.Duration
	Retry            retry.Table
}

// Listener relays product insert notifications to Discord.
type Listener struct {
	notifier Notifier
	poster   Poster
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// New constructs a Listener. A nil retry table falls back to retry.Default.
func New(notifier Notifier, poster Poster, m *metrics.Metrics, logger *slog.Logger, cfg Config) *Listener {
	if cfg.SubscribeTimeout <= 0 {
		cfg.SubscribeTimeout = defaultSubTimeout
	}
	if cfg.Retry == nil {
		cfg.Retry = retry.Default
	}
	return &Listener{
		notifier: notifier,
		poster:   poster,
		cfg:      cfg,
		logger:   logger.With("component", "productsync"),
		metrics:  m,
		now:      time.Now,
	}
}

// Run subscribes to the product feed and announces every insert until ctx is cancelled.
// Subscription timeouts are retried within the budget of the retry table; any other
// subscription failure is reported and ends the listener.
func (l *Listener) Run(ctx context.Context) error {
	schedule := l.cfg.Retry.BackOff(retry.ProductSyncSubscribe)
	for {
		l.logger.Info("starting product sync listener", "channel", repo.ProductInsertChannel)
		sub, err := l.subscribe(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.report(StatusClosed, nil)
				return nil
			}
			if !isTimeout(err) {
				l.report(StatusChannelError, err)
				return err
			}
			l.report(StatusTimedOut, err)
			wait := schedule.NextBackOff()
			if wait == backoff.Stop {
				l.logger.Error("product sync retry budget exhausted")
				return errors.Wrap(err, "product sync subscribe")
			}
			l.logger.Info("retrying product sync subscription", "delay", wait)
			if !sleep(ctx, wait) {
				l.report(StatusClosed, nil)
				return nil
			}
			continue
		}

		l.report(StatusSubscribed, nil)
		err = l.consume(ctx, sub)
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		if cerr := sub.Close(closeCtx); cerr != nil {
			l.logger.Debug("closing product subscription", "error", cerr)
		}
		cancel()
		if ctx.Err() != nil {
			l.report(StatusClosed, nil)
			return nil
		}
		l.report(StatusChannelError, err)
		return err
	}
}

func (l *Listener) subscribe(ctx context.Context) (repo.Subscription, error) {
	subCtx, cancel := context.WithTimeout(ctx, l.cfg.SubscribeTimeout)
	defer cancel()
	return l.notifier.Listen(subCtx, repo.ProductInsertChannel)
}

func (l *Listener) consume(ctx context.Context, sub repo.Subscription) error {
	for {
		payload, err := sub.Next(ctx)
		if err != nil {
			return errors.Wrap(err, "product notification")
		}
		l.metrics.ProductSyncEvent("notification")
		product, err := repo.DecodeProduct(payload)
		if err != nil {
			l.metrics.Error("productsync")
			l.logger.Warn("skipping product notification", "error", err)
			continue
		}
		l.logger.Info("received new product", "title", product.Title)
		l.announce(product)
	}
}

func (l *Listener) announce(p *repo.Product) {
	if l.cfg.ChannelID == "" {
		l.logger.Warn("shop info channel not configured, product not announced", "title", p.Title)
		return
	}
	_, err := l.poster.ChannelMessageSendComplex(l.cfg.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{ProductEmbed(p, l.cfg.StoreURL, l.now())},
	})
	if err != nil {
		l.metrics.Error("productsync")
		l.logger.Error("failed to post product announcement", "title", p.Title, "error", err)
		return
	}
	l.metrics.Outgoing("embed")
}

func (l *Listener) report(status Status, err error) {
	l.metrics.ProductSyncEvent(string(status))
	if err != nil {
		l.logger.Error("product sync status", "status", status, "error", err)
		return
	}
	l.logger.Info("product sync status", "status", status)
}

// StartingPrice is the price of the first variant, or N/A.
func StartingPrice(p *repo.Product) string {
	if len(p.Variants) == 0 || p.Variants[0].Price.String() == "" {
		return notPricedLabel
	}
	return p.Variants[0].Price.String()
}

// ProductEmbed renders the new product announcement.
func ProductEmbed(p *repo.Product, storeURL string, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "✨ NEW PRODUCT ADDED!",
		Description: fmt.Sprintf("**%s** is now available in the store!\n\n%s", p.Title, p.Description),
		Color:       productColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "💰 Price", Value: fmt.Sprintf("Starting from **%s PLN**", StartingPrice(p)), Inline: true},
			{Name: "🔗 Check it out", Value: fmt.Sprintf("[Click here to buy](%s)", storeURL), Inline: true},
		},
		Timestamp: now.Format(time.RFC3339),
	}
	if p.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: p.ImageURL}
	}
	return embed
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err)
}

// sleep waits for d and reports false when ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

package cache

import (
	"context"
	"crypto/tls"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedemptionLockTTL bounds how long a crashed holder can block other redemptions.
const RedemptionLockTTL = 30 * time.Second

const redemptionKeyPrefix = "nexus:redeem:"

// releaseScript deletes the key only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ErrLocked is returned when another redemption already holds the order lock.
var ErrLocked = errors.New("redemption already in progress")

// Redis wraps a go-redis client with logging helpers.
type Redis struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// Config defines connection parameters for Redis.
type Config struct {
	Addr     string
	Password string
	DB       int
	UseTLS   bool
}

// New returns a Redis client based on provided configuration.
func New(cfg Config, logger *slog.Logger) *Redis {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return NewFromClient(redis.NewClient(opts), logger)
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client, logger *slog.Logger) *Redis {
	return &Redis{
		client: client,
		logger: logger.With("component", "redis"),
		ttl:    RedemptionLockTTL,
	}
}

// Client exposes the underlying go-redis client.
func (r *Redis) Client() *redis.Client {
	return r.client
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis ping")
	}
	return nil
}

// AcquireRedemption takes the per-order redemption lock. The returned release func
// drops the lock if it is still ours; it is safe to call more than once.
func (r *Redis) AcquireRedemption(ctx context.Context, orderID string) (func(context.Context), error) {
	key := redemptionKeyPrefix + orderID
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "redis lock %s", key)
	}
	if !ok {
		return nil, errors.Wrapf(ErrLocked, "order %s", orderID)
	}

	release := func(ctx context.Context) {
		if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil {
			r.logger.Warn("failed to release redemption lock", "order_id", orderID, "error", err)
		}
	}
	return release, nil
}

// Close releases Redis resources.
func (r *Redis) Close() error {
	return r.client.Close()
}

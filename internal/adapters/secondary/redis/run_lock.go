// Package redis holds the Redis-backed adapters.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/sla-notifier/internal/config"
	apperrors "github.com/lorrc/sla-notifier/internal/core/errors"
	"github.com/lorrc/sla-notifier/internal/core/ports"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultLockKey guards pipeline runs.
const DefaultLockKey = "slanotifier:run-lock"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// NewClient connects to Redis. A failed ping is logged, not fatal.
func NewClient(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) *goredis.Client {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("unable to reach redis", "addr", cfg.Addr, "error", err)
	} else {
		logger.Info("connected to redis", "addr", cfg.Addr)
	}
	return client
}

// RunLock is a distributed mutex over a single key with a TTL.
type RunLock struct {
	client goredis.UniversalClient
	key    string
	logger *slog.Logger
}

var _ ports.RunLocker = (*RunLock)(nil)

// NewRunLock creates a lock on key, or DefaultLockKey when key is empty.
func NewRunLock(client goredis.UniversalClient, key string, logger *slog.Logger) *RunLock {
	if key == "" {
		key = DefaultLockKey
	}
	return &RunLock{client: client, key: key, logger: logger.With("component", "run_lock")}
}

// Acquire takes the lock for runID. The lock expires after ttl even if the
// holder dies without releasing it.
func (l *RunLock) Acquire(ctx context.Context, runID uuid.UUID, ttl time.Duration) (func(context.Context) error, error) {
	token := runID.String()
	ok, err := l.client.SetNX(ctx, l.key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		holder, err := l.client.Get(ctx, l.key).Result()
		if err != nil && !errors.Is(err, goredis.Nil) {
			l.logger.WarnContext(ctx, "could not read lock holder", "error", err)
		}
		return nil, fmt.Errorf("%w: held by run %s", apperrors.ErrRunInProgress, holder)
	}

	release := func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Int()
		if err != nil {
			return fmt.Errorf("release run lock: %w", err)
		}
		if n == 0 {
			l.logger.WarnContext(ctx, "run lock expired before release", "ttl", ttl)
		}
		return nil
	}
	return release, nil
}

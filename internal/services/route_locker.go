package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleetdesk/internal/utils"
	"fleetdesk/pkg/cache"
	"fleetdesk/pkg/logger"
)

// RouteLocker serializes mutations of one route across instances.
type RouteLocker interface {
	Lock(ctx context.Context, routeID string) (unlock func(), err error)
}

type redisRouteLocker struct {
	cache  *cache.RedisCache
	ttl    time.Duration
	wait   time.Duration
	logger *logger.Logger
}

// NewRedisRouteLocker holds each lock for at most ttl and waits up to wait
// for a busy route before giving up with ErrConflict.
func NewRedisRouteLocker(c *cache.RedisCache, ttl, wait time.Duration, log *logger.Logger) RouteLocker {
	if log == nil {
		log = logger.Discard()
	}
	return &redisRouteLocker{cache: c, ttl: ttl, wait: wait, logger: log}
}

func (l *redisRouteLocker) Lock(ctx context.Context, routeID string) (func(), error) {
	key := utils.CacheRouteLockPrefix + routeID
	deadline := time.Now().Add(l.wait)
	backoff := 20 * time.Millisecond

	for {
		token, err := l.cache.AcquireLock(ctx, key, l.ttl)
		if err == nil {
			return func() {
				// released even when the request context is already gone
				if err := l.cache.ReleaseLock(context.Background(), key, token); err != nil {
					// the lock stays held until its TTL runs out
					l.logger.WithRouteID(routeID).LogSideEffectFailure("route_lock_release", err, map[string]interface{}{
						"lock_ttl": l.ttl.String(),
					})
				}
			}, nil
		}
		if !errors.Is(err, cache.ErrLockNotAcquired) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: route %s is being modified", ErrConflict, routeID)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 200*time.Millisecond {
			backoff *= 2
		}
	}
}

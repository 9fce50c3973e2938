package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// minRetry bounds the poll interval when the key has no usable TTL.
const minRetry = 10 * time.Millisecond

// RedisGate shares one interval across every process using the same key.
// Admission is a SET NX with the interval as expiry; losers sleep for the
// key's remaining TTL and retry.
type RedisGate struct {
	client   redis.UniversalClient
	key      string
	interval time.Duration
	clock    clockwork.Clock
}

// NewRedisGate creates a gate on key. A nil clock uses real time.
func NewRedisGate(client redis.UniversalClient, key string, interval time.Duration, clock clockwork.Clock) *RedisGate {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RedisGate{client: client, key: key, interval: interval, clock: clock}
}

func (g *RedisGate) Wait(ctx context.Context) error {
	for {
		ok, err := g.client.SetNX(ctx, g.key, 1, g.interval).Result()
		if err != nil {
			return fmt.Errorf("rate gate acquire: %w", err)
		}
		if ok {
			return nil
		}

		ttl, err := g.client.PTTL(ctx, g.key).Result()
		if err != nil {
			return fmt.Errorf("rate gate ttl: %w", err)
		}
		if ttl < minRetry {
			ttl = minRetry
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.clock.After(ttl):
		}
	}
}

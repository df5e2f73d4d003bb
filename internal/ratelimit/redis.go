package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisLimiter shares counters between instances. Each key uses a sorted set
// of attempt timestamps (unix millis) plus a lock key that expires with the
// lockout.
type RedisLimiter struct {
	client    redis.UniversalClient
	namespace string
	policy    Policy
	log       zerolog.Logger
	now       func() time.Time
}

// NewRedisLimiter creates a limiter whose keys live under ratelimit:<name>:
func NewRedisLimiter(client redis.UniversalClient, name string, policy Policy, log zerolog.Logger) *RedisLimiter {
	return &RedisLimiter{
		client:    client,
		namespace: "ratelimit:" + name,
		policy:    policy,
		log:       log.With().Str("component", "ratelimit").Str("limiter", name).Logger(),
		now:       time.Now,
	}
}

func (l *RedisLimiter) attemptsKey(key string) string { return l.namespace + ":" + key + ":attempts" }
func (l *RedisLimiter) lockKey(key string) string     { return l.namespace + ":" + key + ":lock" }

func (l *RedisLimiter) lockTTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := l.client.PTTL(ctx, l.lockKey(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("read lock ttl: %w", err)
	}
	// -1 and -2 mean no expiry and no key
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

// Status reports whether key is locked without recording an attempt
func (l *RedisLimiter) Status(ctx context.Context, key string) (Decision, error) {
	ttl, err := l.lockTTL(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	if ttl > 0 {
		return Decision{Locked: true, RetryAfter: ttl}, nil
	}

	since := strconv.FormatInt(l.now().Add(-l.policy.Window).UnixMilli(), 10)
	count, err := l.client.ZCount(ctx, l.attemptsKey(key), "("+since, "+inf").Result()
	if err != nil {
		return Decision{}, fmt.Errorf("count attempts: %w", err)
	}
	return Decision{Remaining: remaining(l.policy, int(count))}, nil
}

// Hit records one attempt for key
func (l *RedisLimiter) Hit(ctx context.Context, key string) (Decision, error) {
	ttl, err := l.lockTTL(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	if ttl > 0 {
		return Decision{Locked: true, RetryAfter: ttl}, nil
	}

	now := l.now()
	attempts := l.attemptsKey(key)
	cutoff := strconv.FormatInt(now.Add(-l.policy.Window).UnixMilli(), 10)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, attempts, "-inf", cutoff)
	pipe.ZAdd(ctx, attempts, redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()})
	card := pipe.ZCard(ctx, attempts)
	pipe.PExpire(ctx, attempts, l.policy.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("record attempt: %w", err)
	}

	count := int(card.Val())
	if count < l.policy.MaxAttempts {
		return Decision{Remaining: remaining(l.policy, count)}, nil
	}

	pipe = l.client.TxPipeline()
	pipe.Set(ctx, l.lockKey(key), "1", l.policy.Lockout)
	pipe.Del(ctx, attempts)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("lock key: %w", err)
	}
	l.log.Warn().Str("key", key).Dur("lockout", l.policy.Lockout).Msg("Attempt limit reached, key locked")

	return Decision{Locked: true, RetryAfter: l.policy.Lockout}, nil
}

// Reset clears all state for key
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.attemptsKey(key), l.lockKey(key)).Err(); err != nil {
		return fmt.Errorf("reset limiter key: %w", err)
	}
	return nil
}

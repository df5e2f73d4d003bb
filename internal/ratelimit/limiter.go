// Package ratelimit implements sliding-window attempt counters that escalate
// to a timed lockout.
package ratelimit

import (
	"context"
	"time"

	"github.com/consultancy-portal-api/internal/config"
)

// Decision is the state of a key after a limiter call
type Decision struct {
	Locked     bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts attempts per key within a window. Hit locks the key for the
// policy's lockout once the in-window count reaches MaxAttempts.
type Limiter interface {
	Status(ctx context.Context, key string) (Decision, error)
	Hit(ctx context.Context, key string) (Decision, error)
	Reset(ctx context.Context, key string) error
}

// Policy is the limiter configuration for one namespace
type Policy = config.Policy

func remaining(policy Policy, count int) int {
	if r := policy.MaxAttempts - count; r > 0 {
		return r
	}
	return 0
}

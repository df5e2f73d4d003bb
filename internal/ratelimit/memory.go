package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type memoryEntry struct {
	attempts    []time.Time
	lockedUntil time.Time
}

// MemoryLimiter keeps counters in process memory. It is only correct for a
// single server instance.
type MemoryLimiter struct {
	policy Policy
	log    zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*memoryEntry

	sweepMu sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewMemoryLimiter creates an in-process limiter for policy
func NewMemoryLimiter(name string, policy Policy, log zerolog.Logger) *MemoryLimiter {
	return &MemoryLimiter{
		policy:  policy,
		log:     log.With().Str("component", "ratelimit").Str("limiter", name).Logger(),
		now:     time.Now,
		entries: make(map[string]*memoryEntry),
	}
}

// prune drops attempts older than the window. Caller holds mu.
func (l *MemoryLimiter) prune(e *memoryEntry, now time.Time) {
	cutoff := now.Add(-l.policy.Window)
	kept := e.attempts[:0]
	for _, t := range e.attempts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	e.attempts = kept
}

func (l *MemoryLimiter) decision(e *memoryEntry, now time.Time) Decision {
	if now.Before(e.lockedUntil) {
		return Decision{Locked: true, RetryAfter: e.lockedUntil.Sub(now)}
	}
	return Decision{Remaining: remaining(l.policy, len(e.attempts))}
}

// Status reports whether key is locked without recording an attempt
func (l *MemoryLimiter) Status(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return Decision{Remaining: l.policy.MaxAttempts}, nil
	}
	now := l.now()
	l.prune(e, now)
	return l.decision(e, now), nil
}

// Hit records one attempt for key
func (l *MemoryLimiter) Hit(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok {
		e = &memoryEntry{}
		l.entries[key] = e
	}
	if now.Before(e.lockedUntil) {
		return l.decision(e, now), nil
	}

	l.prune(e, now)
	e.attempts = append(e.attempts, now)
	if len(e.attempts) >= l.policy.MaxAttempts {
		e.lockedUntil = now.Add(l.policy.Lockout)
		e.attempts = nil
		l.log.Warn().Str("key", key).Dur("lockout", l.policy.Lockout).Msg("Attempt limit reached, key locked")
	}
	return l.decision(e, now), nil
}

// Reset clears all state for key
func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
	return nil
}

// Sweep evicts keys with no in-window attempts and no active lockout.
// Returns the number of evicted keys.
func (l *MemoryLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	evicted := 0
	for key, e := range l.entries {
		l.prune(e, now)
		if len(e.attempts) == 0 && !now.Before(e.lockedUntil) {
			delete(l.entries, key)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of tracked keys
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// StartSweeper runs Sweep every interval until ctx is done or Stop is called
func (l *MemoryLimiter) StartSweeper(ctx context.Context, interval time.Duration) {
	l.sweepMu.Lock()
	if l.cancel != nil {
		l.sweepMu.Unlock()
		return
	}
	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})
	done := l.done
	l.sweepMu.Unlock()

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := l.Sweep(); n > 0 {
					l.log.Debug().Int("evicted", n).Msg("Swept idle rate limit keys")
				}
			}
		}
	}()
}

// Stop halts the sweeper and waits for it to exit
func (l *MemoryLimiter) Stop() {
	l.sweepMu.Lock()
	defer l.sweepMu.Unlock()

	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
	l.cancel = nil
}

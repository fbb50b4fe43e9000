// Package ratelimit paces outbound calls to the remote conversation service
// with a per-key sliding window, so burst-heavy operations like thread
// collection stay under the service's documented rate tiers.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Limiter struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
}

func NewLimiter() *Limiter {
	return &Limiter{
		buckets: map[string][]time.Time{},
	}
}

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Allow records an attempt against key and reports whether it fits inside
// the window. The now parameter is explicit so tests can drive the clock.
func (l *Limiter) Allow(key string, limit int, window time.Duration, now time.Time) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 {
		return Result{Allowed: true}
	}
	cutoff := now.Add(-window)
	history := l.buckets[key]
	trimmed := history[:0]
	for _, ts := range history {
		if !ts.Before(cutoff) {
			trimmed = append(trimmed, ts)
		}
	}
	history = trimmed

	result := Result{
		Allowed: len(history) < limit,
		Limit:   limit,
	}
	if !result.Allowed {
		result.Remaining = 0
		result.ResetAt = history[0].Add(window)
		l.buckets[key] = history
		return result
	}

	history = append(history, now)
	l.buckets[key] = history
	result.Remaining = limit - len(history)
	result.ResetAt = history[0].Add(window)
	return result
}

// Wait blocks until an attempt against key is admitted or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string, limit int, window time.Duration) error {
	for {
		res := l.Allow(key, limit, window, time.Now())
		if res.Allowed {
			return nil
		}
		delay := time.Until(res.ResetAt)
		if delay < time.Millisecond {
			delay = time.Millisecond
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

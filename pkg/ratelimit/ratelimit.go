// Package ratelimit spaces out outgoing requests so search engines see a
// human-like cadence.
package ratelimit

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Limiter hands out evenly spaced time slots, optionally jittered. The first
// call to Wait returns immediately. It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	jitter   float64 // 0.0 to 1.0
	next     time.Time
}

// NewLimiter creates a limiter allowing rps operations per second. Jitter
// varies each gap by up to +/- jitter*interval and is clamped to [0, 1].
// If rps is <= 0, the limiter does not block.
func NewLimiter(rps float64, jitter float64) *Limiter {
	if rps <= 0 {
		return &Limiter{}
	}
	return NewIntervalLimiter(time.Duration(float64(time.Second)/rps), jitter)
}

// NewIntervalLimiter creates a limiter that waits interval between
// operations. A non-positive interval never blocks.
func NewIntervalLimiter(interval time.Duration, jitter float64) *Limiter {
	jitter = min(max(jitter, 0), 1)
	return &Limiter{
		interval: max(interval, 0),
		jitter:   jitter,
	}
}

// Interval returns the nominal gap between operations.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks until the caller's slot arrives or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.interval <= 0 {
		return nil
	}

	l.mu.Lock()
	now := time.Now()
	slot := l.next
	if slot.Before(now) {
		slot = now
	}
	l.next = slot.Add(l.gap())
	l.mu.Unlock()

	delay := time.Until(slot)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// gap returns the jittered interval. Must be called with l.mu held.
func (l *Limiter) gap() time.Duration {
	if l.jitter == 0 {
		return l.interval
	}
	factor := 1 + l.jitter*(rand.Float64()*2-1)
	return time.Duration(float64(l.interval) * factor)
}

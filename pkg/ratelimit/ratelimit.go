package ratelimit

import (
	"context"
	"math/rand"
	"time"
)

// Limiter paces successive operations by a fixed interval, with optional
// jitter so outbound requests don't land on an exact clock grid.
// It is safe for concurrent use by multiple goroutines.
type Limiter struct {
	ticker   *time.Ticker
	ch       <-chan time.Time
	interval time.Duration
	jitter   float64 // 0.0 to 1.0
}

// New creates a limiter that releases one operation per interval.
// Jitter is clamped to [0, 1]. If interval is <= 0, the limiter never blocks.
func New(interval time.Duration, jitter float64) *Limiter {
	if interval <= 0 {
		return &Limiter{jitter: jitter}
	}

	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}

	ticker := time.NewTicker(interval)
	return &Limiter{
		ticker:   ticker,
		ch:       ticker.C,
		interval: interval,
		jitter:   jitter,
	}
}

// Wait blocks until the next slot opens or the context is canceled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.ch == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ch:
		if l.jitter > 0 {
			// Random extra delay in [0, jitter*interval). A ticker cannot fire
			// early, so jitter only ever stretches the interval.
			extra := time.Duration(rand.Float64() * l.jitter * float64(l.interval))
			if extra > 0 {
				select {
				case <-time.After(extra):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return nil
}

// Stop releases the limiter's ticker.
func (l *Limiter) Stop() {
	if l.ticker != nil {
		l.ticker.Stop()
	}
}

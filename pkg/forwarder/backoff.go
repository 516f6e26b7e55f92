// Copyright 2024-2026 Aiku AI

package forwarder

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Backoff produces the bounded reconnection delay sequence: starting at the
// minimum, doubling per increment, clamped at the maximum. Unlike the
// underlying library's NextBackOff, reading the value and advancing it are
// separate operations, so the scheduled delay can be logged and reused
// without mutating state.
//
// Backoff is not safe for concurrent use; the forwarder serializes all
// stream event handling.
type Backoff struct {
	eb      *backoff.ExponentialBackOff
	current time.Duration
}

// NewBackoff creates a Backoff over [min, max] with doubling and no jitter.
func NewBackoff(min, max time.Duration) *Backoff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = min
	eb.MaxInterval = max
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	// Never give up; the clamp at MaxInterval bounds the delay instead.
	eb.MaxElapsedTime = 0
	b := &Backoff{eb: eb}
	b.Reset()
	return b
}

// Reset returns the delay to the minimum.
func (b *Backoff) Reset() {
	b.eb.Reset()
	b.current = b.eb.NextBackOff()
}

// Increment doubles the delay, clamped at the maximum. Safe to call
// repeatedly without overflow.
func (b *Backoff) Increment() {
	b.current = b.eb.NextBackOff()
}

// Value returns the current delay without side effects.
func (b *Backoff) Value() time.Duration {
	return b.current
}

// Package ratelimit throttles sends per key (typically a message kind) using
// token buckets from golang.org/x/time/rate.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter holds one token bucket per key. Buckets start full with a burst
// equal to the per-second rate.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// New creates a new rate limiter.
func New() *Limiter {
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether one send for key may proceed now.
// A perSecond of 0 means unlimited (always returns true).
func (l *Limiter) Allow(key string, perSecond int) bool {
	if perSecond <= 0 {
		return true
	}

	return l.bucket(key, perSecond).Allow()
}

// Wait blocks until key may proceed or ctx is done.
// A perSecond of 0 means unlimited (returns immediately).
func (l *Limiter) Wait(ctx context.Context, key string, perSecond int) error {
	if perSecond <= 0 {
		return nil
	}

	return l.bucket(key, perSecond).Wait(ctx)
}

// Reset clears the rate limit state for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

func (l *Limiter) bucket(key string, perSecond int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(rate.Limit(perSecond), perSecond)
		l.buckets[key] = b

		return b
	}

	if b.Burst() != perSecond {
		b.SetLimit(rate.Limit(perSecond))
		b.SetBurst(perSecond)
	}

	return b
}

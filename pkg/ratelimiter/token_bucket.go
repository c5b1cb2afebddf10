package ratelimiter

import (
	"sync"
	"time"
)

// TokenBucket is a RateLimiter that refills at a fixed rate and admits
// bursts up to the bucket capacity.
type TokenBucket struct {
	mu       sync.Mutex
	rate     float64 // tokens added per second
	capacity float64
	tokens   float64
	last     time.Time // last refill
}

// NewTokenBucket creates a bucket that starts full with capacity tokens and
// refills at rate tokens per second.
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return &TokenBucket{
		rate:     rate,
		capacity: float64(capacity),
		tokens:   float64(capacity),
		last:     time.Now(),
	}
}

// Allow refills the bucket for the elapsed time and consumes one token if
// one is available.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(tb.last); elapsed > 0 {
		tb.tokens += elapsed.Seconds() * tb.rate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.last = now
	}

	if tb.tokens < 1 {
		return false
	}
	tb.tokens--
	return true
}

var _ RateLimiter = (*TokenBucket)(nil)

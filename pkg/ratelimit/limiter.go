package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
	// Allow reports whether a request may proceed right now, consuming a token if so
	Allow() bool
}

// TokenBucket is a Limiter backed by golang.org/x/time/rate
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket creates a limiter that refills every interval and holds up to burst tokens
func NewTokenBucket(interval time.Duration, burst int) *TokenBucket {
	return &TokenBucket{limiter: rate.NewLimiter(rate.Every(interval), burst)}
}

// PerMinute returns a limiter allowing requestsPerMinute with the given burst.
// A non-positive rate yields an Unlimited limiter.
func PerMinute(requestsPerMinute, burst int) Limiter {
	if requestsPerMinute <= 0 {
		return Unlimited()
	}
	if burst <= 0 {
		burst = 1
	}
	return NewTokenBucket(time.Minute/time.Duration(requestsPerMinute), burst)
}

func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.limiter.Wait(ctx)
}

func (tb *TokenBucket) Allow() bool {
	return tb.limiter.Allow()
}

type unlimited struct{}

// Unlimited returns a Limiter that never blocks
func Unlimited() Limiter {
	return unlimited{}
}

func (unlimited) Wait(ctx context.Context) error { return ctx.Err() }
func (unlimited) Allow() bool                    { return true }

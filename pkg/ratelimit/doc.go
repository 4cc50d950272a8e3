// Package ratelimit paces outgoing requests to the remote service.
//
// Limiters only delay requests; they never retry a failed one. A limiter
// built with zero requests per minute lets every request through.
//
//	limiter := ratelimit.PerMinute(60, 5)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // context canceled
//	}
package ratelimit

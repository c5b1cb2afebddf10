package ratelimiter

// RateLimiter decides, at arrival time, whether a request may proceed.
type RateLimiter interface {
	// Allow returns true if the request is admitted, false if it must be
	// rejected.
	Allow() bool
}

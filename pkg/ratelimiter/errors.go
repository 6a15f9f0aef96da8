package ratelimiter

import "errors"

var (
	ErrInvalidConfig     = errors.New("invalid rate limit configuration")
	ErrInvalidTokenCount = errors.New("invalid token count")
	ErrRateLimitExceeded = errors.New("rate_limited")
	ErrAlreadyStarted    = errors.New("rate limiter cleanup already started")
	ErrNotStarted        = errors.New("rate limiter cleanup not started")
	ErrCleanupDisabled   = errors.New("rate limiter cleanup interval must be positive")
	ErrStopTimeout       = errors.New("rate limiter shutdown timeout exceeded")
)

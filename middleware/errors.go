package middleware

import "errors"

var (
	// ErrRateLimitExceeded indicates the caller gave up waiting for a rate-limit slot
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInvalidInput indicates prompt validation failed
	ErrInvalidInput = errors.New("invalid input")
)

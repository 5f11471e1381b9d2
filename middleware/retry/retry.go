package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/middleware"
)

// Retry re-runs the rest of the chain on failure with exponential backoff.
type Retry struct {
	maxRetries int
	initial    time.Duration
	maxWait    time.Duration
}

// NewRetry allows up to maxRetries extra attempts after the first one.
func NewRetry(maxRetries int, initial, maxWait time.Duration) *Retry {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	if maxWait <= 0 {
		maxWait = 10 * time.Second
	}
	return &Retry{maxRetries: maxRetries, initial: initial, maxWait: maxWait}
}

// Name returns the middleware name
func (m *Retry) Name() string {
	return "Retry"
}

// Execute runs next until it succeeds, fails permanently, or retries run out
func (m *Retry) Execute(ctx *middleware.Context, next middleware.Handler) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.initial
	b.MaxInterval = m.maxWait

	attempt := 0
	_, err := backoff.Retry(ctx.Context(), func() (struct{}, error) {
		attempt++
		ctx.Attempt = attempt
		err := next(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		if !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(m.maxRetries+1)))
	return err
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, middleware.ErrInvalidInput):
		return false
	}
	return true
}

package limiter

import (
	"fmt"

	"golang.org/x/time/rate"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/middleware"
)

// RateLimiter throttles completion calls with a token bucket. Callers block
// until a slot frees up or their context is done.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows perSecond requests on average with the given burst.
// A non-positive perSecond disables throttling.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Name returns the middleware name
func (m *RateLimiter) Name() string {
	return "RateLimiter"
}

// Execute waits for a slot before continuing
func (m *RateLimiter) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if err := m.limiter.Wait(ctx.Context()); err != nil {
		return fmt.Errorf("%w: %v", middleware.ErrRateLimitExceeded, err)
	}
	return next(ctx)
}

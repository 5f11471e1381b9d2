// Package runner bounds how many turns execute at once across conversations.
package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/pkg/logging"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/session"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/supervisor"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
)

// DefaultMaxConcurrency is used when New is given a non-positive limit.
const DefaultMaxConcurrency = 10

// Runner wraps a turn runner with a concurrency limit. A panic inside a
// turn is returned as an error so one bad turn cannot take the process down.
type Runner struct {
	inner     session.Runner
	semaphore chan struct{}
	logger    *slog.Logger
}

var _ session.Runner = (*Runner)(nil)

// New creates a bounded runner.
func New(inner session.Runner, maxConcurrency int) *Runner {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &Runner{
		inner:     inner,
		semaphore: make(chan struct{}, maxConcurrency),
		logger:    logging.WithComponent("runner"),
	}
}

// Run waits for a free slot and executes the turn.
func (r *Runner) Run(ctx context.Context, st *turn.State) (res *supervisor.Result, err error) {
	select {
	case r.semaphore <- struct{}{}:
		defer func() { <-r.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("turn panicked", "session_id", st.SessionID, "panic", p)
			res, err = nil, fmt.Errorf("panic in turn for session %s: %v", st.SessionID, p)
		}
	}()
	return r.inner.Run(ctx, st)
}

// InFlight reports how many turns are currently running.
func (r *Runner) InFlight() int {
	return len(r.semaphore)
}

// Capacity reports the concurrency limit.
func (r *Runner) Capacity() int {
	return cap(r.semaphore)
}

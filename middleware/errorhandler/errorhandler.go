// Package errorhandler converts completion failures into the module's error
// taxonomy.
package errorhandler

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/adarshms444/Agentic-AI-Retail-Analytics-System/errors"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/middleware"
)

// HandlerFunc rewrites an error returned further down the chain.
type HandlerFunc func(ctx *middleware.Context, err error) error

// ErrorHandler passes downstream failures through a HandlerFunc.
type ErrorHandler struct {
	handler HandlerFunc
}

// NewErrorHandler returns a middleware that applies handler to failures.
// A nil handler uses Annotate.
func NewErrorHandler(handler HandlerFunc) *ErrorHandler {
	if handler == nil {
		handler = Annotate
	}
	return &ErrorHandler{handler: handler}
}

// Name returns the middleware name.
func (m *ErrorHandler) Name() string {
	return "ErrorHandler"
}

// Execute runs the rest of the chain and rewrites its error.
func (m *ErrorHandler) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if err := next(ctx); err != nil {
		return m.handler(ctx, err)
	}
	return nil
}

// Classify maps an error onto the module sentinels:
// rejected prompts become ErrInvalidInput, cancellation is left alone, and
// everything else is ErrCompletionUnavailable.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, apperrors.ErrCompletionUnavailable), errors.Is(err, apperrors.ErrInvalidInput):
		return err
	case errors.Is(err, middleware.ErrInvalidInput):
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	default:
		return fmt.Errorf("%w: %w", apperrors.ErrCompletionUnavailable, err)
	}
}

// Annotate classifies err and records how many tries were made.
func Annotate(ctx *middleware.Context, err error) error {
	err = Classify(err)
	if ctx != nil && ctx.Attempt > 1 {
		return fmt.Errorf("after %d attempts: %w", ctx.Attempt, err)
	}
	return err
}

package errorhandler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	apperrors "github.com/adarshms444/Agentic-AI-Retail-Analytics-System/errors"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/middleware"
)

func TestErrorHandler(t *testing.T) {
	t.Run("rewrites downstream error", func(t *testing.T) {
		var seen *middleware.Context
		handler := NewErrorHandler(func(ctx *middleware.Context, err error) error {
			seen = ctx
			return nil
		})

		mctx := middleware.NewContext(context.Background(), "prompt")
		err := handler.Execute(mctx, func(c *middleware.Context) error {
			return errors.New("test error")
		})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if seen != mctx {
			t.Error("handler did not receive the request context")
		}
	})

	t.Run("passes success through without calling handler", func(t *testing.T) {
		called := false
		handler := NewErrorHandler(func(_ *middleware.Context, err error) error {
			called = true
			return err
		})
		if err := handler.Execute(&middleware.Context{}, func(c *middleware.Context) error { return nil }); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if called {
			t.Error("handler should not run on success")
		}
	})

	t.Run("nil handler annotates attempts", func(t *testing.T) {
		mctx := middleware.NewContext(context.Background(), "prompt")
		err := NewErrorHandler(nil).Execute(mctx, func(c *middleware.Context) error {
			c.Attempt = 3
			return errors.New("503 service unavailable")
		})
		if !errors.Is(err, apperrors.ErrCompletionUnavailable) {
			t.Fatalf("expected ErrCompletionUnavailable, got %v", err)
		}
		if !strings.Contains(err.Error(), "after 3 attempts") {
			t.Errorf("attempts missing: %v", err)
		}
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		unavailable bool
		invalid     bool
	}{
		{"transport error", errors.New("connection refused"), true, false},
		{"already marked", apperrors.ErrCompletionUnavailable, true, false},
		{"rejected prompt", fmt.Errorf("%w: empty prompt", middleware.ErrInvalidInput), false, true},
		{"cancelled", context.Canceled, false, false},
		{"deadline", context.DeadlineExceeded, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if errors.Is(got, apperrors.ErrCompletionUnavailable) != tt.unavailable {
				t.Errorf("Classify(%v) = %v, unavailable want %v", tt.err, got, tt.unavailable)
			}
			if errors.Is(got, apperrors.ErrInvalidInput) != tt.invalid {
				t.Errorf("Classify(%v) = %v, invalid want %v", tt.err, got, tt.invalid)
			}
			if !errors.Is(got, tt.err) {
				t.Error("original error lost")
			}
		})
	}
	if Classify(nil) != nil {
		t.Error("nil should stay nil")
	}
}

package validator

import (
	"fmt"
	"strings"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/middleware"
)

// TokenCounter counts tokens for a prompt.
type TokenCounter interface {
	CountTokens(text string) int
}

// PromptValidator rejects empty prompts and prompts over a token budget.
type PromptValidator struct {
	counter   TokenCounter
	maxTokens int
}

// NewPromptValidator creates a prompt validation middleware. A nil counter or
// non-positive maxTokens disables the budget check.
func NewPromptValidator(counter TokenCounter, maxTokens int) *PromptValidator {
	return &PromptValidator{counter: counter, maxTokens: maxTokens}
}

// Name returns the middleware name
func (m *PromptValidator) Name() string {
	return "PromptValidator"
}

// Execute validates the prompt
func (m *PromptValidator) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if strings.TrimSpace(ctx.Prompt) == "" {
		return fmt.Errorf("%w: empty prompt", middleware.ErrInvalidInput)
	}
	if m.counter != nil && m.maxTokens > 0 {
		if n := m.counter.CountTokens(ctx.Prompt); n > m.maxTokens {
			return fmt.Errorf("%w: prompt has %d tokens, limit is %d", middleware.ErrInvalidInput, n, m.maxTokens)
		}
	}
	return next(ctx)
}

// ResponseTrimmer strips surrounding whitespace from responses.
type ResponseTrimmer struct{}

// NewResponseTrimmer creates a response trimming middleware
func NewResponseTrimmer() *ResponseTrimmer {
	return &ResponseTrimmer{}
}

// Name returns the middleware name
func (m *ResponseTrimmer) Name() string {
	return "ResponseTrimmer"
}

// Execute trims the response
func (m *ResponseTrimmer) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	ctx.Response = strings.TrimSpace(ctx.Response)
	return nil
}

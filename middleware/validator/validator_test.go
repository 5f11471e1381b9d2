package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/middleware"
)

type wordCounter struct{}

func (wordCounter) CountTokens(text string) int { return len(strings.Fields(text)) }

func TestPromptValidator(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		max     int
		wantErr bool
	}{
		{"valid prompt", "show sales for 2024", 10, false},
		{"empty prompt", "   ", 10, true},
		{"over budget", "one two three four", 3, true},
		{"budget disabled", "one two three four", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewPromptValidator(wordCounter{}, tt.max)
			executed := false
			err := v.Execute(&middleware.Context{Prompt: tt.prompt}, func(c *middleware.Context) error {
				executed = true
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, middleware.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if executed == tt.wantErr {
				t.Errorf("handler executed = %v", executed)
			}
		})
	}
}

func TestResponseTrimmer(t *testing.T) {
	ctx := &middleware.Context{}
	err := NewResponseTrimmer().Execute(ctx, func(c *middleware.Context) error {
		c.Response = "\n  summarize \n"
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.Response != "summarize" {
		t.Errorf("expected trimmed response, got %q", ctx.Response)
	}
}

package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/adarshms444/Agentic-AI-Retail-Analytics-System/errors"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/middleware"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/middleware/validator"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Sales rose 10%.", "Sales rose 10%."},
		{"markdown fence", "```markdown\n## Report\nSales rose.\n```", "## Report\nSales rose."},
		{"sql fence", "```sql\nSELECT 1;\n```", "SELECT 1;"},
		{"bare fence", "```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"inline fence markers", "text ``` more", "text  more"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}

func TestWrapPassesThroughChain(t *testing.T) {
	base := CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return "  summarize  ", nil
	})
	c := Wrap(base, middleware.NewChain(validator.NewResponseTrimmer()))

	out, err := c.Complete(context.Background(), "route")
	require.NoError(t, err)
	assert.Equal(t, "summarize", out)
}

func TestWrapMarksFailures(t *testing.T) {
	base := CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("dial tcp: connection refused")
	})
	c := Wrap(base, middleware.NewChain(validator.NewResponseTrimmer()))

	_, err := c.Complete(context.Background(), "route")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrCompletionUnavailable)
}

func TestWrapWithoutChainReturnsBase(t *testing.T) {
	base := CompleterFunc(func(ctx context.Context, prompt string) (string, error) { return prompt, nil })
	c := Wrap(base, nil)
	out, err := c.Complete(context.Background(), "echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", out)
}

// Package llm defines the text-completion contract shared by the router,
// the summarizer and the agents, plus helpers for parsing free-text output.
package llm

import (
	"context"
	"strings"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/middleware"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/middleware/errorhandler"
)

// Completer sends a prompt to a language model and returns its free-text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type chained struct {
	base  Completer
	chain *middleware.MiddlewareChain
}

// Wrap runs every completion through chain before reaching base. Failures that
// survive the chain are tagged as unavailable.
func Wrap(base Completer, chain *middleware.MiddlewareChain) Completer {
	if chain == nil || chain.Len() == 0 {
		return base
	}
	return &chained{base: base, chain: chain}
}

func (c *chained) Complete(ctx context.Context, prompt string) (string, error) {
	mctx := middleware.NewContext(ctx, prompt)
	err := c.chain.Execute(mctx, func(mc *middleware.Context) error {
		out, err := c.base.Complete(mc.Context(), mc.Prompt)
		if err != nil {
			return err
		}
		mc.Response = out
		return nil
	})
	if err != nil {
		return "", errorhandler.Classify(err)
	}
	return mctx.Response, nil
}

// StripCodeFences removes markdown code-fence markers, including a language
// tag on the opening fence, and trims the result.
func StripCodeFences(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	out := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			rest := strings.TrimPrefix(trimmed, "```")
			if rest == "" || isFenceTag(rest) {
				continue
			}
			line = strings.ReplaceAll(line, "```", "")
		}
		out = append(out, strings.ReplaceAll(line, "```", ""))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func isFenceTag(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' || r == '+') {
			return false
		}
	}
	return true
}

// Package provider builds a completion client for the configured vendor.
package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/contrib/provider/claude"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/contrib/provider/gemini"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/contrib/provider/openai"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/llm"
)

// Config selects and configures a completion vendor.
type Config struct {
	Name        string
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// New returns a Completer for cfg.Name and a function releasing its resources.
func New(ctx context.Context, cfg Config) (llm.Completer, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(cfg.Name) {
	case "", "openai", "groq":
		oc := openai.DefaultConfig()
		oc.WithAPIKey(cfg.APIKey).WithBaseURL(cfg.BaseURL)
		if strings.EqualFold(cfg.Name, "groq") && cfg.BaseURL == "" {
			oc.WithBaseURL(openai.GroqBaseURL)
		}
		if cfg.Model != "" {
			oc.WithModel(cfg.Model)
		}
		if cfg.MaxTokens > 0 {
			oc.MaxTokens = int64(cfg.MaxTokens)
		}
		oc.Temperature = cfg.Temperature
		if cfg.Timeout > 0 {
			oc.Timeout = cfg.Timeout
		}
		return openai.New(oc), noop, nil
	case "claude", "anthropic":
		cc := claude.DefaultConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.Model != "" {
			cc.Model = cfg.Model
		}
		if cfg.MaxTokens > 0 {
			cc.MaxTokens = int64(cfg.MaxTokens)
		}
		cc.Temperature = cfg.Temperature
		if cfg.Timeout > 0 {
			cc.Timeout = cfg.Timeout
		}
		return claude.New(cc), noop, nil
	case "gemini", "google":
		gc := gemini.DefaultConfig(cfg.APIKey)
		if cfg.Model != "" {
			gc.Model = cfg.Model
		}
		if cfg.MaxTokens > 0 {
			gc.MaxTokens = int32(cfg.MaxTokens)
		}
		gc.Temperature = float32(cfg.Temperature)
		p, err := gemini.New(ctx, gc)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown completion provider %q", cfg.Name)
	}
}

// Package dispatch is the e-mail agent: it composes a report from the turn's
// material and sends it, retrying each recipient with backoff.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/llm"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/mail"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/pkg/logging"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/prompt"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
)

// Status texts.
const (
	StatusNoMaterial = "Error: No data or previous report found to send."
	StatusFailed     = "Failed to send email."
	statusSent       = "Email " + turn.SuccessMarker + " to %s."
	statusError      = "Error generating email: %v"
	defaultSubject   = "Analysis Report"
)

// Config holds agent settings.
type Config struct {
	// DefaultRecipients receive the report when the request names nobody.
	DefaultRecipients []string
	Signature         string
	CurrencySymbol    string
	// MaxSendAttempts bounds transport calls per recipient.
	MaxSendAttempts int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
}

// DefaultConfig returns the agent defaults.
func DefaultConfig() Config {
	return Config{
		Signature:       "Nexus Corpus Analytics Team",
		CurrencySymbol:  "₹",
		MaxSendAttempts: 3,
		InitialBackoff:  500 * time.Millisecond,
		MaxBackoff:      5 * time.Second,
	}
}

// Agent composes and sends report e-mails.
type Agent struct {
	completer llm.Completer
	sender    mail.Sender
	prompts   *prompt.Manager
	cfg       Config
	logger    *slog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithPrompts sets the template manager; it must contain prompt.Dispatch.
func WithPrompts(m *prompt.Manager) Option {
	return func(a *Agent) {
		if m != nil {
			a.prompts = m
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates the agent.
func New(completer llm.Completer, sender mail.Sender, cfg Config, opts ...Option) *Agent {
	def := DefaultConfig()
	if cfg.Signature == "" {
		cfg.Signature = def.Signature
	}
	if cfg.CurrencySymbol == "" {
		cfg.CurrencySymbol = def.CurrencySymbol
	}
	if cfg.MaxSendAttempts <= 0 {
		cfg.MaxSendAttempts = def.MaxSendAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	a := &Agent{
		completer: completer,
		sender:    sender,
		prompts:   prompt.Default(),
		cfg:       cfg,
		logger:    logging.WithComponent("agent.dispatch"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Email is the model's composition.
type Email struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// Dispatch sends material as an e-mail report. One call is one attempt.
func (a *Agent) Dispatch(ctx context.Context, question string, material turn.Material) *turn.Dispatch {
	result := &turn.Dispatch{Attempts: 1}
	if strings.TrimSpace(material.Text) == "" {
		result.Status = StatusNoMaterial
		return result
	}

	email, err := a.compose(ctx, question, material)
	if err != nil {
		a.logger.Warn("email composition failed", "error", err)
		result.Status = fmt.Sprintf(statusError, err)
		result.LastError = err.Error()
		return result
	}

	recipients := a.recipients(email.Recipient)
	if len(recipients) == 0 {
		result.Status = fmt.Sprintf(statusError, "no recipient and no default recipients configured")
		return result
	}

	var delivered []string
	for _, to := range recipients {
		sends, err := a.send(ctx, to, email)
		result.Sends += sends
		if err != nil {
			a.logger.Warn("email delivery failed", "recipient", to, "sends", sends, "error", err)
			result.LastError = err.Error()
			continue
		}
		delivered = append(delivered, to)
	}

	if len(delivered) == 0 {
		result.Status = StatusFailed
		return result
	}
	result.Status = fmt.Sprintf(statusSent, strings.Join(delivered, ", "))
	a.logger.Info("email sent", "recipients", delivered, "sends", result.Sends)
	return result
}

func (a *Agent) compose(ctx context.Context, question string, material turn.Material) (*Email, error) {
	p, err := a.prompts.Render(prompt.Dispatch, map[string]any{
		"Query":          question,
		"SourceType":     material.Kind,
		"Content":        material.Text,
		"Signature":      a.cfg.Signature,
		"CurrencySymbol": a.cfg.CurrencySymbol,
	})
	if err != nil {
		return nil, err
	}
	raw, err := a.completer.Complete(ctx, p)
	if err != nil {
		return nil, err
	}
	return ParseEmail(raw)
}

// ParseEmail decodes the model's JSON reply, tolerating code fences and
// surrounding prose.
func ParseEmail(raw string) (*Email, error) {
	doc := llm.StripCodeFences(raw)
	start, end := strings.Index(doc, "{"), strings.LastIndex(doc, "}")
	if start < 0 || end < start {
		return nil, errors.New("reply is not a JSON object")
	}
	var e Email
	if err := json.Unmarshal([]byte(doc[start:end+1]), &e); err != nil {
		return nil, err
	}
	if strings.TrimSpace(e.Subject) == "" {
		e.Subject = defaultSubject
	}
	if strings.TrimSpace(e.Body) == "" {
		return nil, errors.New("reply has an empty body")
	}
	return &e, nil
}

func (a *Agent) recipients(requested string) []string {
	if !strings.Contains(requested, "Error") {
		var valid []string
		for _, r := range mail.SplitAddresses(requested) {
			if mail.ValidAddress(r) {
				valid = append(valid, r)
			}
		}
		if len(valid) > 0 {
			return valid
		}
	}
	return a.cfg.DefaultRecipients
}

func (a *Agent) send(ctx context.Context, to string, email *Email) (int, error) {
	sends := 0
	op := func() (struct{}, error) {
		sends++
		err := a.sender.Send(ctx, mail.Message{To: []string{to}, Subject: email.Subject, Body: email.Body, HTML: true})
		if err != nil && ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(ctx.Err())
		}
		return struct{}{}, err
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = a.cfg.InitialBackoff
	exp.MaxInterval = a.cfg.MaxBackoff

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(exp),
		backoff.WithMaxTries(uint(a.cfg.MaxSendAttempts)),
	)
	return sends, err
}

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	apperrors "github.com/adarshms444/Agentic-AI-Retail-Analytics-System/errors"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/message"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
)

// Conversation runs turns for one session. Only one turn runs at a time.
type Conversation struct {
	id     string
	store  Store
	runner Runner
	logger *slog.Logger

	turnMu sync.Mutex
	mu     sync.Mutex
	closed bool
}

func newConversation(id string, store Store, runner Runner, logger *slog.Logger) *Conversation {
	return &Conversation{id: id, store: store, runner: runner, logger: logger}
}

// ID returns the conversation identifier.
func (c *Conversation) ID() string {
	return c.id
}

// Ask runs one turn. The human message and the reply are stored together
// only when the turn succeeds; on failure history is left as it was.
func (c *Conversation) Ask(ctx context.Context, input string) (*TurnResult, error) {
	if !c.turnMu.TryLock() {
		return nil, fmt.Errorf("conversation %s: %w", c.id, apperrors.ErrTurnInProgress)
	}
	defer c.turnMu.Unlock()

	if c.isClosed() {
		return nil, fmt.Errorf("conversation %s: %w", c.id, apperrors.ErrSessionClosed)
	}

	history, err := c.History(ctx)
	if err != nil {
		return nil, err
	}

	st := turn.New(c.id, history, input)
	res, err := c.runner.Run(ctx, st)
	if err != nil {
		c.logger.Warn("turn failed", "session_id", c.id, "error", err)
		return nil, err
	}
	if st.Reply() == nil {
		return nil, fmt.Errorf("conversation %s: turn produced no reply", c.id)
	}

	if err := c.save(ctx, st.History[len(history):]); err != nil {
		return nil, err
	}

	out := &TurnResult{
		SessionID: c.id,
		Reply:     res.Reply,
		History:   message.CloneMessages(st.History),
		State:     st,
		Path:      res.Path,
		Degraded:  st.Degraded,
		Duration:  res.Duration,
	}
	if st.Chart.Available() {
		out.Chart = st.Chart.JSON
	}
	return out, nil
}

// History returns the stored messages.
func (c *Conversation) History(ctx context.Context) ([]*message.Message, error) {
	rec, err := c.store.Load(ctx, c.id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return rec.Messages, nil
}

// save appends a finished turn unless the conversation was closed while the
// turn ran. Close waits on c.mu, so a delete never races the append.
func (c *Conversation) save(ctx context.Context, added []*message.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("conversation %s: %w", c.id, apperrors.ErrSessionClosed)
	}
	if err := c.store.Append(ctx, c.id, added...); err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	return nil
}

// Clear removes the stored history. The conversation stays usable. Clearing
// while a turn runs fails with ErrTurnInProgress.
func (c *Conversation) Clear(ctx context.Context) error {
	if !c.turnMu.TryLock() {
		return fmt.Errorf("conversation %s: %w", c.id, apperrors.ErrTurnInProgress)
	}
	defer c.turnMu.Unlock()

	if err := c.store.Delete(ctx, c.id); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return c.store.Create(ctx, c.id)
}

// Close rejects further turns. A turn already running is not saved.
func (c *Conversation) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Conversation) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

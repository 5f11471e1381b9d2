// Package session is the conversation entry point: it loads a session's
// history, runs one turn and persists the new messages.
package session

import (
	"context"
	"time"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/message"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/supervisor"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
)

// Greeting is shown when a chat opens. It is not stored in history.
const Greeting = "Hello! I'm your retail analytics assistant. The dashboard above shows key metrics. You can ask me for a deeper analysis below."

// ClearedNotice is shown after history is cleared.
const ClearedNotice = "Chat history cleared. How can I help?"

// Record is the persisted form of a conversation.
type Record struct {
	ID        string             `json:"id" bson:"_id"`
	Messages  []*message.Message `json:"messages" bson:"messages"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	return &Record{
		ID:        r.ID,
		Messages:  message.CloneMessages(r.Messages),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Store persists append-only conversation history.
type Store interface {
	// Create registers an empty conversation. Creating an existing id is a no-op.
	Create(ctx context.Context, id string) error
	// Load returns the record or an error wrapping errors.ErrNotFound.
	Load(ctx context.Context, id string) (*Record, error)
	// Append adds messages to the end of the history, creating the record if needed.
	Append(ctx context.Context, id string, msgs ...*message.Message) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// Runner executes a turn.
type Runner interface {
	Run(ctx context.Context, st *turn.State) (*supervisor.Result, error)
}

// TurnResult is returned by Conversation.Ask.
type TurnResult struct {
	SessionID string             `json:"session_id"`
	Reply     string             `json:"reply"`
	History   []*message.Message `json:"history"`
	State     *turn.State        `json:"-"`
	Chart     string             `json:"chart,omitempty"`
	Path      []turn.Label       `json:"path"`
	Degraded  bool               `json:"degraded,omitempty"`
	Duration  time.Duration      `json:"duration"`
}

package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/adarshms444/Agentic-AI-Retail-Analytics-System/errors"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/pkg/logging"
)

// Manager tracks conversations over a storage backend.
type Manager struct {
	mu            sync.Mutex
	store         Store
	runner        Runner
	conversations map[string]*Conversation
	logger        *slog.Logger
}

// Option is a function that configures a Manager.
type Option func(*Manager)

// WithLogger overrides the logger used by the manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a manager.
//
// Example:
//
//	mgr := session.NewManager(store.NewInMemoryStore(), sup)
func NewManager(store Store, runner Runner, opts ...Option) *Manager {
	m := &Manager{
		store:         store,
		runner:        runner,
		conversations: make(map[string]*Conversation),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.WithComponent("session_manager")
	}
	return m
}

// New starts a conversation with a fresh id.
func (m *Manager) New(ctx context.Context) (*Conversation, error) {
	id := uuid.NewString()
	if err := m.store.Create(ctx, id); err != nil {
		m.logger.Error("create session failed", "id", id, "error", err)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	m.logger.Info("session created", "id", id)
	return m.track(id), nil
}

// Get returns an existing conversation.
func (m *Manager) Get(ctx context.Context, id string) (*Conversation, error) {
	if c := m.tracked(id); c != nil {
		return c, nil
	}
	exists, err := m.store.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check session existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("session %s: %w", id, apperrors.ErrNotFound)
	}
	return m.track(id), nil
}

// GetOrCreate returns the conversation for id, creating it if needed.
func (m *Manager) GetOrCreate(ctx context.Context, id string) (*Conversation, error) {
	if id == "" {
		return m.New(ctx)
	}
	if c := m.tracked(id); c != nil {
		return c, nil
	}
	if err := m.store.Create(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return m.track(id), nil
}

// Delete closes the conversation and removes its history.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	if c, ok := m.conversations[id]; ok {
		c.Close()
		delete(m.conversations, id)
	}
	m.mu.Unlock()

	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	m.logger.Info("session deleted", "id", id)
	return nil
}

// List returns stored session ids.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

func (m *Manager) tracked(id string) *Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conversations[id]
}

func (m *Manager) track(id string) *Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.conversations[id]; ok {
		return c
	}
	c := newConversation(id, m.store, m.runner, m.logger)
	m.conversations[id] = c
	return c
}

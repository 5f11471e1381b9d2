package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "github.com/adarshms444/Agentic-AI-Retail-Analytics-System/errors"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/message"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/session"
)

// InMemoryStore keeps history in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*session.Record
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*session.Record)}
}

// Create implements session.Store.
func (s *InMemoryStore) Create(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		now := time.Now()
		s.records[id] = &session.Record{ID: id, CreatedAt: now, UpdatedAt: now}
	}
	return nil
}

// Load implements session.Store.
func (s *InMemoryStore) Load(ctx context.Context, id string) (*session.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, apperrors.ErrNotFound)
	}
	return rec.Clone(), nil
}

// Append implements session.Store.
func (s *InMemoryStore) Append(ctx context.Context, id string, msgs ...*message.Message) error {
	if id == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	rec, ok := s.records[id]
	if !ok {
		rec = &session.Record{ID: id, CreatedAt: now}
		s.records[id] = rec
	}
	rec.Messages = append(rec.Messages, message.CloneMessages(msgs)...)
	rec.UpdatedAt = now
	return nil
}

// Delete implements session.Store.
func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// List implements session.Store.
func (s *InMemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Exists implements session.Store.
func (s *InMemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[id]
	return ok, nil
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/adarshms444/Agentic-AI-Retail-Analytics-System/errors"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/message"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/session"
)

// RedisStore keeps each history as a Redis list of JSON messages.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds Redis configuration for sessions.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// DefaultRedisConfig returns the default Redis session configuration.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:   "localhost:6379",
		Prefix: "retail:session:",
		TTL:    24 * time.Hour,
	}
}

// NewRedisStore creates a new Redis-based session store.
func NewRedisStore(config *RedisConfig) *RedisStore {
	if config == nil {
		config = DefaultRedisConfig()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	return &RedisStore{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

// Create implements session.Store.
func (s *RedisStore) Create(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	now := strconv.FormatInt(time.Now().UnixNano(), 10)
	pipe := s.client.TxPipeline()
	pipe.HSetNX(ctx, s.metaKey(id), "created_at", now)
	pipe.HSet(ctx, s.metaKey(id), "updated_at", now)
	pipe.SAdd(ctx, s.setKey(), id)
	s.expire(ctx, pipe, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Load implements session.Store.
func (s *RedisStore) Load(ctx context.Context, id string) (*session.Record, error) {
	meta, err := s.client.HGetAll(ctx, s.metaKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if len(meta) == 0 {
		return nil, fmt.Errorf("session %s: %w", id, apperrors.ErrNotFound)
	}

	raw, err := s.client.LRange(ctx, s.messagesKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	rec := &session.Record{
		ID:        id,
		Messages:  make([]*message.Message, 0, len(raw)),
		CreatedAt: parseNanos(meta["created_at"]),
		UpdatedAt: parseNanos(meta["updated_at"]),
	}
	for _, item := range raw {
		var msg message.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		rec.Messages = append(rec.Messages, &msg)
	}
	return rec, nil
}

// Append implements session.Store. The messages are pushed in one transaction.
func (s *RedisStore) Append(ctx context.Context, id string, msgs ...*message.Message) error {
	if id == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	values := make([]any, 0, len(msgs))
	for _, m := range msgs {
		raw, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		values = append(values, raw)
	}

	now := strconv.FormatInt(time.Now().UnixNano(), 10)
	pipe := s.client.TxPipeline()
	pipe.HSetNX(ctx, s.metaKey(id), "created_at", now)
	pipe.HSet(ctx, s.metaKey(id), "updated_at", now)
	if len(values) > 0 {
		pipe.RPush(ctx, s.messagesKey(id), values...)
	}
	pipe.SAdd(ctx, s.setKey(), id)
	s.expire(ctx, pipe, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append messages: %w", err)
	}
	return nil
}

// Delete removes a session from Redis.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.metaKey(id), s.messagesKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if err := s.client.SRem(ctx, s.setKey(), id).Err(); err != nil {
		return fmt.Errorf("failed to update session index: %w", err)
	}
	return nil
}

// List returns all session IDs.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.setKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// Exists checks if a session exists.
func (s *RedisStore) Exists(ctx context.Context, id string) (bool, error) {
	exists, err := s.client.Exists(ctx, s.metaKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}
	return exists > 0, nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis connection is alive.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) expire(ctx context.Context, pipe redis.Pipeliner, id string) {
	if s.ttl <= 0 {
		return
	}
	pipe.Expire(ctx, s.metaKey(id), s.ttl)
	pipe.Expire(ctx, s.messagesKey(id), s.ttl)
}

func (s *RedisStore) metaKey(id string) string {
	return s.prefix + id
}

func (s *RedisStore) messagesKey(id string) string {
	return s.prefix + id + ":messages"
}

func (s *RedisStore) setKey() string {
	return s.prefix + "set"
}

func parseNanos(v string) time.Time {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, n)
}

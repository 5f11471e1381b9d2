package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/adarshms444/Agentic-AI-Retail-Analytics-System/errors"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/message"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/session"
)

var (
	_ session.Store = (*InMemoryStore)(nil)
	_ session.Store = (*RedisStore)(nil)
	_ session.Store = (*MongoStore)(nil)
	_ session.Store = (*SQLiteStore)(nil)
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s session.Store) {
	ctx := context.Background()
	id := "test-" + uuid.NewString()
	t.Cleanup(func() { _ = s.Delete(context.Background(), id) })

	t.Run("load missing", func(t *testing.T) {
		_, err := s.Load(ctx, id)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		ok, err := s.Exists(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("create is idempotent", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, id))
		require.NoError(t, s.Create(ctx, id))

		rec, err := s.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, rec.ID)
		assert.Empty(t, rec.Messages)
	})

	t.Run("append keeps order", func(t *testing.T) {
		human := message.Human("Total sales by year?")
		reply := message.Assistant("Sales grew every year.")
		reply.Metadata["degraded"] = true
		require.NoError(t, s.Append(ctx, id, human, reply))
		require.NoError(t, s.Append(ctx, id, message.Human("Thanks")))

		rec, err := s.Load(ctx, id)
		require.NoError(t, err)
		require.Len(t, rec.Messages, 3)
		assert.Equal(t, human.ID, rec.Messages[0].ID)
		assert.Equal(t, message.RoleUser, rec.Messages[0].Role)
		assert.Equal(t, "Sales grew every year.", rec.Messages[1].Content)
		assert.Equal(t, message.RoleAssistant, rec.Messages[1].Role)
		assert.Equal(t, true, rec.Messages[1].Metadata["degraded"])
		assert.Equal(t, "Thanks", rec.Messages[2].Content)
	})

	t.Run("list and exists", func(t *testing.T) {
		ids, err := s.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id)

		ok, err := s.Exists(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, id))
		_, err := s.Load(ctx, id)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		require.NoError(t, s.Delete(ctx, id))
	})

	t.Run("append creates record", func(t *testing.T) {
		other := id + "-append"
		t.Cleanup(func() { _ = s.Delete(context.Background(), other) })
		require.NoError(t, s.Append(ctx, other, message.Human("hi")))
		rec, err := s.Load(ctx, other)
		require.NoError(t, err)
		assert.Len(t, rec.Messages, 1)
	})

	t.Run("empty id", func(t *testing.T) {
		assert.Error(t, s.Create(ctx, ""))
		assert.Error(t, s.Append(ctx, "", message.Human("x")))
	})
}

func TestInMemoryStore(t *testing.T) {
	exerciseStore(t, NewInMemoryStore())
}

func TestInMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	msg := message.Human("original")
	require.NoError(t, s.Append(ctx, "a", msg))
	msg.Content = "mutated"

	rec, err := s.Load(ctx, "a")
	require.NoError(t, err)
	rec.Messages[0].Metadata["x"] = 1

	again, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Messages[0].Content)
	assert.NotContains(t, again.Messages[0].Metadata, "x")
}

func TestInMemoryStoreListSorted(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.Create(ctx, id))
	}
	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.True(t, sort.StringsAreSorted(ids))
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	exerciseStore(t, s)
}

func TestSQLiteStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, "persisted", message.Human("q"), message.Assistant("a")))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	rec, err := s.Load(ctx, "persisted")
	require.NoError(t, err)
	require.Len(t, rec.Messages, 2)
	assert.Equal(t, "a", rec.Messages[1].Content)
}

// Requires a running Redis; set REDIS_ADDR to enable.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping Redis store tests")
	}
	cfg := DefaultRedisConfig()
	cfg.Addr = addr
	cfg.Prefix = "retail_test:session:"
	s := NewRedisStore(cfg)
	t.Cleanup(func() { s.Close() })
	if err := s.Ping(context.Background()); err != nil {
		t.Skipf("Failed to connect to Redis: %v", err)
	}
	exerciseStore(t, s)
}

// Requires a running MongoDB; set MONGODB_URI to enable.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set, skipping MongoDB store tests")
	}
	s, err := NewMongoStore(context.Background(), &MongoConfig{
		URI:        uri,
		Database:   "retail_test",
		Collection: "conversations_test",
	})
	if err != nil {
		t.Skipf("Failed to connect to MongoDB: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	exerciseStore(t, s)
}

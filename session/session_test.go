package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/adarshms444/Agentic-AI-Retail-Analytics-System/errors"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/message"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/session"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/session/store"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/supervisor"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
)

type echoRunner struct {
	err     error
	block   chan struct{}
	started chan struct{}
	seen    []int
	mu      sync.Mutex
}

func (r *echoRunner) Run(ctx context.Context, st *turn.State) (*supervisor.Result, error) {
	r.mu.Lock()
	r.seen = append(r.seen, len(st.History))
	r.mu.Unlock()
	if r.started != nil {
		close(r.started)
	}
	if r.block != nil {
		<-r.block
	}
	if r.err != nil {
		return nil, r.err
	}
	reply := "You asked: " + st.LatestHumanMessage()
	st.History = append(st.History, message.Assistant(reply))
	return &supervisor.Result{State: st, Reply: reply, Path: []turn.Label{turn.Summarize}}, nil
}

func TestAskStoresTurn(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(store.NewInMemoryStore(), &echoRunner{})
	conv, err := mgr.New(ctx)
	require.NoError(t, err)

	res, err := conv.Ask(ctx, "Total sales?")
	require.NoError(t, err)
	assert.Equal(t, "You asked: Total sales?", res.Reply)
	assert.Equal(t, conv.ID(), res.SessionID)
	require.Len(t, res.History, 2)
	assert.Empty(t, res.Chart)

	_, err = conv.Ask(ctx, "And by region?")
	require.NoError(t, err)

	history, err := conv.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, message.RoleUser, history[2].Role)
	assert.Equal(t, "And by region?", history[2].Content)
	assert.Equal(t, "You asked: And by region?", history[3].Content)
}

func TestAskFailureLeavesHistory(t *testing.T) {
	ctx := context.Background()
	runner := &echoRunner{}
	mgr := session.NewManager(store.NewInMemoryStore(), runner)
	conv, err := mgr.New(ctx)
	require.NoError(t, err)
	_, err = conv.Ask(ctx, "first")
	require.NoError(t, err)

	boom := errors.New("completion backend down")
	runner.err = boom
	_, err = conv.Ask(ctx, "second")
	assert.ErrorIs(t, err, boom)

	history, err := conv.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestAskRejectsConcurrentTurn(t *testing.T) {
	ctx := context.Background()
	runner := &echoRunner{block: make(chan struct{}), started: make(chan struct{})}
	mgr := session.NewManager(store.NewInMemoryStore(), runner)
	conv, err := mgr.New(ctx)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := conv.Ask(ctx, "slow")
		done <- err
	}()
	<-runner.started

	_, err = conv.Ask(ctx, "fast")
	assert.ErrorIs(t, err, apperrors.ErrTurnInProgress)

	close(runner.block)
	require.NoError(t, <-done)
}

func TestClosedConversation(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(store.NewInMemoryStore(), &echoRunner{})
	conv, err := mgr.New(ctx)
	require.NoError(t, err)

	require.NoError(t, mgr.Delete(ctx, conv.ID()))
	_, err = conv.Ask(ctx, "hello")
	assert.ErrorIs(t, err, apperrors.ErrSessionClosed)

	_, err = mgr.Get(ctx, conv.ID())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteDuringTurnDiscardsReply(t *testing.T) {
	ctx := context.Background()
	runner := &echoRunner{block: make(chan struct{}), started: make(chan struct{})}
	mgr := session.NewManager(store.NewInMemoryStore(), runner)
	conv, err := mgr.New(ctx)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := conv.Ask(ctx, "slow")
		done <- err
	}()
	<-runner.started

	require.NoError(t, mgr.Delete(ctx, conv.ID()))
	close(runner.block)
	assert.ErrorIs(t, <-done, apperrors.ErrSessionClosed)

	_, err = mgr.Get(ctx, conv.ID())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids, conv.ID())
}

func TestClearRejectedDuringTurn(t *testing.T) {
	ctx := context.Background()
	runner := &echoRunner{block: make(chan struct{}), started: make(chan struct{})}
	mgr := session.NewManager(store.NewInMemoryStore(), runner)
	conv, err := mgr.New(ctx)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := conv.Ask(ctx, "slow")
		done <- err
	}()
	<-runner.started

	assert.ErrorIs(t, conv.Clear(ctx), apperrors.ErrTurnInProgress)
	close(runner.block)
	require.NoError(t, <-done)

	history, err := conv.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	require.NoError(t, conv.Clear(ctx))
	history, err = conv.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestClearKeepsConversation(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(store.NewInMemoryStore(), &echoRunner{})
	conv, err := mgr.New(ctx)
	require.NoError(t, err)
	_, err = conv.Ask(ctx, "hello")
	require.NoError(t, err)

	require.NoError(t, conv.Clear(ctx))
	history, err := conv.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = mgr.Get(ctx, conv.ID())
	assert.NoError(t, err)
	_, err = conv.Ask(ctx, "again")
	assert.NoError(t, err)
}

func TestHistoryCarriedIntoTurn(t *testing.T) {
	ctx := context.Background()
	runner := &echoRunner{}
	mgr := session.NewManager(store.NewInMemoryStore(), runner)
	conv, err := mgr.GetOrCreate(ctx, "fixed-id")
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", conv.ID())

	for _, q := range []string{"a", "b", "c"} {
		_, err := conv.Ask(ctx, q)
		require.NoError(t, err)
	}
	assert.Equal(t, []int{1, 3, 5}, runner.seen)
}

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(store.NewInMemoryStore(), &echoRunner{})

	_, err := mgr.Get(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	a, err := mgr.New(ctx)
	require.NoError(t, err)
	b, err := mgr.GetOrCreate(ctx, "")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())

	same, err := mgr.Get(ctx, a.ID())
	require.NoError(t, err)
	assert.Same(t, a, same)

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID(), b.ID()}, ids)
}

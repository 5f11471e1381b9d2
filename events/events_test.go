package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	bus.Publish(ctx, Event{Kind: TurnStarted, SessionID: "s1"})
	ev := receive(t, ch)
	assert.Equal(t, TurnStarted, ev.Kind)
	assert.Equal(t, "s1", ev.SessionID)
	assert.False(t, ev.Time.IsZero())

	bus.Publish(ctx, Event{Kind: RouteDecided, SessionID: "s1", Label: "retrieve_data", Step: 1})
	ev = receive(t, ch)
	assert.Equal(t, RouteDecided, ev.Kind)
	assert.Equal(t, "retrieve_data", ev.Label)
}

func TestSessionFilter(t *testing.T) {
	in := make(chan Event, 3)
	in <- Event{SessionID: "a", Kind: TurnStarted}
	in <- Event{SessionID: "b", Kind: TurnStarted}
	in <- Event{SessionID: "a", Kind: TurnCompleted}
	close(in)

	var kinds []Kind
	for ev := range SessionFilter(in, "a") {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []Kind{TurnStarted, TurnCompleted}, kinds)
}

func TestDiscard(t *testing.T) {
	Discard.Publish(context.Background(), Event{Kind: TurnFailed})
}

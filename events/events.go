// Package events publishes turn progress over an in-process watermill bus.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/pkg/logging"
)

// Topic carries every turn event.
const Topic = "turn.events"

// Kind identifies an event.
type Kind string

const (
	TurnStarted   Kind = "turn_started"
	RouteDecided  Kind = "route_decided"
	AgentFinished Kind = "agent_finished"
	TurnCompleted Kind = "turn_completed"
	TurnFailed    Kind = "turn_failed"
)

// Event is one progress notification.
type Event struct {
	Kind       Kind      `json:"kind"`
	SessionID  string    `json:"session_id"`
	Label      string    `json:"label,omitempty"`
	Proposed   string    `json:"proposed,omitempty"`
	Guardrail  string    `json:"guardrail,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Step       int       `json:"step,omitempty"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	Time       time.Time `json:"time"`
}

// Publisher accepts events. Publishing never fails the caller.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

type discard struct{}

func (discard) Publish(context.Context, Event) {}

// Discard drops every event.
var Discard Publisher = discard{}

// Bus is a gochannel pub/sub for turn events.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger *slog.Logger
}

// NewBus creates a bus. Events published with no subscriber are dropped.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NopLogger{}),
		logger: logging.WithComponent("events"),
	}
}

// Publish implements Publisher.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("failed to marshal event", "kind", ev.Kind, "error", err)
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := b.pubsub.Publish(Topic, msg); err != nil {
		b.logger.Warn("failed to publish event", "kind", ev.Kind, "error", err)
	}
}

// Subscribe streams events until ctx is done or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan Event, error) {
	msgs, err := b.pubsub.Subscribe(ctx, Topic)
	if err != nil {
		return nil, err
	}
	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range msgs {
			var ev Event
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				b.logger.Warn("dropping malformed event", "error", err)
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close shuts the bus down and ends all subscriptions.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// SessionFilter forwards only events of one session.
func SessionFilter(in <-chan Event, sessionID string) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		for ev := range in {
			if ev.SessionID == sessionID {
				out <- ev
			}
		}
	}()
	return out
}

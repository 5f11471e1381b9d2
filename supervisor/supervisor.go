// Package supervisor runs one conversation turn: the router picks a step, the
// bound agent fills its field of the turn state, and the loop repeats until
// the summarizer writes the reply.
package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/events"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/graph"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/message"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/pkg/logging"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/pkg/telemetry"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/router"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
)

// DefaultMaxIterations caps router decisions per turn.
const DefaultMaxIterations = 10

const routeNode = "route"

// Result is the outcome of a turn.
type Result struct {
	State     *turn.State
	Reply     string
	Path      []turn.Label
	Decisions []router.Decision
	Duration  time.Duration
}

// Supervisor owns the turn state machine.
type Supervisor struct {
	decider          Decider
	agents           Agents
	summarizer       Summarizer
	maxIterations    int
	minHistoryLength int
	publisher        events.Publisher
	tracer           trace.Tracer
	logger           *slog.Logger
	graph            *graph.Graph[*run]
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithMaxIterations sets the router decision cap.
func WithMaxIterations(n int) Option {
	return func(s *Supervisor) {
		if n > 0 {
			s.maxIterations = n
		}
	}
}

// WithMinHistoryLength sets how long a prior assistant message must be to
// serve as notification material.
func WithMinHistoryLength(n int) Option {
	return func(s *Supervisor) {
		if n > 0 {
			s.minHistoryLength = n
		}
	}
}

// WithPublisher streams progress events.
func WithPublisher(p events.Publisher) Option {
	return func(s *Supervisor) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New wires a supervisor.
func New(decider Decider, agents Agents, summarizer Summarizer, opts ...Option) (*Supervisor, error) {
	if decider == nil {
		return nil, errors.New("supervisor: decider is required")
	}
	if summarizer == nil {
		return nil, errors.New("supervisor: summarizer is required")
	}
	s := &Supervisor{
		decider:          decider,
		agents:           agents,
		summarizer:       summarizer,
		maxIterations:    DefaultMaxIterations,
		minHistoryLength: 50,
		publisher:        events.Discard,
		tracer:           telemetry.Tracer(),
		logger:           logging.WithComponent("supervisor"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.graph = s.build()
	return s, nil
}

// run is the per-turn graph state.
type run struct {
	state     *turn.State
	path      []turn.Label
	decisions []router.Decision
}

func (s *Supervisor) build() *graph.Graph[*run] {
	next := make(map[string]string, len(turn.Labels()))
	for _, l := range turn.Labels() {
		next[string(l)] = string(l)
	}

	b := graph.NewBuilder[*run]().
		AddConditionNode(routeNode, s.route, next).
		AddNode(string(turn.RetrieveData), graph.NodeTypeAction, s.step(turn.RetrieveData, s.retrieve)).
		AddNode(string(turn.SearchWeb), graph.NodeTypeAction, s.step(turn.SearchWeb, s.search)).
		AddNode(string(turn.Visualize), graph.NodeTypeAction, s.step(turn.Visualize, s.visualize)).
		AddNode(string(turn.DispatchNotification), graph.NodeTypeAction, s.step(turn.DispatchNotification, s.dispatch)).
		AddNode(string(turn.Summarize), graph.NodeTypeEnd, s.summarize)

	for _, l := range turn.Labels() {
		if !l.Terminal() {
			b.AddEdge(string(l), routeNode)
		}
	}
	return b.SetStart(routeNode).
		SetEnd(string(turn.Summarize)).
		SetMaxVisits(s.maxIterations).
		SetFallback(string(turn.Summarize), s.onLimit).
		Build()
}

// Run executes one turn over st. On error the state may be partially
// filled but no assistant message has been appended.
func (s *Supervisor) Run(ctx context.Context, st *turn.State) (*Result, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "supervisor.turn", trace.WithAttributes(
		telemetry.SessionIDKey.String(st.SessionID),
	))

	s.publisher.Publish(ctx, events.Event{Kind: events.TurnStarted, SessionID: st.SessionID})

	r, err := s.graph.Execute(ctx, &run{state: st})
	if err != nil {
		telemetry.End(span, err)
		s.logger.Warn("turn failed", "session_id", st.SessionID, "error", err,
			"duration_ms", time.Since(start).Milliseconds())
		s.publisher.Publish(ctx, events.Event{Kind: events.TurnFailed, SessionID: st.SessionID, Detail: err.Error()})
		return nil, err
	}

	res := &Result{
		State:     st,
		Path:      r.path,
		Decisions: r.decisions,
		Duration:  time.Since(start),
	}
	if reply := st.Reply(); reply != nil {
		res.Reply = reply.Content
	}

	span.SetAttributes(
		telemetry.StepsKey.Int(len(r.decisions)),
		telemetry.DegradedKey.Bool(st.Degraded),
	)
	telemetry.End(span, nil)
	s.logger.Info("turn completed",
		"session_id", st.SessionID,
		"path", r.path,
		"degraded", st.Degraded,
		"duration_ms", res.Duration.Milliseconds(),
	)
	s.publisher.Publish(ctx, events.Event{
		Kind:       events.TurnCompleted,
		SessionID:  st.SessionID,
		Step:       len(r.decisions),
		DurationMs: res.Duration.Milliseconds(),
	})
	return res, nil
}

func (s *Supervisor) route(ctx context.Context, r *run) (string, error) {
	ctx, span := s.tracer.Start(ctx, "router.decide")
	d, err := s.decider.Decide(ctx, r.state)
	if err != nil {
		telemetry.End(span, err)
		return "", err
	}
	span.SetAttributes(
		telemetry.LabelKey.String(string(d.Label)),
		telemetry.ProposedKey.String(string(d.Proposed)),
		telemetry.GuardrailKey.String(d.Guardrail),
	)
	telemetry.End(span, nil)

	if !d.Label.Valid() {
		d.Label = turn.Summarize
	}
	r.decisions = append(r.decisions, d)
	s.publisher.Publish(ctx, events.Event{
		Kind:      events.RouteDecided,
		SessionID: r.state.SessionID,
		Label:     string(d.Label),
		Proposed:  string(d.Proposed),
		Guardrail: d.Guardrail,
		Step:      len(r.decisions),
	})
	return string(d.Label), nil
}

// step wraps an agent call with tracing, logging and events. Agents report
// failures through their result, so only cancellation stops the loop here.
func (s *Supervisor) step(label turn.Label, fn func(context.Context, *turn.State) string) graph.NodeFunc[*run] {
	return func(ctx context.Context, r *run) (*run, error) {
		start := time.Now()
		ctx, span := s.tracer.Start(ctx, "agent."+string(label))
		detail := fn(ctx, r.state)
		span.SetAttributes(telemetry.OutcomeKey.String(detail))
		telemetry.End(span, nil)

		r.path = append(r.path, label)
		elapsed := time.Since(start).Milliseconds()
		s.logger.Info("agent finished",
			"session_id", r.state.SessionID,
			"label", label,
			"outcome", detail,
			"duration_ms", elapsed,
		)
		s.publisher.Publish(ctx, events.Event{
			Kind:       events.AgentFinished,
			SessionID:  r.state.SessionID,
			Label:      string(label),
			Detail:     detail,
			Step:       len(r.decisions),
			DurationMs: elapsed,
		})
		return r, nil
	}
}

func (s *Supervisor) retrieve(ctx context.Context, st *turn.State) string {
	var res *turn.Retrieval
	if s.agents.Retriever == nil {
		res = turn.FailedRetrieval("", "Error: data retrieval is not configured.")
	} else {
		res = s.agents.Retriever.Retrieve(ctx, st.LatestHumanMessage())
	}
	if res == nil {
		res = turn.FailedRetrieval("", "Error: data retrieval returned nothing.")
	}
	st.SetRetrieval(res)
	return string(res.Status)
}

func (s *Supervisor) search(ctx context.Context, st *turn.State) string {
	var res *turn.Search
	if s.agents.Searcher == nil {
		res = &turn.Search{Text: "Error: web search is not configured.", Failed: true}
	} else {
		res = s.agents.Searcher.Search(ctx, st.LatestHumanMessage())
	}
	if res == nil {
		res = &turn.Search{Text: "Error: web search returned nothing.", Failed: true}
	}
	st.SetSearch(res)
	if res.Failed {
		return "error"
	}
	return "ok"
}

func (s *Supervisor) visualize(ctx context.Context, st *turn.State) string {
	var res *turn.Chart
	var table *turn.Table
	if st.Retrieval.Succeeded() {
		table = st.Retrieval.Table
	}
	if s.agents.Visualizer == nil {
		res = &turn.Chart{Err: "Error: chart generation is not configured."}
	} else {
		res = s.agents.Visualizer.Visualize(ctx, st.LatestHumanMessage(), table)
	}
	if res == nil {
		res = &turn.Chart{Err: "Error: chart generation returned nothing."}
	}
	st.SetChart(res)
	if res.Available() {
		return "ok"
	}
	return "error"
}

func (s *Supervisor) dispatch(ctx context.Context, st *turn.State) string {
	var res *turn.Dispatch
	material, _ := st.NotificationMaterial(s.minHistoryLength)
	if s.agents.Dispatcher == nil {
		res = &turn.Dispatch{Status: "Error: email is not configured.", Attempts: 1}
	} else {
		res = s.agents.Dispatcher.Dispatch(ctx, st.LatestHumanMessage(), material)
	}
	if res == nil {
		res = &turn.Dispatch{Status: "Error: email returned nothing.", Attempts: 1}
	}
	st.SetDispatch(res)
	return res.Status
}

func (s *Supervisor) summarize(ctx context.Context, r *run) (*run, error) {
	ctx, span := s.tracer.Start(ctx, "summarizer")
	reply, err := s.summarizer.Summarize(ctx, r.state)
	telemetry.End(span, err)
	if err != nil {
		return r, err
	}
	r.state.History = append(r.state.History, message.Assistant(reply))
	r.path = append(r.path, turn.Summarize)
	return r, nil
}

func (s *Supervisor) onLimit(ctx context.Context, r *run, node string) (*run, error) {
	r.state.Degraded = true
	s.logger.Warn("iteration cap reached, forcing summary",
		"session_id", r.state.SessionID,
		"node", node,
		"max_iterations", s.maxIterations,
	)
	return r, nil
}

// MaxIterations returns the decision cap in effect.
func (s *Supervisor) MaxIterations() int {
	return s.maxIterations
}

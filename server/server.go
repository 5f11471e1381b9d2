// Package server exposes conversations and the dashboard over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/dashboard"
	apperrors "github.com/adarshms444/Agentic-AI-Retail-Analytics-System/errors"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/events"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/pkg/logging"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/session"
)

// TurnFailedMessage is returned when a turn cannot complete. Details stay in the logs.
const TurnFailedMessage = "The assistant could not complete this request. Please try again."

// Server is the HTTP API.
type Server struct {
	sessions    *session.Manager
	dashboard   *dashboard.Service
	bus         *events.Bus
	health      func(ctx context.Context) error
	origins     []string
	turnTimeout time.Duration
	logger      *slog.Logger
	mounts      map[string]http.Handler
	router      chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithEvents enables the per-session progress stream.
func WithEvents(bus *events.Bus) Option {
	return func(s *Server) { s.bus = bus }
}

// WithHealthCheck sets the probe used by /healthz.
func WithHealthCheck(fn func(ctx context.Context) error) Option {
	return func(s *Server) { s.health = fn }
}

// WithAllowedOrigins sets the CORS origins. Defaults to "*".
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithTurnTimeout bounds a single turn.
func WithTurnTimeout(d time.Duration) Option {
	return func(s *Server) { s.turnTimeout = d }
}

// WithMount serves handler under pattern next to the API, e.g. an MCP endpoint.
func WithMount(pattern string, handler http.Handler) Option {
	return func(s *Server) {
		if s.mounts == nil {
			s.mounts = make(map[string]http.Handler)
		}
		s.mounts[pattern] = handler
	}
}

// WithLogger overrides the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates the API. dash may be nil when no warehouse is available.
func New(sessions *session.Manager, dash *dashboard.Service, opts ...Option) *Server {
	s := &Server{
		sessions:    sessions,
		dashboard:   dash,
		origins:     []string{"*"},
		turnTimeout: 3 * time.Minute,
		logger:      logging.WithComponent("server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/", s.handleListSessions)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/messages", s.handleAsk)
				r.Post("/clear", s.handleClear)
				r.Get("/events", s.handleEvents)
			})
		})
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/dashboard/filters", s.handleDashboardFilters)
	})
	for pattern, h := range s.mounts {
		r.Handle(pattern, h)
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		errCh <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-errCh
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", chimw.GetReqID(r.Context()),
			"duration_ms", time.Since(start).Milliseconds())
	})
}

type (
	// SessionResponse describes a conversation.
	SessionResponse struct {
		SessionID string            `json:"session_id"`
		Greeting  string            `json:"greeting,omitempty"`
		Messages  []MessageResponse `json:"messages"`
	}

	// MessageResponse is one stored message.
	MessageResponse struct {
		Role      string    `json:"role"`
		Content   string    `json:"content"`
		Chart     bool      `json:"chart,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}

	// AskRequest carries the user's question.
	AskRequest struct {
		Message string `json:"message"`
	}

	// AskResponse is the outcome of one turn.
	AskResponse struct {
		SessionID  string   `json:"session_id"`
		Reply      string   `json:"reply"`
		Chart      any      `json:"chart,omitempty"`
		Path       []string `json:"path"`
		Degraded   bool     `json:"degraded,omitempty"`
		DurationMs int64    `json:"duration_ms"`
	}

	// DashboardResponse carries the KPI cards and breakdown figures.
	DashboardResponse struct {
		*dashboard.Summary
		Cards          map[string]string `json:"cards"`
		CategoryChart  json.RawMessage   `json:"category_chart,omitempty"`
		SubRegionChart json.RawMessage   `json:"sub_region_chart,omitempty"`
	}

	// ErrorResponse is the body of every error.
	ErrorResponse struct {
		Error      string `json:"error"`
		StatusCode int    `json:"status_code"`
	}
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	conv, err := s.sessions.New(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	s.writeJSON(w, http.StatusCreated, SessionResponse{
		SessionID: conv.ID(),
		Greeting:  session.Greeting,
		Messages:  []MessageResponse{},
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "could not list sessions")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.conversation(w, r)
	if !ok {
		return
	}
	history, err := conv.History(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "could not load history")
		return
	}
	resp := SessionResponse{SessionID: conv.ID(), Messages: make([]MessageResponse, 0, len(history))}
	for _, m := range history {
		resp.Messages = append(resp.Messages, MessageResponse{
			Role:      string(m.Role),
			Content:   m.Content,
			Chart:     isFigure(m.Content),
			CreatedAt: m.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, http.StatusInternalServerError, "could not delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.conversation(w, r)
	if !ok {
		return
	}
	err := conv.Clear(r.Context())
	if errors.Is(err, apperrors.ErrTurnInProgress) {
		s.writeError(w, http.StatusConflict, "a request is already running for this session")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "could not clear history")
		return
	}
	s.writeJSON(w, http.StatusOK, SessionResponse{
		SessionID: conv.ID(),
		Greeting:  session.ClearedNotice,
		Messages:  []MessageResponse{},
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		s.writeError(w, http.StatusBadRequest, "message cannot be empty")
		return
	}
	conv, ok := s.conversation(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if s.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.turnTimeout)
		defer cancel()
	}
	res, err := conv.Ask(ctx, req.Message)
	switch {
	case errors.Is(err, apperrors.ErrTurnInProgress):
		s.writeError(w, http.StatusConflict, "a request is already running for this session")
		return
	case errors.Is(err, apperrors.ErrSessionClosed):
		s.writeError(w, http.StatusGone, "session was closed")
		return
	case err != nil:
		s.logger.Error("turn failed", "session_id", conv.ID(), "error", err)
		s.writeError(w, http.StatusBadGateway, TurnFailedMessage)
		return
	}

	resp := AskResponse{
		SessionID:  res.SessionID,
		Reply:      res.Reply,
		Path:       make([]string, 0, len(res.Path)),
		Degraded:   res.Degraded,
		DurationMs: res.Duration.Milliseconds(),
	}
	for _, l := range res.Path {
		resp.Path = append(resp.Path, string(l))
	}
	if res.Chart != "" {
		resp.Chart = json.RawMessage(res.Chart)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleEvents streams turn progress for one session as server-sent events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.bus == nil {
		s.writeError(w, http.StatusNotFound, "event stream disabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	ch, err := s.bus.Subscribe(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "could not subscribe")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range events.SessionFilter(ch, chi.URLParam(r, "id")) {
		b, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, b)
		flusher.Flush()
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if s.dashboard == nil {
		s.writeError(w, http.StatusServiceUnavailable, "dashboard unavailable")
		return
	}
	q := r.URL.Query()
	f := dashboard.Filters{
		Years:      splitParam(q["years"]),
		SubRegions: splitParam(q["sub_regions"]),
		Categories: splitParam(q["categories"]),
	}
	sum, err := s.dashboard.Summary(r.Context(), f)
	if errors.Is(err, apperrors.ErrNoData) {
		s.writeError(w, http.StatusNotFound, dashboard.NoDataMessage)
		return
	}
	if err != nil {
		s.logger.Error("dashboard failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not load dashboard data")
		return
	}

	resp := DashboardResponse{
		Summary: sum,
		Cards: map[string]string{
			"Total Sales":     dashboard.FormatINR(sum.TotalSales),
			"Total Profit":    dashboard.FormatINR(sum.TotalProfit),
			"Profit Margin":   dashboard.FormatPercent(sum.ProfitMargin),
			"Total Customers": dashboard.FormatCount(sum.TotalCustomers),
		},
	}
	if fig, err := sum.CategoryChart(); err == nil {
		resp.CategoryChart = json.RawMessage(fig)
	}
	if fig, err := sum.RegionChart(); err == nil {
		resp.SubRegionChart = json.RawMessage(fig)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDashboardFilters(w http.ResponseWriter, r *http.Request) {
	if s.dashboard == nil {
		s.writeError(w, http.StatusServiceUnavailable, "dashboard unavailable")
		return
	}
	opts, err := s.dashboard.Options(r.Context())
	if err != nil {
		s.logger.Error("dashboard filters failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not load filters")
		return
	}
	s.writeJSON(w, http.StatusOK, opts)
}

func (s *Server) conversation(w http.ResponseWriter, r *http.Request) (*session.Conversation, bool) {
	id := chi.URLParam(r, "id")
	conv, err := s.sessions.Get(r.Context(), id)
	if errors.Is(err, apperrors.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "could not load session")
		return nil, false
	}
	return conv, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg, StatusCode: status})
}

// splitParam accepts both repeated and comma separated query values.
func splitParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func isFigure(content string) bool {
	if !strings.HasPrefix(strings.TrimSpace(content), "{") {
		return false
	}
	var fig struct {
		Data   json.RawMessage `json:"data"`
		Layout json.RawMessage `json:"layout"`
	}
	return json.Unmarshal([]byte(content), &fig) == nil && fig.Data != nil && fig.Layout != nil
}

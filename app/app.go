// Package app assembles the assistant from configuration: the completion
// client and its middleware, the warehouse, the agents, the supervisor and
// the conversation store.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/agents/chart"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/agents/dispatch"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/agents/retrieval"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/agents/search"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/config"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/contrib/provider"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/contrib/tokenizer/tiktoken"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/dashboard"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/events"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/llm"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/mail"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/middleware"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/middleware/errorhandler"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/middleware/limiter"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/middleware/logger"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/middleware/retry"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/middleware/validator"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/pkg/logging"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/pkg/telemetry"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/prompt"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/router"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/runner"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/session"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/session/store"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/summarizer"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/supervisor"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/warehouse"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/websearch"
)

// Warehouse is what the agents and the dashboard need from the database.
type Warehouse interface {
	TableInfo(ctx context.Context) (string, error)
	Run(ctx context.Context, statement string) (*turn.Table, error)
	Query(ctx context.Context, query string, args ...any) (*turn.Table, error)
	Columns(ctx context.Context, table string) ([]string, error)
}

// App holds the assembled components.
type App struct {
	Config     *config.Config
	Warehouse  Warehouse
	Dashboard  *dashboard.Service
	Supervisor *supervisor.Supervisor
	Runner     *runner.Runner
	Sessions   *session.Manager
	Events     *events.Bus

	logger  *slog.Logger
	closers []func(context.Context) error
}

type options struct {
	completer llm.Completer
	warehouse Warehouse
	search    websearch.Client
	sender    mail.Sender
	store     session.Store
	telemetry bool
}

// Option overrides a component that would otherwise be built from config.
type Option func(*options)

// WithCompleter uses c instead of the configured vendor. The middleware chain
// is still applied.
func WithCompleter(c llm.Completer) Option {
	return func(o *options) { o.completer = c }
}

// WithWarehouse uses w instead of connecting to Postgres.
func WithWarehouse(w Warehouse) Option {
	return func(o *options) { o.warehouse = w }
}

// WithSearchClient uses c instead of the configured search backend.
func WithSearchClient(c websearch.Client) Option {
	return func(o *options) { o.search = c }
}

// WithMailSender uses s instead of SMTP.
func WithMailSender(s mail.Sender) Option {
	return func(o *options) { o.sender = s }
}

// WithStore uses s instead of the configured history backend.
func WithStore(s session.Store) Option {
	return func(o *options) { o.store = s }
}

// WithoutTelemetry skips tracer setup even when enabled in config.
func WithoutTelemetry() Option {
	return func(o *options) { o.telemetry = false }
}

// New builds the application. Close releases everything it opened.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := &options{telemetry: true}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{Config: cfg, logger: logging.WithComponent("app"), Events: events.NewBus()}
	a.closers = append(a.closers, func(context.Context) error { return a.Events.Close() })

	if err := a.build(ctx, o); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, o *options) error {
	cfg := a.Config

	if o.telemetry && cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName: cfg.Telemetry.ServiceName,
			Environment: cfg.Telemetry.Environment,
			Endpoint:    cfg.Telemetry.Endpoint,
			SampleRatio: cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		a.closers = append(a.closers, shutdown)
	}

	base := o.completer
	if base == nil {
		c, closeFn, err := provider.New(ctx, provider.Config{
			Name:        cfg.LLM.Provider,
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		})
		if err != nil {
			return fmt.Errorf("create completion client: %w", err)
		}
		base = c
		a.closers = append(a.closers, func(context.Context) error { return closeFn() })
	}

	var counter *tiktoken.Tokenizer
	if cfg.LLM.Encoding != "" {
		tok, err := tiktoken.NewTiktokenTokenizer(cfg.LLM.Encoding)
		if err != nil {
			a.logger.Warn("token counting disabled", "encoding", cfg.LLM.Encoding, "error", err)
		} else {
			counter = tok
		}
	}
	var tokens validator.TokenCounter
	if counter != nil {
		tokens = counter
	}
	var limit *limiter.RateLimiter
	if cfg.LLM.RateLimit > 0 {
		limit = limiter.NewRateLimiter(cfg.LLM.RateLimit, cfg.LLM.RateBurst)
	}
	completer := func(caller string) llm.Completer {
		chain := middleware.NewChain(
			errorhandler.NewErrorHandler(errorhandler.Annotate),
			logger.NewCompletionLogger(logging.WithComponent("llm"), caller),
		)
		if limit != nil {
			chain.Add(limit)
		}
		chain.Add(validator.NewPromptValidator(tokens, cfg.LLM.MaxPromptTokens))
		chain.Add(retry.NewRetry(cfg.LLM.MaxRetries, 500*time.Millisecond, 10*time.Second))
		chain.Add(validator.NewResponseTrimmer())
		return llm.Wrap(base, chain)
	}

	a.Warehouse = o.warehouse
	if a.Warehouse == nil {
		wcfg := warehouse.DefaultConfig()
		wcfg.Host = cfg.Warehouse.Host
		wcfg.Port = cfg.Warehouse.Port
		wcfg.User = cfg.Warehouse.User
		wcfg.Password = cfg.Warehouse.Password
		wcfg.DBName = cfg.Warehouse.Name
		wcfg.SSLMode = cfg.Warehouse.SSLMode
		wcfg.QueryTimeout = cfg.Warehouse.QueryTimeout
		wcfg.MaxRows = cfg.Warehouse.MaxRows
		wcfg.SampleRows = cfg.Warehouse.SampleRows
		w, err := warehouse.Open(ctx, wcfg)
		if err != nil {
			return err
		}
		a.Warehouse = w
		a.closers = append(a.closers, func(context.Context) error { return w.Close() })
	}
	a.Dashboard = dashboard.New(a.Warehouse)

	searchClient := o.search
	if searchClient == nil {
		searchClient = newSearchClient(cfg.Search)
	}

	sender := o.sender
	if sender == nil {
		s, err := newSender(cfg.Mail)
		if err != nil {
			return err
		}
		sender = s
	}

	prompts := prompt.Default()
	if cfg.PromptsDir != "" {
		loaded, err := prompts.LoadDir(cfg.PromptsDir)
		if err != nil {
			return fmt.Errorf("load prompts: %w", err)
		}
		a.logger.Info("prompt overrides loaded", "dir", cfg.PromptsDir, "templates", loaded)
	}
	policy, err := router.PolicyFromNames(cfg.Supervisor.Guardrails, cfg.Supervisor.MaxDispatchAttempts)
	if err != nil {
		return fmt.Errorf("guardrail policy: %w", err)
	}
	rt := router.New(completer("router"),
		router.WithPolicy(policy),
		router.WithIntents(router.Intents{
			Analysis:     cfg.Supervisor.AnalysisKeywords,
			Notification: cfg.Supervisor.NotificationKeywords,
		}),
		router.WithPrompts(prompts),
	)

	agents := supervisor.Agents{
		Retriever:  retrieval.New(completer("sql_agent"), a.Warehouse, retrieval.WithPrompts(prompts)),
		Searcher:   search.New(searchClient, search.WithMaxResults(cfg.Search.MaxResults), search.WithPrompts(prompts)),
		Visualizer: chart.New(completer("visualization_agent"), chart.WithPrompts(prompts)),
		Dispatcher: dispatch.New(completer("email_agent"), sender, dispatch.Config{
			DefaultRecipients: cfg.Mail.DefaultRecipients,
			Signature:         cfg.Mail.Signature,
			CurrencySymbol:    cfg.Summarizer.CurrencySymbol,
			MaxSendAttempts:   cfg.Mail.MaxSendAttempts,
			InitialBackoff:    cfg.Mail.InitialBackoff,
			MaxBackoff:        cfg.Mail.MaxBackoff,
		}, dispatch.WithPrompts(prompts)),
	}

	sumOpts := []summarizer.Option{summarizer.WithPrompts(prompts)}
	if counter != nil {
		sumOpts = append(sumOpts, summarizer.WithTokenCounter(counter))
	}
	sum := summarizer.New(completer("summarizer"), summarizer.Config{
		MinHistoryLength: cfg.Summarizer.MinHistoryLength,
		ContextTokens:    cfg.Summarizer.ContextTokens,
		CurrencyName:     cfg.Summarizer.CurrencyName,
		CurrencySymbol:   cfg.Summarizer.CurrencySymbol,
		CurrencyExample:  cfg.Summarizer.CurrencyExample,
	}, sumOpts...)

	a.Supervisor, err = supervisor.New(rt, agents, sum,
		supervisor.WithMaxIterations(cfg.Supervisor.MaxIterations),
		supervisor.WithMinHistoryLength(cfg.Summarizer.MinHistoryLength),
		supervisor.WithPublisher(a.Events),
	)
	if err != nil {
		return err
	}
	a.Runner = runner.New(a.Supervisor, cfg.Supervisor.MaxConcurrentTurns)

	st := o.store
	if st == nil {
		st, err = a.newStore(ctx, cfg.History)
		if err != nil {
			return err
		}
	}
	a.Sessions = session.NewManager(st, a.Runner)

	a.logger.Info("assistant ready",
		"provider", cfg.LLM.Provider,
		"search", cfg.Search.Provider,
		"history", cfg.History.Backend,
		"guardrails", policy.Names())
	return nil
}

func newSearchClient(cfg config.SearchConfig) websearch.Client {
	ddg := websearch.NewDuckDuckGo("", nil)
	if cfg.Provider == "duckduckgo" || cfg.TavilyAPIKey == "" {
		return ddg
	}
	return websearch.Fallback(websearch.NewTavily(cfg.TavilyAPIKey), ddg)
}

// newSender returns an SMTP sender, or one that always fails when mail is
// not configured so the dispatch agent reports the failure in its status.
func newSender(cfg config.MailConfig) (mail.Sender, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return unconfiguredSender{}, nil
	}
	mc := mail.DefaultConfig()
	mc.Host = cfg.Host
	mc.Port = cfg.Port
	mc.Username = cfg.Username
	mc.Password = cfg.Password
	mc.From = cfg.From
	if cfg.Timeout > 0 {
		mc.Timeout = cfg.Timeout
	}
	s, err := mail.NewSMTPSender(mc)
	if err != nil {
		return nil, fmt.Errorf("create mail sender: %w", err)
	}
	return s, nil
}

type unconfiguredSender struct{}

func (unconfiguredSender) Send(context.Context, mail.Message) error {
	return errors.New("email credentials are not configured")
}

func (a *App) newStore(ctx context.Context, cfg config.HistoryConfig) (session.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return store.NewInMemoryStore(), nil
	case "redis":
		s := store.NewRedisStore(&store.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
			TTL:      cfg.TTL,
		})
		a.closers = append(a.closers, func(context.Context) error { return s.Close() })
		if err := s.Ping(ctx); err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return s, nil
	case "mongo":
		s, err := store.NewMongoStore(ctx, &store.MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	case "sqlite":
		s, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return s.Close() })
		return s, nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

package app

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/config"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/mail"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/session/store"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/websearch"
)

// fakeModel answers each prompt family from its own script.
type fakeModel struct {
	mu      sync.Mutex
	routes  []string
	sql     string
	summary string
	routed  int
}

func (m *fakeModel) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case strings.HasPrefix(prompt, "You supervise"):
		i := m.routed
		if i >= len(m.routes) {
			i = len(m.routes) - 1
		}
		m.routed++
		return m.routes[i], nil
	case strings.HasPrefix(prompt, "You are a PostgreSQL analyst"):
		return m.sql, nil
	case strings.HasPrefix(prompt, "You are a senior retail analyst"):
		return m.summary, nil
	default:
		return "summarize", nil
	}
}

type fakeWarehouse struct {
	mu    sync.Mutex
	ran   []string
	table *turn.Table
}

func (w *fakeWarehouse) TableInfo(context.Context) (string, error) {
	return "CREATE TABLE gadgethub_category_breakdown (category text, category_sales_amount numeric)", nil
}

func (w *fakeWarehouse) Run(_ context.Context, statement string) (*turn.Table, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ran = append(w.ran, statement)
	return w.table, nil
}

func (w *fakeWarehouse) Query(context.Context, string, ...any) (*turn.Table, error) {
	return w.table, nil
}

func (w *fakeWarehouse) Columns(context.Context, string) ([]string, error) {
	return w.table.Columns, nil
}

type noSearch struct{}

func (noSearch) Search(context.Context, string, int) ([]websearch.Result, error) {
	return nil, nil
}

type noMail struct{}

func (noMail) Send(context.Context, mail.Message) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		LLM:     config.LLMConfig{Provider: "openai", MaxTokens: 100, MaxRetries: 0, Timeout: time.Second},
		Search:  config.SearchConfig{Provider: "duckduckgo", MaxResults: 5},
		Mail:    config.MailConfig{Signature: "Nexus Corpus Analytics Team", MaxSendAttempts: 1},
		History: config.HistoryConfig{Backend: "memory"},
		Supervisor: config.SupervisorConfig{
			MaxIterations:        10,
			Guardrails:           []string{"retrieval_failure", "analysis_chart", "redundant_search", "dispatch_settled"},
			MaxDispatchAttempts:  3,
			AnalysisKeywords:     []string{"analysis", "report"},
			NotificationKeywords: []string{"email", "send"},
			MaxConcurrentTurns:   2,
		},
		Summarizer: config.SummarizerConfig{
			MinHistoryLength: 50,
			CurrencyName:     "Indian Rupees",
			CurrencySymbol:   "₹",
			CurrencyExample:  "₹1,50,000",
		},
	}
}

func TestAppRunsTurnEndToEnd(t *testing.T) {
	ctx := context.Background()
	model := &fakeModel{
		routes:  []string{"sql_agent", "summarize"},
		sql:     "```sql\nSELECT category, SUM(category_sales_amount) AS sales FROM gadgethub_category_breakdown GROUP BY category;\n```",
		summary: "Laptops lead with ₹6,00,000 in sales.",
	}
	wh := &fakeWarehouse{table: turn.NewTable([]string{"category", "sales"}, [][]string{{"Laptops", "600000"}, {"Phones", "400000"}})}

	a, err := New(ctx, testConfig(),
		WithCompleter(model),
		WithWarehouse(wh),
		WithSearchClient(noSearch{}),
		WithMailSender(noMail{}),
		WithStore(store.NewInMemoryStore()),
		WithoutTelemetry(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) })

	conv, err := a.Sessions.New(ctx)
	require.NoError(t, err)
	res, err := conv.Ask(ctx, "What were total sales by category?")
	require.NoError(t, err)

	assert.Equal(t, "Laptops lead with ₹6,00,000 in sales.", res.Reply)
	assert.Equal(t, []turn.Label{turn.RetrieveData, turn.Summarize}, res.Path)
	require.Len(t, wh.ran, 1)
	assert.False(t, strings.HasSuffix(wh.ran[0], ";"))
	assert.True(t, strings.HasPrefix(wh.ran[0], "SELECT"))

	history, err := conv.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Equal(t, 0, a.Runner.InFlight())
}

func TestAppRejectsBadGuardrail(t *testing.T) {
	cfg := testConfig()
	cfg.Supervisor.Guardrails = []string{"always_email"}
	_, err := New(context.Background(), cfg,
		WithCompleter(&fakeModel{routes: []string{"summarize"}}),
		WithWarehouse(&fakeWarehouse{table: turn.NewTable(nil, nil)}),
		WithStore(store.NewInMemoryStore()),
		WithoutTelemetry(),
	)
	assert.ErrorContains(t, err, "guardrail")
}

func TestNewSearchClient(t *testing.T) {
	_, ok := newSearchClient(config.SearchConfig{Provider: "duckduckgo"}).(*websearch.DuckDuckGo)
	assert.True(t, ok)
	_, ok = newSearchClient(config.SearchConfig{Provider: "tavily"}).(*websearch.DuckDuckGo)
	assert.True(t, ok, "tavily without a key falls back to duckduckgo")
	_, ok = newSearchClient(config.SearchConfig{Provider: "tavily", TavilyAPIKey: "k"}).(*websearch.DuckDuckGo)
	assert.False(t, ok)
}

func TestUnconfiguredSender(t *testing.T) {
	s, err := newSender(config.MailConfig{Host: "smtp.example.com", Port: 587})
	require.NoError(t, err)
	assert.Error(t, s.Send(context.Background(), mail.Message{To: []string{"a@example.com"}}))
}

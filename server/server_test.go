package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/dashboard"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/message"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/session"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/session/store"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/supervisor"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
)

type stubRunner struct {
	err   error
	chart string
}

func (r *stubRunner) Run(_ context.Context, st *turn.State) (*supervisor.Result, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.chart != "" {
		st.SetChart(&turn.Chart{JSON: r.chart})
	}
	reply := "Answer to: " + st.LatestHumanMessage()
	st.History = append(st.History, message.Assistant(reply))
	return &supervisor.Result{State: st, Reply: reply, Path: []turn.Label{turn.Summarize}}, nil
}

type stubQuerier struct{ empty bool }

func (q stubQuerier) Query(_ context.Context, sql string, _ ...any) (*turn.Table, error) {
	switch {
	case q.empty:
		return turn.NewTable([]string{"a", "b"}, [][]string{{"0", "0"}}), nil
	case strings.Contains(sql, "COUNT(*)"):
		return turn.NewTable([]string{"a", "b", "c"}, [][]string{{"150000", "2", "15000"}}), nil
	case strings.Contains(sql, "GROUP BY"):
		return turn.NewTable([]string{"k", "v"}, [][]string{{"Laptops", "100000"}, {"Phones", "50000"}}), nil
	case strings.Contains(sql, "DISTINCT"):
		return turn.NewTable([]string{"v"}, [][]string{{"2024"}}), nil
	default:
		return turn.NewTable([]string{"s"}, [][]string{{"12"}}), nil
	}
}

func (q stubQuerier) Columns(context.Context, string) ([]string, error) {
	return []string{"year", "sub_region", "category", "category_sales_amount", "profit_amount"}, nil
}

func newTestServer(t *testing.T, runner session.Runner, q dashboard.Querier) (*Server, *session.Manager) {
	t.Helper()
	mgr := session.NewManager(store.NewInMemoryStore(), runner)
	var dash *dashboard.Service
	if q != nil {
		dash = dashboard.New(q)
	}
	return New(mgr, dash), mgr
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, session.Greeting, resp.Greeting)
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func TestConversationFlow(t *testing.T) {
	srv, _ := newTestServer(t, &stubRunner{}, nil)
	id := createSession(t, srv)

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/messages", AskRequest{Message: "Total sales?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ask AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ask))
	assert.Equal(t, "Answer to: Total sales?", ask.Reply)
	assert.Equal(t, []string{"summarize"}, ask.Path)
	assert.Nil(t, ask.Chart)

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[1].Role)

	rec = do(t, srv, http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id)

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/clear", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), session.ClearedNotice)

	rec = do(t, srv, http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, srv, http.MethodGet, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAskReturnsChart(t *testing.T) {
	srv, _ := newTestServer(t, &stubRunner{chart: `{"data":[{"type":"bar"}],"layout":{}}`}, nil)
	id := createSession(t, srv)

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/messages", AskRequest{Message: "Chart sales"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"chart":{"data":[{"type":"bar"}],"layout":{}}`)
}

func TestAskFailureIsBadGateway(t *testing.T) {
	runner := &stubRunner{}
	srv, mgr := newTestServer(t, runner, nil)
	id := createSession(t, srv)
	do(t, srv, http.MethodPost, "/api/sessions/"+id+"/messages", AskRequest{Message: "first"})

	runner.err = errors.New("upstream: connection reset")
	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/messages", AskRequest{Message: "second"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), TurnFailedMessage)
	assert.NotContains(t, rec.Body.String(), "connection reset")

	conv, err := mgr.Get(context.Background(), id)
	require.NoError(t, err)
	history, err := conv.History(context.Background())
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestAskValidation(t *testing.T) {
	srv, _ := newTestServer(t, &stubRunner{}, nil)
	id := createSession(t, srv)

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/messages", AskRequest{Message: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/messages", strings.NewReader("{not json"))
	bad := httptest.NewRecorder()
	srv.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	rec = do(t, srv, http.MethodPost, "/api/sessions/unknown/messages", AskRequest{Message: "hi"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboard(t *testing.T) {
	srv, _ := newTestServer(t, &stubRunner{}, stubQuerier{})

	rec := do(t, srv, http.MethodGet, "/api/dashboard?years=2024&categories=Laptops,Phones", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	cards := resp["cards"].(map[string]any)
	assert.Equal(t, "₹1,50,000", cards["Total Sales"])
	assert.Equal(t, "₹15,000", cards["Total Profit"])
	assert.Equal(t, "10.0%", cards["Profit Margin"])
	assert.Contains(t, resp, "category_chart")
	assert.Contains(t, resp, "sub_region_chart")

	rec = do(t, srv, http.MethodGet, "/api/dashboard/filters", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2024")
}

func TestDashboardNoData(t *testing.T) {
	srv, _ := newTestServer(t, &stubRunner{}, stubQuerier{empty: true})
	rec := do(t, srv, http.MethodGet, "/api/dashboard?sub_regions=Nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), dashboard.NoDataMessage)
}

func TestDashboardUnavailable(t *testing.T) {
	srv, _ := newTestServer(t, &stubRunner{}, nil)
	rec := do(t, srv, http.MethodGet, "/api/dashboard", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &stubRunner{}, nil)
	rec := do(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	mgr := session.NewManager(store.NewInMemoryStore(), &stubRunner{})
	sick := New(mgr, nil, WithHealthCheck(func(context.Context) error { return errors.New("db down") }))
	rec = do(t, sick, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSplitParam(t *testing.T) {
	assert.Equal(t, []string{"2023", "2024", "2025"}, splitParam([]string{"2023, 2024", "2025"}))
	assert.Nil(t, splitParam(nil))
}

func TestWithMount(t *testing.T) {
	mounted := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	mgr := session.NewManager(store.NewInMemoryStore(), &stubRunner{})
	srv := New(mgr, nil, WithMount("/mcp", mounted))

	rec := do(t, srv, http.MethodPost, "/mcp", nil)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

// Package mcpserver exposes the retail analyst as MCP tools.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/dashboard"
	apperrors "github.com/adarshms444/Agentic-AI-Retail-Analytics-System/errors"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/pkg/logging"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/session"
)

const (
	// ServerName is the MCP server name.
	ServerName = "retail-analytics"
	// ServerVersion is the MCP server version.
	ServerVersion = "1.0.0"
)

// ServerInstructions provides usage guidance for calling models.
const ServerInstructions = `Retail analytics assistant over the GadgetHub sales warehouse.

Available tools:
- ask_retail_analyst: ask a question in plain language; pass session_id to continue a conversation
- dashboard_summary: headline KPIs with optional year, sub-region and category filters
- clear_conversation: forget a conversation's history

Amounts are in Indian Rupees.`

// Server wraps an MCP server bound to the assistant.
type Server struct {
	mcpServer *mcp.Server
	sessions  *session.Manager
	dashboard *dashboard.Service
	logger    *slog.Logger
}

// New creates the MCP server. dash may be nil, in which case the dashboard
// tool is not registered.
func New(sessions *session.Manager, dash *dashboard.Service) *Server {
	s := &Server{
		sessions:  sessions,
		dashboard: dash,
		logger:    logging.WithComponent("mcpserver"),
	}
	s.mcpServer = mcp.NewServer(
		&mcp.Implementation{Name: ServerName, Version: ServerVersion},
		&mcp.ServerOptions{Instructions: ServerInstructions, Logger: s.logger},
	)
	s.registerTools()
	return s
}

// MCP returns the underlying server, for in-process transports.
func (s *Server) MCP() *mcp.Server {
	return s.mcpServer
}

// ServeStdio serves over stdin/stdout until ctx is done.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio transport")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns a streamable HTTP handler serving this server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, &mcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute, Logger: s.logger})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer,
		&mcp.Tool{
			Name:        "ask_retail_analyst",
			Description: "Ask the retail analytics assistant a question. It queries the sales warehouse, searches the web for market context, draws charts and emails reports as needed.",
			Annotations: &mcp.ToolAnnotations{
				Title:         "Ask Retail Analyst",
				OpenWorldHint: boolPtr(true),
			},
		},
		s.ask,
	)

	mcp.AddTool(s.mcpServer,
		&mcp.Tool{
			Name:        "clear_conversation",
			Description: "Clear the stored history of a conversation.",
			Annotations: &mcp.ToolAnnotations{
				Title:           "Clear Conversation",
				DestructiveHint: boolPtr(true),
				IdempotentHint:  true,
				OpenWorldHint:   boolPtr(false),
			},
		},
		s.clear,
	)

	if s.dashboard == nil {
		return
	}
	mcp.AddTool(s.mcpServer,
		&mcp.Tool{
			Name:        "dashboard_summary",
			Description: "Total sales, profit, margin and customers, with sales by category and by sub-region.",
			Annotations: &mcp.ToolAnnotations{
				Title:          "Dashboard Summary",
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
			},
		},
		s.summary,
	)
}

func (s *Server) ask(ctx context.Context, _ *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, AskOutput, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, AskOutput{}, fmt.Errorf("question cannot be empty")
	}
	conv, err := s.sessions.GetOrCreate(ctx, in.SessionID)
	if err != nil {
		return nil, AskOutput{}, fmt.Errorf("open conversation: %w", err)
	}
	res, err := conv.Ask(ctx, question)
	if errors.Is(err, apperrors.ErrTurnInProgress) {
		return nil, AskOutput{}, fmt.Errorf("a question is already running in session %s", conv.ID())
	}
	if err != nil {
		s.logger.Error("turn failed", "session_id", conv.ID(), "error", err)
		return nil, AskOutput{}, fmt.Errorf("the assistant could not complete this request")
	}

	out := AskOutput{
		SessionID:      res.SessionID,
		Reply:          res.Reply,
		Path:           make([]string, 0, len(res.Path)),
		Degraded:       res.Degraded,
		ChartAvailable: res.Chart != "",
		DurationMs:     res.Duration.Milliseconds(),
	}
	for _, l := range res.Path {
		out.Path = append(out.Path, string(l))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: res.Reply}},
	}, out, nil
}

func (s *Server) clear(ctx context.Context, _ *mcp.CallToolRequest, in ClearInput) (*mcp.CallToolResult, ClearOutput, error) {
	conv, err := s.sessions.Get(ctx, in.SessionID)
	if err != nil {
		return nil, ClearOutput{}, err
	}
	if err := conv.Clear(ctx); err != nil {
		return nil, ClearOutput{}, err
	}
	return nil, ClearOutput{SessionID: conv.ID(), Message: session.ClearedNotice}, nil
}

func (s *Server) summary(ctx context.Context, _ *mcp.CallToolRequest, in DashboardInput) (*mcp.CallToolResult, DashboardOutput, error) {
	sum, err := s.dashboard.Summary(ctx, dashboard.Filters{
		Years:      in.Years,
		SubRegions: in.SubRegions,
		Categories: in.Categories,
	})
	if errors.Is(err, apperrors.ErrNoData) {
		return nil, DashboardOutput{}, errors.New(dashboard.NoDataMessage)
	}
	if err != nil {
		return nil, DashboardOutput{}, err
	}
	out := DashboardOutput{
		TotalSales:       dashboard.FormatINR(sum.TotalSales),
		TotalProfit:      dashboard.FormatINR(sum.TotalProfit),
		ProfitMargin:     dashboard.FormatPercent(sum.ProfitMargin),
		TotalCustomers:   dashboard.FormatCount(sum.TotalCustomers),
		SalesByCategory:  breakdown(sum.SalesByCategory),
		SalesBySubRegion: breakdown(sum.SalesBySubRegion),
	}
	return nil, out, nil
}

func breakdown(slices []dashboard.Slice) []Breakdown {
	out := make([]Breakdown, 0, len(slices))
	for _, s := range slices {
		out = append(out, Breakdown{Name: s.Name, Sales: dashboard.FormatINR(s.Value)})
	}
	return out
}

func boolPtr(b bool) *bool {
	return &b
}

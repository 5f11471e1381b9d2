package mcpserver

// AskInput defines parameters for asking the analyst a question.
type AskInput struct {
	Question  string `json:"question" jsonschema:"Natural-language question about retail sales, profit, customers, categories or sub-regions"`
	SessionID string `json:"session_id,omitempty" jsonschema:"Conversation to continue (empty starts a new one)"`
}

// AskOutput contains the analyst's reply.
type AskOutput struct {
	SessionID      string   `json:"session_id"`
	Reply          string   `json:"reply"`
	Path           []string `json:"path"`
	Degraded       bool     `json:"degraded,omitempty"`
	ChartAvailable bool     `json:"chart_available,omitempty"`
	DurationMs     int64    `json:"duration_ms"`
}

// DashboardInput defines the dashboard filters. Empty lists select everything.
type DashboardInput struct {
	Years      []string `json:"years,omitempty" jsonschema:"Years to include, e.g. 2024"`
	SubRegions []string `json:"sub_regions,omitempty" jsonschema:"Sub-regions to include"`
	Categories []string `json:"categories,omitempty" jsonschema:"Product categories to include"`
}

// DashboardOutput contains the headline KPIs.
type DashboardOutput struct {
	TotalSales       string      `json:"total_sales"`
	TotalProfit      string      `json:"total_profit"`
	ProfitMargin     string      `json:"profit_margin"`
	TotalCustomers   string      `json:"total_customers"`
	SalesByCategory  []Breakdown `json:"sales_by_category"`
	SalesBySubRegion []Breakdown `json:"sales_by_sub_region"`
}

// Breakdown is one group of sales.
type Breakdown struct {
	Name  string `json:"name"`
	Sales string `json:"sales"`
}

// ClearInput identifies the conversation to clear.
type ClearInput struct {
	SessionID string `json:"session_id" jsonschema:"Conversation to clear"`
}

// ClearOutput confirms the history was cleared.
type ClearOutput struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// Package dashboard computes the headline sales KPIs shown above the chat.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/chart"
	apperrors "github.com/adarshms444/Agentic-AI-Retail-Analytics-System/errors"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/pkg/logging"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/warehouse"
)

// NoDataMessage is shown when Summary fails with errors.ErrNoData.
const NoDataMessage = "No data found for the selected filters."

// Querier is the subset of the warehouse the dashboard reads from.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (*turn.Table, error)
	Columns(ctx context.Context, table string) ([]string, error)
}

// Filters narrows the dashboard. An empty slice selects everything.
type Filters struct {
	Years      []string `json:"years,omitempty"`
	SubRegions []string `json:"sub_regions,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// Options lists the values each filter can take.
type Options struct {
	Years      []string `json:"years"`
	SubRegions []string `json:"sub_regions"`
	Categories []string `json:"categories"`
}

// Slice is one group of an aggregate.
type Slice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Summary holds the KPI cards and the two breakdowns.
type Summary struct {
	TotalSales       float64 `json:"total_sales"`
	TotalProfit      float64 `json:"total_profit"`
	ProfitMargin     float64 `json:"profit_margin"`
	TotalCustomers   int64   `json:"total_customers"`
	SalesByCategory  []Slice `json:"sales_by_category"`
	SalesBySubRegion []Slice `json:"sales_by_sub_region"`
}

// Service answers dashboard queries.
type Service struct {
	db     Querier
	logger *slog.Logger
}

// New creates a dashboard service.
func New(db Querier) *Service {
	return &Service{db: db, logger: logging.WithComponent("dashboard")}
}

// Options returns the distinct years, sub-regions and categories.
func (s *Service) Options(ctx context.Context) (*Options, error) {
	years, err := s.distinct(ctx, "year::text", warehouse.MasterSalesTable)
	if err != nil {
		return nil, err
	}
	regions, err := s.distinct(ctx, "sub_region", warehouse.CategoryBreakdownTable)
	if err != nil {
		return nil, err
	}
	categories, err := s.distinct(ctx, "category", warehouse.CategoryBreakdownTable)
	if err != nil {
		return nil, err
	}
	return &Options{Years: years, SubRegions: regions, Categories: categories}, nil
}

func (s *Service) distinct(ctx context.Context, expr, table string) ([]string, error) {
	q := fmt.Sprintf("SELECT DISTINCT %s AS v FROM %s WHERE %s IS NOT NULL ORDER BY 1", expr, pq.QuoteIdentifier(table), expr)
	t, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list %s values: %w", expr, err)
	}
	out := make([]string, 0, t.Len())
	for _, r := range t.Rows {
		out = append(out, r[0])
	}
	return out, nil
}

// Summary computes the KPIs for filters. Sales always come from the category
// breakdown. Profit and customers come from it too when it carries those
// columns; otherwise they fall back to the master table filtered by year only.
func (s *Service) Summary(ctx context.Context, f Filters) (*Summary, error) {
	cols, err := s.db.Columns(ctx, warehouse.CategoryBreakdownTable)
	if err != nil {
		return nil, err
	}
	has := make(map[string]bool, len(cols))
	for _, c := range cols {
		has[c] = true
	}

	selects := []string{"COALESCE(SUM(category_sales_amount), 0)", "COUNT(*)"}
	if has["profit_amount"] {
		selects = append(selects, "COALESCE(SUM(profit_amount), 0)")
	}
	switch {
	case has["num_customers"]:
		selects = append(selects, "COALESCE(SUM(num_customers), 0)")
	case has["customer_id"]:
		selects = append(selects, "COUNT(DISTINCT customer_id)")
	}

	where, args := categoryWhere(f)
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(selects, ", "),
		pq.QuoteIdentifier(warehouse.CategoryBreakdownTable), where)
	t, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate sales: %w", err)
	}
	if t.Empty() {
		return nil, fmt.Errorf("dashboard: %w", apperrors.ErrNoData)
	}
	row := t.Rows[0]
	if n, _ := strconv.ParseInt(row[1], 10, 64); n == 0 {
		return nil, fmt.Errorf("dashboard: %w", apperrors.ErrNoData)
	}

	sum := &Summary{TotalSales: parseNumber(row[0])}
	next := 2
	if has["profit_amount"] {
		sum.TotalProfit = parseNumber(row[next])
		next++
	} else if sum.TotalProfit, err = s.masterTotal(ctx, "profit_amount", f.Years); err != nil {
		return nil, err
	}
	if has["num_customers"] || has["customer_id"] {
		sum.TotalCustomers = int64(math.Round(parseNumber(row[next])))
	} else {
		total, err := s.masterTotal(ctx, "num_customers", f.Years)
		if err != nil {
			return nil, err
		}
		sum.TotalCustomers = int64(math.Round(total))
	}
	if sum.TotalSales > 0 {
		sum.ProfitMargin = sum.TotalProfit / sum.TotalSales * 100
	}

	if sum.SalesByCategory, err = s.breakdown(ctx, "category", f); err != nil {
		return nil, err
	}
	if sum.SalesBySubRegion, err = s.breakdown(ctx, "sub_region", f); err != nil {
		return nil, err
	}
	s.logger.Debug("dashboard summary computed",
		"total_sales", sum.TotalSales,
		"categories", len(sum.SalesByCategory),
		"sub_regions", len(sum.SalesBySubRegion))
	return sum, nil
}

func (s *Service) masterTotal(ctx context.Context, column string, years []string) (float64, error) {
	q := fmt.Sprintf("SELECT COALESCE(SUM(%s), 0) FROM %s WHERE ($1::text[] IS NULL OR year::text = ANY($1))",
		pq.QuoteIdentifier(column), pq.QuoteIdentifier(warehouse.MasterSalesTable))
	t, err := s.db.Query(ctx, q, arrayArg(years))
	if err != nil {
		return 0, fmt.Errorf("aggregate %s: %w", column, err)
	}
	if t.Empty() {
		return 0, nil
	}
	return parseNumber(t.Rows[0][0]), nil
}

func (s *Service) breakdown(ctx context.Context, column string, f Filters) ([]Slice, error) {
	where, args := categoryWhere(f)
	q := fmt.Sprintf("SELECT %[1]s, COALESCE(SUM(category_sales_amount), 0) AS total_sales FROM %[2]s WHERE %[3]s GROUP BY %[1]s ORDER BY %[1]s",
		pq.QuoteIdentifier(column), pq.QuoteIdentifier(warehouse.CategoryBreakdownTable), where)
	t, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sales by %s: %w", column, err)
	}
	out := make([]Slice, 0, t.Len())
	for _, r := range t.Rows {
		out = append(out, Slice{Name: r[0], Value: parseNumber(r[1])})
	}
	return out, nil
}

func categoryWhere(f Filters) (string, []any) {
	where := "($1::text[] IS NULL OR year::text = ANY($1))" +
		" AND ($2::text[] IS NULL OR sub_region = ANY($2))" +
		" AND ($3::text[] IS NULL OR category = ANY($3))"
	return where, []any{arrayArg(f.Years), arrayArg(f.SubRegions), arrayArg(f.Categories)}
}

// arrayArg binds an empty selection as NULL so the predicate matches all rows.
func arrayArg(values []string) any {
	if len(values) == 0 {
		return pq.Array([]string(nil))
	}
	return pq.Array(values)
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// CategoryChart renders sales by category as a bar figure.
func (s *Summary) CategoryChart() (string, error) {
	return chart.Render(&chart.Spec{
		Type:     chart.Bar,
		X:        "category",
		Y:        []string{"Total Sales"},
		Title:    "Category Performance",
		Currency: true,
	}, slicesTable("category", "Total Sales", s.SalesByCategory))
}

// RegionChart renders the regional share of sales as a pie figure.
func (s *Summary) RegionChart() (string, error) {
	return chart.Render(&chart.Spec{
		Type:  chart.Pie,
		X:     "sub_region",
		Y:     []string{"Total Sales"},
		Title: "Regional Sales Share",
	}, slicesTable("sub_region", "Total Sales", s.SalesBySubRegion))
}

func slicesTable(name, value string, slices []Slice) *turn.Table {
	rows := make([][]string, 0, len(slices))
	for _, sl := range slices {
		rows = append(rows, []string{sl.Name, strconv.FormatFloat(sl.Value, 'f', -1, 64)})
	}
	return turn.NewTable([]string{name, value}, rows)
}

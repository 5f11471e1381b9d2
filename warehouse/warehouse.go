// Package warehouse runs read-only queries against the retail sales database.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/pkg/logging"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/turn"
)

// Table names of the retail schema.
const (
	MasterSalesTable       = "gadgethub_master_sales"
	CategoryBreakdownTable = "gadgethub_category_breakdown"
)

// Config holds PostgreSQL connection configuration
type Config struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	QueryTimeout time.Duration
	MaxRows      int
	SampleRows   int
	Tables       []string
}

// DefaultConfig returns default PostgreSQL configuration
func DefaultConfig() *Config {
	return &Config{
		Host:         "localhost",
		Port:         5432,
		User:         "postgres",
		DBName:       "retail",
		SSLMode:      "disable",
		QueryTimeout: 30 * time.Second,
		MaxRows:      1000,
		SampleRows:   3,
		Tables:       []string{MasterSalesTable, CategoryBreakdownTable},
	}
}

// DSN renders the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Warehouse executes queries inside read-only transactions.
type Warehouse struct {
	db     *sql.DB
	cfg    *Config
	logger *slog.Logger

	mu        sync.Mutex
	tableInfo string
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, cfg *Config) (*Warehouse, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}
	return New(db, cfg), nil
}

// New wraps an existing database handle.
func New(db *sql.DB, cfg *Config) *Warehouse {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if len(cfg.Tables) == 0 {
		cfg.Tables = []string{MasterSalesTable, CategoryBreakdownTable}
	}
	return &Warehouse{db: db, cfg: cfg, logger: logging.WithComponent("warehouse")}
}

// Close closes the database handle.
func (w *Warehouse) Close() error {
	return w.db.Close()
}

// Ping checks the connection.
func (w *Warehouse) Ping(ctx context.Context) error {
	return w.db.PingContext(ctx)
}

// Run executes a generated statement after checking it is read-only.
func (w *Warehouse) Run(ctx context.Context, statement string) (*turn.Table, error) {
	if err := CheckReadOnly(statement); err != nil {
		return nil, err
	}
	return w.Query(ctx, statement)
}

// Query runs a trusted parameterized query in a read-only transaction and
// returns at most MaxRows rows.
func (w *Warehouse) Query(ctx context.Context, query string, args ...any) (*turn.Table, error) {
	if w.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	tx, err := w.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read-only transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	table, err := scanTable(rows, w.cfg.MaxRows)
	if err != nil {
		return nil, err
	}
	w.logger.Debug("query finished", "rows", table.Len(), "duration_ms", time.Since(start).Milliseconds())
	return table, nil
}

func scanTable(rows *sql.Rows, maxRows int) (*turn.Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	table := &turn.Table{Columns: cols}
	for rows.Next() {
		if maxRows > 0 && len(table.Rows) >= maxRows {
			break
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = FormatCell(v)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return table, nil
}

// FormatCell renders a scanned value as text. Dates without a time part
// render as YYYY-MM-DD.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// Columns lists the columns of table in ordinal order.
func (w *Warehouse) Columns(ctx context.Context, table string) ([]string, error) {
	t, err := w.Query(ctx, `SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1 ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table, err)
	}
	cols := make([]string, 0, t.Len())
	for _, r := range t.Rows {
		cols = append(cols, r[0])
	}
	return cols, nil
}

// TableInfo describes the configured tables with their column types and a
// few sample rows, for use in query-generation prompts. The result is cached.
func (w *Warehouse) TableInfo(ctx context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tableInfo != "" {
		return w.tableInfo, nil
	}

	var b strings.Builder
	for _, name := range w.cfg.Tables {
		cols, err := w.Query(ctx, `SELECT column_name, data_type FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1 ORDER BY ordinal_position`, name)
		if err != nil {
			return "", fmt.Errorf("describe %s: %w", name, err)
		}
		fmt.Fprintf(&b, "CREATE TABLE %s (\n", name)
		for i, c := range cols.Rows {
			sep := ","
			if i == len(cols.Rows)-1 {
				sep = ""
			}
			fmt.Fprintf(&b, "\t%s %s%s\n", c[0], strings.ToUpper(c[1]), sep)
		}
		b.WriteString(")\n")

		if w.cfg.SampleRows > 0 {
			sample, err := w.Query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", pq.QuoteIdentifier(name), w.cfg.SampleRows))
			if err != nil {
				return "", fmt.Errorf("sample %s: %w", name, err)
			}
			fmt.Fprintf(&b, "/*\n%d rows from %s table:\n%s*/\n", sample.Len(), name, sample.CSV())
		}
		b.WriteString("\n")
	}
	w.tableInfo = strings.TrimSpace(b.String())
	return w.tableInfo, nil
}

// Package config loads application settings from defaults, an optional YAML
// file, a .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the config file looked up when no explicit path is given.
const FileName = "retail"

// Config is the full application configuration.
type Config struct {
	LLM        LLMConfig        `mapstructure:"llm"`
	Warehouse  WarehouseConfig  `mapstructure:"warehouse"`
	Search     SearchConfig     `mapstructure:"search"`
	Mail       MailConfig       `mapstructure:"mail"`
	History    HistoryConfig    `mapstructure:"history"`
	Supervisor SupervisorConfig `mapstructure:"supervisor"`
	Summarizer SummarizerConfig `mapstructure:"summarizer"`
	Server     ServerConfig     `mapstructure:"server"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`

	// PromptsDir holds <name>.tmpl files that replace built-in prompts.
	PromptsDir string `mapstructure:"prompts_dir"`
}

// LLMConfig selects the completion vendor and its call policy.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	MaxRetries  int           `mapstructure:"max_retries"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// RateLimit is completions per second; zero disables limiting.
	RateLimit       float64 `mapstructure:"rate_limit"`
	RateBurst       int     `mapstructure:"rate_burst"`
	MaxPromptTokens int     `mapstructure:"max_prompt_tokens"`
	Encoding        string  `mapstructure:"encoding"`
}

// WarehouseConfig locates the sales database.
type WarehouseConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	Name         string        `mapstructure:"name"`
	SSLMode      string        `mapstructure:"sslmode"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	MaxRows      int           `mapstructure:"max_rows"`
	SampleRows   int           `mapstructure:"sample_rows"`
}

// SearchConfig selects the web search backend.
type SearchConfig struct {
	Provider     string `mapstructure:"provider"`
	TavilyAPIKey string `mapstructure:"tavily_api_key"`
	MaxResults   int    `mapstructure:"max_results"`
}

// MailConfig configures SMTP delivery and the dispatch agent.
type MailConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	Username          string        `mapstructure:"username"`
	Password          string        `mapstructure:"password"`
	From              string        `mapstructure:"from"`
	DefaultRecipients []string      `mapstructure:"default_recipients"`
	Signature         string        `mapstructure:"signature"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxSendAttempts   int           `mapstructure:"max_send_attempts"`
	InitialBackoff    time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff        time.Duration `mapstructure:"max_backoff"`
}

// HistoryConfig selects where conversations are stored.
type HistoryConfig struct {
	Backend         string        `mapstructure:"backend"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	RedisPrefix     string        `mapstructure:"redis_prefix"`
	TTL             time.Duration `mapstructure:"ttl"`
	MongoURI        string        `mapstructure:"mongo_uri"`
	MongoDatabase   string        `mapstructure:"mongo_database"`
	MongoCollection string        `mapstructure:"mongo_collection"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
}

// SupervisorConfig tunes the routing loop.
type SupervisorConfig struct {
	MaxIterations        int      `mapstructure:"max_iterations"`
	Guardrails           []string `mapstructure:"guardrails"`
	MaxDispatchAttempts  int      `mapstructure:"max_dispatch_attempts"`
	AnalysisKeywords     []string `mapstructure:"analysis_keywords"`
	NotificationKeywords []string `mapstructure:"notification_keywords"`
	MaxConcurrentTurns   int      `mapstructure:"max_concurrent_turns"`
}

// SummarizerConfig tunes the final answer.
type SummarizerConfig struct {
	MinHistoryLength int    `mapstructure:"min_history_length"`
	ContextTokens    int    `mapstructure:"context_tokens"`
	CurrencyName     string `mapstructure:"currency_name"`
	CurrencySymbol   string `mapstructure:"currency_symbol"`
	CurrencyExample  string `mapstructure:"currency_example"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	TurnTimeout    time.Duration `mapstructure:"turn_timeout"`
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Environment string  `mapstructure:"environment"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// envBindings maps config keys to the variable names used by deployments.
var envBindings = map[string][]string{
	"llm.provider":               {"LLM_PROVIDER"},
	"llm.model":                  {"LLM_MODEL"},
	"llm.base_url":               {"LLM_BASE_URL"},
	"warehouse.host":             {"DB_HOST"},
	"warehouse.port":             {"DB_PORT"},
	"warehouse.user":             {"DB_USER"},
	"warehouse.password":         {"DB_PASSWORD"},
	"warehouse.name":             {"DB_NAME"},
	"warehouse.sslmode":          {"DB_SSLMODE"},
	"search.provider":            {"SEARCH_PROVIDER"},
	"search.tavily_api_key":      {"TAVILY_API_KEY"},
	"mail.host":                  {"EMAIL_SMTP_SERVER"},
	"mail.port":                  {"EMAIL_SMTP_PORT"},
	"mail.username":              {"EMAIL_SENDER_ADDRESS"},
	"mail.password":              {"EMAIL_SENDER_APP_PASSWORD"},
	"mail.default_recipients":    {"EMAIL_DEFAULT_RECIPIENTS"},
	"history.backend":            {"HISTORY_BACKEND"},
	"history.redis_addr":         {"REDIS_ADDR"},
	"history.redis_password":     {"REDIS_PASSWORD"},
	"history.mongo_uri":          {"MONGODB_URI"},
	"history.sqlite_path":        {"HISTORY_SQLITE_PATH"},
	"server.addr":                {"RETAIL_ADDR"},
	"telemetry.enabled":          {"TELEMETRY_ENABLED"},
	"telemetry.service_name":     {"OTEL_SERVICE_NAME"},
	"telemetry.endpoint":         {"OTEL_EXPORTER_OTLP_ENDPOINT"},
	"supervisor.max_iterations":  {"SUPERVISOR_MAX_ITERATIONS"},
	"summarizer.context_tokens":  {"SUMMARIZER_CONTEXT_TOKENS"},
	"summarizer.currency_symbol": {"CURRENCY_SYMBOL"},
}

// providerKeys lists the environment variables holding each vendor's key.
var providerKeys = map[string][]string{
	"openai": {"OPENAI_API_KEY"},
	"groq":   {"GROQ_API_KEY", "OPENAI_API_KEY"},
	"claude": {"ANTHROPIC_API_KEY"},
	"gemini": {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.rate_limit", 0.0)
	v.SetDefault("llm.rate_burst", 1)
	v.SetDefault("llm.max_prompt_tokens", 100000)
	v.SetDefault("llm.encoding", "cl100k_base")

	v.SetDefault("warehouse.host", "localhost")
	v.SetDefault("warehouse.port", 5432)
	v.SetDefault("warehouse.user", "postgres")
	v.SetDefault("warehouse.password", "")
	v.SetDefault("warehouse.name", "retail")
	v.SetDefault("warehouse.sslmode", "disable")
	v.SetDefault("warehouse.query_timeout", 30*time.Second)
	v.SetDefault("warehouse.max_rows", 1000)
	v.SetDefault("warehouse.sample_rows", 3)

	v.SetDefault("search.provider", "tavily")
	v.SetDefault("search.tavily_api_key", "")
	v.SetDefault("search.max_results", 5)

	v.SetDefault("mail.host", "smtp.gmail.com")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.default_recipients", []string{})
	v.SetDefault("mail.signature", "Nexus Corpus Analytics Team")
	v.SetDefault("mail.timeout", 30*time.Second)
	v.SetDefault("mail.max_send_attempts", 3)
	v.SetDefault("mail.initial_backoff", 500*time.Millisecond)
	v.SetDefault("mail.max_backoff", 5*time.Second)

	v.SetDefault("history.backend", "memory")
	v.SetDefault("history.redis_addr", "localhost:6379")
	v.SetDefault("history.redis_password", "")
	v.SetDefault("history.redis_db", 0)
	v.SetDefault("history.redis_prefix", "retail:session:")
	v.SetDefault("history.ttl", 24*time.Hour)
	v.SetDefault("history.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("history.mongo_database", "retail")
	v.SetDefault("history.mongo_collection", "conversations")
	v.SetDefault("history.sqlite_path", "retail_history.db")

	v.SetDefault("supervisor.max_iterations", 10)
	v.SetDefault("supervisor.guardrails", []string{"retrieval_failure", "analysis_chart", "redundant_search", "dispatch_settled"})
	v.SetDefault("supervisor.max_dispatch_attempts", 3)
	v.SetDefault("supervisor.analysis_keywords", []string{"analysis", "report"})
	v.SetDefault("supervisor.notification_keywords", []string{"email", "send"})
	v.SetDefault("supervisor.max_concurrent_turns", 10)

	v.SetDefault("summarizer.min_history_length", 50)
	v.SetDefault("summarizer.context_tokens", 6000)
	v.SetDefault("summarizer.currency_name", "Indian Rupees")
	v.SetDefault("summarizer.currency_symbol", "₹")
	v.SetDefault("summarizer.currency_example", "₹1,50,000")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.turn_timeout", 3*time.Minute)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "retail-analytics")
	v.SetDefault("telemetry.environment", "development")
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("prompts_dir", "")
}

// Load reads the configuration. path may name a YAML file; when empty the
// working directory and the user config dir are searched for retail.yaml.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "retail"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("RETAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

// normalize fills values derived from other settings.
func (c *Config) normalize() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "anthropic" {
		c.LLM.Provider = "claude"
	}
	if c.LLM.Provider == "google" {
		c.LLM.Provider = "gemini"
	}
	if c.LLM.APIKey == "" {
		for _, name := range providerKeys[c.LLM.Provider] {
			if key := os.Getenv(name); key != "" {
				c.LLM.APIKey = key
				break
			}
		}
	}
	c.Search.Provider = strings.ToLower(strings.TrimSpace(c.Search.Provider))
	c.History.Backend = strings.ToLower(strings.TrimSpace(c.History.Backend))
	if c.Mail.From == "" {
		c.Mail.From = c.Mail.Username
	}
	c.Mail.DefaultRecipients = splitList(c.Mail.DefaultRecipients)
	c.Server.AllowedOrigins = splitList(c.Server.AllowedOrigins)
}

// splitList flattens comma separated entries coming from the environment.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks the settings that every command depends on.
func (c *Config) Validate() error {
	v := NewValidator()

	v.ValidateOneOf("llm.provider", c.LLM.Provider, "openai", "groq", "claude", "gemini")
	v.RequireNonEmpty("llm.api_key", c.LLM.APIKey)
	v.ValidateFloatRange("llm.temperature", c.LLM.Temperature, 0.0, 2.0)
	v.RequirePositive("llm.max_tokens", c.LLM.MaxTokens)
	v.ValidateRange("llm.max_retries", c.LLM.MaxRetries, 0, 10)
	v.RequirePositiveDuration("llm.timeout", c.LLM.Timeout)

	v.RequireNonEmpty("warehouse.host", c.Warehouse.Host)
	v.ValidatePort("warehouse.port", c.Warehouse.Port)
	v.RequireNonEmpty("warehouse.user", c.Warehouse.User)
	v.RequireNonEmpty("warehouse.name", c.Warehouse.Name)
	v.ValidateOneOf("warehouse.sslmode", c.Warehouse.SSLMode, "disable", "require", "verify-ca", "verify-full")
	v.RequirePositive("warehouse.max_rows", c.Warehouse.MaxRows)

	v.ValidateOneOf("search.provider", c.Search.Provider, "tavily", "duckduckgo")
	v.When(c.Search.Provider == "tavily", func(v *Validator) {
		v.RequireNonEmpty("search.tavily_api_key", c.Search.TavilyAPIKey)
	})
	v.ValidateRange("search.max_results", c.Search.MaxResults, 1, 20)

	v.ValidatePort("mail.port", c.Mail.Port)
	v.ValidateEmails("mail.default_recipients", c.Mail.DefaultRecipients)
	v.RequirePositive("mail.max_send_attempts", c.Mail.MaxSendAttempts)

	v.ValidateOneOf("history.backend", c.History.Backend, "memory", "redis", "mongo", "sqlite")
	v.When(c.History.Backend == "redis", func(v *Validator) {
		v.RequireNonEmpty("history.redis_addr", c.History.RedisAddr)
		v.ValidateDBNumber("history.redis_db", c.History.RedisDB)
		v.RequireNonEmpty("history.redis_prefix", c.History.RedisPrefix)
	})
	v.When(c.History.Backend == "mongo", func(v *Validator) {
		v.RequireNonEmpty("history.mongo_uri", c.History.MongoURI)
		v.RequireNonEmpty("history.mongo_database", c.History.MongoDatabase)
		v.RequireNonEmpty("history.mongo_collection", c.History.MongoCollection)
	})
	v.When(c.History.Backend == "sqlite", func(v *Validator) {
		v.RequireNonEmpty("history.sqlite_path", c.History.SQLitePath)
	})

	v.RequirePositive("supervisor.max_iterations", c.Supervisor.MaxIterations)
	v.RequirePositive("supervisor.max_dispatch_attempts", c.Supervisor.MaxDispatchAttempts)
	for _, g := range c.Supervisor.Guardrails {
		v.ValidateOneOf("supervisor.guardrails", g, "retrieval_failure", "analysis_chart", "redundant_search", "dispatch_settled")
	}

	v.ValidateRange("summarizer.min_history_length", c.Summarizer.MinHistoryLength, 0, 100000)
	v.RequireNonEmpty("summarizer.currency_symbol", c.Summarizer.CurrencySymbol)

	v.ValidateFloatRange("telemetry.sample_ratio", c.Telemetry.SampleRatio, 0, 1)

	return v.Error()
}

// ValidateMail checks the settings needed to actually send email.
func (c *Config) ValidateMail() error {
	v := NewValidator()
	v.RequireNonEmpty("mail.host", c.Mail.Host)
	v.RequireNonEmpty("mail.username", c.Mail.Username)
	v.RequireNonEmpty("mail.password", c.Mail.Password)
	return v.Error()
}

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		DisableCORS     bool          `yaml:"disable_cors"`
	} `yaml:"server"`
	Log struct {
		Level   string `yaml:"level"`
		Format  string `yaml:"format"`
		Output  string `yaml:"output"`
		Collect bool   `yaml:"collect"`
	} `yaml:"log"`
	RateLimit struct {
		Enabled      bool    `yaml:"enabled"`
		Capacity     float64 `yaml:"capacity"`
		RefillPerSec float64 `yaml:"refill_per_sec"`
	} `yaml:"ratelimit"`
	Pipeline struct {
		ToolConcurrency         int           `yaml:"tool_concurrency"`
		ToolTimeout             time.Duration `yaml:"tool_timeout"`
		RequestTimeout          time.Duration `yaml:"request_timeout"`
		DetailedLengthThreshold int           `yaml:"detailed_length_threshold"`
		MarketRowLimit          int           `yaml:"market_row_limit"`
		SummaryMaxRunes         int           `yaml:"summary_max_runes"`
		DefaultCurrency         string        `yaml:"default_currency"`
	} `yaml:"pipeline"`
	LLM struct {
		Provider        string        `yaml:"provider"` // openai, deepseek, anthropic
		APIKey          string        `yaml:"api_key"`
		BaseURL         string        `yaml:"base_url"`
		Model           string        `yaml:"model"`
		ClassifierModel string        `yaml:"classifier_model"`
		Temperature     float64       `yaml:"temperature"`
		Timeout         time.Duration `yaml:"timeout"`
	} `yaml:"llm"`
	Search struct {
		APIKey      string        `yaml:"api_key"`
		EngineID    string        `yaml:"engine_id"`
		BaseURL     string        `yaml:"base_url"`
		ResultCount int           `yaml:"result_count"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"search"`
	Scrape struct {
		APIKey         string        `yaml:"api_key"`
		BaseURL        string        `yaml:"base_url"`
		Timeout        time.Duration `yaml:"timeout"`
		DirectFallback bool          `yaml:"direct_fallback"`
		MaxChars       int           `yaml:"max_chars"`
	} `yaml:"scrape"`
	News struct {
		BaseURL  string        `yaml:"base_url"`
		Language string        `yaml:"language"`
		Country  string        `yaml:"country"`
		MaxItems int           `yaml:"max_items"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"news"`
	Quotes struct {
		Enabled      bool     `yaml:"enabled"`
		IndexSymbols []string `yaml:"index_symbols"`
		USSymbols    []string `yaml:"us_symbols"`
	} `yaml:"quotes"`
	Persistence struct {
		Backend     string        `yaml:"backend"` // rest, clickhouse, routed
		SupabaseURL string        `yaml:"supabase_url"`
		SupabaseKey string        `yaml:"supabase_key"`
		Timeout     time.Duration `yaml:"timeout"`
		Retries     int           `yaml:"retries"`
	} `yaml:"persistence"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Cache struct {
		Enabled    bool          `yaml:"enabled"`
		Backend    string        `yaml:"backend"` // memory, redis, layered
		MarketTTL  time.Duration `yaml:"market_ttl"`
		RatesTTL   time.Duration `yaml:"rates_ttl"`
		MemorySize int           `yaml:"memory_size"`
		Redis      struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		EventsTopic  string   `yaml:"events_topic"`
		LogsTopic    string   `yaml:"logs_topic"`
		RatesTopic   string   `yaml:"rates_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// Default returns a configuration usable without any file: in-memory cache,
// REST persistence, no Kafka.
func Default() *Config {
	c := &Config{Environment: "development"}
	c.applyDefaults()
	return c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads .env (if present), then the YAML file, then applies environment overrides.
// An empty path starts from Default.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	var c *Config
	if path == "" {
		c = Default()
	} else {
		var err error
		if c, err = Load(path); err != nil {
			return nil, err
		}
	}

	setString(&c.Environment, "APP_ENV")
	setInt(&c.Server.Port, "PORT")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.Search.APIKey, "SEARCH_API_KEY")
	setString(&c.Search.EngineID, "SEARCH_ENGINE_ID")
	setString(&c.Scrape.APIKey, "SCRAPE_API_KEY")
	setString(&c.Pipeline.DefaultCurrency, "DEFAULT_CURRENCY")
	setString(&c.Persistence.Backend, "PERSISTENCE_BACKEND")
	setString(&c.Persistence.SupabaseURL, "SUPABASE_URL")
	setString(&c.Persistence.SupabaseKey, "SUPABASE_KEY")
	setString(&c.ClickHouse.Host, "CLICKHOUSE_HOST")
	setString(&c.ClickHouse.Password, "CLICKHOUSE_PASSWORD")
	setString(&c.Cache.Redis.Host, "REDIS_HOST")
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		if host, port, err := net.SplitHostPort(v); err == nil {
			c.Cache.Redis.Host = host
			if n, err := strconv.Atoi(port); err == nil {
				c.Cache.Redis.Port = n
			}
		}
	}
	setString(&c.Cache.Redis.Password, "REDIS_PASSWORD")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 20
	}
	if c.RateLimit.RefillPerSec == 0 {
		c.RateLimit.RefillPerSec = 0.5
	}
	p := &c.Pipeline
	if p.ToolConcurrency <= 0 {
		p.ToolConcurrency = 4
	}
	if p.ToolTimeout == 0 {
		p.ToolTimeout = 20 * time.Second
	}
	if p.RequestTimeout == 0 {
		p.RequestTimeout = 55 * time.Second
	}
	if p.DetailedLengthThreshold == 0 {
		p.DetailedLengthThreshold = 120
	}
	if p.MarketRowLimit == 0 {
		p.MarketRowLimit = 50
	}
	if p.SummaryMaxRunes == 0 {
		p.SummaryMaxRunes = 6000
	}
	if p.DefaultCurrency == "" {
		p.DefaultCurrency = "EGP"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.3
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 30 * time.Second
	}
	if c.Search.BaseURL == "" {
		c.Search.BaseURL = "https://www.googleapis.com/customsearch/v1"
	}
	if c.Search.ResultCount == 0 {
		c.Search.ResultCount = 5
	}
	if c.Search.Timeout == 0 {
		c.Search.Timeout = 10 * time.Second
	}
	if c.Scrape.BaseURL == "" {
		c.Scrape.BaseURL = "https://api.firecrawl.dev/v1/scrape"
	}
	if c.Scrape.Timeout == 0 {
		c.Scrape.Timeout = 15 * time.Second
	}
	if c.Scrape.MaxChars == 0 {
		c.Scrape.MaxChars = 3000
	}
	if c.News.BaseURL == "" {
		c.News.BaseURL = "https://news.google.com/rss/search"
	}
	if c.News.Language == "" {
		c.News.Language = "ar"
	}
	if c.News.Country == "" {
		c.News.Country = "EG"
	}
	if c.News.MaxItems == 0 {
		c.News.MaxItems = 5
	}
	if c.News.Timeout == 0 {
		c.News.Timeout = 10 * time.Second
	}
	if c.Persistence.Backend == "" {
		c.Persistence.Backend = "rest"
	}
	if c.Persistence.Timeout == 0 {
		c.Persistence.Timeout = 10 * time.Second
	}
	ch := &c.ClickHouse
	if ch.Port == 0 {
		ch.Port = 9000
	}
	if ch.Database == "" {
		ch.Database = "default"
	}
	if ch.User == "" {
		ch.User = "default"
	}
	if ch.DialTimeout == 0 {
		ch.DialTimeout = 5 * time.Second
	}
	if ch.ReadTimeout == 0 {
		ch.ReadTimeout = 10 * time.Second
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.MarketTTL == 0 {
		c.Cache.MarketTTL = 5 * time.Minute
	}
	if c.Cache.RatesTTL == 0 {
		c.Cache.RatesTTL = 15 * time.Minute
	}
	if c.Cache.MemorySize == 0 {
		c.Cache.MemorySize = 1000
	}
	if c.Cache.Redis.Host == "" {
		c.Cache.Redis.Host = "localhost"
	}
	if c.Cache.Redis.Port == 0 {
		c.Cache.Redis.Port = 6379
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "finadvisor"
	}
	if c.Kafka.EventsTopic == "" {
		c.Kafka.EventsTopic = "finadvisor.query-events"
	}
	if c.Kafka.LogsTopic == "" {
		c.Kafka.LogsTopic = "finadvisor.error-logs"
	}
	if c.Kafka.RatesTopic == "" {
		c.Kafka.RatesTopic = "finadvisor.currency-rates"
	}
	k := &c.Kafka
	if k.Compression == "" {
		k.Compression = "snappy"
	}
	if k.RequiredAcks == 0 {
		k.RequiredAcks = 1
	}
	if k.Producer.MaxAttempts == 0 {
		k.Producer.MaxAttempts = 3
	}
	if k.Producer.Linger == 0 {
		k.Producer.Linger = 50 * time.Millisecond
	}
	if k.Producer.BatchSize == 0 {
		k.Producer.BatchSize = 100
	}
	if k.Producer.WriteTimeout == 0 {
		k.Producer.WriteTimeout = 10 * time.Second
	}
	if k.Consumer.GroupID == "" {
		k.Consumer.GroupID = "finadvisor"
	}
	if k.Consumer.Workers == 0 {
		k.Consumer.Workers = 2
	}
	if k.Consumer.BufferSize == 0 {
		k.Consumer.BufferSize = 64
	}
	if k.Consumer.RetryMax == 0 {
		k.Consumer.RetryMax = 3
	}
	if k.Consumer.BackoffMin == 0 {
		k.Consumer.BackoffMin = 50 * time.Millisecond
	}
	if k.Consumer.BackoffMax == 0 {
		k.Consumer.BackoffMax = 2 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.LLM.Provider {
	case "openai", "deepseek", "anthropic":
	default:
		return fmt.Errorf("llm.provider must be 'openai', 'deepseek' or 'anthropic', got '%s'", c.LLM.Provider)
	}
	switch c.Persistence.Backend {
	case "rest", "clickhouse", "routed":
	default:
		return fmt.Errorf("persistence.backend must be 'rest', 'clickhouse' or 'routed', got '%s'", c.Persistence.Backend)
	}
	if c.Persistence.Backend != "clickhouse" && c.Persistence.SupabaseURL == "" && c.Environment == "production" {
		return fmt.Errorf("persistence.supabase_url is required in production")
	}
	if c.Persistence.Backend != "rest" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required for backend '%s'", c.Persistence.Backend)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.backend must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Backend)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Pipeline.ToolTimeout <= 0 {
		return fmt.Errorf("pipeline.tool_timeout must be positive")
	}
	return nil
}

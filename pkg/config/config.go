package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ChartFeed/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SlowThreshold   time.Duration `yaml:"slow_threshold"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Sources struct {
		StrategyTimeout time.Duration `yaml:"strategy_timeout"`
		Proxy           string        `yaml:"proxy"`
		UserAgent       string        `yaml:"user_agent"`
		Table           struct {
			URLTemplate string `yaml:"url_template"`
		} `yaml:"table"`
		JSON struct {
			URLTemplate string `yaml:"url_template"`
		} `yaml:"json"`
	} `yaml:"sources"`
	RateLimit struct {
		UpstreamPerMinute int     `yaml:"upstream_per_minute"`
		APICapacity       float64 `yaml:"api_capacity"`
		APIRefillPerSec   float64 `yaml:"api_refill_per_sec"`
	} `yaml:"ratelimit"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Audit struct {
		Backend string        `yaml:"backend"` // none, kafka, clickhouse, sqlite
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"audit"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Prober struct {
		Enabled      bool   `yaml:"enabled"`
		Schedule     string `yaml:"schedule"`
		CanarySymbol string `yaml:"canary_symbol"`
	} `yaml:"prober"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads .env (if present) and config from YAML, then overrides with
// environment variables before validating.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.ApplyDefaults()
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CHARTFEED_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("TABLE_SOURCE_URL"); v != "" {
		c.Sources.Table.URLTemplate = v
	}
	if v := os.Getenv("JSON_SOURCE_URL"); v != "" {
		c.Sources.JSON.URLTemplate = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" && c.Sources.Proxy == "" {
		c.Sources.Proxy = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Enabled = true
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		c.Redis.Port = util.ParseIntDefault(v, c.Redis.Port)
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("AUDIT_BACKEND"); v != "" {
		c.Audit.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
}

// ApplyDefaults fills zero values with working defaults.
func (c *Config) ApplyDefaults() {
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
	if c.Server.SlowThreshold == 0 {
		c.Server.SlowThreshold = 2 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Sources.StrategyTimeout == 0 {
		c.Sources.StrategyTimeout = 8 * time.Second
	}
	if c.RateLimit.APICapacity == 0 {
		c.RateLimit.APICapacity = 20
	}
	if c.RateLimit.APIRefillPerSec == 0 {
		c.RateLimit.APIRefillPerSec = 5
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "chartfeed"
	}
	if c.Audit.Backend == "" {
		c.Audit.Backend = "none"
	}
	if c.Audit.Timeout == 0 {
		c.Audit.Timeout = 2 * time.Second
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "chartfeed.acquisitions"
	}
	if c.ClickHouse.Database == "" {
		c.ClickHouse.Database = "chartfeed"
	}
	if c.SQLite.Path == "" {
		c.SQLite.Path = "data/chartfeed.db"
	}
	if c.Prober.Schedule == "" {
		c.Prober.Schedule = "0 */5 * * * *"
	}
	if c.Prober.CanarySymbol == "" {
		c.Prober.CanarySymbol = "NEPSE"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Sources.StrategyTimeout <= 0 {
		return fmt.Errorf("sources.strategy_timeout must be positive")
	}
	for name, tpl := range map[string]string{
		"sources.table.url_template": c.Sources.Table.URLTemplate,
		"sources.json.url_template":  c.Sources.JSON.URLTemplate,
	} {
		if tpl != "" && !strings.Contains(tpl, "{symbol}") {
			return fmt.Errorf("%s must contain {symbol}", name)
		}
	}
	if c.RateLimit.UpstreamPerMinute < 0 {
		return fmt.Errorf("ratelimit.upstream_per_minute cannot be negative")
	}
	switch c.Audit.Backend {
	case "none":
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when audit.backend is kafka")
		}
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required when audit.backend is clickhouse")
		}
	case "sqlite":
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite.path is required when audit.backend is sqlite")
		}
	default:
		return fmt.Errorf("audit.backend must be one of none, kafka, clickhouse, sqlite, got '%s'", c.Audit.Backend)
	}
	return nil
}

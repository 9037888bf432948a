package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development" validate:"required"`
	Server      ServerConfig     `yaml:"server"`
	Log         LogConfig        `yaml:"log"`
	Research    ResearchConfig   `yaml:"research"`
	CoinGecko   CoinGeckoConfig  `yaml:"coingecko"`
	Analyst     AnalystConfig    `yaml:"analyst"`
	Redis       RedisConfig      `yaml:"redis"`
	Cache       CacheConfig      `yaml:"cache"`
	Queue       QueueConfig      `yaml:"queue"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Notion      NotionConfig     `yaml:"notion"`
	Output      OutputConfig     `yaml:"output"`

	// Prompts is filled from Research.PromptsDir by LoadPrompts and is not
	// modified afterwards.
	Prompts map[string]string `yaml:"-"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"90s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	SlowThreshold   time.Duration `yaml:"slow_threshold" default:"45s"`
	AllowOrigins    []string      `yaml:"allow_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error fatal panic"`
	Format string `yaml:"format" default:"json" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stdout" validate:"required"`
	// Collect ships aggregated warn/error entries to Kafka.Topics.Logs.
	Collect struct {
		Enabled        bool          `yaml:"enabled"`
		Interval       time.Duration `yaml:"interval" default:"30s"`
		CountThreshold int           `yaml:"count_threshold" default:"100"`
	} `yaml:"collect"`
}

type ResearchConfig struct {
	PriceTimeout     time.Duration `yaml:"price_timeout" default:"30s"`
	NewsTimeout      time.Duration `yaml:"news_timeout" default:"30s"`
	SentimentTimeout time.Duration `yaml:"sentiment_timeout" default:"30s"`
	AuxPolicy        string        `yaml:"aux_policy" default:"any" validate:"oneof=any all"`
	PromptsDir       string        `yaml:"prompts_dir"`
	Disclaimer       string        `yaml:"disclaimer"`
	DeliverTimeout   time.Duration `yaml:"deliver_timeout" default:"15s"`
	CacheTTL         time.Duration `yaml:"cache_ttl" default:"1m"`
}

type CoinGeckoConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	HistoryDays  int           `yaml:"history_days" default:"90" validate:"min=1"`
	QuoteTTL     time.Duration `yaml:"quote_ttl" default:"1m"`
	HistoryTTL   time.Duration `yaml:"history_ttl" default:"15m"`
	RateCapacity float64       `yaml:"rate_capacity" default:"5"`
	RatePerSec   float64       `yaml:"rate_per_sec" default:"0.5"`
}

type AnalystConfig struct {
	URL      string        `yaml:"url" validate:"required"`
	Timeout  time.Duration `yaml:"timeout" default:"25s"`
	Attempts int           `yaml:"attempts" default:"2" validate:"min=1"`
	Backoff  time.Duration `yaml:"backoff" default:"250ms"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size" default:"10"`
	Prefix   string `yaml:"prefix" default:"finresearch"`
}

type CacheConfig struct {
	MemoryMaxSize int           `yaml:"memory_max_size" default:"1000"`
	MemoryTTL     time.Duration `yaml:"memory_ttl" default:"30s"`
}

type QueueConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Workers    int           `yaml:"workers" default:"2"`
	RetryLimit int           `yaml:"retry_limit" default:"3"`
	RetryDelay time.Duration `yaml:"retry_delay" default:"10s"`
	JobTimeout time.Duration `yaml:"job_timeout" default:"2m"`
	StatusTTL  time.Duration `yaml:"status_ttl" default:"24h"`
}

type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	RequiredAcks int      `yaml:"required_acks" default:"-1"`
	Compression  string   `yaml:"compression" default:"snappy"`
	Topics       struct {
		Requests string `yaml:"requests" default:"research.requests"`
		Reports  string `yaml:"reports" default:"research.reports"`
		Logs     string `yaml:"logs" default:"research.logs"`
	} `yaml:"topics"`
	Producer struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"5"`
		Linger       time.Duration `yaml:"linger" default:"50ms"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
	Consumer struct {
		Enabled       bool          `yaml:"enabled"`
		GroupID       string        `yaml:"group_id" default:"finresearch"`
		Workers       int           `yaml:"workers" default:"2"`
		BufferSize    int           `yaml:"buffer_size" default:"64"`
		RetryMax      int           `yaml:"retry_max" default:"3"`
		BackoffMin    time.Duration `yaml:"backoff_min" default:"500ms"`
		BackoffMax    time.Duration `yaml:"backoff_max" default:"10s"`
		DLQTopic      string        `yaml:"dlq_topic" default:"research.requests.dlq"`
		HandleTimeout time.Duration `yaml:"handle_timeout" default:"2m"`
	} `yaml:"consumer"`
}

type ClickHouseConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"finresearch"`
	Table            string        `yaml:"table" default:"research_runs"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
}

type NotionConfig struct {
	Enabled    bool          `yaml:"enabled"`
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	DatabaseID string        `yaml:"database_id"`
	Timeout    time.Duration `yaml:"timeout" default:"30s"`
}

// OutputConfig is where markdown reports are written.
type OutputConfig struct {
	Dir string `yaml:"dir" default:"reports" validate:"required"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file, applies defaults and
// validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse is Load for YAML already in memory.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.ApplyDefaults(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML, overrides secrets and endpoints from the
// environment and loads prompts.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.ApplyDefaults(); err != nil {
		return nil, err
	}
	c.ApplyEnv(os.LookupEnv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if c.Prompts, err = LoadPrompts(c.Research.PromptsDir); err != nil {
		return nil, err
	}
	return &c, nil
}

// ApplyDefaults fills zero fields from their default tags.
func (c *Config) ApplyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("config defaults: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables. Setting a Notion
// key and database, Kafka brokers or a Redis address also enables that
// integration.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	if v, ok := get("COINGECKO_API_KEY"); ok {
		c.CoinGecko.APIKey = v
	}
	if v, ok := get("ANALYST_URL"); ok {
		c.Analyst.URL = v
	}
	if v, ok := get("NOTION_API_KEY"); ok {
		c.Notion.APIKey = v
	}
	if v, ok := get("NOTION_DATABASE_ID"); ok {
		c.Notion.DatabaseID = v
	}
	if c.Notion.APIKey != "" && c.Notion.DatabaseID != "" {
		c.Notion.Enabled = true
	}
	if v, ok := get("OUTPUT_DIR"); ok {
		c.Output.Dir = v
	}
	if v, ok := get("KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v, ok := get("REDIS_ADDR"); ok {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	var errs []error
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers cannot be empty when kafka is enabled"))
	}
	if c.Kafka.Consumer.Enabled && !c.Kafka.Enabled {
		errs = append(errs, errors.New("kafka.consumer requires kafka.enabled"))
	}
	if c.Log.Collect.Enabled && !c.Kafka.Enabled {
		errs = append(errs, errors.New("log.collect requires kafka.enabled"))
	}
	if c.Queue.Enabled && !c.Redis.Enabled {
		errs = append(errs, errors.New("queue requires redis.enabled"))
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		errs = append(errs, errors.New("clickhouse.host is required when clickhouse is enabled"))
	}
	if c.Notion.Enabled && (c.Notion.APIKey == "" || c.Notion.DatabaseID == "") {
		errs = append(errs, errors.New("notion.api_key and notion.database_id are required when notion is enabled"))
	}
	return errors.Join(errs...)
}

// ArchiveTable is the fully qualified ClickHouse table name.
func (c *ClickHouseConfig) ArchiveTable() string {
	return c.Database + "." + c.Table
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	openAIKeyEnv     = "OPENAI_API_KEY"
	openAIOrgEnv     = "OPENAI_ORG_ID"
	openAIBaseURLEnv = "OPENAI_BASE_URL"
	tavilyKeyEnv     = "TAVILY_API_KEY"
	mongoURIEnv      = "MONGO_URI"
	postgresPassEnv  = "POSTGRES_PASSWORD"
	logLevelEnv      = "LOG_LEVEL"
	offsetEnv        = "K"
	windowEnv        = "WINDOW"
)

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Search      SearchConfig      `yaml:"search"`
	Kalshi      KalshiConfig      `yaml:"kalshi"`
	Storage     StorageConfig     `yaml:"storage"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Research    ResearchConfig    `yaml:"research"`
	Batch       BatchConfig       `yaml:"batch"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	Provider string        `yaml:"provider"` // eino 或 openai
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	OrgID    string        `yaml:"org_id"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SearchConfig 搜索相关配置
type SearchConfig struct {
	Provider   string           `yaml:"provider"`
	Tavily     TavilyConfig     `yaml:"tavily"`
	SearXNG    SearXNGConfig    `yaml:"searxng"`
	DuckDuckGo DuckDuckGoConfig `yaml:"duckduckgo"`
}

// TavilyConfig Tavily 配置
type TavilyConfig struct {
	APIKey string `yaml:"api_key"`
}

// SearXNGConfig SearXNG 配置
type SearXNGConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"`
}

// DuckDuckGoConfig DuckDuckGo HTML 端点配置
type DuckDuckGoConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"`
}

// KalshiConfig 事件源配置
type KalshiConfig struct {
	BaseURL     string        `yaml:"base_url"`
	EventsIndex string        `yaml:"events_index"` // 活跃事件列表 JSON 地址
	Timeout     time.Duration `yaml:"timeout"`
}

// StorageConfig 持久化配置
type StorageConfig struct {
	Driver   string         `yaml:"driver"` // mongo / postgres / sqlite
	Mongo    MongoConfig    `yaml:"mongo"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// PostgresConfig 数据库相关配置
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// SQLiteConfig 本地 SQLite 配置
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	Tickers int `yaml:"tickers"` // 同时处理的事件数
	LLM     int `yaml:"llm"`     // 同时在途的模型调用数
	HTTP    int `yaml:"http"`    // 同时在途的网页抓取数
	QPS     int `yaml:"qps"`
	RPM     int `yaml:"rpm"`
}

// ResearchConfig 报告生成参数
type ResearchConfig struct {
	NumQueries      int           `yaml:"num_queries"`
	MaxQueryWords   int           `yaml:"max_query_words"`
	NumURLs         int           `yaml:"num_urls"`
	MinArticleChars int           `yaml:"min_article_chars"`
	MaxArticleChars int           `yaml:"max_article_chars"`
	MaxMarkets      int           `yaml:"max_markets"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	UserAgent       string        `yaml:"user_agent"`
	Extractor       string        `yaml:"extractor"` // paragraphs 或 readability
}

// BatchConfig 批量运行的切片与抽样
type BatchConfig struct {
	Offset       int   `yaml:"offset"`
	Window       int   `yaml:"window"` // 0 表示不切片
	SampleTarget int   `yaml:"sample_target"`
	Seed         int64 `yaml:"seed"`
}

// ScheduleConfig 定时任务配置
type ScheduleConfig struct {
	Cron string `yaml:"cron"`
}

// LoadConfig 从指定路径加载配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 返回仅包含默认值的配置，供测试和无配置文件时使用
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	setString(&c.LLM.Provider, "eino")
	setString(&c.LLM.BaseURL, "https://api.openai.com/v1")
	setString(&c.LLM.Model, "gpt-4o-mini-2024-07-18")
	setDuration(&c.LLM.Timeout, 2*time.Minute)

	setString(&c.Search.Provider, "duckduckgo")
	setString(&c.Search.DuckDuckGo.BaseURL, "https://html.duckduckgo.com/html/")

	setString(&c.Kalshi.BaseURL, "https://api.elections.kalshi.com/trade-api/v2")
	setString(&c.Kalshi.EventsIndex, "https://raw.githubusercontent.com/jyoonsong/FutureBench/refs/heads/main/data/sampled_events.json")
	setDuration(&c.Kalshi.Timeout, 15*time.Second)

	setString(&c.Storage.Driver, "mongo")
	setString(&c.Storage.Mongo.Database, "forecasting")
	setString(&c.Storage.Mongo.Collection, "reports")
	setInt(&c.Storage.Postgres.Port, 5432)
	setString(&c.Storage.SQLite.Path, "data/reports.db")

	setString(&c.Log.Level, "info")

	setInt(&c.Concurrency.Tickers, 4)
	setInt(&c.Concurrency.LLM, 3)
	setInt(&c.Concurrency.HTTP, 10)
	setInt(&c.Concurrency.QPS, 3)
	setInt(&c.Concurrency.RPM, 500)

	setInt(&c.Research.NumQueries, 6)
	setInt(&c.Research.MaxQueryWords, 7)
	setInt(&c.Research.NumURLs, 5)
	setInt(&c.Research.MinArticleChars, 200)
	setInt(&c.Research.MaxArticleChars, 100000)
	setInt(&c.Research.MaxMarkets, 6)
	setInt(&c.Research.MaxRetries, 5)
	setDuration(&c.Research.RetryDelay, 3*time.Second)
	setDuration(&c.Research.FetchTimeout, 15*time.Second)
	setString(&c.Research.UserAgent, "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	setString(&c.Research.Extractor, "paragraphs")

	if c.Batch.Seed == 0 {
		c.Batch.Seed = 37
	}

	setString(&c.Schedule.Cron, "0 6 * * *")
}

// applyEnv 环境变量优先于配置文件
func (c *Config) applyEnv() error {
	overrideString(&c.LLM.APIKey, openAIKeyEnv)
	overrideString(&c.LLM.OrgID, openAIOrgEnv)
	overrideString(&c.LLM.BaseURL, openAIBaseURLEnv)
	overrideString(&c.Search.Tavily.APIKey, tavilyKeyEnv)
	overrideString(&c.Storage.Mongo.URI, mongoURIEnv)
	overrideString(&c.Storage.Postgres.Password, postgresPassEnv)
	overrideString(&c.Log.Level, logLevelEnv)

	if err := overrideInt(&c.Batch.Offset, offsetEnv); err != nil {
		return err
	}
	return overrideInt(&c.Batch.Window, windowEnv)
}

// Validate 校验运行所需的关键配置
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm api key is missing (set llm.api_key or %s)", openAIKeyEnv)
	}
	switch c.LLM.Provider {
	case "eino", "openai":
	default:
		return fmt.Errorf("unknown llm provider: %s", c.LLM.Provider)
	}

	switch c.Storage.Driver {
	case "mongo":
		if c.Storage.Mongo.URI == "" {
			return fmt.Errorf("mongo uri is missing (set storage.mongo.uri or %s)", mongoURIEnv)
		}
	case "postgres":
		if c.Storage.Postgres.Host == "" {
			return fmt.Errorf("postgres host is missing")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unknown storage driver: %s", c.Storage.Driver)
	}

	switch c.Research.Extractor {
	case "paragraphs", "readability":
	default:
		return fmt.Errorf("unknown extractor: %s", c.Research.Extractor)
	}

	if c.Research.MinArticleChars > c.Research.MaxArticleChars {
		return fmt.Errorf("research.min_article_chars cannot exceed research.max_article_chars")
	}
	if c.Batch.Offset < 0 || c.Batch.Window < 0 {
		return fmt.Errorf("batch offset and window cannot be negative")
	}
	return nil
}

func setString(v *string, def string) {
	if strings.TrimSpace(*v) == "" {
		*v = def
	}
}

func setInt(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

func setDuration(v *time.Duration, def time.Duration) {
	if *v <= 0 {
		*v = def
	}
}

func overrideString(v *string, key string) {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		*v = val
	}
}

func overrideInt(v *int, key string) error {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*v = n
	return nil
}

package config

import (
	"time"

	"golang-headline-signal/pkg/config"
)

// Scoring holds the signal policy and batch orchestration settings.
type Scoring struct {
	BuyThreshold      float64       `mapstructure:"buy_threshold"`
	SellThreshold     float64       `mapstructure:"sell_threshold"`
	MaxConcurrency    int           `mapstructure:"max_concurrency"`
	MaxBatchSize      int           `mapstructure:"max_batch_size"`
	MaxHeadlineLength int           `mapstructure:"max_headline_length"`
	ClassifierTimeout time.Duration `mapstructure:"classifier_timeout"`

	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
	CacheShards        int           `mapstructure:"cache_shards"`
	CacheBackend       string        `mapstructure:"cache_backend"` // memory, redis, tiered
	CacheSweepSchedule string        `mapstructure:"cache_sweep_schedule"`

	// Headline stream
	StreamEnabled       bool          `mapstructure:"stream_enabled"`
	StreamTimeout       time.Duration `mapstructure:"stream_timeout"`
	StreamRetryInterval time.Duration `mapstructure:"stream_retry_interval"`
	StreamMaxIdle       time.Duration `mapstructure:"stream_max_idle"`
	StreamMaxRetry      int           `mapstructure:"stream_max_retry"`
}

// Webhook holds outbound delivery settings.
type Webhook struct {
	MaxAttempts          int           `mapstructure:"max_attempts"`
	InitialBackoff       time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff           time.Duration `mapstructure:"max_backoff"`
	AttemptTimeout       time.Duration `mapstructure:"attempt_timeout"`
	MaxConcurrentJobs    int           `mapstructure:"max_concurrent_jobs"`
	SerializePerEndpoint bool          `mapstructure:"serialize_per_endpoint"`
	// FailFastClientErrors stops retrying on 4xx other than 408 and 429.
	FailFastClientErrors bool     `mapstructure:"fail_fast_client_errors"`
	StaticEndpoints      []string `mapstructure:"static_endpoints"`
}

// Classifier selects the sentiment backend.
type Classifier struct {
	Provider string `mapstructure:"provider"` // huggingface, gemini
}

// HuggingFace holds the configuration for the Hugging Face inference API.
type HuggingFace struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken      string `mapstructure:"bot_token"`
	ChatID        int64  `mapstructure:"chat_id"`
	NotifySignals bool   `mapstructure:"notify_signals"`
}

// FeedSource is one RSS feed polled for a symbol.
type FeedSource struct {
	Symbol string `mapstructure:"symbol"`
	URL    string `mapstructure:"url"`
}

// Feed holds RSS ingestion settings.
type Feed struct {
	Enabled          bool          `mapstructure:"enabled"`
	Schedule         string        `mapstructure:"schedule"`
	MaxItemsPerFeed  int           `mapstructure:"max_items_per_feed"`
	MaxItemAge       time.Duration `mapstructure:"max_item_age"`
	SeenTTL          time.Duration `mapstructure:"seen_ttl"`
	Sources          []FeedSource  `mapstructure:"sources"`
	GoogleNewsSymbol []string      `mapstructure:"google_news_symbols"`
}

// Config holds the full configuration for the scoring service.
type Config struct {
	App         config.App      `mapstructure:"app"`
	Logger      config.Logger   `mapstructure:"logger"`
	Database    config.Database `mapstructure:"database"`
	Redis       config.Redis    `mapstructure:"redis"`
	API         config.API      `mapstructure:"api"`
	Scoring     Scoring         `mapstructure:"scoring"`
	Webhook     Webhook         `mapstructure:"webhook"`
	Classifier  Classifier      `mapstructure:"classifier"`
	HuggingFace HuggingFace     `mapstructure:"huggingface"`
	Gemini      Gemini          `mapstructure:"gemini"`
	Telegram    Telegram        `mapstructure:"telegram"`
	Feed        Feed            `mapstructure:"feed"`
}

// Defaults are applied before the config file and environment.
var Defaults = map[string]interface{}{
	"app.name":                           "scoring-service",
	"logger.level":                       "info",
	"logger.encoding":                    "json",
	"api.port":                           8000,
	"api.shutdown_timeout":               "10s",
	"redis.pool_size":                    10,
	"redis.dial_timeout":                 "2s",
	"redis.read_timeout":                 "500ms",
	"redis.stream_max_len":               10000,
	"scoring.buy_threshold":              0.6,
	"scoring.sell_threshold":             0.6,
	"scoring.max_concurrency":            8,
	"scoring.max_batch_size":             100,
	"scoring.max_headline_length":        1000,
	"scoring.classifier_timeout":         "10s",
	"scoring.cache_ttl":                  "15m",
	"scoring.cache_shards":               16,
	"scoring.cache_backend":              "tiered",
	"scoring.cache_sweep_schedule":       "@every 1m",
	"scoring.stream_enabled":             true,
	"scoring.stream_timeout":             "30s",
	"scoring.stream_retry_interval":      "30s",
	"scoring.stream_max_idle":            "2m",
	"scoring.stream_max_retry":           3,
	"webhook.max_attempts":               5,
	"webhook.initial_backoff":            "500ms",
	"webhook.max_backoff":                "30s",
	"webhook.attempt_timeout":            "5s",
	"webhook.max_concurrent_jobs":        32,
	"classifier.provider":                "huggingface",
	"huggingface.base_url":               "https://api-inference.huggingface.co/models",
	"huggingface.model":                  "ProsusAI/finbert",
	"huggingface.max_request_per_minute": 300,
	"gemini.model":                       "gemini-2.0-flash",
	"gemini.max_request_per_minute":      60,
	"feed.schedule":                      "@every 5m",
	"feed.max_items_per_feed":            20,
	"feed.max_item_age":                  "24h",
	"feed.seen_ttl":                      "48h",
}

// Load loads the scoring configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, Defaults); err != nil {
		return nil, err
	}
	return &cfg, nil
}

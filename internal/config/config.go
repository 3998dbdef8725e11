// Package config provides configuration management for the newsroom crawler.
// It handles loading, validation, and access to configuration values from
// YAML files, .env files and environment variables using viper.
package config

import (
	"time"

	"github.com/jonesrussell/newsroom-crawler/internal/logger"
	"github.com/jonesrussell/newsroom-crawler/internal/retry"
)

// Config represents the application configuration.
type Config struct {
	// App holds application-level settings
	App AppConfig `mapstructure:"app" yaml:"app"`
	// Logger holds logging configuration
	Logger logger.Config `mapstructure:"logger" yaml:"logger"`
	// Crawl holds search terms, cutoff date and organization selection
	Crawl CrawlConfig `mapstructure:"crawl" yaml:"crawl"`
	// Fetcher holds primary and browser fetch settings
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	// Storage holds output artifact locations
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	// State holds the processed-URL ledger settings
	State StateConfig `mapstructure:"state" yaml:"state"`
	// Elasticsearch holds the optional record mirror settings
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch" yaml:"elasticsearch"`
	// Server holds the status API settings
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	// Schedule holds the cron schedule used by the serve command
	Schedule ScheduleConfig `mapstructure:"schedule" yaml:"schedule"`
	// Registry lists the organizations and their seed URLs
	Registry []Organization `mapstructure:"registry" yaml:"registry"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Environment string `mapstructure:"environment" yaml:"environment"`
	Debug       bool   `mapstructure:"debug" yaml:"debug"`
}

// IsDevelopment reports whether the app runs in a development environment.
func (c AppConfig) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// CrawlConfig holds the crawl-wide filter and scheduling settings.
type CrawlConfig struct {
	Terms          []string  `mapstructure:"terms" yaml:"terms"`
	Cutoff         time.Time `mapstructure:"cutoff" yaml:"cutoff"`
	ExcerptLength  int       `mapstructure:"excerpt_length" yaml:"excerpt_length"`
	OrgConcurrency int       `mapstructure:"org_concurrency" yaml:"org_concurrency"`
	// Organizations restricts a run to the named organizations. Empty means all.
	Organizations []string `mapstructure:"organizations" yaml:"organizations"`
}

// FetcherConfig holds primary HTTP and browser fallback settings.
type FetcherConfig struct {
	UserAgent       string        `mapstructure:"user_agent" yaml:"user_agent"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	PageLoadTimeout time.Duration `mapstructure:"page_load_timeout" yaml:"page_load_timeout"`
	ScrollPause     time.Duration `mapstructure:"scroll_pause" yaml:"scroll_pause"`
	MaxScrolls      int           `mapstructure:"max_scrolls" yaml:"max_scrolls"`
	RenderSeeds     bool          `mapstructure:"render_seeds" yaml:"render_seeds"`
	ScrollRetry     retry.Config  `mapstructure:"scroll_retry" yaml:"scroll_retry"`
	Chrome          ChromeConfig  `mapstructure:"chrome" yaml:"chrome"`

	// RequestsPerSecond paces page loads. Zero disables pacing.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
}

// ChromeConfig holds headless browser launch options.
type ChromeConfig struct {
	Headless     bool   `mapstructure:"headless" yaml:"headless"`
	ExecPath     string `mapstructure:"exec_path" yaml:"exec_path"`
	WindowWidth  int    `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight int    `mapstructure:"window_height" yaml:"window_height"`
}

// StorageConfig holds artifact paths.
type StorageConfig struct {
	ResultsJSON string `mapstructure:"results_json" yaml:"results_json"`
	ResultsCSV  string `mapstructure:"results_csv" yaml:"results_csv"`
	SnapshotDir string `mapstructure:"snapshot_dir" yaml:"snapshot_dir"`
	URLDir      string `mapstructure:"url_dir" yaml:"url_dir"`
}

// StateConfig holds processed-URL ledger settings.
type StateConfig struct {
	// Driver is one of sqlite, postgres, redis, memory.
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
	// FailurePolicy is mark or retry.
	FailurePolicy string      `mapstructure:"failure_policy" yaml:"failure_policy"`
	Redis         RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig holds Redis connection settings for the redis ledger.
type RedisConfig struct {
	Address  string `mapstructure:"address" yaml:"address"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Key      string `mapstructure:"key" yaml:"key"`
}

// ElasticsearchConfig holds settings for the optional record mirror.
type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled" yaml:"enabled"`
	Addresses []string `mapstructure:"addresses" yaml:"addresses"`
	Username  string   `mapstructure:"username" yaml:"username"`
	Password  string   `mapstructure:"password" yaml:"password"`
	Index     string   `mapstructure:"index" yaml:"index"`
}

// ServerConfig holds the status API settings.
type ServerConfig struct {
	Address      string        `mapstructure:"address" yaml:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	// JWTSecret protects POST /api/v1/runs when set.
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
}

// ScheduleConfig holds the cron expression for scheduled runs.
type ScheduleConfig struct {
	Cron string `mapstructure:"cron" yaml:"cron"`
}

// Organization is a registry entry.
type Organization struct {
	Name  string   `mapstructure:"name" yaml:"name"`
	Seeds []string `mapstructure:"seeds" yaml:"seeds"`
}

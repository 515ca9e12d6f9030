package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName        string `mapstructure:"app_name"`
	Env            string `mapstructure:"app_env"`
	LogLevel       string `mapstructure:"log_level"`
	ProvidersFile  string `mapstructure:"providers_file"`
	PublishersFile string `mapstructure:"publishers_file"`

	StorageType   string `mapstructure:"storage_type"`
	BBoltPath     string `mapstructure:"bbolt_path"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	CacheTTLHours int64  `mapstructure:"cache_ttl_hours"`

	CrawlEnabled  bool   `mapstructure:"crawl_enabled"`
	CrawlCron     string `mapstructure:"crawl_cron"`
	CleanupCron   string `mapstructure:"cleanup_cron"`
	HeartbeatSpec string `mapstructure:"heartbeat_spec"`
	Timezone      string `mapstructure:"timezone"`
	RetentionDays int    `mapstructure:"retention_days"`

	CrawlConcurrency      int    `mapstructure:"crawl_concurrency"`
	FetchTimeoutSeconds   int64  `mapstructure:"fetch_timeout_seconds"`
	ArticleTimeoutSeconds int64  `mapstructure:"article_timeout_seconds"`
	StoreTimeoutSeconds   int64  `mapstructure:"store_timeout_seconds"`
	ImageLookupIntervalMs int64  `mapstructure:"image_lookup_interval_ms"`
	MaxItemsPerSource     int    `mapstructure:"max_items_per_source"`
	SummaryMaxLength      int    `mapstructure:"summary_max_length"`
	UserAgent             string `mapstructure:"user_agent"`

	FetchTimeout        time.Duration  `mapstructure:"-"`
	ArticleTimeout      time.Duration  `mapstructure:"-"`
	StoreTimeout        time.Duration  `mapstructure:"-"`
	ImageLookupInterval time.Duration  `mapstructure:"-"`
	CacheTTL            time.Duration  `mapstructure:"-"`
	location            *time.Location `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "news-ingestor")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("providers_file", "./configs/providers.yaml")
	v.SetDefault("publishers_file", "")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/news.db")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("cache_ttl_hours", 24*30)
	v.SetDefault("crawl_enabled", true)
	v.SetDefault("crawl_cron", "0 7 * * *")
	v.SetDefault("cleanup_cron", "0 2 * * *")
	v.SetDefault("heartbeat_spec", "@every 30m")
	v.SetDefault("timezone", "Asia/Seoul")
	v.SetDefault("retention_days", 30)
	v.SetDefault("crawl_concurrency", 5)
	v.SetDefault("fetch_timeout_seconds", 30)
	v.SetDefault("article_timeout_seconds", 10)
	v.SetDefault("store_timeout_seconds", 60)
	v.SetDefault("image_lookup_interval_ms", 250)
	v.SetDefault("max_items_per_source", 10)
	v.SetDefault("summary_max_length", 300)
	v.SetDefault("user_agent", defaultUserAgent)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

const redactedValue = "xxxxx"

var dsnPassword = regexp.MustCompile(`(?i)(password=)('[^']*'|\S+)`)

// Redacted returns a copy that is safe to log: the postgres password and the
// redis password are masked.
func (c *Config) Redacted() Config {
	out := *c
	out.PostgresDSN = redactDSN(c.PostgresDSN)
	if out.RedisPassword != "" {
		out.RedisPassword = redactedValue
	}
	return out
}

// redactDSN masks the password in both URL and key=value DSN forms.
func redactDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.User != nil {
		return u.Redacted()
	}
	return dsnPassword.ReplaceAllString(dsn, "${1}"+redactedValue)
}

// finalize validates raw values and derives durations.
func (c *Config) finalize() error {
	c.StorageType = strings.ToLower(strings.TrimSpace(c.StorageType))
	c.UserAgent = strings.TrimSpace(c.UserAgent)
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}

	if c.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid fetch_timeout_seconds (must be positive seconds)")
	}
	if c.ArticleTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid article_timeout_seconds (must be positive seconds)")
	}
	if c.StoreTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid store_timeout_seconds (must be positive seconds)")
	}
	if c.ImageLookupIntervalMs < 0 {
		return fmt.Errorf("invalid image_lookup_interval_ms (must not be negative)")
	}
	if c.CacheTTLHours <= 0 {
		return fmt.Errorf("invalid cache_ttl_hours (must be positive hours)")
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("invalid retention_days (must be positive days)")
	}
	if c.CrawlConcurrency <= 0 {
		return fmt.Errorf("invalid crawl_concurrency (must be positive)")
	}
	if c.MaxItemsPerSource <= 0 {
		return fmt.Errorf("invalid max_items_per_source (must be positive)")
	}
	if c.SummaryMaxLength <= 0 {
		return fmt.Errorf("invalid summary_max_length (must be positive)")
	}
	if strings.TrimSpace(c.CrawlCron) == "" || strings.TrimSpace(c.CleanupCron) == "" {
		return fmt.Errorf("crawl_cron and cleanup_cron are required")
	}

	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	c.location = loc

	c.FetchTimeout = time.Duration(c.FetchTimeoutSeconds) * time.Second
	c.ArticleTimeout = time.Duration(c.ArticleTimeoutSeconds) * time.Second
	c.StoreTimeout = time.Duration(c.StoreTimeoutSeconds) * time.Second
	c.ImageLookupInterval = time.Duration(c.ImageLookupIntervalMs) * time.Millisecond
	c.CacheTTL = time.Duration(c.CacheTTLHours) * time.Hour
	return nil
}

// Location returns the zone schedules and "today" boundaries are computed in.
func (c *Config) Location() *time.Location {
	if c == nil || c.location == nil {
		return time.UTC
	}
	return c.location
}

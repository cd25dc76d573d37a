// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all pipeline configuration knobs loaded via Viper.
type Config struct {
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Headless HeadlessConfig `mapstructure:"headless"`
	DB       DBConfig       `mapstructure:"db"`
	Enrich   EnrichConfig   `mapstructure:"enrich"`
	Search   SearchConfig   `mapstructure:"search"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Export   ExportConfig   `mapstructure:"export"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ScraperConfig governs the scrape pipeline.
type ScraperConfig struct {
	Sources     []string `mapstructure:"sources"`
	UserAgent   string   `mapstructure:"user_agent"`
	Workers     int      `mapstructure:"workers"`
	PerComboCap int      `mapstructure:"per_combo_cap"`
	RatePerSec  float64  `mapstructure:"rate_per_sec"`
}

// HTTPConfig configures HTTP client timeout and retry behavior.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	MaxRetries     int `mapstructure:"max_retries"`
	BackoffSeconds int `mapstructure:"backoff_seconds"`
}

// HeadlessConfig configures the optional browser-rendering fallback.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxParallel   int  `mapstructure:"max_parallel"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
	BodyThreshold int  `mapstructure:"body_threshold"`
}

// DBConfig controls access to the lead store.
type DBConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Table  string `mapstructure:"table"`
}

// EnrichConfig governs the enrichment pipeline. HunterAPIKey comes from the
// environment as LEADGRID_ENRICH_HUNTER_API_KEY.
type EnrichConfig struct {
	Providers    []string `mapstructure:"providers"`
	BatchSize    int      `mapstructure:"batch_size"`
	Workers      int      `mapstructure:"workers"`
	RatePerSec   float64  `mapstructure:"rate_per_sec"`
	HunterAPIKey string   `mapstructure:"hunter_api_key"`
}

// SearchConfig toggles search-seeded discovery for blocked sites.
type SearchConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	Providers     []string `mapstructure:"providers"`
	SerpAPIKey    string   `mapstructure:"serpapi_key"`
	SerperAPIKey  string   `mapstructure:"serper_key"`
	ResultsPerQry int      `mapstructure:"results_per_query"`
}

// ArchiveConfig controls raw-page snapshot persistence.
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// ExportConfig sets export output behavior.
type ExportConfig struct {
	Dir  string `mapstructure:"dir"`
	XLSX bool   `mapstructure:"xlsx"`
}

// ServerConfig controls the status/metrics HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEADGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scraper.sources", []string{"indiamart", "justdial", "tradeindia"})
	v.SetDefault("scraper.user_agent", "leadgrid-bot/1.0 (+https://github.com/forgelabs/leadgrid)")
	v.SetDefault("scraper.workers", 4)
	v.SetDefault("scraper.per_combo_cap", 12)
	v.SetDefault("scraper.rate_per_sec", 1.0)
	v.SetDefault("http.timeout_seconds", 12)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_seconds", 5)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 25)
	v.SetDefault("headless.body_threshold", 2048)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "leads.db")
	v.SetDefault("db.table", "leads")
	v.SetDefault("enrich.providers", []string{"hunter", "pattern"})
	v.SetDefault("enrich.batch_size", 50)
	v.SetDefault("enrich.workers", 2)
	v.SetDefault("enrich.rate_per_sec", 0.5)
	v.SetDefault("enrich.hunter_api_key", "")
	v.SetDefault("search.enabled", false)
	v.SetDefault("search.providers", []string{"serper", "serpapi"})
	v.SetDefault("search.serpapi_key", "")
	v.SetDefault("search.serper_key", "")
	v.SetDefault("search.results_per_query", 10)
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.dir", "snapshots")
	v.SetDefault("export.dir", "exports")
	v.SetDefault("export.xlsx", true)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if len(c.Scraper.Sources) == 0 {
		return fmt.Errorf("scraper.sources must not be empty")
	}
	if c.Scraper.Workers <= 0 {
		return fmt.Errorf("scraper.workers must be > 0")
	}
	if c.Scraper.RatePerSec <= 0 {
		return fmt.Errorf("scraper.rate_per_sec must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.DB.Driver != "sqlite" && c.DB.Driver != "postgres" {
		return fmt.Errorf("db.driver must be sqlite or postgres, got %q", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required")
	}
	if c.Enrich.BatchSize <= 0 {
		return fmt.Errorf("enrich.batch_size must be > 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// Timeout returns the HTTP timeout as a duration.
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Backoff returns the fixed retry backoff as a duration.
func (c HTTPConfig) Backoff() time.Duration {
	return time.Duration(c.BackoffSeconds) * time.Second
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.HTTP.TimeoutSeconds)
	assert.Equal(t, 3, cfg.HTTP.MaxRetries)
	assert.Equal(t, 5, cfg.HTTP.BackoffSeconds)
	assert.Equal(t, 12*time.Second, cfg.HTTP.Timeout())
	assert.Equal(t, 5*time.Second, cfg.HTTP.Backoff())
	assert.Equal(t, 1.0, cfg.Scraper.RatePerSec)
	assert.Equal(t, 12, cfg.Scraper.PerComboCap)
	assert.Equal(t, []string{"indiamart", "justdial", "tradeindia"}, cfg.Scraper.Sources)
	assert.Equal(t, 50, cfg.Enrich.BatchSize)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.False(t, cfg.Headless.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
scraper:
  workers: 8
  sources: [indiamart]
http:
  timeout_seconds: 20
db:
  driver: postgres
  dsn: postgres://localhost/leads
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Scraper.Workers)
	assert.Equal(t, []string{"indiamart"}, cfg.Scraper.Sources)
	assert.Equal(t, 20, cfg.HTTP.TimeoutSeconds)
	assert.Equal(t, "postgres", cfg.DB.Driver)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	base := func() Config {
		return Config{
			Scraper: ScraperConfig{Sources: []string{"indiamart"}, Workers: 4, RatePerSec: 1},
			HTTP:    HTTPConfig{TimeoutSeconds: 12, MaxRetries: 3, BackoffSeconds: 5},
			DB:      DBConfig{Driver: "sqlite", DSN: "leads.db"},
			Enrich:  EnrichConfig{BatchSize: 50},
			Server:  ServerConfig{Port: 8080},
		}
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no sources", func(c *Config) { c.Scraper.Sources = nil }},
		{"zero workers", func(c *Config) { c.Scraper.Workers = 0 }},
		{"zero rate", func(c *Config) { c.Scraper.RatePerSec = 0 }},
		{"zero timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }},
		{"bad driver", func(c *Config) { c.DB.Driver = "oracle" }},
		{"empty dsn", func(c *Config) { c.DB.DSN = "" }},
		{"zero batch", func(c *Config) { c.Enrich.BatchSize = 0 }},
		{"headless without parallel", func(c *Config) { c.Headless.Enabled = true }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := base()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// Package config loads the scraper's runtime settings and source catalog
// from a YAML file. A missing file means built-in defaults. Secrets never
// live in the file: api_key values go through ${VAR} environment expansion,
// and a .env file beside the process is honored for local runs.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dmaher/scrapewire/internal/logging"
	"github.com/dmaher/scrapewire/internal/scrape"
)

// Defaults are fallbacks for sources that do not set their own values.
type Defaults struct {
	TimeoutMs   int `yaml:"timeout_ms"`
	RateLimitMs int `yaml:"rate_limit_ms"`
	MaxRetries  int `yaml:"max_retries"`
	MaxArticles int `yaml:"max_articles"`
}

// Throttle tunes the shared request scheduler.
type Throttle struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

// Processing tunes the article pipeline.
type Processing struct {
	DisableBlocklist bool `yaml:"disable_blocklist"`
}

// Config is the whole file.
type Config struct {
	Defaults   Defaults      `yaml:"defaults"`
	Throttle   Throttle      `yaml:"throttle"`
	Processing Processing    `yaml:"processing"`
	Sources    []SourceEntry `yaml:"sources"`
}

// SourceEntry is the YAML shape of one source. Scalar fields are pointers
// so an entry overriding a built-in source touches only the fields it sets.
type SourceEntry struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Kind        string            `yaml:"kind"`
	Priority    *int              `yaml:"priority"`
	Categories  []string          `yaml:"categories"`
	RateLimitMs *int              `yaml:"rate_limit_ms"`
	MaxRetries  *int              `yaml:"max_retries"`
	TimeoutMs   *int              `yaml:"timeout_ms"`
	Enabled     *bool             `yaml:"enabled"`
	APIKey      string            `yaml:"api_key"`
	BaseURL     string            `yaml:"base_url"`
	Headers     map[string]string `yaml:"headers"`
	FeedURLs    []string          `yaml:"feed_urls"`
	Endpoints   map[string]string `yaml:"endpoints"`
	URL         string            `yaml:"url"`
}

// Default returns the settings used when no file exists.
func Default() *Config {
	return &Config{
		Defaults: Defaults{
			TimeoutMs:   10000,
			RateLimitMs: 1000,
			MaxRetries:  2,
			MaxArticles: 50,
		},
		Throttle: Throttle{MaxConcurrent: 8},
	}
}

// Load reads the config at path. A missing file (or empty path) yields the
// built-in defaults; a malformed file is an error, because scraping with a
// half-read catalog is worse than failing to start. File values merge over
// the defaults, so a file may set just the sections it cares about.
func Load(path string) (*Config, error) {
	// Local runs keep secrets in a .env file next to the process.
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Debug("no config file, using defaults", "path", path)
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Request returns the baseline scrape request carrying the configured cap.
func (c *Config) Request() scrape.Request {
	return scrape.Request{MaxArticles: c.Defaults.MaxArticles}
}

// SourceConfigs merges the file's source entries over the built-in catalog.
// An entry whose id matches a catalog source overrides just the fields it
// sets; any other entry defines a new source seeded from the defaults
// section. Catalog order is preserved, new sources append in file order.
func (c *Config) SourceConfigs(catalog []scrape.SourceConfig) []scrape.SourceConfig {
	out := make([]scrape.SourceConfig, len(catalog))
	copy(out, catalog)
	index := make(map[string]int, len(out))
	for i, src := range out {
		index[src.ID] = i
	}

	for _, entry := range c.Sources {
		if entry.ID == "" {
			logging.Warn("ignoring source entry without an id")
			continue
		}
		if i, known := index[entry.ID]; known {
			out[i] = entry.apply(out[i])
			continue
		}
		src := entry.apply(c.newSource(entry.ID))
		index[src.ID] = len(out)
		out = append(out, src)
	}
	return out
}

// newSource is the blank slate for a source defined only in the file.
func (c *Config) newSource(id string) scrape.SourceConfig {
	return scrape.SourceConfig{
		ID:         id,
		Priority:   5,
		RateLimit:  time.Duration(c.Defaults.RateLimitMs) * time.Millisecond,
		MaxRetries: c.Defaults.MaxRetries,
		Timeout:    time.Duration(c.Defaults.TimeoutMs) * time.Millisecond,
		Enabled:    true,
	}
}

// apply lays the entry's set fields over base.
func (e SourceEntry) apply(base scrape.SourceConfig) scrape.SourceConfig {
	if e.Name != "" {
		base.Name = e.Name
	}
	if e.Kind != "" {
		base.Kind = scrape.SourceKind(e.Kind)
	}
	if e.Priority != nil {
		base.Priority = *e.Priority
	}
	if len(e.Categories) > 0 {
		base.Categories = append([]string(nil), e.Categories...)
	}
	if e.RateLimitMs != nil {
		base.RateLimit = time.Duration(*e.RateLimitMs) * time.Millisecond
	}
	if e.MaxRetries != nil {
		base.MaxRetries = *e.MaxRetries
	}
	if e.TimeoutMs != nil {
		base.Timeout = time.Duration(*e.TimeoutMs) * time.Millisecond
	}
	if e.Enabled != nil {
		base.Enabled = *e.Enabled
	}
	if e.APIKey != "" {
		base.APIKey = os.ExpandEnv(e.APIKey)
	}
	if e.BaseURL != "" {
		base.BaseURL = e.BaseURL
	}
	if len(e.Headers) > 0 {
		base.Headers = make(map[string]string, len(e.Headers))
		for k, v := range e.Headers {
			base.Headers[k] = v
		}
	}
	if len(e.FeedURLs) > 0 {
		base.FeedURLs = append([]string(nil), e.FeedURLs...)
	}
	if len(e.Endpoints) > 0 {
		base.Endpoints = make(map[string]string, len(e.Endpoints))
		for k, v := range e.Endpoints {
			base.Endpoints[k] = v
		}
	}
	if e.URL != "" {
		base.URL = e.URL
	}
	return base
}

package scrape

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SourceKind identifies how a source is fetched
type SourceKind string

const (
	KindFeed SourceKind = "feed" // RSS/Atom feeds
	KindAPI  SourceKind = "api"  // JSON REST APIs
	KindWeb  SourceKind = "web"  // scraped HTML pages
)

// Known reports whether k is one of the closed set of source kinds.
func (k SourceKind) Known() bool {
	switch k {
	case KindFeed, KindAPI, KindWeb:
		return true
	}
	return false
}

// SourceConfig is the static description of one source. It is created once at
// registration and never mutated afterwards; strategies hold their own copy.
type SourceConfig struct {
	ID         string
	Name       string
	Kind       SourceKind
	Priority   int // higher = served first
	Categories []string
	RateLimit  time.Duration // minimum inter-request spacing
	MaxRetries int
	Timeout    time.Duration
	Enabled    bool

	// Kind-specific fields
	APIKey    string
	BaseURL   string            // api: endpoint base
	Headers   map[string]string // extra request headers
	FeedURLs  []string          // feed: ordered feed URLs
	Endpoints map[string]string // api: named endpoint paths
	URL       string            // web: the single configured page
}

// Validate checks the construction invariant: non-empty identity, a known
// kind, and non-negative numeric fields.
func (c SourceConfig) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("source config: empty id")
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("source config %s: empty name", c.ID)
	}
	if !c.Kind.Known() {
		return fmt.Errorf("source config %s: unknown kind %q", c.ID, c.Kind)
	}
	if c.Priority < 0 {
		return fmt.Errorf("source config %s: negative priority", c.ID)
	}
	if c.RateLimit < 0 || c.Timeout < 0 {
		return fmt.Errorf("source config %s: negative duration", c.ID)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("source config %s: negative max retries", c.ID)
	}
	return nil
}

// Clone returns a deep copy so callers can hand configs around without
// sharing the backing maps and slices.
func (c SourceConfig) Clone() SourceConfig {
	out := c
	if c.Categories != nil {
		out.Categories = append([]string(nil), c.Categories...)
	}
	if c.FeedURLs != nil {
		out.FeedURLs = append([]string(nil), c.FeedURLs...)
	}
	if c.Headers != nil {
		out.Headers = make(map[string]string, len(c.Headers))
		for k, v := range c.Headers {
			out.Headers[k] = v
		}
	}
	if c.Endpoints != nil {
		out.Endpoints = make(map[string]string, len(c.Endpoints))
		for k, v := range c.Endpoints {
			out.Endpoints[k] = v
		}
	}
	return out
}

// HasAnyCategory reports whether any of the source's categories appears in
// cats (case-insensitive).
func (c SourceConfig) HasAnyCategory(cats []string) bool {
	for _, want := range cats {
		for _, have := range c.Categories {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

// PrimaryCategory returns the first configured category, or "" if none.
func (c SourceConfig) PrimaryCategory() string {
	if len(c.Categories) == 0 {
		return ""
	}
	return c.Categories[0]
}

// Request carries per-call scrape options. The zero value means: all
// categories, no article cap, config timeouts, parallel fan-out.
type Request struct {
	Categories  []string      // keep only articles/sources matching these
	MaxArticles int           // 0 = unlimited
	Timeout     time.Duration // 0 = source config default
	Sequential  bool          // true disables the parallel fan-out
}

// SourceError pairs a failed source with its classified error.
type SourceError struct {
	SourceID string
	Err      error
	Time     time.Time
}

func (e SourceError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		SourceID string    `json:"sourceId"`
		Error    string    `json:"error"`
		Time     time.Time `json:"time"`
	}{e.SourceID, msg, e.Time})
}

// Result is the output of one manager-level scrape run. Source-level
// failures are recorded in Errors; they never abort the run.
type Result struct {
	RunID          string        `json:"runId"`
	Articles       []Article     `json:"articles"`
	SourcesUsed    []string      `json:"sourcesUsed"`
	TotalProcessed int           `json:"totalProcessed"`
	SuccessCount   int           `json:"successCount"`
	ErrorCount     int           `json:"errorCount"`
	Errors         []SourceError `json:"errors"`
	Duration       time.Duration `json:"duration"`
}

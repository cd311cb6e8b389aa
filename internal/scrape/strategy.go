// Package scrape defines the contract every content source implements and
// the normalized article model that flows out of them. Concrete strategies
// (feed, api, web) live in subpackages and share behavior by embedding Core,
// not by inheritance.
package scrape

import "context"

// Strategy is the polymorphic fetch+normalize behavior for one source.
type Strategy interface {
	// Config returns a copy of the source configuration; callers may
	// mutate it freely.
	Config() SourceConfig

	// Stats returns a snapshot of the source's running counters.
	Stats() SourceStats

	// Scrape fetches the source and returns processed articles. It fails
	// with *SourceDisabledError when the source is disabled and otherwise
	// returns errors from the taxonomy in errors.go.
	Scrape(ctx context.Context, req Request) ([]Article, error)

	// CanHandle reports whether this strategy's source covers the URL.
	// Used by the factory for URL-based resolution.
	CanHandle(url string) bool

	// HealthCheck probes the source and reports a status. It never
	// panics and never returns an error; failures become StatusDown.
	HealthCheck(ctx context.Context) HealthStatus
}

// Throttle schedules fetch work so per-source rate limits and the global
// concurrency cap are respected. The source config supplies the throttle
// key (ID), the priority, and the spacing. Implemented by internal/throttle.
type Throttle interface {
	Do(ctx context.Context, src SourceConfig, fn func(context.Context) error) error
}

// Processor turns raw per-source items into canonical articles: validation,
// IDs, tags, scoring, ordering. Implemented by internal/process.
type Processor interface {
	Process(raw []Article, req Request, src SourceRef) []Article
}

// Package web implements the scraped-page source strategy. A web source
// points at one configured page; each scrape fetches its HTML and runs an
// extraction hook over it. Hooks are pure functions so concrete sources can
// be described as data (a selector set) rather than new types.
package web

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmaher/scrapewire/internal/fetch"
	"github.com/dmaher/scrapewire/internal/scrape"
)

// Extract parses a page's HTML into raw articles. See Selectors and
// Readability for the two built-in implementations.
type Extract func(html []byte, pageURL string, src scrape.SourceRef) ([]scrape.Article, error)

// Strategy scrapes one configured web page.
type Strategy struct {
	*scrape.Core
	cfg     scrape.SourceConfig
	client  *fetch.Client
	extract Extract
}

// New builds a web strategy from a config of kind "web". The extract hook is
// required.
func New(cfg scrape.SourceConfig, client *fetch.Client, th scrape.Throttle, proc scrape.Processor, extract Extract) (*Strategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Kind != scrape.KindWeb {
		return nil, fmt.Errorf("web: config %s has kind %q", cfg.ID, cfg.Kind)
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("web: config %s has no page url", cfg.ID)
	}
	if client == nil {
		return nil, fmt.Errorf("web: config %s needs an http client", cfg.ID)
	}
	if extract == nil {
		return nil, fmt.Errorf("web: config %s needs an extract hook", cfg.ID)
	}
	return &Strategy{
		Core:    scrape.NewCore(cfg, th, proc),
		cfg:     cfg.Clone(),
		client:  client,
		extract: extract,
	}, nil
}

// Scrape fetches the page and returns the processed articles.
func (s *Strategy) Scrape(ctx context.Context, req scrape.Request) ([]scrape.Article, error) {
	return s.Run(ctx, req, s.fetchPage)
}

func (s *Strategy) fetchPage(ctx context.Context) ([]scrape.Article, error) {
	var resp *fetch.Response
	err := s.Submit(ctx, func(ctx context.Context) error {
		var gerr error
		resp, gerr = s.client.Get(ctx, s.cfg.URL, fetch.Options{
			Headers:    s.cfg.Headers,
			MaxRetries: s.cfg.MaxRetries,
		})
		return gerr
	})
	if err != nil {
		return nil, err
	}

	articles, err := s.extract(resp.Body, s.cfg.URL, s.Ref())
	if err != nil {
		var te *scrape.TransformError
		if errors.As(err, &te) {
			return nil, err
		}
		return nil, &scrape.TransformError{SourceID: s.cfg.ID, Hint: "content extraction failed", Cause: err}
	}
	return articles, nil
}

// CanHandle reports whether url is exactly the configured page.
func (s *Strategy) CanHandle(url string) bool {
	return url == s.cfg.URL
}

// HealthCheck probes the page with a lightweight existence check.
func (s *Strategy) HealthCheck(ctx context.Context) scrape.HealthStatus {
	return s.CheckHealth(ctx, func(ctx context.Context) error {
		_, err := s.client.Head(ctx, s.cfg.URL, fetch.Options{Headers: s.cfg.Headers})
		return err
	})
}

// Package api implements the REST API source strategy. An API source holds a
// base URL and a map of named endpoint paths; each scrape issues one
// parameterized request and runs the provider-specific transform over the
// JSON response.
//
// Endpoint names are conventional: "scrape" is the path queried on each
// scrape (empty means the base URL itself) and "health" is the path probed
// by health checks (falls back to the scrape path).
package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmaher/scrapewire/internal/fetch"
	"github.com/dmaher/scrapewire/internal/scrape"
)

// Transform turns a provider response body into raw articles. Implementations
// should return an error on unexpected shapes; the strategy classifies it as
// a TransformError.
type Transform func(body []byte, src scrape.SourceRef) ([]scrape.Article, error)

// Strategy scrapes one JSON API source.
type Strategy struct {
	*scrape.Core
	cfg       scrape.SourceConfig
	client    *fetch.Client
	transform Transform
}

// New builds an API strategy from a config of kind "api". The transform hook
// is required.
func New(cfg scrape.SourceConfig, client *fetch.Client, th scrape.Throttle, proc scrape.Processor, transform Transform) (*Strategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Kind != scrape.KindAPI {
		return nil, fmt.Errorf("api: config %s has kind %q", cfg.ID, cfg.Kind)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api: config %s has no base url", cfg.ID)
	}
	if client == nil {
		return nil, fmt.Errorf("api: config %s needs an http client", cfg.ID)
	}
	if transform == nil {
		return nil, fmt.Errorf("api: config %s needs a transform hook", cfg.ID)
	}
	return &Strategy{
		Core:      scrape.NewCore(cfg, th, proc),
		cfg:       cfg.Clone(),
		client:    client,
		transform: transform,
	}, nil
}

// Scrape queries the scrape endpoint and returns the processed articles.
func (s *Strategy) Scrape(ctx context.Context, req scrape.Request) ([]scrape.Article, error) {
	return s.Run(ctx, req, func(ctx context.Context) ([]scrape.Article, error) {
		return s.fetch(ctx, req)
	})
}

func (s *Strategy) fetch(ctx context.Context, req scrape.Request) ([]scrape.Article, error) {
	endpoint, err := s.endpointURL(s.cfg.Endpoints["scrape"], req)
	if err != nil {
		return nil, err
	}

	var resp *fetch.Response
	err = s.Submit(ctx, func(ctx context.Context) error {
		var gerr error
		resp, gerr = s.client.Get(ctx, endpoint, fetch.Options{
			Headers:    s.headers(),
			MaxRetries: s.cfg.MaxRetries,
		})
		return gerr
	})
	if err != nil {
		return nil, err
	}

	articles, err := s.transform(resp.Body, s.Ref())
	if err != nil {
		var te *scrape.TransformError
		if errors.As(err, &te) {
			return nil, err
		}
		return nil, &scrape.TransformError{SourceID: s.cfg.ID, Cause: err}
	}
	return articles, nil
}

// endpointURL joins the base URL with an endpoint path and attaches the
// request parameters the provider understands.
func (s *Strategy) endpointURL(path string, req scrape.Request) (string, error) {
	u, err := url.Parse(strings.TrimRight(s.cfg.BaseURL, "/") + path)
	if err != nil {
		return "", fmt.Errorf("api: bad endpoint for %s: %w", s.cfg.ID, err)
	}

	q := u.Query()
	if req.MaxArticles > 0 {
		q.Set("limit", strconv.Itoa(req.MaxArticles))
	}
	if len(req.Categories) > 0 {
		q.Set("category", strings.Join(req.Categories, ","))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// headers merges the configured extra headers with bearer-token auth.
// Configured headers win so providers with nonstandard auth schemes can
// override Authorization outright.
func (s *Strategy) headers() map[string]string {
	h := map[string]string{"Accept": "application/json"}
	if s.cfg.APIKey != "" {
		h["Authorization"] = "Bearer " + s.cfg.APIKey
	}
	for k, v := range s.cfg.Headers {
		h[k] = v
	}
	return h
}

// CanHandle reports whether url lives under this source's base URL.
func (s *Strategy) CanHandle(u string) bool {
	return strings.HasPrefix(u, s.cfg.BaseURL)
}

// HealthCheck probes the health endpoint, or the scrape endpoint when none
// is configured.
func (s *Strategy) HealthCheck(ctx context.Context) scrape.HealthStatus {
	return s.CheckHealth(ctx, s.probe)
}

func (s *Strategy) probe(ctx context.Context) error {
	path, ok := s.cfg.Endpoints["health"]
	if !ok {
		path = s.cfg.Endpoints["scrape"]
	}
	u, err := s.endpointURL(path, scrape.Request{MaxArticles: 1})
	if err != nil {
		return err
	}
	_, err = s.client.Head(ctx, u, fetch.Options{Headers: s.headers()})
	return err
}

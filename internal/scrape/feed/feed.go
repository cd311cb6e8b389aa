// Package feed implements the RSS/Atom source strategy. A feed source holds
// an ordered list of feed URLs; each scrape fetches and parses every feed,
// skipping the ones that fail as long as at least one contributes.
package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/dmaher/scrapewire/internal/fetch"
	"github.com/dmaher/scrapewire/internal/logging"
	"github.com/dmaher/scrapewire/internal/scrape"
)

// summaryLen caps the description synthesized from full feed content.
const summaryLen = 500

// Strategy scrapes one multi-feed RSS/Atom source.
type Strategy struct {
	*scrape.Core
	cfg    scrape.SourceConfig
	client *fetch.Client
	parser *gofeed.Parser
}

// New builds a feed strategy from a config of kind "feed".
func New(cfg scrape.SourceConfig, client *fetch.Client, th scrape.Throttle, proc scrape.Processor) (*Strategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Kind != scrape.KindFeed {
		return nil, fmt.Errorf("feed: config %s has kind %q", cfg.ID, cfg.Kind)
	}
	if len(cfg.FeedURLs) == 0 {
		return nil, fmt.Errorf("feed: config %s has no feed urls", cfg.ID)
	}
	if client == nil {
		return nil, fmt.Errorf("feed: config %s needs an http client", cfg.ID)
	}
	return &Strategy{
		Core:   scrape.NewCore(cfg, th, proc),
		cfg:    cfg.Clone(),
		client: client,
		parser: gofeed.NewParser(),
	}, nil
}

// Scrape fetches every configured feed and returns the processed articles.
func (s *Strategy) Scrape(ctx context.Context, req scrape.Request) ([]scrape.Article, error) {
	return s.Run(ctx, req, s.fetchAll)
}

// fetchAll walks the feed list in order, one throttle submission per feed,
// so the source's rate limit spaces consecutive feeds apart. Individual feed
// failures are logged and skipped; the fetch only fails when every feed does.
func (s *Strategy) fetchAll(ctx context.Context) ([]scrape.Article, error) {
	var (
		articles []scrape.Article
		errs     []error
		fetched  int
	)
	for _, url := range s.cfg.FeedURLs {
		var items []scrape.Article
		err := s.Submit(ctx, func(ctx context.Context) error {
			var ferr error
			items, ferr = s.fetchFeed(ctx, url)
			return ferr
		})
		if err != nil {
			logging.Warn("feed fetch failed", "source", s.cfg.ID, "feed", url, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
			continue
		}
		fetched++
		articles = append(articles, items...)
	}

	if fetched == 0 {
		return nil, fmt.Errorf("all %d feeds failed: %w", len(s.cfg.FeedURLs), errors.Join(errs...))
	}
	return articles, nil
}

func (s *Strategy) fetchFeed(ctx context.Context, url string) ([]scrape.Article, error) {
	resp, err := s.client.Get(ctx, url, fetch.Options{
		Headers:    s.cfg.Headers,
		MaxRetries: s.cfg.MaxRetries,
	})
	if err != nil {
		return nil, err
	}

	parsed, err := s.parser.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, &scrape.TransformError{SourceID: s.cfg.ID, Hint: "feed parse failed", Cause: err}
	}

	now := time.Now()
	ref := s.Ref()
	articles := make([]scrape.Article, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		articles = append(articles, convertEntry(entry, ref, now))
	}
	return articles, nil
}

// convertEntry maps one gofeed item onto the article model. Missing publish
// times fall back to the fetch time so undated feeds stay usable.
func convertEntry(entry *gofeed.Item, ref scrape.SourceRef, now time.Time) scrape.Article {
	published := now
	if entry.PublishedParsed != nil {
		published = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		published = *entry.UpdatedParsed
	}

	description := entry.Description
	if description == "" && entry.Content != "" {
		description = truncate(entry.Content, summaryLen)
	}

	author := ""
	if entry.Author != nil {
		author = entry.Author.Name
	}

	return scrape.Article{
		Title:       strings.TrimSpace(entry.Title),
		Description: strings.TrimSpace(description),
		URL:         entry.Link,
		ImageURL:    entryImage(entry),
		PublishedAt: published,
		Source:      ref,
		Author:      author,
		Category:    ref.Category,
	}
}

func entryImage(entry *gofeed.Item) string {
	if entry.Image != nil && entry.Image.URL != "" {
		return entry.Image.URL
	}
	for _, enc := range entry.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// CanHandle reports whether url is one of this source's configured feeds.
func (s *Strategy) CanHandle(url string) bool {
	for _, u := range s.cfg.FeedURLs {
		if u == url {
			return true
		}
	}
	return false
}

// HealthCheck probes the feed list and reports healthy if any feed answers
// with an XML content type.
func (s *Strategy) HealthCheck(ctx context.Context) scrape.HealthStatus {
	return s.CheckHealth(ctx, s.probe)
}

func (s *Strategy) probe(ctx context.Context) error {
	var errs []error
	for _, url := range s.cfg.FeedURLs {
		resp, err := s.client.Head(ctx, url, fetch.Options{Headers: s.cfg.Headers})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
			continue
		}
		if isFeedContentType(resp.Header.Get("Content-Type")) {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: content type %q is not a feed", url, resp.Header.Get("Content-Type")))
	}
	return fmt.Errorf("no feed answered the probe: %w", errors.Join(errs...))
}

func isFeedContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "xml") || strings.Contains(ct, "rss") || strings.Contains(ct, "atom")
}

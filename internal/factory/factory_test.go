package factory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmaher/scrapewire/internal/fetch"
	"github.com/dmaher/scrapewire/internal/scrape"
)

func testDeps() Deps {
	return Deps{Client: fetch.New(fetch.Config{RetryBackoff: time.Millisecond})}
}

func TestCreateUnknownKind(t *testing.T) {
	f := New(testDeps())

	_, err := f.Create("carrier-pigeon", scrape.SourceConfig{ID: "x", Name: "X"})
	var ue *scrape.UnknownSourceKindError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnknownSourceKindError, got %v", err)
	}
	if ue.Kind != "carrier-pigeon" {
		t.Errorf("wrong kind in error: %q", ue.Kind)
	}
}

func TestCreateEachKind(t *testing.T) {
	f := New(testDeps())

	for _, cfg := range DefaultConfigs() {
		s, err := f.Create(cfg.Kind, cfg)
		if err != nil {
			t.Errorf("create %s: %v", cfg.ID, err)
			continue
		}
		if got := s.Config(); got.ID != cfg.ID || got.Kind != cfg.Kind {
			t.Errorf("create %s: wrong config %s/%s", cfg.ID, got.ID, got.Kind)
		}
	}
}

func TestCreateBackfillsKind(t *testing.T) {
	f := New(testDeps())

	cfg := scrape.SourceConfig{
		ID:       "wire-1",
		Name:     "Test Wire",
		Enabled:  true,
		FeedURLs: []string{"https://example.com/feed.xml"},
	}
	s, err := f.Create(scrape.KindFeed, cfg)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.Config().Kind != scrape.KindFeed {
		t.Errorf("kind not backfilled: %q", s.Config().Kind)
	}
}

type nullStrategy struct {
	cfg scrape.SourceConfig
}

func (n *nullStrategy) Config() scrape.SourceConfig { return n.cfg }
func (n *nullStrategy) Stats() scrape.SourceStats   { return scrape.SourceStats{} }
func (n *nullStrategy) Scrape(ctx context.Context, req scrape.Request) ([]scrape.Article, error) {
	return nil, nil
}
func (n *nullStrategy) CanHandle(url string) bool { return false }
func (n *nullStrategy) HealthCheck(ctx context.Context) scrape.HealthStatus {
	return scrape.HealthStatus{}
}

func TestRegisterKindReplacesConstructor(t *testing.T) {
	f := New(testDeps())

	want := &nullStrategy{}
	f.RegisterKind(scrape.KindWeb, func(cfg scrape.SourceConfig, deps Deps) (scrape.Strategy, error) {
		want.cfg = cfg
		return want, nil
	})

	got, err := f.Create(scrape.KindWeb, scrape.SourceConfig{ID: "custom", Name: "Custom"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got != scrape.Strategy(want) {
		t.Error("replacement constructor not used")
	}
	if want.cfg.ID != "custom" {
		t.Errorf("constructor saw wrong config: %+v", want.cfg)
	}
}

func TestCreateDefaults(t *testing.T) {
	f := New(testDeps())

	strategies := f.CreateDefaults()
	if len(strategies) != len(DefaultConfigs()) {
		t.Errorf("expected %d strategies, got %d", len(DefaultConfigs()), len(strategies))
	}
}

func TestCreateDefaultsSkipsFailures(t *testing.T) {
	f := New(Deps{}) // nil client fails every constructor

	strategies := f.CreateDefaults()
	if len(strategies) != 0 {
		t.Errorf("expected all defaults skipped without a client, got %d", len(strategies))
	}
}

func TestStrategyForURL(t *testing.T) {
	f := New(testDeps())

	s := f.StrategyForURL("https://techcrunch.com/category/artificial-intelligence/feed/")
	if s == nil {
		t.Fatal("expected a strategy for a catalog feed url")
	}
	if s.Config().ID != "techcrunch-ai" {
		t.Errorf("wrong strategy: %s", s.Config().ID)
	}

	if s := f.StrategyForURL("https://hn.algolia.com/api/v1/search?query=AI"); s == nil || s.Config().ID != "hackernews" {
		t.Error("base-url prefix should resolve the api source")
	}

	if s := f.StrategyForURL("https://nobody-knows.example.com/feed"); s != nil {
		t.Errorf("unknown url resolved to %s", s.Config().ID)
	}
}

func TestDefaultConfigsAreValid(t *testing.T) {
	seen := map[string]bool{}
	for _, cfg := range DefaultConfigs() {
		if err := cfg.Validate(); err != nil {
			t.Errorf("default %s invalid: %v", cfg.ID, err)
		}
		if seen[cfg.ID] {
			t.Errorf("duplicate default id %s", cfg.ID)
		}
		seen[cfg.ID] = true
		if !cfg.Enabled {
			t.Errorf("default %s should start enabled", cfg.ID)
		}
	}
}

func TestDefaultConfigsAreCopies(t *testing.T) {
	first := DefaultConfigs()
	first[0].FeedURLs[0] = "mutated"
	first[0].ID = "mutated"

	again := DefaultConfigs()
	if again[0].ID == "mutated" || again[0].FeedURLs[0] == "mutated" {
		t.Error("DefaultConfigs should hand out fresh copies")
	}
}

func TestHackerNewsTransform(t *testing.T) {
	body := []byte(`{
		"hits": [
			{
				"objectID": "41001",
				"title": "A new open weights model tops the leaderboard",
				"url": "https://example.com/model",
				"author": "pg",
				"points": 256,
				"num_comments": 142,
				"created_at": "2025-06-09T10:00:00Z"
			},
			{
				"objectID": "41002",
				"title": "Ask HN: How do you evaluate RAG pipelines?",
				"url": "",
				"author": "dang",
				"points": 88,
				"num_comments": 54,
				"created_at": "2025-06-09T08:00:00Z"
			}
		]
	}`)

	ref := scrape.SourceRef{Name: "Hacker News", Category: "community"}
	articles, err := hackerNewsTransform(body, ref)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}

	if articles[0].URL != "https://example.com/model" {
		t.Errorf("wrong url: %q", articles[0].URL)
	}
	if articles[0].Description == "" {
		t.Error("expected a synthesized description for stories without text")
	}
	if articles[1].URL != "https://news.ycombinator.com/item?id=41002" {
		t.Errorf("Ask HN should link to the item page: %q", articles[1].URL)
	}
	if articles[0].Source != ref {
		t.Errorf("wrong source ref: %+v", articles[0].Source)
	}

	if _, err := hackerNewsTransform([]byte(`{"results": []}`), ref); err == nil {
		t.Error("expected an error for a response without hits")
	}
}

func TestDevtoTransform(t *testing.T) {
	body := []byte(`[
		{
			"title": "Shipping an AI feature without losing sleep",
			"description": "Lessons from putting a language model behind a production endpoint.",
			"url": "https://dev.to/example/shipping-ai",
			"cover_image": "https://dev.to/cover.jpg",
			"published_at": "2025-06-09T09:30:00Z",
			"user": {"name": "Sam Rivera"}
		}
	]`)

	ref := scrape.SourceRef{Name: "DEV Community", Category: "community"}
	articles, err := devtoTransform(body, ref)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}

	a := articles[0]
	if a.Title != "Shipping an AI feature without losing sleep" {
		t.Errorf("wrong title: %q", a.Title)
	}
	if a.Author != "Sam Rivera" {
		t.Errorf("nested user name not read: %q", a.Author)
	}
	if a.ImageURL != "https://dev.to/cover.jpg" {
		t.Errorf("cover image not mapped: %q", a.ImageURL)
	}

	if _, err := devtoTransform([]byte(`{"not": "a list"}`), ref); err == nil {
		t.Error("expected an error for a non-list response")
	}
}

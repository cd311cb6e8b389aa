package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmaher/scrapewire/internal/fetch"
	"github.com/dmaher/scrapewire/internal/scrape"
)

const testIndexPage = `<!DOCTYPE html>
<html>
<body>
  <main>
    <article class="post">
      <h2 class="post-title"><a href="/news/model-release">A frontier model lands in preview</a></h2>
      <p class="post-excerpt">The lab opened access to its newest model for early testers.</p>
      <img class="post-image" src="/images/model.jpg">
      <time datetime="2025-06-09T10:00:00Z">June 9, 2025</time>
      <span class="post-author">Jane Doe</span>
    </article>
    <article class="post">
      <h2 class="post-title"><a href="https://example.org/external">A partnership reshapes the chip market</a></h2>
      <p class="post-excerpt">Two vendors agreed to co-design accelerators for training.</p>
      <time>June 8, 2025</time>
    </article>
    <article class="post">
      <h2 class="post-title"><a href="/news/untitled"></a></h2>
      <p class="post-excerpt">An item with no title text should be skipped.</p>
    </article>
  </main>
</body>
</html>`

const testArticlePage = `<!DOCTYPE html>
<html>
<head>
  <title>Why evaluation is the hard part of shipping models</title>
  <meta property="og:image" content="https://example.com/eval.jpg">
</head>
<body>
  <article>
    <h1>Why evaluation is the hard part of shipping models</h1>
    <p>Benchmarks tell you less than you think. Teams that ship models into
    production keep discovering that offline scores and user outcomes drift
    apart, and the gap widens as tasks get more open ended. This piece walks
    through the measurement traps we keep falling into and what a sturdier
    evaluation loop looks like in practice.</p>
    <p>The first trap is contamination. The second is selection effects in
    human review queues. The third, and least discussed, is that rubric
    drift quietly redefines the target while nobody is looking.</p>
  </article>
</body>
</html>`

func webConfig(pageURL string) scrape.SourceConfig {
	return scrape.SourceConfig{
		ID:         "dailysite",
		Name:       "Daily Site",
		Kind:       scrape.KindWeb,
		Priority:   3,
		Categories: []string{"industry"},
		Timeout:    5 * time.Second,
		Enabled:    true,
		URL:        pageURL,
	}
}

func testClient() *fetch.Client {
	return fetch.New(fetch.Config{RetryBackoff: time.Millisecond})
}

func testSelectors() SelectorSet {
	return SelectorSet{
		Item:        "article.post",
		Title:       ".post-title a",
		Link:        ".post-title a",
		Description: ".post-excerpt",
		Image:       ".post-image",
		Time:        "time",
		Author:      ".post-author",
	}
}

func TestScrapeExtractsWithSelectors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(testIndexPage))
	}))
	t.Cleanup(srv.Close)

	s, err := New(webConfig(srv.URL), testClient(), nil, nil, Selectors(testSelectors()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	articles, err := s.Scrape(context.Background(), scrape.Request{})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles (the untitled one skipped), got %d", len(articles))
	}

	first := articles[0]
	if first.Title != "A frontier model lands in preview" {
		t.Errorf("wrong title: %q", first.Title)
	}
	if first.URL != srv.URL+"/news/model-release" {
		t.Errorf("relative link not resolved: %q", first.URL)
	}
	if first.ImageURL != srv.URL+"/images/model.jpg" {
		t.Errorf("relative image not resolved: %q", first.ImageURL)
	}
	if first.Author != "Jane Doe" {
		t.Errorf("wrong author: %q", first.Author)
	}
	want := time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(want) {
		t.Errorf("datetime attribute not parsed: %v", first.PublishedAt)
	}

	second := articles[1]
	if second.URL != "https://example.org/external" {
		t.Errorf("absolute link rewritten: %q", second.URL)
	}
	if second.PublishedAt.IsZero() {
		t.Error("text date should parse or fall back, never zero")
	}
}

func TestScrapeReadabilityPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(testArticlePage))
	}))
	t.Cleanup(srv.Close)

	s, err := New(webConfig(srv.URL), testClient(), nil, nil, Readability())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	articles, err := s.Scrape(context.Background(), scrape.Request{})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected a single distilled article, got %d", len(articles))
	}

	a := articles[0]
	if a.Title != "Why evaluation is the hard part of shipping models" {
		t.Errorf("wrong title: %q", a.Title)
	}
	if a.URL != srv.URL {
		t.Errorf("article url should be the page url: %q", a.URL)
	}
	if len(a.Description) < 20 {
		t.Errorf("expected a synthesized description, got %q", a.Description)
	}
}

func TestScrapeExtractFailureIsTransformError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>fine</body></html>"))
	}))
	t.Cleanup(srv.Close)

	failing := func(html []byte, pageURL string, src scrape.SourceRef) ([]scrape.Article, error) {
		return nil, errors.New("selector matched nothing")
	}
	s, err := New(webConfig(srv.URL), testClient(), nil, nil, failing)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = s.Scrape(context.Background(), scrape.Request{})
	var te *scrape.TransformError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransformError, got %v", err)
	}
	if te.SourceID != "dailysite" {
		t.Errorf("transform error not attributed: %q", te.SourceID)
	}
}

func TestCanHandleExactURL(t *testing.T) {
	s, err := New(webConfig("https://example.com/ai"), testClient(), nil, nil, Readability())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if !s.CanHandle("https://example.com/ai") {
		t.Error("configured url should be handled")
	}
	if s.CanHandle("https://example.com/ai/deeper") {
		t.Error("other urls should not be handled")
	}
}

func TestHealthCheckProbesPage(t *testing.T) {
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
	}))
	t.Cleanup(srv.Close)

	s, err := New(webConfig(srv.URL), testClient(), nil, nil, Readability())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	hs := s.HealthCheck(context.Background())
	if !hs.Healthy {
		t.Errorf("expected healthy, got %+v", hs)
	}
	if method != http.MethodHead {
		t.Errorf("probe should use HEAD, used %s", method)
	}
}

func TestHealthCheckDownWhenGone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	s, err := New(webConfig(srv.URL), testClient(), nil, nil, Readability())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	hs := s.HealthCheck(context.Background())
	if hs.Healthy || hs.Status != scrape.StatusDown {
		t.Errorf("expected down, got %+v", hs)
	}
}

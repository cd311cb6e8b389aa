package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/dmaher/scrapewire/internal/fetch"
	"github.com/dmaher/scrapewire/internal/process"
	"github.com/dmaher/scrapewire/internal/scrape"
	"github.com/dmaher/scrapewire/internal/throttle"
)

// stack is the real pipeline under test: shared transport, throttle and
// processor, wired exactly as the binary wires them.
type stack struct {
	client *fetch.Client
	thr    *throttle.Throttle
	proc   *process.Processor
}

func newStack() *stack {
	return &stack{
		client: fetch.New(fetch.Config{Timeout: 5 * time.Second, RetryBackoff: time.Millisecond}),
		thr:    throttle.New(4),
		proc:   process.New(process.Config{}),
	}
}

// rssBody renders a two-item feed with publish dates relative to now, so
// recency scoring sees fresh articles.
func rssBody(now time.Time) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Fixture Wire</title>
  <item>
    <title>New language model sets benchmark records</title>
    <link>https://fixture.example.com/model-benchmark</link>
    <description>A research group published benchmark results for a large language model trained on public data.</description>
    <pubDate>%s</pubDate>
  </item>
  <item>
    <title>Robotics startup raises funding round</title>
    <link>https://fixture.example.com/robotics-funding</link>
    <description>The company plans to use the funding to scale manufacturing of its warehouse robots.</description>
    <pubDate>%s</pubDate>
  </item>
</channel>
</rss>`,
		now.Add(-2*time.Hour).Format(time.RFC1123Z),
		now.Add(-30*time.Hour).Format(time.RFC1123Z))
}

func rssServer(body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		if r.Method == http.MethodHead {
			return
		}
		fmt.Fprint(w, body)
	}))
}

// apiItem is the wire shape the fixture API serves.
type apiItem struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Summary   string    `json:"summary"`
	Published time.Time `json:"published"`
}

func apiTransform(body []byte, src scrape.SourceRef) ([]scrape.Article, error) {
	var items []apiItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, err
	}
	out := make([]scrape.Article, 0, len(items))
	for _, it := range items {
		out = append(out, scrape.Article{
			Title:       it.Title,
			Description: it.Summary,
			URL:         it.URL,
			PublishedAt: it.Published,
			Source:      src,
			Category:    src.Category,
		})
	}
	return out, nil
}

func apiServer(items []apiItem) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodHead {
			return
		}
		json.NewEncoder(w).Encode(items)
	}))
}

// webPage is a small article index the selector extractor can walk.
func webPage(now time.Time) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><body><main>
  <article class="post">
    <h2><a href="/posts/transformer-guide">Practical guide to transformer fine tuning</a></h2>
    <p>Step by step notes on fine tuning a pretrained transformer for a narrow classification task.</p>
    <time datetime="%s">today</time>
  </article>
</main></body></html>`, now.Add(-time.Hour).Format(time.RFC3339))
}

func webServer(page string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if r.Method == http.MethodHead {
			return
		}
		fmt.Fprint(w, page)
	}))
}

package factory

import (
	"time"

	"github.com/dmaher/scrapewire/internal/scrape"
	"github.com/dmaher/scrapewire/internal/scrape/web"
)

// DefaultConfigs returns the curated catalog of AI news sources, ordered by
// descending priority within each group. Callers get fresh copies.
func DefaultConfigs() []scrape.SourceConfig {
	configs := []scrape.SourceConfig{
		// Lab blogs (primary sources, highest priority)
		{
			ID:         "openai-blog",
			Name:       "OpenAI Blog",
			Kind:       scrape.KindFeed,
			Priority:   10,
			Categories: []string{"labs", "research"},
			RateLimit:  2 * time.Second,
			MaxRetries: 2,
			Timeout:    10 * time.Second,
			Enabled:    true,
			FeedURLs:   []string{"https://openai.com/blog/rss.xml"},
		},
		{
			ID:         "google-ai-blog",
			Name:       "Google AI Blog",
			Kind:       scrape.KindFeed,
			Priority:   9,
			Categories: []string{"labs", "research"},
			RateLimit:  2 * time.Second,
			MaxRetries: 2,
			Timeout:    10 * time.Second,
			Enabled:    true,
			FeedURLs:   []string{"https://blog.google/technology/ai/rss/"},
		},
		{
			ID:         "huggingface-blog",
			Name:       "Hugging Face Blog",
			Kind:       scrape.KindFeed,
			Priority:   7,
			Categories: []string{"community", "labs"},
			RateLimit:  2 * time.Second,
			MaxRetries: 2,
			Timeout:    10 * time.Second,
			Enabled:    true,
			FeedURLs:   []string{"https://huggingface.co/blog/feed.xml"},
		},

		// Tech press
		{
			ID:         "techcrunch-ai",
			Name:       "TechCrunch AI",
			Kind:       scrape.KindFeed,
			Priority:   9,
			Categories: []string{"industry"},
			RateLimit:  time.Second,
			MaxRetries: 2,
			Timeout:    10 * time.Second,
			Enabled:    true,
			FeedURLs:   []string{"https://techcrunch.com/category/artificial-intelligence/feed/"},
		},
		{
			ID:         "theverge-ai",
			Name:       "The Verge AI",
			Kind:       scrape.KindFeed,
			Priority:   8,
			Categories: []string{"industry"},
			RateLimit:  time.Second,
			MaxRetries: 2,
			Timeout:    10 * time.Second,
			Enabled:    true,
			FeedURLs:   []string{"https://www.theverge.com/rss/ai-artificial-intelligence/index.xml"},
		},
		{
			ID:         "venturebeat-ai",
			Name:       "VentureBeat AI",
			Kind:       scrape.KindFeed,
			Priority:   7,
			Categories: []string{"industry"},
			RateLimit:  time.Second,
			MaxRetries: 2,
			Timeout:    10 * time.Second,
			Enabled:    true,
			FeedURLs:   []string{"https://venturebeat.com/category/ai/feed/"},
		},

		// Research
		{
			ID:         "mittr",
			Name:       "MIT Technology Review",
			Kind:       scrape.KindFeed,
			Priority:   8,
			Categories: []string{"research", "industry"},
			RateLimit:  2 * time.Second,
			MaxRetries: 2,
			Timeout:    10 * time.Second,
			Enabled:    true,
			FeedURLs:   []string{"https://www.technologyreview.com/feed/"},
		},
		{
			ID:         "arxiv-ai",
			Name:       "arXiv AI Papers",
			Kind:       scrape.KindFeed,
			Priority:   6,
			Categories: []string{"research"},
			RateLimit:  3 * time.Second, // arXiv asks for gentle crawling
			MaxRetries: 1,
			Timeout:    15 * time.Second,
			Enabled:    true,
			FeedURLs: []string{
				"https://export.arxiv.org/rss/cs.AI",
				"https://export.arxiv.org/rss/cs.LG",
			},
		},

		// Community APIs
		{
			ID:         "hackernews",
			Name:       "Hacker News",
			Kind:       scrape.KindAPI,
			Priority:   8,
			Categories: []string{"community"},
			RateLimit:  time.Second,
			MaxRetries: 2,
			Timeout:    10 * time.Second,
			Enabled:    true,
			BaseURL:    "https://hn.algolia.com/api/v1",
			Endpoints: map[string]string{
				"scrape": "/search?query=AI&tags=story",
				"health": "/search?hitsPerPage=1",
			},
		},
		{
			ID:         "devto",
			Name:       "DEV Community",
			Kind:       scrape.KindAPI,
			Priority:   5,
			Categories: []string{"community", "tools"},
			RateLimit:  time.Second,
			MaxRetries: 2,
			Timeout:    10 * time.Second,
			Enabled:    true,
			BaseURL:    "https://dev.to/api",
			Endpoints: map[string]string{
				"scrape": "/articles?tag=ai&top=7",
				"health": "/articles?per_page=1",
			},
		},

		// Scraped pages
		{
			ID:         "mittr-ai-topic",
			Name:       "MIT Technology Review AI",
			Kind:       scrape.KindWeb,
			Priority:   6,
			Categories: []string{"research"},
			RateLimit:  3 * time.Second,
			MaxRetries: 1,
			Timeout:    15 * time.Second,
			Enabled:    true,
			URL:        "https://www.technologyreview.com/topic/artificial-intelligence/",
		},
	}

	out := make([]scrape.SourceConfig, len(configs))
	for i, cfg := range configs {
		out[i] = cfg.Clone()
	}
	return out
}

// defaultExtract returns the page extraction hook for catalog web sources.
func defaultExtract(id string) web.Extract {
	switch id {
	case "mittr-ai-topic":
		return web.Selectors(web.SelectorSet{
			Item:        "main article",
			Title:       "h2 a, h3 a",
			Link:        "h2 a, h3 a",
			Description: "p",
			Time:        "time",
		})
	}
	return nil
}

package web

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"

	"github.com/dmaher/scrapewire/internal/scrape"
)

// summaryLen caps descriptions synthesized from extracted page text.
const summaryLen = 500

// SelectorSet describes where article fields live on an index page. Item
// selects one article container; the rest are resolved relative to it.
// Title and Link are required; items missing either are skipped.
type SelectorSet struct {
	Item        string // container of one article
	Title       string // element whose text is the title
	Link        string // element whose href is the article url
	Description string // element whose text is the blurb
	Image       string // element whose src is the image
	Time        string // element carrying a datetime attribute or date text
	Author      string // element whose text is the author
}

// Selectors builds an extraction hook that walks an index page with CSS
// selectors. Relative links and images are resolved against the page URL;
// unparseable or missing dates fall back to the scrape time.
func Selectors(sel SelectorSet) Extract {
	return func(html []byte, pageURL string, src scrape.SourceRef) ([]scrape.Article, error) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
		if err != nil {
			return nil, fmt.Errorf("parse page: %w", err)
		}
		base, err := url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("bad page url %s: %w", pageURL, err)
		}

		now := time.Now()
		var articles []scrape.Article
		doc.Find(sel.Item).Each(func(_ int, item *goquery.Selection) {
			title := fieldText(item, sel.Title)
			link := fieldAttr(item, sel.Link, "href")
			if title == "" || link == "" {
				return
			}
			articles = append(articles, scrape.Article{
				Title:       title,
				Description: fieldText(item, sel.Description),
				URL:         resolveURL(base, link),
				ImageURL:    resolveURL(base, fieldAttr(item, sel.Image, "src")),
				PublishedAt: fieldTime(item, sel.Time, now),
				Source:      src,
				Author:      fieldText(item, sel.Author),
				Category:    src.Category,
			})
		})
		return articles, nil
	}
}

// Readability builds an extraction hook for single-article pages: the whole
// page is distilled into one article via go-readability.
func Readability() Extract {
	return func(html []byte, pageURL string, src scrape.SourceRef) ([]scrape.Article, error) {
		u, err := url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("bad page url %s: %w", pageURL, err)
		}
		page, err := readability.FromReader(bytes.NewReader(html), u)
		if err != nil {
			return nil, fmt.Errorf("readability: %w", err)
		}

		published := time.Now()
		if page.PublishedTime != nil {
			published = *page.PublishedTime
		}
		description := page.Excerpt
		if description == "" {
			description = truncate(strings.TrimSpace(page.TextContent), summaryLen)
		}

		return []scrape.Article{{
			Title:       page.Title,
			Description: description,
			URL:         pageURL,
			ImageURL:    page.Image,
			PublishedAt: published,
			Source:      src,
			Author:      page.Byline,
			Category:    src.Category,
		}}, nil
	}
}

func fieldText(item *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(item.Find(selector).First().Text())
}

func fieldAttr(item *goquery.Selection, selector, attr string) string {
	if selector == "" {
		return ""
	}
	v, _ := item.Find(selector).First().Attr(attr)
	return strings.TrimSpace(v)
}

func fieldTime(item *goquery.Selection, selector string, now time.Time) time.Time {
	if selector == "" {
		return now
	}
	node := item.Find(selector).First()
	raw, ok := node.Attr("datetime")
	if !ok {
		raw = node.Text()
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts
	}
	if ts, err := dateparse.ParseAny(raw); err == nil {
		return ts
	}
	return now
}

func resolveURL(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

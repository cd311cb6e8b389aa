package scrape

import (
	"time"
	"unicode/utf8"
)

// Minimum lengths an article must carry to be worth showing.
const (
	MinTitleLen       = 10
	MinDescriptionLen = 20
)

// SourceRef names the origin of an article.
type SourceRef struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Article is the normalized unit of content every strategy emits. Strategies
// create raw articles from provider data, the processor enhances them once,
// and from then on they are treated as immutable.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
	Source      SourceRef `json:"source"`
	Author      string    `json:"author,omitempty"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"` // ordered, at most 5
	Relevance   float64   `json:"relevanceScore"`
	Summary     string    `json:"summary,omitempty"`
}

// Valid reports whether the article satisfies the emission invariant:
// a real title and description, a link, a named source, and a publish time.
func (a Article) Valid() bool {
	if utf8.RuneCountInString(a.Title) <= MinTitleLen {
		return false
	}
	if utf8.RuneCountInString(a.Description) <= MinDescriptionLen {
		return false
	}
	if a.URL == "" || a.Source.Name == "" {
		return false
	}
	return !a.PublishedAt.IsZero()
}

// Age returns how old the article is relative to now.
func (a Article) Age(now time.Time) time.Duration {
	return now.Sub(a.PublishedAt)
}

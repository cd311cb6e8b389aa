// Package process turns raw per-source items into canonical articles:
// validation, deterministic IDs, placeholder images, tag extraction,
// relevance scoring, and the final filter/sort/truncate pass. Every
// strategy pipes its fetch results through here before they leave the
// strategy boundary.
package process

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dmaher/scrapewire/internal/scrape"
)

const (
	maxTags = 5

	baseRelevance    = 0.5
	keywordBoost     = 0.10
	modelNameBoost   = 0.20 // "gpt" or "llm" anywhere in the text
	companyBoost     = 0.15
	freshDayBoost    = 0.20
	freshWeekBoost   = 0.10
	relevanceWeight  = 0.7
	recencyWeight    = 0.3
	recencyWindowDay = 30.0 // days until recency decays to zero
)

// Config controls a Processor. The zero value gives the default blocklist
// and wall-clock time.
type Config struct {
	Blocklist        *Blocklist // nil = DefaultBlocklist unless disabled
	DisableBlocklist bool
	Now              func() time.Time
}

// Processor enhances and orders articles. Stateless between calls; safe for
// concurrent use by every strategy.
type Processor struct {
	blocklist *Blocklist
	now       func() time.Time
}

// New creates a Processor, filling config defaults.
func New(cfg Config) *Processor {
	p := &Processor{blocklist: cfg.Blocklist, now: cfg.Now}
	if p.now == nil {
		p.now = time.Now
	}
	if p.blocklist == nil && !cfg.DisableBlocklist {
		p.blocklist = DefaultBlocklist()
	}
	if cfg.DisableBlocklist {
		p.blocklist = nil
	}
	return p
}

// Process applies the enhancement pipeline to one source's raw articles:
// drop invalid and blocklisted items, backfill IDs and images, extract
// tags, score, then filter by requested categories, order by weighted
// relevance+recency, and cap the count. The input slice is not modified.
func (p *Processor) Process(raw []scrape.Article, req scrape.Request, src scrape.SourceRef) []scrape.Article {
	now := p.now()

	out := make([]scrape.Article, 0, len(raw))
	for _, a := range raw {
		if a.Source.Name == "" {
			a.Source = src
		}
		if a.Category == "" {
			a.Category = a.Source.Category
		}
		if !a.Valid() {
			continue
		}
		if p.blocklist != nil && p.blocklist.Blocked(a) {
			continue
		}

		if a.ID == "" {
			a.ID = articleID(a.Title, a.URL, now)
		}
		if a.ImageURL == "" {
			a.ImageURL = placeholderImage(a.Category)
		}

		text := strings.ToLower(a.Title + " " + a.Description)
		a.Tags = extractTags(text)
		if a.Relevance == 0 {
			a.Relevance = relevance(text, a.PublishedAt, now)
		}
		a.Relevance = clamp01(a.Relevance)

		out = append(out, a)
	}

	if len(req.Categories) > 0 {
		out = filterByCategory(out, req.Categories)
	}
	sortByWeightedScore(out, now)
	if req.MaxArticles > 0 && len(out) > req.MaxArticles {
		out = out[:req.MaxArticles]
	}
	return out
}

// articleID derives a stable hash from the article identity plus a
// timestamp suffix, so repeated scrapes of the same logical article never
// produce colliding IDs.
func articleID(title, url string, now time.Time) string {
	h := sha256.Sum256([]byte(title + url))
	return hex.EncodeToString(h[:6]) + "-" + strconv.FormatInt(now.UnixMilli(), 10)
}

// extractTags collects up to maxTags curated keywords found in the text,
// preserving scan order. The text must already be lowercased.
func extractTags(text string) []string {
	tags := make([]string, 0, maxTags)
	for _, kw := range tagKeywords {
		if strings.Contains(text, kw) {
			tags = append(tags, kw)
			if len(tags) == maxTags {
				break
			}
		}
	}
	return tags
}

// relevance scores lowercased text: a neutral base, boosts per matched
// keyword and company, a flat bonus for headline model names, and a
// freshness bonus. Clamped to [0, 1].
func relevance(text string, published, now time.Time) float64 {
	score := baseRelevance
	for _, kw := range highValueKeywords {
		if strings.Contains(text, kw) {
			score += keywordBoost
		}
	}
	if strings.Contains(text, "gpt") || strings.Contains(text, "llm") {
		score += modelNameBoost
	}
	for _, name := range companyNames {
		if strings.Contains(text, name) {
			score += companyBoost
		}
	}

	age := now.Sub(published)
	switch {
	case age < 24*time.Hour:
		score += freshDayBoost
	case age < 7*24*time.Hour:
		score += freshWeekBoost
	}
	return clamp01(score)
}

// recencyScore decays linearly from 1 (just published) to 0 at the window
// edge. Future-dated items count as fresh.
func recencyScore(published, now time.Time) float64 {
	daysOld := now.Sub(published).Hours() / 24
	if daysOld < 0 {
		daysOld = 0
	}
	s := 1 - daysOld/recencyWindowDay
	if s < 0 {
		s = 0
	}
	return s
}

func sortByWeightedScore(list []scrape.Article, now time.Time) {
	sort.SliceStable(list, func(i, j int) bool {
		return weightedScore(list[i], now) > weightedScore(list[j], now)
	})
}

func weightedScore(a scrape.Article, now time.Time) float64 {
	return relevanceWeight*a.Relevance + recencyWeight*recencyScore(a.PublishedAt, now)
}

func filterByCategory(list []scrape.Article, categories []string) []scrape.Article {
	out := list[:0:0]
	for _, a := range list {
		if matchesCategory(a, categories) {
			out = append(out, a)
		}
	}
	return out
}

func matchesCategory(a scrape.Article, categories []string) bool {
	for _, want := range categories {
		if strings.EqualFold(a.Category, want) {
			return true
		}
		for _, tag := range a.Tags {
			if strings.EqualFold(tag, want) {
				return true
			}
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

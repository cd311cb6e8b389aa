// Package manager owns the set of registered source strategies: fan-out
// scraping with partial-failure tolerance, cross-source deduplication and
// ranking, health monitoring, aggregate statistics, and lifecycle events.
package manager

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmaher/scrapewire/internal/logging"
	"github.com/dmaher/scrapewire/internal/scrape"
	"github.com/dmaher/scrapewire/internal/summary"
)

const (
	// successRateAlpha weights the per-source success-rate moving average.
	successRateAlpha = 0.1

	// defaultSummaryCount is how many top articles get AI summaries when a
	// summarizer is wired in.
	defaultSummaryCount = 3
)

// Options configures a Manager. The zero value is usable: unbounded fan-out
// and no summarizer.
type Options struct {
	// MaxConcurrent caps concurrent source scrapes. Zero means one task
	// per source; the throttle still governs actual request concurrency.
	MaxConcurrent int

	// Summarizer optionally fills Summary on the top-ranked articles.
	Summarizer summary.Summarizer

	// SummaryCount is how many leading articles to summarize (default 3).
	SummaryCount int
}

// Manager coordinates all registered sources. Safe for concurrent use.
type Manager struct {
	maxConcurrent int
	summarizer    summary.Summarizer
	summaryCount  int

	mu         sync.RWMutex
	strategies map[string]scrape.Strategy
	order      []string // registration order, for deterministic iteration

	statsMu sync.Mutex
	tallies map[string]*sourceTally

	listenerMu   sync.Mutex
	listeners    []subscriber
	nextListener int
}

// sourceTally is the manager's own per-source accounting, separate from the
// stats each strategy keeps about itself.
type sourceTally struct {
	articles int64
	rate     float64
	seeded   bool
}

// New builds an empty manager.
func New(opts Options) *Manager {
	count := opts.SummaryCount
	if count <= 0 {
		count = defaultSummaryCount
	}
	return &Manager{
		maxConcurrent: opts.MaxConcurrent,
		summarizer:    opts.Summarizer,
		summaryCount:  count,
		strategies:    make(map[string]scrape.Strategy),
		tallies:       make(map[string]*sourceTally),
	}
}

// Register adds a strategy to the registry. It fails synchronously on nil
// strategies, invalid configs, and duplicate ids. Registration emits an
// optimistic health_check event; the first real probe may disagree.
func (m *Manager) Register(s scrape.Strategy) error {
	if s == nil {
		return fmt.Errorf("manager: nil strategy")
	}
	cfg := s.Config()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("manager: %w", err)
	}

	m.mu.Lock()
	if _, exists := m.strategies[cfg.ID]; exists {
		m.mu.Unlock()
		return fmt.Errorf("manager: source %s already registered", cfg.ID)
	}
	m.strategies[cfg.ID] = s
	m.order = append(m.order, cfg.ID)
	m.mu.Unlock()

	logging.Info("source registered", "source", cfg.ID, "kind", cfg.Kind, "priority", cfg.Priority)
	m.emit(Event{Kind: EventHealthCheck, SourceID: cfg.ID, Status: scrape.StatusActive})
	return nil
}

// Unregister removes a source and its manager-side stats.
func (m *Manager) Unregister(id string) error {
	m.mu.Lock()
	if _, exists := m.strategies[id]; !exists {
		m.mu.Unlock()
		return fmt.Errorf("manager: source %s not registered", id)
	}
	delete(m.strategies, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	m.statsMu.Lock()
	delete(m.tallies, id)
	m.statsMu.Unlock()

	logging.Info("source unregistered", "source", id)
	return nil
}

// Sources returns the registered configs in registration order.
func (m *Manager) Sources() []scrape.SourceConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]scrape.SourceConfig, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.strategies[id].Config())
	}
	return out
}

// candidate pairs a strategy with the config snapshot used to select it.
type candidate struct {
	strategy scrape.Strategy
	cfg      scrape.SourceConfig
}

// selectCandidates picks the enabled sources matching the request's category
// filter, sorted by descending priority. Ties keep registration order.
func (m *Manager) selectCandidates(req scrape.Request) []candidate {
	m.mu.RLock()
	defer m.mu.RUnlock()

	selected := make([]candidate, 0, len(m.order))
	for _, id := range m.order {
		s := m.strategies[id]
		cfg := s.Config()
		if !cfg.Enabled {
			continue
		}
		if len(req.Categories) > 0 && !cfg.HasAnyCategory(req.Categories) {
			continue
		}
		selected = append(selected, candidate{strategy: s, cfg: cfg})
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].cfg.Priority > selected[j].cfg.Priority
	})
	return selected
}

// outcome is one source's settled scrape attempt.
type outcome struct {
	id       string
	name     string
	articles []scrape.Article
	err      error
	finished time.Time
}

// ScrapeAll runs one scrape across every eligible source and aggregates the
// articles: dedup by title+url (first occurrence wins, which is the
// higher-priority source), sort by relevance, truncate to the request cap.
// Source-level failures are data in the result, never an abort; a
// fully-failed run returns an empty article list and a populated error list.
func (m *Manager) ScrapeAll(ctx context.Context, req scrape.Request) *scrape.Result {
	start := time.Now()
	result := &scrape.Result{RunID: uuid.NewString()}

	selected := m.selectCandidates(req)
	logging.Info("scrape started",
		"run", result.RunID,
		"sources", len(selected),
		"categories", req.Categories,
		"sequential", req.Sequential)
	m.emit(Event{Kind: EventScrapingStarted, RunID: result.RunID, Sources: len(selected)})

	outcomes := make([]outcome, len(selected))
	if req.Sequential {
		for i, c := range selected {
			outcomes[i] = m.scrapeOne(ctx, c, req)
		}
	} else {
		var g errgroup.Group
		if m.maxConcurrent > 0 {
			g.SetLimit(m.maxConcurrent)
		}
		for i, c := range selected {
			g.Go(func() error {
				outcomes[i] = m.scrapeOne(ctx, c, req)
				return nil // never fail the group - failures are per-source data
			})
		}
		_ = g.Wait()
	}

	var all []scrape.Article
	for _, o := range outcomes {
		if o.err != nil {
			classified := scrape.Classify(o.id, o.err)
			result.ErrorCount++
			result.Errors = append(result.Errors, scrape.SourceError{
				SourceID: o.id,
				Err:      classified,
				Time:     o.finished,
			})
			m.recordScrape(o.id, false, 0)
			logging.Warn("source failed", "run", result.RunID, "source", o.id, "error", classified)
			m.emit(Event{Kind: EventScrapingError, RunID: result.RunID, SourceID: o.id, Err: classified})
			continue
		}
		result.SuccessCount++
		result.SourcesUsed = append(result.SourcesUsed, o.name)
		result.TotalProcessed += len(o.articles)
		all = append(all, o.articles...)
		m.recordScrape(o.id, true, len(o.articles))
	}

	all = dedupeByTitleURL(all)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Relevance > all[j].Relevance
	})
	if req.MaxArticles > 0 && len(all) > req.MaxArticles {
		all = all[:req.MaxArticles]
	}
	result.Articles = all

	// Keep the JSON surface array-shaped even on empty runs.
	if result.Articles == nil {
		result.Articles = []scrape.Article{}
	}
	if result.SourcesUsed == nil {
		result.SourcesUsed = []string{}
	}
	if result.Errors == nil {
		result.Errors = []scrape.SourceError{}
	}

	m.fillSummaries(ctx, result.Articles)

	result.Duration = time.Since(start)
	logging.Info("scrape completed",
		"run", result.RunID,
		"articles", len(result.Articles),
		"success", result.SuccessCount,
		"errors", result.ErrorCount,
		"duration", result.Duration)
	m.emit(Event{
		Kind:     EventScrapingCompleted,
		RunID:    result.RunID,
		Articles: len(result.Articles),
		Duration: result.Duration,
	})
	return result
}

// scrapeOne settles a single source attempt. A panicking strategy becomes a
// failed outcome, not a crashed run.
func (m *Manager) scrapeOne(ctx context.Context, c candidate, req scrape.Request) (o outcome) {
	o.id = c.cfg.ID
	o.name = c.cfg.Name
	defer func() {
		o.finished = time.Now()
		if r := recover(); r != nil {
			o.articles = nil
			o.err = fmt.Errorf("strategy panicked: %v", r)
		}
	}()
	o.articles, o.err = c.strategy.Scrape(ctx, req)
	return o
}

// dedupeByTitleURL collapses exact title+url duplicates, keeping the first
// occurrence. Callers walk outcomes in priority order, so the surviving copy
// comes from the higher-priority source.
func dedupeByTitleURL(list []scrape.Article) []scrape.Article {
	seen := make(map[string]struct{}, len(list))
	out := make([]scrape.Article, 0, len(list))
	for _, a := range list {
		key := a.Title + "\x00" + a.URL
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}

// fillSummaries asks the configured summarizer for the top articles'
// summaries. Failures are logged and abandoned; summaries are a garnish.
func (m *Manager) fillSummaries(ctx context.Context, articles []scrape.Article) {
	if m.summarizer == nil || len(articles) == 0 || !m.summarizer.Available() {
		return
	}
	count := m.summaryCount
	if count > len(articles) {
		count = len(articles)
	}
	for i := 0; i < count; i++ {
		a := &articles[i]
		if a.Summary != "" {
			continue
		}
		sum, err := m.summarizer.Summarize(ctx, a.Title+"\n\n"+a.Description, summary.Options{MaxWords: 60})
		if err != nil {
			logging.Warn("summarization failed", "provider", m.summarizer.Name(), "article", a.ID, "error", err)
			return
		}
		a.Summary = sum.Text
	}
}

// HealthReport pairs a source with its probe result.
type HealthReport struct {
	SourceID string `json:"sourceId"`
	Name     string `json:"name"`
	scrape.HealthStatus
}

// HealthCheckAll probes every registered source concurrently, disabled ones
// included (they report down without network traffic). It never fails: a
// probe that panics is synthesized into a down status.
func (m *Manager) HealthCheckAll(ctx context.Context) []HealthReport {
	m.mu.RLock()
	probes := make([]candidate, 0, len(m.order))
	for _, id := range m.order {
		s := m.strategies[id]
		probes = append(probes, candidate{strategy: s, cfg: s.Config()})
	}
	m.mu.RUnlock()

	reports := make([]HealthReport, len(probes))
	var g errgroup.Group
	if m.maxConcurrent > 0 {
		g.SetLimit(m.maxConcurrent)
	}
	for i, p := range probes {
		g.Go(func() error {
			reports[i] = HealthReport{
				SourceID:     p.cfg.ID,
				Name:         p.cfg.Name,
				HealthStatus: m.probeOne(ctx, p.strategy),
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range reports {
		m.emit(Event{Kind: EventHealthCheck, SourceID: r.SourceID, Status: r.Status})
	}
	return reports
}

func (m *Manager) probeOne(ctx context.Context, s scrape.Strategy) (hs scrape.HealthStatus) {
	defer func() {
		if r := recover(); r != nil {
			hs = scrape.HealthStatus{
				Status:    scrape.StatusDown,
				CheckedAt: time.Now(),
				Err:       fmt.Sprintf("health check panicked: %v", r),
			}
		}
	}()
	return s.HealthCheck(ctx)
}

// recordScrape folds one attempt into the manager's per-source tally.
func (m *Manager) recordScrape(id string, ok bool, articles int) {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	t := m.tallies[id]
	if t == nil {
		t = &sourceTally{}
		m.tallies[id] = t
	}
	sample := 0.0
	if ok {
		sample = 1.0
	}
	if !t.seeded {
		t.rate = sample
		t.seeded = true
	} else {
		t.rate = t.rate*(1-successRateAlpha) + sample*successRateAlpha
	}
	t.articles += int64(articles)
}

// SourceSummary is the manager's per-source stats view.
type SourceSummary struct {
	Name            string        `json:"name"`
	ArticlesScraped int64         `json:"articlesScraped"`
	SuccessRate     float64       `json:"successRate"`
	AvgResponseTime time.Duration `json:"averageResponseTime"`
	LastActiveAt    time.Time     `json:"lastActiveAt"`
}

// ScrapingStats is the aggregate view over all registered sources.
type ScrapingStats struct {
	TotalSources  int                      `json:"totalSources"`
	ActiveSources int                      `json:"activeSources"`
	Sources       map[string]SourceSummary `json:"sources"`
}

// Stats merges each strategy's own counters with the manager's tallies.
func (m *Manager) Stats() ScrapingStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := ScrapingStats{Sources: make(map[string]SourceSummary, len(m.order))}

	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	for _, id := range m.order {
		s := m.strategies[id]
		cfg := s.Config()
		st := s.Stats()

		stats.TotalSources++
		if cfg.Enabled {
			stats.ActiveSources++
		}

		entry := SourceSummary{
			Name:            cfg.Name,
			AvgResponseTime: st.AvgResponseTime,
			LastActiveAt:    st.LastActiveAt,
		}
		if t := m.tallies[id]; t != nil {
			entry.ArticlesScraped = t.articles
			entry.SuccessRate = t.rate
		}
		stats.Sources[id] = entry
	}
	return stats
}

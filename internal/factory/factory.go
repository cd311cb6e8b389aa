// Package factory maps source kinds to strategy constructors and carries the
// catalog of well-known default sources. Adding a source kind is a table
// edit: register a constructor under a new kind tag.
package factory

import (
	"sync"

	"github.com/dmaher/scrapewire/internal/fetch"
	"github.com/dmaher/scrapewire/internal/logging"
	"github.com/dmaher/scrapewire/internal/scrape"
	"github.com/dmaher/scrapewire/internal/scrape/api"
	"github.com/dmaher/scrapewire/internal/scrape/feed"
	"github.com/dmaher/scrapewire/internal/scrape/web"
)

// Deps is everything a strategy needs besides its config.
type Deps struct {
	Client    *fetch.Client
	Throttle  scrape.Throttle
	Processor scrape.Processor
}

// Constructor builds a strategy for one source kind.
type Constructor func(cfg scrape.SourceConfig, deps Deps) (scrape.Strategy, error)

// Factory is the kind-to-constructor registry.
type Factory struct {
	deps Deps

	mu           sync.RWMutex
	constructors map[scrape.SourceKind]Constructor
}

// New builds a factory with the three built-in kinds registered.
func New(deps Deps) *Factory {
	f := &Factory{
		deps:         deps,
		constructors: make(map[scrape.SourceKind]Constructor),
	}
	f.RegisterKind(scrape.KindFeed, newFeedStrategy)
	f.RegisterKind(scrape.KindAPI, newAPIStrategy)
	f.RegisterKind(scrape.KindWeb, newWebStrategy)
	return f
}

// RegisterKind installs (or replaces) the constructor for a kind.
func (f *Factory) RegisterKind(kind scrape.SourceKind, ctor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[kind] = ctor
}

// Create builds a strategy of the given kind. It fails with
// UnknownSourceKindError when the kind was never registered; config problems
// surface as the constructor's own error.
func (f *Factory) Create(kind scrape.SourceKind, cfg scrape.SourceConfig) (scrape.Strategy, error) {
	f.mu.RLock()
	ctor, ok := f.constructors[kind]
	f.mu.RUnlock()
	if !ok {
		return nil, &scrape.UnknownSourceKindError{Kind: kind}
	}
	if cfg.Kind == "" {
		cfg.Kind = kind
	}
	return ctor(cfg, f.deps)
}

// CreateDefaults builds one strategy per catalog entry. A config whose
// constructor fails is logged and skipped, never fatal: one bad entry must
// not take down the rest of the catalog.
func (f *Factory) CreateDefaults() []scrape.Strategy {
	configs := DefaultConfigs()
	strategies := make([]scrape.Strategy, 0, len(configs))
	for _, cfg := range configs {
		s, err := f.Create(cfg.Kind, cfg)
		if err != nil {
			logging.Warn("skipping default source", "source", cfg.ID, "error", err)
			continue
		}
		strategies = append(strategies, s)
	}
	return strategies
}

// StrategyForURL resolves which default source covers a URL by constructing
// throwaway strategies and asking each. Linear scan; the catalog is small
// and static. Returns nil when nothing matches.
func (f *Factory) StrategyForURL(url string) scrape.Strategy {
	for _, cfg := range DefaultConfigs() {
		s, err := f.Create(cfg.Kind, cfg)
		if err != nil {
			logging.Debug("skipping default source during url resolution", "source", cfg.ID, "error", err)
			continue
		}
		if s.CanHandle(url) {
			return s
		}
	}
	return nil
}

func newFeedStrategy(cfg scrape.SourceConfig, deps Deps) (scrape.Strategy, error) {
	return feed.New(cfg, deps.Client, deps.Throttle, deps.Processor)
}

// newAPIStrategy resolves the provider transform from the catalog by source
// ID. API sources outside the catalog need their own constructor via
// RegisterKind.
func newAPIStrategy(cfg scrape.SourceConfig, deps Deps) (scrape.Strategy, error) {
	transform := defaultTransform(cfg.ID)
	if transform == nil {
		return nil, &scrape.TransformError{SourceID: cfg.ID, Hint: "no transform registered for this api source"}
	}
	return api.New(cfg, deps.Client, deps.Throttle, deps.Processor, transform)
}

func newWebStrategy(cfg scrape.SourceConfig, deps Deps) (scrape.Strategy, error) {
	extract := defaultExtract(cfg.ID)
	if extract == nil {
		extract = web.Readability()
	}
	return web.New(cfg, deps.Client, deps.Throttle, deps.Processor, extract)
}

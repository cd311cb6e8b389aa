package scrape

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	// respTimeAlpha weights the response-time moving average.
	respTimeAlpha = 0.2

	// healthCacheTTL is how long a probe result stays fresh.
	healthCacheTTL = 30 * time.Second

	// defaultProbeTimeout bounds health probes when the config carries none.
	defaultProbeTimeout = 10 * time.Second
)

// Core carries the behavior shared by every strategy: the config copy, the
// stats record, the health-check cache, and the common scrape path through
// the throttle and the processor. Concrete strategies embed *Core and supply
// only their fetch step.
type Core struct {
	cfg       SourceConfig
	throttle  Throttle
	processor Processor

	mu    sync.Mutex
	stats SourceStats

	healthMu   sync.Mutex
	lastHealth HealthStatus
	healthAt   time.Time
}

// NewCore builds the shared strategy state around a config. The throttle and
// processor may be nil (direct execution, raw articles), which keeps small
// tests and one-off fetches simple.
func NewCore(cfg SourceConfig, th Throttle, proc Processor) *Core {
	return &Core{cfg: cfg.Clone(), throttle: th, processor: proc}
}

// Config returns a copy of the source configuration; callers may mutate it
// freely.
func (c *Core) Config() SourceConfig {
	return c.cfg.Clone()
}

// Stats returns a snapshot of the running counters.
func (c *Core) Stats() SourceStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Ref names this source for article attribution.
func (c *Core) Ref() SourceRef {
	return SourceRef{Name: c.cfg.Name, Category: c.cfg.PrimaryCategory()}
}

// Run executes the common scrape path around a specialization's fetch step:
// disabled check, deadline, processing, stats. The fetch routes each of its
// network requests through Submit; errors come back classified; Run never
// retries (retries belong to the transport).
func (c *Core) Run(ctx context.Context, req Request, fetch func(context.Context) ([]Article, error)) ([]Article, error) {
	if !c.cfg.Enabled {
		c.recordAttempt(0, 0, false)
		return nil, &SourceDisabledError{SourceID: c.cfg.ID}
	}

	timeout := c.cfg.Timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := fetch(ctx)
	elapsed := time.Since(start)

	if err != nil {
		c.recordAttempt(elapsed, 0, false)
		err = Classify(c.cfg.ID, err)
		var te *FetchTimeoutError
		if errors.As(err, &te) && te.Timeout == 0 {
			te.Timeout = timeout
		}
		return nil, err
	}

	articles := raw
	if c.processor != nil {
		articles = c.processor.Process(raw, req, c.Ref())
	}
	c.recordAttempt(elapsed, len(articles), true)
	return articles, nil
}

// Submit runs one network request under the shared throttle: the source's
// spacing is waited out, then a concurrency slot is acquired by priority.
// Strategies call it once per request, so a multi-feed source spaces its
// feeds apart instead of hitting them back to back. Without a throttle the
// request runs inline.
func (c *Core) Submit(ctx context.Context, fn func(context.Context) error) error {
	if c.throttle == nil {
		return fn(ctx)
	}
	return c.throttle.Do(ctx, c.cfg, fn)
}

// CheckHealth runs a specialization's probe with latency measurement, result
// caching, and panic containment. Disabled sources report down immediately
// with no network traffic.
func (c *Core) CheckHealth(ctx context.Context, probe func(context.Context) error) HealthStatus {
	if !c.cfg.Enabled {
		return HealthStatus{
			Healthy:   false,
			Status:    StatusDown,
			CheckedAt: time.Now(),
			Err:       "source disabled",
		}
	}

	c.healthMu.Lock()
	if !c.healthAt.IsZero() && time.Since(c.healthAt) < healthCacheTTL {
		cached := c.lastHealth
		c.healthMu.Unlock()
		return cached
	}
	c.healthMu.Unlock()

	status := c.probe(ctx, probe)

	c.healthMu.Lock()
	c.lastHealth = status
	c.healthAt = status.CheckedAt
	c.healthMu.Unlock()
	return status
}

func (c *Core) probe(ctx context.Context, probe func(context.Context) error) HealthStatus {
	timeout := c.cfg.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := func() (perr error) {
		defer func() {
			if r := recover(); r != nil {
				perr = fmt.Errorf("health probe panicked: %v", r)
			}
		}()
		return probe(ctx)
	}()
	elapsed := time.Since(start)

	hs := HealthStatus{ResponseTime: elapsed, CheckedAt: time.Now()}
	switch {
	case err != nil:
		hs.Status = StatusDown
		hs.Err = err.Error()
	case elapsed > timeout/2:
		hs.Healthy = true
		hs.Status = StatusDegraded
	default:
		hs.Healthy = true
		hs.Status = StatusActive
	}
	return hs
}

func (c *Core) recordAttempt(elapsed time.Duration, articles int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.TotalRequests++
	if ok {
		c.stats.SuccessfulRequests++
		c.stats.TotalArticles += int64(articles)
	}
	if elapsed > 0 {
		if c.stats.AvgResponseTime == 0 {
			c.stats.AvgResponseTime = elapsed
		} else {
			avg := float64(c.stats.AvgResponseTime)*(1-respTimeAlpha) + float64(elapsed)*respTimeAlpha
			c.stats.AvgResponseTime = time.Duration(avg)
		}
	}
	c.stats.LastActiveAt = time.Now()
}

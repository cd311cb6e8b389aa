// Package throttle schedules scrape fetches. It enforces two limits: a
// global cap on in-flight requests, granted strictly by source priority
// (FIFO within a tier), and a minimum spacing between requests from the same
// source. Spacing is keyed by source ID, so one rate-limited source never
// starves another; two different sources may fetch concurrently even when
// each is individually limited.
package throttle

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmaher/scrapewire/internal/scrape"
)

// DefaultMaxConcurrent caps in-flight fetches when no limit is configured.
const DefaultMaxConcurrent = 8

// Throttle hands out fetch slots. Safe for concurrent use; there is no
// background goroutine, grants happen inline on submit and release.
type Throttle struct {
	max int

	mu       sync.Mutex
	waiting  waiterQueue
	inFlight int
	seq      int64

	limMu    sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a Throttle with the given concurrency cap.
// If maxConcurrent <= 0, DefaultMaxConcurrent is used.
func New(maxConcurrent int) *Throttle {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Throttle{
		max:      maxConcurrent,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Do runs fn once the source's rate limit allows it and a concurrency slot
// is free, highest priority first. The error from fn is returned untouched;
// the throttle never swallows task errors. Cancellation while queued
// abandons the submission cleanly.
func (t *Throttle) Do(ctx context.Context, src scrape.SourceConfig, fn func(context.Context) error) error {
	// Spacing is waited out before entering the slot queue so a limited
	// source does not hold a slot while it idles.
	if lim := t.limiterFor(src.ID, src.RateLimit); lim != nil {
		if err := lim.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Wait refused without the context ending: the spacing
			// delay cannot finish before the deadline. Surface the
			// sentinel so the failure classifies as a timeout.
			return context.DeadlineExceeded
		}
	}

	w := t.enqueue(src.Priority)
	select {
	case <-w.ready:
	case <-ctx.Done():
		t.abandon(w)
		return ctx.Err()
	}
	defer t.release()

	return fn(ctx)
}

// PendingCount returns the number of queued submissions.
func (t *Throttle) PendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.waiting.Len()
}

// ActiveCount returns the number of in-flight tasks.
func (t *Throttle) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight
}

func (t *Throttle) limiterFor(sourceID string, spacing time.Duration) *rate.Limiter {
	if spacing <= 0 {
		return nil
	}
	t.limMu.Lock()
	defer t.limMu.Unlock()
	lim, ok := t.limiters[sourceID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(spacing), 1)
		t.limiters[sourceID] = lim
	}
	return lim
}

func (t *Throttle) enqueue(priority int) *waiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	w := &waiter{priority: priority, seq: t.seq, ready: make(chan struct{})}
	heap.Push(&t.waiting, w)
	t.grantLocked()
	return w
}

func (t *Throttle) release() {
	t.mu.Lock()
	t.inFlight--
	t.grantLocked()
	t.mu.Unlock()
}

// abandon withdraws a cancelled submission. If the grant raced the
// cancellation, the slot is handed back.
func (t *Throttle) abandon(w *waiter) {
	t.mu.Lock()
	if w.index >= 0 {
		heap.Remove(&t.waiting, w.index)
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	t.release()
}

func (t *Throttle) grantLocked() {
	for t.inFlight < t.max && t.waiting.Len() > 0 {
		w := heap.Pop(&t.waiting).(*waiter)
		t.inFlight++
		close(w.ready)
	}
}

package manager

import (
	"time"

	"github.com/dmaher/scrapewire/internal/logging"
	"github.com/dmaher/scrapewire/internal/scrape"
)

// EventKind labels the manager lifecycle events.
type EventKind string

const (
	EventScrapingStarted   EventKind = "scraping_started"
	EventScrapingCompleted EventKind = "scraping_completed"
	EventScrapingError     EventKind = "scraping_error"
	EventHealthCheck       EventKind = "health_check"
)

// Event is one manager lifecycle notification. Fields are populated by kind:
// started carries RunID and Sources; completed carries RunID, Articles and
// Duration; error carries RunID, SourceID and Err; health_check carries
// SourceID and Status.
type Event struct {
	Kind     EventKind
	Time     time.Time
	RunID    string
	SourceID string
	Sources  int
	Articles int
	Duration time.Duration
	Err      error
	Status   scrape.Status
}

// Listener receives events synchronously. A listener that panics is logged
// and skipped; it never disturbs the manager's control flow.
type Listener func(Event)

type subscriber struct {
	id int
	fn Listener
}

// Subscribe registers a listener and returns its id for Unsubscribe.
func (m *Manager) Subscribe(fn Listener) int {
	m.listenerMu.Lock()
	defer m.listenerMu.Unlock()
	m.nextListener++
	m.listeners = append(m.listeners, subscriber{id: m.nextListener, fn: fn})
	return m.nextListener
}

// Unsubscribe removes a listener. Unknown ids are a no-op.
func (m *Manager) Unsubscribe(id int) {
	m.listenerMu.Lock()
	defer m.listenerMu.Unlock()
	for i, sub := range m.listeners {
		if sub.id == id {
			m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
			return
		}
	}
}

// emit dispatches an event to every listener in subscription order. The
// listener list is snapshotted first so a listener may subscribe or
// unsubscribe from inside its callback.
func (m *Manager) emit(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	m.listenerMu.Lock()
	subs := make([]subscriber, len(m.listeners))
	copy(subs, m.listeners)
	m.listenerMu.Unlock()

	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logging.Error("event listener panicked", "kind", e.Kind, "listener", sub.id, "panic", r)
				}
			}()
			sub.fn(e)
		}()
	}
}

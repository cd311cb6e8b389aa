// Package summary defines the seam to the AI summarization service. The
// scraper treats summarization as a black box: implementations live outside
// this subsystem, and everything here works without one.
package summary

import "context"

// Options tunes a single summarization call.
type Options struct {
	// MaxWords caps the summary length. Zero means provider default.
	MaxWords int
}

// Summary is one summarization result.
type Summary struct {
	Text  string
	Model string
}

// Summarizer produces short summaries of article text. Implementations must
// be safe for concurrent use.
type Summarizer interface {
	// Name identifies the provider (for logging).
	Name() string

	// Available reports whether the provider is configured and reachable
	// enough to try. Callers skip summarization when it returns false.
	Available() bool

	// Summarize condenses text. Errors are advisory: callers log and move
	// on, articles are complete without summaries.
	Summarize(ctx context.Context, text string, opts Options) (Summary, error)
}

// Func adapts a plain function into a Summarizer that is always available.
type Func func(ctx context.Context, text string, opts Options) (Summary, error)

func (f Func) Name() string    { return "func" }
func (f Func) Available() bool { return true }
func (f Func) Summarize(ctx context.Context, text string, opts Options) (Summary, error) {
	return f(ctx, text, opts)
}

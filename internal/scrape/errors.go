package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// SourceDisabledError is returned when Scrape is called on a source whose
// config has Enabled=false. Caller's fault, not retryable.
type SourceDisabledError struct {
	SourceID string
}

func (e *SourceDisabledError) Error() string {
	return fmt.Sprintf("scrape: source disabled: %s", e.SourceID)
}

// FetchTimeoutError is returned when a scrape attempt exceeds its deadline.
// Retryable by running the scrape again.
type FetchTimeoutError struct {
	SourceID string
	Timeout  time.Duration
}

func (e *FetchTimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("scrape: fetch timeout after %s: %s", e.Timeout, e.SourceID)
	}
	return fmt.Sprintf("scrape: fetch timeout: %s", e.SourceID)
}

// TransformError is returned when a provider response violates the shape a
// specialization's transform hook expects. Not retryable without a code fix.
type TransformError struct {
	SourceID string
	Hint     string
	Cause    error
}

func (e *TransformError) Error() string {
	msg := fmt.Sprintf("scrape: transform failed for %s", e.SourceID)
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TransformError) Unwrap() error { return e.Cause }

// UnknownSourceKindError is returned by the factory for a kind that was never
// registered. Misconfiguration, fatal at startup.
type UnknownSourceKindError struct {
	Kind SourceKind
}

func (e *UnknownSourceKindError) Error() string {
	return fmt.Sprintf("scrape: unknown source kind %q", e.Kind)
}

// NetworkError is a transport-level failure: connection errors, or an HTTP
// status that survived the retry budget. Retryable.
type NetworkError struct {
	URL    string
	Status int
	Cause  error
}

func (e *NetworkError) Error() string {
	msg := "scrape: network failure"
	if e.URL != "" {
		msg += " for " + e.URL
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// Classify maps an arbitrary scrape failure onto the error taxonomy,
// preserving errors that are already classified. Deadline expiry becomes a
// FetchTimeoutError attributed to the source, no matter what the transport
// wrapped it in; anything else unknown is treated as a network failure.
func Classify(sourceID string, err error) error {
	if err == nil {
		return nil
	}

	var timeout *FetchTimeoutError
	if errors.As(err, &timeout) {
		return err
	}
	// Checked before the other typed chains: the http client dresses ctx
	// expiry as a transport error, and that chain is still a timeout.
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchTimeoutError{SourceID: sourceID}
	}

	var (
		disabled  *SourceDisabledError
		transform *TransformError
		unknown   *UnknownSourceKindError
		network   *NetworkError
	)
	switch {
	case errors.As(err, &disabled),
		errors.As(err, &transform),
		errors.As(err, &unknown),
		errors.As(err, &network):
		return err
	}
	return &NetworkError{Cause: err}
}

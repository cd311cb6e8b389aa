// Package fetch is the HTTP transport primitive the scrape strategies build
// on: plain GETs for content, HEAD probes for health checks, with retry and
// backoff for transient failures. It knows nothing about feeds or articles.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dmaher/scrapewire/internal/logging"
	"github.com/dmaher/scrapewire/internal/scrape"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultMaxBody   = 10 << 20 // 10 MB response cap
	defaultUserAgent = "scrapewire/0.1 (+https://github.com/dmaher/scrapewire)"

	baseBackoff = 1 * time.Second
	maxBackoff  = 30 * time.Second
)

// Config controls the shared HTTP client. The zero value is usable.
type Config struct {
	Timeout      time.Duration // per-attempt safety net on the underlying client
	UserAgent    string
	MaxBodyBytes int64
	RetryBackoff time.Duration // initial retry wait, doubled per attempt
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBody
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = baseBackoff
	}
	return c
}

// Options carries per-request knobs.
type Options struct {
	Headers map[string]string

	// MaxRetries is the retry budget for this request. Zero means a single
	// attempt; retries apply only to transient failures (429, 5xx,
	// transport errors).
	MaxRetries int
}

// Response is the portion of an HTTP response the strategies care about.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Client issues the actual network requests. Safe for concurrent use.
type Client struct {
	http      *http.Client
	userAgent string
	maxBody   int64
	backoff   time.Duration
}

// New creates a Client, filling unset config fields with defaults.
func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodyBytes,
		backoff:   cfg.RetryBackoff,
	}
}

// Get fetches a URL, retrying transient failures up to opts.MaxRetries with
// exponential backoff. A 429 honors the Retry-After header (capped). The
// deadline comes from ctx; cancellation is respected between attempts.
func (c *Client) Get(ctx context.Context, url string, opts Options) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		resp, retryable, err := c.do(ctx, http.MethodGet, url, opts.Headers)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable || ctx.Err() != nil || attempt == opts.MaxRetries {
			break
		}

		delay := c.backoffDelay(attempt, resp)
		logging.Debug("retrying fetch",
			"url", url,
			"attempt", attempt+1,
			"max_retries", opts.MaxRetries,
			"delay", delay,
			"error", err)
		select {
		case <-ctx.Done():
			return nil, &scrape.NetworkError{URL: url, Cause: ctx.Err()}
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

// Head issues a single lightweight existence probe. Servers that reject HEAD
// outright (405, 501) get one GET fallback whose body is discarded.
func (c *Client) Head(ctx context.Context, url string, opts Options) (*Response, error) {
	resp, _, err := c.do(ctx, http.MethodHead, url, opts.Headers)
	if err == nil {
		return resp, nil
	}

	var ne *scrape.NetworkError
	if errors.As(err, &ne) && (ne.Status == http.StatusMethodNotAllowed || ne.Status == http.StatusNotImplemented) {
		resp, _, err = c.do(ctx, http.MethodGet, url, opts.Headers)
		if err == nil {
			resp.Body = nil
			return resp, nil
		}
	}
	return nil, err
}

// do runs one attempt. The second return value says whether the failure is
// worth retrying.
func (c *Client) do(ctx context.Context, method, url string, headers map[string]string) (*Response, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, &scrape.NetworkError{URL: url, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("fetch: bad request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport errors are transient unless the context killed us.
		return nil, ctx.Err() == nil, &scrape.NetworkError{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	var body []byte
	if method != http.MethodHead {
		body, err = io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
		if err != nil {
			return nil, ctx.Err() == nil, &scrape.NetworkError{URL: url, Cause: err}
		}
	}

	out := &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}
	if resp.StatusCode >= 400 {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return out, retryable, &scrape.NetworkError{URL: url, Status: resp.StatusCode}
	}
	return out, false, nil
}

// backoffDelay doubles the base per attempt; a 429 response's Retry-After
// wins when present, capped so a hostile header cannot park us for minutes.
func (c *Client) backoffDelay(attempt int, resp *Response) time.Duration {
	delay := c.backoff << uint(attempt)
	if delay > maxBackoff {
		delay = maxBackoff
	}

	if resp != nil && resp.Status == http.StatusTooManyRequests {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
				delay = time.Duration(seconds) * time.Second
				if delay > maxBackoff {
					delay = maxBackoff
				}
			}
		}
	}
	return delay
}

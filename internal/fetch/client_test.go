package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmaher/scrapewire/internal/scrape"
)

func testClient() *Client {
	return New(Config{RetryBackoff: time.Millisecond})
}

func TestGet(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("hello"))
	}))
	defer server.Close()

	resp, err := testClient().Get(context.Background(), server.URL, Options{})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.Status)
	}
	if string(resp.Body) != "hello" {
		t.Errorf("unexpected body: %q", resp.Body)
	}
	if gotUA == "" {
		t.Error("expected a User-Agent header")
	}
}

func TestGetHeaders(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	_, err := testClient().Get(context.Background(), server.URL, Options{
		Headers: map[string]string{"Authorization": "Bearer sekrit"},
	})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if gotAuth != "Bearer sekrit" {
		t.Errorf("expected auth header, got %q", gotAuth)
	}
}

func TestGetRetriesTransientErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	resp, err := testClient().Get(context.Background(), server.URL, Options{MaxRetries: 3})
	if err != nil {
		t.Fatalf("Get failed after retries: %v", err)
	}
	if string(resp.Body) != "ok" {
		t.Errorf("unexpected body: %q", resp.Body)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testClient().Get(context.Background(), server.URL, Options{MaxRetries: 3})
	if err == nil {
		t.Fatal("expected error for 404")
	}
	var ne *scrape.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %T", err)
	}
	if ne.Status != http.StatusNotFound {
		t.Errorf("expected status 404 in error, got %d", ne.Status)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("expected 1 attempt for a 404, got %d", got)
	}
}

func TestGetRetryBudgetExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := testClient().Get(context.Background(), server.URL, Options{MaxRetries: 2})
	if err == nil {
		t.Fatal("expected error when all attempts fail")
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("expected 3 attempts (1 + 2 retries), got %d", got)
	}
}

func TestGetRetries429(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	resp, err := testClient().Get(context.Background(), server.URL, Options{MaxRetries: 1})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(resp.Body) != "ok" {
		t.Errorf("unexpected body: %q", resp.Body)
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
}

func TestGetBodyCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 4096))
	}))
	defer server.Close()

	client := New(Config{MaxBodyBytes: 1024, RetryBackoff: time.Millisecond})
	resp, err := client.Get(context.Background(), server.URL, Options{})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(resp.Body) != 1024 {
		t.Errorf("expected capped body of 1024, got %d", len(resp.Body))
	}
}

func TestGetCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient().Get(ctx, "http://example.com/", Options{MaxRetries: 3})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestGetDeadlineStaysInErrorChain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := testClient().Get(ctx, server.URL, Options{MaxRetries: 3})
	if err == nil {
		t.Fatal("expected error for an expired deadline")
	}
	// The wrapped transport error must still report the expiry so callers
	// can tell a timeout from an unreachable host.
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("deadline expiry lost in the chain: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("expired deadline was retried for %v", elapsed)
	}
}

func TestHead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
	}))
	defer server.Close()

	resp, err := testClient().Head(context.Background(), server.URL, Options{})
	if err != nil {
		t.Fatalf("Head failed: %v", err)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/rss+xml" {
		t.Errorf("unexpected content type: %q", ct)
	}
}

func TestHeadFallsBackToGet(t *testing.T) {
	var sawGet bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		sawGet = true
		w.Write([]byte("page"))
	}))
	defer server.Close()

	resp, err := testClient().Head(context.Background(), server.URL, Options{})
	if err != nil {
		t.Fatalf("Head with GET fallback failed: %v", err)
	}
	if !sawGet {
		t.Error("expected a GET fallback after 405")
	}
	if resp.Body != nil {
		t.Error("fallback GET should discard the body")
	}
}

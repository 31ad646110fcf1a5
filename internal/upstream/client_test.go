package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vitadek/starcharts/internal/apperr"
)

func TestGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient("test-agent", 2*time.Second, nil)
	body, _, err := c.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestGetRetriesServerErrorThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient("test-agent", 2*time.Second, nil)
	c.sleep = func(ctx context.Context, d time.Duration) error { return nil } // skip real backoff in tests

	body, _, err := c.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("unexpected body: %s", body)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestCircuitBreakerOpensAfterFiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient("test-agent", 2*time.Second, nil)
	c.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	// Each call exhausts its own retries (2 retries, so 3 breaker-countable
	// failures per doWithRetry invocation with maxRetries=2);
	// call repeatedly until the breaker opens.
	var lastErr error
	for i := 0; i < 10; i++ {
		_, _, lastErr = c.Get(context.Background(), srv.URL, nil)
	}
	ae, ok := apperr.As(lastErr)
	if !ok {
		t.Fatalf("expected apperr.Error, got %v (%T)", lastErr, lastErr)
	}
	if ae.Kind != apperr.SourceUnavailable {
		t.Errorf("expected SourceUnavailable once breaker opens, got %s", ae.Kind)
	}
}

func TestRateLimitedDoesNotOpenBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("test-agent", 2*time.Second, nil)
	c.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	_, _, err := c.Get(context.Background(), srv.URL, nil)
	ae, ok := apperr.As(err)
	if !ok {
		t.Fatalf("expected apperr.Error, got %v", err)
	}
	if ae.Kind != apperr.RateLimited {
		t.Errorf("expected RateLimited, got %s", ae.Kind)
	}

	parsed, _ := url.Parse(srv.URL)
	state, fails, _ := c.breakers.for_(parsed.Host).snapshot()
	if state != "closed" || fails != 0 {
		t.Errorf("rate limiting must not count against breaker, got state=%s fails=%d", state, fails)
	}
}

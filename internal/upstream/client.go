// Package upstream issues HTTP GETs against the game's closed set of public
// JSON endpoints. It is read-only: Get and GetPaginated are its only verbs.
// Grounded on Vitadek-OwnWorld's http.Client usage in main.go:bootstrapFederation
// (a client with a fixed timeout, explicit content-type, discarded body on
// error) generalized with retry/backoff, a circuit breaker, and rate
// limiting
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vitadek/starcharts/internal/apperr"
	"github.com/vitadek/starcharts/internal/logging"
)

// failureKind is the internal classification from spec.md §4.1, distinct
// from apperr.Kind: it decides retry/breaker behavior, not the error the
// caller ultimately sees.
type failureKind int

const (
	failNone failureKind = iota
	failTransient
	failPermanent
	failRateLimited
	failParse
	failNetwork
)

// Client is a single HTTP client shared across all upstream calls. One
// Client instance owns the rate limiters and circuit breakers for every
// host it talks to; construct one per process and inject it, per Design
// Notes §9 (explicit construction over global singletons).
type Client struct {
	httpClient *http.Client
	userAgent  string
	limiters   *hostLimiters
	breakers   *breakerRegistry
	log        *logging.Loggers
	now        func() time.Time
	sleep      func(context.Context, time.Duration) error
}

// NewClient builds a Client with the default per-host ceilings from
// spec.md §4.1 (30 req/min, burst 1).
func NewClient(userAgent string, timeout time.Duration, log *logging.Loggers) *Client {
	if log == nil {
		log = logging.NewDiscard()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		limiters:   newHostLimiters(30),
		breakers:   newBreakerRegistry(),
		log:        log,
		now:        time.Now,
		sleep:      ctxSleep,
	}
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// BreakerStatus reports the circuit-breaker state for a host, used by the
// status() diagnostic tool.
type BreakerStatus struct {
	Host             string    `json:"host"`
	State            string    `json:"state"`
	ConsecutiveFails int       `json:"consecutive_fails"`
	OpenedAt         time.Time `json:"opened_at,omitempty"`
}

func (c *Client) BreakerStatuses() []BreakerStatus {
	c.breakers.mu.Lock()
	hosts := make([]string, 0, len(c.breakers.breakers))
	for h := range c.breakers.breakers {
		hosts = append(hosts, h)
	}
	c.breakers.mu.Unlock()

	out := make([]BreakerStatus, 0, len(hosts))
	for _, h := range hosts {
		st, fails, opened := c.breakers.for_(h).snapshot()
		out = append(out, BreakerStatus{Host: h, State: st, ConsecutiveFails: fails, OpenedAt: opened})
	}
	return out
}

// Get issues a single GET against endpoint (a full URL) with the given
// query parameters, retrying and returning the response
// body on success.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) ([]byte, http.Header, error) {
	return c.doWithRetry(ctx, endpoint, query, 3)
}

func (c *Client) doWithRetry(ctx context.Context, endpoint string, query url.Values, retryBudget int) ([]byte, http.Header, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, nil, apperr.New(apperr.Internal, "malformed upstream endpoint", map[string]any{"endpoint": endpoint})
	}
	host := u.Host

	backoff := time.Second
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, apperr.New(apperr.Cancelled, "cancelled before upstream call", map[string]any{"in_flight": host})
		}

		breaker := c.breakers.for_(host)
		ok, isProbe := breaker.allow(c.now())
		if !ok {
			return nil, nil, apperr.New(apperr.SourceUnavailable, fmt.Sprintf("circuit open for %s", host), map[string]any{"host": host})
		}
		if isProbe {
			c.log.Debugf("upstream: issuing breaker probe to %s", host)
		}

		if err := c.limiters.for_(host).Wait(ctx); err != nil {
			return nil, nil, apperr.New(apperr.Cancelled, "cancelled waiting on rate limiter", map[string]any{"in_flight": host})
		}

		body, hdr, statusCode, kind, callErr := c.doOnce(ctx, u, query)

		switch kind {
		case failNone:
			breaker.recordSuccess()
			return body, hdr, nil
		case failRateLimited:
			// Never counts against the breaker.
			retryAfter := retryAfterSeconds(hdr)
			attempts++
			if attempts > 3 || retryBudget <= 0 {
				return nil, nil, apperr.RetryAfter(retryAfter)
			}
			retryBudget--
			if err := c.sleep(ctx, time.Duration(retryAfter)*time.Second); err != nil {
				return nil, nil, apperr.New(apperr.Cancelled, "cancelled during rate-limit backoff", map[string]any{"in_flight": host})
			}
			continue
		case failPermanent:
			breaker.recordFailure(c.now())
			return nil, nil, apperr.Wrap(apperr.SourceUnavailable, fmt.Sprintf("upstream %s returned permanent error (status %d)", host, statusCode), callErr, map[string]any{"host": host, "status": statusCode})
		case failParse:
			// Caller decides whether to skip; not a breaker event.
			return nil, nil, apperr.Wrap(apperr.Internal, "failed to parse upstream response", callErr, map[string]any{"host": host})
		case failNetwork, failTransient:
			breaker.recordFailure(c.now())
			attempts++
			maxRetries := 2
			if attempts > maxRetries || retryBudget <= 0 {
				return nil, nil, apperr.Wrap(apperr.SourceUnavailable, fmt.Sprintf("upstream %s unavailable", host), callErr, map[string]any{"host": host})
			}
			retryBudget--
			jitter := time.Duration(rand.Int63n(int64(backoff) / 2))
			wait := backoff + jitter
			if err := c.sleep(ctx, wait); err != nil {
				return nil, nil, apperr.New(apperr.Cancelled, "cancelled during backoff", map[string]any{"in_flight": host})
			}
			backoff *= 2
			continue
		}
	}
}

func retryAfterSeconds(hdr http.Header) int {
	if hdr == nil {
		return 2
	}
	if v := hdr.Get("Retry-After"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 2
}

func (c *Client) doOnce(ctx context.Context, u *url.URL, query url.Values) (body []byte, hdr http.Header, statusCode int, kind failureKind, err error) {
	reqURL := *u
	if query != nil {
		reqURL.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, nil, 0, failPermanent, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, 0, failPermanent, err
		}
		return nil, nil, 0, failNetwork, err
	}
	defer resp.Body.Close()

	hdr = resp.Header
	statusCode = resp.StatusCode

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, hdr, statusCode, failNetwork, readErr
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return nil, hdr, statusCode, failRateLimited, fmt.Errorf("rate limited: %d", statusCode)
	case statusCode >= 500:
		return nil, hdr, statusCode, failTransient, fmt.Errorf("server error: %d", statusCode)
	case statusCode >= 400:
		return nil, hdr, statusCode, failPermanent, fmt.Errorf("client error: %d", statusCode)
	case statusCode >= 200 && statusCode < 300:
		return body, hdr, statusCode, failNone, nil
	default:
		return nil, hdr, statusCode, failPermanent, fmt.Errorf("unexpected status: %d", statusCode)
	}
}

// Page is one page of a paginated upstream result.
type Page struct {
	Body       []byte
	PageNumber int
	HasMore    bool
}

// GetPaginated follows the upstream's pagination convention, discovered at
// runtime from the first response: cursor header first (X-Next-Cursor),
// falling back to 1-based page numbers up to the X-Pages count if no
// cursor is present.
func (c *Client) GetPaginated(ctx context.Context, endpoint string, query url.Values) ([][]byte, error) {
	var pages [][]byte

	firstQuery := cloneValues(query)
	firstQuery.Set("page", "1")
	body, hdr, err := c.Get(ctx, endpoint, firstQuery)
	if err != nil {
		return nil, err
	}
	pages = append(pages, body)

	if cursor := hdr.Get("X-Next-Cursor"); cursor != "" {
		for cursor != "" {
			if err := ctx.Err(); err != nil {
				return pages, apperr.New(apperr.Cancelled, "cancelled mid-pagination", map[string]any{"in_flight": endpoint})
			}
			q := cloneValues(query)
			q.Set("cursor", cursor)
			b, h, err := c.Get(ctx, endpoint, q)
			if err != nil {
				return pages, err
			}
			pages = append(pages, b)
			cursor = h.Get("X-Next-Cursor")
		}
		return pages, nil
	}

	totalPages := 1
	if v := hdr.Get("X-Pages"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			totalPages = n
		}
	}
	for page := 2; page <= totalPages; page++ {
		if err := ctx.Err(); err != nil {
			return pages, apperr.New(apperr.Cancelled, "cancelled mid-pagination", map[string]any{"in_flight": endpoint})
		}
		q := cloneValues(query)
		q.Set("page", strconv.Itoa(page))
		b, _, err := c.Get(ctx, endpoint, q)
		if err != nil {
			return pages, err
		}
		pages = append(pages, b)
	}
	return pages, nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v)+2)
	for k, vals := range v {
		cp := make([]string, len(vals))
		copy(cp, vals)
		out[k] = cp
	}
	return out
}

// DecodeJSON is a small helper most upstream-fed components use to parse a
// response body, tagging malformed payloads as a parse failure rather than
// letting json errors leak untagged.
func DecodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(apperr.Internal, "malformed upstream payload", err, nil)
	}
	return nil
}

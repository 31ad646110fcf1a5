package upstream

import (
	"sync"

	"golang.org/x/time/rate"
)

// hostLimiters hands out one token-bucket limiter per upstream host.
// Grounded on Vitadek-OwnWorld's utils.go:getLimiter / ipLimiters map, which
// lazily creates a *rate.Limiter per remote IP behind a mutex; here the key
// is the upstream host instead of a caller IP, since we are the client.
type hostLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perMin   int
	minSpace rate.Limit
}

func newHostLimiters(requestsPerMinute int) *hostLimiters {
	return &hostLimiters{
		limiters: make(map[string]*rate.Limiter),
		perMin:   requestsPerMinute,
	}
}

// for returns the limiter for host, creating it on first use. The limiter
// enforces both the per-minute ceiling and the minimum inter-request
// spacing documented in spec.md §4.1 (30/min, burst 1, so calls naturally
// serialize at >=2s apart once the bucket is exhausted).
func (h *hostLimiters) for_(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	lim, ok := h.limiters[host]
	if !ok {
		// 30 req/min == 0.5 req/s; burst of 1 forces the 2s minimum spacing
		// once the initial burst is consumed.
		lim = rate.NewLimiter(rate.Limit(float64(h.perMin)/60.0), 1)
		h.limiters[host] = lim
	}
	return lim
}

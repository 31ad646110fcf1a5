package upstream

import (
	"sync"
	"time"
)

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// circuitBreaker implements the per-host policy from spec.md §4.1: after 5
// consecutive non-rate-limit failures the breaker opens for 5 minutes; a
// single probe call is allowed once the window elapses; rate-limit
// responses never move the counters.
type circuitBreaker struct {
	mu               sync.Mutex
	state            breakerState
	consecutiveFails int
	openedAt         time.Time

	failureThreshold int
	openDuration     time.Duration
}

func newCircuitBreaker() *circuitBreaker {
	return &circuitBreaker{
		failureThreshold: 5,
		openDuration:      5 * time.Minute,
	}
}

// allow reports whether a call may proceed, and whether this call is the
// single probe permitted after the open window elapses.
func (b *circuitBreaker) allow(now time.Time) (ok bool, isProbe bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerClosed:
		return true, false
	case breakerOpen:
		if now.Sub(b.openedAt) >= b.openDuration {
			b.state = breakerHalfOpen
			return true, true
		}
		return false, false
	case breakerHalfOpen:
		// Only one probe in flight at a time; further callers fail fast
		// until the probe resolves (recordSuccess/recordFailure).
		return false, false
	}
	return true, false
}

func (b *circuitBreaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFails = 0
	b.state = breakerClosed
}

// recordFailure counts a non-rate-limit failure. Per spec, rate-limited
// responses must never reach this method.
func (b *circuitBreaker) recordFailure(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == breakerHalfOpen {
		// Probe failed: restart the open window.
		b.state = breakerOpen
		b.openedAt = now
		return
	}
	b.consecutiveFails++
	if b.consecutiveFails >= b.failureThreshold {
		b.state = breakerOpen
		b.openedAt = now
	}
}

func (b *circuitBreaker) snapshot() (state string, consecutiveFails int, openedAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case breakerOpen:
		state = "open"
	case breakerHalfOpen:
		state = "half_open"
	default:
		state = "closed"
	}
	return state, b.consecutiveFails, b.openedAt
}

// breakerRegistry hands out one breaker per upstream host.
type breakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*circuitBreaker
}

func newBreakerRegistry() *breakerRegistry {
	return &breakerRegistry{breakers: make(map[string]*circuitBreaker)}
}

func (r *breakerRegistry) for_(host string) *circuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.breakers[host]
	if !ok {
		b = newCircuitBreaker()
		r.breakers[host] = b
	}
	return b
}

// Package volatilecache holds the galaxy-wide TTL caches for per-system
// activity (kills, jumps) and faction-warfare status
// Grounded on the teacher's refresh idiom of "check a timestamp, lock,
// recheck, refresh" — the teacher applies this to its own world-state
// snapshot broadcasts; here it backs three independent cache layers instead.
package volatilecache

import (
	"context"
	"sync"
	"time"

	"github.com/vitadek/starcharts/internal/apperr"
	"github.com/vitadek/starcharts/internal/logging"
)

// Freshness is the tri-valued label spec.md §3 requires on every cache read.
type Freshness string

const (
	FreshnessFresh  Freshness = "fresh"
	FreshnessRecent Freshness = "recent"
	FreshnessStale  Freshness = "stale"
)

// layer is a single TTL-bounded, lock-serialized cache of galaxy-wide data
// keyed by system id. T is the per-system record type (kills, jumps, or
// faction-warfare status). Refreshes follow spec.md §5's exact protocol:
// check freshness, lock, recheck, refresh-or-serve-stale.
type layer[T any] struct {
	mu          sync.Mutex
	data        map[int32]T
	lastRefresh time.Time
	hasData     bool
	ttl         time.Duration
	name        string
	refresh     func(ctx context.Context) (map[int32]T, error)
	log         *logging.Loggers
}

func newLayer[T any](name string, ttl time.Duration, log *logging.Loggers, refresh func(ctx context.Context) (map[int32]T, error)) *layer[T] {
	if log == nil {
		log = logging.NewDiscard()
	}
	return &layer[T]{
		data:    make(map[int32]T),
		ttl:     ttl,
		name:    name,
		refresh: refresh,
		log:     log,
	}
}

func (l *layer[T]) isStale(now time.Time) bool {
	if !l.hasData {
		return true
	}
	return now.Sub(l.lastRefresh) >= l.ttl
}

// snapshot returns the current map (read-only for the caller), its age, and
// whether it's currently stale — used both by Get and by the status() tool.
func (l *layer[T]) snapshot(now time.Time) (data map[int32]T, age time.Duration, stale bool, hasData bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[int32]T, len(l.data))
	for k, v := range l.data {
		out[k] = v
	}
	if !l.hasData {
		return out, 0, true, false
	}
	return out, now.Sub(l.lastRefresh), l.isStale(now), true
}

// get implements the refresh protocol. now is injectable for tests.
func (l *layer[T]) get(ctx context.Context, now func() time.Time) (map[int32]T, time.Duration, Freshness, []string, error) {
	t := now()
	l.mu.Lock()
	stale := l.isStale(t)
	l.mu.Unlock()

	if !stale {
		data, age, _, _ := l.snapshot(t)
		return data, age, classify(age, l.ttl), nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, 0, "", nil, apperr.New(apperr.Cancelled, "cancelled before cache refresh", map[string]any{"in_flight": l.name})
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Recheck under the lock: another caller may have refreshed while we waited.
	t = now()
	if !l.isStale(t) {
		out := make(map[int32]T, len(l.data))
		for k, v := range l.data {
			out[k] = v
		}
		return out, t.Sub(l.lastRefresh), classify(t.Sub(l.lastRefresh), l.ttl), nil, nil
	}

	fresh, err := l.refresh(ctx)
	if err != nil {
		if !l.hasData {
			l.log.Warnf("%s cache: upstream refresh failed on cold start: %v", l.name, err)
			return map[int32]T{}, 0, FreshnessStale, []string{"no cached data and upstream refresh failed: " + err.Error()}, nil
		}
		l.log.Warnf("%s cache: upstream refresh failed, serving stale data: %v", l.name, err)
		age := t.Sub(l.lastRefresh)
		out := make(map[int32]T, len(l.data))
		for k, v := range l.data {
			out[k] = v
		}
		return out, age, FreshnessStale, []string{l.name + " refresh failed, serving cached data: " + err.Error()}, nil
	}

	l.data = fresh
	l.lastRefresh = now()
	l.hasData = true
	out := make(map[int32]T, len(l.data))
	for k, v := range l.data {
		out[k] = v
	}
	return out, 0, FreshnessFresh, nil, nil
}

func classify(age, ttl time.Duration) Freshness {
	if age < ttl/2 {
		return FreshnessFresh
	}
	if age < ttl {
		return FreshnessRecent
	}
	return FreshnessStale
}

// LayerStatus is one row of the status() diagnostic
type LayerStatus struct {
	Name        string  `json:"name"`
	SystemCount int     `json:"system_count"`
	AgeSeconds  float64 `json:"age_seconds"`
	TTLSeconds  float64 `json:"ttl_seconds"`
	Stale       bool    `json:"stale"`
	HasData     bool    `json:"has_data"`
}

func (l *layer[T]) status(now time.Time) LayerStatus {
	data, age, stale, hasData := l.snapshot(now)
	return LayerStatus{
		Name:        l.name,
		SystemCount: len(data),
		AgeSeconds:  age.Seconds(),
		TTLSeconds:  l.ttl.Seconds(),
		Stale:       stale,
		HasData:     hasData,
	}
}

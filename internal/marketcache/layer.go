package marketcache

import (
	"context"
	"sync"
	"time"

	"github.com/vitadek/starcharts/internal/apperr"
	"github.com/vitadek/starcharts/internal/logging"
)

// regionEntry is one region's cached slice of a layer, guarded by its own
// lock so refreshing region A never blocks a read of region B.
type regionEntry[T any] struct {
	mu          sync.Mutex
	data        T
	hasData     bool
	lastRefresh time.Time
}

// Layer is a TTL-bounded cache keyed by region id, lazily creating a
// regionEntry per region the first time it's touched — the same lazy
// per-key map pattern as internal/upstream/ratelimit.go's hostLimiters,
// applied to regions instead of hosts.
type Layer[T any] struct {
	name    string
	ttl     time.Duration
	refresh func(ctx context.Context, regionID int32) (T, error)
	log     *logging.Loggers

	mu      sync.Mutex
	regions map[int32]*regionEntry[T]
}

func newLayer[T any](name string, ttl time.Duration, log *logging.Loggers, refresh func(ctx context.Context, regionID int32) (T, error)) *Layer[T] {
	if log == nil {
		log = logging.NewDiscard()
	}
	return &Layer[T]{name: name, ttl: ttl, refresh: refresh, log: log, regions: make(map[int32]*regionEntry[T])}
}

func (l *Layer[T]) entryFor(regionID int32) *regionEntry[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.regions[regionID]
	if !ok {
		e = &regionEntry[T]{}
		l.regions[regionID] = e
	}
	return e
}

// get implements the §4.4/§4.5 refresh protocol for one region: check
// freshness, lock, recheck, refresh-or-serve-stale.
func (l *Layer[T]) get(ctx context.Context, regionID int32, now func() time.Time) (data T, ageSeconds float64, hasData bool, err error) {
	e := l.entryFor(regionID)
	t := now()

	e.mu.Lock()
	stale := !e.hasData || t.Sub(e.lastRefresh) >= l.ttl
	e.mu.Unlock()

	if !stale {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.data, t.Sub(e.lastRefresh).Seconds(), true, nil
	}

	if err := ctx.Err(); err != nil {
		var zero T
		return zero, 0, false, apperr.New(apperr.Cancelled, "cancelled before market cache refresh", map[string]any{"in_flight": l.name})
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t = now()
	if e.hasData && t.Sub(e.lastRefresh) < l.ttl {
		return e.data, t.Sub(e.lastRefresh).Seconds(), true, nil
	}

	fresh, refreshErr := l.refresh(ctx, regionID)
	if refreshErr != nil {
		if !e.hasData {
			var zero T
			return zero, 0, false, refreshErr
		}
		l.log.Warnf("%s cache: upstream refresh failed for region %d, serving stale data: %v", l.name, regionID, refreshErr)
		return e.data, t.Sub(e.lastRefresh).Seconds(), true, nil
	}

	e.data = fresh
	e.lastRefresh = now()
	e.hasData = true
	return e.data, 0, true, nil
}

// status reports this layer's state across every region it has touched, for
// the status() diagnostic.
func (l *Layer[T]) status(now time.Time) []RegionLayerStatus {
	l.mu.Lock()
	ids := make([]int32, 0, len(l.regions))
	for id := range l.regions {
		ids = append(ids, id)
	}
	entries := make(map[int32]*regionEntry[T], len(l.regions))
	for _, id := range ids {
		entries[id] = l.regions[id]
	}
	l.mu.Unlock()

	out := make([]RegionLayerStatus, 0, len(ids))
	for _, id := range ids {
		e := entries[id]
		e.mu.Lock()
		age := time.Duration(0)
		if e.hasData {
			age = now.Sub(e.lastRefresh)
		}
		out = append(out, RegionLayerStatus{
			Layer:      l.name,
			RegionID:   id,
			AgeSeconds: age.Seconds(),
			TTLSeconds: l.ttl.Seconds(),
			Stale:      !e.hasData || age >= l.ttl,
			HasData:    e.hasData,
		})
		e.mu.Unlock()
	}
	return out
}

// RegionLayerStatus is one (layer, region) row of the status() diagnostic.
type RegionLayerStatus struct {
	Layer      string  `json:"layer"`
	RegionID   int32   `json:"region_id"`
	AgeSeconds float64 `json:"age_seconds"`
	TTLSeconds float64 `json:"ttl_seconds"`
	Stale      bool    `json:"stale"`
	HasData    bool    `json:"has_data"`
}

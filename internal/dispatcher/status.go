package dispatcher

import (
	"context"

	"github.com/vitadek/starcharts/internal/marketcache"
	"github.com/vitadek/starcharts/internal/upstream"
	"github.com/vitadek/starcharts/internal/volatilecache"
)

// statusResponse is the full diagnostic snapshot spec.md §4.4 describes:
// one row per volatile-cache layer, one row per (market layer, region),
// upstream circuit-breaker state per host, and graph identity.
type statusResponse struct {
	GraphVersion     string                        `json:"graph_version"`
	SystemCount      int                           `json:"system_count"`
	StoreConnected   bool                          `json:"store_connected"`
	VolatileLayers   []volatilecache.LayerStatus   `json:"volatile_layers"`
	MarketLayers     []marketcache.RegionLayerStatus `json:"market_layers"`
	CircuitBreakers  []upstream.BreakerStatus      `json:"circuit_breakers"`
}

// Status reports the diagnostic snapshot needed to tell a caller whether a
// degraded answer is due to a stale cache, an open circuit breaker, or a
// disconnected store Takes no action parameter since it
// is the tool surface's single diagnostic operation.
func (d *Dispatcher) Status(ctx context.Context) (any, error) {
	requestID := newRequestID()
	d.logCall("status", "status", requestID)

	var volatileLayers []volatilecache.LayerStatus
	if d.volatile != nil {
		volatileLayers = d.volatile.Status()
	}
	var marketLayers []marketcache.RegionLayerStatus
	if d.market != nil {
		marketLayers = d.market.Status()
	}
	var breakers []upstream.BreakerStatus
	if d.upstream != nil {
		breakers = d.upstream.BreakerStatuses()
	}
	return statusResponse{
		GraphVersion:    d.graph.Version(),
		SystemCount:     d.graph.VertexCount(),
		StoreConnected:  d.store != nil,
		VolatileLayers:  volatileLayers,
		MarketLayers:    marketLayers,
		CircuitBreakers: breakers,
	}, nil
}

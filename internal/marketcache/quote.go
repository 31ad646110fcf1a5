// Package marketcache implements the multi-tier price cache over persistent
// aggregates, upstream pre-aggregated prices, and upstream raw orders, per
// spec.md §4.5. Grounded on the same check-freshness/lock/recheck/refresh
// protocol as internal/volatilecache, specialized here to a per-region key
// space (mirroring internal/upstream/ratelimit.go's per-host lazy map
// pattern rather than volatilecache's flat galaxy-wide map, since market
// data is naturally partitioned by region).
package marketcache

import (
	"math"
	"sort"
)

// Source names which tier produced a price quote
type Source string

const (
	SourcePreAggregated Source = "pre-aggregated"
	SourceRawOrders     Source = "raw-orders"
	SourcePersistent    Source = "persistent-store"
	SourceStale         Source = "stale-fallback"
)

// Freshness mirrors volatilecache.Freshness; kept as its own type since the
// two packages' classification tables differ vs §4.4.
type Freshness string

const (
	FreshnessFresh  Freshness = "fresh"
	FreshnessRecent Freshness = "recent"
	FreshnessStale  Freshness = "stale"
)

// classify implements spec.md §4.5's freshness table, which differs by source.
func classify(source Source, ageSeconds float64) Freshness {
	switch source {
	case SourcePreAggregated:
		switch {
		case ageSeconds < 300:
			return FreshnessFresh
		case ageSeconds < 900:
			return FreshnessRecent
		default:
			return FreshnessStale
		}
	case SourceRawOrders:
		switch {
		case ageSeconds < 120:
			return FreshnessFresh
		case ageSeconds < 300:
			return FreshnessRecent
		default:
			return FreshnessStale
		}
	default:
		// Persistent store and stale-fallback reads are always stale,
		// table.
		return FreshnessStale
	}
}

// Quote is one side's summary statistics, shaped after spec.md §3's price
// aggregate (minus the primary-key fields, which the caller already knows).
type Quote struct {
	WeightedAvg float64
	Min         float64
	Max         float64
	Median      float64
	StdDev      float64
	Volume      int64
	OrderCount  int64
	Percentile  float64
}

// Sided holds both sides of the book for one item in one region. Either side
// may be nil if no data exists for it.
type Sided struct {
	Buy  *Quote
	Sell *Quote
}

// Order is a single live order Transient — never persisted.
type Order struct {
	OrderID         int64
	Price           float64
	VolumeRemaining int64
	VolumeTotal     int64
	LocationID      int64
	IsBuyOrder      bool
	Range           string
	Duration        int
	IssuedAt        string
}

// HistoricalPoint is one day of a region/item's historical price series.
type HistoricalPoint struct {
	Date       string
	Average    float64
	Highest    float64
	Lowest     float64
	Volume     int64
	OrderCount int64
}

// aggregateOrders computes a Sided quote on the fly from a raw order book,
// used when the fallback chain drops to source B.
func aggregateOrders(orders []Order) Sided {
	var buy, sell []Order
	for _, o := range orders {
		if o.IsBuyOrder {
			buy = append(buy, o)
		} else {
			sell = append(sell, o)
		}
	}
	var out Sided
	if q := aggregateSide(buy); q != nil {
		out.Buy = q
	}
	if q := aggregateSide(sell); q != nil {
		out.Sell = q
	}
	return out
}

func aggregateSide(orders []Order) *Quote {
	if len(orders) == 0 {
		return nil
	}
	var sumPriceVol, sumVol float64
	min, max := orders[0].Price, orders[0].Price
	prices := make([]float64, 0, len(orders))
	var orderCount int64
	for _, o := range orders {
		v := float64(o.VolumeRemaining)
		sumPriceVol += o.Price * v
		sumVol += v
		if o.Price < min {
			min = o.Price
		}
		if o.Price > max {
			max = o.Price
		}
		prices = append(prices, o.Price)
		orderCount++
	}
	weighted := 0.0
	if sumVol > 0 {
		weighted = sumPriceVol / sumVol
	}
	median := medianOf(prices)
	return &Quote{
		WeightedAvg: weighted,
		Min:         min,
		Max:         max,
		Median:      median,
		StdDev:      stddevOf(prices, weighted),
		Volume:      int64(sumVol),
		OrderCount:  orderCount,
	}
}

func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func stddevOf(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

package marketcache

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/vitadek/starcharts/internal/apperr"
	"github.com/vitadek/starcharts/internal/logging"
	"github.com/vitadek/starcharts/internal/store"
	"github.com/vitadek/starcharts/internal/upstream"
)

const (
	preAggregatedTTL = 15 * time.Minute
	rawOrdersTTL     = 5 * time.Minute
	historicalTTL    = 1 * time.Hour
)

// Endpoints names the per-region upstream URL templates this cache
// refreshes from. Each template takes exactly one %d verb for the region id,
//
type Endpoints struct {
	PreAggregated string
	RawOrders     string
	Historical    string
}

// regionPrices is what the pre-aggregated and raw-orders layers hold per
// region: one Sided quote per item id.
type regionPrices map[int32]Sided

// regionHistory is what the historical layer holds per region: one series
// per item id.
type regionHistory map[int32][]HistoricalPoint

// Cache is the multi-tier price cache described in spec.md §4.5: two
// upstream-backed layers (pre-aggregated, raw-orders-aggregated-on-the-fly)
// plus the persistent store as a third-tier fallback and a no-quote stale
// result as the fourth tier.
type Cache struct {
	preAgg  *Layer[regionPrices]
	rawOrds *Layer[regionPrices]
	history *Layer[regionHistory]
	store   *store.Store
	now     func() time.Time
	log     *logging.Loggers
}

// New builds a Cache wired to client's per-region endpoints and to the
// persistent store it falls back to.
func New(client *upstream.Client, endpoints Endpoints, st *store.Store, log *logging.Loggers) *Cache {
	if log == nil {
		log = logging.NewDiscard()
	}
	c := &Cache{store: st, now: time.Now, log: log}
	c.preAgg = newLayer("pre_aggregated", preAggregatedTTL, log, func(ctx context.Context, regionID int32) (regionPrices, error) {
		return fetchPreAggregated(ctx, client, endpoints.PreAggregated, regionID)
	})
	c.rawOrds = newLayer("raw_orders", rawOrdersTTL, log, func(ctx context.Context, regionID int32) (regionPrices, error) {
		return fetchRawOrders(ctx, client, endpoints.RawOrders, regionID)
	})
	c.history = newLayer("historical", historicalTTL, log, func(ctx context.Context, regionID int32) (regionHistory, error) {
		return fetchHistory(ctx, client, endpoints.Historical, regionID)
	})
	return c
}

type wireSidedQuote struct {
	ItemID int32  `json:"item_id"`
	Buy    *Quote `json:"buy"`
	Sell   *Quote `json:"sell"`
}

func fetchPreAggregated(ctx context.Context, client *upstream.Client, tmpl string, regionID int32) (regionPrices, error) {
	endpoint := fmt.Sprintf(tmpl, regionID)
	body, _, err := client.Get(ctx, endpoint, url.Values{})
	if err != nil {
		return nil, err
	}
	var rows []wireSidedQuote
	if err := upstream.DecodeJSON(body, &rows); err != nil {
		return nil, err
	}
	out := make(regionPrices, len(rows))
	for _, r := range rows {
		out[r.ItemID] = Sided{Buy: r.Buy, Sell: r.Sell}
	}
	return out, nil
}

type wireOrder struct {
	OrderID         int64  `json:"order_id"`
	ItemID          int32  `json:"type_id"`
	Price           float64 `json:"price"`
	VolumeRemaining int64  `json:"volume_remain"`
	VolumeTotal     int64  `json:"volume_total"`
	LocationID      int64  `json:"location_id"`
	IsBuyOrder      bool   `json:"is_buy_order"`
	Range           string `json:"range"`
	Duration        int    `json:"duration"`
	IssuedAt        string `json:"issued"`
}

func fetchRawOrders(ctx context.Context, client *upstream.Client, tmpl string, regionID int32) (regionPrices, error) {
	endpoint := fmt.Sprintf(tmpl, regionID)
	pages, err := client.GetPaginated(ctx, endpoint, url.Values{})
	if err != nil {
		return nil, err
	}
	byItem := make(map[int32][]Order)
	for _, page := range pages {
		var rows []wireOrder
		if err := upstream.DecodeJSON(page, &rows); err != nil {
			return nil, err
		}
		for _, r := range rows {
			byItem[r.ItemID] = append(byItem[r.ItemID], Order{
				OrderID:         r.OrderID,
				Price:           r.Price,
				VolumeRemaining: r.VolumeRemaining,
				VolumeTotal:     r.VolumeTotal,
				LocationID:      r.LocationID,
				IsBuyOrder:      r.IsBuyOrder,
				Range:           r.Range,
				Duration:        r.Duration,
				IssuedAt:        r.IssuedAt,
			})
		}
	}
	out := make(regionPrices, len(byItem))
	for itemID, orders := range byItem {
		out[itemID] = aggregateOrders(orders)
	}
	return out, nil
}

type wireHistoryPoint struct {
	ItemID     int32   `json:"type_id"`
	Date       string  `json:"date"`
	Average    float64 `json:"average"`
	Highest    float64 `json:"highest"`
	Lowest     float64 `json:"lowest"`
	Volume     int64   `json:"volume"`
	OrderCount int64   `json:"order_count"`
}

func fetchHistory(ctx context.Context, client *upstream.Client, tmpl string, regionID int32) (regionHistory, error) {
	endpoint := fmt.Sprintf(tmpl, regionID)
	body, _, err := client.Get(ctx, endpoint, url.Values{})
	if err != nil {
		return nil, err
	}
	var rows []wireHistoryPoint
	if err := upstream.DecodeJSON(body, &rows); err != nil {
		return nil, err
	}
	out := make(regionHistory)
	for _, r := range rows {
		out[r.ItemID] = append(out[r.ItemID], HistoricalPoint{
			Date:       r.Date,
			Average:    r.Average,
			Highest:    r.Highest,
			Lowest:     r.Lowest,
			Volume:     r.Volume,
			OrderCount: r.OrderCount,
		})
	}
	return out, nil
}

// PriceResult is one item's quote plus the provenance the caller needs to
// judge how much to trust it
type PriceResult struct {
	ItemID     int32
	Quote      Sided
	Source     Source
	AgeSeconds float64
	Freshness  Freshness
	Warnings   []string
}

// GetPrices implements the four-step fallback chain for a batch of items in
// one region: pre-aggregated upstream, then raw orders aggregated on the
// fly, then the persistent store, in that order. An item none of those
// tiers has comes back with Source stale, no quote, and a warning; the cache
// keeps no separate per-item record of values it has served before.
func (c *Cache) GetPrices(ctx context.Context, regionID int32, itemIDs []int32) ([]PriceResult, error) {
	out := make([]PriceResult, 0, len(itemIDs))
	missing := make([]int32, 0, len(itemIDs))

	preAgg, preAge, preHas, preErr := c.preAgg.get(ctx, regionID, c.now)
	if preErr == nil && preHas {
		for _, id := range itemIDs {
			if q, ok := preAgg[id]; ok {
				out = append(out, PriceResult{
					ItemID:     id,
					Quote:      q,
					Source:     SourcePreAggregated,
					AgeSeconds: preAge,
					Freshness:  classify(SourcePreAggregated, preAge),
				})
				continue
			}
			missing = append(missing, id)
		}
	} else {
		missing = append(missing, itemIDs...)
	}
	if len(missing) == 0 {
		return out, nil
	}

	stillMissing := missing[:0:0]
	rawOrds, rawAge, rawHas, rawErr := c.rawOrds.get(ctx, regionID, c.now)
	if rawErr == nil && rawHas {
		for _, id := range missing {
			if q, ok := rawOrds[id]; ok {
				out = append(out, PriceResult{
					ItemID:     id,
					Quote:      q,
					Source:     SourceRawOrders,
					AgeSeconds: rawAge,
					Freshness:  classify(SourceRawOrders, rawAge),
				})
				continue
			}
			stillMissing = append(stillMissing, id)
		}
	} else {
		stillMissing = append(stillMissing, missing...)
	}
	if len(stillMissing) == 0 {
		return out, nil
	}

	if c.store != nil {
		nextMissing := stillMissing[:0:0]
		stored, err := c.store.GetAggregatesBatch(ctx, regionID, stillMissing)
		if err != nil {
			c.log.Warnf("market cache: persistent store lookup failed for region %d: %v", regionID, err)
			nextMissing = append(nextMissing, stillMissing...)
		} else {
			for _, id := range stillMissing {
				sides, ok := stored[id]
				if !ok {
					nextMissing = append(nextMissing, id)
					continue
				}
				age := c.now().Sub(firstUpdatedAt(sides)).Seconds()
				out = append(out, PriceResult{
					ItemID:     id,
					Quote:      sidedFromAggregates(sides),
					Source:     SourcePersistent,
					AgeSeconds: age,
					Freshness:  FreshnessStale,
					Warnings:   []string{"serving persisted aggregate, no live upstream data"},
				})
			}
		}
		stillMissing = nextMissing
	}

	for _, id := range stillMissing {
		out = append(out, PriceResult{
			ItemID:    id,
			Source:    SourceStale,
			Freshness: FreshnessStale,
			Warnings:  []string{"no pricing data available for this item in this region"},
		})
	}
	return out, nil
}

// RawOrdersOnly returns prices sourced strictly from the raw-order-book
// tier, aggregated on the fly, skipping the pre-aggregated upstream tier.
// This backs the market(action="orders") tool surface, which asks
// specifically for order-book-derived statistics rather than whatever
// tier happens to answer fastest.
func (c *Cache) RawOrdersOnly(ctx context.Context, regionID int32, itemIDs []int32) ([]PriceResult, error) {
	out := make([]PriceResult, 0, len(itemIDs))
	rawOrds, rawAge, rawHas, rawErr := c.rawOrds.get(ctx, regionID, c.now)
	if rawErr != nil {
		return nil, rawErr
	}
	for _, id := range itemIDs {
		if rawHas {
			if q, ok := rawOrds[id]; ok {
				out = append(out, PriceResult{
					ItemID:     id,
					Quote:      q,
					Source:     SourceRawOrders,
					AgeSeconds: rawAge,
					Freshness:  classify(SourceRawOrders, rawAge),
				})
				continue
			}
		}
		out = append(out, PriceResult{
			ItemID:    id,
			Source:    SourceStale,
			Freshness: FreshnessStale,
			Warnings:  []string{"no order-book data available for this item in this region"},
		})
	}
	return out, nil
}

func firstUpdatedAt(sides map[string]store.PriceAggregate) time.Time {
	for _, s := range sides {
		return s.UpdatedAt
	}
	return time.Time{}
}

func sidedFromAggregates(sides map[string]store.PriceAggregate) Sided {
	var out Sided
	if buy, ok := sides["buy"]; ok {
		out.Buy = quoteFromAggregate(buy)
	}
	if sell, ok := sides["sell"]; ok {
		out.Sell = quoteFromAggregate(sell)
	}
	return out
}

func quoteFromAggregate(a store.PriceAggregate) *Quote {
	return &Quote{
		WeightedAvg: a.WeightedAvg,
		Min:         a.Min,
		Max:         a.Max,
		Median:      a.Median,
		StdDev:      a.StdDev,
		Volume:      a.Volume,
		OrderCount:  a.OrderCount,
		Percentile:  a.Percentile,
	}
}

// ValuationItem is one line of a valuation request.
type ValuationItem struct {
	ItemID   int32
	Name     string
	Quantity int64
}

// ValuationLine is one item's contribution to a valuation
type ValuationLine struct {
	ItemID     int32
	Name       string
	Quantity   int64
	UnitPrice  float64
	LineTotal  float64
	Source     Source
	Confidence string // "high", "medium", "low"
}

// Valuation is the full breakdown of a valuation request.
type Valuation struct {
	Lines      []ValuationLine
	Total      float64
	Confidence string
	Warnings   []string
}

// Valuation computes a per-item breakdown, total, and confidence for a
// parsed list of items, pricing each against side ("buy" or "sell") in
// regionID. Per spec.md §4.5, overall confidence is "high" only if every
// line priced from a fresh source, "medium" if any line was merely recent,
// and "low" if any line was stale or had no price at all. An empty item
// list returns a zero total and empty breakdown
func (c *Cache) Valuation(ctx context.Context, regionID int32, items []ValuationItem, side string) (*Valuation, error) {
	if len(items) == 0 {
		return &Valuation{Lines: []ValuationLine{}, Confidence: "high"}, nil
	}
	ids := make([]int32, len(items))
	for i, it := range items {
		ids[i] = it.ItemID
	}
	prices, err := c.GetPrices(ctx, regionID, ids)
	if err != nil {
		return nil, err
	}
	byItem := make(map[int32]PriceResult, len(prices))
	for _, p := range prices {
		byItem[p.ItemID] = p
	}

	v := &Valuation{Lines: make([]ValuationLine, 0, len(items))}
	worst := "high"
	for _, item := range items {
		p, ok := byItem[item.ItemID]
		q := sideOf(p.Quote, side)
		if !ok || q == nil {
			v.Lines = append(v.Lines, ValuationLine{
				ItemID: item.ItemID, Name: item.Name, Quantity: item.Quantity,
				Source: SourceStale, Confidence: "low",
			})
			v.Warnings = append(v.Warnings, "no "+side+" price found for "+item.Name)
			worst = "low"
			continue
		}
		confidence := confidenceFor(p.Freshness)
		worst = worseConfidence(worst, confidence)
		v.Lines = append(v.Lines, ValuationLine{
			ItemID:     item.ItemID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  q.WeightedAvg,
			LineTotal:  q.WeightedAvg * float64(item.Quantity),
			Source:     p.Source,
			Confidence: confidence,
		})
		v.Total += q.WeightedAvg * float64(item.Quantity)
	}
	v.Confidence = worst
	return v, nil
}

func sideOf(s Sided, side string) *Quote {
	if side == "buy" {
		return s.Buy
	}
	return s.Sell
}

// confidenceFor maps a price's freshness directly to the confidence band
// spec.md §4.5 names for it.
func confidenceFor(freshness Freshness) string {
	switch freshness {
	case FreshnessFresh:
		return "high"
	case FreshnessRecent:
		return "medium"
	default:
		return "low"
	}
}

func worseConfidence(a, b string) string {
	rank := map[string]int{"high": 0, "medium": 1, "low": 2}
	if rank[a] >= rank[b] {
		return a
	}
	return b
}

// History returns the historical price series for one item in one region.
func (c *Cache) History(ctx context.Context, regionID, itemID int32) ([]HistoricalPoint, float64, Freshness, error) {
	data, age, has, err := c.history.get(ctx, regionID, c.now)
	if err != nil {
		return nil, 0, "", err
	}
	if !has {
		return nil, age, FreshnessStale, apperr.New(apperr.SourceUnavailable, "no historical data available", map[string]any{"region_id": regionID, "item_id": itemID})
	}
	return data[itemID], age, classify(SourcePreAggregated, age), nil
}

// Status is the status() diagnostic across all three regional layers.
func (c *Cache) Status() []RegionLayerStatus {
	now := c.now()
	var out []RegionLayerStatus
	out = append(out, c.preAgg.status(now)...)
	out = append(out, c.rawOrds.status(now)...)
	out = append(out, c.history.status(now)...)
	return out
}

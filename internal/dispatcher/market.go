package dispatcher

import (
	"context"

	"github.com/vitadek/starcharts/internal/apperr"
	"github.com/vitadek/starcharts/internal/marketcache"
	"github.com/vitadek/starcharts/internal/universe"
)

var marketActions = []string{"prices", "orders", "valuation", "spread", "history", "find_nearby"}

// ValuationItemRequest is one line of an explicit (as opposed to free-text)
// valuation request.
type ValuationItemRequest struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

// MarketRequest is the tagged-union request body for the market tool.
type MarketRequest struct {
	Action string `json:"action"`

	Region   string                 `json:"region,omitempty"`
	Items    []string               `json:"items,omitempty"`
	Item     string                 `json:"item,omitempty"`
	Side     string                 `json:"side,omitempty"`
	Text     string                 `json:"text,omitempty"`
	Lines    []ValuationItemRequest `json:"lines,omitempty"`
	Origin   string                 `json:"origin,omitempty"`
	MaxJumps int                    `json:"max_jumps,omitempty"`
	Limit    int                    `json:"limit,omitempty"`
}

func (d *Dispatcher) Market(ctx context.Context, req MarketRequest) (any, error) {
	requestID := newRequestID()
	d.logCall("market", req.Action, requestID)

	switch req.Action {
	case "prices":
		return d.marketPrices(ctx, req)
	case "orders":
		return d.marketOrders(ctx, req)
	case "valuation":
		return d.marketValuation(ctx, req)
	case "spread":
		return d.marketSpread(ctx, req)
	case "history":
		return d.marketHistory(ctx, req)
	case "find_nearby":
		return d.marketFindNearby(ctx, req)
	default:
		return nil, unknownAction("market", req.Action, marketActions)
	}
}

type quoteJSON struct {
	WeightedAvg float64 `json:"weighted_avg"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Median      float64 `json:"median"`
	StdDev      float64 `json:"stddev"`
	Volume      int64   `json:"volume"`
	OrderCount  int64   `json:"order_count"`
	Percentile  float64 `json:"percentile,omitempty"`
}

func toQuoteJSON(q *marketcache.Quote) *quoteJSON {
	if q == nil {
		return nil
	}
	return &quoteJSON{
		WeightedAvg: q.WeightedAvg, Min: q.Min, Max: q.Max, Median: q.Median,
		StdDev: q.StdDev, Volume: q.Volume, OrderCount: q.OrderCount, Percentile: q.Percentile,
	}
}

type priceResultJSON struct {
	ItemID     int32      `json:"item_id"`
	Buy        *quoteJSON `json:"buy"`
	Sell       *quoteJSON `json:"sell"`
	Source     string     `json:"source"`
	AgeSeconds float64    `json:"age_seconds"`
	Freshness  string     `json:"freshness"`
	SpreadISK  float64    `json:"spread_isk"`
	Warnings   []string   `json:"warnings,omitempty"`
}

func toPriceResultJSON(p marketcache.PriceResult) priceResultJSON {
	spread := 0.0
	if p.Quote.Sell != nil && p.Quote.Buy != nil {
		spread = p.Quote.Sell.Min - p.Quote.Buy.Max
		if spread < 0 {
			spread = 0
		}
	}
	return priceResultJSON{
		ItemID: p.ItemID, Buy: toQuoteJSON(p.Quote.Buy), Sell: toQuoteJSON(p.Quote.Sell),
		Source: string(p.Source), AgeSeconds: p.AgeSeconds, Freshness: string(p.Freshness),
		SpreadISK: spread, Warnings: p.Warnings,
	}
}

type pricesResponse struct {
	TotalFound      int               `json:"total_found"`
	CacheAgeSeconds float64           `json:"cache_age_seconds"`
	Freshness       string            `json:"freshness"`
	Results         []priceResultJSON `json:"results"`
}

func (d *Dispatcher) resolveRegion(name string) (int32, error) {
	regionID, ok := d.graph.RegionByName(name)
	if !ok {
		return 0, apperr.Invalid("region", "no such region name")
	}
	return regionID, nil
}

func (d *Dispatcher) resolveItemIDs(ctx context.Context, names []string) ([]int32, []string, error) {
	ids := make([]int32, 0, len(names))
	var warnings []string
	for _, name := range names {
		t, err := d.resolver.ResolveType(ctx, name)
		if err != nil {
			if ae, ok := apperr.As(err); ok && ae.Kind == apperr.TypeNotFound {
				warnings = append(warnings, "skipped unresolved item: "+name)
				continue
			}
			return nil, nil, err
		}
		ids = append(ids, t.ItemID)
	}
	return ids, warnings, nil
}

func aggregatePricesResponse(results []marketcache.PriceResult, extraWarnings []string) pricesResponse {
	out := make([]priceResultJSON, len(results))
	var maxAge float64
	var freshness string
	for i, r := range results {
		out[i] = toPriceResultJSON(r)
		if r.AgeSeconds > maxAge {
			maxAge = r.AgeSeconds
		}
		freshness = string(r.Freshness)
		if len(r.Warnings) > 0 {
			extraWarnings = append(extraWarnings, r.Warnings...)
		}
	}
	return pricesResponse{TotalFound: len(out), CacheAgeSeconds: maxAge, Freshness: freshness, Results: out}
}

func (d *Dispatcher) marketPrices(ctx context.Context, req MarketRequest) (any, error) {
	if err := requireNonEmpty("region", req.Region); err != nil {
		return nil, err
	}
	if err := requireNonEmptyList("items", req.Items); err != nil {
		return nil, err
	}
	regionID, err := d.resolveRegion(req.Region)
	if err != nil {
		return nil, err
	}
	ids, warnings, err := d.resolveItemIDs(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	results, err := d.market.GetPrices(ctx, regionID, ids)
	if err != nil {
		return nil, err
	}
	return aggregatePricesResponse(results, warnings), nil
}

func (d *Dispatcher) marketOrders(ctx context.Context, req MarketRequest) (any, error) {
	if err := requireNonEmpty("region", req.Region); err != nil {
		return nil, err
	}
	if err := requireNonEmptyList("items", req.Items); err != nil {
		return nil, err
	}
	regionID, err := d.resolveRegion(req.Region)
	if err != nil {
		return nil, err
	}
	ids, warnings, err := d.resolveItemIDs(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	results, err := d.market.RawOrdersOnly(ctx, regionID, ids)
	if err != nil {
		return nil, err
	}
	return aggregatePricesResponse(results, warnings), nil
}

// marketSpread is a thin, buy/sell-focused projection of the same
// fallback-chain prices "prices" already computes; kept as its own action
// because callers asking specifically for spread don't need the full
// quote breakdown per-action surface.
func (d *Dispatcher) marketSpread(ctx context.Context, req MarketRequest) (any, error) {
	res, err := d.marketPrices(ctx, req)
	if err != nil {
		return nil, err
	}
	full := res.(pricesResponse)
	type spreadEntry struct {
		ItemID    int32   `json:"item_id"`
		SpreadISK float64 `json:"spread_isk"`
		Freshness string  `json:"freshness"`
	}
	out := make([]spreadEntry, len(full.Results))
	for i, r := range full.Results {
		out[i] = spreadEntry{ItemID: r.ItemID, SpreadISK: r.SpreadISK, Freshness: r.Freshness}
	}
	return struct {
		TotalFound      int           `json:"total_found"`
		CacheAgeSeconds float64       `json:"cache_age_seconds"`
		Freshness       string        `json:"freshness"`
		Results         []spreadEntry `json:"results"`
	}{TotalFound: full.TotalFound, CacheAgeSeconds: full.CacheAgeSeconds, Freshness: full.Freshness, Results: out}, nil
}

type valuationLineJSON struct {
	ItemID     int32   `json:"item_id"`
	Name       string  `json:"name"`
	Quantity   int64   `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	LineTotal  float64 `json:"line_total"`
	Source     string  `json:"source"`
	Confidence string  `json:"confidence"`
}

type valuationResponse struct {
	Total      float64             `json:"total"`
	Confidence string              `json:"confidence"`
	Warnings   []string            `json:"warnings,omitempty"`
	Lines      []valuationLineJSON `json:"lines"`
}

func (d *Dispatcher) marketValuation(ctx context.Context, req MarketRequest) (any, error) {
	if err := requireNonEmpty("region", req.Region); err != nil {
		return nil, err
	}
	side := req.Side
	if side == "" {
		side = "sell"
	}
	if side != "buy" && side != "sell" {
		return nil, apperr.Invalid("side", "must be buy or sell")
	}
	regionID, err := d.resolveRegion(req.Region)
	if err != nil {
		return nil, err
	}

	var lines []marketcache.ParsedLine
	switch {
	case req.Text != "":
		lines = marketcache.ParseValuationText(req.Text)
	case len(req.Lines) > 0:
		for _, l := range req.Lines {
			lines = append(lines, marketcache.ParsedLine{Name: l.Name, Quantity: l.Quantity})
		}
	default:
		return nil, apperr.Invalid("lines", "either text or lines must be provided")
	}

	items, parseWarnings := marketcache.ResolveValuationItems(ctx, d.resolver, lines)
	val, err := d.market.Valuation(ctx, regionID, items, side)
	if err != nil {
		return nil, err
	}
	out := make([]valuationLineJSON, len(val.Lines))
	for i, l := range val.Lines {
		out[i] = valuationLineJSON{
			ItemID: l.ItemID, Name: l.Name, Quantity: l.Quantity, UnitPrice: l.UnitPrice,
			LineTotal: l.LineTotal, Source: string(l.Source), Confidence: l.Confidence,
		}
	}
	warnings := append(parseWarnings, val.Warnings...)
	return valuationResponse{Total: val.Total, Confidence: val.Confidence, Warnings: warnings, Lines: out}, nil
}

type historyPointJSON struct {
	Date       string  `json:"date"`
	Average    float64 `json:"average"`
	Highest    float64 `json:"highest"`
	Lowest     float64 `json:"lowest"`
	Volume     int64   `json:"volume"`
	OrderCount int64   `json:"order_count"`
}

type historyResponse struct {
	TotalFound      int                `json:"total_found"`
	CacheAgeSeconds float64            `json:"cache_age_seconds"`
	Freshness       string             `json:"freshness"`
	Points          []historyPointJSON `json:"points"`
}

func (d *Dispatcher) marketHistory(ctx context.Context, req MarketRequest) (any, error) {
	if err := requireNonEmpty("region", req.Region); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("item", req.Item); err != nil {
		return nil, err
	}
	regionID, err := d.resolveRegion(req.Region)
	if err != nil {
		return nil, err
	}
	t, err := d.resolver.ResolveType(ctx, req.Item)
	if err != nil {
		return nil, err
	}
	points, age, freshness, err := d.market.History(ctx, regionID, t.ItemID)
	if err != nil {
		return nil, err
	}
	out := make([]historyPointJSON, len(points))
	for i, p := range points {
		out[i] = historyPointJSON{Date: p.Date, Average: p.Average, Highest: p.Highest, Lowest: p.Lowest, Volume: p.Volume, OrderCount: p.OrderCount}
	}
	return historyResponse{TotalFound: len(out), CacheAgeSeconds: age, Freshness: string(freshness), Points: out}, nil
}

type nearbyPriceJSON struct {
	RegionName      string     `json:"region_name"`
	JumpsFromOrigin int        `json:"jumps_from_origin"`
	Buy             *quoteJSON `json:"buy"`
	Sell            *quoteJSON `json:"sell"`
	Source          string     `json:"source"`
	Freshness       string     `json:"freshness"`
}

type findNearbyResponse struct {
	TotalFound int               `json:"total_found"`
	Results    []nearbyPriceJSON `json:"results"`
}

// marketFindNearby locates the nearest systems (by jump distance from
// origin) whose region carries pricing data for item, sorted by distance
// ascending. Distinct regions only: once a region has been priced, closer
// systems in the same region add nothing new.
func (d *Dispatcher) marketFindNearby(ctx context.Context, req MarketRequest) (any, error) {
	if err := requireNonEmpty("origin", req.Origin); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("item", req.Item); err != nil {
		return nil, err
	}
	limit, err := resolveLimit(req.Limit)
	if err != nil {
		return nil, err
	}
	maxJumps, err := resolveMaxJumps(req.MaxJumps)
	if err != nil {
		return nil, err
	}
	t, err := d.resolver.ResolveType(ctx, req.Item)
	if err != nil {
		return nil, err
	}
	filter := universe.SystemSearchFilter{OriginName: req.Origin, MaxJumps: &maxJumps, Limit: limitMax}
	nearby, err := d.graph.SystemSearch(ctx, filter)
	if err != nil {
		return nil, err
	}

	var out []nearbyPriceJSON
	seenRegions := make(map[int32]bool)
	for _, r := range nearby {
		if len(out) >= limit {
			break
		}
		if seenRegions[r.System.RegionID] {
			continue
		}
		seenRegions[r.System.RegionID] = true
		prices, err := d.market.GetPrices(ctx, r.System.RegionID, []int32{t.ItemID})
		if err != nil || len(prices) == 0 {
			continue
		}
		p := prices[0]
		if p.Quote.Buy == nil && p.Quote.Sell == nil {
			continue
		}
		regionName, _ := d.graph.RegionName(r.System.RegionID)
		jumps := 0
		if r.JumpsFromOrigin != nil {
			jumps = *r.JumpsFromOrigin
		}
		out = append(out, nearbyPriceJSON{
			RegionName: regionName, JumpsFromOrigin: jumps,
			Buy: toQuoteJSON(p.Quote.Buy), Sell: toQuoteJSON(p.Quote.Sell),
			Source: string(p.Source), Freshness: string(p.Freshness),
		})
	}
	return findNearbyResponse{TotalFound: len(out), Results: out}, nil
}

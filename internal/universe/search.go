package universe

import (
	"context"
	"sort"

	"github.com/vitadek/starcharts/internal/apperr"
)

// BorderResult is one hit from BorderSearch.
type BorderResult struct {
	System         VertexInfo
	JumpsFromOrigin int
}

// BorderSearch returns up to limit border systems within maxJumps of
// origin, sorted by distance ascending then canonical name, per spec.md
// §4.3. It over-collects 3x limit candidates before truncating, so the
// distance ordering stays monotone with a stable tail even when many
// border systems share the same distance.
func (g *Graph) BorderSearch(ctx context.Context, originName string, limit, maxJumps int) ([]BorderResult, error) {
	origin, ok := g.SystemByName(originName)
	if !ok {
		return nil, apperr.NotFoundWithSuggestions(apperr.SystemNotFound, originName, g.SuggestNames(originName, 3))
	}
	originIdx := g.idToIndex[origin.ID]

	dist, _, err := g.bfsBounded(ctx, originIdx, maxJumps)
	if err != nil {
		return nil, err
	}

	overCollect := limit * 3
	type candidate struct {
		idx  int
		dist int
	}
	var candidates []candidate
	for idx, d := range dist {
		if d == unvisited {
			continue
		}
		if _, isBorder := g.border[idx]; !isBorder {
			continue
		}
		candidates = append(candidates, candidate{idx: idx, dist: d})
		if len(candidates) >= overCollect*4 {
			break // hard safety cap on a pathological universe
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return g.name[candidates[i].idx] < g.name[candidates[j].idx]
	})
	if len(candidates) > overCollect {
		candidates = candidates[:overCollect]
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]BorderResult, len(candidates))
	for i, c := range candidates {
		out[i] = BorderResult{System: g.vertexInfo(c.idx), JumpsFromOrigin: c.dist}
	}
	return out, nil
}

// SystemSearchFilter is the set of optional predicates for SystemSearch.
type SystemSearchFilter struct {
	SecurityMin   *float64
	SecurityMax   *float64
	RegionName    string
	BorderOnly    bool
	OriginName    string
	MaxJumps      *int
	Limit         int
}

// SystemSearchResult is one hit, including distance when an origin filter
// was supplied.
type SystemSearchResult struct {
	System          VertexInfo
	JumpsFromOrigin *int
}

// SystemSearch filters all systems by any combination of security range,
// region, border-only, and origin+max-jumps distance
// When MaxJumps is set, OriginName is required.
func (g *Graph) SystemSearch(ctx context.Context, filter SystemSearchFilter) ([]SystemSearchResult, error) {
	if filter.MaxJumps != nil && filter.OriginName == "" {
		return nil, apperr.Invalid("origin", "origin is required when max_jumps is set")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 100 {
		limit = 100
	}

	var dist []int
	if filter.OriginName != "" {
		origin, ok := g.SystemByName(filter.OriginName)
		if !ok {
			return nil, apperr.NotFoundWithSuggestions(apperr.SystemNotFound, filter.OriginName, g.SuggestNames(filter.OriginName, 3))
		}
		maxJumps := 50
		if filter.MaxJumps != nil {
			maxJumps = *filter.MaxJumps
		}
		var err error
		dist, _, err = g.bfsBounded(ctx, g.idToIndex[origin.ID], maxJumps)
		if err != nil {
			return nil, err
		}
	}

	var regionID int32
	hasRegionFilter := false
	if filter.RegionName != "" {
		id, ok := g.RegionByName(filter.RegionName)
		if !ok {
			return nil, apperr.New(apperr.InvalidParameter, "unknown region", map[string]any{"parameter": "region", "reason": "no such region name"})
		}
		regionID = id
		hasRegionFilter = true
	}

	n := len(g.systemID)
	var out []SystemSearchResult
	for idx := 0; idx < n; idx++ {
		if err := ctx.Err(); err != nil {
			return nil, apperr.New(apperr.Cancelled, "cancelled during search", map[string]any{"in_flight": "routing"})
		}
		if filter.SecurityMin != nil && g.security[idx] < *filter.SecurityMin {
			continue
		}
		if filter.SecurityMax != nil && g.security[idx] > *filter.SecurityMax {
			continue
		}
		if hasRegionFilter && g.regionID[idx] != regionID {
			continue
		}
		if filter.BorderOnly {
			if _, ok := g.border[idx]; !ok {
				continue
			}
		}
		var jumpsPtr *int
		if dist != nil {
			if dist[idx] == unvisited {
				continue
			}
			d := dist[idx]
			jumpsPtr = &d
		}
		out = append(out, SystemSearchResult{System: g.vertexInfo(idx), JumpsFromOrigin: jumpsPtr})
		if len(out) >= limit*4 {
			break // safety valve; final truncation to `limit` happens below after sort
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].JumpsFromOrigin != nil && out[j].JumpsFromOrigin != nil && *out[i].JumpsFromOrigin != *out[j].JumpsFromOrigin {
			return *out[i].JumpsFromOrigin < *out[j].JumpsFromOrigin
		}
		return out[i].System.Name < out[j].System.Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

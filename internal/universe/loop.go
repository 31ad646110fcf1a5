package universe

import (
	"context"
	"sort"

	"github.com/vitadek/starcharts/internal/apperr"
)

// LoopResult is a circular route starting and ending at the origin,
// touching a spatially diverse set of border systems
// "Loop planning".
type LoopResult struct {
	VertexPath            []int
	BorderSystemsVisited  []string
	TotalJumps            int
	DistinctSystems       int
	BacktrackJumps        int
	Efficiency            float64
}

// PlanLoop builds a circular route of approximately targetJumps total
// length over [minBorders, maxBorders] distinct border systems.
func (g *Graph) PlanLoop(ctx context.Context, originName string, targetJumps, minBorders, maxBorders int) (*LoopResult, error) {
	origin, ok := g.SystemByName(originName)
	if !ok {
		return nil, apperr.NotFoundWithSuggestions(apperr.SystemNotFound, originName, g.SuggestNames(originName, 3))
	}
	originIdx := g.idToIndex[origin.ID]

	// Step 1: enumerate border candidates within T/2 jumps, up to 3*max.
	halfRange := targetJumps / 2
	if halfRange < 1 {
		halfRange = 1
	}
	dist, _, err := g.bfsBounded(ctx, originIdx, halfRange)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		idx  int
		dist int
	}
	var candidates []candidate
	for idx, d := range dist {
		if d == unvisited || d == 0 {
			continue
		}
		if _, isBorder := g.border[idx]; !isBorder {
			continue
		}
		candidates = append(candidates, candidate{idx: idx, dist: d})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return g.name[candidates[i].idx] < g.name[candidates[j].idx]
	})
	overCollect := maxBorders * 3
	if len(candidates) > overCollect {
		candidates = candidates[:overCollect]
	}

	if len(candidates) < minBorders {
		return nil, apperr.New(apperr.Internal, "not enough border systems found for loop planning", map[string]any{
			"found":        len(candidates),
			"min_borders":  minBorders,
			"suggestion":   "increase target_jumps or decrease min_borders",
		})
	}

	// Step 2: greedily select a diverse subset by pairwise-distance maximization.
	distCache := make(map[[2]int]int)
	pairDist := func(a, b int) int {
		if a == b {
			return 0
		}
		key := [2]int{a, b}
		if a > b {
			key = [2]int{b, a}
		}
		if d, ok := distCache[key]; ok {
			return d
		}
		dFromA, _ := g.bfs(a)
		for _, c := range candidates {
			k := [2]int{a, c.idx}
			if a > c.idx {
				k = [2]int{c.idx, a}
			}
			distCache[k] = dFromA[c.idx]
		}
		dk := dFromA[b]
		distCache[key] = dk
		return dk
	}

	selected := []int{candidates[0].idx}
	remaining := make([]int, 0, len(candidates)-1)
	for _, c := range candidates[1:] {
		remaining = append(remaining, c.idx)
	}

	for len(selected) < maxBorders && len(remaining) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, apperr.New(apperr.Cancelled, "cancelled during loop candidate selection", map[string]any{"in_flight": "routing"})
		}
		bestIdx := -1
		bestMinDist := -1
		bestPos := -1
		for pos, r := range remaining {
			minD := -1
			for _, s := range selected {
				d := pairDist(r, s)
				if minD == -1 || d < minD {
					minD = d
				}
			}
			if minD > bestMinDist {
				bestMinDist = minD
				bestIdx = r
				bestPos = pos
			}
		}
		selected = append(selected, bestIdx)
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}

	// Step 3: nearest-neighbor TSP over {origin} U selected, seeded at origin.
	tour := []int{originIdx}
	unvisitedSet := make(map[int]bool, len(selected))
	for _, s := range selected {
		unvisitedSet[s] = true
	}
	current := originIdx
	for len(unvisitedSet) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, apperr.New(apperr.Cancelled, "cancelled during TSP construction", map[string]any{"in_flight": "routing"})
		}
		dFromCurrent, _ := g.bfs(current)
		best := -1
		bestDist := -1
		for cand := range unvisitedSet {
			d := dFromCurrent[cand]
			if bestDist == -1 || d < bestDist || (d == bestDist && g.name[cand] < g.name[best]) {
				bestDist = d
				best = cand
			}
		}
		tour = append(tour, best)
		delete(unvisitedSet, best)
		current = best
	}

	// Step 4: expand the tour into a full route, stitching shortest paths
	// between consecutive tour vertices, closing the loop back to origin
	// without duplicating shared endpoints.
	var fullPath []int
	for i := 0; i < len(tour); i++ {
		var from, to int
		if i == len(tour)-1 {
			from, to = tour[i], originIdx
		} else {
			from, to = tour[i], tour[i+1]
		}
		_, parent := g.bfs(from)
		seg := reconstructPath(parent, from, to)
		if seg == nil {
			return nil, apperr.New(apperr.RouteNotFound, "no path while expanding loop segment", map[string]any{
				"origin": g.name[from], "destination": g.name[to], "reason": "no_path",
			})
		}
		if len(fullPath) > 0 {
			seg = seg[1:] // avoid duplicating the shared endpoint
		}
		fullPath = append(fullPath, seg...)
	}

	totalJumps := len(fullPath) - 1
	distinctSet := make(map[int]struct{}, len(fullPath))
	for _, idx := range fullPath {
		distinctSet[idx] = struct{}{}
	}
	distinct := len(distinctSet)
	backtrack := totalJumps - distinct
	efficiency := 0.0
	if totalJumps > 0 {
		efficiency = float64(distinct) / float64(totalJumps)
	}

	borderNames := make([]string, len(selected))
	for i, s := range selected {
		borderNames[i] = g.name[s]
	}

	return &LoopResult{
		VertexPath:           fullPath,
		BorderSystemsVisited: borderNames,
		TotalJumps:           totalJumps,
		DistinctSystems:      distinct,
		BacktrackJumps:       backtrack,
		Efficiency:           efficiency,
	}, nil
}

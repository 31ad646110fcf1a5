package universe

import (
	"context"

	"github.com/vitadek/starcharts/internal/apperr"
)

// Mode selects the routing algorithm
type Mode string

const (
	ModeShortest Mode = "shortest"
	ModeSafe     Mode = "safe"
	ModeUnsafe   Mode = "unsafe"
)

// RouteResult is a vertex-sequence path plus the mode that produced it.
// The tool layer (see internal/dispatcher) expands this into full system
// info via Enrich.
type RouteResult struct {
	Mode       Mode
	OriginID   int32
	DestID     int32
	VertexPath []int // vertex indices, origin..dest inclusive
	Jumps      int
}

// Route computes a path between two canonical system names under the
// given mode. Unreachable destinations surface RouteNotFound with origin,
// destination, and reason="no_path"
func (g *Graph) Route(ctx context.Context, originName, destName string, mode Mode) (*RouteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.New(apperr.Cancelled, "cancelled before routing", map[string]any{"in_flight": "routing"})
	}

	origin, ok := g.SystemByName(originName)
	if !ok {
		return nil, apperr.NotFoundWithSuggestions(apperr.SystemNotFound, originName, g.SuggestNames(originName, 3))
	}
	dest, ok := g.SystemByName(destName)
	if !ok {
		return nil, apperr.NotFoundWithSuggestions(apperr.SystemNotFound, destName, g.SuggestNames(destName, 3))
	}

	originIdx := g.idToIndex[origin.ID]
	destIdx := g.idToIndex[dest.ID]

	var path []int
	switch mode {
	case ModeShortest, "":
		_, parent := g.bfs(originIdx)
		path = reconstructPath(parent, originIdx, destIdx)
	case ModeSafe:
		_, parent := g.dijkstra(originIdx, g.safeWeights)
		path = reconstructPath(parent, originIdx, destIdx)
	case ModeUnsafe:
		_, parent := g.dijkstra(originIdx, g.unsafeWeights)
		path = reconstructPath(parent, originIdx, destIdx)
	default:
		return nil, apperr.Invalid("mode", "must be one of shortest, safe, unsafe")
	}

	if path == nil {
		return nil, apperr.New(apperr.RouteNotFound, "no path between origin and destination", map[string]any{
			"origin":      origin.Name,
			"destination": dest.Name,
			"reason":      "no_path",
		})
	}

	return &RouteResult{
		Mode:       mode,
		OriginID:   origin.ID,
		DestID:     dest.ID,
		VertexPath: path,
		Jumps:      len(path) - 1,
	}, nil
}

// ShortestJumps is a convenience used by property tests and by the safe/
// unsafe route-quality sanity checks: unweighted BFS distance
// between two vertex indices.
func (g *Graph) ShortestJumps(originIdx, destIdx int) int {
	dist, _ := g.bfs(originIdx)
	return dist[destIdx]
}

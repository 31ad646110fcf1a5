package universe

import (
	"context"

	"github.com/vitadek/starcharts/internal/apperr"
)

const unvisited = -1

// bfs runs unweighted BFS from origin, returning per-vertex distance (or
// unvisited) and parent (-1 for origin/unreached). Ties are broken by the
// natural order of the adjacency list, which was sorted ascending at build
// time, making routes deterministic given the build.
func (g *Graph) bfs(origin int) (dist []int, parent []int) {
	n := len(g.systemID)
	dist = make([]int, n)
	parent = make([]int, n)
	for i := range dist {
		dist[i] = unvisited
		parent[i] = unvisited
	}
	dist[origin] = 0
	queue := make([]int, 0, n)
	queue = append(queue, origin)
	for head := 0; head < len(queue); head++ {
		u := queue[head]
		for _, v := range g.adjacency[u] {
			vi := int(v)
			if dist[vi] == unvisited {
				dist[vi] = dist[u] + 1
				parent[vi] = u
				queue = append(queue, vi)
			}
		}
	}
	return dist, parent
}

// bfsBounded runs BFS capped at maxJumps hops, honoring ctx at each
// frontier expansion (spec.md §5 cancellation-checkpoint requirement for
// bounded searches). Returns the same shape as bfs, with vertices beyond
// maxJumps left unvisited.
func (g *Graph) bfsBounded(ctx context.Context, origin int, maxJumps int) (dist []int, parent []int, err error) {
	n := len(g.systemID)
	dist = make([]int, n)
	parent = make([]int, n)
	for i := range dist {
		dist[i] = unvisited
		parent[i] = unvisited
	}
	dist[origin] = 0
	frontier := []int{origin}
	for jump := 0; jump < maxJumps && len(frontier) > 0; jump++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, apperr.New(apperr.Cancelled, "cancelled during bounded search", map[string]any{"in_flight": "routing"})
		}
		var next []int
		for _, u := range frontier {
			for _, v := range g.adjacency[u] {
				vi := int(v)
				if dist[vi] == unvisited {
					dist[vi] = dist[u] + 1
					parent[vi] = u
					next = append(next, vi)
				}
			}
		}
		frontier = next
	}
	return dist, parent, nil
}

func reconstructPath(parent []int, origin, dest int) []int {
	if dest != origin && parent[dest] == unvisited {
		return nil
	}
	var path []int
	for v := dest; ; {
		path = append(path, v)
		if v == origin {
			break
		}
		v = parent[v]
	}
	// reverse
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

package universe

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// computeWeights precomputes the per-edge weights for the safe and unsafe
// routing modes once per graph build, parallel to the adjacency arrays, so
// Dijkstra never recomputes a security-class lookup mid-search. Weight
// values are the heuristic constants from spec.md §4.3 and are treated as
// calibrated — see Design Notes §9 open question on the safe-mode weights.
//
// Each vertex's weight row is independent of every other, so the work is
// split into contiguous shards and computed concurrently with errgroup;
// a build-time cost, never on the read path a query blocks on.
func (g *Graph) computeWeights() {
	n := len(g.systemID)
	g.safeWeights = make([][]float64, n)
	g.unsafeWeights = make([][]float64, n)
	if n == 0 {
		return
	}

	shards := runtime.GOMAXPROCS(0)
	if shards > n {
		shards = n
	}
	if shards < 1 {
		shards = 1
	}
	chunk := (n + shards - 1) / shards

	var grp errgroup.Group
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		start, end := start, end
		grp.Go(func() error {
			g.computeWeightRange(start, end)
			return nil
		})
	}
	_ = grp.Wait() // no shard can fail; computeWeightRange never returns an error
}

func (g *Graph) computeWeightRange(start, end int) {
	for u := start; u < end; u++ {
		srcClass := ClassOf(g.security[u])
		neighbors := g.adjacency[u]
		safe := make([]float64, len(neighbors))
		unsafe := make([]float64, len(neighbors))
		for i, v := range neighbors {
			dstClass := ClassOf(g.security[v])
			safe[i] = safeWeight(srcClass, dstClass)
			unsafe[i] = unsafeWeight(dstClass)
		}
		g.safeWeights[u] = safe
		g.unsafeWeights[u] = unsafe
	}
}

// safeWeight implements spec.md §4.3 "safe" mode:
//
//	HIGH -> HIGH          = 1
//	HIGH -> LOW           = 50 (penalty for first entry into lowsec)
//	any  -> LOW (not from HIGH) = 10
//	any  -> NULL          = 100
func safeWeight(src, dst SecurityClass) float64 {
	switch dst {
	case ClassNull:
		return 100
	case ClassLow:
		if src == ClassHigh {
			return 50
		}
		return 10
	default: // ClassHigh
		return 1
	}
}

// unsafeWeight implements spec.md §4.3 "unsafe" mode, inverted relative to
// safe mode and independent of the source class:
//
//	any -> NULL = 1
//	any -> LOW  = 2
//	any -> HIGH = 10
func unsafeWeight(dst SecurityClass) float64 {
	switch dst {
	case ClassNull:
		return 1
	case ClassLow:
		return 2
	default:
		return 10
	}
}

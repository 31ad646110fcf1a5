package universe

import "container/heap"

type pqItem struct {
	vertex int
	dist   float64
	seq    int // insertion order, for deterministic tie-breaking
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].seq < pq[j].seq
}
func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)   { *pq = append(*pq, x.(*pqItem)) }
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// dijkstra runs weighted shortest path from origin using the precomputed
// weight arrays for the given mode (parallel to adjacency). Ties are
// broken by insertion sequence, which follows the adjacency list's natural
// (ascending vertex-index) order, keeping routes deterministic.
func (g *Graph) dijkstra(origin int, weights [][]float64) (dist []float64, parent []int) {
	n := len(g.systemID)
	dist = make([]float64, n)
	parent = make([]int, n)
	visited := make([]bool, n)
	for i := range dist {
		dist[i] = -1
		parent[i] = unvisited
	}
	dist[origin] = 0

	pq := &priorityQueue{}
	heap.Init(pq)
	seq := 0
	heap.Push(pq, &pqItem{vertex: origin, dist: 0, seq: seq})
	seq++

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*pqItem)
		u := item.vertex
		if visited[u] {
			continue
		}
		visited[u] = true

		for i, v := range g.adjacency[u] {
			vi := int(v)
			if visited[vi] {
				continue
			}
			w := weights[u][i]
			nd := dist[u] + w
			if dist[vi] == -1 || nd < dist[vi] {
				dist[vi] = nd
				parent[vi] = u
				seq++
				heap.Push(pq, &pqItem{vertex: vi, dist: nd, seq: seq})
			}
		}
	}
	return dist, parent
}

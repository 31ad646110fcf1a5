package universe

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/vitadek/starcharts/internal/apperr"
)

// sourceSystem and sourceGate are the shapes the single JSON cache (spec.md
// §4.3 "Build") is parsed from.
type sourceSystem struct {
	ID                int32   `json:"id"`
	Name              string  `json:"name"`
	Security          float64 `json:"security"`
	ConstellationID   int32   `json:"constellation_id"`
	ConstellationName string  `json:"constellation_name"`
	RegionID          int32   `json:"region_id"`
	RegionName        string  `json:"region_name"`
}

type sourceGate struct {
	From int32 `json:"from"`
	To   int32 `json:"to"`
}

type sourceUniverse struct {
	Version string         `json:"version"`
	Systems []sourceSystem `json:"systems"`
	Gates   []sourceGate   `json:"gates"`
}

// Build parses the JSON universe cache, deduplicates edges by canonical
// (min-index, max-index) ordering, sorts vertices by stable system id for
// reproducible indices, and computes membership sets and the border set in
// a single pass
func Build(jsonData []byte) (*Graph, error) {
	var src sourceUniverse
	if err := json.Unmarshal(jsonData, &src); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "parse universe JSON", err, nil)
	}
	if len(src.Systems) == 0 {
		return nil, apperr.New(apperr.Internal, "universe JSON has no systems", nil)
	}

	// Sort by stable system id for reproducible vertex indices.
	systems := append([]sourceSystem(nil), src.Systems...)
	sort.Slice(systems, func(i, j int) bool { return systems[i].ID < systems[j].ID })

	n := len(systems)
	g := &Graph{
		version:          src.Version,
		systemID:         make([]int32, n),
		name:             make([]string, n),
		security:         make([]float64, n),
		constellationID:  make([]int32, n),
		regionID:         make([]int32, n),
		adjacency:        make([][]int32, n),
		idToIndex:        make(map[int32]int, n),
		nameToIndex:      make(map[string]int, n),
		foldedToCanon:    make(map[string]string, n),
		constIDToName:    make(map[int32]string),
		regionIDToName:   make(map[int32]string),
		regionNameFold:   make(map[string]int32),
		highSet:          make(map[int]struct{}),
		lowSet:           make(map[int]struct{}),
		nullSet:          make(map[int]struct{}),
		border:           make(map[int]struct{}),
		regionToVertices: make(map[int32][]int),
	}
	if g.version == "" {
		g.version = "unversioned"
	}

	for idx, s := range systems {
		g.systemID[idx] = s.ID
		g.name[idx] = s.Name
		g.security[idx] = s.Security
		g.constellationID[idx] = s.ConstellationID
		g.regionID[idx] = s.RegionID

		g.idToIndex[s.ID] = idx
		g.nameToIndex[s.Name] = idx
		g.foldedToCanon[foldName(s.Name)] = s.Name

		if s.ConstellationName != "" {
			g.constIDToName[s.ConstellationID] = s.ConstellationName
		}
		if s.RegionName != "" {
			g.regionIDToName[s.RegionID] = s.RegionName
			g.regionNameFold[foldName(s.RegionName)] = s.RegionID
		}
		g.regionToVertices[s.RegionID] = append(g.regionToVertices[s.RegionID], idx)
	}

	// Deduplicate edges by canonical (min, max) vertex-index pair, then
	// build a bidirectional adjacency list.
	type edgeKey struct{ a, b int }
	seen := make(map[edgeKey]struct{}, len(src.Gates))
	adjSet := make([]map[int32]struct{}, n)
	for i := range adjSet {
		adjSet[i] = make(map[int32]struct{})
	}

	for _, gate := range src.Gates {
		fromIdx, ok1 := g.idToIndex[gate.From]
		toIdx, ok2 := g.idToIndex[gate.To]
		if !ok1 || !ok2 || fromIdx == toIdx {
			continue // dangling or self-loop gate reference; skip rather than fail the whole build
		}
		a, b := fromIdx, toIdx
		if a > b {
			a, b = b, a
		}
		key := edgeKey{a, b}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		adjSet[fromIdx][g.systemID[toIdx]] = struct{}{}
		adjSet[toIdx][g.systemID[fromIdx]] = struct{}{}
	}

	for idx := 0; idx < n; idx++ {
		neighbors := make([]int32, 0, len(adjSet[idx]))
		for sysID := range adjSet[idx] {
			neighbors = append(neighbors, sysID)
		}
		sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })
		// Store as vertex indices, sorted by index for deterministic BFS order.
		neighborIdx := make([]int32, len(neighbors))
		for i, sysID := range neighbors {
			neighborIdx[i] = int32(g.idToIndex[sysID])
		}
		sort.Slice(neighborIdx, func(i, j int) bool { return neighborIdx[i] < neighborIdx[j] })
		g.adjacency[idx] = neighborIdx
	}

	g.computeMembership()
	g.computeWeights()

	if err := g.validateInvariants(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) computeMembership() {
	n := len(g.systemID)
	for idx := 0; idx < n; idx++ {
		class := ClassOf(g.security[idx])
		switch class {
		case ClassHigh:
			g.highSet[idx] = struct{}{}
		case ClassLow:
			g.lowSet[idx] = struct{}{}
		default:
			g.nullSet[idx] = struct{}{}
		}
	}
	for idx := range g.highSet {
		for _, nb := range g.adjacency[idx] {
			if ClassOf(g.security[nb]) != ClassHigh {
				g.border[idx] = struct{}{}
				break
			}
		}
	}
}

func (g *Graph) validateInvariants() error {
	n := len(g.systemID)
	if len(g.name) != n || len(g.security) != n || len(g.constellationID) != n || len(g.regionID) != n || len(g.adjacency) != n {
		return apperr.New(apperr.Internal, "graph attribute arrays length mismatch", nil)
	}
	if len(g.highSet)+len(g.lowSet)+len(g.nullSet) != n {
		return apperr.New(apperr.Internal, "security class sets do not partition all vertices", nil)
	}
	for idx := range g.border {
		if _, ok := g.highSet[idx]; !ok {
			return apperr.New(apperr.Internal, fmt.Sprintf("border vertex %d is not HIGH", g.systemID[idx]), nil)
		}
		hasNonHigh := false
		for _, nb := range g.adjacency[idx] {
			if ClassOf(g.security[nb]) != ClassHigh {
				hasNonHigh = true
				break
			}
		}
		if !hasNonHigh {
			return apperr.New(apperr.Internal, fmt.Sprintf("border vertex %d has no non-HIGH neighbor", g.systemID[idx]), nil)
		}
	}
	for u, neighbors := range g.adjacency {
		for _, v := range neighbors {
			if int(v) < 0 || int(v) >= n {
				return apperr.New(apperr.Internal, "edge endpoint out of range", nil)
			}
			found := false
			for _, back := range g.adjacency[v] {
				if int(back) == u {
					found = true
					break
				}
			}
			if !found {
				return apperr.New(apperr.Internal, fmt.Sprintf("edge (%d,%d) is not bidirectional", g.systemID[u], g.systemID[int(v)]), nil)
			}
		}
	}
	for regionID, vertices := range g.regionToVertices {
		for _, idx := range vertices {
			if g.regionID[idx] != regionID {
				return apperr.New(apperr.Internal, "region vertex list contains mismatched region id", nil)
			}
		}
	}
	return nil
}

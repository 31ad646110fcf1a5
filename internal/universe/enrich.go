package universe

// VertexInfo is the per-system detail the tool layer serializes for each
// hop of a route "Route enrichment".
type VertexInfo struct {
	ID                   int32
	Name                 string
	Security             float64
	Class                SecurityClass
	ConstellationID      int32
	RegionID             int32
	Border               bool
	Neighbors            []NeighborInfo
	AdjacentNonHighNames []string
}

// NeighborInfo names an adjacent system and its security class.
type NeighborInfo struct {
	Name  string
	Class SecurityClass
}

// SecuritySummary totals the security classes along a route and names the
// riskiest system encountered.
type SecuritySummary struct {
	HighCount        int
	LowCount         int
	NullCount        int
	MinSecurity      float64
	MinSecuritySystem string
}

// Chokepoint is a HIGH<->non-HIGH transition along the route.
type Chokepoint struct {
	SystemName string
	Transition string // "entering_lowsec", "entering_nullsec", "entering_highsec"
}

// DangerZone is a maximal contiguous run of non-HIGH systems in the route.
type DangerZone struct {
	Start          string
	End            string
	Length         int
	LowestSecurity float64
}

// RouteWarnings is non-empty only for dangerous routes
type RouteWarnings struct {
	LowOrNullCount    int
	PipeSystems       []string
	SafeModeHasNonHigh bool
}

// EnrichedRoute is the full expansion of a vertex-sequence route.
type EnrichedRoute struct {
	Systems         []VertexInfo
	SecuritySummary SecuritySummary
	Chokepoints     []Chokepoint
	DangerZones     []DangerZone
	Warnings        *RouteWarnings
}

// Enrich expands a vertex-index path into full per-vertex info, a security
// summary, chokepoints, danger zones, and route warnings.
func (g *Graph) Enrich(path []int, requestedMode Mode) EnrichedRoute {
	systems := make([]VertexInfo, len(path))
	for i, idx := range path {
		systems[i] = g.vertexInfo(idx)
	}

	summary := SecuritySummary{MinSecurity: 2.0}
	for _, vi := range systems {
		switch vi.Class {
		case ClassHigh:
			summary.HighCount++
		case ClassLow:
			summary.LowCount++
		case ClassNull:
			summary.NullCount++
		}
		if vi.Security < summary.MinSecurity {
			summary.MinSecurity = vi.Security
			summary.MinSecuritySystem = vi.Name
		}
	}

	var chokepoints []Chokepoint
	for i := 1; i < len(systems); i++ {
		prevHigh := systems[i-1].Class == ClassHigh
		curHigh := systems[i].Class == ClassHigh
		if prevHigh && !curHigh {
			transition := "entering_lowsec"
			if systems[i].Class == ClassNull {
				transition = "entering_nullsec"
			}
			chokepoints = append(chokepoints, Chokepoint{SystemName: systems[i].Name, Transition: transition})
		} else if !prevHigh && curHigh {
			chokepoints = append(chokepoints, Chokepoint{SystemName: systems[i-1].Name, Transition: "entering_highsec"})
		}
	}

	var dangerZones []DangerZone
	i := 0
	for i < len(systems) {
		if systems[i].Class == ClassHigh {
			i++
			continue
		}
		start := i
		lowest := systems[i].Security
		for i < len(systems) && systems[i].Class != ClassHigh {
			if systems[i].Security < lowest {
				lowest = systems[i].Security
			}
			i++
		}
		dangerZones = append(dangerZones, DangerZone{
			Start:          systems[start].Name,
			End:            systems[i-1].Name,
			Length:         i - start,
			LowestSecurity: lowest,
		})
	}

	var warnings *RouteWarnings
	if summary.LowCount+summary.NullCount > 0 {
		w := &RouteWarnings{LowOrNullCount: summary.LowCount + summary.NullCount}
		for _, idx := range path {
			if ClassOf(g.security[idx]) != ClassHigh && len(g.adjacency[idx]) == 2 {
				w.PipeSystems = append(w.PipeSystems, g.name[idx])
			}
		}
		w.SafeModeHasNonHigh = requestedMode == ModeSafe
		warnings = w
	}

	return EnrichedRoute{
		Systems:         systems,
		SecuritySummary: summary,
		Chokepoints:     chokepoints,
		DangerZones:     dangerZones,
		Warnings:        warnings,
	}
}

func (g *Graph) vertexInfo(idx int) VertexInfo {
	neighbors := make([]NeighborInfo, len(g.adjacency[idx]))
	var adjacentNonHigh []string
	for i, nb := range g.adjacency[idx] {
		nbIdx := int(nb)
		class := ClassOf(g.security[nbIdx])
		neighbors[i] = NeighborInfo{Name: g.name[nbIdx], Class: class}
		if class != ClassHigh {
			adjacentNonHigh = append(adjacentNonHigh, g.name[nbIdx])
		}
	}
	return VertexInfo{
		ID:                   g.systemID[idx],
		Name:                 g.name[idx],
		Security:             g.security[idx],
		Class:                ClassOf(g.security[idx]),
		ConstellationID:      g.constellationID[idx],
		RegionID:             g.regionID[idx],
		Border:               g.IsBorder(idx),
		Neighbors:            neighbors,
		AdjacentNonHighNames: adjacentNonHigh,
	}
}

package dispatcher

import "github.com/vitadek/starcharts/internal/universe"

// The types below are the JSON-facing projections of internal/universe's
// Go-shaped return values. Kept separate
// from universe.VertexInfo so field names and omission rules are the tool
// surface's own contract, not whatever is convenient for the graph's
// internal representation — mirroring the wireX/domain-type split already
// used in internal/volatilecache and internal/marketcache.

type neighborJSON struct {
	Name  string `json:"name"`
	Class string `json:"class"`
}

type systemInfoJSON struct {
	ID                   int32          `json:"id"`
	Name                 string         `json:"name"`
	Security             float64        `json:"security"`
	Class                string         `json:"class"`
	ConstellationID      int32          `json:"constellation_id"`
	RegionID             int32          `json:"region_id"`
	Border               bool           `json:"border"`
	Neighbors            []neighborJSON `json:"neighbors"`
	AdjacentNonHighNames []string       `json:"adjacent_non_high"`
}

func toSystemInfoJSON(v universe.VertexInfo) systemInfoJSON {
	neighbors := make([]neighborJSON, len(v.Neighbors))
	for i, n := range v.Neighbors {
		neighbors[i] = neighborJSON{Name: n.Name, Class: string(n.Class)}
	}
	return systemInfoJSON{
		ID:                   v.ID,
		Name:                 v.Name,
		Security:             v.Security,
		Class:                string(v.Class),
		ConstellationID:      v.ConstellationID,
		RegionID:             v.RegionID,
		Border:               v.Border,
		Neighbors:            neighbors,
		AdjacentNonHighNames: v.AdjacentNonHighNames,
	}
}

type securitySummaryJSON struct {
	HighCount         int     `json:"high_count"`
	LowCount          int     `json:"low_count"`
	NullCount         int     `json:"null_count"`
	MinSecurity       float64 `json:"min_security"`
	MinSecuritySystem string  `json:"min_security_system"`
}

func toSecuritySummaryJSON(s universe.SecuritySummary) securitySummaryJSON {
	return securitySummaryJSON{
		HighCount:         s.HighCount,
		LowCount:          s.LowCount,
		NullCount:         s.NullCount,
		MinSecurity:       s.MinSecurity,
		MinSecuritySystem: s.MinSecuritySystem,
	}
}

type chokepointJSON struct {
	SystemName string `json:"system_name"`
	Transition string `json:"transition"`
}

type dangerZoneJSON struct {
	Start          string  `json:"start"`
	End            string  `json:"end"`
	Length         int     `json:"length"`
	LowestSecurity float64 `json:"lowest_security"`
}

type routeWarningsJSON struct {
	LowOrNullCount     int      `json:"low_or_null_count"`
	PipeSystems        []string `json:"pipe_systems,omitempty"`
	SafeModeHasNonHigh bool     `json:"safe_mode_has_non_high"`
}

// enrichedRouteJSON is the full expansion every route-shaped response
// embeds (route, analyze, gatecamp_risk, loop).
type enrichedRouteJSON struct {
	Systems         []systemInfoJSON    `json:"systems"`
	SecuritySummary securitySummaryJSON `json:"security_summary"`
	Chokepoints     []chokepointJSON    `json:"chokepoints,omitempty"`
	DangerZones     []dangerZoneJSON    `json:"danger_zones,omitempty"`
	Warnings        *routeWarningsJSON  `json:"warnings,omitempty"`
}

func toEnrichedRouteJSON(e universe.EnrichedRoute) enrichedRouteJSON {
	systems := make([]systemInfoJSON, len(e.Systems))
	for i, s := range e.Systems {
		systems[i] = toSystemInfoJSON(s)
	}
	chokepoints := make([]chokepointJSON, len(e.Chokepoints))
	for i, c := range e.Chokepoints {
		chokepoints[i] = chokepointJSON{SystemName: c.SystemName, Transition: c.Transition}
	}
	zones := make([]dangerZoneJSON, len(e.DangerZones))
	for i, z := range e.DangerZones {
		zones[i] = dangerZoneJSON{Start: z.Start, End: z.End, Length: z.Length, LowestSecurity: z.LowestSecurity}
	}
	var warnings *routeWarningsJSON
	if e.Warnings != nil {
		warnings = &routeWarningsJSON{
			LowOrNullCount:     e.Warnings.LowOrNullCount,
			PipeSystems:        e.Warnings.PipeSystems,
			SafeModeHasNonHigh: e.Warnings.SafeModeHasNonHigh,
		}
	}
	return enrichedRouteJSON{
		Systems:         systems,
		SecuritySummary: toSecuritySummaryJSON(e.SecuritySummary),
		Chokepoints:     chokepoints,
		DangerZones:     zones,
		Warnings:        warnings,
	}
}

// resolveSystemIDs resolves a list of canonical (or case-insensitive) system
// names to stable system ids, failing on the first unresolved name.
func resolveSystemIDs(g *universe.Graph, names []string) ([]int32, error) {
	ids := make([]int32, len(names))
	for i, name := range names {
		sys, ok := g.SystemByName(name)
		if !ok {
			return nil, notFoundSystem(g, name)
		}
		ids[i] = sys.ID
	}
	return ids, nil
}

func notFoundSystem(g *universe.Graph, name string) error {
	_, err := g.SystemInfo(name)
	return err
}

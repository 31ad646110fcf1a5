package dispatcher

import (
	"context"
	"sort"

	"github.com/vitadek/starcharts/internal/apperr"
	"github.com/vitadek/starcharts/internal/universe"
	"github.com/vitadek/starcharts/internal/volatilecache"
)

var universeActions = []string{
	"route", "systems", "borders", "search", "loop", "analyze",
	"nearest", "activity", "hotspots", "gatecamp_risk", "fw_frontlines", "local_area",
}

// UniverseRequest is the tagged-union request body for the universe tool,
// Not every field applies to every action; validation is
// performed per-action so an irrelevant field is simply ignored rather than
// rejected.
type UniverseRequest struct {
	Action string `json:"action"`

	Origin      string   `json:"origin,omitempty"`
	Destination string   `json:"destination,omitempty"`
	Mode        string   `json:"mode,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	MaxJumps    int      `json:"max_jumps,omitempty"`
	TargetJumps int      `json:"target_jumps,omitempty"`
	MinBorders  int      `json:"min_borders,omitempty"`
	MaxBorders  int      `json:"max_borders,omitempty"`
	SecurityMin *float64 `json:"security_min,omitempty"`
	SecurityMax *float64 `json:"security_max,omitempty"`
	Region      string   `json:"region,omitempty"`
	BorderOnly  bool     `json:"border_only,omitempty"`
	Systems     []string `json:"systems,omitempty"`
}

// Universe dispatches one of the twelve universe(action=...) operations
// spec.md §4.7 names.
func (d *Dispatcher) Universe(ctx context.Context, req UniverseRequest) (any, error) {
	requestID := newRequestID()
	d.logCall("universe", req.Action, requestID)

	switch req.Action {
	case "route":
		return d.universeRoute(ctx, req)
	case "systems":
		return d.universeSystems(ctx, req)
	case "borders":
		return d.universeBorders(ctx, req)
	case "search":
		return d.universeSearch(ctx, req)
	case "loop":
		return d.universeLoop(ctx, req)
	case "analyze":
		return d.universeAnalyze(ctx, req)
	case "nearest":
		return d.universeNearest(ctx, req)
	case "activity":
		return d.universeActivity(ctx, req)
	case "hotspots":
		return d.universeHotspots(ctx, req)
	case "gatecamp_risk":
		return d.universeGatecampRisk(ctx, req)
	case "fw_frontlines":
		return d.universeFWFrontlines(ctx, req)
	case "local_area":
		return d.universeLocalArea(ctx, req)
	default:
		return nil, unknownAction("universe", req.Action, universeActions)
	}
}

type routeResponse struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Mode        string `json:"mode"`
	Jumps       int    `json:"jumps"`
	enrichedRouteJSON
}

func (d *Dispatcher) universeRoute(ctx context.Context, req UniverseRequest) (any, error) {
	if err := requireNonEmpty("origin", req.Origin); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("destination", req.Destination); err != nil {
		return nil, err
	}
	mode, err := resolveMode(req.Mode)
	if err != nil {
		return nil, err
	}
	result, err := d.graph.Route(ctx, req.Origin, req.Destination, mode)
	if err != nil {
		return nil, err
	}
	enriched := d.graph.Enrich(result.VertexPath, mode)
	return routeResponse{
		Origin:            req.Origin,
		Destination:       req.Destination,
		Mode:              string(mode),
		Jumps:             result.Jumps,
		enrichedRouteJSON: toEnrichedRouteJSON(enriched),
	}, nil
}

type systemsResponse struct {
	TotalFound int              `json:"total_found"`
	Systems    []systemInfoJSON `json:"systems"`
}

// universeSystems lists every system in a named region, or returns a
// single system's info when Origin names one directly instead of Region.
func (d *Dispatcher) universeSystems(ctx context.Context, req UniverseRequest) (any, error) {
	if req.Region != "" {
		regionID, ok := d.graph.RegionByName(req.Region)
		if !ok {
			return nil, apperr.Invalid("region", "no such region name")
		}
		systems := d.graph.SystemsInRegion(regionID)
		out := make([]systemInfoJSON, len(systems))
		for i, s := range systems {
			info, err := d.graph.SystemInfo(s.Name)
			if err != nil {
				return nil, err
			}
			out[i] = toSystemInfoJSON(info)
		}
		return systemsResponse{TotalFound: len(out), Systems: out}, nil
	}
	if req.Origin != "" {
		info, err := d.graph.SystemInfo(req.Origin)
		if err != nil {
			return nil, err
		}
		return systemsResponse{TotalFound: 1, Systems: []systemInfoJSON{toSystemInfoJSON(info)}}, nil
	}
	return nil, apperr.Invalid("region", "either region or origin is required for the systems action")
}

type borderResultJSON struct {
	System          systemInfoJSON `json:"system"`
	JumpsFromOrigin int            `json:"jumps_from_origin"`
	AdjacentLowsec  []string       `json:"adjacent_lowsec"`
}

type bordersResponse struct {
	TotalFound int                 `json:"total_found"`
	Results    []borderResultJSON `json:"results"`
}

func (d *Dispatcher) universeBorders(ctx context.Context, req UniverseRequest) (any, error) {
	if err := requireNonEmpty("origin", req.Origin); err != nil {
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
	results, err := d.graph.BorderSearch(ctx, req.Origin, limit, maxJumps)
	if err != nil {
		return nil, err
	}
	out := make([]borderResultJSON, len(results))
	for i, r := range results {
		out[i] = borderResultJSON{
			System:          toSystemInfoJSON(r.System),
			JumpsFromOrigin: r.JumpsFromOrigin,
			AdjacentLowsec:  r.System.AdjacentNonHighNames,
		}
	}
	return bordersResponse{TotalFound: len(out), Results: out}, nil
}

type searchResultJSON struct {
	System          systemInfoJSON `json:"system"`
	JumpsFromOrigin *int           `json:"jumps_from_origin,omitempty"`
}

type searchResponse struct {
	TotalFound int                `json:"total_found"`
	Results    []searchResultJSON `json:"results"`
}

func (d *Dispatcher) universeSearch(ctx context.Context, req UniverseRequest) (any, error) {
	limit, err := resolveLimit(req.Limit)
	if err != nil {
		return nil, err
	}
	filter := universe.SystemSearchFilter{
		SecurityMin: req.SecurityMin,
		SecurityMax: req.SecurityMax,
		RegionName:  req.Region,
		BorderOnly:  req.BorderOnly,
		OriginName:  req.Origin,
		Limit:       limit,
	}
	if req.MaxJumps != 0 {
		maxJumps, err := resolveMaxJumps(req.MaxJumps)
		if err != nil {
			return nil, err
		}
		filter.MaxJumps = &maxJumps
	}
	results, err := d.graph.SystemSearch(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]searchResultJSON, len(results))
	for i, r := range results {
		out[i] = searchResultJSON{System: toSystemInfoJSON(r.System), JumpsFromOrigin: r.JumpsFromOrigin}
	}
	return searchResponse{TotalFound: len(out), Results: out}, nil
}

type loopResponse struct {
	BorderSystemsVisited []string `json:"border_systems_visited"`
	TotalJumps           int      `json:"total_jumps"`
	DistinctSystems      int      `json:"distinct_systems"`
	BacktrackJumps       int      `json:"backtrack_jumps"`
	Efficiency           float64  `json:"efficiency"`
	enrichedRouteJSON
}

func (d *Dispatcher) universeLoop(ctx context.Context, req UniverseRequest) (any, error) {
	if err := requireNonEmpty("origin", req.Origin); err != nil {
		return nil, err
	}
	targetJumps, err := resolveTargetJumps(req.TargetJumps)
	if err != nil {
		return nil, err
	}
	minBorders, err := resolveMinBorders(req.MinBorders)
	if err != nil {
		return nil, err
	}
	maxBorders, err := resolveMaxBorders(req.MaxBorders, minBorders)
	if err != nil {
		return nil, err
	}
	result, err := d.graph.PlanLoop(ctx, req.Origin, targetJumps, minBorders, maxBorders)
	if err != nil {
		return nil, err
	}
	enriched := d.graph.Enrich(result.VertexPath, universe.ModeShortest)
	return loopResponse{
		BorderSystemsVisited: result.BorderSystemsVisited,
		TotalJumps:           result.TotalJumps,
		DistinctSystems:      result.DistinctSystems,
		BacktrackJumps:       result.BacktrackJumps,
		Efficiency:           result.Efficiency,
		enrichedRouteJSON:    toEnrichedRouteJSON(enriched),
	}, nil
}

// universeAnalyze runs route-risk analysis over an explicit system
// sequence supplied by the caller (req.Systems), rather than one this
// dispatcher computed itself — useful when the caller already has a route
// (e.g. from the game client's own autopilot) and wants its risk profile.
func (d *Dispatcher) universeAnalyze(ctx context.Context, req UniverseRequest) (any, error) {
	if err := requireNonEmptyList("systems", req.Systems); err != nil {
		return nil, err
	}
	path, err := d.graph.VertexIndices(req.Systems)
	if err != nil {
		return nil, err
	}
	enriched := d.graph.Enrich(path, universe.ModeShortest)
	return toEnrichedRouteJSON(enriched), nil
}

func (d *Dispatcher) universeNearest(ctx context.Context, req UniverseRequest) (any, error) {
	if err := requireNonEmpty("origin", req.Origin); err != nil {
		return nil, err
	}
	limit := 1
	if req.Limit != 0 {
		var err error
		limit, err = resolveLimit(req.Limit)
		if err != nil {
			return nil, err
		}
	}
	var err error
	maxJumps := maxJumpsMax
	if req.MaxJumps != 0 {
		maxJumps, err = resolveMaxJumps(req.MaxJumps)
		if err != nil {
			return nil, err
		}
	}
	filter := universe.SystemSearchFilter{
		SecurityMin: req.SecurityMin,
		SecurityMax: req.SecurityMax,
		RegionName:  req.Region,
		BorderOnly:  req.BorderOnly,
		OriginName:  req.Origin,
		MaxJumps:    &maxJumps,
		Limit:       limit + 1,
	}
	results, err := d.graph.SystemSearch(ctx, filter)
	if err != nil {
		return nil, err
	}
	// The origin itself is distance 0 and always matches an unfiltered
	// search; nearest means the closest *other* system.
	filtered := results[:0]
	for _, r := range results {
		if r.System.Name == req.Origin {
			continue
		}
		filtered = append(filtered, r)
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	out := make([]searchResultJSON, len(filtered))
	for i, r := range filtered {
		out[i] = searchResultJSON{System: toSystemInfoJSON(r.System), JumpsFromOrigin: r.JumpsFromOrigin}
	}
	return searchResponse{TotalFound: len(out), Results: out}, nil
}

type activityResultJSON struct {
	SystemID      int32    `json:"system_id"`
	SystemName    string   `json:"system_name"`
	ShipKills     int      `json:"ship_kills"`
	PodKills      int      `json:"pod_kills"`
	NPCKills      int      `json:"npc_kills"`
	ShipJumps     int      `json:"ship_jumps"`
	ActivityLevel string   `json:"activity_level"`
	Warnings      []string `json:"warnings,omitempty"`
}

type activityResponse struct {
	TotalFound      int                  `json:"total_found"`
	CacheAgeSeconds float64              `json:"cache_age_seconds"`
	Freshness       string               `json:"freshness"`
	Results         []activityResultJSON `json:"results"`
}

func (d *Dispatcher) universeActivity(ctx context.Context, req UniverseRequest) (any, error) {
	if err := requireNonEmptyList("systems", req.Systems); err != nil {
		return nil, err
	}
	ids, err := resolveSystemIDs(d.graph, req.Systems)
	if err != nil {
		return nil, err
	}
	results, err := d.volatile.Activity(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]activityResultJSON, len(results))
	var maxAge float64
	var freshness string
	for i, r := range results {
		sys, _ := d.graph.SystemByID(r.SystemID)
		out[i] = activityResultJSON{
			SystemID: r.SystemID, SystemName: sys.Name,
			ShipKills: r.Record.ShipKills, PodKills: r.Record.PodKills,
			NPCKills: r.Record.NPCKills, ShipJumps: r.Record.ShipJumps,
			ActivityLevel: r.Record.ActivityLevel, Warnings: r.Warnings,
		}
		if r.CacheAgeSecs > maxAge {
			maxAge = r.CacheAgeSecs
		}
		freshness = string(r.Freshness)
	}
	return activityResponse{TotalFound: len(out), CacheAgeSeconds: maxAge, Freshness: freshness, Results: out}, nil
}

// universeHotspots ranks the systems of a required region by current
// activity, descending. Region is required (rather than defaulting to the
// whole graph) to keep the galaxy-wide activity scan bounded to a single
// administrative unit instead of querying thousands of systems per call.
func (d *Dispatcher) universeHotspots(ctx context.Context, req UniverseRequest) (any, error) {
	if err := requireNonEmpty("region", req.Region); err != nil {
		return nil, err
	}
	limit, err := resolveLimit(req.Limit)
	if err != nil {
		return nil, err
	}
	regionID, ok := d.graph.RegionByName(req.Region)
	if !ok {
		return nil, apperr.Invalid("region", "no such region name")
	}
	systems := d.graph.SystemsInRegion(regionID)
	ids := make([]int32, len(systems))
	for i, s := range systems {
		ids[i] = s.ID
	}
	results, err := d.volatile.Activity(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool {
		return activityScore(results[i]) > activityScore(results[j])
	})
	if len(results) > limit {
		results = results[:limit]
	}
	out := make([]activityResultJSON, len(results))
	var maxAge float64
	var freshness string
	for i, r := range results {
		sys, _ := d.graph.SystemByID(r.SystemID)
		out[i] = activityResultJSON{
			SystemID: r.SystemID, SystemName: sys.Name,
			ShipKills: r.Record.ShipKills, PodKills: r.Record.PodKills,
			NPCKills: r.Record.NPCKills, ShipJumps: r.Record.ShipJumps,
			ActivityLevel: r.Record.ActivityLevel,
		}
		if r.CacheAgeSecs > maxAge {
			maxAge = r.CacheAgeSecs
		}
		freshness = string(r.Freshness)
	}
	return activityResponse{TotalFound: len(out), CacheAgeSeconds: maxAge, Freshness: freshness, Results: out}, nil
}

func activityScore(r volatilecache.ActivityResult) int {
	return r.Record.ShipKills*3 + r.Record.PodKills + r.Record.NPCKills + r.Record.ShipJumps
}

type gatecampResponse struct {
	PipeSystems []string `json:"pipe_systems"`
	enrichedRouteJSON
}

// universeGatecampRisk computes a route the same way "route" does (or
// expands an explicit system list like "analyze") and surfaces just the
// pipe-system and danger-zone projection of its risk analysis.
func (d *Dispatcher) universeGatecampRisk(ctx context.Context, req UniverseRequest) (any, error) {
	var path []int
	var err error
	if len(req.Systems) > 0 {
		path, err = d.graph.VertexIndices(req.Systems)
	} else {
		if err := requireNonEmpty("origin", req.Origin); err != nil {
			return nil, err
		}
		if err := requireNonEmpty("destination", req.Destination); err != nil {
			return nil, err
		}
		mode, modeErr := resolveMode(req.Mode)
		if modeErr != nil {
			return nil, modeErr
		}
		result, routeErr := d.graph.Route(ctx, req.Origin, req.Destination, mode)
		if routeErr != nil {
			return nil, routeErr
		}
		path = result.VertexPath
	}
	if err != nil {
		return nil, err
	}
	enriched := d.graph.Enrich(path, universe.ModeShortest)
	var pipes []string
	if enriched.Warnings != nil {
		pipes = enriched.Warnings.PipeSystems
	}
	return gatecampResponse{PipeSystems: pipes, enrichedRouteJSON: toEnrichedRouteJSON(enriched)}, nil
}

type fwResultJSON struct {
	SystemID            int32  `json:"system_id"`
	SystemName          string `json:"system_name"`
	OwnerFactionID      int32  `json:"owner_faction_id"`
	OccupyingFactionID  int32  `json:"occupying_faction_id"`
	Contested           string `json:"contested"`
	VictoryPoints       int    `json:"victory_points"`
	VictoryPointsThresh int    `json:"victory_points_threshold"`
	IsContested         bool   `json:"is_contested"`
}

type fwResponse struct {
	TotalFound      int            `json:"total_found"`
	CacheAgeSeconds float64        `json:"cache_age_seconds"`
	Freshness       string         `json:"freshness"`
	Results         []fwResultJSON `json:"results"`
}

func (d *Dispatcher) universeFWFrontlines(ctx context.Context, req UniverseRequest) (any, error) {
	if err := requireNonEmptyList("systems", req.Systems); err != nil {
		return nil, err
	}
	ids, err := resolveSystemIDs(d.graph, req.Systems)
	if err != nil {
		return nil, err
	}
	records, age, freshness, _, err := d.volatile.FactionWarfareStatus(ctx, ids)
	if err != nil {
		return nil, err
	}
	var out []fwResultJSON
	for _, id := range ids {
		rec, ok := records[id]
		if !ok {
			continue
		}
		sys, _ := d.graph.SystemByID(id)
		out = append(out, fwResultJSON{
			SystemID: id, SystemName: sys.Name,
			OwnerFactionID: rec.OwnerFactionID, OccupyingFactionID: rec.OccupyingFactionID,
			Contested: rec.Contested, VictoryPoints: rec.VictoryPoints,
			VictoryPointsThresh: rec.VictoryPointsThresh,
			IsContested:         rec.Contested != "uncontested",
		})
	}
	return fwResponse{TotalFound: len(out), CacheAgeSeconds: age, Freshness: string(freshness), Results: out}, nil
}

type localAreaResponse struct {
	Center          systemInfoJSON       `json:"center"`
	TotalFound      int                  `json:"total_found"`
	CacheAgeSeconds float64              `json:"cache_age_seconds"`
	Freshness       string               `json:"freshness"`
	Nearby          []activityResultJSON `json:"nearby"`
}

// universeLocalArea is a composite survey of an origin system: its own
// info plus the merged activity of every system within max_jumps.
func (d *Dispatcher) universeLocalArea(ctx context.Context, req UniverseRequest) (any, error) {
	if err := requireNonEmpty("origin", req.Origin); err != nil {
		return nil, err
	}
	center, err := d.graph.SystemInfo(req.Origin)
	if err != nil {
		return nil, err
	}
	maxJumps := 3
	if req.MaxJumps != 0 {
		maxJumps, err = resolveMaxJumps(req.MaxJumps)
		if err != nil {
			return nil, err
		}
	}
	limit, err := resolveLimit(req.Limit)
	if err != nil {
		return nil, err
	}
	filter := universe.SystemSearchFilter{OriginName: req.Origin, MaxJumps: &maxJumps, Limit: limit}
	nearby, err := d.graph.SystemSearch(ctx, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]int32, len(nearby))
	for i, r := range nearby {
		ids[i] = r.System.ID
	}
	activity, err := d.volatile.Activity(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]activityResultJSON, len(activity))
	var maxAge float64
	var freshness string
	for i, r := range activity {
		sys, _ := d.graph.SystemByID(r.SystemID)
		out[i] = activityResultJSON{
			SystemID: r.SystemID, SystemName: sys.Name,
			ShipKills: r.Record.ShipKills, PodKills: r.Record.PodKills,
			NPCKills: r.Record.NPCKills, ShipJumps: r.Record.ShipJumps,
			ActivityLevel: r.Record.ActivityLevel,
		}
		if r.CacheAgeSecs > maxAge {
			maxAge = r.CacheAgeSecs
		}
		freshness = string(r.Freshness)
	}
	return localAreaResponse{
		Center: toSystemInfoJSON(center), TotalFound: len(out),
		CacheAgeSeconds: maxAge, Freshness: freshness, Nearby: out,
	}, nil
}

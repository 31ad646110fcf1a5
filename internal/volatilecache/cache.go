package volatilecache

import (
	"context"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vitadek/starcharts/internal/logging"
	"github.com/vitadek/starcharts/internal/upstream"
)

// KillRecord is one system's last-hour kill activity
type KillRecord struct {
	ShipKills int
	PodKills  int
	NPCKills  int
}

// JumpRecord is one system's last-hour ship-jump activity.
type JumpRecord struct {
	ShipJumps int
}

// FWRecord is one system's faction-warfare status
type FWRecord struct {
	OwnerFactionID      int32
	OccupyingFactionID  int32
	Contested           string // "uncontested", "contested", "vulnerable"
	VictoryPoints       int
	VictoryPointsThresh int
}

// ActivityRecord merges a system's kill and jump layers for the tool
// surface, plus a derived qualitative level (SUPPLEMENTED, spec.md §8
// scenario 6 names the field but not its thresholds).
type ActivityRecord struct {
	ShipKills      int
	PodKills       int
	NPCKills       int
	ShipJumps      int
	ActivityLevel  string
}

// ActivityLevel buckets total hourly activity into the five qualitative
// bands the tool surface reports. Thresholds are a documented single
// normalization path (Design Notes §9 open question: upstream rating
// scales vary; this repo picks one scale and documents it here).
func ActivityLevel(shipKills, podKills, npcKills, shipJumps int) string {
	total := shipKills*3 + podKills + npcKills + shipJumps
	switch {
	case total == 0:
		return "none"
	case total < 10:
		return "low"
	case total < 50:
		return "medium"
	case total < 200:
		return "high"
	default:
		return "extreme"
	}
}

const (
	killsTTL = 10 * time.Minute
	jumpsTTL = 10 * time.Minute
	fwTTL    = 30 * time.Minute
)

// Endpoints names the three galaxy-wide upstream URLs this cache refreshes
// from
type Endpoints struct {
	Kills           string
	Jumps           string
	FactionWarfare  string
}

// Cache is the single object holding the three independent layers, per
// spec.md §4.4. Constructed once and shared; injected into the dispatcher
// rather than reached for as a package global.
type Cache struct {
	kills *layer[KillRecord]
	jumps *layer[JumpRecord]
	fw    *layer[FWRecord]
	now   func() time.Time
}

// New builds a Cache wired to client for its three refresh endpoints.
func New(client *upstream.Client, endpoints Endpoints, log *logging.Loggers) *Cache {
	now := time.Now
	c := &Cache{now: now}
	c.kills = newLayer("kills", killsTTL, log, func(ctx context.Context) (map[int32]KillRecord, error) {
		return fetchKills(ctx, client, endpoints.Kills)
	})
	c.jumps = newLayer("jumps", jumpsTTL, log, func(ctx context.Context) (map[int32]JumpRecord, error) {
		return fetchJumps(ctx, client, endpoints.Jumps)
	})
	c.fw = newLayer("faction_warfare", fwTTL, log, func(ctx context.Context) (map[int32]FWRecord, error) {
		return fetchFW(ctx, client, endpoints.FactionWarfare)
	})
	return c
}

type wireKill struct {
	SystemID  int32 `json:"system_id"`
	ShipKills int   `json:"ship_kills"`
	PodKills  int   `json:"pod_kills"`
	NPCKills  int   `json:"npc_kills"`
}

type wireJump struct {
	SystemID  int32 `json:"system_id"`
	ShipJumps int   `json:"ship_jumps"`
}

type wireFW struct {
	SystemID            int32  `json:"system_id"`
	OwnerFactionID      int32  `json:"owner_faction_id"`
	OccupyingFactionID  int32  `json:"occupier_faction_id"`
	Contested           string `json:"contested"`
	VictoryPoints       int    `json:"victory_points"`
	VictoryPointsThresh int    `json:"victory_points_threshold"`
}

func fetchKills(ctx context.Context, client *upstream.Client, endpoint string) (map[int32]KillRecord, error) {
	body, _, err := client.Get(ctx, endpoint, url.Values{})
	if err != nil {
		return nil, err
	}
	var rows []wireKill
	if err := upstream.DecodeJSON(body, &rows); err != nil {
		return nil, err
	}
	out := make(map[int32]KillRecord, len(rows))
	for _, r := range rows {
		out[r.SystemID] = KillRecord{ShipKills: r.ShipKills, PodKills: r.PodKills, NPCKills: r.NPCKills}
	}
	return out, nil
}

func fetchJumps(ctx context.Context, client *upstream.Client, endpoint string) (map[int32]JumpRecord, error) {
	body, _, err := client.Get(ctx, endpoint, url.Values{})
	if err != nil {
		return nil, err
	}
	var rows []wireJump
	if err := upstream.DecodeJSON(body, &rows); err != nil {
		return nil, err
	}
	out := make(map[int32]JumpRecord, len(rows))
	for _, r := range rows {
		out[r.SystemID] = JumpRecord{ShipJumps: r.ShipJumps}
	}
	return out, nil
}

func fetchFW(ctx context.Context, client *upstream.Client, endpoint string) (map[int32]FWRecord, error) {
	body, _, err := client.Get(ctx, endpoint, url.Values{})
	if err != nil {
		return nil, err
	}
	var rows []wireFW
	if err := upstream.DecodeJSON(body, &rows); err != nil {
		return nil, err
	}
	out := make(map[int32]FWRecord, len(rows))
	for _, r := range rows {
		out[r.SystemID] = FWRecord{
			OwnerFactionID:      r.OwnerFactionID,
			OccupyingFactionID:  r.OccupyingFactionID,
			Contested:           r.Contested,
			VictoryPoints:       r.VictoryPoints,
			VictoryPointsThresh: r.VictoryPointsThresh,
		}
	}
	return out, nil
}

// ActivityResult is one system's merged kills+jumps view plus cache metadata.
type ActivityResult struct {
	SystemID      int32
	Record        ActivityRecord
	CacheAgeSecs  float64
	Freshness     Freshness
	Warnings      []string
}

// Activity returns the merged kills+jumps activity for the requested system
// ids, refreshing either layer if stale. Absence in either layer is
// semantically zero The two layers refresh independently,
// so a stale kills layer and a stale jumps layer are fetched concurrently
// rather than paying both refresh latencies back to back.
func (c *Cache) Activity(ctx context.Context, systemIDs []int32) ([]ActivityResult, error) {
	var kills map[int32]KillRecord
	var killsAge time.Duration
	var killsFresh Freshness
	var killsWarn []string

	var jumps map[int32]JumpRecord
	var jumpsAge time.Duration
	var jumpsFresh Freshness
	var jumpsWarn []string

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		var err error
		kills, killsAge, killsFresh, killsWarn, err = c.kills.get(gctx, c.now)
		return err
	})
	grp.Go(func() error {
		var err error
		jumps, jumpsAge, jumpsFresh, jumpsWarn, err = c.jumps.get(gctx, c.now)
		return err
	})
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	age := killsAge
	if jumpsAge > age {
		age = jumpsAge
	}
	freshness := worseFreshness(killsFresh, jumpsFresh)
	warnings := append(append([]string{}, killsWarn...), jumpsWarn...)

	out := make([]ActivityResult, len(systemIDs))
	for i, id := range systemIDs {
		k := kills[id]   // zero value if absent "absence is semantically zero"
		j := jumps[id]
		rec := ActivityRecord{
			ShipKills: k.ShipKills,
			PodKills:  k.PodKills,
			NPCKills:  k.NPCKills,
			ShipJumps: j.ShipJumps,
		}
		rec.ActivityLevel = ActivityLevel(rec.ShipKills, rec.PodKills, rec.NPCKills, rec.ShipJumps)
		out[i] = ActivityResult{
			SystemID:     id,
			Record:       rec,
			CacheAgeSecs: age.Seconds(),
			Freshness:    freshness,
			Warnings:     warnings,
		}
	}
	return out, nil
}

// FactionWarfareStatus returns faction-warfare status for the requested
// system ids.
func (c *Cache) FactionWarfareStatus(ctx context.Context, systemIDs []int32) (map[int32]FWRecord, float64, Freshness, []string, error) {
	data, age, freshness, warnings, err := c.fw.get(ctx, c.now)
	if err != nil {
		return nil, 0, "", nil, err
	}
	out := make(map[int32]FWRecord, len(systemIDs))
	for _, id := range systemIDs {
		if rec, ok := data[id]; ok {
			out[id] = rec
		}
	}
	return out, age.Seconds(), freshness, warnings, nil
}

// Status is the status() diagnostic: per layer, count,
// age, TTL, and staleness, with no I/O.
func (c *Cache) Status() []LayerStatus {
	now := c.now()
	return []LayerStatus{
		c.kills.status(now),
		c.jumps.status(now),
		c.fw.status(now),
	}
}

func worseFreshness(a, b Freshness) Freshness {
	rank := map[Freshness]int{FreshnessFresh: 0, FreshnessRecent: 1, FreshnessStale: 2}
	if rank[a] >= rank[b] {
		return a
	}
	return b
}

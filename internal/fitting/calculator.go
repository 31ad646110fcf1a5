package fitting

import (
	"strings"

	"github.com/vitadek/starcharts/internal/store"
)

// moduleKind buckets a resolved module name into the stat category it
// contributes to, by keyword, mirroring the teacher's
// pkg/game/mechanics.go approach of deriving numeric outcomes from a
// deterministic function of the input rather than a lookup table sourced
// from a real attribute database (none is in scope here).
type moduleKind int

const (
	kindOther moduleKind = iota
	kindTurret
	kindLauncher
	kindArmor
	kindShield
	kindCapacitor
	kindPropulsion
	kindDrone
)

var kindKeywords = map[moduleKind][]string{
	kindTurret:     {"autocannon", "artillery", "blaster", "railgun", "pulse laser", "beam laser"},
	kindLauncher:   {"launcher", "torpedo", "missile"},
	kindArmor:      {"plate", "armor", "hardener"},
	kindShield:     {"shield extender", "shield booster", "shield amplifier", "shield"},
	kindCapacitor:  {"capacitor battery", "capacitor power relay", "cap recharger"},
	kindPropulsion: {"afterburner", "microwarpdrive", "propulsion"},
	kindDrone:      {"warrior", "hobgoblin", "hornet", "drone"},
}

func classifyModule(name string) moduleKind {
	lower := strings.ToLower(name)
	// Check multi-word / more specific keywords before generic ones so
	// "shield extender" beats the bare "shield" fallback.
	for _, kind := range []moduleKind{kindShield, kindTurret, kindLauncher, kindArmor, kindCapacitor, kindPropulsion, kindDrone} {
		for _, kw := range kindKeywords[kind] {
			if strings.Contains(lower, kw) {
				return kind
			}
		}
	}
	return kindOther
}

// statSeed derives a deterministic pseudo-attribute in [0,1) from an item's
// name, using the same hash-then-normalize idiom as the teacher's
// GetEfficiency (pkg/game/mechanics.go): hash the name with the store
// package's existing BLAKE3 quick digest and fold the first bytes into a
// float. Reusing store.QuickDigest here (rather than importing blake3
// directly a second time) keeps the one hash-seeding idiom in one place.
func statSeed(name string) float64 {
	digest := store.QuickDigest([]byte(strings.ToLower(strings.TrimSpace(name))))
	var v uint32
	for i := 0; i < 8 && i < len(digest); i++ {
		v = v<<4 | uint32(hexNibble(digest[i]))
	}
	return float64(v) / float64(0xFFFFFFFF)
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return 0
	}
}

// shipBase is the hull-derived baseline every fit starts from, scaled by a
// seed derived from the ship's own name so that heavier-sounding hull
// classes (frigate vs. battleship) are not distinguished — this is a
// deliberately simplified placeholder, not a game-accurate hull table; see
// SPEC_FULL.md's note that the façade's contract (accept ship+modules+
// charges, return the listed derived stats) is what must be preserved, not
// the specific numbers.
type shipBase struct {
	shieldHP    float64
	armorHP     float64
	hullHP      float64
	capacitor   float64
	capRecharge float64
	powergrid   float64
	cpu         float64
}

func shipBaseStatsFor(name string) shipBase {
	seed := statSeed(name)
	return shipBase{
		shieldHP:    800 + seed*2200,
		armorHP:     700 + seed*2000,
		hullHP:      500 + seed*1500,
		capacitor:   400 + seed*1600,
		capRecharge: 120 + seed*360,
		powergrid:   30 + seed*170,
		cpu:         150 + seed*350,
	}
}

// moduleContribution is one resolved module's effect on the running totals,
// scaled by quantity and zeroed out (except resource usage, which an
// offline module still reserves grid/CPU for per EVE's own fitting rules)
// when offline.
type moduleContribution struct {
	dps             float64
	alphaDamage     float64
	armorHP         float64
	shieldHP        float64
	capacitorUse    float64 // GJ/s drawn while active
	powergridUsed   float64
	cpuUsed         float64
}

func contributionFor(name string, offline bool, quantity int) moduleContribution {
	seed := statSeed(name)
	kind := classifyModule(name)

	c := moduleContribution{
		powergridUsed: (5 + seed*25) * float64(quantity),
		cpuUsed:       (5 + seed*20) * float64(quantity),
	}
	if offline {
		return c
	}

	switch kind {
	case kindTurret:
		c.dps += (8 + seed*32) * float64(quantity)
		c.alphaDamage += (40 + seed*160) * float64(quantity)
		c.capacitorUse += (0.5 + seed*1.5) * float64(quantity)
	case kindLauncher:
		c.dps += (10 + seed*35) * float64(quantity)
		c.alphaDamage += (80 + seed*240) * float64(quantity)
	case kindArmor:
		c.armorHP += (300 + seed*1200) * float64(quantity)
	case kindShield:
		c.shieldHP += (250 + seed*1100) * float64(quantity)
		c.capacitorUse += (0.2 + seed*0.8) * float64(quantity)
	case kindCapacitor:
		// Capacitor support modules reduce net draw; modeled as a
		// negative contribution to capacitorUse.
		c.capacitorUse -= (0.3 + seed*1.2) * float64(quantity)
	case kindPropulsion:
		c.capacitorUse += (2 + seed*8) * float64(quantity)
	}
	return c
}

// Stats is the full derived-statistics result spec.md §4.8 names: damage
// output, effective hit points, capacitor, and resource usage.
type Stats struct {
	ShipType   string
	FitName    string
	DPS        float64
	AlphaDamage float64

	ShieldHP float64
	ArmorHP  float64
	HullHP   float64
	EHP      float64

	CapacitorCapacity float64
	CapacitorUsePerSec float64
	CapacitorStable    bool

	PowergridUsed  float64
	PowergridTotal float64
	CPUUsed        float64
	CPUTotal       float64

	Warnings []string
}

// computeStats folds a ship base and the per-module contributions of every
// resolved, non-skipped module into one Stats value.
func computeStats(shipType, fitName string, base shipBase, modules []moduleContribution, warnings []string) *Stats {
	s := &Stats{
		ShipType:       shipType,
		FitName:        fitName,
		ShieldHP:       base.shieldHP,
		ArmorHP:        base.armorHP,
		HullHP:         base.hullHP,
		CapacitorCapacity: base.capacitor,
		PowergridTotal: base.powergrid,
		CPUTotal:       base.cpu,
		Warnings:       warnings,
	}
	capRechargePerSec := base.capacitor / base.capRecharge
	for _, m := range modules {
		s.DPS += m.dps
		s.AlphaDamage += m.alphaDamage
		s.ArmorHP += m.armorHP
		s.ShieldHP += m.shieldHP
		s.CapacitorUsePerSec += m.capacitorUse
		s.PowergridUsed += m.powergridUsed
		s.CPUUsed += m.cpuUsed
	}
	s.EHP = s.ShieldHP + s.ArmorHP + s.HullHP
	s.CapacitorStable = s.CapacitorUsePerSec <= capRechargePerSec
	return s
}

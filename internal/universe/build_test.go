package universe

import (
	"testing"

	"github.com/vitadek/starcharts/internal/apperr"
)

func TestBuildRejectsEmptyUniverse(t *testing.T) {
	_, err := Build([]byte(`{"version":"v1","systems":[],"gates":[]}`))
	if err == nil {
		t.Fatal("expected error for empty system list")
	}
	ae, ok := apperr.As(err)
	if !ok || ae.Kind != apperr.Internal {
		t.Fatalf("expected Internal error, got %v", err)
	}
}

func TestBuildPartitionsEverySystem(t *testing.T) {
	g := mustBuildFixture()
	total := len(g.highSet) + len(g.lowSet) + len(g.nullSet)
	if total != g.VertexCount() {
		t.Fatalf("security classes do not partition all vertices: %d of %d", total, g.VertexCount())
	}
	for idx := 0; idx < g.VertexCount(); idx++ {
		seen := 0
		if _, ok := g.highSet[idx]; ok {
			seen++
		}
		if _, ok := g.lowSet[idx]; ok {
			seen++
		}
		if _, ok := g.nullSet[idx]; ok {
			seen++
		}
		if seen != 1 {
			t.Fatalf("vertex %d belongs to %d security sets, want exactly 1", idx, seen)
		}
	}
}

func TestBuildBorderSetIsAmarrAndPerimeter(t *testing.T) {
	g := mustBuildFixture()
	for _, name := range []string{"Amarr", "Perimeter"} {
		sys, ok := g.SystemByName(name)
		if !ok {
			t.Fatalf("%s not found", name)
		}
		if !g.IsBorder(g.idToIndex[sys.ID]) {
			t.Fatalf("%s should be a border system (HIGH with a non-HIGH neighbor)", name)
		}
	}
	for _, name := range []string{"Jita", "Lowsec1", "Nullsec1", "Nullsec2"} {
		s, _ := g.SystemByName(name)
		if g.IsBorder(g.idToIndex[s.ID]) {
			t.Fatalf("%s should not be a border system", name)
		}
	}
}

func TestBuildEdgesAreBidirectional(t *testing.T) {
	g := mustBuildFixture()
	for u, neighbors := range g.adjacency {
		for _, v := range neighbors {
			found := false
			for _, back := range g.adjacency[v] {
				if int(back) == u {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("edge %d->%d has no reverse edge", u, v)
			}
		}
	}
}

func TestBuildDedupesParallelGates(t *testing.T) {
	dup := `{"version":"v1","systems":[
		{"id":1,"name":"A","security":0.9,"constellation_id":1,"region_id":1},
		{"id":2,"name":"B","security":0.9,"constellation_id":1,"region_id":1}
	],"gates":[{"from":1,"to":2},{"from":2,"to":1},{"from":1,"to":2}]}`
	g, err := Build([]byte(dup))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.adjacency[0]) != 1 || len(g.adjacency[1]) != 1 {
		t.Fatalf("expected exactly one deduplicated edge, got adjacency %v / %v", g.adjacency[0], g.adjacency[1])
	}
}

func TestBuildVertexIndicesAreReproducible(t *testing.T) {
	g1 := mustBuildFixture()
	g2 := mustBuildFixture()
	for i := range g1.systemID {
		if g1.systemID[i] != g2.systemID[i] || g1.name[i] != g2.name[i] {
			t.Fatalf("vertex index %d is not reproducible across builds", i)
		}
	}
}

func TestRegionIndexConsistency(t *testing.T) {
	g := mustBuildFixture()
	for regionID, vertices := range g.regionToVertices {
		for _, idx := range vertices {
			if g.regionID[idx] != regionID {
				t.Fatalf("region %d vertex list contains vertex %d with region %d", regionID, idx, g.regionID[idx])
			}
		}
	}
}

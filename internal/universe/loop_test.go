package universe

import (
	"context"
	"testing"

	"github.com/vitadek/starcharts/internal/apperr"
)

func TestPlanLoopStartsAndEndsAtOrigin(t *testing.T) {
	g := mustBuildFixture()
	result, err := g.PlanLoop(context.Background(), "Jita", 4, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	origin, _ := g.SystemByName("Jita")
	originIdx := g.idToIndex[origin.ID]
	if result.VertexPath[0] != originIdx {
		t.Fatal("loop does not start at origin")
	}
	if result.VertexPath[len(result.VertexPath)-1] != originIdx {
		t.Fatal("loop does not end at origin")
	}
}

func TestPlanLoopVisitsOnlyBorderSystems(t *testing.T) {
	g := mustBuildFixture()
	result, err := g.PlanLoop(context.Background(), "Jita", 4, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range result.BorderSystemsVisited {
		sys, ok := g.SystemByName(name)
		if !ok || !g.IsBorder(g.idToIndex[sys.ID]) {
			t.Fatalf("loop claims to visit %s as a border system but it is not", name)
		}
	}
	if len(result.BorderSystemsVisited) != 1 || result.BorderSystemsVisited[0] != "Perimeter" {
		t.Fatalf("expected exactly [Perimeter], the nearest border from Jita in this fixture, got %v", result.BorderSystemsVisited)
	}
}

func TestPlanLoopMetricsAreConsistent(t *testing.T) {
	g := mustBuildFixture()
	result, err := g.PlanLoop(context.Background(), "Jita", 4, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalJumps != len(result.VertexPath)-1 {
		t.Fatalf("total jumps %d does not match path length %d", result.TotalJumps, len(result.VertexPath))
	}
	distinctSet := make(map[int]struct{})
	for _, idx := range result.VertexPath {
		distinctSet[idx] = struct{}{}
	}
	if result.DistinctSystems != len(distinctSet) {
		t.Fatalf("distinct systems %d does not match actual distinct vertex count %d", result.DistinctSystems, len(distinctSet))
	}
	if result.BacktrackJumps != result.TotalJumps-result.DistinctSystems {
		t.Fatalf("backtrack jumps inconsistent: %d != %d - %d", result.BacktrackJumps, result.TotalJumps, result.DistinctSystems)
	}
	wantEfficiency := float64(result.DistinctSystems) / float64(result.TotalJumps)
	if result.Efficiency != wantEfficiency {
		t.Fatalf("efficiency %f does not match distinct/total %f", result.Efficiency, wantEfficiency)
	}
}

func TestPlanLoopNotEnoughBordersIsReported(t *testing.T) {
	g := mustBuildFixture()
	_, err := g.PlanLoop(context.Background(), "Jita", 4, 5, 5)
	if err == nil {
		t.Fatal("expected error when minBorders exceeds reachable border systems")
	}
	ae, ok := apperr.As(err)
	if !ok || ae.Kind != apperr.Internal {
		t.Fatalf("expected Internal error describing insufficient borders, got %v", err)
	}
}

func TestPlanLoopHonorsCancellation(t *testing.T) {
	g := mustBuildFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.PlanLoop(ctx, "Jita", 4, 1, 1)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	ae, ok := apperr.As(err)
	if !ok || ae.Kind != apperr.Cancelled {
		t.Fatalf("expected Cancelled error, got %v", err)
	}
}

func TestPlanLoopUnknownOrigin(t *testing.T) {
	g := mustBuildFixture()
	_, err := g.PlanLoop(context.Background(), "Nowhere", 4, 1, 1)
	if err == nil {
		t.Fatal("expected SystemNotFound for unknown origin")
	}
	ae, ok := apperr.As(err)
	if !ok || ae.Kind != apperr.SystemNotFound {
		t.Fatalf("expected SystemNotFound, got %v", err)
	}
}

package dispatcher

import (
	"context"
	"net/http"
	"testing"
)

func TestUniverseRouteHappyPath(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	res, err := h.dispatcher.Universe(context.Background(), UniverseRequest{
		Action: "route", Origin: "Jita", Destination: "Amarr",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	route, ok := res.(routeResponse)
	if !ok {
		t.Fatalf("unexpected result type %T", res)
	}
	if route.Jumps != 2 {
		t.Errorf("expected 2 jumps Jita->Perimeter->Amarr, got %d", route.Jumps)
	}
	if len(route.Systems) != 3 {
		t.Errorf("expected 3 systems on the route, got %d", len(route.Systems))
	}
}

func TestUniverseRouteMissingDestinationIsInvalidParameter(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	_, err := h.dispatcher.Universe(context.Background(), UniverseRequest{Action: "route", Origin: "Jita"})
	if errCode(err) != "InvalidParameter" {
		t.Fatalf("expected InvalidParameter, got %v", err)
	}
}

func TestUniverseUnknownActionIsInvalidParameter(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	_, err := h.dispatcher.Universe(context.Background(), UniverseRequest{Action: "does_not_exist"})
	if errCode(err) != "InvalidParameter" {
		t.Fatalf("expected InvalidParameter, got %v", err)
	}
}

func TestUniverseSystemsByRegion(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	res, err := h.dispatcher.Universe(context.Background(), UniverseRequest{Action: "systems", Region: "The Forge"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sys := res.(systemsResponse)
	if sys.TotalFound != 2 {
		t.Errorf("expected 2 systems in The Forge, got %d", sys.TotalFound)
	}
}

func TestUniverseSystemsRequiresRegionOrOrigin(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	_, err := h.dispatcher.Universe(context.Background(), UniverseRequest{Action: "systems"})
	if errCode(err) != "InvalidParameter" {
		t.Fatalf("expected InvalidParameter, got %v", err)
	}
}

func TestUniverseBordersFindsAmarr(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	res, err := h.dispatcher.Universe(context.Background(), UniverseRequest{
		Action: "borders", Origin: "Jita", Limit: 5, MaxJumps: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	borders := res.(bordersResponse)
	found := false
	for _, b := range borders.Results {
		if b.System.Name == "Amarr" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected Amarr among border results, got %+v", borders.Results)
	}
}

func TestUniverseSearchRejectsMaxJumpsWithoutOrigin(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	_, err := h.dispatcher.Universe(context.Background(), UniverseRequest{Action: "search", MaxJumps: 5})
	if errCode(err) != "InvalidParameter" {
		t.Fatalf("expected InvalidParameter, got %v", err)
	}
}

func TestUniverseAnalyzeRequiresSystems(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	_, err := h.dispatcher.Universe(context.Background(), UniverseRequest{Action: "analyze"})
	if errCode(err) != "InvalidParameter" {
		t.Fatalf("expected InvalidParameter, got %v", err)
	}
}

func TestUniverseAnalyzeExplicitPath(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	res, err := h.dispatcher.Universe(context.Background(), UniverseRequest{
		Action: "analyze", Systems: []string{"Jita", "Perimeter", "Nullsec1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	enriched := res.(enrichedRouteJSON)
	if len(enriched.Systems) != 3 {
		t.Errorf("expected 3 systems, got %d", len(enriched.Systems))
	}
}

func TestUniverseAnalyzeUnknownSystemIsNotFound(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	_, err := h.dispatcher.Universe(context.Background(), UniverseRequest{
		Action: "analyze", Systems: []string{"Jita", "Nowhereville"},
	})
	if errCode(err) != "SystemNotFound" {
		t.Fatalf("expected SystemNotFound, got %v", err)
	}
}

func TestUniverseNearestDefaultsToOneExcludingOrigin(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	res, err := h.dispatcher.Universe(context.Background(), UniverseRequest{Action: "nearest", Origin: "Jita"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	search := res.(searchResponse)
	if len(search.Results) != 1 {
		t.Fatalf("expected exactly 1 nearest result, got %d", len(search.Results))
	}
	if search.Results[0].System.Name == "Jita" {
		t.Errorf("nearest must not include the origin itself")
	}
}

func TestUniverseActivityRequiresSystems(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	_, err := h.dispatcher.Universe(context.Background(), UniverseRequest{Action: "activity"})
	if errCode(err) != "InvalidParameter" {
		t.Fatalf("expected InvalidParameter, got %v", err)
	}
}

func TestUniverseActivityAbsenceIsZero(t *testing.T) {
	h := newTestHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/kills":
			writeJSON(w, []map[string]any{})
		case "/jumps":
			writeJSON(w, []map[string]any{})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	res, err := h.dispatcher.Universe(context.Background(), UniverseRequest{Action: "activity", Systems: []string{"Jita"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	activity := res.(activityResponse)
	if activity.Results[0].ActivityLevel != "none" {
		t.Errorf("expected activity level none for unseen system, got %s", activity.Results[0].ActivityLevel)
	}
}

func TestUniverseHotspotsRequiresRegion(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	_, err := h.dispatcher.Universe(context.Background(), UniverseRequest{Action: "hotspots"})
	if errCode(err) != "InvalidParameter" {
		t.Fatalf("expected InvalidParameter, got %v", err)
	}
}

func TestUniverseGatecampRiskFromRoute(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	res, err := h.dispatcher.Universe(context.Background(), UniverseRequest{
		Action: "gatecamp_risk", Origin: "Jita", Destination: "Nullsec2",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gc := res.(gatecampResponse)
	if len(gc.Systems) == 0 {
		t.Errorf("expected a non-empty enriched path")
	}
}

func TestUniverseFWFrontlinesRequiresSystems(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	_, err := h.dispatcher.Universe(context.Background(), UniverseRequest{Action: "fw_frontlines"})
	if errCode(err) != "InvalidParameter" {
		t.Fatalf("expected InvalidParameter, got %v", err)
	}
}

func TestUniverseLocalAreaRequiresOrigin(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	_, err := h.dispatcher.Universe(context.Background(), UniverseRequest{Action: "local_area"})
	if errCode(err) != "InvalidParameter" {
		t.Fatalf("expected InvalidParameter, got %v", err)
	}
}

func TestUniverseLocalAreaComposesCenterAndNearby(t *testing.T) {
	h := newTestHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/kills", "/jumps":
			writeJSON(w, []map[string]any{})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	res, err := h.dispatcher.Universe(context.Background(), UniverseRequest{Action: "local_area", Origin: "Jita", MaxJumps: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	local := res.(localAreaResponse)
	if local.Center.Name != "Jita" {
		t.Errorf("expected center Jita, got %s", local.Center.Name)
	}
}

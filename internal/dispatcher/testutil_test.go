package dispatcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vitadek/starcharts/internal/fitting"
	"github.com/vitadek/starcharts/internal/logging"
	"github.com/vitadek/starcharts/internal/marketcache"
	"github.com/vitadek/starcharts/internal/resolver"
	"github.com/vitadek/starcharts/internal/store"
	"github.com/vitadek/starcharts/internal/universe"
	"github.com/vitadek/starcharts/internal/upstream"
	"github.com/vitadek/starcharts/internal/volatilecache"
)

// fixtureGraphJSON mirrors internal/universe's own test fixture shape (a
// high-sec chain, one border system, a low-sec pipe, and a null-sec
// pocket), redefined here since that package's fixture is unexported.
const fixtureGraphJSON = `{
  "version": "dispatcher-test-fixture",
  "systems": [
    {"id": 1, "name": "Jita", "security": 0.9, "constellation_id": 10, "constellation_name": "Kimotoro", "region_id": 100, "region_name": "The Forge"},
    {"id": 2, "name": "Perimeter", "security": 0.5, "constellation_id": 10, "constellation_name": "Kimotoro", "region_id": 100, "region_name": "The Forge"},
    {"id": 3, "name": "Amarr", "security": 0.9, "constellation_id": 20, "constellation_name": "Throne Worlds", "region_id": 200, "region_name": "Domain"},
    {"id": 4, "name": "Lowsec1", "security": 0.3, "constellation_id": 30, "constellation_name": "Borderland", "region_id": 300, "region_name": "Border Region"},
    {"id": 5, "name": "Nullsec1", "security": -0.1, "constellation_id": 40, "constellation_name": "Deep", "region_id": 400, "region_name": "Deep Space"},
    {"id": 6, "name": "Nullsec2", "security": 0.0, "constellation_id": 40, "constellation_name": "Deep", "region_id": 400, "region_name": "Deep Space"}
  ],
  "gates": [
    {"from": 1, "to": 2},
    {"from": 2, "to": 3},
    {"from": 3, "to": 4},
    {"from": 4, "to": 5},
    {"from": 5, "to": 6},
    {"from": 2, "to": 5}
  ]
}`

// testHarness wires one Dispatcher against a small fixture graph, an
// in-memory store seeded with a couple of item types, and a single
// httptest.Server standing in for every upstream endpoint the volatile and
// market caches refresh from.
type testHarness struct {
	t          *testing.T
	dispatcher *Dispatcher
	srv        *httptest.Server
}

func newTestHarness(t *testing.T, handler http.HandlerFunc) *testHarness {
	t.Helper()
	graph, err := universe.Build([]byte(fixtureGraphJSON))
	if err != nil {
		t.Fatalf("build fixture graph: %v", err)
	}

	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.UpsertTypes(context.Background(), []store.ItemType{
		{ItemID: 34, Name: "Tritanium", NameLower: "tritanium"},
		{ItemID: 35, Name: "Pyerite", NameLower: "pyerite"},
	}); err != nil {
		t.Fatalf("seed types: %v", err)
	}

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logging.NewDiscard()
	client := upstream.NewClient("starcharts-test/1.0 (test@example.com)", 2*time.Second, log)

	volatile := volatilecache.New(client, volatilecache.Endpoints{
		Kills:          srv.URL + "/kills",
		Jumps:          srv.URL + "/jumps",
		FactionWarfare: srv.URL + "/fw",
	}, log)

	market := marketcache.New(client, marketcache.Endpoints{
		PreAggregated: srv.URL + "/prices/%d",
		RawOrders:     srv.URL + "/orders/%d",
		Historical:    srv.URL + "/history/%d",
	}, st, log)

	res := resolver.New(st, nil, resolver.Endpoints{}, log)
	fit := fitting.New(res)

	d := New(graph, volatile, market, res, fit, st, client, log)
	return &testHarness{t: t, dispatcher: d, srv: srv}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
}

// errCode returns the apperr.Kind string an error would carry in the JSON
// error envelope, or "" for a nil error.
func errCode(err error) string {
	if err == nil {
		return ""
	}
	return ToErrorBody(err).Error.Code
}

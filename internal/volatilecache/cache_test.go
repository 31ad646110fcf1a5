package volatilecache

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vitadek/starcharts/internal/upstream"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*upstream.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return upstream.NewClient("starcharts-test/1.0 (test@example.com)", 2*time.Second, nil), srv
}

func TestActivityReturnsZeroForAbsentSystem(t *testing.T) {
	var calls int32
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path == "/kills" {
			json.NewEncoder(w).Encode([]wireKill{{SystemID: 1, ShipKills: 5, PodKills: 1, NPCKills: 2}})
			return
		}
		json.NewEncoder(w).Encode([]wireJump{{SystemID: 1, ShipJumps: 10}})
	})

	cache := New(client, Endpoints{Kills: srv.URL + "/kills", Jumps: srv.URL + "/jumps"}, nil)
	results, err := cache.Activity(context.Background(), []int32{1, 999})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Record.ShipKills != 5 {
		t.Fatalf("expected 5 ship kills for system 1, got %d", results[0].Record.ShipKills)
	}
	if results[1].Record.ShipKills != 0 || results[1].Record.ShipJumps != 0 {
		t.Fatalf("expected zero activity for unseen system 999, got %+v", results[1].Record)
	}
	if results[1].Record.ActivityLevel != "none" {
		t.Fatalf("expected activity level 'none' for zero activity, got %s", results[1].Record.ActivityLevel)
	}
}

func TestConcurrentStaleReadsIssueOneUpstreamCall(t *testing.T) {
	var calls int32
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		json.NewEncoder(w).Encode([]wireKill{{SystemID: 1, ShipKills: 1}})
	})

	cache := New(client, Endpoints{Kills: srv.URL + "/kills", Jumps: srv.URL + "/jumps-empty"}, nil)

	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		go func() {
			cache.kills.get(context.Background(), cache.now)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected exactly one upstream call across 5 concurrent stale reads, got %d", calls)
	}
}

func TestStaleOnErrorRetainsPreviousData(t *testing.T) {
	var fail int32
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&fail) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode([]wireKill{{SystemID: 1, ShipKills: 42}})
	})

	cache := New(client, Endpoints{Kills: srv.URL + "/kills", Jumps: srv.URL + "/jumps-empty"}, nil)
	if _, _, _, _, err := cache.kills.get(context.Background(), cache.now); err != nil {
		t.Fatalf("unexpected error on first refresh: %v", err)
	}

	// Force staleness and upstream failure.
	cache.kills.lastRefresh = cache.now().Add(-1 * time.Hour)
	atomic.StoreInt32(&fail, 1)

	data, _, freshness, warnings, err := cache.kills.get(context.Background(), cache.now)
	if err != nil {
		t.Fatalf("stale-on-error should not surface an error: %v", err)
	}
	if data[1].ShipKills != 42 {
		t.Fatalf("expected previous data retained, got %+v", data[1])
	}
	if freshness != FreshnessStale {
		t.Fatalf("expected stale freshness after failed refresh, got %s", freshness)
	}
	if len(warnings) == 0 {
		t.Fatal("expected a warning describing the failed refresh")
	}
}

func TestStatusReportsNoIOAndReflectsStaleness(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]wireKill{{SystemID: 1, ShipKills: 1}})
	})
	cache := New(client, Endpoints{Kills: srv.URL + "/kills", Jumps: srv.URL + "/jumps-empty", FactionWarfare: srv.URL + "/fw-empty"}, nil)

	statuses := cache.Status()
	if len(statuses) != 3 {
		t.Fatalf("expected 3 layer statuses, got %d", len(statuses))
	}
	for _, s := range statuses {
		if !s.Stale || s.HasData {
			t.Fatalf("expected cold-start layer %s to report stale=true, has_data=false, got %+v", s.Name, s)
		}
	}
}

package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vitadek/starcharts/internal/apperr"
	"github.com/vitadek/starcharts/internal/store"
	"github.com/vitadek/starcharts/internal/upstream"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *upstream.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return upstream.NewClient("starcharts-test/1.0 (test@example.com)", 2*time.Second, nil)
}

func TestResolveTypeHitsMemoryBeforeUpstream(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode([]wireType{{ItemID: 1, Name: "Tritanium"}})
	})
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	r := New(st, client, Endpoints{TypeSearch: "http://unused/search"}, nil)
	r.memory["tritanium"] = store.ItemType{ItemID: 34, Name: "Tritanium", NameLower: "tritanium"}

	got, err := r.ResolveType(context.Background(), "Tritanium")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ItemID != 34 {
		t.Fatalf("expected memory-stage hit with id 34, got %d", got.ItemID)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected no upstream call when memory stage hits, got %d calls", calls)
	}
}

func TestResolveTypeFallsBackToStoreThenUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]wireType{{ItemID: 99, Name: "Pyerite", GroupID: 5}})
	}))
	t.Cleanup(srv.Close)
	client := upstream.NewClient("starcharts-test/1.0 (test@example.com)", 2*time.Second, nil)

	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	r := New(st, client, Endpoints{TypeSearch: srv.URL}, nil)
	got, err := r.ResolveType(context.Background(), "Pyerite")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ItemID != 99 {
		t.Fatalf("expected upstream-resolved id 99, got %d", got.ItemID)
	}

	// Write-through: a second resolution must not hit upstream again.
	r2 := New(st, nil, Endpoints{}, nil)
	got2, err := r2.ResolveType(context.Background(), "Pyerite")
	if err != nil {
		t.Fatalf("unexpected error on store-stage resolve: %v", err)
	}
	if got2.ItemID != 99 {
		t.Fatalf("expected persisted id 99, got %d", got2.ItemID)
	}
}

func TestResolveTypeNotFoundCarriesSuggestions(t *testing.T) {
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.UpsertTypes(context.Background(), []store.ItemType{
		{ItemID: 1, Name: "Tritanium", NameLower: "tritanium"},
	}); err != nil {
		t.Fatalf("seed types: %v", err)
	}

	r := New(st, nil, Endpoints{}, nil)
	_, err = r.ResolveType(context.Background(), "Tritan")
	ae, ok := apperr.As(err)
	if !ok || ae.Kind != apperr.TypeNotFound {
		t.Fatalf("expected TypeNotFound, got %v", err)
	}
	suggestions, _ := ae.Data["suggestions"].([]string)
	if len(suggestions) == 0 {
		t.Fatalf("expected at least one suggestion, got none")
	}
}

func TestResolveBatchPartitionsAcrossStagesWithOneUpstreamCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode([]wireType{{ItemID: 3, Name: "Mexallon"}})
	}))
	t.Cleanup(srv.Close)
	client := upstream.NewClient("starcharts-test/1.0 (test@example.com)", 2*time.Second, nil)

	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.UpsertTypes(context.Background(), []store.ItemType{
		{ItemID: 2, Name: "Pyerite", NameLower: "pyerite"},
	}); err != nil {
		t.Fatalf("seed types: %v", err)
	}

	r := New(st, client, Endpoints{TypeSearch: srv.URL}, nil)
	r.memory["tritanium"] = store.ItemType{ItemID: 1, Name: "Tritanium", NameLower: "tritanium"}

	results, warnings := r.ResolveBatch(context.Background(), []string{"Tritanium", "Pyerite", "Mexallon"})
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 resolved results, got %d", len(results))
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected exactly one upstream batch call for the residual, got %d", calls)
	}
}

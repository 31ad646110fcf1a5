package dispatcher

import (
	"context"
	"testing"
)

func TestSDEItemByName(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	res, err := h.dispatcher.SDE(context.Background(), SDERequest{Action: "item", Name: "Tritanium"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	item := res.(itemTypeJSON)
	if item.ItemID != 34 {
		t.Errorf("expected item id 34, got %d", item.ItemID)
	}
}

func TestSDEItemByID(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	res, err := h.dispatcher.SDE(context.Background(), SDERequest{Action: "item", ItemID: 35})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	item := res.(itemTypeJSON)
	if item.Name != "Pyerite" {
		t.Errorf("expected Pyerite, got %s", item.Name)
	}
}

func TestSDEItemUnknownIDIsTypeNotFound(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	_, err := h.dispatcher.SDE(context.Background(), SDERequest{Action: "item", ItemID: 9999})
	if errCode(err) != "TypeNotFound" {
		t.Fatalf("expected TypeNotFound, got %v", err)
	}
}

func TestSDESystem(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	res, err := h.dispatcher.SDE(context.Background(), SDERequest{Action: "system", Name: "Jita"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sys := res.(systemInfoJSON)
	if sys.Name != "Jita" {
		t.Errorf("expected Jita, got %s", sys.Name)
	}
}

func TestSDESearch(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	res, err := h.dispatcher.SDE(context.Background(), SDERequest{Action: "search", Query: "tri"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	search := res.(searchItemsResponse)
	if search.TotalFound != 1 {
		t.Fatalf("expected 1 match for 'tri', got %d", search.TotalFound)
	}
}

func TestSDESearchRequiresQuery(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	_, err := h.dispatcher.SDE(context.Background(), SDERequest{Action: "search"})
	if errCode(err) != "InvalidParameter" {
		t.Fatalf("expected InvalidParameter, got %v", err)
	}
}

func TestSDEUnknownActionIsInvalidParameter(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	_, err := h.dispatcher.SDE(context.Background(), SDERequest{Action: "bogus"})
	if errCode(err) != "InvalidParameter" {
		t.Fatalf("expected InvalidParameter, got %v", err)
	}
}

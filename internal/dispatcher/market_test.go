package dispatcher

import (
	"context"
	"net/http"
	"testing"
)

func pricesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/prices/100":
		writeJSON(w, []map[string]any{
			{"item_id": 34, "buy": map[string]any{"weighted_avg": 4.5, "min": 4.0, "max": 5.0}, "sell": map[string]any{"weighted_avg": 5.5, "min": 5.0, "max": 6.0}},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestMarketPricesHappyPath(t *testing.T) {
	h := newTestHarness(t, pricesHandler)
	res, err := h.dispatcher.Market(context.Background(), MarketRequest{
		Action: "prices", Region: "The Forge", Items: []string{"Tritanium"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prices := res.(pricesResponse)
	if prices.TotalFound != 1 {
		t.Fatalf("expected 1 result, got %d", prices.TotalFound)
	}
	if prices.Results[0].SpreadISK != 0 {
		t.Errorf("expected spread 0 (sell.min 5.0 - buy.max 5.0), got %v", prices.Results[0].SpreadISK)
	}
}

func TestMarketPricesRequiresRegionAndItems(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	if _, err := h.dispatcher.Market(context.Background(), MarketRequest{Action: "prices"}); errCode(err) != "InvalidParameter" {
		t.Fatalf("expected InvalidParameter for missing region/items, got %v", err)
	}
	if _, err := h.dispatcher.Market(context.Background(), MarketRequest{Action: "prices", Region: "The Forge"}); errCode(err) != "InvalidParameter" {
		t.Fatalf("expected InvalidParameter for missing items, got %v", err)
	}
}

func TestMarketPricesUnknownRegionIsInvalidParameter(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	_, err := h.dispatcher.Market(context.Background(), MarketRequest{
		Action: "prices", Region: "Nowhere Region", Items: []string{"Tritanium"},
	})
	if errCode(err) != "InvalidParameter" {
		t.Fatalf("expected InvalidParameter, got %v", err)
	}
}

func TestMarketSpreadProjectsPrices(t *testing.T) {
	h := newTestHarness(t, pricesHandler)
	res, err := h.dispatcher.Market(context.Background(), MarketRequest{
		Action: "spread", Region: "The Forge", Items: []string{"Tritanium"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil {
		t.Fatalf("expected a result")
	}
}

func TestMarketValuationFromText(t *testing.T) {
	h := newTestHarness(t, pricesHandler)
	res, err := h.dispatcher.Market(context.Background(), MarketRequest{
		Action: "valuation", Region: "The Forge", Text: "Tritanium x10",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	val := res.(valuationResponse)
	if len(val.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(val.Lines))
	}
	if val.Lines[0].Quantity != 10 {
		t.Errorf("expected quantity 10, got %d", val.Lines[0].Quantity)
	}
}

func TestMarketValuationRequiresTextOrLines(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	_, err := h.dispatcher.Market(context.Background(), MarketRequest{Action: "valuation", Region: "The Forge"})
	if errCode(err) != "InvalidParameter" {
		t.Fatalf("expected InvalidParameter, got %v", err)
	}
}

func TestMarketHistoryHappyPath(t *testing.T) {
	h := newTestHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/history/100" {
			writeJSON(w, []map[string]any{
				{"type_id": 34, "date": "2026-01-01", "average": 5.0, "highest": 6.0, "lowest": 4.0, "volume": 1000, "order_count": 10},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	res, err := h.dispatcher.Market(context.Background(), MarketRequest{
		Action: "history", Region: "The Forge", Item: "Tritanium",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hist := res.(historyResponse)
	if hist.TotalFound != 1 {
		t.Fatalf("expected 1 point, got %d", hist.TotalFound)
	}
}

func TestMarketFindNearbyRequiresOriginAndItem(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	_, err := h.dispatcher.Market(context.Background(), MarketRequest{Action: "find_nearby"})
	if errCode(err) != "InvalidParameter" {
		t.Fatalf("expected InvalidParameter, got %v", err)
	}
}

func TestMarketUnknownActionIsInvalidParameter(t *testing.T) {
	h := newTestHarness(t, notFoundHandler)
	_, err := h.dispatcher.Market(context.Background(), MarketRequest{Action: "nonsense"})
	if errCode(err) != "InvalidParameter" {
		t.Fatalf("expected InvalidParameter, got %v", err)
	}
}

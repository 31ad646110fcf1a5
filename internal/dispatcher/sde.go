package dispatcher

import (
	"context"
	"strings"

	"github.com/vitadek/starcharts/internal/apperr"
)

var sdeActions = []string{"item", "system", "search"}

// SDERequest is the tagged-union request body for the sde (static data
// export) tool: read-only lookups against the reference tables seeded at
// bootstrap, never the volatile or market caches.
type SDERequest struct {
	Action string `json:"action"`

	Name   string `json:"name,omitempty"`
	ItemID int32  `json:"item_id,omitempty"`
	Query  string `json:"query,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

func (d *Dispatcher) SDE(ctx context.Context, req SDERequest) (any, error) {
	requestID := newRequestID()
	d.logCall("sde", req.Action, requestID)

	switch req.Action {
	case "item":
		return d.sdeItem(ctx, req)
	case "system":
		return d.sdeSystem(ctx, req)
	case "search":
		return d.sdeSearch(ctx, req)
	default:
		return nil, unknownAction("sde", req.Action, sdeActions)
	}
}

type itemTypeJSON struct {
	ItemID        int32  `json:"item_id"`
	Name          string `json:"name"`
	GroupID       int32  `json:"group_id"`
	MarketGroupID int32  `json:"market_group_id"`
}

func (d *Dispatcher) sdeItem(ctx context.Context, req SDERequest) (any, error) {
	if req.ItemID != 0 {
		t, ok, err := d.store.GetTypeByID(ctx, req.ItemID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.New(apperr.TypeNotFound, "no item with that id", map[string]any{"item_id": req.ItemID})
		}
		return itemTypeJSON{ItemID: t.ItemID, Name: t.Name, GroupID: t.GroupID, MarketGroupID: t.MarketGroupID}, nil
	}
	if err := requireNonEmpty("name", req.Name); err != nil {
		return nil, err
	}
	t, err := d.resolver.ResolveType(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	return itemTypeJSON{ItemID: t.ItemID, Name: t.Name, GroupID: t.GroupID, MarketGroupID: t.MarketGroupID}, nil
}

func (d *Dispatcher) sdeSystem(ctx context.Context, req SDERequest) (any, error) {
	if err := requireNonEmpty("name", req.Name); err != nil {
		return nil, err
	}
	info, err := d.graph.SystemInfo(req.Name)
	if err != nil {
		return nil, err
	}
	return toSystemInfoJSON(info), nil
}

type searchItemsResponse struct {
	TotalFound int            `json:"total_found"`
	Results    []itemTypeJSON `json:"results"`
}

func (d *Dispatcher) sdeSearch(ctx context.Context, req SDERequest) (any, error) {
	if err := requireNonEmpty("query", req.Query); err != nil {
		return nil, err
	}
	limit, err := resolveLimit(req.Limit)
	if err != nil {
		return nil, err
	}
	types, err := d.store.SearchTypes(ctx, strings.ToLower(req.Query), limit)
	if err != nil {
		return nil, err
	}
	out := make([]itemTypeJSON, len(types))
	for i, t := range types {
		out[i] = itemTypeJSON{ItemID: t.ItemID, Name: t.Name, GroupID: t.GroupID, MarketGroupID: t.MarketGroupID}
	}
	return searchItemsResponse{TotalFound: len(out), Results: out}, nil
}

// Package resolver implements the hybrid name->id resolution pipeline from
// spec.md §4.6: a process-local in-memory map, the persistent store, and
// finally the upstream search endpoint, with write-through learning back
// into the first two stages on a successful upstream hit. Grounded on
// internal/volatilecache's lock-guarded refresh idiom, narrowed here to a
// plain read-mostly map protected by a single mutex since the pipeline has
// no TTL of its own — once a name resolves, it is true for the life of the
// process (spec.md §3: item types are "populated once... upstream-learned
// entries written through on first successful lookup").
package resolver

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/vitadek/starcharts/internal/apperr"
	"github.com/vitadek/starcharts/internal/logging"
	"github.com/vitadek/starcharts/internal/store"
	"github.com/vitadek/starcharts/internal/upstream"
)

// Endpoints names the upstream search surface this resolver falls back to.
type Endpoints struct {
	// TypeSearch takes a "q" query parameter and returns a JSON array of
	// wireType rows matching by substring
	TypeSearch string
}

// Resolver is the constructed, injectable pipeline (Design Notes §9: no
// package-global lookup table).
type Resolver struct {
	mu     sync.RWMutex
	memory map[string]store.ItemType // keyed by name_lower

	store *store.Store
	client *upstream.Client
	ep    Endpoints
	log   *logging.Loggers
}

// New builds a Resolver backed by st for stage two and client for stage
// three. st may be nil in tests that only exercise the in-memory stage.
func New(st *store.Store, client *upstream.Client, ep Endpoints, log *logging.Loggers) *Resolver {
	if log == nil {
		log = logging.NewDiscard()
	}
	return &Resolver{
		memory: make(map[string]store.ItemType),
		store:  st,
		client: client,
		ep:     ep,
		log:    log,
	}
}

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// ResolveType runs the three-stage pipeline for a single item name.
// Implements the marketcache.Resolver interface so the valuation parser
// can resolve free-text item names without importing this package
// directly into marketcache.
func (r *Resolver) ResolveType(ctx context.Context, name string) (*store.ItemType, error) {
	key := fold(name)

	r.mu.RLock()
	if t, ok := r.memory[key]; ok {
		r.mu.RUnlock()
		return &t, nil
	}
	r.mu.RUnlock()

	if r.store != nil {
		t, ok, err := r.store.GetTypeByName(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			r.mu.Lock()
			r.memory[key] = *t
			r.mu.Unlock()
			return t, nil
		}
	}

	t, err := r.resolveUpstream(ctx, name, key)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *Resolver) resolveUpstream(ctx context.Context, name, key string) (*store.ItemType, error) {
	if r.client == nil || r.ep.TypeSearch == "" {
		return nil, r.notFound(ctx, name, key)
	}
	body, _, err := r.client.Get(ctx, r.ep.TypeSearch, url.Values{"q": {name}})
	if err != nil {
		return nil, err
	}
	var rows []wireType
	if err := upstream.DecodeJSON(body, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if fold(row.Name) == key {
			t := store.ItemType{ItemID: row.ItemID, Name: row.Name, NameLower: key, GroupID: row.GroupID, MarketGroupID: row.MarketGroupID}
			r.writeThrough(ctx, t)
			return &t, nil
		}
	}
	return nil, r.notFound(ctx, name, key)
}

func (r *Resolver) writeThrough(ctx context.Context, t store.ItemType) {
	r.mu.Lock()
	r.memory[t.NameLower] = t
	r.mu.Unlock()
	if r.store != nil {
		if err := r.store.UpsertTypes(ctx, []store.ItemType{t}); err != nil {
			r.log.Warnf("resolver: write-through persist failed for %q: %v", t.Name, err)
		}
	}
}

func (r *Resolver) notFound(ctx context.Context, name, key string) error {
	return apperr.NotFoundWithSuggestions(apperr.TypeNotFound, name, r.suggest(ctx, key))
}

// suggest draws up to three substring matches from the persistent store's
// name index The in-memory stage is also consulted so a
// process that has already resolved near-matches this session can surface
// them even before they land in the store.
func (r *Resolver) suggest(ctx context.Context, key string) []string {
	var out []string
	r.mu.RLock()
	for k, t := range r.memory {
		if strings.Contains(k, key) {
			out = append(out, t.Name)
		}
		if len(out) >= 3 {
			break
		}
	}
	r.mu.RUnlock()
	if len(out) >= 3 || r.store == nil {
		return out
	}
	fromStore, err := r.store.SuggestTypeNames(ctx, key, 3-len(out))
	if err != nil {
		r.log.Warnf("resolver: suggestion lookup failed: %v", err)
		return out
	}
	return append(out, fromStore...)
}

type wireType struct {
	ItemID        int32  `json:"item_id"`
	Name          string `json:"name"`
	GroupID       int32  `json:"group_id"`
	MarketGroupID int32  `json:"market_group_id"`
}

// BatchResult is one name's outcome from ResolveBatch.
type BatchResult struct {
	Name string
	Type *store.ItemType
}

// batchCeiling mirrors spec.md §4.1's "each batch request carries at most
// 100 items" upstream ceiling.
const batchCeiling = 100

// ResolveBatch partitions names across the three stages, issuing at most
// one upstream batch call per 100-name chunk for whatever remains
// unresolved after stages one and two Names that fail
// to resolve anywhere are omitted from the result and instead appended to
// the returned warnings, letting the caller decide whether to fail hard or
// proceed with partial input.
func (r *Resolver) ResolveBatch(ctx context.Context, names []string) ([]BatchResult, []string) {
	var out []BatchResult
	var residual []string

	for _, name := range names {
		key := fold(name)
		r.mu.RLock()
		t, ok := r.memory[key]
		r.mu.RUnlock()
		if ok {
			out = append(out, BatchResult{Name: name, Type: &t})
			continue
		}
		if r.store != nil {
			stored, found, err := r.store.GetTypeByName(ctx, key)
			if err == nil && found {
				r.mu.Lock()
				r.memory[key] = *stored
				r.mu.Unlock()
				out = append(out, BatchResult{Name: name, Type: stored})
				continue
			}
		}
		residual = append(residual, name)
	}

	var warnings []string
	for start := 0; start < len(residual); start += batchCeiling {
		end := start + batchCeiling
		if end > len(residual) {
			end = len(residual)
		}
		chunk := residual[start:end]
		resolved, unresolved := r.resolveUpstreamBatch(ctx, chunk)
		out = append(out, resolved...)
		for _, name := range unresolved {
			warnings = append(warnings, "could not resolve "+name)
		}
	}
	return out, warnings
}

// resolveUpstreamBatch issues a single upstream search call covering every
// name in chunk (joined as repeated "q" parameters), matching each
// returned row back to whichever requested name it answers.
func (r *Resolver) resolveUpstreamBatch(ctx context.Context, chunk []string) (resolved []BatchResult, unresolved []string) {
	if r.client == nil || r.ep.TypeSearch == "" {
		return nil, chunk
	}
	query := url.Values{}
	for _, name := range chunk {
		query.Add("q", name)
	}
	body, _, err := r.client.Get(ctx, r.ep.TypeSearch, query)
	if err != nil {
		r.log.Warnf("resolver: upstream batch resolution failed: %v", err)
		return nil, chunk
	}
	var rows []wireType
	if err := upstream.DecodeJSON(body, &rows); err != nil {
		r.log.Warnf("resolver: upstream batch payload malformed: %v", err)
		return nil, chunk
	}
	byFold := make(map[string]wireType, len(rows))
	for _, row := range rows {
		byFold[fold(row.Name)] = row
	}
	for _, name := range chunk {
		row, ok := byFold[fold(name)]
		if !ok {
			unresolved = append(unresolved, name)
			continue
		}
		t := store.ItemType{ItemID: row.ItemID, Name: row.Name, NameLower: fold(row.Name), GroupID: row.GroupID, MarketGroupID: row.MarketGroupID}
		r.writeThrough(ctx, t)
		resolved = append(resolved, BatchResult{Name: name, Type: &t})
	}
	return resolved, unresolved
}

// Package dispatcher presents the action-typed tool surface spec.md §4.7
// describes: a small set of tools, each taking an `action` field plus
// action-specific parameters, each returning a JSON-serializable result or
// a structured error envelope. Grounded on Design Notes §9's "tagged union
// per tool": every tool has its own request struct naming `Action` plus
// its parameters, and a switch over `Action` that dispatches to a
// method on Dispatcher, rather than the teacher's single string-keyed
// handler function (handlers.go) — the Go target gets exhaustiveness
// instead.
package dispatcher

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vitadek/starcharts/internal/fitting"
	"github.com/vitadek/starcharts/internal/logging"
	"github.com/vitadek/starcharts/internal/marketcache"
	"github.com/vitadek/starcharts/internal/resolver"
	"github.com/vitadek/starcharts/internal/store"
	"github.com/vitadek/starcharts/internal/universe"
	"github.com/vitadek/starcharts/internal/upstream"
	"github.com/vitadek/starcharts/internal/volatilecache"
)

// Dispatcher owns every component the tool surface calls into. It holds no
// mutable state of its own beyond what its dependencies already serialize
// internally, so it is safe to invoke concurrently from multiple callers
//.
type Dispatcher struct {
	graph     *universe.Graph
	volatile  *volatilecache.Cache
	market    *marketcache.Cache
	resolver  *resolver.Resolver
	fitting   *fitting.Facade
	store     *store.Store
	upstream  *upstream.Client
	log       *logging.Loggers
	now       func() time.Time
}

// New builds a Dispatcher wired to every already-constructed component.
// None of graph/volatile/market/resolver/fit may be nil; store and
// upstreamClient may be nil in tests that only exercise a subset of tools.
func New(graph *universe.Graph, volatile *volatilecache.Cache, market *marketcache.Cache, res *resolver.Resolver, fit *fitting.Facade, st *store.Store, upstreamClient *upstream.Client, log *logging.Loggers) *Dispatcher {
	if log == nil {
		log = logging.NewDiscard()
	}
	return &Dispatcher{
		graph:    graph,
		volatile: volatile,
		market:   market,
		resolver: res,
		fitting:  fit,
		store:    st,
		upstream: upstreamClient,
		log:      log,
		now:      time.Now,
	}
}

// newRequestID tags each dispatch call with a unique id, surfaced in
// cancellation/diagnostic log lines so a slow or stuck call can be traced
// back to the request that caused it.
func newRequestID() string {
	return uuid.NewString()
}

// logCall records one dispatch call's tool, action and request id at debug
// level; kept tiny since every component below already logs its own
// adapter-boundary warnings.
func (d *Dispatcher) logCall(tool, action, requestID string) {
	d.log.Debugf("dispatch %s(action=%s) request_id=%s", tool, action, requestID)
}

package bootstrap

import (
	"context"
	"os"
	"time"

	"github.com/vitadek/starcharts/internal/config"
	"github.com/vitadek/starcharts/internal/dispatcher"
	"github.com/vitadek/starcharts/internal/fitting"
	"github.com/vitadek/starcharts/internal/logging"
	"github.com/vitadek/starcharts/internal/marketcache"
	"github.com/vitadek/starcharts/internal/resolver"
	"github.com/vitadek/starcharts/internal/store"
	"github.com/vitadek/starcharts/internal/universe"
	"github.com/vitadek/starcharts/internal/upstream"
	"github.com/vitadek/starcharts/internal/volatilecache"
)

// Runtime bundles every constructed component the equivalent CLI and any
// future long-lived host dispatch through, mirroring the teacher's
// initDB-then-start_world startup sequence but as an explicit, testable
// value instead of package-level globals.
type Runtime struct {
	Config     config.Config
	Graph      *universe.Graph
	Store      *store.Store
	Dispatcher *dispatcher.Dispatcher
	Log        *logging.Loggers
}

// Run performs the full bootstrap sequence: load the manifest, open the
// store, seed reference data if the store is empty, load-or-build the
// universe graph, and wire the upstream client, caches, resolver, fitting
// façade, and dispatcher into one Runtime.
func Run(ctx context.Context, cfg config.Config) (*Runtime, error) {
	log, err := logging.New(cfg.LogDir, logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, err
	}

	manifest, err := LoadManifest(cfg.ManifestPath)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.DatabasePath, cfg.MaxOpenConnections)
	if err != nil {
		return nil, err
	}

	if err := seedIfEmpty(ctx, st, manifest, cfg); err != nil {
		return nil, err
	}

	graph, err := LoadOrBuildGraph(manifest, cfg.GraphSourcePath, cfg.GraphPath, cfg.AllowUnpinnedData)
	if err != nil {
		return nil, err
	}

	client := upstream.NewClient(cfg.UserAgentContact, cfg.UpstreamTimeout, log)
	endpoints := upstreamEndpoints(cfg.UpstreamBaseURL)

	volatile := volatilecache.New(client, endpoints.volatile, log)
	market := marketcache.New(client, endpoints.market, st, log)
	res := resolver.New(st, client, endpoints.resolver, log)
	fit := fitting.New(res)

	disp := dispatcher.New(graph, volatile, market, res, fit, st, client, log)

	return &Runtime{Config: cfg, Graph: graph, Store: st, Dispatcher: disp, Log: log}, nil
}

// seedIfEmpty seeds item types and market aggregates from the configured
// bulk CSV blobs only when the store has never been seeded, tracked via
// the metadata table (teacher idiom: db.go's genesis_hash row used as a
// one-time marker, generalized here to a "seeded_at" key).
func seedIfEmpty(ctx context.Context, st *store.Store, manifest store.Manifest, cfg config.Config) error {
	_, ok, err := st.GetMetadata(ctx, "seeded_at")
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if cfg.TypesSeedPath != "" && fileExists(cfg.TypesSeedPath) {
		if _, err := SeedTypes(ctx, st, manifest, cfg.TypesSeedPath, cfg.AllowUnpinnedData); err != nil {
			return err
		}
	}
	if cfg.MarketSeedPath != "" && fileExists(cfg.MarketSeedPath) {
		if _, err := SeedMarket(ctx, st, manifest, cfg.MarketSeedPath, cfg.AllowUnpinnedData); err != nil {
			return err
		}
	}
	return st.SetMetadata(ctx, "seeded_at", time.Now().UTC().Format(time.RFC3339), time.Now().UTC())
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

type wiredEndpoints struct {
	volatile volatilecache.Endpoints
	market   marketcache.Endpoints
	resolver resolver.Endpoints
}

func upstreamEndpoints(base string) wiredEndpoints {
	return wiredEndpoints{
		volatile: volatilecache.Endpoints{
			Kills:          base + "/universe/system_kills/",
			Jumps:          base + "/universe/system_jumps/",
			FactionWarfare: base + "/fw/systems/",
		},
		market: marketcache.Endpoints{
			PreAggregated: base + "/markets/%d/aggregated/",
			RawOrders:     base + "/markets/%d/orders/",
			Historical:    base + "/markets/%d/history/",
		},
		resolver: resolver.Endpoints{
			TypeSearch: base + "/search/",
		},
	}
}

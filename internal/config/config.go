// Package config loads the small set of environment values starcharts
// needs. Grounded on Vitadek-OwnWorld's types.go Config struct and
// main.go:initConfig — os.Getenv with documented defaults, no config
// library, since the teacher and the rest of the pack reach for plain
// env vars for this concern rather than a flags/viper-style dependency.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every externally tunable value named in spec.md §6.
type Config struct {
	DatabasePath       string
	GraphPath          string
	GraphSourcePath    string
	CacheDir           string
	ManifestPath       string
	TypesSeedPath      string
	MarketSeedPath     string
	AllowUnpinnedData  bool
	LogDir             string
	LogLevel           string
	UpstreamBaseURL    string
	UserAgentContact   string
	UpstreamTimeout    time.Duration
	BulkCallTimeout    time.Duration
	MaxOpenConnections int
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Load reads configuration from the environment, applying the documented
// defaults from spec.md §6.
func Load() Config {
	return Config{
		DatabasePath:       getenv("STARCHARTS_DB_PATH", "./data/starcharts.db"),
		GraphPath:          getenv("STARCHARTS_GRAPH_PATH", "./data/universe.graph"),
		GraphSourcePath:    getenv("STARCHARTS_GRAPH_SOURCE", "./data/universe.json"),
		CacheDir:           getenv("STARCHARTS_CACHE_DIR", "./data/cache"),
		ManifestPath:       getenv("STARCHARTS_MANIFEST_PATH", "./data/manifest.sha256"),
		TypesSeedPath:      getenv("STARCHARTS_TYPES_SEED_PATH", "./data/item_types.csv"),
		MarketSeedPath:     getenv("STARCHARTS_MARKET_SEED_PATH", "./data/market_seed.csv"),
		AllowUnpinnedData:  getenvBool("STARCHARTS_ALLOW_UNPINNED_DATA", false),
		LogDir:             getenv("STARCHARTS_LOG_DIR", ""),
		LogLevel:           getenv("STARCHARTS_LOG_LEVEL", "info"),
		UpstreamBaseURL:    getenv("STARCHARTS_UPSTREAM_BASE_URL", "https://esi.evetech.net/latest"),
		UserAgentContact:   getenv("STARCHARTS_CONTACT", "starcharts-tactical-service (contact: ops@example.invalid)"),
		UpstreamTimeout:    time.Duration(getenvInt("STARCHARTS_UPSTREAM_TIMEOUT_SECONDS", 10)) * time.Second,
		BulkCallTimeout:    time.Duration(getenvInt("STARCHARTS_BULK_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxOpenConnections: getenvInt("STARCHARTS_MAX_DB_CONNS", 8),
	}
}

package bootstrap

import (
	"os"

	"github.com/vitadek/starcharts/internal/apperr"
	"github.com/vitadek/starcharts/internal/config"
	"github.com/vitadek/starcharts/internal/store"
)

// VerifyResult reports the per-blob outcome of a standalone integrity
// check, used by the "starcharts bootstrap verify" subcommand (SPEC_FULL.md
// supplemented feature: the CLI exit-code-3 integrity path spec.md §6
// reserves but never wires to a concrete command).
type VerifyResult struct {
	Blob            string `json:"blob"`
	Checked         bool   `json:"checked"`
	SkippedUnpinned bool   `json:"skipped_unpinned"`
	OK              bool   `json:"ok"`
	Detail          string `json:"detail,omitempty"`
}

// Verify checks every reference blob named in cfg against the manifest,
// without mutating any running state. It never falls back to rebuilding on
// failure — a mismatch here is reported, not repaired.
func Verify(cfg config.Config) ([]VerifyResult, error) {
	manifest, err := LoadManifest(cfg.ManifestPath)
	if err != nil {
		return nil, err
	}

	blobs := []struct {
		name string
		path string
	}{
		{"universe.json", cfg.GraphSourcePath},
		{"item_types.csv", cfg.TypesSeedPath},
		{"market_seed.csv", cfg.MarketSeedPath},
	}

	results := make([]VerifyResult, 0, len(blobs))
	for _, b := range blobs {
		if b.path == "" || !fileExists(b.path) {
			results = append(results, VerifyResult{Blob: b.name, Checked: false, Detail: "blob not present on disk"})
			continue
		}
		data, err := os.ReadFile(b.path)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "read blob for verify", err, map[string]any{"path": b.path})
		}
		skipped, err := store.Verify(manifest, b.name, data, cfg.AllowUnpinnedData)
		if err != nil {
			results = append(results, VerifyResult{Blob: b.name, Checked: true, OK: false, Detail: err.Error()})
			continue
		}
		results = append(results, VerifyResult{Blob: b.name, Checked: true, SkippedUnpinned: skipped, OK: true})
	}
	return results, nil
}

// AllOK reports whether every checked blob passed verification. Blobs not
// present on disk are not failures — they simply weren't checked.
func AllOK(results []VerifyResult) bool {
	for _, r := range results {
		if r.Checked && !r.OK {
			return false
		}
	}
	return true
}

package bootstrap

import (
	"path/filepath"
	"testing"

	"github.com/vitadek/starcharts/internal/config"
	"github.com/vitadek/starcharts/internal/store"
)

func manifestWithBadDigest() store.Manifest {
	return store.Manifest{Checksums: map[string]string{"universe.json": "0000000000000000000000000000000000000000000000000000000000000000"}}
}

func TestVerifyReportsNotCheckedForAbsentBlobs(t *testing.T) {
	cfg := config.Config{
		ManifestPath:   filepath.Join(t.TempDir(), "missing.sha256"),
		GraphSourcePath: "",
		TypesSeedPath:   "",
		MarketSeedPath:  "",
	}
	results, err := Verify(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !AllOK(results) {
		t.Errorf("absent blobs must not count as failures: %+v", results)
	}
	for _, r := range results {
		if r.Checked {
			t.Errorf("expected no blob to be checked when none are configured, got %+v", r)
		}
	}
}

func TestVerifyDetectsChecksumMismatch(t *testing.T) {
	sourcePath := writeTempFile(t, "universe.json", tinyUniverseJSON)
	cfg := config.Config{
		ManifestPath:    filepath.Join(t.TempDir(), "manifest.sha256"),
		GraphSourcePath: sourcePath,
	}
	if err := SaveManifest(cfg.ManifestPath, manifestWithBadDigest()); err != nil {
		t.Fatalf("save manifest: %v", err)
	}
	results, err := Verify(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if AllOK(results) {
		t.Errorf("expected a checksum mismatch to fail verification: %+v", results)
	}
}

package bootstrap

import (
	"path/filepath"
	"testing"

	"github.com/vitadek/starcharts/internal/store"
)

func TestLoadManifestMissingFileIsEmptyNotError(t *testing.T) {
	m, err := LoadManifest(filepath.Join(t.TempDir(), "nope.sha256"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Checksums) != 0 {
		t.Errorf("expected empty manifest, got %+v", m)
	}
}

func TestSaveAndLoadManifestJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.sha256")
	want := store.Manifest{Checksums: map[string]string{"universe.json": "abc123"}}
	if err := SaveManifest(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Checksums["universe.json"] != "abc123" {
		t.Errorf("expected round-tripped checksum, got %+v", got)
	}
}

func TestSaveAndLoadManifestYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	want := store.Manifest{Checksums: map[string]string{"market_seed.csv": "def456"}}
	if err := SaveManifest(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Checksums["market_seed.csv"] != "def456" {
		t.Errorf("expected round-tripped checksum, got %+v", got)
	}
}

// Package bootstrap builds the runtime from on-disk reference data: the
// universe graph cache, the persistent store, and the bulk market seed.
// Grounded on Vitadek-OwnWorld's initDB/createSchema + start_world.go
// startup sequence (open DB, load/seed state, then hand off to the
// server), generalized to a once-per-process build step instead of the
// teacher's inline main() logic.
package bootstrap

import (
	"encoding/json"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vitadek/starcharts/internal/apperr"
	"github.com/vitadek/starcharts/internal/store"
)

// LoadManifest reads the integrity manifest from path. The format is
// chosen by file extension: ".yaml"/".yml" use yaml.v3, anything else
// (including the documented default ".sha256") is parsed as JSON. Both
// formats carry the same logical shape (a map of blob name to pinned
// lower-hex SHA-256 digest), so either is acceptable reference-data input
// DOMAIN STACK wiring for yaml.v3.
func LoadManifest(path string) (store.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store.Manifest{Checksums: map[string]string{}}, nil
		}
		return store.Manifest{}, apperr.Wrap(apperr.Internal, "read manifest", err, map[string]any{"path": path})
	}

	var m store.Manifest
	if isYAMLPath(path) {
		if err := yaml.Unmarshal(data, &m); err != nil {
			return store.Manifest{}, apperr.Wrap(apperr.IntegrityError, "parse manifest yaml", err, map[string]any{"path": path})
		}
	} else {
		if err := json.Unmarshal(data, &m); err != nil {
			return store.Manifest{}, apperr.Wrap(apperr.IntegrityError, "parse manifest json", err, map[string]any{"path": path})
		}
	}
	if m.Checksums == nil {
		m.Checksums = map[string]string{}
	}
	return m, nil
}

func isYAMLPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}

// SaveManifest writes a manifest back to disk in the format implied by
// path's extension.
func SaveManifest(path string, m store.Manifest) error {
	var data []byte
	var err error
	if isYAMLPath(path) {
		data, err = yaml.Marshal(m)
	} else {
		data, err = json.MarshalIndent(m, "", "  ")
	}
	if err != nil {
		return apperr.Wrap(apperr.Internal, "encode manifest", err, nil)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperr.Wrap(apperr.Internal, "write manifest", err, map[string]any{"path": path})
	}
	return nil
}

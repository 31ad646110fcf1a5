package bootstrap

import (
	"bytes"
	"os"

	"github.com/vitadek/starcharts/internal/apperr"
	"github.com/vitadek/starcharts/internal/store"
	"github.com/vitadek/starcharts/internal/universe"
)

// BuildGraph parses the source universe JSON (verified against the
// manifest under blob name "universe.json"), builds the graph, and writes
// the serialized binary form to graphPath for the next process start to
// load without re-parsing JSON. Mirrors spec.md §4.3 "Build".
func BuildGraph(manifest store.Manifest, sourcePath, graphPath string, allowUnpinned bool) (*universe.Graph, error) {
	data, _, err := store.LoadAndVerify(manifest, "universe.json", sourcePath, allowUnpinned)
	if err != nil {
		return nil, err
	}

	g, err := universe.Build(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := g.Save(&buf); err != nil {
		return nil, err
	}
	if err := os.WriteFile(graphPath, buf.Bytes(), 0o644); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "write serialized graph", err, map[string]any{"path": graphPath})
	}
	return g, nil
}

// LoadOrBuildGraph loads the previously-serialized binary graph from
// graphPath when present, falling back to a full BuildGraph from source
// JSON on first run or when the serialized file is missing. A bad-magic or
// checksum-mismatch error from Load is never silently swallowed into a
// rebuild — that would mask real corruption — it propagates as
// IntegrityError migration-detection supplement.
func LoadOrBuildGraph(manifest store.Manifest, sourcePath, graphPath string, allowUnpinned bool) (*universe.Graph, error) {
	data, err := os.ReadFile(graphPath)
	if err != nil {
		if os.IsNotExist(err) {
			return BuildGraph(manifest, sourcePath, graphPath, allowUnpinned)
		}
		return nil, apperr.Wrap(apperr.Internal, "read serialized graph", err, map[string]any{"path": graphPath})
	}
	return universe.Load(bytes.NewReader(data))
}

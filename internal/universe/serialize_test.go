package universe

import (
	"bytes"
	"testing"

	"github.com/vitadek/starcharts/internal/apperr"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	original := mustBuildFixture()
	var buf bytes.Buffer
	if err := original.Save(&buf); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(&buf)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Version() != original.Version() {
		t.Fatalf("version mismatch: %q vs %q", loaded.Version(), original.Version())
	}
	if loaded.VertexCount() != original.VertexCount() {
		t.Fatalf("vertex count mismatch: %d vs %d", loaded.VertexCount(), original.VertexCount())
	}
	for i := 0; i < original.VertexCount(); i++ {
		if loaded.systemID[i] != original.systemID[i] || loaded.name[i] != original.name[i] || loaded.security[i] != original.security[i] {
			t.Fatalf("vertex %d attributes mismatch after round trip", i)
		}
		if len(loaded.adjacency[i]) != len(original.adjacency[i]) {
			t.Fatalf("vertex %d adjacency length mismatch after round trip", i)
		}
	}

	sys, ok := loaded.SystemByName("amarr")
	if !ok {
		t.Fatal("expected case-insensitive lookup to survive round trip")
	}
	if !loaded.IsBorder(loaded.idToIndex[sys.ID]) {
		t.Fatal("expected Amarr to remain a border system after round trip")
	}
}

func TestLoadRejectsBadMagicBytes(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("not a starcharts graph file at all")))
	if err == nil {
		t.Fatal("expected error for unrecognized file format")
	}
	ae, ok := apperr.As(err)
	if !ok || ae.Kind != apperr.IntegrityError {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
}

func TestLoadRejectsTruncatedPayload(t *testing.T) {
	g := mustBuildFixture()
	var buf bytes.Buffer
	if err := g.Save(&buf); err != nil {
		t.Fatalf("save: %v", err)
	}
	truncated := buf.Bytes()[:buf.Len()-10]
	_, err := Load(bytes.NewReader(truncated))
	if err == nil {
		t.Fatal("expected error for truncated graph file")
	}
}

func TestLoadRejectsFutureFormatVersion(t *testing.T) {
	g := mustBuildFixture()
	var buf bytes.Buffer
	if err := g.Save(&buf); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw := buf.Bytes()
	// Format version is the two bytes immediately after the 4-byte magic.
	raw[4] = 0xFF
	raw[5] = 0xFF
	_, err := Load(bytes.NewReader(raw))
	if err == nil {
		t.Fatal("expected error for unsupported format version")
	}
	ae, ok := apperr.As(err)
	if !ok || ae.Kind != apperr.IntegrityError {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
}

package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"lukechampine.com/blake3"

	"github.com/vitadek/starcharts/internal/apperr"
)

// Manifest pins SHA-256 checksums for externally-sourced reference blobs
// (bulk market CSV seed, universe JSON source) A
// mismatch fails the load and leaves previous state intact.
type Manifest struct {
	// Checksums maps a logical blob name (e.g. "market_seed.csv",
	// "universe.json") to its pinned lower-hex SHA-256 digest.
	Checksums map[string]string `yaml:"checksums" json:"checksums"`
}

// SHA256Hex computes the pinned-integrity digest for a blob.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// QuickDigest computes a fast, non-pinned digest used to hash-seed the
// fitting calculator's stats and the skills tool's skill ranks (never for
// the integrity decision itself). Grounded on the teacher's
// utils.go:hashBLAKE3 / pkg/core/security.go:Hash.
func QuickDigest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Verify checks data against the manifest's pinned digest for name. If
// allowUnpinned is true and name has no manifest entry, verification is
// skipped but the caller is expected to log a warning (this function
// reports that via the bool return so callers do the logging themselves,
// keeping this package free of a logger dependency).
func Verify(manifest Manifest, name string, data []byte, allowUnpinned bool) (skippedUnpinned bool, err error) {
	pinned, ok := manifest.Checksums[name]
	if !ok {
		if allowUnpinned {
			return true, nil
		}
		return false, apperr.New(apperr.IntegrityError, fmt.Sprintf("no pinned checksum for %q and unpinned loads are disabled", name), map[string]any{"blob": name})
	}
	got := SHA256Hex(data)
	if got != pinned {
		return false, apperr.New(apperr.IntegrityError, fmt.Sprintf("checksum mismatch for %q", name), map[string]any{
			"blob": name, "expected": pinned, "actual": got,
		})
	}
	return false, nil
}

// LoadAndVerify reads path from disk and verifies it against the manifest
// under the blob name. The previous state the caller holds is left
// untouched if this returns an error — the caller simply doesn't apply the
// new blob.
func LoadAndVerify(manifest Manifest, name, path string, allowUnpinned bool) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, apperr.Wrap(apperr.Internal, fmt.Sprintf("read blob %q", name), err, map[string]any{"path": path})
	}
	skippedUnpinned, err := Verify(manifest, name, data, allowUnpinned)
	if err != nil {
		return nil, false, err
	}
	return data, skippedUnpinned, nil
}

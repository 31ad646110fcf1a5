// Serialization for the built graph. Design Notes §9 requires a format
// that "must not use any serialization format that can execute code on
// load" and explicitly deprecates a native-object pickling format in favor
// of a tagged binary format with magic bytes — so this is a hand-rolled,
// length-prefixed binary record format, not gob/json/protobuf. The blob is
// then LZ4-compressed, grounded on the teacher's utils.go:compressLZ4 /
// decompressLZ4 (a pooled bytes.Buffer wrapping an lz4.Writer/Reader).
package universe

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/vitadek/starcharts/internal/apperr"
)

var magicBytes = [4]byte{'S', 'T', 'C', 'G'} // "STarchartsGraph"

const formatVersion uint16 = 1

// Save writes the graph to w in the tagged binary format: magic bytes,
// format version, then an LZ4-compressed payload.
func (g *Graph) Save(w io.Writer) error {
	var payload bytes.Buffer
	if err := g.encodePayload(&payload); err != nil {
		return err
	}

	compressed, err := compressLZ4(payload.Bytes())
	if err != nil {
		return apperr.Wrap(apperr.Internal, "compress graph payload", err, nil)
	}

	if _, err := w.Write(magicBytes[:]); err != nil {
		return apperr.Wrap(apperr.Internal, "write magic bytes", err, nil)
	}
	if err := binary.Write(w, binary.LittleEndian, formatVersion); err != nil {
		return apperr.Wrap(apperr.Internal, "write format version", err, nil)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(compressed))); err != nil {
		return apperr.Wrap(apperr.Internal, "write payload length", err, nil)
	}
	if _, err := w.Write(compressed); err != nil {
		return apperr.Wrap(apperr.Internal, "write compressed payload", err, nil)
	}
	return nil
}

// Load reads a graph previously written by Save. A magic-byte mismatch is
// reported distinctly from a checksum/format-version mismatch so callers
// can tell "this isn't our format" from "this is corrupted", per
// SPEC_FULL.md's migration-handling supplement.
func Load(r io.Reader) (*Graph, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, apperr.Wrap(apperr.IntegrityError, "read magic bytes", err, nil)
	}
	if magic != magicBytes {
		return nil, apperr.New(apperr.IntegrityError, "unrecognized graph file format (bad magic bytes); legacy pickle-style caches are not supported", map[string]any{
			"expected_magic": string(magicBytes[:]),
			"actual_magic":   string(magic[:]),
		})
	}

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, apperr.Wrap(apperr.IntegrityError, "read format version", err, nil)
	}
	if version != formatVersion {
		return nil, apperr.New(apperr.IntegrityError, fmt.Sprintf("unsupported graph format version %d (expected %d)", version, formatVersion), nil)
	}

	var payloadLen uint32
	if err := binary.Read(r, binary.LittleEndian, &payloadLen); err != nil {
		return nil, apperr.Wrap(apperr.IntegrityError, "read payload length", err, nil)
	}
	compressed := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, apperr.Wrap(apperr.IntegrityError, "read compressed payload", err, nil)
	}

	payload, err := decompressLZ4(compressed)
	if err != nil {
		return nil, apperr.Wrap(apperr.IntegrityError, "decompress graph payload", err, nil)
	}

	g, err := decodePayload(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	if err := g.validateInvariants(); err != nil {
		return nil, err
	}
	return g, nil
}

func compressLZ4(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressLZ4(src []byte) ([]byte, error) {
	zr := lz4.NewReader(bytes.NewReader(src))
	var out bytes.Buffer
	if _, err := io.Copy(&out, zr); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func (g *Graph) encodePayload(w io.Writer) error {
	if err := writeString(w, g.version); err != nil {
		return apperr.Wrap(apperr.Internal, "encode version", err, nil)
	}
	n := uint32(len(g.systemID))
	if err := binary.Write(w, binary.LittleEndian, n); err != nil {
		return apperr.Wrap(apperr.Internal, "encode vertex count", err, nil)
	}
	for i := 0; i < int(n); i++ {
		if err := binary.Write(w, binary.LittleEndian, g.systemID[i]); err != nil {
			return err
		}
		if err := writeString(w, g.name[i]); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, g.security[i]); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, g.constellationID[i]); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, g.regionID[i]); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(g.constIDToName))); err != nil {
		return err
	}
	for id, name := range g.constIDToName {
		if err := binary.Write(w, binary.LittleEndian, id); err != nil {
			return err
		}
		if err := writeString(w, name); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(g.regionIDToName))); err != nil {
		return err
	}
	for id, name := range g.regionIDToName {
		if err := binary.Write(w, binary.LittleEndian, id); err != nil {
			return err
		}
		if err := writeString(w, name); err != nil {
			return err
		}
	}

	for i := 0; i < int(n); i++ {
		neighbors := g.adjacency[i]
		if err := binary.Write(w, binary.LittleEndian, uint32(len(neighbors))); err != nil {
			return err
		}
		for _, nb := range neighbors {
			if err := binary.Write(w, binary.LittleEndian, nb); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodePayload(r io.Reader) (*Graph, error) {
	version, err := readString(r)
	if err != nil {
		return nil, apperr.Wrap(apperr.IntegrityError, "decode version", err, nil)
	}
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, apperr.Wrap(apperr.IntegrityError, "decode vertex count", err, nil)
	}

	g := &Graph{
		version:          version,
		systemID:         make([]int32, n),
		name:             make([]string, n),
		security:         make([]float64, n),
		constellationID:  make([]int32, n),
		regionID:         make([]int32, n),
		adjacency:        make([][]int32, n),
		idToIndex:        make(map[int32]int, n),
		nameToIndex:      make(map[string]int, n),
		foldedToCanon:    make(map[string]string, n),
		constIDToName:    make(map[int32]string),
		regionIDToName:   make(map[int32]string),
		regionNameFold:   make(map[string]int32),
		highSet:          make(map[int]struct{}),
		lowSet:           make(map[int]struct{}),
		nullSet:          make(map[int]struct{}),
		border:           make(map[int]struct{}),
		regionToVertices: make(map[int32][]int),
	}

	for i := 0; i < int(n); i++ {
		if err := binary.Read(r, binary.LittleEndian, &g.systemID[i]); err != nil {
			return nil, apperr.Wrap(apperr.IntegrityError, "decode system id", err, nil)
		}
		name, err := readString(r)
		if err != nil {
			return nil, apperr.Wrap(apperr.IntegrityError, "decode system name", err, nil)
		}
		g.name[i] = name
		if err := binary.Read(r, binary.LittleEndian, &g.security[i]); err != nil {
			return nil, apperr.Wrap(apperr.IntegrityError, "decode security", err, nil)
		}
		if err := binary.Read(r, binary.LittleEndian, &g.constellationID[i]); err != nil {
			return nil, apperr.Wrap(apperr.IntegrityError, "decode constellation id", err, nil)
		}
		if err := binary.Read(r, binary.LittleEndian, &g.regionID[i]); err != nil {
			return nil, apperr.Wrap(apperr.IntegrityError, "decode region id", err, nil)
		}
		g.idToIndex[g.systemID[i]] = i
		g.nameToIndex[name] = i
		g.foldedToCanon[foldName(name)] = name
		g.regionToVertices[g.regionID[i]] = append(g.regionToVertices[g.regionID[i]], i)
	}

	var constCount uint32
	if err := binary.Read(r, binary.LittleEndian, &constCount); err != nil {
		return nil, apperr.Wrap(apperr.IntegrityError, "decode constellation name count", err, nil)
	}
	for i := 0; i < int(constCount); i++ {
		var id int32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return nil, err
		}
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		g.constIDToName[id] = name
	}

	var regionCount uint32
	if err := binary.Read(r, binary.LittleEndian, &regionCount); err != nil {
		return nil, apperr.Wrap(apperr.IntegrityError, "decode region name count", err, nil)
	}
	for i := 0; i < int(regionCount); i++ {
		var id int32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return nil, err
		}
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		g.regionIDToName[id] = name
		g.regionNameFold[foldName(name)] = id
	}

	for i := 0; i < int(n); i++ {
		var cnt uint32
		if err := binary.Read(r, binary.LittleEndian, &cnt); err != nil {
			return nil, apperr.Wrap(apperr.IntegrityError, "decode adjacency count", err, nil)
		}
		neighbors := make([]int32, cnt)
		for j := 0; j < int(cnt); j++ {
			if err := binary.Read(r, binary.LittleEndian, &neighbors[j]); err != nil {
				return nil, apperr.Wrap(apperr.IntegrityError, "decode adjacency entry", err, nil)
			}
		}
		g.adjacency[i] = neighbors
	}

	g.computeMembership()
	g.computeWeights()
	return g, nil
}

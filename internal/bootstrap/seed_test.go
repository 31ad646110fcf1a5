package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/vitadek/starcharts/internal/store"
)

const sampleTypesCSV = `item_id,name,group_id,market_group_id
34,Tritanium,18,1857
35,Pyerite,18,1857
`

const sampleMarketCSV = `region_id,item_id,side,weighted_avg,min,max,median,stddev,volume,order_count,percentile,updated_at
100,34,sell,5.10,5.00,5.25,5.10,0.05,1000000,42,5.05,2026-07-01T00:00:00Z
100,34,buy,4.90,4.80,5.00,4.90,0.05,500000,30,4.95,2026-07-01T00:00:00Z
`

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestSeedTypesUpsertsEveryRow(t *testing.T) {
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	path := writeTempFile(t, "item_types.csv", sampleTypesCSV)
	m := store.Manifest{Checksums: map[string]string{}}
	n, err := SeedTypes(context.Background(), st, m, path, true)
	if err != nil {
		t.Fatalf("seed types: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows seeded, got %d", n)
	}
	typ, ok, err := st.GetTypeByID(context.Background(), 34)
	if err != nil || !ok {
		t.Fatalf("expected item 34 to be present: ok=%v err=%v", ok, err)
	}
	if typ.Name != "Tritanium" {
		t.Errorf("expected Tritanium, got %s", typ.Name)
	}
}

func TestSeedTypesRejectsUnpinnedWhenDisallowed(t *testing.T) {
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	path := writeTempFile(t, "item_types.csv", sampleTypesCSV)
	m := store.Manifest{Checksums: map[string]string{}}
	if _, err := SeedTypes(context.Background(), st, m, path, false); err == nil {
		t.Fatalf("expected an integrity error for an unpinned blob with allowUnpinned=false")
	}
}

func TestSeedMarketUpsertsBothSides(t *testing.T) {
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	path := writeTempFile(t, "market_seed.csv", sampleMarketCSV)
	m := store.Manifest{Checksums: map[string]string{}}
	n, err := SeedMarket(context.Background(), st, m, path, true)
	if err != nil {
		t.Fatalf("seed market: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows seeded, got %d", n)
	}
	agg, ok, err := st.GetAggregate(context.Background(), 100, 34, "sell")
	if err != nil || !ok {
		t.Fatalf("expected a sell aggregate for item 34: ok=%v err=%v", ok, err)
	}
	if agg.WeightedAvg != 5.10 {
		t.Errorf("expected weighted_avg 5.10, got %v", agg.WeightedAvg)
	}
}

func TestSeedMarketRejectsBadSide(t *testing.T) {
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	bad := "region_id,item_id,side,weighted_avg,min,max,median,stddev,volume,order_count,percentile,updated_at\n100,34,both,1,1,1,1,0,1,1,1,2026-07-01T00:00:00Z\n"
	path := writeTempFile(t, "market_seed.csv", bad)
	m := store.Manifest{Checksums: map[string]string{}}
	if _, err := SeedMarket(context.Background(), st, m, path, true); err == nil {
		t.Fatalf("expected an error for an invalid side value")
	}
}

func TestSeedMarketEnforcesPinnedChecksum(t *testing.T) {
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	path := writeTempFile(t, "market_seed.csv", sampleMarketCSV)
	m := store.Manifest{Checksums: map[string]string{"market_seed.csv": "0000000000000000000000000000000000000000000000000000000000000000"}}
	if _, err := SeedMarket(context.Background(), st, m, path, false); err == nil {
		t.Fatalf("expected a checksum mismatch error")
	}
}

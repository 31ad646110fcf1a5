package bootstrap

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/vitadek/starcharts/internal/apperr"
	"github.com/vitadek/starcharts/internal/store"
)

// SeedMarket parses the bulk market-aggregate CSV (verified against the
// manifest under blob name "market_seed.csv") and batch-upserts it into
// the store all-or-nothing seed-load contract.
//
// Expected columns: region_id,item_id,side,weighted_avg,min,max,median,
// stddev,volume,order_count,percentile,updated_at (RFC3339).
func SeedMarket(ctx context.Context, st *store.Store, manifest store.Manifest, csvPath string, allowUnpinned bool) (int, error) {
	data, _, err := store.LoadAndVerify(manifest, "market_seed.csv", csvPath, allowUnpinned)
	if err != nil {
		return 0, err
	}

	rows, err := parseMarketSeedCSV(data)
	if err != nil {
		return 0, err
	}
	if err := st.UpsertAggregates(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func parseMarketSeedCSV(data []byte) ([]store.PriceAggregate, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, apperr.New(apperr.IntegrityError, "market seed csv has no header row", nil)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.IntegrityError, "read market seed csv header", err, nil)
	}
	col := columnIndex(header)

	var rows []store.PriceAggregate
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.IntegrityError, "read market seed csv row", err, nil)
		}
		row, err := parseMarketSeedRow(rec, col)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func columnIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.ToLower(h))] = i
	}
	return col
}

func csvField(rec []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseMarketSeedRow(rec []string, col map[string]int) (store.PriceAggregate, error) {
	regionID, err := strconv.ParseInt(csvField(rec, col, "region_id"), 10, 32)
	if err != nil {
		return store.PriceAggregate{}, apperr.Wrap(apperr.IntegrityError, "parse region_id", err, nil)
	}
	itemID, err := strconv.ParseInt(csvField(rec, col, "item_id"), 10, 32)
	if err != nil {
		return store.PriceAggregate{}, apperr.Wrap(apperr.IntegrityError, "parse item_id", err, nil)
	}
	side := strings.ToLower(csvField(rec, col, "side"))
	if side != "buy" && side != "sell" {
		return store.PriceAggregate{}, apperr.New(apperr.IntegrityError, "market seed row side must be buy or sell", map[string]any{"side": side})
	}

	updatedAt := time.Now().UTC()
	if raw := csvField(rec, col, "updated_at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return store.PriceAggregate{}, apperr.Wrap(apperr.IntegrityError, "parse updated_at", err, nil)
		}
		updatedAt = parsed
	}

	weightedAvg, err1 := strconv.ParseFloat(csvField(rec, col, "weighted_avg"), 64)
	min, err2 := strconv.ParseFloat(csvField(rec, col, "min"), 64)
	max, err3 := strconv.ParseFloat(csvField(rec, col, "max"), 64)
	median, err4 := strconv.ParseFloat(csvField(rec, col, "median"), 64)
	stddev, err5 := strconv.ParseFloat(csvField(rec, col, "stddev"), 64)
	volume, err6 := strconv.ParseInt(csvField(rec, col, "volume"), 10, 64)
	orderCount, err7 := strconv.ParseInt(csvField(rec, col, "order_count"), 10, 64)
	percentile, err8 := strconv.ParseFloat(csvField(rec, col, "percentile"), 64)
	for _, e := range []error{err1, err2, err3, err4, err5, err6, err7, err8} {
		if e != nil {
			return store.PriceAggregate{}, apperr.Wrap(apperr.IntegrityError, "parse market seed numeric field", e, nil)
		}
	}

	return store.PriceAggregate{
		RegionID: int32(regionID), ItemID: int32(itemID), Side: side,
		WeightedAvg: weightedAvg, Min: min, Max: max, Median: median, StdDev: stddev,
		Volume: volume, OrderCount: orderCount, Percentile: percentile, UpdatedAt: updatedAt,
	}, nil
}

// SeedTypes parses the bulk item-type CSV (verified against the manifest
// under blob name "item_types.csv") and batch-upserts it into the store's
// type index.
//
// Expected columns: item_id,name,group_id,market_group_id.
func SeedTypes(ctx context.Context, st *store.Store, manifest store.Manifest, csvPath string, allowUnpinned bool) (int, error) {
	data, _, err := store.LoadAndVerify(manifest, "item_types.csv", csvPath, allowUnpinned)
	if err != nil {
		return 0, err
	}

	rows, err := parseItemTypesCSV(data)
	if err != nil {
		return 0, err
	}
	if err := st.UpsertTypes(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func parseItemTypesCSV(data []byte) ([]store.ItemType, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, apperr.New(apperr.IntegrityError, "item types csv has no header row", nil)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.IntegrityError, "read item types csv header", err, nil)
	}
	col := columnIndex(header)

	var rows []store.ItemType
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.IntegrityError, "read item types csv row", err, nil)
		}
		itemID, err := strconv.ParseInt(csvField(rec, col, "item_id"), 10, 32)
		if err != nil {
			return nil, apperr.Wrap(apperr.IntegrityError, "parse item_id", err, nil)
		}
		name := csvField(rec, col, "name")
		if name == "" {
			return nil, apperr.New(apperr.IntegrityError, "item types row has no name", map[string]any{"item_id": itemID})
		}
		groupID, _ := strconv.ParseInt(csvField(rec, col, "group_id"), 10, 32)
		marketGroupID, _ := strconv.ParseInt(csvField(rec, col, "market_group_id"), 10, 32)
		rows = append(rows, store.ItemType{
			ItemID: int32(itemID), Name: name, NameLower: strings.ToLower(name),
			GroupID: int32(groupID), MarketGroupID: int32(marketGroupID),
		})
	}
	return rows, nil
}

// Package store is the persistent, embedded single-file database for bulk
// market aggregates, the item-name index, and small bookkeeping tables.
// Grounded on Vitadek-OwnWorld's db.go (sql.Open("sqlite3", ...), WAL mode,
// schema-in-a-string, serialized writes) but re-pointed at the three tables
// spec.md §4.2 names instead of the teacher's game-world tables.
package store

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vitadek/starcharts/internal/apperr"
)

// Store owns the sqlite connection pool. Writes are serialized per table
//; reads run concurrently through the pool.
type Store struct {
	db *sql.DB

	aggWriteMu  sync.Mutex
	typeWriteMu sync.Mutex
	metaWriteMu sync.Mutex
}

// Open opens (creating if necessary) the sqlite file at path in WAL mode
// and ensures the schema exists. maxOpenConns bounds the connection pool,
// which doubles as the semaphore on concurrent writers
func Open(path string, maxOpenConns int) (*Store, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "open persistent store", err, nil)
	}
	db.SetMaxOpenConns(maxOpenConns)
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "set WAL mode", err, nil)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenMemory opens an in-memory store for tests.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "open in-memory store", err, nil)
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS aggregates (
	region_id INTEGER NOT NULL,
	item_id INTEGER NOT NULL,
	side TEXT NOT NULL CHECK(side IN ('buy','sell')),
	weighted_avg REAL,
	min REAL,
	max REAL,
	median REAL,
	stddev REAL,
	volume INTEGER,
	order_count INTEGER,
	percentile REAL,
	updated_at INTEGER,
	PRIMARY KEY (region_id, item_id, side)
);

CREATE TABLE IF NOT EXISTS types (
	item_id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	name_lower TEXT NOT NULL,
	group_id INTEGER,
	market_group_id INTEGER
);
CREATE INDEX IF NOT EXISTS idx_types_name_lower ON types(name_lower);

CREATE TABLE IF NOT EXISTS metadata (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

func (s *Store) createSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return apperr.Wrap(apperr.Internal, "create schema", err, nil)
	}
	return nil
}

// PriceAggregate mirrors spec.md §3's price aggregate primary key and fields.
type PriceAggregate struct {
	RegionID      int32
	ItemID        int32
	Side          string // "buy" or "sell"
	WeightedAvg   float64
	Min           float64
	Max           float64
	Median        float64
	StdDev        float64
	Volume        int64
	OrderCount    int64
	Percentile    float64
	UpdatedAt     time.Time
}

// ItemType mirrors spec.md §3's item type record.
type ItemType struct {
	ItemID        int32
	Name          string
	NameLower     string
	GroupID       int32
	MarketGroupID int32
}

// UpsertAggregates performs an all-or-nothing batch upsert, per spec.md
// §4.2. Used both for bulk CSV seeding and for writing upstream-sourced
// aggregates the market cache decides are worth persisting.
func (s *Store) UpsertAggregates(ctx context.Context, rows []PriceAggregate) error {
	if len(rows) == 0 {
		return nil
	}
	s.aggWriteMu.Lock()
	defer s.aggWriteMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "begin aggregate upsert", err, nil)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO aggregates (region_id, item_id, side, weighted_avg, min, max, median, stddev, volume, order_count, percentile, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(region_id, item_id, side) DO UPDATE SET
			weighted_avg=excluded.weighted_avg, min=excluded.min, max=excluded.max,
			median=excluded.median, stddev=excluded.stddev, volume=excluded.volume,
			order_count=excluded.order_count, percentile=excluded.percentile, updated_at=excluded.updated_at
	`)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "prepare aggregate upsert", err, nil)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.RegionID, row.ItemID, row.Side, row.WeightedAvg, row.Min, row.Max,
			row.Median, row.StdDev, row.Volume, row.OrderCount, row.Percentile, row.UpdatedAt.Unix()); err != nil {
			return apperr.Wrap(apperr.Internal, "exec aggregate upsert", err, map[string]any{"region_id": row.RegionID, "item_id": row.ItemID})
		}
	}
	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Internal, "commit aggregate upsert", err, nil)
	}
	return nil
}

// GetAggregate is a point lookup by (region, item, side).
func (s *Store) GetAggregate(ctx context.Context, regionID, itemID int32, side string) (*PriceAggregate, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT region_id, item_id, side, weighted_avg, min, max, median, stddev, volume, order_count, percentile, updated_at
		FROM aggregates WHERE region_id=? AND item_id=? AND side=?`, regionID, itemID, side)
	var agg PriceAggregate
	var updatedUnix int64
	if err := row.Scan(&agg.RegionID, &agg.ItemID, &agg.Side, &agg.WeightedAvg, &agg.Min, &agg.Max,
		&agg.Median, &agg.StdDev, &agg.Volume, &agg.OrderCount, &agg.Percentile, &updatedUnix); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, apperr.Wrap(apperr.Internal, "get aggregate", err, nil)
	}
	agg.UpdatedAt = time.Unix(updatedUnix, 0).UTC()
	return &agg, true, nil
}

// GetAggregatesBatch is the multi-key lookup used for batch pricing.
func (s *Store) GetAggregatesBatch(ctx context.Context, regionID int32, itemIDs []int32) (map[int32]map[string]PriceAggregate, error) {
	out := make(map[int32]map[string]PriceAggregate, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}
	query := `SELECT region_id, item_id, side, weighted_avg, min, max, median, stddev, volume, order_count, percentile, updated_at
		FROM aggregates WHERE region_id=? AND item_id IN (` + placeholders(len(itemIDs)) + `)`
	args := make([]any, 0, len(itemIDs)+1)
	args = append(args, regionID)
	for _, id := range itemIDs {
		args = append(args, id)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "batch aggregate lookup", err, nil)
	}
	defer rows.Close()
	for rows.Next() {
		var agg PriceAggregate
		var updatedUnix int64
		if err := rows.Scan(&agg.RegionID, &agg.ItemID, &agg.Side, &agg.WeightedAvg, &agg.Min, &agg.Max,
			&agg.Median, &agg.StdDev, &agg.Volume, &agg.OrderCount, &agg.Percentile, &updatedUnix); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "scan batch aggregate", err, nil)
		}
		agg.UpdatedAt = time.Unix(updatedUnix, 0).UTC()
		if out[agg.ItemID] == nil {
			out[agg.ItemID] = make(map[string]PriceAggregate, 2)
		}
		out[agg.ItemID][agg.Side] = agg
	}
	return out, rows.Err()
}

// NewestTimestamp is the freshness query: newest aggregate timestamp for a region.
func (s *Store) NewestTimestamp(ctx context.Context, regionID int32) (time.Time, bool, error) {
	var updatedUnix sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(updated_at) FROM aggregates WHERE region_id=?`, regionID).Scan(&updatedUnix)
	if err != nil {
		return time.Time{}, false, apperr.Wrap(apperr.Internal, "freshness query", err, nil)
	}
	if !updatedUnix.Valid {
		return time.Time{}, false, nil
	}
	return time.Unix(updatedUnix.Int64, 0).UTC(), true, nil
}

// UpsertTypes batch-loads the item-name index, all-or-nothing per batch.
func (s *Store) UpsertTypes(ctx context.Context, rows []ItemType) error {
	if len(rows) == 0 {
		return nil
	}
	s.typeWriteMu.Lock()
	defer s.typeWriteMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "begin types upsert", err, nil)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO types (item_id, name, name_lower, group_id, market_group_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET name=excluded.name, name_lower=excluded.name_lower,
			group_id=excluded.group_id, market_group_id=excluded.market_group_id
	`)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "prepare types upsert", err, nil)
	}
	defer stmt.Close()

	for _, t := range rows {
		if _, err := stmt.ExecContext(ctx, t.ItemID, t.Name, t.NameLower, t.GroupID, t.MarketGroupID); err != nil {
			return apperr.Wrap(apperr.Internal, "exec types upsert", err, map[string]any{"item_id": t.ItemID})
		}
	}
	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Internal, "commit types upsert", err, nil)
	}
	return nil
}

// GetTypeByName is a case-insensitive exact lookup against the lower-cased index.
func (s *Store) GetTypeByName(ctx context.Context, nameLower string) (*ItemType, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT item_id, name, name_lower, group_id, market_group_id FROM types WHERE name_lower=?`, nameLower)
	var t ItemType
	if err := row.Scan(&t.ItemID, &t.Name, &t.NameLower, &t.GroupID, &t.MarketGroupID); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, apperr.Wrap(apperr.Internal, "get type by name", err, nil)
	}
	return &t, true, nil
}

// GetTypeByID is a point lookup by stable item id, used by the sde() tool
// surface's id-based item lookup.
func (s *Store) GetTypeByID(ctx context.Context, itemID int32) (*ItemType, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT item_id, name, name_lower, group_id, market_group_id FROM types WHERE item_id=?`, itemID)
	var t ItemType
	if err := row.Scan(&t.ItemID, &t.Name, &t.NameLower, &t.GroupID, &t.MarketGroupID); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, apperr.Wrap(apperr.Internal, "get type by id", err, nil)
	}
	return &t, true, nil
}

// SearchTypes returns up to limit full ItemType records whose lower-cased
// name contains queryLower, ordered alphabetically — the sde(action=
// "search") substring lookup over the item-name index.
func (s *Store) SearchTypes(ctx context.Context, queryLower string, limit int) ([]ItemType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, name, name_lower, group_id, market_group_id FROM types
		WHERE name_lower LIKE ? ORDER BY name_lower LIMIT ?`, "%"+queryLower+"%", limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "search types", err, nil)
	}
	defer rows.Close()
	var out []ItemType
	for rows.Next() {
		var t ItemType
		if err := rows.Scan(&t.ItemID, &t.Name, &t.NameLower, &t.GroupID, &t.MarketGroupID); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "scan type search result", err, nil)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SuggestTypeNames returns up to limit canonical names whose lower-cased
// form contains query, used to build TypeNotFound suggestions.
func (s *Store) SuggestTypeNames(ctx context.Context, queryLower string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM types WHERE name_lower LIKE ? ORDER BY name_lower LIMIT ?`,
		"%"+queryLower+"%", limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "suggest type names", err, nil)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "scan suggestion", err, nil)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// SetMetadata and GetMetadata back the small bookkeeping table (3) from
// spec.md §4.2 — e.g. manifest versions, last-seed timestamps.
func (s *Store) SetMetadata(ctx context.Context, key, value string, at time.Time) error {
	s.metaWriteMu.Lock()
	defer s.metaWriteMu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, at.Unix())
	if err != nil {
		return apperr.Wrap(apperr.Internal, "set metadata", err, map[string]any{"key": key})
	}
	return nil
}

func (s *Store) GetMetadata(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key=?`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, apperr.Wrap(apperr.Internal, "get metadata", err, nil)
	}
	return value, true, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, n*2-1)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '?')
	}
	return string(out)
}


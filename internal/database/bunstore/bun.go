// Package bunstore implements the database repositories over SQLite using
// bun. The vector index is a sqlite-vec (vec0) virtual table living in the
// same database file; when the vec extension is unavailable the store still
// opens and only vector search degrades.
package bunstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/finlink/finlink-api/internal/database"
	"github.com/finlink/finlink-api/internal/database/models"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"
)

const vecIndexTable = "asset_embeddings_idx"

type BunStore struct {
	db           *bun.DB
	embeddingDim int
	queryTimeout time.Duration
	vecAvailable bool
}

// Options tunes the store. Zero values fall back to defaults.
type Options struct {
	EmbeddingDim int           // vector dimensionality, default 768
	QueryTimeout time.Duration // per-statement timeout, default 10s
}

// NewBunStore opens (or creates) the database at dsn and ensures the schema.
// Use ":memory:" for tests.
func NewBunStore(dsn string, opts Options) (*BunStore, error) {
	if opts.EmbeddingDim <= 0 {
		opts.EmbeddingDim = 768
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 10 * time.Second
	}

	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// An in-memory database exists per connection; keep the pool at one so
	// every statement sees the same data.
	if strings.Contains(dsn, ":memory:") {
		sqldb.SetMaxOpenConns(1)
	}

	store := &BunStore{
		db:           bun.NewDB(sqldb, sqlitedialect.New()),
		embeddingDim: opts.EmbeddingDim,
		queryTimeout: opts.QueryTimeout,
	}
	if err := store.initSchema(); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return store, nil
}

func (s *BunStore) initSchema() error {
	ctx := context.Background()

	if _, err := s.db.NewCreateTable().Model((*models.Asset)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create assets table: %w", err)
	}
	if _, err := s.db.NewCreateTable().Model((*models.AssetEmbedding)(nil)).IfNotExists().
		ForeignKey(`("asset_id") REFERENCES "assets" ("asset_id")`).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create asset_embeddings table: %w", err)
	}

	// One link table per source type, all sharing the same shape. The table
	// and column names come from the closed SourceType enum, never from
	// caller input.
	for _, st := range database.SourceTypes {
		spec, err := st.TableSpec()
		if err != nil {
			return err
		}
		ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%s TEXT NOT NULL,
			asset_id INTEGER NOT NULL,
			method TEXT NOT NULL,
			similarity_score REAL NOT NULL,
			linked_at INTEGER NOT NULL,
			PRIMARY KEY (%s, asset_id, method)
		)`, spec.Table, spec.SourceIDColumn, spec.SourceIDColumn)
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", spec.Table, err)
		}
	}

	// Probe the vec extension before creating the index table. Missing vec is
	// a degraded deployment, not a startup failure.
	var vecVersion string
	if err := s.db.QueryRowContext(ctx, "SELECT vec_version()").Scan(&vecVersion); err != nil {
		log.Printf("[BunStore] Warning: sqlite-vec unavailable, vector search disabled: %v", err)
		return nil
	}

	ddl := fmt.Sprintf(
		"CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(asset_id INTEGER PRIMARY KEY, embedding FLOAT[%d] distance_metric=cosine)",
		vecIndexTable, s.embeddingDim)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		log.Printf("[BunStore] Warning: failed to create vec index, vector search disabled: %v", err)
		return nil
	}

	s.vecAvailable = true
	log.Printf("[BunStore] sqlite-vec %s ready, index dim=%d", vecVersion, s.embeddingDim)
	return nil
}

func (s *BunStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

// Close closes the underlying database.
func (s *BunStore) Close() error {
	return s.db.Close()
}

// VectorIndexAvailable reports whether the embedded vec index is usable.
func (s *BunStore) VectorIndexAvailable() bool {
	return s.vecAvailable
}

// =========================================================================
// AssetRepository
// =========================================================================

func (s *BunStore) UpsertAsset(ctx context.Context, asset *models.Asset) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.NewInsert().Model(asset).
		On("CONFLICT (asset_id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("isin = EXCLUDED.isin").
		Set("cusip = EXCLUDED.cusip").
		Set("figi = EXCLUDED.figi").
		Set("ticker = EXCLUDED.ticker").
		Set("ric = EXCLUDED.ric").
		Set("wkn = EXCLUDED.wkn").
		Set("currency = EXCLUDED.currency").
		Set("asset_class = EXCLUDED.asset_class").
		Set("country = EXCLUDED.country").
		Set("exchange = EXCLUDED.exchange").
		Exec(ctx)
	return err
}

func (s *BunStore) FindByIdentifiers(ctx context.Context, tokens []string) ([]*models.Asset, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var assets []*models.Asset
	err := s.db.NewSelect().Model(&assets).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("isin IN (?)", bun.In(tokens)).
				WhereOr("cusip IN (?)", bun.In(tokens)).
				WhereOr("figi IN (?)", bun.In(tokens)).
				WhereOr("ticker IN (?)", bun.In(tokens)).
				WhereOr("ric IN (?)", bun.In(tokens)).
				WhereOr("wkn IN (?)", bun.In(tokens))
		}).
		Order("asset_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return assets, nil
}

func (s *BunStore) ListAssets(ctx context.Context) ([]*models.Asset, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var assets []*models.Asset
	err := s.db.NewSelect().Model(&assets).
		Column("asset_id", "name").
		Order("asset_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return assets, nil
}

// =========================================================================
// EmbeddingRepository
// =========================================================================

func (s *BunStore) UpsertEmbedding(ctx context.Context, emb *models.AssetEmbedding) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if emb.CreatedAt.IsZero() {
		emb.CreatedAt = time.Now()
	}
	_, err := s.db.NewInsert().Model(emb).
		On("CONFLICT (asset_id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("embedding = EXCLUDED.embedding").
		Set("model_name = EXCLUDED.model_name").
		Set("created_at = EXCLUDED.created_at").
		Exec(ctx)
	return err
}

func (s *BunStore) AssetsMissingEmbedding(ctx context.Context, assetIDs []int64) ([]*models.Asset, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var assets []*models.Asset
	q := s.db.NewSelect().Model(&assets).
		Column("a.asset_id", "a.name").
		Join("LEFT JOIN asset_embeddings AS ae ON ae.asset_id = a.asset_id").
		Where("ae.asset_id IS NULL").
		Where("a.name <> ''")
	if len(assetIDs) > 0 {
		q = q.Where("a.asset_id IN (?)", bun.In(assetIDs))
	}
	if err := q.Order("a.asset_id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return assets, nil
}

// =========================================================================
// VectorIndex
// =========================================================================

func (s *BunStore) UpsertVector(ctx context.Context, assetID int64, vector []float32) error {
	if !s.vecAvailable {
		return database.ErrVectorIndexUnavailable
	}
	if len(vector) != s.embeddingDim {
		return fmt.Errorf("vector dimension mismatch: expected %d, got %d", s.embeddingDim, len(vector))
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	encoded, err := json.Marshal(vector)
	if err != nil {
		return err
	}

	// vec0 tables reject plain upserts; delete-then-insert in one tx.
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE asset_id = ?", vecIndexTable), assetID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (asset_id, embedding) VALUES (?, ?)", vecIndexTable),
			assetID, string(encoded))
		return err
	})
}

func (s *BunStore) SearchSimilar(ctx context.Context, vector []float32, limit int, maxDistance float64) ([]database.VectorMatch, error) {
	if !s.vecAvailable {
		return nil, database.ErrVectorIndexUnavailable
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	encoded, err := json.Marshal(vector)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT asset_id, distance FROM %s WHERE embedding MATCH ? AND k = ? ORDER BY distance", vecIndexTable),
		string(encoded), limit)
	if err != nil {
		return nil, fmt.Errorf("vec search failed: %w", err)
	}
	defer rows.Close()

	var matches []database.VectorMatch
	for rows.Next() {
		var m database.VectorMatch
		if err := rows.Scan(&m.AssetID, &m.Distance); err != nil {
			return nil, err
		}
		if m.Distance < maxDistance {
			matches = append(matches, m)
		}
	}
	return matches, rows.Err()
}

// =========================================================================
// LinkRepository
// =========================================================================

func (s *BunStore) InsertLinks(ctx context.Context, st database.SourceType, sourceID string, links []models.EntityLink) error {
	spec, err := st.TableSpec()
	if err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	insert := fmt.Sprintf(
		"INSERT INTO %s (%s, asset_id, method, similarity_score, linked_at) VALUES (?, ?, ?, ?, ?) ON CONFLICT (%s, asset_id, method) DO NOTHING",
		spec.Table, spec.SourceIDColumn, spec.SourceIDColumn)

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, link := range links {
			linkedAt := link.LinkedAt
			if linkedAt.IsZero() {
				linkedAt = time.Now()
			}
			if _, err := tx.ExecContext(ctx, insert,
				sourceID, link.AssetID, string(link.Method), link.Score, linkedAt.Unix()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s links for %q: %v", database.ErrStoreWrite, st, sourceID, err)
	}
	return nil
}

func (s *BunStore) GetLinks(ctx context.Context, st database.SourceType, sourceID string) ([]models.EntityLink, error) {
	spec, err := st.TableSpec()
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT asset_id, method, similarity_score, linked_at FROM %s WHERE %s = ? ORDER BY asset_id, method",
			spec.Table, spec.SourceIDColumn),
		sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []models.EntityLink
	for rows.Next() {
		var (
			link     models.EntityLink
			method   string
			linkedAt int64
		)
		if err := rows.Scan(&link.AssetID, &method, &link.Score, &linkedAt); err != nil {
			return nil, err
		}
		link.Method = models.MatchMethod(method)
		link.LinkedAt = time.Unix(linkedAt, 0)
		links = append(links, link)
	}
	return links, rows.Err()
}

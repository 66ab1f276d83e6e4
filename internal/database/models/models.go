package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// MatchMethod identifies which cascade stage produced a link.
type MatchMethod string

const (
	MethodExact  MatchMethod = "exact"
	MethodFuzzy  MatchMethod = "fuzzy"
	MethodVector MatchMethod = "vss"
)

// Asset is a canonical investable entity. IDs are assigned externally by the
// ingestion side; the resolution engine treats rows as read-only except for
// derived embeddings.
type Asset struct {
	bun.BaseModel `bun:"table:assets,alias:a"`

	ID         int64  `bun:"asset_id,pk"`
	Name       string `bun:",notnull"`
	ISIN       string `bun:"isin,unique,nullzero"`
	CUSIP      string `bun:"cusip,unique,nullzero"`
	FIGI       string `bun:"figi,unique,nullzero"`
	Ticker     string `bun:",unique,nullzero"`
	RIC        string `bun:"ric,unique,nullzero"`
	WKN        string `bun:"wkn,unique,nullzero"`
	Currency   string `bun:",nullzero"`
	AssetClass string `bun:",nullzero"`
	Country    string `bun:",nullzero"`
	Exchange   string `bun:",nullzero"`
}

// AssetEmbedding holds the single active embedding for an asset. Name is a
// snapshot of the asset name the vector was computed from; it is not refreshed
// when the asset is renamed.
type AssetEmbedding struct {
	bun.BaseModel `bun:"table:asset_embeddings,alias:ae"`

	AssetID   int64     `bun:"asset_id,pk"`
	Name      string    `bun:",notnull"`
	Embedding string    `bun:",notnull"` // JSON-encoded float vector
	ModelName string    `bun:",notnull"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// Vector decodes the stored embedding.
func (e *AssetEmbedding) Vector() ([]float32, error) {
	var vec []float32
	if err := json.Unmarshal([]byte(e.Embedding), &vec); err != nil {
		return nil, fmt.Errorf("corrupt embedding for asset %d: %w", e.AssetID, err)
	}
	return vec, nil
}

// SetVector encodes vec into the stored form.
func (e *AssetEmbedding) SetVector(vec []float32) error {
	raw, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	e.Embedding = string(raw)
	return nil
}

// EntityLink records that one source item matched one asset via one method.
// Score semantics depend on the method: constant 1.0 for exact, raw edit
// distance for fuzzy, cosine distance for vss. Links share this shape across
// all nine per-source link tables.
type EntityLink struct {
	AssetID  int64
	Method   MatchMethod
	Score    float64
	LinkedAt time.Time
}

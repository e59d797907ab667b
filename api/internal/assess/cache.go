package assess

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"eye-check/api/internal/assess/types"
)

// CacheKey: результат зависит от кадра, вендора, модели и поколения схемы.
// Ключ API в ключ кэша не входит.
type CacheKey struct {
	ImageHash string
	Engine    string
	Model     string
	Schema    types.Schema
}

func (k CacheKey) String() string {
	return fmt.Sprintf("assess:%s:%s:%s:%s", k.Engine, k.Model, k.Schema, k.ImageHash)
}

func NewCacheKey(img types.Image, engine, model string, schema types.Schema) CacheKey {
	h := sha256.Sum256(img.Data)
	return CacheKey{ImageHash: hex.EncodeToString(h[:]), Engine: engine, Model: model, Schema: schema}
}

// Cache: необязательный кэш очищенных результатов (Postgres или Redis, см. store).
type Cache interface {
	Get(ctx context.Context, key CacheKey) (types.AnalysisResult, bool, error)
	Put(ctx context.Context, key CacheKey, r types.AnalysisResult) error
}

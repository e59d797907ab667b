package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"eye-check/api/internal/assess"
	"eye-check/api/internal/assess/types"
)

var ErrNotFound = sql.ErrNoRows

// ResultRepo: кэш очищенных результатов в Postgres (таблица assessments).
type ResultRepo struct {
	DB  *sql.DB
	TTL time.Duration // 0: без ограничения свежести
}

func NewResultRepo(db *sql.DB, ttl time.Duration) *ResultRepo { return &ResultRepo{DB: db, TTL: ttl} }

type ResultRow struct {
	CreatedAt time.Time
	ImageHash string
	Engine    string
	Model     string
	Schema    types.Schema
	Result    types.AnalysisResult
}

// Find достаёт запись по (image_hash, engine, model, schema).
// Если maxAge > 0 и запись старше: ErrNotFound, чтобы вызвать модель заново.
func (r *ResultRepo) Find(ctx context.Context, key assess.CacheKey, maxAge time.Duration) (*ResultRow, error) {
	const q = `
select created_at, result_json
from assessments
where image_hash = $1 and engine = $2 and model = $3 and schema = $4`
	var (
		ts time.Time
		js []byte
	)
	if err := r.DB.QueryRowContext(ctx, q, key.ImageHash, key.Engine, key.Model, string(key.Schema)).Scan(&ts, &js); err != nil {
		return nil, err
	}
	if maxAge > 0 && time.Since(ts) > maxAge {
		return nil, ErrNotFound
	}
	var res types.AnalysisResult
	if err := json.Unmarshal(js, &res); err != nil {
		// битая запись равна промаху
		return nil, ErrNotFound
	}
	return &ResultRow{
		CreatedAt: ts,
		ImageHash: key.ImageHash,
		Engine:    key.Engine,
		Model:     key.Model,
		Schema:    key.Schema,
		Result:    res,
	}, nil
}

// Upsert сохраняет результат; существующая запись по ключу перезаписывается вместе с created_at.
func (r *ResultRepo) Upsert(ctx context.Context, key assess.CacheKey, res types.AnalysisResult) error {
	js, err := json.Marshal(res)
	if err != nil {
		return err
	}
	const q = `
insert into assessments (image_hash, engine, model, schema, severity, overall_score, result_json)
values ($1,$2,$3,$4,$5,$6,$7)
on conflict (image_hash, engine, model, schema) do update
set severity = excluded.severity,
    overall_score = excluded.overall_score,
    result_json = excluded.result_json,
    created_at = now()`
	_, err = r.DB.ExecContext(ctx, q,
		key.ImageHash, key.Engine, key.Model, string(key.Schema),
		string(res.Severity), res.OverallScore, js,
	)
	return err
}

// PurgeOlderThan удаляет протухшие записи, чтобы не раздувать БД.
func (r *ResultRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	const q = `delete from assessments where created_at < $1`
	res, err := r.DB.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}

// Get / Put: адаптер под assess.Cache.
func (r *ResultRepo) Get(ctx context.Context, key assess.CacheKey) (types.AnalysisResult, bool, error) {
	row, err := r.Find(ctx, key, r.TTL)
	if errors.Is(err, ErrNotFound) {
		return types.AnalysisResult{}, false, nil
	}
	if err != nil {
		return types.AnalysisResult{}, false, err
	}
	return row.Result, true, nil
}

func (r *ResultRepo) Put(ctx context.Context, key assess.CacheKey, res types.AnalysisResult) error {
	return r.Upsert(ctx, key, res)
}

func (r *ResultRepo) Ping(ctx context.Context) error { return r.DB.PingContext(ctx) }

package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"eye-check/api/internal/assess"
	"eye-check/api/internal/assess/gemini"
	"eye-check/api/internal/assess/openai"
	"eye-check/api/internal/assess/types"
	"eye-check/api/internal/config"
	"eye-check/api/internal/store"
)

// CacheBackend: кэш, который умеет отвечать на healthz.
type CacheBackend interface {
	assess.Cache
	Ping(ctx context.Context) error
}

// App: общие зависимости прокси и бота.
type App struct {
	Config  *config.Config
	Service *assess.Service
	Cache   CacheBackend // nil: без кэша
	Schema  types.Schema

	closers []func() error
}

func NewEngines(cfg *config.Config) *assess.Engines {
	return &assess.Engines{
		Gemini:  gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
		OpenAI:  openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel).WithBaseURL(cfg.OpenAIBaseURL),
		Default: cfg.DefaultEngine,
	}
}

// Build: DATABASE_URL важнее REDIS_ADDR; без обоих сервис работает без кэша.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	schema, err := types.ParseSchema(cfg.DefaultSchema)
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_SCHEMA: %w", err)
	}
	app := &App{Config: cfg, Schema: schema}

	switch {
	case cfg.DatabaseURL != "":
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, db.Close)
		if err := store.Migrate(ctx, db); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		purgeStale(ctx, db, cfg, logger)
		app.Cache = store.NewResultRepo(db, cfg.CacheTTL)
		logger.Info("cache: postgres", zap.Duration("ttl", cfg.CacheTTL))

	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		app.closers = append(app.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		app.Cache = store.NewRedisCache(client, cfg.CacheTTL)
		logger.Info("cache: redis", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL))

	default:
		logger.Info("cache: disabled")
	}

	var cache assess.Cache
	if app.Cache != nil {
		cache = app.Cache
	}
	app.Service = assess.NewService(NewEngines(cfg), cache, logger)
	return app, nil
}

func purgeStale(ctx context.Context, db *sql.DB, cfg *config.Config, logger *zap.Logger) {
	n, err := store.NewResultRepo(db, cfg.CacheTTL).PurgeOlderThan(ctx, cfg.CacheTTL)
	if err != nil {
		logger.Warn("purge stale assessments failed", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info("purged stale assessments", zap.Int64("rows", n))
	}
}

func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

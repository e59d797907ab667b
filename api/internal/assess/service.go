package assess

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"eye-check/api/internal/assess/prompt"
	"eye-check/api/internal/assess/types"
	"eye-check/api/internal/logging"
)

type Request struct {
	RequestID string
	LLMName   string
	APIKey    string // только в памяти, не логируется и не кэшируется
	Schema    types.Schema
	Image     types.Image
}

// Assessment: результат вместе с тем, как он был получен.
type Assessment struct {
	RequestID string               `json:"request_id,omitempty"`
	Engine    string               `json:"engine"`
	Model     string               `json:"model"`
	Schema    types.Schema         `json:"schema"`
	Stage     Stage                `json:"stage"`
	Cached    bool                 `json:"cached"`
	Result    types.AnalysisResult `json:"result"`
}

type Service struct {
	engines    *Engines
	normalizer *Normalizer
	cache      Cache
	log        *zap.Logger
}

// NewService; cache может быть nil.
func NewService(engines *Engines, cache Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engines:    engines,
		normalizer: NewNormalizer(logger),
		cache:      cache,
		log:        logger.Named("assess"),
	}
}

func (s *Service) Engines() *Engines { return s.engines }

// Assess: транспортные ошибки и пустой конверт возвращаются наверх как есть,
// кривой текст модели: заменяется дефолтом внутри Normalizer.
func (s *Service) Assess(ctx context.Context, in Request) (Assessment, error) {
	opLog := logging.WithOperation(s.log, "assess", in.RequestID)

	if in.Schema == "" {
		in.Schema = types.DefaultSchema
	}
	if _, err := types.ParseSchema(string(in.Schema)); err != nil {
		return Assessment{}, err
	}
	if in.Image.Empty() {
		return Assessment{}, fmt.Errorf("%w: image is empty", types.ErrBadInput)
	}

	p, err := s.engines.GetEngine(in.LLMName, in.APIKey)
	if err != nil {
		return Assessment{}, err
	}
	out := Assessment{RequestID: in.RequestID, Engine: p.Name(), Model: p.GetModel(), Schema: in.Schema}

	key := NewCacheKey(in.Image, out.Engine, out.Model, in.Schema)
	if s.cache != nil {
		r, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			opLog.Warn("cache get failed", zap.Error(err))
		case ok:
			// кэш мог пережить смену правил или быть записан кем-то ещё
			out.Result, out.Stage, out.Cached = SanitizeResult(r, in.Schema), StageCache, true
			opLog.Info("cache hit", zap.String("engine", out.Engine), zap.String("model", out.Model))
			return out, nil
		}
	}

	start := time.Now()
	raw, err := p.Generate(ctx, in.Image, prompt.For(in.Schema))
	latency := time.Since(start)
	if err != nil {
		wrapped := logging.NewOperationError("assess.generate", out.Engine, in.RequestID, err)
		opLog.Error("vendor call failed", zap.String("engine", out.Engine), zap.Duration("latency", latency), zap.Error(err))
		return Assessment{}, wrapped
	}

	out.Result, out.Stage = s.normalizer.Normalize(raw, in.Schema)
	opLog.Info("assessed",
		zap.String("engine", out.Engine),
		zap.String("model", out.Model),
		zap.String("schema", string(in.Schema)),
		zap.String("stage", string(out.Stage)),
		zap.Duration("latency", latency),
	)

	if s.cache != nil && out.Stage != StageDefault {
		if err := s.cache.Put(ctx, key, out.Result); err != nil {
			opLog.Warn("cache put failed", zap.Error(err))
		}
	}
	return out, nil
}

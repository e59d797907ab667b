package assess

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"eye-check/api/internal/assess/types"
	"eye-check/api/internal/util"
)

// Stage: шаг цепочки разбора, на котором получили объект.
type Stage string

const (
	StageDirect   Stage = "direct"
	StageFenced   Stage = "fenced"
	StageEmbedded Stage = "embedded"
	StageDefault  Stage = "default"
	StageCache    Stage = "cache"
)

// сколько сырого ответа класть в лог
const logRawLimit = 2048

var errNotObject = errors.New("json value is not an object")

// Normalizer превращает сырой текст модели в AnalysisResult.
type Normalizer struct {
	log *zap.Logger
}

func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{log: logger.Named("normalizer")}
}

// Normalize никогда не падает: неразобранный ответ заменяется объектом по умолчанию.
func (n *Normalizer) Normalize(raw string, schema types.Schema) (types.AnalysisResult, Stage) {
	obj, stage := n.extract(raw)
	return Sanitize(obj, schema), stage
}

func (n *Normalizer) extract(raw string) (map[string]any, Stage) {
	// 1) весь текст как JSON
	obj, err := parseObject(raw)
	if err == nil {
		return obj, StageDirect
	}
	n.log.Debug("direct parse failed", zap.Error(err))

	// 2) снимаем ```json ... ```
	obj, err = parseObject(util.StripCodeFences(raw))
	if err == nil {
		return obj, StageFenced
	}
	n.log.Debug("fenced parse failed", zap.Error(err))

	// 3) первый '{' ... последний '}'
	if block, ok := util.ExtractBraceBlock(raw); ok {
		obj, err = parseObject(block)
		if err == nil {
			return obj, StageEmbedded
		}
		n.log.Debug("embedded parse failed", zap.Error(err))
	}

	n.log.Warn("model output is not JSON, using default assessment",
		zap.Error(err),
		zap.String("raw", util.Truncate(raw, logRawLimit)),
	)
	return defaultObject(), StageDefault
}

func parseObject(s string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return obj, nil
}

func defaultObject() map[string]any {
	recs := make([]any, 0, len(types.DefaultRecommendations))
	for _, r := range types.DefaultRecommendations {
		recs = append(recs, r)
	}
	return map[string]any{
		"darkness":        50.0,
		"puffiness":       50.0,
		"overallScore":    50.0,
		"severity":        string(types.DefaultSeverity),
		"recommendations": recs,
	}
}

// Sanitize приводит разобранный объект к границам контракта. Вызывается всегда,
// в том числе для объекта по умолчанию.
func Sanitize(obj map[string]any, schema types.Schema) types.AnalysisResult {
	r := types.AnalysisResult{
		Darkness:        clampScore(obj["darkness"]),
		Puffiness:       clampScore(obj["puffiness"]),
		OverallScore:    clampScore(obj["overallScore"]),
		Severity:        sanitizeSeverity(obj["severity"], schema),
		Recommendations: sanitizeRecommendations(obj["recommendations"]),
	}
	if !schema.Extended() {
		return r
	}

	if v, ok := obj["confidenceScore"]; ok {
		if f, ok := asNumber(v); ok {
			c := clamp(f)
			r.ConfidenceScore = &c
		}
	}
	if s, ok := obj["lightingQuality"].(string); ok {
		if lq := types.LightingQuality(strings.ToLower(strings.TrimSpace(s))); lq.Valid() {
			r.LightingQuality = lq
		}
	}
	if arr, ok := obj["observations"].([]any); ok {
		r.Observations = stringsPrefix(arr, types.MaxObservations)
	}
	return r
}

// SanitizeResult: те же границы для уже типизированного результата (кэш, внешнее хранилище).
func SanitizeResult(r types.AnalysisResult, schema types.Schema) types.AnalysisResult {
	out := types.AnalysisResult{
		Darkness:        clampScore(r.Darkness),
		Puffiness:       clampScore(r.Puffiness),
		OverallScore:    clampScore(r.OverallScore),
		Severity:        sanitizeSeverity(string(r.Severity), schema),
		Recommendations: sanitizeRecommendations(anySlice(r.Recommendations)),
	}
	if !schema.Extended() {
		return out
	}

	if r.ConfidenceScore != nil {
		c := clampScore(*r.ConfidenceScore)
		out.ConfidenceScore = &c
	}
	if r.LightingQuality.Valid() {
		out.LightingQuality = r.LightingQuality
	}
	if obs := stringsPrefix(anySlice(r.Observations), types.MaxObservations); len(obs) > 0 {
		out.Observations = obs
	}
	return out
}

func anySlice(ss []string) []any {
	out := make([]any, 0, len(ss))
	for _, s := range ss {
		out = append(out, s)
	}
	return out
}

func clampScore(v any) float64 {
	f, _ := asNumber(v)
	return clamp(f)
}

func clamp(f float64) float64 {
	return math.Min(types.ScoreMax, math.Max(types.ScoreMin, f))
}

// asNumber: числа и числовые строки; всё остальное (nil, bool, мусор, NaN/Inf) -> 0, false.
func asNumber(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func sanitizeSeverity(v any, schema types.Schema) types.Severity {
	s, ok := v.(string)
	if !ok {
		return types.DefaultSeverity
	}
	sev := types.Severity(strings.ToLower(strings.TrimSpace(s)))
	if sev.Rank(schema) < 0 {
		return types.DefaultSeverity
	}
	return sev
}

func sanitizeRecommendations(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return []string{types.FallbackRecommendation}
	}
	out := stringsPrefix(arr, types.MaxRecommendations)
	if len(out) == 0 {
		return []string{types.FallbackRecommendation}
	}
	return out
}

// stringsPrefix берёт первые limit элементов и оставляет из них непустые строки.
func stringsPrefix(arr []any, limit int) []string {
	if len(arr) > limit {
		arr = arr[:limit]
	}
	out := make([]string, 0, len(arr))
	for _, el := range arr {
		s, ok := el.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

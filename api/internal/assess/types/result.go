package types

import "strings"

// Schema: поколение JSON-схемы ответа модели.
type Schema string

const (
	SchemaV1 Schema = "v1" // 4 уровня severity, без доп. полей
	SchemaV2 Schema = "v2" // 10 уровней + confidenceScore/lightingQuality/observations
)

const DefaultSchema = SchemaV2

func ParseSchema(s string) (Schema, error) {
	switch Schema(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultSchema, nil
	case SchemaV1:
		return SchemaV1, nil
	case SchemaV2:
		return SchemaV2, nil
	default:
		return "", ErrUnknownSchema
	}
}

// Extended сообщает, допускает ли схема опциональные поля.
func (s Schema) Extended() bool { return s == SchemaV2 }

type Severity string

const (
	SeverityNone             Severity = "none"
	SeverityVeryMinimal      Severity = "very_minimal"
	SeverityMinimal          Severity = "minimal"
	SeverityVeryMild         Severity = "very_mild"
	SeverityMild             Severity = "mild"
	SeverityModerate         Severity = "moderate"
	SeverityModeratelySevere Severity = "moderately_severe"
	SeveritySevere           Severity = "severe"
	SeverityVerySevere       Severity = "very_severe"
	SeverityExtreme          Severity = "extreme"
)

// DefaultSeverity: середина шкалы, подставляется при пустом/неизвестном значении.
const DefaultSeverity = SeverityModerate

var (
	scaleV1 = []Severity{SeverityMinimal, SeverityMild, SeverityModerate, SeveritySevere}
	scaleV2 = []Severity{
		SeverityNone, SeverityVeryMinimal, SeverityMinimal, SeverityVeryMild, SeverityMild,
		SeverityModerate, SeverityModeratelySevere, SeveritySevere, SeverityVerySevere, SeverityExtreme,
	}
)

// Severities возвращает упорядоченную шкалу для схемы (от лёгкой к тяжёлой).
func Severities(s Schema) []Severity {
	if s == SchemaV1 {
		return append([]Severity(nil), scaleV1...)
	}
	return append([]Severity(nil), scaleV2...)
}

// Rank: позиция severity в шкале схемы; -1 если значения в шкале нет.
func (v Severity) Rank(s Schema) int {
	for i, x := range Severities(s) {
		if x == v {
			return i
		}
	}
	return -1
}

// Label: человекочитаемое имя: "moderately_severe" -> "Moderately severe".
func (v Severity) Label() string {
	s := strings.ReplaceAll(string(v), "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type LightingQuality string

const (
	LightingPoor LightingQuality = "poor"
	LightingFair LightingQuality = "fair"
	LightingGood LightingQuality = "good"
)

func (l LightingQuality) Valid() bool {
	switch l {
	case LightingPoor, LightingFair, LightingGood:
		return true
	}
	return false
}

const (
	ScoreMin = 0
	ScoreMax = 100

	MaxRecommendations = 6
	MaxObservations    = 6
)

// FallbackRecommendation: единственная рекомендация, если модель прислала мусор вместо списка.
const FallbackRecommendation = "Consult a dermatologist or healthcare provider for personalized advice"

// DefaultRecommendations: рекомендации объекта по умолчанию (ответ модели не разобран).
var DefaultRecommendations = []string{
	"Stay well hydrated by drinking plenty of water throughout the day",
	"Aim for 7-9 hours of quality sleep each night",
	"Apply a cold compress to the under-eye area for 10-15 minutes in the morning",
}

// AnalysisResult: очищенный и ограниченный результат, единственное, что уходит в UI.
type AnalysisResult struct {
	Darkness        float64  `json:"darkness"`
	Puffiness       float64  `json:"puffiness"`
	OverallScore    float64  `json:"overallScore"`
	Severity        Severity `json:"severity"`
	Recommendations []string `json:"recommendations"`

	// только schema v2
	ConfidenceScore *float64        `json:"confidenceScore,omitempty"`
	LightingQuality LightingQuality `json:"lightingQuality,omitempty"`
	Observations    []string        `json:"observations,omitempty"`
}

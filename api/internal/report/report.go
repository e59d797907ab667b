package report

import (
	"fmt"
	"math"
	"strings"

	"eye-check/api/internal/assess"
	"eye-check/api/internal/assess/types"
)

// Badge: цветовая метка severity по её относительной позиции в шкале схемы.
func Badge(sev types.Severity, schema types.Schema) string {
	scale := types.Severities(schema)
	rank := sev.Rank(schema)
	if rank < 0 || len(scale) < 2 {
		return "⚪"
	}
	pos := float64(rank) / float64(len(scale)-1)
	switch {
	case pos < 0.25:
		return "🟢"
	case pos < 0.5:
		return "🟡"
	case pos < 0.75:
		return "🟠"
	default:
		return "🔴"
	}
}

// Render: текстовый отчёт для чата и CLI.
func Render(a assess.Assessment) string {
	r := a.Result
	var b strings.Builder

	fmt.Fprintf(&b, "%s Severity: %s\n", Badge(r.Severity, a.Schema), r.Severity.Label())
	fmt.Fprintf(&b, "Overall score: %s/100\n", score(r.OverallScore))
	fmt.Fprintf(&b, "Darkness: %s/100\n", score(r.Darkness))
	fmt.Fprintf(&b, "Puffiness: %s/100\n", score(r.Puffiness))

	if r.ConfidenceScore != nil {
		fmt.Fprintf(&b, "Confidence: %s%%\n", score(*r.ConfidenceScore))
	}
	if r.LightingQuality != "" {
		fmt.Fprintf(&b, "Lighting: %s\n", r.LightingQuality)
	}
	if len(r.Observations) > 0 {
		b.WriteString("\nObservations:\n")
		for _, o := range r.Observations {
			fmt.Fprintf(&b, "• %s\n", o)
		}
	}

	if len(r.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for i, rec := range r.Recommendations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func score(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

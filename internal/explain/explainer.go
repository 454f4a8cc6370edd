// Package explain turns a NormalizedDataPoint's already-computed
// ExplainRecord into human-readable text: a one-line summary plus key
// insights and risk flags, in the same "derive prose from already-scored
// structured data" shape as
// _examples/sawpanic-cryptorun/internal/explain/explainer.go's
// Explainer.ExplainScoring, adapted from scoring-factor provenance to
// unit-conversion provenance.
package explain

import (
	"fmt"
	"strings"

	"github.com/econindex/classifier/internal/models"
)

// Explanation is the rendered, human-readable form of one item's
// ExplainRecord.
type Explanation struct {
	IndicatorID string   `json:"indicatorId"`
	Summary     string   `json:"summary"`
	Insights    []string `json:"insights"`
	RiskFlags   []string `json:"riskFlags"`
}

// Render builds an Explanation from a normalized data point's
// ExplainRecord, the way Explainer.ExplainScoring derives a
// ScoringExplanation from an already-computed CompositeScore: no
// recomputation, only narration of values already on the record.
func Render(dp models.NormalizedDataPoint) Explanation {
	rec := dp.Explain
	ex := Explanation{IndicatorID: dp.ID}

	ex.Summary = buildSummary(dp, rec)
	ex.Insights = buildInsights(dp, rec)
	ex.RiskFlags = buildRiskFlags(rec)

	return ex
}

func buildSummary(dp models.NormalizedDataPoint, rec models.ExplainRecord) string {
	if rec.Exempted {
		return fmt.Sprintf("%s routed to %s domain, exempt from conversion", dp.Name, rec.Domain)
	}
	if rec.Conversion.Summary == "no conversion applied" {
		return fmt.Sprintf("%s routed to %s domain, no conversion required", dp.Name, rec.Domain)
	}
	return fmt.Sprintf("%s routed to %s domain: %s", dp.Name, rec.Domain, rec.Conversion.Summary)
}

func buildInsights(dp models.NormalizedDataPoint, rec models.ExplainRecord) []string {
	var insights []string

	if rec.Currency != nil {
		insights = append(insights, fmt.Sprintf("currency converted from %s to %s", rec.Currency.Original, rec.Currency.Normalized))
	}
	if rec.Magnitude != nil {
		insights = append(insights, fmt.Sprintf("magnitude rescaled from %s to %s (x%.6g)", rec.Magnitude.Original, rec.Magnitude.Normalized, rec.Magnitude.Factor))
	}
	if rec.Time != nil {
		insights = append(insights, fmt.Sprintf("time basis rescaled from %s to %s (x%.6g, day-count model %s)", rec.Time.Original, rec.Time.Normalized, rec.Time.Factor, rec.Time.DayCountModel))
	}
	if rec.TargetSelection != nil {
		insights = append(insights, fmt.Sprintf("target selection mode: %s", rec.TargetSelection.Mode))
	}
	if len(insights) == 0 {
		insights = append(insights, "value passed through unchanged")
	}
	return insights
}

func buildRiskFlags(rec models.ExplainRecord) []string {
	var flags []string
	for _, w := range rec.QualityWarnings {
		flags = append(flags, w)
	}
	return flags
}

// RenderBatch maps Render across a slice, preserving input order.
func RenderBatch(items []models.NormalizedDataPoint) []Explanation {
	out := make([]Explanation, len(items))
	for i, dp := range items {
		out[i] = Render(dp)
	}
	return out
}

// Join formats a batch of Explanations as one newline-delimited report,
// for CLI/log output.
func Join(explanations []Explanation) string {
	lines := make([]string, 0, len(explanations))
	for _, e := range explanations {
		line := e.Summary
		if len(e.RiskFlags) > 0 {
			line = fmt.Sprintf("%s [flags: %s]", line, strings.Join(e.RiskFlags, "; "))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

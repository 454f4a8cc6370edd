// Package quality implements the Quality Gate: a weighted 0-100 score
// over four dimensions (completeness, consistency, validity, timeliness)
// plus two group-level outlier detectors (scale, unit-type). The
// per-dimension scoring style is the validator package's
// calculateXScore/calculateQualityScore split: each dimension starts at
// 100 and loses points per violation, and the overall score is a
// weighted sum.
package quality

import (
	"math"
	"time"

	"github.com/econindex/classifier/internal/models"
	"github.com/econindex/classifier/internal/unit"
)

// Weights are the per-dimension contributions to the overall score. They
// must sum to 1.0.
type Weights struct {
	Completeness float64
	Consistency  float64
	Validity     float64
	Timeliness   float64
}

// DefaultWeights splits the score evenly across all four dimensions.
func DefaultWeights() Weights {
	return Weights{Completeness: 0.25, Consistency: 0.25, Validity: 0.25, Timeliness: 0.25}
}

// Score is the Quality Gate's verdict for one indicator descriptor.
type Score struct {
	Completeness float64 `json:"completeness"`
	Consistency  float64 `json:"consistency"`
	Validity     float64 `json:"validity"`
	Timeliness   float64 `json:"timeliness"`
	Overall      float64 `json:"overall"`
	Verdict      string  `json:"verdict"` // "pass" | "fail"
	Reasons      []string `json:"reasons,omitempty"`
}

// maxStalenessByPeriodicity bounds how old the most recent sample may be
// before timeliness starts decaying, keyed by the descriptor's reported
// periodicity.
var maxStalenessByPeriodicity = map[string]time.Duration{
	"daily":     3 * 24 * time.Hour,
	"weekly":    14 * 24 * time.Hour,
	"monthly":   45 * 24 * time.Hour,
	"quarterly": 120 * 24 * time.Hour,
	"annual":    400 * 24 * time.Hour,
}

const defaultMaxStaleness = 120 * 24 * time.Hour

// Evaluate computes the Quality Gate score for one descriptor against a
// reference time (normally time.Now(), threaded in so tests are
// deterministic) and a pass/fail threshold (config NEOptions.MinQualityScore).
func Evaluate(d models.IndicatorDescriptor, now time.Time, weights Weights, minScore float64) Score {
	var reasons []string

	completeness, cReasons := completenessScore(d)
	consistency, coReasons := consistencyScore(d)
	validity, vReasons := validityScore(d)
	timeliness, tReasons := timelinessScore(d, now)

	reasons = append(reasons, cReasons...)
	reasons = append(reasons, coReasons...)
	reasons = append(reasons, vReasons...)
	reasons = append(reasons, tReasons...)

	overall := weights.Completeness*completeness +
		weights.Consistency*consistency +
		weights.Validity*validity +
		weights.Timeliness*timeliness

	verdict := "fail"
	if overall >= minScore {
		verdict = "pass"
	}

	return Score{
		Completeness: completeness,
		Consistency:  consistency,
		Validity:     validity,
		Timeliness:   timeliness,
		Overall:      overall,
		Verdict:      verdict,
		Reasons:      reasons,
	}
}

func completenessScore(d models.IndicatorDescriptor) (float64, []string) {
	present, total := 0, 0
	var reasons []string

	fields := []struct {
		name string
		ok   bool
	}{
		{"id", d.ID != ""},
		{"name", d.Name != ""},
		{"unitsRaw", d.UnitsRaw != ""},
		{"periodicity", d.Periodicity != ""},
		{"sampleValues", len(d.SampleValues) > 0},
	}
	for _, f := range fields {
		total++
		if f.ok {
			present++
		} else {
			reasons = append(reasons, "missing "+f.name)
		}
	}
	return 100.0 * float64(present) / float64(total), reasons
}

func consistencyScore(d models.IndicatorDescriptor) (float64, []string) {
	score := 100.0
	var reasons []string

	samples := d.SampleValues
	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1].Value, samples[i].Value
		if prev == 0 || cur == 0 {
			continue
		}
		ratio := math.Abs(cur / prev)
		if ratio > 1000 || ratio < 1.0/1000 {
			score -= 15
			reasons = append(reasons, "abrupt magnitude jump between consecutive samples")
		}
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Date.Before(samples[i-1].Date) {
			score -= 25
			reasons = append(reasons, "sample series out of chronological order")
			break
		}
	}
	return math.Max(0, score), reasons
}

func validityScore(d models.IndicatorDescriptor) (float64, []string) {
	score := 100.0
	var reasons []string

	for _, s := range d.SampleValues {
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			score -= 50
			reasons = append(reasons, "non-finite sample value")
			break
		}
	}

	if d.CurrencyCode != "" && len(d.CurrencyCode) != 3 {
		score -= 20
		reasons = append(reasons, "currencyCode is not a 3-letter code")
	}

	if d.UnitsRaw != "" {
		pu := unit.Parse(d.UnitsRaw)
		if pu.Category == unit.CategoryUnknown {
			score -= 15
			reasons = append(reasons, "unitsRaw did not parse to a recognized category")
		}
	}

	return math.Max(0, score), reasons
}

func timelinessScore(d models.IndicatorDescriptor, now time.Time) (float64, []string) {
	if len(d.SampleValues) == 0 {
		return 0, []string{"no sample values to assess timeliness"}
	}

	latest := d.SampleValues[0].Date
	for _, s := range d.SampleValues {
		if s.Date.After(latest) {
			latest = s.Date
		}
	}

	maxStaleness, ok := maxStalenessByPeriodicity[d.Periodicity]
	if !ok {
		maxStaleness = defaultMaxStaleness
	}

	age := now.Sub(latest)
	if age <= 0 {
		return 100, nil
	}
	if age >= maxStaleness {
		return 0, []string{"most recent sample exceeds staleness bound"}
	}
	return 100.0 * (1.0 - age.Seconds()/maxStaleness.Seconds()), nil
}

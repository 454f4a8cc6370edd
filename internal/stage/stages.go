// Package stage holds the six classification stage contracts: one
// llm.Schema descriptor plus one decode function per stage, so the
// orchestrator's per-stage loop is schema-name-indexed data rather than
// six hand-written call sites repeating the same retry/persist shape.
package stage

import (
	"github.com/econindex/classifier/internal/llm"
	"github.com/econindex/classifier/internal/models"
)

// Name identifies one of the six sequential classification stages.
type Name string

const (
	Normalization  Name = "normalization"
	TimeInference  Name = "time_inference"
	FamilyAssign   Name = "family_assignment"
	TypeClassify   Name = "type_classification"
	BooleanReview  Name = "boolean_review"
	FinalReview    Name = "final_review"
)

// Ordered is the strict stage sequence per indicator. FinalReview is
// conditional (only entered when BooleanReview flags or overall
// confidence falls below threshold) and is therefore not unconditionally
// walked by a caller iterating Ordered; see ShouldRunFinalReview.
var Ordered = []Name{Normalization, TimeInference, FamilyAssign, TypeClassify, BooleanReview, FinalReview}

var schemas = map[Name]llm.Schema{
	Normalization: {
		Name:       string(Normalization),
		Required:   []string{"originalUnits", "parsedUnitType", "parsingConfidence"},
		EnumFields: map[string][]string{},
	},
	TimeInference: {
		Name:     string(TimeInference),
		Required: []string{"reportingFrequency", "timeBasis", "sourceUsed", "confidence", "reasoning"},
		EnumFields: map[string][]string{
			"reportingFrequency": {"daily", "monthly", "quarterly", "annual", "point-in-time"},
			"timeBasis":          {"per-period", "point-in-time", "cumulative"},
			"sourceUsed":         {"units", "periodicity", "time-series", "unknown"},
		},
	},
	FamilyAssign: {
		Name:     string(FamilyAssign),
		Required: []string{"family", "confidence", "reasoning"},
		EnumFields: map[string][]string{
			"family": {
				"physical-fundamental", "numeric-measurement", "price-value",
				"change-movement", "composite-derived", "temporal", "qualitative",
			},
		},
	},
	TypeClassify: {
		Name:     string(TypeClassify),
		Required: []string{"indicatorType", "temporalAggregation", "confidence", "reasoning"},
		EnumFields: map[string][]string{
			"temporalAggregation": {
				"point-in-time", "period-rate", "period-cumulative",
				"period-average", "period-total", "not-applicable",
			},
		},
	},
	BooleanReview: {
		Name:     string(BooleanReview),
		Required: []string{"isCorrect", "confidence"},
	},
	FinalReview: {
		Name:     string(FinalReview),
		Required: []string{"reviewMakesSense", "finalReasoning", "confidence"},
	},
}

// Schema returns the llm.Schema descriptor for stage n.
func Schema(n Name) llm.Schema { return schemas[n] }

// DefaultConfidenceThreshold is the overall-confidence floor below
// which Final Review runs even when Boolean Review did not flag.
const DefaultConfidenceThreshold = 0.7

// ShouldRunFinalReview reports whether stage 6 must run given stage 5's
// outcome and the running overall confidence.
func ShouldRunFinalReview(review models.BooleanReviewResult, overallConfidence, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return !review.IsCorrect || overallConfidence < threshold
}

// Package models holds the data shapes shared across the classification
// and normalization subsystems.
package models

import "time"

// Sample is one point of a sampleValues series on an IndicatorDescriptor.
type Sample struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// IndicatorDescriptor is the immutable input to the Classification Orchestrator.
type IndicatorDescriptor struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	UnitsRaw          string   `json:"unitsRaw,omitempty"`
	LongName          string   `json:"longName,omitempty"`
	SourceName        string   `json:"sourceName,omitempty"`
	Periodicity       string   `json:"periodicity,omitempty"`
	AggregationMethod string   `json:"aggregationMethod,omitempty"`
	Scale             string   `json:"scale,omitempty"`
	Topic             string   `json:"topic,omitempty"`
	CategoryGroup     string   `json:"categoryGroup,omitempty"`
	Dataset           string   `json:"dataset,omitempty"`
	CurrencyCode      string   `json:"currencyCode,omitempty"`
	Definition        string   `json:"definition,omitempty"`
	SampleValues      []Sample `json:"sampleValues,omitempty"`
}

// MaxSampleValues bounds the sample series trimmed at the ingest boundary.
const MaxSampleValues = 50

// TrimSamples keeps only the most recent MaxSampleValues points, assuming
// the series is ordered oldest-to-newest.
func TrimSamples(samples []Sample) []Sample {
	if len(samples) <= MaxSampleValues {
		return samples
	}
	return samples[len(samples)-MaxSampleValues:]
}

// StageResult is the generic per-stage persisted record.
type StageResult struct {
	StageName   string                 `json:"stageName"`
	IndicatorID string                 `json:"indicatorId"`
	Payload     map[string]interface{} `json:"payload"`
	Confidence  float64                `json:"confidence"`
	Reasoning   string                 `json:"reasoning"`
	LLMProvider string                 `json:"llmProvider"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// NormalizationResult is stage 1's payload shape.
type NormalizationResult struct {
	OriginalUnits    string  `json:"originalUnits"`
	ParsedScale      string  `json:"parsedScale,omitempty"`
	NormalizedScale  string  `json:"normalizedScale,omitempty"`
	ParsedUnitType   string  `json:"parsedUnitType"`
	ParsedCurrency   string  `json:"parsedCurrency,omitempty"`
	ParsingConfidence float64 `json:"parsingConfidence"`
	MatchedPattern   string  `json:"matchedPattern,omitempty"`
}

// TimeInferenceResult is stage 2's payload shape.
type TimeInferenceResult struct {
	ReportingFrequency string  `json:"reportingFrequency"`
	TimeBasis          string  `json:"timeBasis"`
	SourceUsed         string  `json:"sourceUsed"`
	Confidence         float64 `json:"confidence"`
	Reasoning          string  `json:"reasoning"`
}

// FamilyResult is stage 3's payload shape.
type FamilyResult struct {
	Family     string  `json:"family"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// TypeResult is stage 4's payload shape.
type TypeResult struct {
	IndicatorType       string  `json:"indicatorType"`
	TemporalAggregation string  `json:"temporalAggregation"`
	Confidence          float64 `json:"confidence"`
	Reasoning           string  `json:"reasoning"`
}

// BooleanReviewResult is stage 5's payload shape.
type BooleanReviewResult struct {
	IsCorrect       bool     `json:"isCorrect"`
	IncorrectFields []string `json:"incorrectFields,omitempty"`
	Confidence      float64  `json:"confidence"`
}

// FinalReviewResult is stage 6's payload shape.
type FinalReviewResult struct {
	ReviewMakesSense  bool              `json:"reviewMakesSense"`
	CorrectionsApplied map[string]string `json:"correctionsApplied,omitempty"`
	FinalReasoning    string            `json:"finalReasoning"`
	Confidence        float64           `json:"confidence"`
}

// ClassificationRecord is the consolidated output of the orchestrator.
type ClassificationRecord struct {
	IndicatorID       string                `json:"indicatorId"`
	Normalized        NormalizationResult   `json:"normalized"`
	Time              TimeInferenceResult   `json:"time"`
	Family            FamilyResult          `json:"family"`
	Type              TypeResult            `json:"type"`
	Review            BooleanReviewResult   `json:"review"`
	FinalReview       *FinalReviewResult    `json:"finalReview,omitempty"`
	OverallConfidence float64               `json:"overallConfidence"`
	CreatedAt         time.Time             `json:"createdAt"`
}

// DataPoint is the Normalization Engine's input shape.
type DataPoint struct {
	ID                   string                 `json:"id"`
	Name                 string                 `json:"name"`
	Value                float64                `json:"value"`
	Unit                 string                 `json:"unit"`
	Periodicity          string                 `json:"periodicity,omitempty"`
	Scale                string                 `json:"scale,omitempty"`
	CurrencyCode         string                 `json:"currencyCode,omitempty"`
	IndicatorType        string                 `json:"indicatorType,omitempty"`
	IsCurrencyDenominated *bool                 `json:"isCurrencyDenominated,omitempty"`
	Date                 *time.Time             `json:"date,omitempty"`
	Metadata             map[string]interface{} `json:"metadata,omitempty"`
}

// NormalizedDataPoint is the Normalization Engine's output shape.
type NormalizedDataPoint struct {
	DataPoint
	Normalized     float64        `json:"normalized"`
	NormalizedUnit string         `json:"normalizedUnit"`
	Explain        ExplainRecord  `json:"explain"`
}

// FXTable holds conversion rates against a base currency.
type FXTable struct {
	Base   string             `json:"base"`
	Rates  map[string]float64 `json:"rates"`
	Dates  map[string]string  `json:"dates,omitempty"`
	Source string             `json:"source,omitempty"` // "live" | "fallback"
}

// TargetSelection is ATS's output, embedded in ExplainRecord.
type TargetSelection struct {
	Mode         string                        `json:"mode"`
	IndicatorKey string                        `json:"indicatorKey"`
	Selected     TargetValues                  `json:"selected"`
	Shares       map[string]map[string]float64 `json:"shares"`
	Reason       string                        `json:"reason"`
}

// TargetValues is the chosen (currency, magnitude, time) triple.
type TargetValues struct {
	Currency  string `json:"currency,omitempty"`
	Magnitude string `json:"magnitude,omitempty"`
	Time      string `json:"time,omitempty"`
}

// CurrencyExplain records an original->normalized currency conversion.
type CurrencyExplain struct {
	Original   string `json:"original"`
	Normalized string `json:"normalized"`
}

// MagnitudeExplain records an original->normalized magnitude rescale.
type MagnitudeExplain struct {
	Original   string  `json:"original"`
	Normalized string  `json:"normalized"`
	Factor     float64 `json:"factor"`
}

// TimeExplain records an original->normalized time rescale.
type TimeExplain struct {
	Original       string  `json:"original"`
	Normalized     string  `json:"normalized"`
	Factor         float64 `json:"factor"`
	DayCountModel  string  `json:"dayCountModel"`
}

// FXExplain records the rate and provenance used for a currency conversion.
type FXExplain struct {
	Rate   float64 `json:"rate"`
	Source string  `json:"source"`
	AsOf   string  `json:"asOf,omitempty"`
}

// ConversionExplain is the one-line summary plus ordered steps.
type ConversionExplain struct {
	Summary string   `json:"summary"`
	Steps   []string `json:"steps"`
}

// ExplainRecord is the structured provenance attached to every normalized item.
type ExplainRecord struct {
	Domain          string             `json:"domain"`
	Router          string             `json:"router"`
	Exempted        bool               `json:"exempted,omitempty"`
	Currency        *CurrencyExplain   `json:"currency,omitempty"`
	Magnitude       *MagnitudeExplain  `json:"magnitude,omitempty"`
	Time            *TimeExplain       `json:"time,omitempty"`
	FX              *FXExplain         `json:"fx,omitempty"`
	TargetSelection *TargetSelection   `json:"targetSelection,omitempty"`
	Conversion      ConversionExplain  `json:"conversion"`
	QualityWarnings []string           `json:"qualityWarnings,omitempty"`
}

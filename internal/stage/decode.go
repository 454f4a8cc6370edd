package stage

import "github.com/econindex/classifier/internal/models"

func str(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func num(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func boolean(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

func strSlice(m map[string]interface{}, key string) []string {
	raw, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// DecodeNormalization converts a validated stage-1 response into its
// typed payload.
func DecodeNormalization(resp map[string]interface{}) models.NormalizationResult {
	return models.NormalizationResult{
		OriginalUnits:     str(resp, "originalUnits"),
		ParsedScale:       str(resp, "parsedScale"),
		NormalizedScale:   str(resp, "normalizedScale"),
		ParsedUnitType:    str(resp, "parsedUnitType"),
		ParsedCurrency:    str(resp, "parsedCurrency"),
		ParsingConfidence: num(resp, "parsingConfidence"),
		MatchedPattern:    str(resp, "matchedPattern"),
	}
}

// DecodeTimeInference converts a validated stage-2 response into its
// typed payload.
func DecodeTimeInference(resp map[string]interface{}) models.TimeInferenceResult {
	return models.TimeInferenceResult{
		ReportingFrequency: str(resp, "reportingFrequency"),
		TimeBasis:          str(resp, "timeBasis"),
		SourceUsed:         str(resp, "sourceUsed"),
		Confidence:         num(resp, "confidence"),
		Reasoning:          str(resp, "reasoning"),
	}
}

// DecodeFamily converts a validated stage-3 response into its typed payload.
func DecodeFamily(resp map[string]interface{}) models.FamilyResult {
	return models.FamilyResult{
		Family:     str(resp, "family"),
		Confidence: num(resp, "confidence"),
		Reasoning:  str(resp, "reasoning"),
	}
}

// DecodeType converts a validated stage-4 response into its typed payload.
func DecodeType(resp map[string]interface{}) models.TypeResult {
	return models.TypeResult{
		IndicatorType:       str(resp, "indicatorType"),
		TemporalAggregation: str(resp, "temporalAggregation"),
		Confidence:          num(resp, "confidence"),
		Reasoning:           str(resp, "reasoning"),
	}
}

// DecodeBooleanReview converts a validated stage-5 response into its
// typed payload.
func DecodeBooleanReview(resp map[string]interface{}) models.BooleanReviewResult {
	return models.BooleanReviewResult{
		IsCorrect:       boolean(resp, "isCorrect"),
		IncorrectFields: strSlice(resp, "incorrectFields"),
		Confidence:      num(resp, "confidence"),
	}
}

// DecodeFinalReview converts a validated stage-6 response into its
// typed payload.
func DecodeFinalReview(resp map[string]interface{}) models.FinalReviewResult {
	corrections := map[string]string{}
	if raw, ok := resp["correctionsApplied"].(map[string]interface{}); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				corrections[k] = s
			}
		}
	}
	return models.FinalReviewResult{
		ReviewMakesSense:   boolean(resp, "reviewMakesSense"),
		CorrectionsApplied: corrections,
		FinalReasoning:     str(resp, "finalReasoning"),
		Confidence:         num(resp, "confidence"),
	}
}

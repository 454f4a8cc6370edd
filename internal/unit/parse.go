package unit

import (
	"fmt"
	"regexp"
	"strings"
)

var whitespaceOnlyRe = regexp.MustCompile(`^\s*$`)
var slashOrPerRe = regexp.MustCompile(`(?i)/| per `)

// Parse tokenizes a free-form unit label into a ParsedUnit. It is total:
// unmatched input yields Category: unknown, never an error. Parse is
// deterministic and idempotent: identical input always yields an
// identical output, and re-parsing a unit's own Normalized form always
// reproduces the same Category.
func Parse(s string) ParsedUnit {
	raw := s
	lower := strings.ToLower(strings.TrimSpace(s))

	// Rule 1: empty/whitespace.
	if whitespaceOnlyRe.MatchString(raw) {
		return ParsedUnit{Category: CategoryUnknown, Normalized: "", MatchedRule: "empty", Confidence: 1.0}
	}

	// Rule 2: percentage.
	if containsAny(lower, percentagePatterns) {
		return ParsedUnit{Category: CategoryPercentage, Normalized: "%", MatchedRule: "percentage", Confidence: 0.95}
	}

	// Rule 3: index.
	if indexYearRe.MatchString(lower) || containsAny(lower, indexPatterns) {
		return ParsedUnit{Category: CategoryIndex, Normalized: "index", MatchedRule: "index", Confidence: 0.9}
	}

	hasCurrencyCode, currencyCode := false, ""
	if code, ok := MatchCurrencyCode(lower); ok {
		hasCurrencyCode, currencyCode = true, code
	}
	hasSlashOrPer := slashOrPerRe.MatchString(raw)

	// Rule 4: price-per-unit (composite with a currency and a separator).
	if hasCurrencyCode && hasSlashOrPer {
		pu := ParsedUnit{
			Category:    CategoryComposite,
			IsComposite: true,
			Currency:    currencyCode,
			MatchedRule: "price-per-unit",
			Confidence:  0.85,
		}
		if ts, ok := findTimeScale(lower); ok {
			pu.TimeScale = ts
		}
		if sc, ok := findScale(lower); ok {
			pu.Scale = sc
		}
		pu.Normalized = normalizedComposite(pu)
		return pu
	}

	// Rule 5: generic rate. Normalized keeps the matched phrase itself
	// (not a generic "rate" token) so re-parsing stays inside this rule.
	if containsAny(lower, genericRatePatterns) {
		return ParsedUnit{Category: CategoryRate, Normalized: lower, MatchedRule: "generic-rate", Confidence: 0.8}
	}

	// Rule 6: duration (exact token match, not substring).
	if isExactDurationToken(lower) {
		return ParsedUnit{Category: CategoryTime, Normalized: lower, MatchedRule: "duration", Confidence: 0.85}
	}

	// Rule 7: ratio words.
	if containsAny(lower, ratioWords) {
		return ParsedUnit{Category: CategoryRatio, Normalized: "ratio", MatchedRule: "ratio", Confidence: 0.8}
	}

	// Rule 8: physical. "tonnes"/"tons" standalone is a count (Rule 10),
	// not physical, even though "tonne"/"ton" are substrings of
	// weightTokens — check that edge case before matchPhysical's
	// substring match would wrongly claim it.
	if isTonnesStandalone(lower) {
		return ParsedUnit{Category: CategoryCount, Normalized: "tonnes", MatchedRule: "count-tonnes", Confidence: 0.9}
	}
	if cat, norm, ok := matchPhysical(lower); ok {
		return ParsedUnit{Category: cat, Normalized: norm, MatchedRule: "physical", Confidence: 0.85}
	}

	// Rule 9: currency-amount.
	if hasCurrencyCode || hasCurrencyWord(lower) || containsAny(lower, specialCurrencyPhrases) {
		pu := ParsedUnit{Category: CategoryCurrency, MatchedRule: "currency-amount", Confidence: 0.85}
		if hasCurrencyCode {
			pu.Currency = currencyCode
		} else if code, ok := currencyFromWord(lower); ok {
			pu.Currency = code
		}
		if sc, ok := findScale(lower); ok {
			pu.Scale = sc
		}
		if ts, ok := findTimeScale(lower); ok {
			pu.TimeScale = ts
		}
		pu.Normalized = normalizedCurrency(pu, lower)
		return pu
	}

	// Rule 10: count (catch-all vocabulary). Normalized preserves the
	// matched input verbatim (rather than a generic "count" token) so
	// that re-parsing the normalized form re-enters this same rule.
	if containsAny(lower, countVocabulary) || containsAny(lower, countPrefixes) {
		return ParsedUnit{Category: CategoryCount, Normalized: lower, MatchedRule: "count", Confidence: 0.9}
	}

	// Rule 11: fallback.
	return ParsedUnit{Category: CategoryUnknown, Normalized: lower, MatchedRule: "fallback", Confidence: 0.0}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func isExactDurationToken(lower string) bool {
	trimmed := strings.TrimSpace(lower)
	return durationTokens[trimmed]
}

// isTonnesStandalone recognizes the edge case where "tonnes" as a
// standalone token is a count, not physical; "mt" alone is physical.
func isTonnesStandalone(lower string) bool {
	trimmed := strings.TrimSpace(lower)
	return trimmed == "tonne" || trimmed == "tonnes" || trimmed == "ton" || trimmed == "tons"
}

func matchPhysical(lower string) (Category, string, bool) {
	trimmed := strings.TrimSpace(lower)
	if trimmed == "mt" {
		return CategoryPhysical, "mt", true
	}
	if containsAny(lower, energyTokens) {
		return CategoryEnergy, canonicalToken(lower, energyTokens), true
	}
	if containsAny(lower, volumeTokens) {
		return CategoryPhysical, canonicalToken(lower, volumeTokens), true
	}
	if containsAny(lower, temperatureTokens) {
		return CategoryTemperature, canonicalToken(lower, temperatureTokens), true
	}
	if containsAny(lower, distanceTokens) {
		return CategoryPhysical, canonicalToken(lower, distanceTokens), true
	}
	if containsAny(lower, speedTokens) {
		return CategoryPhysical, canonicalToken(lower, speedTokens), true
	}
	if containsAny(lower, weightTokens) && trimmed != "mt" {
		return CategoryPhysical, canonicalToken(lower, weightTokens), true
	}
	return "", "", false
}

func canonicalToken(lower string, tokens []string) string {
	for _, t := range tokens {
		if strings.Contains(lower, t) {
			return t
		}
	}
	return lower
}

func hasCurrencyWord(lower string) bool {
	for word := range currencyWords {
		if wordBoundaryRe(word).MatchString(lower) {
			return true
		}
	}
	return false
}

func currencyFromWord(lower string) (string, bool) {
	for word, code := range currencyWords {
		if wordBoundaryRe(word).MatchString(lower) {
			return code, true
		}
	}
	return "", false
}

func findScale(lower string) (Scale, bool) {
	for word, sc := range scaleWords {
		if wordBoundaryRe(word).MatchString(lower) {
			return sc, true
		}
	}
	return "", false
}

func findTimeScale(lower string) (TimeScale, bool) {
	for word, ts := range timeWords {
		if strings.Contains(lower, word) {
			return ts, true
		}
	}
	return "", false
}

// normalizedCurrency reconstructs a re-parseable currency-amount string.
// When no currency code or word was recognized (e.g. "national currency",
// a special phrase with no embedded code), it falls back to the original
// input so that re-parsing the normalized form still matches rule 9
// instead of collapsing to unknown.
func normalizedCurrency(pu ParsedUnit, lower string) string {
	parts := []string{}
	if pu.Currency != "" {
		parts = append(parts, pu.Currency)
	}
	if pu.Scale != "" && pu.Scale != ScaleOnes {
		parts = append(parts, string(pu.Scale))
	}
	out := strings.Join(parts, " ")
	if pu.TimeScale != "" {
		out = fmt.Sprintf("%s per %s", out, pu.TimeScale)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return lower
	}
	return out
}

func normalizedComposite(pu ParsedUnit) string {
	base := pu.Currency
	if pu.Scale != "" && pu.Scale != ScaleOnes {
		base = fmt.Sprintf("%s %s", base, pu.Scale)
	}
	if pu.TimeScale != "" {
		return fmt.Sprintf("%s per %s", base, pu.TimeScale)
	}
	return base
}

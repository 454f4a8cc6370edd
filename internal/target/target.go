// Package target computes the Auto-Target Selector's per-group target:
// given a batch of items sharing an indicatorKey, pick the majority
// currency/magnitude/time label for each enabled dimension, falling back
// to a configured tie-breaker when no label clears the majority
// threshold. Majority-finding itself is a weighted mode over a sorted
// numeric encoding of the labels, in the same small-wrapper-over-gonum
// style as pkg/formulas/stats.go's Mean/StdDev helpers.
package target

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/econindex/classifier/internal/config"
	"github.com/econindex/classifier/internal/models"
)

// DimensionLabels is one group member's raw (pre-normalization) label per
// dimension. An empty string means the dimension is unknown for this item
// and it is excluded from that dimension's share computation.
type DimensionLabels struct {
	Currency  string
	Magnitude string
	Time      string
}

// Configured returns the non-auto-target TargetSelection: the operator's
// configured currency/magnitude/time, used whenever autoTargetByIndicator
// is false.
func Configured(opts config.NEOptions) models.TargetSelection {
	return models.TargetSelection{
		Mode: "configured",
		Selected: models.TargetValues{
			Currency:  opts.TargetCurrency,
			Magnitude: string(opts.TargetMagnitude),
			Time:      string(opts.TargetTimeScale),
		},
		Reason: "auto-target disabled; using configured target",
	}
}

// Select runs the Auto-Target Selector over one indicatorKey group and
// returns the chosen (currency, magnitude, time) triple plus the share
// table behind the choice.
func Select(indicatorKey string, items []DimensionLabels, opts config.NEOptions) models.TargetSelection {
	shares := map[string]map[string]float64{
		"currency":  {},
		"magnitude": {},
		"time":      {},
	}
	selected := models.TargetValues{}
	var reasons []string

	dims := enabledDimensions(opts)

	if dims["currency"] {
		label, dimShares, share := majorityLabel(labelsFor(items, "currency"), normalizeCurrency)
		shares["currency"] = dimShares
		if share >= opts.MinMajorityShare && label != "" {
			selected.Currency = label
			reasons = append(reasons, fmt.Sprintf("currency=%s by majority (%.0f%%)", label, share*100))
		} else {
			selected.Currency = tieBreakCurrency(dimShares, opts)
			reasons = append(reasons, fmt.Sprintf("currency=%s by tie-breaker (top share %.0f%% < %.0f%%)",
				selected.Currency, share*100, opts.MinMajorityShare*100))
		}
	}

	if dims["magnitude"] {
		label, dimShares, share := majorityLabel(labelsFor(items, "magnitude"), normalizeMagnitude)
		shares["magnitude"] = dimShares
		if share >= opts.MinMajorityShare && label != "" {
			selected.Magnitude = label
			reasons = append(reasons, fmt.Sprintf("magnitude=%s by majority (%.0f%%)", label, share*100))
		} else {
			selected.Magnitude = tieBreakMagnitude(dimShares, opts)
			reasons = append(reasons, fmt.Sprintf("magnitude=%s by tie-breaker (top share %.0f%% < %.0f%%)",
				selected.Magnitude, share*100, opts.MinMajorityShare*100))
		}
	}

	if dims["time"] {
		label, dimShares, share := majorityLabel(labelsFor(items, "time"), normalizeTime)
		shares["time"] = dimShares
		if share >= opts.MinMajorityShare && label != "" {
			selected.Time = label
			reasons = append(reasons, fmt.Sprintf("time=%s by majority (%.0f%%)", label, share*100))
		} else {
			selected.Time = tieBreakTime(dimShares, opts)
			reasons = append(reasons, fmt.Sprintf("time=%s by tie-breaker (top share %.0f%% < %.0f%%)",
				selected.Time, share*100, opts.MinMajorityShare*100))
		}
	}

	return models.TargetSelection{
		Mode:         "auto",
		IndicatorKey: indicatorKey,
		Selected:     selected,
		Shares:       shares,
		Reason:       strings.Join(reasons, "; "),
	}
}

func enabledDimensions(opts config.NEOptions) map[string]bool {
	out := map[string]bool{}
	for _, d := range opts.AutoTargetDimensions {
		out[string(d)] = true
	}
	return out
}

func labelsFor(items []DimensionLabels, dim string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		switch dim {
		case "currency":
			out = append(out, it.Currency)
		case "magnitude":
			out = append(out, it.Magnitude)
		case "time":
			out = append(out, it.Time)
		}
	}
	return out
}

// majorityLabel normalizes and counts each non-empty label, then picks the
// mode via gonum/stat.Mode over a sorted numeric encoding of the labels.
// Mode returns the smallest code on ties, and codes are assigned in
// alphabetical label order, so ties resolve alphabetically as required.
func majorityLabel(raw []string, normalize func(string) string) (string, map[string]float64, float64) {
	counts := map[string]int{}
	total := 0
	for _, r := range raw {
		label := normalize(r)
		if label == "" {
			continue
		}
		counts[label]++
		total++
	}

	shares := make(map[string]float64, len(counts))
	if total == 0 {
		return "", shares, 0
	}
	for label, c := range counts {
		shares[label] = float64(c) / float64(total)
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	codes := make([]float64, 0, total)
	for i, label := range labels {
		for n := 0; n < counts[label]; n++ {
			codes = append(codes, float64(i))
		}
	}
	sort.Float64s(codes)

	modeCode, modeCount := stat.Mode(codes, nil)
	winner := labels[int(modeCode)]
	return winner, shares, modeCount / float64(total)
}

func tieBreakCurrency(shares map[string]float64, opts config.NEOptions) string {
	switch opts.TieBreakers.Currency {
	case string(config.TieBreakerPreferBase):
		if opts.TargetCurrency != "" {
			return opts.TargetCurrency
		}
		return "USD"
	case "":
		return topShareAlphabetical(shares)
	default:
		for _, pref := range opts.TieBreakers.CurrencyPreferenceList {
			if _, ok := shares[pref]; ok {
				return pref
			}
		}
		if opts.TargetCurrency != "" {
			return opts.TargetCurrency
		}
		// prefer-targetCurrency with no target configured falls back to
		// the base currency, same as an explicit prefer-base.
		return "USD"
	}
}

func tieBreakMagnitude(shares map[string]float64, opts config.NEOptions) string {
	if opts.TieBreakers.Magnitude == string(config.TieBreakerPreferMillions) || opts.TieBreakers.Magnitude == "" {
		return "million"
	}
	if _, ok := shares[opts.TieBreakers.Magnitude]; ok {
		return opts.TieBreakers.Magnitude
	}
	return topShareAlphabetical(shares)
}

func tieBreakTime(shares map[string]float64, opts config.NEOptions) string {
	if opts.TieBreakers.Time == string(config.TieBreakerPreferMonth) || opts.TieBreakers.Time == "" {
		return "month"
	}
	if _, ok := shares[opts.TieBreakers.Time]; ok {
		return opts.TieBreakers.Time
	}
	return topShareAlphabetical(shares)
}

// topShareAlphabetical picks the largest share, breaking exact ties
// alphabetically.
func topShareAlphabetical(shares map[string]float64) string {
	var best string
	var bestShare float64 = -1
	for label, share := range shares {
		if share > bestShare || (share == bestShare && label < best) {
			best, bestShare = label, share
		}
	}
	return best
}

// normalizeCurrency case-normalizes a currency code: usd -> USD.
func normalizeCurrency(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// normalizeMagnitude maps plural/alternate spellings to the canonical
// singular tier name: thousands -> thousand.
func normalizeMagnitude(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "s")
	return s
}

// normalizeTime maps reporting-frequency adjectives to the canonical
// period name: monthly -> month.
func normalizeTime(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "month"):
		return "month"
	case strings.HasPrefix(s, "quarter"):
		return "quarter"
	case strings.HasPrefix(s, "year") || strings.HasPrefix(s, "annual"):
		return "year"
	case strings.HasPrefix(s, "week"):
		return "week"
	case strings.HasPrefix(s, "day") || strings.HasPrefix(s, "daily"):
		return "day"
	case strings.HasPrefix(s, "hour"):
		return "hour"
	}
	return s
}

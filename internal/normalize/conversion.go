package normalize

import (
	"fmt"
	"strings"

	"github.com/econindex/classifier/internal/config"
	"github.com/econindex/classifier/internal/errs"
	"github.com/econindex/classifier/internal/fx"
	"github.com/econindex/classifier/internal/indicatortype"
	"github.com/econindex/classifier/internal/models"
	"github.com/econindex/classifier/internal/rescale"
	"github.com/econindex/classifier/internal/unit"
)

// target is the resolved (currency, magnitude, time) triple an item is
// converted towards, already case-normalized to the tiers rescale and
// fx expect.
type target struct {
	Currency  string
	Magnitude unit.Scale
	Time      unit.TimeScale
}

// targetFrom adapts a TargetSelection's chosen values onto unit's
// scale/timeScale tiers. Magnitude needs normalizing because the
// Auto-Target Selector counts magnitude labels in singular form
// ("million") to collapse spelling variants, while unit.Scale and a
// configured target both use the plural tier name ("millions"); time
// labels need no such adjustment since both ATS and unit.TimeScale
// already agree on the singular form ("month").
func targetFrom(sel models.TargetValues) target {
	t := target{Currency: sel.Currency}
	if sel.Magnitude != "" {
		t.Magnitude = pluralScale(sel.Magnitude)
	}
	if sel.Time != "" {
		t.Time = unit.TimeScale(sel.Time)
	}
	return t
}

func pluralScale(s string) unit.Scale {
	if !strings.HasSuffix(s, "s") {
		s += "s"
	}
	return unit.Scale(s)
}

// Convert runs one item through the conversion chain for its routed
// domain: exempt/pass-through domains return the original value
// untouched; monetary and wages run FX, magnitude, and time rescale in
// sequence; counts may rescale magnitude and time; the remaining domains
// apply at most a magnitude rescale (never for percentages), and only
// where their indicator type's Rules permit it. Every non-identity step
// is recorded in
// the returned ExplainRecord.
func Convert(dp models.DataPoint, domain Domain, pu unit.ParsedUnit, tgt models.TargetValues, fxTable models.FXTable, opts config.NEOptions) (models.NormalizedDataPoint, error) {
	out := models.NormalizedDataPoint{DataPoint: dp, Normalized: dp.Value, NormalizedUnit: dp.Unit}
	explain := models.ExplainRecord{Domain: string(domain), Router: "normalize.RouteDomain"}

	if domain == DomainExempt {
		explain.Exempted = true
		explain.Conversion = models.ConversionExplain{Summary: "exempt pass-through", Steps: nil}
		out.Explain = explain
		return out, nil
	}

	rules := indicatortype.GetRules(indicatortype.Type(dp.IndicatorType))
	t := targetFrom(tgt)
	factor := 1.0
	var steps []string

	sourceCurrency := dp.CurrencyCode
	if sourceCurrency == "" {
		sourceCurrency = pu.Currency
	}
	sourceMagnitude := unit.Scale(dp.Scale)
	if sourceMagnitude == "" {
		sourceMagnitude = pu.Scale
	}
	if sourceMagnitude == "" {
		sourceMagnitude = unit.ScaleOnes
	}
	sourceTime := unit.TimeScale(dp.Periodicity)
	if sourceTime == "" {
		sourceTime = pu.TimeScale
	}

	allowCurrency := rules.AllowCurrency && policyAllowsCurrency(domain)
	allowMagnitude := rules.AllowMagnitude && policyAllowsMagnitude(domain)
	allowTime := rules.AllowTime && policyAllowsTime(domain)

	if domain == DomainCounts && rules.AllowTime {
		t.Magnitude = unit.ScaleOnes
	}
	if domain == DomainWages {
		t.Magnitude = unit.ScaleOnes
	}

	if allowCurrency && sourceCurrency != "" && t.Currency != "" && sourceCurrency != t.Currency {
		conv, err := fx.Convert(sourceCurrency, t.Currency, fxTable)
		if err != nil {
			if domain == DomainWages {
				// wages fall back to a magnitude-ones, time-only
				// conversion when no FX rate is available.
				steps = append(steps, fmt.Sprintf("currency conversion unavailable (%s); proceeding without FX", err.Error()))
			} else if errs.Is(err, errs.KindMissingFXRate) {
				// other items with no rate keep their original value and
				// unit; the missing rate is recorded in the steps.
				steps = append(steps, fmt.Sprintf("currency conversion unavailable (%s); value passed through", err.Error()))
				explain.Conversion = models.ConversionExplain{Summary: strings.Join(steps, "; "), Steps: steps}
				out.Explain = explain
				return out, nil
			} else {
				return models.NormalizedDataPoint{}, err
			}
		} else {
			factor *= conv.Factor
			fxCopy := conv.Provenance
			explain.FX = &fxCopy
			explain.Currency = &models.CurrencyExplain{Original: sourceCurrency, Normalized: t.Currency}
			steps = append(steps, fmt.Sprintf("currency %s -> %s (x%.6f)", sourceCurrency, t.Currency, conv.Factor))
		}
	}

	if allowMagnitude && t.Magnitude != "" && sourceMagnitude != t.Magnitude {
		r, err := rescale.RescaleMagnitude(1, sourceMagnitude, t.Magnitude)
		if err != nil {
			return models.NormalizedDataPoint{}, err
		}
		factor *= r.Factor
		explain.Magnitude = &models.MagnitudeExplain{Original: string(sourceMagnitude), Normalized: string(t.Magnitude), Factor: r.Factor}
		steps = append(steps, fmt.Sprintf("magnitude %s -> %s (x%.6g)", sourceMagnitude, t.Magnitude, r.Factor))
	}

	if allowTime && !rules.SkipTimeInUnit && t.Time != "" && sourceTime != "" && sourceTime != t.Time {
		r, err := rescale.RescaleTime(1, sourceTime, t.Time)
		if err != nil {
			return models.NormalizedDataPoint{}, err
		}
		factor *= r.Factor
		explain.Time = &models.TimeExplain{Original: string(sourceTime), Normalized: string(t.Time), Factor: r.Factor, DayCountModel: rescale.DayCountModel}
		steps = append(steps, fmt.Sprintf("time %s -> %s (x%.6g)", sourceTime, t.Time, r.Factor))
	}

	out.Normalized = dp.Value * factor
	out.NormalizedUnit = buildNormalizedUnit(t, rules, allowCurrency, allowMagnitude, allowTime, dp.Unit)

	summary := "no conversion applied"
	if len(steps) > 0 {
		summary = strings.Join(steps, "; ")
	}
	explain.Conversion = models.ConversionExplain{Summary: summary, Steps: steps}
	out.Explain = explain
	return out, nil
}

// policyAllowsCurrency/Magnitude/Time gate a rescale dimension by domain
// on top of the indicator type's own Rules, per the per-domain policy
// table: only monetary and wages ever touch FX; counts force magnitude
// to ones instead of rescaling it freely; percentages never rescale.
func policyAllowsCurrency(d Domain) bool {
	return d == DomainMonetary || d == DomainWages
}

func policyAllowsMagnitude(d Domain) bool {
	return d != DomainPercentages
}

func policyAllowsTime(d Domain) bool {
	return d == DomainMonetary || d == DomainWages || d == DomainCounts
}

// buildNormalizedUnit composes a human-readable unit label from the
// resolved target components. Dimensions the domain/type rules didn't
// touch keep falling back to the original label's wording, and the
// time component is dropped entirely when the indicator type's rules
// say the unit never carries a period (SkipTimeInUnit).
func buildNormalizedUnit(t target, rules indicatortype.Rules, allowCurrency, allowMagnitude, allowTime bool, original string) string {
	if !allowCurrency && !allowMagnitude && !allowTime {
		return original
	}
	var parts []string
	if allowCurrency && t.Currency != "" {
		parts = append(parts, t.Currency)
	}
	if allowMagnitude && t.Magnitude != "" {
		parts = append(parts, strings.Title(string(t.Magnitude)))
	}
	if len(parts) == 0 {
		parts = append(parts, original)
	}
	label := strings.Join(parts, " ")
	if allowTime && !rules.SkipTimeInUnit && t.Time != "" {
		label = fmt.Sprintf("%s per %s", label, strings.Title(string(t.Time)))
	}
	return label
}

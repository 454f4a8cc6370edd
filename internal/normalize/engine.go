package normalize

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/econindex/classifier/internal/config"
	"github.com/econindex/classifier/internal/models"
	"github.com/econindex/classifier/internal/quality"
	"github.com/econindex/classifier/internal/target"
	"github.com/econindex/classifier/internal/unit"
	"github.com/econindex/classifier/internal/unitsem"
)

// Process normalizes a batch of DataPoints, preserving input order.
// Items are grouped by opts.IndicatorKey so the quality detectors and,
// when opts.AutoTargetByIndicator is set, the Auto-Target Selector can
// see the whole group at once; conversion of individual items then
// proceeds concurrently across groups.
func Process(ctx context.Context, items []models.DataPoint, fxTable models.FXTable, opts config.NEOptions) ([]models.NormalizedDataPoint, error) {
	return process(ctx, items, fxTable, opts, opts.AutoTargetByIndicator)
}

// ProcessByIndicator is Process with the Auto-Target Selector always
// engaged per group, regardless of opts.AutoTargetByIndicator.
func ProcessByIndicator(ctx context.Context, items []models.DataPoint, fxTable models.FXTable, opts config.NEOptions) ([]models.NormalizedDataPoint, error) {
	return process(ctx, items, fxTable, opts, true)
}

type indexedPoint struct {
	index int
	point models.DataPoint
}

func process(ctx context.Context, items []models.DataPoint, fxTable models.FXTable, opts config.NEOptions, autoTarget bool) ([]models.NormalizedDataPoint, error) {
	groups := make(map[string][]indexedPoint)
	var order []string
	for i, dp := range items {
		key := groupKey(dp, opts.IndicatorKey)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], indexedPoint{index: i, point: dp})
	}

	results := make([]models.NormalizedDataPoint, len(items))
	dropped := make([]bool, len(items))
	g, ctx := errgroup.WithContext(ctx)
	for _, key := range order {
		members := groups[key]
		key := key
		g.Go(func() error {
			return processGroup(ctx, key, members, fxTable, opts, autoTarget, results, dropped)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.NormalizedDataPoint, 0, len(items))
	for i, r := range results {
		if dropped[i] {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// groupKey resolves an indicator's grouping key per opts.IndicatorKey:
// "id" and "name" read the corresponding DataPoint field directly;
// anything else is looked up in Metadata.
func groupKey(dp models.DataPoint, indicatorKey string) string {
	switch indicatorKey {
	case "id":
		return dp.ID
	case "name", "":
		return dp.Name
	default:
		if v, ok := dp.Metadata[indicatorKey].(string); ok {
			return v
		}
		return dp.Name
	}
}

func processGroup(ctx context.Context, key string, members []indexedPoint, fxTable models.FXTable, opts config.NEOptions, autoTarget bool, results []models.NormalizedDataPoint, dropped []bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for i := range members {
		members[i].point = applyUnitOverride(members[i].point, opts.SpecialHandling.UnitOverrides)
	}

	domains := make([]Domain, len(members))
	parsed := make([]unit.ParsedUnit, len(members))
	values := make([]float64, len(members))
	labels := make([]unitsem.Label, len(members))
	dimLabels := make([]target.DimensionLabels, len(members))

	for i, m := range members {
		domain, pu := RouteDomain(m.point, opts)
		domains[i] = domain
		parsed[i] = pu
		values[i] = m.point.Value
		labels[i] = unitsem.FromParsedUnit(pu).Label

		currency := m.point.CurrencyCode
		if currency == "" {
			currency = pu.Currency
		}
		magnitude := m.point.Scale
		if magnitude == "" {
			magnitude = string(pu.Scale)
		}
		timeScale := m.point.Periodicity
		if timeScale == "" {
			timeScale = string(pu.TimeScale)
		}
		dimLabels[i] = target.DimensionLabels{Currency: currency, Magnitude: magnitude, Time: timeScale}
	}

	scaleOutliers := quality.DetectScaleOutliers(values, quality.DefaultClusterThreshold, quality.DefaultMagnitudeDifferenceThreshold)
	unitOutliers := quality.DetectUnitTypeOutliers(labels, quality.DefaultDominantTypeThreshold)
	warnings := make([][]string, len(members))
	for _, idx := range scaleOutliers.OutlierIndices {
		warnings[idx] = append(warnings[idx], "scale outlier vs. dominant group magnitude")
	}
	for _, idx := range unitOutliers.OutlierIndices {
		warnings[idx] = append(warnings[idx], "unit type inconsistent with dominant group type")
	}

	var selection models.TargetSelection
	if autoTarget {
		selection = target.Select(key, dimLabels, opts)
	} else {
		selection = target.Configured(opts)
	}

	for i, m := range members {
		if isWageIndexItem(m.point, parsed[i], opts) {
			dropped[m.index] = true
			continue
		}
		normalized, err := Convert(m.point, domains[i], parsed[i], selection.Selected, fxTable, opts)
		if err != nil {
			return err
		}
		if opts.Explain {
			sel := selection
			normalized.Explain.TargetSelection = &sel
		}
		normalized.Explain.QualityWarnings = warnings[i]
		results[m.index] = normalized
	}
	return nil
}

// applyUnitOverride lets an operator pin a specific indicator's unit/scale
// interpretation ahead of RouteDomain/unit.Parse ever running on it: the
// first matching config.UnitOverride's OverrideUnit replaces dp.Unit
// outright, and OverrideScale, when set, replaces dp.Scale too, so a
// mislabeled or ambiguous raw unit string never reaches the parser's own
// heuristics for that indicator.
func applyUnitOverride(dp models.DataPoint, overrides []config.UnitOverride) models.DataPoint {
	for _, ov := range overrides {
		if !matchesUnitOverride(dp, ov) {
			continue
		}
		dp.Unit = ov.OverrideUnit
		if ov.OverrideScale != nil {
			dp.Scale = *ov.OverrideScale
		}
		return dp
	}
	return dp
}

func matchesUnitOverride(dp models.DataPoint, ov config.UnitOverride) bool {
	for _, id := range ov.IndicatorIDs {
		if id == dp.ID {
			return true
		}
	}
	lowerName := strings.ToLower(dp.Name)
	for _, n := range ov.IndicatorNames {
		if n != "" && strings.Contains(lowerName, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// isWageIndexItem reports whether dp is a wage-domain item reported as an
// index/points value (e.g. a national wage index rather than an absolute
// wage figure) that opts.ExcludeIndexValues says to drop entirely,
// per the wages per-domain policy's "index/points items are optionally
// filtered out" clause. pu.Category is checked directly rather than the
// domain RouteDomain assigned, since an index-shaped unit routes to
// DomainIndex ahead of the wage-token check in RouteDomain's ordering.
func isWageIndexItem(dp models.DataPoint, pu unit.ParsedUnit, opts config.NEOptions) bool {
	if !opts.ExcludeIndexValues {
		return false
	}
	if pu.Category != unit.CategoryIndex {
		return false
	}
	haystack := strings.ToLower(dp.Name + " " + dp.Unit)
	return containsAny(haystack, wageTokens)
}

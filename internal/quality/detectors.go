package quality

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/econindex/classifier/internal/unitsem"
)

const (
	// DefaultClusterThreshold is the minimum share the dominant magnitude
	// cluster must hold before scale outliers are flagged against it.
	DefaultClusterThreshold = 0.6
	// DefaultMagnitudeDifferenceThreshold is how many orders of magnitude
	// an item's magnitude must differ from the dominant cluster by
	// before it is flagged.
	DefaultMagnitudeDifferenceThreshold = 2.0
	// DefaultDominantTypeThreshold is the minimum share the dominant
	// unit-semantic type must hold before incompatible items are flagged.
	DefaultDominantTypeThreshold = 0.67
)

// ScaleOutlierResult reports, per group member, whether its magnitude
// differs enough from the dominant cluster to warrant a warning.
type ScaleOutlierResult struct {
	DominantMagnitude int
	DominantShare     float64
	OutlierIndices    []int
}

// DetectScaleOutliers computes magnitude = floor(log10(|value|)) for each
// value, finds the dominant magnitude (via a weighted mode over the
// sorted magnitude codes, same technique as internal/target's majority
// label), and flags indices whose magnitude differs from it by at least
// magnitudeDifferenceThreshold. Zero values have no defined magnitude and
// are excluded from both clustering and flagging.
func DetectScaleOutliers(values []float64, clusterThreshold, magnitudeDifferenceThreshold float64) ScaleOutlierResult {
	type indexedMagnitude struct {
		index     int
		magnitude int
	}

	var magnitudes []indexedMagnitude
	for i, v := range values {
		if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		magnitudes = append(magnitudes, indexedMagnitude{index: i, magnitude: int(math.Floor(math.Log10(math.Abs(v))))})
	}
	if len(magnitudes) == 0 {
		return ScaleOutlierResult{}
	}

	codes := make([]float64, len(magnitudes))
	for i, m := range magnitudes {
		codes[i] = float64(m.magnitude)
	}
	sorted := append([]float64(nil), codes...)
	sort.Float64s(sorted)

	dominant, dominantCount := stat.Mode(sorted, nil)
	dominantMagnitude := int(dominant)
	share := dominantCount / float64(len(magnitudes))

	result := ScaleOutlierResult{DominantMagnitude: dominantMagnitude, DominantShare: share}
	if share < clusterThreshold {
		// no single cluster dominates; nothing to compare outliers against
		return result
	}

	for _, m := range magnitudes {
		if math.Abs(float64(m.magnitude-dominantMagnitude)) >= magnitudeDifferenceThreshold {
			result.OutlierIndices = append(result.OutlierIndices, m.index)
		}
	}
	return result
}

// UnitTypeOutlierResult reports the dominant unit-semantic label across a
// group and which members are incompatible with it.
type UnitTypeOutlierResult struct {
	DominantLabel  unitsem.Label
	DominantShare  float64
	OutlierIndices []int
}

// DetectUnitTypeOutliers classifies every member's unit via unitsem,
// finds the dominant label (weighted mode, same as DetectScaleOutliers),
// and flags members whose label is incompatible with the dominant one
// per unitsem.Compatible. Unknown-labeled items never participate in
// the dominant-cluster computation, matching the rule that unknown
// items are excluded from majority computations everywhere in this
// engine.
func DetectUnitTypeOutliers(labels []unitsem.Label, dominantTypeThreshold float64) UnitTypeOutlierResult {
	labelOrder := []unitsem.Label{
		unitsem.LabelPercentage, unitsem.LabelIndex, unitsem.LabelCount,
		unitsem.LabelCurrencyAmount, unitsem.LabelPhysical, unitsem.LabelRate,
		unitsem.LabelRatio, unitsem.LabelDuration,
	}
	codeOf := make(map[unitsem.Label]int, len(labelOrder))
	for i, l := range labelOrder {
		codeOf[l] = i
	}

	type indexedCode struct {
		index int
		code  int
	}
	var known []indexedCode
	for i, l := range labels {
		if l == unitsem.LabelUnknown {
			continue
		}
		known = append(known, indexedCode{index: i, code: codeOf[l]})
	}
	if len(known) == 0 {
		return UnitTypeOutlierResult{}
	}

	codes := make([]float64, len(known))
	for i, k := range known {
		codes[i] = float64(k.code)
	}
	sorted := append([]float64(nil), codes...)
	sort.Float64s(sorted)

	dominantCode, dominantCount := stat.Mode(sorted, nil)
	dominantLabel := labelOrder[int(dominantCode)]
	share := dominantCount / float64(len(known))

	result := UnitTypeOutlierResult{DominantLabel: dominantLabel, DominantShare: share}
	if share < dominantTypeThreshold {
		return result
	}

	for _, k := range known {
		label := labelOrder[k.code]
		if !unitsem.Compatible(label, dominantLabel) {
			result.OutlierIndices = append(result.OutlierIndices, k.index)
		}
	}
	return result
}

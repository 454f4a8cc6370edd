package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/econindex/classifier/internal/unitsem"
)

func TestDetectScaleOutliers_FlagsWildOutlier(t *testing.T) {
	// magnitudes: 520394000 -> 8, 6774 -> 3, 1467 -> 3, 875 -> 2, 3200 -> 3
	values := []float64{520_394_000, 6_774, 1_467, 875, 3_200}

	result := DetectScaleOutliers(values, DefaultClusterThreshold, DefaultMagnitudeDifferenceThreshold)

	assert.Contains(t, result.OutlierIndices, 0)
	assert.NotContains(t, result.OutlierIndices, 1)
}

func TestDetectScaleOutliers_NoDominantClusterFlagsNothing(t *testing.T) {
	values := []float64{1, 100, 10_000, 1_000_000}

	result := DetectScaleOutliers(values, DefaultClusterThreshold, DefaultMagnitudeDifferenceThreshold)

	assert.Empty(t, result.OutlierIndices)
}

func TestDetectScaleOutliers_ZeroValuesExcluded(t *testing.T) {
	values := []float64{100, 100, 0, 0}

	result := DetectScaleOutliers(values, DefaultClusterThreshold, DefaultMagnitudeDifferenceThreshold)

	assert.Empty(t, result.OutlierIndices)
	assert.Equal(t, 2, result.DominantMagnitude)
}

func TestDetectUnitTypeOutliers_FlagsIncompatibleType(t *testing.T) {
	labels := []unitsem.Label{
		unitsem.LabelCurrencyAmount, unitsem.LabelCurrencyAmount,
		unitsem.LabelCurrencyAmount, unitsem.LabelPercentage,
	}

	result := DetectUnitTypeOutliers(labels, DefaultDominantTypeThreshold)

	assert.Equal(t, unitsem.LabelCurrencyAmount, result.DominantLabel)
	assert.Equal(t, []int{3}, result.OutlierIndices)
}

func TestDetectUnitTypeOutliers_UnknownExcludedFromCluster(t *testing.T) {
	labels := []unitsem.Label{
		unitsem.LabelCurrencyAmount, unitsem.LabelCurrencyAmount, unitsem.LabelUnknown,
	}

	result := DetectUnitTypeOutliers(labels, DefaultDominantTypeThreshold)

	assert.Equal(t, unitsem.LabelCurrencyAmount, result.DominantLabel)
	assert.Equal(t, 1.0, result.DominantShare)
}

func TestDetectUnitTypeOutliers_BelowThresholdFlagsNothing(t *testing.T) {
	labels := []unitsem.Label{
		unitsem.LabelCurrencyAmount, unitsem.LabelPercentage, unitsem.LabelIndex,
	}

	result := DetectUnitTypeOutliers(labels, DefaultDominantTypeThreshold)

	assert.Empty(t, result.OutlierIndices)
}

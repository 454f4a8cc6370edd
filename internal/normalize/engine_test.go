package normalize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/econindex/classifier/internal/config"
	"github.com/econindex/classifier/internal/models"
)

func gdpItems() []models.DataPoint {
	return []models.DataPoint{
		{ID: "GDP.A", Name: "Gross Domestic Product", Unit: "USD Million", Value: 100, CurrencyCode: "USD", Scale: "millions", Periodicity: "month", IndicatorType: "flow"},
		{ID: "GDP.B", Name: "Gross Domestic Product", Unit: "EUR Million", Value: 90, CurrencyCode: "EUR", Scale: "millions", Periodicity: "month", IndicatorType: "flow"},
		{ID: "GDP.C", Name: "Gross Domestic Product", Unit: "USD Million", Value: 110, CurrencyCode: "USD", Scale: "millions", Periodicity: "month", IndicatorType: "flow"},
	}
}

func TestProcess_PreservesInputOrder(t *testing.T) {
	items := gdpItems()
	fxTable := models.FXTable{Base: "USD", Rates: map[string]float64{"USD": 1, "EUR": 0.9}}
	opts := config.NEOptions{IndicatorKey: "name", TargetCurrency: "USD", TargetMagnitude: "millions", TargetTimeScale: "month"}

	out, err := Process(context.Background(), items, fxTable, opts)

	require.NoError(t, err)
	require.Len(t, out, 3)
	for i, dp := range items {
		assert.Equal(t, dp.ID, out[i].ID)
	}
}

func TestProcess_UsesConfiguredTargetWhenAutoTargetDisabled(t *testing.T) {
	items := gdpItems()
	fxTable := models.FXTable{Base: "USD", Rates: map[string]float64{"USD": 1, "EUR": 0.9}}
	opts := config.NEOptions{IndicatorKey: "name", TargetCurrency: "USD", TargetMagnitude: "millions", TargetTimeScale: "month", Explain: true}

	out, err := Process(context.Background(), items, fxTable, opts)

	require.NoError(t, err)
	require.NotNil(t, out[0].Explain.TargetSelection)
	assert.Equal(t, "configured", out[0].Explain.TargetSelection.Mode)
}

func TestProcessByIndicator_AlwaysRunsAutoTarget(t *testing.T) {
	items := gdpItems()
	fxTable := models.FXTable{Base: "USD", Rates: map[string]float64{"USD": 1, "EUR": 0.9}}
	opts := config.NEOptions{
		IndicatorKey: "name", MinMajorityShare: 0.5, Explain: true,
		AutoTargetDimensions: []config.Dimension{config.DimensionCurrency, config.DimensionMagnitude, config.DimensionTime},
		TieBreakers:          config.TieBreakers{Currency: "prefer-targetCurrency", Magnitude: "prefer-millions", Time: "prefer-month"},
	}

	out, err := ProcessByIndicator(context.Background(), items, fxTable, opts)

	require.NoError(t, err)
	for _, item := range out {
		require.NotNil(t, item.Explain.TargetSelection)
		assert.Equal(t, "auto", item.Explain.TargetSelection.Mode)
		// 2 of 3 items are USD: majority share is 2/3 >= 0.5
		assert.Equal(t, "USD", item.Explain.TargetSelection.Selected.Currency)
	}
}

// TestProcess_WagesPipelineFiltersIndexItem covers S2: a wages group with
// one member reported as an index/points value is filtered out entirely
// when excludeIndexValues is set, the remaining members converting to
// USD per month with magnitude forced to ones.
func TestProcess_WagesPipelineFiltersIndexItem(t *testing.T) {
	items := []models.DataPoint{
		{ID: "ARG", Name: "Average Monthly Wage", Unit: "ARS/Month", Value: 1674890.75, CurrencyCode: "ARS", Periodicity: "month"},
		{ID: "VEN", Name: "Average Monthly Wage", Unit: "VEF/Month", Value: 13000000, CurrencyCode: "VEF", Periodicity: "month"},
		{ID: "CRI", Name: "Average Monthly Wage", Unit: "points", Value: 6225.77},
		{ID: "USA", Name: "Average Monthly Wage", Unit: "USD/hour", Value: 7.25, CurrencyCode: "USD", Periodicity: "hour"},
	}
	fxTable := models.FXTable{
		Base:  "USD",
		Rates: map[string]float64{"USD": 1, "ARS": 1000, "VEF": 4000000},
	}
	opts := config.NEOptions{
		IndicatorKey:       "name",
		TargetCurrency:     "USD",
		TargetTimeScale:    "month",
		ExcludeIndexValues: true,
	}

	out, err := Process(context.Background(), items, fxTable, opts)

	require.NoError(t, err)
	require.Len(t, out, 3)
	for _, dp := range out {
		assert.NotEqual(t, "CRI", dp.ID)
	}
}

func TestProcess_UnitOverrideBypassesParserForMatchedIndicator(t *testing.T) {
	overrideScale := "millions"
	items := []models.DataPoint{
		{ID: "WEIRD.1", Name: "Ambiguous Indicator", Unit: "xyz-nonstandard", Value: 42, CurrencyCode: "USD"},
	}
	fxTable := models.FXTable{Base: "USD", Rates: map[string]float64{"USD": 1}}
	opts := config.NEOptions{
		IndicatorKey:    "name",
		TargetCurrency:  "USD",
		TargetMagnitude: "millions",
		SpecialHandling: config.SpecialHandling{
			UnitOverrides: []config.UnitOverride{
				{IndicatorIDs: []string{"WEIRD.1"}, OverrideUnit: "USD Million", OverrideScale: &overrideScale, Reason: "source mislabels this field"},
			},
		},
	}

	out, err := Process(context.Background(), items, fxTable, opts)

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "USD Million", out[0].Unit)
	assert.Equal(t, "millions", out[0].Scale)
}

func TestProcess_GroupsByIndicatorKeyIndependently(t *testing.T) {
	items := []models.DataPoint{
		{ID: "A.1", Name: "Indicator A", Unit: "USD Million", Value: 1, CurrencyCode: "USD", Scale: "millions", IndicatorType: "flow"},
		{ID: "B.1", Name: "Indicator B", Unit: "EUR Million", Value: 2, CurrencyCode: "EUR", Scale: "millions", IndicatorType: "flow"},
	}
	fxTable := models.FXTable{Base: "USD", Rates: map[string]float64{"USD": 1, "EUR": 0.9}}
	opts := config.NEOptions{IndicatorKey: "name", TargetCurrency: "USD", TargetMagnitude: "millions", TargetTimeScale: "month"}

	out, err := Process(context.Background(), items, fxTable, opts)

	require.NoError(t, err)
	require.Len(t, out, 2)
}

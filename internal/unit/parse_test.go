package unit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Empty(t *testing.T) {
	pu := Parse("   ")
	assert.Equal(t, CategoryUnknown, pu.Category)
}

func TestParse_Percentage(t *testing.T) {
	for _, s := range []string{"%", "percent", "Percentage", "pct", "pp", "% of GDP"} {
		pu := Parse(s)
		assert.Equalf(t, CategoryPercentage, pu.Category, "input %q", s)
		assert.Equal(t, "%", pu.Normalized)
	}
}

func TestParse_Index(t *testing.T) {
	for _, s := range []string{"points", "Index", "basis points", "bps", "Index (2015=100)"} {
		pu := Parse(s)
		assert.Equalf(t, CategoryIndex, pu.Category, "input %q", s)
	}
}

func TestParse_PricePerUnit(t *testing.T) {
	pu := Parse("USD/barrel")
	require.Equal(t, CategoryComposite, pu.Category)
	assert.True(t, pu.IsComposite)
	assert.Equal(t, "USD", pu.Currency)

	pu2 := Parse("EUR per month")
	assert.Equal(t, CategoryComposite, pu2.Category)
	assert.Equal(t, TimeMonth, pu2.TimeScale)
}

func TestParse_CurrencyWordBoundary(t *testing.T) {
	// "subscribers" must not match the SCR currency code substring.
	pu := Parse("subscribers")
	assert.NotEqual(t, "SCR", pu.Currency)
	assert.Equal(t, CategoryCount, pu.Category)
}

func TestParse_GenericRate(t *testing.T) {
	for _, s := range []string{"per 1000 people", "per capita", "/100"} {
		pu := Parse(s)
		assert.Equalf(t, CategoryRate, pu.Category, "input %q", s)
	}
}

func TestParse_Duration(t *testing.T) {
	pu := Parse("days")
	assert.Equal(t, CategoryTime, pu.Category)
}

func TestParse_Ratio(t *testing.T) {
	for _, s := range []string{"times", "ratio", "multiple", "coefficient"} {
		pu := Parse(s)
		assert.Equalf(t, CategoryRatio, pu.Category, "input %q", s)
	}
}

func TestParse_Physical(t *testing.T) {
	cases := map[string]Category{
		"GWh":     CategoryEnergy,
		"kWh":     CategoryEnergy,
		"barrel":  CategoryPhysical,
		"bbl":     CategoryPhysical,
		"celsius": CategoryTemperature,
		"km":      CategoryPhysical,
	}
	for s, want := range cases {
		pu := Parse(s)
		assert.Equalf(t, want, pu.Category, "input %q", s)
	}
}

func TestParse_MetricTonVsCountTonnes(t *testing.T) {
	mt := Parse("mt")
	assert.Equal(t, CategoryPhysical, mt.Category)

	tonnes := Parse("Tonnes")
	assert.Equal(t, CategoryCount, tonnes.Category)
}

func TestParse_CurrencyAmount(t *testing.T) {
	// A currency code with " per " is caught by the price-per-unit rule
	// first, so this one is a composite that still carries the amount's
	// currency, scale and period.
	pu := Parse("USD Million per month")
	require.Equal(t, CategoryComposite, pu.Category)
	assert.Equal(t, "USD", pu.Currency)
	assert.Equal(t, ScaleMillions, pu.Scale)
	assert.Equal(t, TimeMonth, pu.TimeScale)

	pu2 := Parse("national currency")
	assert.Equal(t, CategoryCurrency, pu2.Category)

	pu3 := Parse("Thousand Dollars")
	assert.Equal(t, CategoryCurrency, pu3.Category)
	assert.Equal(t, "USD", pu3.Currency)
	assert.Equal(t, ScaleThousands, pu3.Scale)
}

func TestParse_Count(t *testing.T) {
	for _, s := range []string{"Thousand", "persons", "number of households", "total arrivals"} {
		pu := Parse(s)
		assert.Equalf(t, CategoryCount, pu.Category, "input %q", s)
	}
}

func TestParse_Fallback(t *testing.T) {
	pu := Parse("zzqqnonsense")
	assert.Equal(t, CategoryUnknown, pu.Category)
}

func TestParse_Deterministic(t *testing.T) {
	inputs := []string{
		"USD Million per month", "EUR/barrel", "points", "per 1000 people",
		"%", "GWh", "Thousand", "national currency", "bps", "days",
		"ratio", "mt", "Tonnes", "km", "celsius", "Index (2015=100)",
		"USD/barrel", "subscribers", "persons", "number of households",
	}
	for _, s := range inputs {
		first := Parse(s)
		second := Parse(s)
		assert.Equalf(t, first, second, "Parse must be deterministic for %q", s)
	}
}

// TestParse_IdempotentNormalization verifies that, for a suite of real
// unit strings, re-parsing the normalized form preserves category.
func TestParse_IdempotentNormalization(t *testing.T) {
	suite := []string{
		"USD Million", "EUR Billion per year", "%", "percent", "points",
		"index", "GWh", "barrel", "km", "celsius", "days", "ratio",
		"Thousand", "persons", "national currency",
		"per capita", "per 1000 people", "mt", "Tonnes",
	}
	for _, s := range suite {
		first := Parse(s)
		again := Parse(first.Normalized)
		assert.Equalf(t, first.Category, again.Category, "idempotence failed for %q -> %q", s, first.Normalized)
	}
}

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/econindex/classifier/internal/config"
	"github.com/econindex/classifier/internal/models"
	"github.com/econindex/classifier/internal/unit"
)

func TestConvert_ExemptPassesValueThrough(t *testing.T) {
	dp := models.DataPoint{ID: "X", Name: "Exempt Indicator", Unit: "USD Million", Value: 42}

	out, err := Convert(dp, DomainExempt, unit.Parse(dp.Unit), models.TargetValues{}, models.FXTable{}, config.NEOptions{})

	require.NoError(t, err)
	assert.Equal(t, 42.0, out.Normalized)
	assert.True(t, out.Explain.Exempted)
}

func TestConvert_MonetaryFullChain(t *testing.T) {
	dp := models.DataPoint{
		ID: "GDP.X", Name: "Gross Domestic Product", Unit: "USD Billion",
		Value: 5, CurrencyCode: "USD", Scale: "billions", Periodicity: "quarter",
		IndicatorType: "flow",
	}
	fxTable := models.FXTable{Base: "USD", Rates: map[string]float64{"USD": 1, "EUR": 0.9}}
	tgt := models.TargetValues{Currency: "EUR", Magnitude: "millions", Time: "month"}

	out, err := Convert(dp, DomainMonetary, unit.Parse(dp.Unit), tgt, fxTable, config.NEOptions{})

	require.NoError(t, err)
	// 0.9 (fx) * 1000 (billions->millions) * (30.4375/91.25) (quarter->month)
	wantFactor := 0.9 * 1000 * (30.4375 / 91.25)
	assert.InDelta(t, 5*wantFactor, out.Normalized, 1e-6)
	require.NotNil(t, out.Explain.Currency)
	assert.Equal(t, "USD", out.Explain.Currency.Original)
	assert.Equal(t, "EUR", out.Explain.Currency.Normalized)
	require.NotNil(t, out.Explain.Magnitude)
	require.NotNil(t, out.Explain.Time)
	assert.NotEmpty(t, out.Explain.Conversion.Steps)
}

func TestConvert_PercentagesNeverRescale(t *testing.T) {
	dp := models.DataPoint{
		ID: "UNEMP.X", Name: "Unemployment Rate", Unit: "%", Value: 4.5,
		IndicatorType: "percentage",
	}
	tgt := models.TargetValues{Currency: "EUR", Magnitude: "millions", Time: "month"}

	out, err := Convert(dp, DomainPercentages, unit.Parse(dp.Unit), tgt, models.FXTable{}, config.NEOptions{})

	require.NoError(t, err)
	assert.Equal(t, 4.5, out.Normalized)
	assert.Nil(t, out.Explain.Currency)
	assert.Nil(t, out.Explain.Magnitude)
}

func TestConvert_CountsForceMagnitudeOnes(t *testing.T) {
	dp := models.DataPoint{
		ID: "UNEMP.PERSONS", Name: "Unemployed Persons", Unit: "thousand persons",
		Value: 120, Scale: "thousands", Periodicity: "month",
		IndicatorType: "count",
	}
	tgt := models.TargetValues{Magnitude: "millions", Time: "month"}

	out, err := Convert(dp, DomainCounts, unit.Parse(dp.Unit), tgt, models.FXTable{}, config.NEOptions{})

	require.NoError(t, err)
	// thousands -> ones is a factor of 1000, not the configured target millions
	assert.InDelta(t, 120_000, out.Normalized, 1e-6)
	require.NotNil(t, out.Explain.Magnitude)
	assert.Equal(t, "ones", out.Explain.Magnitude.Normalized)
}

func TestConvert_WagesFallBackWhenFXUnavailable(t *testing.T) {
	dp := models.DataPoint{
		ID: "WAGE.X", Name: "Average Monthly Wage", Unit: "XXX Thousand",
		Value: 3, CurrencyCode: "XXX", Scale: "thousands", Periodicity: "month",
		IndicatorType: "flow",
	}
	fxTable := models.FXTable{Base: "USD", Rates: map[string]float64{"USD": 1}}
	tgt := models.TargetValues{Currency: "USD", Magnitude: "ones", Time: "month"}

	out, err := Convert(dp, DomainWages, unit.Parse(dp.Unit), tgt, fxTable, config.NEOptions{})

	require.NoError(t, err)
	assert.Nil(t, out.Explain.Currency)
	require.NotNil(t, out.Explain.Magnitude)
	assert.Contains(t, out.Explain.Conversion.Summary, "currency conversion unavailable")
}

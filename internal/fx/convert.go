// Package fx computes conversion factors between currencies over a
// single-base rate table, returning a provenance-carrying result struct
// rather than a bare float, mirroring how this module's error types
// carry structured detail rather than a plain message.
package fx

import (
	"github.com/econindex/classifier/internal/errs"
	"github.com/econindex/classifier/internal/models"
)

// ConversionResult is the FX Converter's total output: the multiplicative
// factor such that value*factor yields value expressed in the target
// currency, plus provenance for the explain trace.
type ConversionResult struct {
	Factor     float64
	Provenance models.FXExplain
}

// Convert computes factor(from,to) over table:
//
//	toBase(cur)   = 1 / R[cur], with R[Base] = 1
//	factor(a,b)   = toBase(a) * R[b]
//
// It fails with errs.KindTableInvariant if table.Base has a rate that is
// not exactly 1, and with errs.KindMissingFXRate if from or to has no
// entry in table.Rates.
func Convert(fromCur, toCur string, table models.FXTable) (ConversionResult, error) {
	if baseRate, ok := table.Rates[table.Base]; ok && baseRate != 1 {
		return ConversionResult{}, errs.WrapTableInvariant("fx.convert", "base currency rate must equal 1")
	}

	fromRate, ok := table.Rates[fromCur]
	if !ok {
		if fromCur == table.Base {
			fromRate = 1
		} else {
			return ConversionResult{}, errs.WrapMissingFXRate("fx.convert", fromCur)
		}
	}
	toRate, ok := table.Rates[toCur]
	if !ok {
		if toCur == table.Base {
			toRate = 1
		} else {
			return ConversionResult{}, errs.WrapMissingFXRate("fx.convert", toCur)
		}
	}

	toBase := 1 / fromRate
	factor := toBase * toRate

	source := table.Source
	if source == "" {
		source = "fallback"
	}

	return ConversionResult{
		Factor: factor,
		Provenance: models.FXExplain{
			Rate:   factor,
			Source: source,
			AsOf:   table.Dates[fromCur],
		},
	}, nil
}

// Package rescale computes magnitude and time-period conversion factors
// over the unit package's recognized tiers.
package rescale

import (
	"github.com/econindex/classifier/internal/errs"
	"github.com/econindex/classifier/internal/unit"
)

// Result is the total output of a rescale operation: the converted value
// and the multiplicative factor applied.
type Result struct {
	Value  float64
	Factor float64
}

// magnitudeFactors gives each recognized Scale's multiplier in ones,
// exact powers of 1000 except hundreds = 100.
var magnitudeFactors = map[unit.Scale]float64{
	unit.ScaleOnes:      1,
	unit.ScaleHundreds:  100,
	unit.ScaleThousands: 1_000,
	unit.ScaleMillions:  1_000_000,
	unit.ScaleBillions:  1_000_000_000,
	unit.ScaleTrillions: 1_000_000_000_000,
}

// dayCountFactors gives each recognized TimeScale's length in days under
// a fixed day-count model, surfaced in explain.time.dayCountModel.
var dayCountFactors = map[unit.TimeScale]float64{
	unit.TimeYear:    365,
	unit.TimeQuarter: 91.25,
	unit.TimeMonth:   30.4375,
	unit.TimeWeek:    7,
	unit.TimeDay:     1,
	unit.TimeHour:    1.0 / 24,
}

// DayCountModel is the fixed day-count model's human-readable form,
// exposed verbatim in explain.time.dayCountModel.
const DayCountModel = "year=365,quarter=91.25,month=30.4375,week=7,day=1,hour=1/24"

// RescaleMagnitude converts v from one magnitude tier to another. It is
// total for recognized tiers and fails with errs.KindParse (UnknownTier)
// otherwise.
func RescaleMagnitude(v float64, from, to unit.Scale) (Result, error) {
	fromFactor, ok := magnitudeFactors[from]
	if !ok {
		return Result{}, unknownTier("rescale.magnitude", string(from))
	}
	toFactor, ok := magnitudeFactors[to]
	if !ok {
		return Result{}, unknownTier("rescale.magnitude", string(to))
	}
	factor := fromFactor / toFactor
	return Result{Value: v * factor, Factor: factor}, nil
}

// RescaleTime converts a value reported per `from` period into a value
// reported per `to` period, under the fixed day-count model. A value
// measured per a longer period converts to a shorter period by dividing
// (e.g. an annual flow rescaled to monthly is divided by ~12), i.e.
// factor = days(to) / days(from).
func RescaleTime(v float64, from, to unit.TimeScale) (Result, error) {
	fromDays, ok := dayCountFactors[from]
	if !ok {
		return Result{}, unknownTier("rescale.time", string(from))
	}
	toDays, ok := dayCountFactors[to]
	if !ok {
		return Result{}, unknownTier("rescale.time", string(to))
	}
	factor := toDays / fromDays
	return Result{Value: v * factor, Factor: factor}, nil
}

func unknownTier(step, tier string) error {
	return errs.Parse(step, "unrecognized tier: "+tier)
}

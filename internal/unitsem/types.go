// Package unitsem provides a coarser, 9-label semantic view over
// internal/unit's ParsedUnit, plus a compatibility predicate used by the
// quality gate's unit-type outlier detector to decide whether an item's
// unit agrees with its group's dominant unit type.
//
// Like internal/unit, classification is table-driven: Label is derived
// from ParsedUnit.Category through a single mapping table rather
// than a second parallel parser.
package unitsem

import "github.com/econindex/classifier/internal/unit"

// Label is the USC's 9-way semantic classification.
type Label string

const (
	LabelPercentage     Label = "percentage"
	LabelIndex          Label = "index"
	LabelCount          Label = "count"
	LabelCurrencyAmount Label = "currency-amount"
	LabelPhysical       Label = "physical"
	LabelRate           Label = "rate"
	LabelRatio          Label = "ratio"
	LabelDuration       Label = "duration"
	LabelUnknown        Label = "unknown"
)

// Classification is the USC's output: the coarse label, a confidence
// carried through from the underlying ParsedUnit, and the matched rule
// name for diagnostics.
type Classification struct {
	Label       Label   `json:"label"`
	Confidence  float64 `json:"confidence"`
	MatchedRule string  `json:"matchedRule"`
}

// categoryTable maps every internal/unit.Category onto its USC label.
// Energy, temperature, and plain physical categories all collapse to
// LabelPhysical; composite (price-per-unit) collapses to LabelRate,
// since a composite is, semantically, a rate of currency over something
// else.
var categoryTable = map[unit.Category]Label{
	unit.CategoryPercentage:  LabelPercentage,
	unit.CategoryIndex:       LabelIndex,
	unit.CategoryCount:       LabelCount,
	unit.CategoryPopulation:  LabelCount,
	unit.CategoryCurrency:    LabelCurrencyAmount,
	unit.CategoryComposite:   LabelRate,
	unit.CategoryPhysical:    LabelPhysical,
	unit.CategoryEnergy:      LabelPhysical,
	unit.CategoryTemperature: LabelPhysical,
	unit.CategoryRate:        LabelRate,
	unit.CategoryRatio:       LabelRatio,
	unit.CategoryTime:        LabelDuration,
	unit.CategoryUnknown:     LabelUnknown,
}

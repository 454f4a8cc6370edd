package unitsem

import "github.com/econindex/classifier/internal/unit"

// Classify maps a free-form unit label to its Label by running it
// through internal/unit.Parse and collapsing the resulting Category.
func Classify(s string) Classification {
	pu := unit.Parse(s)
	return FromParsedUnit(pu)
}

// FromParsedUnit derives a Classification from an already-parsed unit,
// avoiding a redundant Parse call when the caller already has one.
func FromParsedUnit(pu unit.ParsedUnit) Classification {
	label, ok := categoryTable[pu.Category]
	if !ok {
		label = LabelUnknown
	}
	return Classification{
		Label:       label,
		Confidence:  pu.Confidence,
		MatchedRule: pu.MatchedRule,
	}
}

// Compatible reports whether two USC labels can be reconciled onto a
// common set of target dimensions: true iff the labels are identical and
// neither is unknown. unknown is never compatible with
// anything, including itself, since an unrecognized unit carries no
// semantic guarantee.
func Compatible(a, b Label) bool {
	if a == LabelUnknown || b == LabelUnknown {
		return false
	}
	return a == b
}

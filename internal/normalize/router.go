package normalize

import (
	"strings"

	"github.com/econindex/classifier/internal/config"
	"github.com/econindex/classifier/internal/models"
	"github.com/econindex/classifier/internal/unit"
)

// domain-specific vocabularies. These exist nowhere upstream: unlike
// unit.Parse's token tables, which classify a unit string's physical
// shape, these classify an indicator's subject matter, so the router
// carries its own. Matching is substring, case-insensitive, against
// both the indicator name and its raw unit label.
var (
	emissionsTokens   = []string{"co2", "co2e", "ghg", "greenhouse gas", "emissions", "carbon"}
	energyTokens      = []string{"electricity", "power generation", "energy consumption", "gwh", "twh", "mwh", "kwh", "mmbtu"}
	commodityTokens   = []string{"crude oil", "crude", "wti", "brent", "natural gas", "barrel", "bbl", "commodity index", "commodities"}
	agricultureTokens = []string{"wheat", "corn", "soybean", "coffee", "sugar", "cotton", "livestock", "cattle", "hog", "crop"}
	metalsTokens      = []string{"gold", "silver", "copper", "aluminum", "aluminium", "steel", "iron ore", "zinc", "nickel", "platinum"}
	cryptoTokens      = []string{"bitcoin", "btc", "ethereum", "eth", "crypto", "blockchain", "stablecoin", "token supply"}
	wageTokens        = []string{"wage", "salary", "earnings", "compensation", "payroll"}
)

// RouteDomain assigns a DataPoint to exactly one Domain, consulting, in
// order: exemptions, emissions, energy, commodities, agriculture,
// metals, crypto, index, ratios, counts, percentages, wages, and
// finally monetary as the catch-all. It returns the ParsedUnit computed
// along the way so callers don't have to re-parse the unit string.
func RouteDomain(dp models.DataPoint, opts config.NEOptions) (Domain, unit.ParsedUnit) {
	pu := unit.Parse(dp.Unit)

	if isExempt(dp, opts.Exemptions) {
		return DomainExempt, pu
	}
	haystack := strings.ToLower(dp.Name + " " + dp.Unit)
	if containsAny(haystack, emissionsTokens) {
		return DomainEmissions, pu
	}
	if containsAny(haystack, energyTokens) {
		return DomainEnergy, pu
	}
	if containsAny(haystack, commodityTokens) {
		return DomainCommodities, pu
	}
	if containsAny(haystack, agricultureTokens) {
		return DomainAgriculture, pu
	}
	if containsAny(haystack, metalsTokens) {
		return DomainMetals, pu
	}
	if containsAny(haystack, cryptoTokens) {
		return DomainCrypto, pu
	}
	if pu.Category == unit.CategoryIndex {
		return DomainIndex, pu
	}
	if pu.IsComposite && pu.TimeScale == "" {
		return DomainRatios, pu
	}
	if pu.Category == unit.CategoryCount || pu.Category == unit.CategoryPopulation {
		return DomainCounts, pu
	}
	if pu.Category == unit.CategoryPercentage {
		return DomainPercentages, pu
	}
	if containsAny(haystack, wageTokens) {
		return DomainWages, pu
	}
	return DomainMonetary, pu
}

func isExempt(dp models.DataPoint, ex config.Exemptions) bool {
	for _, id := range ex.IndicatorIDs {
		if id == dp.ID {
			return true
		}
	}
	if group, ok := dp.Metadata["categoryGroup"].(string); ok {
		for _, g := range ex.CategoryGroups {
			if strings.EqualFold(g, group) {
				return true
			}
		}
	}
	lowerName := strings.ToLower(dp.Name)
	for _, n := range ex.IndicatorNames {
		if n != "" && strings.Contains(lowerName, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func containsAny(haystack string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(haystack, tok) {
			return true
		}
	}
	return false
}

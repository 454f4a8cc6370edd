// Package normalize implements the Normalization Engine: a domain router
// that assigns each item to one of thirteen processing domains, a
// per-domain pipeline that applies that domain's conversion policy, and
// a group-level orchestration layer that runs the Auto-Target Selector
// and Quality Gate before per-item conversion. The stage-pipeline shape
// (ordered router, per-stage processing, structured attribution result)
// is grounded on
// _examples/sawpanic-cryptorun/internal/scan/pipeline/momentum_pipeline.go.
package normalize

// Domain is one of the Normalization Engine's thirteen routing outcomes.
type Domain string

const (
	DomainExempt      Domain = "exempt"
	DomainEmissions   Domain = "emissions"
	DomainEnergy      Domain = "energy"
	DomainCommodities Domain = "commodities"
	DomainAgriculture Domain = "agriculture"
	DomainMetals      Domain = "metals"
	DomainCrypto      Domain = "crypto"
	DomainIndex       Domain = "index"
	DomainRatios      Domain = "ratios"
	DomainCounts      Domain = "counts"
	DomainPercentages Domain = "percentages"
	DomainWages       Domain = "wages"
	DomainMonetary    Domain = "monetary"
)

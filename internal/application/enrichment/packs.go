package enrichment

import (
	"fmt"

	"github.com/reubenai/dealsense/internal/domain/deal"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Pack kinds and typed payloads
// ─────────────────────────────────────────────────────────────────────────────

// Kind discriminates what a pack's extracted payload contains.
type Kind string

const (
	KindMarket      Kind = "market"
	KindFinancial   Kind = "financial"
	KindCompetitive Kind = "competitive"

	// KindGeneral carries raw research text with no structured extraction.
	KindGeneral Kind = "general"
)

// Payload is the tagged union of per-kind extraction results.  Exactly one
// of the typed fields is set, selected by Kind; RawText always carries the
// provider's full answer so nothing is lost to a weak pattern.
type Payload struct {
	Kind        Kind              `json:"kind"`
	Market      *MarketMetrics    `json:"market,omitempty"`
	Financial   *FinancialMetrics `json:"financial,omitempty"`
	Competitive *CompetitiveData  `json:"competitive,omitempty"`
	RawText     string            `json:"raw_text"`

	// Note explains degraded payloads; empty on healthy runs.
	Note string `json:"note,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Pack definitions
// ─────────────────────────────────────────────────────────────────────────────

// Pack is one named bundle of external research covering one evaluation
// category.
type Pack struct {
	// Name is the stable pack identifier, e.g. "vc_market_opportunity".
	Name string

	// Category names the criteria category this pack feeds.
	Category string

	// Kind selects the extractor applied to provider output.
	Kind Kind

	// FundTypes limits which fund types run this pack; empty means all.
	FundTypes []common.FundType

	// PromptTemplate builds the research question; %s receives company
	// name, industry and geography context.
	promptTemplate string
}

// Prompt renders the pack's research question for a deal.
func (p Pack) Prompt(d *deal.Deal) string {
	ctx := d.CompanyName
	if d.Industry != "" {
		ctx += " (" + d.Industry + ")"
	}
	if d.Geography != "" {
		ctx += " in " + d.Geography
	}
	return fmt.Sprintf(p.promptTemplate, ctx)
}

// AppliesTo reports whether the pack runs for the given fund type.
func (p Pack) AppliesTo(ft common.FundType) bool {
	if len(p.FundTypes) == 0 {
		return true
	}
	for _, t := range p.FundTypes {
		if t == ft {
			return true
		}
	}
	return false
}

// systemPrompt frames every LLM research call.
const systemPrompt = "You are an investment analyst researching companies for due diligence. " +
	"Answer with concrete figures and cite sources where possible."

// registry is the platform's fixed pack catalogue, keyed by name.
var registry = map[string]Pack{
	"vc_team_leadership": {
		Name:     "vc_team_leadership",
		Category: "Team & Leadership",
		Kind:     KindGeneral,
		FundTypes: []common.FundType{common.FundTypeVC},
		promptTemplate: "Research the founding team and leadership of %s: founder backgrounds, " +
			"prior startups and exits, key executive hires, and notable advisors or board members.",
	},
	"vc_market_opportunity": {
		Name:     "vc_market_opportunity",
		Category: "Market Opportunity",
		Kind:     KindMarket,
		promptTemplate: "Research the market for %s: total addressable market (TAM) in dollars, " +
			"serviceable addressable market (SAM), market growth rate or CAGR, and market timing factors.",
	},
	"vc_product_technology": {
		Name:     "vc_product_technology",
		Category: "Product & Technology",
		Kind:     KindGeneral,
		FundTypes: []common.FundType{common.FundTypeVC},
		promptTemplate: "Research the product and technology of %s: differentiation versus incumbents, " +
			"patents or defensible IP, product maturity, and architecture scalability.",
	},
	"vc_business_traction": {
		Name:     "vc_business_traction",
		Category: "Business Traction",
		Kind:     KindFinancial,
		FundTypes: []common.FundType{common.FundTypeVC},
		promptTemplate: "Research the commercial traction of %s: revenue or ARR figures, growth rate, " +
			"funding raised to date, notable customers and partnerships.",
	},
	"vc_financial_health": {
		Name:     "vc_financial_health",
		Category: "Financial Health",
		Kind:     KindFinancial,
		FundTypes: []common.FundType{common.FundTypeVC},
		promptTemplate: "Research the financial position of %s: total funding raised, latest valuation, " +
			"burn rate, runway, and capital efficiency.",
	},
	"competitive_landscape": {
		Name:     "competitive_landscape",
		Category: "Market Position",
		Kind:     KindCompetitive,
		promptTemplate: "Research the competitive landscape for %s: main competitors, the company's " +
			"market position, and its key differentiators.",
	},
	"pe_financial_performance": {
		Name:      "pe_financial_performance",
		Category:  "Financial Performance",
		Kind:      KindFinancial,
		FundTypes: []common.FundType{common.FundTypePE},
		promptTemplate: "Research the financial performance of %s: revenue, EBITDA margins, " +
			"revenue stability and recurrence, and cash conversion.",
	},
	"pe_operations_management": {
		Name:      "pe_operations_management",
		Category:  "Operational Excellence",
		Kind:      KindGeneral,
		FundTypes: []common.FundType{common.FundTypePE},
		promptTemplate: "Research the operations and management of %s: operational maturity, " +
			"cost structure, leadership track record and management depth.",
	},
}

// PackByName looks up one pack definition.
func PackByName(name string) (Pack, bool) {
	p, ok := registry[name]
	return p, ok
}

// PacksFor returns the packs applicable to a fund type, or the named subset
// when names is non-empty.  Unknown names are skipped; the caller reports
// them per-pack rather than failing the request.
func PacksFor(ft common.FundType, names []string) []Pack {
	var out []Pack
	if len(names) > 0 {
		for _, n := range names {
			if p, ok := registry[n]; ok && p.AppliesTo(ft) {
				out = append(out, p)
			}
		}
		return out
	}
	// Stable order for deterministic batching.
	for _, n := range PackNames() {
		p := registry[n]
		if p.AppliesTo(ft) {
			out = append(out, p)
		}
	}
	return out
}

// PackNames lists every registered pack name in stable order.
func PackNames() []string {
	return []string{
		"vc_team_leadership",
		"vc_market_opportunity",
		"vc_product_technology",
		"vc_business_traction",
		"vc_financial_health",
		"competitive_landscape",
		"pe_financial_performance",
		"pe_operations_management",
	}
}

package criteria

import "github.com/reubenai/dealsense/pkg/types/common"

// ─────────────────────────────────────────────────────────────────────────────
// Default templates
// ─────────────────────────────────────────────────────────────────────────────

// DefaultTemplate returns a fresh copy of the default criteria template for
// the given fund type.  Callers receive an independent value they may mutate
// freely; the canonical defaults are never shared.
func DefaultTemplate(fundType common.FundType) (*CriteriaTemplate, bool) {
	switch fundType {
	case common.FundTypeVC:
		t := defaultVCTemplate()
		return &t, true
	case common.FundTypePE:
		t := defaultPETemplate()
		return &t, true
	}
	return nil, false
}

func defaultVCTemplate() CriteriaTemplate {
	return CriteriaTemplate{
		Name:        "VC Default",
		FundType:    common.FundTypeVC,
		TotalWeight: 100,
		Categories: []Category{
			{
				Name:    "Team & Leadership",
				Weight:  20,
				Enabled: true,
				Subcategories: []Subcategory{
					{
						Name:    "Founder Experience",
						Weight:  40,
						Enabled: true,
						Requirements: "Prior startup or deep domain experience in the target market.",
						PositiveSignals: []string{
							"Repeat founder with prior exit",
							"10+ years domain expertise",
						},
						NegativeSignals: []string{
							"First-time founder outside domain",
							"Frequent co-founder turnover",
						},
						AISearchKeywords: []string{"founder background", "previous startups", "exits"},
					},
					{
						Name:    "Team Completeness",
						Weight:  35,
						Enabled: true,
						Requirements: "Core technical and commercial roles filled.",
						PositiveSignals: []string{"Full-time technical co-founder", "Experienced commercial lead"},
						AISearchKeywords: []string{"leadership team", "key hires"},
					},
					{
						Name:             "Advisory & Board",
						Weight:           25,
						Enabled:          true,
						AISearchKeywords: []string{"advisors", "board members"},
					},
				},
			},
			{
				Name:    "Market Opportunity",
				Weight:  25,
				Enabled: true,
				Subcategories: []Subcategory{
					{
						Name:    "Market Size (TAM)",
						Weight:  40,
						Enabled: true,
						Requirements: "Credible bottoms-up TAM above $1B.",
						PositiveSignals: []string{"TAM above $10B", "Independent market research support"},
						NegativeSignals: []string{"Top-down TAM only", "Niche market below $500M"},
						AISearchKeywords: []string{"total addressable market", "market size", "TAM SAM SOM"},
					},
					{
						Name:    "Market Growth Rate",
						Weight:  35,
						Enabled: true,
						PositiveSignals:  []string{"CAGR above 15%"},
						NegativeSignals:  []string{"Flat or declining market"},
						AISearchKeywords: []string{"market growth rate", "CAGR", "industry forecast"},
					},
					{
						Name:             "Market Timing",
						Weight:           25,
						Enabled:          true,
						AISearchKeywords: []string{"market trends", "regulatory tailwinds"},
					},
				},
			},
			{
				Name:    "Product & Technology",
				Weight:  20,
				Enabled: true,
				Subcategories: []Subcategory{
					{
						Name:    "Product Differentiation",
						Weight:  40,
						Enabled: true,
						PositiveSignals:  []string{"Defensible IP or data moat", "10x improvement over incumbents"},
						AISearchKeywords: []string{"product differentiation", "competitive moat", "patents"},
					},
					{
						Name:             "Technology Readiness",
						Weight:           35,
						Enabled:          true,
						AISearchKeywords: []string{"product launch", "general availability"},
					},
					{
						Name:             "Scalability",
						Weight:           25,
						Enabled:          true,
						AISearchKeywords: []string{"architecture scalability", "unit economics at scale"},
					},
				},
			},
			{
				Name:    "Business Traction",
				Weight:  20,
				Enabled: true,
				Subcategories: []Subcategory{
					{
						Name:    "Revenue Growth",
						Weight:  40,
						Enabled: true,
						PositiveSignals:  []string{"Triple-digit YoY growth", "Expanding net revenue retention"},
						AISearchKeywords: []string{"revenue growth", "ARR", "annual recurring revenue"},
					},
					{
						Name:             "Customer Validation",
						Weight:           35,
						Enabled:          true,
						AISearchKeywords: []string{"customer references", "case studies", "churn"},
					},
					{
						Name:             "Pipeline & Partnerships",
						Weight:           25,
						Enabled:          true,
						AISearchKeywords: []string{"strategic partnerships", "sales pipeline"},
					},
				},
			},
			{
				Name:    "Financial Health",
				Weight:  15,
				Enabled: true,
				Subcategories: []Subcategory{
					{
						Name:    "Burn & Runway",
						Weight:  50,
						Enabled: true,
						NegativeSignals:  []string{"Runway under 9 months", "Burn multiple above 3x"},
						AISearchKeywords: []string{"burn rate", "runway", "funding raised"},
					},
					{
						Name:             "Capital Efficiency",
						Weight:           50,
						Enabled:          true,
						AISearchKeywords: []string{"capital efficiency", "CAC payback"},
					},
				},
			},
		},
		TargetParameters: []TargetParameter{
			{Name: "Enterprise Software", Type: ParameterSector, Weight: 40, Enabled: true},
			{Name: "Fintech", Type: ParameterSector, Weight: 35, Enabled: true},
			{Name: "Healthcare Technology", Type: ParameterSector, Weight: 25, Enabled: true},
			{Name: "Seed", Type: ParameterStage, Weight: 30, Enabled: true},
			{Name: "Series A", Type: ParameterStage, Weight: 45, Enabled: true},
			{Name: "Series B", Type: ParameterStage, Weight: 25, Enabled: true},
			{Name: "North America", Type: ParameterGeography, Weight: 60, Enabled: true},
			{Name: "Europe", Type: ParameterGeography, Weight: 40, Enabled: true},
		},
	}
}

func defaultPETemplate() CriteriaTemplate {
	return CriteriaTemplate{
		Name:        "PE Default",
		FundType:    common.FundTypePE,
		TotalWeight: 100,
		Categories: []Category{
			{
				Name:    "Financial Performance",
				Weight:  30,
				Enabled: true,
				Subcategories: []Subcategory{
					{
						Name:    "EBITDA Quality",
						Weight:  40,
						Enabled: true,
						PositiveSignals:  []string{"Consistent EBITDA margins above 20%", "Low customer concentration"},
						AISearchKeywords: []string{"EBITDA margin", "profitability"},
					},
					{
						Name:             "Revenue Stability",
						Weight:           35,
						Enabled:          true,
						AISearchKeywords: []string{"recurring revenue", "contract length"},
					},
					{
						Name:             "Cash Conversion",
						Weight:           25,
						Enabled:          true,
						AISearchKeywords: []string{"free cash flow", "working capital"},
					},
				},
			},
			{
				Name:    "Market Position",
				Weight:  25,
				Enabled: true,
				Subcategories: []Subcategory{
					{
						Name:    "Competitive Position",
						Weight:  50,
						Enabled: true,
						PositiveSignals:  []string{"Top-three market share", "High switching costs"},
						AISearchKeywords: []string{"market share", "competitive landscape"},
					},
					{
						Name:             "Market Growth Rate",
						Weight:           50,
						Enabled:          true,
						AISearchKeywords: []string{"market growth rate", "industry outlook"},
					},
				},
			},
			{
				Name:    "Operational Excellence",
				Weight:  20,
				Enabled: true,
				Subcategories: []Subcategory{
					{
						Name:             "Margin Improvement Levers",
						Weight:           50,
						Enabled:          true,
						AISearchKeywords: []string{"operational efficiency", "cost structure"},
					},
					{
						Name:             "Systems & Processes",
						Weight:           50,
						Enabled:          true,
						AISearchKeywords: []string{"ERP", "operational maturity"},
					},
				},
			},
			{
				Name:    "Management Quality",
				Weight:  15,
				Enabled: true,
				Subcategories: []Subcategory{
					{
						Name:             "Leadership Track Record",
						Weight:           60,
						Enabled:          true,
						AISearchKeywords: []string{"CEO track record", "management team"},
					},
					{
						Name:             "Succession Depth",
						Weight:           40,
						Enabled:          true,
						AISearchKeywords: []string{"management bench", "succession planning"},
					},
				},
			},
			{
				Name:    "Growth Potential",
				Weight:  10,
				Enabled: true,
				Subcategories: []Subcategory{
					{
						Name:             "Organic Growth Runway",
						Weight:           50,
						Enabled:          true,
						AISearchKeywords: []string{"expansion opportunities", "new markets"},
					},
					{
						Name:             "Buy-and-Build Pipeline",
						Weight:           50,
						Enabled:          true,
						AISearchKeywords: []string{"acquisition targets", "industry consolidation"},
					},
				},
			},
		},
		TargetParameters: []TargetParameter{
			{Name: "Business Services", Type: ParameterSector, Weight: 40, Enabled: true},
			{Name: "Industrial Technology", Type: ParameterSector, Weight: 35, Enabled: true},
			{Name: "Consumer Products", Type: ParameterSector, Weight: 25, Enabled: true},
			{Name: "Buyout", Type: ParameterStage, Weight: 60, Enabled: true},
			{Name: "Growth Equity", Type: ParameterStage, Weight: 40, Enabled: true},
			{Name: "North America", Type: ParameterGeography, Weight: 50, Enabled: true},
			{Name: "Europe", Type: ParameterGeography, Weight: 50, Enabled: true},
		},
	}
}

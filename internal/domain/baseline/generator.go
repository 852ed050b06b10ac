package baseline

import (
	"fmt"

	"github.com/reubenai/dealsense/internal/domain/criteria"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Inputs and outputs
// ─────────────────────────────────────────────────────────────────────────────

// Inputs carries the optional company context that boosts the confidence of
// a baseline analysis.  More supplied evidence means higher confidence; the
// boost is purely quantity-based.
type Inputs struct {
	// Description is free-text company description or website copy.
	Description string

	// HasFinancials reports whether structured financial data (revenue,
	// burn, margins) was supplied for the deal.
	HasFinancials bool
}

// Analysis is the heuristic evidence produced for one criterion.
type Analysis struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`

	// EnhancementHints suggest what real data would sharpen the score.
	EnhancementHints []string `json:"enhancement_hints,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
}

// Evidence converts the analysis into scorer evidence.
func (a Analysis) Evidence() criteria.Evidence {
	return criteria.Evidence{
		Score:      a.Score,
		Confidence: a.Confidence,
		Reasoning:  a.Reasoning,
		Warnings:   a.Warnings,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Generator
// ─────────────────────────────────────────────────────────────────────────────

// Scoring constants.  The cutoffs below are the platform's fixed heuristic
// thresholds; downstream banding depends on them staying put.
const (
	neutralScore = 50.0

	baseConfidence    = 60.0
	descriptionBoost  = 15.0
	financialsBoost   = 20.0
	maxConfidence     = 95.0
	genericConfidence = 50.0

	tamLargeCutoff  = 1000.0 // billions USD
	tamMediumCutoff = 100.0

	growthHighCutoff     = 15.0 // percent
	growthModerateCutoff = 8.0
)

// Generator produces baseline analyses from an immutable industry table.
// Safe for concurrent use.
type Generator struct {
	baselines map[string]IndustryBaseline
}

// NewGenerator builds a Generator over the given table; nil uses the
// built-in defaults.
func NewGenerator(baselines map[string]IndustryBaseline) *Generator {
	if baselines == nil {
		baselines = DefaultBaselines()
	}
	return &Generator{baselines: baselines}
}

// Analyze produces a heuristic (score, confidence, reasoning, warnings)
// tuple for the given canonical industry and criterion name.
//
// When the industry has no baseline record a fixed generic analysis is
// returned: neutral score, confidence 50, three enhancement hints and one
// warning.  Criterion names with no explicit heuristic branch fall through
// to the neutral score with no reasoning; most criteria need real document
// or enrichment data rather than a sector heuristic.
func (g *Generator) Analyze(industry, criterion string, fundType common.FundType, in Inputs) Analysis {
	b, ok := g.baselines[industry]
	if !ok {
		return genericAnalysis()
	}

	a := g.analyzeCriterion(&b, criterion, fundType)
	a.Confidence = confidenceFor(in)
	return a
}

func genericAnalysis() Analysis {
	return Analysis{
		Score:      neutralScore,
		Confidence: genericConfidence,
		Reasoning:  "No industry baseline available; using a neutral starting point.",
		EnhancementHints: []string{
			"Add a company description or website to improve confidence",
			"Upload financial statements for data-driven scoring",
			"Run AI enrichment to gather market research",
		},
		Warnings: []string{"Industry not recognised; score is a placeholder"},
	}
}

// confidenceFor derives confidence from how much evidence was supplied:
// base 60, +15 for any free-text description, +20 for structured financials,
// clamped to 95.
func confidenceFor(in Inputs) float64 {
	c := baseConfidence
	if in.Description != "" {
		c += descriptionBoost
	}
	if in.HasFinancials {
		c += financialsBoost
	}
	if c > maxConfidence {
		c = maxConfidence
	}
	return c
}

func (g *Generator) analyzeCriterion(b *IndustryBaseline, criterion string, fundType common.FundType) Analysis {
	switch criterion {
	case "Market Size (TAM)":
		return analyzeTAM(b)
	case "Market Growth Rate":
		return analyzeGrowth(b)
	case "Competitive Position":
		return analyzeCompetition(b)
	case "EBITDA Quality", "Capital Efficiency":
		return analyzeMargins(b, fundType)
	case "Burn & Runway":
		return analyzeCapitalIntensity(b)
	}

	// No heuristic branch for this criterion.
	return Analysis{Score: neutralScore}
}

func analyzeTAM(b *IndustryBaseline) Analysis {
	switch {
	case b.TAMBillions > tamLargeCutoff:
		return Analysis{
			Score: 75,
			Reasoning: fmt.Sprintf(
				"%s is a large market with an estimated TAM of $%.0fB.", b.Industry, b.TAMBillions),
		}
	case b.TAMBillions > tamMediumCutoff:
		return Analysis{
			Score: 65,
			Reasoning: fmt.Sprintf(
				"%s has a substantial TAM of roughly $%.0fB.", b.Industry, b.TAMBillions),
		}
	default:
		return Analysis{
			Score: 45,
			Reasoning: fmt.Sprintf(
				"%s has a limited TAM of about $%.0fB.", b.Industry, b.TAMBillions),
			Warnings: []string{"Sector TAM is below $100B; verify the addressable segment"},
		}
	}
}

func analyzeGrowth(b *IndustryBaseline) Analysis {
	switch {
	case b.GrowthRatePct > growthHighCutoff:
		return Analysis{
			Score: 80,
			Reasoning: fmt.Sprintf(
				"%s is growing fast at roughly %.0f%% annually.", b.Industry, b.GrowthRatePct),
		}
	case b.GrowthRatePct > growthModerateCutoff:
		return Analysis{
			Score: 65,
			Reasoning: fmt.Sprintf(
				"%s shows moderate growth of about %.0f%% annually.", b.Industry, b.GrowthRatePct),
		}
	default:
		return Analysis{
			Score: 45,
			Reasoning: fmt.Sprintf(
				"%s growth is slow at around %.0f%% annually.", b.Industry, b.GrowthRatePct),
			Warnings: []string{"Sector growth is below 8%; company must outgrow its market"},
		}
	}
}

func analyzeCompetition(b *IndustryBaseline) Analysis {
	switch b.CompetitiveIntensity {
	case "low":
		return Analysis{
			Score:     70,
			Reasoning: fmt.Sprintf("%s has low competitive intensity.", b.Industry),
		}
	case "moderate":
		return Analysis{
			Score:     60,
			Reasoning: fmt.Sprintf("%s has moderate competitive intensity.", b.Industry),
		}
	default:
		return Analysis{
			Score:     45,
			Reasoning: fmt.Sprintf("%s is highly competitive.", b.Industry),
			Warnings:  []string{"Crowded sector; differentiation evidence is essential"},
		}
	}
}

func analyzeMargins(b *IndustryBaseline, fundType common.FundType) Analysis {
	// PE funds weight margin quality harder than VC funds.
	highCutoff := 60.0
	if fundType == common.FundTypePE {
		highCutoff = 50.0
	}
	switch {
	case b.GrossMarginPct >= highCutoff:
		return Analysis{
			Score: 70,
			Reasoning: fmt.Sprintf(
				"%s typically supports gross margins around %.0f%%.", b.Industry, b.GrossMarginPct),
		}
	case b.GrossMarginPct >= 35:
		return Analysis{
			Score: 55,
			Reasoning: fmt.Sprintf(
				"%s gross margins average about %.0f%%.", b.Industry, b.GrossMarginPct),
		}
	default:
		return Analysis{
			Score: 45,
			Reasoning: fmt.Sprintf(
				"%s is a thin-margin sector (~%.0f%% gross).", b.Industry, b.GrossMarginPct),
			Warnings: []string{"Low sector margins; unit economics need close scrutiny"},
		}
	}
}

func analyzeCapitalIntensity(b *IndustryBaseline) Analysis {
	switch b.CapitalIntensity {
	case "low":
		return Analysis{
			Score:     70,
			Reasoning: fmt.Sprintf("%s companies scale with modest capital needs.", b.Industry),
		}
	case "moderate":
		return Analysis{
			Score:     55,
			Reasoning: fmt.Sprintf("%s requires moderate capital to scale.", b.Industry),
		}
	default:
		return Analysis{
			Score:     45,
			Reasoning: fmt.Sprintf("%s is capital intensive.", b.Industry),
			Warnings:  []string{"High capital intensity; runway assumptions need stress-testing"},
		}
	}
}

package baseline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reubenai/dealsense/pkg/types/common"
)

// Unknown industries get the fixed generic analysis: neutral score,
// confidence 50, three enhancement hints, one warning.
func TestAnalyze_GenericFallback(t *testing.T) {
	g := NewGenerator(nil)

	a := g.Analyze("NonexistentIndustry", "Any Criterion", common.FundTypeVC, Inputs{})

	assert.Equal(t, 50.0, a.Score)
	assert.Equal(t, 50.0, a.Confidence)
	assert.Len(t, a.EnhancementHints, 3)
	assert.Len(t, a.Warnings, 1)
	assert.NotEmpty(t, a.Reasoning)
}

func TestAnalyze_TAMThresholds(t *testing.T) {
	g := NewGenerator(map[string]IndustryBaseline{
		"Huge":   {Industry: "Huge", TAMBillions: 1500},
		"Medium": {Industry: "Medium", TAMBillions: 400},
		"Small":  {Industry: "Small", TAMBillions: 50},
	})

	tests := []struct {
		industry     string
		wantScore    float64
		wantWarnings int
	}{
		{"Huge", 75, 0},
		{"Medium", 65, 0},
		{"Small", 45, 1},
	}
	for _, tt := range tests {
		a := g.Analyze(tt.industry, "Market Size (TAM)", common.FundTypeVC, Inputs{})
		assert.Equal(t, tt.wantScore, a.Score, tt.industry)
		assert.Len(t, a.Warnings, tt.wantWarnings, tt.industry)
		assert.NotEmpty(t, a.Reasoning, tt.industry)
	}
}

func TestAnalyze_GrowthThresholds(t *testing.T) {
	g := NewGenerator(map[string]IndustryBaseline{
		"Fast": {Industry: "Fast", GrowthRatePct: 20},
		"Mid":  {Industry: "Mid", GrowthRatePct: 10},
		"Slow": {Industry: "Slow", GrowthRatePct: 3},
	})

	assert.Equal(t, 80.0, g.Analyze("Fast", "Market Growth Rate", common.FundTypeVC, Inputs{}).Score)
	assert.Equal(t, 65.0, g.Analyze("Mid", "Market Growth Rate", common.FundTypeVC, Inputs{}).Score)

	slow := g.Analyze("Slow", "Market Growth Rate", common.FundTypeVC, Inputs{})
	assert.Equal(t, 45.0, slow.Score)
	assert.Len(t, slow.Warnings, 1)
}

func TestAnalyze_CompetitivePosition(t *testing.T) {
	g := NewGenerator(map[string]IndustryBaseline{
		"Calm":    {Industry: "Calm", CompetitiveIntensity: "low"},
		"Crowded": {Industry: "Crowded", CompetitiveIntensity: "high"},
	})

	assert.Equal(t, 70.0, g.Analyze("Calm", "Competitive Position", common.FundTypeVC, Inputs{}).Score)

	crowded := g.Analyze("Crowded", "Competitive Position", common.FundTypeVC, Inputs{})
	assert.Equal(t, 45.0, crowded.Score)
	assert.NotEmpty(t, crowded.Warnings)
}

// Criteria without an explicit heuristic branch fall through to the neutral
// score with no reasoning.
func TestAnalyze_UncoveredCriterionFallsThrough(t *testing.T) {
	g := NewGenerator(nil)

	a := g.Analyze("Financial Services", "Advisory & Board", common.FundTypeVC, Inputs{})
	assert.Equal(t, 50.0, a.Score)
	assert.Empty(t, a.Reasoning)
	assert.Empty(t, a.Warnings)
}

func TestAnalyze_ConfidenceBoosts(t *testing.T) {
	g := NewGenerator(nil)
	const industry = "Financial Services"
	const criterion = "Market Size (TAM)"

	bare := g.Analyze(industry, criterion, common.FundTypeVC, Inputs{})
	assert.Equal(t, 60.0, bare.Confidence)

	described := g.Analyze(industry, criterion, common.FundTypeVC, Inputs{Description: "A payments company."})
	assert.Equal(t, 75.0, described.Confidence)

	full := g.Analyze(industry, criterion, common.FundTypeVC, Inputs{
		Description:   "A payments company.",
		HasFinancials: true,
	})
	assert.Equal(t, 95.0, full.Confidence, "60+15+20 clamps to the 95 ceiling")

	financialsOnly := g.Analyze(industry, criterion, common.FundTypeVC, Inputs{HasFinancials: true})
	assert.Equal(t, 80.0, financialsOnly.Confidence)
}

func TestAnalyze_PEMarginCutoff(t *testing.T) {
	g := NewGenerator(map[string]IndustryBaseline{
		"Sector": {Industry: "Sector", GrossMarginPct: 55},
	})

	// 55% gross margin clears the PE cutoff (50) but not the VC cutoff (60).
	assert.Equal(t, 70.0, g.Analyze("Sector", "EBITDA Quality", common.FundTypePE, Inputs{}).Score)
	assert.Equal(t, 55.0, g.Analyze("Sector", "EBITDA Quality", common.FundTypeVC, Inputs{}).Score)
}

func TestAnalysis_Evidence(t *testing.T) {
	a := Analysis{Score: 72, Confidence: 80, Reasoning: "r", Warnings: []string{"w"}}
	ev := a.Evidence()
	require.Equal(t, 72.0, ev.Score)
	require.Equal(t, 80.0, ev.Confidence)
	assert.Equal(t, "r", ev.Reasoning)
	assert.Equal(t, []string{"w"}, ev.Warnings)
}

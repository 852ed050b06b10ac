package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reubenai/dealsense/pkg/types/common"
)

func TestStatusForScore_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Status
	}{
		{100, StatusExcellent},
		{80, StatusExcellent},
		{79.999, StatusGood},
		{70, StatusGood},
		{69.999, StatusModerate},
		{60, StatusModerate},
		{59.999, StatusNeedsImprovement},
		{50, StatusNeedsImprovement},
		{49.999, StatusConcerning},
		{0, StatusConcerning},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusForScore(tt.score), "score %.3f", tt.score)
	}
}

func TestRAGForScore(t *testing.T) {
	assert.Equal(t, common.RAGGreen, RAGForScore(70))
	assert.Equal(t, common.RAGAmber, RAGForScore(69.999))
	assert.Equal(t, common.RAGAmber, RAGForScore(50))
	assert.Equal(t, common.RAGRed, RAGForScore(49.999))
}

func TestScoreCategory_WeightedScoreUnweightedConfidence(t *testing.T) {
	cat := &Category{
		Name: "Market", Weight: 50, Enabled: true,
		Subcategories: []Subcategory{
			{Name: "TAM", Weight: 75, Enabled: true},
			{Name: "Growth", Weight: 25, Enabled: true},
		},
	}
	lookup := MapLookup(map[string]Evidence{
		"Market/TAM":    {Score: 80, Confidence: 90},
		"Market/Growth": {Score: 40, Confidence: 30},
	})

	cs := NewScorer().ScoreCategory(cat, lookup)

	// Score is weight-weighted: (80*75 + 40*25) / 100 = 70.
	assert.InDelta(t, 70, cs.Score, 1e-9)
	// Confidence is the plain mean, ignoring weights: (90 + 30) / 2 = 60.
	assert.InDelta(t, 60, cs.Confidence, 1e-9)
	assert.Equal(t, StatusGood, cs.Status)
	assert.Len(t, cs.Subcategories, 2)
}

func TestScoreCategory_ZeroWeightDefaultsNeutral(t *testing.T) {
	cat := &Category{
		Name: "Empty", Weight: 10, Enabled: true,
		Subcategories: []Subcategory{
			{Name: "A", Weight: 0, Enabled: true},
		},
	}
	cs := NewScorer().ScoreCategory(cat, MapLookup(map[string]Evidence{
		"Empty/A": {Score: 99, Confidence: 99},
	}))
	assert.Equal(t, NeutralScore, cs.Score)
}

func TestScoreCategory_DisabledSubcategoriesSkipped(t *testing.T) {
	cat := &Category{
		Name: "Market", Weight: 50, Enabled: true,
		Subcategories: []Subcategory{
			{Name: "TAM", Weight: 100, Enabled: true},
			{Name: "Off", Weight: 100, Enabled: false},
		},
	}
	cs := NewScorer().ScoreCategory(cat, MapLookup(map[string]Evidence{
		"Market/TAM": {Score: 90, Confidence: 80},
		"Market/Off": {Score: 0, Confidence: 0},
	}))
	assert.InDelta(t, 90, cs.Score, 1e-9)
	assert.Len(t, cs.Subcategories, 1)
}

func TestScoreCategory_MissingEvidenceScoresNeutral(t *testing.T) {
	cat := &Category{
		Name: "Market", Weight: 50, Enabled: true,
		Subcategories: []Subcategory{
			{Name: "TAM", Weight: 50, Enabled: true},
			{Name: "Growth", Weight: 50, Enabled: true},
		},
	}
	cs := NewScorer().ScoreCategory(cat, MapLookup(map[string]Evidence{
		"Market/TAM": {Score: 70, Confidence: 80},
	}))
	// Growth has no evidence: scored neutral 50 with zero confidence.
	assert.InDelta(t, 60, cs.Score, 1e-9)
	assert.InDelta(t, 40, cs.Confidence, 1e-9)
}

func TestScoreCategory_ClampsOutOfRangeEvidence(t *testing.T) {
	cat := &Category{
		Name: "X", Weight: 100, Enabled: true,
		Subcategories: []Subcategory{
			{Name: "A", Weight: 100, Enabled: true},
		},
	}
	cs := NewScorer().ScoreCategory(cat, MapLookup(map[string]Evidence{
		"X/A": {Score: 150, Confidence: -5},
	}))
	assert.InDelta(t, 100, cs.Score, 1e-9)
	assert.InDelta(t, 0, cs.Confidence, 1e-9)
}

// TestScoreCategory_Monotonicity: raising any enabled subcategory's score
// while holding weights fixed must never decrease the parent category score.
func TestScoreCategory_Monotonicity(t *testing.T) {
	cat := &Category{
		Name: "Market", Weight: 50, Enabled: true,
		Subcategories: []Subcategory{
			{Name: "TAM", Weight: 60, Enabled: true},
			{Name: "Growth", Weight: 30, Enabled: true},
			{Name: "Timing", Weight: 10, Enabled: true},
		},
	}
	base := map[string]Evidence{
		"Market/TAM":    {Score: 55, Confidence: 60},
		"Market/Growth": {Score: 40, Confidence: 60},
		"Market/Timing": {Score: 70, Confidence: 60},
	}
	scorer := NewScorer()
	baseScore := scorer.ScoreCategory(cat, MapLookup(base)).Score

	for key := range base {
		for bump := 1.0; bump <= 30; bump += 7 {
			raised := make(map[string]Evidence, len(base))
			for k, v := range base {
				raised[k] = v
			}
			ev := raised[key]
			ev.Score += bump
			raised[key] = ev

			got := scorer.ScoreCategory(cat, MapLookup(raised)).Score
			assert.GreaterOrEqual(t, got, baseScore,
				"raising %s by %.0f must not lower the category score", key, bump)
		}
	}
}

func TestScoreTemplate_Overall(t *testing.T) {
	tpl := &CriteriaTemplate{
		Categories: []Category{
			{
				Name: "Market", Weight: 60, Enabled: true,
				Subcategories: []Subcategory{{Name: "TAM", Weight: 100, Enabled: true}},
			},
			{
				Name: "Team", Weight: 40, Enabled: true,
				Subcategories: []Subcategory{{Name: "Founders", Weight: 100, Enabled: true}},
			},
			{
				Name: "Ignored", Weight: 100, Enabled: false,
				Subcategories: []Subcategory{{Name: "X", Weight: 100, Enabled: true}},
			},
		},
	}
	lookup := MapLookup(map[string]Evidence{
		"Market/TAM":    {Score: 90, Confidence: 80},
		"Team/Founders": {Score: 60, Confidence: 40},
		"Ignored/X":     {Score: 0, Confidence: 0},
	})

	ts := NewScorer().ScoreTemplate(tpl, lookup)

	// (90*60 + 60*40) / 100 = 78.
	assert.InDelta(t, 78, ts.OverallScore, 1e-9)
	assert.InDelta(t, 60, ts.OverallConfidence, 1e-9)
	assert.Equal(t, StatusGood, ts.Status)
	assert.Equal(t, common.RAGGreen, ts.RAG)
	require.Len(t, ts.Categories, 2)
}

func TestScoreTemplate_NoEnabledCategories(t *testing.T) {
	ts := NewScorer().ScoreTemplate(&CriteriaTemplate{}, MapLookup(nil))
	assert.Equal(t, NeutralScore, ts.OverallScore)
	assert.Equal(t, StatusNeedsImprovement, ts.Status)
}

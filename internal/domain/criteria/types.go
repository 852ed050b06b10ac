// Package criteria implements the investment-criteria bounded context for the
// DealSense platform: the hierarchical criteria template (categories,
// subcategories, target parameters), the weight-consistency validator, and
// the weighted scorer that blends per-subcategory evidence into category and
// overall deal scores.  All weighting business rules live here; persistence
// and enrichment are handled by separate layers.
package criteria

import (
	"github.com/reubenai/dealsense/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Template hierarchy
// ─────────────────────────────────────────────────────────────────────────────

// CriteriaTemplate is the root configuration for one fund type.  A fund
// selects or initialises a template once and then edits weights, enablement,
// and custom subcategories; the template is persisted as a JSON document on
// the fund's investment strategy.
type CriteriaTemplate struct {
	// Name is a human-readable template label, e.g. "VC Default".
	Name string `json:"name"`

	// FundType selects which default template the fund started from.
	FundType common.FundType `json:"fund_type"`

	// TotalWeight is the nominal weight budget; always 100.
	TotalWeight float64 `json:"total_weight"`

	// Categories is the ordered list of evaluation categories.
	Categories []Category `json:"categories"`

	// TargetParameters is the flat secondary allocation view (sector /
	// stage / geography weightings), independent of Categories.
	TargetParameters []TargetParameter `json:"target_parameters,omitempty"`
}

// Category is a named grouping of subcategories, e.g. "Market Opportunity".
// Its weight is a percentage of the template total.
type Category struct {
	Name          string        `json:"name"`
	Weight        float64       `json:"weight"`
	Enabled       bool          `json:"enabled"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Subcategory is a single evaluation unit inside a Category, e.g. "Founder
// Experience".  Its weight is a percentage within the enabled subcategories
// of its parent.  Signals and requirements are human-readable guidance used
// to steer research prompts; they are not executable rules.
type Subcategory struct {
	Name             string   `json:"name"`
	Weight           float64  `json:"weight"`
	Enabled          bool     `json:"enabled"`
	Requirements     string   `json:"requirements,omitempty"`
	PositiveSignals  []string `json:"positive_signals,omitempty"`
	NegativeSignals  []string `json:"negative_signals,omitempty"`
	AISearchKeywords []string `json:"ai_search_keywords,omitempty"`

	// Custom marks a user-authored subcategory as opposed to one provided
	// by the default template.
	Custom bool `json:"custom,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Target parameters
// ─────────────────────────────────────────────────────────────────────────────

// ParameterType discriminates the three target-parameter allocation views.
type ParameterType string

const (
	ParameterSector    ParameterType = "sector"
	ParameterStage     ParameterType = "stage"
	ParameterGeography ParameterType = "geography"
)

// Valid reports whether t is one of the known parameter types.
func (t ParameterType) Valid() bool {
	switch t {
	case ParameterSector, ParameterStage, ParameterGeography:
		return true
	}
	return false
}

// ParameterTypes lists every known parameter type in display order.
func ParameterTypes() []ParameterType {
	return []ParameterType{ParameterSector, ParameterStage, ParameterGeography}
}

// TargetParameter is a flat weighted item in the secondary allocation view.
// Weights of enabled parameters must sum to 100 within each type.
type TargetParameter struct {
	Name    string        `json:"name"`
	Type    ParameterType `json:"type"`
	Weight  float64       `json:"weight"`
	Enabled bool          `json:"enabled"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Evidence and score outputs
// ─────────────────────────────────────────────────────────────────────────────

// Evidence is the per-subcategory input to scoring, supplied by an external
// source (baseline heuristics, enrichment, or an analyst override).  The
// scorer only weights and combines evidence; it never produces it.
type Evidence struct {
	// Score is the raw evidence score in [0, 100].
	Score float64 `json:"score"`

	// Confidence is how much the evidence source trusts its own score,
	// in [0, 100].  Confidence is evidence-quantity based, not a
	// statistical certainty.
	Confidence float64 `json:"confidence"`

	// Reasoning is a human-readable justification for the score.
	Reasoning string `json:"reasoning,omitempty"`

	// Warnings flag weak or missing underlying data.
	Warnings []string `json:"warnings,omitempty"`
}

// SubcategoryScore pairs a subcategory with the evidence that scored it.
type SubcategoryScore struct {
	Name     string   `json:"name"`
	Weight   float64  `json:"weight"`
	Evidence Evidence `json:"evidence"`
}

// CategoryScore is the computed blend for one category: the weighted score,
// the unweighted mean confidence, and the status band.
type CategoryScore struct {
	Name          string             `json:"name"`
	Weight        float64            `json:"weight"`
	Score         float64            `json:"score"`
	Confidence    float64            `json:"confidence"`
	Status        Status             `json:"status"`
	Subcategories []SubcategoryScore `json:"subcategories"`
}

// TemplateScore is the full scored output for a deal against a template.
type TemplateScore struct {
	OverallScore      float64          `json:"overall_score"`
	OverallConfidence float64          `json:"overall_confidence"`
	Status            Status           `json:"status"`
	RAG               common.RAGStatus `json:"rag_status"`
	Categories        []CategoryScore  `json:"categories"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Status banding
// ─────────────────────────────────────────────────────────────────────────────

// Status is the qualitative band a numeric score falls into.
type Status string

const (
	StatusExcellent        Status = "excellent"
	StatusGood             Status = "good"
	StatusModerate         Status = "moderate"
	StatusNeedsImprovement Status = "needs_improvement"
	StatusConcerning       Status = "concerning"
)

// Banding thresholds.  These cutoffs are load-bearing for downstream
// consumers (RAG badges, memo narratives) and must not drift.
const (
	thresholdExcellent        = 80.0
	thresholdGood             = 70.0
	thresholdModerate         = 60.0
	thresholdNeedsImprovement = 50.0
)

// StatusForScore maps a numeric score to its qualitative band.  Boundaries
// are inclusive on the lower edge of each band: 80 is excellent, 79.999 is
// good, 50 is needs_improvement, 49.999 is concerning.
func StatusForScore(score float64) Status {
	switch {
	case score >= thresholdExcellent:
		return StatusExcellent
	case score >= thresholdGood:
		return StatusGood
	case score >= thresholdModerate:
		return StatusModerate
	case score >= thresholdNeedsImprovement:
		return StatusNeedsImprovement
	default:
		return StatusConcerning
	}
}

// RAGForScore collapses the five status bands into a three-colour RAG badge
// for dashboard display: good-or-better is green, moderate and
// needs_improvement are amber, concerning is red.
func RAGForScore(score float64) common.RAGStatus {
	switch {
	case score >= thresholdGood:
		return common.RAGGreen
	case score >= thresholdNeedsImprovement:
		return common.RAGAmber
	default:
		return common.RAGRed
	}
}

// NeutralScore is the default applied when no weighted evidence exists for a
// category (zero total enabled weight).
const NeutralScore = 50.0

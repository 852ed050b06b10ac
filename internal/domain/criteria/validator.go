package criteria

import (
	"fmt"
	"math"
)

// ─────────────────────────────────────────────────────────────────────────────
// Weight validation
// ─────────────────────────────────────────────────────────────────────────────

// ValidationResult carries the outcome of a weight-consistency check.
// Validation failures are ordinary values intended for display, never errors:
// a template with broken weights is a user-fixable configuration state, not a
// system fault.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}

func (r ValidationResult) merge(other ValidationResult) ValidationResult {
	return ValidationResult{
		IsValid: r.IsValid && other.IsValid,
		Errors:  append(r.Errors, other.Errors...),
	}
}

// Validator checks that enabled weights sum to 100 at every level of a
// template.  The same tolerance applies uniformly to category totals,
// per-category subcategory totals, and per-type target-parameter totals.
type Validator struct {
	// Tolerance is the maximum allowed absolute deviation from 100.
	Tolerance float64
}

// DefaultTolerance is the canonical weight-sum tolerance.
const DefaultTolerance = 0.5

// NewValidator returns a Validator with the given tolerance; a zero or
// negative tolerance falls back to DefaultTolerance.
func NewValidator(tolerance float64) *Validator {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Validator{Tolerance: tolerance}
}

// ValidateTemplate checks every weight invariant of the template:
//
//  1. Enabled category weights sum to 100.
//  2. Within each enabled category, enabled subcategory weights sum to 100.
//  3. Within each target-parameter type, enabled parameter weights sum to 100.
//
// All violations are collected; the result never short-circuits, so the UI
// can show every problem at once.  Runs in O(n) over categories plus
// subcategories plus parameters.
func (v *Validator) ValidateTemplate(tpl *CriteriaTemplate) ValidationResult {
	result := ValidationResult{IsValid: true}
	if tpl == nil {
		return ValidationResult{IsValid: false, Errors: []string{"criteria template is nil"}}
	}

	result = result.merge(v.validateCategories(tpl.Categories))
	for i := range tpl.Categories {
		cat := &tpl.Categories[i]
		if !cat.Enabled {
			continue
		}
		result = result.merge(v.validateSubcategories(cat))
	}
	result = result.merge(v.ValidateTargetParameters(tpl.TargetParameters))

	return result
}

func (v *Validator) validateCategories(categories []Category) ValidationResult {
	var total float64
	enabled := 0
	for i := range categories {
		if categories[i].Enabled {
			total += categories[i].Weight
			enabled++
		}
	}
	if enabled == 0 {
		return ValidationResult{
			IsValid: false,
			Errors:  []string{"no categories are enabled"},
		}
	}
	if math.Abs(total-100) > v.Tolerance {
		return ValidationResult{
			IsValid: false,
			Errors: []string{fmt.Sprintf(
				"enabled category weights sum to %.2f, expected 100 (±%.2f)",
				total, v.Tolerance)},
		}
	}
	return ValidationResult{IsValid: true}
}

func (v *Validator) validateSubcategories(cat *Category) ValidationResult {
	var total float64
	enabled := 0
	for i := range cat.Subcategories {
		if cat.Subcategories[i].Enabled {
			total += cat.Subcategories[i].Weight
			enabled++
		}
	}
	if enabled == 0 {
		return ValidationResult{
			IsValid: false,
			Errors:  []string{fmt.Sprintf("category %q has no enabled subcategories", cat.Name)},
		}
	}
	if math.Abs(total-100) > v.Tolerance {
		return ValidationResult{
			IsValid: false,
			Errors: []string{fmt.Sprintf(
				"category %q: enabled subcategory weights sum to %.2f, expected 100 (±%.2f)",
				cat.Name, total, v.Tolerance)},
		}
	}
	return ValidationResult{IsValid: true}
}

// ValidateTargetParameters applies the sum-to-100 rule independently within
// each parameter type.  Types with no parameters at all are skipped: the
// secondary allocation view is optional, but once any parameter of a type is
// present the type's enabled weights must balance.
func (v *Validator) ValidateTargetParameters(params []TargetParameter) ValidationResult {
	result := ValidationResult{IsValid: true}

	totals := make(map[ParameterType]float64)
	present := make(map[ParameterType]bool)
	for i := range params {
		p := &params[i]
		if !p.Type.Valid() {
			result = result.merge(ValidationResult{
				IsValid: false,
				Errors:  []string{fmt.Sprintf("target parameter %q has unknown type %q", p.Name, p.Type)},
			})
			continue
		}
		present[p.Type] = true
		if p.Enabled {
			totals[p.Type] += p.Weight
		}
	}

	for _, t := range ParameterTypes() {
		if !present[t] {
			continue
		}
		if math.Abs(totals[t]-100) > v.Tolerance {
			result = result.merge(ValidationResult{
				IsValid: false,
				Errors: []string{fmt.Sprintf(
					"target parameters of type %q: enabled weights sum to %.2f, expected 100 (±%.2f)",
					t, totals[t], v.Tolerance)},
			})
		}
	}

	return result
}

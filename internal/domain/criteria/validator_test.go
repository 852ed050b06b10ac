package criteria

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func balancedTemplate() *CriteriaTemplate {
	return &CriteriaTemplate{
		Name:        "test",
		TotalWeight: 100,
		Categories: []Category{
			{
				Name: "Market", Weight: 60, Enabled: true,
				Subcategories: []Subcategory{
					{Name: "TAM", Weight: 70, Enabled: true},
					{Name: "Growth", Weight: 30, Enabled: true},
				},
			},
			{
				Name: "Team", Weight: 40, Enabled: true,
				Subcategories: []Subcategory{
					{Name: "Founders", Weight: 100, Enabled: true},
				},
			},
		},
	}
}

func TestValidateTemplate_Balanced(t *testing.T) {
	v := NewValidator(0.5)
	result := v.ValidateTemplate(balancedTemplate())
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidateTemplate_CategorySumOff(t *testing.T) {
	tpl := balancedTemplate()
	tpl.Categories[0].Weight = 70 // total now 110

	result := NewValidator(0.5).ValidateTemplate(tpl)
	require.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "110.00")
}

func TestValidateTemplate_SubcategorySumNamesCategory(t *testing.T) {
	tpl := balancedTemplate()
	tpl.Categories[0].Subcategories[0].Weight = 80 // Market subs now 110

	result := NewValidator(0.5).ValidateTemplate(tpl)
	require.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `"Market"`)
	assert.Contains(t, result.Errors[0], "110.00")
}

func TestValidateTemplate_DisabledExcluded(t *testing.T) {
	tpl := balancedTemplate()
	// Disable Team and rebalance Market to carry the full budget.
	tpl.Categories[1].Enabled = false
	tpl.Categories[0].Weight = 100

	result := NewValidator(0.5).ValidateTemplate(tpl)
	assert.True(t, result.IsValid, "disabled categories must not count toward the sum: %v", result.Errors)
}

func TestValidateTemplate_CollectsAllErrors(t *testing.T) {
	tpl := balancedTemplate()
	tpl.Categories[0].Weight = 70                  // category sum off
	tpl.Categories[0].Subcategories[0].Weight = 80 // Market subs off
	tpl.Categories[1].Subcategories[0].Weight = 90 // Team subs off

	result := NewValidator(0.5).ValidateTemplate(tpl)
	require.False(t, result.IsValid)
	assert.Len(t, result.Errors, 3)
}

func TestValidateTemplate_WithinTolerance(t *testing.T) {
	tpl := balancedTemplate()
	tpl.Categories[0].Weight = 60.4 // total 100.4, inside ±0.5

	result := NewValidator(0.5).ValidateTemplate(tpl)
	assert.True(t, result.IsValid)
}

func TestValidateTemplate_NilAndEmpty(t *testing.T) {
	v := NewValidator(0.5)

	assert.False(t, v.ValidateTemplate(nil).IsValid)

	empty := &CriteriaTemplate{}
	result := v.ValidateTemplate(empty)
	require.False(t, result.IsValid)
	assert.Contains(t, result.Errors[0], "no categories are enabled")
}

func TestValidateTargetParameters_PerType(t *testing.T) {
	v := NewValidator(0.5)

	params := []TargetParameter{
		{Name: "Fintech", Type: ParameterSector, Weight: 60, Enabled: true},
		{Name: "SaaS", Type: ParameterSector, Weight: 40, Enabled: true},
		{Name: "Seed", Type: ParameterStage, Weight: 70, Enabled: true},
		{Name: "Series A", Type: ParameterStage, Weight: 20, Enabled: true}, // stage total 90
	}

	result := v.ValidateTargetParameters(params)
	require.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `"stage"`)
	assert.Contains(t, result.Errors[0], "90.00")
}

func TestValidateTargetParameters_AbsentTypeSkipped(t *testing.T) {
	params := []TargetParameter{
		{Name: "Fintech", Type: ParameterSector, Weight: 100, Enabled: true},
	}
	result := NewValidator(0.5).ValidateTargetParameters(params)
	assert.True(t, result.IsValid, "types with no parameters must not be validated")
}

func TestValidateTargetParameters_UnknownType(t *testing.T) {
	params := []TargetParameter{
		{Name: "Thing", Type: "vertical", Weight: 100, Enabled: true},
	}
	result := NewValidator(0.5).ValidateTargetParameters(params)
	require.False(t, result.IsValid)
	assert.Contains(t, result.Errors[0], "unknown type")
}

func TestNewValidator_ZeroToleranceFallsBack(t *testing.T) {
	assert.Equal(t, DefaultTolerance, NewValidator(0).Tolerance)
	assert.Equal(t, DefaultTolerance, NewValidator(-1).Tolerance)
	assert.Equal(t, 1.0, NewValidator(1.0).Tolerance)
}

// TestWeightSumProperty generates random enabled/weight combinations and
// asserts the validator flags exactly the cases outside the tolerance.
func TestWeightSumProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	v := NewValidator(0.5)

	for i := 0; i < 500; i++ {
		n := 2 + rng.Intn(6)
		cats := make([]Category, n)
		var enabledTotal float64
		anyEnabled := false
		for j := range cats {
			enabled := rng.Float64() < 0.8
			weight := rng.Float64() * 60
			cats[j] = Category{
				Name:    fmt.Sprintf("cat-%d", j),
				Weight:  weight,
				Enabled: enabled,
				Subcategories: []Subcategory{
					{Name: "only", Weight: 100, Enabled: true},
				},
			}
			if enabled {
				enabledTotal += weight
				anyEnabled = true
			}
		}

		result := v.ValidateTemplate(&CriteriaTemplate{Categories: cats})
		wantValid := anyEnabled && enabledTotal >= 99.5 && enabledTotal <= 100.5
		assert.Equal(t, wantValid, result.IsValid,
			"iteration %d: enabled total %.4f, errors %v", i, enabledTotal, result.Errors)
	}
}

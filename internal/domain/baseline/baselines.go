// Package baseline produces heuristic evidence scores for a criterion from a
// static table of per-industry market and financial facts.  It is the
// evidence source of last resort: used when no document or enrichment data
// exists for a deal, so the scorer always has something to weight.
package baseline

// IndustryBaseline holds the static facts recorded for one canonical
// industry.  Values are rough sector-level figures, not deal data.
type IndustryBaseline struct {
	Industry string

	// TAMBillions is the sector's total addressable market in billions of
	// US dollars.
	TAMBillions float64

	// GrowthRatePct is the sector's typical annual growth rate.
	GrowthRatePct float64

	// CompetitiveIntensity grades how crowded the sector is: "low",
	// "moderate" or "high".
	CompetitiveIntensity string

	// GrossMarginPct is the typical gross margin for the sector.
	GrossMarginPct float64

	// CapitalIntensity grades how much capital a company in the sector
	// needs to scale: "low", "moderate" or "high".
	CapitalIntensity string
}

// defaultBaselines is keyed by canonical industry name as produced by the
// industry classifier.  Loaded once; never mutated at runtime.
var defaultBaselines = map[string]IndustryBaseline{
	"Financial Services": {
		Industry:             "Financial Services",
		TAMBillions:          1500,
		GrowthRatePct:        9,
		CompetitiveIntensity: "high",
		GrossMarginPct:       65,
		CapitalIntensity:     "moderate",
	},
	"Healthcare": {
		Industry:             "Healthcare",
		TAMBillions:          1200,
		GrowthRatePct:        11,
		CompetitiveIntensity: "moderate",
		GrossMarginPct:       55,
		CapitalIntensity:     "high",
	},
	"Enterprise Software": {
		Industry:             "Enterprise Software",
		TAMBillions:          700,
		GrowthRatePct:        17,
		CompetitiveIntensity: "high",
		GrossMarginPct:       80,
		CapitalIntensity:     "low",
	},
	"Consumer": {
		Industry:             "Consumer",
		TAMBillions:          2000,
		GrowthRatePct:        6,
		CompetitiveIntensity: "high",
		GrossMarginPct:       40,
		CapitalIntensity:     "moderate",
	},
	"Industrial Technology": {
		Industry:             "Industrial Technology",
		TAMBillions:          450,
		GrowthRatePct:        7,
		CompetitiveIntensity: "moderate",
		GrossMarginPct:       35,
		CapitalIntensity:     "high",
	},
	"Energy & Climate": {
		Industry:             "Energy & Climate",
		TAMBillions:          1100,
		GrowthRatePct:        16,
		CompetitiveIntensity: "moderate",
		GrossMarginPct:       30,
		CapitalIntensity:     "high",
	},
	"Media & Entertainment": {
		Industry:             "Media & Entertainment",
		TAMBillions:          650,
		GrowthRatePct:        5,
		CompetitiveIntensity: "high",
		GrossMarginPct:       45,
		CapitalIntensity:     "moderate",
	},
	"Education": {
		Industry:             "Education",
		TAMBillions:          300,
		GrowthRatePct:        12,
		CompetitiveIntensity: "moderate",
		GrossMarginPct:       60,
		CapitalIntensity:     "low",
	},
	"Real Estate": {
		Industry:             "Real Estate",
		TAMBillions:          900,
		GrowthRatePct:        4,
		CompetitiveIntensity: "moderate",
		GrossMarginPct:       50,
		CapitalIntensity:     "high",
	},
	"Transportation & Mobility": {
		Industry:             "Transportation & Mobility",
		TAMBillions:          800,
		GrowthRatePct:        10,
		CompetitiveIntensity: "high",
		GrossMarginPct:       25,
		CapitalIntensity:     "high",
	},
}

// DefaultBaselines returns the built-in baseline table.  The returned map is
// shared; callers must treat it as read-only.
func DefaultBaselines() map[string]IndustryBaseline {
	return defaultBaselines
}

package criteria

// ─────────────────────────────────────────────────────────────────────────────
// Weighted scoring
// ─────────────────────────────────────────────────────────────────────────────

// Scorer blends per-subcategory evidence into category and overall scores.
// It is a pure computation over the template structure and caller-supplied
// evidence; it never fetches or produces evidence itself.
type Scorer struct{}

// NewScorer returns a Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// EvidenceLookup resolves the evidence for one (category, subcategory) pair.
// Returning ok=false means no evidence exists; the subcategory is then scored
// at the neutral default with zero confidence contribution skipped.
type EvidenceLookup func(category, subcategory string) (Evidence, bool)

// ScoreCategory computes one category's blended score from its enabled
// subcategories.
//
// The score is the weight-weighted mean of subcategory scores; the
// confidence is the plain arithmetic mean of subcategory confidences.  This
// asymmetry is deliberate: a heavily-weighted criterion should dominate the
// score, but our trust in the evidence is a property of how much evidence we
// gathered, not of how much the criterion matters.
//
// If the enabled subcategories carry zero total weight the category defaults
// to the neutral score of 50.
func (s *Scorer) ScoreCategory(cat *Category, lookup EvidenceLookup) CategoryScore {
	out := CategoryScore{
		Name:   cat.Name,
		Weight: cat.Weight,
	}

	var weightedSum, totalWeight, confidenceSum float64
	scored := 0

	for i := range cat.Subcategories {
		sub := &cat.Subcategories[i]
		if !sub.Enabled {
			continue
		}

		ev, ok := lookup(cat.Name, sub.Name)
		if !ok {
			ev = Evidence{Score: NeutralScore, Confidence: 0}
		}
		ev.Score = clampScore(ev.Score)
		ev.Confidence = clampScore(ev.Confidence)

		out.Subcategories = append(out.Subcategories, SubcategoryScore{
			Name:     sub.Name,
			Weight:   sub.Weight,
			Evidence: ev,
		})

		weightedSum += ev.Score * sub.Weight
		totalWeight += sub.Weight
		confidenceSum += ev.Confidence
		scored++
	}

	if totalWeight > 0 {
		out.Score = weightedSum / totalWeight
	} else {
		out.Score = NeutralScore
	}
	if scored > 0 {
		out.Confidence = confidenceSum / float64(scored)
	}
	out.Status = StatusForScore(out.Score)

	return out
}

// ScoreTemplate computes every enabled category's score and blends them into
// an overall deal score using category weights.  Disabled categories are
// excluded entirely.  The overall confidence is the unweighted mean of
// category confidences, mirroring the subcategory rule.
func (s *Scorer) ScoreTemplate(tpl *CriteriaTemplate, lookup EvidenceLookup) TemplateScore {
	out := TemplateScore{}

	var weightedSum, totalWeight, confidenceSum float64
	scored := 0

	for i := range tpl.Categories {
		cat := &tpl.Categories[i]
		if !cat.Enabled {
			continue
		}

		cs := s.ScoreCategory(cat, lookup)
		out.Categories = append(out.Categories, cs)

		weightedSum += cs.Score * cat.Weight
		totalWeight += cat.Weight
		confidenceSum += cs.Confidence
		scored++
	}

	if totalWeight > 0 {
		out.OverallScore = weightedSum / totalWeight
	} else {
		out.OverallScore = NeutralScore
	}
	if scored > 0 {
		out.OverallConfidence = confidenceSum / float64(scored)
	}
	out.Status = StatusForScore(out.OverallScore)
	out.RAG = RAGForScore(out.OverallScore)

	return out
}

// MapLookup adapts a map keyed "category/subcategory" to an EvidenceLookup.
// Convenient for tests and for callers that assemble evidence up front.
func MapLookup(m map[string]Evidence) EvidenceLookup {
	return func(category, subcategory string) (Evidence, bool) {
		ev, ok := m[category+"/"+subcategory]
		return ev, ok
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

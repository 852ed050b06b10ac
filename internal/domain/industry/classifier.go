package industry

import (
	"fmt"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// Match confidences per tier
// ─────────────────────────────────────────────────────────────────────────────

// Tier confidences, in strict priority order.  First hit wins; a lower tier
// is never consulted once a higher tier matched.
const (
	ConfidenceExactCanonical     = 100
	ConfidenceAlias              = 95
	ConfidenceExactSubcategory   = 90
	ConfidenceSubstringSubcat    = 75
	ConfidenceSubstringRelated   = 70
	ConfidenceSubstringCanonical = 65

	// ConfidenceDirectSubstring is awarded by the alignment check when the
	// raw deal and fund terms overlap directly, before any taxonomy lookup.
	ConfidenceDirectSubstring = 85
)

// Match is the result of classifying one free-text term.
type Match struct {
	// Canonical is the matched industry name.
	Canonical string `json:"canonical"`

	// Confidence is the tier confidence in [65, 100].
	Confidence int `json:"confidence"`

	// MatchedOn names the taxonomy entry that produced the hit, for
	// human-readable justification.
	MatchedOn string `json:"matched_on"`

	// Reason is a display-ready explanation of the match.
	Reason string `json:"reason"`
}

// Alignment is the result of checking a deal's industry against a fund's
// focus industries.
type Alignment struct {
	Aligned     bool   `json:"aligned"`
	Confidence  int    `json:"confidence"`
	Industry    string `json:"industry,omitempty"`
	Explanation string `json:"explanation"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Classifier
// ─────────────────────────────────────────────────────────────────────────────

// Classifier resolves free-text sector terms against an immutable taxonomy.
// It is safe for concurrent use; the taxonomy is never mutated after
// construction.
type Classifier struct {
	mappings []Mapping

	// byCanonical, byAlias and bySubcategory index normalised terms for the
	// three exact-match tiers.  Substring tiers scan linearly.
	byCanonical   map[string]*Mapping
	byAlias       map[string]*Mapping
	bySubcategory map[string]*Mapping
}

// NewClassifier builds a Classifier over the given taxonomy.  Passing nil
// uses the built-in default mappings.
func NewClassifier(mappings []Mapping) *Classifier {
	if mappings == nil {
		mappings = DefaultMappings()
	}
	c := &Classifier{
		mappings:      mappings,
		byCanonical:   make(map[string]*Mapping),
		byAlias:       make(map[string]*Mapping),
		bySubcategory: make(map[string]*Mapping),
	}
	for i := range c.mappings {
		m := &c.mappings[i]
		c.byCanonical[normalize(m.Canonical)] = m
		for _, a := range m.Aliases {
			c.byAlias[normalize(a)] = m
		}
		for _, s := range m.Subcategories {
			c.bySubcategory[normalize(s)] = m
		}
	}
	return c
}

// normalize lowercases and trims a term.  No stemming or lemmatization is
// applied anywhere in the classifier.
func normalize(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// FindBestMatch resolves term against the taxonomy through the tiered rules.
// Empty or whitespace-only input yields (nil): absence of input is not an
// error.  Resolving an already-canonical name returns itself at confidence
// 100, so the function is idempotent over its own output.
func (c *Classifier) FindBestMatch(term string) *Match {
	t := normalize(term)
	if t == "" {
		return nil
	}

	// Tier 1: exact canonical name.
	if m, ok := c.byCanonical[t]; ok {
		return &Match{
			Canonical:  m.Canonical,
			Confidence: ConfidenceExactCanonical,
			MatchedOn:  m.Canonical,
			Reason:     fmt.Sprintf("%q is the canonical industry name", term),
		}
	}

	// Tier 2: exact alias.
	if m, ok := c.byAlias[t]; ok {
		return &Match{
			Canonical:  m.Canonical,
			Confidence: ConfidenceAlias,
			MatchedOn:  t,
			Reason:     fmt.Sprintf("%q is a known alias of %s", term, m.Canonical),
		}
	}

	// Tier 3: exact subcategory term.
	if m, ok := c.bySubcategory[t]; ok {
		return &Match{
			Canonical:  m.Canonical,
			Confidence: ConfidenceExactSubcategory,
			MatchedOn:  t,
			Reason:     fmt.Sprintf("%q is a subcategory of %s", term, m.Canonical),
		}
	}

	// Tier 4: substring match against a subcategory term, either direction.
	for i := range c.mappings {
		m := &c.mappings[i]
		for _, s := range m.Subcategories {
			ns := normalize(s)
			if containsEither(t, ns) {
				return &Match{
					Canonical:  m.Canonical,
					Confidence: ConfidenceSubstringSubcat,
					MatchedOn:  s,
					Reason:     fmt.Sprintf("%q partially matches subcategory %q of %s", term, s, m.Canonical),
				}
			}
		}
	}

	// Tier 5: substring match against a related term.
	for i := range c.mappings {
		m := &c.mappings[i]
		for _, r := range m.RelatedTerms {
			nr := normalize(r)
			if containsEither(t, nr) {
				return &Match{
					Canonical:  m.Canonical,
					Confidence: ConfidenceSubstringRelated,
					MatchedOn:  r,
					Reason:     fmt.Sprintf("%q relates to %s via %q", term, m.Canonical, r),
				}
			}
		}
	}

	// Tier 6: substring match against the canonical name itself.
	for i := range c.mappings {
		m := &c.mappings[i]
		nc := normalize(m.Canonical)
		if containsEither(t, nc) {
			return &Match{
				Canonical:  m.Canonical,
				Confidence: ConfidenceSubstringCanonical,
				MatchedOn:  m.Canonical,
				Reason:     fmt.Sprintf("%q partially matches industry name %s", term, m.Canonical),
			}
		}
	}

	return nil
}

// containsEither reports whether either string contains the other.
func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// AreIndustriesAligned checks whether a deal's industry fits any of the
// fund's focus industries.  Fund industries are tried in caller order and the
// first one that satisfies any rule wins; there is no global best-match
// search.  Rules per fund industry:
//
//  1. Direct case-insensitive substring overlap between the raw strings →
//     aligned at confidence 85.
//  2. Both terms resolve to the same canonical industry → aligned at the
//     confidence of the deal term's match.
//  3. The deal term's match confidence is at least minConfidence and its
//     canonical industry exists in the taxonomy → aligned.
//
// Absence of any match yields an unaligned result, never an error.
func (c *Classifier) AreIndustriesAligned(dealIndustry string, fundIndustries []string, minConfidence int) Alignment {
	deal := normalize(dealIndustry)
	if deal == "" || len(fundIndustries) == 0 {
		return Alignment{
			Aligned:     false,
			Explanation: "no industry information to compare",
		}
	}

	dealMatch := c.FindBestMatch(dealIndustry)

	for _, fi := range fundIndustries {
		fund := normalize(fi)
		if fund == "" {
			continue
		}

		// Rule 1: raw substring overlap.
		if containsEither(deal, fund) {
			return Alignment{
				Aligned:    true,
				Confidence: ConfidenceDirectSubstring,
				Industry:   fi,
				Explanation: fmt.Sprintf(
					"deal industry %q directly overlaps fund focus %q", dealIndustry, fi),
			}
		}

		if dealMatch == nil {
			continue
		}

		// Rule 2: both resolve to the same canonical industry.
		if fundMatch := c.FindBestMatch(fi); fundMatch != nil && fundMatch.Canonical == dealMatch.Canonical {
			return Alignment{
				Aligned:    true,
				Confidence: dealMatch.Confidence,
				Industry:   dealMatch.Canonical,
				Explanation: fmt.Sprintf(
					"deal industry %q and fund focus %q both map to %s", dealIndustry, fi, dealMatch.Canonical),
			}
		}

		// Rule 3: strong deal-side match into a known canonical industry.
		if dealMatch.Confidence >= minConfidence {
			if _, ok := c.byCanonical[normalize(dealMatch.Canonical)]; ok {
				return Alignment{
					Aligned:    true,
					Confidence: dealMatch.Confidence,
					Industry:   dealMatch.Canonical,
					Explanation: fmt.Sprintf(
						"deal industry %q maps to %s at confidence %d (threshold %d)",
						dealIndustry, dealMatch.Canonical, dealMatch.Confidence, minConfidence),
				}
			}
		}
	}

	explanation := fmt.Sprintf("deal industry %q does not align with any fund focus industry", dealIndustry)
	if dealMatch != nil {
		explanation = fmt.Sprintf(
			"deal industry %q maps to %s but no fund focus industry agrees", dealIndustry, dealMatch.Canonical)
	}
	return Alignment{Aligned: false, Explanation: explanation}
}

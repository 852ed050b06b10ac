// Package industry implements the industry classifier: tiered matching of
// free-text sector terms against a canonical industry taxonomy, and the
// deal-vs-fund industry alignment check built on top of it.  The taxonomy is
// immutable reference data loaded once at process start.
package industry

// Mapping describes one canonical industry: its accepted aliases, the
// subcategory terms that roll up into it, and looser related terms that still
// suggest the industry.
type Mapping struct {
	Canonical     string
	Aliases       []string
	Subcategories []string
	RelatedTerms  []string
}

// defaultMappings is the built-in taxonomy.  Callers may supply their own
// table to NewClassifier; this is the set the platform ships with.
var defaultMappings = []Mapping{
	{
		Canonical: "Financial Services",
		Aliases:   []string{"finserv", "financial"},
		Subcategories: []string{
			"fintech", "banking", "insurance", "insurtech", "payments",
			"lending", "wealth management", "capital markets", "regtech",
		},
		RelatedTerms: []string{"money", "credit", "trading", "crypto", "blockchain finance"},
	},
	{
		Canonical: "Healthcare",
		Aliases:   []string{"health", "healthtech", "medical"},
		Subcategories: []string{
			"digital health", "biotech", "medtech", "pharmaceuticals",
			"telemedicine", "diagnostics", "medical devices", "health insurance",
		},
		RelatedTerms: []string{"clinical", "patient", "hospital", "therapeutics", "wellness"},
	},
	{
		Canonical: "Enterprise Software",
		Aliases:   []string{"b2b software", "saas", "enterprise saas"},
		Subcategories: []string{
			"crm", "erp", "hr tech", "devtools", "developer tools",
			"cybersecurity", "data analytics", "business intelligence",
			"collaboration software", "workflow automation",
		},
		RelatedTerms: []string{"cloud", "software", "platform", "api", "automation"},
	},
	{
		Canonical: "Consumer",
		Aliases:   []string{"consumer products", "b2c"},
		Subcategories: []string{
			"e-commerce", "ecommerce", "marketplaces", "direct to consumer",
			"consumer apps", "gaming", "social media", "food delivery",
		},
		RelatedTerms: []string{"retail", "brand", "subscription", "mobile app"},
	},
	{
		Canonical: "Industrial Technology",
		Aliases:   []string{"industrials", "industrial tech"},
		Subcategories: []string{
			"manufacturing", "robotics", "iot", "supply chain",
			"logistics", "construction tech", "agtech", "3d printing",
		},
		RelatedTerms: []string{"factory", "automation hardware", "sensors", "warehouse"},
	},
	{
		Canonical: "Energy & Climate",
		Aliases:   []string{"cleantech", "climate tech", "energy"},
		Subcategories: []string{
			"renewable energy", "solar", "wind", "battery storage",
			"carbon capture", "ev charging", "grid technology",
		},
		RelatedTerms: []string{"sustainability", "emissions", "electrification", "utilities"},
	},
	{
		Canonical: "Media & Entertainment",
		Aliases:   []string{"media", "entertainment"},
		Subcategories: []string{
			"streaming", "content creation", "advertising technology",
			"adtech", "publishing", "sports tech", "music tech",
		},
		RelatedTerms: []string{"video", "creator economy", "audience"},
	},
	{
		Canonical: "Education",
		Aliases:   []string{"edtech", "education technology"},
		Subcategories: []string{
			"online learning", "corporate training", "language learning",
			"tutoring", "credentialing",
		},
		RelatedTerms: []string{"students", "curriculum", "upskilling"},
	},
	{
		Canonical: "Real Estate",
		Aliases:   []string{"proptech", "property"},
		Subcategories: []string{
			"property management", "real estate marketplaces",
			"construction management", "mortgage tech",
		},
		RelatedTerms: []string{"housing", "commercial property", "leasing"},
	},
	{
		Canonical: "Transportation & Mobility",
		Aliases:   []string{"mobility", "transportation"},
		Subcategories: []string{
			"autonomous vehicles", "ride sharing", "micromobility",
			"fleet management", "freight",
		},
		RelatedTerms: []string{"automotive", "delivery", "transit"},
	},
}

// DefaultMappings returns the built-in taxonomy.  The returned slice is
// shared; callers must treat it as read-only.
func DefaultMappings() []Mapping {
	return defaultMappings
}

// Package enrichment implements the deal-enrichment pipeline: named research
// packs issue calls to external providers, regex heuristics lift structured
// metrics out of the free-text answers, and results are persisted per
// (deal, pack) with degrade-not-fail semantics end to end.
package enrichment

import (
	"regexp"
	"strconv"
	"strings"
)

// Extraction from LLM prose is inherently best-effort pattern matching.  It
// lives behind the narrow text-in/metrics-out functions below so the whole
// mechanism can be swapped for structured provider output without touching
// the orchestrator.

// NotAvailable is the placeholder for a metric no pattern matched.  Downstream
// consumers always see a value, never a missing field.
const NotAvailable = "not available"

// AnalysisPending marks narrative fields that need a future research pass.
const AnalysisPending = "analysis pending"

// Metric is one extracted value with the text span that produced it.  A
// metric whose pattern never matched carries the NotAvailable placeholder
// and an empty RawText.
type Metric struct {
	Value   string `json:"value"`
	RawText string `json:"raw_text,omitempty"`
}

// Found reports whether the metric was actually extracted rather than
// placeholder-filled.
func (m Metric) Found() bool {
	return m.Value != NotAvailable && m.Value != ""
}

// MarketMetrics is the structured output of the market-research extractor.
type MarketMetrics struct {
	TAM        Metric `json:"tam"`
	SAM        Metric `json:"sam"`
	GrowthRate Metric `json:"growth_rate"`
	Summary    string `json:"summary"`
}

// FinancialMetrics is the structured output of the financial extractor.
type FinancialMetrics struct {
	Revenue       Metric `json:"revenue"`
	FundingRaised Metric `json:"funding_raised"`
	Valuation     Metric `json:"valuation"`
	BurnRate      Metric `json:"burn_rate"`
	Summary       string `json:"summary"`
}

// CompetitiveData is the structured output of the competitive extractor.
type CompetitiveData struct {
	Competitors     []string `json:"competitors"`
	MarketPosition  Metric   `json:"market_position"`
	Differentiators string   `json:"differentiators"`
	Summary         string   `json:"summary"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Patterns
// ─────────────────────────────────────────────────────────────────────────────

var (
	// reMoney matches "$1.5 billion", "$300M", "$2,500 million", "USD 4.2B".
	reMoney = `(?:\$|USD\s*)\s*([\d,]+(?:\.\d+)?)\s*(billion|million|trillion|B|M|T)\b`

	reTAM        = regexp.MustCompile(`(?i)` + reMoney + `[^.\n]{0,60}?\b(?:TAM|total addressable market)|(?i)\b(?:TAM|total addressable market)\b[^.\n]{0,60}?` + reMoney)
	reSAM        = regexp.MustCompile(`(?i)\b(?:SAM|serviceable addressable market)\b[^.\n]{0,60}?` + reMoney)
	reGrowth     = regexp.MustCompile(`(?i)([\d]+(?:\.\d+)?)\s*%\s*(?:CAGR|annual growth|growth rate|YoY growth|year[- ]over[- ]year)`)
	reRevenue    = regexp.MustCompile(`(?i)(?:revenue|ARR)\s+of\s+` + reMoney + `|(?i)` + reMoney + `\s+(?:in\s+)?(?:annual\s+)?(?:revenue|ARR)`)
	reRaised     = regexp.MustCompile(`(?i)raised\s+` + reMoney)
	reValuation  = regexp.MustCompile(`(?i)valu(?:ed|ation)\s+(?:at\s+|of\s+)?` + reMoney)
	reBurn       = regexp.MustCompile(`(?i)(?:burn(?:\s+rate)?|burning)\s+(?:of\s+|is\s+)?` + reMoney)
	reCompetitor = regexp.MustCompile(`(?i)competitors?\s+(?:include|are|such as)\s+([^.\n]+)`)
	rePosition   = regexp.MustCompile(`(?i)(market leader|top \d+|leading player|challenger|niche player|dominant position)`)
)

// ─────────────────────────────────────────────────────────────────────────────
// Extractors
// ─────────────────────────────────────────────────────────────────────────────

// ExtractMarketMetrics scans free text for market-sizing figures.
func ExtractMarketMetrics(text string) MarketMetrics {
	m := MarketMetrics{
		TAM:        extractFirst(reTAM, text),
		SAM:        extractFirst(reSAM, text),
		GrowthRate: extractPercent(reGrowth, text),
	}
	m.Summary = summarize(text)
	return m
}

// ExtractFinancialMetrics scans free text for company financial figures.
func ExtractFinancialMetrics(text string) FinancialMetrics {
	f := FinancialMetrics{
		Revenue:       extractFirst(reRevenue, text),
		FundingRaised: extractFirst(reRaised, text),
		Valuation:     extractFirst(reValuation, text),
		BurnRate:      extractFirst(reBurn, text),
	}
	f.Summary = summarize(text)
	return f
}

// ExtractCompetitiveData scans free text for competitor names and market
// position language.
func ExtractCompetitiveData(text string) CompetitiveData {
	c := CompetitiveData{
		MarketPosition:  extractFirst(rePosition, text),
		Differentiators: AnalysisPending,
	}

	if m := reCompetitor.FindStringSubmatch(text); m != nil {
		c.Competitors = splitCompetitorList(m[1])
	}
	c.Summary = summarize(text)
	return c
}

// extractFirst returns the first match of re in text as a Metric, or the
// NotAvailable placeholder.  The full matched span is preserved as RawText.
func extractFirst(re *regexp.Regexp, text string) Metric {
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return Metric{Value: NotAvailable}
	}
	raw := text[loc[0]:loc[1]]

	// Prefer the first non-empty capture group as the value; fall back to
	// the whole span for patterns without amounts.
	value := raw
	sub := re.FindStringSubmatch(text)
	for i := 1; i < len(sub); i++ {
		if sub[i] != "" {
			value = normalizeAmount(sub, i)
			break
		}
	}
	return Metric{Value: value, RawText: strings.TrimSpace(raw)}
}

func extractPercent(re *regexp.Regexp, text string) Metric {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return Metric{Value: NotAvailable}
	}
	return Metric{Value: m[1] + "%", RawText: strings.TrimSpace(m[0])}
}

// normalizeAmount renders "$1.5 billion" style captures as "$<n><unit>".
// Capture layout is (amount, unit) pairs; i points at the matched amount.
func normalizeAmount(sub []string, i int) string {
	amount := strings.ReplaceAll(sub[i], ",", "")
	unit := ""
	if i+1 < len(sub) {
		unit = canonicalUnit(sub[i+1])
	}
	if _, err := strconv.ParseFloat(amount, 64); err != nil {
		return sub[i]
	}
	return "$" + amount + unit
}

func canonicalUnit(u string) string {
	switch strings.ToLower(u) {
	case "billion", "b":
		return "B"
	case "million", "m":
		return "M"
	case "trillion", "t":
		return "T"
	}
	return ""
}

func splitCompetitorList(list string) []string {
	list = strings.ReplaceAll(list, " and ", ",")
	parts := strings.Split(list, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(strings.Trim(p, "."))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// summarize keeps the first two sentences of the text as a display summary;
// empty input yields the analysis-pending placeholder.
func summarize(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return AnalysisPending
	}
	sentences := strings.SplitAfterN(text, ". ", 3)
	if len(sentences) <= 2 {
		return text
	}
	return strings.TrimSpace(sentences[0] + sentences[1])
}

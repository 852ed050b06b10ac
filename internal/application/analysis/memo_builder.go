package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/reubenai/dealsense/internal/domain/criteria"
	"github.com/reubenai/dealsense/internal/domain/memo"
	"github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// BuildMemo assembles an IC memo draft for a deal from its latest analysis:
// an executive summary, one section per scored category, and a consolidated
// warnings section when any evidence carried warnings.  The memo is not
// persisted; the caller decides between creating a new memo and refreshing
// an existing one.
//
// A deal with no stored analysis is rescored first, so memo generation is
// always possible once the deal exists.
func (s *Service) BuildMemo(ctx context.Context, dealID common.ID) (*memo.Memo, error) {
	d, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, err
	}

	rec, err := s.analyses.GetByDeal(ctx, dealID)
	if errors.IsNotFound(err) {
		rec, err = s.Rescore(ctx, dealID)
	}
	if err != nil {
		return nil, err
	}

	var categories []criteria.CategoryScore
	if err := json.Unmarshal(rec.Categories, &categories); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "unmarshal category scores")
	}

	sections := make([]memo.Section, 0, len(categories)+2)
	sections = append(sections, memo.Section{
		Title: "Executive Summary",
		Body:  executiveSummary(d.CompanyName, d.Description, rec.OverallScore, rec.Status),
		Score: rec.OverallScore,
	})
	var warnings []string
	for _, cat := range categories {
		sections = append(sections, memo.Section{
			Title: cat.Name,
			Body:  categoryBody(cat),
			Score: cat.Score,
		})
		for _, sub := range cat.Subcategories {
			warnings = append(warnings, sub.Evidence.Warnings...)
		}
	}
	if len(warnings) > 0 {
		sections = append(sections, memo.Section{
			Title: "Risks & Warnings",
			Body:  "- " + strings.Join(dedupe(warnings), "\n- "),
		})
	}

	return &memo.Memo{
		DealID:       d.ID,
		FundID:       d.FundID,
		Title:        "IC Memo: " + d.CompanyName,
		Sections:     sections,
		OverallScore: rec.OverallScore,
		RAG:          rec.RAG,
		Status:       "draft",
	}, nil
}

func executiveSummary(company, description string, score float64, status string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s scored %.1f overall (%s).", company, score, status)
	if description != "" {
		b.WriteString(" ")
		b.WriteString(description)
	}
	return b.String()
}

// categoryBody renders a category's subcategory scores and reasoning as
// plain lines, highest weight first as stored.
func categoryBody(cat criteria.CategoryScore) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("Category score: %.1f (confidence %.0f%%).", cat.Score, cat.Confidence))
	for _, sub := range cat.Subcategories {
		line := fmt.Sprintf("%s: %.1f", sub.Name, sub.Evidence.Score)
		if sub.Evidence.Reasoning != "" {
			line += " - " + sub.Evidence.Reasoning
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

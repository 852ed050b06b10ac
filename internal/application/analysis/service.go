// Package analysis re-scores deals against their fund's criteria template,
// blending industry baselines with persisted enrichment results, and builds
// IC memos from the scored output.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/reubenai/dealsense/internal/application/enrichment"
	"github.com/reubenai/dealsense/internal/domain/baseline"
	"github.com/reubenai/dealsense/internal/domain/criteria"
	"github.com/reubenai/dealsense/internal/domain/deal"
	"github.com/reubenai/dealsense/internal/domain/fund"
	"github.com/reubenai/dealsense/internal/domain/industry"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	"github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// Service recomputes a deal's scores.  Evidence for each criterion comes
// from the industry baseline generator; non-degraded enrichment records for
// the criterion's category raise confidence and extend reasoning.
type Service struct {
	deals       deal.Repository
	funds       fund.Repository
	strategies  fund.StrategyRepository
	enrichments deal.EnrichmentRepository
	analyses    deal.AnalysisRepository
	activity    deal.ActivityRepository
	classifier  *industry.Classifier
	generator   *baseline.Generator
	scorer      *criteria.Scorer
	logger      logging.Logger
}

// NewService wires the re-scoring service.  strategies, enrichments and
// activity may be nil; classifier, generator and scorer fall back to
// defaults when nil.
func NewService(
	deals deal.Repository,
	funds fund.Repository,
	strategies fund.StrategyRepository,
	enrichments deal.EnrichmentRepository,
	analyses deal.AnalysisRepository,
	activity deal.ActivityRepository,
	classifier *industry.Classifier,
	generator *baseline.Generator,
	logger logging.Logger,
) *Service {
	if classifier == nil {
		classifier = industry.NewClassifier(nil)
	}
	if generator == nil {
		generator = baseline.NewGenerator(nil)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{
		deals:       deals,
		funds:       funds,
		strategies:  strategies,
		enrichments: enrichments,
		analyses:    analyses,
		activity:    activity,
		classifier:  classifier,
		generator:   generator,
		scorer:      criteria.NewScorer(),
		logger:      logger.Named("analysis"),
	}
}

// Rescore recomputes and persists the deal's analysis.  Only the deal and
// fund loads are fatal; missing strategy falls back to the fund type's
// default template, and missing enrichment data just means baseline-only
// evidence.
func (s *Service) Rescore(ctx context.Context, dealID common.ID) (*deal.AnalysisRecord, error) {
	d, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, err
	}
	f, err := s.funds.GetByID(ctx, d.FundID)
	if err != nil {
		return nil, err
	}

	tpl, err := s.templateFor(ctx, f)
	if err != nil {
		return nil, err
	}

	lookup := s.evidenceLookup(ctx, d, f.Type)
	score := s.scorer.ScoreTemplate(tpl, lookup)

	rec, err := s.persist(ctx, d, f, score)
	if err != nil {
		return nil, err
	}

	if err := s.deals.UpdateScore(ctx, d.ID, score.OverallScore, score.RAG); err != nil {
		s.logger.Warn("deal score update failed",
			logging.String("deal_id", string(d.ID)), logging.Err(err))
	}
	s.recordActivity(ctx, d.ID, score)

	s.logger.Info("deal rescored",
		logging.String("deal_id", string(d.ID)),
		logging.Float64("overall_score", score.OverallScore),
		logging.String("rag", string(score.RAG)))
	return rec, nil
}

// Latest returns the most recent persisted analysis for a deal.
func (s *Service) Latest(ctx context.Context, dealID common.ID) (*deal.AnalysisRecord, error) {
	return s.analyses.GetByDeal(ctx, dealID)
}

// templateFor resolves the scoring template: the fund's saved strategy, or
// the fund type's default when none has been saved yet.
func (s *Service) templateFor(ctx context.Context, f *fund.Fund) (*criteria.CriteriaTemplate, error) {
	if s.strategies != nil {
		strat, err := s.strategies.GetByFund(ctx, f.ID)
		switch {
		case err == nil:
			return &strat.Template, nil
		case !errors.IsNotFound(err):
			return nil, err
		}
	}
	tpl, ok := criteria.DefaultTemplate(f.Type)
	if !ok {
		return nil, errors.New(errors.ErrCodeFundTypeUnsupported,
			fmt.Sprintf("no default criteria template for fund type %q", f.Type))
	}
	return tpl, nil
}

// evidenceLookup builds the scorer's evidence source for one deal: baseline
// analysis per criterion, boosted by any healthy enrichment record covering
// the criterion's category.
func (s *Service) evidenceLookup(ctx context.Context, d *deal.Deal, ft common.FundType) criteria.EvidenceLookup {
	canonical := d.Industry
	if m := s.classifier.FindBestMatch(d.Industry); m != nil {
		canonical = m.Canonical
	}
	in := baseline.Inputs{
		Description:   d.Description,
		HasFinancials: !d.Financials.Empty(),
	}
	byCategory := s.enrichmentByCategory(ctx, d.ID)

	return func(category, subcategory string) (criteria.Evidence, bool) {
		ev := s.generator.Analyze(canonical, subcategory, ft, in).Evidence()
		if rec, ok := byCategory[category]; ok {
			ev = boostWithEnrichment(ev, rec)
		}
		return ev, true
	}
}

// enrichmentByCategory loads the deal's enrichment records and indexes the
// healthy ones by the criteria category their pack feeds.  Load failures
// degrade to baseline-only evidence.
func (s *Service) enrichmentByCategory(ctx context.Context, dealID common.ID) map[string]*deal.EnrichmentRecord {
	if s.enrichments == nil {
		return nil
	}
	records, err := s.enrichments.GetByDeal(ctx, dealID)
	if err != nil {
		s.logger.Warn("enrichment load failed, scoring on baselines only",
			logging.String("deal_id", string(dealID)), logging.Err(err))
		return nil
	}
	out := make(map[string]*deal.EnrichmentRecord, len(records))
	for _, rec := range records {
		if rec.Degraded {
			continue
		}
		p, ok := enrichment.PackByName(rec.PackName)
		if !ok {
			continue
		}
		// Keep the most confident record per category.
		if cur, exists := out[p.Category]; !exists || rec.Confidence > cur.Confidence {
			out[p.Category] = rec
		}
	}
	return out
}

// boostWithEnrichment folds a healthy enrichment record into a baseline
// evidence tuple.  The score itself stays baseline-driven; research raises
// confidence and is credited in the reasoning.
func boostWithEnrichment(ev criteria.Evidence, rec *deal.EnrichmentRecord) criteria.Evidence {
	if rec.Confidence > ev.Confidence {
		ev.Confidence = rec.Confidence
	}
	credit := "Supported by external research (" + rec.PackName + ")."
	if ev.Reasoning == "" {
		ev.Reasoning = credit
	} else {
		ev.Reasoning += " " + credit
	}
	return ev
}

func (s *Service) persist(ctx context.Context, d *deal.Deal, f *fund.Fund, score criteria.TemplateScore) (*deal.AnalysisRecord, error) {
	categories, err := json.Marshal(score.Categories)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "marshal category scores")
	}
	rec := &deal.AnalysisRecord{
		ID:                common.NewID(),
		DealID:            d.ID,
		FundType:          f.Type,
		OverallScore:      score.OverallScore,
		OverallConfidence: score.OverallConfidence,
		Status:            string(score.Status),
		RAG:               score.RAG,
		Categories:        categories,
		CreatedAt:         common.Now(),
		UpdatedAt:         common.Now(),
	}
	if err := s.analyses.Upsert(ctx, rec); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "persist analysis")
	}
	return rec, nil
}

func (s *Service) recordActivity(ctx context.Context, dealID common.ID, score criteria.TemplateScore) {
	if s.activity == nil {
		return
	}
	ev := &deal.ActivityEvent{
		ID:        common.NewID(),
		DealID:    dealID,
		Kind:      "score_updated",
		Actor:     "system",
		Detail:    fmt.Sprintf("overall score %.1f (%s)", score.OverallScore, score.Status),
		CreatedAt: common.Now(),
	}
	if err := s.activity.Record(ctx, ev); err != nil {
		s.logger.Warn("activity record failed",
			logging.String("deal_id", string(dealID)), logging.Err(err))
	}
}

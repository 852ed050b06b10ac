// Package deal implements the Deal bounded context: the deal aggregate, its
// pipeline-stage state machine, enrichment and analysis result records, and
// the persistence contracts the infrastructure layer fulfils.
package deal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Pipeline stages
// ─────────────────────────────────────────────────────────────────────────────

// Stage is the deal's position in the investment pipeline.
type Stage string

const (
	StageSourced    Stage = "sourced"
	StageScreening  Stage = "screening"
	StageDiligence  Stage = "diligence"
	StageICReview   Stage = "ic_review"
	StageTermSheet  Stage = "term_sheet"
	StageClosed     Stage = "closed"
	StagePassed     Stage = "passed"
)

// allowedTransitions defines the valid next stages reachable from each stage.
//
//	Sourced ──► Screening ──► Diligence ──► ICReview ──► TermSheet ──► Closed
//	   │            │             │            │             │
//	   └────────────┴─────────────┴────────────┴─────────────┴──► Passed
var allowedTransitions = map[Stage][]Stage{
	StageSourced:   {StageScreening, StagePassed},
	StageScreening: {StageDiligence, StagePassed},
	StageDiligence: {StageICReview, StagePassed},
	StageICReview:  {StageTermSheet, StagePassed},
	StageTermSheet: {StageClosed, StagePassed},
	// Terminal stages.
	StageClosed: {},
	StagePassed: {},
}

// Valid reports whether s is a known pipeline stage.
func (s Stage) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// ─────────────────────────────────────────────────────────────────────────────
// Deal aggregate
// ─────────────────────────────────────────────────────────────────────────────

// Financials is the structured financial snapshot attached to a deal.
// All monetary figures are in US dollars.
type Financials struct {
	RevenueUSD       float64 `json:"revenue_usd,omitempty"`
	ARRUSD           float64 `json:"arr_usd,omitempty"`
	GrowthRatePct    float64 `json:"growth_rate_pct,omitempty"`
	GrossMarginPct   float64 `json:"gross_margin_pct,omitempty"`
	MonthlyBurnUSD   float64 `json:"monthly_burn_usd,omitempty"`
	RunwayMonths     float64 `json:"runway_months,omitempty"`
	TotalRaisedUSD   float64 `json:"total_raised_usd,omitempty"`
	LastValuationUSD float64 `json:"last_valuation_usd,omitempty"`
}

// Empty reports whether no financial figure has been supplied.
func (f Financials) Empty() bool {
	return f == Financials{}
}

// Deal is the aggregate root: one investment opportunity under evaluation by
// a fund.
type Deal struct {
	common.BaseEntity

	FundID      common.ID `json:"fund_id"`
	CompanyName string    `json:"company_name"`
	Industry    string    `json:"industry"`
	Stage       Stage     `json:"stage"`
	Description string    `json:"description,omitempty"`
	Website     string    `json:"website,omitempty"`
	Geography   string    `json:"geography,omitempty"`
	FundingStage string   `json:"funding_stage,omitempty"`

	Financials Financials `json:"financials,omitempty"`

	// OverallScore is the latest blended score, denormalised for listing.
	OverallScore float64          `json:"overall_score,omitempty"`
	RAG          common.RAGStatus `json:"rag_status,omitempty"`
}

// Validate checks the aggregate's internal invariants.
func (d *Deal) Validate() error {
	if err := d.FundID.Validate(); err != nil {
		return errors.InvalidParam("fund_id must be a valid UUID")
	}
	if d.CompanyName == "" {
		return errors.InvalidParam("company_name is required")
	}
	if !d.Stage.Valid() {
		return errors.New(errors.ErrCodeDealInvalidStage, string(d.Stage))
	}
	return nil
}

// AdvanceTo moves the deal to the next stage, enforcing the pipeline state
// machine.  Illegal transitions are rejected with a stage error.
func (d *Deal) AdvanceTo(next Stage) error {
	if !next.Valid() {
		return errors.New(errors.ErrCodeDealInvalidStage, string(next))
	}
	for _, allowed := range allowedTransitions[d.Stage] {
		if allowed == next {
			d.Stage = next
			d.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return errors.New(errors.ErrCodeDealInvalidStage,
		"cannot move from "+string(d.Stage)+" to "+string(next))
}

// ─────────────────────────────────────────────────────────────────────────────
// Enrichment and analysis records
// ─────────────────────────────────────────────────────────────────────────────

// EnrichmentRecord is one persisted enrichment-pack result for a deal, keyed
// by (DealID, PackName).  Re-running a pack supersedes the previous record.
type EnrichmentRecord struct {
	ID         common.ID        `json:"id"`
	DealID     common.ID        `json:"deal_id"`
	PackName   string           `json:"pack_name"`
	Data       json.RawMessage  `json:"data"`
	Sources    []string         `json:"sources"`
	Confidence float64          `json:"confidence"`
	Degraded   bool             `json:"degraded"`
	CreatedAt  common.Timestamp `json:"created_at"`
	UpdatedAt  common.Timestamp `json:"updated_at"`
}

// AnalysisRecord is a persisted scored analysis for a deal: category scores,
// overall score and status, serialized as produced by the scorer.
type AnalysisRecord struct {
	ID                common.ID        `json:"id"`
	DealID            common.ID        `json:"deal_id"`
	FundType          common.FundType  `json:"fund_type"`
	OverallScore      float64          `json:"overall_score"`
	OverallConfidence float64          `json:"overall_confidence"`
	Status            string           `json:"status"`
	RAG               common.RAGStatus `json:"rag_status"`
	Categories        json.RawMessage  `json:"categories"`
	CreatedAt         common.Timestamp `json:"created_at"`
	UpdatedAt         common.Timestamp `json:"updated_at"`
}

// ActivityEvent is an audit-trail entry recorded for user and system actions
// against a deal.
type ActivityEvent struct {
	ID        common.ID        `json:"id"`
	DealID    common.ID        `json:"deal_id"`
	Kind      string           `json:"kind"`
	Actor     string           `json:"actor"`
	Detail    string           `json:"detail,omitempty"`
	CreatedAt common.Timestamp `json:"created_at"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Persistence contracts
// ─────────────────────────────────────────────────────────────────────────────

// ListFilter narrows deal listings.
type ListFilter struct {
	FundID   common.ID
	Stage    Stage
	Industry string
	common.Pagination
}

// Repository is the persistence contract for the deal aggregate.
type Repository interface {
	Create(ctx context.Context, d *Deal) error
	GetByID(ctx context.Context, id common.ID) (*Deal, error)
	Update(ctx context.Context, d *Deal) error
	Delete(ctx context.Context, id common.ID) error
	List(ctx context.Context, filter ListFilter) ([]*Deal, int64, error)
	UpdateScore(ctx context.Context, id common.ID, score float64, rag common.RAGStatus) error
}

// EnrichmentRepository persists per-pack enrichment results.
type EnrichmentRepository interface {
	// Upsert inserts or replaces the record keyed by (DealID, PackName).
	Upsert(ctx context.Context, rec *EnrichmentRecord) error
	GetByDeal(ctx context.Context, dealID common.ID) ([]*EnrichmentRecord, error)
	GetByDealAndPack(ctx context.Context, dealID common.ID, packName string) (*EnrichmentRecord, error)
}

// AnalysisRepository persists scored analysis results.
type AnalysisRepository interface {
	Upsert(ctx context.Context, rec *AnalysisRecord) error
	GetByDeal(ctx context.Context, dealID common.ID) (*AnalysisRecord, error)
}

// ActivityRepository records audit-trail events.  Writes are best-effort;
// callers log and continue on failure.
type ActivityRepository interface {
	Record(ctx context.Context, ev *ActivityEvent) error
	ListByDeal(ctx context.Context, dealID common.ID, page common.Pagination) ([]*ActivityEvent, int64, error)
}

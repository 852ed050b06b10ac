// Package fund implements the Fund bounded context: funds, their investment
// strategies, and the criteria-template lifecycle (initialise from defaults,
// edit, validate, persist).
package fund

import (
	"context"

	"github.com/reubenai/dealsense/internal/domain/criteria"
	"github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// Fund is one investment fund evaluating deals on the platform.
type Fund struct {
	common.BaseEntity

	Name string          `json:"name"`
	Type common.FundType `json:"type"`

	// FocusIndustries are the fund's target sectors, matched against deal
	// industries by the classifier.
	FocusIndustries  []string `json:"focus_industries,omitempty"`
	FocusStages      []string `json:"focus_stages,omitempty"`
	FocusGeographies []string `json:"focus_geographies,omitempty"`
}

// Validate checks the fund's invariants.
func (f *Fund) Validate() error {
	if f.Name == "" {
		return errors.InvalidParam("fund name is required")
	}
	if !f.Type.Valid() {
		return errors.New(errors.ErrCodeFundTypeUnsupported, string(f.Type))
	}
	return nil
}

// Strategy is a fund's investment strategy: the criteria template it scores
// deals with, plus the alignment threshold for industry matching.  One fund
// has at most one active strategy.
type Strategy struct {
	common.BaseEntity

	FundID common.ID `json:"fund_id"`

	// Template is the fund's edited criteria template, persisted as a JSON
	// document.
	Template criteria.CriteriaTemplate `json:"template"`

	// MinAlignmentConfidence is the classifier confidence threshold for
	// treating a deal's industry as aligned with the fund's focus.
	MinAlignmentConfidence int `json:"min_alignment_confidence"`
}

// Repository is the persistence contract for funds.
type Repository interface {
	Create(ctx context.Context, f *Fund) error
	GetByID(ctx context.Context, id common.ID) (*Fund, error)
	Update(ctx context.Context, f *Fund) error
	List(ctx context.Context, page common.Pagination) ([]*Fund, int64, error)
}

// StrategyRepository persists investment strategies.
type StrategyRepository interface {
	// Upsert inserts or replaces the fund's strategy.
	Upsert(ctx context.Context, s *Strategy) error
	GetByFund(ctx context.Context, fundID common.ID) (*Strategy, error)
}

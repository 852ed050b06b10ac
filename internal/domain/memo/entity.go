// Package memo implements the investment-committee memo context: the memo
// aggregate, its audit-versioning rules, and persistence contracts.
package memo

import (
	"context"
	"time"

	"github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// Section is one narrative block of an IC memo.
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`

	// Score is the category score backing the section, when one exists.
	Score float64 `json:"score,omitempty"`
}

// Memo is the IC memo aggregate: the current editable document for a deal.
// Every save snapshots the previous content into the version table, so the
// audit trail is append-only while the memo itself is mutable.
type Memo struct {
	common.BaseEntity

	DealID       common.ID        `json:"deal_id"`
	FundID       common.ID        `json:"fund_id"`
	Title        string           `json:"title"`
	Sections     []Section        `json:"sections"`
	OverallScore float64          `json:"overall_score"`
	RAG          common.RAGStatus `json:"rag_status"`
	Version      int              `json:"version"`
	Status       string           `json:"status"` // "draft" | "final"
}

// Validate checks the memo's invariants.
func (m *Memo) Validate() error {
	if err := m.DealID.Validate(); err != nil {
		return errors.InvalidParam("deal_id must be a valid UUID")
	}
	if m.Title == "" {
		return errors.InvalidParam("memo title is required")
	}
	return nil
}

// Snapshot returns an immutable version record of the memo's current state.
func (m *Memo) Snapshot() *Version {
	sections := make([]Section, len(m.Sections))
	copy(sections, m.Sections)
	return &Version{
		ID:           common.NewID(),
		MemoID:       m.ID,
		Version:      m.Version,
		Title:        m.Title,
		Sections:     sections,
		OverallScore: m.OverallScore,
		CreatedAt:    common.Timestamp(time.Now().UTC()),
	}
}

// Version is an immutable snapshot of a memo at one version number.
type Version struct {
	ID           common.ID        `json:"id"`
	MemoID       common.ID        `json:"memo_id"`
	Version      int              `json:"version"`
	Title        string           `json:"title"`
	Sections     []Section        `json:"sections"`
	OverallScore float64          `json:"overall_score"`
	CreatedAt    common.Timestamp `json:"created_at"`
}

// Repository persists memos and their version history.
type Repository interface {
	Create(ctx context.Context, m *Memo) error
	GetByID(ctx context.Context, id common.ID) (*Memo, error)
	GetByDeal(ctx context.Context, dealID common.ID) (*Memo, error)

	// Update persists the memo and appends the given snapshot atomically.
	Update(ctx context.Context, m *Memo, snapshot *Version) error

	ListVersions(ctx context.Context, memoID common.ID) ([]*Version, error)
}

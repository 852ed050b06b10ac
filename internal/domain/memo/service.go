package memo

import (
	"context"
	"time"

	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	"github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// Service implements memo lifecycle use cases.
type Service struct {
	repo   Repository
	logger logging.Logger
}

// NewService wires a memo Service.
func NewService(repo Repository, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{repo: repo, logger: logger.Named("memo")}
}

// Create persists a new draft memo at version 1.
func (s *Service) Create(ctx context.Context, m *Memo) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = common.NewID()
	}
	m.Version = 1
	if m.Status == "" {
		m.Status = "draft"
	}
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	return s.repo.Create(ctx, m)
}

// Get loads one memo by ID.
func (s *Service) Get(ctx context.Context, id common.ID) (*Memo, error) {
	if err := id.Validate(); err != nil {
		return nil, errors.InvalidParam("memo id must be a valid UUID")
	}
	return s.repo.GetByID(ctx, id)
}

// GetByDeal loads the memo for a deal.
func (s *Service) GetByDeal(ctx context.Context, dealID common.ID) (*Memo, error) {
	if err := dealID.Validate(); err != nil {
		return nil, errors.InvalidParam("deal id must be a valid UUID")
	}
	return s.repo.GetByDeal(ctx, dealID)
}

// Save persists edits to a memo, snapshotting the stored state into the
// version history and bumping the version number.
func (s *Service) Save(ctx context.Context, m *Memo) error {
	if err := m.Validate(); err != nil {
		return err
	}

	current, err := s.repo.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}

	snapshot := current.Snapshot()
	m.Version = current.Version + 1
	m.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, m, snapshot); err != nil {
		return err
	}
	s.logger.Info("memo saved",
		logging.String("memo_id", string(m.ID)),
		logging.Int("version", m.Version))
	return nil
}

// History lists the memo's version snapshots, newest first.
func (s *Service) History(ctx context.Context, memoID common.ID) ([]*Version, error) {
	if err := memoID.Validate(); err != nil {
		return nil, errors.InvalidParam("memo id must be a valid UUID")
	}
	return s.repo.ListVersions(ctx, memoID)
}

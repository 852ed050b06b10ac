package deal

import (
	"context"
	"time"

	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	"github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// Service implements deal lifecycle use cases over the repository contracts.
type Service struct {
	repo     Repository
	activity ActivityRepository
	logger   logging.Logger
}

// NewService wires a deal Service.
func NewService(repo Repository, activity ActivityRepository, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{repo: repo, activity: activity, logger: logger.Named("deal")}
}

// Create validates and persists a new deal, starting it at the sourced stage
// unless the caller set one explicitly.
func (s *Service) Create(ctx context.Context, d *Deal) error {
	if d.Stage == "" {
		d.Stage = StageSourced
	}
	if err := d.Validate(); err != nil {
		return err
	}
	if d.ID == "" {
		d.ID = common.NewID()
	}
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now

	if err := s.repo.Create(ctx, d); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "create deal")
	}

	s.recordActivity(ctx, d.ID, "deal.created", "deal created for "+d.CompanyName)
	s.logger.Info("deal created",
		logging.String("deal_id", string(d.ID)),
		logging.String("company", d.CompanyName))
	return nil
}

// Get loads one deal by ID.
func (s *Service) Get(ctx context.Context, id common.ID) (*Deal, error) {
	if err := id.Validate(); err != nil {
		return nil, errors.InvalidParam("deal id must be a valid UUID")
	}
	return s.repo.GetByID(ctx, id)
}

// Update validates and persists edits to an existing deal.
func (s *Service) Update(ctx context.Context, d *Deal) error {
	if err := d.Validate(); err != nil {
		return err
	}
	d.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, d); err != nil {
		return err
	}
	s.recordActivity(ctx, d.ID, "deal.updated", "deal details updated")
	return nil
}

// List returns a page of deals matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Deal, int64, error) {
	filter.Pagination.Normalize()
	return s.repo.List(ctx, filter)
}

// Advance moves a deal to the next pipeline stage.
func (s *Service) Advance(ctx context.Context, id common.ID, next Stage) (*Deal, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := d.Stage
	if err := d.AdvanceTo(next); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	s.recordActivity(ctx, d.ID, "deal.stage_changed",
		"stage moved from "+string(prev)+" to "+string(next))
	return d, nil
}

// Delete removes a deal.
func (s *Service) Delete(ctx context.Context, id common.ID) error {
	if err := id.Validate(); err != nil {
		return errors.InvalidParam("deal id must be a valid UUID")
	}
	return s.repo.Delete(ctx, id)
}

// recordActivity writes an audit event.  Activity writes are best-effort:
// a failed audit entry must never fail the business operation.
func (s *Service) recordActivity(ctx context.Context, dealID common.ID, kind, detail string) {
	if s.activity == nil {
		return
	}
	ev := &ActivityEvent{
		ID:        common.NewID(),
		DealID:    dealID,
		Kind:      kind,
		Actor:     "system",
		Detail:    detail,
		CreatedAt: common.Now(),
	}
	if err := s.activity.Record(ctx, ev); err != nil {
		s.logger.Warn("activity record failed",
			logging.String("deal_id", string(dealID)),
			logging.String("kind", kind),
			logging.Err(err))
	}
}

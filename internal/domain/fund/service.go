package fund

import (
	"context"
	"time"

	"github.com/reubenai/dealsense/internal/domain/criteria"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	"github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// DefaultMinAlignmentConfidence is applied to strategies that never set an
// explicit threshold.
const DefaultMinAlignmentConfidence = 70

// Service implements fund and strategy use cases.
type Service struct {
	funds      Repository
	strategies StrategyRepository
	validator  *criteria.Validator
	logger     logging.Logger
}

// NewService wires a fund Service.
func NewService(funds Repository, strategies StrategyRepository, validator *criteria.Validator, logger logging.Logger) *Service {
	if validator == nil {
		validator = criteria.NewValidator(criteria.DefaultTolerance)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{
		funds:      funds,
		strategies: strategies,
		validator:  validator,
		logger:     logger.Named("fund"),
	}
}

// Create validates and persists a new fund.
func (s *Service) Create(ctx context.Context, f *Fund) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.ID == "" {
		f.ID = common.NewID()
	}
	now := time.Now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now
	return s.funds.Create(ctx, f)
}

// Get loads one fund by ID.
func (s *Service) Get(ctx context.Context, id common.ID) (*Fund, error) {
	if err := id.Validate(); err != nil {
		return nil, errors.InvalidParam("fund id must be a valid UUID")
	}
	return s.funds.GetByID(ctx, id)
}

// List returns a page of funds.
func (s *Service) List(ctx context.Context, page common.Pagination) ([]*Fund, int64, error) {
	page.Normalize()
	return s.funds.List(ctx, page)
}

// InitStrategy creates a strategy for the fund from the default template of
// its fund type.  Existing strategies are not overwritten.
func (s *Service) InitStrategy(ctx context.Context, fundID common.ID) (*Strategy, error) {
	f, err := s.funds.GetByID(ctx, fundID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.strategies.GetByFund(ctx, fundID); err == nil && existing != nil {
		return existing, nil
	} else if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}

	tpl, ok := criteria.DefaultTemplate(f.Type)
	if !ok {
		return nil, errors.New(errors.ErrCodeFundTypeUnsupported, string(f.Type))
	}

	strategy := &Strategy{
		FundID:                 fundID,
		Template:               *tpl,
		MinAlignmentConfidence: DefaultMinAlignmentConfidence,
	}
	strategy.ID = common.NewID()
	now := time.Now().UTC()
	strategy.CreatedAt, strategy.UpdatedAt = now, now

	if err := s.strategies.Upsert(ctx, strategy); err != nil {
		return nil, err
	}
	s.logger.Info("strategy initialised",
		logging.String("fund_id", string(fundID)),
		logging.String("fund_type", string(f.Type)))
	return strategy, nil
}

// GetStrategy loads the fund's strategy.
func (s *Service) GetStrategy(ctx context.Context, fundID common.ID) (*Strategy, error) {
	if err := fundID.Validate(); err != nil {
		return nil, errors.InvalidParam("fund id must be a valid UUID")
	}
	return s.strategies.GetByFund(ctx, fundID)
}

// SaveStrategy validates the edited template's weights and persists the
// strategy.  Weight violations come back as a ValidationResult value inside
// the error detail, never as a panic or silent save.
func (s *Service) SaveStrategy(ctx context.Context, strategy *Strategy) (criteria.ValidationResult, error) {
	result := s.validator.ValidateTemplate(&strategy.Template)
	if !result.IsValid {
		return result, nil
	}
	if strategy.MinAlignmentConfidence <= 0 {
		strategy.MinAlignmentConfidence = DefaultMinAlignmentConfidence
	}
	strategy.UpdatedAt = time.Now().UTC()
	if err := s.strategies.Upsert(ctx, strategy); err != nil {
		return result, err
	}
	return result, nil
}

// ValidateTemplate runs the weight validator without persisting anything.
// Used by the UI's "validate" action.
func (s *Service) ValidateTemplate(tpl *criteria.CriteriaTemplate) criteria.ValidationResult {
	return s.validator.ValidateTemplate(tpl)
}

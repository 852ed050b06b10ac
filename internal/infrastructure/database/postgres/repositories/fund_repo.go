package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/reubenai/dealsense/internal/domain/fund"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	appErrors "github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// FundRepository is the PostgreSQL implementation of fund.Repository.
type FundRepository struct {
	db     *sql.DB
	logger logging.Logger
}

// NewFundRepository constructs a ready-to-use FundRepository.
func NewFundRepository(db *sql.DB, logger logging.Logger) *FundRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &FundRepository{db: db, logger: logger}
}

const fundColumns = `id, name, fund_type, focus_industries, focus_stages,
	focus_geographies, created_at, updated_at`

// Create inserts a new fund row.  Focus lists are stored as JSONB.
func (r *FundRepository) Create(ctx context.Context, f *fund.Fund) error {
	industries, stages, geographies, err := marshalFocus(f)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO funds (
			id, name, fund_type, focus_industries, focus_stages,
			focus_geographies, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		f.ID, f.Name, f.Type, industries, stages, geographies,
		f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "insert fund")
	}
	return nil
}

// GetByID loads one fund.
func (r *FundRepository) GetByID(ctx context.Context, id common.ID) (*fund.Fund, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+fundColumns+` FROM funds WHERE id = $1`, id)

	f, err := scanFund(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.New(appErrors.ErrCodeFundNotFound,
			fmt.Sprintf("fund %s not found", id))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "query fund")
	}
	return f, nil
}

// Update rewrites a fund's mutable columns.
func (r *FundRepository) Update(ctx context.Context, f *fund.Fund) error {
	industries, stages, geographies, err := marshalFocus(f)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE funds SET
			name = $2, fund_type = $3, focus_industries = $4,
			focus_stages = $5, focus_geographies = $6, updated_at = $7
		WHERE id = $1`,
		f.ID, f.Name, f.Type, industries, stages, geographies, time.Now().UTC(),
	)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "update fund")
	}
	return requireRow(res, appErrors.ErrCodeFundNotFound, string(f.ID))
}

// List returns a page of funds ordered by creation time.
func (r *FundRepository) List(ctx context.Context, page common.Pagination) ([]*fund.Fund, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM funds`).Scan(&total); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "count funds")
	}

	page.Normalize()
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+fundColumns+` FROM funds ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		page.PageSize, page.Offset(),
	)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "list funds")
	}
	defer rows.Close()

	var funds []*fund.Fund
	for rows.Next() {
		f, err := scanFund(rows)
		if err != nil {
			return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "scan fund")
		}
		funds = append(funds, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "iterate funds")
	}
	return funds, total, nil
}

func marshalFocus(f *fund.Fund) (industries, stages, geographies []byte, err error) {
	if industries, err = json.Marshal(f.FocusIndustries); err == nil {
		if stages, err = json.Marshal(f.FocusStages); err == nil {
			geographies, err = json.Marshal(f.FocusGeographies)
		}
	}
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrCodeSerialization, "marshal fund focus lists")
	}
	return industries, stages, geographies, nil
}

func scanFund(row rowScanner) (*fund.Fund, error) {
	var (
		f           fund.Fund
		industries  []byte
		stages      []byte
		geographies []byte
		createdAt   time.Time
		updatedAt   time.Time
	)
	err := row.Scan(
		&f.ID, &f.Name, &f.Type, &industries, &stages, &geographies,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	for _, pair := range []struct {
		raw  []byte
		dest *[]string
	}{
		{industries, &f.FocusIndustries},
		{stages, &f.FocusStages},
		{geographies, &f.FocusGeographies},
	} {
		if len(pair.raw) > 0 {
			if err := json.Unmarshal(pair.raw, pair.dest); err != nil {
				return nil, err
			}
		}
	}
	f.CreatedAt = createdAt
	f.UpdatedAt = updatedAt
	return &f, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// StrategyRepository
// ─────────────────────────────────────────────────────────────────────────────

// StrategyRepository persists investment strategies, keyed one-per-fund.
// The criteria template travels as a JSONB document.
type StrategyRepository struct {
	db     *sql.DB
	logger logging.Logger
}

// NewStrategyRepository constructs a ready-to-use StrategyRepository.
func NewStrategyRepository(db *sql.DB, logger logging.Logger) *StrategyRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &StrategyRepository{db: db, logger: logger}
}

// Upsert inserts or replaces the fund's strategy.
func (r *StrategyRepository) Upsert(ctx context.Context, s *fund.Strategy) error {
	template, err := json.Marshal(s.Template)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "marshal criteria template")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO investment_strategies (
			id, fund_id, template, min_alignment_confidence, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (fund_id) DO UPDATE SET
			template = EXCLUDED.template,
			min_alignment_confidence = EXCLUDED.min_alignment_confidence,
			updated_at = EXCLUDED.updated_at`,
		s.ID, s.FundID, template, s.MinAlignmentConfidence,
		s.CreatedAt, time.Now().UTC(),
	)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "upsert strategy")
	}
	return nil
}

// GetByFund loads the fund's strategy.
func (r *StrategyRepository) GetByFund(ctx context.Context, fundID common.ID) (*fund.Strategy, error) {
	var (
		s         fund.Strategy
		template  []byte
		createdAt time.Time
		updatedAt time.Time
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, fund_id, template, min_alignment_confidence, created_at, updated_at
		FROM investment_strategies WHERE fund_id = $1`, fundID).
		Scan(&s.ID, &s.FundID, &template, &s.MinAlignmentConfidence, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.New(appErrors.ErrCodeStrategyNotFound,
			fmt.Sprintf("no strategy for fund %s", fundID))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "query strategy")
	}
	if err := json.Unmarshal(template, &s.Template); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeSerialization, "unmarshal criteria template")
	}
	s.CreatedAt = createdAt
	s.UpdatedAt = updatedAt
	return &s, nil
}

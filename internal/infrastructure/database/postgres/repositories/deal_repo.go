// Package repositories provides PostgreSQL-backed implementations of the
// domain repository interfaces, over database/sql with the pgx stdlib driver.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reubenai/dealsense/internal/domain/deal"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	appErrors "github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// DealRepository is the PostgreSQL implementation of deal.Repository.  Every
// method uses parameterised queries exclusively.
type DealRepository struct {
	db     *sql.DB
	logger logging.Logger
}

// NewDealRepository constructs a ready-to-use DealRepository.
func NewDealRepository(db *sql.DB, logger logging.Logger) *DealRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DealRepository{db: db, logger: logger}
}

const dealColumns = `id, fund_id, company_name, industry, stage, description,
	website, geography, funding_stage, financials, overall_score, rag_status,
	created_at, updated_at`

// Create inserts a new deal row.
func (r *DealRepository) Create(ctx context.Context, d *deal.Deal) error {
	financials, err := json.Marshal(d.Financials)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "marshal financials")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO deals (
			id, fund_id, company_name, industry, stage, description,
			website, geography, funding_stage, financials, overall_score,
			rag_status, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		d.ID, d.FundID, d.CompanyName, d.Industry, d.Stage, d.Description,
		d.Website, d.Geography, d.FundingStage, financials, d.OverallScore,
		d.RAG, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "insert deal")
	}
	return nil
}

// GetByID loads one deal.
func (r *DealRepository) GetByID(ctx context.Context, id common.ID) (*deal.Deal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE id = $1`, id)

	d, err := scanDeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.New(appErrors.ErrCodeDealNotFound,
			fmt.Sprintf("deal %s not found", id))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "query deal")
	}
	return d, nil
}

// Update rewrites every mutable column of an existing deal.
func (r *DealRepository) Update(ctx context.Context, d *deal.Deal) error {
	financials, err := json.Marshal(d.Financials)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "marshal financials")
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE deals SET
			company_name = $2, industry = $3, stage = $4, description = $5,
			website = $6, geography = $7, funding_stage = $8, financials = $9,
			overall_score = $10, rag_status = $11, updated_at = $12
		WHERE id = $1`,
		d.ID, d.CompanyName, d.Industry, d.Stage, d.Description,
		d.Website, d.Geography, d.FundingStage, financials,
		d.OverallScore, d.RAG, time.Now().UTC(),
	)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "update deal")
	}
	return requireRow(res, appErrors.ErrCodeDealNotFound, string(d.ID))
}

// Delete removes a deal row.
func (r *DealRepository) Delete(ctx context.Context, id common.ID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE id = $1`, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "delete deal")
	}
	return requireRow(res, appErrors.ErrCodeDealNotFound, string(id))
}

// List returns a filtered page of deals plus the unfiltered-by-page total.
func (r *DealRepository) List(ctx context.Context, filter deal.ListFilter) ([]*deal.Deal, int64, error) {
	where, args := dealFilterClauses(filter)

	var total int64
	countQuery := `SELECT COUNT(*) FROM deals` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "count deals")
	}

	page := filter.Pagination
	page.Normalize()
	query := `SELECT ` + dealColumns + ` FROM deals` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, page.PageSize, page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "list deals")
	}
	defer rows.Close()

	var deals []*deal.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "scan deal")
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "iterate deals")
	}
	return deals, total, nil
}

// UpdateScore writes only the scoring columns, used by the re-scoring
// pipeline so concurrent edits to other fields are not clobbered.
func (r *DealRepository) UpdateScore(ctx context.Context, id common.ID, score float64, rag common.RAGStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE deals SET overall_score = $2, rag_status = $3, updated_at = $4
		WHERE id = $1`,
		id, score, rag, time.Now().UTC(),
	)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "update deal score")
	}
	return requireRow(res, appErrors.ErrCodeDealNotFound, string(id))
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning helpers
// ─────────────────────────────────────────────────────────────────────────────

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDeal(row rowScanner) (*deal.Deal, error) {
	var (
		d          deal.Deal
		financials []byte
		createdAt  time.Time
		updatedAt  time.Time
	)
	err := row.Scan(
		&d.ID, &d.FundID, &d.CompanyName, &d.Industry, &d.Stage, &d.Description,
		&d.Website, &d.Geography, &d.FundingStage, &financials, &d.OverallScore,
		&d.RAG, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(financials) > 0 {
		if err := json.Unmarshal(financials, &d.Financials); err != nil {
			return nil, err
		}
	}
	d.CreatedAt = createdAt
	d.UpdatedAt = updatedAt
	return &d, nil
}

func dealFilterClauses(filter deal.ListFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.FundID != "" {
		add("fund_id = $%d", filter.FundID)
	}
	if filter.Stage != "" {
		add("stage = $%d", filter.Stage)
	}
	if filter.Industry != "" {
		add("industry = $%d", filter.Industry)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// requireRow converts a zero-row write into a not-found error.
func requireRow(res sql.Result, code appErrors.ErrorCode, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "rows affected")
	}
	if n == 0 {
		return appErrors.New(code, fmt.Sprintf("%s: %s", appErrors.DefaultMessageForCode(code), id))
	}
	return nil
}

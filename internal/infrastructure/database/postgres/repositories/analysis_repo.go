package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/reubenai/dealsense/internal/domain/deal"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	appErrors "github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// AnalysisRepository persists scored analysis results in the
// deal_analysisresult_vc table, one current row per deal.
type AnalysisRepository struct {
	db     *sql.DB
	logger logging.Logger
}

// NewAnalysisRepository constructs a ready-to-use AnalysisRepository.
func NewAnalysisRepository(db *sql.DB, logger logging.Logger) *AnalysisRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AnalysisRepository{db: db, logger: logger}
}

// Upsert inserts or replaces the deal's analysis result.
func (r *AnalysisRepository) Upsert(ctx context.Context, rec *deal.AnalysisRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO deal_analysisresult_vc (
			id, deal_id, fund_type, overall_score, overall_confidence,
			status, rag_status, categories, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (deal_id) DO UPDATE SET
			fund_type = EXCLUDED.fund_type,
			overall_score = EXCLUDED.overall_score,
			overall_confidence = EXCLUDED.overall_confidence,
			status = EXCLUDED.status,
			rag_status = EXCLUDED.rag_status,
			categories = EXCLUDED.categories,
			updated_at = EXCLUDED.updated_at`,
		rec.ID, rec.DealID, rec.FundType, rec.OverallScore, rec.OverallConfidence,
		rec.Status, rec.RAG, []byte(rec.Categories),
		time.Time(rec.CreatedAt), time.Now().UTC(),
	)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "upsert analysis result")
	}
	return nil
}

// GetByDeal returns the deal's current analysis result.
func (r *AnalysisRepository) GetByDeal(ctx context.Context, dealID common.ID) (*deal.AnalysisRecord, error) {
	var (
		rec        deal.AnalysisRecord
		categories []byte
		createdAt  time.Time
		updatedAt  time.Time
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, deal_id, fund_type, overall_score, overall_confidence,
		       status, rag_status, categories, created_at, updated_at
		FROM deal_analysisresult_vc WHERE deal_id = $1`, dealID).
		Scan(&rec.ID, &rec.DealID, &rec.FundType, &rec.OverallScore,
			&rec.OverallConfidence, &rec.Status, &rec.RAG, &categories,
			&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.New(appErrors.ErrCodeAnalysisResultMissing,
			fmt.Sprintf("no analysis for deal %s", dealID))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "query analysis result")
	}
	rec.Categories = json.RawMessage(categories)
	rec.CreatedAt = common.Timestamp(createdAt)
	rec.UpdatedAt = common.Timestamp(updatedAt)
	return &rec, nil
}

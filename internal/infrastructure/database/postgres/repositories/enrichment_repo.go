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

// EnrichmentRepository persists per-pack enrichment results in the
// deal_analysis_sources table, keyed (deal_id, pack_name).  Re-running a
// pack supersedes the previous row rather than appending.
type EnrichmentRepository struct {
	db     *sql.DB
	logger logging.Logger
}

// NewEnrichmentRepository constructs a ready-to-use EnrichmentRepository.
func NewEnrichmentRepository(db *sql.DB, logger logging.Logger) *EnrichmentRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &EnrichmentRepository{db: db, logger: logger}
}

const enrichmentColumns = `id, deal_id, pack_name, data, sources, confidence,
	degraded, created_at, updated_at`

// Upsert inserts or replaces the record for (deal, pack).
func (r *EnrichmentRepository) Upsert(ctx context.Context, rec *deal.EnrichmentRecord) error {
	sources, err := json.Marshal(rec.Sources)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "marshal sources")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO deal_analysis_sources (
			id, deal_id, pack_name, data, sources, confidence, degraded,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (deal_id, pack_name) DO UPDATE SET
			data = EXCLUDED.data,
			sources = EXCLUDED.sources,
			confidence = EXCLUDED.confidence,
			degraded = EXCLUDED.degraded,
			updated_at = EXCLUDED.updated_at`,
		rec.ID, rec.DealID, rec.PackName, []byte(rec.Data), sources,
		rec.Confidence, rec.Degraded, time.Time(rec.CreatedAt), time.Now().UTC(),
	)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "upsert enrichment record")
	}
	return nil
}

// GetByDeal returns every pack record for a deal, newest first.
func (r *EnrichmentRepository) GetByDeal(ctx context.Context, dealID common.ID) ([]*deal.EnrichmentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+enrichmentColumns+` FROM deal_analysis_sources
		 WHERE deal_id = $1 ORDER BY updated_at DESC`, dealID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "query enrichment records")
	}
	defer rows.Close()

	var records []*deal.EnrichmentRecord
	for rows.Next() {
		rec, err := scanEnrichment(rows)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "scan enrichment record")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "iterate enrichment records")
	}
	return records, nil
}

// GetByDealAndPack returns one pack's record for a deal.
func (r *EnrichmentRepository) GetByDealAndPack(ctx context.Context, dealID common.ID, packName string) (*deal.EnrichmentRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+enrichmentColumns+` FROM deal_analysis_sources
		 WHERE deal_id = $1 AND pack_name = $2`, dealID, packName)

	rec, err := scanEnrichment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.New(appErrors.ErrCodeNotFound,
			fmt.Sprintf("no %s enrichment for deal %s", packName, dealID))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "query enrichment record")
	}
	return rec, nil
}

func scanEnrichment(row rowScanner) (*deal.EnrichmentRecord, error) {
	var (
		rec       deal.EnrichmentRecord
		data      []byte
		sources   []byte
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(
		&rec.ID, &rec.DealID, &rec.PackName, &data, &sources,
		&rec.Confidence, &rec.Degraded, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Data = json.RawMessage(data)
	if len(sources) > 0 {
		if err := json.Unmarshal(sources, &rec.Sources); err != nil {
			return nil, err
		}
	}
	rec.CreatedAt = common.Timestamp(createdAt)
	rec.UpdatedAt = common.Timestamp(updatedAt)
	return &rec, nil
}

package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/reubenai/dealsense/internal/application/export"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	appErrors "github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// ExportRepository tracks IC packet exports in ic_packet_exports.
type ExportRepository struct {
	db     *sql.DB
	logger logging.Logger
}

// NewExportRepository constructs a ready-to-use ExportRepository.
func NewExportRepository(db *sql.DB, logger logging.Logger) *ExportRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ExportRepository{db: db, logger: logger}
}

// Create appends one export record.
func (r *ExportRepository) Create(ctx context.Context, rec *export.Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ic_packet_exports (
			id, deal_id, memo_id, object_key, url, size_bytes, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rec.ID, rec.DealID, rec.MemoID, rec.ObjectKey, rec.URL,
		rec.SizeBytes, time.Time(rec.CreatedAt),
	)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "insert export record")
	}
	return nil
}

// ListByDeal returns a deal's exports, newest first.
func (r *ExportRepository) ListByDeal(ctx context.Context, dealID common.ID) ([]*export.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, deal_id, memo_id, object_key, url, size_bytes, created_at
		FROM ic_packet_exports WHERE deal_id = $1 ORDER BY created_at DESC`, dealID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "list export records")
	}
	defer rows.Close()

	var records []*export.Record
	for rows.Next() {
		var (
			rec       export.Record
			createdAt time.Time
		)
		if err := rows.Scan(&rec.ID, &rec.DealID, &rec.MemoID, &rec.ObjectKey,
			&rec.URL, &rec.SizeBytes, &createdAt); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "scan export record")
		}
		rec.CreatedAt = common.Timestamp(createdAt)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "iterate export records")
	}
	return records, nil
}

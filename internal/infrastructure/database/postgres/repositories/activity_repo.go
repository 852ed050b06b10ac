package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/reubenai/dealsense/internal/domain/deal"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	appErrors "github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// ActivityRepository appends audit-trail events to the activity_events
// table.  The table is append-only; events are never updated or deleted.
type ActivityRepository struct {
	db     *sql.DB
	logger logging.Logger
}

// NewActivityRepository constructs a ready-to-use ActivityRepository.
func NewActivityRepository(db *sql.DB, logger logging.Logger) *ActivityRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ActivityRepository{db: db, logger: logger}
}

// Record appends one event.
func (r *ActivityRepository) Record(ctx context.Context, ev *deal.ActivityEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_events (id, deal_id, kind, actor, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		ev.ID, ev.DealID, ev.Kind, ev.Actor, ev.Detail, time.Time(ev.CreatedAt),
	)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "insert activity event")
	}
	return nil
}

// ListByDeal returns a page of the deal's events, newest first.
func (r *ActivityRepository) ListByDeal(ctx context.Context, dealID common.ID, page common.Pagination) ([]*deal.ActivityEvent, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activity_events WHERE deal_id = $1`, dealID).
		Scan(&total); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "count activity events")
	}

	page.Normalize()
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, deal_id, kind, actor, detail, created_at
		FROM activity_events WHERE deal_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		dealID, page.PageSize, page.Offset(),
	)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "list activity events")
	}
	defer rows.Close()

	var events []*deal.ActivityEvent
	for rows.Next() {
		var (
			ev        deal.ActivityEvent
			createdAt time.Time
		)
		if err := rows.Scan(&ev.ID, &ev.DealID, &ev.Kind, &ev.Actor, &ev.Detail, &createdAt); err != nil {
			return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "scan activity event")
		}
		ev.CreatedAt = common.Timestamp(createdAt)
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "iterate activity events")
	}
	return events, total, nil
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/reubenai/dealsense/internal/application/enrichment"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	appErrors "github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// OpsRepository backs the ops kill-switch table and provider cost tracking.
// It satisfies both enrichment.Switches and enrichment.CostTracker.
type OpsRepository struct {
	db     *sql.DB
	logger logging.Logger
}

// NewOpsRepository constructs a ready-to-use OpsRepository.
func NewOpsRepository(db *sql.DB, logger logging.Logger) *OpsRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &OpsRepository{db: db, logger: logger}
}

// Enabled reports a switch's state.  A switch with no row is enabled; only
// an explicit off row blocks.
func (r *OpsRepository) Enabled(ctx context.Context, name string) (bool, error) {
	var enabled bool
	err := r.db.QueryRowContext(ctx,
		`SELECT enabled FROM ops_control_switches WHERE name = $1`, name).
		Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "query ops switch")
	}
	return enabled, nil
}

// SetSwitch creates or flips a switch.
func (r *OpsRepository) SetSwitch(ctx context.Context, name string, enabled bool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ops_control_switches (name, enabled, updated_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (name) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			updated_at = EXCLUDED.updated_at`,
		name, enabled, time.Now().UTC(),
	)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "set ops switch")
	}
	return nil
}

// Record appends one provider-call cost row.
func (r *OpsRepository) Record(ctx context.Context, rec enrichment.CostRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analysis_cost_tracking (
			id, deal_id, pack_name, provider, model, tokens_used, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		common.NewID(), rec.DealID, rec.PackName, rec.Provider, rec.Model,
		rec.TokensUsed, time.Now().UTC(),
	)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "insert cost record")
	}
	return nil
}

// TokensByProvider sums recorded token usage per provider for one deal.
func (r *OpsRepository) TokensByProvider(ctx context.Context, dealID common.ID) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT provider, COALESCE(SUM(tokens_used), 0)
		FROM analysis_cost_tracking WHERE deal_id = $1 GROUP BY provider`, dealID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "query cost totals")
	}
	defer rows.Close()

	totals := make(map[string]int64)
	for rows.Next() {
		var (
			provider string
			tokens   int64
		)
		if err := rows.Scan(&provider, &tokens); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "scan cost total")
		}
		totals[provider] = tokens
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "iterate cost totals")
	}
	return totals, nil
}

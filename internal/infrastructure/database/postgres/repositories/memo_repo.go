package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/reubenai/dealsense/internal/domain/memo"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	appErrors "github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// MemoRepository persists IC memos in ic_memos with immutable snapshots in
// ic_memo_versions.  Update writes both inside one transaction so the memo
// and its history cannot drift.
type MemoRepository struct {
	db     *sql.DB
	logger logging.Logger
}

// NewMemoRepository constructs a ready-to-use MemoRepository.
func NewMemoRepository(db *sql.DB, logger logging.Logger) *MemoRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &MemoRepository{db: db, logger: logger}
}

const memoColumns = `id, deal_id, fund_id, title, sections, overall_score,
	rag_status, version, status, created_at, updated_at`

// Create inserts a new memo at version 1.
func (r *MemoRepository) Create(ctx context.Context, m *memo.Memo) error {
	sections, err := json.Marshal(m.Sections)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "marshal memo sections")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO ic_memos (
			id, deal_id, fund_id, title, sections, overall_score,
			rag_status, version, status, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		m.ID, m.DealID, m.FundID, m.Title, sections, m.OverallScore,
		m.RAG, m.Version, m.Status, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "insert memo")
	}
	return nil
}

// GetByID loads one memo.
func (r *MemoRepository) GetByID(ctx context.Context, id common.ID) (*memo.Memo, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+memoColumns+` FROM ic_memos WHERE id = $1`, id)
	return r.scanMemoRow(row, fmt.Sprintf("memo %s not found", id))
}

// GetByDeal loads the deal's current memo.
func (r *MemoRepository) GetByDeal(ctx context.Context, dealID common.ID) (*memo.Memo, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+memoColumns+` FROM ic_memos WHERE deal_id = $1`, dealID)
	return r.scanMemoRow(row, fmt.Sprintf("no memo for deal %s", dealID))
}

// Update rewrites the memo and appends the snapshot in one transaction.
func (r *MemoRepository) Update(ctx context.Context, m *memo.Memo, snapshot *memo.Version) error {
	sections, err := json.Marshal(m.Sections)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "marshal memo sections")
	}
	snapSections, err := json.Marshal(snapshot.Sections)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "marshal snapshot sections")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "begin memo transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
		UPDATE ic_memos SET
			title = $2, sections = $3, overall_score = $4, rag_status = $5,
			version = $6, status = $7, updated_at = $8
		WHERE id = $1`,
		m.ID, m.Title, sections, m.OverallScore, m.RAG,
		m.Version, m.Status, time.Now().UTC(),
	)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "update memo")
	}
	if err := requireRow(res, appErrors.ErrCodeMemoNotFound, string(m.ID)); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ic_memo_versions (
			id, memo_id, version, title, sections, overall_score, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		snapshot.ID, snapshot.MemoID, snapshot.Version, snapshot.Title,
		snapSections, snapshot.OverallScore, time.Time(snapshot.CreatedAt),
	)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "insert memo version")
	}

	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "commit memo transaction")
	}
	return nil
}

// ListVersions returns the memo's snapshots, newest version first.
func (r *MemoRepository) ListVersions(ctx context.Context, memoID common.ID) ([]*memo.Version, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, memo_id, version, title, sections, overall_score, created_at
		FROM ic_memo_versions WHERE memo_id = $1 ORDER BY version DESC`, memoID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "list memo versions")
	}
	defer rows.Close()

	var versions []*memo.Version
	for rows.Next() {
		var (
			v         memo.Version
			sections  []byte
			createdAt time.Time
		)
		if err := rows.Scan(&v.ID, &v.MemoID, &v.Version, &v.Title,
			&sections, &v.OverallScore, &createdAt); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "scan memo version")
		}
		if len(sections) > 0 {
			if err := json.Unmarshal(sections, &v.Sections); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrCodeSerialization, "unmarshal snapshot sections")
			}
		}
		v.CreatedAt = common.Timestamp(createdAt)
		versions = append(versions, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "iterate memo versions")
	}
	return versions, nil
}

func (r *MemoRepository) scanMemoRow(row rowScanner, notFoundMsg string) (*memo.Memo, error) {
	var (
		m         memo.Memo
		sections  []byte
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(
		&m.ID, &m.DealID, &m.FundID, &m.Title, &sections, &m.OverallScore,
		&m.RAG, &m.Version, &m.Status, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.New(appErrors.ErrCodeMemoNotFound, notFoundMsg)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "query memo")
	}
	if len(sections) > 0 {
		if err := json.Unmarshal(sections, &m.Sections); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeSerialization, "unmarshal memo sections")
		}
	}
	m.CreatedAt = createdAt
	m.UpdatedAt = updatedAt
	return &m, nil
}

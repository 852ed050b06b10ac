package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reubenai/dealsense/internal/domain/fund"
	"github.com/reubenai/dealsense/internal/domain/memo"
	"github.com/reubenai/dealsense/internal/infrastructure/database/postgres/repositories"
	"github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

func TestMemoRepositoryUpdateIsTransactional(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := repositories.NewMemoRepository(db, nil)

	m := &memo.Memo{
		BaseEntity: common.BaseEntity{ID: common.NewID()},
		DealID:     common.NewID(),
		FundID:     common.NewID(),
		Title:      "IC Memo: Acme",
		Sections:   []memo.Section{{Title: "Executive Summary", Body: "..."}},
		Version:    2,
		Status:     "draft",
	}
	snapshot := &memo.Version{
		ID:        common.NewID(),
		MemoID:    m.ID,
		Version:   1,
		Title:     m.Title,
		CreatedAt: common.Now(),
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE ic_memos SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO ic_memo_versions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), m, snapshot))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoRepositoryUpdateMissingMemoRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := repositories.NewMemoRepository(db, nil)

	m := &memo.Memo{
		BaseEntity: common.BaseEntity{ID: common.NewID()},
		DealID:     common.NewID(),
		FundID:     common.NewID(),
		Title:      "IC Memo: Acme",
		Version:    2,
	}
	snapshot := m.Snapshot()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE ic_memos SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = repo.Update(context.Background(), m, snapshot)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStrategyRepositoryRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := repositories.NewStrategyRepository(db, nil)

	fundID := common.NewID()
	s := &fund.Strategy{
		BaseEntity:             common.BaseEntity{ID: common.NewID(), CreatedAt: time.Now().UTC()},
		FundID:                 fundID,
		MinAlignmentConfidence: 70,
	}

	mock.ExpectExec(`INSERT INTO investment_strategies .+ ON CONFLICT \(fund_id\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Upsert(context.Background(), s))

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT .+ FROM investment_strategies WHERE fund_id = \$1`).
		WithArgs(fundID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "fund_id", "template", "min_alignment_confidence",
			"created_at", "updated_at",
		}).AddRow(s.ID, fundID, []byte(`{"name":"VC Default"}`), 70, now, now))

	got, err := repo.GetByFund(context.Background(), fundID)
	require.NoError(t, err)
	assert.Equal(t, fundID, got.FundID)
	assert.Equal(t, 70, got.MinAlignmentConfidence)
	assert.Equal(t, "VC Default", got.Template.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

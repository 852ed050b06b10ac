package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reubenai/dealsense/internal/application/export"
	"github.com/reubenai/dealsense/internal/infrastructure/database/postgres/repositories"
	"github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

func TestExportRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := repositories.NewExportRepository(db, nil)

	rec := &export.Record{
		ID:        common.NewID(),
		DealID:    common.NewID(),
		MemoID:    common.NewID(),
		ObjectKey: "packets/abc/1700000000.json",
		URL:       "https://minio.local/presigned",
		SizeBytes: 2048,
		CreatedAt: common.Now(),
	}

	mock.ExpectExec(`INSERT INTO ic_packet_exports`).
		WithArgs(rec.ID, rec.DealID, rec.MemoID, rec.ObjectKey, rec.URL,
			rec.SizeBytes, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportRepositoryListByDeal(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := repositories.NewExportRepository(db, nil)

	dealID := common.NewID()
	newer := time.Now().UTC()
	older := newer.Add(-time.Hour)

	rows := sqlmock.NewRows([]string{
		"id", "deal_id", "memo_id", "object_key", "url", "size_bytes", "created_at",
	}).
		AddRow(string(common.NewID()), string(dealID), string(common.NewID()),
			"packets/x/2.json", "https://minio.local/2", int64(512), newer).
		AddRow(string(common.NewID()), string(dealID), string(common.NewID()),
			"packets/x/1.json", "https://minio.local/1", int64(256), older)

	mock.ExpectQuery(`SELECT .+ FROM ic_packet_exports WHERE deal_id`).
		WithArgs(dealID).
		WillReturnRows(rows)

	records, err := repo.ListByDeal(context.Background(), dealID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "packets/x/2.json", records[0].ObjectKey)
	assert.EqualValues(t, 512, records[0].SizeBytes)
	assert.Equal(t, common.Timestamp(older), records[1].CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportRepositoryListByDealEmpty(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := repositories.NewExportRepository(db, nil)

	mock.ExpectQuery(`SELECT .+ FROM ic_packet_exports WHERE deal_id`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "deal_id", "memo_id", "object_key", "url", "size_bytes", "created_at",
		}))

	records, err := repo.ListByDeal(context.Background(), common.NewID())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExportRepositoryCreateDatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := repositories.NewExportRepository(db, nil)

	mock.ExpectExec(`INSERT INTO ic_packet_exports`).
		WillReturnError(assert.AnError)

	err = repo.Create(context.Background(), &export.Record{ID: common.NewID()})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}

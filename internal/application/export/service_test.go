package export

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reubenai/dealsense/internal/domain/deal"
	"github.com/reubenai/dealsense/internal/domain/memo"
	appErrors "github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Mocks
// ─────────────────────────────────────────────────────────────────────────────

type mockDealRepo struct{ mock.Mock }

func (m *mockDealRepo) Create(ctx context.Context, d *deal.Deal) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockDealRepo) GetByID(ctx context.Context, id common.ID) (*deal.Deal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*deal.Deal), args.Error(1)
}

func (m *mockDealRepo) Update(ctx context.Context, d *deal.Deal) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockDealRepo) Delete(ctx context.Context, id common.ID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockDealRepo) List(ctx context.Context, filter deal.ListFilter) ([]*deal.Deal, int64, error) {
	args := m.Called(ctx, filter)
	return nil, 0, args.Error(2)
}

func (m *mockDealRepo) UpdateScore(ctx context.Context, id common.ID, score float64, rag common.RAGStatus) error {
	return m.Called(ctx, id, score, rag).Error(0)
}

type mockMemoRepo struct{ mock.Mock }

func (m *mockMemoRepo) Create(ctx context.Context, mm *memo.Memo) error {
	return m.Called(ctx, mm).Error(0)
}

func (m *mockMemoRepo) GetByID(ctx context.Context, id common.ID) (*memo.Memo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*memo.Memo), args.Error(1)
}

func (m *mockMemoRepo) GetByDeal(ctx context.Context, dealID common.ID) (*memo.Memo, error) {
	args := m.Called(ctx, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*memo.Memo), args.Error(1)
}

func (m *mockMemoRepo) Update(ctx context.Context, mm *memo.Memo, snapshot *memo.Version) error {
	return m.Called(ctx, mm, snapshot).Error(0)
}

func (m *mockMemoRepo) ListVersions(ctx context.Context, memoID common.ID) ([]*memo.Version, error) {
	args := m.Called(ctx, memoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*memo.Version), args.Error(1)
}

type mockAnalysisRepo struct{ mock.Mock }

func (m *mockAnalysisRepo) Upsert(ctx context.Context, rec *deal.AnalysisRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockAnalysisRepo) GetByDeal(ctx context.Context, dealID common.ID) (*deal.AnalysisRecord, error) {
	args := m.Called(ctx, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*deal.AnalysisRecord), args.Error(1)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

func (m *mockStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}

type mockExportRepo struct{ mock.Mock }

func (m *mockExportRepo) Create(ctx context.Context, rec *Record) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockExportRepo) ListByDeal(ctx context.Context, dealID common.ID) ([]*Record, error) {
	args := m.Called(ctx, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Record), args.Error(1)
}

// ─────────────────────────────────────────────────────────────────────────────
// Fixtures
// ─────────────────────────────────────────────────────────────────────────────

func testDeal() *deal.Deal {
	d := &deal.Deal{
		FundID:      common.NewID(),
		CompanyName: "Acme Payments",
		Industry:    "fintech",
		Stage:       deal.StageScreening,
	}
	d.ID = common.NewID()
	return d
}

func testMemo(dealID common.ID) *memo.Memo {
	m := &memo.Memo{
		DealID:  dealID,
		Title:   "IC Memo: Acme Payments",
		Version: 2,
	}
	m.ID = common.NewID()
	return m
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestExportBundlesDealMemoAndAnalysis(t *testing.T) {
	d := testDeal()
	m := testMemo(d.ID)
	analysis := &deal.AnalysisRecord{DealID: d.ID, OverallScore: 72.4}

	deals := &mockDealRepo{}
	deals.On("GetByID", mock.Anything, d.ID).Return(d, nil)
	memos := &mockMemoRepo{}
	memos.On("GetByDeal", mock.Anything, d.ID).Return(m, nil)
	analyses := &mockAnalysisRepo{}
	analyses.On("GetByDeal", mock.Anything, d.ID).Return(analysis, nil)

	var stored []byte
	store := &mockStore{}
	store.On("Put", mock.Anything, mock.Anything, mock.Anything, "application/json").
		Run(func(args mock.Arguments) { stored = args.Get(2).([]byte) }).
		Return(nil)
	store.On("PresignedURL", mock.Anything, mock.Anything, 2*time.Hour).
		Return("https://minio.local/presigned", nil)

	records := &mockExportRepo{}
	records.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(deals, memos, analyses, store, records, 2*time.Hour, nil)
	rec, err := svc.Export(context.Background(), d.ID)

	require.NoError(t, err)
	assert.Equal(t, d.ID, rec.DealID)
	assert.Equal(t, m.ID, rec.MemoID)
	assert.Equal(t, "https://minio.local/presigned", rec.URL)
	assert.True(t, strings.HasPrefix(rec.ObjectKey, "packets/"+string(d.ID)+"/"))
	assert.EqualValues(t, len(stored), rec.SizeBytes)

	var packet Packet
	require.NoError(t, json.Unmarshal(stored, &packet))
	assert.Equal(t, d.CompanyName, packet.Deal.CompanyName)
	assert.Equal(t, m.Title, packet.Memo.Title)
	require.NotNil(t, packet.Analysis)
	assert.InDelta(t, 72.4, packet.Analysis.OverallScore, 0.001)

	records.AssertExpectations(t)
}

func TestExportMissingAnalysisIsNotFatal(t *testing.T) {
	d := testDeal()
	m := testMemo(d.ID)

	deals := &mockDealRepo{}
	deals.On("GetByID", mock.Anything, d.ID).Return(d, nil)
	memos := &mockMemoRepo{}
	memos.On("GetByDeal", mock.Anything, d.ID).Return(m, nil)
	analyses := &mockAnalysisRepo{}
	analyses.On("GetByDeal", mock.Anything, d.ID).
		Return(nil, appErrors.New(appErrors.ErrCodeAnalysisResultMissing, "no analysis"))

	var stored []byte
	store := &mockStore{}
	store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(2).([]byte) }).
		Return(nil)
	store.On("PresignedURL", mock.Anything, mock.Anything, mock.Anything).
		Return("https://minio.local/presigned", nil)

	records := &mockExportRepo{}
	records.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(deals, memos, analyses, store, records, 0, nil)
	_, err := svc.Export(context.Background(), d.ID)

	require.NoError(t, err)

	var packet Packet
	require.NoError(t, json.Unmarshal(stored, &packet))
	assert.Nil(t, packet.Analysis)
}

func TestExportMissingMemoFails(t *testing.T) {
	d := testDeal()

	deals := &mockDealRepo{}
	deals.On("GetByID", mock.Anything, d.ID).Return(d, nil)
	memos := &mockMemoRepo{}
	memos.On("GetByDeal", mock.Anything, d.ID).
		Return(nil, appErrors.New(appErrors.ErrCodeMemoNotFound, "no memo"))

	svc := NewService(deals, memos, &mockAnalysisRepo{}, &mockStore{}, &mockExportRepo{}, 0, nil)
	_, err := svc.Export(context.Background(), d.ID)

	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestExportWithoutStoreIsDisabled(t *testing.T) {
	svc := NewService(&mockDealRepo{}, &mockMemoRepo{}, &mockAnalysisRepo{}, nil, &mockExportRepo{}, 0, nil)

	_, err := svc.Export(context.Background(), common.NewID())

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCodeFeatureDisabled, appErrors.GetCode(err))
}

func TestHistoryListsPastExports(t *testing.T) {
	dealID := common.NewID()
	past := []*Record{{ID: common.NewID(), DealID: dealID}}

	records := &mockExportRepo{}
	records.On("ListByDeal", mock.Anything, dealID).Return(past, nil)

	svc := NewService(&mockDealRepo{}, &mockMemoRepo{}, &mockAnalysisRepo{}, &mockStore{}, records, 0, nil)
	got, err := svc.History(context.Background(), dealID)

	require.NoError(t, err)
	assert.Equal(t, past, got)
}

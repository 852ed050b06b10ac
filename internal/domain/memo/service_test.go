package memo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reubenai/dealsense/pkg/types/common"
)

type mockMemoRepo struct{ mock.Mock }

func (m *mockMemoRepo) Create(ctx context.Context, memo *Memo) error {
	return m.Called(ctx, memo).Error(0)
}
func (m *mockMemoRepo) GetByID(ctx context.Context, id common.ID) (*Memo, error) {
	args := m.Called(ctx, id)
	if v, ok := args.Get(0).(*Memo); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMemoRepo) GetByDeal(ctx context.Context, dealID common.ID) (*Memo, error) {
	args := m.Called(ctx, dealID)
	if v, ok := args.Get(0).(*Memo); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMemoRepo) Update(ctx context.Context, memo *Memo, snapshot *Version) error {
	return m.Called(ctx, memo, snapshot).Error(0)
}
func (m *mockMemoRepo) ListVersions(ctx context.Context, memoID common.ID) ([]*Version, error) {
	args := m.Called(ctx, memoID)
	vs, _ := args.Get(0).([]*Version)
	return vs, args.Error(1)
}

func draftMemo() *Memo {
	m := &Memo{
		DealID: common.NewID(),
		FundID: common.NewID(),
		Title:  "Acme Analytics IC Memo",
		Sections: []Section{
			{Title: "Executive Summary", Body: "Strong team, large market.", Score: 78},
		},
		OverallScore: 78,
		Version:      3,
		Status:       "draft",
	}
	m.ID = common.NewID()
	return m
}

func TestService_Create(t *testing.T) {
	repo := new(mockMemoRepo)
	svc := NewService(repo, nil)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*memo.Memo")).Return(nil)

	m := &Memo{DealID: common.NewID(), Title: "Memo"}
	require.NoError(t, svc.Create(context.Background(), m))
	assert.Equal(t, 1, m.Version)
	assert.Equal(t, "draft", m.Status)
	assert.NotEmpty(t, m.ID)
}

func TestService_Create_Invalid(t *testing.T) {
	svc := NewService(new(mockMemoRepo), nil)
	assert.Error(t, svc.Create(context.Background(), &Memo{DealID: common.NewID()}))
	assert.Error(t, svc.Create(context.Background(), &Memo{Title: "no deal"}))
}

func TestService_Save_SnapshotsAndBumpsVersion(t *testing.T) {
	repo := new(mockMemoRepo)
	svc := NewService(repo, nil)

	stored := draftMemo()
	edited := *stored
	edited.Sections = []Section{{Title: "Executive Summary", Body: "Updated view."}}

	repo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil)

	var gotSnapshot *Version
	repo.On("Update", mock.Anything, &edited, mock.AnythingOfType("*memo.Version")).
		Run(func(args mock.Arguments) {
			gotSnapshot = args.Get(2).(*Version)
		}).Return(nil)

	require.NoError(t, svc.Save(context.Background(), &edited))

	assert.Equal(t, 4, edited.Version)
	require.NotNil(t, gotSnapshot)
	assert.Equal(t, 3, gotSnapshot.Version, "snapshot captures the pre-edit version")
	assert.Equal(t, stored.ID, gotSnapshot.MemoID)
	assert.Equal(t, "Strong team, large market.", gotSnapshot.Sections[0].Body)
}

func TestMemo_SnapshotIsIndependent(t *testing.T) {
	m := draftMemo()
	snap := m.Snapshot()

	m.Sections[0].Body = "mutated"
	assert.Equal(t, "Strong team, large market.", snap.Sections[0].Body)
	assert.NotEmpty(t, snap.ID)
}

package deal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

type mockRepo struct{ mock.Mock }

func (m *mockRepo) Create(ctx context.Context, d *Deal) error {
	return m.Called(ctx, d).Error(0)
}
func (m *mockRepo) GetByID(ctx context.Context, id common.ID) (*Deal, error) {
	args := m.Called(ctx, id)
	if d, ok := args.Get(0).(*Deal); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRepo) Update(ctx context.Context, d *Deal) error {
	return m.Called(ctx, d).Error(0)
}
func (m *mockRepo) Delete(ctx context.Context, id common.ID) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) List(ctx context.Context, filter ListFilter) ([]*Deal, int64, error) {
	args := m.Called(ctx, filter)
	deals, _ := args.Get(0).([]*Deal)
	return deals, args.Get(1).(int64), args.Error(2)
}
func (m *mockRepo) UpdateScore(ctx context.Context, id common.ID, score float64, rag common.RAGStatus) error {
	return m.Called(ctx, id, score, rag).Error(0)
}

type mockActivity struct{ mock.Mock }

func (m *mockActivity) Record(ctx context.Context, ev *ActivityEvent) error {
	return m.Called(ctx, ev).Error(0)
}
func (m *mockActivity) ListByDeal(ctx context.Context, dealID common.ID, page common.Pagination) ([]*ActivityEvent, int64, error) {
	args := m.Called(ctx, dealID, page)
	evs, _ := args.Get(0).([]*ActivityEvent)
	return evs, args.Get(1).(int64), args.Error(2)
}

func newTestService(repo *mockRepo, activity *mockActivity) *Service {
	return NewService(repo, activity, nil)
}

func TestService_Create(t *testing.T) {
	repo := new(mockRepo)
	activity := new(mockActivity)
	svc := newTestService(repo, activity)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*deal.Deal")).Return(nil)
	activity.On("Record", mock.Anything, mock.AnythingOfType("*deal.ActivityEvent")).Return(nil)

	d := &Deal{FundID: common.NewID(), CompanyName: "Acme"}
	require.NoError(t, svc.Create(context.Background(), d))

	assert.Equal(t, StageSourced, d.Stage, "unset stage defaults to sourced")
	assert.NotEmpty(t, d.ID)
	assert.False(t, d.CreatedAt.IsZero())
	repo.AssertExpectations(t)
	activity.AssertExpectations(t)
}

func TestService_Create_InvalidDeal(t *testing.T) {
	svc := newTestService(new(mockRepo), new(mockActivity))

	err := svc.Create(context.Background(), &Deal{FundID: common.NewID()})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err) || errors.GetCode(err) == errors.ErrCodeBadRequest)
}

func TestService_Create_ActivityFailureIsSwallowed(t *testing.T) {
	repo := new(mockRepo)
	activity := new(mockActivity)
	svc := newTestService(repo, activity)

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	activity.On("Record", mock.Anything, mock.Anything).Return(errors.Internal("audit store down"))

	err := svc.Create(context.Background(), &Deal{FundID: common.NewID(), CompanyName: "Acme"})
	assert.NoError(t, err, "audit failures must not fail the business operation")
}

func TestService_Get_InvalidID(t *testing.T) {
	svc := newTestService(new(mockRepo), new(mockActivity))

	_, err := svc.Get(context.Background(), "nope")
	require.Error(t, err)
}

func TestService_Advance(t *testing.T) {
	repo := new(mockRepo)
	activity := new(mockActivity)
	svc := newTestService(repo, activity)

	d := validDeal()
	repo.On("GetByID", mock.Anything, d.ID).Return(d, nil)
	repo.On("Update", mock.Anything, d).Return(nil)
	activity.On("Record", mock.Anything, mock.Anything).Return(nil)

	got, err := svc.Advance(context.Background(), d.ID, StageScreening)
	require.NoError(t, err)
	assert.Equal(t, StageScreening, got.Stage)
}

func TestService_Advance_IllegalTransitionNotPersisted(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestService(repo, new(mockActivity))

	d := validDeal()
	repo.On("GetByID", mock.Anything, d.ID).Return(d, nil)

	_, err := svc.Advance(context.Background(), d.ID, StageClosed)
	require.Error(t, err)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestService_Advance_DealNotFound(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestService(repo, new(mockActivity))

	id := common.NewID()
	repo.On("GetByID", mock.Anything, id).Return(nil, errors.New(errors.ErrCodeDealNotFound, "missing"))

	_, err := svc.Advance(context.Background(), id, StageScreening)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestService_List_NormalizesPagination(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestService(repo, new(mockActivity))

	repo.On("List", mock.Anything, mock.MatchedBy(func(f ListFilter) bool {
		return f.Page == 1 && f.PageSize == 20
	})).Return([]*Deal{}, int64(0), nil)

	_, _, err := svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

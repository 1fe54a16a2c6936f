package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"github.com/stocktake-io/stocktake/internal/modules/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockAssetModelRepo is a mock implementation of AssetModelRepo
type MockAssetModelRepo struct {
	mock.Mock
}

func (m *MockAssetModelRepo) Transaction(ctx context.Context, fn func(repo.AssetModelRepo) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(m)
}

func (m *MockAssetModelRepo) Create(ctx context.Context, am *model.AssetModel) error {
	args := m.Called(ctx, am)
	return args.Error(0)
}

func (m *MockAssetModelRepo) Get(ctx context.Context, id uuid.UUID) (*model.AssetModel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AssetModel), args.Error(1)
}

func (m *MockAssetModelRepo) GetBySlug(ctx context.Context, slug string) (*model.AssetModel, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AssetModel), args.Error(1)
}

func (m *MockAssetModelRepo) FirstOrCreate(ctx context.Context, am *model.AssetModel) error {
	args := m.Called(ctx, am)
	return args.Error(0)
}

func (m *MockAssetModelRepo) ListWithCursor(ctx context.Context, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.AssetModel, error) {
	args := m.Called(ctx, afterCreatedAt, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AssetModel), args.Error(1)
}

func (m *MockAssetModelRepo) SetContainer(ctx context.Context, id uuid.UUID, isContainer bool) error {
	args := m.Called(ctx, id, isContainer)
	return args.Error(0)
}

func (m *MockAssetModelRepo) CountNodesWithChildren(ctx context.Context, modelID uuid.UUID) (int64, error) {
	args := m.Called(ctx, modelID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAssetModelRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestAssetModelService_SetContainer_Upgrade(t *testing.T) {
	r := new(MockAssetModelRepo)
	svc := NewAssetModelService(r)
	id := uuid.New()

	r.On("SetContainer", mock.Anything, id, true).Return(nil).Once()

	assert.NoError(t, svc.SetContainer(context.Background(), id, true))
	r.AssertNotCalled(t, "CountNodesWithChildren")
	r.AssertExpectations(t)
}

func TestAssetModelService_SetContainer_DowngradeBlocked(t *testing.T) {
	r := new(MockAssetModelRepo)
	svc := NewAssetModelService(r)
	id := uuid.New()

	r.On("Transaction", mock.Anything, mock.Anything).Return(nil).Once()
	r.On("CountNodesWithChildren", mock.Anything, id).Return(int64(2), nil).Once()

	err := svc.SetContainer(context.Background(), id, false)
	assert.ErrorIs(t, err, ErrContainerStateConflict)
	r.AssertNotCalled(t, "SetContainer")
}

func TestAssetModelService_SetContainer_DowngradeAllowed(t *testing.T) {
	r := new(MockAssetModelRepo)
	svc := NewAssetModelService(r)
	id := uuid.New()

	r.On("Transaction", mock.Anything, mock.Anything).Return(nil).Once()
	r.On("CountNodesWithChildren", mock.Anything, id).Return(int64(0), nil).Once()
	r.On("SetContainer", mock.Anything, id, false).Return(nil).Once()

	assert.NoError(t, svc.SetContainer(context.Background(), id, false))
	r.AssertExpectations(t)
}

func TestAssetModelService_Create_DerivesSlug(t *testing.T) {
	r := new(MockAssetModelRepo)
	svc := NewAssetModelService(r)

	r.On("Create", mock.Anything, mock.MatchedBy(func(m *model.AssetModel) bool {
		return m.Slug == "power-brick-65w"
	})).Return(nil).Once()

	err := svc.Create(context.Background(), &model.AssetModel{Name: "Power Brick (65W)"})
	assert.NoError(t, err)
	r.AssertExpectations(t)
}

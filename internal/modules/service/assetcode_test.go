package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"github.com/stocktake-io/stocktake/internal/pkg/assetcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MockAssetCodeRepo is a mock implementation of AssetCodeRepo
type MockAssetCodeRepo struct {
	mock.Mock
}

func (m *MockAssetCodeRepo) Create(ctx context.Context, c *model.AssetCode) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockAssetCodeRepo) Get(ctx context.Context, id uuid.UUID) (*model.AssetCode, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AssetCode), args.Error(1)
}

func (m *MockAssetCodeRepo) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]model.AssetCode, error) {
	args := m.Called(ctx, assetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AssetCode), args.Error(1)
}

func (m *MockAssetCodeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestCodeService(r *MockAssetCodeRepo, attempts int) AssetCodeService {
	registry := assetcode.NewRegistry(assetcode.Config{
		DefaultPrefix: "INV",
		Prefixes:      []string{"INV"},
		LegacyTag:     "SR",
	})
	return NewAssetCodeService(r, registry, attempts, nil, zap.NewNop())
}

func TestAssetCodeService_AddExplicit(t *testing.T) {
	repo := new(MockAssetCodeRepo)
	svc := newTestCodeService(repo, 10)
	assetID := uuid.New()

	repo.On("Create", mock.Anything, mock.MatchedBy(func(c *model.AssetCode) bool {
		return c.Code == "INV-ASE-SEJ" && c.CodeType == "D" && c.AssetID == assetID
	})).Return(nil).Once()

	c, err := svc.Add(context.Background(), assetID, assetcode.CodeTypeDamm32, "INV-ASE-SEJ")
	assert.NoError(t, err)
	assert.Equal(t, "INV-ASE-SEJ", c.Code)
	repo.AssertExpectations(t)
}

func TestAssetCodeService_AddExplicit_Invalid(t *testing.T) {
	repo := new(MockAssetCodeRepo)
	svc := newTestCodeService(repo, 10)

	_, err := svc.Add(context.Background(), uuid.New(), assetcode.CodeTypeDamm32, "INV-ASE-SEU")
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.ErrorIs(t, err, assetcode.ErrInvalidCheckDigit)
	repo.AssertNotCalled(t, "Create")
}

func TestAssetCodeService_AddExplicit_Duplicate(t *testing.T) {
	repo := new(MockAssetCodeRepo)
	svc := newTestCodeService(repo, 10)

	repo.On("Create", mock.Anything, mock.Anything).Return(gorm.ErrDuplicatedKey).Once()

	_, err := svc.Add(context.Background(), uuid.New(), assetcode.CodeTypeArbitrary, "already-taken")
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	repo.AssertExpectations(t)
}

func TestAssetCodeService_Generate_RetriesOnDuplicate(t *testing.T) {
	repo := new(MockAssetCodeRepo)
	svc := newTestCodeService(repo, 10)

	// first candidate collides, second lands
	repo.On("Create", mock.Anything, mock.Anything).Return(gorm.ErrDuplicatedKey).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	c, err := svc.Add(context.Background(), uuid.New(), assetcode.CodeTypeDamm32, "")
	assert.NoError(t, err)
	assert.Len(t, c.Code, 11)
	assert.Equal(t, "INV-", c.Code[:4])
	repo.AssertNumberOfCalls(t, "Create", 2)
}

func TestAssetCodeService_Generate_Exhausted(t *testing.T) {
	repo := new(MockAssetCodeRepo)
	svc := newTestCodeService(repo, 3)

	repo.On("Create", mock.Anything, mock.Anything).Return(gorm.ErrDuplicatedKey)

	_, err := svc.Add(context.Background(), uuid.New(), assetcode.CodeTypeDamm32, "")
	assert.ErrorIs(t, err, ErrExhaustedRetries)
	repo.AssertNumberOfCalls(t, "Create", 3)
}

func TestAssetCodeService_Generate_OtherErrorStops(t *testing.T) {
	repo := new(MockAssetCodeRepo)
	svc := newTestCodeService(repo, 10)

	boom := errors.New("connection reset")
	repo.On("Create", mock.Anything, mock.Anything).Return(boom).Once()

	_, err := svc.Add(context.Background(), uuid.New(), assetcode.CodeTypeDamm32, "")
	assert.ErrorIs(t, err, boom)
	repo.AssertNumberOfCalls(t, "Create", 1)
}

func TestAssetCodeService_Generate_Unsupported(t *testing.T) {
	repo := new(MockAssetCodeRepo)
	svc := newTestCodeService(repo, 10)

	_, err := svc.Add(context.Background(), uuid.New(), assetcode.CodeTypeArbitrary, "")
	assert.ErrorIs(t, err, ErrGenerationUnsupported)

	_, err = svc.Add(context.Background(), uuid.New(), assetcode.CodeTypeLegacy, "")
	assert.ErrorIs(t, err, ErrGenerationUnsupported)
}

func TestAssetCodeService_UnknownType(t *testing.T) {
	repo := new(MockAssetCodeRepo)
	svc := newTestCodeService(repo, 10)

	_, err := svc.Add(context.Background(), uuid.New(), assetcode.CodeType("Z"), "whatever")
	assert.ErrorIs(t, err, ErrUnknownCodeType)

	err = svc.Validate(assetcode.CodeType("Z"), "whatever")
	assert.ErrorIs(t, err, ErrUnknownCodeType)
}

package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"gorm.io/gorm"
)

type AssetCodeRepo interface {
	// Create inserts a code as a single atomic attempt. A uniqueness
	// violation surfaces as gorm.ErrDuplicatedKey.
	Create(ctx context.Context, c *model.AssetCode) error
	Get(ctx context.Context, id uuid.UUID) (*model.AssetCode, error)
	ListByAsset(ctx context.Context, assetID uuid.UUID) ([]model.AssetCode, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type assetCodeRepo struct{ db *gorm.DB }

func NewAssetCodeRepo(db *gorm.DB) AssetCodeRepo {
	return &assetCodeRepo{db: db}
}

func (r *assetCodeRepo) Create(ctx context.Context, c *model.AssetCode) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *assetCodeRepo) Get(ctx context.Context, id uuid.UUID) (*model.AssetCode, error) {
	var c model.AssetCode
	return &c, r.db.WithContext(ctx).First(&c, "id = ?", id).Error
}

func (r *assetCodeRepo) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]model.AssetCode, error) {
	var items []model.AssetCode
	return items, r.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("created_at ASC").
		Find(&items).Error
}

func (r *assetCodeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.AssetCode{}, "id = ?", id).Error
}

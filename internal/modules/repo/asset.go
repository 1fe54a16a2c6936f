package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"gorm.io/gorm"
)

type AssetRepo interface {
	Create(ctx context.Context, a *model.Asset) error
	Save(ctx context.Context, a *model.Asset) error
	Get(ctx context.Context, id uuid.UUID) (*model.Asset, error)
	// FindByCode resolves an asset by one of its assigned codes.
	FindByCode(ctx context.Context, code string) (*model.Asset, error)
	ListWithCursor(ctx context.Context, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.Asset, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type assetRepo struct{ db *gorm.DB }

func NewAssetRepo(db *gorm.DB) AssetRepo {
	return &assetRepo{db: db}
}

func (r *assetRepo) Create(ctx context.Context, a *model.Asset) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *assetRepo) Save(ctx context.Context, a *model.Asset) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *assetRepo) Get(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	var a model.Asset
	return &a, r.db.WithContext(ctx).
		Preload("AssetModel.Manufacturer").
		Preload("Codes").
		Preload("Node").
		First(&a, "id = ?", id).Error
}

func (r *assetRepo) FindByCode(ctx context.Context, code string) (*model.Asset, error) {
	var a model.Asset
	return &a, r.db.WithContext(ctx).
		Preload("AssetModel.Manufacturer").
		Preload("Codes").
		Preload("Node").
		Joins("JOIN asset_codes ON asset_codes.asset_id = assets.id").
		Where("asset_codes.code = ?", code).
		First(&a).Error
}

func (r *assetRepo) ListWithCursor(ctx context.Context, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.Asset, error) {
	q := r.db.WithContext(ctx).Preload("AssetModel").Preload("Codes")
	if !afterCreatedAt.IsZero() && afterID != uuid.Nil {
		q = q.Where("(created_at > ?) OR (created_at = ? AND id > ?)", afterCreatedAt, afterCreatedAt, afterID)
	}
	var items []model.Asset
	return items, q.Order("created_at ASC, id ASC").Limit(limit).Find(&items).Error
}

func (r *assetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Asset{}, "id = ?", id).Error
}

package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"gorm.io/gorm"
)

type AssetModelRepo interface {
	// Transaction runs fn against a repo bound to one database
	// transaction. Needed for the container downgrade guard, which must
	// check node usage and flip the flag atomically.
	Transaction(ctx context.Context, fn func(AssetModelRepo) error) error

	Create(ctx context.Context, m *model.AssetModel) error
	Get(ctx context.Context, id uuid.UUID) (*model.AssetModel, error)
	GetBySlug(ctx context.Context, slug string) (*model.AssetModel, error)
	FirstOrCreate(ctx context.Context, m *model.AssetModel) error
	ListWithCursor(ctx context.Context, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.AssetModel, error)
	SetContainer(ctx context.Context, id uuid.UUID, isContainer bool) error
	// CountNodesWithChildren counts tree nodes wrapping an asset of this
	// model that currently have at least one child.
	CountNodesWithChildren(ctx context.Context, modelID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type assetModelRepo struct{ db *gorm.DB }

func NewAssetModelRepo(db *gorm.DB) AssetModelRepo {
	return &assetModelRepo{db: db}
}

func (r *assetModelRepo) Transaction(ctx context.Context, fn func(AssetModelRepo) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&assetModelRepo{db: tx})
	})
}

func (r *assetModelRepo) Create(ctx context.Context, m *model.AssetModel) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *assetModelRepo) Get(ctx context.Context, id uuid.UUID) (*model.AssetModel, error) {
	var m model.AssetModel
	return &m, r.db.WithContext(ctx).Preload("Manufacturer").First(&m, "id = ?", id).Error
}

func (r *assetModelRepo) GetBySlug(ctx context.Context, slug string) (*model.AssetModel, error) {
	var m model.AssetModel
	return &m, r.db.WithContext(ctx).Preload("Manufacturer").First(&m, "slug = ?", slug).Error
}

func (r *assetModelRepo) FirstOrCreate(ctx context.Context, m *model.AssetModel) error {
	return r.db.WithContext(ctx).Where(&model.AssetModel{Slug: m.Slug}).FirstOrCreate(m).Error
}

func (r *assetModelRepo) ListWithCursor(ctx context.Context, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.AssetModel, error) {
	q := r.db.WithContext(ctx).Preload("Manufacturer")
	if !afterCreatedAt.IsZero() && afterID != uuid.Nil {
		q = q.Where("(created_at > ?) OR (created_at = ? AND id > ?)", afterCreatedAt, afterCreatedAt, afterID)
	}
	var items []model.AssetModel
	return items, q.Order("created_at ASC, id ASC").Limit(limit).Find(&items).Error
}

func (r *assetModelRepo) SetContainer(ctx context.Context, id uuid.UUID, isContainer bool) error {
	return r.db.WithContext(ctx).Model(&model.AssetModel{}).
		Where("id = ?", id).
		Update("is_container", isContainer).Error
}

func (r *assetModelRepo) CountNodesWithChildren(ctx context.Context, modelID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Node{}).
		Joins("JOIN assets ON assets.id = nodes.asset_id").
		Where("assets.asset_model_id = ?", modelID).
		Where("EXISTS (SELECT 1 FROM nodes AS children WHERE children.parent_id = nodes.id)").
		Count(&n).Error
	return n, err
}

func (r *assetModelRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.AssetModel{}, "id = ?", id).Error
}

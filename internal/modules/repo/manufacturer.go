package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"gorm.io/gorm"
)

type ManufacturerRepo interface {
	Create(ctx context.Context, m *model.Manufacturer) error
	Get(ctx context.Context, id uuid.UUID) (*model.Manufacturer, error)
	GetBySlug(ctx context.Context, slug string) (*model.Manufacturer, error)
	FirstOrCreate(ctx context.Context, m *model.Manufacturer) error
	ListWithCursor(ctx context.Context, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.Manufacturer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type manufacturerRepo struct{ db *gorm.DB }

func NewManufacturerRepo(db *gorm.DB) ManufacturerRepo {
	return &manufacturerRepo{db: db}
}

func (r *manufacturerRepo) Create(ctx context.Context, m *model.Manufacturer) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *manufacturerRepo) Get(ctx context.Context, id uuid.UUID) (*model.Manufacturer, error) {
	var m model.Manufacturer
	return &m, r.db.WithContext(ctx).First(&m, "id = ?", id).Error
}

func (r *manufacturerRepo) GetBySlug(ctx context.Context, slug string) (*model.Manufacturer, error) {
	var m model.Manufacturer
	return &m, r.db.WithContext(ctx).First(&m, "slug = ?", slug).Error
}

func (r *manufacturerRepo) FirstOrCreate(ctx context.Context, m *model.Manufacturer) error {
	return r.db.WithContext(ctx).Where(&model.Manufacturer{Slug: m.Slug}).FirstOrCreate(m).Error
}

func (r *manufacturerRepo) ListWithCursor(ctx context.Context, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.Manufacturer, error) {
	q := r.db.WithContext(ctx)
	if !afterCreatedAt.IsZero() && afterID != uuid.Nil {
		q = q.Where("(created_at > ?) OR (created_at = ? AND id > ?)", afterCreatedAt, afterCreatedAt, afterID)
	}
	var items []model.Manufacturer
	return items, q.Order("created_at ASC, id ASC").Limit(limit).Find(&items).Error
}

func (r *manufacturerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Manufacturer{}, "id = ?", id).Error
}

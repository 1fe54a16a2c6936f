package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"github.com/stocktake-io/stocktake/internal/modules/repo"
	"github.com/stocktake-io/stocktake/internal/pkg/utils"
)

type ManufacturerService interface {
	Create(ctx context.Context, m *model.Manufacturer) error
	Get(ctx context.Context, id uuid.UUID) (*model.Manufacturer, error)
	GetBySlug(ctx context.Context, slug string) (*model.Manufacturer, error)
	List(ctx context.Context, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.Manufacturer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type manufacturerService struct{ r repo.ManufacturerRepo }

func NewManufacturerService(r repo.ManufacturerRepo) ManufacturerService {
	return &manufacturerService{r: r}
}

func (s *manufacturerService) Create(ctx context.Context, m *model.Manufacturer) error {
	if m.Slug == "" {
		m.Slug = utils.Slugify(m.Name)
	}
	return s.r.Create(ctx, m)
}

func (s *manufacturerService) Get(ctx context.Context, id uuid.UUID) (*model.Manufacturer, error) {
	return s.r.Get(ctx, id)
}

func (s *manufacturerService) GetBySlug(ctx context.Context, slug string) (*model.Manufacturer, error) {
	return s.r.GetBySlug(ctx, slug)
}

func (s *manufacturerService) List(ctx context.Context, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.Manufacturer, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.r.ListWithCursor(ctx, afterCreatedAt, afterID, limit)
}

func (s *manufacturerService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.r.Delete(ctx, id)
}

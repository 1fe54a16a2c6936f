package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"github.com/stocktake-io/stocktake/internal/modules/repo"
	"github.com/stocktake-io/stocktake/internal/pkg/utils"
)

type AssetModelService interface {
	Create(ctx context.Context, m *model.AssetModel) error
	Get(ctx context.Context, id uuid.UUID) (*model.AssetModel, error)
	GetBySlug(ctx context.Context, slug string) (*model.AssetModel, error)
	List(ctx context.Context, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.AssetModel, error)
	// SetContainer flips container capability. Downgrading is refused with
	// ErrContainerStateConflict while any placed asset of this model still
	// holds children.
	SetContainer(ctx context.Context, id uuid.UUID, isContainer bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type assetModelService struct{ r repo.AssetModelRepo }

func NewAssetModelService(r repo.AssetModelRepo) AssetModelService {
	return &assetModelService{r: r}
}

func (s *assetModelService) Create(ctx context.Context, m *model.AssetModel) error {
	if m.Slug == "" {
		m.Slug = utils.Slugify(m.Name)
	}
	return s.r.Create(ctx, m)
}

func (s *assetModelService) Get(ctx context.Context, id uuid.UUID) (*model.AssetModel, error) {
	return s.r.Get(ctx, id)
}

func (s *assetModelService) GetBySlug(ctx context.Context, slug string) (*model.AssetModel, error) {
	return s.r.GetBySlug(ctx, slug)
}

func (s *assetModelService) List(ctx context.Context, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.AssetModel, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.r.ListWithCursor(ctx, afterCreatedAt, afterID, limit)
}

func (s *assetModelService) SetContainer(ctx context.Context, id uuid.UUID, isContainer bool) error {
	if isContainer {
		return s.r.SetContainer(ctx, id, true)
	}
	// The usage check and the flag flip must see the same tree state.
	return s.r.Transaction(ctx, func(tx repo.AssetModelRepo) error {
		n, err := tx.CountNodesWithChildren(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrContainerStateConflict
		}
		return tx.SetContainer(ctx, id, false)
	})
}

func (s *assetModelService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.r.Delete(ctx, id)
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"github.com/stocktake-io/stocktake/internal/modules/repo"
)

type ChangeSetService interface {
	Get(ctx context.Context, id uuid.UUID) (*model.ChangeSet, error)
	List(ctx context.Context, afterTimestamp time.Time, afterID uuid.UUID, limit int) ([]model.ChangeSet, error)
	// EventsByAsset returns an asset's full history, oldest first.
	EventsByAsset(ctx context.Context, assetID uuid.UUID) ([]model.AssetEvent, error)
}

type changeSetService struct{ r repo.ChangeSetRepo }

func NewChangeSetService(r repo.ChangeSetRepo) ChangeSetService {
	return &changeSetService{r: r}
}

func (s *changeSetService) Get(ctx context.Context, id uuid.UUID) (*model.ChangeSet, error) {
	return s.r.Get(ctx, id)
}

func (s *changeSetService) List(ctx context.Context, afterTimestamp time.Time, afterID uuid.UUID, limit int) ([]model.ChangeSet, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.r.ListWithCursor(ctx, afterTimestamp, afterID, limit)
}

func (s *changeSetService) EventsByAsset(ctx context.Context, assetID uuid.UUID) ([]model.AssetEvent, error) {
	return s.r.ListEventsByAsset(ctx, assetID)
}

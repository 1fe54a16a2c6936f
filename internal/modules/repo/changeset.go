package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"gorm.io/gorm"
)

type ChangeSetRepo interface {
	Get(ctx context.Context, id uuid.UUID) (*model.ChangeSet, error)
	ListWithCursor(ctx context.Context, afterTimestamp time.Time, afterID uuid.UUID, limit int) ([]model.ChangeSet, error)
	ListEventsByAsset(ctx context.Context, assetID uuid.UUID) ([]model.AssetEvent, error)
}

type changeSetRepo struct{ db *gorm.DB }

func NewChangeSetRepo(db *gorm.DB) ChangeSetRepo {
	return &changeSetRepo{db: db}
}

func (r *changeSetRepo) Get(ctx context.Context, id uuid.UUID) (*model.ChangeSet, error) {
	var cs model.ChangeSet
	return &cs, r.db.WithContext(ctx).Preload("Events").First(&cs, "id = ?", id).Error
}

func (r *changeSetRepo) ListWithCursor(ctx context.Context, afterTimestamp time.Time, afterID uuid.UUID, limit int) ([]model.ChangeSet, error) {
	q := r.db.WithContext(ctx).Preload("Events")
	if !afterTimestamp.IsZero() && afterID != uuid.Nil {
		q = q.Where("(timestamp < ?) OR (timestamp = ? AND id < ?)", afterTimestamp, afterTimestamp, afterID)
	}
	var items []model.ChangeSet
	return items, q.Order("timestamp DESC, id DESC").Limit(limit).Find(&items).Error
}

func (r *changeSetRepo) ListEventsByAsset(ctx context.Context, assetID uuid.UUID) ([]model.AssetEvent, error) {
	var items []model.AssetEvent
	return items, r.db.WithContext(ctx).
		Preload("ChangeSet").
		Joins("JOIN changesets ON changesets.id = asset_events.changeset_id").
		Where("asset_events.asset_id = ?", assetID).
		Order("changesets.timestamp ASC").
		Find(&items).Error
}

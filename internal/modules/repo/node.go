package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"gorm.io/gorm"
)

// NodeRepo is the store facade of the tree consistency engine. Besides
// node rows it exposes the few cross-store writes a tree mutation needs
// (asset state, model promotion, changeset recording) so one Transaction
// closure can cover a whole operation.
type NodeRepo interface {
	Transaction(ctx context.Context, fn func(NodeRepo) error) error

	CreateNode(ctx context.Context, n *model.Node) error
	SaveNode(ctx context.Context, n *model.Node) error
	DeleteNode(ctx context.Context, id uuid.UUID) error
	GetNode(ctx context.Context, id uuid.UUID) (*model.Node, error)
	GetNodeByAssetID(ctx context.Context, assetID uuid.UUID) (*model.Node, error)
	FindNodeByAssetCode(ctx context.Context, code string) (*model.Node, error)
	FindChildLocationByName(ctx context.Context, parentID *uuid.UUID, name string) (*model.Node, error)
	Children(ctx context.Context, parentID uuid.UUID) ([]model.Node, error)
	ChildCount(ctx context.Context, parentID uuid.UUID) (int64, error)

	UpdateAssetState(ctx context.Context, assetID uuid.UUID, state model.AssetState) error
	DeleteAsset(ctx context.Context, assetID uuid.UUID) error
	PromoteModelContainer(ctx context.Context, modelID uuid.UUID) error
	CreateChangeSet(ctx context.Context, cs *model.ChangeSet) error
	DeleteEmptyChangeSets(ctx context.Context) error
}

type nodeRepo struct{ db *gorm.DB }

func NewNodeRepo(db *gorm.DB) NodeRepo {
	return &nodeRepo{db: db}
}

func (r *nodeRepo) Transaction(ctx context.Context, fn func(NodeRepo) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&nodeRepo{db: tx})
	})
}

func (r *nodeRepo) CreateNode(ctx context.Context, n *model.Node) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *nodeRepo) SaveNode(ctx context.Context, n *model.Node) error {
	return r.db.WithContext(ctx).Save(n).Error
}

func (r *nodeRepo) DeleteNode(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Node{}, "id = ?", id).Error
}

func (r *nodeRepo) GetNode(ctx context.Context, id uuid.UUID) (*model.Node, error) {
	var n model.Node
	return &n, r.db.WithContext(ctx).
		Preload("Asset.AssetModel").
		Preload("Asset.Codes").
		First(&n, "id = ?", id).Error
}

func (r *nodeRepo) GetNodeByAssetID(ctx context.Context, assetID uuid.UUID) (*model.Node, error) {
	var n model.Node
	return &n, r.db.WithContext(ctx).
		Preload("Asset.AssetModel").
		First(&n, "asset_id = ?", assetID).Error
}

func (r *nodeRepo) FindNodeByAssetCode(ctx context.Context, code string) (*model.Node, error) {
	var n model.Node
	return &n, r.db.WithContext(ctx).
		Preload("Asset.AssetModel").
		Preload("Asset.Codes").
		Joins("JOIN asset_codes ON asset_codes.asset_id = nodes.asset_id").
		Where("asset_codes.code = ?", code).
		First(&n).Error
}

func (r *nodeRepo) FindChildLocationByName(ctx context.Context, parentID *uuid.UUID, name string) (*model.Node, error) {
	q := r.db.WithContext(ctx).
		Where("node_type = ?", model.NodeTypeLocation).
		Where("name = ?", name)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	var n model.Node
	return &n, q.First(&n).Error
}

func (r *nodeRepo) Children(ctx context.Context, parentID uuid.UUID) ([]model.Node, error) {
	var items []model.Node
	return items, r.db.WithContext(ctx).
		Preload("Asset.AssetModel").
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&items).Error
}

func (r *nodeRepo) ChildCount(ctx context.Context, parentID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Node{}).
		Where("parent_id = ?", parentID).
		Count(&n).Error
	return n, err
}

func (r *nodeRepo) UpdateAssetState(ctx context.Context, assetID uuid.UUID, state model.AssetState) error {
	return r.db.WithContext(ctx).Model(&model.Asset{}).
		Where("id = ?", assetID).
		Update("state", state).Error
}

func (r *nodeRepo) DeleteAsset(ctx context.Context, assetID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Asset{}, "id = ?", assetID).Error
}

func (r *nodeRepo) PromoteModelContainer(ctx context.Context, modelID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.AssetModel{}).
		Where("id = ?", modelID).
		Update("is_container", true).Error
}

func (r *nodeRepo) CreateChangeSet(ctx context.Context, cs *model.ChangeSet) error {
	return r.db.WithContext(ctx).Create(cs).Error
}

func (r *nodeRepo) DeleteEmptyChangeSets(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM asset_events WHERE asset_events.changeset_id = changesets.id)").
		Delete(&model.ChangeSet{}).Error
}

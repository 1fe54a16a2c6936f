package model

import (
	"time"

	"github.com/google/uuid"
)

// NodeType tags the two node variants: an asset node wraps exactly one
// asset of a container-capable model, a location node is a named
// organizational unit with no linked asset.
type NodeType string

const (
	NodeTypeAsset    NodeType = "A"
	NodeTypeLocation NodeType = "L"
)

// Node is a position in the hierarchical placement tree, stored as an
// adjacency list: each row holds only a parent pointer, never a cyclic
// object reference. Ancestor and cycle checks walk the parent chain.
type Node struct {
	ID       uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	NodeType NodeType   `gorm:"type:varchar(1);not null;check:node_type IN ('A','L');check:chk_node_variant,(node_type = 'A' AND asset_id IS NOT NULL) OR (node_type = 'L' AND asset_id IS NULL AND name IS NOT NULL)" json:"node_type"`
	Name     *string    `gorm:"type:varchar(100)" json:"name"`
	AssetID  *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"asset_id"`
	ParentID *uuid.UUID `gorm:"type:uuid;index" json:"parent_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Node <-> Asset (a node does not outlive its asset)
	Asset *Asset `gorm:"foreignKey:AssetID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"asset,omitempty"`

	// Node <-> Node
	Parent   *Node  `gorm:"foreignKey:ParentID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE;" json:"-"`
	Children []Node `gorm:"foreignKey:ParentID" json:"-"`
}

func (Node) TableName() string { return "nodes" }

// IsContainer reports whether the node may hold children. Location nodes
// always can; asset nodes only when their model is container-capable.
// Asset and AssetModel must be loaded for asset nodes.
func (n *Node) IsContainer() bool {
	if n.NodeType == NodeTypeLocation {
		return true
	}
	return n.Asset != nil && n.Asset.AssetModel != nil && n.Asset.AssetModel.IsContainer
}

func (n *Node) DisplayName() string {
	if n.NodeType == NodeTypeAsset && n.Asset != nil {
		return n.Asset.DisplayName()
	}
	if n.Name != nil && *n.Name != "" {
		return *n.Name
	}
	return n.ID.String()
}

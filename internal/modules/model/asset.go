package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AssetState is the lifecycle state of an asset. Known assets sit in the
// placement tree; lost and disposed assets must not.
type AssetState string

const (
	AssetStateKnown    AssetState = "K"
	AssetStateLost     AssetState = "L"
	AssetStateDisposed AssetState = "D"
)

// Asset is a physical, individually tracked item.
type Asset struct {
	ID           uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         *string           `gorm:"type:varchar(30)" json:"name"`
	AssetModelID uuid.UUID         `gorm:"type:uuid;not null;index" json:"asset_model_id"`
	State        AssetState        `gorm:"type:varchar(1);not null;default:'K';check:state IN ('K','L','D')" json:"state"`
	ExtraData    datatypes.JSONMap `gorm:"type:jsonb" swaggertype:"object" json:"extra_data"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Asset <-> AssetModel
	AssetModel *AssetModel `gorm:"foreignKey:AssetModelID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE;" json:"asset_model,omitempty"`

	// Asset <-> AssetCode
	Codes []AssetCode `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"codes,omitempty"`

	// Asset <-> Node (one-to-one, nil when the asset is out of the tree)
	Node *Node `gorm:"foreignKey:AssetID;references:ID" json:"-"`
}

func (Asset) TableName() string { return "assets" }

// DisplayName resolves the asset's name: explicit name, then the owning
// tree node's name, then the model display name, then the id.
func (a *Asset) DisplayName() string {
	if a.Name != nil && *a.Name != "" {
		return *a.Name
	}
	if a.Node != nil && a.Node.Name != nil && *a.Node.Name != "" {
		return *a.Node.Name
	}
	if a.AssetModel != nil {
		return a.AssetModel.DisplayName()
	}
	return a.ID.String()
}

// FirstAssetCode returns a usable code for the asset, falling back to the
// asset's own id when no code has been assigned.
func (a *Asset) FirstAssetCode() string {
	if len(a.Codes) > 0 {
		return a.Codes[0].Code
	}
	return a.ID.String()
}

// AssetCodes lists every code the asset resolves under, id included.
func (a *Asset) AssetCodes() []string {
	out := make([]string, 0, len(a.Codes)+1)
	out = append(out, a.ID.String())
	for _, c := range a.Codes {
		out = append(out, c.Code)
	}
	return out
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// AssetModel describes a class of interchangeable assets, e.g. "medium
// widget". Instances of a container-capable model may hold other nodes as
// tree children.
type AssetModel struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name           string    `gorm:"type:varchar(30);not null" json:"name"`
	Slug           string    `gorm:"type:text;uniqueIndex;not null" json:"slug"`
	IsContainer    bool      `gorm:"not null;default:false" json:"is_container"`
	ManufacturerID uuid.UUID `gorm:"type:uuid;not null;index" json:"manufacturer_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// AssetModel <-> Manufacturer
	Manufacturer *Manufacturer `gorm:"foreignKey:ManufacturerID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE;" json:"manufacturer,omitempty"`

	// AssetModel <-> Asset
	Assets []Asset `gorm:"foreignKey:AssetModelID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE;" json:"assets,omitempty"`
}

func (AssetModel) TableName() string { return "asset_models" }

func (m *AssetModel) DisplayName() string {
	if m.Manufacturer != nil {
		return m.Manufacturer.Name + " " + m.Name
	}
	return m.Name
}

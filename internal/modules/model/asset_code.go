package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/pkg/assetcode"
)

// AssetCode is an individual code demarking an asset. Codes are immutable:
// they are only ever created and deleted, never updated.
type AssetCode struct {
	ID       uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code     string             `gorm:"type:varchar(30);uniqueIndex;not null" json:"code"`
	CodeType assetcode.CodeType `gorm:"type:varchar(1);not null;check:code_type IN ('A','D','L')" json:"code_type"`
	AssetID  uuid.UUID          `gorm:"type:uuid;not null;index" json:"asset_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// AssetCode <-> Asset
	Asset *Asset `gorm:"foreignKey:AssetID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (AssetCode) TableName() string { return "asset_codes" }

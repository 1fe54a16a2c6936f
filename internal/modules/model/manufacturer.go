package model

import (
	"time"

	"github.com/google/uuid"
)

type Manufacturer struct {
	ID   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name string    `gorm:"type:varchar(30);not null" json:"name"`
	Slug string    `gorm:"type:text;uniqueIndex;not null" json:"slug"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Manufacturer <-> AssetModel
	Models []AssetModel `gorm:"foreignKey:ManufacturerID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE;" json:"models,omitempty"`
}

func (Manufacturer) TableName() string { return "manufacturers" }

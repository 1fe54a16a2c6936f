package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ChangeSet groups asset events that occurred atomically: one actor, one
// timestamp, one comment. Changesets are never mutated after creation and
// zero-event changesets are pruned.
type ChangeSet struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	User      string    `gorm:"type:text;not null" json:"user"`
	Comment   string    `gorm:"type:text" json:"comment"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`

	// ChangeSet <-> AssetEvent
	Events []AssetEvent `gorm:"foreignKey:ChangeSetID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"events,omitempty"`
}

func (ChangeSet) TableName() string { return "changesets" }

type AssetEventType string

const (
	AssetEventCreate AssetEventType = "CR"
	AssetEventMove   AssetEventType = "MV"
)

// AssetEvent records one state transition for one asset. An asset appears
// at most once per changeset.
type AssetEvent struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EventType   AssetEventType `gorm:"type:varchar(2);not null;check:event_type IN ('CR','MV')" json:"event_type"`
	ChangeSetID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_changeset_asset,priority:1" json:"changeset_id"`
	AssetID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_changeset_asset,priority:2" json:"asset_id"`

	Data datatypes.JSONType[map[string]any] `gorm:"type:jsonb" swaggertype:"object" json:"data"`

	// AssetEvent <-> ChangeSet
	ChangeSet *ChangeSet `gorm:"foreignKey:ChangeSetID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	// AssetEvent <-> Asset
	Asset *Asset `gorm:"foreignKey:AssetID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (AssetEvent) TableName() string { return "asset_events" }

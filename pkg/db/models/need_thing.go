package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/greenloop/greenloop-backend/pkg/db/types"
)

// NeedThing is a community request for reusable materials, posted by
// makers looking for specific waste categories.
type NeedThing struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequesterID uuid.UUID           `gorm:"column:requester_id;type:uuid;not null;index"`
	Title       string              `gorm:"column:title;not null"`
	Description *string             `gorm:"column:description"`
	WasteTypes  dbtypes.StringArray `gorm:"column:waste_types;type:text[]"`
	QuantityKg  *float64            `gorm:"column:quantity_kg"`
	IsFulfilled bool                `gorm:"column:is_fulfilled;not null;default:false"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

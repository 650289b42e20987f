package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenloop/greenloop-backend/pkg/enums"
)

// WastePrice is the per-kilogram reward rate for one waste type. One row
// per waste type; rates are edited in place by admins.
type WastePrice struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WasteType    enums.WasteType `gorm:"column:waste_type;type:text;not null;uniqueIndex"`
	PricePerKg   decimal.Decimal `gorm:"column:price_per_kg;type:numeric(10,2);not null"`
	PointsPerKg  int             `gorm:"column:points_per_kg;not null;default:0"`
	CO2SavedPerKg float64        `gorm:"column:co2_saved_per_kg;not null;default:0"`
	UpdatedByID  *uuid.UUID      `gorm:"column:updated_by_id;type:uuid"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

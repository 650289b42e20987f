package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/greenloop/greenloop-backend/pkg/enums"
)

// Profile carries per-user recycling totals and, for delivery partners,
// availability and vehicle metadata. TotalRecycledKg, TotalCO2SavedKg and
// RewardPoints only ever grow through completion accrual.
type Profile struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID          `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Address         *string            `gorm:"column:address"`
	AvatarURL       *string            `gorm:"column:avatar_url"`
	RewardPoints    int                `gorm:"column:reward_points;not null;default:0"`
	TotalRecycledKg float64            `gorm:"column:total_recycled_kg;not null;default:0"`
	TotalCO2SavedKg float64            `gorm:"column:total_co2_saved_kg;not null;default:0"`
	IsAvailable     bool               `gorm:"column:is_available;not null;default:false"`
	VehicleType     *enums.VehicleType `gorm:"column:vehicle_type;type:vehicle_type"`
	VehicleNumber   *string            `gorm:"column:vehicle_number"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

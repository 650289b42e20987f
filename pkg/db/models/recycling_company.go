package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/greenloop/greenloop-backend/pkg/db/types"
)

// RecyclingCompany is a downstream processing facility pickups can be
// routed to. WasteTypes holds the material categories it accepts.
type RecyclingCompany struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string              `gorm:"column:name;not null"`
	Description *string             `gorm:"column:description"`
	Address     string              `gorm:"column:address;not null"`
	Latitude    *float64            `gorm:"column:latitude"`
	Longitude   *float64            `gorm:"column:longitude"`
	Phone       *string             `gorm:"column:phone"`
	Email       *string             `gorm:"column:email"`
	WasteTypes  dbtypes.StringArray `gorm:"column:waste_types;type:text[]"`
	LogoURL     *string             `gorm:"column:logo_url"`
	IsActive    bool                `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/greenloop/greenloop-backend/pkg/enums"
)

// Pickup is the central entity: one customer request for waste collection.
// ActualWeightKg and FinalPrice stay null until the pickup completes.
type Pickup struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	WasteType          enums.WasteType      `gorm:"column:waste_type;type:text;not null"`
	AIIdentifiedType   *enums.WasteType     `gorm:"column:ai_identified_type;type:text"`
	Address            string               `gorm:"column:address;not null"`
	Latitude           *float64             `gorm:"column:latitude"`
	Longitude          *float64             `gorm:"column:longitude"`
	PickupDate         time.Time            `gorm:"column:pickup_date;not null"`
	PickupTimeSlot     *string              `gorm:"column:pickup_time_slot"`
	Notes              *string              `gorm:"column:notes"`
	ImageURL           *string              `gorm:"column:image_url"`
	EstimatedWeightKg  *float64             `gorm:"column:estimated_weight_kg"`
	ActualWeightKg     *float64             `gorm:"column:actual_weight_kg"`
	EstimatedPrice     *float64             `gorm:"column:estimated_price"`
	FinalPrice         *float64             `gorm:"column:final_price"`
	RecyclingCompanyID *uuid.UUID           `gorm:"column:recycling_company_id;type:uuid"`
	Status             enums.PickupStatus   `gorm:"column:status;type:pickup_status;not null;default:'pending'"`
	Assignments        []DeliveryAssignment `gorm:"foreignKey:PickupID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

package pickups

import (
	"time"

	"github.com/google/uuid"

	"github.com/greenloop/greenloop-backend/pkg/enums"
)

// CreateInput captures a customer's booking request.
type CreateInput struct {
	UserID            uuid.UUID
	WasteType         enums.WasteType
	Address           string
	Latitude          *float64
	Longitude         *float64
	PickupDate        time.Time
	PickupTimeSlot    *string
	Notes             *string
	ImageURL          *string
	AIIdentifiedType  *enums.WasteType
	EstimatedWeightKg *float64
}

// ListFilters describe the inputs supported by the pickup lists.
type ListFilters struct {
	Status   *enums.PickupStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// AssignmentSummary is the partner-facing slice of an assignment row.
type AssignmentSummary struct {
	ID                uuid.UUID              `json:"id"`
	DeliveryPartnerID uuid.UUID              `json:"delivery_partner_id"`
	Status            enums.AssignmentStatus `json:"status"`
	RouteOrder        int                    `json:"route_order"`
	AssignedAt        time.Time              `json:"assigned_at"`
	StartedAt         *time.Time             `json:"started_at,omitempty"`
	CompletedAt       *time.Time             `json:"completed_at,omitempty"`
}

// Summary exposes the fields returned in pickup lists.
type Summary struct {
	ID              uuid.UUID          `json:"id"`
	WasteType       enums.WasteType    `json:"waste_type"`
	Address         string             `json:"address"`
	PickupDate      time.Time          `json:"pickup_date"`
	PickupTimeSlot  *string            `json:"pickup_time_slot,omitempty"`
	Status          enums.PickupStatus `json:"status"`
	EstimatedPrice  *float64           `json:"estimated_price,omitempty"`
	FinalPrice      *float64           `json:"final_price,omitempty"`
	ActualWeightKg  *float64           `json:"actual_weight_kg,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	Assignment      *AssignmentSummary `json:"assignment,omitempty"`
}

// List wraps the paginated pickups plus the next page cursor.
type List struct {
	Pickups    []Summary `json:"pickups"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

package dispatch

import (
	"time"

	"github.com/google/uuid"

	"github.com/greenloop/greenloop-backend/pkg/enums"
)

// AssignInput carries an admin dispatch decision.
type AssignInput struct {
	PickupID  uuid.UUID
	PartnerID uuid.UUID
	AdminID   uuid.UUID
}

// CompleteInput carries the weigh-in recorded at handoff.
type CompleteInput struct {
	AssignmentID   uuid.UUID
	PartnerID      uuid.UUID
	ActualWeightKg float64
}

// CancelInput carries an admin cancellation.
type CancelInput struct {
	PickupID uuid.UUID
	AdminID  uuid.UUID
	Reason   string
}

// PartnerSummary is the dispatch board view of an available partner.
type PartnerSummary struct {
	ID            uuid.UUID          `json:"id"`
	FirstName     string             `json:"first_name"`
	LastName      string             `json:"last_name"`
	Phone         *string            `json:"phone,omitempty"`
	VehicleType   *enums.VehicleType `json:"vehicle_type,omitempty"`
	VehicleNumber *string            `json:"vehicle_number,omitempty"`
}

// RouteStop is one entry in a partner's active queue.
type RouteStop struct {
	AssignmentID   uuid.UUID              `json:"assignment_id"`
	PickupID       uuid.UUID              `json:"pickup_id"`
	Status         enums.AssignmentStatus `json:"status"`
	RouteOrder     int                    `json:"route_order"`
	WasteType      enums.WasteType        `json:"waste_type"`
	Address        string                 `json:"address"`
	PickupDate     time.Time              `json:"pickup_date"`
	PickupTimeSlot *string                `json:"pickup_time_slot,omitempty"`
	AssignedAt     time.Time              `json:"assigned_at"`
	StartedAt      *time.Time             `json:"started_at,omitempty"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty"`
	ActualWeightKg *float64               `json:"actual_weight_kg,omitempty"`
}

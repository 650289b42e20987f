package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/greenloop/greenloop-backend/pkg/enums"
)

// PickupCreatedEvent signals a new pickup request entering the queue.
type PickupCreatedEvent struct {
	PickupID   uuid.UUID       `json:"pickup_id"`
	UserID     uuid.UUID       `json:"user_id"`
	WasteType  enums.WasteType `json:"waste_type"`
	PickupDate time.Time       `json:"pickup_date"`
	Address    string          `json:"address"`
}

// PickupAssignedEvent is emitted when an admin dispatches a pickup to a partner.
type PickupAssignedEvent struct {
	PickupID          uuid.UUID `json:"pickup_id"`
	UserID            uuid.UUID `json:"user_id"`
	AssignmentID      uuid.UUID `json:"assignment_id"`
	DeliveryPartnerID uuid.UUID `json:"delivery_partner_id"`
	RouteOrder        int       `json:"route_order"`
}

// PickupStartedEvent reports a partner beginning collection.
type PickupStartedEvent struct {
	PickupID          uuid.UUID `json:"pickup_id"`
	UserID            uuid.UUID `json:"user_id"`
	DeliveryPartnerID uuid.UUID `json:"delivery_partner_id"`
	StartedAt         time.Time `json:"started_at"`
}

// PickupCompletedEvent surfaces the weighed-in result when collection finishes.
type PickupCompletedEvent struct {
	PickupID          uuid.UUID       `json:"pickup_id"`
	UserID            uuid.UUID       `json:"user_id"`
	DeliveryPartnerID uuid.UUID       `json:"delivery_partner_id"`
	WasteType         enums.WasteType `json:"waste_type"`
	ActualWeightKg    float64         `json:"actual_weight_kg"`
	CompletedAt       time.Time       `json:"completed_at"`
}

// PickupCancelledEvent is emitted whenever a pickup leaves the queue unfinished.
type PickupCancelledEvent struct {
	PickupID    uuid.UUID `json:"pickup_id"`
	UserID      uuid.UUID `json:"user_id"`
	CancelledAt time.Time `json:"cancelled_at"`
	Reason      string    `json:"reason,omitempty"`
}

// RewardsAccruedEvent reports reward points credited after a completion.
type RewardsAccruedEvent struct {
	PickupID      uuid.UUID       `json:"pickup_id"`
	UserID        uuid.UUID       `json:"user_id"`
	WasteType     enums.WasteType `json:"waste_type"`
	PointsAwarded int             `json:"points_awarded"`
	WeightKg      float64         `json:"weight_kg"`
	CO2SavedKg    float64         `json:"co2_saved_kg"`
	FinalPrice    float64         `json:"final_price"`
	TotalPoints   int             `json:"total_points"`
}

// RoleGrantedEvent is emitted when an admin changes a user's role.
type RoleGrantedEvent struct {
	UserID    uuid.UUID     `json:"user_id"`
	Role      enums.AppRole `json:"role"`
	GrantedBy uuid.UUID     `json:"granted_by"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/greenloop/greenloop-backend/pkg/enums"
)

// DeliveryAssignment links a pickup to a delivery partner. A pickup can
// accumulate historical rows across reassignments, but at most one carries
// Active=true at a time.
type DeliveryAssignment struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PickupID          uuid.UUID              `gorm:"column:pickup_id;type:uuid;not null;index"`
	DeliveryPartnerID uuid.UUID              `gorm:"column:delivery_partner_id;type:uuid;not null;index"`
	AssignedByUserID  uuid.UUID              `gorm:"column:assigned_by_user_id;type:uuid;not null"`
	Status            enums.AssignmentStatus `gorm:"column:status;type:assignment_status;not null;default:'assigned'"`
	Active            bool                   `gorm:"column:active;not null"`
	RouteOrder        int                    `gorm:"column:route_order;not null;default:0"`
	AssignedAt        time.Time              `gorm:"column:assigned_at;autoCreateTime"`
	StartedAt         *time.Time             `gorm:"column:started_at"`
	CompletedAt       *time.Time             `gorm:"column:completed_at"`
	UnassignedAt      *time.Time             `gorm:"column:unassigned_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/greenloop/greenloop-backend/pkg/enums"
)

// UserRole stores the platform role for a user as a standalone record.
// A user without a row resolves to the customer role; role changes never
// touch the profile schema.
type UserRole struct {
	ID        uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID     `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Role      enums.AppRole `gorm:"column:role;type:app_role;not null;default:'customer'"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

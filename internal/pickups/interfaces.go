package pickups

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/pkg/db/models"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	"github.com/greenloop/greenloop-backend/pkg/pagination"
)

// Repository exposes pickup persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, pickup *models.Pickup) (*models.Pickup, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Pickup, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Pickup, error)
	ListAll(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Pickup, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.PickupStatus, updates map[string]any) (bool, error)
	CountByStatus(ctx context.Context) (map[enums.PickupStatus]int64, error)
}

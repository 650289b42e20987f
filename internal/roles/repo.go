package roles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/pkg/db/models"
	"github.com/greenloop/greenloop-backend/pkg/enums"
)

// Repository exposes user role persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.UserRole, error)
	Upsert(ctx context.Context, userID uuid.UUID, role enums.AppRole) error
	ListUserIDsByRole(ctx context.Context, role enums.AppRole) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a roles repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.UserRole, error) {
	var row models.UserRole
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) Upsert(ctx context.Context, userID uuid.UUID, role enums.AppRole) error {
	var existing models.UserRole
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.WithContext(ctx).Create(&models.UserRole{UserID: userID, Role: role}).Error
	}
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&existing).
		Update("role", role).Error
}

func (r *repository) ListUserIDsByRole(ctx context.Context, role enums.AppRole) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.UserRole{}).
		Where("role = ?", role).
		Pluck("user_id", &ids).Error
	return ids, err
}

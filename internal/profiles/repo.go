package profiles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/pkg/db/models"
)

// Repository exposes profile persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	Update(ctx context.Context, userID uuid.UUID, updates map[string]any) error
	IncrementAccruals(ctx context.Context, userID uuid.UUID, points int, weightKg, co2SavedKg float64) error
	SetAvailability(ctx context.Context, userID uuid.UUID, available bool) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a profiles repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) Create(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *repository) Update(ctx context.Context, userID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Updates(updates).Error
}

// IncrementAccruals applies reward deltas in place so concurrent
// completions never lose updates.
func (r *repository) IncrementAccruals(ctx context.Context, userID uuid.UUID, points int, weightKg, co2SavedKg float64) error {
	return r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"reward_points":      gorm.Expr("reward_points + ?", points),
			"total_recycled_kg":  gorm.Expr("total_recycled_kg + ?", weightKg),
			"total_co2_saved_kg": gorm.Expr("total_co2_saved_kg + ?", co2SavedKg),
		}).Error
}

func (r *repository) SetAvailability(ctx context.Context, userID uuid.UUID, available bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("is_available", available).Error
}

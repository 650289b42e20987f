package prices

import (
	"context"

	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/pkg/db/models"
	"github.com/greenloop/greenloop-backend/pkg/enums"
)

// Repository exposes waste price persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context) ([]models.WastePrice, error)
	FindByWasteType(ctx context.Context, wasteType enums.WasteType) (*models.WastePrice, error)
	Upsert(ctx context.Context, price *models.WastePrice) (*models.WastePrice, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a waste price repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) List(ctx context.Context) ([]models.WastePrice, error) {
	var rows []models.WastePrice
	err := r.db.WithContext(ctx).
		Order("waste_type ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindByWasteType(ctx context.Context, wasteType enums.WasteType) (*models.WastePrice, error) {
	var price models.WastePrice
	err := r.db.WithContext(ctx).
		Where("waste_type = ?", wasteType).
		First(&price).Error
	if err != nil {
		return nil, err
	}
	return &price, nil
}

func (r *repository) Upsert(ctx context.Context, price *models.WastePrice) (*models.WastePrice, error) {
	var existing models.WastePrice
	err := r.db.WithContext(ctx).
		Where("waste_type = ?", price.WasteType).
		First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		if err := r.db.WithContext(ctx).Create(price).Error; err != nil {
			return nil, err
		}
		return price, nil
	}
	if err != nil {
		return nil, err
	}
	updates := map[string]any{
		"price_per_kg":     price.PricePerKg,
		"points_per_kg":    price.PointsPerKg,
		"co2_saved_per_kg": price.CO2SavedPerKg,
		"updated_by_id":    price.UpdatedByID,
	}
	if err := r.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

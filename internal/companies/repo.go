package companies

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/pkg/db/models"
	"github.com/greenloop/greenloop-backend/pkg/enums"
)

// Repository exposes recycling company persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context, wasteType *enums.WasteType, activeOnly bool) ([]models.RecyclingCompany, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.RecyclingCompany, error)
	Create(ctx context.Context, company *models.RecyclingCompany) (*models.RecyclingCompany, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a companies repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) List(ctx context.Context, wasteType *enums.WasteType, activeOnly bool) ([]models.RecyclingCompany, error) {
	query := r.db.WithContext(ctx)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if wasteType != nil {
		query = query.Where("? = ANY(waste_types)", string(*wasteType))
	}
	var rows []models.RecyclingCompany
	err := query.Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.RecyclingCompany, error) {
	var company models.RecyclingCompany
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *repository) Create(ctx context.Context, company *models.RecyclingCompany) (*models.RecyclingCompany, error) {
	if err := r.db.WithContext(ctx).Create(company).Error; err != nil {
		return nil, err
	}
	return company, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.RecyclingCompany{}).
		Where("id = ?", id).
		Updates(updates).Error
}

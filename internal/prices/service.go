package prices

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/pkg/db/models"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
)

// UpdateInput captures an admin rate change for one waste type.
type UpdateInput struct {
	WasteType     enums.WasteType
	PricePerKg    decimal.Decimal
	PointsPerKg   int
	CO2SavedPerKg float64
	UpdatedBy     uuid.UUID
}

// Service defines the waste price operations.
type Service interface {
	List(ctx context.Context) ([]models.WastePrice, error)
	FindByWasteType(ctx context.Context, wasteType enums.WasteType) (*models.WastePrice, error)
	Update(ctx context.Context, input UpdateInput) (*models.WastePrice, error)
}

type service struct {
	repo Repository
}

// NewService builds a waste price service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("prices repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.WastePrice, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list waste prices")
	}
	return rows, nil
}

func (s *service) FindByWasteType(ctx context.Context, wasteType enums.WasteType) (*models.WastePrice, error) {
	price, err := s.repo.FindByWasteType(ctx, wasteType)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load waste price")
	}
	return price, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.WastePrice, error) {
	if !input.WasteType.IsValid() || !input.WasteType.IsBookable() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "waste type has no price schedule")
	}
	if input.PricePerKg.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price per kg cannot be negative")
	}
	if input.PointsPerKg < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points per kg cannot be negative")
	}

	price := &models.WastePrice{
		WasteType:     input.WasteType,
		PricePerKg:    input.PricePerKg,
		PointsPerKg:   input.PointsPerKg,
		CO2SavedPerKg: input.CO2SavedPerKg,
	}
	if input.UpdatedBy != uuid.Nil {
		price.UpdatedByID = &input.UpdatedBy
	}
	updated, err := s.repo.Upsert(ctx, price)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update waste price")
	}
	return updated, nil
}

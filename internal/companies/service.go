package companies

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/pkg/db/models"
	dbtypes "github.com/greenloop/greenloop-backend/pkg/db/types"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
)

// CreateInput captures an admin adding a processing facility.
type CreateInput struct {
	Name        string
	Description *string
	Address     string
	Latitude    *float64
	Longitude   *float64
	Phone       *string
	Email       *string
	WasteTypes  []enums.WasteType
	LogoURL     *string
}

// Service defines recycling company operations.
type Service interface {
	List(ctx context.Context, wasteType *enums.WasteType) ([]models.RecyclingCompany, error)
	Get(ctx context.Context, id uuid.UUID) (*models.RecyclingCompany, error)
	Create(ctx context.Context, input CreateInput) (*models.RecyclingCompany, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type service struct {
	repo Repository
}

// NewService builds a recycling company service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("companies repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, wasteType *enums.WasteType) ([]models.RecyclingCompany, error) {
	if wasteType != nil && !wasteType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown waste type")
	}
	rows, err := s.repo.List(ctx, wasteType, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list companies")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.RecyclingCompany, error) {
	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
	}
	return company, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.RecyclingCompany, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name required")
	}
	if strings.TrimSpace(input.Address) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company address required")
	}
	wasteTypes := make(dbtypes.StringArray, 0, len(input.WasteTypes))
	for _, wt := range input.WasteTypes {
		if !wt.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown waste type "+wt.String())
		}
		wasteTypes = append(wasteTypes, string(wt))
	}

	company := &models.RecyclingCompany{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Address:     strings.TrimSpace(input.Address),
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Phone:       input.Phone,
		Email:       input.Email,
		WasteTypes:  wasteTypes,
		LogoURL:     input.LogoURL,
		IsActive:    true,
	}
	created, err := s.repo.Create(ctx, company)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create company")
	}
	return created, nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, map[string]any{"is_active": active}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update company")
	}
	return nil
}

package profiles

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/pkg/db/models"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
)

// UpdateInput carries the profile fields a user can edit.
type UpdateInput struct {
	Address       *string
	AvatarURL     *string
	VehicleType   *enums.VehicleType
	VehicleNumber *string
}

// Service defines profile operations.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, userID uuid.UUID, input UpdateInput) (*models.Profile, error)
}

type service struct {
	repo Repository
}

// NewService builds a profiles service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("profiles repository required")
	}
	return &service{repo: repo}, nil
}

// Get returns the profile, creating an empty row on first access.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err == gorm.ErrRecordNotFound {
		created, createErr := s.repo.Create(ctx, &models.Profile{UserID: userID})
		if createErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "create profile")
		}
		return created, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return profile, nil
}

func (s *service) Update(ctx context.Context, userID uuid.UUID, input UpdateInput) (*models.Profile, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Address != nil {
		updates["address"] = strings.TrimSpace(*input.Address)
	}
	if input.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*input.AvatarURL)
	}
	if input.VehicleType != nil {
		if !input.VehicleType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown vehicle type")
		}
		updates["vehicle_type"] = *input.VehicleType
	}
	if input.VehicleNumber != nil {
		updates["vehicle_number"] = strings.TrimSpace(*input.VehicleNumber)
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, userID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
		}
	}
	return s.Get(ctx, userID)
}

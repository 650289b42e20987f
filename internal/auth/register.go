package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/internal/profiles"
	"github.com/greenloop/greenloop-backend/internal/roles"
	"github.com/greenloop/greenloop-backend/internal/users"
	"github.com/greenloop/greenloop-backend/pkg/config"
	"github.com/greenloop/greenloop-backend/pkg/db"
	"github.com/greenloop/greenloop-backend/pkg/db/models"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
	"github.com/greenloop/greenloop-backend/pkg/security"
)

// RegisterRequest contains the payload for onboarding a new customer.
type RegisterRequest struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
}

// RegisterPartnerRequest extends registration with vehicle details.
type RegisterPartnerRequest struct {
	RegisterRequest
	VehicleType   enums.VehicleType `json:"vehicle_type" validate:"required"`
	VehicleNumber string            `json:"vehicle_number" validate:"required"`
}

// AdminRegisterRequest bootstraps an admin account. Only served outside
// production.
type AdminRegisterRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

// RegisterService handles the onboarding transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) error
	RegisterPartner(ctx context.Context, req RegisterPartnerRequest) error
}

// AdminRegisterService creates admin accounts for local and staging setups.
type AdminRegisterService interface {
	Register(ctx context.Context, req AdminRegisterRequest) (*users.UserDTO, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) error {
	return s.register(ctx, req, enums.AppRoleCustomer, nil, nil)
}

func (s *registerService) RegisterPartner(ctx context.Context, req RegisterPartnerRequest) error {
	if !req.VehicleType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid vehicle type")
	}
	vehicleNumber := strings.TrimSpace(req.VehicleNumber)
	if vehicleNumber == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "vehicle number is required")
	}
	return s.register(ctx, req.RegisterRequest, enums.AppRoleDeliveryPartner, &req.VehicleType, &vehicleNumber)
}

// NewAdminRegisterService builds the non-production admin bootstrap flow.
func NewAdminRegisterService(params RegisterServiceParams) (AdminRegisterService, error) {
	svc, err := NewRegisterService(params)
	if err != nil {
		return nil, err
	}
	return &adminRegisterService{inner: svc.(*registerService)}, nil
}

type adminRegisterService struct {
	inner *registerService
}

func (s *adminRegisterService) Register(ctx context.Context, req AdminRegisterRequest) (*users.UserDTO, error) {
	base := RegisterRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	}
	if err := s.inner.register(ctx, base, enums.AppRoleAdmin, nil, nil); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	userRepo := users.NewRepository(s.inner.db.DB())
	user, err := userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load created admin")
	}
	return users.FromModel(user), nil
}

func (s *registerService) register(ctx context.Context, req RegisterRequest, role enums.AppRole, vehicleType *enums.VehicleType, vehicleNumber *string) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		roleRepo := roles.NewRepository(tx)
		profileRepo := profiles.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Phone:        req.Phone,
		})
		if err != nil {
			// A concurrent registration can slip past the read above.
			if db.IsUniqueViolation(err, "users_email_key") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		if err := roleRepo.Upsert(ctx, user.ID, role); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign role")
		}

		profile := &models.Profile{
			UserID:        user.ID,
			Address:       req.Address,
			VehicleType:   vehicleType,
			VehicleNumber: vehicleNumber,
		}
		if _, err := profileRepo.Create(ctx, profile); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create profile")
		}

		return nil
	})
}

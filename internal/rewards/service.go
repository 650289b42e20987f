package rewards

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/internal/profiles"
	"github.com/greenloop/greenloop-backend/pkg/db/models"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
	"github.com/greenloop/greenloop-backend/pkg/outbox"
	"github.com/greenloop/greenloop-backend/pkg/outbox/payloads"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Accrual summarizes what a completed pickup earned.
type Accrual struct {
	Points      int     `json:"points"`
	WeightKg    float64 `json:"weight_kg"`
	CO2SavedKg  float64 `json:"co2_saved_kg"`
	FinalPrice  float64 `json:"final_price"`
	TotalPoints int     `json:"total_points"`
}

// Summary is the customer-facing rewards balance.
type Summary struct {
	RewardPoints    int     `json:"reward_points"`
	TotalRecycledKg float64 `json:"total_recycled_kg"`
	TotalCO2SavedKg float64 `json:"total_co2_saved_kg"`
}

// PriceLookup resolves the rate schedule inside an existing transaction.
type PriceLookup interface {
	FindByWasteType(ctx context.Context, wasteType enums.WasteType) (*models.WastePrice, error)
}

// PriceLookupFactory binds a lookup to a transaction.
type PriceLookupFactory func(tx *gorm.DB) PriceLookup

// Service accrues rewards and serves balances.
type Service struct {
	priceLookup PriceLookupFactory
	profiles    profiles.Repository
	outbox      outboxPublisher
}

// NewService builds the rewards service.
func NewService(priceLookup PriceLookupFactory, profileRepo profiles.Repository, outboxSvc outboxPublisher) (*Service, error) {
	if priceLookup == nil {
		return nil, fmt.Errorf("price lookup required")
	}
	if profileRepo == nil {
		return nil, fmt.Errorf("profiles repository required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Service{priceLookup: priceLookup, profiles: profileRepo, outbox: outboxSvc}, nil
}

// AccrueForPickup credits the customer inside the caller's transaction.
// A missing price schedule credits nothing and is not an error; the
// caller has already made the pickup's completion durable.
func (s *Service) AccrueForPickup(ctx context.Context, tx *gorm.DB, pickup *models.Pickup, weightKg float64) (*Accrual, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if pickup == nil || pickup.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup required")
	}
	if weightKg <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight must be positive")
	}

	accrual := &Accrual{WeightKg: weightKg}
	price, err := s.priceLookup(tx).FindByWasteType(ctx, pickup.WasteType)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load waste price")
	}
	if price != nil {
		weight := decimal.NewFromFloat(weightKg)
		accrual.Points = int(decimal.NewFromInt(int64(price.PointsPerKg)).Mul(weight).Round(0).IntPart())
		accrual.FinalPrice, _ = price.PricePerKg.Mul(weight).Round(2).Float64()
		accrual.CO2SavedKg = price.CO2SavedPerKg * weightKg
	}

	profileRepo := s.profiles.WithTx(tx)
	if err := profileRepo.IncrementAccruals(ctx, pickup.UserID, accrual.Points, accrual.WeightKg, accrual.CO2SavedKg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit rewards")
	}
	profile, err := profileRepo.FindByUserID(ctx, pickup.UserID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	if profile != nil {
		accrual.TotalPoints = profile.RewardPoints
	}

	if accrual.Points == 0 && accrual.FinalPrice == 0 {
		return accrual, nil
	}
	err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventRewardsAccrued,
		AggregateType: enums.AggregateProfile,
		AggregateID:   pickup.UserID,
		Version:       1,
		OccurredAt:    time.Now().UTC(),
		Data: payloads.RewardsAccruedEvent{
			PickupID:      pickup.ID,
			UserID:        pickup.UserID,
			WasteType:     pickup.WasteType,
			PointsAwarded: accrual.Points,
			WeightKg:      accrual.WeightKg,
			CO2SavedKg:    accrual.CO2SavedKg,
			FinalPrice:    accrual.FinalPrice,
			TotalPoints:   accrual.TotalPoints,
		},
	})
	if err != nil {
		return nil, err
	}
	return accrual, nil
}

// GetSummary returns the live rewards balance for a user. There is no
// redemption write path; points only ever go up.
func (s *Service) GetSummary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err == gorm.ErrRecordNotFound {
		return &Summary{}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return &Summary{
		RewardPoints:    profile.RewardPoints,
		TotalRecycledKg: profile.TotalRecycledKg,
		TotalCO2SavedKg: profile.TotalCO2SavedKg,
	}, nil
}

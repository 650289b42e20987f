package pickups

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/pkg/db/models"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
	"github.com/greenloop/greenloop-backend/pkg/outbox"
	"github.com/greenloop/greenloop-backend/pkg/outbox/payloads"
	"github.com/greenloop/greenloop-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type priceReader interface {
	FindByWasteType(ctx context.Context, wasteType enums.WasteType) (*models.WastePrice, error)
}

// Service defines the customer-facing pickup operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Pickup, error)
	GetForUser(ctx context.Context, userID, pickupID uuid.UUID) (*models.Pickup, error)
	ListForUser(ctx context.Context, userID uuid.UUID, filters ListFilters, params pagination.Params) (*List, error)
	ListAll(ctx context.Context, filters ListFilters, params pagination.Params) (*List, error)
	Cancel(ctx context.Context, userID, pickupID uuid.UUID) error
	CountByStatus(ctx context.Context) (map[enums.PickupStatus]int64, error)
}

type service struct {
	repo   Repository
	prices priceReader
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds a pickups service with the required dependencies.
func NewService(repo Repository, prices priceReader, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pickups repository required")
	}
	if prices == nil {
		return nil, fmt.Errorf("price reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, prices: prices, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Pickup, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.WasteType.IsValid() || !input.WasteType.IsBookable() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "waste type is not bookable")
	}
	if strings.TrimSpace(input.Address) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup address required")
	}
	if input.PickupDate.Before(time.Now().Truncate(24 * time.Hour)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup date cannot be in the past")
	}
	if input.EstimatedWeightKg != nil && *input.EstimatedWeightKg <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimated weight must be positive")
	}

	pickup := &models.Pickup{
		UserID:            input.UserID,
		WasteType:         input.WasteType,
		AIIdentifiedType:  input.AIIdentifiedType,
		Address:           strings.TrimSpace(input.Address),
		Latitude:          input.Latitude,
		Longitude:         input.Longitude,
		PickupDate:        input.PickupDate,
		PickupTimeSlot:    input.PickupTimeSlot,
		Notes:             input.Notes,
		ImageURL:          input.ImageURL,
		EstimatedWeightKg: input.EstimatedWeightKg,
		Status:            enums.PickupStatusPending,
	}
	pickup.EstimatedPrice = s.estimatePrice(ctx, input.WasteType, input.EstimatedWeightKg)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		created, err := repo.Create(ctx, pickup)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pickup")
		}
		pickup = created
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPickupCreated,
			AggregateType: enums.AggregatePickup,
			AggregateID:   pickup.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.UserID, Role: string(enums.AppRoleCustomer)},
			Data: payloads.PickupCreatedEvent{
				PickupID:   pickup.ID,
				UserID:     pickup.UserID,
				WasteType:  pickup.WasteType,
				PickupDate: pickup.PickupDate,
				Address:    pickup.Address,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return pickup, nil
}

// estimatePrice is best-effort: a missing price schedule leaves the
// estimate empty rather than failing the booking.
func (s *service) estimatePrice(ctx context.Context, wasteType enums.WasteType, weightKg *float64) *float64 {
	if weightKg == nil {
		return nil
	}
	price, err := s.prices.FindByWasteType(ctx, wasteType)
	if err != nil || price == nil {
		return nil
	}
	estimate, _ := price.PricePerKg.Mul(decimal.NewFromFloat(*weightKg)).Round(2).Float64()
	return &estimate
}

func (s *service) GetForUser(ctx context.Context, userID, pickupID uuid.UUID) (*models.Pickup, error) {
	pickup, err := s.repo.FindByID(ctx, pickupID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pickup not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup")
	}
	if pickup.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pickup not found")
	}
	return pickup, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, filters ListFilters, params pagination.Params) (*List, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByUser(ctx, userID, filters, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pickups")
	}
	return buildList(rows, limit), nil
}

func (s *service) ListAll(ctx context.Context, filters ListFilters, params pagination.Params) (*List, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListAll(ctx, filters, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pickups")
	}
	return buildList(rows, limit), nil
}

// Cancel lets a customer withdraw their own pickup while it is still
// waiting in the queue.
func (s *service) Cancel(ctx context.Context, userID, pickupID uuid.UUID) error {
	pickup, err := s.GetForUser(ctx, userID, pickupID)
	if err != nil {
		return err
	}
	if err := ValidateTransition(pickup.Status, enums.PickupStatusCancelled); err != nil {
		return err
	}
	if pickup.Status != enums.PickupStatusPending {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending pickups can be cancelled by the requester")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		moved, err := repo.TransitionStatus(ctx, pickupID, enums.PickupStatusPending, enums.PickupStatusCancelled, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel pickup")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pickup is no longer pending")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPickupCancelled,
			AggregateType: enums.AggregatePickup,
			AggregateID:   pickupID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.AppRoleCustomer)},
			Data: payloads.PickupCancelledEvent{
				PickupID:    pickupID,
				UserID:      userID,
				CancelledAt: time.Now().UTC(),
				Reason:      "cancelled by requester",
			},
		})
	})
}

func (s *service) CountByStatus(ctx context.Context) (map[enums.PickupStatus]int64, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pickups")
	}
	return counts, nil
}

func buildList(rows []models.Pickup, limit int) *List {
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	list := &List{Pickups: make([]Summary, 0, len(rows))}
	for _, row := range rows {
		list.Pickups = append(list.Pickups, toSummary(row))
	}
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list
}

func toSummary(pickup models.Pickup) Summary {
	summary := Summary{
		ID:             pickup.ID,
		WasteType:      pickup.WasteType,
		Address:        pickup.Address,
		PickupDate:     pickup.PickupDate,
		PickupTimeSlot: pickup.PickupTimeSlot,
		Status:         pickup.Status,
		EstimatedPrice: pickup.EstimatedPrice,
		FinalPrice:     pickup.FinalPrice,
		ActualWeightKg: pickup.ActualWeightKg,
		CreatedAt:      pickup.CreatedAt,
	}
	for _, assignment := range pickup.Assignments {
		if !assignment.Active {
			continue
		}
		summary.Assignment = &AssignmentSummary{
			ID:                assignment.ID,
			DeliveryPartnerID: assignment.DeliveryPartnerID,
			Status:            assignment.Status,
			RouteOrder:        assignment.RouteOrder,
			AssignedAt:        assignment.AssignedAt,
			StartedAt:         assignment.StartedAt,
			CompletedAt:       assignment.CompletedAt,
		}
		break
	}
	return summary
}

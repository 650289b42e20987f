package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/internal/pickups"
	"github.com/greenloop/greenloop-backend/internal/profiles"
	"github.com/greenloop/greenloop-backend/internal/rewards"
	"github.com/greenloop/greenloop-backend/pkg/db/models"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
	"github.com/greenloop/greenloop-backend/pkg/outbox"
	"github.com/greenloop/greenloop-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type roleResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (enums.AppRole, error)
}

type accruer interface {
	AccrueForPickup(ctx context.Context, tx *gorm.DB, pickup *models.Pickup, weightKg float64) (*rewards.Accrual, error)
}

// Service defines dispatch and fulfillment operations.
type Service interface {
	Assign(ctx context.Context, input AssignInput) (*models.DeliveryAssignment, error)
	Start(ctx context.Context, partnerID, assignmentID uuid.UUID) error
	Complete(ctx context.Context, input CompleteInput) (*rewards.Accrual, error)
	AdminCancel(ctx context.Context, input CancelInput) error
	AdminComplete(ctx context.Context, adminID, pickupID uuid.UUID, actualWeightKg float64) (*rewards.Accrual, error)
	SetAvailability(ctx context.Context, partnerID uuid.UUID, available bool) error
	ListRoute(ctx context.Context, partnerID uuid.UUID) ([]RouteStop, error)
	ListCompleted(ctx context.Context, partnerID uuid.UUID) ([]RouteStop, error)
	ListEligiblePartners(ctx context.Context) ([]PartnerSummary, error)
}

type service struct {
	repo     Repository
	pickups  pickups.Repository
	profiles profiles.Repository
	roles    roleResolver
	rewards  accruer
	tx       txRunner
	outbox   outboxPublisher
}

// NewService builds the dispatch service with the required dependencies.
func NewService(
	repo Repository,
	pickupRepo pickups.Repository,
	profileRepo profiles.Repository,
	roleSvc roleResolver,
	rewardSvc accruer,
	tx txRunner,
	outboxSvc outboxPublisher,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dispatch repository required")
	}
	if pickupRepo == nil {
		return nil, fmt.Errorf("pickups repository required")
	}
	if profileRepo == nil {
		return nil, fmt.Errorf("profiles repository required")
	}
	if roleSvc == nil {
		return nil, fmt.Errorf("role resolver required")
	}
	if rewardSvc == nil {
		return nil, fmt.Errorf("rewards service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:     repo,
		pickups:  pickupRepo,
		profiles: profileRepo,
		roles:    roleSvc,
		rewards:  rewardSvc,
		tx:       tx,
		outbox:   outboxSvc,
	}, nil
}

// Assign moves a pending pickup onto a partner's route. The status flip
// and the assignment insert commit together or not at all.
func (s *service) Assign(ctx context.Context, input AssignInput) (*models.DeliveryAssignment, error) {
	if input.AdminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}
	if input.PickupID == uuid.Nil || input.PartnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup and partner ids required")
	}

	role, err := s.roles.Resolve(ctx, input.PartnerID)
	if err != nil {
		return nil, err
	}
	if role != enums.AppRoleDeliveryPartner {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignee is not a delivery partner")
	}
	profile, err := s.profiles.FindByUserID(ctx, input.PartnerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner has no profile")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load partner profile")
	}
	if !profile.IsAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner is not accepting work")
	}

	var assignment *models.DeliveryAssignment
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		pickupRepo := s.pickups.WithTx(tx)
		pickup, err := pickupRepo.FindByID(ctx, input.PickupID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pickup not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup")
		}

		moved, err := pickupRepo.TransitionStatus(ctx, pickup.ID, enums.PickupStatusPending, enums.PickupStatusAssigned, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign pickup")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pickup is not pending")
		}

		repo := s.repo.WithTx(tx)
		routeOrder, err := repo.NextRouteOrder(ctx, input.PartnerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute route order")
		}
		assignment, err = repo.Create(ctx, &models.DeliveryAssignment{
			ID:                uuid.New(),
			PickupID:          pickup.ID,
			DeliveryPartnerID: input.PartnerID,
			AssignedByUserID:  input.AdminID,
			Status:            enums.AssignmentStatusAssigned,
			Active:            true,
			RouteOrder:        routeOrder,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignment")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPickupAssigned,
			AggregateType: enums.AggregatePickup,
			AggregateID:   pickup.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.AdminID, Role: string(enums.AppRoleAdmin)},
			Data: payloads.PickupAssignedEvent{
				PickupID:          pickup.ID,
				UserID:            pickup.UserID,
				AssignmentID:      assignment.ID,
				DeliveryPartnerID: input.PartnerID,
				RouteOrder:        routeOrder,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

// Start flips both the assignment and its pickup to in_progress.
func (s *service) Start(ctx context.Context, partnerID, assignmentID uuid.UUID) error {
	if partnerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "partner identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		assignment, err := repo.FindByID(ctx, assignmentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
		}
		if assignment.DeliveryPartnerID != partnerID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		if !assignment.Active {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment is no longer active")
		}

		now := time.Now().UTC()
		moved, err := repo.TransitionStatus(ctx, assignment.ID, enums.AssignmentStatusAssigned, enums.AssignmentStatusInProgress, map[string]any{
			"started_at": now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start assignment")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment is not awaiting start")
		}

		pickupRepo := s.pickups.WithTx(tx)
		moved, err = pickupRepo.TransitionStatus(ctx, assignment.PickupID, enums.PickupStatusAssigned, enums.PickupStatusInProgress, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start pickup")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pickup is not assigned")
		}

		pickup, err := pickupRepo.FindByID(ctx, assignment.PickupID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPickupStarted,
			AggregateType: enums.AggregatePickup,
			AggregateID:   pickup.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: partnerID, Role: string(enums.AppRoleDeliveryPartner)},
			Data: payloads.PickupStartedEvent{
				PickupID:          pickup.ID,
				UserID:            pickup.UserID,
				DeliveryPartnerID: partnerID,
				StartedAt:         now,
			},
		})
	})
}

// Complete records the weigh-in, finishes the pickup, and credits the
// customer. The pickup's compare-and-swap gates the accrual so a retried
// completion can never credit twice.
func (s *service) Complete(ctx context.Context, input CompleteInput) (*rewards.Accrual, error) {
	if input.PartnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "partner identity missing")
	}
	if input.ActualWeightKg <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actual weight must be positive")
	}

	var accrual *rewards.Accrual
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		assignment, err := repo.FindByID(ctx, input.AssignmentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
		}
		if assignment.DeliveryPartnerID != input.PartnerID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}

		accrual, err = s.finishPickup(ctx, tx, assignment, input.ActualWeightKg, input.PartnerID, enums.AppRoleDeliveryPartner)
		return err
	})
	if err != nil {
		return nil, err
	}
	return accrual, nil
}

// AdminComplete lets an admin close out an in-progress pickup on the
// partner's behalf.
func (s *service) AdminComplete(ctx context.Context, adminID, pickupID uuid.UUID, actualWeightKg float64) (*rewards.Accrual, error) {
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}
	if actualWeightKg <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actual weight must be positive")
	}

	var accrual *rewards.Accrual
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		assignment, err := repo.FindActiveByPickup(ctx, pickupID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "pickup has no active assignment")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
		}

		accrual, err = s.finishPickup(ctx, tx, assignment, actualWeightKg, adminID, enums.AppRoleAdmin)
		return err
	})
	if err != nil {
		return nil, err
	}
	return accrual, nil
}

func (s *service) finishPickup(ctx context.Context, tx *gorm.DB, assignment *models.DeliveryAssignment, actualWeightKg float64, actorID uuid.UUID, actorRole enums.AppRole) (*rewards.Accrual, error) {
	repo := s.repo.WithTx(tx)
	now := time.Now().UTC()

	moved, err := repo.TransitionStatus(ctx, assignment.ID, enums.AssignmentStatusInProgress, enums.AssignmentStatusCompleted, map[string]any{
		"completed_at": now,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete assignment")
	}
	if !moved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "assignment is not in progress")
	}

	pickupRepo := s.pickups.WithTx(tx)
	pickup, err := pickupRepo.FindByID(ctx, assignment.PickupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup")
	}

	accrual, err := s.rewards.AccrueForPickup(ctx, tx, pickup, actualWeightKg)
	if err != nil {
		return nil, err
	}

	moved, err = pickupRepo.TransitionStatus(ctx, pickup.ID, enums.PickupStatusInProgress, enums.PickupStatusCompleted, map[string]any{
		"actual_weight_kg": actualWeightKg,
		"final_price":      accrual.FinalPrice,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete pickup")
	}
	if !moved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "pickup is not in progress")
	}

	err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPickupCompleted,
		AggregateType: enums.AggregatePickup,
		AggregateID:   pickup.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: actorID, Role: string(actorRole)},
		Data: payloads.PickupCompletedEvent{
			PickupID:          pickup.ID,
			UserID:            pickup.UserID,
			DeliveryPartnerID: assignment.DeliveryPartnerID,
			WasteType:         pickup.WasteType,
			ActualWeightKg:    actualWeightKg,
			CompletedAt:       now,
		},
	})
	if err != nil {
		return nil, err
	}
	return accrual, nil
}

// AdminCancel withdraws a pickup that has not started yet. An assigned
// pickup's active assignment is released in the same transaction.
func (s *service) AdminCancel(ctx context.Context, input CancelInput) error {
	if input.AdminID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		pickupRepo := s.pickups.WithTx(tx)
		pickup, err := pickupRepo.FindByID(ctx, input.PickupID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pickup not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup")
		}
		if pickup.Status != enums.PickupStatusPending && pickup.Status != enums.PickupStatusAssigned {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pickup can no longer be cancelled")
		}

		moved, err := pickupRepo.TransitionStatus(ctx, pickup.ID, pickup.Status, enums.PickupStatusCancelled, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel pickup")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pickup state changed, retry")
		}

		if pickup.Status == enums.PickupStatusAssigned {
			repo := s.repo.WithTx(tx)
			assignment, err := repo.FindActiveByPickup(ctx, pickup.ID)
			if err != nil && err != gorm.ErrRecordNotFound {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
			}
			if assignment != nil {
				if err := repo.Deactivate(ctx, assignment.ID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release assignment")
				}
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPickupCancelled,
			AggregateType: enums.AggregatePickup,
			AggregateID:   pickup.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.AdminID, Role: string(enums.AppRoleAdmin)},
			Data: payloads.PickupCancelledEvent{
				PickupID:    pickup.ID,
				UserID:      pickup.UserID,
				CancelledAt: time.Now().UTC(),
				Reason:      input.Reason,
			},
		})
	})
}

func (s *service) SetAvailability(ctx context.Context, partnerID uuid.UUID, available bool) error {
	if partnerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "partner identity missing")
	}
	if err := s.profiles.SetAvailability(ctx, partnerID, available); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update availability")
	}
	return nil
}

func (s *service) ListRoute(ctx context.Context, partnerID uuid.UUID) ([]RouteStop, error) {
	assignments, err := s.repo.ListActiveByPartner(ctx, partnerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}
	return s.buildStops(ctx, assignments)
}

func (s *service) ListCompleted(ctx context.Context, partnerID uuid.UUID) ([]RouteStop, error) {
	assignments, err := s.repo.ListCompletedByPartner(ctx, partnerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}
	return s.buildStops(ctx, assignments)
}

func (s *service) buildStops(ctx context.Context, assignments []models.DeliveryAssignment) ([]RouteStop, error) {
	stops := make([]RouteStop, 0, len(assignments))
	for _, assignment := range assignments {
		pickup, err := s.pickups.FindByID(ctx, assignment.PickupID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup")
		}
		stops = append(stops, RouteStop{
			AssignmentID:   assignment.ID,
			PickupID:       pickup.ID,
			Status:         assignment.Status,
			RouteOrder:     assignment.RouteOrder,
			WasteType:      pickup.WasteType,
			Address:        pickup.Address,
			PickupDate:     pickup.PickupDate,
			PickupTimeSlot: pickup.PickupTimeSlot,
			AssignedAt:     assignment.AssignedAt,
			StartedAt:      assignment.StartedAt,
			CompletedAt:    assignment.CompletedAt,
			ActualWeightKg: pickup.ActualWeightKg,
		})
	}
	return stops, nil
}

func (s *service) ListEligiblePartners(ctx context.Context) ([]PartnerSummary, error) {
	partners, err := s.repo.ListEligiblePartners(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list partners")
	}
	return partners, nil
}

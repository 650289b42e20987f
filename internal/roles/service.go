package roles

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

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

// Service resolves and grants application roles.
type Service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds a roles service.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("roles repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

// Resolve returns the user's role. A user without a role row is a
// customer; a missing row is never an error.
func (s *Service) Resolve(ctx context.Context, userID uuid.UUID) (enums.AppRole, error) {
	row, err := s.repo.FindByUserID(ctx, userID)
	if err == gorm.ErrRecordNotFound {
		return enums.AppRoleCustomer, nil
	}
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user role")
	}
	if !row.Role.IsValid() {
		return enums.AppRoleCustomer, nil
	}
	return row.Role, nil
}

// Grant sets a user's role and records who made the change.
func (s *Service) Grant(ctx context.Context, adminID, userID uuid.UUID, role enums.AppRole) error {
	if adminID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown role")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Upsert(ctx, userID, role); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "grant role")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRoleGranted,
			AggregateType: enums.AggregateUser,
			AggregateID:   userID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: adminID, Role: string(enums.AppRoleAdmin)},
			Data: payloads.RoleGrantedEvent{
				UserID:    userID,
				Role:      role,
				GrantedBy: adminID,
			},
		})
	})
}

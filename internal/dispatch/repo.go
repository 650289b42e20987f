package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/pkg/db/models"
	"github.com/greenloop/greenloop-backend/pkg/enums"
)

// Repository exposes delivery assignment persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, assignment *models.DeliveryAssignment) (*models.DeliveryAssignment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryAssignment, error)
	FindActiveByPickup(ctx context.Context, pickupID uuid.UUID) (*models.DeliveryAssignment, error)
	ListActiveByPartner(ctx context.Context, partnerID uuid.UUID) ([]models.DeliveryAssignment, error)
	ListCompletedByPartner(ctx context.Context, partnerID uuid.UUID) ([]models.DeliveryAssignment, error)
	NextRouteOrder(ctx context.Context, partnerID uuid.UUID) (int, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.AssignmentStatus, updates map[string]any) (bool, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	ListEligiblePartners(ctx context.Context) ([]PartnerSummary, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a dispatch repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, assignment *models.DeliveryAssignment) (*models.DeliveryAssignment, error) {
	if err := r.db.WithContext(ctx).Create(assignment).Error; err != nil {
		return nil, err
	}
	return assignment, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryAssignment, error) {
	var assignment models.DeliveryAssignment
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) FindActiveByPickup(ctx context.Context, pickupID uuid.UUID) (*models.DeliveryAssignment, error) {
	var assignment models.DeliveryAssignment
	err := r.db.WithContext(ctx).
		Where("pickup_id = ? AND active = ?", pickupID, true).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) ListActiveByPartner(ctx context.Context, partnerID uuid.UUID) ([]models.DeliveryAssignment, error) {
	var rows []models.DeliveryAssignment
	err := r.db.WithContext(ctx).
		Where("delivery_partner_id = ? AND active = ? AND status <> ?", partnerID, true, enums.AssignmentStatusCompleted).
		Order("route_order ASC").
		Order("assigned_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListCompletedByPartner(ctx context.Context, partnerID uuid.UUID) ([]models.DeliveryAssignment, error) {
	var rows []models.DeliveryAssignment
	err := r.db.WithContext(ctx).
		Where("delivery_partner_id = ? AND status = ?", partnerID, enums.AssignmentStatusCompleted).
		Order("completed_at DESC").
		Find(&rows).Error
	return rows, err
}

// NextRouteOrder slots a new stop at the end of the partner's active queue.
func (r *repository) NextRouteOrder(ctx context.Context, partnerID uuid.UUID) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).
		Model(&models.DeliveryAssignment{}).
		Where("delivery_partner_id = ? AND active = ? AND status <> ?", partnerID, true, enums.AssignmentStatusCompleted).
		Select("MAX(route_order)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

// TransitionStatus performs a compare-and-swap on the assignment status.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.AssignmentStatus, updates map[string]any) (bool, error) {
	values := map[string]any{"status": to}
	for column, value := range updates {
		values[column] = value
	}
	result := r.db.WithContext(ctx).
		Model(&models.DeliveryAssignment{}).
		Where("id = ? AND status = ? AND active = ?", id, from, true).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.DeliveryAssignment{}).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]any{
			"active":        false,
			"unassigned_at": now,
		}).Error
}

// ListEligiblePartners returns delivery partners currently accepting work.
func (r *repository) ListEligiblePartners(ctx context.Context) ([]PartnerSummary, error) {
	var rows []PartnerSummary
	err := r.db.WithContext(ctx).
		Table("users").
		Select("users.id, users.first_name, users.last_name, users.phone, profiles.vehicle_type, profiles.vehicle_number").
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Joins("JOIN profiles ON profiles.user_id = users.id").
		Where("user_roles.role = ?", enums.AppRoleDeliveryPartner).
		Where("profiles.is_available = ?", true).
		Where("users.is_active = ?", true).
		Order("users.first_name ASC").
		Scan(&rows).Error
	return rows, err
}

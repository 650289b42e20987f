package pickups

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/pkg/db/models"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	"github.com/greenloop/greenloop-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a pickups repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, pickup *models.Pickup) (*models.Pickup, error) {
	if err := r.db.WithContext(ctx).Create(pickup).Error; err != nil {
		return nil, err
	}
	return pickup, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Pickup, error) {
	var pickup models.Pickup
	err := r.db.WithContext(ctx).
		Preload("Assignments", "active = ?", true).
		Where("id = ?", id).
		First(&pickup).Error
	if err != nil {
		return nil, err
	}
	return &pickup, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Pickup, error) {
	query := r.db.WithContext(ctx).
		Preload("Assignments", "active = ?", true).
		Where("user_id = ?", userID)
	query = applyFilters(query, filters)
	query = applyCursor(query, cursor)

	var rows []models.Pickup
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListAll(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Pickup, error) {
	query := r.db.WithContext(ctx).
		Preload("Assignments", "active = ?", true)
	query = applyFilters(query, filters)
	query = applyCursor(query, cursor)

	var rows []models.Pickup
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// TransitionStatus performs a compare-and-swap on the status column. It
// reports false when the row was not in the expected source status, which
// callers surface as a state conflict.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.PickupStatus, updates map[string]any) (bool, error) {
	values := map[string]any{"status": to}
	for column, value := range updates {
		values[column] = value
	}
	result := r.db.WithContext(ctx).
		Model(&models.Pickup{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[enums.PickupStatus]int64, error) {
	type row struct {
		Status enums.PickupStatus
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Pickup{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.PickupStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func applyFilters(query *gorm.DB, filters ListFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("pickup_date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("pickup_date <= ?", *filters.DateTo)
	}
	return query
}

func applyCursor(query *gorm.DB, cursor *pagination.Cursor) *gorm.DB {
	if cursor == nil {
		return query
	}
	return query.Where(
		"(created_at < ?) OR (created_at = ? AND id < ?)",
		cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
	)
}

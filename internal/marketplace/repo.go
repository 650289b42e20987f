package marketplace

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/pkg/db/models"
	"github.com/greenloop/greenloop-backend/pkg/pagination"
)

// Repository exposes marketplace persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateArtItem(ctx context.Context, item *models.ArtItem) (*models.ArtItem, error)
	FindArtItemByID(ctx context.Context, id uuid.UUID) (*models.ArtItem, error)
	ListArtItems(ctx context.Context, cursor *pagination.Cursor, limit int, includeSold bool) ([]models.ArtItem, error)
	UpdateArtItem(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CreateNeedThing(ctx context.Context, need *models.NeedThing) (*models.NeedThing, error)
	FindNeedThingByID(ctx context.Context, id uuid.UUID) (*models.NeedThing, error)
	ListNeedThings(ctx context.Context, cursor *pagination.Cursor, limit int, includeFulfilled bool) ([]models.NeedThing, error)
	UpdateNeedThing(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a marketplace repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateArtItem(ctx context.Context, item *models.ArtItem) (*models.ArtItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repository) FindArtItemByID(ctx context.Context, id uuid.UUID) (*models.ArtItem, error) {
	var item models.ArtItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListArtItems(ctx context.Context, cursor *pagination.Cursor, limit int, includeSold bool) ([]models.ArtItem, error) {
	query := r.db.WithContext(ctx)
	if !includeSold {
		query = query.Where("is_sold = ?", false)
	}
	query = applyCursor(query, cursor)
	var rows []models.ArtItem
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateArtItem(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.ArtItem{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CreateNeedThing(ctx context.Context, need *models.NeedThing) (*models.NeedThing, error) {
	if err := r.db.WithContext(ctx).Create(need).Error; err != nil {
		return nil, err
	}
	return need, nil
}

func (r *repository) FindNeedThingByID(ctx context.Context, id uuid.UUID) (*models.NeedThing, error) {
	var need models.NeedThing
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&need).Error
	if err != nil {
		return nil, err
	}
	return &need, nil
}

func (r *repository) ListNeedThings(ctx context.Context, cursor *pagination.Cursor, limit int, includeFulfilled bool) ([]models.NeedThing, error) {
	query := r.db.WithContext(ctx)
	if !includeFulfilled {
		query = query.Where("is_fulfilled = ?", false)
	}
	query = applyCursor(query, cursor)
	var rows []models.NeedThing
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateNeedThing(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.NeedThing{}).
		Where("id = ?", id).
		Updates(updates).Error
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

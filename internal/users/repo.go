package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/pkg/db/models"
	"github.com/greenloop/greenloop-backend/pkg/enums"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// ListWithRoles returns users joined with their role rows. Users without
// a role row surface as customers.
func (r *Repository) ListWithRoles(ctx context.Context, limit, offset int) ([]UserWithRole, error) {
	type row struct {
		models.User
		Role *enums.AppRole
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Table("users").
		Select("users.*, user_roles.role").
		Joins("LEFT JOIN user_roles ON user_roles.user_id = users.id").
		Order("users.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]UserWithRole, 0, len(rows))
	for _, item := range rows {
		user := item.User
		entry := UserWithRole{UserDTO: *FromModel(&user), Role: enums.AppRoleCustomer}
		if item.Role != nil && item.Role.IsValid() {
			entry.Role = *item.Role
		}
		out = append(out, entry)
	}
	return out, nil
}

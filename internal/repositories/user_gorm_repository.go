package repositories

import (
	"context"
	"fmt"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, notFound(err, "user", "email", email)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user", "ID", id)
	}
	return &user, nil
}

// List returns one page of users, newest first, with the total count.
func (r *GORMUserRepository) List(ctx context.Context, page Pagination) ([]models.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	q := page.apply(r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC"))
	if err := q.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// Update saves every column of the user.
func (r *GORMUserRepository) Update(ctx context.Context, user *models.User) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"role":       user.Role,
		"is_active":  user.IsActive,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s: %w", user.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a user by their ID.
func (r *GORMUserRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// CountOrders returns how many orders the user has placed.
func (r *GORMUserRepository) CountOrders(ctx context.Context, userID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders of user %s: %w", userID, err)
	}
	return n, nil
}

// BumpTokenVersion increments the user's token version and returns the new value.
func (r *GORMUserRepository) BumpTokenVersion(ctx context.Context, id string) (int, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", id).
			Update("token_version", gorm.Expr("token_version + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("failed to bump token version: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user with ID %s: %w", id, ErrNotFound)
		}
		if err := tx.Select("token_version").First(&user, "id = ?", id).Error; err != nil {
			return notFound(err, "user", "ID", id)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return user.TokenVersion, nil
}

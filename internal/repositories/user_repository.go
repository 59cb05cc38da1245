package repositories

import (
	"context"

	"storefront/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, page Pagination) ([]models.User, int64, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	CountOrders(ctx context.Context, userID string) (int64, error)
	BumpTokenVersion(ctx context.Context, id string) (int, error)
}

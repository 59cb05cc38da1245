package repositories

import (
	"context"

	"storefront/internal/models"
)

// ReviewFilter narrows a review listing; Rating 0 matches every rating.
type ReviewFilter struct {
	ProductID string
	UserID    string
	Rating    int
	Pagination
}

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id string) (*models.Review, error)
	GetByUserAndProduct(ctx context.Context, userID, productID string) (*models.Review, error)
	List(ctx context.Context, filter ReviewFilter) ([]models.Review, int64, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id string) error
}

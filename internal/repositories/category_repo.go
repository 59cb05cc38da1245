package repositories

import (
	"context"

	"storefront/internal/models"
)

// CategoryFilter narrows a category listing.
type CategoryFilter struct {
	Search   string
	IsActive *bool
	// ParentID restricts to children of the given category; RootsOnly to top-level ones.
	ParentID  *string
	RootsOnly bool
	Pagination
}

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id string) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	List(ctx context.Context, filter CategoryFilter) ([]models.Category, int64, error)
	ListAll(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
	CountChildren(ctx context.Context, id string) (int64, error)
	CountProducts(ctx context.Context, id string) (int64, error)
}

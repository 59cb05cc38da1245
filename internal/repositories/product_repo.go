package repositories

import (
	"context"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

// ProductFilter narrows and orders a product listing.
type ProductFilter struct {
	Search     string
	CategoryID string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	IsActive   *bool
	InStock    *bool
	// SortBy is one of name, price, createdAt, stock; anything else sorts by createdAt.
	SortBy    string
	SortOrder string
	Pagination
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error

	// DecrementStock removes qty units only if at least qty are available.
	// It reports false, without error, when stock was insufficient.
	DecrementStock(ctx context.Context, id string, qty int) (bool, error)
	IncrementStock(ctx context.Context, id string, qty int) error
	// AdjustStock applies a signed delta unless the result would be negative.
	AdjustStock(ctx context.Context, id string, delta int) (bool, error)

	CountOrderItems(ctx context.Context, id string) (int64, error)
	AverageRating(ctx context.Context, id string) (float64, int64, error)
}

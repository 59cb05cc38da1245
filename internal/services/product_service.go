package services

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/policy"
	"storefront/internal/repositories"
	"storefront/pkg/logger"

	"github.com/shopspring/decimal"
)

// ProductInput carries product fields; nil pointers leave a field unchanged on
// update. Stock is read on create only.
type ProductInput struct {
	Name        *string
	Slug        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	CategoryID  *string
	IsActive    *bool
}

// ListProductsInput filters and sorts ListProducts.
type ListProductsInput struct {
	Search     string
	CategoryID string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	IsActive   *bool
	InStock    *bool
	SortBy     string
	SortOrder  string
	Page       int
	Limit      int
}

// ProductDetails is a product enriched with its review summary.
type ProductDetails struct {
	models.Product
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int64   `json:"reviewCount"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo       repositories.ProductRepository
	categories repositories.CategoryRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, categories repositories.CategoryRepository) *ProductService {
	return &ProductService{
		repo:       repo,
		categories: categories,
	}
}

// CreateProduct adds a product to the catalog. Admin only.
func (s *ProductService) CreateProduct(ctx context.Context, p policy.Principal, in ProductInput) (*models.Product, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}

	details := map[string]string{}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		details["name"] = "is required"
	}
	if in.Price == nil {
		details["price"] = "is required"
	} else if in.Price.IsNegative() {
		details["price"] = "must not be negative"
	}
	if in.Stock != nil && *in.Stock < 0 {
		details["stock"] = "must not be negative"
	}
	if in.CategoryID == nil || *in.CategoryID == "" {
		details["categoryId"] = "is required"
	}
	if len(details) > 0 {
		return nil, apperrors.ValidationDetails("Invalid product", details)
	}

	product := &models.Product{
		Name:        strings.TrimSpace(*in.Name),
		Description: in.Description,
		Price:       in.Price.Round(2),
		CategoryID:  *in.CategoryID,
		IsActive:    true,
	}
	generated, err := makeSlug(in.Slug, product.Name)
	if err != nil {
		return nil, err
	}
	product.Slug = generated
	if in.Stock != nil {
		product.Stock = *in.Stock
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}

	if err := s.ensureSlugFree(ctx, product.Slug, ""); err != nil {
		return nil, err
	}
	if _, err := s.categories.GetByID(ctx, product.CategoryID); err != nil {
		return nil, notFoundAs(err, "Category not found")
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict("Product with slug %s already exists", product.Slug)
		}
		return nil, err
	}
	return s.repo.GetByID(ctx, product.ID)
}

// GetProduct retrieves a single product with its average rating.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*ProductDetails, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Product not found")
	}
	return s.withRating(ctx, product)
}

func (s *ProductService) GetProductBySlug(ctx context.Context, slug string) (*ProductDetails, error) {
	product, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundAs(err, "Product not found")
	}
	return s.withRating(ctx, product)
}

func (s *ProductService) withRating(ctx context.Context, product *models.Product) (*ProductDetails, error) {
	avg, count, err := s.repo.AverageRating(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	return &ProductDetails{Product: *product, AverageRating: avg, ReviewCount: count}, nil
}

// ListProducts retrieves one page of the catalog.
func (s *ProductService) ListProducts(ctx context.Context, in ListProductsInput) ([]models.Product, PageMeta, error) {
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return nil, PageMeta{}, apperrors.ValidationDetails("Invalid price range",
			map[string]string{"minPrice": "must not exceed maxPrice"})
	}
	page := normalizePage(in.Page, in.Limit)
	products, total, err := s.repo.List(ctx, repositories.ProductFilter{
		Search:     in.Search,
		CategoryID: in.CategoryID,
		MinPrice:   in.MinPrice,
		MaxPrice:   in.MaxPrice,
		IsActive:   in.IsActive,
		InStock:    in.InStock,
		SortBy:     in.SortBy,
		SortOrder:  in.SortOrder,
		Pagination: page,
	})
	if err != nil {
		return nil, PageMeta{}, err
	}
	return products, newPageMeta(page, total), nil
}

// UpdateProduct edits catalog fields. Admin only. Prices already captured by
// orders are unaffected.
func (s *ProductService) UpdateProduct(ctx context.Context, p policy.Principal, id string, in ProductInput) (*models.Product, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Product not found")
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperrors.ValidationDetails("Invalid product", map[string]string{"name": "must not be empty"})
		}
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Slug != nil && *in.Slug != product.Slug {
		if err := checkSlug(*in.Slug); err != nil {
			return nil, err
		}
		if err := s.ensureSlugFree(ctx, *in.Slug, id); err != nil {
			return nil, err
		}
		product.Slug = *in.Slug
	}
	if in.Description != nil {
		product.Description = in.Description
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, apperrors.ValidationDetails("Invalid product", map[string]string{"price": "must not be negative"})
		}
		product.Price = in.Price.Round(2)
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	if in.CategoryID != nil && *in.CategoryID != product.CategoryID {
		if _, err := s.categories.GetByID(ctx, *in.CategoryID); err != nil {
			return nil, notFoundAs(err, "Category not found")
		}
		product.CategoryID = *in.CategoryID
	}

	if err := s.repo.Update(ctx, product); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict("Product with slug %s already exists", product.Slug)
		}
		return nil, notFoundAs(err, "Product not found")
	}
	return s.repo.GetByID(ctx, id)
}

// AdjustStock adds delta (possibly negative) to a product's stock. Admin only.
// Repeated calls compound; a result below zero is rejected.
func (s *ProductService) AdjustStock(ctx context.Context, p policy.Principal, id string, delta int) (*models.Product, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Product not found")
	}
	ok, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.InsufficientStock("Insufficient stock for product %s: cannot apply %d to %d",
			product.Name, delta, product.Stock)
	}
	logger.FromCtx(ctx).Info("stock adjusted", "product_id", id, "delta", delta, "by", p.ID)
	return s.repo.GetByID(ctx, id)
}

// DeleteProduct deletes a product that no order references. Admin only.
func (s *ProductService) DeleteProduct(ctx context.Context, p policy.Principal, id string) error {
	if err := policy.RequireAdmin(p); err != nil {
		return err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return notFoundAs(err, "Product not found")
	}
	n, err := s.repo.CountOrderItems(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperrors.InvalidState("Cannot delete a product that appears in orders")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundAs(err, "Product not found")
	}
	return nil
}

func (s *ProductService) ensureSlugFree(ctx context.Context, slug, selfID string) error {
	existing, err := s.repo.GetBySlug(ctx, slug)
	if err == nil {
		if existing.ID != selfID {
			return apperrors.Conflict("Product with slug %s already exists", slug)
		}
		return nil
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	return err
}

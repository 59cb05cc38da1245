package repositories

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/models"

	"gorm.io/gorm"
)

var productSortColumns = map[string]string{
	"name":      "name",
	"price":     "price",
	"createdAt": "created_at",
	"stock":     "stock",
}

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Omit("Category").Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetByID retrieves a single product, with its category, by ID.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "product", "ID", id)
	}
	return &product, nil
}

func (r *GORMProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, "slug = ?", slug).Error; err != nil {
		return nil, notFound(err, "product", "slug", slug)
	}
	return &product, nil
}

// List returns one page of products matching filter along with the total match count.
func (r *GORMProductRepository) List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})

	if s := strings.TrimSpace(filter.Search); s != "" {
		like := likePattern(strings.ToLower(s))
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.InStock != nil {
		if *filter.InStock {
			q = q.Where("stock > 0")
		} else {
			q = q.Where("stock = 0")
		}
	}

	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	column, ok := productSortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}

	var products []models.Product
	q = filter.apply(q.Preload("Category").Order(column + " " + direction).Order("id " + direction))
	if err := q.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// Update writes the editable product fields, including zero values. Stock is
// left alone; it only moves through the stock methods.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", product.ID).Updates(map[string]interface{}{
		"name":        product.Name,
		"slug":        product.Slug,
		"description": product.Description,
		"price":       product.Price,
		"is_active":   product.IsActive,
		"category_id": product.CategoryID,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *GORMProductRepository) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, fmt.Errorf("failed to decrement stock for product %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GORMProductRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return fmt.Errorf("failed to increment stock for product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *GORMProductRepository) AdjustStock(ctx context.Context, id string, delta int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return false, fmt.Errorf("failed to adjust stock for product %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GORMProductRepository) CountOrderItems(ctx context.Context, id string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count order items for product %s: %w", id, err)
	}
	return n, nil
}

// AverageRating returns the mean review rating and the number of reviews.
func (r *GORMProductRepository) AverageRating(ctx context.Context, id string) (float64, int64, error) {
	var row struct {
		Average float64
		Count   int64
	}
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("product_id = ?", id).
		Scan(&row).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute rating for product %s: %w", id, err)
	}
	return row.Average, row.Count, nil
}

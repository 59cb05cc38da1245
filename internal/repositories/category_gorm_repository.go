package repositories

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// GORMCategoryRepository is a GORM implementation of CategoryRepository.
type GORMCategoryRepository struct {
	db *gorm.DB
}

func NewGORMCategoryRepository(db *gorm.DB) *GORMCategoryRepository {
	return &GORMCategoryRepository{db: db}
}

func (r *GORMCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Omit("Children").Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// GetByID loads a category together with its direct children.
func (r *GORMCategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Preload("Children", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		First(&category, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "category", "ID", id)
	}
	return &category, nil
}

func (r *GORMCategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Preload("Children", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		First(&category, "slug = ?", slug).Error
	if err != nil {
		return nil, notFound(err, "category", "slug", slug)
	}
	return &category, nil
}

func (r *GORMCategoryRepository) List(ctx context.Context, filter CategoryFilter) ([]models.Category, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Category{})

	if s := strings.TrimSpace(filter.Search); s != "" {
		like := likePattern(strings.ToLower(s))
		q = q.Where("LOWER(name) LIKE ? OR LOWER(slug) LIKE ? OR LOWER(description) LIKE ?", like, like, like)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	switch {
	case filter.RootsOnly:
		q = q.Where("parent_id IS NULL")
	case filter.ParentID != nil:
		q = q.Where("parent_id = ?", *filter.ParentID)
	}

	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count categories: %w", err)
	}

	var categories []models.Category
	if err := filter.apply(q.Order("name ASC")).Find(&categories).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, total, nil
}

// ListAll returns every category ordered by name, without children.
func (r *GORMCategoryRepository) ListAll(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *GORMCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	res := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", category.ID).Updates(map[string]interface{}{
		"name":        category.Name,
		"slug":        category.Slug,
		"description": category.Description,
		"parent_id":   category.ParentID,
		"is_active":   category.IsActive,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("category with ID %s: %w", category.ID, ErrNotFound)
	}
	return nil
}

func (r *GORMCategoryRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("category with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *GORMCategoryRepository) CountChildren(ctx context.Context, id string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Where("parent_id = ?", id).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count child categories: %w", err)
	}
	return n, nil
}

func (r *GORMCategoryRepository) CountProducts(ctx context.Context, id string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count category products: %w", err)
	}
	return n, nil
}

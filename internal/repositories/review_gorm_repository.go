package repositories

import (
	"context"
	"fmt"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// GORMReviewRepository is a GORM implementation of ReviewRepository.
type GORMReviewRepository struct {
	db *gorm.DB
}

func NewGORMReviewRepository(db *gorm.DB) *GORMReviewRepository {
	return &GORMReviewRepository{db: db}
}

func (r *GORMReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Omit("User", "Product").Create(review).Error; err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *GORMReviewRepository) GetByID(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).Preload("User").Preload("Product").First(&review, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "review", "ID", id)
	}
	return &review, nil
}

func (r *GORMReviewRepository) GetByUserAndProduct(ctx context.Context, userID, productID string) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).First(&review, "user_id = ? AND product_id = ?", userID, productID).Error
	if err != nil {
		return nil, notFound(err, "review", "user/product", userID+"/"+productID)
	}
	return &review, nil
}

func (r *GORMReviewRepository) List(ctx context.Context, filter ReviewFilter) ([]models.Review, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Review{})
	if filter.ProductID != "" {
		q = q.Where("product_id = ?", filter.ProductID)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Rating > 0 {
		q = q.Where("rating = ?", filter.Rating)
	}

	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	var reviews []models.Review
	q = filter.apply(q.Preload("User").Preload("Product").Order("created_at DESC").Order("id DESC"))
	if err := q.Find(&reviews).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, total, nil
}

func (r *GORMReviewRepository) Update(ctx context.Context, review *models.Review) error {
	res := r.db.WithContext(ctx).Model(&models.Review{}).Where("id = ?", review.ID).Updates(map[string]interface{}{
		"rating":  review.Rating,
		"comment": review.Comment,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update review: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("review with ID %s: %w", review.ID, ErrNotFound)
	}
	return nil
}

func (r *GORMReviewRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Review{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete review: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("review with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"unicode/utf8"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/policy"
	"storefront/internal/repositories"
)

const maxCommentLength = 1000

// ReviewInput carries review fields; nil pointers leave a field unchanged on update.
type ReviewInput struct {
	ProductID string
	Rating    *int
	Comment   *string
}

// ReviewService manages product reviews. Only customers who received a
// product may review it, once.
type ReviewService struct {
	reviews  repositories.ReviewRepository
	products repositories.ProductRepository
	orders   repositories.OrderRepository
}

func NewReviewService(reviews repositories.ReviewRepository, products repositories.ProductRepository, orders repositories.OrderRepository) *ReviewService {
	return &ReviewService{reviews: reviews, products: products, orders: orders}
}

func (s *ReviewService) CreateReview(ctx context.Context, p policy.Principal, in ReviewInput) (*models.Review, error) {
	if in.Rating == nil {
		return nil, apperrors.ValidationDetails("Invalid review", map[string]string{"rating": "is required"})
	}
	if err := validateReview(*in.Rating, in.Comment); err != nil {
		return nil, err
	}
	if _, err := s.products.GetByID(ctx, in.ProductID); err != nil {
		return nil, notFoundAs(err, "Product not found")
	}

	if _, err := s.reviews.GetByUserAndProduct(ctx, p.ID, in.ProductID); err == nil {
		return nil, apperrors.Conflict("You have already reviewed this product")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	delivered, err := s.orders.HasDeliveredProduct(ctx, p.ID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !delivered {
		return nil, apperrors.InvalidState("You can only review products from delivered orders")
	}

	review := &models.Review{
		UserID:    p.ID,
		ProductID: in.ProductID,
		Rating:    *in.Rating,
		Comment:   in.Comment,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict("You have already reviewed this product")
		}
		return nil, err
	}
	return s.reviews.GetByID(ctx, review.ID)
}

func (s *ReviewService) GetReview(ctx context.Context, id string) (*models.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Review not found")
	}
	return review, nil
}

// ListProductReviews lists a product's reviews, optionally for one rating.
func (s *ReviewService) ListProductReviews(ctx context.Context, productID string, rating, page, limit int) ([]models.Review, PageMeta, error) {
	if rating != 0 && (rating < 1 || rating > 5) {
		return nil, PageMeta{}, apperrors.ValidationDetails("Invalid rating filter", map[string]string{"rating": "must be between 1 and 5"})
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, PageMeta{}, notFoundAs(err, "Product not found")
	}
	pg := normalizePage(page, limit)
	reviews, total, err := s.reviews.List(ctx, repositories.ReviewFilter{ProductID: productID, Rating: rating, Pagination: pg})
	if err != nil {
		return nil, PageMeta{}, err
	}
	return reviews, newPageMeta(pg, total), nil
}

func (s *ReviewService) ListMyReviews(ctx context.Context, p policy.Principal, page, limit int) ([]models.Review, PageMeta, error) {
	pg := normalizePage(page, limit)
	reviews, total, err := s.reviews.List(ctx, repositories.ReviewFilter{UserID: p.ID, Pagination: pg})
	if err != nil {
		return nil, PageMeta{}, err
	}
	return reviews, newPageMeta(pg, total), nil
}

// UpdateReview edits a review. Only its author may do so.
func (s *ReviewService) UpdateReview(ctx context.Context, p policy.Principal, id string, in ReviewInput) (*models.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Review not found")
	}
	if !policy.IsOwner(p, review.UserID) {
		return nil, apperrors.Forbidden("You can only edit your own reviews")
	}

	if in.Rating != nil {
		review.Rating = *in.Rating
	}
	if in.Comment != nil {
		review.Comment = in.Comment
	}
	if err := validateReview(review.Rating, review.Comment); err != nil {
		return nil, err
	}
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, notFoundAs(err, "Review not found")
	}
	return s.reviews.GetByID(ctx, id)
}

// DeleteReview removes a review. Allowed for the author and admins.
func (s *ReviewService) DeleteReview(ctx context.Context, p policy.Principal, id string) error {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return notFoundAs(err, "Review not found")
	}
	if err := policy.RequireOwnerOrAdmin(p, review.UserID); err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return notFoundAs(err, "Review not found")
	}
	return nil
}

func validateReview(rating int, comment *string) error {
	details := map[string]string{}
	if rating < 1 || rating > 5 {
		details["rating"] = "must be between 1 and 5"
	}
	if comment != nil && utf8.RuneCountInString(*comment) > maxCommentLength {
		details["comment"] = "must be at most 1000 characters"
	}
	if len(details) > 0 {
		return apperrors.ValidationDetails("Invalid review", details)
	}
	return nil
}

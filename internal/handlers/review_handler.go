package handlers

import (
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type ReviewHandler struct {
	service *services.ReviewService
}

func NewReviewHandler(service *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

func (h *ReviewHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	reviews := router.Group("/reviews", auth)
	reviews.Get("/my", h.HandleListMine)
	reviews.Get("/product/:productId", h.HandleListForProduct)
	reviews.Get("/:id", h.HandleGetReview)
	reviews.Post("/", h.HandleCreateReview)
	reviews.Patch("/:id", h.HandleUpdateReview)
	reviews.Delete("/:id", h.HandleDeleteReview)
}

type createReviewRequest struct {
	ProductID string  `json:"productId" validate:"required"`
	Rating    int     `json:"rating" validate:"required,gte=1,lte=5"`
	Comment   *string `json:"comment" validate:"omitempty,max=1000"`
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Comment *string `json:"comment" validate:"omitempty,max=1000"`
}

func (h *ReviewHandler) HandleCreateReview(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req createReviewRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	review, err := h.service.CreateReview(c.UserContext(), p, services.ReviewInput{
		ProductID: req.ProductID,
		Rating:    &req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, review, "Review created successfully")
}

func (h *ReviewHandler) HandleGetReview(c *fiber.Ctx) error {
	review, err := h.service.GetReview(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, review, "")
}

func (h *ReviewHandler) HandleListForProduct(c *fiber.Ctx) error {
	page, limit, err := pageParams(c)
	if err != nil {
		return err
	}
	rating, err := queryInt(c, "rating", 0)
	if err != nil {
		return err
	}
	reviews, meta, err := h.service.ListProductReviews(c.UserContext(), c.Params("productId"), rating, page, limit)
	if err != nil {
		return err
	}
	return paged(c, reviews, meta)
}

func (h *ReviewHandler) HandleListMine(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	page, limit, err := pageParams(c)
	if err != nil {
		return err
	}
	reviews, meta, err := h.service.ListMyReviews(c.UserContext(), p, page, limit)
	if err != nil {
		return err
	}
	return paged(c, reviews, meta)
}

func (h *ReviewHandler) HandleUpdateReview(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req updateReviewRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	review, err := h.service.UpdateReview(c.UserContext(), p, c.Params("id"), services.ReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, review, "Review updated successfully")
}

func (h *ReviewHandler) HandleDeleteReview(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteReview(c.UserContext(), p, c.Params("id")); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, nil, "Review deleted successfully")
}

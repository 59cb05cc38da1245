package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	service *services.CategoryService
}

func NewCategoryHandler(service *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// RegisterRoutes registers public reads and admin-only writes.
func (h *CategoryHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	categories := router.Group("/categories")
	categories.Get("/", h.HandleListCategories)
	categories.Get("/tree", h.HandleTree)
	categories.Get("/slug/:slug", h.HandleGetBySlug)
	categories.Get("/:id", h.HandleGetCategory)
	categories.Post("/", auth, middleware.AdminOnly(), h.HandleCreateCategory)
	categories.Patch("/:id", auth, middleware.AdminOnly(), h.HandleUpdateCategory)
	categories.Delete("/:id", auth, middleware.AdminOnly(), h.HandleDeleteCategory)
}

type categoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Slug        *string `json:"slug" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	ParentID    *string `json:"parentId"`
	IsActive    *bool   `json:"isActive"`
}

func (r categoryRequest) input() services.CategoryInput {
	return services.CategoryInput{
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		ParentID:    r.ParentID,
		IsActive:    r.IsActive,
	}
}

func (h *CategoryHandler) HandleListCategories(c *fiber.Ctx) error {
	page, limit, err := pageParams(c)
	if err != nil {
		return err
	}
	isActive, err := queryBool(c, "isActive")
	if err != nil {
		return err
	}
	in := services.ListCategoriesInput{
		Search:   c.Query("search"),
		IsActive: isActive,
		Page:     page,
		Limit:    limit,
	}
	switch parent := c.Query("parentId"); parent {
	case "":
	case "null":
		in.RootsOnly = true
	default:
		in.ParentID = &parent
	}
	categories, meta, err := h.service.ListCategories(c.UserContext(), in)
	if err != nil {
		return err
	}
	return paged(c, categories, meta)
}

func (h *CategoryHandler) HandleTree(c *fiber.Ctx) error {
	tree, err := h.service.CategoryTree(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, tree, "")
}

func (h *CategoryHandler) HandleGetBySlug(c *fiber.Ctx) error {
	category, err := h.service.GetCategoryBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, category, "")
}

func (h *CategoryHandler) HandleGetCategory(c *fiber.Ctx) error {
	category, err := h.service.GetCategory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, category, "")
}

func (h *CategoryHandler) HandleCreateCategory(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req categoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	category, err := h.service.CreateCategory(c.UserContext(), p, req.input())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, category, "Category created successfully")
}

func (h *CategoryHandler) HandleUpdateCategory(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req categoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	category, err := h.service.UpdateCategory(c.UserContext(), p, c.Params("id"), req.input())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, category, "Category updated successfully")
}

func (h *CategoryHandler) HandleDeleteCategory(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteCategory(c.UserContext(), p, c.Params("id")); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, nil, "Category deleted successfully")
}

package handlers

import (
	"storefront/internal/apperrors"
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers public catalog reads and admin-only writes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	products := router.Group("/products")
	products.Get("/", h.HandleListProducts)
	products.Get("/slug/:slug", h.HandleGetBySlug)
	products.Get("/:id", h.HandleGetProduct)
	products.Post("/", auth, middleware.AdminOnly(), h.HandleCreateProduct)
	products.Patch("/:id", auth, middleware.AdminOnly(), h.HandleUpdateProduct)
	products.Patch("/:id/stock", auth, middleware.AdminOnly(), h.HandleAdjustStock)
	products.Delete("/:id", auth, middleware.AdminOnly(), h.HandleDeleteProduct)
}

type productRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Slug        *string          `json:"slug" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" validate:"omitempty,min=0"`
	CategoryID  *string          `json:"categoryId"`
	IsActive    *bool            `json:"isActive"`
}

func (r productRequest) input() services.ProductInput {
	return services.ProductInput{
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		CategoryID:  r.CategoryID,
		IsActive:    r.IsActive,
	}
}

type adjustStockRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	page, limit, err := pageParams(c)
	if err != nil {
		return err
	}
	in := services.ListProductsInput{
		Search:     c.Query("search"),
		CategoryID: c.Query("categoryId"),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
		Page:       page,
		Limit:      limit,
	}
	if in.SortBy != "" {
		switch in.SortBy {
		case "name", "price", "createdAt", "stock":
		default:
			return apperrors.ValidationDetails("Invalid query parameter", map[string]string{"sortBy": "must be one of [name price createdAt stock]"})
		}
	}
	if in.SortOrder != "" && in.SortOrder != "asc" && in.SortOrder != "desc" {
		return apperrors.ValidationDetails("Invalid query parameter", map[string]string{"sortOrder": "must be asc or desc"})
	}
	if in.MinPrice, err = queryDecimal(c, "minPrice"); err != nil {
		return err
	}
	if in.MaxPrice, err = queryDecimal(c, "maxPrice"); err != nil {
		return err
	}
	if in.IsActive, err = queryBool(c, "isActive"); err != nil {
		return err
	}
	if in.InStock, err = queryBool(c, "inStock"); err != nil {
		return err
	}

	products, meta, err := h.service.ListProducts(c.UserContext(), in)
	if err != nil {
		return err
	}
	return paged(c, products, meta)
}

func queryDecimal(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperrors.ValidationDetails("Invalid query parameter", map[string]string{key: "must be a number"})
	}
	return &d, nil
}

func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, product, "")
}

func (h *ProductHandler) HandleGetBySlug(c *fiber.Ctx) error {
	product, err := h.service.GetProductBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, product, "")
}

func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req productRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	product, err := h.service.CreateProduct(c.UserContext(), p, req.input())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, product, "Product created successfully")
}

func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req productRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Stock != nil {
		return apperrors.ValidationDetails("Stock cannot be set directly",
			map[string]string{"stock": "use PATCH /products/:id/stock"})
	}
	product, err := h.service.UpdateProduct(c.UserContext(), p, c.Params("id"), req.input())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, product, "Product updated successfully")
}

// HandleAdjustStock applies a signed quantity to the product's stock.
func (h *ProductHandler) HandleAdjustStock(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req adjustStockRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	product, err := h.service.AdjustStock(c.UserContext(), p, c.Params("id"), *req.Quantity)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, product, "Stock updated successfully")
}

func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteProduct(c.UserContext(), p, c.Params("id")); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, nil, "Product deleted successfully")
}

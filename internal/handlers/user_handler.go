package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	users := router.Group("/users", auth)
	users.Get("/", middleware.AdminOnly(), h.HandleListUsers)
	users.Get("/:id", h.HandleGetUser)
	users.Patch("/:id", h.HandleUpdateUser)
	users.Patch("/:id/block", middleware.AdminOnly(), h.HandleToggleBlock)
	users.Delete("/:id", middleware.AdminOnly(), h.HandleDeleteUser)
}

type updateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email,max=255"`
	FirstName *string `json:"firstName" validate:"omitempty,min=1,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1,max=50"`
	IsActive  *bool   `json:"isActive"`
}

func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	page, limit, err := pageParams(c)
	if err != nil {
		return err
	}
	users, meta, err := h.service.ListUsers(c.UserContext(), p, page, limit)
	if err != nil {
		return err
	}
	return paged(c, users, meta)
}

func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	user, err := h.service.GetUser(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, user, "")
}

func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.service.UpdateUser(c.UserContext(), p, c.Params("id"), services.UpdateUserInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsActive:  req.IsActive,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, user, "User updated successfully")
}

func (h *UserHandler) HandleToggleBlock(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	user, err := h.service.ToggleBlock(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return err
	}
	msg := "User unblocked"
	if !user.IsActive {
		msg = "User blocked"
	}
	return respond(c, fiber.StatusOK, user, msg)
}

func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteUser(c.UserContext(), p, c.Params("id")); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, nil, "User deleted successfully")
}

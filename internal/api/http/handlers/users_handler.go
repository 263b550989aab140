package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/assetdesk/asset-service/internal/api/dto"
	"github.com/assetdesk/asset-service/internal/auth"
	"github.com/assetdesk/asset-service/internal/service"
)

// UsersHandler manages application accounts of the caller's business unit.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

func userInput(req dto.UserRequest) service.UserInput {
	return service.UserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		RoleID:   req.RoleID,
		IsActive: req.IsActive,
	}
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	users, err := h.users.List(c.UserContext(), scope)
	if err != nil {
		return err
	}
	return respond(c, mapSlice(users, userResponse))
}

// Create handles POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.UserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.Create(c.UserContext(), scope, userInput(req))
	if err != nil {
		return err
	}
	return created(c, userResponse(user))
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, userResponse(user))
}

// Update handles PUT /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.UserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.Update(c.UserContext(), scope, c.Params("id"), userInput(req))
	if err != nil {
		return err
	}
	return respond(c, userResponse(user))
}

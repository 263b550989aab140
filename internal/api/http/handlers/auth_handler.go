package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/assetdesk/asset-service/internal/api/dto"
	"github.com/assetdesk/asset-service/internal/auth"
	"github.com/assetdesk/asset-service/internal/service"
)

// AuthHandler exposes sign-in and self-service account endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return respond(c, dto.LoginResponse{
		AccessToken: result.Token,
		TokenType:   "Bearer",
		ExpiresAt:   result.ExpiresAt,
		User:        userWithRole(result.User, result.Role),
	})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	user, role, err := h.auth.Me(c.UserContext(), scope)
	if err != nil {
		return err
	}
	resp := userWithRole(user, role)
	// the header override may have moved the caller into another unit
	resp.BusinessUnitID = scope.BusinessUnitID
	return respond(c, resp)
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.UserContext(), scope, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

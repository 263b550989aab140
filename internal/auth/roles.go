package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/assetdesk/asset-service/internal/domain"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

// RequirePermission ensures the caller's role grants at least one of the listed permissions.
func RequirePermission(perms ...domain.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(perms) == 0 {
			return c.Next()
		}
		for _, perm := range perms {
			if principal.Can(perm) {
				return c.Next()
			}
		}
		names := make([]string, len(perms))
		for i, p := range perms {
			names[i] = string(p)
		}
		return apperrors.NewDomainError(apperrors.CodeForbidden, "insufficient permissions", fiber.StatusForbidden,
			map[string]any{"required": strings.Join(names, "|")})
	}
}

// RequireAuthenticated ensures a principal was loaded.
func RequireAuthenticated() fiber.Handler {
	return RequirePermission()
}

package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/assetdesk/asset-service/internal/domain"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

const (
	principalKey = "auth_principal"

	// BusinessUnitHeader lets callers holding the wildcard permission act on another business unit.
	BusinessUnitHeader = "X-Business-Unit-ID"
)

// UserLookup loads accounts by id.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// RoleLookup loads roles by id regardless of tenant.
type RoleLookup interface {
	FindByID(ctx context.Context, id string) (*domain.Role, error)
}

// Principal represents the authenticated caller.
type Principal struct {
	User  *domain.User
	Role  *domain.Role
	Scope domain.Scope
}

// Can reports whether the principal's role grants perm.
func (p *Principal) Can(perm domain.Permission) bool {
	return p != nil && p.Role.Has(perm)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	users  UserLookup
	roles  RoleLookup
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users UserLookup, roles RoleLookup) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, roles: roles}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	ctx := c.UserContext()
	user, err := m.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}
	if !user.IsActive {
		return apperrors.NewUnauthorized("user inactive")
	}

	principal := &Principal{
		User: user,
		Scope: domain.Scope{
			BusinessUnitID: user.BusinessUnitID,
			UserID:         user.ID,
			IPAddress:      c.IP(),
		},
	}
	if user.RoleID != nil {
		role, err := m.roles.FindByID(ctx, *user.RoleID)
		if err != nil && !apperrors.IsNotFound(err) {
			return apperrors.MapError(err)
		}
		principal.Role = role
	}
	principal.Scope.Unrestricted = principal.Can(domain.PermissionAll)

	if requested := strings.TrimSpace(c.Get(BusinessUnitHeader)); requested != "" && requested != user.BusinessUnitID {
		if !principal.Can(domain.PermissionAll) {
			return apperrors.NewForbidden("cannot act on another business unit")
		}
		principal.Scope.BusinessUnitID = requested
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// ScopeFromContext returns the request scope of the authenticated caller.
func ScopeFromContext(c *fiber.Ctx) (domain.Scope, error) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return domain.Scope{}, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Scope, nil
}

package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/assetdesk/asset-service/internal/domain"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

type stubUsers map[string]*domain.User

func (s stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

type stubRoles map[string]*domain.Role

func (s stubRoles) FindByID(_ context.Context, id string) (*domain.Role, error) {
	if r, ok := s[id]; ok {
		return r, nil
	}
	return nil, pgx.ErrNoRows
}

func ptr(s string) *string { return &s }

func testApp(tm *TokenManager, users stubUsers, roles stubRoles, guard fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code})
		},
	})
	mw := NewAuthMiddleware(tm, users, roles)
	app.Get("/scope", mw.Handle, guard, func(c *fiber.Ctx) error {
		scope, err := ScopeFromContext(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"bu": scope.BusinessUnitID, "user": scope.UserID, "unrestricted": strconv.FormatBool(scope.Unrestricted)})
	})
	return app
}

func fixtures() (stubUsers, stubRoles) {
	users := stubUsers{
		"admin":    {ID: "admin", BusinessUnitID: "bu-1", RoleID: ptr("role-admin"), IsActive: true},
		"clerk":    {ID: "clerk", BusinessUnitID: "bu-1", RoleID: ptr("role-clerk"), IsActive: true},
		"disabled": {ID: "disabled", BusinessUnitID: "bu-1", IsActive: false},
	}
	roles := stubRoles{
		"role-admin": {ID: "role-admin", Permissions: []string{"*"}},
		"role-clerk": {ID: "role-clerk", Permissions: []string{string(domain.PermissionAssetsRead)}},
	}
	return users, roles
}

func do(t *testing.T, app *fiber.App, token, unit string) (int, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, "/scope", nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if unit != "" {
		req.Header.Set(BusinessUnitHeader, unit)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	out := map[string]string{}
	_ = json.Unmarshal(body, &out)
	return resp.StatusCode, out
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, exp, err := tm.GenerateToken(&domain.User{ID: "u1", BusinessUnitID: "bu-1", RoleID: ptr("r1")})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "bu-1", claims.BusinessUnitID)

	_, err = NewTokenManager("other", 5).ParseToken(token)
	assert.Error(t, err)
}

func TestMiddlewareResolvesScope(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	users, roles := fixtures()
	app := testApp(tm, users, roles, RequireAuthenticated())

	adminToken, _, _ := tm.GenerateToken(users["admin"])
	clerkToken, _, _ := tm.GenerateToken(users["clerk"])
	disabledToken, _, _ := tm.GenerateToken(users["disabled"])

	status, body := do(t, app, adminToken, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "bu-1", body["bu"])
	assert.Equal(t, "true", body["unrestricted"])

	status, body = do(t, app, adminToken, "bu-2")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "bu-2", body["bu"])

	status, body = do(t, app, clerkToken, "bu-2")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, apperrors.CodeForbidden, body["code"])

	status, body = do(t, app, clerkToken, "bu-1")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "false", body["unrestricted"])

	status, _ = do(t, app, disabledToken, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = do(t, app, "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = do(t, app, "garbage", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRequirePermission(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	users, roles := fixtures()
	app := testApp(tm, users, roles, RequirePermission(domain.PermissionAssetsWrite))

	clerkToken, _, _ := tm.GenerateToken(users["clerk"])
	adminToken, _, _ := tm.GenerateToken(users["admin"])

	status, _ := do(t, app, clerkToken, "")
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = do(t, app, adminToken, "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestRateLimiterPerKey(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return base }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	rl.now = func() time.Time { return base.Add(2 * time.Second) }
	assert.True(t, rl.Allow("a"))
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return base }
	rl.Allow("a")

	rl.now = func() time.Time { return base.Add(limiterIdleTTL + time.Minute) }
	rl.Allow("b")
	assert.NotContains(t, rl.visitors, "a")
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "s3cret-pass"))
	assert.Error(t, ComparePassword(hash, "wrong"))

	hash, err = HashPassword("s3cret-pass", 0)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)

	_, err = HashPassword(strings.Repeat("x", MaxPasswordBytes+1), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	_, err = HashPassword(strings.Repeat("x", MaxPasswordBytes), bcrypt.MinCost)
	assert.NoError(t, err)
}

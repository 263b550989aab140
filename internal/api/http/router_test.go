package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/assetdesk/asset-service/internal/api/http/handlers"
	"github.com/assetdesk/asset-service/internal/auth"
	"github.com/assetdesk/asset-service/internal/config"
	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/events"
	"github.com/assetdesk/asset-service/internal/observability"
	"github.com/assetdesk/asset-service/internal/repository/memory"
	"github.com/assetdesk/asset-service/internal/service"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type testServer struct {
	app   *fiber.App
	repos memory.Repositories
	users *service.UserService
	admin string
	unit  string
}

func newTestServer(t *testing.T, deps map[string]handlers.Pinger) *testServer {
	t.Helper()
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	tokens := auth.NewTokenManager("router-secret", 15)

	auditService := service.NewAuditService(repos.AuditLogs, logger)
	settingsService := service.NewSettingsService(service.SettingsDependencies{
		SettingRepo: repos.Settings,
		Audit:       auditService,
		Logger:      logger,
	})
	authService := service.NewAuthService(config.AuthConfig{BcryptCost: bcrypt.MinCost}, service.AuthDependencies{
		UserRepo:         repos.Users,
		RoleRepo:         repos.Roles,
		BusinessUnitRepo: repos.BusinessUnits,
		Tokens:           tokens,
		Audit:            auditService,
		Logger:           logger,
	})
	seeded, err := authService.Bootstrap(ctx, service.BootstrapInput{
		UnitCode: "HQ",
		UnitName: "Headquarters",
		Email:    "admin@example.com",
		Password: "admin-password",
	})
	require.NoError(t, err)
	require.True(t, seeded)

	lifecycleDeps := service.LifecycleDependencies{
		AssetRepo:        repos.Assets,
		EmployeeRepo:     repos.Employees,
		DepartmentRepo:   repos.Departments,
		BusinessUnitRepo: repos.BusinessUnits,
		DeploymentRepo:   repos.Deployments,
		TransferRepo:     repos.Transfers,
		RetirementRepo:   repos.Retirements,
		DisposalRepo:     repos.Disposals,
		MaintenanceRepo:  repos.Maintenance,
		Settings:         settingsService,
		Audit:            auditService,
		Dispatcher:       dispatcher,
		Metrics:          metrics,
		Logger:           logger,
	}
	users := service.NewUserService(service.UserDependencies{
		UserRepo:   repos.Users,
		RoleRepo:   repos.Roles,
		BcryptCost: bcrypt.MinCost,
		Audit:      auditService,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler("asset-service", "test", deps),
		Auth:   handlers.NewAuthHandler(authService),
		Users:  handlers.NewUsersHandler(users),
		Org: handlers.NewOrgHandler(service.NewOrgService(service.OrgDependencies{
			BusinessUnitRepo: repos.BusinessUnits,
			RoleRepo:         repos.Roles,
			DepartmentRepo:   repos.Departments,
			EmployeeRepo:     repos.Employees,
			Audit:            auditService,
		})),
		Employees: handlers.NewEmployeesHandler(service.NewEmployeeService(service.EmployeeDependencies{
			EmployeeRepo:   repos.Employees,
			DepartmentRepo: repos.Departments,
			RoleRepo:       repos.Roles,
			DeploymentRepo: repos.Deployments,
			Audit:          auditService,
		})),
		Assets: handlers.NewAssetsHandler(service.NewAssetService(service.AssetDependencies{
			AssetRepo:      repos.Assets,
			DepartmentRepo: repos.Departments,
			Settings:       settingsService,
			Audit:          auditService,
			Dispatcher:     dispatcher,
			Logger:         logger,
		})),
		Depreciation: handlers.NewDepreciationHandler(service.NewDepreciationService(service.DepreciationDependencies{
			AssetRepo:  repos.Assets,
			EntryRepo:  repos.DepreciationEntries,
			Audit:      auditService,
			Dispatcher: dispatcher,
			Metrics:    metrics,
			Logger:     logger,
		})),
		Deployments:    handlers.NewDeploymentsHandler(service.NewDeploymentService(lifecycleDeps)),
		Transfers:      handlers.NewTransfersHandler(service.NewTransferService(lifecycleDeps)),
		Dispositions:   handlers.NewDispositionsHandler(service.NewRetirementService(lifecycleDeps), service.NewDisposalService(lifecycleDeps)),
		Maintenance:    handlers.NewMaintenanceHandler(service.NewMaintenanceService(lifecycleDeps)),
		Audit:          handlers.NewAuditHandler(auditService),
		Settings:       handlers.NewSettingsHandler(settingsService),
		Dashboard:      handlers.NewDashboardHandler(service.NewDashboardService(repos.Assets, settingsService)),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, repos.Users, repos.Roles),
		Metrics:        metrics.Handler(),
	})

	srv := &testServer{app: app, repos: repos, users: users}
	srv.admin = srv.login(t, "admin@example.com", "admin-password")
	units, err := repos.BusinessUnits.List(ctx)
	require.NoError(t, err)
	require.Len(t, units, 1)
	srv.unit = units[0].ID
	return srv
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	status, env := s.do(t, fiber.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, fiber.StatusOK, status)
	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Equal(t, "Bearer", out.TokenType)
	return out.AccessToken
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, map[string]handlers.Pinger{"postgres": pinger{}})
	status, _ := srv.do(t, fiber.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = srv.do(t, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	down := newTestServer(t, map[string]handlers.Pinger{"redis": pinger{err: errors.New("connection refused")}})
	status, env := down.do(t, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", env.Error.Code)
	assert.Equal(t, "connection refused", env.Error.Details["redis"])

	req := httptest.NewRequest(fiber.MethodGet, "/metrics", nil)
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
}

func TestLoginErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	status, env := srv.do(t, fiber.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperrors.CodeValidation, env.Error.Code)
	assert.Equal(t, "email", env.Error.Details["email"])

	status, env = srv.do(t, fiber.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "admin@example.com", "password": "wrong"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid credentials", env.Error.Message)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/api/v1/assets", "/api/v1/auth/me", "/api/v1/unknown"} {
		status, env := srv.do(t, fiber.MethodGet, path, "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, status, path)
		require.NotNil(t, env.Error, path)
		assert.Equal(t, apperrors.CodeUnauth, env.Error.Code, path)
	}

	status, _ := srv.do(t, fiber.MethodGet, "/api/v1/assets", "garbage", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, env := srv.do(t, fiber.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperrors.CodeNotFound, env.Error.Code)

	status, env = srv.do(t, fiber.MethodGet, "/api/v1/auth/me", srv.admin, nil)
	assert.Equal(t, fiber.StatusOK, status)
	me := decode[map[string]any](t, env.Data)
	assert.Equal(t, "admin@example.com", me["email"])
	assert.Equal(t, "Administrator", me["role_name"])
}

func TestPermissionsAndUnitOverride(t *testing.T) {
	srv := newTestServer(t, nil)
	ctx := context.Background()
	viewer := &domain.Role{BusinessUnitID: srv.unit, Name: "Viewer", Permissions: []string{string(domain.PermissionAssetsRead)}}
	require.NoError(t, srv.repos.Roles.Create(ctx, viewer))
	_, err := srv.users.Create(ctx, domain.Scope{BusinessUnitID: srv.unit}, service.UserInput{
		Name:     "Viewer",
		Email:    "viewer@example.com",
		Password: "viewer-password",
		RoleID:   &viewer.ID,
	})
	require.NoError(t, err)
	token := srv.login(t, "viewer@example.com", "viewer-password")

	status, _ := srv.do(t, fiber.MethodGet, "/api/v1/assets", token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, env := srv.do(t, fiber.MethodPost, "/api/v1/assets", token, map[string]any{"name": "Laptop", "category": "Laptop"})
	assert.Equal(t, fiber.StatusForbidden, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperrors.CodeForbidden, env.Error.Code)
	assert.Equal(t, "assets:write", env.Error.Details["required"])

	other := &domain.BusinessUnit{Code: "EU", Name: "Europe", IsActive: true}
	require.NoError(t, srv.repos.BusinessUnits.Create(ctx, other))

	status, _ = srv.do(t, fiber.MethodGet, "/api/v1/assets", token, nil, auth.BusinessUnitHeader, other.ID)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = srv.do(t, fiber.MethodGet, "/api/v1/auth/me", srv.admin, nil, auth.BusinessUnitHeader, other.ID)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, other.ID, decode[map[string]any](t, env.Data)["business_unit_id"])
}

func TestTenantAdminCannotGrantAllPermissions(t *testing.T) {
	srv := newTestServer(t, nil)
	ctx := context.Background()
	tenantAdmin := &domain.Role{
		BusinessUnitID: srv.unit,
		Name:           "Tenant admin",
		Permissions:    []string{string(domain.PermissionOrgWrite), string(domain.PermissionUsersManage)},
	}
	require.NoError(t, srv.repos.Roles.Create(ctx, tenantAdmin))
	_, err := srv.users.Create(ctx, domain.Scope{BusinessUnitID: srv.unit}, service.UserInput{
		Name:     "Tenant admin",
		Email:    "tenant@example.com",
		Password: "tenant-password",
		RoleID:   &tenantAdmin.ID,
	})
	require.NoError(t, err)
	token := srv.login(t, "tenant@example.com", "tenant-password")

	status, env := srv.do(t, fiber.MethodPost, "/api/v1/roles", token, map[string]any{"name": "Root", "permissions": []string{"*"}})
	assert.Equal(t, fiber.StatusForbidden, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperrors.CodeForbidden, env.Error.Code)

	status, _ = srv.do(t, fiber.MethodPost, "/api/v1/roles", token, map[string]any{"name": "Reader", "permissions": []string{"assets:read"}})
	assert.Equal(t, fiber.StatusCreated, status)

	root, err := srv.repos.Users.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, root.RoleID)
	status, _ = srv.do(t, fiber.MethodPost, "/api/v1/users", token, map[string]any{
		"name":     "Mallory",
		"email":    "mallory@example.com",
		"password": "mallory-password",
		"role_id":  *root.RoleID,
	})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = srv.do(t, fiber.MethodPost, "/api/v1/roles", srv.admin, map[string]any{"name": "Second root", "permissions": []string{"*"}})
	assert.Equal(t, fiber.StatusCreated, status)
}

func TestAssetDeploymentOverHTTP(t *testing.T) {
	srv := newTestServer(t, nil)

	status, env := srv.do(t, fiber.MethodPost, "/api/v1/assets", srv.admin, map[string]any{
		"name":               "ThinkPad",
		"category":           "Laptop",
		"purchase_date":      "2026-01-01",
		"purchase_price":     "1200",
		"useful_life_months": 12,
	})
	require.Equal(t, fiber.StatusCreated, status)
	asset := decode[map[string]any](t, env.Data)
	assert.Equal(t, "AVAILABLE", asset["status"])
	assert.Equal(t, "2026-01-01", asset["purchase_date"])
	assetID := asset["id"].(string)

	status, env = srv.do(t, fiber.MethodGet, "/api/v1/assets/"+assetID+"/depreciation/valuation?as_of=2026-03-15", srv.admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	valuation := decode[map[string]any](t, env.Data)
	assert.Equal(t, "1000", valuation["projected_book_value"])
	assert.EqualValues(t, 2, valuation["elapsed_periods"])

	status, _ = srv.do(t, fiber.MethodGet, "/api/v1/assets/"+assetID+"/depreciation/valuation?as_of=someday", srv.admin, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, env = srv.do(t, fiber.MethodPost, "/api/v1/assets", srv.admin, map[string]any{"category": "Laptop"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "required", env.Error.Details["name"])

	status, env = srv.do(t, fiber.MethodPost, "/api/v1/employees", srv.admin, map[string]any{
		"employee_number": "E-7",
		"first_name":      "Grace",
		"last_name":       "Hopper",
	})
	require.Equal(t, fiber.StatusCreated, status)
	employeeID := decode[map[string]any](t, env.Data)["id"].(string)

	status, env = srv.do(t, fiber.MethodPost, "/api/v1/deployments", srv.admin, map[string]any{
		"asset_id":    assetID,
		"employee_id": employeeID,
	})
	require.Equal(t, fiber.StatusCreated, status)
	deploymentID := decode[map[string]any](t, env.Data)["id"].(string)

	status, env = srv.do(t, fiber.MethodDelete, "/api/v1/assets/"+assetID, srv.admin, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperrors.CodeConflict, env.Error.Code)

	status, _ = srv.do(t, fiber.MethodPost, "/api/v1/deployments/"+deploymentID+"/return", srv.admin, map[string]any{"condition": "GOOD"})
	assert.Equal(t, fiber.StatusOK, status)

	status, env = srv.do(t, fiber.MethodGet, "/api/v1/assets?status=available", srv.admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	list := decode[[]map[string]any](t, env.Data)
	require.Len(t, list, 1)
	assert.EqualValues(t, 1, env.Meta["total"])

	status, _ = srv.do(t, fiber.MethodGet, "/api/v1/assets/does-not-exist", srv.admin, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, env = srv.do(t, fiber.MethodGet, "/api/v1/dashboard/summary", srv.admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, decode[map[string]any](t, env.Data)["total_assets"])
}

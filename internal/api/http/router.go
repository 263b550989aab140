package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/assetdesk/asset-service/internal/api/http/handlers"
	"github.com/assetdesk/asset-service/internal/auth"
	"github.com/assetdesk/asset-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Org            *handlers.OrgHandler
	Employees      *handlers.EmployeesHandler
	Assets         *handlers.AssetsHandler
	Depreciation   *handlers.DepreciationHandler
	Deployments    *handlers.DeploymentsHandler
	Transfers      *handlers.TransfersHandler
	Dispositions   *handlers.DispositionsHandler
	Maintenance    *handlers.MaintenanceHandler
	Audit          *handlers.AuditHandler
	Settings       *handlers.SettingsHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
	LoginLimiter   *auth.RateLimiter
	Metrics        http.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	api := app.Group("/api/v1")

	login := []fiber.Handler{cfg.Auth.Login}
	if cfg.LoginLimiter != nil {
		login = append([]fiber.Handler{cfg.LoginLimiter.Handler()}, login...)
	}
	api.Post("/auth/login", login...)

	protected := api.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/auth/me", auth.RequireAuthenticated(), cfg.Auth.Me)
	protected.Post("/auth/password/change", auth.RequireAuthenticated(), cfg.Auth.ChangePassword)

	orgRead := auth.RequirePermission(domain.PermissionOrgRead)
	orgWrite := auth.RequirePermission(domain.PermissionOrgWrite)

	units := protected.Group("/business-units")
	units.Get("/", orgRead, cfg.Org.ListBusinessUnits)
	units.Post("/", auth.RequirePermission(domain.PermissionAll), cfg.Org.CreateBusinessUnit)
	units.Get("/:id", orgRead, cfg.Org.GetBusinessUnit)
	units.Put("/:id", auth.RequirePermission(domain.PermissionAll), cfg.Org.UpdateBusinessUnit)

	roles := protected.Group("/roles")
	roles.Get("/", orgRead, cfg.Org.ListRoles)
	roles.Post("/", orgWrite, cfg.Org.CreateRole)
	roles.Get("/:id", orgRead, cfg.Org.GetRole)
	roles.Put("/:id", orgWrite, cfg.Org.UpdateRole)
	roles.Delete("/:id", orgWrite, cfg.Org.DeleteRole)

	departments := protected.Group("/departments")
	departments.Get("/", orgRead, cfg.Org.ListDepartments)
	departments.Post("/", orgWrite, cfg.Org.CreateDepartment)
	departments.Get("/:id", orgRead, cfg.Org.GetDepartment)
	departments.Put("/:id", orgWrite, cfg.Org.UpdateDepartment)
	departments.Delete("/:id", orgWrite, cfg.Org.DeleteDepartment)

	employeesRead := auth.RequirePermission(domain.PermissionEmployeesRead)
	employeesWrite := auth.RequirePermission(domain.PermissionEmployeesWrite)

	employees := protected.Group("/employees")
	employees.Get("/", employeesRead, cfg.Employees.List)
	employees.Post("/", employeesWrite, cfg.Employees.Create)
	employees.Get("/:id", employeesRead, cfg.Employees.Get)
	employees.Put("/:id", employeesWrite, cfg.Employees.Update)
	employees.Delete("/:id", employeesWrite, cfg.Employees.Delete)
	employees.Post("/:id/restore", employeesWrite, cfg.Employees.Restore)
	employees.Get("/:id/deployments", employeesRead, cfg.Employees.Deployments)

	usersManage := auth.RequirePermission(domain.PermissionUsersManage)
	users := protected.Group("/users", usersManage)
	users.Get("/", cfg.Users.List)
	users.Post("/", cfg.Users.Create)
	users.Get("/:id", cfg.Users.Get)
	users.Put("/:id", cfg.Users.Update)

	assetsRead := auth.RequirePermission(domain.PermissionAssetsRead)
	assetsWrite := auth.RequirePermission(domain.PermissionAssetsWrite)
	depreciationRun := auth.RequirePermission(domain.PermissionDepreciation)

	assets := protected.Group("/assets")
	assets.Get("/", assetsRead, cfg.Assets.List)
	assets.Post("/", assetsWrite, cfg.Assets.Create)
	assets.Get("/:id", assetsRead, cfg.Assets.Get)
	assets.Put("/:id", assetsWrite, cfg.Assets.Update)
	assets.Delete("/:id", auth.RequirePermission(domain.PermissionAssetsDelete), cfg.Assets.Delete)
	assets.Post("/:id/restore", assetsWrite, cfg.Assets.Restore)
	assets.Get("/:id/audit", auth.RequirePermission(domain.PermissionAssetsRead, domain.PermissionAuditRead), cfg.Assets.AuditTrail)
	assets.Get("/:id/depreciation/schedule", assetsRead, cfg.Depreciation.Schedule)
	assets.Get("/:id/depreciation/history", assetsRead, cfg.Depreciation.History)
	assets.Get("/:id/depreciation/valuation", assetsRead, cfg.Depreciation.Valuation)
	assets.Post("/:id/depreciation", depreciationRun, cfg.Depreciation.Depreciate)
	assets.Post("/:id/usage", assetsWrite, cfg.Depreciation.RecordUsage)

	depreciation := protected.Group("/depreciation")
	depreciation.Post("/calculate", assetsRead, cfg.Depreciation.Calculate)
	depreciation.Post("/run", depreciationRun, cfg.Depreciation.Run)

	lifecycleWrite := auth.RequirePermission(domain.PermissionLifecycleWrite)

	deployments := protected.Group("/deployments")
	deployments.Get("/", assetsRead, cfg.Deployments.List)
	deployments.Post("/", lifecycleWrite, cfg.Deployments.Deploy)
	deployments.Get("/:id", assetsRead, cfg.Deployments.Get)
	deployments.Post("/:id/return", lifecycleWrite, cfg.Deployments.Return)

	transfers := protected.Group("/transfers")
	transfers.Get("/", assetsRead, cfg.Transfers.List)
	transfers.Post("/", lifecycleWrite, cfg.Transfers.Request)
	transfers.Post("/bulk", lifecycleWrite, cfg.Transfers.Bulk)
	transfers.Get("/:id", assetsRead, cfg.Transfers.Get)
	transfers.Post("/:id/complete", lifecycleWrite, cfg.Transfers.Complete)
	transfers.Post("/:id/cancel", lifecycleWrite, cfg.Transfers.Cancel)

	retirements := protected.Group("/retirements")
	retirements.Get("/", assetsRead, cfg.Dispositions.ListRetirements)
	retirements.Post("/", lifecycleWrite, cfg.Dispositions.Retire)
	retirements.Get("/:id", assetsRead, cfg.Dispositions.GetRetirement)

	disposals := protected.Group("/disposals")
	disposals.Get("/", assetsRead, cfg.Dispositions.ListDisposals)
	disposals.Post("/", lifecycleWrite, cfg.Dispositions.Dispose)
	disposals.Post("/bulk", lifecycleWrite, cfg.Dispositions.BulkDispose)
	disposals.Get("/:id", assetsRead, cfg.Dispositions.GetDisposal)

	maintenance := protected.Group("/maintenance")
	maintenance.Get("/", assetsRead, cfg.Maintenance.List)
	maintenance.Post("/", lifecycleWrite, cfg.Maintenance.Schedule)
	maintenance.Get("/:id", assetsRead, cfg.Maintenance.Get)
	maintenance.Post("/:id/start", lifecycleWrite, cfg.Maintenance.Start)
	maintenance.Post("/:id/complete", lifecycleWrite, cfg.Maintenance.Complete)
	maintenance.Post("/:id/cancel", lifecycleWrite, cfg.Maintenance.Cancel)

	protected.Get("/audit-logs", auth.RequirePermission(domain.PermissionAuditRead), cfg.Audit.List)

	settings := protected.Group("/settings")
	settings.Get("/", auth.RequireAuthenticated(), cfg.Settings.List)
	settings.Get("/:key", auth.RequireAuthenticated(), cfg.Settings.Get)
	settings.Put("/:key", auth.RequirePermission(domain.PermissionSettingsWrite), cfg.Settings.Upsert)

	protected.Get("/dashboard/summary", assetsRead, cfg.Dashboard.Summary)
}

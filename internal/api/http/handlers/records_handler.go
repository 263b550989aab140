package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/assetdesk/asset-service/internal/api/dto"
	"github.com/assetdesk/asset-service/internal/auth"
	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/service"
)

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List handles GET /audit-logs.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	from, err := parseTime(c, "from")
	if err != nil {
		return err
	}
	to, err := parseTime(c, "to")
	if err != nil {
		return err
	}
	result, err := h.audit.List(c.UserContext(), scope, service.AuditFilter{
		EntityType:  enumQuery[domain.AuditEntity](c, "entity_type"),
		EntityID:    queryString(c, "entity_id"),
		Action:      enumQuery[domain.AuditAction](c, "action"),
		ActorUserID: queryString(c, "actor_user_id"),
		From:        from,
		To:          to,
		Pagination:  pagination(c),
	})
	if err != nil {
		return err
	}
	return respondList(c, result, auditLogResponse)
}

// SettingsHandler reads and writes per-unit configuration.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler constructs handler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// List handles GET /settings.
func (h *SettingsHandler) List(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	settings, err := h.settings.List(c.UserContext(), scope)
	if err != nil {
		return err
	}
	return respond(c, mapSlice(settings, settingResponse))
}

// Get handles GET /settings/:key.
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	setting, err := h.settings.Get(c.UserContext(), scope, c.Params("key"))
	if err != nil {
		return err
	}
	return respond(c, settingResponse(setting))
}

// Upsert handles PUT /settings/:key.
func (h *SettingsHandler) Upsert(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.UpsertSettingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	setting, err := h.settings.Upsert(c.UserContext(), scope, c.Params("key"), req.Value, req.Description)
	if err != nil {
		return err
	}
	return respond(c, settingResponse(setting))
}

// DashboardHandler serves register aggregates.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary handles GET /dashboard/summary.
func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	summary, err := h.dashboard.Summary(c.UserContext(), scope)
	if err != nil {
		return err
	}
	return respond(c, dashboardResponse(summary))
}

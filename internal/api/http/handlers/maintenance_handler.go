package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/assetdesk/asset-service/internal/api/dto"
	"github.com/assetdesk/asset-service/internal/auth"
	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/service"
)

// MaintenanceHandler schedules and tracks maintenance work.
type MaintenanceHandler struct {
	maintenance *service.MaintenanceService
}

// NewMaintenanceHandler constructs handler.
func NewMaintenanceHandler(maintenance *service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{maintenance: maintenance}
}

// List handles GET /maintenance.
func (h *MaintenanceHandler) List(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	result, err := h.maintenance.List(c.UserContext(), scope, service.MaintenanceListFilter{
		AssetID:    queryString(c, "asset_id"),
		Status:     enumQuery[domain.MaintenanceStatus](c, "status"),
		Type:       enumQuery[domain.MaintenanceType](c, "maintenance_type"),
		Pagination: pagination(c),
	})
	if err != nil {
		return err
	}
	return respondList(c, result, maintenanceResponse)
}

// Schedule handles POST /maintenance.
func (h *MaintenanceHandler) Schedule(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.MaintenanceRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	record, err := h.maintenance.Schedule(c.UserContext(), scope, service.MaintenanceInput{
		AssetID:       req.AssetID,
		Type:          req.Type,
		ScheduledDate: req.ScheduledDate.Ptr(),
		Description:   req.Description,
		Vendor:        req.Vendor,
		Cost:          req.Cost,
		PerformedBy:   req.PerformedBy,
	})
	if err != nil {
		return err
	}
	return created(c, maintenanceResponse(record))
}

// Get handles GET /maintenance/:id.
func (h *MaintenanceHandler) Get(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	record, err := h.maintenance.Get(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, maintenanceResponse(record))
}

// Start handles POST /maintenance/:id/start.
func (h *MaintenanceHandler) Start(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	record, err := h.maintenance.Start(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, maintenanceResponse(record))
}

// Complete handles POST /maintenance/:id/complete.
func (h *MaintenanceHandler) Complete(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CompleteMaintenanceRequest
	if err := bindOptional(c, &req); err != nil {
		return err
	}
	record, err := h.maintenance.Complete(c.UserContext(), scope, c.Params("id"), service.CompleteMaintenanceInput{
		Cost:        req.Cost,
		PerformedBy: req.PerformedBy,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return respond(c, maintenanceResponse(record))
}

// Cancel handles POST /maintenance/:id/cancel.
func (h *MaintenanceHandler) Cancel(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	record, err := h.maintenance.Cancel(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, maintenanceResponse(record))
}

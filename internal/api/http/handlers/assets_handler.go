package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/assetdesk/asset-service/internal/api/dto"
	"github.com/assetdesk/asset-service/internal/auth"
	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/service"
)

// AssetsHandler serves the asset register.
type AssetsHandler struct {
	assets *service.AssetService
}

// NewAssetsHandler constructs handler.
func NewAssetsHandler(assets *service.AssetService) *AssetsHandler {
	return &AssetsHandler{assets: assets}
}

func assetInput(req dto.AssetRequest) service.AssetInput {
	return service.AssetInput{
		DepartmentID:          req.DepartmentID,
		AssetTag:              req.AssetTag,
		Name:                  req.Name,
		Description:           req.Description,
		Category:              req.Category,
		Manufacturer:          req.Manufacturer,
		Model:                 req.Model,
		SerialNumber:          req.SerialNumber,
		Condition:             req.Condition,
		Location:              req.Location,
		PurchaseDate:          req.PurchaseDate.Ptr(),
		PurchasePrice:         req.PurchasePrice,
		SalvageValue:          req.SalvageValue,
		UsefulLifeMonths:      req.UsefulLifeMonths,
		DepreciationMethod:    req.DepreciationMethod,
		DecliningBalanceRate:  req.DecliningBalanceRate,
		TotalExpectedUnits:    req.TotalExpectedUnits,
		DepreciationStartDate: req.DepreciationStartDate.Ptr(),
		WarrantyExpiry:        req.WarrantyExpiry.Ptr(),
		Notes:                 req.Notes,
	}
}

// List handles GET /assets.
func (h *AssetsHandler) List(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var statuses []domain.AssetStatus
	for _, s := range queryList(c, "status") {
		status := domain.AssetStatus(strings.ToUpper(s))
		if !status.Valid() {
			return invalidQuery("status", s)
		}
		statuses = append(statuses, status)
	}
	result, err := h.assets.List(c.UserContext(), scope, service.AssetListFilter{
		Statuses:       statuses,
		Category:       queryString(c, "category"),
		DepartmentID:   queryString(c, "department_id"),
		Search:         queryString(c, "search"),
		IncludeDeleted: parseBool(c.Query("include_deleted")),
		Pagination:     pagination(c),
	})
	if err != nil {
		return err
	}
	return respondList(c, result, assetResponse)
}

// Create handles POST /assets.
func (h *AssetsHandler) Create(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.AssetRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	asset, err := h.assets.Create(c.UserContext(), scope, assetInput(req))
	if err != nil {
		return err
	}
	return created(c, assetResponse(asset))
}

// Get handles GET /assets/:id.
func (h *AssetsHandler) Get(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	asset, err := h.assets.Get(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, assetResponse(asset))
}

// Update handles PUT /assets/:id.
func (h *AssetsHandler) Update(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.AssetRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	asset, err := h.assets.Update(c.UserContext(), scope, c.Params("id"), assetInput(req))
	if err != nil {
		return err
	}
	return respond(c, assetResponse(asset))
}

// Delete handles DELETE /assets/:id.
func (h *AssetsHandler) Delete(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	if err := h.assets.Delete(c.UserContext(), scope, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Restore handles POST /assets/:id/restore.
func (h *AssetsHandler) Restore(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	asset, err := h.assets.Restore(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, assetResponse(asset))
}

// AuditTrail handles GET /assets/:id/audit.
func (h *AssetsHandler) AuditTrail(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	result, err := h.assets.AuditTrail(c.UserContext(), scope, c.Params("id"), pagination(c))
	if err != nil {
		return err
	}
	return respondList(c, result, auditLogResponse)
}

package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/assetdesk/asset-service/internal/api/dto"
	"github.com/assetdesk/asset-service/internal/auth"
	"github.com/assetdesk/asset-service/internal/depreciation"
	"github.com/assetdesk/asset-service/internal/service"
)

// DepreciationHandler serves schedules, postings and usage readings.
type DepreciationHandler struct {
	depreciation *service.DepreciationService
	now          func() time.Time
}

// NewDepreciationHandler constructs handler.
func NewDepreciationHandler(svc *service.DepreciationService) *DepreciationHandler {
	return &DepreciationHandler{depreciation: svc, now: time.Now}
}

func (h *DepreciationHandler) asOf(d *dto.Date) time.Time {
	if t := d.Ptr(); t != nil {
		return *t
	}
	return h.now().UTC()
}

// Calculate handles POST /depreciation/calculate.
func (h *DepreciationHandler) Calculate(c *fiber.Ctx) error {
	var req dto.CalculateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	entries, err := h.depreciation.Calculate(depreciation.Params{
		Method:           req.Method,
		Cost:             req.Cost,
		Salvage:          req.SalvageValue,
		UsefulLifeMonths: req.UsefulLifeMonths,
		DecliningRate:    req.DecliningRate,
		TotalUnits:       req.TotalUnits,
		StartDate:        req.StartDate.Time,
	}, req.Usage)
	if err != nil {
		return err
	}
	return respond(c, mapSlice(entries, scheduleEntryResponse))
}

// Run handles POST /depreciation/run for the caller's business unit.
func (h *DepreciationHandler) Run(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.RunDepreciationRequest
	if err := bindOptional(c, &req); err != nil {
		return err
	}
	unit := scope.BusinessUnitID
	result, err := h.depreciation.RunDue(c.UserContext(), scope, &unit, h.asOf(req.AsOf))
	if err != nil {
		return err
	}
	return respond(c, result)
}

// Schedule handles GET /assets/:id/depreciation/schedule.
func (h *DepreciationHandler) Schedule(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	entries, err := h.depreciation.Schedule(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, mapSlice(entries, scheduleEntryResponse))
}

// Valuation handles GET /assets/:id/depreciation/valuation?as_of=.
func (h *DepreciationHandler) Valuation(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	asOf, err := parseDate(c, "as_of")
	if err != nil {
		return err
	}
	day := h.now().UTC()
	if asOf != nil {
		day = *asOf
	}
	valuation, err := h.depreciation.Valuation(c.UserContext(), scope, c.Params("id"), day)
	if err != nil {
		return err
	}
	return respond(c, valuation)
}

// History handles GET /assets/:id/depreciation/history.
func (h *DepreciationHandler) History(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	entries, err := h.depreciation.History(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, mapSlice(entries, depreciationEntryResponse))
}

// Depreciate handles POST /assets/:id/depreciation.
func (h *DepreciationHandler) Depreciate(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.DepreciateRequest
	if err := bindOptional(c, &req); err != nil {
		return err
	}
	result, err := h.depreciation.DepreciateAsset(c.UserContext(), scope, c.Params("id"), h.asOf(req.AsOf))
	if err != nil {
		return err
	}
	return respond(c, postingResponse(result))
}

// RecordUsage handles POST /assets/:id/usage.
func (h *DepreciationHandler) RecordUsage(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.UsageRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	asset, err := h.depreciation.RecordUsage(c.UserContext(), scope, c.Params("id"), req.Units)
	if err != nil {
		return err
	}
	return respond(c, assetResponse(asset))
}

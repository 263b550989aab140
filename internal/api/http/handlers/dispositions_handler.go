package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/assetdesk/asset-service/internal/api/dto"
	"github.com/assetdesk/asset-service/internal/auth"
	"github.com/assetdesk/asset-service/internal/service"
)

// DispositionsHandler serves retirements and disposals.
type DispositionsHandler struct {
	retirements *service.RetirementService
	disposals   *service.DisposalService
}

// NewDispositionsHandler constructs handler.
func NewDispositionsHandler(retirements *service.RetirementService, disposals *service.DisposalService) *DispositionsHandler {
	return &DispositionsHandler{retirements: retirements, disposals: disposals}
}

func recordFilter(c *fiber.Ctx) (service.RecordListFilter, error) {
	from, err := parseDate(c, "from")
	if err != nil {
		return service.RecordListFilter{}, err
	}
	to, err := parseDate(c, "to")
	if err != nil {
		return service.RecordListFilter{}, err
	}
	return service.RecordListFilter{
		AssetID:    queryString(c, "asset_id"),
		From:       from,
		To:         to,
		Pagination: pagination(c),
	}, nil
}

func disposalDetails(d dto.DisposalDetails) service.DisposalDetails {
	return service.DisposalDetails{
		Method:        d.Method,
		DisposalValue: d.DisposalValue,
		DisposalDate:  d.DisposalDate.Ptr(),
		Recipient:     d.Recipient,
		Notes:         d.Notes,
	}
}

// ListRetirements handles GET /retirements.
func (h *DispositionsHandler) ListRetirements(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	filter, err := recordFilter(c)
	if err != nil {
		return err
	}
	result, err := h.retirements.List(c.UserContext(), scope, filter)
	if err != nil {
		return err
	}
	return respondList(c, result, retirementResponse)
}

// Retire handles POST /retirements.
func (h *DispositionsHandler) Retire(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.RetireRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	retirement, err := h.retirements.Retire(c.UserContext(), scope, service.RetireInput{
		AssetID:        req.AssetID,
		Reason:         req.Reason,
		RetirementDate: req.RetirementDate.Ptr(),
		Notes:          req.Notes,
	})
	if err != nil {
		return err
	}
	return created(c, retirementResponse(retirement))
}

// GetRetirement handles GET /retirements/:id.
func (h *DispositionsHandler) GetRetirement(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	retirement, err := h.retirements.Get(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, retirementResponse(retirement))
}

// ListDisposals handles GET /disposals.
func (h *DispositionsHandler) ListDisposals(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	filter, err := recordFilter(c)
	if err != nil {
		return err
	}
	result, err := h.disposals.List(c.UserContext(), scope, filter)
	if err != nil {
		return err
	}
	return respondList(c, result, disposalResponse)
}

// Dispose handles POST /disposals.
func (h *DispositionsHandler) Dispose(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.DisposeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	disposal, err := h.disposals.Dispose(c.UserContext(), scope, service.DisposeInput{
		AssetID:         req.AssetID,
		DisposalDetails: disposalDetails(req.DisposalDetails),
	})
	if err != nil {
		return err
	}
	return created(c, disposalResponse(disposal))
}

// BulkDispose handles POST /disposals/bulk.
func (h *DispositionsHandler) BulkDispose(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.BulkDisposeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	results, err := h.disposals.BulkDispose(c.UserContext(), scope, service.BulkDisposeInput{
		AssetIDs:        req.AssetIDs,
		DisposalDetails: disposalDetails(req.DisposalDetails),
	})
	if err != nil {
		return err
	}
	return respond(c, results)
}

// GetDisposal handles GET /disposals/:id.
func (h *DispositionsHandler) GetDisposal(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	disposal, err := h.disposals.Get(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, disposalResponse(disposal))
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/assetdesk/asset-service/internal/api/dto"
	"github.com/assetdesk/asset-service/internal/auth"
	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/service"
)

// TransfersHandler relocates assets.
type TransfersHandler struct {
	transfers *service.TransferService
}

// NewTransfersHandler constructs handler.
func NewTransfersHandler(transfers *service.TransferService) *TransfersHandler {
	return &TransfersHandler{transfers: transfers}
}

func transferDestination(d dto.TransferDestination) service.TransferDestination {
	return service.TransferDestination{
		ToDepartmentID:   d.ToDepartmentID,
		ToLocation:       d.ToLocation,
		ToBusinessUnitID: d.ToBusinessUnitID,
		Reason:           d.Reason,
		Notes:            d.Notes,
	}
}

// List handles GET /transfers.
func (h *TransfersHandler) List(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	result, err := h.transfers.List(c.UserContext(), scope, service.TransferListFilter{
		AssetID:    queryString(c, "asset_id"),
		Status:     enumQuery[domain.TransferStatus](c, "status"),
		Pagination: pagination(c),
	})
	if err != nil {
		return err
	}
	return respondList(c, result, transferResponse)
}

// Request handles POST /transfers.
func (h *TransfersHandler) Request(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.TransferRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	transfer, err := h.transfers.Request(c.UserContext(), scope, service.TransferInput{
		AssetID:             req.AssetID,
		TransferDestination: transferDestination(req.TransferDestination),
	})
	if err != nil {
		return err
	}
	return created(c, transferResponse(transfer))
}

// Bulk handles POST /transfers/bulk. Each asset is moved independently.
func (h *TransfersHandler) Bulk(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.BulkTransferRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	results, err := h.transfers.Bulk(c.UserContext(), scope, service.BulkTransferInput{
		AssetIDs:            req.AssetIDs,
		TransferDestination: transferDestination(req.TransferDestination),
	})
	if err != nil {
		return err
	}
	return respond(c, results)
}

// Get handles GET /transfers/:id.
func (h *TransfersHandler) Get(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	transfer, err := h.transfers.Get(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, transferResponse(transfer))
}

// Complete handles POST /transfers/:id/complete.
func (h *TransfersHandler) Complete(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	transfer, err := h.transfers.Complete(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, transferResponse(transfer))
}

// Cancel handles POST /transfers/:id/cancel.
func (h *TransfersHandler) Cancel(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	transfer, err := h.transfers.Cancel(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, transferResponse(transfer))
}

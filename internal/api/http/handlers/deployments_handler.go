package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/assetdesk/asset-service/internal/api/dto"
	"github.com/assetdesk/asset-service/internal/auth"
	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/service"
)

// DeploymentsHandler hands assets out to employees.
type DeploymentsHandler struct {
	deployments *service.DeploymentService
	now         func() time.Time
}

// NewDeploymentsHandler constructs handler.
func NewDeploymentsHandler(deployments *service.DeploymentService) *DeploymentsHandler {
	return &DeploymentsHandler{deployments: deployments, now: time.Now}
}

// List handles GET /deployments.
func (h *DeploymentsHandler) List(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	result, err := h.deployments.List(c.UserContext(), scope, service.DeploymentListFilter{
		AssetID:    queryString(c, "asset_id"),
		EmployeeID: queryString(c, "employee_id"),
		Status:     enumQuery[domain.DeploymentStatus](c, "status"),
		Overdue:    parseBool(c.Query("overdue")),
		Pagination: pagination(c),
	})
	if err != nil {
		return err
	}
	return respondList(c, result, deploymentResponse(h.now()))
}

// Deploy handles POST /deployments.
func (h *DeploymentsHandler) Deploy(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.DeployRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	deployment, err := h.deployments.Deploy(c.UserContext(), scope, service.DeployInput{
		AssetID:            req.AssetID,
		EmployeeID:         req.EmployeeID,
		ExpectedReturnDate: req.ExpectedReturnDate.Ptr(),
		Notes:              req.Notes,
	})
	if err != nil {
		return err
	}
	return created(c, deploymentResponse(h.now())(deployment))
}

// Get handles GET /deployments/:id.
func (h *DeploymentsHandler) Get(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	deployment, err := h.deployments.Get(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, deploymentResponse(h.now())(deployment))
}

// Return handles POST /deployments/:id/return.
func (h *DeploymentsHandler) Return(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.ReturnRequest
	if err := bindOptional(c, &req); err != nil {
		return err
	}
	deployment, err := h.deployments.Return(c.UserContext(), scope, c.Params("id"), service.ReturnInput{
		Condition: req.Condition,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}
	return respond(c, deploymentResponse(h.now())(deployment))
}

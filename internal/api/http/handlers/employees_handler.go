package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/assetdesk/asset-service/internal/api/dto"
	"github.com/assetdesk/asset-service/internal/auth"
	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/service"
)

// EmployeesHandler serves the employee directory.
type EmployeesHandler struct {
	employees *service.EmployeeService
}

// NewEmployeesHandler constructs handler.
func NewEmployeesHandler(employees *service.EmployeeService) *EmployeesHandler {
	return &EmployeesHandler{employees: employees}
}

func employeeInput(req dto.EmployeeRequest) service.EmployeeInput {
	return service.EmployeeInput{
		DepartmentID:   req.DepartmentID,
		RoleID:         req.RoleID,
		EmployeeNumber: req.EmployeeNumber,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		Position:       req.Position,
		HireDate:       req.HireDate.Ptr(),
		Status:         req.Status,
	}
}

// List handles GET /employees.
func (h *EmployeesHandler) List(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	result, err := h.employees.List(c.UserContext(), scope, service.EmployeeListFilter{
		DepartmentID:   queryString(c, "department_id"),
		Status:         enumQuery[domain.EmployeeStatus](c, "status"),
		Search:         queryString(c, "search"),
		IncludeDeleted: parseBool(c.Query("include_deleted")),
		Pagination:     pagination(c),
	})
	if err != nil {
		return err
	}
	return respondList(c, result, employeeResponse)
}

// Create handles POST /employees.
func (h *EmployeesHandler) Create(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.EmployeeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	employee, err := h.employees.Create(c.UserContext(), scope, employeeInput(req))
	if err != nil {
		return err
	}
	return created(c, employeeResponse(employee))
}

// Get handles GET /employees/:id.
func (h *EmployeesHandler) Get(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	employee, err := h.employees.Get(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, employeeResponse(employee))
}

// Update handles PUT /employees/:id.
func (h *EmployeesHandler) Update(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.EmployeeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	employee, err := h.employees.Update(c.UserContext(), scope, c.Params("id"), employeeInput(req))
	if err != nil {
		return err
	}
	return respond(c, employeeResponse(employee))
}

// Delete handles DELETE /employees/:id.
func (h *EmployeesHandler) Delete(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	if err := h.employees.Delete(c.UserContext(), scope, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Restore handles POST /employees/:id/restore.
func (h *EmployeesHandler) Restore(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	employee, err := h.employees.Restore(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, employeeResponse(employee))
}

// Deployments handles GET /employees/:id/deployments.
func (h *EmployeesHandler) Deployments(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	result, err := h.employees.Deployments(c.UserContext(), scope, c.Params("id"),
		enumQuery[domain.DeploymentStatus](c, "status"), pagination(c))
	if err != nil {
		return err
	}
	return respondList(c, result, deploymentResponse(time.Now()))
}

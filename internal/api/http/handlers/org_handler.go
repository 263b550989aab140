package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/assetdesk/asset-service/internal/api/dto"
	"github.com/assetdesk/asset-service/internal/auth"
	"github.com/assetdesk/asset-service/internal/service"
)

// OrgHandler serves business units, roles and departments.
type OrgHandler struct {
	org *service.OrgService
}

// NewOrgHandler constructs handler.
func NewOrgHandler(org *service.OrgService) *OrgHandler {
	return &OrgHandler{org: org}
}

// ListBusinessUnits handles GET /business-units.
func (h *OrgHandler) ListBusinessUnits(c *fiber.Ctx) error {
	units, err := h.org.ListBusinessUnits(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, mapSlice(units, businessUnitResponse))
}

// CreateBusinessUnit handles POST /business-units.
func (h *OrgHandler) CreateBusinessUnit(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.BusinessUnitRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	unit, err := h.org.CreateBusinessUnit(c.UserContext(), scope, service.BusinessUnitInput{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return err
	}
	return created(c, businessUnitResponse(unit))
}

// GetBusinessUnit handles GET /business-units/:id.
func (h *OrgHandler) GetBusinessUnit(c *fiber.Ctx) error {
	unit, err := h.org.GetBusinessUnit(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, businessUnitResponse(unit))
}

// UpdateBusinessUnit handles PUT /business-units/:id.
func (h *OrgHandler) UpdateBusinessUnit(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.BusinessUnitRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	unit, err := h.org.UpdateBusinessUnit(c.UserContext(), scope, c.Params("id"), service.BusinessUnitInput{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return err
	}
	return respond(c, businessUnitResponse(unit))
}

// ListRoles handles GET /roles.
func (h *OrgHandler) ListRoles(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	roles, err := h.org.ListRoles(c.UserContext(), scope)
	if err != nil {
		return err
	}
	return respond(c, mapSlice(roles, roleResponse))
}

// CreateRole handles POST /roles.
func (h *OrgHandler) CreateRole(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.RoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role, err := h.org.CreateRole(c.UserContext(), scope, service.RoleInput{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		return err
	}
	return created(c, roleResponse(role))
}

// GetRole handles GET /roles/:id.
func (h *OrgHandler) GetRole(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	role, err := h.org.GetRole(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, roleResponse(role))
}

// UpdateRole handles PUT /roles/:id.
func (h *OrgHandler) UpdateRole(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.RoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role, err := h.org.UpdateRole(c.UserContext(), scope, c.Params("id"), service.RoleInput{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		return err
	}
	return respond(c, roleResponse(role))
}

// DeleteRole handles DELETE /roles/:id.
func (h *OrgHandler) DeleteRole(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	if err := h.org.DeleteRole(c.UserContext(), scope, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListDepartments handles GET /departments.
func (h *OrgHandler) ListDepartments(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	departments, err := h.org.ListDepartments(c.UserContext(), scope)
	if err != nil {
		return err
	}
	return respond(c, mapSlice(departments, departmentResponse))
}

// CreateDepartment handles POST /departments.
func (h *OrgHandler) CreateDepartment(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.DepartmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	department, err := h.org.CreateDepartment(c.UserContext(), scope, service.DepartmentInput{
		Name:              req.Name,
		Description:       req.Description,
		ManagerEmployeeID: req.ManagerEmployeeID,
	})
	if err != nil {
		return err
	}
	return created(c, departmentResponse(department))
}

// GetDepartment handles GET /departments/:id.
func (h *OrgHandler) GetDepartment(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	department, err := h.org.GetDepartment(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, departmentResponse(department))
}

// UpdateDepartment handles PUT /departments/:id.
func (h *OrgHandler) UpdateDepartment(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	var req dto.DepartmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	department, err := h.org.UpdateDepartment(c.UserContext(), scope, c.Params("id"), service.DepartmentInput{
		Name:              req.Name,
		Description:       req.Description,
		ManagerEmployeeID: req.ManagerEmployeeID,
	})
	if err != nil {
		return err
	}
	return respond(c, departmentResponse(department))
}

// DeleteDepartment handles DELETE /departments/:id.
func (h *OrgHandler) DeleteDepartment(c *fiber.Ctx) error {
	scope, err := auth.ScopeFromContext(c)
	if err != nil {
		return err
	}
	if err := h.org.DeleteDepartment(c.UserContext(), scope, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

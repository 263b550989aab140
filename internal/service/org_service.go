package service

import (
	"context"
	"strings"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/repository"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

// OrgService manages business units, roles and departments.
type OrgService struct {
	businessUnits repository.BusinessUnitRepository
	roles         repository.RoleRepository
	departments   repository.DepartmentRepository
	employees     repository.EmployeeRepository
	tx            Transactor
	audit         *AuditService
}

// OrgDependencies encapsulates repositories required for org management.
type OrgDependencies struct {
	BusinessUnitRepo repository.BusinessUnitRepository
	RoleRepo         repository.RoleRepository
	DepartmentRepo   repository.DepartmentRepository
	EmployeeRepo     repository.EmployeeRepository
	Tx               Transactor
	Audit            *AuditService
}

// NewOrgService constructs the service.
func NewOrgService(deps OrgDependencies) *OrgService {
	return &OrgService{
		businessUnits: deps.BusinessUnitRepo,
		roles:         deps.RoleRepo,
		departments:   deps.DepartmentRepo,
		employees:     deps.EmployeeRepo,
		tx:            transactorOrDirect(deps.Tx),
		audit:         deps.Audit,
	}
}

// BusinessUnitInput describes a business unit.
type BusinessUnitInput struct {
	Name        string
	Code        string
	Description string
	IsActive    *bool
}

// RoleInput describes a role.
type RoleInput struct {
	Name        string
	Description string
	Permissions []string
}

// DepartmentInput describes a department.
type DepartmentInput struct {
	Name              string
	Description       string
	ManagerEmployeeID *string
}

// CreateBusinessUnit creates a new tenant partition.
func (s *OrgService) CreateBusinessUnit(ctx context.Context, scope domain.Scope, input BusinessUnitInput) (*domain.BusinessUnit, error) {
	if err := requireText("name", input.Name); err != nil {
		return nil, err
	}
	if err := requireText("code", input.Code); err != nil {
		return nil, err
	}
	unit := &domain.BusinessUnit{IsActive: true}
	applyBusinessUnit(unit, input)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.businessUnits.Create(ctx, unit); err != nil {
			return err
		}
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:    domain.EntityBusinessUnit,
			EntityID:  unit.ID,
			Action:    domain.ActionCreate,
			NewValues: map[string]any{"name": unit.Name, "code": unit.Code},
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return unit, nil
}

// UpdateBusinessUnit edits a business unit.
func (s *OrgService) UpdateBusinessUnit(ctx context.Context, scope domain.Scope, id string, input BusinessUnitInput) (*domain.BusinessUnit, error) {
	if err := requireText("name", input.Name); err != nil {
		return nil, err
	}
	if err := requireText("code", input.Code); err != nil {
		return nil, err
	}
	unit, err := s.GetBusinessUnit(ctx, id)
	if err != nil {
		return nil, err
	}
	before := map[string]any{"name": unit.Name, "code": unit.Code, "is_active": unit.IsActive}
	applyBusinessUnit(unit, input)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.businessUnits.Update(ctx, unit); err != nil {
			return err
		}
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:    domain.EntityBusinessUnit,
			EntityID:  id,
			Action:    domain.ActionUpdate,
			OldValues: before,
			NewValues: map[string]any{"name": unit.Name, "code": unit.Code, "is_active": unit.IsActive},
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return unit, nil
}

// GetBusinessUnit fetches one business unit.
func (s *OrgService) GetBusinessUnit(ctx context.Context, id string) (*domain.BusinessUnit, error) {
	unit, err := s.businessUnits.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "business unit", map[string]any{"id": id})
	}
	return unit, nil
}

// ListBusinessUnits returns every business unit.
func (s *OrgService) ListBusinessUnits(ctx context.Context) ([]domain.BusinessUnit, error) {
	units, err := s.businessUnits.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return units, nil
}

func applyBusinessUnit(unit *domain.BusinessUnit, input BusinessUnitInput) {
	unit.Name = strings.TrimSpace(input.Name)
	unit.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	unit.Description = strings.TrimSpace(input.Description)
	if input.IsActive != nil {
		unit.IsActive = *input.IsActive
	}
}

// CreateRole creates a role in scope's business unit.
func (s *OrgService) CreateRole(ctx context.Context, scope domain.Scope, input RoleInput) (*domain.Role, error) {
	if err := validateRole(input); err != nil {
		return nil, err
	}
	if err := checkGrant(scope, input.Permissions); err != nil {
		return nil, err
	}
	role := &domain.Role{
		BusinessUnitID: scope.BusinessUnitID,
		Name:           strings.TrimSpace(input.Name),
		Description:    strings.TrimSpace(input.Description),
		Permissions:    normalizePermissions(input.Permissions),
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.roles.Create(ctx, role); err != nil {
			return err
		}
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:    domain.EntityRole,
			EntityID:  role.ID,
			Action:    domain.ActionCreate,
			NewValues: map[string]any{"name": role.Name, "permissions": role.Permissions},
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return role, nil
}

// UpdateRole edits a role.
func (s *OrgService) UpdateRole(ctx context.Context, scope domain.Scope, id string, input RoleInput) (*domain.Role, error) {
	if err := validateRole(input); err != nil {
		return nil, err
	}
	if err := checkGrant(scope, input.Permissions); err != nil {
		return nil, err
	}
	role, err := s.GetRole(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := checkGrant(scope, role.Permissions); err != nil {
		return nil, err
	}
	before := map[string]any{"name": role.Name, "permissions": role.Permissions}
	role.Name = strings.TrimSpace(input.Name)
	role.Description = strings.TrimSpace(input.Description)
	role.Permissions = normalizePermissions(input.Permissions)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.roles.Update(ctx, role); err != nil {
			return err
		}
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:    domain.EntityRole,
			EntityID:  id,
			Action:    domain.ActionUpdate,
			OldValues: before,
			NewValues: map[string]any{"name": role.Name, "permissions": role.Permissions},
		})
	})
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "role", map[string]any{"id": id})
	}
	return role, nil
}

// GetRole fetches a role in scope.
func (s *OrgService) GetRole(ctx context.Context, scope domain.Scope, id string) (*domain.Role, error) {
	role, err := s.roles.GetByID(ctx, scope.BusinessUnitID, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "role", map[string]any{"id": id})
	}
	return role, nil
}

// ListRoles returns the roles of scope's business unit.
func (s *OrgService) ListRoles(ctx context.Context, scope domain.Scope) ([]domain.Role, error) {
	roles, err := s.roles.List(ctx, scope.BusinessUnitID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return roles, nil
}

// DeleteRole soft-deletes a role nobody holds.
func (s *OrgService) DeleteRole(ctx context.Context, scope domain.Scope, id string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		role, err := s.GetRole(ctx, scope, id)
		if err != nil {
			return err
		}
		assigned, err := s.roles.CountAssignments(ctx, id)
		if err != nil {
			return err
		}
		if assigned > 0 {
			return apperrors.NewConflict("role is still assigned", map[string]any{"role_id": id, "assignments": assigned})
		}
		if err := s.roles.SoftDelete(ctx, scope.BusinessUnitID, id); err != nil {
			return apperrors.NotFoundOr(err, "role", map[string]any{"id": id})
		}
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:    domain.EntityRole,
			EntityID:  id,
			Action:    domain.ActionDelete,
			OldValues: map[string]any{"name": role.Name},
		})
	})
	return apperrors.MapError(err)
}

func validateRole(input RoleInput) error {
	if err := requireText("name", input.Name); err != nil {
		return err
	}
	var unknown []string
	for _, p := range input.Permissions {
		if !domain.IsKnownPermission(strings.TrimSpace(p)) {
			unknown = append(unknown, p)
		}
	}
	if len(unknown) > 0 {
		return apperrors.NewValidationError("unknown permissions", map[string]any{"permissions": unknown})
	}
	return nil
}

// checkGrant refuses to let a restricted caller hand out or edit PermissionAll.
func checkGrant(scope domain.Scope, perms []string) error {
	if scope.Unrestricted {
		return nil
	}
	for _, p := range perms {
		if domain.Permission(strings.TrimSpace(p)) == domain.PermissionAll {
			return apperrors.NewForbidden("only unrestricted administrators can grant all permissions")
		}
	}
	return nil
}

func normalizePermissions(perms []string) []string {
	seen := make(map[string]struct{}, len(perms))
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// CreateDepartment creates a new department.
func (s *OrgService) CreateDepartment(ctx context.Context, scope domain.Scope, input DepartmentInput) (*domain.Department, error) {
	if err := requireText("name", input.Name); err != nil {
		return nil, err
	}
	dept := &domain.Department{BusinessUnitID: scope.BusinessUnitID}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.applyDepartment(ctx, scope, dept, input); err != nil {
			return err
		}
		if err := s.departments.Create(ctx, dept); err != nil {
			return err
		}
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:    domain.EntityDepartment,
			EntityID:  dept.ID,
			Action:    domain.ActionCreate,
			NewValues: departmentSnapshot(dept),
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// UpdateDepartment edits a department.
func (s *OrgService) UpdateDepartment(ctx context.Context, scope domain.Scope, id string, input DepartmentInput) (*domain.Department, error) {
	if err := requireText("name", input.Name); err != nil {
		return nil, err
	}
	var dept *domain.Department
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.GetDepartment(ctx, scope, id)
		if err != nil {
			return err
		}
		before := departmentSnapshot(current)
		if err := s.applyDepartment(ctx, scope, current, input); err != nil {
			return err
		}
		if err := s.departments.Update(ctx, current); err != nil {
			return apperrors.NotFoundOr(err, "department", map[string]any{"id": id})
		}
		dept = current
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:    domain.EntityDepartment,
			EntityID:  id,
			Action:    domain.ActionUpdate,
			OldValues: before,
			NewValues: departmentSnapshot(dept),
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// GetDepartment fetches a department in scope.
func (s *OrgService) GetDepartment(ctx context.Context, scope domain.Scope, id string) (*domain.Department, error) {
	dept, err := s.departments.GetByID(ctx, scope.BusinessUnitID, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "department", map[string]any{"id": id})
	}
	return dept, nil
}

// ListDepartments returns the departments of scope's business unit.
func (s *OrgService) ListDepartments(ctx context.Context, scope domain.Scope) ([]domain.Department, error) {
	depts, err := s.departments.List(ctx, scope.BusinessUnitID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return depts, nil
}

// DeleteDepartment soft-deletes a department without employees or assets.
func (s *OrgService) DeleteDepartment(ctx context.Context, scope domain.Scope, id string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		dept, err := s.GetDepartment(ctx, scope, id)
		if err != nil {
			return err
		}
		members, err := s.departments.CountMembers(ctx, id)
		if err != nil {
			return err
		}
		if members > 0 {
			return apperrors.NewConflict("department still has employees or assets", map[string]any{"department_id": id, "members": members})
		}
		if err := s.departments.SoftDelete(ctx, scope.BusinessUnitID, id); err != nil {
			return apperrors.NotFoundOr(err, "department", map[string]any{"id": id})
		}
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:    domain.EntityDepartment,
			EntityID:  id,
			Action:    domain.ActionDelete,
			OldValues: departmentSnapshot(dept),
		})
	})
	return apperrors.MapError(err)
}

func (s *OrgService) applyDepartment(ctx context.Context, scope domain.Scope, dept *domain.Department, input DepartmentInput) error {
	manager := optionalID(input.ManagerEmployeeID)
	if manager != nil && !sameID(manager, dept.ManagerEmployeeID) {
		emp, err := s.employees.GetByID(ctx, scope.BusinessUnitID, *manager)
		if err != nil {
			return apperrors.NotFoundOr(err, "employee", map[string]any{"id": *manager})
		}
		if emp.IsDeleted {
			return apperrors.NewNotFound("employee", map[string]any{"id": *manager})
		}
	}
	dept.Name = strings.TrimSpace(input.Name)
	dept.Description = strings.TrimSpace(input.Description)
	dept.ManagerEmployeeID = manager
	return nil
}

func departmentSnapshot(d *domain.Department) map[string]any {
	return map[string]any{
		"name":                d.Name,
		"description":         d.Description,
		"manager_employee_id": derefString(d.ManagerEmployeeID),
	}
}

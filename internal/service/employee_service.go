package service

import (
	"context"
	"strings"
	"time"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/repository"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

// EmployeeService manages the people assets are deployed to.
type EmployeeService struct {
	employees   repository.EmployeeRepository
	departments repository.DepartmentRepository
	roles       repository.RoleRepository
	deployments repository.DeploymentRepository
	tx          Transactor
	audit       *AuditService
}

// EmployeeDependencies bundles collaborators for EmployeeService.
type EmployeeDependencies struct {
	EmployeeRepo   repository.EmployeeRepository
	DepartmentRepo repository.DepartmentRepository
	RoleRepo       repository.RoleRepository
	DeploymentRepo repository.DeploymentRepository
	Tx             Transactor
	Audit          *AuditService
}

// NewEmployeeService constructs the service.
func NewEmployeeService(deps EmployeeDependencies) *EmployeeService {
	return &EmployeeService{
		employees:   deps.EmployeeRepo,
		departments: deps.DepartmentRepo,
		roles:       deps.RoleRepo,
		deployments: deps.DeploymentRepo,
		tx:          transactorOrDirect(deps.Tx),
		audit:       deps.Audit,
	}
}

// EmployeeInput describes an employee.
type EmployeeInput struct {
	DepartmentID   *string
	RoleID         *string
	EmployeeNumber string
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Position       string
	HireDate       *time.Time
	Status         domain.EmployeeStatus
}

// EmployeeListFilter narrows employee listings.
type EmployeeListFilter struct {
	DepartmentID   *string
	Status         *domain.EmployeeStatus
	Search         *string
	IncludeDeleted bool
	Pagination
}

// Create adds an employee to scope's business unit.
func (s *EmployeeService) Create(ctx context.Context, scope domain.Scope, input EmployeeInput) (*domain.Employee, error) {
	emp := &domain.Employee{BusinessUnitID: scope.BusinessUnitID, Status: domain.EmployeeStatusActive}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.apply(ctx, scope, emp, input); err != nil {
			return err
		}
		if err := s.employees.Create(ctx, emp); err != nil {
			return err
		}
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:    domain.EntityEmployee,
			EntityID:  emp.ID,
			Action:    domain.ActionCreate,
			NewValues: employeeSnapshot(emp),
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return emp, nil
}

// Update replaces an employee's details.
func (s *EmployeeService) Update(ctx context.Context, scope domain.Scope, id string, input EmployeeInput) (*domain.Employee, error) {
	var emp *domain.Employee
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.active(ctx, scope, id)
		if err != nil {
			return err
		}
		before := employeeSnapshot(current)
		if err := s.apply(ctx, scope, current, input); err != nil {
			return err
		}
		if current.Status == domain.EmployeeStatusTerminated {
			active, err := s.deployments.CountActiveByEmployee(ctx, id)
			if err != nil {
				return err
			}
			if active > 0 {
				return apperrors.NewConflict("employee still holds deployed assets", map[string]any{"employee_id": id, "active_deployments": active})
			}
		}
		if err := s.employees.Update(ctx, current); err != nil {
			return apperrors.NotFoundOr(err, "employee", map[string]any{"id": id})
		}
		emp = current
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:    domain.EntityEmployee,
			EntityID:  id,
			Action:    domain.ActionUpdate,
			OldValues: before,
			NewValues: employeeSnapshot(emp),
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return emp, nil
}

// Get fetches an employee, deleted or not.
func (s *EmployeeService) Get(ctx context.Context, scope domain.Scope, id string) (*domain.Employee, error) {
	emp, err := s.employees.GetByID(ctx, scope.BusinessUnitID, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "employee", map[string]any{"id": id})
	}
	return emp, nil
}

// List returns a page of employees.
func (s *EmployeeService) List(ctx context.Context, scope domain.Scope, filter EmployeeListFilter) (ListResult[domain.Employee], error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return ListResult[domain.Employee]{}, apperrors.NewValidationError("unknown employee status", map[string]any{"status": *filter.Status})
	}
	items, total, err := s.employees.List(ctx, repository.EmployeeFilter{
		BusinessUnitID: scope.BusinessUnitID,
		DepartmentID:   filter.DepartmentID,
		Status:         filter.Status,
		Search:         filter.Search,
		IncludeDeleted: filter.IncludeDeleted,
		Page:           filter.Pagination.repo(),
	})
	if err != nil {
		return ListResult[domain.Employee]{}, apperrors.MapError(err)
	}
	return newListResult(items, total, filter.Pagination), nil
}

// Delete soft-deletes an employee without active deployments.
func (s *EmployeeService) Delete(ctx context.Context, scope domain.Scope, id string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emp, err := s.active(ctx, scope, id)
		if err != nil {
			return err
		}
		active, err := s.deployments.CountActiveByEmployee(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return apperrors.NewConflict("employee still holds deployed assets", map[string]any{"employee_id": id, "active_deployments": active})
		}
		if err := s.employees.SoftDelete(ctx, scope.BusinessUnitID, id); err != nil {
			return apperrors.NotFoundOr(err, "employee", map[string]any{"id": id})
		}
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:    domain.EntityEmployee,
			EntityID:  id,
			Action:    domain.ActionDelete,
			OldValues: employeeSnapshot(emp),
		})
	})
	return apperrors.MapError(err)
}

// Restore brings a soft-deleted employee back.
func (s *EmployeeService) Restore(ctx context.Context, scope domain.Scope, id string) (*domain.Employee, error) {
	var emp *domain.Employee
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.Get(ctx, scope, id)
		if err != nil {
			return err
		}
		if !current.IsDeleted {
			return apperrors.NewConflict("employee is not deleted", map[string]any{"employee_id": id})
		}
		if err := s.employees.Restore(ctx, scope.BusinessUnitID, id); err != nil {
			return apperrors.NotFoundOr(err, "employee", map[string]any{"id": id})
		}
		current.IsDeleted = false
		current.DeletedAt = nil
		emp = current
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:   domain.EntityEmployee,
			EntityID: id,
			Action:   domain.ActionRestore,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return emp, nil
}

// Deployments lists the deployments of an employee.
func (s *EmployeeService) Deployments(ctx context.Context, scope domain.Scope, id string, status *domain.DeploymentStatus, page Pagination) (ListResult[domain.AssetDeployment], error) {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return ListResult[domain.AssetDeployment]{}, err
	}
	items, total, err := s.deployments.List(ctx, repository.DeploymentFilter{
		BusinessUnitID: scope.BusinessUnitID,
		EmployeeID:     &id,
		Status:         status,
		Page:           page.repo(),
	})
	if err != nil {
		return ListResult[domain.AssetDeployment]{}, apperrors.MapError(err)
	}
	return newListResult(items, total, page), nil
}

func (s *EmployeeService) active(ctx context.Context, scope domain.Scope, id string) (*domain.Employee, error) {
	emp, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if emp.IsDeleted {
		return nil, apperrors.NewNotFound("employee", map[string]any{"id": id})
	}
	return emp, nil
}

func (s *EmployeeService) apply(ctx context.Context, scope domain.Scope, emp *domain.Employee, input EmployeeInput) error {
	if err := requireText("employee_number", input.EmployeeNumber); err != nil {
		return err
	}
	if err := requireText("first_name", input.FirstName); err != nil {
		return err
	}
	status := input.Status
	if status == "" {
		status = emp.Status
	}
	if !status.Valid() {
		return apperrors.NewValidationError("unknown employee status", map[string]any{"status": status})
	}
	dept := optionalID(input.DepartmentID)
	if dept != nil && !sameID(dept, emp.DepartmentID) {
		if err := checkDepartment(ctx, s.departments, scope.BusinessUnitID, *dept); err != nil {
			return err
		}
	}
	role := optionalID(input.RoleID)
	if role != nil && !sameID(role, emp.RoleID) {
		if _, err := s.roles.GetByID(ctx, scope.BusinessUnitID, *role); err != nil {
			return apperrors.NotFoundOr(err, "role", map[string]any{"id": *role})
		}
	}
	emp.DepartmentID = dept
	emp.RoleID = role
	emp.EmployeeNumber = strings.TrimSpace(input.EmployeeNumber)
	emp.FirstName = strings.TrimSpace(input.FirstName)
	emp.LastName = strings.TrimSpace(input.LastName)
	emp.Email = strings.ToLower(strings.TrimSpace(input.Email))
	emp.Phone = strings.TrimSpace(input.Phone)
	emp.Position = strings.TrimSpace(input.Position)
	emp.HireDate = input.HireDate
	emp.Status = status
	return nil
}

func employeeSnapshot(e *domain.Employee) map[string]any {
	return map[string]any{
		"employee_number": e.EmployeeNumber,
		"name":            e.FullName(),
		"email":           e.Email,
		"status":          e.Status,
		"department_id":   derefString(e.DepartmentID),
		"role_id":         derefString(e.RoleID),
	}
}

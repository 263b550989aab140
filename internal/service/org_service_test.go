package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetdesk/asset-service/internal/domain"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

func (f *fixture) orgService() *OrgService {
	return NewOrgService(OrgDependencies{
		BusinessUnitRepo: f.repos.BusinessUnits,
		RoleRepo:         f.repos.Roles,
		DepartmentRepo:   f.repos.Departments,
		EmployeeRepo:     f.repos.Employees,
		Audit:            f.audit,
	})
}

func (f *fixture) employeeService() *EmployeeService {
	return NewEmployeeService(EmployeeDependencies{
		EmployeeRepo:   f.repos.Employees,
		DepartmentRepo: f.repos.Departments,
		RoleRepo:       f.repos.Roles,
		DeploymentRepo: f.repos.Deployments,
		Audit:          f.audit,
	})
}

func TestBusinessUnitCreateAndUpdate(t *testing.T) {
	f := newFixture(t)
	svc := f.orgService()

	unit, err := svc.CreateBusinessUnit(f.ctx, f.scope, BusinessUnitInput{Name: " Europe ", Code: "eu"})
	require.NoError(t, err)
	assert.Equal(t, "EU", unit.Code)
	assert.Equal(t, "Europe", unit.Name)
	assert.True(t, unit.IsActive)

	_, err = svc.CreateBusinessUnit(f.ctx, f.scope, BusinessUnitInput{Name: "Dup", Code: "hq"})
	assert.Equal(t, apperrors.CodeConflict, errCode(err))

	_, err = svc.CreateBusinessUnit(f.ctx, f.scope, BusinessUnitInput{Name: "No code"})
	assert.Equal(t, apperrors.CodeValidation, errCode(err))

	inactive := false
	updated, err := svc.UpdateBusinessUnit(f.ctx, f.scope, unit.ID, BusinessUnitInput{Name: "Europe", Code: "EU", IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	units, err := svc.ListBusinessUnits(f.ctx)
	require.NoError(t, err)
	assert.Len(t, units, 2)

	_, err = svc.GetBusinessUnit(f.ctx, "missing")
	assert.Equal(t, apperrors.CodeNotFound, errCode(err))
}

func TestRoleValidationAndDeletion(t *testing.T) {
	f := newFixture(t)
	svc := f.orgService()

	_, err := svc.CreateRole(f.ctx, f.scope, RoleInput{Name: "Hacker", Permissions: []string{"root:all"}})
	assert.Equal(t, apperrors.CodeValidation, errCode(err))

	role, err := svc.CreateRole(f.ctx, f.scope, RoleInput{
		Name:        "Technician",
		Permissions: []string{"assets:read", " assets:read", "lifecycle:write"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"assets:read", "lifecycle:write"}, role.Permissions)

	emp, err := f.employeeService().Create(f.ctx, f.scope, EmployeeInput{EmployeeNumber: "E-1", FirstName: "Grace", RoleID: &role.ID})
	require.NoError(t, err)

	err = svc.DeleteRole(f.ctx, f.scope, role.ID)
	assert.Equal(t, apperrors.CodeConflict, errCode(err))

	require.NoError(t, f.employeeService().Delete(f.ctx, f.scope, emp.ID))
	require.NoError(t, svc.DeleteRole(f.ctx, f.scope, role.ID))

	other := f.addUnit(t, "EU")
	_, err = svc.GetRole(f.ctx, domain.Scope{BusinessUnitID: other.ID}, role.ID)
	assert.Equal(t, apperrors.CodeNotFound, errCode(err))
}

func TestOnlyUnrestrictedCallersGrantAllPermissions(t *testing.T) {
	f := newFixture(t)
	svc := f.orgService()
	users := f.userService()
	root := f.scope
	root.Unrestricted = true

	_, err := svc.CreateRole(f.ctx, f.scope, RoleInput{Name: "Root", Permissions: []string{"assets:read", " *"}})
	assert.Equal(t, apperrors.CodeForbidden, errCode(err))

	admin, err := svc.CreateRole(f.ctx, root, RoleInput{Name: "Root", Permissions: []string{"*"}})
	require.NoError(t, err)
	viewer, err := svc.CreateRole(f.ctx, f.scope, RoleInput{Name: "Viewer", Permissions: []string{"assets:read"}})
	require.NoError(t, err)

	_, err = svc.UpdateRole(f.ctx, f.scope, viewer.ID, RoleInput{Name: "Viewer", Permissions: []string{"*"}})
	assert.Equal(t, apperrors.CodeForbidden, errCode(err))
	_, err = svc.UpdateRole(f.ctx, f.scope, admin.ID, RoleInput{Name: "Root", Permissions: []string{"assets:read"}})
	assert.Equal(t, apperrors.CodeForbidden, errCode(err))
	_, err = svc.UpdateRole(f.ctx, f.scope, viewer.ID, RoleInput{Name: "Reader", Permissions: []string{"assets:read"}})
	require.NoError(t, err)

	_, err = users.Create(f.ctx, f.scope, UserInput{Name: "Eve", Email: "eve@example.com", Password: "long-enough", RoleID: &admin.ID})
	assert.Equal(t, apperrors.CodeForbidden, errCode(err))

	user, err := users.Create(f.ctx, f.scope, UserInput{Name: "Bob", Email: "bob@example.com", Password: "long-enough", RoleID: &viewer.ID})
	require.NoError(t, err)
	_, err = users.Update(f.ctx, f.scope, user.ID, UserInput{Name: "Bob", Email: "bob@example.com", RoleID: &admin.ID})
	assert.Equal(t, apperrors.CodeForbidden, errCode(err))

	promoted, err := users.Update(f.ctx, root, user.ID, UserInput{Name: "Bob", Email: "bob@example.com", RoleID: &admin.ID})
	require.NoError(t, err)
	require.NotNil(t, promoted.RoleID)
	assert.Equal(t, admin.ID, *promoted.RoleID)

	_, err = users.Update(f.ctx, f.scope, user.ID, UserInput{Name: "Bob", Email: "bob@example.com", RoleID: &viewer.ID})
	assert.Equal(t, apperrors.CodeForbidden, errCode(err))
}

func TestDepartmentManagerAndDeletion(t *testing.T) {
	f := newFixture(t)
	svc := f.orgService()
	manager := f.addEmployee(t, "E-1", domain.EmployeeStatusActive)

	_, err := svc.CreateDepartment(f.ctx, f.scope, DepartmentInput{Name: "IT", ManagerEmployeeID: strPtr("missing")})
	assert.Equal(t, apperrors.CodeNotFound, errCode(err))

	dept, err := svc.CreateDepartment(f.ctx, f.scope, DepartmentInput{Name: " IT ", ManagerEmployeeID: &manager.ID})
	require.NoError(t, err)
	assert.Equal(t, "IT", dept.Name)
	require.NotNil(t, dept.ManagerEmployeeID)

	asset, err := f.assetService().Create(f.ctx, f.scope, AssetInput{Name: "Switch", DepartmentID: &dept.ID})
	require.NoError(t, err)

	err = svc.DeleteDepartment(f.ctx, f.scope, dept.ID)
	assert.Equal(t, apperrors.CodeConflict, errCode(err))

	require.NoError(t, f.assetService().Delete(f.ctx, f.scope, asset.ID))
	require.NoError(t, svc.DeleteDepartment(f.ctx, f.scope, dept.ID))

	_, err = f.assetService().Create(f.ctx, f.scope, AssetInput{Name: "Router", DepartmentID: &dept.ID})
	assert.Equal(t, apperrors.CodeNotFound, errCode(err))
}

func TestEmployeeLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := f.employeeService()

	emp, err := svc.Create(f.ctx, f.scope, EmployeeInput{
		EmployeeNumber: " E-100 ",
		FirstName:      "Alan",
		LastName:       "Turing",
		Email:          "Alan@Example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "E-100", emp.EmployeeNumber)
	assert.Equal(t, "alan@example.com", emp.Email)
	assert.Equal(t, domain.EmployeeStatusActive, emp.Status)

	_, err = svc.Create(f.ctx, f.scope, EmployeeInput{EmployeeNumber: "E-100", FirstName: "Dup"})
	assert.Equal(t, apperrors.CodeConflict, errCode(err))

	_, err = svc.Create(f.ctx, f.scope, EmployeeInput{EmployeeNumber: "E-101", FirstName: "X", Status: "RETIRED"})
	assert.Equal(t, apperrors.CodeValidation, errCode(err))

	asset := f.addAsset(t, "Laptop", 1200)
	dep, err := f.deploymentService().Deploy(f.ctx, f.scope, DeployInput{AssetID: asset.ID, EmployeeID: emp.ID})
	require.NoError(t, err)

	err = svc.Delete(f.ctx, f.scope, emp.ID)
	assert.Equal(t, apperrors.CodeConflict, errCode(err))

	_, err = svc.Update(f.ctx, f.scope, emp.ID, EmployeeInput{EmployeeNumber: "E-100", FirstName: "Alan", Status: domain.EmployeeStatusTerminated})
	assert.Equal(t, apperrors.CodeConflict, errCode(err))

	history, err := svc.Deployments(f.ctx, f.scope, emp.ID, nil, Pagination{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, history.Total)

	_, err = f.deploymentService().Return(f.ctx, f.scope, dep.ID, ReturnInput{})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(f.ctx, f.scope, emp.ID))

	_, err = svc.Update(f.ctx, f.scope, emp.ID, EmployeeInput{EmployeeNumber: "E-100", FirstName: "Alan"})
	assert.Equal(t, apperrors.CodeNotFound, errCode(err))

	list, err := svc.List(f.ctx, f.scope, EmployeeListFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)

	restored, err := svc.Restore(f.ctx, f.scope, emp.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)

	_, err = svc.Restore(f.ctx, f.scope, emp.ID)
	assert.Equal(t, apperrors.CodeConflict, errCode(err))
}

func TestEmployeeListSearch(t *testing.T) {
	f := newFixture(t)
	svc := f.employeeService()
	_, err := svc.Create(f.ctx, f.scope, EmployeeInput{EmployeeNumber: "E-1", FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	_, err = svc.Create(f.ctx, f.scope, EmployeeInput{EmployeeNumber: "E-2", FirstName: "Charles", LastName: "Babbage"})
	require.NoError(t, err)

	search := "babb"
	list, err := svc.List(f.ctx, f.scope, EmployeeListFilter{Search: &search})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Charles", list.Items[0].FirstName)

	bad := domain.EmployeeStatus("GONE")
	_, err = svc.List(f.ctx, f.scope, EmployeeListFilter{Status: &bad})
	assert.Equal(t, apperrors.CodeValidation, errCode(err))
}

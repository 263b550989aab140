package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/repository"
)

type businessUnitRepo struct{ s *Store }

var _ repository.BusinessUnitRepository = (*businessUnitRepo)(nil)

func (r *businessUnitRepo) Create(_ context.Context, unit *domain.BusinessUnit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.units.rows {
		if strings.EqualFold(existing.Code, unit.Code) {
			return uniqueViolation("business_units_code_key")
		}
	}
	now := r.s.now()
	unit.ID = newID()
	unit.CreatedAt = now
	unit.UpdatedAt = now
	r.s.units.put(unit.ID, *unit)
	return nil
}

func (r *businessUnitRepo) Update(_ context.Context, unit *domain.BusinessUnit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.units.get(unit.ID)
	if !ok {
		return notFound()
	}
	for _, existing := range r.s.units.rows {
		if existing.ID != unit.ID && strings.EqualFold(existing.Code, unit.Code) {
			return uniqueViolation("business_units_code_key")
		}
	}
	unit.CreatedAt = current.CreatedAt
	unit.UpdatedAt = r.s.now()
	r.s.units.put(unit.ID, *unit)
	return nil
}

func (r *businessUnitRepo) GetByID(_ context.Context, id string) (*domain.BusinessUnit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	unit, ok := r.s.units.get(id)
	if !ok {
		return nil, notFound()
	}
	return &unit, nil
}

func (r *businessUnitRepo) List(_ context.Context) ([]domain.BusinessUnit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := r.s.units.all()
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}

type roleRepo struct{ s *Store }

var _ repository.RoleRepository = (*roleRepo)(nil)

func (r *roleRepo) Create(_ context.Context, role *domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.roles.rows {
		if !existing.IsDeleted && existing.BusinessUnitID == role.BusinessUnitID && strings.EqualFold(existing.Name, role.Name) {
			return uniqueViolation("roles_unit_name_uq")
		}
	}
	now := r.s.now()
	role.ID = newID()
	role.CreatedAt = now
	role.UpdatedAt = now
	r.s.roles.put(role.ID, cloneRole(*role))
	return nil
}

func (r *roleRepo) Update(_ context.Context, role *domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.roles.get(role.ID)
	if !ok || current.IsDeleted || current.BusinessUnitID != role.BusinessUnitID {
		return notFound()
	}
	role.CreatedAt = current.CreatedAt
	role.UpdatedAt = r.s.now()
	r.s.roles.put(role.ID, cloneRole(*role))
	return nil
}

func (r *roleRepo) GetByID(_ context.Context, businessUnitID, id string) (*domain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	role, ok := r.s.roles.get(id)
	if !ok || role.IsDeleted || role.BusinessUnitID != businessUnitID {
		return nil, notFound()
	}
	out := cloneRole(role)
	return &out, nil
}

func (r *roleRepo) FindByID(_ context.Context, id string) (*domain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	role, ok := r.s.roles.get(id)
	if !ok || role.IsDeleted {
		return nil, notFound()
	}
	out := cloneRole(role)
	return &out, nil
}

func (r *roleRepo) List(_ context.Context, businessUnitID string) ([]domain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.s.roles.all(), func(role domain.Role) bool {
		return role.BusinessUnitID == businessUnitID && !role.IsDeleted
	})
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	for i := range rows {
		rows[i] = cloneRole(rows[i])
	}
	return rows, nil
}

func (r *roleRepo) SoftDelete(_ context.Context, businessUnitID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role, ok := r.s.roles.get(id)
	if !ok || role.IsDeleted || role.BusinessUnitID != businessUnitID {
		return notFound()
	}
	role.IsDeleted = true
	role.UpdatedAt = r.s.now()
	r.s.roles.put(id, role)
	return nil
}

func (r *roleRepo) CountAssignments(_ context.Context, id string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var count int64
	for _, u := range r.s.users.rows {
		if u.IsActive && u.RoleID != nil && *u.RoleID == id {
			count++
		}
	}
	for _, e := range r.s.employees.rows {
		if !e.IsDeleted && e.RoleID != nil && *e.RoleID == id {
			count++
		}
	}
	return count, nil
}

func cloneRole(role domain.Role) domain.Role {
	role.Permissions = append([]string(nil), role.Permissions...)
	return role
}

type departmentRepo struct{ s *Store }

var _ repository.DepartmentRepository = (*departmentRepo)(nil)

func (r *departmentRepo) Create(_ context.Context, dept *domain.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.departments.rows {
		if !existing.IsDeleted && existing.BusinessUnitID == dept.BusinessUnitID && strings.EqualFold(existing.Name, dept.Name) {
			return uniqueViolation("departments_unit_name_uq")
		}
	}
	now := r.s.now()
	dept.ID = newID()
	dept.CreatedAt = now
	dept.UpdatedAt = now
	r.s.departments.put(dept.ID, *dept)
	return nil
}

func (r *departmentRepo) Update(_ context.Context, dept *domain.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.departments.get(dept.ID)
	if !ok || current.IsDeleted || current.BusinessUnitID != dept.BusinessUnitID {
		return notFound()
	}
	dept.CreatedAt = current.CreatedAt
	dept.UpdatedAt = r.s.now()
	r.s.departments.put(dept.ID, *dept)
	return nil
}

func (r *departmentRepo) GetByID(_ context.Context, businessUnitID, id string) (*domain.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	dept, ok := r.s.departments.get(id)
	if !ok || dept.IsDeleted || dept.BusinessUnitID != businessUnitID {
		return nil, notFound()
	}
	return &dept, nil
}

func (r *departmentRepo) List(_ context.Context, businessUnitID string) ([]domain.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.s.departments.all(), func(d domain.Department) bool {
		return d.BusinessUnitID == businessUnitID && !d.IsDeleted
	})
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}

func (r *departmentRepo) SoftDelete(_ context.Context, businessUnitID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	dept, ok := r.s.departments.get(id)
	if !ok || dept.IsDeleted || dept.BusinessUnitID != businessUnitID {
		return notFound()
	}
	dept.IsDeleted = true
	dept.UpdatedAt = r.s.now()
	r.s.departments.put(id, dept)
	return nil
}

func (r *departmentRepo) CountMembers(_ context.Context, id string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var count int64
	for _, e := range r.s.employees.rows {
		if !e.IsDeleted && e.DepartmentID != nil && *e.DepartmentID == id {
			count++
		}
	}
	for _, a := range r.s.assets.rows {
		if !a.IsDeleted && a.DepartmentID != nil && *a.DepartmentID == id {
			count++
		}
	}
	return count, nil
}

type employeeRepo struct{ s *Store }

var _ repository.EmployeeRepository = (*employeeRepo)(nil)

func (r *employeeRepo) Create(_ context.Context, emp *domain.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.employees.rows {
		if existing.BusinessUnitID == emp.BusinessUnitID && existing.EmployeeNumber == emp.EmployeeNumber {
			return uniqueViolation("employees_unit_number_uq")
		}
	}
	now := r.s.now()
	emp.ID = newID()
	emp.CreatedAt = now
	emp.UpdatedAt = now
	r.s.employees.put(emp.ID, *emp)
	return nil
}

func (r *employeeRepo) Update(_ context.Context, emp *domain.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.employees.get(emp.ID)
	if !ok || current.BusinessUnitID != emp.BusinessUnitID {
		return notFound()
	}
	for _, existing := range r.s.employees.rows {
		if existing.ID != emp.ID && existing.BusinessUnitID == emp.BusinessUnitID && existing.EmployeeNumber == emp.EmployeeNumber {
			return uniqueViolation("employees_unit_number_uq")
		}
	}
	emp.IsDeleted = current.IsDeleted
	emp.DeletedAt = current.DeletedAt
	emp.CreatedAt = current.CreatedAt
	emp.UpdatedAt = r.s.now()
	r.s.employees.put(emp.ID, *emp)
	return nil
}

func (r *employeeRepo) GetByID(_ context.Context, businessUnitID, id string) (*domain.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	emp, ok := r.s.employees.get(id)
	if !ok || emp.BusinessUnitID != businessUnitID {
		return nil, notFound()
	}
	return &emp, nil
}

func (r *employeeRepo) List(_ context.Context, f repository.EmployeeFilter) ([]domain.Employee, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.s.employees.all(), func(e domain.Employee) bool {
		if e.BusinessUnitID != f.BusinessUnitID || (e.IsDeleted && !f.IncludeDeleted) {
			return false
		}
		if f.DepartmentID != nil && (e.DepartmentID == nil || *e.DepartmentID != *f.DepartmentID) {
			return false
		}
		if f.Status != nil && e.Status != *f.Status {
			return false
		}
		if f.Search != nil && strings.TrimSpace(*f.Search) != "" {
			return matchesAny(*f.Search, e.FirstName+" "+e.LastName, e.Email, e.EmployeeNumber)
		}
		return true
	})
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].LastName != rows[j].LastName {
			return rows[i].LastName < rows[j].LastName
		}
		return rows[i].FirstName < rows[j].FirstName
	})
	items, total := paginate(rows, f.Page)
	return items, total, nil
}

func (r *employeeRepo) SoftDelete(_ context.Context, businessUnitID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	emp, ok := r.s.employees.get(id)
	if !ok || emp.BusinessUnitID != businessUnitID || emp.IsDeleted {
		return notFound()
	}
	now := r.s.now()
	emp.IsDeleted = true
	emp.DeletedAt = &now
	emp.UpdatedAt = now
	r.s.employees.put(id, emp)
	return nil
}

func (r *employeeRepo) Restore(_ context.Context, businessUnitID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	emp, ok := r.s.employees.get(id)
	if !ok || emp.BusinessUnitID != businessUnitID || !emp.IsDeleted {
		return notFound()
	}
	emp.IsDeleted = false
	emp.DeletedAt = nil
	emp.UpdatedAt = r.s.now()
	r.s.employees.put(id, emp)
	return nil
}

type userRepo struct{ s *Store }

var _ repository.UserRepository = (*userRepo)(nil)

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users.rows {
		if strings.EqualFold(existing.Email, user.Email) {
			return uniqueViolation("users_email_uq")
		}
	}
	now := r.s.now()
	user.ID = newID()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users.put(user.ID, *user)
	return nil
}

func (r *userRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.users.get(user.ID)
	if !ok {
		return notFound()
	}
	for _, existing := range r.s.users.rows {
		if existing.ID != user.ID && strings.EqualFold(existing.Email, user.Email) {
			return uniqueViolation("users_email_uq")
		}
	}
	current.RoleID = user.RoleID
	current.Name = user.Name
	current.Email = user.Email
	current.IsActive = user.IsActive
	current.UpdatedAt = r.s.now()
	user.UpdatedAt = current.UpdatedAt
	r.s.users.put(user.ID, current)
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users.get(id)
	if !ok {
		return nil, notFound()
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, user := range r.s.users.rows {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}
	return nil, notFound()
}

func (r *userRepo) List(_ context.Context, businessUnitID string) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.s.users.all(), func(u domain.User) bool { return u.BusinessUnitID == businessUnitID })
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}

func (r *userRepo) UpdatePassword(_ context.Context, id, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users.get(id)
	if !ok {
		return notFound()
	}
	user.PasswordHash = hash
	user.UpdatedAt = r.s.now()
	r.s.users.put(id, user)
	return nil
}

func (r *userRepo) TouchLogin(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users.get(id)
	if !ok {
		return notFound()
	}
	now := r.s.now()
	user.LastLoginAt = &now
	r.s.users.put(id, user)
	return nil
}

func (r *userRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.users.rows)), nil
}

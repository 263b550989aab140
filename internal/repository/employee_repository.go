package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/persistence"
)

// EmployeeFilter narrows employee listings.
type EmployeeFilter struct {
	BusinessUnitID string
	DepartmentID   *string
	Status         *domain.EmployeeStatus
	Search         *string
	IncludeDeleted bool
	Page
}

// EmployeeRepository manages employees.
type EmployeeRepository interface {
	Create(ctx context.Context, emp *domain.Employee) error
	Update(ctx context.Context, emp *domain.Employee) error
	GetByID(ctx context.Context, businessUnitID, id string) (*domain.Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, int64, error)
	SoftDelete(ctx context.Context, businessUnitID, id string) error
	Restore(ctx context.Context, businessUnitID, id string) error
}

type employeeRepository struct {
	base
}

// NewEmployeeRepository builds the repository.
func NewEmployeeRepository(db persistence.DB) EmployeeRepository {
	return &employeeRepository{base{db: db}}
}

const employeeColumns = `id, business_unit_id, department_id, role_id, employee_number, first_name, last_name,
               email, phone, position, hire_date, status, is_deleted, deleted_at, created_at, updated_at`

func (r *employeeRepository) Create(ctx context.Context, emp *domain.Employee) error {
	const query = `
        INSERT INTO employees (business_unit_id, department_id, role_id, employee_number, first_name, last_name,
            email, phone, position, hire_date, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.conn(ctx).QueryRow(ctx, query,
		emp.BusinessUnitID,
		emp.DepartmentID,
		emp.RoleID,
		emp.EmployeeNumber,
		emp.FirstName,
		emp.LastName,
		emp.Email,
		emp.Phone,
		emp.Position,
		emp.HireDate,
		emp.Status,
	).Scan(&emp.ID, &emp.CreatedAt, &emp.UpdatedAt)
}

func (r *employeeRepository) Update(ctx context.Context, emp *domain.Employee) error {
	const query = `
        UPDATE employees SET department_id=$1, role_id=$2, employee_number=$3, first_name=$4, last_name=$5,
            email=$6, phone=$7, position=$8, hire_date=$9, status=$10, updated_at=NOW()
        WHERE id=$11 AND business_unit_id=$12
        RETURNING updated_at`
	return r.conn(ctx).QueryRow(ctx, query,
		emp.DepartmentID,
		emp.RoleID,
		emp.EmployeeNumber,
		emp.FirstName,
		emp.LastName,
		emp.Email,
		emp.Phone,
		emp.Position,
		emp.HireDate,
		emp.Status,
		emp.ID,
		emp.BusinessUnitID,
	).Scan(&emp.UpdatedAt)
}

func (r *employeeRepository) GetByID(ctx context.Context, businessUnitID, id string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id=$1 AND business_unit_id=$2`
	return scanEmployee(r.conn(ctx).QueryRow(ctx, query, id, businessUnitID))
}

func (r *employeeRepository) List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, int64, error) {
	w := newWhere()
	w.add("business_unit_id=$%d", filter.BusinessUnitID)
	if !filter.IncludeDeleted {
		w.clauses = append(w.clauses, "is_deleted = FALSE")
	}
	if filter.DepartmentID != nil {
		w.add("department_id=$%d", *filter.DepartmentID)
	}
	if filter.Status != nil {
		w.add("status=$%d", *filter.Status)
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		w.add("(LOWER(first_name || ' ' || last_name) LIKE $%[1]d OR LOWER(email) LIKE $%[1]d OR LOWER(employee_number) LIKE $%[1]d)",
			likePattern(*filter.Search))
	}

	query := `SELECT ` + employeeColumns + `, COUNT(*) OVER() FROM employees WHERE ` + w.sql() +
		` ORDER BY last_name, first_name` + filter.Page.sql()
	rows, err := r.conn(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectCounted(rows, scanEmployee)
}

func (r *employeeRepository) SoftDelete(ctx context.Context, businessUnitID, id string) error {
	const query = `
        UPDATE employees SET is_deleted = TRUE, deleted_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND business_unit_id=$2 AND is_deleted = FALSE`
	return execOne(ctx, r.conn(ctx), query, id, businessUnitID)
}

func (r *employeeRepository) Restore(ctx context.Context, businessUnitID, id string) error {
	const query = `
        UPDATE employees SET is_deleted = FALSE, deleted_at=NULL, updated_at=NOW()
        WHERE id=$1 AND business_unit_id=$2 AND is_deleted = TRUE`
	return execOne(ctx, r.conn(ctx), query, id, businessUnitID)
}

func scanEmployee(row rowScanner, extra ...any) (*domain.Employee, error) {
	var emp domain.Employee
	dest := []any{
		&emp.ID,
		&emp.BusinessUnitID,
		&emp.DepartmentID,
		&emp.RoleID,
		&emp.EmployeeNumber,
		&emp.FirstName,
		&emp.LastName,
		&emp.Email,
		&emp.Phone,
		&emp.Position,
		&emp.HireDate,
		&emp.Status,
		&emp.IsDeleted,
		&emp.DeletedAt,
		&emp.CreatedAt,
		&emp.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &emp, nil
}

// execOne runs a statement that must touch exactly one live row.
func execOne(ctx context.Context, q persistence.Querier, query string, args ...any) error {
	cmd, err := q.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/persistence"
)

// DepartmentRepository manages department persistence.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	Update(ctx context.Context, dept *domain.Department) error
	GetByID(ctx context.Context, businessUnitID, id string) (*domain.Department, error)
	List(ctx context.Context, businessUnitID string) ([]domain.Department, error)
	SoftDelete(ctx context.Context, businessUnitID, id string) error
	CountMembers(ctx context.Context, id string) (int64, error)
}

type departmentRepository struct {
	base
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(db persistence.DB) DepartmentRepository {
	return &departmentRepository{base{db: db}}
}

const departmentColumns = `id, business_unit_id, name, description, manager_employee_id, is_deleted, created_at, updated_at`

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	const query = `
        INSERT INTO departments (business_unit_id, name, description, manager_employee_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.conn(ctx).QueryRow(ctx, query,
		dept.BusinessUnitID,
		dept.Name,
		dept.Description,
		dept.ManagerEmployeeID,
	).Scan(&dept.ID, &dept.CreatedAt, &dept.UpdatedAt)
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	const query = `
        UPDATE departments SET name=$1, description=$2, manager_employee_id=$3, updated_at=NOW()
        WHERE id=$4 AND business_unit_id=$5 AND is_deleted = FALSE`
	cmd, err := r.conn(ctx).Exec(ctx, query,
		dept.Name,
		dept.Description,
		dept.ManagerEmployeeID,
		dept.ID,
		dept.BusinessUnitID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *departmentRepository) GetByID(ctx context.Context, businessUnitID, id string) (*domain.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE id=$1 AND business_unit_id=$2 AND is_deleted = FALSE`
	return scanDepartment(r.conn(ctx).QueryRow(ctx, query, id, businessUnitID))
}

func (r *departmentRepository) List(ctx context.Context, businessUnitID string) ([]domain.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE business_unit_id=$1 AND is_deleted = FALSE ORDER BY name`
	rows, err := r.conn(ctx).Query(ctx, query, businessUnitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, scanDepartment)
}

func (r *departmentRepository) SoftDelete(ctx context.Context, businessUnitID, id string) error {
	const query = `
        UPDATE departments SET is_deleted = TRUE, updated_at=NOW()
        WHERE id=$1 AND business_unit_id=$2 AND is_deleted = FALSE`
	cmd, err := r.conn(ctx).Exec(ctx, query, id, businessUnitID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CountMembers counts live employees and assets still assigned to the department.
func (r *departmentRepository) CountMembers(ctx context.Context, id string) (int64, error) {
	const query = `
        SELECT (SELECT COUNT(*) FROM employees WHERE department_id=$1 AND is_deleted = FALSE)
             + (SELECT COUNT(*) FROM assets WHERE department_id=$1 AND is_deleted = FALSE)`
	var count int64
	err := r.conn(ctx).QueryRow(ctx, query, id).Scan(&count)
	return count, err
}

func scanDepartment(row rowScanner, extra ...any) (*domain.Department, error) {
	var dept domain.Department
	dest := []any{
		&dept.ID,
		&dept.BusinessUnitID,
		&dept.Name,
		&dept.Description,
		&dept.ManagerEmployeeID,
		&dept.IsDeleted,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &dept, nil
}

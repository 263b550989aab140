package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/persistence"
)

// RoleRepository manages roles within a business unit.
type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) error
	Update(ctx context.Context, role *domain.Role) error
	GetByID(ctx context.Context, businessUnitID, id string) (*domain.Role, error)
	// FindByID looks a role up without tenant scoping; used when resolving a signed-in user's grants.
	FindByID(ctx context.Context, id string) (*domain.Role, error)
	List(ctx context.Context, businessUnitID string) ([]domain.Role, error)
	SoftDelete(ctx context.Context, businessUnitID, id string) error
	CountAssignments(ctx context.Context, id string) (int64, error)
}

type roleRepository struct {
	base
}

// NewRoleRepository builds the repository.
func NewRoleRepository(db persistence.DB) RoleRepository {
	return &roleRepository{base{db: db}}
}

const roleColumns = `id, business_unit_id, name, description, permissions, is_deleted, created_at, updated_at`

func (r *roleRepository) Create(ctx context.Context, role *domain.Role) error {
	const query = `
        INSERT INTO roles (business_unit_id, name, description, permissions)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	if role.Permissions == nil {
		role.Permissions = []string{}
	}
	return r.conn(ctx).QueryRow(ctx, query,
		role.BusinessUnitID,
		role.Name,
		role.Description,
		role.Permissions,
	).Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt)
}

func (r *roleRepository) Update(ctx context.Context, role *domain.Role) error {
	const query = `
        UPDATE roles SET name=$1, description=$2, permissions=$3, updated_at=NOW()
        WHERE id=$4 AND business_unit_id=$5 AND is_deleted = FALSE
        RETURNING updated_at`
	if role.Permissions == nil {
		role.Permissions = []string{}
	}
	return r.conn(ctx).QueryRow(ctx, query,
		role.Name,
		role.Description,
		role.Permissions,
		role.ID,
		role.BusinessUnitID,
	).Scan(&role.UpdatedAt)
}

func (r *roleRepository) GetByID(ctx context.Context, businessUnitID, id string) (*domain.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE id=$1 AND business_unit_id=$2 AND is_deleted = FALSE`
	return scanRole(r.conn(ctx).QueryRow(ctx, query, id, businessUnitID))
}

func (r *roleRepository) FindByID(ctx context.Context, id string) (*domain.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE id=$1 AND is_deleted = FALSE`
	return scanRole(r.conn(ctx).QueryRow(ctx, query, id))
}

func (r *roleRepository) List(ctx context.Context, businessUnitID string) ([]domain.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE business_unit_id=$1 AND is_deleted = FALSE ORDER BY name`
	rows, err := r.conn(ctx).Query(ctx, query, businessUnitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, scanRole)
}

func (r *roleRepository) SoftDelete(ctx context.Context, businessUnitID, id string) error {
	const query = `
        UPDATE roles SET is_deleted = TRUE, updated_at=NOW()
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

func (r *roleRepository) CountAssignments(ctx context.Context, id string) (int64, error) {
	const query = `
        SELECT (SELECT COUNT(*) FROM users WHERE role_id=$1 AND is_active = TRUE)
             + (SELECT COUNT(*) FROM employees WHERE role_id=$1 AND is_deleted = FALSE)`
	var count int64
	err := r.conn(ctx).QueryRow(ctx, query, id).Scan(&count)
	return count, err
}

func scanRole(row rowScanner, extra ...any) (*domain.Role, error) {
	var role domain.Role
	dest := []any{
		&role.ID,
		&role.BusinessUnitID,
		&role.Name,
		&role.Description,
		&role.Permissions,
		&role.IsDeleted,
		&role.CreatedAt,
		&role.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &role, nil
}

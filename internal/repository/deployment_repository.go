package repository

import (
	"context"
	"time"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/persistence"
)

// DeploymentFilter narrows deployment listings.
type DeploymentFilter struct {
	BusinessUnitID string
	AssetID        *string
	EmployeeID     *string
	Status         *domain.DeploymentStatus
	// OverdueAt keeps only active deployments whose expected return date is before the given instant.
	OverdueAt *time.Time
	Page
}

// DeploymentRepository persists asset deployments.
type DeploymentRepository interface {
	Create(ctx context.Context, dep *domain.AssetDeployment) error
	Update(ctx context.Context, dep *domain.AssetDeployment) error
	GetByID(ctx context.Context, businessUnitID, id string) (*domain.AssetDeployment, error)
	GetActiveByAsset(ctx context.Context, assetID string) (*domain.AssetDeployment, error)
	List(ctx context.Context, filter DeploymentFilter) ([]domain.AssetDeployment, int64, error)
	CountActiveByEmployee(ctx context.Context, employeeID string) (int64, error)
	// ListOverdue scans every business unit for active deployments past their expected return date.
	ListOverdue(ctx context.Context, asOf time.Time) ([]domain.AssetDeployment, error)
}

type deploymentRepository struct {
	base
}

// NewDeploymentRepository builds the repository.
func NewDeploymentRepository(db persistence.DB) DeploymentRepository {
	return &deploymentRepository{base{db: db}}
}

const deploymentColumns = `id, business_unit_id, asset_id, employee_id, deployed_by, deployed_at, expected_return_date,
               returned_at, return_condition, status, notes, created_at, updated_at`

func (r *deploymentRepository) Create(ctx context.Context, dep *domain.AssetDeployment) error {
	const query = `
        INSERT INTO asset_deployments (business_unit_id, asset_id, employee_id, deployed_by, deployed_at,
            expected_return_date, status, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.conn(ctx).QueryRow(ctx, query,
		dep.BusinessUnitID,
		dep.AssetID,
		dep.EmployeeID,
		dep.DeployedBy,
		dep.DeployedAt,
		dep.ExpectedReturnDate,
		dep.Status,
		dep.Notes,
	).Scan(&dep.ID, &dep.CreatedAt, &dep.UpdatedAt)
}

func (r *deploymentRepository) Update(ctx context.Context, dep *domain.AssetDeployment) error {
	const query = `
        UPDATE asset_deployments SET expected_return_date=$1, returned_at=$2, return_condition=$3, status=$4,
            notes=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`
	return r.conn(ctx).QueryRow(ctx, query,
		dep.ExpectedReturnDate,
		dep.ReturnedAt,
		dep.ReturnCondition,
		dep.Status,
		dep.Notes,
		dep.ID,
	).Scan(&dep.UpdatedAt)
}

func (r *deploymentRepository) GetByID(ctx context.Context, businessUnitID, id string) (*domain.AssetDeployment, error) {
	query := `SELECT ` + deploymentColumns + ` FROM asset_deployments WHERE id=$1 AND business_unit_id=$2`
	return scanDeployment(r.conn(ctx).QueryRow(ctx, query, id, businessUnitID))
}

func (r *deploymentRepository) GetActiveByAsset(ctx context.Context, assetID string) (*domain.AssetDeployment, error) {
	query := `SELECT ` + deploymentColumns + ` FROM asset_deployments WHERE asset_id=$1 AND status='ACTIVE'`
	return scanDeployment(r.conn(ctx).QueryRow(ctx, query, assetID))
}

func (r *deploymentRepository) List(ctx context.Context, filter DeploymentFilter) ([]domain.AssetDeployment, int64, error) {
	w := newWhere()
	w.add("business_unit_id=$%d", filter.BusinessUnitID)
	if filter.AssetID != nil {
		w.add("asset_id=$%d", *filter.AssetID)
	}
	if filter.EmployeeID != nil {
		w.add("employee_id=$%d", *filter.EmployeeID)
	}
	if filter.Status != nil {
		w.add("status=$%d", *filter.Status)
	}
	if filter.OverdueAt != nil {
		w.clauses = append(w.clauses, "status='ACTIVE'", "expected_return_date IS NOT NULL")
		w.add("expected_return_date < $%d", *filter.OverdueAt)
	}

	query := `SELECT ` + deploymentColumns + `, COUNT(*) OVER() FROM asset_deployments WHERE ` + w.sql() +
		` ORDER BY deployed_at DESC` + filter.Page.sql()
	rows, err := r.conn(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectCounted(rows, scanDeployment)
}

func (r *deploymentRepository) CountActiveByEmployee(ctx context.Context, employeeID string) (int64, error) {
	var count int64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM asset_deployments WHERE employee_id=$1 AND status='ACTIVE'`, employeeID,
	).Scan(&count)
	return count, err
}

func (r *deploymentRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]domain.AssetDeployment, error) {
	query := `SELECT ` + deploymentColumns + ` FROM asset_deployments
        WHERE status='ACTIVE' AND expected_return_date IS NOT NULL AND expected_return_date < $1
        ORDER BY expected_return_date`
	rows, err := r.conn(ctx).Query(ctx, query, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, scanDeployment)
}

func scanDeployment(row rowScanner, extra ...any) (*domain.AssetDeployment, error) {
	var dep domain.AssetDeployment
	dest := []any{
		&dep.ID,
		&dep.BusinessUnitID,
		&dep.AssetID,
		&dep.EmployeeID,
		&dep.DeployedBy,
		&dep.DeployedAt,
		&dep.ExpectedReturnDate,
		&dep.ReturnedAt,
		&dep.ReturnCondition,
		&dep.Status,
		&dep.Notes,
		&dep.CreatedAt,
		&dep.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &dep, nil
}

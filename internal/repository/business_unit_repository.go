package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/persistence"
)

// BusinessUnitRepository manages tenant partitions.
type BusinessUnitRepository interface {
	Create(ctx context.Context, unit *domain.BusinessUnit) error
	Update(ctx context.Context, unit *domain.BusinessUnit) error
	GetByID(ctx context.Context, id string) (*domain.BusinessUnit, error)
	List(ctx context.Context) ([]domain.BusinessUnit, error)
}

type businessUnitRepository struct {
	base
}

// NewBusinessUnitRepository builds the repository.
func NewBusinessUnitRepository(db persistence.DB) BusinessUnitRepository {
	return &businessUnitRepository{base{db: db}}
}

const businessUnitColumns = `id, name, code, description, is_active, created_at, updated_at`

func (r *businessUnitRepository) Create(ctx context.Context, unit *domain.BusinessUnit) error {
	const query = `
        INSERT INTO business_units (name, code, description, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.conn(ctx).QueryRow(ctx, query,
		unit.Name,
		unit.Code,
		unit.Description,
		unit.IsActive,
	).Scan(&unit.ID, &unit.CreatedAt, &unit.UpdatedAt)
}

func (r *businessUnitRepository) Update(ctx context.Context, unit *domain.BusinessUnit) error {
	const query = `
        UPDATE business_units SET name=$1, code=$2, description=$3, is_active=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	return r.conn(ctx).QueryRow(ctx, query,
		unit.Name,
		unit.Code,
		unit.Description,
		unit.IsActive,
		unit.ID,
	).Scan(&unit.UpdatedAt)
}

func (r *businessUnitRepository) GetByID(ctx context.Context, id string) (*domain.BusinessUnit, error) {
	query := `SELECT ` + businessUnitColumns + ` FROM business_units WHERE id=$1`
	return scanBusinessUnit(r.conn(ctx).QueryRow(ctx, query, id))
}

func (r *businessUnitRepository) List(ctx context.Context) ([]domain.BusinessUnit, error) {
	query := `SELECT ` + businessUnitColumns + ` FROM business_units ORDER BY name`
	rows, err := r.conn(ctx).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, scanBusinessUnit)
}

func scanBusinessUnit(row rowScanner, extra ...any) (*domain.BusinessUnit, error) {
	var unit domain.BusinessUnit
	dest := []any{
		&unit.ID,
		&unit.Name,
		&unit.Code,
		&unit.Description,
		&unit.IsActive,
		&unit.CreatedAt,
		&unit.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &unit, nil
}

// collect drains rows through scan.
func collect[T any](rows pgx.Rows, scan func(rowScanner, ...any) (*T, error)) ([]T, error) {
	result := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	return result, rows.Err()
}

// collectCounted drains rows whose last column is COUNT(*) OVER().
func collectCounted[T any](rows pgx.Rows, scan func(rowScanner, ...any) (*T, error)) ([]T, int64, error) {
	result := []T{}
	var total int64
	for rows.Next() {
		item, err := scan(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *item)
	}
	return result, total, rows.Err()
}

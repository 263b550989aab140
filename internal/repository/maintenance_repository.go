package repository

import (
	"context"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/persistence"
)

// MaintenanceFilter narrows maintenance listings.
type MaintenanceFilter struct {
	BusinessUnitID string
	AssetID        *string
	Status         *domain.MaintenanceStatus
	Type           *domain.MaintenanceType
	Page
}

// MaintenanceRepository persists maintenance records.
type MaintenanceRepository interface {
	Create(ctx context.Context, m *domain.AssetMaintenance) error
	Update(ctx context.Context, m *domain.AssetMaintenance) error
	GetByID(ctx context.Context, businessUnitID, id string) (*domain.AssetMaintenance, error)
	List(ctx context.Context, filter MaintenanceFilter) ([]domain.AssetMaintenance, int64, error)
	// CancelOpenForAsset cancels scheduled or running work for an asset leaving service and returns how many rows changed.
	CancelOpenForAsset(ctx context.Context, assetID string) (int64, error)
}

type maintenanceRepository struct {
	base
}

// NewMaintenanceRepository builds the repository.
func NewMaintenanceRepository(db persistence.DB) MaintenanceRepository {
	return &maintenanceRepository{base{db: db}}
}

const maintenanceColumns = `id, business_unit_id, asset_id, maintenance_type, status, scheduled_date, started_at, completed_at,
               cost, vendor, description, performed_by, created_by, created_at, updated_at`

func (r *maintenanceRepository) Create(ctx context.Context, m *domain.AssetMaintenance) error {
	const query = `
        INSERT INTO asset_maintenance (business_unit_id, asset_id, maintenance_type, status, scheduled_date, cost,
            vendor, description, performed_by, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.conn(ctx).QueryRow(ctx, query,
		m.BusinessUnitID,
		m.AssetID,
		m.MaintenanceType,
		m.Status,
		m.ScheduledDate,
		m.Cost,
		m.Vendor,
		m.Description,
		m.PerformedBy,
		m.CreatedBy,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (r *maintenanceRepository) Update(ctx context.Context, m *domain.AssetMaintenance) error {
	const query = `
        UPDATE asset_maintenance SET status=$1, scheduled_date=$2, started_at=$3, completed_at=$4, cost=$5,
            vendor=$6, description=$7, performed_by=$8, updated_at=NOW()
        WHERE id=$9
        RETURNING updated_at`
	return r.conn(ctx).QueryRow(ctx, query,
		m.Status,
		m.ScheduledDate,
		m.StartedAt,
		m.CompletedAt,
		m.Cost,
		m.Vendor,
		m.Description,
		m.PerformedBy,
		m.ID,
	).Scan(&m.UpdatedAt)
}

func (r *maintenanceRepository) GetByID(ctx context.Context, businessUnitID, id string) (*domain.AssetMaintenance, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM asset_maintenance WHERE id=$1 AND business_unit_id=$2`
	return scanMaintenance(r.conn(ctx).QueryRow(ctx, query, id, businessUnitID))
}

func (r *maintenanceRepository) List(ctx context.Context, filter MaintenanceFilter) ([]domain.AssetMaintenance, int64, error) {
	w := newWhere()
	w.add("business_unit_id=$%d", filter.BusinessUnitID)
	if filter.AssetID != nil {
		w.add("asset_id=$%d", *filter.AssetID)
	}
	if filter.Status != nil {
		w.add("status=$%d", *filter.Status)
	}
	if filter.Type != nil {
		w.add("maintenance_type=$%d", *filter.Type)
	}
	query := `SELECT ` + maintenanceColumns + `, COUNT(*) OVER() FROM asset_maintenance WHERE ` + w.sql() +
		` ORDER BY scheduled_date DESC, created_at DESC` + filter.Page.sql()
	rows, err := r.conn(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectCounted(rows, scanMaintenance)
}

func (r *maintenanceRepository) CancelOpenForAsset(ctx context.Context, assetID string) (int64, error) {
	cmd, err := r.conn(ctx).Exec(ctx, `
        UPDATE asset_maintenance SET status='CANCELLED', updated_at=NOW()
        WHERE asset_id=$1 AND status IN ('SCHEDULED','IN_PROGRESS')`, assetID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanMaintenance(row rowScanner, extra ...any) (*domain.AssetMaintenance, error) {
	var m domain.AssetMaintenance
	dest := []any{
		&m.ID,
		&m.BusinessUnitID,
		&m.AssetID,
		&m.MaintenanceType,
		&m.Status,
		&m.ScheduledDate,
		&m.StartedAt,
		&m.CompletedAt,
		&m.Cost,
		&m.Vendor,
		&m.Description,
		&m.PerformedBy,
		&m.CreatedBy,
		&m.CreatedAt,
		&m.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &m, nil
}

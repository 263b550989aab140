package repository

import (
	"context"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/persistence"
)

// TransferFilter narrows transfer listings.
type TransferFilter struct {
	BusinessUnitID string
	AssetID        *string
	Status         *domain.TransferStatus
	Page
}

// TransferRepository persists asset transfers.
type TransferRepository interface {
	Create(ctx context.Context, tr *domain.AssetTransfer) error
	Update(ctx context.Context, tr *domain.AssetTransfer) error
	GetByID(ctx context.Context, businessUnitID, id string) (*domain.AssetTransfer, error)
	List(ctx context.Context, filter TransferFilter) ([]domain.AssetTransfer, int64, error)
	HasPending(ctx context.Context, assetID string) (bool, error)
}

type transferRepository struct {
	base
}

// NewTransferRepository builds the repository.
func NewTransferRepository(db persistence.DB) TransferRepository {
	return &transferRepository{base{db: db}}
}

const transferColumns = `id, business_unit_id, asset_id, from_department_id, to_department_id, from_location, to_location,
               to_business_unit_id, status, reason, requested_by, completed_by, transfer_date, notes, created_at, updated_at`

func (r *transferRepository) Create(ctx context.Context, tr *domain.AssetTransfer) error {
	const query = `
        INSERT INTO asset_transfers (business_unit_id, asset_id, from_department_id, to_department_id, from_location,
            to_location, to_business_unit_id, status, reason, requested_by, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.conn(ctx).QueryRow(ctx, query,
		tr.BusinessUnitID,
		tr.AssetID,
		tr.FromDepartmentID,
		tr.ToDepartmentID,
		tr.FromLocation,
		tr.ToLocation,
		tr.ToBusinessUnitID,
		tr.Status,
		tr.Reason,
		tr.RequestedBy,
		tr.Notes,
	).Scan(&tr.ID, &tr.CreatedAt, &tr.UpdatedAt)
}

func (r *transferRepository) Update(ctx context.Context, tr *domain.AssetTransfer) error {
	const query = `
        UPDATE asset_transfers SET status=$1, completed_by=$2, transfer_date=$3, notes=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	return r.conn(ctx).QueryRow(ctx, query,
		tr.Status,
		tr.CompletedBy,
		tr.TransferDate,
		tr.Notes,
		tr.ID,
	).Scan(&tr.UpdatedAt)
}

func (r *transferRepository) GetByID(ctx context.Context, businessUnitID, id string) (*domain.AssetTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM asset_transfers WHERE id=$1 AND business_unit_id=$2`
	return scanTransfer(r.conn(ctx).QueryRow(ctx, query, id, businessUnitID))
}

func (r *transferRepository) List(ctx context.Context, filter TransferFilter) ([]domain.AssetTransfer, int64, error) {
	w := newWhere()
	w.add("business_unit_id=$%d", filter.BusinessUnitID)
	if filter.AssetID != nil {
		w.add("asset_id=$%d", *filter.AssetID)
	}
	if filter.Status != nil {
		w.add("status=$%d", *filter.Status)
	}
	query := `SELECT ` + transferColumns + `, COUNT(*) OVER() FROM asset_transfers WHERE ` + w.sql() +
		` ORDER BY created_at DESC` + filter.Page.sql()
	rows, err := r.conn(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectCounted(rows, scanTransfer)
}

func (r *transferRepository) HasPending(ctx context.Context, assetID string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM asset_transfers WHERE asset_id=$1 AND status='PENDING')`, assetID,
	).Scan(&exists)
	return exists, err
}

func scanTransfer(row rowScanner, extra ...any) (*domain.AssetTransfer, error) {
	var tr domain.AssetTransfer
	dest := []any{
		&tr.ID,
		&tr.BusinessUnitID,
		&tr.AssetID,
		&tr.FromDepartmentID,
		&tr.ToDepartmentID,
		&tr.FromLocation,
		&tr.ToLocation,
		&tr.ToBusinessUnitID,
		&tr.Status,
		&tr.Reason,
		&tr.RequestedBy,
		&tr.CompletedBy,
		&tr.TransferDate,
		&tr.Notes,
		&tr.CreatedAt,
		&tr.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &tr, nil
}

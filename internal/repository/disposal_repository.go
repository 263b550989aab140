package repository

import (
	"context"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/persistence"
)

// DisposalRepository persists disposals.
type DisposalRepository interface {
	Create(ctx context.Context, disp *domain.AssetDisposal) error
	GetByID(ctx context.Context, businessUnitID, id string) (*domain.AssetDisposal, error)
	List(ctx context.Context, filter RecordFilter) ([]domain.AssetDisposal, int64, error)
}

type disposalRepository struct {
	base
}

// NewDisposalRepository builds the repository.
func NewDisposalRepository(db persistence.DB) DisposalRepository {
	return &disposalRepository{base{db: db}}
}

const disposalColumns = `id, business_unit_id, asset_id, disposal_date, method, disposal_value, book_value_at_disposal,
               gain_loss, recipient, disposed_by, notes, created_at`

func (r *disposalRepository) Create(ctx context.Context, disp *domain.AssetDisposal) error {
	const query = `
        INSERT INTO asset_disposals (business_unit_id, asset_id, disposal_date, method, disposal_value,
            book_value_at_disposal, gain_loss, recipient, disposed_by, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at`
	return r.conn(ctx).QueryRow(ctx, query,
		disp.BusinessUnitID,
		disp.AssetID,
		disp.DisposalDate,
		disp.Method,
		disp.DisposalValue,
		disp.BookValueAtDisposal,
		disp.GainLoss,
		disp.Recipient,
		disp.DisposedBy,
		disp.Notes,
	).Scan(&disp.ID, &disp.CreatedAt)
}

func (r *disposalRepository) GetByID(ctx context.Context, businessUnitID, id string) (*domain.AssetDisposal, error) {
	query := `SELECT ` + disposalColumns + ` FROM asset_disposals WHERE id=$1 AND business_unit_id=$2`
	return scanDisposal(r.conn(ctx).QueryRow(ctx, query, id, businessUnitID))
}

func (r *disposalRepository) List(ctx context.Context, filter RecordFilter) ([]domain.AssetDisposal, int64, error) {
	w := filter.where("disposal_date")
	query := `SELECT ` + disposalColumns + `, COUNT(*) OVER() FROM asset_disposals WHERE ` + w.sql() +
		` ORDER BY disposal_date DESC, created_at DESC` + filter.Page.sql()
	rows, err := r.conn(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectCounted(rows, scanDisposal)
}

func scanDisposal(row rowScanner, extra ...any) (*domain.AssetDisposal, error) {
	var disp domain.AssetDisposal
	dest := []any{
		&disp.ID,
		&disp.BusinessUnitID,
		&disp.AssetID,
		&disp.DisposalDate,
		&disp.Method,
		&disp.DisposalValue,
		&disp.BookValueAtDisposal,
		&disp.GainLoss,
		&disp.Recipient,
		&disp.DisposedBy,
		&disp.Notes,
		&disp.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &disp, nil
}

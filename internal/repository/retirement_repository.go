package repository

import (
	"context"
	"time"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/persistence"
)

// RecordFilter narrows append-only lifecycle records such as retirements and disposals.
type RecordFilter struct {
	BusinessUnitID string
	AssetID        *string
	From           *time.Time
	To             *time.Time
	Page
}

func (f RecordFilter) where(dateColumn string) *where {
	w := newWhere()
	w.add("business_unit_id=$%d", f.BusinessUnitID)
	if f.AssetID != nil {
		w.add("asset_id=$%d", *f.AssetID)
	}
	if f.From != nil {
		w.add(dateColumn+" >= $%d", *f.From)
	}
	if f.To != nil {
		w.add(dateColumn+" <= $%d", *f.To)
	}
	return w
}

// RetirementRepository persists retirements.
type RetirementRepository interface {
	Create(ctx context.Context, ret *domain.AssetRetirement) error
	GetByID(ctx context.Context, businessUnitID, id string) (*domain.AssetRetirement, error)
	List(ctx context.Context, filter RecordFilter) ([]domain.AssetRetirement, int64, error)
}

type retirementRepository struct {
	base
}

// NewRetirementRepository builds the repository.
func NewRetirementRepository(db persistence.DB) RetirementRepository {
	return &retirementRepository{base{db: db}}
}

const retirementColumns = `id, business_unit_id, asset_id, retirement_date, reason, book_value_at_retirement, retired_by, notes, created_at`

func (r *retirementRepository) Create(ctx context.Context, ret *domain.AssetRetirement) error {
	const query = `
        INSERT INTO asset_retirements (business_unit_id, asset_id, retirement_date, reason, book_value_at_retirement,
            retired_by, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.conn(ctx).QueryRow(ctx, query,
		ret.BusinessUnitID,
		ret.AssetID,
		ret.RetirementDate,
		ret.Reason,
		ret.BookValueAtRetirement,
		ret.RetiredBy,
		ret.Notes,
	).Scan(&ret.ID, &ret.CreatedAt)
}

func (r *retirementRepository) GetByID(ctx context.Context, businessUnitID, id string) (*domain.AssetRetirement, error) {
	query := `SELECT ` + retirementColumns + ` FROM asset_retirements WHERE id=$1 AND business_unit_id=$2`
	return scanRetirement(r.conn(ctx).QueryRow(ctx, query, id, businessUnitID))
}

func (r *retirementRepository) List(ctx context.Context, filter RecordFilter) ([]domain.AssetRetirement, int64, error) {
	w := filter.where("retirement_date")
	query := `SELECT ` + retirementColumns + `, COUNT(*) OVER() FROM asset_retirements WHERE ` + w.sql() +
		` ORDER BY retirement_date DESC, created_at DESC` + filter.Page.sql()
	rows, err := r.conn(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectCounted(rows, scanRetirement)
}

func scanRetirement(row rowScanner, extra ...any) (*domain.AssetRetirement, error) {
	var ret domain.AssetRetirement
	dest := []any{
		&ret.ID,
		&ret.BusinessUnitID,
		&ret.AssetID,
		&ret.RetirementDate,
		&ret.Reason,
		&ret.BookValueAtRetirement,
		&ret.RetiredBy,
		&ret.Notes,
		&ret.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &ret, nil
}

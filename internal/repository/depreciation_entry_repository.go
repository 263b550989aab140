package repository

import (
	"context"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/persistence"
)

// DepreciationEntryRepository stores posted depreciation periods.
type DepreciationEntryRepository interface {
	Create(ctx context.Context, entry *domain.DepreciationEntry) error
	ListByAsset(ctx context.Context, assetID string) ([]domain.DepreciationEntry, error)
}

type depreciationEntryRepository struct {
	base
}

// NewDepreciationEntryRepository builds the repository.
func NewDepreciationEntryRepository(db persistence.DB) DepreciationEntryRepository {
	return &depreciationEntryRepository{base{db: db}}
}

func (r *depreciationEntryRepository) Create(ctx context.Context, entry *domain.DepreciationEntry) error {
	const query = `
        INSERT INTO depreciation_entries (business_unit_id, asset_id, period_number, period_date, method, amount,
            accumulated, book_value, units)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at`
	return r.conn(ctx).QueryRow(ctx, query,
		entry.BusinessUnitID,
		entry.AssetID,
		entry.PeriodNumber,
		entry.PeriodDate,
		entry.Method,
		entry.Amount,
		entry.Accumulated,
		entry.BookValue,
		entry.Units,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *depreciationEntryRepository) ListByAsset(ctx context.Context, assetID string) ([]domain.DepreciationEntry, error) {
	const query = `
        SELECT id, business_unit_id, asset_id, period_number, period_date, method, amount, accumulated, book_value,
               units, created_at
        FROM depreciation_entries WHERE asset_id=$1 ORDER BY period_number ASC`
	rows, err := r.conn(ctx).Query(ctx, query, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DepreciationEntry
	for rows.Next() {
		var e domain.DepreciationEntry
		if err := rows.Scan(
			&e.ID,
			&e.BusinessUnitID,
			&e.AssetID,
			&e.PeriodNumber,
			&e.PeriodDate,
			&e.Method,
			&e.Amount,
			&e.Accumulated,
			&e.BookValue,
			&e.Units,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

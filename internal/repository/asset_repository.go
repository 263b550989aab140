package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/persistence"
)

// AssetFilter captures asset search parameters.
type AssetFilter struct {
	BusinessUnitID string
	Statuses       []domain.AssetStatus
	Category       *string
	DepartmentID   *string
	Search         *string
	IncludeDeleted bool
	Page
}

// DueCursor is the sort key of the last asset a due scan returned. Scans resume strictly after it.
type DueCursor struct {
	NextDate time.Time
	ID       string
}

// AssetRepository encapsulates asset persistence.
type AssetRepository interface {
	Create(ctx context.Context, asset *domain.Asset) error
	Update(ctx context.Context, asset *domain.Asset) error
	GetByID(ctx context.Context, businessUnitID, id string) (*domain.Asset, error)
	// Lock fetches the asset with a row lock held until the surrounding transaction ends.
	Lock(ctx context.Context, businessUnitID, id string) (*domain.Asset, error)
	List(ctx context.Context, filter AssetFilter) ([]domain.Asset, int64, error)
	SoftDelete(ctx context.Context, businessUnitID, id string) error
	Restore(ctx context.Context, businessUnitID, id string) error
	// ListDue returns depreciable assets whose next period is due on or before asOf, ordered by
	// (next_depreciation_date, id) and starting after the cursor when one is given.
	ListDue(ctx context.Context, businessUnitID *string, asOf time.Time, after *DueCursor, limit int) ([]domain.Asset, error)
	Summary(ctx context.Context, businessUnitID string, asOf time.Time) (*domain.AssetSummary, error)
}

type assetRepository struct {
	base
}

// NewAssetRepository instantiates repository.
func NewAssetRepository(db persistence.DB) AssetRepository {
	return &assetRepository{base{db: db}}
}

const assetColumns = `id, business_unit_id, department_id, asset_tag, name, description, category, manufacturer, model,
               serial_number, status, condition, location, purchase_date, purchase_price, salvage_value,
               useful_life_months, depreciation_method, declining_balance_rate, total_expected_units, units_used,
               units_depreciated, depreciation_start_date, depreciation_periods, accumulated_depreciation,
               current_book_value, last_depreciation_date, next_depreciation_date, is_fully_depreciated,
               warranty_expiry, notes, created_by, is_deleted, deleted_at, created_at, updated_at`

func (r *assetRepository) Create(ctx context.Context, asset *domain.Asset) error {
	const query = `
        INSERT INTO assets (business_unit_id, department_id, asset_tag, name, description, category, manufacturer,
            model, serial_number, status, condition, location, purchase_date, purchase_price, salvage_value,
            useful_life_months, depreciation_method, declining_balance_rate, total_expected_units, units_used,
            units_depreciated, depreciation_start_date, depreciation_periods, accumulated_depreciation,
            current_book_value, last_depreciation_date, next_depreciation_date, is_fully_depreciated,
            warranty_expiry, notes, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31)
        RETURNING id, created_at, updated_at`
	return r.conn(ctx).QueryRow(ctx, query,
		asset.BusinessUnitID,
		asset.DepartmentID,
		asset.AssetTag,
		asset.Name,
		asset.Description,
		asset.Category,
		asset.Manufacturer,
		asset.Model,
		asset.SerialNumber,
		asset.Status,
		asset.Condition,
		asset.Location,
		asset.PurchaseDate,
		asset.PurchasePrice,
		asset.SalvageValue,
		asset.UsefulLifeMonths,
		asset.DepreciationMethod,
		asset.DecliningBalanceRate,
		asset.TotalExpectedUnits,
		asset.UnitsUsed,
		asset.UnitsDepreciated,
		asset.DepreciationStartDate,
		asset.DepreciationPeriods,
		asset.AccumulatedDepreciation,
		asset.CurrentBookValue,
		asset.LastDepreciationDate,
		asset.NextDepreciationDate,
		asset.IsFullyDepreciated,
		asset.WarrantyExpiry,
		asset.Notes,
		asset.CreatedBy,
	).Scan(&asset.ID, &asset.CreatedAt, &asset.UpdatedAt)
}

func (r *assetRepository) Update(ctx context.Context, asset *domain.Asset) error {
	const query = `
        UPDATE assets SET business_unit_id=$1, department_id=$2, asset_tag=$3, name=$4, description=$5, category=$6,
            manufacturer=$7, model=$8, serial_number=$9, status=$10, condition=$11, location=$12, purchase_date=$13,
            purchase_price=$14, salvage_value=$15, useful_life_months=$16, depreciation_method=$17,
            declining_balance_rate=$18, total_expected_units=$19, units_used=$20, units_depreciated=$21,
            depreciation_start_date=$22, depreciation_periods=$23, accumulated_depreciation=$24,
            current_book_value=$25, last_depreciation_date=$26, next_depreciation_date=$27,
            is_fully_depreciated=$28, warranty_expiry=$29, notes=$30, updated_at=NOW()
        WHERE id=$31 AND is_deleted = FALSE
        RETURNING updated_at`
	return r.conn(ctx).QueryRow(ctx, query,
		asset.BusinessUnitID,
		asset.DepartmentID,
		asset.AssetTag,
		asset.Name,
		asset.Description,
		asset.Category,
		asset.Manufacturer,
		asset.Model,
		asset.SerialNumber,
		asset.Status,
		asset.Condition,
		asset.Location,
		asset.PurchaseDate,
		asset.PurchasePrice,
		asset.SalvageValue,
		asset.UsefulLifeMonths,
		asset.DepreciationMethod,
		asset.DecliningBalanceRate,
		asset.TotalExpectedUnits,
		asset.UnitsUsed,
		asset.UnitsDepreciated,
		asset.DepreciationStartDate,
		asset.DepreciationPeriods,
		asset.AccumulatedDepreciation,
		asset.CurrentBookValue,
		asset.LastDepreciationDate,
		asset.NextDepreciationDate,
		asset.IsFullyDepreciated,
		asset.WarrantyExpiry,
		asset.Notes,
		asset.ID,
	).Scan(&asset.UpdatedAt)
}

func (r *assetRepository) GetByID(ctx context.Context, businessUnitID, id string) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id=$1 AND business_unit_id=$2`
	return scanAsset(r.conn(ctx).QueryRow(ctx, query, id, businessUnitID))
}

func (r *assetRepository) Lock(ctx context.Context, businessUnitID, id string) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id=$1 AND business_unit_id=$2 FOR UPDATE`
	return scanAsset(r.conn(ctx).QueryRow(ctx, query, id, businessUnitID))
}

func (r *assetRepository) List(ctx context.Context, filter AssetFilter) ([]domain.Asset, int64, error) {
	w := newWhere()
	w.add("business_unit_id=$%d", filter.BusinessUnitID)
	if !filter.IncludeDeleted {
		w.clauses = append(w.clauses, "is_deleted = FALSE")
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		w.add("status = ANY($%d)", statuses)
	}
	if filter.Category != nil {
		w.add("LOWER(category)=LOWER($%d)", *filter.Category)
	}
	if filter.DepartmentID != nil {
		w.add("department_id=$%d", *filter.DepartmentID)
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		w.add(`(LOWER(name) LIKE $%[1]d OR LOWER(asset_tag) LIKE $%[1]d OR LOWER(serial_number) LIKE $%[1]d
            OR LOWER(model) LIKE $%[1]d OR LOWER(manufacturer) LIKE $%[1]d)`, likePattern(*filter.Search))
	}

	query := `SELECT ` + assetColumns + `, COUNT(*) OVER() FROM assets WHERE ` + w.sql() +
		` ORDER BY created_at DESC` + filter.Page.sql()
	rows, err := r.conn(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectCounted(rows, scanAsset)
}

func (r *assetRepository) SoftDelete(ctx context.Context, businessUnitID, id string) error {
	const query = `
        UPDATE assets SET is_deleted = TRUE, deleted_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND business_unit_id=$2 AND is_deleted = FALSE`
	return execOne(ctx, r.conn(ctx), query, id, businessUnitID)
}

func (r *assetRepository) Restore(ctx context.Context, businessUnitID, id string) error {
	const query = `
        UPDATE assets SET is_deleted = FALSE, deleted_at=NULL, updated_at=NOW()
        WHERE id=$1 AND business_unit_id=$2 AND is_deleted = TRUE`
	return execOne(ctx, r.conn(ctx), query, id, businessUnitID)
}

func (r *assetRepository) ListDue(ctx context.Context, businessUnitID *string, asOf time.Time, after *DueCursor, limit int) ([]domain.Asset, error) {
	w := newWhere(
		"is_deleted = FALSE",
		"is_fully_depreciated = FALSE",
		"status <> 'DISPOSED'",
		"depreciation_method <> ''",
		"next_depreciation_date IS NOT NULL",
	)
	w.add("next_depreciation_date <= $%d", asOf)
	if businessUnitID != nil {
		w.add("business_unit_id=$%d", *businessUnitID)
	}
	if after != nil {
		w.args = append(w.args, after.NextDate, after.ID)
		w.clauses = append(w.clauses, fmt.Sprintf("(next_depreciation_date, id) > ($%d, $%d)", len(w.args)-1, len(w.args)))
	}
	if limit <= 0 {
		limit = 500
	}
	query := `SELECT ` + assetColumns + ` FROM assets WHERE ` + w.sql() + ` ORDER BY next_depreciation_date, id` +
		Page{Limit: limit}.sql()
	rows, err := r.conn(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, scanAsset)
}

func (r *assetRepository) Summary(ctx context.Context, businessUnitID string, asOf time.Time) (*domain.AssetSummary, error) {
	summary := &domain.AssetSummary{ByStatus: map[domain.AssetStatus]int64{}}

	const totals = `
        SELECT COUNT(*),
               COALESCE(SUM(purchase_price), 0),
               COALESCE(SUM(current_book_value), 0),
               COALESCE(SUM(accumulated_depreciation), 0),
               (SELECT COUNT(*) FROM asset_deployments WHERE business_unit_id=$1 AND status='ACTIVE'),
               (SELECT COUNT(*) FROM asset_deployments WHERE business_unit_id=$1 AND status='ACTIVE'
                    AND expected_return_date IS NOT NULL AND expected_return_date < $2),
               (SELECT COUNT(*) FROM asset_maintenance WHERE business_unit_id=$1 AND status='SCHEDULED')
        FROM assets WHERE business_unit_id=$1 AND is_deleted = FALSE`
	if err := r.conn(ctx).QueryRow(ctx, totals, businessUnitID, asOf).Scan(
		&summary.TotalAssets,
		&summary.TotalCost,
		&summary.TotalBookValue,
		&summary.TotalAccumulated,
		&summary.ActiveDeployments,
		&summary.OverdueDeployments,
		&summary.ScheduledMaintenance,
	); err != nil {
		return nil, err
	}

	const byStatus = `
        SELECT status, COUNT(*) FROM assets
        WHERE business_unit_id=$1 AND is_deleted = FALSE
        GROUP BY status`
	rows, err := r.conn(ctx).Query(ctx, byStatus, businessUnitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status domain.AssetStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		summary.ByStatus[status] = count
	}
	return summary, rows.Err()
}

func scanAsset(row rowScanner, extra ...any) (*domain.Asset, error) {
	var a domain.Asset
	dest := []any{
		&a.ID,
		&a.BusinessUnitID,
		&a.DepartmentID,
		&a.AssetTag,
		&a.Name,
		&a.Description,
		&a.Category,
		&a.Manufacturer,
		&a.Model,
		&a.SerialNumber,
		&a.Status,
		&a.Condition,
		&a.Location,
		&a.PurchaseDate,
		&a.PurchasePrice,
		&a.SalvageValue,
		&a.UsefulLifeMonths,
		&a.DepreciationMethod,
		&a.DecliningBalanceRate,
		&a.TotalExpectedUnits,
		&a.UnitsUsed,
		&a.UnitsDepreciated,
		&a.DepreciationStartDate,
		&a.DepreciationPeriods,
		&a.AccumulatedDepreciation,
		&a.CurrentBookValue,
		&a.LastDepreciationDate,
		&a.NextDepreciationDate,
		&a.IsFullyDepreciated,
		&a.WarrantyExpiry,
		&a.Notes,
		&a.CreatedBy,
		&a.IsDeleted,
		&a.DeletedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &a, nil
}

package repository

import (
	"context"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/persistence"
)

// SettingRepository reads and writes system settings. Unit-specific values override global defaults.
type SettingRepository interface {
	Get(ctx context.Context, businessUnitID, key string) (*domain.SystemSetting, error)
	List(ctx context.Context, businessUnitID string) ([]domain.SystemSetting, error)
	Upsert(ctx context.Context, setting *domain.SystemSetting) error
}

type settingRepository struct {
	base
}

// NewSettingRepository builds the repository.
func NewSettingRepository(db persistence.DB) SettingRepository {
	return &settingRepository{base{db: db}}
}

const settingColumns = `id, business_unit_id, key, value, description, updated_by, created_at, updated_at`

func (r *settingRepository) Get(ctx context.Context, businessUnitID, key string) (*domain.SystemSetting, error) {
	query := `SELECT ` + settingColumns + ` FROM system_settings
        WHERE key=$1 AND (business_unit_id=$2 OR business_unit_id IS NULL)
        ORDER BY business_unit_id NULLS LAST LIMIT 1`
	return scanSetting(r.conn(ctx).QueryRow(ctx, query, key, businessUnitID))
}

func (r *settingRepository) List(ctx context.Context, businessUnitID string) ([]domain.SystemSetting, error) {
	query := `SELECT DISTINCT ON (key) ` + settingColumns + ` FROM system_settings
        WHERE business_unit_id=$1 OR business_unit_id IS NULL
        ORDER BY key, business_unit_id NULLS LAST`
	rows, err := r.conn(ctx).Query(ctx, query, businessUnitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, scanSetting)
}

func (r *settingRepository) Upsert(ctx context.Context, setting *domain.SystemSetting) error {
	const query = `
        INSERT INTO system_settings (business_unit_id, key, value, description, updated_by)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT ((COALESCE(business_unit_id, '00000000-0000-0000-0000-000000000000'::uuid)), key)
        DO UPDATE SET value=EXCLUDED.value, description=EXCLUDED.description, updated_by=EXCLUDED.updated_by,
            updated_at=NOW()
        RETURNING id, created_at, updated_at`
	return r.conn(ctx).QueryRow(ctx, query,
		setting.BusinessUnitID,
		setting.Key,
		setting.Value,
		setting.Description,
		setting.UpdatedBy,
	).Scan(&setting.ID, &setting.CreatedAt, &setting.UpdatedAt)
}

func scanSetting(row rowScanner, extra ...any) (*domain.SystemSetting, error) {
	var s domain.SystemSetting
	dest := []any{
		&s.ID,
		&s.BusinessUnitID,
		&s.Key,
		&s.Value,
		&s.Description,
		&s.UpdatedBy,
		&s.CreatedAt,
		&s.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &s, nil
}

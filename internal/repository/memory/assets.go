package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/repository"
)

type assetRepo struct{ s *Store }

var _ repository.AssetRepository = (*assetRepo)(nil)

func (r *assetRepo) Create(_ context.Context, asset *domain.Asset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.assets.rows {
		if existing.BusinessUnitID == asset.BusinessUnitID && existing.AssetTag == asset.AssetTag {
			return uniqueViolation("assets_unit_tag_uq")
		}
	}
	now := r.s.now()
	asset.ID = newID()
	asset.CreatedAt = now
	asset.UpdatedAt = now
	r.s.assets.put(asset.ID, *asset)
	return nil
}

func (r *assetRepo) Update(_ context.Context, asset *domain.Asset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.assets.get(asset.ID)
	if !ok || current.IsDeleted {
		return notFound()
	}
	asset.UpdatedAt = r.s.now()
	asset.IsDeleted = current.IsDeleted
	asset.DeletedAt = current.DeletedAt
	asset.CreatedAt = current.CreatedAt
	r.s.assets.put(asset.ID, *asset)
	return nil
}

func (r *assetRepo) GetByID(_ context.Context, businessUnitID, id string) (*domain.Asset, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	asset, ok := r.s.assets.get(id)
	if !ok || asset.BusinessUnitID != businessUnitID {
		return nil, notFound()
	}
	return &asset, nil
}

func (r *assetRepo) Lock(ctx context.Context, businessUnitID, id string) (*domain.Asset, error) {
	return r.GetByID(ctx, businessUnitID, id)
}

func (r *assetRepo) List(_ context.Context, f repository.AssetFilter) ([]domain.Asset, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.s.assets.newest(), func(a domain.Asset) bool {
		if a.BusinessUnitID != f.BusinessUnitID || (a.IsDeleted && !f.IncludeDeleted) {
			return false
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, a.Status) {
			return false
		}
		if f.Category != nil && !strings.EqualFold(a.Category, *f.Category) {
			return false
		}
		if f.DepartmentID != nil && (a.DepartmentID == nil || *a.DepartmentID != *f.DepartmentID) {
			return false
		}
		if f.Search != nil && strings.TrimSpace(*f.Search) != "" {
			return matchesAny(*f.Search, a.Name, a.AssetTag, a.SerialNumber, a.Model, a.Manufacturer)
		}
		return true
	})
	items, total := paginate(rows, f.Page)
	return items, total, nil
}

func (r *assetRepo) SoftDelete(_ context.Context, businessUnitID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	asset, ok := r.s.assets.get(id)
	if !ok || asset.BusinessUnitID != businessUnitID || asset.IsDeleted {
		return notFound()
	}
	now := r.s.now()
	asset.IsDeleted = true
	asset.DeletedAt = &now
	asset.UpdatedAt = now
	r.s.assets.put(id, asset)
	return nil
}

func (r *assetRepo) Restore(_ context.Context, businessUnitID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	asset, ok := r.s.assets.get(id)
	if !ok || asset.BusinessUnitID != businessUnitID || !asset.IsDeleted {
		return notFound()
	}
	asset.IsDeleted = false
	asset.DeletedAt = nil
	asset.UpdatedAt = r.s.now()
	r.s.assets.put(id, asset)
	return nil
}

func (r *assetRepo) ListDue(_ context.Context, businessUnitID *string, asOf time.Time, after *repository.DueCursor, limit int) ([]domain.Asset, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.s.assets.all(), func(a domain.Asset) bool {
		return !a.IsDeleted &&
			!a.IsFullyDepreciated &&
			a.Status != domain.AssetStatusDisposed &&
			a.DepreciationMethod != "" &&
			a.NextDepreciationDate != nil &&
			!a.NextDepreciationDate.After(asOf) &&
			strEq(businessUnitID, a.BusinessUnitID) &&
			afterCursor(a, after)
	})
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].NextDepreciationDate.Equal(*rows[j].NextDepreciationDate) {
			return rows[i].NextDepreciationDate.Before(*rows[j].NextDepreciationDate)
		}
		return rows[i].ID < rows[j].ID
	})
	if limit <= 0 {
		limit = 500
	}
	items, _ := paginate(rows, repository.Page{Limit: limit})
	return items, nil
}

func afterCursor(a domain.Asset, after *repository.DueCursor) bool {
	if after == nil {
		return true
	}
	if !a.NextDepreciationDate.Equal(after.NextDate) {
		return a.NextDepreciationDate.After(after.NextDate)
	}
	return a.ID > after.ID
}

func (r *assetRepo) Summary(_ context.Context, businessUnitID string, asOf time.Time) (*domain.AssetSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	summary := &domain.AssetSummary{
		ByStatus:         map[domain.AssetStatus]int64{},
		TotalCost:        decimal.Zero,
		TotalBookValue:   decimal.Zero,
		TotalAccumulated: decimal.Zero,
	}
	for _, a := range r.s.assets.rows {
		if a.BusinessUnitID != businessUnitID || a.IsDeleted {
			continue
		}
		summary.TotalAssets++
		summary.ByStatus[a.Status]++
		summary.TotalCost = summary.TotalCost.Add(a.PurchasePrice)
		summary.TotalBookValue = summary.TotalBookValue.Add(a.CurrentBookValue)
		summary.TotalAccumulated = summary.TotalAccumulated.Add(a.AccumulatedDepreciation)
	}
	for _, d := range r.s.deployments.rows {
		if d.BusinessUnitID != businessUnitID || d.Status != domain.DeploymentStatusActive {
			continue
		}
		summary.ActiveDeployments++
		if d.Overdue(asOf) {
			summary.OverdueDeployments++
		}
	}
	for _, m := range r.s.maintenance.rows {
		if m.BusinessUnitID == businessUnitID && m.Status == domain.MaintenanceStatusScheduled {
			summary.ScheduledMaintenance++
		}
	}
	return summary, nil
}

func containsStatus(statuses []domain.AssetStatus, s domain.AssetStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

func matchesAny(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

type entryRepo struct{ s *Store }

var _ repository.DepreciationEntryRepository = (*entryRepo)(nil)

func (r *entryRepo) Create(_ context.Context, entry *domain.DepreciationEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.entries.rows {
		if e.AssetID == entry.AssetID && e.PeriodNumber == entry.PeriodNumber {
			return uniqueViolation("depreciation_entries_period_uq")
		}
	}
	entry.ID = newID()
	entry.CreatedAt = r.s.now()
	r.s.entries.put(entry.ID, *entry)
	return nil
}

func (r *entryRepo) ListByAsset(_ context.Context, assetID string) ([]domain.DepreciationEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.s.entries.all(), func(e domain.DepreciationEntry) bool { return e.AssetID == assetID })
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].PeriodNumber < rows[j].PeriodNumber })
	return rows, nil
}

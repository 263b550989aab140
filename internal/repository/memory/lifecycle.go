package memory

import (
	"context"
	"sort"
	"time"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/repository"
)

type deploymentRepo struct{ s *Store }

var _ repository.DeploymentRepository = (*deploymentRepo)(nil)

func (r *deploymentRepo) Create(_ context.Context, dep *domain.AssetDeployment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.deployments.rows {
		if existing.AssetID == dep.AssetID && existing.Status == domain.DeploymentStatusActive {
			return uniqueViolation("asset_deployments_active_uq")
		}
	}
	now := r.s.now()
	dep.ID = newID()
	dep.CreatedAt = now
	dep.UpdatedAt = now
	r.s.deployments.put(dep.ID, *dep)
	return nil
}

func (r *deploymentRepo) Update(_ context.Context, dep *domain.AssetDeployment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.deployments.get(dep.ID)
	if !ok {
		return notFound()
	}
	current.ExpectedReturnDate = dep.ExpectedReturnDate
	current.ReturnedAt = dep.ReturnedAt
	current.ReturnCondition = dep.ReturnCondition
	current.Status = dep.Status
	current.Notes = dep.Notes
	current.UpdatedAt = r.s.now()
	dep.UpdatedAt = current.UpdatedAt
	r.s.deployments.put(dep.ID, current)
	return nil
}

func (r *deploymentRepo) GetByID(_ context.Context, businessUnitID, id string) (*domain.AssetDeployment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	dep, ok := r.s.deployments.get(id)
	if !ok || dep.BusinessUnitID != businessUnitID {
		return nil, notFound()
	}
	return &dep, nil
}

func (r *deploymentRepo) GetActiveByAsset(_ context.Context, assetID string) (*domain.AssetDeployment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, dep := range r.s.deployments.rows {
		if dep.AssetID == assetID && dep.Status == domain.DeploymentStatusActive {
			return &dep, nil
		}
	}
	return nil, notFound()
}

func (r *deploymentRepo) List(_ context.Context, f repository.DeploymentFilter) ([]domain.AssetDeployment, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.s.deployments.newest(), func(d domain.AssetDeployment) bool {
		if d.BusinessUnitID != f.BusinessUnitID || !strEq(f.AssetID, d.AssetID) || !strEq(f.EmployeeID, d.EmployeeID) {
			return false
		}
		if f.Status != nil && d.Status != *f.Status {
			return false
		}
		if f.OverdueAt != nil && !d.Overdue(*f.OverdueAt) {
			return false
		}
		return true
	})
	items, total := paginate(rows, f.Page)
	return items, total, nil
}

func (r *deploymentRepo) CountActiveByEmployee(_ context.Context, employeeID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var count int64
	for _, d := range r.s.deployments.rows {
		if d.EmployeeID == employeeID && d.Status == domain.DeploymentStatusActive {
			count++
		}
	}
	return count, nil
}

func (r *deploymentRepo) ListOverdue(_ context.Context, asOf time.Time) ([]domain.AssetDeployment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.s.deployments.all(), func(d domain.AssetDeployment) bool { return d.Overdue(asOf) })
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ExpectedReturnDate.Before(*rows[j].ExpectedReturnDate) })
	return rows, nil
}

type transferRepo struct{ s *Store }

var _ repository.TransferRepository = (*transferRepo)(nil)

func (r *transferRepo) Create(_ context.Context, tr *domain.AssetTransfer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.transfers.rows {
		if existing.AssetID == tr.AssetID && existing.Status == domain.TransferStatusPending {
			return uniqueViolation("asset_transfers_pending_uq")
		}
	}
	now := r.s.now()
	tr.ID = newID()
	tr.CreatedAt = now
	tr.UpdatedAt = now
	r.s.transfers.put(tr.ID, *tr)
	return nil
}

func (r *transferRepo) Update(_ context.Context, tr *domain.AssetTransfer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.transfers.get(tr.ID)
	if !ok {
		return notFound()
	}
	current.Status = tr.Status
	current.CompletedBy = tr.CompletedBy
	current.TransferDate = tr.TransferDate
	current.Notes = tr.Notes
	current.UpdatedAt = r.s.now()
	tr.UpdatedAt = current.UpdatedAt
	r.s.transfers.put(tr.ID, current)
	return nil
}

func (r *transferRepo) GetByID(_ context.Context, businessUnitID, id string) (*domain.AssetTransfer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	tr, ok := r.s.transfers.get(id)
	if !ok || tr.BusinessUnitID != businessUnitID {
		return nil, notFound()
	}
	return &tr, nil
}

func (r *transferRepo) List(_ context.Context, f repository.TransferFilter) ([]domain.AssetTransfer, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.s.transfers.newest(), func(t domain.AssetTransfer) bool {
		return t.BusinessUnitID == f.BusinessUnitID &&
			strEq(f.AssetID, t.AssetID) &&
			(f.Status == nil || t.Status == *f.Status)
	})
	items, total := paginate(rows, f.Page)
	return items, total, nil
}

func (r *transferRepo) HasPending(_ context.Context, assetID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.s.transfers.rows {
		if t.AssetID == assetID && t.Status == domain.TransferStatusPending {
			return true, nil
		}
	}
	return false, nil
}

type retirementRepo struct{ s *Store }

var _ repository.RetirementRepository = (*retirementRepo)(nil)

func (r *retirementRepo) Create(_ context.Context, ret *domain.AssetRetirement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ret.ID = newID()
	ret.CreatedAt = r.s.now()
	r.s.retirements.put(ret.ID, *ret)
	return nil
}

func (r *retirementRepo) GetByID(_ context.Context, businessUnitID, id string) (*domain.AssetRetirement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ret, ok := r.s.retirements.get(id)
	if !ok || ret.BusinessUnitID != businessUnitID {
		return nil, notFound()
	}
	return &ret, nil
}

func (r *retirementRepo) List(_ context.Context, f repository.RecordFilter) ([]domain.AssetRetirement, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.s.retirements.newest(), func(ret domain.AssetRetirement) bool {
		return ret.BusinessUnitID == f.BusinessUnitID && strEq(f.AssetID, ret.AssetID) && inRange(ret.RetirementDate, f.From, f.To)
	})
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].RetirementDate.After(rows[j].RetirementDate) })
	items, total := paginate(rows, f.Page)
	return items, total, nil
}

type disposalRepo struct{ s *Store }

var _ repository.DisposalRepository = (*disposalRepo)(nil)

func (r *disposalRepo) Create(_ context.Context, disp *domain.AssetDisposal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.disposals.rows {
		if existing.AssetID == disp.AssetID {
			return uniqueViolation("asset_disposals_asset_uq")
		}
	}
	disp.ID = newID()
	disp.CreatedAt = r.s.now()
	r.s.disposals.put(disp.ID, *disp)
	return nil
}

func (r *disposalRepo) GetByID(_ context.Context, businessUnitID, id string) (*domain.AssetDisposal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	disp, ok := r.s.disposals.get(id)
	if !ok || disp.BusinessUnitID != businessUnitID {
		return nil, notFound()
	}
	return &disp, nil
}

func (r *disposalRepo) List(_ context.Context, f repository.RecordFilter) ([]domain.AssetDisposal, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.s.disposals.newest(), func(d domain.AssetDisposal) bool {
		return d.BusinessUnitID == f.BusinessUnitID && strEq(f.AssetID, d.AssetID) && inRange(d.DisposalDate, f.From, f.To)
	})
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].DisposalDate.After(rows[j].DisposalDate) })
	items, total := paginate(rows, f.Page)
	return items, total, nil
}

type maintenanceRepo struct{ s *Store }

var _ repository.MaintenanceRepository = (*maintenanceRepo)(nil)

func (r *maintenanceRepo) Create(_ context.Context, m *domain.AssetMaintenance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	m.ID = newID()
	m.CreatedAt = now
	m.UpdatedAt = now
	r.s.maintenance.put(m.ID, *m)
	return nil
}

func (r *maintenanceRepo) Update(_ context.Context, m *domain.AssetMaintenance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.maintenance.get(m.ID)
	if !ok {
		return notFound()
	}
	m.CreatedAt = current.CreatedAt
	m.UpdatedAt = r.s.now()
	r.s.maintenance.put(m.ID, *m)
	return nil
}

func (r *maintenanceRepo) GetByID(_ context.Context, businessUnitID, id string) (*domain.AssetMaintenance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.maintenance.get(id)
	if !ok || m.BusinessUnitID != businessUnitID {
		return nil, notFound()
	}
	return &m, nil
}

func (r *maintenanceRepo) List(_ context.Context, f repository.MaintenanceFilter) ([]domain.AssetMaintenance, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.s.maintenance.newest(), func(m domain.AssetMaintenance) bool {
		return m.BusinessUnitID == f.BusinessUnitID &&
			strEq(f.AssetID, m.AssetID) &&
			(f.Status == nil || m.Status == *f.Status) &&
			(f.Type == nil || m.MaintenanceType == *f.Type)
	})
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ScheduledDate.After(rows[j].ScheduledDate) })
	items, total := paginate(rows, f.Page)
	return items, total, nil
}

func (r *maintenanceRepo) CancelOpenForAsset(_ context.Context, assetID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, m := range r.s.maintenance.rows {
		if m.AssetID != assetID {
			continue
		}
		if m.Status != domain.MaintenanceStatusScheduled && m.Status != domain.MaintenanceStatusInProgress {
			continue
		}
		m.Status = domain.MaintenanceStatusCancelled
		m.UpdatedAt = r.s.now()
		r.s.maintenance.put(id, m)
		n++
	}
	return n, nil
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

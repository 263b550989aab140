package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/assetdesk/asset-service/internal/depreciation"
	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/events"
	"github.com/assetdesk/asset-service/internal/repository/memory"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

var fixedNow = time.Date(2026, time.March, 15, 10, 30, 0, 0, time.UTC)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

type workflowCounter struct {
	mu      sync.Mutex
	results map[string][]bool
}

func (w *workflowCounter) RecordWorkflow(operation string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.results == nil {
		w.results = map[string][]bool{}
	}
	w.results[operation] = append(w.results[operation], err == nil)
}

func (w *workflowCounter) RecordDepreciationBatch(int, int, int) {}

// memoryCache stores JSON like the Redis cache does.
type memoryCache struct {
	mu      sync.Mutex
	items   map[string][]byte
	reads   int
	deletes []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	raw, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = raw
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
		c.deletes = append(c.deletes, k)
	}
	return nil
}

type fixture struct {
	ctx      context.Context
	repos    memory.Repositories
	audit    *AuditService
	settings *SettingsService
	cache    *memoryCache
	events   *recordingDispatcher
	metrics  *workflowCounter
	unit     *domain.BusinessUnit
	scope    domain.Scope
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := memory.NewStore().Repositories()
	f := &fixture{
		ctx:     context.Background(),
		repos:   repos,
		audit:   NewAuditService(repos.AuditLogs, nil),
		cache:   newMemoryCache(),
		events:  &recordingDispatcher{},
		metrics: &workflowCounter{},
	}
	f.settings = NewSettingsService(SettingsDependencies{
		SettingRepo: repos.Settings,
		Cache:       f.cache,
		CacheTTL:    time.Minute,
		Audit:       f.audit,
	})
	f.unit = f.addUnit(t, "HQ")
	f.scope = domain.Scope{BusinessUnitID: f.unit.ID, UserID: "user-1", IPAddress: "10.0.0.1"}
	return f
}

func (f *fixture) addUnit(t *testing.T, code string) *domain.BusinessUnit {
	t.Helper()
	unit := &domain.BusinessUnit{Code: code, Name: code + " unit", IsActive: true}
	require.NoError(t, f.repos.BusinessUnits.Create(f.ctx, unit))
	return unit
}

func (f *fixture) lifecycleDeps() LifecycleDependencies {
	return LifecycleDependencies{
		AssetRepo:        f.repos.Assets,
		EmployeeRepo:     f.repos.Employees,
		DepartmentRepo:   f.repos.Departments,
		BusinessUnitRepo: f.repos.BusinessUnits,
		DeploymentRepo:   f.repos.Deployments,
		TransferRepo:     f.repos.Transfers,
		RetirementRepo:   f.repos.Retirements,
		DisposalRepo:     f.repos.Disposals,
		MaintenanceRepo:  f.repos.Maintenance,
		Settings:         f.settings,
		Audit:            f.audit,
		Dispatcher:       f.events,
		Metrics:          f.metrics,
	}
}

func (f *fixture) assetService() *AssetService {
	svc := NewAssetService(AssetDependencies{
		AssetRepo:      f.repos.Assets,
		DepartmentRepo: f.repos.Departments,
		Settings:       f.settings,
		Audit:          f.audit,
		Dispatcher:     f.events,
	})
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func (f *fixture) depreciationService() *DepreciationService {
	svc := NewDepreciationService(DepreciationDependencies{
		AssetRepo:  f.repos.Assets,
		EntryRepo:  f.repos.DepreciationEntries,
		Audit:      f.audit,
		Dispatcher: f.events,
		Metrics:    f.metrics,
	})
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func (f *fixture) deploymentService() *DeploymentService {
	svc := NewDeploymentService(f.lifecycleDeps())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func (f *fixture) transferService() *TransferService {
	svc := NewTransferService(f.lifecycleDeps())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func (f *fixture) retirementService() *RetirementService {
	svc := NewRetirementService(f.lifecycleDeps())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func (f *fixture) disposalService() *DisposalService {
	svc := NewDisposalService(f.lifecycleDeps())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func (f *fixture) maintenanceService() *MaintenanceService {
	svc := NewMaintenanceService(f.lifecycleDeps())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

// addAsset registers a straight-line asset bought on 2026-01-01.
func (f *fixture) addAsset(t *testing.T, name string, price int64) *domain.Asset {
	t.Helper()
	purchased := date(2026, time.January, 1)
	asset, err := f.assetService().Create(f.ctx, f.scope, AssetInput{
		Name:               name,
		Category:           "Laptop",
		Location:           "Floor 1",
		PurchaseDate:       &purchased,
		PurchasePrice:      decimal.NewFromInt(price),
		UsefulLifeMonths:   12,
		DepreciationMethod: depreciation.MethodStraightLine,
	})
	require.NoError(t, err)
	return asset
}

func (f *fixture) addEmployee(t *testing.T, number string, status domain.EmployeeStatus) *domain.Employee {
	t.Helper()
	emp := &domain.Employee{
		BusinessUnitID: f.unit.ID,
		EmployeeNumber: number,
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          number + "@example.com",
		Status:         status,
	}
	require.NoError(t, f.repos.Employees.Create(f.ctx, emp))
	return emp
}

func (f *fixture) addDepartment(t *testing.T, unitID, name string) *domain.Department {
	t.Helper()
	dept := &domain.Department{BusinessUnitID: unitID, Name: name}
	require.NoError(t, f.repos.Departments.Create(f.ctx, dept))
	return dept
}

func (f *fixture) asset(t *testing.T, id string) *domain.Asset {
	t.Helper()
	asset, err := f.repos.Assets.GetByID(f.ctx, f.scope.BusinessUnitID, id)
	require.NoError(t, err)
	return asset
}

func (f *fixture) assetIn(t *testing.T, unitID, id string) *domain.Asset {
	t.Helper()
	asset, err := f.repos.Assets.GetByID(f.ctx, unitID, id)
	require.NoError(t, err)
	return asset
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func errCode(err error) string {
	if err == nil {
		return ""
	}
	return apperrors.ToDomainError(err).Code
}

func strPtr(s string) *string { return &s }

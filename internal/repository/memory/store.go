// Package memory holds map-backed implementations of the repository interfaces.
// They mirror the Postgres repositories closely enough to drive service and handler tests.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// Store is the shared state behind every in-memory repository.
type Store struct {
	mu sync.RWMutex

	assets      *table[domain.Asset]
	units       *table[domain.BusinessUnit]
	roles       *table[domain.Role]
	departments *table[domain.Department]
	employees   *table[domain.Employee]
	users       *table[domain.User]
	deployments *table[domain.AssetDeployment]
	transfers   *table[domain.AssetTransfer]
	retirements *table[domain.AssetRetirement]
	disposals   *table[domain.AssetDisposal]
	maintenance *table[domain.AssetMaintenance]
	entries     *table[domain.DepreciationEntry]
	auditLogs   *table[domain.AuditLog]
	settings    *table[domain.SystemSetting]
	clock       func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		assets:      newTable[domain.Asset](),
		units:       newTable[domain.BusinessUnit](),
		roles:       newTable[domain.Role](),
		departments: newTable[domain.Department](),
		employees:   newTable[domain.Employee](),
		users:       newTable[domain.User](),
		deployments: newTable[domain.AssetDeployment](),
		transfers:   newTable[domain.AssetTransfer](),
		retirements: newTable[domain.AssetRetirement](),
		disposals:   newTable[domain.AssetDisposal](),
		maintenance: newTable[domain.AssetMaintenance](),
		entries:     newTable[domain.DepreciationEntry](),
		auditLogs:   newTable[domain.AuditLog](),
		settings:    newTable[domain.SystemSetting](),
		clock:       time.Now,
	}
}

// Repositories returns one implementation of every repository interface bound to the store.
func (s *Store) Repositories() Repositories {
	return Repositories{
		Assets:              &assetRepo{s},
		BusinessUnits:       &businessUnitRepo{s},
		Roles:               &roleRepo{s},
		Departments:         &departmentRepo{s},
		Employees:           &employeeRepo{s},
		Users:               &userRepo{s},
		Deployments:         &deploymentRepo{s},
		Transfers:           &transferRepo{s},
		Retirements:         &retirementRepo{s},
		Disposals:           &disposalRepo{s},
		Maintenance:         &maintenanceRepo{s},
		DepreciationEntries: &entryRepo{s},
		AuditLogs:           &auditLogRepo{s},
		Settings:            &settingRepo{s},
	}
}

// Repositories groups the store's repository views.
type Repositories struct {
	Assets              repository.AssetRepository
	BusinessUnits       repository.BusinessUnitRepository
	Roles               repository.RoleRepository
	Departments         repository.DepartmentRepository
	Employees           repository.EmployeeRepository
	Users               repository.UserRepository
	Deployments         repository.DeploymentRepository
	Transfers           repository.TransferRepository
	Retirements         repository.RetirementRepository
	Disposals           repository.DisposalRepository
	Maintenance         repository.MaintenanceRepository
	DepreciationEntries repository.DepreciationEntryRepository
	AuditLogs           repository.AuditLogRepository
	Settings            repository.SettingRepository
}

func (s *Store) now() time.Time {
	return s.clock().UTC()
}

// table keeps rows by id and remembers insertion order.
type table[T any] struct {
	rows map[string]T
	seq  map[string]int
	next int
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: map[string]T{}, seq: map[string]int{}}
}

func (t *table[T]) put(id string, v T) {
	if _, ok := t.seq[id]; !ok {
		t.next++
		t.seq[id] = t.next
	}
	t.rows[id] = v
}

func (t *table[T]) get(id string) (T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

// all returns rows oldest first.
func (t *table[T]) all() []T {
	ids := make([]string, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return t.seq[ids[i]] < t.seq[ids[j]] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.rows[id])
	}
	return out
}

// newest returns rows newest first.
func (t *table[T]) newest() []T {
	out := t.all()
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func filter[T any](rows []T, keep func(T) bool) []T {
	out := rows[:0:0]
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// paginate slices rows the way LIMIT/OFFSET would and returns the unpaged total.
func paginate[T any](rows []T, p repository.Page) ([]T, int64) {
	total := int64(len(rows))
	limit := p.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []T{}, total
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end], total
}

func newID() string {
	return uuid.NewString()
}

func notFound() error {
	return pgx.ErrNoRows
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}

func strEq(p *string, v string) bool {
	return p == nil || *p == v
}

func ptrEq(a *string, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

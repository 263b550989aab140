package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/events"
	"github.com/assetdesk/asset-service/internal/repository"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

// LifecycleDependencies bundles collaborators shared by the asset lifecycle workflows.
type LifecycleDependencies struct {
	AssetRepo        repository.AssetRepository
	EmployeeRepo     repository.EmployeeRepository
	DepartmentRepo   repository.DepartmentRepository
	BusinessUnitRepo repository.BusinessUnitRepository
	DeploymentRepo   repository.DeploymentRepository
	TransferRepo     repository.TransferRepository
	RetirementRepo   repository.RetirementRepository
	DisposalRepo     repository.DisposalRepository
	MaintenanceRepo  repository.MaintenanceRepository
	Settings         SettingsReader
	Tx               Transactor
	Audit            *AuditService
	Dispatcher       events.Dispatcher
	Metrics          WorkflowRecorder
	Logger           *zap.Logger
}

type lifecycle struct {
	assets        repository.AssetRepository
	employees     repository.EmployeeRepository
	departments   repository.DepartmentRepository
	businessUnits repository.BusinessUnitRepository
	deployments   repository.DeploymentRepository
	transfers     repository.TransferRepository
	retirements   repository.RetirementRepository
	disposals     repository.DisposalRepository
	maintenance   repository.MaintenanceRepository
	settings      SettingsReader
	tx            Transactor
	audit         *AuditService
	events        publisher
	metrics       WorkflowRecorder
	logger        *zap.Logger
	now           func() time.Time
}

func newLifecycle(deps LifecycleDependencies) lifecycle {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return lifecycle{
		assets:        deps.AssetRepo,
		employees:     deps.EmployeeRepo,
		departments:   deps.DepartmentRepo,
		businessUnits: deps.BusinessUnitRepo,
		deployments:   deps.DeploymentRepo,
		transfers:     deps.TransferRepo,
		retirements:   deps.RetirementRepo,
		disposals:     deps.DisposalRepo,
		maintenance:   deps.MaintenanceRepo,
		settings:      deps.Settings,
		tx:            transactorOrDirect(deps.Tx),
		audit:         deps.Audit,
		events:        publisher{dispatcher: deps.Dispatcher},
		metrics:       recorderOrNop(deps.Metrics),
		logger:        logger,
		now:           time.Now,
	}
}

var allowedAssetTransitions = map[domain.AssetStatus][]domain.AssetStatus{
	domain.AssetStatusAvailable: {
		domain.AssetStatusDeployed,
		domain.AssetStatusInMaintenance,
		domain.AssetStatusRetired,
		domain.AssetStatusDisposed,
	},
	domain.AssetStatusDeployed:      {domain.AssetStatusAvailable},
	domain.AssetStatusInMaintenance: {domain.AssetStatusAvailable, domain.AssetStatusRetired},
	domain.AssetStatusRetired:       {domain.AssetStatusDisposed},
	domain.AssetStatusDisposed:      {},
}

func isValidAssetTransition(current, next domain.AssetStatus) bool {
	for _, candidate := range allowedAssetTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// transition moves asset to next or returns a conflict naming both states.
func transition(asset *domain.Asset, next domain.AssetStatus) error {
	if !isValidAssetTransition(asset.Status, next) {
		return apperrors.NewConflict("asset status does not allow this operation", map[string]any{
			"asset_id": asset.ID,
			"status":   asset.Status,
			"target":   next,
		})
	}
	asset.Status = next
	return nil
}

func (l *lifecycle) lockAsset(ctx context.Context, scope domain.Scope, id string) (*domain.Asset, error) {
	return lockAsset(ctx, l.assets, scope, id)
}

// recordAsset writes an asset-level audit entry for a lifecycle step.
func (l *lifecycle) recordAsset(ctx context.Context, scope domain.Scope, asset *domain.Asset, action domain.AuditAction, oldStatus domain.AssetStatus, extra map[string]any) error {
	newValues := map[string]any{"status": asset.Status}
	for k, v := range extra {
		newValues[k] = v
	}
	return l.audit.Record(ctx, scope, AuditChange{
		Entity:    domain.EntityAsset,
		EntityID:  asset.ID,
		Action:    action,
		OldValues: map[string]any{"status": oldStatus},
		NewValues: newValues,
	})
}

func (l *lifecycle) finish(operation string, err error) error {
	l.metrics.RecordWorkflow(operation, err)
	if err != nil {
		l.logger.Debug("workflow rejected", zap.String("operation", operation), zap.Error(err))
	}
	return apperrors.MapError(err)
}

func (l *lifecycle) hasPendingTransfer(ctx context.Context, assetID string) error {
	pending, err := l.transfers.HasPending(ctx, assetID)
	if err != nil {
		return err
	}
	if pending {
		return apperrors.NewConflict("asset has a pending transfer", map[string]any{"asset_id": assetID})
	}
	return nil
}

func dateOr(t *time.Time, fallback time.Time) time.Time {
	if t == nil || t.IsZero() {
		return fallback
	}
	return *t
}

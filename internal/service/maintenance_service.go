package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/events"
	"github.com/assetdesk/asset-service/internal/repository"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

// MaintenanceService schedules and tracks maintenance work.
type MaintenanceService struct {
	lifecycle
}

// NewMaintenanceService constructs the service.
func NewMaintenanceService(deps LifecycleDependencies) *MaintenanceService {
	return &MaintenanceService{lifecycle: newLifecycle(deps)}
}

// MaintenanceInput schedules work on an asset.
type MaintenanceInput struct {
	AssetID       string
	Type          domain.MaintenanceType
	ScheduledDate *time.Time
	Description   string
	Vendor        string
	Cost          decimal.Decimal
	PerformedBy   string
}

// CompleteMaintenanceInput closes running work.
type CompleteMaintenanceInput struct {
	Cost        *decimal.Decimal
	PerformedBy string
	Description string
}

// MaintenanceListFilter narrows maintenance listings.
type MaintenanceListFilter struct {
	AssetID *string
	Status  *domain.MaintenanceStatus
	Type    *domain.MaintenanceType
	Pagination
}

// Schedule books maintenance for an asset that is still in service.
func (s *MaintenanceService) Schedule(ctx context.Context, scope domain.Scope, input MaintenanceInput) (*domain.AssetMaintenance, error) {
	if err := requireText("asset_id", input.AssetID); err != nil {
		return nil, err
	}
	if !input.Type.Valid() {
		return nil, apperrors.NewValidationError("unknown maintenance type", map[string]any{"type": input.Type})
	}
	if input.Cost.IsNegative() {
		return nil, apperrors.NewValidationError("cost cannot be negative", nil)
	}
	var m *domain.AssetMaintenance
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		asset, err := s.lockAsset(ctx, scope, input.AssetID)
		if err != nil {
			return err
		}
		if asset.Status == domain.AssetStatusRetired || asset.Status == domain.AssetStatusDisposed {
			return apperrors.NewConflict("asset is out of service", map[string]any{"asset_id": asset.ID, "status": asset.Status})
		}
		m = &domain.AssetMaintenance{
			BusinessUnitID:  scope.BusinessUnitID,
			AssetID:         asset.ID,
			MaintenanceType: input.Type,
			Status:          domain.MaintenanceStatusScheduled,
			ScheduledDate:   dateOr(input.ScheduledDate, today(s.now())),
			Cost:            input.Cost.Round(2),
			Vendor:          strings.TrimSpace(input.Vendor),
			Description:     strings.TrimSpace(input.Description),
			PerformedBy:     strings.TrimSpace(input.PerformedBy),
			CreatedBy:       scope.ActorID(),
		}
		if err := s.maintenance.Create(ctx, m); err != nil {
			return err
		}
		return s.recordMaintenance(ctx, scope, m, domain.ActionCreate, "")
	})
	if err := s.finish("maintenance_schedule", err); err != nil {
		return nil, err
	}
	s.events.publish(ctx, maintenanceEvent(events.EventMaintenanceScheduled, scope, m))
	return m, nil
}

// Start puts scheduled work in progress and takes the asset out of circulation.
func (s *MaintenanceService) Start(ctx context.Context, scope domain.Scope, id string) (*domain.AssetMaintenance, error) {
	var m *domain.AssetMaintenance
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.get(ctx, scope, id)
		if err != nil {
			return err
		}
		if current.Status != domain.MaintenanceStatusScheduled {
			return apperrors.NewConflict("only scheduled maintenance can start", map[string]any{"maintenance_id": id, "status": current.Status})
		}
		asset, err := s.lockAsset(ctx, scope, current.AssetID)
		if err != nil {
			return err
		}
		oldStatus := asset.Status
		if err := transition(asset, domain.AssetStatusInMaintenance); err != nil {
			return err
		}
		now := s.now().UTC()
		current.Status = domain.MaintenanceStatusInProgress
		current.StartedAt = &now
		if err := s.maintenance.Update(ctx, current); err != nil {
			return err
		}
		if err := s.assets.Update(ctx, asset); err != nil {
			return err
		}
		m = current
		if err := s.recordMaintenance(ctx, scope, m, domain.ActionUpdate, domain.MaintenanceStatusScheduled); err != nil {
			return err
		}
		return s.recordAsset(ctx, scope, asset, domain.ActionMaintain, oldStatus, map[string]any{"maintenance_id": id})
	})
	if err := s.finish("maintenance_start", err); err != nil {
		return nil, err
	}
	return m, nil
}

// Complete closes running work and returns the asset to AVAILABLE.
func (s *MaintenanceService) Complete(ctx context.Context, scope domain.Scope, id string, input CompleteMaintenanceInput) (*domain.AssetMaintenance, error) {
	if input.Cost != nil && input.Cost.IsNegative() {
		return nil, apperrors.NewValidationError("cost cannot be negative", nil)
	}
	var m *domain.AssetMaintenance
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.get(ctx, scope, id)
		if err != nil {
			return err
		}
		if current.Status != domain.MaintenanceStatusInProgress {
			return apperrors.NewConflict("only maintenance in progress can complete", map[string]any{"maintenance_id": id, "status": current.Status})
		}
		asset, err := s.lockAsset(ctx, scope, current.AssetID)
		if err != nil {
			return err
		}
		oldStatus := asset.Status
		if err := transition(asset, domain.AssetStatusAvailable); err != nil {
			return err
		}
		now := s.now().UTC()
		current.Status = domain.MaintenanceStatusCompleted
		current.CompletedAt = &now
		if input.Cost != nil {
			current.Cost = input.Cost.Round(2)
		}
		if v := strings.TrimSpace(input.PerformedBy); v != "" {
			current.PerformedBy = v
		}
		if v := strings.TrimSpace(input.Description); v != "" {
			current.Description = v
		}
		if err := s.maintenance.Update(ctx, current); err != nil {
			return err
		}
		if err := s.assets.Update(ctx, asset); err != nil {
			return err
		}
		m = current
		if err := s.recordMaintenance(ctx, scope, m, domain.ActionUpdate, domain.MaintenanceStatusInProgress); err != nil {
			return err
		}
		return s.recordAsset(ctx, scope, asset, domain.ActionMaintain, oldStatus, map[string]any{
			"maintenance_id": id,
			"cost":           m.Cost.StringFixed(2),
		})
	})
	if err := s.finish("maintenance_complete", err); err != nil {
		return nil, err
	}
	s.events.publish(ctx, maintenanceEvent(events.EventMaintenanceCompleted, scope, m))
	return m, nil
}

// Cancel abandons scheduled or running work, releasing the asset if it was held.
func (s *MaintenanceService) Cancel(ctx context.Context, scope domain.Scope, id string) (*domain.AssetMaintenance, error) {
	var m *domain.AssetMaintenance
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.get(ctx, scope, id)
		if err != nil {
			return err
		}
		previous := current.Status
		if previous != domain.MaintenanceStatusScheduled && previous != domain.MaintenanceStatusInProgress {
			return apperrors.NewConflict("maintenance is already closed", map[string]any{"maintenance_id": id, "status": previous})
		}
		if previous == domain.MaintenanceStatusInProgress {
			asset, err := s.lockAsset(ctx, scope, current.AssetID)
			if err != nil {
				return err
			}
			if asset.Status == domain.AssetStatusInMaintenance {
				if err := transition(asset, domain.AssetStatusAvailable); err != nil {
					return err
				}
				if err := s.assets.Update(ctx, asset); err != nil {
					return err
				}
				if err := s.recordAsset(ctx, scope, asset, domain.ActionMaintain, domain.AssetStatusInMaintenance, map[string]any{"maintenance_id": id}); err != nil {
					return err
				}
			}
		}
		current.Status = domain.MaintenanceStatusCancelled
		if err := s.maintenance.Update(ctx, current); err != nil {
			return err
		}
		m = current
		return s.recordMaintenance(ctx, scope, m, domain.ActionCancel, previous)
	})
	if err := s.finish("maintenance_cancel", err); err != nil {
		return nil, err
	}
	return m, nil
}

// Get fetches one maintenance record.
func (s *MaintenanceService) Get(ctx context.Context, scope domain.Scope, id string) (*domain.AssetMaintenance, error) {
	m, err := s.get(ctx, scope, id)
	return m, apperrors.MapError(err)
}

// List returns a page of maintenance records.
func (s *MaintenanceService) List(ctx context.Context, scope domain.Scope, filter MaintenanceListFilter) (ListResult[domain.AssetMaintenance], error) {
	items, total, err := s.maintenance.List(ctx, repository.MaintenanceFilter{
		BusinessUnitID: scope.BusinessUnitID,
		AssetID:        filter.AssetID,
		Status:         filter.Status,
		Type:           filter.Type,
		Page:           filter.Pagination.repo(),
	})
	if err != nil {
		return ListResult[domain.AssetMaintenance]{}, apperrors.MapError(err)
	}
	return newListResult(items, total, filter.Pagination), nil
}

func (s *MaintenanceService) get(ctx context.Context, scope domain.Scope, id string) (*domain.AssetMaintenance, error) {
	m, err := s.maintenance.GetByID(ctx, scope.BusinessUnitID, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "maintenance", map[string]any{"id": id})
	}
	return m, nil
}

func (s *MaintenanceService) recordMaintenance(ctx context.Context, scope domain.Scope, m *domain.AssetMaintenance, action domain.AuditAction, previous domain.MaintenanceStatus) error {
	change := AuditChange{
		Entity:   domain.EntityMaintenance,
		EntityID: m.ID,
		Action:   action,
		NewValues: map[string]any{
			"asset_id": m.AssetID,
			"type":     m.MaintenanceType,
			"status":   m.Status,
			"cost":     m.Cost.StringFixed(2),
		},
	}
	if previous != "" {
		change.OldValues = map[string]any{"status": previous}
	}
	return s.audit.Record(ctx, scope, change)
}

func maintenanceEvent(eventType events.EventType, scope domain.Scope, m *domain.AssetMaintenance) events.Event {
	return events.New(eventType, scope, m.AssetID, events.MaintenancePayload{
		MaintenanceID: m.ID,
		Type:          m.MaintenanceType,
		Status:        m.Status,
		Cost:          m.Cost,
	})
}

package service

import (
	"context"
	"strings"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/events"
	"github.com/assetdesk/asset-service/internal/repository"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

// TransferService relocates assets between departments, locations and business units.
type TransferService struct {
	lifecycle
}

// NewTransferService constructs the service.
func NewTransferService(deps LifecycleDependencies) *TransferService {
	return &TransferService{lifecycle: newLifecycle(deps)}
}

// TransferDestination is where an asset should end up.
type TransferDestination struct {
	ToDepartmentID   *string
	ToLocation       string
	ToBusinessUnitID *string
	Reason           string
	Notes            string
}

// TransferInput requests a transfer of one asset.
type TransferInput struct {
	AssetID string
	TransferDestination
}

// BulkTransferInput moves several assets to the same destination.
type BulkTransferInput struct {
	AssetIDs []string
	TransferDestination
}

// TransferListFilter narrows transfer listings.
type TransferListFilter struct {
	AssetID *string
	Status  *domain.TransferStatus
	Pagination
}

// Request opens a PENDING transfer for an available asset.
func (s *TransferService) Request(ctx context.Context, scope domain.Scope, input TransferInput) (*domain.AssetTransfer, error) {
	var tr *domain.AssetTransfer
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		tr, err = s.request(ctx, scope, input)
		return err
	})
	if err := s.finish("transfer_request", err); err != nil {
		return nil, err
	}
	s.events.publish(ctx, transferEvent(events.EventTransferRequested, scope, tr))
	return tr, nil
}

// Complete applies a PENDING transfer to its asset.
func (s *TransferService) Complete(ctx context.Context, scope domain.Scope, id string) (*domain.AssetTransfer, error) {
	var tr *domain.AssetTransfer
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		tr, err = s.complete(ctx, scope, id)
		return err
	})
	if err := s.finish("transfer_complete", err); err != nil {
		return nil, err
	}
	s.events.publish(ctx, transferEvent(events.EventAssetTransferred, scope, tr))
	return tr, nil
}

// Cancel abandons a PENDING transfer.
func (s *TransferService) Cancel(ctx context.Context, scope domain.Scope, id string) (*domain.AssetTransfer, error) {
	var tr *domain.AssetTransfer
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.pending(ctx, scope, id)
		if err != nil {
			return err
		}
		current.Status = domain.TransferStatusCancelled
		current.CompletedBy = scope.ActorID()
		if err := s.transfers.Update(ctx, current); err != nil {
			return err
		}
		tr = current
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:    domain.EntityTransfer,
			EntityID:  id,
			Action:    domain.ActionCancel,
			OldValues: map[string]any{"status": domain.TransferStatusPending},
			NewValues: map[string]any{"status": domain.TransferStatusCancelled, "asset_id": current.AssetID},
		})
	})
	if err := s.finish("transfer_cancel", err); err != nil {
		return nil, err
	}
	return tr, nil
}

// Bulk requests and completes one transfer per asset, each in its own transaction.
func (s *TransferService) Bulk(ctx context.Context, scope domain.Scope, input BulkTransferInput) ([]BulkResult, error) {
	if len(input.AssetIDs) == 0 {
		return nil, apperrors.NewValidationError("asset_ids is required", map[string]any{"field": "asset_ids"})
	}
	results := make([]BulkResult, 0, len(input.AssetIDs))
	for _, assetID := range input.AssetIDs {
		var tr *domain.AssetTransfer
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			requested, err := s.request(ctx, scope, TransferInput{AssetID: assetID, TransferDestination: input.TransferDestination})
			if err != nil {
				return err
			}
			tr, err = s.complete(ctx, scope, requested.ID)
			return err
		})
		s.metrics.RecordWorkflow("transfer_bulk", err)
		if err != nil {
			results = append(results, bulkFailure(assetID, err))
			continue
		}
		s.events.publish(ctx, transferEvent(events.EventAssetTransferred, scope, tr))
		results = append(results, BulkResult{AssetID: assetID, Success: true, Message: "transferred", RecordID: tr.ID})
	}
	return results, nil
}

// Get fetches one transfer.
func (s *TransferService) Get(ctx context.Context, scope domain.Scope, id string) (*domain.AssetTransfer, error) {
	tr, err := s.transfers.GetByID(ctx, scope.BusinessUnitID, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "transfer", map[string]any{"id": id})
	}
	return tr, nil
}

// List returns a page of transfers.
func (s *TransferService) List(ctx context.Context, scope domain.Scope, filter TransferListFilter) (ListResult[domain.AssetTransfer], error) {
	items, total, err := s.transfers.List(ctx, repository.TransferFilter{
		BusinessUnitID: scope.BusinessUnitID,
		AssetID:        filter.AssetID,
		Status:         filter.Status,
		Page:           filter.Pagination.repo(),
	})
	if err != nil {
		return ListResult[domain.AssetTransfer]{}, apperrors.MapError(err)
	}
	return newListResult(items, total, filter.Pagination), nil
}

func (s *TransferService) request(ctx context.Context, scope domain.Scope, input TransferInput) (*domain.AssetTransfer, error) {
	if err := requireText("asset_id", input.AssetID); err != nil {
		return nil, err
	}
	dest := input.TransferDestination
	toDept := optionalID(dest.ToDepartmentID)
	toUnit := optionalID(dest.ToBusinessUnitID)
	toLocation := strings.TrimSpace(dest.ToLocation)
	if toUnit != nil && *toUnit == scope.BusinessUnitID {
		toUnit = nil
	}
	if toDept == nil && toUnit == nil && toLocation == "" {
		return nil, apperrors.NewValidationError("transfer needs a destination department, location or business unit", nil)
	}

	asset, err := s.lockAsset(ctx, scope, input.AssetID)
	if err != nil {
		return nil, err
	}
	if asset.Status != domain.AssetStatusAvailable {
		return nil, apperrors.NewConflict("only available assets can be transferred", map[string]any{
			"asset_id": asset.ID,
			"status":   asset.Status,
		})
	}
	if err := s.hasPendingTransfer(ctx, asset.ID); err != nil {
		return nil, err
	}

	targetUnit := scope.BusinessUnitID
	if toUnit != nil {
		unit, err := s.businessUnits.GetByID(ctx, *toUnit)
		if err != nil {
			return nil, apperrors.NotFoundOr(err, "business unit", map[string]any{"id": *toUnit})
		}
		if !unit.IsActive {
			return nil, apperrors.NewConflict("target business unit is inactive", map[string]any{"business_unit_id": unit.ID})
		}
		targetUnit = unit.ID
	}
	if toDept != nil {
		if err := checkDepartment(ctx, s.departments, targetUnit, *toDept); err != nil {
			return nil, err
		}
	}

	tr := &domain.AssetTransfer{
		BusinessUnitID:   scope.BusinessUnitID,
		AssetID:          asset.ID,
		FromDepartmentID: asset.DepartmentID,
		ToDepartmentID:   toDept,
		FromLocation:     asset.Location,
		ToLocation:       toLocation,
		ToBusinessUnitID: toUnit,
		Status:           domain.TransferStatusPending,
		Reason:           strings.TrimSpace(dest.Reason),
		RequestedBy:      scope.ActorID(),
		Notes:            strings.TrimSpace(dest.Notes),
	}
	if err := s.transfers.Create(ctx, tr); err != nil {
		return nil, err
	}
	if err := s.audit.Record(ctx, scope, AuditChange{
		Entity:   domain.EntityTransfer,
		EntityID: tr.ID,
		Action:   domain.ActionCreate,
		NewValues: map[string]any{
			"asset_id":            tr.AssetID,
			"to_department_id":    derefString(tr.ToDepartmentID),
			"to_location":         tr.ToLocation,
			"to_business_unit_id": derefString(tr.ToBusinessUnitID),
		},
	}); err != nil {
		return nil, err
	}
	return tr, nil
}

func (s *TransferService) complete(ctx context.Context, scope domain.Scope, id string) (*domain.AssetTransfer, error) {
	tr, err := s.pending(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	asset, err := s.lockAsset(ctx, scope, tr.AssetID)
	if err != nil {
		return nil, err
	}
	if asset.Status != domain.AssetStatusAvailable {
		return nil, apperrors.NewConflict("only available assets can be transferred", map[string]any{
			"asset_id": asset.ID,
			"status":   asset.Status,
		})
	}
	before := map[string]any{
		"department_id":    derefString(asset.DepartmentID),
		"location":         asset.Location,
		"business_unit_id": asset.BusinessUnitID,
	}

	if tr.ToBusinessUnitID != nil {
		asset.BusinessUnitID = *tr.ToBusinessUnitID
		// departments are unit-scoped, so a unit move without a target department clears it
		asset.DepartmentID = nil
	}
	if tr.ToDepartmentID != nil {
		asset.DepartmentID = tr.ToDepartmentID
	}
	if tr.ToLocation != "" {
		asset.Location = tr.ToLocation
	}
	if err := s.assets.Update(ctx, asset); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	tr.Status = domain.TransferStatusCompleted
	tr.CompletedBy = scope.ActorID()
	tr.TransferDate = &now
	if err := s.transfers.Update(ctx, tr); err != nil {
		return nil, err
	}
	if err := s.audit.Record(ctx, scope, AuditChange{
		Entity:    domain.EntityAsset,
		EntityID:  asset.ID,
		Action:    domain.ActionTransfer,
		OldValues: before,
		NewValues: map[string]any{
			"transfer_id":      tr.ID,
			"department_id":    derefString(asset.DepartmentID),
			"location":         asset.Location,
			"business_unit_id": asset.BusinessUnitID,
		},
	}); err != nil {
		return nil, err
	}
	return tr, nil
}

func (s *TransferService) pending(ctx context.Context, scope domain.Scope, id string) (*domain.AssetTransfer, error) {
	tr, err := s.transfers.GetByID(ctx, scope.BusinessUnitID, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "transfer", map[string]any{"id": id})
	}
	if tr.Status != domain.TransferStatusPending {
		return nil, apperrors.NewConflict("transfer is not pending", map[string]any{"transfer_id": id, "status": tr.Status})
	}
	return tr, nil
}

func transferEvent(eventType events.EventType, scope domain.Scope, tr *domain.AssetTransfer) events.Event {
	return events.New(eventType, scope, tr.AssetID, events.AssetTransferredPayload{
		TransferID:       tr.ID,
		Status:           tr.Status,
		FromDepartmentID: tr.FromDepartmentID,
		ToDepartmentID:   tr.ToDepartmentID,
		FromLocation:     tr.FromLocation,
		ToLocation:       tr.ToLocation,
		ToBusinessUnitID: tr.ToBusinessUnitID,
	})
}

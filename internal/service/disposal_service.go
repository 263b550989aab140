package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/events"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

// DisposalService records assets leaving the organization for good.
type DisposalService struct {
	lifecycle
}

// NewDisposalService constructs the service.
func NewDisposalService(deps LifecycleDependencies) *DisposalService {
	return &DisposalService{lifecycle: newLifecycle(deps)}
}

// DisposalDetails is shared by single and bulk disposals.
type DisposalDetails struct {
	Method        domain.DisposalMethod
	DisposalValue decimal.Decimal
	DisposalDate  *time.Time
	Recipient     string
	Notes         string
}

// DisposeInput disposes one asset.
type DisposeInput struct {
	AssetID string
	DisposalDetails
}

// BulkDisposeInput disposes several assets with the same details.
type BulkDisposeInput struct {
	AssetIDs []string
	DisposalDetails
}

func (d DisposalDetails) validate() error {
	if !d.Method.Valid() {
		return apperrors.NewValidationError("unknown disposal method", map[string]any{"method": d.Method})
	}
	if d.DisposalValue.IsNegative() {
		return apperrors.NewValidationError("disposal value cannot be negative", nil)
	}
	return nil
}

// Dispose moves an available or retired asset to DISPOSED, booking the gain or loss against book value.
func (s *DisposalService) Dispose(ctx context.Context, scope domain.Scope, input DisposeInput) (*domain.AssetDisposal, error) {
	if err := requireText("asset_id", input.AssetID); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	var disp *domain.AssetDisposal
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		disp, err = s.dispose(ctx, scope, input)
		return err
	})
	if err := s.finish("dispose", err); err != nil {
		return nil, err
	}
	s.events.publish(ctx, disposedEvent(scope, disp))
	return disp, nil
}

// BulkDispose disposes each asset in its own transaction and reports per-asset outcomes.
func (s *DisposalService) BulkDispose(ctx context.Context, scope domain.Scope, input BulkDisposeInput) ([]BulkResult, error) {
	if len(input.AssetIDs) == 0 {
		return nil, apperrors.NewValidationError("asset_ids is required", map[string]any{"field": "asset_ids"})
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	results := make([]BulkResult, 0, len(input.AssetIDs))
	for _, assetID := range input.AssetIDs {
		var disp *domain.AssetDisposal
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			disp, err = s.dispose(ctx, scope, DisposeInput{AssetID: assetID, DisposalDetails: input.DisposalDetails})
			return err
		})
		s.metrics.RecordWorkflow("dispose_bulk", err)
		if err != nil {
			results = append(results, bulkFailure(assetID, err))
			continue
		}
		s.events.publish(ctx, disposedEvent(scope, disp))
		results = append(results, BulkResult{AssetID: assetID, Success: true, Message: "disposed", RecordID: disp.ID})
	}
	return results, nil
}

// Get fetches one disposal record.
func (s *DisposalService) Get(ctx context.Context, scope domain.Scope, id string) (*domain.AssetDisposal, error) {
	disp, err := s.disposals.GetByID(ctx, scope.BusinessUnitID, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "disposal", map[string]any{"id": id})
	}
	return disp, nil
}

// List returns a page of disposals.
func (s *DisposalService) List(ctx context.Context, scope domain.Scope, filter RecordListFilter) (ListResult[domain.AssetDisposal], error) {
	items, total, err := s.disposals.List(ctx, filter.repo(scope.BusinessUnitID))
	if err != nil {
		return ListResult[domain.AssetDisposal]{}, apperrors.MapError(err)
	}
	return newListResult(items, total, filter.Pagination), nil
}

func (s *DisposalService) dispose(ctx context.Context, scope domain.Scope, input DisposeInput) (*domain.AssetDisposal, error) {
	asset, err := s.lockAsset(ctx, scope, input.AssetID)
	if err != nil {
		return nil, err
	}
	if err := s.hasPendingTransfer(ctx, asset.ID); err != nil {
		return nil, err
	}
	oldStatus := asset.Status
	if err := transition(asset, domain.AssetStatusDisposed); err != nil {
		return nil, err
	}
	value := input.DisposalValue.Round(2)
	disp := &domain.AssetDisposal{
		BusinessUnitID:      scope.BusinessUnitID,
		AssetID:             asset.ID,
		DisposalDate:        dateOr(input.DisposalDate, today(s.now())),
		Method:              input.Method,
		DisposalValue:       value,
		BookValueAtDisposal: asset.CurrentBookValue,
		GainLoss:            value.Sub(asset.CurrentBookValue),
		Recipient:           strings.TrimSpace(input.Recipient),
		DisposedBy:          scope.ActorID(),
		Notes:               strings.TrimSpace(input.Notes),
	}
	if err := s.disposals.Create(ctx, disp); err != nil {
		return nil, err
	}
	if _, err := s.maintenance.CancelOpenForAsset(ctx, asset.ID); err != nil {
		return nil, err
	}
	asset.NextDepreciationDate = nil
	if err := s.assets.Update(ctx, asset); err != nil {
		return nil, err
	}
	if err := s.recordAsset(ctx, scope, asset, domain.ActionDispose, oldStatus, map[string]any{
		"disposal_id":    disp.ID,
		"method":         disp.Method,
		"disposal_value": disp.DisposalValue.StringFixed(2),
		"gain_loss":      disp.GainLoss.StringFixed(2),
	}); err != nil {
		return nil, err
	}
	return disp, nil
}

func disposedEvent(scope domain.Scope, disp *domain.AssetDisposal) events.Event {
	return events.New(events.EventAssetDisposed, scope, disp.AssetID, events.AssetDisposedPayload{
		DisposalID:    disp.ID,
		Method:        disp.Method,
		DisposalValue: disp.DisposalValue,
		GainLoss:      disp.GainLoss,
	})
}

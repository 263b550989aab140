package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/events"
	"github.com/assetdesk/asset-service/internal/repository"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

// RetirementService takes assets out of active service.
type RetirementService struct {
	lifecycle
}

// NewRetirementService constructs the service.
func NewRetirementService(deps LifecycleDependencies) *RetirementService {
	return &RetirementService{lifecycle: newLifecycle(deps)}
}

// RetireInput describes a retirement.
type RetireInput struct {
	AssetID        string
	Reason         string
	RetirementDate *time.Time
	Notes          string
}

// RecordListFilter narrows retirement and disposal listings.
type RecordListFilter struct {
	AssetID *string
	From    *time.Time
	To      *time.Time
	Pagination
}

func (f RecordListFilter) repo(businessUnitID string) repository.RecordFilter {
	return repository.RecordFilter{
		BusinessUnitID: businessUnitID,
		AssetID:        f.AssetID,
		From:           f.From,
		To:             f.To,
		Page:           f.Pagination.repo(),
	}
}

// Retire moves an available or in-maintenance asset to RETIRED and cancels its open maintenance.
func (s *RetirementService) Retire(ctx context.Context, scope domain.Scope, input RetireInput) (*domain.AssetRetirement, error) {
	if err := requireText("asset_id", input.AssetID); err != nil {
		return nil, err
	}
	if err := requireText("reason", input.Reason); err != nil {
		return nil, err
	}
	var ret *domain.AssetRetirement
	var cancelled int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		asset, err := s.lockAsset(ctx, scope, input.AssetID)
		if err != nil {
			return err
		}
		if err := s.hasPendingTransfer(ctx, asset.ID); err != nil {
			return err
		}
		oldStatus := asset.Status
		if err := transition(asset, domain.AssetStatusRetired); err != nil {
			return err
		}
		ret = &domain.AssetRetirement{
			BusinessUnitID:        scope.BusinessUnitID,
			AssetID:               asset.ID,
			RetirementDate:        dateOr(input.RetirementDate, today(s.now())),
			Reason:                strings.TrimSpace(input.Reason),
			BookValueAtRetirement: asset.CurrentBookValue,
			RetiredBy:             scope.ActorID(),
			Notes:                 strings.TrimSpace(input.Notes),
		}
		if err := s.retirements.Create(ctx, ret); err != nil {
			return err
		}
		if cancelled, err = s.maintenance.CancelOpenForAsset(ctx, asset.ID); err != nil {
			return err
		}
		if err := s.assets.Update(ctx, asset); err != nil {
			return err
		}
		return s.recordAsset(ctx, scope, asset, domain.ActionRetire, oldStatus, map[string]any{
			"retirement_id":         ret.ID,
			"reason":                ret.Reason,
			"book_value":            ret.BookValueAtRetirement.StringFixed(2),
			"maintenance_cancelled": cancelled,
		})
	})
	if err := s.finish("retire", err); err != nil {
		return nil, err
	}
	if cancelled > 0 {
		s.logger.Info("open maintenance cancelled on retirement", zap.String("asset_id", ret.AssetID), zap.Int64("count", cancelled))
	}
	s.events.publish(ctx, events.New(events.EventAssetRetired, scope, ret.AssetID, events.AssetRetiredPayload{
		RetirementID: ret.ID,
		Reason:       ret.Reason,
		BookValue:    ret.BookValueAtRetirement,
	}))
	return ret, nil
}

// Get fetches one retirement record.
func (s *RetirementService) Get(ctx context.Context, scope domain.Scope, id string) (*domain.AssetRetirement, error) {
	ret, err := s.retirements.GetByID(ctx, scope.BusinessUnitID, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "retirement", map[string]any{"id": id})
	}
	return ret, nil
}

// List returns a page of retirements.
func (s *RetirementService) List(ctx context.Context, scope domain.Scope, filter RecordListFilter) (ListResult[domain.AssetRetirement], error) {
	items, total, err := s.retirements.List(ctx, filter.repo(scope.BusinessUnitID))
	if err != nil {
		return ListResult[domain.AssetRetirement]{}, apperrors.MapError(err)
	}
	return newListResult(items, total, filter.Pagination), nil
}

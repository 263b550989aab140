package service

import (
	"context"
	"time"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/repository"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

// DashboardService aggregates register figures for a business unit.
type DashboardService struct {
	assets   repository.AssetRepository
	settings SettingsReader
	now      func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(assets repository.AssetRepository, settings SettingsReader) *DashboardService {
	return &DashboardService{assets: assets, settings: settings, now: time.Now}
}

// DashboardSummary is the asset summary plus the unit's reporting currency.
type DashboardSummary struct {
	domain.AssetSummary
	Currency    string
	GeneratedAt time.Time
}

// Summary returns counts per status, money totals and deployment figures.
func (s *DashboardService) Summary(ctx context.Context, scope domain.Scope) (*DashboardSummary, error) {
	now := s.now().UTC()
	summary, err := s.assets.Summary(ctx, scope.BusinessUnitID, now)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if summary.ByStatus == nil {
		summary.ByStatus = map[domain.AssetStatus]int64{}
	}
	for _, status := range []domain.AssetStatus{
		domain.AssetStatusAvailable,
		domain.AssetStatusDeployed,
		domain.AssetStatusInMaintenance,
		domain.AssetStatusRetired,
		domain.AssetStatusDisposed,
	} {
		if _, ok := summary.ByStatus[status]; !ok {
			summary.ByStatus[status] = 0
		}
	}
	currency := "USD"
	if s.settings != nil {
		if v, err := s.settings.Value(ctx, scope.BusinessUnitID, domain.SettingCurrency); err == nil && v != "" {
			currency = v
		}
	}
	return &DashboardSummary{AssetSummary: *summary, Currency: currency, GeneratedAt: now}, nil
}

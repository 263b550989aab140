package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/assetdesk/asset-service/internal/depreciation"
	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/repository"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

// Cache is the JSON key/value store fronting settings reads.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// SettingsReader resolves a setting value for a business unit; unknown keys resolve to "".
type SettingsReader interface {
	Value(ctx context.Context, businessUnitID, key string) (string, error)
}

// SettingsService manages system settings behind a Redis cache.
type SettingsService struct {
	settings repository.SettingRepository
	cache    Cache
	ttl      time.Duration
	tx       Transactor
	audit    *AuditService
	logger   *zap.Logger
}

// SettingsDependencies bundles collaborators for SettingsService.
type SettingsDependencies struct {
	SettingRepo repository.SettingRepository
	Cache       Cache
	CacheTTL    time.Duration
	Tx          Transactor
	Audit       *AuditService
	Logger      *zap.Logger
}

// NewSettingsService constructs the service.
func NewSettingsService(deps SettingsDependencies) *SettingsService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{
		settings: deps.SettingRepo,
		cache:    deps.Cache,
		ttl:      deps.CacheTTL,
		tx:       transactorOrDirect(deps.Tx),
		audit:    deps.Audit,
		logger:   logger,
	}
}

func settingsCacheKey(businessUnitID string) string {
	return "settings:" + businessUnitID
}

// List returns effective settings, unit overrides merged over global defaults.
func (s *SettingsService) List(ctx context.Context, scope domain.Scope) ([]domain.SystemSetting, error) {
	return s.effective(ctx, scope.BusinessUnitID)
}

// Get returns one effective setting.
func (s *SettingsService) Get(ctx context.Context, scope domain.Scope, key string) (*domain.SystemSetting, error) {
	all, err := s.effective(ctx, scope.BusinessUnitID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Key == key {
			return &all[i], nil
		}
	}
	return nil, apperrors.NewNotFound("setting", map[string]any{"key": key})
}

// Value implements SettingsReader.
func (s *SettingsService) Value(ctx context.Context, businessUnitID, key string) (string, error) {
	all, err := s.effective(ctx, businessUnitID)
	if err != nil {
		return "", err
	}
	for _, setting := range all {
		if setting.Key == key {
			return setting.Value, nil
		}
	}
	return "", nil
}

// Upsert stores a unit-level override and drops the cached copy.
func (s *SettingsService) Upsert(ctx context.Context, scope domain.Scope, key, value, description string) (*domain.SystemSetting, error) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if err := requireText("key", key); err != nil {
		return nil, err
	}
	if err := validateSettingValue(key, value); err != nil {
		return nil, err
	}

	var previous string
	if current, err := s.Value(ctx, scope.BusinessUnitID, key); err == nil {
		previous = current
	}

	bu := scope.BusinessUnitID
	setting := &domain.SystemSetting{
		BusinessUnitID: &bu,
		Key:            key,
		Value:          value,
		Description:    strings.TrimSpace(description),
		UpdatedBy:      scope.ActorID(),
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.settings.Upsert(ctx, setting); err != nil {
			return err
		}
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:    domain.EntitySetting,
			EntityID:  key,
			Action:    domain.ActionUpdate,
			OldValues: map[string]any{"value": previous},
			NewValues: map[string]any{"value": value},
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidate(ctx, scope.BusinessUnitID)
	return setting, nil
}

func (s *SettingsService) effective(ctx context.Context, businessUnitID string) ([]domain.SystemSetting, error) {
	key := settingsCacheKey(businessUnitID)
	if s.cache != nil {
		var cached []domain.SystemSetting
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("settings cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	items, err := s.settings.List(ctx, businessUnitID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if items == nil {
		items = []domain.SystemSetting{}
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, items, s.ttl); err != nil {
			s.logger.Warn("settings cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return items, nil
}

func (s *SettingsService) invalidate(ctx context.Context, businessUnitID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, settingsCacheKey(businessUnitID)); err != nil {
		s.logger.Warn("settings cache invalidation failed", zap.String("business_unit_id", businessUnitID), zap.Error(err))
	}
}

func validateSettingValue(key, value string) error {
	invalid := func(msg string) error {
		return apperrors.NewValidationError(msg, map[string]any{"key": key, "value": value})
	}
	switch key {
	case domain.SettingDefaultDepreciationMethod:
		if !depreciation.Method(value).Valid() {
			return invalid("unknown depreciation method")
		}
	case domain.SettingDefaultUsefulLifeMonths, domain.SettingDeploymentDefaultDays:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return invalid("value must be a non-negative integer")
		}
	case domain.SettingCurrency:
		if len(value) != 3 {
			return invalid("currency must be a three letter code")
		}
	}
	return nil
}

// intSetting reads an integer setting, returning fallback when unset or malformed.
func intSetting(ctx context.Context, reader SettingsReader, businessUnitID, key string, fallback int) int {
	if reader == nil {
		return fallback
	}
	raw, err := reader.Value(ctx, businessUnitID, key)
	if err != nil || raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

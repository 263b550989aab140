package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/assetdesk/asset-service/internal/depreciation"
	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/events"
	"github.com/assetdesk/asset-service/internal/repository"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

const (
	fallbackUsefulLifeMonths = 60
	fallbackMethod           = depreciation.MethodStraightLine
)

// AssetService manages the asset register.
type AssetService struct {
	assets      repository.AssetRepository
	departments repository.DepartmentRepository
	settings    SettingsReader
	tx          Transactor
	audit       *AuditService
	events      publisher
	logger      *zap.Logger
	now         func() time.Time
}

// AssetDependencies bundles collaborators for AssetService.
type AssetDependencies struct {
	AssetRepo      repository.AssetRepository
	DepartmentRepo repository.DepartmentRepository
	Settings       SettingsReader
	Tx             Transactor
	Audit          *AuditService
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewAssetService constructs the service.
func NewAssetService(deps AssetDependencies) *AssetService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetService{
		assets:      deps.AssetRepo,
		departments: deps.DepartmentRepo,
		settings:    deps.Settings,
		tx:          transactorOrDirect(deps.Tx),
		audit:       deps.Audit,
		events:      publisher{dispatcher: deps.Dispatcher},
		logger:      logger,
		now:         time.Now,
	}
}

// AssetInput is the writable part of an asset.
type AssetInput struct {
	DepartmentID          *string
	AssetTag              string
	Name                  string
	Description           string
	Category              string
	Manufacturer          string
	Model                 string
	SerialNumber          string
	Condition             domain.AssetCondition
	Location              string
	PurchaseDate          *time.Time
	PurchasePrice         decimal.Decimal
	SalvageValue          decimal.Decimal
	UsefulLifeMonths      int
	DepreciationMethod    depreciation.Method
	DecliningBalanceRate  decimal.Decimal
	TotalExpectedUnits    int64
	DepreciationStartDate *time.Time
	WarrantyExpiry        *time.Time
	Notes                 string
}

// AssetListFilter narrows asset listings.
type AssetListFilter struct {
	Statuses       []domain.AssetStatus
	Category       *string
	DepartmentID   *string
	Search         *string
	IncludeDeleted bool
	Pagination
}

// Create registers a new asset in scope's business unit.
func (s *AssetService) Create(ctx context.Context, scope domain.Scope, input AssetInput) (*domain.Asset, error) {
	if err := requireText("name", input.Name); err != nil {
		return nil, err
	}
	asset := &domain.Asset{
		BusinessUnitID: scope.BusinessUnitID,
		Status:         domain.AssetStatusAvailable,
		CreatedBy:      scope.ActorID(),
	}
	if err := s.apply(ctx, scope, asset, input); err != nil {
		return nil, err
	}
	if asset.AssetTag == "" {
		asset.AssetTag = generateAssetTag()
	}
	asset.ResetDepreciation()

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.assets.Create(ctx, asset); err != nil {
			return err
		}
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:    domain.EntityAsset,
			EntityID:  asset.ID,
			Action:    domain.ActionCreate,
			NewValues: assetSnapshot(asset),
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("asset created", zap.String("asset_id", asset.ID), zap.String("asset_tag", asset.AssetTag))
	s.events.publish(ctx, events.New(events.EventAssetCreated, scope, asset.ID, events.AssetCreatedPayload{
		AssetTag: asset.AssetTag,
		Name:     asset.Name,
		Category: asset.Category,
	}))
	return asset, nil
}

// Update replaces the writable fields of an asset. Status only changes through lifecycle workflows.
func (s *AssetService) Update(ctx context.Context, scope domain.Scope, id string, input AssetInput) (*domain.Asset, error) {
	if err := requireText("name", input.Name); err != nil {
		return nil, err
	}
	var asset *domain.Asset
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.lockActive(ctx, scope, id)
		if err != nil {
			return err
		}
		before := assetSnapshot(current)
		oldParams := current.DepreciationParams()

		updated := *current
		if err := s.apply(ctx, scope, &updated, inheritDepreciation(input, current)); err != nil {
			return err
		}
		if updated.AssetTag == "" {
			updated.AssetTag = current.AssetTag
		}
		if depreciationChanged(oldParams, updated.DepreciationParams()) {
			if current.DepreciationPeriods > 0 {
				return apperrors.NewConflict("depreciation parameters cannot change after periods were posted", map[string]any{
					"asset_id": id,
					"periods":  current.DepreciationPeriods,
				})
			}
			updated.ResetDepreciation()
		}
		if err := s.assets.Update(ctx, &updated); err != nil {
			return err
		}
		asset = &updated
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:    domain.EntityAsset,
			EntityID:  id,
			Action:    domain.ActionUpdate,
			OldValues: before,
			NewValues: assetSnapshot(asset),
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return asset, nil
}

// Get fetches an asset, deleted or not.
func (s *AssetService) Get(ctx context.Context, scope domain.Scope, id string) (*domain.Asset, error) {
	asset, err := s.assets.GetByID(ctx, scope.BusinessUnitID, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "asset", map[string]any{"id": id})
	}
	return asset, nil
}

// List returns a page of assets.
func (s *AssetService) List(ctx context.Context, scope domain.Scope, filter AssetListFilter) (ListResult[domain.Asset], error) {
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return ListResult[domain.Asset]{}, apperrors.NewValidationError("unknown asset status", map[string]any{"status": st})
		}
	}
	items, total, err := s.assets.List(ctx, repository.AssetFilter{
		BusinessUnitID: scope.BusinessUnitID,
		Statuses:       filter.Statuses,
		Category:       filter.Category,
		DepartmentID:   filter.DepartmentID,
		Search:         filter.Search,
		IncludeDeleted: filter.IncludeDeleted,
		Page:           filter.Pagination.repo(),
	})
	if err != nil {
		return ListResult[domain.Asset]{}, apperrors.MapError(err)
	}
	return newListResult(items, total, filter.Pagination), nil
}

// Delete soft-deletes an asset that is not out on deployment.
func (s *AssetService) Delete(ctx context.Context, scope domain.Scope, id string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		asset, err := s.lockActive(ctx, scope, id)
		if err != nil {
			return err
		}
		if asset.Status == domain.AssetStatusDeployed {
			return apperrors.NewConflict("deployed asset cannot be deleted", map[string]any{"asset_id": id})
		}
		if err := s.assets.SoftDelete(ctx, scope.BusinessUnitID, id); err != nil {
			return apperrors.NotFoundOr(err, "asset", map[string]any{"id": id})
		}
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:    domain.EntityAsset,
			EntityID:  id,
			Action:    domain.ActionDelete,
			OldValues: assetSnapshot(asset),
		})
	})
	return apperrors.MapError(err)
}

// Restore brings a soft-deleted asset back.
func (s *AssetService) Restore(ctx context.Context, scope domain.Scope, id string) (*domain.Asset, error) {
	var asset *domain.Asset
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.assets.GetByID(ctx, scope.BusinessUnitID, id)
		if err != nil {
			return apperrors.NotFoundOr(err, "asset", map[string]any{"id": id})
		}
		if !current.IsDeleted {
			return apperrors.NewConflict("asset is not deleted", map[string]any{"asset_id": id})
		}
		if err := s.assets.Restore(ctx, scope.BusinessUnitID, id); err != nil {
			return apperrors.NotFoundOr(err, "asset", map[string]any{"id": id})
		}
		current.IsDeleted = false
		current.DeletedAt = nil
		asset = current
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:   domain.EntityAsset,
			EntityID: id,
			Action:   domain.ActionRestore,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return asset, nil
}

// AuditTrail lists the audit entries recorded against an asset.
func (s *AssetService) AuditTrail(ctx context.Context, scope domain.Scope, id string, page Pagination) (ListResult[domain.AuditLog], error) {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return ListResult[domain.AuditLog]{}, err
	}
	return s.audit.ForEntity(ctx, scope, domain.EntityAsset, id, page)
}

// lockActive row-locks a non-deleted asset.
func (s *AssetService) lockActive(ctx context.Context, scope domain.Scope, id string) (*domain.Asset, error) {
	return lockAsset(ctx, s.assets, scope, id)
}

func lockAsset(ctx context.Context, assets repository.AssetRepository, scope domain.Scope, id string) (*domain.Asset, error) {
	asset, err := assets.Lock(ctx, scope.BusinessUnitID, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "asset", map[string]any{"id": id})
	}
	if asset.IsDeleted {
		return nil, apperrors.NewNotFound("asset", map[string]any{"id": id})
	}
	return asset, nil
}

func (s *AssetService) apply(ctx context.Context, scope domain.Scope, asset *domain.Asset, input AssetInput) error {
	deptID := optionalID(input.DepartmentID)
	if deptID != nil && !sameID(deptID, asset.DepartmentID) {
		if err := checkDepartment(ctx, s.departments, scope.BusinessUnitID, *deptID); err != nil {
			return err
		}
	}
	condition := input.Condition
	if condition == "" {
		condition = asset.Condition
	}
	if condition == "" {
		condition = domain.ConditionNew
	}
	if !condition.Valid() {
		return apperrors.NewValidationError("unknown asset condition", map[string]any{"condition": condition})
	}

	asset.DepartmentID = deptID
	asset.AssetTag = strings.ToUpper(strings.TrimSpace(input.AssetTag))
	asset.Name = strings.TrimSpace(input.Name)
	asset.Description = strings.TrimSpace(input.Description)
	asset.Category = strings.TrimSpace(input.Category)
	asset.Manufacturer = strings.TrimSpace(input.Manufacturer)
	asset.Model = strings.TrimSpace(input.Model)
	asset.SerialNumber = strings.TrimSpace(input.SerialNumber)
	asset.Condition = condition
	asset.Location = strings.TrimSpace(input.Location)
	asset.PurchaseDate = input.PurchaseDate
	asset.WarrantyExpiry = input.WarrantyExpiry
	asset.Notes = strings.TrimSpace(input.Notes)

	return s.applyDepreciation(ctx, scope, asset, input)
}

// applyDepreciation fills the depreciation setup, defaulting method and life from settings.
func (s *AssetService) applyDepreciation(ctx context.Context, scope domain.Scope, asset *domain.Asset, input AssetInput) error {
	if input.PurchasePrice.IsNegative() {
		return apperrors.NewValidationError("purchase price cannot be negative", nil)
	}
	asset.PurchasePrice = input.PurchasePrice.Round(2)
	asset.SalvageValue = input.SalvageValue.Round(2)
	asset.DecliningBalanceRate = input.DecliningBalanceRate
	asset.TotalExpectedUnits = input.TotalExpectedUnits

	if !asset.PurchasePrice.IsPositive() {
		asset.DepreciationMethod = ""
		asset.UsefulLifeMonths = 0
		asset.DepreciationStartDate = nil
		return nil
	}

	method := input.DepreciationMethod
	if method == "" {
		method = fallbackMethod
		if s.settings != nil {
			if v, err := s.settings.Value(ctx, scope.BusinessUnitID, domain.SettingDefaultDepreciationMethod); err == nil && v != "" {
				method = depreciation.Method(v)
			}
		}
	}
	life := input.UsefulLifeMonths
	if life == 0 {
		life = intSetting(ctx, s.settings, scope.BusinessUnitID, domain.SettingDefaultUsefulLifeMonths, fallbackUsefulLifeMonths)
	}
	start := input.DepreciationStartDate
	if start == nil {
		start = input.PurchaseDate
	}
	if start == nil {
		d := today(s.now())
		start = &d
	}

	asset.DepreciationMethod = method
	asset.UsefulLifeMonths = life
	asset.DepreciationStartDate = start

	if err := asset.DepreciationParams().Validate(); err != nil {
		return depreciationValidation(err)
	}
	return nil
}

// inheritDepreciation keeps the stored schedule for any depreciation field the update leaves out.
func inheritDepreciation(input AssetInput, current *domain.Asset) AssetInput {
	if input.DepreciationMethod == "" {
		input.DepreciationMethod = current.DepreciationMethod
	}
	if input.UsefulLifeMonths == 0 {
		input.UsefulLifeMonths = current.UsefulLifeMonths
	}
	if input.DepreciationStartDate == nil && current.DepreciationStartDate != nil {
		start := *current.DepreciationStartDate
		input.DepreciationStartDate = &start
	}
	if input.DecliningBalanceRate.IsZero() {
		input.DecliningBalanceRate = current.DecliningBalanceRate
	}
	if input.TotalExpectedUnits == 0 {
		input.TotalExpectedUnits = current.TotalExpectedUnits
	}
	return input
}

func depreciationValidation(err error) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return apperrors.NewValidationError(err.Error(), nil)
}

func depreciationChanged(a, b depreciation.Params) bool {
	return a.Method != b.Method ||
		!a.Cost.Equal(b.Cost) ||
		!a.Salvage.Equal(b.Salvage) ||
		a.UsefulLifeMonths != b.UsefulLifeMonths ||
		!a.DecliningRate.Equal(b.DecliningRate) ||
		a.TotalUnits != b.TotalUnits ||
		!a.StartDate.Equal(b.StartDate)
}

func checkDepartment(ctx context.Context, departments repository.DepartmentRepository, businessUnitID, id string) error {
	dept, err := departments.GetByID(ctx, businessUnitID, id)
	if err != nil {
		return apperrors.NotFoundOr(err, "department", map[string]any{"id": id})
	}
	if dept.IsDeleted {
		return apperrors.NewNotFound("department", map[string]any{"id": id})
	}
	return nil
}

func generateAssetTag() string {
	return "AST-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func assetSnapshot(a *domain.Asset) map[string]any {
	return map[string]any{
		"asset_tag":           a.AssetTag,
		"name":                a.Name,
		"category":            a.Category,
		"status":              a.Status,
		"condition":           a.Condition,
		"location":            a.Location,
		"department_id":       derefString(a.DepartmentID),
		"business_unit_id":    a.BusinessUnitID,
		"purchase_price":      a.PurchasePrice.StringFixed(2),
		"salvage_value":       a.SalvageValue.StringFixed(2),
		"depreciation_method": a.DepreciationMethod,
		"useful_life_months":  a.UsefulLifeMonths,
		"current_book_value":  a.CurrentBookValue.StringFixed(2),
	}
}

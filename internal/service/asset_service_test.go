package service

import (
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetdesk/asset-service/internal/depreciation"
	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/events"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

func TestAssetCreateAppliesDefaults(t *testing.T) {
	f := newFixture(t)
	svc := f.assetService()

	asset, err := svc.Create(f.ctx, f.scope, AssetInput{Name: " Dell XPS ", PurchasePrice: decimal.NewFromInt(1500)})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^AST-[0-9A-F]{8}$`), asset.AssetTag)
	assert.Equal(t, "Dell XPS", asset.Name)
	assert.Equal(t, domain.AssetStatusAvailable, asset.Status)
	assert.Equal(t, domain.ConditionNew, asset.Condition)
	assert.Equal(t, depreciation.MethodStraightLine, asset.DepreciationMethod)
	assert.Equal(t, fallbackUsefulLifeMonths, asset.UsefulLifeMonths)
	require.NotNil(t, asset.DepreciationStartDate)
	assert.Equal(t, date(2026, time.March, 15), *asset.DepreciationStartDate)
	assert.True(t, asset.CurrentBookValue.Equal(decimal.NewFromInt(1500)))
	require.NotNil(t, asset.NextDepreciationDate)
	assert.Equal(t, date(2026, time.April, 15), *asset.NextDepreciationDate)
	assert.Equal(t, f.scope.ActorID(), asset.CreatedBy)
	assert.Equal(t, []events.EventType{events.EventAssetCreated}, f.events.types())
}

func TestAssetCreateReadsDefaultsFromSettings(t *testing.T) {
	f := newFixture(t)
	_, err := f.settings.Upsert(f.ctx, f.scope, domain.SettingDefaultDepreciationMethod, string(depreciation.MethodSumOfYearsDigits), "")
	require.NoError(t, err)
	_, err = f.settings.Upsert(f.ctx, f.scope, domain.SettingDefaultUsefulLifeMonths, "36", "")
	require.NoError(t, err)

	purchased := date(2025, time.June, 30)
	asset, err := f.assetService().Create(f.ctx, f.scope, AssetInput{
		Name:          "Forklift",
		PurchaseDate:  &purchased,
		PurchasePrice: decimal.NewFromInt(36000),
	})
	require.NoError(t, err)
	assert.Equal(t, depreciation.MethodSumOfYearsDigits, asset.DepreciationMethod)
	assert.Equal(t, 36, asset.UsefulLifeMonths)
	assert.Equal(t, purchased, *asset.DepreciationStartDate)
}

func TestAssetCreateWithoutPriceHasNoDepreciation(t *testing.T) {
	f := newFixture(t)
	asset, err := f.assetService().Create(f.ctx, f.scope, AssetInput{
		Name:               "Donated chair",
		DepreciationMethod: depreciation.MethodStraightLine,
		UsefulLifeMonths:   12,
	})
	require.NoError(t, err)
	assert.Empty(t, asset.DepreciationMethod)
	assert.Zero(t, asset.UsefulLifeMonths)
	assert.Nil(t, asset.DepreciationStartDate)
	assert.Nil(t, asset.NextDepreciationDate)
	assert.False(t, asset.Depreciable())
}

func TestAssetCreateRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	svc := f.assetService()
	cases := map[string]AssetInput{
		"missing name":      {PurchasePrice: decimal.NewFromInt(10)},
		"negative price":    {Name: "x", PurchasePrice: decimal.NewFromInt(-1)},
		"salvage over cost": {Name: "x", PurchasePrice: decimal.NewFromInt(100), SalvageValue: decimal.NewFromInt(200)},
		"unknown condition": {Name: "x", Condition: "BROKEN"},
		"units without total": {
			Name:               "x",
			PurchasePrice:      decimal.NewFromInt(100),
			DepreciationMethod: depreciation.MethodUnitsOfProduction,
		},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(f.ctx, f.scope, input)
			assert.Equal(t, apperrors.CodeValidation, errCode(err))
		})
	}

	_, err := svc.Create(f.ctx, f.scope, AssetInput{Name: "x", DepartmentID: strPtr("nope")})
	assert.Equal(t, apperrors.CodeNotFound, errCode(err))
}

func TestAssetCreateDuplicateTagConflicts(t *testing.T) {
	f := newFixture(t)
	svc := f.assetService()
	_, err := svc.Create(f.ctx, f.scope, AssetInput{Name: "one", AssetTag: "lap-001"})
	require.NoError(t, err)

	_, err = svc.Create(f.ctx, f.scope, AssetInput{Name: "two", AssetTag: "LAP-001"})
	assert.Equal(t, apperrors.CodeConflict, errCode(err))

	other := f.addUnit(t, "EU")
	_, err = svc.Create(f.ctx, domain.Scope{BusinessUnitID: other.ID}, AssetInput{Name: "three", AssetTag: "LAP-001"})
	assert.NoError(t, err)
}

func TestAssetUpdateLocksDepreciationAfterPosting(t *testing.T) {
	f := newFixture(t)
	svc := f.assetService()
	asset := f.addAsset(t, "Laptop", 1200)

	input := AssetInput{
		Name:               "Laptop 14\"",
		PurchaseDate:       asset.PurchaseDate,
		PurchasePrice:      asset.PurchasePrice,
		UsefulLifeMonths:   24,
		DepreciationMethod: depreciation.MethodStraightLine,
	}
	updated, err := svc.Update(f.ctx, f.scope, asset.ID, input)
	require.NoError(t, err)
	assert.Equal(t, 24, updated.UsefulLifeMonths)
	assert.Equal(t, asset.AssetTag, updated.AssetTag)

	_, err = f.depreciationService().DepreciateAsset(f.ctx, f.scope, asset.ID, fixedNow)
	require.NoError(t, err)

	input.UsefulLifeMonths = 36
	_, err = svc.Update(f.ctx, f.scope, asset.ID, input)
	assert.Equal(t, apperrors.CodeConflict, errCode(err))

	input.UsefulLifeMonths = 24
	input.Location = "Storage"
	updated, err = svc.Update(f.ctx, f.scope, asset.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Storage", updated.Location)
	assert.Equal(t, 2, updated.DepreciationPeriods)
}

func TestAssetUpdateKeepsScheduleWhenDatesOmitted(t *testing.T) {
	f := newFixture(t)
	svc := f.assetService()
	created, err := svc.Create(f.ctx, f.scope, AssetInput{Name: "Dock", PurchasePrice: decimal.NewFromInt(1200)})
	require.NoError(t, err)
	require.NotNil(t, created.DepreciationStartDate)

	svc.now = func() time.Time { return fixedNow.AddDate(0, 0, 3) }
	renamed, err := svc.Update(f.ctx, f.scope, created.ID, AssetInput{Name: "USB-C dock", PurchasePrice: decimal.NewFromInt(1200)})
	require.NoError(t, err)
	assert.Equal(t, *created.DepreciationStartDate, *renamed.DepreciationStartDate)
	assert.Equal(t, *created.NextDepreciationDate, *renamed.NextDepreciationDate)
	assert.Equal(t, created.DepreciationMethod, renamed.DepreciationMethod)
	assert.Equal(t, created.UsefulLifeMonths, renamed.UsefulLifeMonths)

	posted, err := f.depreciationService().DepreciateAsset(f.ctx, f.scope, created.ID, date(2026, time.May, 20))
	require.NoError(t, err)
	require.Equal(t, 2, posted.Periods)

	renamed, err = svc.Update(f.ctx, f.scope, created.ID, AssetInput{Name: "Thunderbolt dock", PurchasePrice: decimal.NewFromInt(1200)})
	require.NoError(t, err)
	assert.Equal(t, "Thunderbolt dock", renamed.Name)
	assert.Equal(t, 2, renamed.DepreciationPeriods)
	assert.Equal(t, date(2026, time.March, 15), *renamed.DepreciationStartDate)
}

func TestAssetDeleteAndRestore(t *testing.T) {
	f := newFixture(t)
	svc := f.assetService()
	asset := f.addAsset(t, "Monitor", 300)

	_, err := svc.Restore(f.ctx, f.scope, asset.ID)
	assert.Equal(t, apperrors.CodeConflict, errCode(err))

	require.NoError(t, svc.Delete(f.ctx, f.scope, asset.ID))
	list, err := svc.List(f.ctx, f.scope, AssetListFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)

	list, err = svc.List(f.ctx, f.scope, AssetListFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)

	restored, err := svc.Restore(f.ctx, f.scope, asset.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)

	trail, err := svc.AuditTrail(f.ctx, f.scope, asset.ID, Pagination{})
	require.NoError(t, err)
	actions := make([]domain.AuditAction, 0, len(trail.Items))
	for _, l := range trail.Items {
		actions = append(actions, l.Action)
	}
	assert.Equal(t, []domain.AuditAction{domain.ActionRestore, domain.ActionDelete, domain.ActionCreate}, actions)
}

func TestAssetDeleteDeployedConflicts(t *testing.T) {
	f := newFixture(t)
	asset := f.addAsset(t, "Phone", 800)
	emp := f.addEmployee(t, "E-1", domain.EmployeeStatusActive)
	_, err := f.deploymentService().Deploy(f.ctx, f.scope, DeployInput{AssetID: asset.ID, EmployeeID: emp.ID})
	require.NoError(t, err)

	err = f.assetService().Delete(f.ctx, f.scope, asset.ID)
	assert.Equal(t, apperrors.CodeConflict, errCode(err))
}

func TestAssetListFiltersAndScopes(t *testing.T) {
	f := newFixture(t)
	svc := f.assetService()
	f.addAsset(t, "Laptop A", 1000)
	f.addAsset(t, "Laptop B", 1000)
	other := f.addUnit(t, "EU")
	_, err := svc.Create(f.ctx, domain.Scope{BusinessUnitID: other.ID}, AssetInput{Name: "Foreign"})
	require.NoError(t, err)

	list, err := svc.List(f.ctx, f.scope, AssetListFilter{Pagination: Pagination{Page: 1, PageSize: 1}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.Total)
	assert.Len(t, list.Items, 1)

	list, err = svc.List(f.ctx, f.scope, AssetListFilter{Statuses: []domain.AssetStatus{domain.AssetStatusDeployed}})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
	assert.NotNil(t, list.Items)

	_, err = svc.List(f.ctx, f.scope, AssetListFilter{Statuses: []domain.AssetStatus{"LOST"}})
	assert.Equal(t, apperrors.CodeValidation, errCode(err))
}

func TestAssetGetIsTenantScoped(t *testing.T) {
	f := newFixture(t)
	asset := f.addAsset(t, "Router", 400)
	other := f.addUnit(t, "EU")

	_, err := f.assetService().Get(f.ctx, domain.Scope{BusinessUnitID: other.ID}, asset.ID)
	assert.Equal(t, apperrors.CodeNotFound, errCode(err))
}

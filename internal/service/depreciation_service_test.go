package service

import (
	"fmt"
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

func TestDepreciateAssetPostsDuePeriods(t *testing.T) {
	f := newFixture(t)
	svc := f.depreciationService()
	asset := f.addAsset(t, "Laptop", 1200)

	result, err := svc.DepreciateAsset(f.ctx, f.scope, asset.ID, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Periods)
	assert.True(t, result.Amount.Equal(decimal.NewFromInt(200)), result.Amount.String())
	assert.True(t, result.BookValue.Equal(decimal.NewFromInt(1000)))
	assert.False(t, result.FullyDepreciated)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, date(2026, time.February, 1), result.Entries[0].PeriodDate)
	assert.Equal(t, date(2026, time.March, 1), result.Entries[1].PeriodDate)

	stored := f.asset(t, asset.ID)
	assert.Equal(t, 2, stored.DepreciationPeriods)
	assert.True(t, stored.AccumulatedDepreciation.Equal(decimal.NewFromInt(200)))
	require.NotNil(t, stored.NextDepreciationDate)
	assert.Equal(t, date(2026, time.April, 1), *stored.NextDepreciationDate)
	require.NotNil(t, stored.LastDepreciationDate)
	assert.Equal(t, date(2026, time.March, 1), *stored.LastDepreciationDate)

	again, err := svc.DepreciateAsset(f.ctx, f.scope, asset.ID, fixedNow)
	require.NoError(t, err)
	assert.Zero(t, again.Periods)

	history, err := svc.History(f.ctx, f.scope, asset.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	assert.Contains(t, f.events.types(), events.EventAssetDepreciated)
}

func TestDepreciateAssetCatchesUpToFullDepreciation(t *testing.T) {
	f := newFixture(t)
	svc := f.depreciationService()
	asset := f.addAsset(t, "Laptop", 1000)

	result, err := svc.DepreciateAsset(f.ctx, f.scope, asset.ID, date(2030, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, 12, result.Periods)
	assert.True(t, result.FullyDepreciated)
	assert.True(t, result.BookValue.IsZero(), result.BookValue.String())
	assert.True(t, result.Amount.Equal(decimal.NewFromInt(1000)), result.Amount.String())

	stored := f.asset(t, asset.ID)
	assert.True(t, stored.IsFullyDepreciated)
	assert.Nil(t, stored.NextDepreciationDate)

	again, err := svc.DepreciateAsset(f.ctx, f.scope, asset.ID, date(2031, time.January, 1))
	require.NoError(t, err)
	assert.Zero(t, again.Periods)
}

func TestDepreciateAssetRejectsUnsuitableAssets(t *testing.T) {
	f := newFixture(t)
	svc := f.depreciationService()
	free, err := f.assetService().Create(f.ctx, f.scope, AssetInput{Name: "Gift"})
	require.NoError(t, err)

	_, err = svc.DepreciateAsset(f.ctx, f.scope, free.ID, fixedNow)
	assert.Equal(t, apperrors.CodeConflict, errCode(err))

	_, err = svc.Schedule(f.ctx, f.scope, free.ID)
	assert.Equal(t, apperrors.CodeConflict, errCode(err))

	_, err = svc.DepreciateAsset(f.ctx, f.scope, "missing", fixedNow)
	assert.Equal(t, apperrors.CodeNotFound, errCode(err))

	sold := f.addAsset(t, "Old laptop", 500)
	_, err = f.disposalService().Dispose(f.ctx, f.scope, DisposeInput{AssetID: sold.ID, DisposalDetails: DisposalDetails{Method: domain.DisposalSale}})
	require.NoError(t, err)
	_, err = svc.DepreciateAsset(f.ctx, f.scope, sold.ID, fixedNow)
	assert.Equal(t, apperrors.CodeConflict, errCode(err))
}

func TestRunDueCoversEveryUnit(t *testing.T) {
	f := newFixture(t)
	svc := f.depreciationService()
	f.addAsset(t, "Laptop", 1200)
	f.addAsset(t, "Phone", 600)
	_, err := f.assetService().Create(f.ctx, f.scope, AssetInput{Name: "Chair"})
	require.NoError(t, err)

	other := f.addUnit(t, "EU")
	purchased := date(2026, time.January, 1)
	foreign, err := f.assetService().Create(f.ctx, domain.Scope{BusinessUnitID: other.ID}, AssetInput{
		Name:             "Projector",
		PurchaseDate:     &purchased,
		PurchasePrice:    decimal.NewFromInt(2400),
		UsefulLifeMonths: 24,
	})
	require.NoError(t, err)

	scoped, err := svc.RunDue(f.ctx, domain.Scope{}, &other.ID, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 1, scoped.Processed)
	require.Len(t, scoped.Results, 1)
	assert.Equal(t, foreign.ID, scoped.Results[0].AssetID)
	assert.Equal(t, 2, scoped.Results[0].Periods)

	all, err := svc.RunDue(f.ctx, domain.Scope{}, nil, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 2, all.Processed)
	assert.Zero(t, all.Failed)
	assert.Equal(t, fixedNow, all.AsOf)

	stored := f.assetIn(t, other.ID, foreign.ID)
	assert.Equal(t, 2, stored.DepreciationPeriods)

	logs, err := f.audit.ForEntity(f.ctx, domain.Scope{BusinessUnitID: other.ID}, domain.EntityAsset, foreign.ID, Pagination{})
	require.NoError(t, err)
	require.NotEmpty(t, logs.Items)
	assert.Equal(t, domain.ActionDepreciate, logs.Items[0].Action)
	assert.Nil(t, logs.Items[0].ActorUserID)

	idle, err := svc.RunDue(f.ctx, domain.Scope{}, nil, fixedNow)
	require.NoError(t, err)
	assert.Zero(t, idle.Processed)
	assert.Empty(t, idle.Results)
}

func TestRunDueGetsPastBatchOfSkippedAssets(t *testing.T) {
	f := newFixture(t)
	svc := f.depreciationService()
	stuck := date(2026, time.January, 15)
	for i := 0; i < dueBatchSize; i++ {
		require.NoError(t, f.repos.Assets.Create(f.ctx, &domain.Asset{
			BusinessUnitID:       f.unit.ID,
			AssetTag:             fmt.Sprintf("STUCK-%03d", i),
			Name:                 "Unpriced",
			Status:               domain.AssetStatusAvailable,
			DepreciationMethod:   depreciation.MethodStraightLine,
			NextDepreciationDate: &stuck,
		}))
	}
	laptop := f.addAsset(t, "Laptop", 1200)

	result, err := svc.RunDue(f.ctx, domain.Scope{}, nil, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, dueBatchSize, result.Skipped)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 2, f.asset(t, laptop.ID).DepreciationPeriods)
}

func TestValuationComparesPostedAndProjected(t *testing.T) {
	f := newFixture(t)
	svc := f.depreciationService()
	laptop := f.addAsset(t, "Laptop", 1200)

	v, err := svc.Valuation(f.ctx, f.scope, laptop.ID, fixedNow)
	require.NoError(t, err)
	assert.True(t, v.BookValue.Equal(decimal.NewFromInt(1200)))
	assert.True(t, v.ProjectedBookValue.Equal(decimal.NewFromInt(1000)), v.ProjectedBookValue.String())
	assert.True(t, v.Unposted.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 2, v.ElapsedPeriods)
	assert.Zero(t, v.PostedPeriods)

	_, err = svc.DepreciateAsset(f.ctx, f.scope, laptop.ID, fixedNow)
	require.NoError(t, err)
	v, err = svc.Valuation(f.ctx, f.scope, laptop.ID, fixedNow)
	require.NoError(t, err)
	assert.True(t, v.Unposted.IsZero())
	assert.Equal(t, 2, v.PostedPeriods)

	v, err = svc.Valuation(f.ctx, f.scope, laptop.ID, date(2030, time.January, 1))
	require.NoError(t, err)
	assert.True(t, v.ProjectedBookValue.IsZero())
	assert.Equal(t, 12, v.ElapsedPeriods)

	chair, err := f.assetService().Create(f.ctx, f.scope, AssetInput{Name: "Chair"})
	require.NoError(t, err)
	_, err = svc.Valuation(f.ctx, f.scope, chair.ID, fixedNow)
	assert.Equal(t, apperrors.CodeConflict, errCode(err))
}

func TestUnitsOfProductionUsage(t *testing.T) {
	f := newFixture(t)
	svc := f.depreciationService()
	purchased := date(2026, time.January, 1)
	asset, err := f.assetService().Create(f.ctx, f.scope, AssetInput{
		Name:               "Printer",
		PurchaseDate:       &purchased,
		PurchasePrice:      decimal.NewFromInt(1000),
		UsefulLifeMonths:   24,
		DepreciationMethod: depreciation.MethodUnitsOfProduction,
		TotalExpectedUnits: 1000,
	})
	require.NoError(t, err)

	_, err = svc.RecordUsage(f.ctx, f.scope, asset.ID, 0)
	assert.Equal(t, apperrors.CodeValidation, errCode(err))

	updated, err := svc.RecordUsage(f.ctx, f.scope, asset.ID, 250)
	require.NoError(t, err)
	assert.EqualValues(t, 250, updated.UnitsUsed)

	result, err := svc.DepreciateAsset(f.ctx, f.scope, asset.ID, fixedNow)
	require.NoError(t, err)
	assert.True(t, result.Amount.Equal(decimal.NewFromInt(250)), result.Amount.String())
	assert.True(t, result.BookValue.Equal(decimal.NewFromInt(750)))
	assert.EqualValues(t, 250, result.Entries[0].Units)
	assert.EqualValues(t, 250, f.asset(t, asset.ID).UnitsDepreciated)

	require.Len(t, result.Entries, 1)

	idle, err := svc.DepreciateAsset(f.ctx, f.scope, asset.ID, date(2026, time.April, 20))
	require.NoError(t, err)
	assert.Zero(t, idle.Periods)
	assert.Equal(t, date(2026, time.May, 1), *f.asset(t, asset.ID).NextDepreciationDate)

	batch, err := svc.RunDue(f.ctx, domain.Scope{}, nil, date(2026, time.May, 5))
	require.NoError(t, err)
	assert.Zero(t, batch.Processed)
	assert.Equal(t, 1, batch.Skipped)
	assert.Equal(t, date(2026, time.June, 1), *f.asset(t, asset.ID).NextDepreciationDate)

	_, err = svc.RecordUsage(f.ctx, f.scope, asset.ID, 100)
	require.NoError(t, err)
	later, err := svc.DepreciateAsset(f.ctx, f.scope, asset.ID, date(2026, time.June, 2))
	require.NoError(t, err)
	require.Len(t, later.Entries, 1)
	assert.EqualValues(t, 100, later.Entries[0].Units)
	assert.Equal(t, date(2026, time.June, 1), later.Entries[0].PeriodDate)
	assert.Equal(t, 2, later.Entries[0].PeriodNumber)

	history, err := svc.History(f.ctx, f.scope, asset.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	for _, entry := range history {
		assert.True(t, entry.Amount.IsPositive())
	}

	straight := f.addAsset(t, "Laptop", 1200)
	_, err = svc.RecordUsage(f.ctx, f.scope, straight.ID, 10)
	assert.Equal(t, apperrors.CodeConflict, errCode(err))
}

func TestScheduleAndCalculate(t *testing.T) {
	f := newFixture(t)
	svc := f.depreciationService()
	asset := f.addAsset(t, "Laptop", 1200)

	entries, err := svc.Schedule(f.ctx, f.scope, asset.ID)
	require.NoError(t, err)
	require.Len(t, entries, 12)
	assert.True(t, entries[11].BookValue.IsZero())
	assert.Equal(t, date(2027, time.January, 1), entries[11].Date)

	_, err = svc.Calculate(depreciation.Params{Method: "MAGIC", Cost: decimal.NewFromInt(1), UsefulLifeMonths: 1}, nil)
	assert.Equal(t, apperrors.CodeValidation, errCode(err))

	_, err = svc.Calculate(depreciation.Params{
		Method:           depreciation.MethodUnitsOfProduction,
		Cost:             decimal.NewFromInt(100),
		UsefulLifeMonths: 2,
		TotalUnits:       10,
	}, []int64{5, -1})
	assert.Equal(t, apperrors.CodeValidation, errCode(err))
}

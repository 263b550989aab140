package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetdesk/asset-service/internal/domain"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

func TestRetireCapturesBookValueAndCancelsMaintenance(t *testing.T) {
	f := newFixture(t)
	asset := f.addAsset(t, "Laptop", 1200)
	_, err := f.depreciationService().DepreciateAsset(f.ctx, f.scope, asset.ID, fixedNow)
	require.NoError(t, err)
	m, err := f.maintenanceService().Schedule(f.ctx, f.scope, MaintenanceInput{AssetID: asset.ID, Type: domain.MaintenanceInspection})
	require.NoError(t, err)

	ret, err := f.retirementService().Retire(f.ctx, f.scope, RetireInput{AssetID: asset.ID, Reason: " end of life "})
	require.NoError(t, err)
	assert.Equal(t, "end of life", ret.Reason)
	assert.Equal(t, date(2026, time.March, 15), ret.RetirementDate)
	assert.True(t, ret.BookValueAtRetirement.Equal(decimal.NewFromInt(1000)), ret.BookValueAtRetirement.String())
	assert.Equal(t, domain.AssetStatusRetired, f.asset(t, asset.ID).Status)

	cancelled, err := f.maintenanceService().Get(f.ctx, f.scope, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MaintenanceStatusCancelled, cancelled.Status)

	_, err = f.retirementService().Retire(f.ctx, f.scope, RetireInput{AssetID: asset.ID, Reason: "again"})
	assert.Equal(t, apperrors.CodeConflict, errCode(err))
}

func TestRetireRules(t *testing.T) {
	f := newFixture(t)
	svc := f.retirementService()
	asset := f.addAsset(t, "Laptop", 1200)

	_, err := svc.Retire(f.ctx, f.scope, RetireInput{AssetID: asset.ID})
	assert.Equal(t, apperrors.CodeValidation, errCode(err))

	emp := f.addEmployee(t, "E-1", domain.EmployeeStatusActive)
	_, err = f.deploymentService().Deploy(f.ctx, f.scope, DeployInput{AssetID: asset.ID, EmployeeID: emp.ID})
	require.NoError(t, err)
	_, err = svc.Retire(f.ctx, f.scope, RetireInput{AssetID: asset.ID, Reason: "broken"})
	assert.Equal(t, apperrors.CodeConflict, errCode(err))

	list, err := svc.List(f.ctx, f.scope, RecordListFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestDisposeBooksGainOrLoss(t *testing.T) {
	f := newFixture(t)
	svc := f.disposalService()
	asset := f.addAsset(t, "Laptop", 1200)
	_, err := f.retirementService().Retire(f.ctx, f.scope, RetireInput{AssetID: asset.ID, Reason: "obsolete"})
	require.NoError(t, err)

	disp, err := svc.Dispose(f.ctx, f.scope, DisposeInput{
		AssetID: asset.ID,
		DisposalDetails: DisposalDetails{
			Method:        domain.DisposalSale,
			DisposalValue: decimal.RequireFromString("250.505"),
			Recipient:     "Second-hand shop",
		},
	})
	require.NoError(t, err)
	assert.True(t, disp.DisposalValue.Equal(decimal.RequireFromString("250.51")), disp.DisposalValue.String())
	assert.True(t, disp.BookValueAtDisposal.Equal(decimal.NewFromInt(1200)))
	assert.True(t, disp.GainLoss.Equal(decimal.RequireFromString("-949.49")), disp.GainLoss.String())

	disposed := f.asset(t, asset.ID)
	assert.Equal(t, domain.AssetStatusDisposed, disposed.Status)
	assert.Nil(t, disposed.NextDepreciationDate)

	_, err = svc.Dispose(f.ctx, f.scope, DisposeInput{AssetID: asset.ID, DisposalDetails: DisposalDetails{Method: domain.DisposalRecycle}})
	assert.Equal(t, apperrors.CodeConflict, errCode(err))
}

func TestDisposeValidation(t *testing.T) {
	f := newFixture(t)
	svc := f.disposalService()
	asset := f.addAsset(t, "Laptop", 1200)

	_, err := svc.Dispose(f.ctx, f.scope, DisposeInput{AssetID: asset.ID, DisposalDetails: DisposalDetails{Method: "BURN"}})
	assert.Equal(t, apperrors.CodeValidation, errCode(err))

	_, err = svc.Dispose(f.ctx, f.scope, DisposeInput{
		AssetID:         asset.ID,
		DisposalDetails: DisposalDetails{Method: domain.DisposalSale, DisposalValue: decimal.NewFromInt(-5)},
	})
	assert.Equal(t, apperrors.CodeValidation, errCode(err))

	_, err = svc.BulkDispose(f.ctx, f.scope, BulkDisposeInput{DisposalDetails: DisposalDetails{Method: domain.DisposalSale}})
	assert.Equal(t, apperrors.CodeValidation, errCode(err))
}

func TestBulkDisposeReportsPerAsset(t *testing.T) {
	f := newFixture(t)
	svc := f.disposalService()
	available := f.addAsset(t, "Monitor", 200)
	maintained := f.addAsset(t, "Printer", 400)
	m, err := f.maintenanceService().Schedule(f.ctx, f.scope, MaintenanceInput{AssetID: maintained.ID, Type: domain.MaintenanceCorrective})
	require.NoError(t, err)
	_, err = f.maintenanceService().Start(f.ctx, f.scope, m.ID)
	require.NoError(t, err)

	results, err := svc.BulkDispose(f.ctx, f.scope, BulkDisposeInput{
		AssetIDs:        []string{available.ID, maintained.ID},
		DisposalDetails: DisposalDetails{Method: domain.DisposalRecycle},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.Equal(t, "disposed", results[0].Message)
	assert.False(t, results[1].Success)

	assert.Equal(t, domain.AssetStatusDisposed, f.asset(t, available.ID).Status)
	assert.Equal(t, domain.AssetStatusInMaintenance, f.asset(t, maintained.ID).Status)
	assert.Equal(t, []bool{true, false}, f.metrics.results["dispose_bulk"])
}

func TestMaintenanceLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := f.maintenanceService()
	asset := f.addAsset(t, "Laptop", 1200)

	m, err := svc.Schedule(f.ctx, f.scope, MaintenanceInput{
		AssetID: asset.ID,
		Type:    domain.MaintenanceUpgrade,
		Cost:    decimal.RequireFromString("99.999"),
		Vendor:  " Acme ",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MaintenanceStatusScheduled, m.Status)
	assert.Equal(t, date(2026, time.March, 15), m.ScheduledDate)
	assert.Equal(t, "Acme", m.Vendor)
	assert.True(t, m.Cost.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, domain.AssetStatusAvailable, f.asset(t, asset.ID).Status)

	_, err = svc.Complete(f.ctx, f.scope, m.ID, CompleteMaintenanceInput{})
	assert.Equal(t, apperrors.CodeConflict, errCode(err))

	started, err := svc.Start(f.ctx, f.scope, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MaintenanceStatusInProgress, started.Status)
	assert.NotNil(t, started.StartedAt)
	assert.Equal(t, domain.AssetStatusInMaintenance, f.asset(t, asset.ID).Status)

	cost := decimal.NewFromInt(150)
	done, err := svc.Complete(f.ctx, f.scope, m.ID, CompleteMaintenanceInput{Cost: &cost, PerformedBy: "tech"})
	require.NoError(t, err)
	assert.Equal(t, domain.MaintenanceStatusCompleted, done.Status)
	assert.True(t, done.Cost.Equal(cost))
	assert.Equal(t, "tech", done.PerformedBy)
	assert.NotNil(t, done.CompletedAt)
	assert.Equal(t, domain.AssetStatusAvailable, f.asset(t, asset.ID).Status)

	_, err = svc.Cancel(f.ctx, f.scope, m.ID)
	assert.Equal(t, apperrors.CodeConflict, errCode(err))
}

func TestMaintenanceCancelReleasesAsset(t *testing.T) {
	f := newFixture(t)
	svc := f.maintenanceService()
	asset := f.addAsset(t, "Laptop", 1200)
	m, err := svc.Schedule(f.ctx, f.scope, MaintenanceInput{AssetID: asset.ID, Type: domain.MaintenancePreventive})
	require.NoError(t, err)
	_, err = svc.Start(f.ctx, f.scope, m.ID)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(f.ctx, f.scope, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MaintenanceStatusCancelled, cancelled.Status)
	assert.Equal(t, domain.AssetStatusAvailable, f.asset(t, asset.ID).Status)
}

func TestMaintenanceScheduleRules(t *testing.T) {
	f := newFixture(t)
	svc := f.maintenanceService()
	asset := f.addAsset(t, "Laptop", 1200)

	_, err := svc.Schedule(f.ctx, f.scope, MaintenanceInput{AssetID: asset.ID, Type: "PAINT"})
	assert.Equal(t, apperrors.CodeValidation, errCode(err))

	_, err = svc.Schedule(f.ctx, f.scope, MaintenanceInput{AssetID: asset.ID, Type: domain.MaintenanceCorrective, Cost: decimal.NewFromInt(-1)})
	assert.Equal(t, apperrors.CodeValidation, errCode(err))

	_, err = f.retirementService().Retire(f.ctx, f.scope, RetireInput{AssetID: asset.ID, Reason: "done"})
	require.NoError(t, err)
	_, err = svc.Schedule(f.ctx, f.scope, MaintenanceInput{AssetID: asset.ID, Type: domain.MaintenanceCorrective})
	assert.Equal(t, apperrors.CodeConflict, errCode(err))
}

func TestInMaintenanceAssetCanBeRetired(t *testing.T) {
	f := newFixture(t)
	svc := f.maintenanceService()
	asset := f.addAsset(t, "Laptop", 1200)
	m, err := svc.Schedule(f.ctx, f.scope, MaintenanceInput{AssetID: asset.ID, Type: domain.MaintenanceCorrective})
	require.NoError(t, err)
	_, err = svc.Start(f.ctx, f.scope, m.ID)
	require.NoError(t, err)

	_, err = f.retirementService().Retire(f.ctx, f.scope, RetireInput{AssetID: asset.ID, Reason: "beyond repair"})
	require.NoError(t, err)

	closed, err := svc.Get(f.ctx, f.scope, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MaintenanceStatusCancelled, closed.Status)
}

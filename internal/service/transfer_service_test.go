package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/events"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

func TestTransferRequestAndComplete(t *testing.T) {
	f := newFixture(t)
	svc := f.transferService()
	dept := f.addDepartment(t, f.unit.ID, "Finance")
	asset := f.addAsset(t, "Laptop", 1200)

	tr, err := svc.Request(f.ctx, f.scope, TransferInput{
		AssetID: asset.ID,
		TransferDestination: TransferDestination{
			ToDepartmentID: &dept.ID,
			ToLocation:     " Floor 3 ",
			Reason:         "reorg",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusPending, tr.Status)
	assert.Equal(t, "Floor 1", tr.FromLocation)
	assert.Equal(t, "Floor 3", tr.ToLocation)
	assert.Nil(t, tr.FromDepartmentID)

	unchanged := f.asset(t, asset.ID)
	assert.Equal(t, "Floor 1", unchanged.Location)
	assert.Nil(t, unchanged.DepartmentID)

	_, err = svc.Request(f.ctx, f.scope, TransferInput{AssetID: asset.ID, TransferDestination: TransferDestination{ToLocation: "Lab"}})
	assert.Equal(t, apperrors.CodeConflict, errCode(err))

	done, err := svc.Complete(f.ctx, f.scope, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusCompleted, done.Status)
	require.NotNil(t, done.TransferDate)
	assert.Equal(t, f.scope.ActorID(), done.CompletedBy)

	moved := f.asset(t, asset.ID)
	assert.Equal(t, "Floor 3", moved.Location)
	require.NotNil(t, moved.DepartmentID)
	assert.Equal(t, dept.ID, *moved.DepartmentID)
	assert.Equal(t, domain.AssetStatusAvailable, moved.Status)

	_, err = svc.Complete(f.ctx, f.scope, tr.ID)
	assert.Equal(t, apperrors.CodeConflict, errCode(err))

	assert.Contains(t, f.events.types(), events.EventTransferRequested)
	assert.Contains(t, f.events.types(), events.EventAssetTransferred)
}

func TestTransferNeedsDestinationAndAvailableAsset(t *testing.T) {
	f := newFixture(t)
	svc := f.transferService()
	asset := f.addAsset(t, "Laptop", 1200)

	_, err := svc.Request(f.ctx, f.scope, TransferInput{AssetID: asset.ID})
	assert.Equal(t, apperrors.CodeValidation, errCode(err))

	_, err = svc.Request(f.ctx, f.scope, TransferInput{
		AssetID:             asset.ID,
		TransferDestination: TransferDestination{ToBusinessUnitID: &f.unit.ID},
	})
	assert.Equal(t, apperrors.CodeValidation, errCode(err), "moving to the current unit is not a destination")

	_, err = svc.Request(f.ctx, f.scope, TransferInput{
		AssetID:             asset.ID,
		TransferDestination: TransferDestination{ToDepartmentID: strPtr("missing")},
	})
	assert.Equal(t, apperrors.CodeNotFound, errCode(err))

	emp := f.addEmployee(t, "E-1", domain.EmployeeStatusActive)
	_, err = f.deploymentService().Deploy(f.ctx, f.scope, DeployInput{AssetID: asset.ID, EmployeeID: emp.ID})
	require.NoError(t, err)
	_, err = svc.Request(f.ctx, f.scope, TransferInput{AssetID: asset.ID, TransferDestination: TransferDestination{ToLocation: "Lab"}})
	assert.Equal(t, apperrors.CodeConflict, errCode(err))
}

func TestTransferAcrossBusinessUnits(t *testing.T) {
	f := newFixture(t)
	svc := f.transferService()
	local := f.addDepartment(t, f.unit.ID, "IT")
	other := f.addUnit(t, "EU")
	asset, err := f.assetService().Update(f.ctx, f.scope, f.addAsset(t, "Server", 5000).ID, AssetInput{Name: "Server", DepartmentID: &local.ID})
	require.NoError(t, err)
	require.NotNil(t, asset.DepartmentID)

	tr, err := svc.Request(f.ctx, f.scope, TransferInput{
		AssetID:             asset.ID,
		TransferDestination: TransferDestination{ToBusinessUnitID: &other.ID},
	})
	require.NoError(t, err)
	_, err = svc.Complete(f.ctx, f.scope, tr.ID)
	require.NoError(t, err)

	moved := f.assetIn(t, other.ID, asset.ID)
	assert.Equal(t, other.ID, moved.BusinessUnitID)
	assert.Nil(t, moved.DepartmentID)

	_, err = f.assetService().Get(f.ctx, f.scope, asset.ID)
	assert.Equal(t, apperrors.CodeNotFound, errCode(err))
}

func TestTransferToInactiveUnitConflicts(t *testing.T) {
	f := newFixture(t)
	closed := &domain.BusinessUnit{Code: "OLD", Name: "Closed", IsActive: false}
	require.NoError(t, f.repos.BusinessUnits.Create(f.ctx, closed))
	asset := f.addAsset(t, "Laptop", 1200)

	_, err := f.transferService().Request(f.ctx, f.scope, TransferInput{
		AssetID:             asset.ID,
		TransferDestination: TransferDestination{ToBusinessUnitID: &closed.ID},
	})
	assert.Equal(t, apperrors.CodeConflict, errCode(err))
}

func TestTransferCancel(t *testing.T) {
	f := newFixture(t)
	svc := f.transferService()
	asset := f.addAsset(t, "Laptop", 1200)
	tr, err := svc.Request(f.ctx, f.scope, TransferInput{AssetID: asset.ID, TransferDestination: TransferDestination{ToLocation: "Lab"}})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(f.ctx, f.scope, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusCancelled, cancelled.Status)
	assert.Equal(t, "Floor 1", f.asset(t, asset.ID).Location)

	_, err = svc.Cancel(f.ctx, f.scope, tr.ID)
	assert.Equal(t, apperrors.CodeConflict, errCode(err))

	_, err = svc.Request(f.ctx, f.scope, TransferInput{AssetID: asset.ID, TransferDestination: TransferDestination{ToLocation: "Lab"}})
	assert.NoError(t, err)
}

func TestTransferBulkReportsPerAsset(t *testing.T) {
	f := newFixture(t)
	svc := f.transferService()
	first := f.addAsset(t, "Laptop", 1200)
	second := f.addAsset(t, "Phone", 600)
	emp := f.addEmployee(t, "E-1", domain.EmployeeStatusActive)
	_, err := f.deploymentService().Deploy(f.ctx, f.scope, DeployInput{AssetID: second.ID, EmployeeID: emp.ID})
	require.NoError(t, err)

	_, err = svc.Bulk(f.ctx, f.scope, BulkTransferInput{TransferDestination: TransferDestination{ToLocation: "Lab"}})
	assert.Equal(t, apperrors.CodeValidation, errCode(err))

	results, err := svc.Bulk(f.ctx, f.scope, BulkTransferInput{
		AssetIDs:            []string{first.ID, second.ID, "missing"},
		TransferDestination: TransferDestination{ToLocation: "Lab"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.NotEmpty(t, results[0].RecordID)
	assert.False(t, results[1].Success)
	assert.Equal(t, "only available assets can be transferred", results[1].Message)
	assert.False(t, results[2].Success)

	assert.Equal(t, "Lab", f.asset(t, first.ID).Location)
	assert.Equal(t, "Floor 1", f.asset(t, second.ID).Location)

	list, err := svc.List(f.ctx, f.scope, TransferListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)
}

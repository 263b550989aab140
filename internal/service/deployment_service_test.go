package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/events"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

func TestDeployAndReturn(t *testing.T) {
	f := newFixture(t)
	svc := f.deploymentService()
	asset := f.addAsset(t, "Laptop", 1200)
	emp := f.addEmployee(t, "E-1", domain.EmployeeStatusActive)
	due := date(2026, time.April, 1)

	dep, err := svc.Deploy(f.ctx, f.scope, DeployInput{AssetID: asset.ID, EmployeeID: emp.ID, ExpectedReturnDate: &due, Notes: " onboarding "})
	require.NoError(t, err)
	assert.Equal(t, domain.DeploymentStatusActive, dep.Status)
	assert.Equal(t, "onboarding", dep.Notes)
	assert.Equal(t, fixedNow, dep.DeployedAt)
	assert.Equal(t, domain.AssetStatusDeployed, f.asset(t, asset.ID).Status)

	_, err = svc.Deploy(f.ctx, f.scope, DeployInput{AssetID: asset.ID, EmployeeID: emp.ID})
	assert.Equal(t, apperrors.CodeConflict, errCode(err))

	damaged := domain.ConditionDamaged
	returned, err := svc.Return(f.ctx, f.scope, dep.ID, ReturnInput{Condition: &damaged})
	require.NoError(t, err)
	assert.Equal(t, domain.DeploymentStatusReturned, returned.Status)
	require.NotNil(t, returned.ReturnedAt)
	require.NotNil(t, returned.ReturnCondition)
	assert.Equal(t, damaged, *returned.ReturnCondition)

	current := f.asset(t, asset.ID)
	assert.Equal(t, domain.AssetStatusAvailable, current.Status)
	assert.Equal(t, damaged, current.Condition)

	_, err = svc.Return(f.ctx, f.scope, dep.ID, ReturnInput{})
	assert.Equal(t, apperrors.CodeConflict, errCode(err))

	assert.Equal(t, []events.EventType{events.EventAssetCreated, events.EventAssetDeployed, events.EventAssetReturned}, f.events.types())
	assert.Equal(t, []bool{true, false}, f.metrics.results["deploy"])
}

func TestDeployRules(t *testing.T) {
	f := newFixture(t)
	svc := f.deploymentService()
	asset := f.addAsset(t, "Laptop", 1200)
	active := f.addEmployee(t, "E-1", domain.EmployeeStatusActive)
	onLeave := f.addEmployee(t, "E-2", domain.EmployeeStatusOnLeave)
	yesterday := date(2026, time.March, 14)

	_, err := svc.Deploy(f.ctx, f.scope, DeployInput{AssetID: asset.ID, EmployeeID: active.ID, ExpectedReturnDate: &yesterday})
	assert.Equal(t, apperrors.CodeValidation, errCode(err))

	_, err = svc.Deploy(f.ctx, f.scope, DeployInput{AssetID: asset.ID})
	assert.Equal(t, apperrors.CodeValidation, errCode(err))

	_, err = svc.Deploy(f.ctx, f.scope, DeployInput{AssetID: asset.ID, EmployeeID: onLeave.ID})
	assert.Equal(t, apperrors.CodeConflict, errCode(err))

	_, err = svc.Deploy(f.ctx, f.scope, DeployInput{AssetID: asset.ID, EmployeeID: "missing"})
	assert.Equal(t, apperrors.CodeNotFound, errCode(err))

	_, err = svc.Deploy(f.ctx, f.scope, DeployInput{AssetID: "missing", EmployeeID: active.ID})
	assert.Equal(t, apperrors.CodeNotFound, errCode(err))

	assert.Equal(t, domain.AssetStatusAvailable, f.asset(t, asset.ID).Status)
}

func TestDeployBlockedByPendingTransfer(t *testing.T) {
	f := newFixture(t)
	asset := f.addAsset(t, "Laptop", 1200)
	emp := f.addEmployee(t, "E-1", domain.EmployeeStatusActive)
	_, err := f.transferService().Request(f.ctx, f.scope, TransferInput{
		AssetID:             asset.ID,
		TransferDestination: TransferDestination{ToLocation: "Branch"},
	})
	require.NoError(t, err)

	_, err = f.deploymentService().Deploy(f.ctx, f.scope, DeployInput{AssetID: asset.ID, EmployeeID: emp.ID})
	assert.Equal(t, apperrors.CodeConflict, errCode(err))
}

func TestDeployUsesDefaultLoanPeriod(t *testing.T) {
	f := newFixture(t)
	_, err := f.settings.Upsert(f.ctx, f.scope, domain.SettingDeploymentDefaultDays, "14", "")
	require.NoError(t, err)
	asset := f.addAsset(t, "Laptop", 1200)
	emp := f.addEmployee(t, "E-1", domain.EmployeeStatusActive)

	dep, err := f.deploymentService().Deploy(f.ctx, f.scope, DeployInput{AssetID: asset.ID, EmployeeID: emp.ID})
	require.NoError(t, err)
	require.NotNil(t, dep.ExpectedReturnDate)
	assert.Equal(t, date(2026, time.March, 29), *dep.ExpectedReturnDate)
}

func TestDeploymentListAndOverdueScan(t *testing.T) {
	f := newFixture(t)
	svc := f.deploymentService()
	emp := f.addEmployee(t, "E-1", domain.EmployeeStatusActive)
	first := f.addAsset(t, "Laptop", 1200)
	second := f.addAsset(t, "Phone", 600)
	soon := date(2026, time.March, 20)

	_, err := svc.Deploy(f.ctx, f.scope, DeployInput{AssetID: first.ID, EmployeeID: emp.ID, ExpectedReturnDate: &soon})
	require.NoError(t, err)
	_, err = svc.Deploy(f.ctx, f.scope, DeployInput{AssetID: second.ID, EmployeeID: emp.ID})
	require.NoError(t, err)

	list, err := svc.List(f.ctx, f.scope, DeploymentListFilter{EmployeeID: &emp.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.Total)

	count, err := svc.ScanOverdue(f.ctx, date(2026, time.March, 25))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	last := f.events.events[len(f.events.events)-1]
	assert.Equal(t, events.EventDeploymentOverdue, last.Type)
	assert.Equal(t, first.ID, last.AssetID)
	payload, ok := last.Payload.(events.DeploymentOverduePayload)
	require.True(t, ok)
	assert.Equal(t, 5, payload.DaysOverdue)
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/assetdesk/asset-service/internal/depreciation"
)

// AssetStatus enumerates lifecycle states for assets.
type AssetStatus string

const (
	AssetStatusAvailable     AssetStatus = "AVAILABLE"
	AssetStatusDeployed      AssetStatus = "DEPLOYED"
	AssetStatusInMaintenance AssetStatus = "IN_MAINTENANCE"
	AssetStatusRetired       AssetStatus = "RETIRED"
	AssetStatusDisposed      AssetStatus = "DISPOSED"
)

// AssetCondition describes physical condition.
type AssetCondition string

const (
	ConditionNew     AssetCondition = "NEW"
	ConditionGood    AssetCondition = "GOOD"
	ConditionFair    AssetCondition = "FAIR"
	ConditionPoor    AssetCondition = "POOR"
	ConditionDamaged AssetCondition = "DAMAGED"
)

// Valid reports whether s is a known status.
func (s AssetStatus) Valid() bool {
	switch s {
	case AssetStatusAvailable, AssetStatusDeployed, AssetStatusInMaintenance, AssetStatusRetired, AssetStatusDisposed:
		return true
	}
	return false
}

// Valid reports whether c is a known condition.
func (c AssetCondition) Valid() bool {
	switch c {
	case ConditionNew, ConditionGood, ConditionFair, ConditionPoor, ConditionDamaged:
		return true
	}
	return false
}

// Asset is the aggregate tracked through deployment, transfer, maintenance, retirement and disposal.
type Asset struct {
	ID             string
	BusinessUnitID string
	DepartmentID   *string
	AssetTag       string
	Name           string
	Description    string
	Category       string
	Manufacturer   string
	Model          string
	SerialNumber   string
	Status         AssetStatus
	Condition      AssetCondition
	Location       string

	PurchaseDate          *time.Time
	PurchasePrice         decimal.Decimal
	SalvageValue          decimal.Decimal
	UsefulLifeMonths      int
	DepreciationMethod    depreciation.Method
	DecliningBalanceRate  decimal.Decimal
	TotalExpectedUnits    int64
	UnitsUsed             int64
	UnitsDepreciated      int64
	DepreciationStartDate *time.Time
	DepreciationPeriods   int

	AccumulatedDepreciation decimal.Decimal
	CurrentBookValue        decimal.Decimal
	LastDepreciationDate    *time.Time
	NextDepreciationDate    *time.Time
	IsFullyDepreciated      bool

	WarrantyExpiry *time.Time
	Notes          string
	CreatedBy      *string
	IsDeleted      bool
	DeletedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Depreciable reports whether the asset carries enough data to be depreciated.
func (a *Asset) Depreciable() bool {
	return a.DepreciationMethod != "" && a.DepreciationStartDate != nil && a.UsefulLifeMonths > 0 && a.PurchasePrice.IsPositive()
}

// DepreciationParams maps stored columns onto engine parameters.
func (a *Asset) DepreciationParams() depreciation.Params {
	p := depreciation.Params{
		Method:           a.DepreciationMethod,
		Cost:             a.PurchasePrice,
		Salvage:          a.SalvageValue,
		UsefulLifeMonths: a.UsefulLifeMonths,
		DecliningRate:    a.DecliningBalanceRate,
		TotalUnits:       a.TotalExpectedUnits,
	}
	if a.DepreciationStartDate != nil {
		p.StartDate = *a.DepreciationStartDate
	}
	return p
}

// DepreciationState returns the engine state matching the stored running totals.
func (a *Asset) DepreciationState() depreciation.State {
	return depreciation.State{
		BookValue:        a.CurrentBookValue,
		Accumulated:      a.AccumulatedDepreciation,
		Periods:          a.DepreciationPeriods,
		UnitsDepreciated: a.UnitsDepreciated,
	}
}

// ResetDepreciation puts the running totals back to a fresh schedule.
func (a *Asset) ResetDepreciation() {
	a.AccumulatedDepreciation = decimal.Zero
	a.CurrentBookValue = a.PurchasePrice
	a.DepreciationPeriods = 0
	a.UnitsDepreciated = 0
	a.LastDepreciationDate = nil
	a.IsFullyDepreciated = false
	a.NextDepreciationDate = nil
	if a.Depreciable() {
		next := depreciation.NextDate(*a.DepreciationStartDate, 0)
		a.NextDepreciationDate = &next
	}
}

// AssetSummary aggregates dashboard figures for a business unit.
type AssetSummary struct {
	TotalAssets          int64
	ByStatus             map[AssetStatus]int64
	TotalCost            decimal.Decimal
	TotalBookValue       decimal.Decimal
	TotalAccumulated     decimal.Decimal
	ActiveDeployments    int64
	OverdueDeployments   int64
	ScheduledMaintenance int64
}

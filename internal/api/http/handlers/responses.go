package handlers

import (
	"time"

	"github.com/assetdesk/asset-service/internal/api/dto"
	"github.com/assetdesk/asset-service/internal/depreciation"
	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/service"
)

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:             u.ID,
		BusinessUnitID: u.BusinessUnitID,
		RoleID:         u.RoleID,
		Name:           u.Name,
		Email:          u.Email,
		IsActive:       u.IsActive,
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func userWithRole(u *domain.User, role *domain.Role) dto.UserResponse {
	resp := userResponse(u)
	if role != nil {
		resp.RoleName = role.Name
		resp.Permissions = role.Permissions
	}
	return resp
}

func businessUnitResponse(u *domain.BusinessUnit) dto.BusinessUnitResponse {
	return dto.BusinessUnitResponse{
		ID:          u.ID,
		Name:        u.Name,
		Code:        u.Code,
		Description: u.Description,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func roleResponse(r *domain.Role) dto.RoleResponse {
	perms := r.Permissions
	if perms == nil {
		perms = []string{}
	}
	return dto.RoleResponse{
		ID:             r.ID,
		BusinessUnitID: r.BusinessUnitID,
		Name:           r.Name,
		Description:    r.Description,
		Permissions:    perms,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func departmentResponse(d *domain.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:                d.ID,
		BusinessUnitID:    d.BusinessUnitID,
		Name:              d.Name,
		Description:       d.Description,
		ManagerEmployeeID: d.ManagerEmployeeID,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func employeeResponse(e *domain.Employee) dto.EmployeeResponse {
	return dto.EmployeeResponse{
		ID:             e.ID,
		BusinessUnitID: e.BusinessUnitID,
		DepartmentID:   e.DepartmentID,
		RoleID:         e.RoleID,
		EmployeeNumber: e.EmployeeNumber,
		FirstName:      e.FirstName,
		LastName:       e.LastName,
		FullName:       e.FullName(),
		Email:          e.Email,
		Phone:          e.Phone,
		Position:       e.Position,
		HireDate:       dto.DatePtr(e.HireDate),
		Status:         e.Status,
		IsDeleted:      e.IsDeleted,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func assetResponse(a *domain.Asset) dto.AssetResponse {
	return dto.AssetResponse{
		ID:                      a.ID,
		BusinessUnitID:          a.BusinessUnitID,
		DepartmentID:            a.DepartmentID,
		AssetTag:                a.AssetTag,
		Name:                    a.Name,
		Description:             a.Description,
		Category:                a.Category,
		Manufacturer:            a.Manufacturer,
		Model:                   a.Model,
		SerialNumber:            a.SerialNumber,
		Status:                  a.Status,
		Condition:               a.Condition,
		Location:                a.Location,
		PurchaseDate:            dto.DatePtr(a.PurchaseDate),
		PurchasePrice:           a.PurchasePrice,
		SalvageValue:            a.SalvageValue,
		UsefulLifeMonths:        a.UsefulLifeMonths,
		DepreciationMethod:      a.DepreciationMethod,
		DecliningBalanceRate:    a.DecliningBalanceRate,
		TotalExpectedUnits:      a.TotalExpectedUnits,
		UnitsUsed:               a.UnitsUsed,
		DepreciationStartDate:   dto.DatePtr(a.DepreciationStartDate),
		DepreciationPeriods:     a.DepreciationPeriods,
		AccumulatedDepreciation: a.AccumulatedDepreciation,
		CurrentBookValue:        a.CurrentBookValue,
		LastDepreciationDate:    dto.DatePtr(a.LastDepreciationDate),
		NextDepreciationDate:    dto.DatePtr(a.NextDepreciationDate),
		IsFullyDepreciated:      a.IsFullyDepreciated,
		WarrantyExpiry:          dto.DatePtr(a.WarrantyExpiry),
		Notes:                   a.Notes,
		CreatedBy:               a.CreatedBy,
		IsDeleted:               a.IsDeleted,
		DeletedAt:               a.DeletedAt,
		CreatedAt:               a.CreatedAt,
		UpdatedAt:               a.UpdatedAt,
	}
}

func scheduleEntryResponse(e *depreciation.Entry) dto.ScheduleEntryResponse {
	return dto.ScheduleEntryResponse{
		Period:      e.Period,
		Date:        dto.DateOf(e.Date),
		Amount:      e.Amount,
		Accumulated: e.Accumulated,
		BookValue:   e.BookValue,
		Units:       e.Units,
	}
}

func depreciationEntryResponse(e *domain.DepreciationEntry) dto.DepreciationEntryResponse {
	return dto.DepreciationEntryResponse{
		ID:          e.ID,
		AssetID:     e.AssetID,
		Period:      e.PeriodNumber,
		Date:        dto.DateOf(e.PeriodDate),
		Method:      e.Method,
		Amount:      e.Amount,
		Accumulated: e.Accumulated,
		BookValue:   e.BookValue,
		Units:       e.Units,
		CreatedAt:   e.CreatedAt,
	}
}

func postingResponse(p *service.PostingResult) dto.PostingResponse {
	return dto.PostingResponse{
		AssetID:          p.AssetID,
		Periods:          p.Periods,
		Amount:           p.Amount,
		BookValue:        p.BookValue,
		FullyDepreciated: p.FullyDepreciated,
		Entries:          mapSlice(p.Entries, depreciationEntryResponse),
	}
}

func deploymentResponse(now time.Time) func(*domain.AssetDeployment) dto.DeploymentResponse {
	return func(d *domain.AssetDeployment) dto.DeploymentResponse {
		return dto.DeploymentResponse{
			ID:                 d.ID,
			BusinessUnitID:     d.BusinessUnitID,
			AssetID:            d.AssetID,
			EmployeeID:         d.EmployeeID,
			DeployedBy:         d.DeployedBy,
			DeployedAt:         d.DeployedAt,
			ExpectedReturnDate: dto.DatePtr(d.ExpectedReturnDate),
			ReturnedAt:         d.ReturnedAt,
			ReturnCondition:    d.ReturnCondition,
			Status:             d.Status,
			Overdue:            d.Overdue(now),
			Notes:              d.Notes,
		}
	}
}

func transferResponse(t *domain.AssetTransfer) dto.TransferResponse {
	return dto.TransferResponse{
		ID:               t.ID,
		BusinessUnitID:   t.BusinessUnitID,
		AssetID:          t.AssetID,
		FromDepartmentID: t.FromDepartmentID,
		ToDepartmentID:   t.ToDepartmentID,
		FromLocation:     t.FromLocation,
		ToLocation:       t.ToLocation,
		ToBusinessUnitID: t.ToBusinessUnitID,
		Status:           t.Status,
		Reason:           t.Reason,
		RequestedBy:      t.RequestedBy,
		CompletedBy:      t.CompletedBy,
		TransferDate:     t.TransferDate,
		Notes:            t.Notes,
		CreatedAt:        t.CreatedAt,
	}
}

func retirementResponse(r *domain.AssetRetirement) dto.RetirementResponse {
	return dto.RetirementResponse{
		ID:                    r.ID,
		BusinessUnitID:        r.BusinessUnitID,
		AssetID:               r.AssetID,
		RetirementDate:        dto.DateOf(r.RetirementDate),
		Reason:                r.Reason,
		BookValueAtRetirement: r.BookValueAtRetirement,
		RetiredBy:             r.RetiredBy,
		Notes:                 r.Notes,
		CreatedAt:             r.CreatedAt,
	}
}

func disposalResponse(d *domain.AssetDisposal) dto.DisposalResponse {
	return dto.DisposalResponse{
		ID:                  d.ID,
		BusinessUnitID:      d.BusinessUnitID,
		AssetID:             d.AssetID,
		DisposalDate:        dto.DateOf(d.DisposalDate),
		Method:              d.Method,
		DisposalValue:       d.DisposalValue,
		BookValueAtDisposal: d.BookValueAtDisposal,
		GainLoss:            d.GainLoss,
		Recipient:           d.Recipient,
		DisposedBy:          d.DisposedBy,
		Notes:               d.Notes,
		CreatedAt:           d.CreatedAt,
	}
}

func maintenanceResponse(m *domain.AssetMaintenance) dto.MaintenanceResponse {
	return dto.MaintenanceResponse{
		ID:              m.ID,
		BusinessUnitID:  m.BusinessUnitID,
		AssetID:         m.AssetID,
		MaintenanceType: m.MaintenanceType,
		Status:          m.Status,
		ScheduledDate:   dto.DateOf(m.ScheduledDate),
		StartedAt:       m.StartedAt,
		CompletedAt:     m.CompletedAt,
		Cost:            m.Cost,
		Vendor:          m.Vendor,
		Description:     m.Description,
		PerformedBy:     m.PerformedBy,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func auditLogResponse(e *domain.AuditLog) dto.AuditLogResponse {
	return dto.AuditLogResponse{
		ID:             e.ID,
		BusinessUnitID: e.BusinessUnitID,
		ActorUserID:    e.ActorUserID,
		EntityType:     e.EntityType,
		EntityID:       e.EntityID,
		Action:         e.Action,
		OldValues:      e.OldValues,
		NewValues:      e.NewValues,
		IPAddress:      e.IPAddress,
		CreatedAt:      e.CreatedAt,
	}
}

func settingResponse(s *domain.SystemSetting) dto.SettingResponse {
	return dto.SettingResponse{
		Key:         s.Key,
		Value:       s.Value,
		Description: s.Description,
		Global:      s.BusinessUnitID == nil,
		UpdatedAt:   s.UpdatedAt,
	}
}

func dashboardResponse(s *service.DashboardSummary) dto.DashboardResponse {
	return dto.DashboardResponse{
		TotalAssets:          s.TotalAssets,
		ByStatus:             s.ByStatus,
		TotalCost:            s.TotalCost,
		TotalBookValue:       s.TotalBookValue,
		TotalAccumulated:     s.TotalAccumulated,
		ActiveDeployments:    s.ActiveDeployments,
		OverdueDeployments:   s.OverdueDeployments,
		ScheduledMaintenance: s.ScheduledMaintenance,
		Currency:             s.Currency,
		GeneratedAt:          s.GeneratedAt,
	}
}

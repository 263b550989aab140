package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/events"
	"github.com/assetdesk/asset-service/internal/repository"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

// DeploymentService hands assets out to employees and takes them back.
type DeploymentService struct {
	lifecycle
}

// NewDeploymentService constructs the service.
func NewDeploymentService(deps LifecycleDependencies) *DeploymentService {
	return &DeploymentService{lifecycle: newLifecycle(deps)}
}

// DeployInput describes a deployment request.
type DeployInput struct {
	AssetID            string
	EmployeeID         string
	ExpectedReturnDate *time.Time
	Notes              string
}

// ReturnInput describes a deployment return.
type ReturnInput struct {
	Condition *domain.AssetCondition
	Notes     string
}

// DeploymentListFilter narrows deployment listings.
type DeploymentListFilter struct {
	AssetID    *string
	EmployeeID *string
	Status     *domain.DeploymentStatus
	Overdue    bool
	Pagination
}

// Deploy assigns an available asset to an active employee.
func (s *DeploymentService) Deploy(ctx context.Context, scope domain.Scope, input DeployInput) (*domain.AssetDeployment, error) {
	if err := requireText("asset_id", input.AssetID); err != nil {
		return nil, err
	}
	if err := requireText("employee_id", input.EmployeeID); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if input.ExpectedReturnDate != nil && input.ExpectedReturnDate.Before(today(now)) {
		return nil, apperrors.NewValidationError("expected return date cannot be in the past", map[string]any{
			"expected_return_date": input.ExpectedReturnDate,
		})
	}

	var dep *domain.AssetDeployment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		asset, err := s.lockAsset(ctx, scope, input.AssetID)
		if err != nil {
			return err
		}
		emp, err := s.employees.GetByID(ctx, scope.BusinessUnitID, input.EmployeeID)
		if err != nil {
			return apperrors.NotFoundOr(err, "employee", map[string]any{"id": input.EmployeeID})
		}
		if emp.IsDeleted {
			return apperrors.NewNotFound("employee", map[string]any{"id": input.EmployeeID})
		}
		if emp.Status != domain.EmployeeStatusActive {
			return apperrors.NewConflict("employee is not active", map[string]any{"employee_id": emp.ID, "status": emp.Status})
		}
		if err := s.hasPendingTransfer(ctx, asset.ID); err != nil {
			return err
		}
		oldStatus := asset.Status
		if err := transition(asset, domain.AssetStatusDeployed); err != nil {
			return err
		}

		expected := input.ExpectedReturnDate
		if expected == nil {
			if days := intSetting(ctx, s.settings, scope.BusinessUnitID, domain.SettingDeploymentDefaultDays, 0); days > 0 {
				d := today(now).AddDate(0, 0, days)
				expected = &d
			}
		}
		dep = &domain.AssetDeployment{
			BusinessUnitID:     scope.BusinessUnitID,
			AssetID:            asset.ID,
			EmployeeID:         emp.ID,
			DeployedBy:         scope.ActorID(),
			DeployedAt:         now,
			ExpectedReturnDate: expected,
			Status:             domain.DeploymentStatusActive,
			Notes:              strings.TrimSpace(input.Notes),
		}
		if err := s.deployments.Create(ctx, dep); err != nil {
			return err
		}
		if err := s.assets.Update(ctx, asset); err != nil {
			return err
		}
		return s.recordAsset(ctx, scope, asset, domain.ActionDeploy, oldStatus, map[string]any{
			"deployment_id": dep.ID,
			"employee_id":   emp.ID,
		})
	})
	if err := s.finish("deploy", err); err != nil {
		return nil, err
	}
	s.events.publish(ctx, events.New(events.EventAssetDeployed, scope, dep.AssetID, events.AssetDeployedPayload{
		DeploymentID:       dep.ID,
		EmployeeID:         dep.EmployeeID,
		ExpectedReturnDate: dep.ExpectedReturnDate,
	}))
	return dep, nil
}

// Return closes an active deployment and makes the asset available again.
func (s *DeploymentService) Return(ctx context.Context, scope domain.Scope, id string, input ReturnInput) (*domain.AssetDeployment, error) {
	if input.Condition != nil && !input.Condition.Valid() {
		return nil, apperrors.NewValidationError("unknown asset condition", map[string]any{"condition": *input.Condition})
	}
	var dep *domain.AssetDeployment
	var condition domain.AssetCondition
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.deployments.GetByID(ctx, scope.BusinessUnitID, id)
		if err != nil {
			return apperrors.NotFoundOr(err, "deployment", map[string]any{"id": id})
		}
		if current.Status != domain.DeploymentStatusActive {
			return apperrors.NewConflict("deployment already returned", map[string]any{"deployment_id": id})
		}
		asset, err := s.lockAsset(ctx, scope, current.AssetID)
		if err != nil {
			return err
		}
		oldStatus := asset.Status
		if err := transition(asset, domain.AssetStatusAvailable); err != nil {
			return err
		}
		if input.Condition != nil {
			asset.Condition = *input.Condition
		}
		condition = asset.Condition

		now := s.now().UTC()
		current.Status = domain.DeploymentStatusReturned
		current.ReturnedAt = &now
		current.ReturnCondition = &condition
		if notes := strings.TrimSpace(input.Notes); notes != "" {
			current.Notes = notes
		}
		if err := s.deployments.Update(ctx, current); err != nil {
			return err
		}
		if err := s.assets.Update(ctx, asset); err != nil {
			return err
		}
		dep = current
		return s.recordAsset(ctx, scope, asset, domain.ActionReturn, oldStatus, map[string]any{
			"deployment_id": id,
			"condition":     condition,
		})
	})
	if err := s.finish("return", err); err != nil {
		return nil, err
	}
	s.events.publish(ctx, events.New(events.EventAssetReturned, scope, dep.AssetID, events.AssetReturnedPayload{
		DeploymentID: dep.ID,
		EmployeeID:   dep.EmployeeID,
		Condition:    condition,
	}))
	return dep, nil
}

// Get fetches one deployment.
func (s *DeploymentService) Get(ctx context.Context, scope domain.Scope, id string) (*domain.AssetDeployment, error) {
	dep, err := s.deployments.GetByID(ctx, scope.BusinessUnitID, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "deployment", map[string]any{"id": id})
	}
	return dep, nil
}

// List returns a page of deployments.
func (s *DeploymentService) List(ctx context.Context, scope domain.Scope, filter DeploymentListFilter) (ListResult[domain.AssetDeployment], error) {
	repoFilter := repository.DeploymentFilter{
		BusinessUnitID: scope.BusinessUnitID,
		AssetID:        filter.AssetID,
		EmployeeID:     filter.EmployeeID,
		Status:         filter.Status,
		Page:           filter.Pagination.repo(),
	}
	if filter.Overdue {
		now := s.now().UTC()
		repoFilter.OverdueAt = &now
	}
	items, total, err := s.deployments.List(ctx, repoFilter)
	if err != nil {
		return ListResult[domain.AssetDeployment]{}, apperrors.MapError(err)
	}
	return newListResult(items, total, filter.Pagination), nil
}

// ScanOverdue publishes an overdue event for every active deployment past its expected return date.
func (s *DeploymentService) ScanOverdue(ctx context.Context, asOf time.Time) (int, error) {
	overdue, err := s.deployments.ListOverdue(ctx, asOf)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	for _, dep := range overdue {
		scope := domain.Scope{BusinessUnitID: dep.BusinessUnitID}
		days := int(asOf.Sub(*dep.ExpectedReturnDate).Hours() / 24)
		s.events.publish(ctx, events.New(events.EventDeploymentOverdue, scope, dep.AssetID, events.DeploymentOverduePayload{
			DeploymentID:       dep.ID,
			EmployeeID:         dep.EmployeeID,
			ExpectedReturnDate: *dep.ExpectedReturnDate,
			DaysOverdue:        days,
		}))
	}
	if len(overdue) > 0 {
		s.logger.Info("overdue deployments found", zap.Int("count", len(overdue)))
	}
	return len(overdue), nil
}

package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/repository"
)

// AuditService records and queries the audit trail.
type AuditService struct {
	logs   repository.AuditLogRepository
	logger *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(logs repository.AuditLogRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{logs: logs, logger: logger}
}

// AuditChange describes one audited mutation.
type AuditChange struct {
	Entity    domain.AuditEntity
	EntityID  string
	Action    domain.AuditAction
	OldValues map[string]any
	NewValues map[string]any
}

// Record writes an audit entry on behalf of scope. It joins the caller's transaction when there is one.
func (s *AuditService) Record(ctx context.Context, scope domain.Scope, change AuditChange) error {
	if s == nil || s.logs == nil {
		return nil
	}
	entry := &domain.AuditLog{
		ActorUserID: scope.ActorID(),
		EntityType:  change.Entity,
		EntityID:    change.EntityID,
		Action:      change.Action,
		OldValues:   change.OldValues,
		NewValues:   change.NewValues,
		IPAddress:   scope.IPAddress,
	}
	if scope.BusinessUnitID != "" {
		bu := scope.BusinessUnitID
		entry.BusinessUnitID = &bu
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		s.logger.Error("audit write failed",
			zap.String("entity", string(change.Entity)),
			zap.String("entity_id", change.EntityID),
			zap.Error(err))
		return err
	}
	return nil
}

// AuditFilter narrows audit log listings.
type AuditFilter struct {
	EntityType  *domain.AuditEntity
	EntityID    *string
	Action      *domain.AuditAction
	ActorUserID *string
	From        *time.Time
	To          *time.Time
	Pagination
}

// List returns audit entries inside scope's business unit.
func (s *AuditService) List(ctx context.Context, scope domain.Scope, filter AuditFilter) (ListResult[domain.AuditLog], error) {
	bu := scope.BusinessUnitID
	items, total, err := s.logs.List(ctx, repository.AuditLogFilter{
		BusinessUnitID: &bu,
		EntityType:     filter.EntityType,
		EntityID:       filter.EntityID,
		Action:         filter.Action,
		ActorUserID:    filter.ActorUserID,
		From:           filter.From,
		To:             filter.To,
		Page:           filter.Pagination.repo(),
	})
	if err != nil {
		return ListResult[domain.AuditLog]{}, err
	}
	return newListResult(items, total, filter.Pagination), nil
}

// ForEntity returns the trail of a single record.
func (s *AuditService) ForEntity(ctx context.Context, scope domain.Scope, entity domain.AuditEntity, id string, page Pagination) (ListResult[domain.AuditLog], error) {
	return s.List(ctx, scope, AuditFilter{EntityType: &entity, EntityID: &id, Pagination: page})
}

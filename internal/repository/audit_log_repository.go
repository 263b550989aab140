package repository

import (
	"context"
	"time"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/persistence"
)

// AuditLogFilter narrows audit trail queries.
type AuditLogFilter struct {
	BusinessUnitID *string
	EntityType     *domain.AuditEntity
	EntityID       *string
	Action         *domain.AuditAction
	ActorUserID    *string
	From           *time.Time
	To             *time.Time
	Page
}

// AuditLogRepository stores audit entries.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	List(ctx context.Context, filter AuditLogFilter) ([]domain.AuditLog, int64, error)
}

type auditLogRepository struct {
	base
}

// NewAuditLogRepository builds repository.
func NewAuditLogRepository(db persistence.DB) AuditLogRepository {
	return &auditLogRepository{base{db: db}}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	const query = `
        INSERT INTO audit_logs (business_unit_id, actor_user_id, entity_type, entity_id, action, old_values, new_values, ip_address)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	return r.conn(ctx).QueryRow(ctx, query,
		entry.BusinessUnitID,
		entry.ActorUserID,
		entry.EntityType,
		entry.EntityID,
		entry.Action,
		entry.OldValues,
		entry.NewValues,
		entry.IPAddress,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditLogRepository) List(ctx context.Context, filter AuditLogFilter) ([]domain.AuditLog, int64, error) {
	w := newWhere()
	if filter.BusinessUnitID != nil {
		w.add("business_unit_id=$%d", *filter.BusinessUnitID)
	}
	if filter.EntityType != nil {
		w.add("entity_type=$%d", *filter.EntityType)
	}
	if filter.EntityID != nil {
		w.add("entity_id=$%d", *filter.EntityID)
	}
	if filter.Action != nil {
		w.add("action=$%d", *filter.Action)
	}
	if filter.ActorUserID != nil {
		w.add("actor_user_id=$%d", *filter.ActorUserID)
	}
	if filter.From != nil {
		w.add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		w.add("created_at <= $%d", *filter.To)
	}

	query := `
        SELECT id, business_unit_id, actor_user_id, entity_type, entity_id, action, old_values, new_values,
               ip_address, created_at, COUNT(*) OVER()
        FROM audit_logs WHERE ` + w.sql() + ` ORDER BY created_at DESC` + filter.Page.sql()
	rows, err := r.conn(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := []domain.AuditLog{}
	var total int64
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(
			&entry.ID,
			&entry.BusinessUnitID,
			&entry.ActorUserID,
			&entry.EntityType,
			&entry.EntityID,
			&entry.Action,
			&entry.OldValues,
			&entry.NewValues,
			&entry.IPAddress,
			&entry.CreatedAt,
			&total,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, entry)
	}
	return result, total, rows.Err()
}

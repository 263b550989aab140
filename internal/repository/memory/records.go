package memory

import (
	"context"
	"sort"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/repository"
)

type auditLogRepo struct{ s *Store }

var _ repository.AuditLogRepository = (*auditLogRepo)(nil)

func (r *auditLogRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = newID()
	entry.CreatedAt = r.s.now()
	r.s.auditLogs.put(entry.ID, *entry)
	return nil
}

func (r *auditLogRepo) List(_ context.Context, f repository.AuditLogFilter) ([]domain.AuditLog, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := filter(r.s.auditLogs.newest(), func(e domain.AuditLog) bool {
		if f.BusinessUnitID != nil && (e.BusinessUnitID == nil || *e.BusinessUnitID != *f.BusinessUnitID) {
			return false
		}
		if f.EntityType != nil && e.EntityType != *f.EntityType {
			return false
		}
		if f.Action != nil && e.Action != *f.Action {
			return false
		}
		if f.ActorUserID != nil && (e.ActorUserID == nil || *e.ActorUserID != *f.ActorUserID) {
			return false
		}
		return strEq(f.EntityID, e.EntityID) && inRange(e.CreatedAt, f.From, f.To)
	})
	items, total := paginate(rows, f.Page)
	return items, total, nil
}

type settingRepo struct{ s *Store }

var _ repository.SettingRepository = (*settingRepo)(nil)

// Get prefers the unit's own value over the global default.
func (r *settingRepo) Get(_ context.Context, businessUnitID, key string) (*domain.SystemSetting, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var global *domain.SystemSetting
	for _, s := range r.s.settings.rows {
		if s.Key != key {
			continue
		}
		if s.BusinessUnitID != nil && *s.BusinessUnitID == businessUnitID {
			return &s, nil
		}
		if s.BusinessUnitID == nil {
			g := s
			global = &g
		}
	}
	if global == nil {
		return nil, notFound()
	}
	return global, nil
}

func (r *settingRepo) List(_ context.Context, businessUnitID string) ([]domain.SystemSetting, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	byKey := map[string]domain.SystemSetting{}
	for _, s := range r.s.settings.all() {
		if s.BusinessUnitID != nil && *s.BusinessUnitID != businessUnitID {
			continue
		}
		if existing, ok := byKey[s.Key]; ok && existing.BusinessUnitID != nil {
			continue
		}
		byKey[s.Key] = s
	}
	out := make([]domain.SystemSetting, 0, len(byKey))
	for _, s := range byKey {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *settingRepo) Upsert(_ context.Context, setting *domain.SystemSetting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	for id, existing := range r.s.settings.rows {
		if existing.Key == setting.Key && ptrEq(existing.BusinessUnitID, setting.BusinessUnitID) {
			existing.Value = setting.Value
			existing.Description = setting.Description
			existing.UpdatedBy = setting.UpdatedBy
			existing.UpdatedAt = now
			r.s.settings.put(id, existing)
			setting.ID = id
			setting.CreatedAt = existing.CreatedAt
			setting.UpdatedAt = now
			return nil
		}
	}
	setting.ID = newID()
	setting.CreatedAt = now
	setting.UpdatedAt = now
	r.s.settings.put(setting.ID, *setting)
	return nil
}

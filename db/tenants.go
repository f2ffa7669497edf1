package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"
)

func (s *Store) SaveTenant(ctx context.Context, tenant Tenant) error {
	tenant.UpdatedAt = time.Now().UTC()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "access_token", "bot_user_id", "updated_at"}),
	}).Create(&tenant).Error
	if err != nil {
		return fmt.Errorf("SaveTenant: failed to upsert tenant %s: %w", tenant.TenantID, err)
	}
	return nil
}

func (s *Store) Tenant(ctx context.Context, tenantID string) (*Tenant, error) {
	var tenant Tenant
	err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (s *Store) SaveSchedulePreference(ctx context.Context, pref SchedulePreference) error {
	pref.UpdatedAt = time.Now().UTC()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"channel_id", "standup_time", "timezone", "updated_at"}),
	}).Create(&pref).Error
	if err != nil {
		return fmt.Errorf("SaveSchedulePreference: failed to upsert for tenant %s: %w", pref.TenantID, err)
	}
	return nil
}

func (s *Store) SchedulePreferenceFor(ctx context.Context, tenantID string) (*SchedulePreference, error) {
	var pref SchedulePreference
	err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&pref).Error
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func (s *Store) AllSchedulePreferences(ctx context.Context) ([]SchedulePreference, error) {
	var prefs []SchedulePreference
	err := s.db.WithContext(ctx).Find(&prefs).Error
	if err != nil {
		return nil, fmt.Errorf("AllSchedulePreferences: %w", err)
	}
	return prefs, nil
}

package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"
)

func (s *Store) SaveMember(ctx context.Context, member Member) error {
	member.UpdatedAt = time.Now().UTC()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "member_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"real_name", "dm_channel_id", "updated_at"}),
	}).Create(&member).Error
	if err != nil {
		return fmt.Errorf("SaveMember: failed to upsert member %s for tenant %s: %w", member.MemberID, member.TenantID, err)
	}
	return nil
}

func (s *Store) MembersOf(ctx context.Context, tenantID string) ([]Member, error) {
	var members []Member
	err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("MembersOf: failed to fetch members for tenant %s: %w", tenantID, err)
	}
	return members, nil
}

func (s *Store) UpdateMemberChannel(ctx context.Context, tenantID, memberID, channelID string) error {
	err := s.db.WithContext(ctx).Model(&Member{}).
		Where("tenant_id = ? AND member_id = ?", tenantID, memberID).
		Updates(map[string]any{
			"dm_channel_id": channelID,
			"updated_at":    time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("UpdateMemberChannel: failed for member %s: %w", memberID, err)
	}
	return nil
}

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

func (s *Store) UpsertTriggerEntry(ctx context.Context, entry TriggerEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"tenant_id", "spec", "action", "channel_id", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("UpsertTriggerEntry: failed for %s: %w", entry.Name, err)
	}
	return nil
}

func (s *Store) CreateDelayedAction(ctx context.Context, action, argument string, dueAt time.Time) error {
	row := DelayedAction{
		ID:        uuid.NewString(),
		Action:    action,
		Argument:  argument,
		DueAt:     dueAt.UTC(),
		Status:    ActionPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("CreateDelayedAction: failed for %s: %w", action, err)
	}
	return nil
}

func (s *Store) DueDelayedActions(ctx context.Context, now time.Time) ([]DelayedAction, error) {
	var actions []DelayedAction
	err := s.db.WithContext(ctx).
		Where("status = ? AND due_at <= ?", ActionPending, now.UTC()).
		Order("due_at ASC").
		Find(&actions).Error
	if err != nil {
		return nil, fmt.Errorf("DueDelayedActions: %w", err)
	}
	return actions, nil
}

// ClaimDelayedAction flips a pending row to done and reports whether this
// caller won the claim. Losing the claim means another dispatcher got there
// first.
func (s *Store) ClaimDelayedAction(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&DelayedAction{}).
		Where("id = ? AND status = ?", id, ActionPending).
		Update("status", ActionDone)
	if res.Error != nil {
		return false, fmt.Errorf("ClaimDelayedAction: failed for %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

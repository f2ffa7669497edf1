package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"
)

func (s *Store) SaveCheckpoint(ctx context.Context, cp *WorkflowCheckpoint) error {
	cp.UpdatedAt = time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = cp.UpdatedAt
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "thread_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"round_id", "channel_id", "step", "suspended", "log", "result", "updated_at"}),
	}).Create(cp).Error
	if err != nil {
		return fmt.Errorf("SaveCheckpoint: failed for thread %s: %w", cp.ThreadID, err)
	}
	return nil
}

func (s *Store) Checkpoint(ctx context.Context, threadID string) (*WorkflowCheckpoint, error) {
	var cp WorkflowCheckpoint
	err := s.db.WithContext(ctx).Where("thread_id = ?", threadID).First(&cp).Error
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// ClaimCheckpointStep advances the checkpoint from one step to another only
// if it is still at the expected step. Returns whether the transition was
// applied; a duplicate resume loses the claim and must not re-run the step.
func (s *Store) ClaimCheckpointStep(ctx context.Context, threadID, from, to string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&WorkflowCheckpoint{}).
		Where("thread_id = ? AND step = ?", threadID, from).
		Updates(map[string]any{
			"step":       to,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("ClaimCheckpointStep: failed for thread %s: %w", threadID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func (s *Store) CreateRound(ctx context.Context, tenantID, createdBy string) (*Round, error) {
	round := Round{
		RoundID:   uuid.NewString(),
		TenantID:  tenantID,
		Status:    RoundOpen,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&round).Error; err != nil {
		return nil, fmt.Errorf("CreateRound: failed for tenant %s: %w", tenantID, err)
	}
	return &round, nil
}

// OpenRoundForDay returns the most recent open round for the tenant created
// on the UTC calendar day containing at. This day-window query is the only
// guard against overlapping rounds.
func (s *Store) OpenRoundForDay(ctx context.Context, tenantID string, at time.Time) (*Round, error) {
	day := at.UTC()
	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.Add(24 * time.Hour)

	var round Round
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND created_at >= ? AND created_at < ?",
			tenantID, RoundOpen, startOfDay, endOfDay).
		Order("created_at DESC").
		First(&round).Error
	if err != nil {
		return nil, err
	}
	return &round, nil
}

// CloseRound is idempotent: closing an already-closed round rewrites the
// same terminal state.
func (s *Store) CloseRound(ctx context.Context, roundID string) error {
	err := s.db.WithContext(ctx).Model(&Round{}).
		Where("round_id = ?", roundID).
		Updates(map[string]any{
			"status":    RoundClosed,
			"closed_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("CloseRound: failed for round %s: %w", roundID, err)
	}
	return nil
}

func (s *Store) SaveResponse(ctx context.Context, resp Response) error {
	if err := s.db.WithContext(ctx).Create(&resp).Error; err != nil {
		return fmt.Errorf("SaveResponse: failed for tenant %s, member %s: %w", resp.TenantID, resp.MemberID, err)
	}
	return nil
}

func (s *Store) ResponsesForRound(ctx context.Context, tenantID, roundID string) ([]Response, error) {
	var responses []Response
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND round_id = ?", tenantID, roundID).
		Order("id ASC").
		Find(&responses).Error
	if err != nil {
		return nil, fmt.Errorf("ResponsesForRound: failed for round %s: %w", roundID, err)
	}
	return responses, nil
}

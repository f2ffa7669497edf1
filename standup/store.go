package standup

import (
	"context"
	"time"

	"standupbot/db"
)

// Store is the persistence surface the standup components need. *db.Store
// satisfies it; tests substitute in-memory fakes.
type Store interface {
	Tenant(ctx context.Context, tenantID string) (*db.Tenant, error)
	MembersOf(ctx context.Context, tenantID string) ([]db.Member, error)
	UpdateMemberChannel(ctx context.Context, tenantID, memberID, channelID string) error
	SchedulePreferenceFor(ctx context.Context, tenantID string) (*db.SchedulePreference, error)

	CreateRound(ctx context.Context, tenantID, createdBy string) (*db.Round, error)
	OpenRoundForDay(ctx context.Context, tenantID string, at time.Time) (*db.Round, error)
	CloseRound(ctx context.Context, roundID string) error
	SaveResponse(ctx context.Context, resp db.Response) error
	ResponsesForRound(ctx context.Context, tenantID, roundID string) ([]db.Response, error)

	SaveCheckpoint(ctx context.Context, cp *db.WorkflowCheckpoint) error
	Checkpoint(ctx context.Context, threadID string) (*db.WorkflowCheckpoint, error)
	ClaimCheckpointStep(ctx context.Context, threadID, from, to string) (bool, error)
}

// Gateway is the outbound messaging surface: open a direct conversation
// with a member and post text to a channel or conversation.
type Gateway interface {
	OpenDirectChannel(ctx context.Context, tenant *db.Tenant, memberID string) (string, error)
	Post(ctx context.Context, tenant *db.Tenant, channelID, text string) error
}

// Generator produces a summary from an assembled prompt. A nil Generator
// means the deterministic fallback is used directly.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// DelayScheduler schedules a one-shot durable action after a delay.
type DelayScheduler interface {
	Schedule(ctx context.Context, action, argument string, delay time.Duration) error
}

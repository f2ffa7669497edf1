package api

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"standupbot/db"
	"standupbot/standup"
)

// Store is the persistence the handlers need. *db.Store satisfies it.
type Store interface {
	Tenant(ctx context.Context, tenantID string) (*db.Tenant, error)
	SaveSchedulePreference(ctx context.Context, pref db.SchedulePreference) error
	SaveMember(ctx context.Context, member db.Member) error
}

// ResponseRecorder attaches an inbound update to the tenant's open round.
// *standup.Lifecycle satisfies it.
type ResponseRecorder interface {
	RecordResponse(ctx context.Context, tenantID, memberID, text string, receivedAt time.Time) (bool, error)
}

// Gateway is the outbound messaging surface the handlers use directly.
// *SlackClient satisfies it.
type Gateway interface {
	Post(ctx context.Context, tenant *db.Tenant, channelID, text string) error
	OpenDirectChannel(ctx context.Context, tenant *db.Tenant, memberID string) (string, error)
	ListMembers(ctx context.Context, tenant *db.Tenant) ([]MemberInfo, error)
}

// Service holds the handler dependencies, wired once in main.
type Service struct {
	store        Store
	rounds       ResponseRecorder
	coordinator  *standup.Coordinator
	gateway      Gateway
	dedupe       Deduper
	manualWindow time.Duration
	log          *logrus.Logger
}

func NewService(store Store, rounds ResponseRecorder, coordinator *standup.Coordinator,
	gateway Gateway, dedupe Deduper, manualWindow time.Duration, log *logrus.Logger) *Service {
	return &Service{
		store:        store,
		rounds:       rounds,
		coordinator:  coordinator,
		gateway:      gateway,
		dedupe:       dedupe,
		manualWindow: manualWindow,
		log:          log,
	}
}

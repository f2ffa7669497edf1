package standup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"standupbot/db"
)

// systemMemberID is the platform-reserved Slackbot user; it never gets a
// standup prompt.
const systemMemberID = "USLACKBOT"

const promptMessage = "Good morning! 👋 Time for your daily standup.\n\nPlease reply with: *Yesterday / Today / Blockers*"

// SendOutcome records one member's fan-out result so callers can observe
// partial delivery.
type SendOutcome struct {
	MemberID string
	Err      error
}

// Lifecycle manages collection rounds: starting them, attaching inbound
// replies, and closing them.
type Lifecycle struct {
	store   Store
	gateway Gateway
	log     *logrus.Logger
}

func NewLifecycle(store Store, gateway Gateway, log *logrus.Logger) *Lifecycle {
	return &Lifecycle{store: store, gateway: gateway, log: log}
}

// StartRound creates an open round and fans the prompt out to every member
// of the tenant. Sends are attempted independently: one member's failure is
// recorded in the outcome slice and does not abort the rest.
func (l *Lifecycle) StartRound(ctx context.Context, tenantID string) (string, []SendOutcome, error) {
	tenant, err := l.store.Tenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, fmt.Errorf("StartRound: unknown tenant %s", tenantID)
		}
		return "", nil, fmt.Errorf("StartRound: failed to load tenant %s: %w", tenantID, err)
	}

	round, err := l.store.CreateRound(ctx, tenantID, "system")
	if err != nil {
		return "", nil, err
	}

	members, err := l.store.MembersOf(ctx, tenantID)
	if err != nil {
		return "", nil, err
	}

	outcomes := make([]SendOutcome, 0, len(members))
	for _, member := range members {
		if member.MemberID == systemMemberID {
			continue
		}
		sendErr := l.sendPrompt(ctx, tenant, member)
		if sendErr != nil {
			l.log.WithFields(logrus.Fields{
				"tenant": tenantID,
				"member": member.MemberID,
			}).Warnf("failed to send standup prompt: %v", sendErr)
		}
		outcomes = append(outcomes, SendOutcome{MemberID: member.MemberID, Err: sendErr})
	}

	return round.RoundID, outcomes, nil
}

// sendPrompt delivers the prompt over the member's cached direct channel,
// opening one on demand. A failed send on a cached channel re-opens and
// retries exactly once before giving up on that member.
func (l *Lifecycle) sendPrompt(ctx context.Context, tenant *db.Tenant, member db.Member) error {
	channel := member.DMChannelID
	if channel == "" {
		opened, err := l.openAndCache(ctx, tenant, member.MemberID)
		if err != nil {
			return err
		}
		channel = opened
	}

	if err := l.gateway.Post(ctx, tenant, channel, promptMessage); err != nil {
		// Cached channel may be stale; re-open once and retry the send.
		opened, openErr := l.openAndCache(ctx, tenant, member.MemberID)
		if openErr != nil {
			return fmt.Errorf("send failed (%v) and channel re-open failed: %w", err, openErr)
		}
		return l.gateway.Post(ctx, tenant, opened, promptMessage)
	}
	return nil
}

func (l *Lifecycle) openAndCache(ctx context.Context, tenant *db.Tenant, memberID string) (string, error) {
	channel, err := l.gateway.OpenDirectChannel(ctx, tenant, memberID)
	if err != nil {
		return "", fmt.Errorf("failed to open direct channel for %s: %w", memberID, err)
	}
	if err := l.store.UpdateMemberChannel(ctx, tenant.TenantID, memberID, channel); err != nil {
		l.log.Warnf("failed to cache direct channel for %s: %v", memberID, err)
	}
	return channel, nil
}

// RecordResponse attaches an inbound message to the tenant's open round on
// the current UTC day. A message with no matching round is discarded
// silently: unsolicited updates outside a round are not an error.
func (l *Lifecycle) RecordResponse(ctx context.Context, tenantID, memberID, text string, receivedAt time.Time) (bool, error) {
	round, err := l.store.OpenRoundForDay(ctx, tenantID, receivedAt)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("RecordResponse: failed to look up open round for %s: %w", tenantID, err)
	}

	err = l.store.SaveResponse(ctx, db.Response{
		TenantID:   tenantID,
		RoundID:    round.RoundID,
		MemberID:   memberID,
		Text:       text,
		ReceivedAt: receivedAt.UTC(),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// CloseRound closes a round; closing an already-closed round is a no-op
// overwrite.
func (l *Lifecycle) CloseRound(ctx context.Context, roundID string) error {
	return l.store.CloseRound(ctx, roundID)
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"standupbot/db"
)

// StartAction is the action reference recorded on trigger entries.
const StartAction = "start_standup"

// PreferenceStore is the slice of persistence the engine needs.
type PreferenceStore interface {
	AllSchedulePreferences(ctx context.Context) ([]db.SchedulePreference, error)
	UpsertTriggerEntry(ctx context.Context, entry db.TriggerEntry) error
}

// RoundStarter starts a tenant's workflow; the coordinator satisfies it.
type RoundStarter interface {
	Start(ctx context.Context, tenantID, channelID string, window time.Duration) (string, error)
}

// Engine periodically recomputes per-tenant UTC trigger times from local
// wall-clock preferences and keeps the registry consistent. A broken
// preference only costs that tenant one cycle.
type Engine struct {
	store    PreferenceStore
	registry *Registry
	starter  RoundStarter
	window   time.Duration
	interval time.Duration
	log      *logrus.Logger
}

func NewEngine(store PreferenceStore, registry *Registry, starter RoundStarter, window, interval time.Duration, log *logrus.Logger) *Engine {
	return &Engine{
		store:    store,
		registry: registry,
		starter:  starter,
		window:   window,
		interval: interval,
		log:      log,
	}
}

func (e *Engine) Run(ctx context.Context) {
	e.registry.Start()
	defer e.registry.Stop()

	e.log.Info("schedule engine started")
	e.refreshWithTimeout(ctx)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.refreshWithTimeout(ctx)
		}
	}
}

func (e *Engine) refreshWithTimeout(ctx context.Context) {
	rctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	e.Refresh(rctx)
}

// Refresh converts every schedule preference to a daily UTC trigger and
// upserts it under the tenant-derived name. Returns the number of entries
// processed.
func (e *Engine) Refresh(ctx context.Context) int {
	prefs, err := e.store.AllSchedulePreferences(ctx)
	if err != nil {
		e.log.Errorf("schedule refresh: failed to load preferences: %v", err)
		return 0
	}

	count := 0
	for _, pref := range prefs {
		if pref.StandupTime == "" || pref.Timezone == "" {
			continue
		}

		spec, err := utcCronSpec(pref.StandupTime, pref.Timezone, time.Now().UTC())
		if err != nil {
			e.log.WithField("tenant", pref.TenantID).Warnf("skipping schedule this cycle: %v", err)
			continue
		}

		tenantID := pref.TenantID
		channelID := pref.ChannelID
		name := "standup_" + tenantID

		err = e.registry.Upsert(name, spec, channelID, func() {
			e.fire(tenantID, channelID)
		})
		if err != nil {
			e.log.WithField("tenant", tenantID).Warnf("failed to upsert trigger: %v", err)
			continue
		}

		entry := db.TriggerEntry{
			Name:      name,
			TenantID:  tenantID,
			Spec:      spec,
			Action:    StartAction,
			ChannelID: channelID,
		}
		if err := e.store.UpsertTriggerEntry(ctx, entry); err != nil {
			e.log.WithField("tenant", tenantID).Warnf("failed to persist trigger entry: %v", err)
		}
		count++
	}

	e.log.Infof("schedule refresh complete, %d entries processed", count)
	return count
}

func (e *Engine) fire(tenantID, channelID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	threadID, err := e.starter.Start(ctx, tenantID, channelID, e.window)
	if err != nil {
		e.log.WithField("tenant", tenantID).Errorf("failed to start standup: %v", err)
		return
	}
	e.log.WithFields(logrus.Fields{
		"tenant": tenantID,
		"thread": threadID,
	}).Info("standup triggered")
}

// utcCronSpec converts a local HH:MM in the named timezone, anchored to the
// current UTC calendar date, into a daily cron spec at the equivalent UTC
// hour and minute. Anchoring to today means a DST transition can leave the
// trigger an hour off until the next refresh recomputes it.
func utcCronSpec(localTime, timezone string, now time.Time) (string, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return "", fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	parsed, err := time.Parse("15:04", localTime)
	if err != nil {
		return "", fmt.Errorf("invalid standup time %q: %w", localTime, err)
	}

	localDT := time.Date(now.Year(), now.Month(), now.Day(), parsed.Hour(), parsed.Minute(), 0, 0, loc)
	utc := localDT.UTC()
	return fmt.Sprintf("%d %d * * *", utc.Minute(), utc.Hour()), nil
}

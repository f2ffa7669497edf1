package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"standupbot/db"
)

// ActionStore persists one-shot delayed actions.
type ActionStore interface {
	CreateDelayedAction(ctx context.Context, action, argument string, dueAt time.Time) error
	DueDelayedActions(ctx context.Context, now time.Time) ([]db.DelayedAction, error)
	ClaimDelayedAction(ctx context.Context, id string) (bool, error)
}

// Handler runs one claimed action.
type Handler func(ctx context.Context, argument string)

// Delayed is a durable schedule-once substrate: actions are rows, so they
// survive restarts, and a polling dispatcher fires them at least once. The
// claim is a conditional status update, which keeps multiple dispatchers
// from doubling up on the same row.
type Delayed struct {
	store    ActionStore
	interval time.Duration
	log      *logrus.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewDelayed(store ActionStore, interval time.Duration, log *logrus.Logger) *Delayed {
	return &Delayed{
		store:    store,
		interval: interval,
		log:      log,
		handlers: make(map[string]Handler),
	}
}

// Handle registers the handler for an action name.
func (d *Delayed) Handle(action string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[action] = h
}

// Schedule persists an action to fire after delay.
func (d *Delayed) Schedule(ctx context.Context, action, argument string, delay time.Duration) error {
	return d.store.CreateDelayedAction(ctx, action, argument, time.Now().Add(delay))
}

func (d *Delayed) Run(ctx context.Context) {
	d.log.Info("delayed action dispatcher started")
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			d.Dispatch(ctx, now)
		}
	}
}

// Dispatch claims and runs every action due at now.
func (d *Delayed) Dispatch(ctx context.Context, now time.Time) {
	due, err := d.store.DueDelayedActions(ctx, now)
	if err != nil {
		d.log.Errorf("delayed dispatch: failed to load due actions: %v", err)
		return
	}

	for _, action := range due {
		// Resolve the handler before claiming: an action nobody handles
		// stays pending for a dispatcher that does.
		handler := d.handler(action.Action)
		if handler == nil {
			d.log.Warnf("delayed dispatch: no handler for action %q, leaving pending", action.Action)
			continue
		}

		claimed, err := d.store.ClaimDelayedAction(ctx, action.ID)
		if err != nil {
			d.log.Warnf("delayed dispatch: claim failed for %s: %v", action.ID, err)
			continue
		}
		if !claimed {
			continue
		}
		handler(ctx, action.Argument)
	}
}

func (d *Delayed) handler(action string) Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handlers[action]
}

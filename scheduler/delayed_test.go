package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"standupbot/db"
)

type fakeActionStore struct {
	rows map[string]*db.DelayedAction
	seq  int
}

func newFakeActionStore() *fakeActionStore {
	return &fakeActionStore{rows: make(map[string]*db.DelayedAction)}
}

func (f *fakeActionStore) CreateDelayedAction(_ context.Context, action, argument string, dueAt time.Time) error {
	f.seq++
	id := fmt.Sprintf("action-%d", f.seq)
	f.rows[id] = &db.DelayedAction{
		ID: id, Action: action, Argument: argument,
		DueAt: dueAt.UTC(), Status: db.ActionPending,
	}
	return nil
}

func (f *fakeActionStore) DueDelayedActions(_ context.Context, now time.Time) ([]db.DelayedAction, error) {
	var due []db.DelayedAction
	for _, row := range f.rows {
		if row.Status == db.ActionPending && !row.DueAt.After(now.UTC()) {
			due = append(due, *row)
		}
	}
	return due, nil
}

func (f *fakeActionStore) ClaimDelayedAction(_ context.Context, id string) (bool, error) {
	row, ok := f.rows[id]
	if !ok || row.Status != db.ActionPending {
		return false, nil
	}
	row.Status = db.ActionDone
	return true, nil
}

func TestDelayedDispatchFiresDueActions(t *testing.T) {
	store := newFakeActionStore()
	delayed := NewDelayed(store, time.Second, testLogger())

	var fired []string
	delayed.Handle("resume_standup", func(_ context.Context, argument string) {
		fired = append(fired, argument)
	})

	require.NoError(t, delayed.Schedule(context.Background(), "resume_standup", "thread-1", 0))
	delayed.Dispatch(context.Background(), time.Now().Add(time.Second))

	assert.Equal(t, []string{"thread-1"}, fired)
}

func TestDelayedDispatchClaimsEachActionOnce(t *testing.T) {
	store := newFakeActionStore()
	delayed := NewDelayed(store, time.Second, testLogger())

	fired := 0
	delayed.Handle("resume_standup", func(_ context.Context, _ string) { fired++ })

	require.NoError(t, delayed.Schedule(context.Background(), "resume_standup", "thread-1", 0))
	now := time.Now().Add(time.Second)
	delayed.Dispatch(context.Background(), now)
	delayed.Dispatch(context.Background(), now)

	assert.Equal(t, 1, fired)
}

func TestDelayedDispatchWaitsForDueTime(t *testing.T) {
	store := newFakeActionStore()
	delayed := NewDelayed(store, time.Second, testLogger())

	fired := 0
	delayed.Handle("resume_standup", func(_ context.Context, _ string) { fired++ })

	require.NoError(t, delayed.Schedule(context.Background(), "resume_standup", "thread-1", time.Hour))
	delayed.Dispatch(context.Background(), time.Now())
	assert.Equal(t, 0, fired)

	delayed.Dispatch(context.Background(), time.Now().Add(2*time.Hour))
	assert.Equal(t, 1, fired)
}

func TestDelayedDispatchLeavesUnhandledActionsPending(t *testing.T) {
	store := newFakeActionStore()
	delayed := NewDelayed(store, time.Second, testLogger())

	require.NoError(t, delayed.Schedule(context.Background(), "orphan_action", "x", 0))
	due := time.Now().Add(time.Second)
	delayed.Dispatch(context.Background(), due)

	// Without a handler the row must not be consumed.
	assert.Equal(t, db.ActionPending, store.rows["action-1"].Status)

	// A dispatcher that does carry the handler picks it up later.
	fired := 0
	delayed.Handle("orphan_action", func(_ context.Context, _ string) { fired++ })
	delayed.Dispatch(context.Background(), due)

	assert.Equal(t, 1, fired)
	assert.Equal(t, db.ActionDone, store.rows["action-1"].Status)
}

package standup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"standupbot/db"
)

func TestStartRoundFansOutToAllMembers(t *testing.T) {
	store := newFakeStore()
	store.addTenant("T1")
	store.addMember("T1", "U1", "D1")
	store.addMember("T1", "U2", "D2")
	gateway := newFakeGateway()
	lifecycle := NewLifecycle(store, gateway, testLogger())

	roundID, outcomes, err := lifecycle.StartRound(context.Background(), "T1")
	require.NoError(t, err)
	require.NotEmpty(t, roundID)

	require.Len(t, outcomes, 2)
	for _, outcome := range outcomes {
		assert.NoError(t, outcome.Err)
	}
	assert.Len(t, gateway.postsTo("D1"), 1)
	assert.Len(t, gateway.postsTo("D2"), 1)
	assert.Equal(t, db.RoundOpen, store.rounds[roundID].Status)
}

func TestStartRoundSkipsSystemMember(t *testing.T) {
	store := newFakeStore()
	store.addTenant("T1")
	store.addMember("T1", "USLACKBOT", "DBOT")
	store.addMember("T1", "U1", "D1")
	gateway := newFakeGateway()
	lifecycle := NewLifecycle(store, gateway, testLogger())

	_, outcomes, err := lifecycle.StartRound(context.Background(), "T1")
	require.NoError(t, err)

	require.Len(t, outcomes, 1)
	assert.Equal(t, "U1", outcomes[0].MemberID)
	assert.Empty(t, gateway.postsTo("DBOT"))
}

func TestStartRoundIsolatesSendFailures(t *testing.T) {
	store := newFakeStore()
	store.addTenant("T1")
	store.addMember("T1", "U1", "D1")
	store.addMember("T1", "U2", "D2")
	gateway := newFakeGateway()
	gateway.postErr["D1"] = errors.New("rate_limited")
	gateway.openErr["U1"] = errors.New("rate_limited")
	lifecycle := NewLifecycle(store, gateway, testLogger())

	_, outcomes, err := lifecycle.StartRound(context.Background(), "T1")
	require.NoError(t, err)

	require.Len(t, outcomes, 2)
	assert.Error(t, outcomes[0].Err)
	assert.NoError(t, outcomes[1].Err)
	assert.Len(t, gateway.postsTo("D2"), 1)
}

func TestStartRoundOpensMissingChannel(t *testing.T) {
	store := newFakeStore()
	store.addTenant("T1")
	store.addMember("T1", "U1", "")
	gateway := newFakeGateway()
	lifecycle := NewLifecycle(store, gateway, testLogger())

	_, outcomes, err := lifecycle.StartRound(context.Background(), "T1")
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.NoError(t, outcomes[0].Err)

	assert.Equal(t, []string{"U1"}, gateway.opened)
	assert.Len(t, gateway.postsTo("DU1"), 1)
	assert.Equal(t, "DU1", store.members["T1"][0].DMChannelID)
}

func TestStartRoundRetriesStaleCachedChannel(t *testing.T) {
	store := newFakeStore()
	store.addTenant("T1")
	store.addMember("T1", "U1", "DOLD")
	gateway := newFakeGateway()
	gateway.postFailOnce["DOLD"] = true
	gateway.openChannels["U1"] = "DNEW"
	lifecycle := NewLifecycle(store, gateway, testLogger())

	_, outcomes, err := lifecycle.StartRound(context.Background(), "T1")
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.NoError(t, outcomes[0].Err)

	assert.Len(t, gateway.postsTo("DNEW"), 1)
	assert.Equal(t, "DNEW", store.members["T1"][0].DMChannelID)
}

func TestStartRoundUnknownTenant(t *testing.T) {
	lifecycle := NewLifecycle(newFakeStore(), newFakeGateway(), testLogger())

	_, _, err := lifecycle.StartRound(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tenant")
}

func TestRecordResponseWithNoOpenRoundIsNoOp(t *testing.T) {
	store := newFakeStore()
	store.addTenant("T1")
	lifecycle := NewLifecycle(store, newFakeGateway(), testLogger())

	recorded, err := lifecycle.RecordResponse(context.Background(), "T1", "U1", "hello", time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, recorded)
	assert.Empty(t, store.responses)
}

func TestRecordResponseAttachesToOpenRound(t *testing.T) {
	store := newFakeStore()
	store.addTenant("T1")
	store.addMember("T1", "U1", "D1")
	gateway := newFakeGateway()
	lifecycle := NewLifecycle(store, gateway, testLogger())

	roundID, _, err := lifecycle.StartRound(context.Background(), "T1")
	require.NoError(t, err)

	received := time.Now().UTC()
	recorded, err := lifecycle.RecordResponse(context.Background(), "T1", "U1", "did things", received)
	require.NoError(t, err)
	assert.True(t, recorded)

	require.Len(t, store.responses, 1)
	assert.Equal(t, roundID, store.responses[0].RoundID)
	assert.Equal(t, "did things", store.responses[0].Text)
}

func TestRecordResponseIgnoresClosedRound(t *testing.T) {
	store := newFakeStore()
	store.addTenant("T1")
	lifecycle := NewLifecycle(store, newFakeGateway(), testLogger())

	roundID, _, err := lifecycle.StartRound(context.Background(), "T1")
	require.NoError(t, err)
	require.NoError(t, lifecycle.CloseRound(context.Background(), roundID))

	recorded, err := lifecycle.RecordResponse(context.Background(), "T1", "U1", "late", time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, recorded)
}

func TestCloseRoundIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.addTenant("T1")
	lifecycle := NewLifecycle(store, newFakeGateway(), testLogger())

	roundID, _, err := lifecycle.StartRound(context.Background(), "T1")
	require.NoError(t, err)

	require.NoError(t, lifecycle.CloseRound(context.Background(), roundID))
	require.NoError(t, lifecycle.CloseRound(context.Background(), roundID))
	assert.Equal(t, db.RoundClosed, store.rounds[roundID].Status)
}

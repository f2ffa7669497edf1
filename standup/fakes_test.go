package standup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"standupbot/db"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeStore struct {
	tenants     map[string]*db.Tenant
	members     map[string][]db.Member
	prefs       map[string]*db.SchedulePreference
	rounds      map[string]*db.Round
	responses   []db.Response
	checkpoints map[string]*db.WorkflowCheckpoint

	responsesErr error
	roundSeq     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tenants:     make(map[string]*db.Tenant),
		members:     make(map[string][]db.Member),
		prefs:       make(map[string]*db.SchedulePreference),
		rounds:      make(map[string]*db.Round),
		checkpoints: make(map[string]*db.WorkflowCheckpoint),
	}
}

func (f *fakeStore) addTenant(tenantID string) *db.Tenant {
	tenant := &db.Tenant{TenantID: tenantID, AccessToken: "enc", BotUserID: "B01"}
	f.tenants[tenantID] = tenant
	return tenant
}

func (f *fakeStore) addMember(tenantID, memberID, dmChannel string) {
	f.members[tenantID] = append(f.members[tenantID], db.Member{
		TenantID: tenantID, MemberID: memberID, DMChannelID: dmChannel,
	})
}

func (f *fakeStore) Tenant(_ context.Context, tenantID string) (*db.Tenant, error) {
	tenant, ok := f.tenants[tenantID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return tenant, nil
}

func (f *fakeStore) MembersOf(_ context.Context, tenantID string) ([]db.Member, error) {
	return f.members[tenantID], nil
}

func (f *fakeStore) UpdateMemberChannel(_ context.Context, tenantID, memberID, channelID string) error {
	members := f.members[tenantID]
	for i := range members {
		if members[i].MemberID == memberID {
			members[i].DMChannelID = channelID
		}
	}
	return nil
}

func (f *fakeStore) SchedulePreferenceFor(_ context.Context, tenantID string) (*db.SchedulePreference, error) {
	pref, ok := f.prefs[tenantID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return pref, nil
}

func (f *fakeStore) CreateRound(_ context.Context, tenantID, createdBy string) (*db.Round, error) {
	f.roundSeq++
	round := &db.Round{
		RoundID:   fmt.Sprintf("round-%d", f.roundSeq),
		TenantID:  tenantID,
		Status:    db.RoundOpen,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	f.rounds[round.RoundID] = round
	copied := *round
	return &copied, nil
}

func (f *fakeStore) OpenRoundForDay(_ context.Context, tenantID string, at time.Time) (*db.Round, error) {
	day := at.UTC()
	var latest *db.Round
	for _, round := range f.rounds {
		if round.TenantID != tenantID || round.Status != db.RoundOpen {
			continue
		}
		created := round.CreatedAt.UTC()
		if created.Year() != day.Year() || created.YearDay() != day.YearDay() {
			continue
		}
		if latest == nil || round.CreatedAt.After(latest.CreatedAt) {
			latest = round
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeStore) CloseRound(_ context.Context, roundID string) error {
	if round, ok := f.rounds[roundID]; ok {
		now := time.Now().UTC()
		round.Status = db.RoundClosed
		round.ClosedAt = &now
	}
	return nil
}

func (f *fakeStore) SaveResponse(_ context.Context, resp db.Response) error {
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeStore) ResponsesForRound(_ context.Context, tenantID, roundID string) ([]db.Response, error) {
	if f.responsesErr != nil {
		return nil, f.responsesErr
	}
	var out []db.Response
	for _, resp := range f.responses {
		if resp.TenantID == tenantID && resp.RoundID == roundID {
			out = append(out, resp)
		}
	}
	return out, nil
}

func (f *fakeStore) SaveCheckpoint(_ context.Context, cp *db.WorkflowCheckpoint) error {
	copied := *cp
	f.checkpoints[cp.ThreadID] = &copied
	return nil
}

func (f *fakeStore) Checkpoint(_ context.Context, threadID string) (*db.WorkflowCheckpoint, error) {
	cp, ok := f.checkpoints[threadID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *cp
	return &copied, nil
}

func (f *fakeStore) ClaimCheckpointStep(_ context.Context, threadID, from, to string) (bool, error) {
	cp, ok := f.checkpoints[threadID]
	if !ok || cp.Step != from {
		return false, nil
	}
	cp.Step = to
	return true, nil
}

type postCall struct {
	channel string
	text    string
}

type fakeGateway struct {
	posts        []postCall
	opened       []string
	openChannels map[string]string
	openErr      map[string]error
	postErr      map[string]error
	postFailOnce map[string]bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		openChannels: make(map[string]string),
		openErr:      make(map[string]error),
		postErr:      make(map[string]error),
		postFailOnce: make(map[string]bool),
	}
}

func (g *fakeGateway) OpenDirectChannel(_ context.Context, _ *db.Tenant, memberID string) (string, error) {
	g.opened = append(g.opened, memberID)
	if err := g.openErr[memberID]; err != nil {
		return "", err
	}
	if channel, ok := g.openChannels[memberID]; ok {
		return channel, nil
	}
	return "D" + memberID, nil
}

func (g *fakeGateway) Post(_ context.Context, _ *db.Tenant, channelID, text string) error {
	if g.postFailOnce[channelID] {
		delete(g.postFailOnce, channelID)
		return errors.New("channel_not_found")
	}
	if err := g.postErr[channelID]; err != nil {
		return err
	}
	g.posts = append(g.posts, postCall{channel: channelID, text: text})
	return nil
}

func (g *fakeGateway) postsTo(channelID string) []postCall {
	var out []postCall
	for _, p := range g.posts {
		if p.channel == channelID {
			out = append(out, p)
		}
	}
	return out
}

type scheduledAction struct {
	action   string
	argument string
	delay    time.Duration
}

type fakeDelay struct {
	scheduled []scheduledAction
}

func (f *fakeDelay) Schedule(_ context.Context, action, argument string, delay time.Duration) error {
	f.scheduled = append(f.scheduled, scheduledAction{action: action, argument: argument, delay: delay})
	return nil
}

type fakeGenerator struct {
	out     string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

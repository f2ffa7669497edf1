package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"standupbot/db"
)

// HandleSlackEvents receives the events subscription: the URL verification
// challenge and direct-message replies to the standup prompt. Messages with
// no open round are acknowledged and discarded.
func (s *Service) HandleSlackEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Unable to read request body", http.StatusBadRequest)
		return
	}

	var verification urlVerification
	if err := json.Unmarshal(body, &verification); err == nil && verification.Type == "url_verification" {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(verification.Challenge))
		return
	}

	var event SlackEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Invalid Slack event format", http.StatusBadRequest)
		return
	}

	if event.Event.Type != "message" || event.Event.ChannelType != "im" ||
		event.Event.BotID != "" || event.Event.Text == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx := r.Context()
	tenant, err := s.store.Tenant(ctx, event.TeamID)
	if err != nil {
		http.Error(w, "Tenant not configured", http.StatusBadRequest)
		return
	}
	if event.Event.User == tenant.BotUserID {
		w.WriteHeader(http.StatusOK)
		return
	}

	seen, err := s.dedupe.Seen(ctx, event.TeamID, event.Event.User, event.Event.Text)
	if err != nil {
		s.log.Warnf("dedupe check failed for tenant %s: %v", event.TeamID, err)
	}
	if seen {
		s.ack(r, tenant, event.Event.Channel, ackDuplicate)
		w.WriteHeader(http.StatusOK)
		return
	}

	recorded, err := s.rounds.RecordResponse(ctx, event.TeamID, event.Event.User, event.Event.Text, time.Now().UTC())
	if err != nil {
		s.log.Errorf("failed to record response for tenant %s: %v", event.TeamID, err)
		w.WriteHeader(http.StatusOK)
		return
	}

	if recorded {
		if err := s.dedupe.Mark(ctx, event.TeamID, event.Event.User, event.Event.Text); err != nil {
			s.log.Warnf("dedupe mark failed for tenant %s: %v", event.TeamID, err)
		}
		s.ack(r, tenant, event.Event.Channel, ackReceived)
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Service) ack(r *http.Request, tenant *db.Tenant, channelID, text string) {
	if err := s.gateway.Post(r.Context(), tenant, channelID, text); err != nil {
		s.log.Warnf("failed to send ack to %s: %v", channelID, err)
	}
}

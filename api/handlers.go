package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"standupbot/db"
	"standupbot/standup"
)

func (s *Service) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleStartStandup starts a round's workflow for a tenant. Called by a
// manual trigger or a demo path; the always-on path goes through the
// schedule engine in-process.
func (s *Service) HandleStartStandup(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, workflowResponse{Success: false, Error: "invalid request body"})
		return
	}
	if req.TenantID == "" {
		writeJSON(w, http.StatusBadRequest, workflowResponse{Success: false, Error: "tenant_id is required"})
		return
	}

	threadID, err := s.coordinator.Start(r.Context(), req.TenantID, req.ChannelID, s.manualWindow)
	if err != nil {
		s.log.Errorf("failed to start standup for tenant %s: %v", req.TenantID, err)
		writeJSON(w, http.StatusInternalServerError, workflowResponse{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, workflowResponse{Success: true, ThreadID: threadID})
}

// HandleResumeStandup wakes a suspended workflow by thread id.
func (s *Service) HandleResumeStandup(w http.ResponseWriter, r *http.Request) {
	var req resumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, workflowResponse{Success: false, Error: "invalid request body"})
		return
	}
	if req.ThreadID == "" {
		writeJSON(w, http.StatusBadRequest, workflowResponse{Success: false, Error: "thread_id is required"})
		return
	}

	result, err := s.coordinator.Resume(r.Context(), req.ThreadID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, standup.ErrUnknownThread) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, workflowResponse{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, workflowResponse{Success: true, ThreadID: req.ThreadID, Result: result})
}

// HandleWorkflowStatus exposes the retained checkpoint for audit.
func (s *Service) HandleWorkflowStatus(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	cp, err := s.coordinator.Status(r.Context(), threadID)
	if err != nil {
		if errors.Is(err, standup.ErrUnknownThread) {
			writeJSON(w, http.StatusNotFound, workflowResponse{Success: false, Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, workflowResponse{Success: false, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		ThreadID:  cp.ThreadID,
		TenantID:  cp.TenantID,
		RoundID:   cp.RoundID,
		ChannelID: cp.ChannelID,
		Step:      cp.Step,
		Suspended: cp.Suspended,
		Log:       standup.CheckpointLog(cp),
		Result:    cp.Result,
	})
}

// HandleSetSchedule upserts the tenant's schedule preference.
func (s *Service) HandleSetSchedule(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.StandupTime != "" {
		if _, err := time.Parse("15:04", req.StandupTime); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "standup_time must be 24-hour HH:MM"})
			return
		}
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown timezone: " + req.Timezone})
			return
		}
	}

	err := s.store.SaveSchedulePreference(r.Context(), db.SchedulePreference{
		TenantID:    tenantID,
		ChannelID:   req.ChannelID,
		StandupTime: req.StandupTime,
		Timezone:    req.Timezone,
	})
	if err != nil {
		s.log.Errorf("failed to save schedule for tenant %s: %v", tenantID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save schedule"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// HandleSyncMembers refreshes the tenant's member directory from the
// gateway, opening and caching a direct channel per member.
func (s *Service) HandleSyncMembers(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	ctx := r.Context()

	tenant, err := s.store.Tenant(ctx, tenantID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "tenant not found"})
		return
	}

	members, err := s.gateway.ListMembers(ctx, tenant)
	if err != nil {
		s.log.Errorf("member sync failed for tenant %s: %v", tenantID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	synced := 0
	for _, member := range members {
		dmChannel, err := s.gateway.OpenDirectChannel(ctx, tenant, member.ID)
		if err != nil {
			s.log.Warnf("failed to open direct channel for %s: %v", member.ID, err)
			dmChannel = ""
		}
		err = s.store.SaveMember(ctx, db.Member{
			TenantID:    tenantID,
			MemberID:    member.ID,
			RealName:    member.RealName,
			DMChannelID: dmChannel,
		})
		if err != nil {
			s.log.Warnf("failed to save member %s: %v", member.ID, err)
			continue
		}
		synced++
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "synced": synced})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"standupbot/api"
)

func SetupRouter(svc *api.Service) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", svc.HandleHealthCheck)

	r.Post("/slack/events", svc.HandleSlackEvents)

	r.Post("/standup/start", svc.HandleStartStandup)
	r.Post("/standup/resume", svc.HandleResumeStandup)
	r.Get("/standup/status/{threadID}", svc.HandleWorkflowStatus)

	r.Post("/api/tenants/{tenantID}/schedule", svc.HandleSetSchedule)
	r.Post("/api/tenants/{tenantID}/sync", svc.HandleSyncMembers)

	return r
}

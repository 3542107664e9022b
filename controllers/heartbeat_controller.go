package controllers

import (
	"encoding/json"
	"net/http"
	"os"

	"mindclone_server/services"
)

// HeartbeatController triggers heartbeat ticks on demand. The endpoint exists
// for operators and integration tests; the cron scheduler drives the normal
// cadence.
type HeartbeatController struct {
	HeartbeatService *services.HeartbeatService
}

// NewHeartbeatController creates a new HeartbeatController instance
func NewHeartbeatController(heartbeatService *services.HeartbeatService) *HeartbeatController {
	return &HeartbeatController{HeartbeatService: heartbeatService}
}

// RunTick runs one heartbeat tick and returns its report
func (hc *HeartbeatController) RunTick(w http.ResponseWriter, r *http.Request) {
	// An operator token guards the trigger; user JWTs do not open it.
	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" || r.Header.Get("X-Admin-Token") != adminToken {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	report := hc.HeartbeatService.RunTick(r.Context())

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Heartbeat tick complete",
		"report":  report,
	})
}

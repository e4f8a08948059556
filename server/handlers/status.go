package handlers

import (
	"net/http"
	"time"

	"github.com/nomis52/goexample/buildinfo"
	"github.com/nomis52/goexample/server/runs"
)

// ServerProperties holds metadata about the running server instance.
type ServerProperties struct {
	Build     buildinfo.Properties `json:"build"`
	StartedAt time.Time            `json:"started_at"`
	Hostname  string               `json:"hostname"`
}

// NextRunResponse is the JSON response for the next run information.
type NextRunResponse struct {
	Scheduled bool       `json:"scheduled"`
	NextRun   *time.Time `json:"next_run,omitempty"`
}

// StatusResponse is the consolidated response for /api/status.
type StatusResponse struct {
	Server  ServerProperties `json:"server"`
	Run     runs.RunStatus   `json:"run"`
	NextRun NextRunResponse  `json:"next_run"`
}

// StatusHandler handles requests for the consolidated status endpoint.
type StatusHandler struct {
	props    ServerProperties
	provider StatusProvider
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(props ServerProperties, provider StatusProvider) *StatusHandler {
	return &StatusHandler{
		props:    props,
		provider: provider,
	}
}

// ServeHTTP implements http.Handler.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	nextRun := h.provider.NextRun()
	writeJSON(w, http.StatusOK, StatusResponse{
		Server: h.props,
		Run:    h.provider.Status(),
		NextRun: NextRunResponse{
			Scheduled: nextRun != nil,
			NextRun:   nextRun,
		},
	})
}

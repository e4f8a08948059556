package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/nomis52/goexample/server/runs"
)

// RunRequest defines the request body for POST /run.
type RunRequest struct {
	Suites []string `json:"suites"`
}

// RunHandler handles requests to trigger a suite run.
type RunHandler struct {
	starter RunStarter
	lister  SuiteLister
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(starter RunStarter, lister SuiteLister) *RunHandler {
	return &RunHandler{
		starter: starter,
		lister:  lister,
	}
}

// ServeHTTP implements http.Handler.
func (h *RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("invalid JSON: %v", err),
		})
		return
	}

	if len(req.Suites) == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "suites array cannot be empty",
		})
		return
	}

	available := h.lister.Suites()
	seen := make(map[string]bool, len(req.Suites))
	for _, name := range req.Suites {
		if seen[name] {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error: fmt.Sprintf("duplicate suite %q in request", name),
			})
			return
		}
		seen[name] = true
		if !slices.Contains(available, name) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error: fmt.Sprintf("unknown suite %q (available: %s)", name, strings.Join(available, ", ")),
			})
			return
		}
	}

	if err := h.starter.Start(r.Context(), req.Suites); err != nil {
		if errors.Is(err, runs.ErrRunInProgress) {
			writeJSON(w, http.StatusConflict, ErrorResponse{
				Error: err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

package handlers

import (
	"net/http"
)

// SuitesResponse is the JSON response for /api/suites.
type SuitesResponse struct {
	Suites []string `json:"suites"`
}

// SuitesHandler lists the suites that POST /run accepts.
type SuitesHandler struct {
	lister SuiteLister
}

// NewSuitesHandler creates a new SuitesHandler.
func NewSuitesHandler(lister SuiteLister) *SuitesHandler {
	return &SuitesHandler{
		lister: lister,
	}
}

// ServeHTTP implements http.Handler.
func (h *SuitesHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, SuitesResponse{Suites: h.lister.Suites()})
}

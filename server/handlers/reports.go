package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"slices"

	"github.com/nomis52/goexample/report"
)

var reportContentTypes = map[string]string{
	report.FormatText: "text/plain; charset=utf-8",
	report.FormatYAML: "text/yaml",
	report.FormatJSON: "application/json",
}

// ReportsHandler serves the reports of the last finished run. The format
// query parameter selects text, yaml or json and defaults to json.
type ReportsHandler struct {
	provider ReportProvider
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(provider ReportProvider) *ReportsHandler {
	return &ReportsHandler{
		provider: provider,
	}
}

// ServeHTTP implements http.Handler.
func (h *ReportsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = report.FormatJSON
	}
	if !slices.Contains(report.Formats(), format) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "unknown format " + format})
		return
	}

	var buf bytes.Buffer
	if err := report.WriteAll(&buf, h.provider.Reports(), format, false); err != nil {
		slog.Error("failed to encode reports", "format", format, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", reportContentTypes[format])
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

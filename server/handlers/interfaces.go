// Package handlers provides HTTP handlers for the goexample server.
//
// Each handler is in its own file and implements http.Handler.
// Handlers use interfaces to access server dependencies, avoiding
// circular imports.
package handlers

import (
	"context"
	"time"

	"github.com/nomis52/goexample/config"
	"github.com/nomis52/goexample/report"
	"github.com/nomis52/goexample/server/runs"
)

// ConfigProvider provides access to the current configuration.
type ConfigProvider interface {
	Config() *config.Config
}

// RunStarter can start suite runs in the background.
type RunStarter interface {
	Start(ctx context.Context, suites []string) error
}

// StatusProvider provides the run status and the next scheduled run.
type StatusProvider interface {
	Status() runs.RunStatus
	NextRun() *time.Time
}

// HistoryProvider provides access to run history.
type HistoryProvider interface {
	History() []runs.RunStatus
}

// ReportProvider provides the reports of the last finished run.
type ReportProvider interface {
	Reports() []*report.Report
}

// SuiteLister lists the suites that can be run.
type SuiteLister interface {
	Suites() []string
}

package runs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RunState represents the current state of the coordinator.
type RunState int

const (
	// RunStateIdle indicates no suites are running.
	RunStateIdle RunState = iota
	// RunStateRunning indicates a run is in progress.
	RunStateRunning
)

// String returns the string representation of the run state.
func (s RunState) String() string {
	switch s {
	case RunStateIdle:
		return "idle"
	case RunStateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (s RunState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *RunState) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "idle":
		*s = RunStateIdle
	case "running":
		*s = RunStateRunning
	default:
		return fmt.Errorf("unknown run state %q", name)
	}
	return nil
}

// Trigger names what started a run.
type Trigger string

const (
	TriggerManual   Trigger = "manual"
	TriggerSchedule Trigger = "schedule"
)

// SuiteSummary is the outcome of one suite within a run.
type SuiteSummary struct {
	Suite       string `json:"suite"`
	Passed      int    `json:"passed"`
	Failed      int    `json:"failed"`
	Skipped     int    `json:"skipped"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Error       string `json:"error,omitempty"`
}

// RunStatus contains information about the current or last run.
type RunStatus struct {
	// ID identifies a finished run. Empty while running.
	ID      string   `json:"id,omitempty"`
	State   RunState `json:"state"`
	Trigger Trigger  `json:"trigger,omitempty"`
	// Suites are the names requested for the run.
	Suites []string `json:"suites,omitempty"`
	// StartedAt is when the run started. Nil if no run has occurred.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// EndedAt is when the run ended. Nil if run is in progress or no run has occurred.
	EndedAt *time.Time `json:"ended_at,omitempty"`
	// Error contains the error message if the run failed. Empty on success.
	Error   string         `json:"error,omitempty"`
	Results []SuiteSummary `json:"results,omitempty"`
}

// CalculateID derives a stable identifier from the start time and suites.
func (s RunStatus) CalculateID() string {
	h := sha256.New()
	if s.StartedAt != nil {
		h.Write([]byte(s.StartedAt.UTC().Format(time.RFC3339Nano)))
	}
	h.Write([]byte(strings.Join(s.Suites, ",")))
	return hex.EncodeToString(h.Sum(nil))[:12]
}

// Copy returns a copy of s that shares no slices with it.
func (s RunStatus) Copy() RunStatus {
	out := s
	out.Suites = append([]string(nil), s.Suites...)
	out.Results = append([]SuiteSummary(nil), s.Results...)
	return out
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nomis52/goexample/example"
	"github.com/nomis52/goexample/report"
	"github.com/nomis52/goexample/server/runs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	err     error
	started [][]string
	status  runs.RunStatus
	next    *time.Time
	history []runs.RunStatus
	reports []*report.Report
	suites  []string
}

func (m *mockRunner) Start(_ context.Context, suites []string) error {
	if m.err != nil {
		return m.err
	}
	m.started = append(m.started, suites)
	return nil
}

func (m *mockRunner) Status() runs.RunStatus { return m.status }
func (m *mockRunner) NextRun() *time.Time { return m.next }
func (m *mockRunner) History() []runs.RunStatus { return m.history }
func (m *mockRunner) Reports() []*report.Report { return m.reports }
func (m *mockRunner) Suites() []string { return m.suites }

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRunHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantErr    string
	}{
		{name: "accepted", body: `{"suites":["MoneyExample","WalletExample"]}`, wantStatus: http.StatusAccepted},
		{name: "invalid json", body: `{`, wantStatus: http.StatusBadRequest, wantErr: "invalid JSON"},
		{name: "empty suites", body: `{"suites":[]}`, wantStatus: http.StatusBadRequest, wantErr: "cannot be empty"},
		{name: "duplicate", body: `{"suites":["MoneyExample","MoneyExample"]}`, wantStatus: http.StatusBadRequest, wantErr: `duplicate suite "MoneyExample"`},
		{name: "unknown", body: `{"suites":["Nope"]}`, wantStatus: http.StatusBadRequest, wantErr: `unknown suite "Nope" (available: MoneyExample, WalletExample)`},
		{name: "in progress", body: `{"suites":["MoneyExample"]}`, err: runs.ErrRunInProgress, wantStatus: http.StatusConflict, wantErr: "already in progress"},
		{name: "start error", body: `{"suites":["MoneyExample"]}`, err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantErr: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockRunner{err: tt.err, suites: []string{"MoneyExample", "WalletExample"}}
			w := serve(NewRunHandler(m, m), http.MethodPost, "/run", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantErr != "" {
				var resp ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Contains(t, resp.Error, tt.wantErr)
				assert.Empty(t, m.started)
				return
			}
			assert.Equal(t, [][]string{{"MoneyExample", "WalletExample"}}, m.started)
		})
	}
}

func TestStatusHandler(t *testing.T) {
	start := time.Date(2026, 10, 1, 2, 0, 0, 0, time.UTC)
	next := start.Add(time.Hour)
	m := &mockRunner{
		status: runs.RunStatus{State: runs.RunStateRunning, Trigger: runs.TriggerSchedule, StartedAt: &start},
		next:   &next,
	}
	props := ServerProperties{StartedAt: start, Hostname: "ci-runner"}

	w := serve(NewStatusHandler(props, m), http.MethodGet, "/api/status", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, `"state":"running"`)
	assert.Contains(t, body, `"trigger":"schedule"`)
	assert.Contains(t, body, `"scheduled":true`)
	assert.Contains(t, body, `"next_run":"2026-10-01T03:00:00Z"`)
	assert.Contains(t, body, `"hostname":"ci-runner"`)
}

func TestStatusHandler_NotScheduled(t *testing.T) {
	w := serve(NewStatusHandler(ServerProperties{}, &mockRunner{}), http.MethodGet, "/api/status", "")

	assert.Contains(t, w.Body.String(), `"next_run":{"scheduled":false}`)
	assert.Contains(t, w.Body.String(), `"state":"idle"`)
}

func TestHistoryHandler(t *testing.T) {
	m := &mockRunner{history: []runs.RunStatus{{ID: "abc", Suites: []string{"MoneyExample"}}}}

	w := serve(NewHistoryHandler(m), http.MethodGet, "/history", "")

	var got []runs.RunStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "abc", got[0].ID)
}

func TestSuitesHandler(t *testing.T) {
	w := serve(NewSuitesHandler(&mockRunner{suites: []string{"MoneyExample"}}), http.MethodGet, "/api/suites", "")
	assert.JSONEq(t, `{"suites":["MoneyExample"]}`, w.Body.String())
}

func testReports(t *testing.T) []*report.Report {
	t.Helper()
	clock := report.WithClock(func() time.Time { return time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC) })
	var out []*report.Report
	for _, name := range []string{"MoneyExample", "WalletExample"} {
		rep, err := report.Build(name,
			[]example.Metadata{{Name: "empty", Method: "empty"}},
			[]example.Result{example.PassedResult("empty", 0, time.Millisecond)},
			clock)
		require.NoError(t, err)
		out = append(out, rep)
	}
	return out
}

func TestReportsHandler(t *testing.T) {
	m := &mockRunner{reports: testReports(t)}
	h := NewReportsHandler(m)

	w := serve(h, http.MethodGet, "/api/reports", "")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var got []report.Report
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, "WalletExample", got[1].Suite)

	w = serve(h, http.MethodGet, "/api/reports?format=yaml", "")
	assert.Equal(t, "text/yaml", w.Header().Get("Content-Type"))
	assert.Equal(t, 1, strings.Count(w.Body.String(), "---\n"))
	assert.Contains(t, w.Body.String(), "suite: WalletExample")

	w = serve(h, http.MethodGet, "/api/reports?format=text", "")
	assert.Contains(t, w.Body.String(), "Suite: MoneyExample")
	assert.NotContains(t, w.Body.String(), "\x1b[")

	w = serve(h, http.MethodGet, "/api/reports?format=markdown", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportsHandler_NoRunYet(t *testing.T) {
	w := serve(NewReportsHandler(&mockRunner{}), http.MethodGet, "/api/reports", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String())
}

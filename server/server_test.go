package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nomis52/goexample/config"
	"github.com/nomis52/goexample/logging"
	"github.com/nomis52/goexample/metrics"
	"github.com/nomis52/goexample/runner"
	"github.com/nomis52/goexample/schedule"
	"github.com/nomis52/goexample/server/handlers"
	"github.com/nomis52/goexample/server/runs"
	"github.com/nomis52/goexample/session"
	"github.com/nomis52/goexample/suites"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCoordinator(t *testing.T, reg metrics.Registry) *runs.Coordinator {
	t.Helper()
	var runnerOpts []runner.Option
	if reg != nil {
		m, err := runner.NewMetrics(reg)
		require.NoError(t, err)
		runnerOpts = append(runnerOpts, runner.WithMetrics(m))
	}
	return runs.New(logging.Discard(), func(ctx context.Context, names []string) (*session.Outcome, error) {
		defs, err := suites.Select(names)
		if err != nil {
			return nil, err
		}
		return session.Run(ctx, defs,
			session.WithLogger(logging.Discard()),
			session.WithRunnerOptions(runnerOpts...))
	})
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, url)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestServer_RunThroughAPI(t *testing.T) {
	scrape, err := metrics.NewScrapeRegistry(metrics.ScrapeConfig{Prefix: "goexample"})
	require.NoError(t, err)
	coordinator := newCoordinator(t, scrape)
	cfg := config.Default()

	srv, err := New(logging.Discard(), coordinator,
		WithSuites(suites.Names()),
		WithMetricsHandler(scrape.Handler()),
		WithConfig(&cfg),
	)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	assert.Equal(t, "ok", get(t, ts.URL+"/health"))

	var listed handlers.SuitesResponse
	require.NoError(t, json.Unmarshal([]byte(get(t, ts.URL+"/api/suites")), &listed))
	assert.Equal(t, suites.Names(), listed.Suites)

	resp, err := http.Post(ts.URL+"/run", "application/json",
		bytes.NewBufferString(`{"suites":["MoneyExample","BrokenChainExample"]}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	coordinator.Wait()

	var status handlers.StatusResponse
	require.NoError(t, json.Unmarshal([]byte(get(t, ts.URL+"/api/status")), &status))
	assert.False(t, status.NextRun.Scheduled)
	require.Len(t, status.Run.Results, 2)
	assert.Equal(t, runs.SuiteSummary{Suite: "MoneyExample", Passed: 3, Fingerprint: status.Run.Results[0].Fingerprint}, status.Run.Results[0])
	assert.Equal(t, 1, status.Run.Results[1].Failed)
	assert.Equal(t, 1, status.Run.Results[1].Skipped)
	assert.Contains(t, status.Run.Error, "1 suite(s) failed")

	var history []runs.RunStatus
	require.NoError(t, json.Unmarshal([]byte(get(t, ts.URL+"/history")), &history))
	require.Len(t, history, 1)
	assert.Equal(t, runs.TriggerManual, history[0].Trigger)

	assert.Contains(t, get(t, ts.URL+"/api/reports?format=text"), "Suite: BrokenChainExample")
	assert.Contains(t, get(t, ts.URL+"/config"), "listen_address:")

	body := get(t, ts.URL+"/metrics")
	assert.Contains(t, body, `goexample_examples_total{status="passed",suite="MoneyExample"} 3`)
	assert.Contains(t, body, `goexample_examples_total{status="skipped",suite="BrokenChainExample"} 1`)
}

func TestServer_OptionalRoutes(t *testing.T) {
	srv, err := New(logging.Discard(), newCoordinator(t, nil))
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	for _, path := range []string{"/metrics", "/config"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(logging.Discard(), nil)
	assert.Error(t, err)

	_, err = New(logging.Discard(), newCoordinator(t, nil), WithTLS("tls.crt", ""))
	assert.Error(t, err)
}

func TestServer_RunWithSchedule(t *testing.T) {
	coordinator := newCoordinator(t, nil)

	var fired atomic.Bool
	once := func(time.Duration) <-chan time.Time {
		ch := make(chan time.Time, 1)
		if !fired.Swap(true) {
			ch <- time.Now()
		}
		return ch
	}
	available := make(map[string]bool)
	for _, name := range suites.Names() {
		available[name] = true
	}
	manager, err := schedule.NewManager("WalletExample:@hourly", coordinator, logging.Discard(), available,
		schedule.WithTimer(once))
	require.NoError(t, err)

	srv, err := New(logging.Discard(), coordinator,
		WithListenAddr("127.0.0.1:0"),
		WithSchedule(manager))
	require.NoError(t, err)
	require.NotNil(t, srv.NextRun())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool { return len(coordinator.History()) == 1 }, 5*time.Second, 5*time.Millisecond)
	history := coordinator.History()
	assert.Equal(t, runs.TriggerSchedule, history[0].Trigger)
	assert.Equal(t, []string{"WalletExample"}, history[0].Suites)
	assert.Empty(t, history[0].Error)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_RunListenError(t *testing.T) {
	srv, err := New(logging.Discard(), newCoordinator(t, nil), WithListenAddr("256.0.0.1:bad"))
	require.NoError(t, err)
	err = srv.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listening on 256.0.0.1:bad")
}

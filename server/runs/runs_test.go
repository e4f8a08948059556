package runs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nomis52/goexample/logging"
	"github.com/nomis52/goexample/report"
	"github.com/nomis52/goexample/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func outcomeFor(passed, failed int, suites ...string) *session.Outcome {
	o := &session.Outcome{}
	for _, name := range suites {
		run := session.SuiteRun{
			Suite: name,
			Report: &report.Report{
				Suite:       name,
				Summary:     report.Summary{Total: passed + failed, Passed: passed, Failed: failed},
				Fingerprint: "f-" + name,
			},
		}
		if failed > 0 {
			run.Err = fmt.Errorf("%w: %d of %d", session.ErrExamplesFailed, failed, passed+failed)
		}
		o.Runs = append(o.Runs, run)
	}
	return o
}

func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore(0)
	require.NotNil(t, store)
	assert.Empty(t, store.Runs())
}

func TestMemoryStore_Save(t *testing.T) {
	store := NewMemoryStore(0)

	now := time.Date(2026, 10, 1, 2, 0, 0, 0, time.UTC)
	run := RunStatus{
		State:     RunStateIdle,
		Suites:    []string{"MoneyExample"},
		StartedAt: &now,
		EndedAt:   &now,
	}
	require.NoError(t, store.Save(run))

	runs := store.Runs()
	require.Len(t, runs, 1)

	// ID should have been populated
	run.ID = run.CalculateID()
	assert.Equal(t, run, runs[0])
	assert.Len(t, run.ID, 12)
}

func TestMemoryStore_MostRecentFirstAndBounded(t *testing.T) {
	store := NewMemoryStore(3)

	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		start := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.Save(RunStatus{StartedAt: &start}))
	}

	runs := store.Runs()
	require.Len(t, runs, 3)
	for i := 0; i < len(runs)-1; i++ {
		assert.True(t, runs[i].StartedAt.After(*runs[i+1].StartedAt))
	}
	assert.Equal(t, base.Add(4*time.Hour), *runs[0].StartedAt)
}

func TestMemoryStore_Runs_ReturnsCopy(t *testing.T) {
	store := NewMemoryStore(0)
	require.NoError(t, store.Save(RunStatus{Suites: []string{"MoneyExample"}}))

	runs := store.Runs()
	runs[0].Suites[0] = "changed"

	assert.Equal(t, "MoneyExample", store.Runs()[0].Suites[0])
}

func TestRunStatus_CalculateID(t *testing.T) {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	a := RunStatus{StartedAt: &start, Suites: []string{"A"}}
	b := RunStatus{StartedAt: &start, Suites: []string{"B"}}

	assert.Equal(t, a.CalculateID(), a.CalculateID())
	assert.NotEqual(t, a.CalculateID(), b.CalculateID())
}

func TestRunState_MarshalJSON(t *testing.T) {
	b, err := RunStateRunning.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"running"`, string(b))
	assert.Equal(t, "unknown", RunState(7).String())

	var s RunState
	require.NoError(t, json.Unmarshal([]byte(`"running"`), &s))
	assert.Equal(t, RunStateRunning, s)
	assert.Error(t, json.Unmarshal([]byte(`"paused"`), &s))
}

func TestCoordinator_Run(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)}
	var got []string
	c := New(logging.Discard(), func(_ context.Context, suites []string) (*session.Outcome, error) {
		got = suites
		return outcomeFor(3, 0, suites...), nil
	}, WithClock(clock.Now))

	require.NoError(t, c.Run(context.Background(), []string{"MoneyExample", "WalletExample"}))

	assert.Equal(t, []string{"MoneyExample", "WalletExample"}, got)
	status := c.Status()
	assert.Equal(t, RunStateIdle, status.State)
	assert.Equal(t, TriggerSchedule, status.Trigger)
	assert.Equal(t, time.Second, status.EndedAt.Sub(*status.StartedAt))
	assert.Empty(t, status.Error)
	assert.NotEmpty(t, status.ID)
	assert.Equal(t, []SuiteSummary{
		{Suite: "MoneyExample", Passed: 3, Fingerprint: "f-MoneyExample"},
		{Suite: "WalletExample", Passed: 3, Fingerprint: "f-WalletExample"},
	}, status.Results)

	require.Len(t, c.Reports(), 2)
	history := c.History()
	require.Len(t, history, 1)
	assert.Equal(t, status, history[0])
}

func TestCoordinator_RunFailure(t *testing.T) {
	c := New(logging.Discard(), func(_ context.Context, suites []string) (*session.Outcome, error) {
		o := outcomeFor(1, 1, suites...)
		return o, &session.Error{Failures: []error{o.Runs[0].Err}}
	})

	err := c.Run(context.Background(), []string{"BrokenChainExample"})
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrExamplesFailed)

	status := c.Status()
	assert.Contains(t, status.Error, "1 suite(s) failed")
	require.Len(t, status.Results, 1)
	assert.Equal(t, 1, status.Results[0].Failed)
	assert.Contains(t, status.Results[0].Error, "examples failed: 1 of 2")
}

func TestCoordinator_ExecuteErrorWithoutOutcome(t *testing.T) {
	c := New(logging.Discard(), func(context.Context, []string) (*session.Outcome, error) {
		return nil, errors.New("unknown suite")
	})

	require.Error(t, c.Run(context.Background(), nil))
	assert.Equal(t, "unknown suite", c.Status().Error)
	assert.Nil(t, c.Status().Results)
	assert.Empty(t, c.Reports())
}

func TestCoordinator_StartInBackground(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	c := New(logging.Discard(), func(ctx context.Context, suites []string) (*session.Outcome, error) {
		close(started)
		<-release
		// The request context is cancelled but the run keeps going.
		assert.NoError(t, ctx.Err())
		return outcomeFor(1, 0, suites...), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Start(ctx, []string{"MoneyExample"}))
	<-started
	cancel()

	assert.True(t, c.IsRunning())
	assert.Equal(t, TriggerManual, c.Status().Trigger)
	assert.ErrorIs(t, c.Start(context.Background(), []string{"MoneyExample"}), ErrRunInProgress)
	assert.ErrorIs(t, c.Run(context.Background(), []string{"MoneyExample"}), ErrRunInProgress)

	close(release)
	c.Wait()

	assert.False(t, c.IsRunning())
	assert.Len(t, c.History(), 1)
}

func TestCoordinator_PanicFinishesRun(t *testing.T) {
	calls := 0
	c := New(logging.Discard(), func(_ context.Context, suites []string) (*session.Outcome, error) {
		calls++
		if calls == 1 {
			panic("exploded")
		}
		return outcomeFor(1, 0, suites...), nil
	})

	err := c.Run(context.Background(), []string{"MoneyExample"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run panicked: exploded")
	assert.False(t, c.IsRunning())
	assert.Equal(t, "run panicked: exploded", c.Status().Error)

	require.NoError(t, c.Start(context.Background(), []string{"MoneyExample"}))
	c.Wait()
	assert.Len(t, c.History(), 2)
	assert.Empty(t, c.Status().Error)
}

type failingStore struct{}

func (failingStore) Runs() []RunStatus { return nil }
func (failingStore) Save(RunStatus) error { return errors.New("disk full") }

func TestCoordinator_StoreErrorDoesNotFailRun(t *testing.T) {
	c := New(logging.Discard(), func(_ context.Context, suites []string) (*session.Outcome, error) {
		return outcomeFor(1, 0, suites...), nil
	}, WithStore(failingStore{}))

	require.NoError(t, c.Run(context.Background(), []string{"MoneyExample"}))
	assert.Empty(t, c.History())
	assert.Equal(t, RunStateIdle, c.Status().State)
}

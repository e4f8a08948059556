package schedule

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nomis52/goexample/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRunnable is a test implementation of Runnable.
type mockRunnable struct {
	runCount atomic.Int32
	runErr   error

	mu     sync.Mutex
	suites [][]string
}

func (m *mockRunnable) Run(_ context.Context, suites []string) error {
	m.runCount.Add(1)
	m.mu.Lock()
	m.suites = append(m.suites, suites)
	m.mu.Unlock()
	return m.runErr
}

func (m *mockRunnable) seen() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.suites...)
}

// immediate fires every wait at once.
func immediate(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

// never blocks every wait forever.
func never(time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

func TestNewTrigger(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{name: "daily at 2am", spec: "0 2 * * *"},
		{name: "every hour", spec: "0 * * * *"},
		{name: "every minute", spec: "* * * * *"},
		{name: "descriptor", spec: "@daily"},
		{name: "every descriptor", spec: "@every 1h30m"},
		{name: "empty", spec: "", wantErr: true},
		{name: "wrong format", spec: "not a cron spec", wantErr: true},
		{name: "too few fields", spec: "0 2 *", wantErr: true},
		{name: "invalid value", spec: "60 2 * * *", wantErr: true},
		{name: "seconds field not accepted", spec: "0 0 2 * * *", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger, err := NewTrigger(tt.spec, func(context.Context) error { return nil }, logging.Discard())
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidCronSpec)
				assert.Nil(t, trigger)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.spec, trigger.Spec())
		})
	}
}

func TestTrigger_NextRun(t *testing.T) {
	now := time.Date(2026, 4, 10, 13, 15, 0, 0, time.Local)
	trigger, err := NewTrigger("0 2 * * *", func(context.Context) error { return nil }, logging.Discard(),
		WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 4, 11, 2, 0, 0, 0, time.Local), trigger.NextRun())
}

func TestTrigger_RunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	trigger, err := NewTrigger("* * * * *", func(context.Context) error {
		if calls.Add(1) == 3 {
			cancel()
		}
		return errors.New("errors are logged, not fatal")
	}, logging.Discard(), WithTimer(immediate))
	require.NoError(t, err)

	trigger.Start(ctx)

	require.Eventually(t, func() bool { return trigger.Runs() >= 3 }, 2*time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	settled := trigger.Runs()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, settled, trigger.Runs(), "loop must stop after cancellation")
}

func TestTrigger_CancellationBeforeFirstRun(t *testing.T) {
	runnable := &mockRunnable{}
	trigger, err := NewTrigger("* * * * *", func(ctx context.Context) error {
		return runnable.Run(ctx, []string{"MoneyExample"})
	}, logging.Discard(), WithTimer(never))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	trigger.Start(ctx)
	time.Sleep(10 * time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, int32(0), runnable.runCount.Load())
}

package schedule

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nomis52/goexample/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	manager, err := NewManager(
		"MoneyExample,DiamondExample:0 2 * * *;BrokenChainExample:0 3 * * *",
		&mockRunnable{},
		logging.Discard(),
		testAvailableSuites,
	)
	require.NoError(t, err)
	assert.Len(t, manager.triggers, 2)
	assert.Equal(t, []string{"MoneyExample", "DiamondExample"}, manager.Specs()[0].Suites)
}

func TestNewManager_InvalidSpec(t *testing.T) {
	for _, spec := range []string{"", "MoneyExample", "MoneyExample:invalid", "Ghost:0 2 * * *", "MoneyExample,MoneyExample:0 2 * * *"} {
		t.Run(spec, func(t *testing.T) {
			manager, err := NewManager(spec, &mockRunnable{}, logging.Discard(), testAvailableSuites)
			require.Error(t, err)
			assert.Nil(t, manager)
		})
	}
}

func TestManager_NextRun(t *testing.T) {
	now := time.Date(2026, 4, 10, 13, 15, 0, 0, time.Local)
	manager, err := NewManager(
		"MoneyExample:0 2 * * *;DiamondExample:0 14 * * *;BrokenChainExample:0 20 * * *",
		&mockRunnable{},
		logging.Discard(),
		testAvailableSuites,
		WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 4, 10, 14, 0, 0, 0, time.Local), manager.NextRun())
}

func TestManager_NextRun_NoTriggers(t *testing.T) {
	manager := &Manager{logger: logging.Discard()}
	assert.True(t, manager.NextRun().IsZero(), "should return zero time with no triggers")
}

// suiteRecorder records which suite lists it has been run with.
type suiteRecorder struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (r *suiteRecorder) Run(_ context.Context, suites []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen == nil {
		r.seen = make(map[string]bool)
	}
	r.seen[strings.Join(suites, ",")] = true
	return nil
}

func (r *suiteRecorder) keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.seen))
}

func TestManager_StartRunsEachTriggersSuites(t *testing.T) {
	recorder := &suiteRecorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager, err := NewManager(
		"MoneyExample,DiamondExample:* * * * *;BrokenChainExample:@hourly",
		recorder,
		logging.Discard(),
		testAvailableSuites,
		WithTimer(immediate),
	)
	require.NoError(t, err)

	manager.Start(ctx)
	want := []string{"BrokenChainExample", "MoneyExample,DiamondExample"}
	require.Eventually(t, func() bool {
		return slices.Equal(want, recorder.keys())
	}, 2*time.Second, time.Millisecond)
	cancel()
}

func TestRunnableFunc(t *testing.T) {
	var got []string
	r := RunnableFunc(func(_ context.Context, suites []string) error {
		got = suites
		return nil
	})
	require.NoError(t, r.Run(context.Background(), []string{"MoneyExample"}))
	assert.Equal(t, []string{"MoneyExample"}, got)
}

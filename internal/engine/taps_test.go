package engine

import (
	"context"
	"testing"
	"time"

	"NM_clicker_miniapp/internal/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthenticatedEngine(t *testing.T, api *fakeAPI, debounce time.Duration) *Engine {
	t.Helper()

	if api.authResp == nil {
		api.authResp = okAuthResponse("")
	}

	e := New(api, Options{DebounceWindow: debounce})
	require.NoError(t, e.Bootstrap(context.Background()))
	require.Equal(t, PhaseAuthenticated, e.Snapshot().Phase)
	return e
}

func TestTapAggregatorSingleFlushPerWindow(t *testing.T) {
	api := &fakeAPI{
		tapResps: []*client.TapResponse{
			{OK: true, Message: "Tap accepted.", State: stateAt(5, time.Now())},
		},
	}
	e := newAuthenticatedEngine(t, api, 10*time.Millisecond)
	defer e.Close()

	for i := 0; i < 5; i++ {
		e.Tap()
	}

	assert.Eventually(t, func() bool {
		return len(api.recordedTaps()) == 1
	}, time.Second, time.Millisecond)

	assert.Equal(t, []int{5}, api.recordedTaps())
	assert.Equal(t, 0, e.PendingTaps())

	// No second flush fires for an already drained queue.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []int{5}, api.recordedTaps())
}

func TestTapAggregatorQueuesBehindInFlightFlush(t *testing.T) {
	started := make(chan int, 2)
	release := make(chan struct{})
	api := &fakeAPI{
		tapStarted: started,
		tapRelease: release,
		tapResps: []*client.TapResponse{
			{OK: true, Message: "Tap accepted.", State: stateAt(3, time.Now())},
			{OK: true, Message: "Tap accepted.", State: stateAt(5, time.Now().Add(time.Millisecond))},
		},
	}
	e := newAuthenticatedEngine(t, api, 5*time.Millisecond)
	defer e.Close()

	e.Tap()
	e.Tap()
	e.Tap()

	// First flush is now blocked inside the fake.
	first := <-started
	require.Equal(t, 3, first)

	// Taps landing mid-flight must not trigger a concurrent dispatch.
	e.Tap()
	e.Tap()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, []int{3}, api.recordedTaps())

	release <- struct{}{}

	second := <-started
	assert.Equal(t, 2, second)
	release <- struct{}{}

	assert.Eventually(t, func() bool {
		return len(api.recordedTaps()) == 2
	}, time.Second, time.Millisecond)
	assert.Equal(t, []int{3, 2}, api.recordedTaps())
	assert.Equal(t, 1, api.maxConcurrentTapCalls())
}

func TestTapFlushThrottledMessage(t *testing.T) {
	throttledState := stateAt(10, time.Now())
	api := &fakeAPI{
		tapResps: []*client.TapResponse{
			{OK: false, Throttled: true, Message: "Tap accepted.", State: throttledState},
		},
	}
	e := newAuthenticatedEngine(t, api, 5*time.Millisecond)
	defer e.Close()

	e.Tap()

	assert.Eventually(t, func() bool {
		snap := e.Snapshot()
		return snap.Status == msgThrottled
	}, time.Second, time.Millisecond)

	// Throttled still applies the returned state.
	snap := e.Snapshot()
	require.NotNil(t, snap.State)
	assert.Equal(t, int64(10), snap.State.Points)
}

func TestTapFlushFailureDropsTaps(t *testing.T) {
	api := &fakeAPI{tapErr: assert.AnError}
	e := newAuthenticatedEngine(t, api, 5*time.Millisecond)
	defer e.Close()

	e.Tap()
	e.Tap()

	assert.Eventually(t, func() bool {
		return e.Snapshot().Status == msgTapsNotSent
	}, time.Second, time.Millisecond)

	// At-most-once: failed taps are not re-queued.
	assert.Equal(t, 0, e.PendingTaps())
}

func TestTapIgnoredBeforeAuthentication(t *testing.T) {
	api := &fakeAPI{authErr: assert.AnError}
	e := New(api, Options{DebounceWindow: 5 * time.Millisecond})
	defer e.Close()

	require.Error(t, e.Bootstrap(context.Background()))

	e.Tap()
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, api.recordedTaps())
	assert.Equal(t, 0, e.PendingTaps())
}

func TestCloseCancelsPendingFlush(t *testing.T) {
	api := &fakeAPI{
		tapResps: []*client.TapResponse{
			{OK: true, Message: "Tap accepted.", State: stateAt(1, time.Now())},
		},
	}
	e := newAuthenticatedEngine(t, api, 20*time.Millisecond)

	e.Tap()
	e.Close()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, api.recordedTaps())
}

func TestStaleFlushResponseDiscarded(t *testing.T) {
	now := time.Now()
	api := &fakeAPI{
		tapResps: []*client.TapResponse{
			{OK: true, Message: "Tap accepted.", State: stateAt(50, now.Add(-time.Minute))},
		},
	}
	api.authResp = okAuthResponse("")
	api.authResp.State = stateAt(100, now)

	e := newAuthenticatedEngine(t, api, 5*time.Millisecond)
	defer e.Close()

	e.Tap()

	assert.Eventually(t, func() bool {
		return len(api.recordedTaps()) == 1
	}, time.Second, time.Millisecond)

	// The flush carried state older than the applied snapshot.
	snap := e.Snapshot()
	require.NotNil(t, snap.State)
	assert.Equal(t, int64(100), snap.State.Points)
}

package engine

import "context"

// Tap records one tap. Taps only increment the pending counter; the
// network sees at most one flush per debounce window, and never two
// flushes in flight for the same queue.
func (e *Engine) Tap() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.phase != PhaseAuthenticated {
		return
	}

	e.pendingTaps++
	e.scheduleFlushLocked()
}

func (e *Engine) scheduleFlushLocked() {
	if e.flushScheduled {
		return
	}
	e.flushScheduled = true
	e.flushTimer = e.timerAfterFunc(e.debounce, e.flushTaps)
}

// flushTaps fires when the debounce window elapses. If a flush is still
// in flight the drained dispatch is skipped; the accumulated taps go out
// as the next flush once the current one resolves, which keeps state
// application in dispatch order.
func (e *Engine) flushTaps() {
	e.mu.Lock()
	e.flushScheduled = false
	if e.closed || e.flushInFlight {
		e.mu.Unlock()
		return
	}

	taps := e.pendingTaps
	e.pendingTaps = 0
	if taps <= 0 {
		e.mu.Unlock()
		return
	}

	e.flushInFlight = true
	token := e.session.Token
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), e.reqTimeout)
	resp, err := e.api.SendTaps(ctx, token, taps)
	cancel()

	e.mu.Lock()
	e.flushInFlight = false
	if e.closed {
		e.mu.Unlock()
		return
	}

	refreshBoard := false
	if err != nil {
		// At-most-once delivery: the drained taps are gone and the user
		// is told so, rather than silently re-queued.
		e.status = msgTapsNotSent
	} else {
		e.applyStateLocked(resp.State)
		if resp.Throttled {
			e.status = msgThrottled
		} else {
			e.status = resp.Message
		}
		// Coalesce: skip the refresh when another flush is already due.
		refreshBoard = e.pendingTaps == 0
	}

	if e.pendingTaps > 0 {
		e.scheduleFlushLocked()
	}
	e.mu.Unlock()
	e.notify()

	if refreshBoard {
		refreshCtx, cancelRefresh := context.WithTimeout(context.Background(), e.reqTimeout)
		e.RefreshLeaderboard(refreshCtx)
		cancelRefresh()
	}
}

// PendingTaps reports taps accrued since the last successful flush.
func (e *Engine) PendingTaps() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pendingTaps
}

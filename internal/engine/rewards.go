package engine

import (
	"context"
	"fmt"
)

// ClaimDailyBonus performs the once-per-period bonus claim. The server
// decides whether the claim is due; a rejection is shown with the
// server's own message and the bonus delta always comes from the
// response, never from local arithmetic.
func (e *Engine) ClaimDailyBonus(ctx context.Context) {
	e.mu.Lock()
	if e.closed || e.phase != PhaseAuthenticated {
		e.mu.Unlock()
		return
	}
	token := e.session.Token
	e.mu.Unlock()

	resp, err := e.api.ClaimDailyBonus(ctx, token)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	pointsChanged := false
	if err != nil {
		e.status = msgBonusFailed
	} else {
		e.applyStateLocked(resp.State)
		if resp.OK {
			e.status = fmt.Sprintf("Bonus +%s", FormatPoints(resp.AddedPoints))
			pointsChanged = true
		} else {
			e.status = resp.Message
		}
	}
	e.mu.Unlock()
	e.notify()

	if pointsChanged {
		e.RefreshLeaderboard(ctx)
	}
}

// EnterLottery submits a lottery entry. Success and rejection both show
// the server's message; only a transport failure gets the generic one.
func (e *Engine) EnterLottery(ctx context.Context) {
	e.mu.Lock()
	if e.closed || e.phase != PhaseAuthenticated {
		e.mu.Unlock()
		return
	}
	token := e.session.Token
	e.mu.Unlock()

	resp, err := e.api.EnterLottery(ctx, token)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.status = msgEnterFailed
	} else {
		e.applyStateLocked(resp.State)
		e.status = resp.Message
	}
	e.mu.Unlock()
	e.notify()
}

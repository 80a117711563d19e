package engine

import (
	"context"
	"strconv"
	"strings"

	"NM_clicker_miniapp/pkg/logger"
	"go.uber.org/zap"
)

const referralPrefix = "ref_"

// ParseReferrer extracts the numeric referrer id from a launch parameter
// of the form "ref_<digits>". Anything else means no referral.
func ParseReferrer(startParam string) (int64, bool) {
	normalized := strings.TrimSpace(startParam)
	raw, ok := strings.CutPrefix(normalized, referralPrefix)
	if !ok {
		return 0, false
	}
	if !digitsOnly.MatchString(raw) {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// applyReferralIfNeeded runs at most once per process lifetime, guarded by
// a flag set before the request goes out so a re-entrant bootstrap cannot
// double-submit while the first attempt is still in flight. All failures
// are swallowed: a referral must never block the session.
func (e *Engine) applyReferralIfNeeded(ctx context.Context, startParam string) {
	e.mu.Lock()
	if e.referralAttempted || e.closed {
		e.mu.Unlock()
		return
	}
	if e.state == nil || e.state.ReferredBy != nil {
		e.mu.Unlock()
		return
	}
	referrer, ok := ParseReferrer(startParam)
	if !ok {
		e.mu.Unlock()
		return
	}
	e.referralAttempted = true
	token := e.session.Token
	e.mu.Unlock()

	resp, err := e.api.ApplyReferral(ctx, token, referrer)
	if err != nil {
		logger.Logger().Debug("referral apply failed", zap.Error(err))
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.applyStateLocked(resp.State)
	if resp.Message != "" {
		e.status = resp.Message
	}
	e.mu.Unlock()
	e.notify()
}

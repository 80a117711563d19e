package engine

import (
	"context"

	"NM_clicker_miniapp/pkg/logger"
	"go.uber.org/zap"
)

// RefreshLeaderboard fetches the top-N snapshot and replaces the prior
// one atomically. Fetch failures are silent: the stale snapshot stays.
func (e *Engine) RefreshLeaderboard(ctx context.Context) {
	items, err := e.api.Leaderboard(ctx, e.boardLimit)
	if err != nil {
		logger.Logger().Debug("leaderboard fetch failed", zap.Error(err))
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.leaderboard = items
	e.mu.Unlock()
	e.notify()
}

// Package engine is the client-side session and tap-reconciliation core
// of the clicker mini-app. It bootstraps a session from ambiguous
// identity sources, batches taps into rate-limited flushes, applies a
// referral at most once, and keeps the local snapshot consistent with
// the server's authoritative state.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"NM_clicker_miniapp/internal/client"
	"NM_clicker_miniapp/internal/model"
	"NM_clicker_miniapp/pkg/logger"
	"go.uber.org/zap"
)

const (
	defaultDebounceWindow   = 120 * time.Millisecond
	defaultLeaderboardLimit = 50
	defaultRequestTimeout   = 10 * time.Second
)

const (
	msgConnecting  = "Connecting to the game server..."
	msgSignedIn    = "Signed in. Tap the logo."
	msgAuthFailed  = "Connection error. Check the game server and try again."
	msgThrottled   = "Rate limit reached. Max 10 taps/sec."
	msgTapsNotSent = "Network unavailable. Taps were not sent."
	msgBonusFailed = "Could not claim the daily bonus."
	msgEnterFailed = "Could not enter the lottery."
)

// API is the remote surface the engine drives. *client.Client satisfies
// it; tests substitute a scripted fake.
type API interface {
	Authenticate(ctx context.Context, req client.AuthRequest) (*client.AuthResponse, error)
	ApplyReferral(ctx context.Context, token string, referrerTelegramID int64) (*client.ActionResponse, error)
	SendTaps(ctx context.Context, token string, taps int) (*client.TapResponse, error)
	ClaimDailyBonus(ctx context.Context, token string) (*client.DailyBonusResponse, error)
	EnterLottery(ctx context.Context, token string) (*client.ActionResponse, error)
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardItem, error)
}

type Options struct {
	Bridge HostBridge
	Store  SessionStore

	// BotUsername feeds the referral share link; empty degrades to a
	// bare share intent.
	BotUsername string
	// TestTelegramID is the URL-supplied numeric test identity; only an
	// all-digits value is honored.
	TestTelegramID string
	// StartParam is a launch-parameter referral hint used when the host
	// bridge carries none.
	StartParam string

	FallbackTelegramID int64
	DebounceWindow     time.Duration
	LeaderboardLimit   int
	RequestTimeout     time.Duration

	// OnChange fires after every visible change: state, status text,
	// phase, or leaderboard. Called outside the engine lock.
	OnChange func()
}

type Engine struct {
	api    API
	bridge HostBridge
	store  SessionStore

	botUsername    string
	testTelegramID string
	startParam     string
	fallbackID     int64
	debounce       time.Duration
	boardLimit     int
	reqTimeout     time.Duration
	onChange       func()

	mu                sync.Mutex
	phase             SessionPhase
	session           Session
	state             *model.ClickerState
	status            string
	leaderboard       []model.LeaderboardItem
	referralAttempted bool
	pendingTaps       int
	flushScheduled    bool
	flushInFlight     bool
	flushTimer        *time.Timer
	closed            bool

	timerAfterFunc func(d time.Duration, f func()) *time.Timer
}

func New(api API, opts Options) *Engine {
	if opts.Bridge == nil {
		opts.Bridge = NopBridge{}
	}
	if opts.Store == nil {
		opts.Store = NewMemorySessionStore()
	}
	if opts.FallbackTelegramID <= 0 {
		opts.FallbackTelegramID = FallbackTelegramID
	}
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = defaultDebounceWindow
	}
	if opts.LeaderboardLimit <= 0 {
		opts.LeaderboardLimit = defaultLeaderboardLimit
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	return &Engine{
		api:            api,
		bridge:         opts.Bridge,
		store:          opts.Store,
		botUsername:    opts.BotUsername,
		testTelegramID: opts.TestTelegramID,
		startParam:     opts.StartParam,
		fallbackID:     opts.FallbackTelegramID,
		debounce:       opts.DebounceWindow,
		boardLimit:     opts.LeaderboardLimit,
		reqTimeout:     opts.RequestTimeout,
		onChange:       opts.OnChange,
		phase:          PhaseInit,
		status:         msgConnecting,
		timerAfterFunc: time.AfterFunc,
	}
}

// Bootstrap exchanges an identity assertion for a session and the initial
// authoritative state. It runs once: re-entry while authenticating or
// after a terminal phase is a no-op, and a failed bootstrap stays failed.
func (e *Engine) Bootstrap(ctx context.Context) error {
	e.mu.Lock()
	if e.phase != PhaseInit || e.closed {
		e.mu.Unlock()
		return nil
	}
	e.phase = PhaseAuthenticating
	e.status = msgConnecting
	e.mu.Unlock()
	e.notify()

	// Lifecycle hints are fire-and-forget; a missing host must not
	// block bootstrap.
	e.bridge.Ready()
	e.bridge.Expand()

	identity := ResolveIdentity(e.bridge.InitData(), e.testTelegramID, e.fallbackID)

	req := client.AuthRequest{}
	if identity.InitData != "" {
		req.InitData = identity.InitData
	} else {
		id := identity.DevTelegramUserID
		req.DevTelegramUserID = &id
	}

	resp, err := e.api.Authenticate(ctx, req)
	if err == nil && (resp == nil || resp.AccessToken == "" || resp.State == nil) {
		err = fmt.Errorf("authentication response is incomplete")
	}
	if err != nil {
		e.mu.Lock()
		e.phase = PhaseFailed
		e.status = msgAuthFailed
		e.mu.Unlock()
		e.notify()
		return fmt.Errorf("bootstrap failed: %w", err)
	}

	startParam := resp.StartParam
	if startParam == "" {
		startParam = e.bridge.StartParam()
	}
	if startParam == "" {
		startParam = e.startParam
	}

	e.mu.Lock()
	e.session = Session{Token: resp.AccessToken, UID: resp.UID}
	e.applyStateLocked(resp.State)
	e.phase = PhaseAuthenticated
	e.status = msgSignedIn
	e.mu.Unlock()
	e.notify()

	if err := e.store.Save(resp.AccessToken, resp.UID); err != nil {
		logger.Logger().Warn("failed to persist session", zap.Error(err))
	}

	e.applyReferralIfNeeded(ctx, startParam)
	e.RefreshLeaderboard(ctx)

	return nil
}

// applyStateLocked replaces the snapshot wholesale. A response carrying
// state older than what is already applied is discarded so a late reply
// can never roll the UI backwards.
func (e *Engine) applyStateLocked(state *model.ClickerState) {
	if state == nil {
		return
	}
	if e.state != nil && state.UpdatedAt.Before(e.state.UpdatedAt) {
		return
	}
	copied := *state
	e.state = &copied
}

func (e *Engine) notify() {
	if e.onChange != nil {
		e.onChange()
	}
}

// Snapshot is a consistent copy of everything the UI renders.
type Snapshot struct {
	Phase       SessionPhase
	State       *model.ClickerState
	Status      string
	Leaderboard []model.LeaderboardItem
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Phase:  e.phase,
		Status: e.status,
	}
	if e.state != nil {
		copied := *e.state
		snap.State = &copied
	}
	if len(e.leaderboard) > 0 {
		snap.Leaderboard = append([]model.LeaderboardItem(nil), e.leaderboard...)
	}

	return snap
}

func (e *Engine) Session() Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Progress reports points into the current level versus the points the
// next level requires. At max level the span degrades to a single point.
func (e *Engine) Progress() (current, total int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == nil {
		return 0, 1
	}

	levelStart := e.state.LevelStartPoints
	next := levelStart + 1
	if e.state.NextLevelPoints != nil {
		next = *e.state.NextLevelPoints
	}

	current = e.state.Points - levelStart
	if current < 0 {
		current = 0
	}
	total = next - levelStart
	if total < 1 {
		total = 1
	}

	return current, total
}

// ShareURL builds the referral share link for the current identity.
func (e *Engine) ShareURL() string {
	e.mu.Lock()
	var tgID *int64
	if e.state != nil && e.state.TelegramUserID != nil {
		id := *e.state.TelegramUserID
		tgID = &id
	}
	e.mu.Unlock()

	return BuildShareURL(e.botUsername, tgID)
}

// OpenShareLink hands the share link to the host bridge; without a host
// the link itself becomes the status text so the user can copy it.
func (e *Engine) OpenShareLink() {
	shareURL := e.ShareURL()
	if err := e.bridge.OpenLink(shareURL); err != nil {
		e.mu.Lock()
		e.status = shareURL
		e.mu.Unlock()
		e.notify()
	}
}

// Close tears the engine down: the pending flush is cancelled before it
// fires and any response still in flight is discarded on arrival.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	if e.flushTimer != nil {
		e.flushTimer.Stop()
		e.flushTimer = nil
	}
	e.flushScheduled = false
	e.pendingTaps = 0
	e.mu.Unlock()
}

package engine

import (
	"context"
	"sync"
	"time"

	"NM_clicker_miniapp/internal/client"
	"NM_clicker_miniapp/internal/model"
)

// fakeAPI scripts the remote oracle. Every call is recorded; individual
// operations can be blocked via release channels to simulate slow
// requests.
type fakeAPI struct {
	mu sync.Mutex

	authResp *client.AuthResponse
	authErr  error

	tapResps   []*client.TapResponse
	tapErr     error
	tapCalls   []int
	tapStarted chan int
	tapRelease chan struct{}
	tapActive  int
	tapMaxSeen int

	referralResp  *client.ActionResponse
	referralErr   error
	referralCalls []int64

	bonusResp *client.DailyBonusResponse
	bonusErr  error

	lotteryResp *client.ActionResponse
	lotteryErr  error

	boardItems []model.LeaderboardItem
	boardErr   error
	boardCalls int
}

func stateAt(points int64, updatedAt time.Time) *model.ClickerState {
	next := int64(10_000)
	return &model.ClickerState{
		UID:              "tg:100001",
		DisplayName:      "Player",
		Points:           points,
		Level:            1,
		Multiplier:       1,
		LevelStartPoints: 0,
		NextLevelPoints:  &next,
		UpdatedAt:        updatedAt,
	}
}

func okAuthResponse(startParam string) *client.AuthResponse {
	return &client.AuthResponse{
		AccessToken: "token-1",
		UID:         "tg:100001",
		StartParam:  startParam,
		State:       stateAt(0, time.Now()),
	}
}

func (f *fakeAPI) Authenticate(_ context.Context, _ client.AuthRequest) (*client.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authResp, f.authErr
}

func (f *fakeAPI) ApplyReferral(_ context.Context, _ string, referrerTelegramID int64) (*client.ActionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.referralCalls = append(f.referralCalls, referrerTelegramID)
	return f.referralResp, f.referralErr
}

func (f *fakeAPI) SendTaps(_ context.Context, _ string, taps int) (*client.TapResponse, error) {
	f.mu.Lock()
	f.tapCalls = append(f.tapCalls, taps)
	f.tapActive++
	if f.tapActive > f.tapMaxSeen {
		f.tapMaxSeen = f.tapActive
	}
	started := f.tapStarted
	release := f.tapRelease
	f.mu.Unlock()

	if started != nil {
		started <- taps
	}
	if release != nil {
		<-release
	}

	f.mu.Lock()
	f.tapActive--
	var resp *client.TapResponse
	if len(f.tapResps) > 0 {
		resp = f.tapResps[0]
		f.tapResps = f.tapResps[1:]
	}
	err := f.tapErr
	f.mu.Unlock()

	return resp, err
}

func (f *fakeAPI) ClaimDailyBonus(_ context.Context, _ string) (*client.DailyBonusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bonusResp, f.bonusErr
}

func (f *fakeAPI) EnterLottery(_ context.Context, _ string) (*client.ActionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lotteryResp, f.lotteryErr
}

func (f *fakeAPI) Leaderboard(_ context.Context, _ int) ([]model.LeaderboardItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.boardCalls++
	return f.boardItems, f.boardErr
}

func (f *fakeAPI) recordedTaps() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.tapCalls...)
}

func (f *fakeAPI) referrals() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.referralCalls...)
}

func (f *fakeAPI) leaderboardCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.boardCalls
}

func (f *fakeAPI) maxConcurrentTapCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tapMaxSeen
}

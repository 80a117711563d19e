package service

import (
	"context"
	"errors"
	"time"

	"NM_clicker_miniapp/internal/model"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

type ClickerServiceI interface {
	UpsertUser(ctx context.Context, telegramUserID int64, username, firstName, lastName string) (*model.ClickerState, error)
	GetState(ctx context.Context, uid string) (*model.ClickerState, error)
	Tap(ctx context.Context, uid string, taps int) (*TapResult, error)
	ClaimDailyBonus(ctx context.Context, uid string) (*BonusResult, error)
	ApplyReferral(ctx context.Context, uid string, referrerTelegramID int64) (*ReferralResult, error)
	EnterLottery(ctx context.Context, uid string) (*LotteryResult, error)
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardItem, error)
	ListLotteryEntries(ctx context.Context) ([]model.LotteryEntry, error)
}

type ClickerRepository interface {
	GetUser(ctx context.Context, uid string) (*model.ClickerUser, error)
	SaveUser(ctx context.Context, user *model.ClickerUser) error
	TopUsers(ctx context.Context, limit int) ([]*model.ClickerUser, error)
	SaveLotteryEntry(ctx context.Context, entry *model.LotteryEntry) error
	ListLotteryEntries(ctx context.Context) ([]model.LotteryEntry, error)
}

type TapResult struct {
	OK           bool
	AcceptedTaps int
	RejectedTaps int
	AddedPoints  int64
	Throttled    bool
	Message      string
	State        *model.ClickerState
}

type BonusResult struct {
	OK          bool
	AddedPoints int64
	Message     string
	State       *model.ClickerState
}

type ReferralResult struct {
	OK      bool
	Message string
	State   *model.ClickerState
}

type LotteryResult struct {
	OK        bool
	Message   string
	EnteredAt *time.Time
	State     *model.ClickerState
}

package model

import "time"

// ClickerState is the authoritative snapshot of one player's progression.
// The server builds it on every response and the client replaces its copy
// wholesale, never mutating fields locally.
type ClickerState struct {
	UID                 string     `json:"uid"`
	TelegramUserID      *int64     `json:"telegram_user_id"`
	Username            string     `json:"username"`
	DisplayName         string     `json:"display_name"`
	Points              int64      `json:"points"`
	Level               int        `json:"level"`
	Multiplier          int        `json:"multiplier"`
	Referrals           int        `json:"referrals"`
	ReferredBy          *int64     `json:"referred_by"`
	DailyBonusAvailable bool       `json:"daily_bonus_available"`
	DailyBonusClaimedAt *time.Time `json:"daily_bonus_claimed_at"`
	NextDailyBonusAt    *time.Time `json:"next_daily_bonus_at"`
	LotteryJoined       bool       `json:"lottery_joined"`
	LotteryEnteredAt    *time.Time `json:"lottery_entered_at"`
	NightModeUnlocked   bool       `json:"night_mode_unlocked"`
	TapsInCurrentSecond int        `json:"taps_in_current_second"`
	LevelStartPoints    int64      `json:"level_start_points"`
	NextLevelPoints     *int64     `json:"next_level_points"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

type LeaderboardItem struct {
	Rank           int       `json:"rank"`
	UID            string    `json:"uid"`
	TelegramUserID *int64    `json:"telegram_user_id"`
	DisplayName    string    `json:"display_name"`
	Points         int64     `json:"points"`
	Level          int       `json:"level"`
	Referrals      int       `json:"referrals"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type LotteryEntry struct {
	EntryID        string    `json:"entry_id"`
	UID            string    `json:"uid"`
	TelegramUserID *int64    `json:"telegram_user_id"`
	DisplayName    string    `json:"display_name"`
	Points         int64     `json:"points"`
	Level          int       `json:"level"`
	EnteredAt      time.Time `json:"entered_at"`
}

// ClickerUser is the persisted server-side record a ClickerState is
// derived from.
type ClickerUser struct {
	UID                 string
	TelegramUserID      *int64
	Username            string
	FirstName           string
	LastName            string
	DisplayName         string
	Points              int64
	Level               int
	Multiplier          int
	Referrals           int
	ReferredBy          *int64
	DailyBonusClaimedAt *time.Time
	LotteryJoined       bool
	LotteryEnteredAt    *time.Time
	NightModeUnlocked   bool
	LastTapSecond       int64
	TapsInSecond        int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"NM_clicker_miniapp/internal/model"
	"NM_clicker_miniapp/internal/repository"
)

// Level thresholds: one level per 10k points up to level 30, then one per
// 100k. The multiplier always equals the level.
const (
	earlyLevelStep   = int64(10_000)
	lateLevelStep    = int64(100_000)
	lateLevelsFrom   = 30
	lateLevelsFloor  = int64(290_000)
	maxLeaderboard   = 50
	dailyBonusPeriod = 24 * time.Hour
)

type Rules struct {
	MaxTapsPerSecond    int
	DailyBonusPerLevel  int64
	ReferralBonusLevels int
}

func DefaultRules() Rules {
	return Rules{
		MaxTapsPerSecond:    10,
		DailyBonusPerLevel:  50,
		ReferralBonusLevels: 3,
	}
}

type ClickerService struct {
	repo  ClickerRepository
	rules Rules

	now func() time.Time
}

func NewClickerService(repo ClickerRepository, rules Rules) *ClickerService {
	if rules.MaxTapsPerSecond < 1 {
		rules.MaxTapsPerSecond = 1
	}
	if rules.DailyBonusPerLevel < 1 {
		rules.DailyBonusPerLevel = 1
	}
	if rules.ReferralBonusLevels < 1 {
		rules.ReferralBonusLevels = 1
	}

	return &ClickerService{
		repo:  repo,
		rules: rules,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func BuildUID(telegramUserID int64) string {
	return fmt.Sprintf("tg:%d", telegramUserID)
}

func telegramIDFromUID(uid string) *int64 {
	raw, ok := strings.CutPrefix(uid, "tg:")
	if !ok {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return nil
	}
	return &id
}

func PointsForLevel(level int) int64 {
	if level < 1 {
		level = 1
	}
	if level <= lateLevelsFrom {
		return int64(level-1) * earlyLevelStep
	}
	return lateLevelsFloor + int64(level-lateLevelsFrom)*lateLevelStep
}

func LevelFromPoints(points int64) int {
	if points < 0 {
		points = 0
	}
	if points < lateLevelsFloor {
		return int(points/earlyLevelStep) + 1
	}
	return lateLevelsFrom + int((points-lateLevelsFloor)/lateLevelStep)
}

func nextLevelPoints(level int) *int64 {
	if level < 1 {
		level = 1
	}
	next := PointsForLevel(level + 1)
	return &next
}

func displayName(uid, firstName, lastName, username string) string {
	fullName := strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
	if fullName != "" {
		return fullName
	}
	if username != "" {
		return "@" + strings.TrimPrefix(username, "@")
	}
	return uid
}

func (s *ClickerService) getOrCreate(ctx context.Context, uid string, telegramUserID *int64, username, firstName, lastName string) (*model.ClickerUser, error) {
	now := s.now()

	user, err := s.repo.GetUser(ctx, uid)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to load clicker user: %w", err)
		}

		user = &model.ClickerUser{
			UID:            uid,
			TelegramUserID: telegramUserID,
			Username:       username,
			FirstName:      firstName,
			LastName:       lastName,
			DisplayName:    displayName(uid, firstName, lastName, username),
			Points:         0,
			Level:          1,
			Multiplier:     1,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.repo.SaveUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create clicker user: %w", err)
		}
		return user, nil
	}

	changed := false
	if telegramUserID != nil && (user.TelegramUserID == nil || *user.TelegramUserID != *telegramUserID) {
		user.TelegramUserID = telegramUserID
		changed = true
	}
	if username != "" && user.Username != username {
		user.Username = username
		changed = true
	}
	if firstName != "" && user.FirstName != firstName {
		user.FirstName = firstName
		changed = true
	}
	if lastName != "" && user.LastName != lastName {
		user.LastName = lastName
		changed = true
	}

	if changed {
		user.DisplayName = displayName(uid, user.FirstName, user.LastName, user.Username)
		user.UpdatedAt = now
		if err := s.repo.SaveUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update clicker user: %w", err)
		}
	}

	return user, nil
}

func (s *ClickerService) toState(user *model.ClickerUser) *model.ClickerState {
	now := s.now()

	dailyBonusAvailable := true
	var nextDailyBonusAt *time.Time
	if user.DailyBonusClaimedAt != nil {
		next := user.DailyBonusClaimedAt.Add(dailyBonusPeriod)
		dailyBonusAvailable = !now.Before(next)
		if !dailyBonusAvailable {
			nextDailyBonusAt = &next
		}
	}

	level := user.Level
	if level < 1 {
		level = 1
	}

	tapsInSecond := 0
	if user.LastTapSecond == now.Unix() {
		tapsInSecond = user.TapsInSecond
	}

	return &model.ClickerState{
		UID:                 user.UID,
		TelegramUserID:      user.TelegramUserID,
		Username:            user.Username,
		DisplayName:         user.DisplayName,
		Points:              user.Points,
		Level:               level,
		Multiplier:          max(1, user.Multiplier),
		Referrals:           user.Referrals,
		ReferredBy:          user.ReferredBy,
		DailyBonusAvailable: dailyBonusAvailable,
		DailyBonusClaimedAt: user.DailyBonusClaimedAt,
		NextDailyBonusAt:    nextDailyBonusAt,
		LotteryJoined:       user.LotteryJoined,
		LotteryEnteredAt:    user.LotteryEnteredAt,
		NightModeUnlocked:   user.NightModeUnlocked,
		TapsInCurrentSecond: tapsInSecond,
		LevelStartPoints:    PointsForLevel(level),
		NextLevelPoints:     nextLevelPoints(level),
		UpdatedAt:           user.UpdatedAt,
	}
}

func (s *ClickerService) UpsertUser(ctx context.Context, telegramUserID int64, username, firstName, lastName string) (*model.ClickerState, error) {
	uid := BuildUID(telegramUserID)
	user, err := s.getOrCreate(ctx, uid, &telegramUserID, username, firstName, lastName)
	if err != nil {
		return nil, err
	}
	return s.toState(user), nil
}

func (s *ClickerService) GetState(ctx context.Context, uid string) (*model.ClickerState, error) {
	user, err := s.getOrCreate(ctx, uid, telegramIDFromUID(uid), "", "", "")
	if err != nil {
		return nil, err
	}
	return s.toState(user), nil
}

// Tap credits a batched tap count, capped at MaxTapsPerSecond within one
// wall-clock second. A batch that lands entirely over the cap is throttled;
// a partially accepted batch gets its own message.
func (s *ClickerService) Tap(ctx context.Context, uid string, taps int) (*TapResult, error) {
	user, err := s.getOrCreate(ctx, uid, telegramIDFromUID(uid), "", "", "")
	if err != nil {
		return nil, err
	}

	now := s.now()
	if taps < 1 {
		taps = 1
	}

	currentSecond := now.Unix()
	tapsUsed := 0
	if user.LastTapSecond == currentSecond {
		tapsUsed = user.TapsInSecond
	}

	allowed := s.rules.MaxTapsPerSecond - tapsUsed
	if allowed < 0 {
		allowed = 0
	}
	accepted := min(taps, allowed)
	rejected := taps - accepted
	throttled := accepted == 0

	multiplier := max(1, user.Multiplier)
	addedPoints := int64(accepted) * int64(multiplier)
	if addedPoints > 0 {
		user.Points += addedPoints
		newLevel := LevelFromPoints(user.Points)
		user.Level = newLevel
		user.Multiplier = newLevel
		user.NightModeUnlocked = true
	}

	user.LastTapSecond = currentSecond
	user.TapsInSecond = tapsUsed + accepted
	user.UpdatedAt = now

	if err := s.repo.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save tap result: %w", err)
	}

	var message string
	switch {
	case throttled:
		message = fmt.Sprintf("Tap limit reached. Max %d taps/sec.", s.rules.MaxTapsPerSecond)
	case rejected > 0:
		message = "Part of taps were rejected by anti-cheat."
	default:
		message = "Tap accepted."
	}

	return &TapResult{
		OK:           addedPoints > 0,
		AcceptedTaps: accepted,
		RejectedTaps: rejected,
		AddedPoints:  addedPoints,
		Throttled:    throttled,
		Message:      message,
		State:        s.toState(user),
	}, nil
}

func (s *ClickerService) ClaimDailyBonus(ctx context.Context, uid string) (*BonusResult, error) {
	user, err := s.getOrCreate(ctx, uid, telegramIDFromUID(uid), "", "", "")
	if err != nil {
		return nil, err
	}

	now := s.now()
	if user.DailyBonusClaimedAt != nil && now.Before(user.DailyBonusClaimedAt.Add(dailyBonusPeriod)) {
		return &BonusResult{
			OK:      false,
			Message: "Daily bonus is not available yet.",
			State:   s.toState(user),
		}, nil
	}

	level := max(1, user.Level)
	addedPoints := int64(level) * s.rules.DailyBonusPerLevel
	user.Points += addedPoints
	newLevel := LevelFromPoints(user.Points)
	user.Level = newLevel
	user.Multiplier = newLevel
	user.DailyBonusClaimedAt = &now
	user.UpdatedAt = now

	if err := s.repo.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save daily bonus: %w", err)
	}

	return &BonusResult{
		OK:          true,
		AddedPoints: addedPoints,
		Message:     "Daily bonus claimed.",
		State:       s.toState(user),
	}, nil
}

// ApplyReferral lifts both parties to at least ReferralBonusLevels above
// their current level and credits the referrer. The server is the final
// authority on double application; the client additionally guards with its
// own one-shot flag.
func (s *ClickerService) ApplyReferral(ctx context.Context, uid string, referrerTelegramID int64) (*ReferralResult, error) {
	user, err := s.getOrCreate(ctx, uid, telegramIDFromUID(uid), "", "", "")
	if err != nil {
		return nil, err
	}

	if user.ReferredBy != nil {
		return &ReferralResult{
			OK:      false,
			Message: "Referral already applied.",
			State:   s.toState(user),
		}, nil
	}

	if user.TelegramUserID != nil && *user.TelegramUserID == referrerTelegramID {
		return &ReferralResult{
			OK:      false,
			Message: "Self-referral is not allowed.",
			State:   s.toState(user),
		}, nil
	}

	referrer, err := s.getOrCreate(ctx, BuildUID(referrerTelegramID), &referrerTelegramID, "", "", "")
	if err != nil {
		return nil, err
	}

	now := s.now()
	bonusLevels := s.rules.ReferralBonusLevels

	user.Points = max(user.Points, PointsForLevel(user.Level+bonusLevels))
	user.Level = LevelFromPoints(user.Points)
	user.Multiplier = user.Level
	user.ReferredBy = &referrerTelegramID
	user.UpdatedAt = now

	referrer.Points = max(referrer.Points, PointsForLevel(referrer.Level+bonusLevels))
	referrer.Level = LevelFromPoints(referrer.Points)
	referrer.Multiplier = referrer.Level
	referrer.Referrals++
	referrer.UpdatedAt = now

	if err := s.repo.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save referred user: %w", err)
	}
	if err := s.repo.SaveUser(ctx, referrer); err != nil {
		return nil, fmt.Errorf("failed to save referrer: %w", err)
	}

	return &ReferralResult{
		OK:      true,
		Message: fmt.Sprintf("Referral bonus applied (+%d levels for both).", bonusLevels),
		State:   s.toState(user),
	}, nil
}

func (s *ClickerService) EnterLottery(ctx context.Context, uid string) (*LotteryResult, error) {
	user, err := s.getOrCreate(ctx, uid, telegramIDFromUID(uid), "", "", "")
	if err != nil {
		return nil, err
	}

	if user.LotteryJoined {
		return &LotteryResult{
			OK:        false,
			Message:   "You are already in the lottery.",
			EnteredAt: user.LotteryEnteredAt,
			State:     s.toState(user),
		}, nil
	}

	now := s.now()
	user.LotteryJoined = true
	user.LotteryEnteredAt = &now
	user.UpdatedAt = now

	if err := s.repo.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save lottery entry: %w", err)
	}

	entry := &model.LotteryEntry{
		UID:            user.UID,
		TelegramUserID: user.TelegramUserID,
		DisplayName:    user.DisplayName,
		Points:         user.Points,
		Level:          user.Level,
		EnteredAt:      now,
	}
	if err := s.repo.SaveLotteryEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record lottery entry: %w", err)
	}

	return &LotteryResult{
		OK:        true,
		Message:   "Lottery entry saved.",
		EnteredAt: &now,
		State:     s.toState(user),
	}, nil
}

func (s *ClickerService) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardItem, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > maxLeaderboard {
		limit = maxLeaderboard
	}

	users, err := s.repo.TopUsers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}

	items := make([]model.LeaderboardItem, len(users))
	for i, user := range users {
		items[i] = model.LeaderboardItem{
			Rank:           i + 1,
			UID:            user.UID,
			TelegramUserID: user.TelegramUserID,
			DisplayName:    user.DisplayName,
			Points:         user.Points,
			Level:          max(1, user.Level),
			Referrals:      user.Referrals,
			UpdatedAt:      user.UpdatedAt,
		}
	}

	return items, nil
}

func (s *ClickerService) ListLotteryEntries(ctx context.Context) ([]model.LotteryEntry, error) {
	entries, err := s.repo.ListLotteryEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list lottery entries: %w", err)
	}
	return entries, nil
}

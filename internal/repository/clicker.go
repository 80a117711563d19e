package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"NM_clicker_miniapp/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type clickerUser struct {
	UID                 string     `db:"uid"`
	TelegramUserID      *int64     `db:"telegram_user_id"`
	Username            string     `db:"username"`
	FirstName           string     `db:"first_name"`
	LastName            string     `db:"last_name"`
	DisplayName         string     `db:"display_name"`
	Points              int64      `db:"points"`
	Level               int        `db:"level"`
	Multiplier          int        `db:"multiplier"`
	Referrals           int        `db:"referrals"`
	ReferredBy          *int64     `db:"referred_by"`
	DailyBonusClaimedAt *time.Time `db:"daily_bonus_claimed_at"`
	LotteryJoined       bool       `db:"lottery_joined"`
	LotteryEnteredAt    *time.Time `db:"lottery_entered_at"`
	NightModeUnlocked   bool       `db:"night_mode_unlocked"`
	LastTapSecond       int64      `db:"last_tap_second"`
	TapsInSecond        int        `db:"taps_in_second"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

type lotteryEntry struct {
	EntryID        string    `db:"entry_id"`
	UID            string    `db:"uid"`
	TelegramUserID *int64    `db:"telegram_user_id"`
	DisplayName    string    `db:"display_name"`
	Points         int64     `db:"points"`
	Level          int       `db:"level"`
	EnteredAt      time.Time `db:"entered_at"`
}

func toModelUser(row clickerUser) *model.ClickerUser {
	return &model.ClickerUser{
		UID:                 row.UID,
		TelegramUserID:      row.TelegramUserID,
		Username:            row.Username,
		FirstName:           row.FirstName,
		LastName:            row.LastName,
		DisplayName:         row.DisplayName,
		Points:              row.Points,
		Level:               row.Level,
		Multiplier:          row.Multiplier,
		Referrals:           row.Referrals,
		ReferredBy:          row.ReferredBy,
		DailyBonusClaimedAt: row.DailyBonusClaimedAt,
		LotteryJoined:       row.LotteryJoined,
		LotteryEnteredAt:    row.LotteryEnteredAt,
		NightModeUnlocked:   row.NightModeUnlocked,
		LastTapSecond:       row.LastTapSecond,
		TapsInSecond:        row.TapsInSecond,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
}

func (r *Repository) GetUser(ctx context.Context, uid string) (*model.ClickerUser, error) {
	var row clickerUser
	query, args, err := squirrel.
		Select("*").
		From("clicker_users").
		Where(squirrel.Eq{"uid": uid}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return toModelUser(row), nil
}

func (r *Repository) SaveUser(ctx context.Context, user *model.ClickerUser) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		values := map[string]interface{}{
			"uid":                    user.UID,
			"telegram_user_id":       user.TelegramUserID,
			"username":               user.Username,
			"first_name":             user.FirstName,
			"last_name":              user.LastName,
			"display_name":           user.DisplayName,
			"points":                 user.Points,
			"level":                  user.Level,
			"multiplier":             user.Multiplier,
			"referrals":              user.Referrals,
			"referred_by":            user.ReferredBy,
			"daily_bonus_claimed_at": user.DailyBonusClaimedAt,
			"lottery_joined":         user.LotteryJoined,
			"lottery_entered_at":     user.LotteryEnteredAt,
			"night_mode_unlocked":    user.NightModeUnlocked,
			"last_tap_second":        user.LastTapSecond,
			"taps_in_second":         user.TapsInSecond,
			"created_at":             user.CreatedAt,
			"updated_at":             user.UpdatedAt,
		}

		query, args, err := squirrel.
			Insert("clicker_users").
			SetMap(values).
			Suffix(`ON CONFLICT (uid) DO UPDATE SET
				telegram_user_id = EXCLUDED.telegram_user_id,
				username = EXCLUDED.username,
				first_name = EXCLUDED.first_name,
				last_name = EXCLUDED.last_name,
				display_name = EXCLUDED.display_name,
				points = EXCLUDED.points,
				level = EXCLUDED.level,
				multiplier = EXCLUDED.multiplier,
				referrals = EXCLUDED.referrals,
				referred_by = EXCLUDED.referred_by,
				daily_bonus_claimed_at = EXCLUDED.daily_bonus_claimed_at,
				lottery_joined = EXCLUDED.lottery_joined,
				lottery_entered_at = EXCLUDED.lottery_entered_at,
				night_mode_unlocked = EXCLUDED.night_mode_unlocked,
				last_tap_second = EXCLUDED.last_tap_second,
				taps_in_second = EXCLUDED.taps_in_second,
				updated_at = EXCLUDED.updated_at`).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build user upsert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}

		return nil
	})
}

func (r *Repository) TopUsers(ctx context.Context, limit int) ([]*model.ClickerUser, error) {
	var rows []clickerUser

	query, args, err := squirrel.
		Select("*").
		From("clicker_users").
		OrderBy("points DESC", "updated_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	users := make([]*model.ClickerUser, len(rows))
	for i, row := range rows {
		users[i] = toModelUser(row)
	}

	return users, nil
}

func (r *Repository) SaveLotteryEntry(ctx context.Context, entry *model.LotteryEntry) error {
	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}

	query, args, err := squirrel.
		Insert("lottery_entries").
		SetMap(map[string]interface{}{
			"entry_id":         entry.EntryID,
			"uid":              entry.UID,
			"telegram_user_id": entry.TelegramUserID,
			"display_name":     entry.DisplayName,
			"points":           entry.Points,
			"level":            entry.Level,
			"entered_at":       entry.EnteredAt,
		}).
		Suffix(`ON CONFLICT (uid) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			points = EXCLUDED.points,
			level = EXCLUDED.level`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build lottery insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert lottery entry: %w", err)
	}

	return nil
}

func (r *Repository) ListLotteryEntries(ctx context.Context) ([]model.LotteryEntry, error) {
	var rows []lotteryEntry

	query, args, err := squirrel.
		Select("*").
		From("lottery_entries").
		OrderBy("entered_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	entries := make([]model.LotteryEntry, len(rows))
	for i, row := range rows {
		entries[i] = model.LotteryEntry{
			EntryID:        row.EntryID,
			UID:            row.UID,
			TelegramUserID: row.TelegramUserID,
			DisplayName:    row.DisplayName,
			Points:         row.Points,
			Level:          row.Level,
			EnteredAt:      row.EnteredAt,
		}
	}

	return entries, nil
}

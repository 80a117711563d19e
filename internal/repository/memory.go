package repository

import (
	"context"
	"sort"
	"sync"

	"NM_clicker_miniapp/internal/model"

	"github.com/google/uuid"
)

// MemoryRepository keeps the whole game in process memory. It backs the
// dev storage mode and the service tests; rows vanish on restart.
type MemoryRepository struct {
	mu      sync.Mutex
	users   map[string]model.ClickerUser
	lottery map[string]model.LotteryEntry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:   make(map[string]model.ClickerUser),
		lottery: make(map[string]model.LotteryEntry),
	}
}

func (r *MemoryRepository) GetUser(_ context.Context, uid string) (*model.ClickerUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[uid]
	if !ok {
		return nil, ErrNotFound
	}
	copied := user
	return &copied, nil
}

func (r *MemoryRepository) SaveUser(_ context.Context, user *model.ClickerUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[user.UID] = *user
	return nil
}

func (r *MemoryRepository) TopUsers(_ context.Context, limit int) ([]*model.ClickerUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]*model.ClickerUser, 0, len(r.users))
	for uid := range r.users {
		user := r.users[uid]
		users = append(users, &user)
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].Points != users[j].Points {
			return users[i].Points > users[j].Points
		}
		return users[i].UpdatedAt.After(users[j].UpdatedAt)
	})

	if len(users) > limit {
		users = users[:limit]
	}

	return users, nil
}

func (r *MemoryRepository) SaveLotteryEntry(_ context.Context, entry *model.LotteryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}
	r.lottery[entry.UID] = *entry
	return nil
}

func (r *MemoryRepository) ListLotteryEntries(_ context.Context) ([]model.LotteryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]model.LotteryEntry, 0, len(r.lottery))
	for uid := range r.lottery {
		entries = append(entries, r.lottery[uid])
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].EnteredAt.After(entries[j].EnteredAt)
	})

	return entries, nil
}

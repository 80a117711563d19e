package mocks

import (
	"context"

	"NM_clicker_miniapp/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockClickerRepository struct {
	mock.Mock
}

func (m *MockClickerRepository) GetUser(ctx context.Context, uid string) (*model.ClickerUser, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClickerUser), args.Error(1)
}

func (m *MockClickerRepository) SaveUser(ctx context.Context, user *model.ClickerUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockClickerRepository) TopUsers(ctx context.Context, limit int) ([]*model.ClickerUser, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ClickerUser), args.Error(1)
}

func (m *MockClickerRepository) SaveLotteryEntry(ctx context.Context, entry *model.LotteryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockClickerRepository) ListLotteryEntries(ctx context.Context) ([]model.LotteryEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LotteryEntry), args.Error(1)
}

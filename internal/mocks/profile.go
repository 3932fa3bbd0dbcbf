package mocks

import (
	"context"
	"time"

	"github.com/pageza/mealplango/backend/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockProfileStore is a mock implementation of the IProfileStore interface
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) GetProfile(ctx context.Context, account string) (*models.Profile, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileStore) IncrementUsage(ctx context.Context, account string) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockProfileStore) ActivatePlan(ctx context.Context, account string, at time.Time) (bool, error) {
	args := m.Called(ctx, account, at)
	return args.Bool(0), args.Error(1)
}

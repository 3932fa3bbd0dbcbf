package mocks

import (
	"context"

	"github.com/pageza/mealplango/backend/internal/identity"
	"github.com/stretchr/testify/mock"
)

// MockTrialLedger is a mock implementation of the ITrialLedger interface
type MockTrialLedger struct {
	mock.Mock
}

func (m *MockTrialLedger) HasUsed(ctx context.Context, key identity.Key) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockTrialLedger) RecordUse(ctx context.Context, key identity.Key) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// MockWebhookDeduper is a mock implementation of the IWebhookDeduper interface
type MockWebhookDeduper struct {
	mock.Mock
}

func (m *MockWebhookDeduper) FirstDelivery(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockWebhookDeduper) Release(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

package mocks

import (
	"context"

	"github.com/pageza/mealplango/backend/internal/types"
	"github.com/stretchr/testify/mock"
)

// MockPlanGenerator is a mock implementation of the IPlanGenerator interface
type MockPlanGenerator struct {
	mock.Mock
}

func (m *MockPlanGenerator) GeneratePlan(ctx context.Context, prefs types.PlanPreferences) (*types.MealPlan, error) {
	args := m.Called(ctx, prefs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.MealPlan), args.Error(1)
}

// MockPlanRenderer is a mock implementation of the IPlanRenderer interface
type MockPlanRenderer struct {
	mock.Mock
}

func (m *MockPlanRenderer) Render(plan *types.MealPlan, opts types.RenderOptions) ([]byte, error) {
	args := m.Called(plan, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockPlanArchive is a mock implementation of the IPlanArchive interface
type MockPlanArchive struct {
	mock.Mock
}

func (m *MockPlanArchive) Store(ctx context.Context, document []byte) (string, error) {
	args := m.Called(ctx, document)
	return args.String(0), args.Error(1)
}

// MockAuthService is a mock implementation of the IAuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) ValidateToken(token string) (*types.TokenClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TokenClaims), args.Error(1)
}

func (m *MockAuthService) GenerateToken(claims *types.TokenClaims) (string, error) {
	args := m.Called(claims)
	return args.String(0), args.Error(1)
}

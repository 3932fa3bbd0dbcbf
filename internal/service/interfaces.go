package service

import (
	"context"
	"time"

	"github.com/pageza/mealplango/backend/internal/identity"
	"github.com/pageza/mealplango/backend/internal/models"
	"github.com/pageza/mealplango/backend/internal/types"
)

// IPlanGenerator produces a meal plan from user preferences.
type IPlanGenerator interface {
	GeneratePlan(ctx context.Context, prefs types.PlanPreferences) (*types.MealPlan, error)
}

// IPlanRenderer turns a plan into a printable document.
type IPlanRenderer interface {
	Render(plan *types.MealPlan, opts types.RenderOptions) ([]byte, error)
}

// IPlanArchive keeps a copy of delivered documents.
type IPlanArchive interface {
	Store(ctx context.Context, document []byte) (string, error)
}

// IProfileStore defines the account profile operations
type IProfileStore interface {
	GetProfile(ctx context.Context, account string) (*models.Profile, error)
	IncrementUsage(ctx context.Context, account string) error
	ActivatePlan(ctx context.Context, account string, at time.Time) (bool, error)
}

// ITrialLedger records which client identities consumed their free plan.
type ITrialLedger interface {
	HasUsed(ctx context.Context, key identity.Key) (bool, error)
	RecordUse(ctx context.Context, key identity.Key) (bool, error)
}

// IWebhookDeduper remembers processed webhook deliveries.
type IWebhookDeduper interface {
	// FirstDelivery reports whether id has not been seen before and marks it seen.
	FirstDelivery(ctx context.Context, id string) (bool, error)
	// Release forgets id so a retried delivery is processed again.
	Release(ctx context.Context, id string) error
}

// IAuthService defines the interface for session token operations
type IAuthService interface {
	ValidateToken(token string) (*types.TokenClaims, error)
	GenerateToken(claims *types.TokenClaims) (string, error)
}

package entitlement

import (
	"context"
	"fmt"
)

// UsageStore persists the per-account generation counter.
type UsageStore interface {
	// IncrementUsage atomically adds one to the account's counter.
	IncrementUsage(ctx context.Context, account string) error
}

// UsageCounter charges delivered generations against a paid account.
type UsageCounter struct {
	store UsageStore
}

// NewUsageCounter creates a UsageCounter.
func NewUsageCounter(store UsageStore) *UsageCounter {
	return &UsageCounter{store: store}
}

// Record charges one generation for a subscription grant. Trial grants and
// denials are not charged. The increment is not idempotent; callers must not
// retry it.
func (u *UsageCounter) Record(ctx context.Context, d Decision) error {
	if !d.Allowed() || d.Grant != GrantSubscription {
		return nil
	}
	if d.Account == "" {
		return ErrMissingAccount
	}
	if err := u.store.IncrementUsage(ctx, d.Account); err != nil {
		return fmt.Errorf("increment usage for %s: %w", d.Account, err)
	}
	return nil
}

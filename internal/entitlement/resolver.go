package entitlement

import (
	"context"

	"github.com/pageza/mealplango/backend/internal/identity"
	"github.com/pageza/mealplango/backend/internal/models"
)

// DefaultMonthlyCap is the number of generations a paid account gets per cycle.
const DefaultMonthlyCap = 20

// TrialLedger is the durable record of consumed anonymous trials.
type TrialLedger interface {
	HasUsed(ctx context.Context, key identity.Key) (bool, error)
	// RecordUse inserts the key if absent and reports whether this call
	// created the record.
	RecordUse(ctx context.Context, key identity.Key) (bool, error)
}

// ProfileReader loads account profiles. A missing profile is (nil, nil).
type ProfileReader interface {
	GetProfile(ctx context.Context, account string) (*models.Profile, error)
}

// Policy holds the tunable limits.
type Policy struct {
	MonthlyCap int
}

// Attempt describes one generation request.
type Attempt struct {
	Authenticated bool
	Account       string
	Identity      identity.Key
}

// Resolver evaluates attempts against the trial ledger and account profiles.
type Resolver struct {
	trials   TrialLedger
	profiles ProfileReader
	policy   Policy
}

// NewResolver creates a Resolver. A non-positive cap falls back to DefaultMonthlyCap.
func NewResolver(trials TrialLedger, profiles ProfileReader, policy Policy) *Resolver {
	if policy.MonthlyCap <= 0 {
		policy.MonthlyCap = DefaultMonthlyCap
	}
	return &Resolver{trials: trials, profiles: profiles, policy: policy}
}

// Policy returns the limits the resolver enforces.
func (r *Resolver) Policy() Policy {
	return r.policy
}

// Resolve decides whether the attempt may generate. The checks run in a
// fixed order: trial, authentication, profile tier, monthly cap.
func (r *Resolver) Resolve(ctx context.Context, a Attempt) Decision {
	used, err := r.trials.HasUsed(ctx, a.Identity)
	if err != nil {
		// Fail closed: an unreadable ledger must not hand out trials.
		return failed(CodeTrialLookupFailed, err)
	}

	if !used {
		granted, err := r.consumeTrial(ctx, a.Identity)
		if err != nil {
			return failed(CodeTrialLookupFailed, err)
		}
		if granted {
			return allowTrial()
		}
		// Another request recorded the trial first.
	}

	if !a.Authenticated {
		return deny(CodeTrialExhausted)
	}

	return r.resolveAccount(ctx, models.NormalizeEmail(a.Account))
}

// consumeTrial burns the identity's trial at grant time, before any
// generation happens. A later failure does not give it back.
func (r *Resolver) consumeTrial(ctx context.Context, key identity.Key) (bool, error) {
	return r.trials.RecordUse(ctx, key)
}

func (r *Resolver) resolveAccount(ctx context.Context, account string) Decision {
	if account == "" {
		return deny(CodeChoosePlan)
	}

	profile, err := r.profiles.GetProfile(ctx, account)
	if err != nil {
		return failed(CodeProfileLookupFailed, err)
	}
	if profile == nil || profile.Tier != models.TierPaid {
		return deny(CodeChoosePlan)
	}

	d := Decision{
		Account: account,
		Usage:   profile.GenerationsUsed,
		Limit:   r.policy.MonthlyCap,
	}
	if profile.GenerationsUsed >= r.policy.MonthlyCap {
		d.Code = CodeLimitReached
		return d
	}
	d.Code = CodeAllowed
	d.Grant = GrantSubscription
	return d
}

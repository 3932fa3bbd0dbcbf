// Package entitlement decides whether a caller may consume an AI generation
// and records the consumption that follows.
package entitlement

import (
	"fmt"
	"net/http"
)

// Code is the machine-readable outcome the client routes on.
type Code string

const (
	CodeAllowed             Code = "allowed"
	CodeTrialExhausted      Code = "trial_exhausted"
	CodeChoosePlan          Code = "choose_plan"
	CodeLimitReached        Code = "limit_reached"
	CodeProfileLookupFailed Code = "profile_lookup_failed"
	CodeTrialLookupFailed   Code = "trial_lookup_failed"
)

// Grant records which path allowed a generation.
type Grant string

const (
	GrantNone         Grant = ""
	GrantTrial        Grant = "trial"
	GrantSubscription Grant = "subscription"
)

// Decision is the result of resolving one generation attempt.
type Decision struct {
	Code  Code
	Grant Grant

	// Account and Usage are set for subscription grants and limit denials.
	Account string
	Usage   int
	Limit   int

	// Err holds the storage failure behind a *_lookup_failed code.
	Err error
}

// Allowed reports whether generation may proceed.
func (d Decision) Allowed() bool {
	return d.Code == CodeAllowed
}

// Failed reports whether the decision stems from a backend failure rather
// than policy.
func (d Decision) Failed() bool {
	return d.Code == CodeProfileLookupFailed || d.Code == CodeTrialLookupFailed
}

// HTTPStatus maps the outcome onto the response status.
func (d Decision) HTTPStatus() int {
	switch d.Code {
	case CodeAllowed:
		return http.StatusOK
	case CodeTrialExhausted, CodeChoosePlan, CodeLimitReached:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// Message is the human-readable text sent alongside the code.
func (d Decision) Message() string {
	switch d.Code {
	case CodeTrialExhausted:
		return "Your free plan has been used. Sign in to continue."
	case CodeChoosePlan:
		return "Choose a plan to keep generating meal plans."
	case CodeLimitReached:
		return fmt.Sprintf("You are out of credits for this month! (%d of %d used)", d.Usage, d.Limit)
	case CodeProfileLookupFailed:
		return "We could not load your account. Please try again."
	case CodeTrialLookupFailed:
		return "We could not verify your free plan. Please try again."
	default:
		return ""
	}
}

func allowTrial() Decision {
	return Decision{Code: CodeAllowed, Grant: GrantTrial}
}

func deny(code Code) Decision {
	return Decision{Code: code}
}

func failed(code Code, err error) Decision {
	return Decision{Code: code, Err: err}
}

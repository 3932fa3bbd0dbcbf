package entitlement

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EventSubscriptionPaymentSuccess is the only event that activates a plan.
const EventSubscriptionPaymentSuccess = "subscription_payment_success"

var (
	ErrMissingAccount = errors.New("event carries no account identifier")
	ErrMalformedEvent = errors.New("malformed webhook payload")
)

// Event is the subset of a payment webhook the activator needs.
type Event struct {
	ID      string
	Name    string
	Account string
}

type webhookPayload struct {
	Meta struct {
		EventName  string `json:"event_name"`
		CustomData struct {
			UserID string `json:"user_id"`
			Email  string `json:"email"`
		} `json:"custom_data"`
	} `json:"meta"`
	Data struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"data"`
}

// VerifySignature checks a hex HMAC-SHA256 of the raw body in constant time.
func VerifySignature(body []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	given, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(given, mac.Sum(nil))
}

// Sign returns the hex signature VerifySignature accepts for body.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ParseEvent decodes a verified webhook body.
func ParseEvent(body []byte) (Event, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	account := strings.TrimSpace(p.Meta.CustomData.UserID)
	if account == "" {
		account = strings.TrimSpace(p.Meta.CustomData.Email)
	}
	return Event{
		ID:      p.Data.ID,
		Name:    p.Meta.EventName,
		Account: account,
	}, nil
}

// PlanStore flips an account onto the paid tier.
type PlanStore interface {
	// ActivatePlan sets tier paid, zeroes usage and stamps the activation
	// time. It reports false when no profile matched the account.
	ActivatePlan(ctx context.Context, account string, at time.Time) (bool, error)
}

// ActivationResult describes what an event did.
type ActivationResult struct {
	Activated bool
	// Ignored names why an acknowledged event changed nothing.
	Ignored string
}

// Activator applies payment confirmations to account profiles.
type Activator struct {
	store PlanStore
	now   func() time.Time
}

// NewActivator creates an Activator.
func NewActivator(store PlanStore) *Activator {
	return &Activator{store: store, now: time.Now}
}

// Activate applies ev. Unrecognized events are ignored without error.
func (a *Activator) Activate(ctx context.Context, ev Event) (ActivationResult, error) {
	if ev.Name != EventSubscriptionPaymentSuccess {
		name := ev.Name
		if name == "" {
			name = "unknown"
		}
		return ActivationResult{Ignored: name}, nil
	}
	if ev.Account == "" {
		return ActivationResult{}, ErrMissingAccount
	}

	matched, err := a.store.ActivatePlan(ctx, ev.Account, a.now().UTC())
	if err != nil {
		return ActivationResult{}, fmt.Errorf("activate plan for %s: %w", ev.Account, err)
	}
	if !matched {
		return ActivationResult{Ignored: "unknown_account"}, nil
	}
	return ActivationResult{Activated: true}, nil
}

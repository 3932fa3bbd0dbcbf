package entitlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pageza/mealplango/backend/internal/mocks"
	"github.com/pageza/mealplango/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"meta":{"event_name":"subscription_payment_success"}}`)
	sig := Sign(body, testSecret)

	assert.True(t, VerifySignature(body, sig, testSecret))
	assert.False(t, VerifySignature(body, sig, "other-secret"))
	assert.False(t, VerifySignature(append(body, ' '), sig, testSecret))
	assert.False(t, VerifySignature(body, "not-hex", testSecret))
	assert.False(t, VerifySignature(body, "", testSecret))
	assert.False(t, VerifySignature(body, sig, ""))
}

func TestParseEvent(t *testing.T) {
	t.Run("user id", func(t *testing.T) {
		ev, err := ParseEvent([]byte(`{"meta":{"event_name":"subscription_payment_success","custom_data":{"user_id":"cook@example.com"}},"data":{"id":"42","type":"subscription-invoices"}}`))
		require.NoError(t, err)
		assert.Equal(t, "42", ev.ID)
		assert.Equal(t, EventSubscriptionPaymentSuccess, ev.Name)
		assert.Equal(t, "cook@example.com", ev.Account)
	})

	t.Run("falls back to email", func(t *testing.T) {
		ev, err := ParseEvent([]byte(`{"meta":{"event_name":"subscription_payment_success","custom_data":{"email":"cook@example.com"}}}`))
		require.NoError(t, err)
		assert.Equal(t, "cook@example.com", ev.Account)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseEvent([]byte(`{"meta":`))
		assert.ErrorIs(t, err, ErrMalformedEvent)
	})
}

func TestActivate_ResetsUsageAtCap(t *testing.T) {
	profiles := newMemoryProfiles(&models.Profile{Email: "cook@example.com", Tier: models.TierPaid, GenerationsUsed: 20})
	a := NewActivator(profiles)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	res, err := a.Activate(context.Background(), Event{Name: EventSubscriptionPaymentSuccess, Account: "cook@example.com"})
	require.NoError(t, err)
	assert.True(t, res.Activated)

	p, _ := profiles.GetProfile(context.Background(), "cook@example.com")
	assert.Equal(t, models.TierPaid, p.Tier)
	assert.Equal(t, 0, p.GenerationsUsed)
	require.NotNil(t, p.SubscribedOn)
	assert.True(t, fixed.Equal(*p.SubscribedOn))
}

func TestActivate_IgnoresOtherEvents(t *testing.T) {
	store := new(mocks.MockProfileStore)
	a := NewActivator(store)

	res, err := a.Activate(context.Background(), Event{Name: "subscription_cancelled", Account: "cook@example.com"})
	require.NoError(t, err)
	assert.False(t, res.Activated)
	assert.Equal(t, "subscription_cancelled", res.Ignored)

	res, err = a.Activate(context.Background(), Event{})
	require.NoError(t, err)
	assert.Equal(t, "unknown", res.Ignored)
	store.AssertNotCalled(t, "ActivatePlan", mock.Anything, mock.Anything, mock.Anything)
}

func TestActivate_MissingAccount(t *testing.T) {
	_, err := NewActivator(new(mocks.MockProfileStore)).Activate(context.Background(), Event{Name: EventSubscriptionPaymentSuccess})
	assert.ErrorIs(t, err, ErrMissingAccount)
}

func TestActivate_UnknownAccount(t *testing.T) {
	store := new(mocks.MockProfileStore)
	store.On("ActivatePlan", mock.Anything, "user-123", mock.Anything).Return(false, nil)

	res, err := NewActivator(store).Activate(context.Background(), Event{Name: EventSubscriptionPaymentSuccess, Account: "user-123"})
	require.NoError(t, err)
	assert.False(t, res.Activated)
	assert.Equal(t, "unknown_account", res.Ignored)
}

func TestActivate_StoreError(t *testing.T) {
	storeErr := errors.New("connection reset")
	store := new(mocks.MockProfileStore)
	store.On("ActivatePlan", mock.Anything, "cook@example.com", mock.Anything).Return(false, storeErr)

	_, err := NewActivator(store).Activate(context.Background(), Event{Name: EventSubscriptionPaymentSuccess, Account: "cook@example.com"})
	assert.ErrorIs(t, err, storeErr)
}

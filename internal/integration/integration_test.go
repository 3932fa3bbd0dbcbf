package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/mealplango/backend/config"
	"github.com/pageza/mealplango/backend/internal/api"
	"github.com/pageza/mealplango/backend/internal/entitlement"
	"github.com/pageza/mealplango/backend/internal/identity"
	"github.com/pageza/mealplango/backend/internal/middleware"
	"github.com/pageza/mealplango/backend/internal/render"
	"github.com/pageza/mealplango/backend/internal/server"
	"github.com/pageza/mealplango/backend/internal/service"
	"github.com/pageza/mealplango/backend/internal/testhelpers"
	"github.com/pageza/mealplango/backend/internal/types"
)

const (
	jwtSecret     = "integration-jwt-secret"
	webhookSecret = "integration-webhook-secret"
	clientIP      = "203.0.113.5"
	account       = "cook@example.com"
)

const planContent = `{"meals":[` +
	`{"breakfast":{"dish":"Oats","cookingDuration":"10","ingredients":["oats"],"recipe":["Cook"]},` +
	`"lunch":{"dish":"Salad","cookingDuration":"15","ingredients":["lettuce"],"recipe":["Chop"]},` +
	`"dinner":{"dish":"Curry","cookingDuration":"40","ingredients":["chickpeas"],"recipe":["Simmer"]}}],` +
	`"groceryList":[{"ingredient":"Oats","quantity":"500 g"}]}`

// fakeLLM serves a fixed chat completion.
func fakeLLM(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": planContent}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func setupStack(t *testing.T) *httptest.Server {
	t.Helper()
	db := testhelpers.SetupPostgresDB(t)
	rdb := testhelpers.SetupRedis(t)

	cfg := &config.Config{
		ServerHost:       "127.0.0.1",
		ServerPort:       "0",
		CORSOrigins:      []string{"*"},
		LLMAPIKey:        "sk-test",
		LLMAPIURL:        fakeLLM(t),
		LLMModel:         "gpt-4o-mini",
		LLMTimeout:       5 * time.Second,
		RateLimitPerHour: 50,
	}

	generator, err := service.NewLLMService(cfg)
	require.NoError(t, err)
	profiles := service.NewProfileService(db)

	srv := server.New(cfg, api.Dependencies{
		DB: db,
		Plans: api.NewPlanHandler(api.PlanHandlerConfig{
			Trials:    service.NewTrialService(db),
			Profiles:  profiles,
			Generator: generator,
			Renderer:  render.NewPDFRenderer(),
			Policy:    entitlement.Policy{MonthlyCap: 20},
		}),
		Webhooks:    api.NewWebhookHandler(profiles, webhookSecret, service.NewWebhookDedupeService(rdb, "webhook:test")),
		RateLimiter: middleware.NewGenerationRateLimiter(rdb, cfg.RateLimitPerHour),
		Auth:        service.NewAuthService(jwtSecret),
		Identity:    identity.Options{Scope: identity.ScopeAddressAndAgent, Salt: "integration-salt"},
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func sessionToken(t *testing.T) string {
	t.Helper()
	token, err := service.NewAuthService(jwtSecret).GenerateToken(&types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
		Email:            account,
	})
	require.NoError(t, err)
	return token
}

func generate(t *testing.T, baseURL, token string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/generate-plan",
		bytes.NewBufferString(`{"diet_preference":"vegetarian","people_count":"2","cuisine":"Indian"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", clientIP)
	req.Header.Set("User-Agent", "Mozilla/5.0 (integration)")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var payload struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &payload), string(body))
	return payload.Error
}

func sendWebhook(t *testing.T, baseURL string) map[string]interface{} {
	t.Helper()
	body := []byte(`{"meta":{"event_name":"subscription_payment_success","custom_data":{"user_id":"` + account + `"}},"data":{"id":"inv_42"}}`)
	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/webhooks/lemon", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", entitlement.Sign(body, webhookSecret))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func currentPlan(t *testing.T, baseURL string) map[string]interface{} {
	t.Helper()
	resp, err := http.Post(baseURL+"/api/get-plan", "application/json",
		bytes.NewBufferString(`{"email":"`+account+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestSubscriptionLifecycle(t *testing.T) {
	ts := setupStack(t)
	token := sessionToken(t)

	// The first request from a new device is the free trial preview.
	resp, body := generate(t, ts.URL, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	resp, body = generate(t, ts.URL, "")
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, string(entitlement.CodeTrialExhausted), errorCode(t, body))

	resp, body = generate(t, ts.URL, token)
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, string(entitlement.CodeChoosePlan), errorCode(t, body))

	assert.Equal(t, map[string]interface{}{"ok": true}, sendWebhook(t, ts.URL))

	resp, body = generate(t, ts.URL, token)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	plan := currentPlan(t, ts.URL)
	assert.Equal(t, "paid", plan["plan"])
	assert.EqualValues(t, 1, plan["usage"])
	assert.EqualValues(t, 20, plan["limit"])

	// A redelivered payment must not reset the counter.
	assert.Equal(t, true, sendWebhook(t, ts.URL)["duplicate"])
	assert.EqualValues(t, 1, currentPlan(t, ts.URL)["usage"])
}

func TestInvalidSessionRejected(t *testing.T) {
	ts := setupStack(t)

	resp, body := generate(t, ts.URL, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, string(body))

	resp, err := http.Get(ts.URL + "/api/check-trial")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SECRETS_DIR", dir)
	t.Setenv("CI", "")
	t.Setenv("ENV", "test")
	for _, key := range []string{
		"DB_DRIVER", "DB_HOST", "DB_PASSWORD", "JWT_SECRET", "LLM_API_KEY",
		"LEMON_WEBHOOK_SECRET", "IDENTITY_SALT", "TRIAL_SCOPE", "MONTHLY_GENERATION_CAP",
		"RATE_LIMIT_PER_HOUR", "LLM_TIMEOUT", "CORS_ORIGINS", "REDIS_URL", "REDIS_HOST",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoadConfig(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("MONTHLY_GENERATION_CAP", "35")
	t.Setenv("LLM_TIMEOUT", "45s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, "postgres", cfg.DBPassword)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Equal(t, 35, cfg.MonthlyCap)
	assert.Equal(t, 45*time.Second, cfg.LLMTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadConfigWithDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, 20, cfg.MonthlyCap)
	assert.Equal(t, "address_and_agent", cfg.TrialScope)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.False(t, cfg.RedisEnabled())
}

func TestLoadConfigReadsDockerSecrets(t *testing.T) {
	dir := isolateEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lemon_webhook_secret"), []byte("whsec\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "identity_salt"), []byte("pepper"), 0o600))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "whsec", cfg.WebhookSecret)
	assert.Equal(t, "pepper", cfg.IdentitySalt)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	isolateEnv(t)
	t.Setenv("TRIAL_SCOPE", "per-account")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRIAL_SCOPE")

	t.Setenv("TRIAL_SCOPE", "")
	t.Setenv("MONTHLY_GENERATION_CAP", "twenty")
	_, err = LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONTHLY_GENERATION_CAP")

	for _, value := range []string{"0", "-5"} {
		t.Setenv("MONTHLY_GENERATION_CAP", value)
		_, err = LoadConfig()
		require.Error(t, err, value)
		assert.Contains(t, err.Error(), "MONTHLY_GENERATION_CAP")
	}
}

func TestValidateConfigProductionRequiresSecrets(t *testing.T) {
	isolateEnv(t)
	t.Setenv("ENV", "production")

	err := ValidateConfig(&Config{DBDriver: "postgres", TrialScope: "address"})
	require.Error(t, err)
	for _, key := range []string{"DB_PASSWORD", "JWT_SECRET", "LLM_API_KEY", "LEMON_WEBHOOK_SECRET", "IDENTITY_SALT"} {
		assert.Contains(t, err.Error(), key)
	}

	err = ValidateConfig(&Config{
		DBDriver:      "postgres",
		TrialScope:    "address",
		DBPassword:    "p",
		JWTSecret:     "j",
		LLMAPIKey:     "k",
		WebhookSecret: "w",
		IdentitySalt:  "s",
		MonthlyCap:    20,
	})
	assert.NoError(t, err)
}

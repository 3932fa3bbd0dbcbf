package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort  string
	ServerHost  string
	CORSOrigins []string

	// Database configuration
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	DBPath        string
	MigrationsDir string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string

	// Language model
	LLMAPIKey  string
	LLMAPIURL  string
	LLMModel   string
	LLMTimeout time.Duration

	// Payment webhook
	WebhookSecret string

	// Usage policy
	IdentitySalt     string
	TrialScope       string
	MonthlyCap       int
	RateLimitPerHour int

	// Plan archive
	S3BucketName string
	AWSRegion    string

	// Logging
	LogLevel  string
	LogFormat string
}

const (
	defaultMonthlyCap       = 20
	defaultRateLimitPerHour = 30
	defaultLLMTimeout       = 120 * time.Second
)

// LoadConfig creates a new Config instance with values from environment variables or secrets.
// A .env file in the working directory is loaded first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:    lookup("SERVER_PORT", "8080"),
		ServerHost:    lookup("SERVER_HOST", "0.0.0.0"),
		CORSOrigins:   splitList(lookup("CORS_ORIGINS", "http://localhost:3000")),
		DBDriver:      strings.ToLower(lookup("DB_DRIVER", "postgres")),
		DBHost:        lookup("DB_HOST", "localhost"),
		DBPort:        lookup("DB_PORT", "5432"),
		DBUser:        lookup("DB_USER", "postgres"),
		DBPassword:    lookup("DB_PASSWORD", ""),
		DBName:        lookup("DB_NAME", "mealplango"),
		DBSSLMode:     lookup("DB_SSL_MODE", "disable"),
		DBPath:        lookup("DB_PATH", "mealplango.db"),
		MigrationsDir: lookup("MIGRATIONS_DIR", "migrations"),
		RedisHost:     lookup("REDIS_HOST", ""),
		RedisPort:     lookup("REDIS_PORT", "6379"),
		RedisPassword: lookup("REDIS_PASSWORD", ""),
		RedisDB:       0, // This is a constant, not a secret
		RedisURL:      lookup("REDIS_URL", ""),
		JWTSecret:     lookup("JWT_SECRET", ""),
		LLMAPIKey:     lookup("LLM_API_KEY", ""),
		LLMAPIURL:     lookup("LLM_API_URL", "https://api.openai.com/v1/chat/completions"),
		LLMModel:      lookup("LLM_MODEL", "gpt-4o-mini"),
		WebhookSecret: lookup("LEMON_WEBHOOK_SECRET", ""),
		IdentitySalt:  lookup("IDENTITY_SALT", ""),
		TrialScope:    lookup("TRIAL_SCOPE", "address_and_agent"),
		S3BucketName:  lookup("S3_BUCKET_NAME", ""),
		AWSRegion:     lookup("AWS_REGION", ""),
		LogLevel:      lookup("LOG_LEVEL", "info"),
		LogFormat:     lookup("LOG_FORMAT", "auto"),
	}

	var err error
	if cfg.MonthlyCap, err = lookupInt("MONTHLY_GENERATION_CAP", defaultMonthlyCap); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerHour, err = lookupInt("RATE_LIMIT_PER_HOUR", defaultRateLimitPerHour); err != nil {
		return nil, err
	}
	if cfg.LLMTimeout, err = lookupDuration("LLM_TIMEOUT", defaultLLMTimeout); err != nil {
		return nil, err
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// lookup resolves a setting from the environment, then from a Docker secret
// named after the lowercased key, then falls back to def.
func lookup(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if v := readSecret(strings.ToLower(key)); v != "" {
		return v
	}
	return def
}

func lookupInt(key string, def int) (int, error) {
	raw := lookup(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func lookupDuration(key string, def time.Duration) (time.Duration, error) {
	raw := lookup(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

// DSN returns the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// RedisEnabled reports whether a Redis endpoint was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

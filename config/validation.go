package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	// Settings that must be present per environment. Development and test
	// run without them so the service can boot against local fakes.
	requiredSettings = map[Environment][]string{
		CI:         {"JWT_SECRET"},
		Production: {"DB_PASSWORD", "JWT_SECRET", "LLM_API_KEY", "LEMON_WEBHOOK_SECRET", "IDENTITY_SALT"},
	}

	validTrialScopes = map[string]bool{
		"address":           true,
		"address_and_agent": true,
	}
)

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()

	var errs []error

	for _, key := range requiredSettings[env] {
		if settingValue(cfg, key) == "" {
			errs = append(errs, ValidationError{Field: key, Message: fmt.Sprintf("required in %s environment", env)})
		}
	}

	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, ValidationError{Field: "DB_DRIVER", Message: fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	if !validTrialScopes[cfg.TrialScope] {
		errs = append(errs, ValidationError{Field: "TRIAL_SCOPE", Message: fmt.Sprintf("unsupported scope %q", cfg.TrialScope)})
	}
	if cfg.MonthlyCap <= 0 {
		errs = append(errs, ValidationError{Field: "MONTHLY_GENERATION_CAP", Message: "must be positive"})
	}
	if cfg.RateLimitPerHour < 0 {
		errs = append(errs, ValidationError{Field: "RATE_LIMIT_PER_HOUR", Message: "must not be negative"})
	}

	return errors.Join(errs...)
}

func settingValue(cfg *Config, key string) string {
	switch key {
	case "DB_PASSWORD":
		return cfg.DBPassword
	case "JWT_SECRET":
		return cfg.JWTSecret
	case "LLM_API_KEY":
		return cfg.LLMAPIKey
	case "LEMON_WEBHOOK_SECRET":
		return cfg.WebhookSecret
	case "IDENTITY_SALT":
		return cfg.IdentitySalt
	default:
		return strings.TrimSpace(lookup(key, ""))
	}
}

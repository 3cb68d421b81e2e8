package config

import (
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

// ValidateConfig checks that the loaded configuration is complete enough to
// start the server. Secrets may arrive via env vars or Docker secrets
// depending on environment; by this point they have been resolved either way.
func ValidateConfig(cfg *Config) error {
	var errors []string

	if cfg.DBHost == "" {
		errors = append(errors, "database host is not set (DB_HOST)")
	}
	if cfg.DBPort == "" {
		errors = append(errors, "database port is not set (DB_PORT)")
	}
	if cfg.DBUser == "" {
		errors = append(errors, "database user is not set (DB_USER)")
	}
	if cfg.DBName == "" {
		errors = append(errors, "database name is not set (DB_NAME)")
	}
	if cfg.DBPassword == "" {
		errors = append(errors, "database password is not set (DB_PASSWORD or db_password secret)")
	}
	if cfg.JWTSecret == "" {
		errors = append(errors, "JWT secret is not set (JWT_SECRET or jwt_secret secret)")
	} else if len(cfg.JWTSecret) < 32 && IsProduction() {
		errors = append(errors, "JWT secret must be at least 32 characters long in production")
	}
	if cfg.RedisHost == "" && cfg.RedisURL == "" {
		errors = append(errors, "redis is not configured (REDIS_HOST or REDIS_URL)")
	}
	if cfg.AIRetryMaxAttempts < 1 {
		errors = append(errors, "AI_RETRY_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.AIRetryBackoff < 1 {
		errors = append(errors, "AI_RETRY_BACKOFF_FACTOR must be at least 1")
	}
	if IsProduction() && cfg.HuggingFaceAPIKey == "" {
		errors = append(errors, "Hugging Face API key is required in production (huggingface_api_key secret)")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}

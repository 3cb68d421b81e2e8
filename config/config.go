package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// Default TTL for cached external API data
	CacheTTL time.Duration

	// JWT configuration
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	// Google Books API
	GoogleBooksBaseURL string
	GoogleBooksAPIKey  string

	// Hugging Face (game generation via Llama)
	HuggingFaceAPIKey   string
	HuggingFaceChatURL  string
	TextGenerationModel string
	AIRequestTimeout    time.Duration
	AIRetryMaxAttempts  int
	AIRetryBackoff      float64

	// Rate limiting for expensive AI endpoints (requests per window)
	RecommendationRateLimit  int
	RecommendationRateWindow time.Duration

	// CORS
	CORSOrigins []string
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := defaults()

	switch env {
	case CI:
		if err := loadCIConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load CI configuration: %w", err)
		}
	case Development, Test:
		if err := loadDevConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load development configuration: %w", err)
		}
	case Production:
		if err := loadProdConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load production configuration: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with the settings that rarely
// change between deployments.
func defaults() *Config {
	return &Config{
		ServerPort:               "8080",
		ServerHost:               "0.0.0.0",
		DBSSLMode:                "disable",
		RedisDB:                  0,
		CacheTTL:                 24 * time.Hour,
		AccessTokenExpiry:        15 * time.Minute,
		RefreshTokenExpiry:       7 * 24 * time.Hour,
		GoogleBooksBaseURL:       "https://www.googleapis.com/books/v1",
		HuggingFaceChatURL:       "https://router.huggingface.co/v1/chat/completions",
		TextGenerationModel:      "meta-llama/Llama-3.1-8B-Instruct",
		AIRequestTimeout:         30 * time.Second,
		AIRetryMaxAttempts:       3,
		AIRetryBackoff:           2,
		RecommendationRateLimit:  5,
		RecommendationRateWindow: time.Minute,
		CORSOrigins:              []string{"http://localhost:3000", "http://localhost:19006"},
	}
}

// loadCIConfig loads configuration for CI environment using ONLY environment variables
func loadCIConfig(cfg *Config) error {
	loadCommonEnv(cfg)

	cfg.DBPassword = os.Getenv("TEST_DB_PASSWORD")
	if cfg.DBPassword == "" {
		return fmt.Errorf("TEST_DB_PASSWORD environment variable is required in CI environment")
	}
	cfg.JWTSecret = os.Getenv("TEST_JWT_SECRET")
	cfg.RedisPassword = os.Getenv("TEST_REDIS_PASSWORD")
	cfg.RedisURL = os.Getenv("TEST_REDIS_URL")

	return nil
}

// loadDevConfig loads configuration for development environment: environment
// variables with Docker secrets overriding the sensitive fields when present.
func loadDevConfig(cfg *Config) error {
	loadCommonEnv(cfg)

	cfg.DBPassword = envOrSecret("DB_PASSWORD", "db_password")
	cfg.JWTSecret = envOrSecret("JWT_SECRET", "jwt_secret")
	cfg.RedisPassword = envOrSecret("REDIS_PASSWORD", "redis_password")
	cfg.HuggingFaceAPIKey = envOrSecret("HUGGINGFACE_API_KEY", "huggingface_api_key")
	cfg.GoogleBooksAPIKey = envOrSecret("GOOGLE_BOOKS_API_KEY", "google_books_api_key")

	return nil
}

// loadProdConfig loads configuration for production using ONLY Docker secrets
// for the sensitive fields.
func loadProdConfig(cfg *Config) error {
	loadCommonEnv(cfg)

	cfg.DBPassword = readSecret("db_password")
	cfg.JWTSecret = readSecret("jwt_secret")
	cfg.RedisPassword = readSecret("redis_password")
	cfg.HuggingFaceAPIKey = readSecret("huggingface_api_key")
	cfg.GoogleBooksAPIKey = readSecret("google_books_api_key")

	return nil
}

// loadCommonEnv reads the non-sensitive settings shared by every environment.
func loadCommonEnv(cfg *Config) {
	setEnvString(&cfg.ServerPort, "SERVER_PORT")
	setEnvString(&cfg.ServerHost, "SERVER_HOST")
	setEnvString(&cfg.DBHost, "DB_HOST")
	setEnvString(&cfg.DBPort, "DB_PORT")
	setEnvString(&cfg.DBUser, "DB_USER")
	setEnvString(&cfg.DBName, "DB_NAME")
	setEnvString(&cfg.DBSSLMode, "DB_SSL_MODE")
	setEnvString(&cfg.RedisHost, "REDIS_HOST")
	setEnvString(&cfg.RedisPort, "REDIS_PORT")
	setEnvString(&cfg.RedisURL, "REDIS_URL")
	setEnvString(&cfg.GoogleBooksBaseURL, "GOOGLE_BOOKS_BASE_URL")
	setEnvString(&cfg.HuggingFaceChatURL, "HUGGINGFACE_CHAT_URL")
	setEnvString(&cfg.TextGenerationModel, "TEXT_GENERATION_MODEL")

	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.RedisDB = db
		}
	}
	if v := os.Getenv("REDIS_CACHE_TTL"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			cfg.CacheTTL = time.Duration(sec) * time.Second
		}
	}
	if v := os.Getenv("AI_REQUEST_TIMEOUT"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			cfg.AIRequestTimeout = time.Duration(sec) * time.Second
		}
	}
	if v := os.Getenv("AI_RETRY_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AIRetryMaxAttempts = n
		}
	}
	if v := os.Getenv("AI_RETRY_BACKOFF_FACTOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.AIRetryBackoff = f
		}
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSOrigins = origins
	}
}

func setEnvString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// envOrSecret prefers an environment variable, falling back to the Docker
// secret of the same concern.
func envOrSecret(envKey, secretName string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return readSecret(secretName)
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

package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const (
	TokenStoreFile  = "file"
	TokenStoreRedis = "redis"
)

type Config struct {
	AppEnv string `env:"APP_ENV" default:"development"`

	APIBaseURL    string        `env:"API_BASE_URL" default:"http://localhost:5000"`
	APITimeout    time.Duration `env:"API_TIMEOUT" default:"15s"`
	APIRateLimit  float64       `env:"API_RATE_LIMIT" default:"10"`
	APIRateBurst  int           `env:"API_RATE_BURST" default:"20"`
	APIMaxRetries int           `env:"API_MAX_RETRIES" default:"3"`

	TokenStore     string `env:"TOKEN_STORE" default:"file"`
	TokenFile      string `env:"TOKEN_FILE" default:"~/.config/hiresphere/token"`
	RedisURL       string `env:"REDIS_URL"`
	SessionProfile string `env:"SESSION_PROFILE" default:"default"`
	// TokenEncryptionKey is a 64-character hex AES-256 key; empty stores tokens unsealed.
	TokenEncryptionKey string `env:"TOKEN_ENCRYPTION_KEY"`

	NotificationPollInterval time.Duration `env:"NOTIFICATION_POLL_INTERVAL" default:"60s"`
	NotificationPageSize     int           `env:"NOTIFICATION_PAGE_SIZE" default:"20"`

	StatusAddr string `env:"STATUS_ADDR"`
	StubPort   string `env:"STUB_PORT" default:"5000"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	tokenFile, err := expandHome(cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	cfg.TokenFile = tokenFile

	return &cfg, nil
}

func validate(cfg *Config) error {
	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", cfg.APIBaseURL)
	}
	if cfg.AppEnv == "production" && u.Scheme != "https" {
		return errors.New("API_BASE_URL must use https in production")
	}

	if cfg.APITimeout <= 0 {
		return errors.New("API_TIMEOUT must be positive")
	}
	if cfg.APIRateLimit <= 0 || cfg.APIRateBurst < 1 {
		return errors.New("API_RATE_LIMIT must be positive and API_RATE_BURST at least 1")
	}
	if cfg.APIMaxRetries < 1 {
		return errors.New("API_MAX_RETRIES must be at least 1")
	}

	switch strings.ToLower(cfg.TokenStore) {
	case TokenStoreFile:
		if cfg.TokenFile == "" {
			return errors.New("TOKEN_FILE is required when TOKEN_STORE=file")
		}
	case TokenStoreRedis:
		if cfg.RedisURL == "" {
			return errors.New("REDIS_URL is required when TOKEN_STORE=redis")
		}
		if cfg.SessionProfile == "" {
			return errors.New("SESSION_PROFILE must not be empty")
		}
	default:
		return fmt.Errorf("TOKEN_STORE must be %q or %q, got %q", TokenStoreFile, TokenStoreRedis, cfg.TokenStore)
	}
	cfg.TokenStore = strings.ToLower(cfg.TokenStore)

	if k := cfg.TokenEncryptionKey; k != "" {
		if _, err := hex.DecodeString(k); err != nil || len(k) != 64 {
			return errors.New("TOKEN_ENCRYPTION_KEY must be 64 hex characters (32 bytes)")
		}
	}

	if cfg.NotificationPollInterval < time.Second {
		return fmt.Errorf("NOTIFICATION_POLL_INTERVAL must be at least 1s, got %s", cfg.NotificationPollInterval)
	}
	if cfg.NotificationPageSize < 1 || cfg.NotificationPageSize > 100 {
		return fmt.Errorf("NOTIFICATION_PAGE_SIZE must be between 1 and 100, got %d", cfg.NotificationPageSize)
	}

	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve TOKEN_FILE: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

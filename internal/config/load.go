package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

var (
	configOnce  sync.Once
	configValue *Config
)

// Load 는 환경 변수 기반 설정을 로드한다.
func Load() *Config {
	configOnce.Do(func() {
		_ = godotenv.Load()
		configValue = buildConfig()
	})
	return configValue
}

// ProvideConfig 는 설정을 로드하고 검증한다.
func ProvideConfig() (*Config, error) {
	cfg := Load()
	if cfg == nil {
		return nil, errors.New("config not initialized")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 는 설정 유효성을 검사한다.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	switch strings.ToLower(strings.TrimSpace(c.Oracle.Provider)) {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unsupported oracle provider: %q", c.Oracle.Provider)
	}
	if c.Oracle.IsGemini() && c.Gemini.TextModel == "" {
		return errors.New("gemini text model is required")
	}
	if !c.Oracle.IsGemini() && strings.TrimSpace(c.Oracle.BaseURL) == "" {
		return errors.New("oracle base url is required")
	}
	if c.Oracle.Temperature < 0 || c.Oracle.Temperature > 2 {
		return fmt.Errorf("oracle temperature out of range: %v", c.Oracle.Temperature)
	}
	if c.Oracle.TopP <= 0 || c.Oracle.TopP > 1 {
		return fmt.Errorf("oracle top_p out of range: %v", c.Oracle.TopP)
	}
	if c.Oracle.MaxTokens <= 0 {
		return fmt.Errorf("oracle max tokens must be positive: %d", c.Oracle.MaxTokens)
	}
	if len(c.Oracle.FallbackImages) == 0 {
		return errors.New("at least one fallback image is required")
	}

	switch strings.ToLower(strings.TrimSpace(c.Database.Driver)) {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	return nil
}

// LogEnvStatus 는 환경 설정 상태를 로그로 남긴다.
func LogEnvStatus(cfg *Config, logger *slog.Logger) {
	if logger == nil || cfg == nil {
		return
	}

	apiKey := cfg.ActiveAPIKey()
	textModel, imageModel := cfg.ActiveModels()

	logger.Debug(
		"env_status",
		"env_file", fileExists(".env"),
		"provider", cfg.Oracle.Provider,
		"base_url", cfg.Oracle.BaseURL,
		"api_key", maskSecret(apiKey),
		"text_model", textModel,
		"image_model", imageModel,
		"text_timeout", cfg.Oracle.TextTimeoutSeconds,
		"store_url", cfg.Store.URL,
		"db_enabled", cfg.Database.Enabled,
		"db_driver", cfg.Database.Driver,
		"db_name", cfg.Database.Name,
	)

	if apiKey == "" {
		logger.Error("env_missing_oracle_api_key", "provider", cfg.Oracle.Provider)
	}
}

func buildConfig() *Config {
	return &Config{
		Oracle:        readOracleConfig(),
		Gemini:        readGeminiConfig(),
		Store:         readStoreConfig(),
		Guard:         readGuardConfig(),
		Logging:       readLoggingConfig(),
		HTTP:          readHTTPConfig(),
		HTTPAuth:      readHTTPAuthConfig(),
		HTTPRateLimit: readRateLimitConfig(),
		Database:      readDatabaseConfig(),
		Telemetry:     readTelemetryConfig(),
	}
}

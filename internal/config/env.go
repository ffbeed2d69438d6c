package config

import (
	"os"
	"strconv"
	"strings"
)

func readOracleConfig() OracleConfig {
	return OracleConfig{
		Provider:            strings.ToLower(getEnvString("ORACLE_PROVIDER", "openai")),
		BaseURL:             strings.TrimRight(getEnvString("ORACLE_BASE_URL", DefaultOracleBaseURL), "/"),
		APIKey:              getEnvString("ORACLE_API_KEY", ""),
		TextModel:           getEnvString("ORACLE_TEXT_MODEL", DefaultOracleTextModel),
		ImageModel:          getEnvString("ORACLE_IMAGE_MODEL", DefaultOracleImageModel),
		Temperature:         getEnvFloat("ORACLE_TEMPERATURE", 0.7),
		TopP:                getEnvFloat("ORACLE_TOP_P", 0.9),
		MaxTokens:           getEnvInt("ORACLE_MAX_TOKENS", 2000),
		TextTimeoutSeconds:  getEnvNonNegativeInt("ORACLE_TEXT_TIMEOUT_SECONDS", 60),
		ImageTimeoutSeconds: getEnvNonNegativeInt("ORACLE_IMAGE_TIMEOUT_SECONDS", 90),
		ImageEnabled:        getEnvBool("ORACLE_IMAGE_ENABLED", true),
		ImageWorkers:        max(1, getEnvNonNegativeInt("ORACLE_IMAGE_WORKERS", 4)),
		ImageQueueSize:      max(1, getEnvNonNegativeInt("ORACLE_IMAGE_QUEUE_SIZE", 64)),
		RateLimitRPS:        getEnvFloat("ORACLE_RATE_LIMIT_RPS", 5),
		RateLimitBurst:      max(1, getEnvNonNegativeInt("ORACLE_RATE_LIMIT_BURST", 5)),
		FallbackImages:      getEnvList("ORACLE_FALLBACK_IMAGES", DefaultFallbackImages),
	}
}

func readGeminiConfig() GeminiConfig {
	return GeminiConfig{
		APIKey:     getEnvString("GEMINI_API_KEY", getEnvString("GOOGLE_API_KEY", "")),
		TextModel:  getEnvString("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		ImageModel: getEnvString("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
	}
}

func readStoreConfig() StoreConfig {
	return StoreConfig{
		URL:                 getEnvString("STORE_URL", ""),
		TTLSeconds:          max(1, getEnvNonNegativeInt("STORE_TTL_SECONDS", 86400)),
		CompressThreshold:   getEnvNonNegativeInt("STORE_COMPRESS_THRESHOLD", 1024),
		ConnectMaxAttempts:  max(1, getEnvNonNegativeInt("STORE_CONNECT_MAX_ATTEMPTS", 6)),
		ConnectRetrySeconds: getEnvNonNegativeInt("STORE_CONNECT_RETRY_SECONDS", 2),
	}
}

func readGuardConfig() GuardConfig {
	return GuardConfig{
		Enabled:         getEnvBool("GUARD_ENABLED", true),
		Threshold:       getEnvFloat("GUARD_THRESHOLD", 0.85),
		RulepacksDir:    getEnvString("GUARD_RULEPACKS_DIR", ""),
		MaxInputRunes:   max(1, getEnvNonNegativeInt("GUARD_MAX_INPUT_RUNES", 500)),
		CacheMaxSize:    getEnvInt("GUARD_CACHE_SIZE", 10000),
		CacheTTLSeconds: getEnvInt("GUARD_CACHE_TTL", 3600),
	}
}

func readLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:      getEnvString("LOG_LEVEL", "info"),
		LogDir:     getEnvString("LOG_DIR", ""),
		MaxSizeMB:  getEnvInt("LOG_FILE_MAX_SIZE_MB", 10),
		MaxBackups: getEnvInt("LOG_FILE_MAX_BACKUPS", 30),
		MaxAgeDays: getEnvInt("LOG_FILE_MAX_AGE_DAYS", 7),
		Compress:   getEnvBool("LOG_FILE_COMPRESS", true),
	}
}

func readHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Host:         getEnvString("HTTP_HOST", "127.0.0.1"),
		Port:         getEnvInt("HTTP_PORT", 40528),
		HTTP2Enabled: getEnvBool("HTTP2_ENABLED", true),
		CORSOrigins:  getEnvList("HTTP_CORS_ORIGINS", nil),
	}
}

func readHTTPAuthConfig() HTTPAuthConfig {
	return HTTPAuthConfig{
		APIKey:       getEnvString("HTTP_API_KEY", ""),
		PreviousKeys: getEnvList("HTTP_API_KEYS_PREVIOUS", nil),
	}
}

func readRateLimitConfig() HTTPRateLimitConfig {
	return HTTPRateLimitConfig{
		RequestsPerMinute:       getEnvNonNegativeInt("HTTP_RATE_LIMIT_RPM", 0),
		DivineRequestsPerMinute: getEnvNonNegativeInt("HTTP_RATE_LIMIT_DIVINE_RPM", 0),
		CacheSize:               max(1, getEnvNonNegativeInt("HTTP_RATE_LIMIT_CACHE_SIZE", 10000)),
		CacheTTLSeconds:         max(1, getEnvNonNegativeInt("HTTP_RATE_LIMIT_CACHE_TTL_SECONDS", 120)),
	}
}

func readDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Enabled:                              getEnvBool("DB_ENABLED", false),
		Driver:                               strings.ToLower(getEnvString("DB_DRIVER", "postgres")),
		Host:                                 getEnvString("DB_HOST", "localhost"),
		Port:                                 getEnvInt("DB_PORT", 5432),
		Name:                                 getEnvString("DB_NAME", "fortune"),
		User:                                 getEnvString("DB_USER", "fortune"),
		Password:                             getEnvString("DB_PASSWORD", ""),
		SSLMode:                              getEnvString("DB_SSLMODE", ""),
		Path:                                 getEnvString("DB_PATH", "fortune.db"),
		MinPool:                              getEnvInt("DB_MIN_POOL", 1),
		MaxPool:                              getEnvInt("DB_MAX_POOL", 5),
		ConnMaxLifetimeMinutes:               getEnvNonNegativeInt("DB_CONN_MAX_LIFETIME_MINUTES", 60),
		ConnMaxIdleTimeMinutes:               getEnvNonNegativeInt("DB_CONN_MAX_IDLE_TIME_MINUTES", 10),
		UsageBatchEnabled:                    getEnvBool("DB_USAGE_BATCH_ENABLED", false),
		UsageBatchFlushIntervalSeconds:       max(1, getEnvNonNegativeInt("DB_USAGE_BATCH_FLUSH_INTERVAL_SECONDS", 1)),
		UsageBatchFlushTimeoutSeconds:        getEnvNonNegativeInt("DB_USAGE_BATCH_FLUSH_TIMEOUT_SECONDS", 5),
		UsageBatchMaxPendingRequests:         max(1, getEnvNonNegativeInt("DB_USAGE_BATCH_MAX_PENDING_REQUESTS", 50)),
		UsageBatchMaxBackoffSeconds:          getEnvNonNegativeInt("DB_USAGE_BATCH_MAX_BACKOFF_SECONDS", 30),
		UsageBatchErrorLogMaxIntervalSeconds: getEnvNonNegativeInt("DB_USAGE_BATCH_ERROR_LOG_MAX_INTERVAL_SECONDS", 60),
		HistoryRetentionDays:                 getEnvNonNegativeInt("DB_HISTORY_RETENTION_DAYS", 90),
	}
}

// readTelemetryConfig: OpenTelemetry 설정을 환경 변수에서 읽습니다.
func readTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:        getEnvBool("OTEL_ENABLED", false),
		ServiceName:    getEnvString("OTEL_SERVICE_NAME", "fortune-server"),
		ServiceVersion: getEnvString("OTEL_SERVICE_VERSION", "1.0.0"),
		Environment:    getEnvString("OTEL_ENVIRONMENT", "production"),
		OTLPEndpoint:   getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "jaeger:4317"),
		OTLPInsecure:   getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		SampleRate:     getEnvFloat("OTEL_SAMPLE_RATE", 1.0),
	}
}

func splitList(value string) []string {
	items := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func getEnvList(key string, def []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return append([]string(nil), def...)
	}
	items := splitList(value)
	if len(items) == 0 {
		return append([]string(nil), def...)
	}
	return items
}

func getEnvString(key string, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func getEnvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getEnvNonNegativeInt(key string, def int) int {
	value := getEnvInt(key, def)
	if value < 0 {
		return 0
	}
	return value
}

func getEnvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getEnvBool(key string, def bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	value = strings.ToLower(value)
	return value == "true" || value == "1" || value == "yes" || value == "y"
}

func maskSecret(value string) string {
	if value == "" {
		return "<missing>"
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return value[:2] + "***" + value[len(value)-2:]
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

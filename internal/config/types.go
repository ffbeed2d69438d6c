package config

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// 기본 외부 엔드포인트 값입니다. API 키는 환경 변수로만 주입합니다.
const (
	DefaultOracleBaseURL    = "https://open.bigmodel.cn/api/paas/v4"
	DefaultOracleTextModel  = "glm-4-flash"
	DefaultOracleImageModel = "cogview-3"
)

// DefaultFallbackImages: 이미지 생성 실패 시 사용할 수묵화 스톡 이미지입니다.
var DefaultFallbackImages = []string{
	"https://images.unsplash.com/photo-1518176593590-b1480f76903f?q=80&w=1600&auto=format&fit=crop",
	"https://images.unsplash.com/photo-1505672675380-ea1fa66804bd?q=80&w=1600&auto=format&fit=crop",
	"https://images.unsplash.com/photo-1627555191986-e3d1796191c9?q=80&w=1600&auto=format&fit=crop",
	"https://images.unsplash.com/photo-1542642833-2a549929252a?q=80&w=1600&auto=format&fit=crop",
	"https://images.unsplash.com/photo-1464822759023-fed622ff2c3b?q=80&w=1600&auto=format&fit=crop",
}

// OracleConfig: 점괘 LLM 호출 설정입니다.
type OracleConfig struct {
	Provider            string
	BaseURL             string
	APIKey              string
	TextModel           string
	ImageModel          string
	Temperature         float64
	TopP                float64
	MaxTokens           int
	TextTimeoutSeconds  int
	ImageTimeoutSeconds int
	ImageEnabled        bool
	ImageWorkers        int
	ImageQueueSize      int
	RateLimitRPS        float64
	RateLimitBurst      int
	FallbackImages      []string
}

// TextTimeout: 텍스트 호출 제한 시간을 반환합니다.
func (o OracleConfig) TextTimeout() time.Duration {
	return secondsOr(o.TextTimeoutSeconds, 60)
}

// ImageTimeout: 이미지 호출 제한 시간을 반환합니다.
func (o OracleConfig) ImageTimeout() time.Duration {
	return secondsOr(o.ImageTimeoutSeconds, 90)
}

// IsGemini: Gemini 백엔드 사용 여부를 반환합니다.
func (o OracleConfig) IsGemini() bool {
	return strings.EqualFold(strings.TrimSpace(o.Provider), "gemini")
}

// GeminiConfig: Gemini 백엔드 설정입니다.
type GeminiConfig struct {
	APIKey     string
	TextModel  string
	ImageModel string
}

// StoreConfig: 점괘 결과 저장소 설정입니다.
type StoreConfig struct {
	URL                 string
	TTLSeconds          int
	CompressThreshold   int
	ConnectMaxAttempts  int
	ConnectRetrySeconds int
}

// TTL: 결과 보관 기간을 반환합니다.
func (s StoreConfig) TTL() time.Duration {
	return secondsOr(s.TTLSeconds, 86400)
}

// GuardConfig: 입력 검증 설정입니다.
type GuardConfig struct {
	Enabled         bool
	Threshold       float64
	RulepacksDir    string
	MaxInputRunes   int
	CacheMaxSize    int
	CacheTTLSeconds int
}

// LoggingConfig: 로깅 설정입니다.
type LoggingConfig struct {
	Level      string
	LogDir     string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// HTTPConfig: HTTP 서버 설정입니다.
type HTTPConfig struct {
	Host         string
	Port         int
	HTTP2Enabled bool
	CORSOrigins  []string
}

// HTTPAuthConfig: API 키 인증 설정입니다.
// PreviousKeys 는 키 교체 중에 잠시 함께 허용하는 이전 키 목록입니다.
type HTTPAuthConfig struct {
	APIKey       string
	PreviousKeys []string
}

// AcceptedKeys 는 공백을 걷어낸 허용 키 목록을 돌려준다. 현재 키가 비어 있으면 인증을 끈 것으로 보고 nil 을 돌려준다.
func (c HTTPAuthConfig) AcceptedKeys() []string {
	current := strings.TrimSpace(c.APIKey)
	if current == "" {
		return nil
	}
	keys := []string{current}
	for _, key := range c.PreviousKeys {
		if key = strings.TrimSpace(key); key != "" && key != current {
			keys = append(keys, key)
		}
	}
	return keys
}

// HTTPRateLimitConfig: 요청 제한 설정입니다.
// DivineRequestsPerMinute 는 점괘 생성(POST /api/fortune) 전용 한도이며, 0 이면 RequestsPerMinute 를 따릅니다.
type HTTPRateLimitConfig struct {
	RequestsPerMinute       int
	DivineRequestsPerMinute int
	CacheSize               int
	CacheTTLSeconds         int
}

// DatabaseConfig: DB 연결 및 저장 설정입니다.
type DatabaseConfig struct {
	Enabled                              bool
	Driver                               string
	Host                                 string
	Port                                 int
	Name                                 string
	User                                 string
	Password                             string
	SSLMode                              string
	Path                                 string
	MinPool                              int
	MaxPool                              int
	ConnMaxLifetimeMinutes               int
	ConnMaxIdleTimeMinutes               int
	UsageBatchEnabled                    bool
	UsageBatchFlushIntervalSeconds       int
	UsageBatchFlushTimeoutSeconds        int
	UsageBatchMaxPendingRequests         int
	UsageBatchMaxBackoffSeconds          int
	UsageBatchErrorLogMaxIntervalSeconds int
	HistoryRetentionDays                 int
}

// IsSQLite: 로컬 SQLite 드라이버 사용 여부를 반환합니다.
func (d DatabaseConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(d.Driver), "sqlite")
}

// DSN: DB 접속 문자열을 반환합니다.
func (d DatabaseConfig) DSN() string {
	if d.IsSQLite() {
		return d.Path
	}
	host := net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	u := &url.URL{
		Scheme: "postgresql",
		Host:   host,
		Path:   "/" + d.Name,
	}
	if d.Password == "" {
		u.User = url.User(d.User)
	} else {
		u.User = url.UserPassword(d.User, d.Password)
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{d.SSLMode}}.Encode()
	}
	return u.String()
}

// TelemetryConfig: OpenTelemetry 설정입니다.
type TelemetryConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	OTLPInsecure   bool
	SampleRate     float64
}

// Config: 애플리케이션 전체 설정입니다.
type Config struct {
	Oracle        OracleConfig
	Gemini        GeminiConfig
	Store         StoreConfig
	Guard         GuardConfig
	Logging       LoggingConfig
	HTTP          HTTPConfig
	HTTPAuth      HTTPAuthConfig
	HTTPRateLimit HTTPRateLimitConfig
	Database      DatabaseConfig
	Telemetry     TelemetryConfig
}

// ActiveAPIKey: 선택된 백엔드의 API 키를 반환합니다.
func (c *Config) ActiveAPIKey() string {
	if c.Oracle.IsGemini() {
		return c.Gemini.APIKey
	}
	return c.Oracle.APIKey
}

// ActiveModels: 선택된 백엔드의 텍스트/이미지 모델 이름을 반환합니다.
func (c *Config) ActiveModels() (text string, image string) {
	if c.Oracle.IsGemini() {
		return c.Gemini.TextModel, c.Gemini.ImageModel
	}
	return c.Oracle.TextModel, c.Oracle.ImageModel
}

func secondsOr(value int, def int) time.Duration {
	if value <= 0 {
		value = def
	}
	return time.Duration(value) * time.Second
}

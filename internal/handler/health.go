package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/health"
)

// OracleConfigResponse: 점괘 모델 설정 응답입니다. API 키 값은 노출하지 않습니다.
type OracleConfigResponse struct {
	Provider            string  `json:"provider"`
	BaseURL             string  `json:"base_url"`
	TextModel           string  `json:"text_model"`
	ImageModel          string  `json:"image_model"`
	ImageEnabled        bool    `json:"image_enabled"`
	Temperature         float64 `json:"temperature"`
	TextTimeoutSeconds  int     `json:"text_timeout_seconds"`
	ImageTimeoutSeconds int     `json:"image_timeout_seconds"`
	APIKeyPresent       bool    `json:"api_key_present"`
	HTTP2Enabled        bool    `json:"http2_enabled"`
	TransportMode       string  `json:"transport_mode"`
}

// HealthHandler: 상태 확인 핸들러입니다.
type HealthHandler struct {
	cfg      *config.Config
	sources  health.Sources
	gatherer prometheus.Gatherer
}

// NewHealthHandler: 상태 확인 핸들러를 생성합니다. gatherer 가 nil 이면 기본 레지스트리를 씁니다.
func NewHealthHandler(cfg *config.Config, sources health.Sources, gatherer prometheus.Gatherer) *HealthHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &HealthHandler{cfg: cfg, sources: sources, gatherer: gatherer}
}

// RegisterRoutes: 상태 확인 라우트를 등록합니다.
func (h *HealthHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", func(c *gin.Context) {
		// liveness 는 외부 의존성에 접속하지 않는다.
		c.JSON(http.StatusOK, health.Collect(c.Request.Context(), h.cfg, h.sources, false))
	})

	router.GET("/health/ready", func(c *gin.Context) {
		payload := health.Collect(c.Request.Context(), h.cfg, h.sources, true)
		status := http.StatusOK
		if payload.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, payload)
	})

	router.GET("/health/oracle", h.handleOracle)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
}

func (h *HealthHandler) handleOracle(c *gin.Context) {
	oracle := h.cfg.Oracle
	textModel, imageModel := h.cfg.ActiveModels()
	provider := "openai"
	if oracle.IsGemini() {
		provider = "gemini"
	}
	transportMode := "h1"
	if h.cfg.HTTP.HTTP2Enabled {
		transportMode = "h2c"
	}

	c.JSON(http.StatusOK, OracleConfigResponse{
		Provider:            provider,
		BaseURL:             oracle.BaseURL,
		TextModel:           textModel,
		ImageModel:          imageModel,
		ImageEnabled:        oracle.ImageEnabled,
		Temperature:         oracle.Temperature,
		TextTimeoutSeconds:  int(oracle.TextTimeout().Seconds()),
		ImageTimeoutSeconds: int(oracle.ImageTimeout().Seconds()),
		APIKeyPresent:       h.cfg.ActiveAPIKey() != "",
		HTTP2Enabled:        h.cfg.HTTP.HTTP2Enabled,
		TransportMode:       transportMode,
	})
}

package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/health"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/metrics"
)

type stubResults struct{ err error }

func (s stubResults) Ping(context.Context) error { return s.err }
func (s stubResults) Backend() string { return "memory" }

func newHealthRouter(cfg *config.Config) (*gin.Engine, *metrics.Store) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	store := metrics.NewStore(reg)
	router := gin.New()
	NewHealthHandler(cfg, health.Sources{Results: stubResults{}, Fallbacks: store}, reg).RegisterRoutes(router)
	return router, store
}

func TestHealthRoutes(t *testing.T) {
	cfg := &config.Config{
		Oracle: config.OracleConfig{Provider: "openai", TextModel: "glm-4-flash", ImageModel: "cogview-3"},
		HTTP:   config.HTTPConfig{HTTP2Enabled: true},
	}
	router, _ := newHealthRouter(cfg)

	if resp := serve(router, http.MethodGet, "/health", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness, got %d", resp.Code)
	}
	if resp := serve(router, http.MethodGet, "/health/ready", ""); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without api key, got %d", resp.Code)
	}

	resp := serve(router, http.MethodGet, "/health/oracle", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload OracleConfigResponse
	decodeBody(t, resp, &payload)
	if payload.TextModel != "glm-4-flash" || payload.Provider != "openai" || payload.APIKeyPresent {
		t.Fatalf("unexpected oracle payload: %+v", payload)
	}
	if payload.TransportMode != "h2c" || payload.TextTimeoutSeconds != 60 {
		t.Fatalf("unexpected transport/timeout: %+v", payload)
	}
}

func TestHealthReadyWithKey(t *testing.T) {
	cfg := &config.Config{Oracle: config.OracleConfig{Provider: "gemini"}, Gemini: config.GeminiConfig{APIKey: "k", TextModel: "gemini-2.5-flash"}}
	router, _ := newHealthRouter(cfg)
	if resp := serve(router, http.MethodGet, "/health/ready", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.Code, resp.Body.String())
	}
}

func TestMetricsRouteUsesRegistry(t *testing.T) {
	router, store := newHealthRouter(&config.Config{})
	store.RecordImage(metrics.ImageStock)

	resp := serve(router, http.MethodGet, "/metrics", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "stock") {
		t.Fatalf("expected image outcome in metrics output")
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
)

func newAuthRouter(apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(APIKeyAuth(config.HTTPAuthConfig{APIKey: apiKey}))
	router.GET("/api/fortune/fallback", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.OPTIONS("/api/fortune", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestAPIKeyAuth(t *testing.T) {
	router := newAuthRouter("secret")

	tests := []struct {
		name   string
		method string
		path   string
		header map[string]string
		want   int
	}{
		{"missing key", http.MethodGet, "/api/fortune/fallback", nil, http.StatusUnauthorized},
		{"wrong key", http.MethodGet, "/api/fortune/fallback", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header key", http.MethodGet, "/api/fortune/fallback", map[string]string{"X-API-Key": "secret"}, http.StatusOK},
		{"bearer key", http.MethodGet, "/api/fortune/fallback", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
		{"preflight", http.MethodOptions, "/api/fortune", nil, http.StatusNoContent},
		{"health", http.MethodGet, "/health", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			for key, value := range tt.header {
				req.Header.Set(key, value)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)
			if resp.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.Code)
			}
		})
	}
}

func TestAPIKeyAuthDisabled(t *testing.T) {
	router := newAuthRouter("  ")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/fortune/fallback", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected ok without configured key, got %d", resp.Code)
	}
}

func TestAPIKeyAuthAcceptsPreviousKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(APIKeyAuth(config.HTTPAuthConfig{APIKey: "new-key", PreviousKeys: []string{" old-key ", ""}}))
	router.GET("/api/fortune/fallback", func(c *gin.Context) { c.Status(http.StatusOK) })

	for key, want := range map[string]int{"new-key": http.StatusOK, "old-key": http.StatusOK, "other": http.StatusUnauthorized} {
		req := httptest.NewRequest(http.MethodGet, "/api/fortune/fallback", nil)
		req.Header.Set("Authorization", "Bearer "+key)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != want {
			t.Fatalf("key %q: expected %d, got %d", key, want, resp.Code)
		}
	}
}

func TestAcceptedKeysWithoutCurrentKey(t *testing.T) {
	cfg := config.HTTPAuthConfig{PreviousKeys: []string{"old-key"}}
	if keys := cfg.AcceptedKeys(); keys != nil {
		t.Fatalf("expected auth disabled, got %v", keys)
	}
}

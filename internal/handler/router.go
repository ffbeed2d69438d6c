package handler

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/middleware"
)

// RouteRegistrar 는 라우트를 등록하는 핸들러다.
type RouteRegistrar interface {
	RegisterRoutes(router gin.IRouter)
}

// NewRouter 는 HTTP 라우터를 구성한다. nil 핸들러는 건너뛴다.
func NewRouter(cfg *config.Config, logger *slog.Logger, handlers ...RouteRegistrar) *gin.Engine {
	setGinMode(cfg.Logging.Level)

	router := gin.New()
	if cfg.Telemetry.Enabled {
		serviceName := cfg.Telemetry.ServiceName
		if serviceName == "" {
			serviceName = "fortune-server"
		}
		router.Use(otelgin.Middleware(serviceName))
	}

	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		gin.Recovery(),
		cors.New(newCORSConfig(cfg.HTTP.CORSOrigins)),
		newGzipMiddleware(),
		middleware.APIKeyAuth(cfg.HTTPAuth),
		middleware.RateLimit(cfg.HTTPRateLimit),
	)

	for _, h := range handlers {
		if h == nil {
			continue
		}
		h.RegisterRoutes(router)
	}

	return router
}

func newCORSConfig(origins []string) cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-API-Key", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader, "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour

	cleaned := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin = strings.TrimSpace(origin); origin != "" {
			cleaned = append(cleaned, origin)
		}
	}
	if len(cleaned) == 0 || slices.Contains(cleaned, "*") {
		corsConfig.AllowAllOrigins = true
		return corsConfig
	}
	corsConfig.AllowOrigins = cleaned
	return corsConfig
}

func newGzipMiddleware() gin.HandlerFunc {
	return gzip.Gzip(gzip.DefaultCompression, gzip.WithCustomShouldCompressFn(func(c *gin.Context) bool {
		// 헬스 체크와 메트릭 폴링은 압축하지 않는다.
		path := c.Request.URL.Path
		return !strings.HasPrefix(path, "/health") && path != "/metrics"
	}))
}

func setGinMode(level string) {
	if strings.EqualFold(strings.TrimSpace(level), "debug") {
		gin.SetMode(gin.DebugMode)
		return
	}
	gin.SetMode(gin.ReleaseMode)
}

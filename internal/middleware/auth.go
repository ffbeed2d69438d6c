package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/httperror"
)

const bearerPrefix = "bearer "

// APIKeyAuth 는 /api 경로에 API 키 인증을 적용한다.
// 현재 키와 교체 중인 이전 키를 모두 받는다. 허용 키가 없으면 인증을 하지 않는다.
func APIKeyAuth(cfg config.HTTPAuthConfig) gin.HandlerFunc {
	accepted := make([][]byte, 0, len(cfg.PreviousKeys)+1)
	for _, key := range cfg.AcceptedKeys() {
		accepted = append(accepted, []byte(key))
	}

	return func(c *gin.Context) {
		if len(accepted) == 0 || c.Request.Method == http.MethodOptions || !shouldProtectPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		provided := extractAPIKey(c)
		if provided == "" || !matchesAnyKey([]byte(provided), accepted) {
			details := map[string]any{"path": c.Request.URL.Path}
			if provided == "" {
				details["reason"] = "missing"
			} else {
				details["reason"] = "mismatch"
			}
			status, payload := httperror.Response(httperror.NewUnauthorized(details), GetRequestID(c))
			c.AbortWithStatusJSON(status, payload)
			return
		}

		c.Next()
	}
}

// matchesAnyKey 는 모든 후보와 비교를 끝까지 수행한다.
func matchesAnyKey(provided []byte, accepted [][]byte) bool {
	matched := 0
	for _, key := range accepted {
		matched |= subtle.ConstantTimeCompare(provided, key)
	}
	return matched == 1
}

// extractAPIKey 는 X-API-Key 를 먼저 보고, 없으면 Authorization: Bearer 토큰을 쓴다.
func extractAPIKey(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if value := strings.TrimSpace(c.GetHeader("X-API-Key")); value != "" {
		return value
	}

	authValue := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(authValue) > len(bearerPrefix) && strings.EqualFold(authValue[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(authValue[len(bearerPrefix):])
	}
	return ""
}

// shouldProtectPath: 점괘 API 경로만 보호합니다. /health 와 /metrics 는 열어 둡니다.
func shouldProtectPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/cache"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/httperror"
)

const rateWindow = time.Minute

// 요청 제한 버킷. 점괘 생성과 그 외 API 는 따로 센다.
const (
	bucketDivine = "divine"
	bucketAPI    = "api"
)

// RateLimit 는 호출자별 분당 요청 수를 제한한다.
// 카운터는 (버킷, 호출자, 1분 창) 단위로 TTL 캐시에 보관한다.
// 응답에는 X-RateLimit-Limit/Remaining 을, 초과 시 Retry-After 를 싣는다.
func RateLimit(cfg config.HTTPRateLimitConfig) gin.HandlerFunc {
	limits := map[string]int{
		bucketAPI:    cfg.RequestsPerMinute,
		bucketDivine: cfg.DivineRequestsPerMinute,
	}
	if limits[bucketDivine] <= 0 {
		limits[bucketDivine] = cfg.RequestsPerMinute
	}
	counter := cache.NewTTLCache[string, int](cfg.CacheSize, max(time.Duration(cfg.CacheTTLSeconds)*time.Second, rateWindow))

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || !shouldProtectPath(c.Request.URL.Path) {
			c.Next()
			return
		}
		bucket := rateBucket(c.Request)
		limit := limits[bucket]
		if limit <= 0 {
			c.Next()
			return
		}

		now := time.Now()
		window := now.Truncate(rateWindow)
		identity := rateLimitIdentity(c)
		key := bucket + ":" + identity + ":" + strconv.FormatInt(window.Unix(), 10)
		count := counter.Modify(key, func(current int, _ bool) int { return current + 1 })

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(limit-count, 0)))
		if count <= limit {
			c.Next()
			return
		}

		retryAfter := int(window.Add(rateWindow).Sub(now).Seconds()) + 1
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		details := map[string]any{
			"bucket":           bucket,
			"identity":         identity,
			"limit_per_minute": limit,
		}
		status, payload := httperror.Response(httperror.NewRateLimitExceeded(details), GetRequestID(c))
		c.AbortWithStatusJSON(status, payload)
	}
}

func rateBucket(r *http.Request) string {
	if r.Method == http.MethodPost && strings.TrimSuffix(r.URL.Path, "/") == "/api/fortune" {
		return bucketDivine
	}
	return bucketAPI
}

// rateLimitIdentity 는 API 키 해시를 우선하고, 없으면 첫 X-Forwarded-For 주소나 접속 IP 를 쓴다.
func rateLimitIdentity(c *gin.Context) string {
	if key := extractAPIKey(c); key != "" {
		return "key:" + hashKey(key)
	}
	if forwarded, _, _ := strings.Cut(c.GetHeader("X-Forwarded-For"), ","); strings.TrimSpace(forwarded) != "" {
		return "ip:" + strings.TrimSpace(forwarded)
	}
	if ip := c.ClientIP(); ip != "" {
		return "ip:" + ip
	}
	return "ip:unknown"
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:8])
}

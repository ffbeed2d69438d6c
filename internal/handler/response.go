package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	fortunedomain "github.com/park285/llm-kakao-bots/fortune-server-go/internal/domain/fortune"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/handler/shared"
)

// 점괘 응답 헤더.
const (
	headerFortuneID     = "X-Fortune-ID"
	headerFortuneSource = "X-Fortune-Source"
)

// hexagramCacheControl: 괘 해석 응답의 캐시 정책입니다.
const hexagramCacheControl = "public, max-age=86400"

func writeJSON(c *gin.Context, status int, payload any) {
	shared.WriteJSON(c, status, payload)
}

// writeResult 는 점괘 결과를 캐시 금지 헤더와 함께 쓴다.
func writeResult(c *gin.Context, result fortunedomain.Result) {
	c.Header("Cache-Control", "no-store")
	c.Header(headerFortuneSource, string(result.Source))
	if result.ID != "" {
		c.Header(headerFortuneID, result.ID)
	}
	shared.WriteJSON(c, http.StatusOK, result)
}

func writeHexagram(c *gin.Context, hexagram fortunedomain.Hexagram) {
	c.Header("Cache-Control", hexagramCacheControl)
	shared.WriteJSON(c, http.StatusOK, hexagram)
}

func writeError(c *gin.Context, err error) {
	shared.WriteError(c, err)
}

func bindJSON(c *gin.Context, out any) bool {
	return shared.BindJSON(c, out)
}

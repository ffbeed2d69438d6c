// Package shared 는 HTTP 핸들러 공통 응답/바인딩 도우미다.
package shared

import (
	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/httperror"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/middleware"
)

const jsonContentType = "application/json; charset=utf-8"

// WriteJSON 은 HTML 이스케이프 없이 JSON 응답을 작성한다.
func WriteJSON(c *gin.Context, status int, payload any) {
	if c == nil {
		return
	}
	body, err := marshalNoEscapeHTML(payload)
	if err != nil {
		WriteError(c, httperror.NewInternalError("Failed to encode response"))
		return
	}
	c.Data(status, jsonContentType, body)
}

// WriteError 는 에러 응답을 작성한다.
func WriteError(c *gin.Context, err error) {
	if c == nil {
		return
	}
	status, payload := httperror.Response(err, middleware.GetRequestID(c))
	c.JSON(status, payload)
}

// BindJSON 는 요청 본문을 파싱하고 binding 태그로 검증한다. 실패하면 422 를 쓰고 false 를 반환한다.
func BindJSON(c *gin.Context, out any) bool {
	if c == nil {
		return false
	}
	if err := c.ShouldBindJSON(out); err != nil {
		WriteError(c, httperror.NewValidationError(err))
		return false
	}
	return true
}

package shared

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/httperror"
)

// LogError 는 응답으로 나갈 오류를 기록한다.
// 매핑된 상태가 5xx 이면 error, 그 외(404, 503 기능 꺼짐 등)는 warn 레벨로 남긴다.
// 요청 ID는 요청 컨텍스트에서 로거가 붙인다.
func LogError(c *gin.Context, logger *slog.Logger, event string, err error) {
	if logger == nil || err == nil {
		return
	}
	apiErr := httperror.FromError(err)
	level := slog.LevelWarn
	if apiErr.Status >= http.StatusInternalServerError && apiErr.Code != httperror.ErrorCodeFeatureDisabled {
		level = slog.LevelError
	}
	logger.Log(c.Request.Context(), level, event,
		"path", c.FullPath(),
		"status", apiErr.Status,
		"error_code", apiErr.Code,
		"err", err,
	)
}

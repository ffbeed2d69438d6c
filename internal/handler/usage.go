package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/handler/shared"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/httperror"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/usage"
)

const usageDateLayout = "2006-01-02"

// DailyUsageResponse: 일자별 사용량 응답입니다.
type DailyUsageResponse struct {
	UsageDate       string `json:"usage_date"`
	InputTokens     int64  `json:"input_tokens"`
	OutputTokens    int64  `json:"output_tokens"`
	TotalTokens     int64  `json:"total_tokens"`
	ReasoningTokens int64  `json:"reasoning_tokens"`
	RequestCount    int64  `json:"request_count"`
	FallbackCount   int64  `json:"fallback_count"`
	Model           string `json:"model"`
}

// UsageListResponse: 사용량 목록 응답입니다.
type UsageListResponse struct {
	Usages             []DailyUsageResponse `json:"usages"`
	TotalInputTokens   int64                `json:"total_input_tokens"`
	TotalOutputTokens  int64                `json:"total_output_tokens"`
	TotalTokens        int64                `json:"total_tokens"`
	TotalRequestCount  int64                `json:"total_request_count"`
	TotalFallbackCount int64                `json:"total_fallback_count"`
	Model              string               `json:"model"`
}

// UsageHandler: 사용량 API 핸들러입니다.
type UsageHandler struct {
	model  string
	store  usage.Store
	logger *slog.Logger
}

// NewUsageHandler: 사용량 핸들러를 생성합니다. model 은 응답 표시용 텍스트 모델 이름입니다.
func NewUsageHandler(model string, store usage.Store, logger *slog.Logger) *UsageHandler {
	return &UsageHandler{
		model:  model,
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes: 사용량 라우트를 등록합니다.
func (h *UsageHandler) RegisterRoutes(router gin.IRouter) {
	group := router.Group("/api/usage")
	group.GET("/daily", h.handleDaily)
	group.GET("/recent", h.handleRecent)
	group.GET("/total", h.handleTotal)
}

func (h *UsageHandler) handleDaily(c *gin.Context) {
	var day time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(usageDateLayout, raw)
		if err != nil {
			writeError(c, httperror.NewInvalidParam("date", "date must be YYYY-MM-DD"))
			return
		}
		day = parsed
	}

	row, err := h.store.GetDailyUsage(c.Request.Context(), day)
	if err != nil {
		shared.LogError(c, h.logger, "usage_request_failed", err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.buildDailyResponse(row, day))
}

func (h *UsageHandler) handleRecent(c *gin.Context) {
	days, ok := parseDays(c, 7)
	if !ok {
		return
	}

	rows, err := h.store.GetRecentUsage(c.Request.Context(), days)
	if err != nil {
		shared.LogError(c, h.logger, "usage_request_failed", err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.buildUsageListResponse(rows))
}

func (h *UsageHandler) handleTotal(c *gin.Context) {
	days, ok := parseDays(c, 30)
	if !ok {
		return
	}

	row, err := h.store.GetTotalUsage(c.Request.Context(), days)
	if err != nil {
		shared.LogError(c, h.logger, "usage_request_failed", err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.toResponse(row))
}

func (h *UsageHandler) buildDailyResponse(row *usage.DailyUsage, day time.Time) DailyUsageResponse {
	if row == nil {
		if day.IsZero() {
			day = time.Now()
		}
		return DailyUsageResponse{UsageDate: day.Format(usageDateLayout), Model: h.model}
	}
	return h.toResponse(*row)
}

func (h *UsageHandler) buildUsageListResponse(rows []usage.DailyUsage) UsageListResponse {
	response := UsageListResponse{
		Usages: make([]DailyUsageResponse, 0, len(rows)),
		Model:  h.model,
	}

	for _, row := range rows {
		response.Usages = append(response.Usages, h.toResponse(row))
		response.TotalInputTokens += row.InputTokens
		response.TotalOutputTokens += row.OutputTokens
		response.TotalTokens += row.TotalTokens()
		response.TotalRequestCount += row.RequestCount
		response.TotalFallbackCount += row.FallbackCount
	}

	return response
}

func (h *UsageHandler) toResponse(row usage.DailyUsage) DailyUsageResponse {
	return DailyUsageResponse{
		UsageDate:       row.UsageDate.Format(usageDateLayout),
		InputTokens:     row.InputTokens,
		OutputTokens:    row.OutputTokens,
		TotalTokens:     row.TotalTokens(),
		ReasoningTokens: row.ReasoningTokens,
		RequestCount:    row.RequestCount,
		FallbackCount:   row.FallbackCount,
		Model:           h.model,
	}
}

func parseDays(c *gin.Context, defaultDays int) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return defaultDays, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 || parsed > 366 {
		writeError(c, httperror.NewInvalidParam("days", "days must be between 1 and 366"))
		return 0, false
	}
	return parsed, true
}

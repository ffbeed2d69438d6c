package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/guard"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/httperror"
)

// GuardRequest 는 점괘 요청과 같은 자유 입력 필드를 미리 검사하는 요청이다.
type GuardRequest struct {
	Name         string `json:"name"`
	Intent       string `json:"intent"`
	DreamContent string `json:"dreamContent"`
}

func (r GuardRequest) fields() []guard.Field {
	return []guard.Field{
		{Name: "name", Value: r.Name},
		{Name: "intent", Value: r.Intent},
		{Name: "dreamContent", Value: r.DreamContent},
	}
}

// GuardFieldResult 는 필드 하나의 평가 결과다.
type GuardFieldResult struct {
	Field     string        `json:"field"`
	Score     float64       `json:"score"`
	Malicious bool          `json:"malicious"`
	Hits      []guard.Match `json:"hits"`
	Cleaned   string        `json:"cleaned"`
}

// GuardResponse 는 가드 평가 응답이다. Malicious 는 필드 중 하나라도 막히면 true 다.
type GuardResponse struct {
	Malicious bool               `json:"malicious"`
	Threshold float64            `json:"threshold"`
	Fields    []GuardFieldResult `json:"fields"`
}

// GuardCheckResponse: 막힌 필드가 있으면 그 이름을 함께 돌려줍니다.
type GuardCheckResponse struct {
	Malicious bool   `json:"malicious"`
	Field     string `json:"field,omitempty"`
}

// GuardHandler 는 점괘 입력이 가드를 통과할지 미리 확인하는 API 핸들러다.
type GuardHandler struct {
	guard guard.Guard
}

// NewGuardHandler 는 가드 핸들러를 생성한다.
func NewGuardHandler(g guard.Guard) *GuardHandler {
	return &GuardHandler{guard: g}
}

// RegisterRoutes 는 가드 라우트를 등록한다.
func (h *GuardHandler) RegisterRoutes(router gin.IRouter) {
	group := router.Group("/api/guard")
	group.POST("/evaluations", h.handleEvaluate)
	group.POST("/checks", h.handleCheck)
}

func (h *GuardHandler) handleEvaluate(c *gin.Context) {
	req, ok := h.bindGuardRequest(c)
	if !ok {
		return
	}

	evaluations := guard.EvaluateFields(h.guard, req.fields())
	resp := GuardResponse{Fields: make([]GuardFieldResult, 0, len(evaluations))}
	for _, evaluation := range evaluations {
		malicious := evaluation.Malicious()
		resp.Malicious = resp.Malicious || malicious
		resp.Threshold = evaluation.Threshold
		resp.Fields = append(resp.Fields, GuardFieldResult{
			Field:     evaluation.Field,
			Score:     evaluation.Score,
			Malicious: malicious,
			Hits:      evaluation.Hits,
			Cleaned:   h.guard.Clean(fieldValue(req, evaluation.Field)),
		})
	}
	writeJSON(c, http.StatusOK, resp)
}

func (h *GuardHandler) handleCheck(c *gin.Context) {
	req, ok := h.bindGuardRequest(c)
	if !ok {
		return
	}

	err := guard.EnsureFieldsSafe(h.guard, req.fields())
	if err == nil {
		writeJSON(c, http.StatusOK, GuardCheckResponse{})
		return
	}
	var blocked *guard.BlockedError
	if !errors.As(err, &blocked) {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, GuardCheckResponse{Malicious: true, Field: blocked.Field})
}

func (h *GuardHandler) bindGuardRequest(c *gin.Context) (GuardRequest, bool) {
	var req GuardRequest
	if !bindJSON(c, &req) {
		return req, false
	}
	if req.Name == "" && req.Intent == "" && req.DreamContent == "" {
		writeError(c, httperror.NewInvalidInput("at least one of name, intent, dreamContent is required"))
		return req, false
	}
	return req, true
}

func fieldValue(req GuardRequest, field string) string {
	for _, f := range req.fields() {
		if f.Name == field {
			return f.Value
		}
	}
	return ""
}

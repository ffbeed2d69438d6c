package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	fortunedomain "github.com/park285/llm-kakao-bots/fortune-server-go/internal/domain/fortune"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/guard"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/handler/shared"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/history"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/httperror"
)

const birthDateLayout = "2006-01-02"

// FortuneService 는 핸들러가 사용하는 점괘 유스케이스 표면이다.
type FortuneService interface {
	Divine(ctx context.Context, profile fortunedomain.Profile) fortunedomain.Result
	Fallback(mode fortunedomain.Mode) fortunedomain.Result
	Get(ctx context.Context, id string) (fortunedomain.Result, error)
	Readings(ctx context.Context, mode fortunedomain.Mode, limit int) ([]history.Summary, error)
}

// InputChecker 는 자유 입력의 인젝션 여부를 검사한다.
type InputChecker interface {
	EnsureSafe(input string) error
}

// FortuneRequest: 점괘 요청 본문입니다.
type FortuneRequest struct {
	Name         string `json:"name" binding:"max=64"`
	Gender       string `json:"gender" binding:"max=16"`
	Age          string `json:"age" binding:"omitempty,numeric,max=3"`
	Zodiac       string `json:"zodiac" binding:"max=16"`
	Intent       string `json:"intent"`
	DreamContent string `json:"dreamContent" binding:"required_if=Mode dream"`
	BirthHour    string `json:"birthHour" binding:"birthhour"`
	BirthDate    string `json:"birthDate" binding:"omitempty,datetime=2006-01-02"`
	Mode         string `json:"mode" binding:"omitempty,oneof=daily ziwei dream"`
}

// ReadingsResponse: 최근 기록 목록 응답입니다.
type ReadingsResponse struct {
	Readings []history.Summary `json:"readings"`
	Count    int               `json:"count"`
}

// FortuneHandler: 점괘 API 핸들러입니다.
type FortuneHandler struct {
	service FortuneService
	checker InputChecker
	logger  *slog.Logger
	now     func() time.Time
}

var registerValidatorsOnce sync.Once

// NewFortuneHandler: 점괘 핸들러를 생성합니다. checker 가 nil 이면 입력 검사를 건너뜁니다.
func NewFortuneHandler(service FortuneService, checker InputChecker, logger *slog.Logger) *FortuneHandler {
	registerValidators()
	if logger == nil {
		logger = slog.Default()
	}
	return &FortuneHandler{
		service: service,
		checker: checker,
		logger:  logger,
		now:     time.Now,
	}
}

func registerValidators() {
	registerValidatorsOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("birthhour", func(fl validator.FieldLevel) bool {
			return fortunedomain.ValidBirthHour(fl.Field().String())
		})
	})
}

// RegisterRoutes: 점괘 라우트를 등록합니다.
func (h *FortuneHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api")
	api.POST("/fortune", h.handleDivine)
	api.GET("/fortune/fallback", h.handleFallback)
	api.GET("/fortune/:id", h.handleGet)
	api.GET("/hexagram/:code", h.handleHexagram)
	api.GET("/readings", h.handleReadings)
}

func (h *FortuneHandler) handleDivine(c *gin.Context) {
	var req FortuneRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.profileFrom(req)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.checkInputs(profile); err != nil {
		h.logger.WarnContext(c.Request.Context(), "fortune_input_blocked", "mode", profile.Mode, "err", err)
		writeError(c, err)
		return
	}

	writeResult(c, h.service.Divine(c.Request.Context(), profile))
}

func (h *FortuneHandler) handleFallback(c *gin.Context) {
	mode := fortunedomain.ModeDaily
	if raw := c.Query("mode"); raw != "" {
		parsed, ok := fortunedomain.ParseMode(raw)
		if !ok {
			writeError(c, httperror.NewInvalidParam("mode", "mode must be one of daily, ziwei, dream"))
			return
		}
		mode = parsed
	}
	writeResult(c, h.service.Fallback(mode))
}

func (h *FortuneHandler) handleGet(c *gin.Context) {
	result, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		shared.LogError(c, h.logger, "fortune_lookup_failed", err)
		writeError(c, err)
		return
	}
	writeResult(c, result)
}

func (h *FortuneHandler) handleHexagram(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" || len(code) > fortunedomain.HexagramLength || strings.Trim(code, "01") != "" {
		writeError(c, httperror.NewInvalidParam("code", "code must be up to 6 characters of 0 and 1"))
		return
	}
	writeHexagram(c, fortunedomain.DecodeHexagram(code))
}

func (h *FortuneHandler) handleReadings(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(c, httperror.NewInvalidParam("limit", "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	var mode fortunedomain.Mode
	if raw := c.Query("mode"); raw != "" {
		parsed, ok := fortunedomain.ParseMode(raw)
		if !ok {
			writeError(c, httperror.NewInvalidParam("mode", "mode must be one of daily, ziwei, dream"))
			return
		}
		mode = parsed
	}

	readings, err := h.service.Readings(c.Request.Context(), mode, limit)
	if err != nil {
		shared.LogError(c, h.logger, "readings_request_failed", err)
		writeError(c, err)
		return
	}
	if readings == nil {
		readings = []history.Summary{}
	}
	writeJSON(c, http.StatusOK, ReadingsResponse{Readings: readings, Count: len(readings)})
}

// profileFrom 은 요청을 프로필로 바꾼다. 생년월일이 있으면 비어 있는 별자리와 나이를 채운다.
func (h *FortuneHandler) profileFrom(req FortuneRequest) (fortunedomain.Profile, error) {
	mode, _ := fortunedomain.ParseMode(req.Mode)
	profile := fortunedomain.Profile{
		Name:         strings.TrimSpace(req.Name),
		Gender:       strings.TrimSpace(req.Gender),
		Age:          strings.TrimSpace(req.Age),
		Zodiac:       strings.TrimSpace(req.Zodiac),
		Intent:       req.Intent,
		DreamContent: req.DreamContent,
		BirthHour:    strings.TrimSpace(req.BirthHour),
		Mode:         mode,
	}
	if profile.BirthHour == "" {
		profile.BirthHour = fortunedomain.BirthHourUnknown
	}

	if req.BirthDate == "" {
		return profile, nil
	}
	birth, err := time.Parse(birthDateLayout, req.BirthDate)
	if err != nil {
		return fortunedomain.Profile{}, httperror.NewInvalidInput("birthDate must be YYYY-MM-DD")
	}
	now := h.now()
	if birth.After(now) {
		return fortunedomain.Profile{}, httperror.NewInvalidInput("birthDate must not be in the future")
	}
	if profile.Zodiac == "" {
		profile.Zodiac = fortunedomain.ZodiacFor(birth)
	}
	if profile.Age == "" {
		profile.Age = strconv.Itoa(fortunedomain.AgeOn(birth, now))
	}
	return profile, nil
}

func (h *FortuneHandler) checkInputs(profile fortunedomain.Profile) error {
	if h.checker == nil {
		return nil
	}
	return guard.EnsureFieldsSafe(h.checker, profileFields(profile))
}

// profileFields: 가드 검사 대상인 자유 입력 필드입니다.
func profileFields(profile fortunedomain.Profile) []guard.Field {
	return []guard.Field{
		{Name: "name", Value: profile.Name},
		{Name: "intent", Value: profile.Intent},
		{Name: "dreamContent", Value: profile.DreamContent},
	}
}

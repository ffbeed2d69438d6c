// Package httperror 는 API 오류 응답 형식과 도메인 오류의 HTTP 매핑을 정의한다.
package httperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/database"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/guard"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/usecase/fortune"
)

// ErrorCode 는 API 오류 코드다.
type ErrorCode string

// API 오류 코드 목록.
const (
	ErrorCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrorCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrorCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrorCodeHTTPRateLimit   ErrorCode = "HTTP_RATE_LIMIT"
	ErrorCodeGuardBlocked    ErrorCode = "GUARD_BLOCKED"
	ErrorCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrorCodeFeatureDisabled ErrorCode = "FEATURE_DISABLED"
	ErrorCodeTimeout         ErrorCode = "TIMEOUT"
)

const internalMessage = "Internal server error"

// ErrorResponse 는 API 오류 응답 본문이다.
type ErrorResponse struct {
	ErrorCode string         `json:"error_code"`
	ErrorType string         `json:"error_type"`
	Message   string         `json:"message"`
	RequestID *string        `json:"request_id"`
	Details   map[string]any `json:"details"`
}

// Error: HTTP 응답으로 바로 옮길 수 있는 오류입니다.
type Error struct {
	Code    ErrorCode
	Status  int
	Type    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code ErrorCode, status int, typ string, message string, details map[string]any) *Error {
	return &Error{Code: code, Status: status, Type: typ, Message: message, Details: details}
}

// 도메인 sentinel 오류와 응답의 대응표. 위에서부터 먼저 맞는 항목을 쓴다.
var sentinels = []struct {
	target error
	build  func() *Error
}{
	{fortune.ErrNotFound, func() *Error { return NewNotFound("Fortune result not found") }},
	{fortune.ErrHistoryDisabled, func() *Error { return NewFeatureDisabled("Reading history is disabled") }},
	{database.ErrDisabled, func() *Error { return NewFeatureDisabled("Database is disabled") }},
	{context.DeadlineExceeded, func() *Error { return NewTimeoutError("Request timed out") }},
}

// Response 는 오류를 상태 코드와 응답 본문으로 바꾼다. requestID 가 비면 null 로 둔다.
func Response(err error, requestID string) (int, ErrorResponse) {
	apiErr := FromError(err)
	if apiErr == nil {
		apiErr = NewInternalError(internalMessage)
	}

	var requestIDPtr *string
	if requestID != "" {
		requestIDPtr = &requestID
	}

	return apiErr.Status, ErrorResponse{
		ErrorCode: string(apiErr.Code),
		ErrorType: apiErr.Type,
		Message:   apiErr.Message,
		RequestID: requestIDPtr,
		Details:   apiErr.Details,
	}
}

// FromError 는 오류를 API 오류로 바꾼다.
// 알 수 없는 오류는 내부 오류가 되며, 원래 메시지는 응답에 싣지 않는다.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var blocked *guard.BlockedError
	if errors.As(err, &blocked) {
		return NewGuardBlocked(blocked)
	}

	for _, entry := range sentinels {
		if errors.Is(err, entry.target) {
			return entry.build()
		}
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return NewValidationError(err)
	}

	return NewInternalError(internalMessage)
}

// NewInternalError 는 내부 오류를 생성한다.
func NewInternalError(message string) *Error {
	return newError(ErrorCodeInternal, http.StatusInternalServerError, "InternalError", message, nil)
}

// NewValidationError 는 요청 본문 검증 오류를 생성한다.
func NewValidationError(err error) *Error {
	return newError(ErrorCodeValidation, http.StatusUnprocessableEntity, "ValidationError",
		"Input validation failed", validationDetails(err))
}

// NewInvalidInput 는 입력 오류를 생성한다.
func NewInvalidInput(message string) *Error {
	return newError(ErrorCodeInvalidInput, http.StatusBadRequest, "InvalidInputError", message, nil)
}

// NewInvalidParam 은 쿼리/경로 파라미터 하나가 잘못된 경우의 입력 오류다.
func NewInvalidParam(param string, message string) *Error {
	return newError(ErrorCodeInvalidInput, http.StatusBadRequest, "InvalidInputError", message,
		map[string]any{"param": param})
}

// NewUnauthorized 는 인증 오류를 생성한다.
func NewUnauthorized(details map[string]any) *Error {
	return newError(ErrorCodeUnauthorized, http.StatusUnauthorized, "UnauthorizedError", "Invalid API key", details)
}

// NewRateLimitExceeded 는 요청 제한 오류를 생성한다.
func NewRateLimitExceeded(details map[string]any) *Error {
	return newError(ErrorCodeHTTPRateLimit, http.StatusTooManyRequests, "HTTPRateLimitExceededError",
		"Rate limit exceeded", details)
}

// NewGuardBlocked 는 가드가 막은 입력 오류를 생성한다. 어느 필드였는지 details 에 싣는다.
func NewGuardBlocked(blocked *guard.BlockedError) *Error {
	details := map[string]any{"score": blocked.Score, "threshold": blocked.Threshold}
	message := "Input blocked by injection guard"
	if blocked.Field != "" {
		details["field"] = blocked.Field
		message = fmt.Sprintf("Field '%s' blocked by injection guard", blocked.Field)
	}
	return newError(ErrorCodeGuardBlocked, http.StatusBadRequest, "GuardBlockedError", message, details)
}

// NewNotFound 는 결과 미존재 오류를 생성한다.
func NewNotFound(message string) *Error {
	return newError(ErrorCodeNotFound, http.StatusNotFound, "NotFoundError", message, nil)
}

// NewFeatureDisabled 는 설정으로 꺼진 기능에 대한 오류다.
func NewFeatureDisabled(message string) *Error {
	return newError(ErrorCodeFeatureDisabled, http.StatusServiceUnavailable, "FeatureDisabledError", message, nil)
}

// NewTimeoutError 는 타임아웃 오류를 생성한다.
func NewTimeoutError(message string) *Error {
	return newError(ErrorCodeTimeout, http.StatusGatewayTimeout, "TimeoutError", message, nil)
}

// FieldError 는 검증에 실패한 필드 하나다.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
	Value any    `json:"value"`
}

// validationDetails 는 validator 오류를 필드별로 풀고, 그 외(JSON 문법 오류 등)는 body 오류 하나로 만든다.
func validationDetails(err error) map[string]any {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return map[string]any{
			"errors":  []FieldError{{Field: "body", Rule: "json"}},
			"message": err.Error(),
		}
	}

	fields := make([]FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, FieldError{
			Field: fe.Field(),
			Rule:  fe.Tag(),
			Param: fe.Param(),
			Value: fe.Value(),
		})
	}
	return map[string]any{"errors": fields}
}

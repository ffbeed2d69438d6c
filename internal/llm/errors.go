package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrEmptyCompletion 은 응답 본문이 비어 있을 때 반환된다.
	ErrEmptyCompletion = errors.New("empty response from oracle")
	// ErrNoImage 는 이미지 응답에 URL 이 없을 때 반환된다.
	ErrNoImage = errors.New("no image returned")
	// ErrMissingAPIKey 는 API 키가 설정되지 않았을 때 반환된다.
	ErrMissingAPIKey = errors.New("missing oracle api key")
)

// StatusError 는 2xx 가 아닌 HTTP 응답이다.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API Error: %d - %s", e.Code, e.Body)
}

// 실패 사유. 로그와 메트릭 라벨로 사용한다.
const (
	ReasonTransport = "transport"
	ReasonStatus    = "status"
	ReasonEmpty     = "empty"
	ReasonExtract   = "extract"
	ReasonUnusable  = "unusable"
	ReasonTimeout   = "timeout"
)

// Reasons 는 모든 실패 사유 목록이다.
var Reasons = []string{ReasonTransport, ReasonStatus, ReasonEmpty, ReasonExtract, ReasonUnusable, ReasonTimeout}

// Classify 는 백엔드 호출 오류를 실패 사유로 분류한다.
// extract/unusable 은 호출 이후 단계에서 정해지므로 여기서 반환하지 않는다.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var statusErr *StatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.As(err, &statusErr):
		return ReasonStatus
	case errors.Is(err, ErrEmptyCompletion), errors.Is(err, ErrNoImage):
		return ReasonEmpty
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	return ReasonTransport
}

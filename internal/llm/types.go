// Package llm 은 외부 점괘/이미지 모델 호출에 쓰는 공통 타입과 오류 분류를 정의한다.
package llm

import "context"

// Usage: 토큰 사용량 정보를 담습니다.
type Usage struct {
	InputTokens     int `json:"input_tokens"`
	OutputTokens    int `json:"output_tokens"`
	TotalTokens     int `json:"total_tokens"`
	ReasoningTokens int `json:"reasoning_tokens"`
	CachedTokens    int `json:"cached_tokens"`
}

// CacheHitRatio: 캐시 적중률을 계산합니다 (0.0 ~ 1.0).
// InputTokens가 0이면 0을 반환합니다.
func (u Usage) CacheHitRatio() float64 {
	if u.InputTokens == 0 {
		return 0
	}
	return float64(u.CachedTokens) / float64(u.InputTokens)
}

// Request: system/user 두 메시지로 구성된 단일 턴 요청입니다.
type Request struct {
	System string
	User   string
}

// Completion: 모델 응답 원문과 사용량입니다.
type Completion struct {
	Text  string
	Usage Usage
	Model string
}

// TextCompleter 는 텍스트 생성 백엔드다.
type TextCompleter interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

// ImageGenerator 는 이미지 생성 백엔드다. 성공 시 표시 가능한 URL 을 반환한다.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

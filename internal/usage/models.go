package usage

import "time"

// TokenUsage 는 일자별 토큰 사용량 집계를 저장하는 DB 모델이다.
type TokenUsage struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UsageDate       time.Time `gorm:"column:usage_date;type:date;uniqueIndex:idx_token_usage_usage_date"`
	InputTokens     int64     `gorm:"column:input_tokens;not null;default:0"`
	OutputTokens    int64     `gorm:"column:output_tokens;not null;default:0"`
	ReasoningTokens int64     `gorm:"column:reasoning_tokens;not null;default:0"`
	RequestCount    int64     `gorm:"column:request_count;not null;default:0"`
	FallbackCount   int64     `gorm:"column:fallback_count;not null;default:0"`
	Version         int64     `gorm:"column:version;not null;default:0"`
}

// TableName 은 GORM에서 사용할 테이블명을 반환한다.
func (TokenUsage) TableName() string {
	return "token_usage"
}

// DailyUsage 는 API/집계용 일자별 사용량 뷰 모델이다.
type DailyUsage struct {
	UsageDate       time.Time `json:"usageDate"`
	InputTokens     int64     `json:"inputTokens"`
	OutputTokens    int64     `json:"outputTokens"`
	ReasoningTokens int64     `json:"reasoningTokens"`
	RequestCount    int64     `json:"requestCount"`
	FallbackCount   int64     `json:"fallbackCount"`
}

// TotalTokens 는 입력+출력 토큰 합계를 반환한다.
func (d DailyUsage) TotalTokens() int64 {
	return d.InputTokens + d.OutputTokens
}

// Delta 는 한 번 이상의 호출에서 누적할 사용량이다.
type Delta struct {
	InputTokens     int64
	OutputTokens    int64
	ReasoningTokens int64
	RequestCount    int64
	FallbackCount   int64
}

func (d Delta) empty() bool {
	return d.RequestCount <= 0 && d.InputTokens <= 0 && d.OutputTokens <= 0 && d.FallbackCount <= 0
}

func (d *Delta) add(other Delta) {
	d.InputTokens += other.InputTokens
	d.OutputTokens += other.OutputTokens
	d.ReasoningTokens += other.ReasoningTokens
	d.RequestCount += other.RequestCount
	d.FallbackCount += other.FallbackCount
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

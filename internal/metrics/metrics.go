package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/llm"
)

// 이미지 처리 결과 라벨.
const (
	ImageGenerated = "generated"
	ImageStock     = "stock"
	ImageDropped   = "dropped"
)

// Store 는 점괘 호출 통계를 저장한다.
// 원자 카운터는 /api/usage 응답용이고, 같은 값을 Prometheus 수집기로도 내보낸다.
type Store struct {
	totalCalls           int64
	totalFallbacks       int64
	totalInputTokens     int64
	totalOutputTokens    int64
	totalReasoningTokens int64
	totalDurationMs      int64
	totalImages          int64
	totalStockImages     int64

	mu              sync.Mutex
	fallbackReasons map[string]int64

	calls     *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	tokens    *prometheus.CounterVec
	images    *prometheus.CounterVec
}

// NewStore 는 통계 저장소를 생성한다. reg 가 nil 이면 Prometheus 등록을 건너뛴다.
func NewStore(reg prometheus.Registerer) *Store {
	s := &Store{
		fallbackReasons: make(map[string]int64),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fortune_oracle_calls_total",
			Help: "Oracle calls by mode and outcome.",
		}, []string{"mode", "outcome"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fortune_fallback_total",
			Help: "Fallback results by failure reason.",
		}, []string{"reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fortune_oracle_duration_seconds",
			Help:    "Oracle call latency.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
		}, []string{"mode"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fortune_oracle_tokens_total",
			Help: "Tokens consumed by direction.",
		}, []string{"direction"}),
		images: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fortune_image_total",
			Help: "Image resolutions by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(s.calls, s.fallbacks, s.duration, s.tokens, s.images)
	}
	return s
}

// RecordSuccess 는 성공 호출 통계를 기록한다.
func (s *Store) RecordSuccess(mode string, duration time.Duration, usage llm.Usage) {
	atomic.AddInt64(&s.totalCalls, 1)
	s.addUsage(usage)
	atomic.AddInt64(&s.totalDurationMs, duration.Milliseconds())

	s.calls.WithLabelValues(mode, "ok").Inc()
	s.duration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordFallback 은 대체 결과로 끝난 호출을 기록한다. 응답은 받았지만 쓸 수 없던 경우 usage 도 누적한다.
func (s *Store) RecordFallback(mode string, reason string, duration time.Duration, usage llm.Usage) {
	atomic.AddInt64(&s.totalCalls, 1)
	atomic.AddInt64(&s.totalFallbacks, 1)
	s.addUsage(usage)
	atomic.AddInt64(&s.totalDurationMs, duration.Milliseconds())

	s.mu.Lock()
	s.fallbackReasons[reason]++
	s.mu.Unlock()

	s.calls.WithLabelValues(mode, "fallback").Inc()
	s.fallbacks.WithLabelValues(reason).Inc()
	s.duration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordImage 는 이미지 처리 결과를 기록한다.
func (s *Store) RecordImage(outcome string) {
	atomic.AddInt64(&s.totalImages, 1)
	if outcome != ImageGenerated {
		atomic.AddInt64(&s.totalStockImages, 1)
	}
	s.images.WithLabelValues(outcome).Inc()
}

func (s *Store) addUsage(usage llm.Usage) {
	atomic.AddInt64(&s.totalInputTokens, int64(usage.InputTokens))
	atomic.AddInt64(&s.totalOutputTokens, int64(usage.OutputTokens))
	atomic.AddInt64(&s.totalReasoningTokens, int64(usage.ReasoningTokens))
	s.tokens.WithLabelValues("input").Add(float64(usage.InputTokens))
	s.tokens.WithLabelValues("output").Add(float64(usage.OutputTokens))
}

// UsageTotals 는 누적 사용량을 반환한다.
func (s *Store) UsageTotals() llm.Usage {
	input := atomic.LoadInt64(&s.totalInputTokens)
	output := atomic.LoadInt64(&s.totalOutputTokens)
	reasoning := atomic.LoadInt64(&s.totalReasoningTokens)
	return llm.Usage{
		InputTokens:     int(input),
		OutputTokens:    int(output),
		TotalTokens:     int(input + output),
		ReasoningTokens: int(reasoning),
	}
}

// FallbackReasons 는 사유별 대체 횟수 사본을 반환한다.
func (s *Store) FallbackReasons() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	reasons := make(map[string]int64, len(s.fallbackReasons))
	for reason, count := range s.fallbackReasons {
		reasons[reason] = count
	}
	return reasons
}

// Snapshot 는 통계 스냅샷을 반환한다.
func (s *Store) Snapshot() map[string]float64 {
	totalCalls := atomic.LoadInt64(&s.totalCalls)
	totalFallbacks := atomic.LoadInt64(&s.totalFallbacks)
	input := atomic.LoadInt64(&s.totalInputTokens)
	output := atomic.LoadInt64(&s.totalOutputTokens)
	reasoning := atomic.LoadInt64(&s.totalReasoningTokens)
	durationMs := atomic.LoadInt64(&s.totalDurationMs)

	avgDuration := 0.0
	fallbackRate := 0.0
	if totalCalls > 0 {
		avgDuration = float64(durationMs) / float64(totalCalls)
		fallbackRate = float64(totalFallbacks) / float64(totalCalls)
	}

	return map[string]float64{
		"total_calls":            float64(totalCalls),
		"total_fallbacks":        float64(totalFallbacks),
		"fallback_rate":          fallbackRate,
		"total_input_tokens":     float64(input),
		"total_output_tokens":    float64(output),
		"total_reasoning_tokens": float64(reasoning),
		"total_tokens":           float64(input + output),
		"total_duration_ms":      float64(durationMs),
		"avg_duration_ms":        avgDuration,
		"total_images":           float64(atomic.LoadInt64(&s.totalImages)),
		"total_stock_images":     float64(atomic.LoadInt64(&s.totalStockImages)),
	}
}

package usage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/llm"
)

// Recorder: 점괘 호출마다 토큰 사용량과 대체 결과 건수를 일자별 합계에 더합니다.
// 배치가 켜져 있으면 메모리에 모았다가 주기적으로 적재합니다.
type Recorder struct {
	store     Store
	batcher   *batcher
	logger    *slog.Logger
	now       func() time.Time
	closeOnce sync.Once
}

// NewRecorder 는 Recorder 를 생성한다. store 가 nil 이면 모든 기록을 버린다.
func NewRecorder(cfg config.DatabaseConfig, store Store, logger *slog.Logger) *Recorder {
	r := &Recorder{store: store, logger: logger, now: time.Now}
	if store == nil || !cfg.UsageBatchEnabled {
		return r
	}

	r.batcher = newBatcher(cfg, store, logger)
	r.batcher.start()
	if logger != nil {
		logger.Info("usage_db_batch_enabled",
			"flush_interval", r.batcher.interval,
			"flush_timeout", r.batcher.flushTimeout,
			"max_pending_requests", r.batcher.maxPending,
		)
	}
	return r
}

// deltaOf 는 호출 한 번을 일자 합계에 더할 증분으로 바꾼다.
func deltaOf(usage llm.Usage, fallback bool) Delta {
	delta := Delta{
		InputTokens:     int64(usage.InputTokens),
		OutputTokens:    int64(usage.OutputTokens),
		ReasoningTokens: int64(usage.ReasoningTokens),
		RequestCount:    1,
	}
	if fallback {
		delta.FallbackCount = 1
	}
	return delta
}

// Record 는 점괘 호출 1회를 기록한다. 직접 적재가 실패하면 로그만 남긴다.
func (r *Recorder) Record(ctx context.Context, usage llm.Usage, fallback bool) {
	if r == nil || r.store == nil {
		return
	}

	delta := deltaOf(usage, fallback)
	if r.batcher != nil {
		r.batcher.add(r.now(), delta)
		return
	}
	if err := r.store.RecordUsage(ctx, delta, r.now()); err != nil && r.logger != nil {
		r.logger.WarnContext(ctx, "usage_db_save_failed", "fallback", fallback, "err", err)
	}
}

// Close 는 배치 플러셔를 멈추고 남은 사용량을 적재한다. 여러 번 불러도 된다.
func (r *Recorder) Close() {
	if r == nil || r.batcher == nil {
		return
	}
	r.closeOnce.Do(r.batcher.stop)
}

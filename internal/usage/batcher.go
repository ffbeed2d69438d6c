package usage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
)

const defaultFlushTimeout = 5 * time.Second

// batchStats 는 플러시 결과 누계다. 종료 시 한 줄로 남긴다.
type batchStats struct {
	flushed  int
	failed   int
	requeued int
	dropped  int
}

// batcher 는 일자별 사용량을 메모리에 모았다가 주기적으로 DB에 더한다.
// 실패한 일자는 다시 대기열에 넣고, 다음 플러시는 지수 백오프만큼 미룬다.
// 종료 플러시에서 실패한 일자는 버린다.
type batcher struct {
	store          Store
	logger         *slog.Logger
	interval       time.Duration
	flushTimeout   time.Duration
	maxPending     int
	logMaxInterval time.Duration
	retry          *backoff.ExponentialBackOff

	mu           sync.Mutex
	pending      map[time.Time]Delta
	pendingCount int

	wakeup   chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once

	// 아래 필드는 loop 고루틴(또는 종료 후 호출자)만 만진다.
	failures      int
	holdUntil     time.Time
	lastFailureAt time.Time
	stats         batchStats
}

func newBatcher(cfg config.DatabaseConfig, store Store, logger *slog.Logger) *batcher {
	interval := secondsOr(cfg.UsageBatchFlushIntervalSeconds, time.Second)
	flushTimeout := secondsOr(cfg.UsageBatchFlushTimeoutSeconds, defaultFlushTimeout)

	return &batcher{
		store:          store,
		logger:         logger,
		interval:       interval,
		flushTimeout:   flushTimeout,
		maxPending:     max(cfg.UsageBatchMaxPendingRequests, 1),
		logMaxInterval: time.Duration(cfg.UsageBatchErrorLogMaxIntervalSeconds) * time.Second,
		retry:          newRetryBackoff(interval, secondsOr(cfg.UsageBatchMaxBackoffSeconds, interval)),
		pending:        make(map[time.Time]Delta),
		wakeup:         make(chan struct{}, 1),
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

func secondsOr(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// newRetryBackoff 는 interval 부터 두 배씩 늘어 maxBackoff 에서 멈추는 지연을 만든다.
func newRetryBackoff(interval time.Duration, maxBackoff time.Duration) *backoff.ExponentialBackOff {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = interval
	retry.MaxInterval = maxBackoff
	retry.Multiplier = 2.0
	retry.RandomizationFactor = 0
	retry.MaxElapsedTime = 0
	retry.Reset()
	return retry
}

func (b *batcher) start() {
	go b.loop()
}

// stop 은 남은 사용량을 한 번 더 플러시하고 loop 가 끝날 때까지 기다린다.
func (b *batcher) stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
	<-b.doneCh
}

func (b *batcher) add(at time.Time, delta Delta) {
	if delta.empty() {
		return
	}

	day := dateOf(at)
	b.mu.Lock()
	merged := b.pending[day]
	merged.add(delta)
	b.pending[day] = merged
	b.pendingCount += int(delta.RequestCount)
	full := b.pendingCount >= b.maxPending
	b.mu.Unlock()

	if full {
		select {
		case b.wakeup <- struct{}{}:
		default:
		}
	}
}

func (b *batcher) loop() {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	defer close(b.doneCh)

	for {
		select {
		case <-ticker.C:
			b.flush(false)
		case <-b.wakeup:
			b.flush(false)
		case <-b.stopCh:
			b.flush(true)
			b.logStats()
			return
		}
	}
}

func (b *batcher) flush(shutdown bool) {
	if !shutdown && time.Now().Before(b.holdUntil) {
		return
	}

	snapshot := b.drain()
	if len(snapshot) == 0 {
		return
	}

	var firstErr error
	for day, delta := range snapshot {
		ctx, cancel := context.WithTimeout(context.Background(), b.flushTimeout)
		err := b.store.RecordUsage(ctx, delta, day)
		cancel()
		switch {
		case err == nil:
			b.stats.flushed++
			continue
		case shutdown:
			b.stats.dropped++
		default:
			b.add(day, delta)
			b.stats.requeued++
		}
		b.stats.failed++
		if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		b.registerFailure(firstErr)
		return
	}
	b.failures = 0
	b.holdUntil = time.Time{}
	b.retry.Reset()
}

// drain 은 대기 중인 사용량을 꺼내고 대기열을 비운다.
func (b *batcher) drain() map[time.Time]Delta {
	b.mu.Lock()
	defer b.mu.Unlock()
	snapshot := b.pending
	b.pending = make(map[time.Time]Delta)
	b.pendingCount = 0
	return snapshot
}

func (b *batcher) registerFailure(err error) {
	b.failures++
	wait := b.retry.NextBackOff()
	b.holdUntil = time.Now().Add(wait)

	if !b.shouldLogFailure() {
		return
	}
	b.lastFailureAt = time.Now()
	if b.logger != nil {
		b.logger.Warn("usage_db_batch_flush_failed",
			"failures", b.failures,
			"backoff", wait,
			"pending_requests", b.pendingRequests(),
			"err", err,
		)
	}
}

func (b *batcher) pendingRequests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pendingCount
}

// shouldLogFailure: 연속 실패 횟수가 2의 거듭제곱일 때, 또는 마지막 로그 후 logMaxInterval 이 지났을 때만 남깁니다.
func (b *batcher) shouldLogFailure() bool {
	if b.failures <= 0 {
		return false
	}
	if isPowerOfTwo(b.failures) {
		return true
	}
	return b.logMaxInterval > 0 && time.Since(b.lastFailureAt) >= b.logMaxInterval
}

func (b *batcher) logStats() {
	if b.logger == nil {
		return
	}
	b.logger.Info("usage_db_batch_stopped",
		"flushed", b.stats.flushed,
		"failed", b.stats.failed,
		"requeued", b.stats.requeued,
		"dropped", b.stats.dropped,
	)
}

func isPowerOfTwo(value int) bool {
	return value > 0 && value&(value-1) == 0
}

package fortune

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/singleflight"

	fortunedomain "github.com/park285/llm-kakao-bots/fortune-server-go/internal/domain/fortune"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/metrics"
)

const defaultApplyTimeout = 5 * time.Second

// ImageResolver 는 결과에 붙일 이미지 URL 을 만든다.
type ImageResolver interface {
	Resolve(ctx context.Context, result fortunedomain.Result) string
}

// ImageSink 는 결과 ID 에 이미지 URL 을 기록한다. 같은 값으로 다시 써도 안전해야 한다.
type ImageSink interface {
	SetImage(ctx context.Context, id string, url string) error
}

// DispatcherConfig: 이미지 작업 풀 설정입니다.
type DispatcherConfig struct {
	Workers      int
	QueueSize    int
	ApplyTimeout time.Duration
}

// Dispatcher: 이미지 생성을 제한된 worker 풀에서 비동기로 처리합니다.
// 큐가 가득 차면 고정 이미지를 즉시 기록한다.
type Dispatcher struct {
	resolver     ImageResolver
	stock        *StockImages
	sinks        []ImageSink
	metrics      *metrics.Store
	logger       *slog.Logger
	applyTimeout time.Duration

	queue  chan fortunedomain.Result
	pool   *pool.Pool
	group  singleflight.Group
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewDispatcher: 이미지 dispatcher 를 생성하고 소비 루프를 시작합니다.
func NewDispatcher(
	cfg DispatcherConfig,
	resolver ImageResolver,
	stock *StockImages,
	sinks []ImageSink,
	metricsStore *metrics.Store,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if metricsStore == nil {
		metricsStore = metrics.NewStore(nil)
	}
	workers := max(1, cfg.Workers)
	queueSize := max(0, cfg.QueueSize)
	applyTimeout := cfg.ApplyTimeout
	if applyTimeout <= 0 {
		applyTimeout = defaultApplyTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		resolver:     resolver,
		stock:        stock,
		sinks:        sinks,
		metrics:      metricsStore,
		logger:       logger,
		applyTimeout: applyTimeout,
		queue:        make(chan fortunedomain.Result, queueSize),
		pool:         pool.New().WithMaxGoroutines(workers),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	go d.run()
	return d
}

// Enqueue 는 결과를 큐에 넣는다. 넣지 못하면 고정 이미지를 바로 기록하고 false 를 반환한다.
func (d *Dispatcher) Enqueue(result fortunedomain.Result) bool {
	d.mu.RLock()
	accepted := false
	if !d.closed {
		select {
		case d.queue <- result:
			accepted = true
		default:
		}
	}
	closed := d.closed
	d.mu.RUnlock()

	if accepted {
		return true
	}

	d.logger.Warn("image_queue_full", "id", result.ID, "mode", result.Mode, "closed", closed, "capacity", cap(d.queue))
	d.metrics.RecordImage(metrics.ImageDropped)
	d.apply(result.ID, d.stock.Pick())
	return false
}

// Pending 은 큐에서 대기 중인 작업 수다.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Close 는 큐에 남은 작업을 모두 처리하고 worker 가 끝날 때까지 기다린다.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()

		<-d.done
		d.cancel()
	})
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for result := range d.queue {
		d.pool.Go(func() {
			d.resolve(result)
		})
	}
	d.pool.Wait()
}

// resolve: 같은 결과 ID 에 대한 동시 요청은 하나로 합쳐집니다.
func (d *Dispatcher) resolve(result fortunedomain.Result) {
	_, _, _ = d.group.Do(result.ID, func() (any, error) {
		url := d.resolver.Resolve(d.ctx, result)
		d.apply(result.ID, url)
		return url, nil
	})
}

func (d *Dispatcher) apply(id string, url string) {
	for _, sink := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.applyTimeout)
		err := sink.SetImage(ctx, id, url)
		cancel()
		if err != nil {
			d.logger.Warn("image_apply_failed", "id", id, "err", err)
		}
	}
}

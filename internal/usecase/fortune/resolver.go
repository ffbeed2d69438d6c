package fortune

import (
	"context"
	"log/slog"
	"strings"
	"time"

	fortunedomain "github.com/park285/llm-kakao-bots/fortune-server-go/internal/domain/fortune"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/llm"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/metrics"
)

// Resolver: 결과에 어울리는 이미지를 만들고, 실패하면 고정 이미지를 돌려줍니다.
type Resolver struct {
	generator llm.ImageGenerator
	timeout   time.Duration
	stock     *StockImages
	metrics   *metrics.Store
	logger    *slog.Logger
}

// NewResolver: 이미지 resolver 를 생성합니다. generator 가 nil 이면 항상 고정 이미지를 쓴다.
func NewResolver(generator llm.ImageGenerator, timeout time.Duration, stock *StockImages, metricsStore *metrics.Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if metricsStore == nil {
		metricsStore = metrics.NewStore(nil)
	}
	return &Resolver{
		generator: generator,
		timeout:   timeout,
		stock:     stock,
		metrics:   metricsStore,
		logger:    logger,
	}
}

// Resolve 는 이미지 URL 을 반환한다. 오류를 내지 않는다.
func (r *Resolver) Resolve(ctx context.Context, result fortunedomain.Result) string {
	if r.generator == nil {
		r.metrics.RecordImage(metrics.ImageStock)
		return r.stock.Pick()
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	started := time.Now()
	url, err := r.generator.Generate(ctx, fortunedomain.ImagePrompt(result))
	if err == nil && strings.TrimSpace(url) == "" {
		err = llm.ErrNoImage
	}
	if err != nil {
		r.logger.Warn("image_fallback",
			"id", result.ID,
			"mode", result.Mode,
			"reason", llm.Classify(err),
			"duration_ms", time.Since(started).Milliseconds(),
			"err", err,
		)
		r.metrics.RecordImage(metrics.ImageStock)
		return r.stock.Pick()
	}

	r.metrics.RecordImage(metrics.ImageGenerated)
	return strings.TrimSpace(url)
}

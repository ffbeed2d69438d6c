package fortune

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/database"
	fortunedomain "github.com/park285/llm-kakao-bots/fortune-server-go/internal/domain/fortune"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/extract"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/history"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/llm"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/metrics"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/store"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/telemetry"
)

const persistTimeout = 3 * time.Second

var (
	// ErrNotFound 는 저장된 결과가 없을 때의 오류다.
	ErrNotFound = errors.New("fortune not found")
	// ErrHistoryDisabled 는 기록 저장소가 꺼져 있을 때의 오류다.
	ErrHistoryDisabled = errors.New("reading history disabled")
)

// Cleaner 는 프롬프트에 넣기 전 자유 입력을 정리한다.
type Cleaner interface {
	Clean(input string) string
}

// UsageRecorder 는 호출별 토큰 사용량을 기록한다.
type UsageRecorder interface {
	Record(ctx context.Context, usage llm.Usage, fallback bool)
}

// Dependencies: Service 가 쓰는 협력 객체 묶음입니다. Completer 외에는 nil 을 허용한다.
type Dependencies struct {
	Completer  llm.TextCompleter
	Prompts    *fortunedomain.Prompts
	Cleaner    Cleaner
	Results    store.ResultStore
	History    history.Store
	Usage      UsageRecorder
	Metrics    *metrics.Store
	Dispatcher *Dispatcher
	Stock      *StockImages
}

// Service: 점괘 조회 비즈니스 로직(HTTP/CLI 공용) 구현체입니다.
// Divine 은 실패해도 오류를 돌려주지 않고 같은 방식의 대체 결과를 돌려준다.
type Service struct {
	cfg        config.OracleConfig
	completer  llm.TextCompleter
	prompts    *fortunedomain.Prompts
	cleaner    Cleaner
	results    store.ResultStore
	history    history.Store
	usage      UsageRecorder
	metrics    *metrics.Store
	dispatcher *Dispatcher
	stock      *StockImages
	logger     *slog.Logger

	now   func() time.Time
	newID func() string
}

// New: Fortune Service 인스턴스를 생성합니다.
func New(cfg config.OracleConfig, deps Dependencies, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	prompts := deps.Prompts
	if prompts == nil {
		loaded, err := fortunedomain.NewPrompts()
		if err != nil {
			return nil, fmt.Errorf("load fortune prompts: %w", err)
		}
		prompts = loaded
	}
	metricsStore := deps.Metrics
	if metricsStore == nil {
		metricsStore = metrics.NewStore(nil)
	}
	stock := deps.Stock
	if stock == nil {
		stock = NewStockImages(cfg.FallbackImages, nil)
	}

	return &Service{
		cfg:        cfg,
		completer:  deps.Completer,
		prompts:    prompts,
		cleaner:    deps.Cleaner,
		results:    deps.Results,
		history:    deps.History,
		usage:      deps.Usage,
		metrics:    metricsStore,
		dispatcher: deps.Dispatcher,
		stock:      stock,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}, nil
}

// Divine 은 프로필로 점괘를 한 번 조회한다. 재시도하지 않는다.
// 전송 오류, 비정상 상태 코드, 빈 응답, JSON 추출 실패, 쓸 수 없는 객체, 시간 초과는
// 모두 같은 방식의 대체 결과로 바뀐다.
func (s *Service) Divine(ctx context.Context, profile fortunedomain.Profile) fortunedomain.Result {
	ctx, span := telemetry.Tracer().Start(ctx, "fortune.divine")
	defer span.End()

	result := s.divine(ctx, profile)
	span.SetAttributes(
		attribute.String("fortune.mode", string(result.Mode)),
		attribute.String("fortune.source", string(result.Source)),
	)
	return result
}

func (s *Service) divine(ctx context.Context, profile fortunedomain.Profile) fortunedomain.Result {
	started := s.now()
	profile = s.clean(profile)
	mode := profile.Mode
	if !mode.Valid() {
		mode = fortunedomain.ModeDaily
		profile.Mode = mode
	}

	if s.completer == nil {
		return s.fail(ctx, mode, started, llm.ReasonTransport, llm.ErrMissingAPIKey, llm.Usage{})
	}

	pair := s.prompts.Build(profile, started)
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.TextTimeout())
	completion, err := s.completer.Complete(callCtx, llm.Request{System: pair.System, User: pair.User})
	cancel()
	if err != nil {
		return s.fail(ctx, mode, started, llm.Classify(err), err, completion.Usage)
	}
	if strings.TrimSpace(completion.Text) == "" {
		return s.fail(ctx, mode, started, llm.ReasonEmpty, llm.ErrEmptyCompletion, completion.Usage)
	}

	raw, err := extract.Object(completion.Text)
	if err != nil {
		return s.fail(ctx, mode, started, llm.ReasonExtract, err, completion.Usage)
	}
	if !fortunedomain.Usable(raw) {
		return s.fail(ctx, mode, started, llm.ReasonUnusable, errors.New("no recognizable fortune field"), completion.Usage)
	}

	result := fortunedomain.Normalize(raw, mode, started)
	result.ID = s.newID()
	if s.dispatcher == nil {
		result.LuckyImage = s.stock.Pick()
	}

	duration := s.now().Sub(started)
	s.metrics.RecordSuccess(string(mode), duration, completion.Usage)
	s.recordUsage(ctx, completion.Usage, false)
	s.logger.InfoContext(ctx, "fortune_divined",
		"id", result.ID,
		"mode", mode,
		"model", completion.Model,
		"hexagram", result.HexagramCode,
		"duration_ms", duration.Milliseconds(),
		"input_tokens", completion.Usage.InputTokens,
		"output_tokens", completion.Usage.OutputTokens,
		"cache_hit_ratio", completion.Usage.CacheHitRatio(),
	)

	s.persist(ctx, result)
	if s.dispatcher != nil {
		s.dispatcher.Enqueue(result)
	}
	return result
}

// Fallback 은 방식별 대체 결과를 그대로 돌려준다. 저장하지 않는다.
func (s *Service) Fallback(mode fortunedomain.Mode) fortunedomain.Result {
	return fortunedomain.Fallback(mode, s.now(), s.stock.Pick())
}

// Get 은 저장된 결과를 최신 이미지와 합쳐 돌려준다.
// 결과 저장소에 없으면 기록 저장소를 찾아본다.
func (s *Service) Get(ctx context.Context, id string) (fortunedomain.Result, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return fortunedomain.Result{}, ErrNotFound
	}

	if s.results != nil {
		result, err := s.results.Get(ctx, id)
		switch {
		case err == nil:
			return result, nil
		case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrInvalidID):
		default:
			return fortunedomain.Result{}, fmt.Errorf("get fortune: %w", err)
		}
	}

	if s.history != nil {
		result, err := s.history.Get(ctx, id)
		switch {
		case err == nil:
			return result, nil
		case errors.Is(err, history.ErrNotFound):
		default:
			s.logger.WarnContext(ctx, "history_lookup_failed", "id", id, "err", err)
		}
	}
	return fortunedomain.Result{}, ErrNotFound
}

// Readings 는 최근 기록 요약을 돌려준다.
func (s *Service) Readings(ctx context.Context, mode fortunedomain.Mode, limit int) ([]history.Summary, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	summaries, err := s.history.List(ctx, mode, limit)
	if errors.Is(err, database.ErrDisabled) {
		return nil, ErrHistoryDisabled
	}
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	return summaries, nil
}

func (s *Service) fail(ctx context.Context, mode fortunedomain.Mode, started time.Time, reason string, cause error, usage llm.Usage) fortunedomain.Result {
	duration := s.now().Sub(started)
	s.logger.WarnContext(ctx, "fortune_fallback",
		"mode", mode,
		"reason", reason,
		"duration_ms", duration.Milliseconds(),
		"err", cause,
	)
	s.metrics.RecordFallback(string(mode), reason, duration, usage)
	s.recordUsage(ctx, usage, true)

	result := fortunedomain.Fallback(mode, started, s.stock.Pick())
	result.ID = s.newID()
	s.persist(ctx, result)
	return result
}

func (s *Service) recordUsage(ctx context.Context, usage llm.Usage, fallback bool) {
	if s.usage == nil {
		return
	}
	s.usage.Record(ctx, usage, fallback)
}

// persist: 결과 저장소와 기록 저장소에 씁니다. 실패는 로그만 남깁니다.
func (s *Service) persist(ctx context.Context, result fortunedomain.Result) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if s.results != nil {
		if err := s.results.Save(ctx, result); err != nil {
			s.logger.WarnContext(ctx, "result_save_failed", "id", result.ID, "backend", s.results.Backend(), "err", err)
		}
	}
	if s.history != nil {
		if err := s.history.Save(ctx, result); err != nil {
			s.logger.WarnContext(ctx, "history_save_failed", "id", result.ID, "err", err)
		}
	}
}

func (s *Service) clean(profile fortunedomain.Profile) fortunedomain.Profile {
	if s.cleaner == nil {
		return profile
	}
	profile.Name = s.cleaner.Clean(profile.Name)
	profile.Intent = s.cleaner.Clean(profile.Intent)
	profile.DreamContent = s.cleaner.Clean(profile.DreamContent)
	return profile
}

package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/database"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/gemini"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/history"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/httpclient"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/llm"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/logging"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/openai"
)

// ProvideLogger: 로거를 구성해 반환합니다.
// span 이 있는 요청의 로그에는 trace_id/span_id 가 붙는다.
func ProvideLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// ProvideRegistry 는 런타임 수집기가 등록된 prometheus 레지스트리를 만든다.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideHTTPClient 는 모델 API 호출용 클라이언트를 만든다.
// 전체 타임아웃은 두지 않고 호출마다 context 데드라인으로 제한한다.
func ProvideHTTPClient(cfg *config.Config) *http.Client {
	return httpclient.New(httpclient.Config{
		HTTP2Enabled: cfg.HTTP.HTTP2Enabled,
		Traced:       cfg.Telemetry.Enabled,
	})
}

// ProvideBackends 는 설정된 provider 의 텍스트/이미지 백엔드를 만든다.
// API 키가 없으면 둘 다 nil 이고, 모든 조회는 대체 결과로 응답한다.
func ProvideBackends(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (llm.TextCompleter, llm.ImageGenerator, error) {
	var (
		completer llm.TextCompleter
		generator llm.ImageGenerator
	)
	if cfg.Oracle.IsGemini() {
		client, err := gemini.NewClient(cfg.Oracle, cfg.Gemini, httpClient)
		if errors.Is(err, llm.ErrMissingAPIKey) {
			logger.Warn("oracle_api_key_missing", "provider", cfg.Oracle.Provider)
			return nil, nil, nil
		}
		if err != nil {
			return nil, nil, fmt.Errorf("gemini client: %w", err)
		}
		completer, generator = client, client
	} else {
		client, err := openai.NewClient(cfg.Oracle, httpClient)
		if errors.Is(err, llm.ErrMissingAPIKey) {
			logger.Warn("oracle_api_key_missing", "provider", cfg.Oracle.Provider)
			return nil, nil, nil
		}
		if err != nil {
			return nil, nil, fmt.Errorf("openai client: %w", err)
		}
		completer, generator = client, client
	}

	// 텍스트와 이미지 호출이 같은 계정 한도를 나눠 쓴다.
	limiter := llm.NewLimiter(cfg.Oracle.RateLimitRPS, cfg.Oracle.RateLimitBurst)
	return llm.WithTextLimit(completer, limiter), llm.WithImageLimit(generator, limiter), nil
}

// ProvideHistory 는 DB 가 켜져 있을 때만 기록 저장소를 반환한다.
// 테이블 생성에 실패해도 서버는 기록 없이 계속 뜬다.
func ProvideHistory(ctx context.Context, provider *database.Provider, logger *slog.Logger) *history.Repository {
	if !provider.Enabled() {
		return nil
	}
	repo := history.NewRepository(provider)
	if err := repo.AutoMigrate(ctx); err != nil {
		logger.Warn("history_migrate_failed", "err", err)
	}
	return repo
}

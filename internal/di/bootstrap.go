package di

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/database"
	fortunedomain "github.com/park285/llm-kakao-bots/fortune-server-go/internal/domain/fortune"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/guard"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/handler"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/health"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/history"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/metrics"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/server"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/store"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/telemetry"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/usage"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/usecase/fortune"
)

const historyPruneInterval = time.Hour

// InitializeApp 은 애플리케이션 의존성을 초기화하고 App 인스턴스를 반환한다.
func InitializeApp(ctx context.Context) (*App, error) {
	cfg, err := config.ProvideConfig()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	tp, err := telemetry.NewProvider(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	oracle, err := InitializeOracle(ctx, cfg, logger)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	textModel, _ := cfg.ActiveModels()
	sources := health.Sources{
		Results:   oracle.Results,
		Database:  oracle.Database,
		Fallbacks: oracle.Metrics,
	}
	if oracle.Dispatcher != nil {
		sources.Images = oracle.Dispatcher
	}

	router := handler.NewRouter(
		cfg,
		logger,
		handler.NewHealthHandler(cfg, sources, oracle.Registry),
		handler.NewFortuneHandler(oracle.Service, oracle.Guard, logger),
		handler.NewGuardHandler(oracle.Guard),
		handler.NewUsageHandler(textModel, oracle.UsageRepository, logger),
	)

	return &App{
		Oracle:    oracle,
		Server:    server.NewHTTPServer(cfg, router),
		Handler:   router,
		Logger:    logger,
		Config:    cfg,
		Telemetry: tp,
	}, nil
}

// InitializeOracle 은 점괘 서비스와 저장소, 이미지 dispatcher 를 구성한다.
// 실패하면 이미 연 자원을 닫고 오류를 반환한다.
func InitializeOracle(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Oracle, error) {
	if logger == nil {
		logger = slog.Default()
	}
	registry := ProvideRegistry()
	metricsStore := metrics.NewStore(registry)

	completer, generator, err := ProvideBackends(cfg, ProvideHTTPClient(cfg), logger)
	if err != nil {
		return nil, err
	}

	prompts, err := fortunedomain.NewPrompts()
	if err != nil {
		return nil, fmt.Errorf("fortune prompts: %w", err)
	}

	injectionGuard, err := guard.NewGuard(cfg.Guard, logger)
	if err != nil {
		return nil, fmt.Errorf("guard: %w", err)
	}

	results, err := store.New(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("result store: %w", err)
	}

	oracle := &Oracle{
		Guard:    injectionGuard,
		Results:  results,
		Database: database.NewProvider(cfg.Database, logger),
		Metrics:  metricsStore,
		Registry: registry,
	}

	oracle.UsageRepository = usage.NewRepository(oracle.Database)
	var usageStore usage.Store
	if oracle.Database.Enabled() {
		if err := oracle.UsageRepository.AutoMigrate(ctx); err != nil {
			logger.Warn("usage_migrate_failed", "err", err)
		}
		usageStore = oracle.UsageRepository
	}
	oracle.UsageRecorder = usage.NewRecorder(cfg.Database, usageStore, logger)

	sinks := []fortune.ImageSink{results}
	var readings history.Store
	if repo := ProvideHistory(ctx, oracle.Database, logger); repo != nil {
		readings = repo
		sinks = append(sinks, repo)

		bgCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		oracle.stopBackground = cancel
		retention := time.Duration(cfg.Database.HistoryRetentionDays) * 24 * time.Hour
		oracle.background.Go(func() {
			history.RunRetention(bgCtx, repo, retention, historyPruneInterval, logger)
		})
	}

	stock := fortune.NewStockImages(cfg.Oracle.FallbackImages, nil)
	if cfg.Oracle.ImageEnabled && generator != nil {
		resolver := fortune.NewResolver(generator, cfg.Oracle.ImageTimeout(), stock, metricsStore, logger)
		oracle.Dispatcher = fortune.NewDispatcher(
			fortune.DispatcherConfig{
				Workers:   cfg.Oracle.ImageWorkers,
				QueueSize: cfg.Oracle.ImageQueueSize,
			},
			resolver,
			stock,
			sinks,
			metricsStore,
			logger,
		)
	}

	service, err := fortune.New(cfg.Oracle, fortune.Dependencies{
		Completer:  completer,
		Prompts:    prompts,
		Cleaner:    injectionGuard,
		Results:    results,
		History:    readings,
		Usage:      oracle.UsageRecorder,
		Metrics:    metricsStore,
		Dispatcher: oracle.Dispatcher,
		Stock:      stock,
	}, logger)
	if err != nil {
		oracle.Close()
		return nil, fmt.Errorf("fortune service: %w", err)
	}
	oracle.Service = service

	return oracle, nil
}

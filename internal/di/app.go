package di

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/database"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/guard"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/metrics"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/store"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/telemetry"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/usage"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/usecase/fortune"
)

// Oracle: 점괘 서비스와 그 저장소, 백그라운드 작업을 묶는다.
// HTTP 서버와 CLI 가 같은 구성을 공유한다.
type Oracle struct {
	Service         *fortune.Service
	Guard           *guard.InjectionGuard
	Results         store.ResultStore
	Database        *database.Provider
	UsageRepository *usage.Repository
	UsageRecorder   *usage.Recorder
	Dispatcher      *fortune.Dispatcher
	Metrics         *metrics.Store
	Registry        *prometheus.Registry

	stopBackground context.CancelFunc
	background     sync.WaitGroup
	closeOnce      sync.Once
}

// Close 는 이미지 큐를 비운 뒤 저장소를 닫는다.
// 큐에 남은 작업이 결과 저장소와 기록에 반영되도록 dispatcher 를 가장 먼저 닫는다.
func (o *Oracle) Close() {
	if o == nil {
		return
	}
	o.closeOnce.Do(func() {
		if o.Dispatcher != nil {
			o.Dispatcher.Close()
		}
		if o.stopBackground != nil {
			o.stopBackground()
		}
		o.background.Wait()
		o.UsageRecorder.Close()
		if o.Results != nil {
			o.Results.Close()
		}
		if o.Database != nil {
			o.Database.Close()
		}
	})
}

// App: HTTP 서버까지 포함한 애플리케이션 구성 요소를 묶는다.
type App struct {
	*Oracle

	Server    *http.Server
	Handler   http.Handler
	Logger    *slog.Logger
	Config    *config.Config
	Telemetry *telemetry.Provider
}

// Close: 앱 리소스를 정리합니다. span 은 마지막에 flush 한다.
func (a *App) Close(ctx context.Context) {
	a.Oracle.Close()
	if err := a.Telemetry.Shutdown(ctx); err != nil {
		a.Logger.Warn("telemetry_shutdown_failed", "err", err)
	}
}

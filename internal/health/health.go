// Package health 는 liveness/readiness 응답에 쓰는 구성 요소 상태를 모은다.
package health

import (
	"context"
	"time"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusDisabled = "disabled"

	deepCheckTimeout = 2 * time.Second
)

var startTime = time.Now()

// Pinger 는 왕복 확인이 가능한 의존성이다.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ResultStore 는 결과 저장소의 상태 확인 표면이다.
type ResultStore interface {
	Pinger
	Backend() string
}

// QueueDepth 는 이미지 큐 적재량을 알려준다.
type QueueDepth interface {
	Pending() int
}

// FallbackCounter 는 사유별 폴백 누적 수를 알려준다.
type FallbackCounter interface {
	FallbackReasons() map[string]int64
}

// Sources 는 상태 수집 대상이다. nil 인 항목은 건너뛰거나 disabled 로 표시한다.
type Sources struct {
	Results   ResultStore
	Database  Pinger
	Images    QueueDepth
	Fallbacks FallbackCounter
}

// Component 는 상태 구성 요소다.
type Component struct {
	Status string         `json:"status"`
	Detail map[string]any `json:"detail"`
}

// Response 는 상태 응답 본문이다.
type Response struct {
	Status     string               `json:"status"`
	Components map[string]Component `json:"components"`
}

// Collect 는 헬스 상태를 수집한다. deepChecks 가 false 면 외부 의존성에 접속하지 않는다.
func Collect(ctx context.Context, cfg *config.Config, src Sources, deepChecks bool) Response {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg == nil {
		cfg = &config.Config{}
	}

	components := map[string]Component{
		"app":          buildAppStatus(),
		"oracle":       buildOracleStatus(cfg, src),
		"result_store": buildResultStoreStatus(ctx, src.Results, deepChecks),
		"database":     buildDatabaseStatus(ctx, cfg.Database, src.Database, deepChecks),
	}

	overall := statusOK
	for _, component := range components {
		if component.Status == statusDegraded {
			overall = statusDegraded
			break
		}
	}

	return Response{
		Status:     overall,
		Components: components,
	}
}

func buildAppStatus() Component {
	return Component{
		Status: statusOK,
		Detail: map[string]any{
			"uptime_seconds": int(time.Since(startTime).Seconds()),
		},
	}
}

func buildOracleStatus(cfg *config.Config, src Sources) Component {
	apiKeyPresent := cfg.ActiveAPIKey() != ""
	textModel, imageModel := cfg.ActiveModels()
	provider := "openai"
	if cfg.Oracle.IsGemini() {
		provider = "gemini"
	}

	detail := map[string]any{
		"api_key_present":      apiKeyPresent,
		"provider":             provider,
		"text_model":           textModel,
		"image_enabled":        cfg.Oracle.ImageEnabled,
		"text_timeout_seconds": int(cfg.Oracle.TextTimeout().Seconds()),
	}
	if cfg.Oracle.ImageEnabled {
		detail["image_model"] = imageModel
	}
	if src.Images != nil {
		detail["image_queue_pending"] = src.Images.Pending()
	}
	if src.Fallbacks != nil {
		detail["fallbacks"] = src.Fallbacks.FallbackReasons()
	}

	status := statusOK
	if !apiKeyPresent {
		// 키가 없으면 모든 요청이 폴백으로 응답한다.
		status = statusDegraded
	}
	return Component{Status: status, Detail: detail}
}

func buildResultStoreStatus(ctx context.Context, results ResultStore, deepChecks bool) Component {
	if results == nil {
		return Component{Status: statusDegraded, Detail: map[string]any{"configured": false}}
	}

	detail := map[string]any{
		"backend":      results.Backend(),
		"deep_checked": deepChecks,
	}
	if !deepChecks {
		return Component{Status: statusOK, Detail: detail}
	}

	if err := pingWithTimeout(ctx, results); err != nil {
		detail["error"] = err.Error()
		return Component{Status: statusDegraded, Detail: detail}
	}
	detail["connected"] = true
	return Component{Status: statusOK, Detail: detail}
}

func buildDatabaseStatus(ctx context.Context, cfg config.DatabaseConfig, db Pinger, deepChecks bool) Component {
	if !cfg.Enabled || db == nil {
		return Component{Status: statusDisabled, Detail: map[string]any{"enabled": false}}
	}

	detail := map[string]any{
		"enabled":      true,
		"driver":       cfg.Driver,
		"deep_checked": deepChecks,
	}
	if !deepChecks {
		return Component{Status: statusOK, Detail: detail}
	}

	if err := pingWithTimeout(ctx, db); err != nil {
		detail["error"] = err.Error()
		return Component{Status: statusDegraded, Detail: detail}
	}
	detail["connected"] = true
	return Component{Status: statusOK, Detail: detail}
}

func pingWithTimeout(ctx context.Context, target Pinger) error {
	checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deepCheckTimeout)
	defer cancel()
	return target.Ping(checkCtx)
}

// Package guard 는 점괘 요청의 자유 입력(이름, 소원, 꿈 내용)에서 프롬프트 인젝션을 걸러낸다.
package guard

import (
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/width"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/cache"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
)

const (
	defaultThreshold = 0.7
	logPreviewRunes  = 50
	base64HitID      = "base64_payload"
)

// InjectionGuard: 룰팩 점수로 자유 입력을 평가하고 프롬프트용으로 정리하는 가드입니다.
// 평가 결과는 입력 문자열 단위로 TTL 캐시에 보관하고, 같은 입력의 동시 평가는 하나로 합칩니다.
type InjectionGuard struct {
	cfg       config.GuardConfig
	logger    *slog.Logger
	packs     []rulepack
	threshold float64
	cache     *cache.TTLCache[string, Evaluation]
	group     singleflight.Group
}

// NewGuard: 입력 검증 가드를 생성합니다. 꺼져 있으면 룰팩을 읽지 않습니다.
func NewGuard(cfg config.GuardConfig, logger *slog.Logger) (*InjectionGuard, error) {
	if logger == nil {
		logger = slog.Default()
	}

	g := &InjectionGuard{
		cfg:    cfg,
		logger: logger,
		cache:  cache.NewTTLCache[string, Evaluation](cfg.CacheMaxSize, time.Duration(cfg.CacheTTLSeconds)*time.Second),
	}
	if cfg.Enabled {
		fsys, source := rulepackSource(cfg.RulepacksDir)
		g.packs = loadRulepacks(fsys, logger)
		logger.Info("guard_ready", "source", source, "packs", len(g.packs))
	}
	g.threshold = resolveThreshold(cfg.Threshold, g.packs)
	return g, nil
}

// resolveThreshold 는 설정값을 우선하고, 없으면 룰팩 중 가장 높은 임계값을 쓴다.
func resolveThreshold(configured float64, packs []rulepack) float64 {
	if configured > 0 {
		return configured
	}
	threshold := 0.0
	for _, pack := range packs {
		threshold = max(threshold, pack.threshold)
	}
	if threshold <= 0 {
		return defaultThreshold
	}
	return threshold
}

// Evaluate: 입력 문자열을 평가합니다.
func (g *InjectionGuard) Evaluate(input string) Evaluation {
	if g == nil {
		return Evaluation{Threshold: defaultThreshold}
	}
	if !g.cfg.Enabled || strings.TrimSpace(input) == "" {
		return Evaluation{Threshold: g.threshold}
	}

	if cached, ok := g.cache.Get(input); ok {
		return cached
	}
	value, _, _ := g.group.Do(input, func() (any, error) {
		evaluation := g.evaluate(input)
		g.cache.Set(input, evaluation)
		return evaluation, nil
	})
	evaluation, _ := value.(Evaluation)
	return evaluation
}

// EnsureSafe: 막아야 할 입력이면 *BlockedError 를 돌려줍니다. Field 는 호출자가 채웁니다.
func (g *InjectionGuard) EnsureSafe(input string) error {
	if evaluation := g.Evaluate(input); evaluation.Malicious() {
		return &BlockedError{Score: evaluation.Score, Threshold: evaluation.Threshold}
	}
	return nil
}

func (g *InjectionGuard) IsMalicious(input string) bool {
	return g.Evaluate(input).Malicious()
}

// Clean: 프롬프트에 넣기 전에 자유 입력을 정리합니다. 가드가 꺼져 있어도 동작합니다.
func (g *InjectionGuard) Clean(input string) string {
	if g == nil {
		return cleanText(input, 0)
	}
	return cleanText(input, g.cfg.MaxInputRunes)
}

// evaluate 는 base64 로 숨긴 지시문을 먼저 보고, 아니면 정규화한 입력을 룰팩으로 채점한다.
// 정규화 순서: 이모지/제어 문자 제거, 소문자, 전각/반각 통일, homoglyph + NFKC.
func (g *InjectionGuard) evaluate(input string) Evaluation {
	if containsSuspiciousBase64(input) {
		g.logger.Warn("guard_base64_payload_blocked", "input", preview(input))
		return Evaluation{
			Score:     g.threshold,
			Hits:      []Match{{ID: base64HitID, Kind: MatchHeuristic, Weight: g.threshold}},
			Threshold: g.threshold,
		}
	}

	text := normalizeText(width.Fold.String(strings.ToLower(cleanText(input, 0))))
	evaluation := Evaluation{Threshold: g.threshold}
	for _, pack := range g.packs {
		score, hits := pack.score(text)
		evaluation.Score += score
		evaluation.Hits = append(evaluation.Hits, hits...)
	}
	if evaluation.Malicious() {
		g.logger.Warn("guard_blocked", "score", evaluation.Score, "hits", len(evaluation.Hits), "input", preview(input))
	}
	return evaluation
}

// preview: 로그용으로 앞 logPreviewRunes 개 rune 만 남깁니다.
func preview(value string) string {
	value = strings.TrimSpace(value)
	if utf8.RuneCountInString(value) <= logPreviewRunes {
		return value
	}
	return string([]rune(value)[:logPreviewRunes])
}

package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// NewLimiter 는 초당 rps 개 요청을 허용하는 리미터를 만든다. rps 가 0 이하이면 nil 이다.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// LimitedCompleter 는 호출 전에 리미터 토큰을 기다린다.
type LimitedCompleter struct {
	next    TextCompleter
	limiter *rate.Limiter
}

// WithTextLimit 는 limiter 가 nil 이면 next 를 그대로 반환한다.
func WithTextLimit(next TextCompleter, limiter *rate.Limiter) TextCompleter {
	if limiter == nil {
		return next
	}
	return &LimitedCompleter{next: next, limiter: limiter}
}

// Complete 는 리미터 대기 후 다음 백엔드를 호출한다.
func (l *LimitedCompleter) Complete(ctx context.Context, req Request) (Completion, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return Completion{}, fmt.Errorf("rate limit wait: %w", waitError(ctx, err))
	}
	return l.next.Complete(ctx, req)
}

// LimitedImageGenerator 는 호출 전에 리미터 토큰을 기다린다.
type LimitedImageGenerator struct {
	next    ImageGenerator
	limiter *rate.Limiter
}

// WithImageLimit 는 limiter 가 nil 이면 next 를 그대로 반환한다.
func WithImageLimit(next ImageGenerator, limiter *rate.Limiter) ImageGenerator {
	if limiter == nil {
		return next
	}
	return &LimitedImageGenerator{next: next, limiter: limiter}
}

// Generate 는 리미터 대기 후 다음 백엔드를 호출한다.
func (l *LimitedImageGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", waitError(ctx, err))
	}
	return l.next.Generate(ctx, prompt)
}

// rate.Limiter.Wait 는 데드라인 내 토큰을 얻을 수 없으면 자체 오류를 반환한다.
// 이 경우도 timeout 으로 분류되도록 DeadlineExceeded 로 바꾼다.
func waitError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if _, ok := ctx.Deadline(); ok {
		return context.DeadlineExceeded
	}
	return err
}

package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/database"
)

// Store: 사용량 저장소 인터페이스입니다.
type Store interface {
	RecordUsage(ctx context.Context, delta Delta, usageDate time.Time) error
	GetDailyUsage(ctx context.Context, usageDate time.Time) (*DailyUsage, error)
	GetRecentUsage(ctx context.Context, days int) ([]DailyUsage, error)
	GetTotalUsage(ctx context.Context, days int) (DailyUsage, error)
}

// Repository 는 usage DB 접근을 담당한다.
type Repository struct {
	provider *database.Provider
	now      func() time.Time
}

var _ Store = (*Repository)(nil)

// NewRepository 는 usage 저장소를 생성한다.
func NewRepository(provider *database.Provider) *Repository {
	return &Repository{provider: provider, now: time.Now}
}

// AutoMigrate 는 token_usage 테이블을 준비한다.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	db, err := r.provider.DB(ctx)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(&TokenUsage{}); err != nil {
		return fmt.Errorf("migrate token_usage: %w", err)
	}
	return nil
}

// RecordUsage 는 지정한 날짜(또는 오늘)의 토큰 사용량을 누적 저장한다.
func (r *Repository) RecordUsage(ctx context.Context, delta Delta, usageDate time.Time) error {
	if delta.empty() {
		return nil
	}

	db, err := r.provider.DB(ctx)
	if err != nil {
		return err
	}

	if usageDate.IsZero() {
		usageDate = r.now()
	}

	row := TokenUsage{
		UsageDate:       dateOf(usageDate),
		InputTokens:     delta.InputTokens,
		OutputTokens:    delta.OutputTokens,
		ReasoningTokens: delta.ReasoningTokens,
		RequestCount:    delta.RequestCount,
		FallbackCount:   delta.FallbackCount,
	}

	// postgres 와 sqlite 모두 ON CONFLICT ... excluded 구문을 지원한다.
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "usage_date"}},
		DoUpdates: clause.Assignments(map[string]any{
			"input_tokens":     gorm.Expr("token_usage.input_tokens + excluded.input_tokens"),
			"output_tokens":    gorm.Expr("token_usage.output_tokens + excluded.output_tokens"),
			"reasoning_tokens": gorm.Expr("token_usage.reasoning_tokens + excluded.reasoning_tokens"),
			"request_count":    gorm.Expr("token_usage.request_count + excluded.request_count"),
			"fallback_count":   gorm.Expr("token_usage.fallback_count + excluded.fallback_count"),
			"version":          gorm.Expr("token_usage.version + 1"),
		}),
	}).Create(&row).Error
}

// GetDailyUsage 는 특정 날짜(또는 오늘)의 사용량을 조회한다. 기록이 없으면 nil 이다.
func (r *Repository) GetDailyUsage(ctx context.Context, usageDate time.Time) (*DailyUsage, error) {
	db, err := r.provider.DB(ctx)
	if err != nil {
		return nil, err
	}
	if usageDate.IsZero() {
		usageDate = r.now()
	}

	var row TokenUsage
	result := db.Where("usage_date = ?", dateOf(usageDate)).First(&row)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}

	daily := toDaily(row)
	return &daily, nil
}

// GetRecentUsage 는 최근 N일 사용량을 조회한다.
func (r *Repository) GetRecentUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	db, err := r.provider.DB(ctx)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 7
	}

	var rows []TokenUsage
	if err := db.Order("usage_date desc").Limit(days).Find(&rows).Error; err != nil {
		return nil, err
	}

	usages := make([]DailyUsage, 0, len(rows))
	for _, row := range rows {
		usages = append(usages, toDaily(row))
	}
	return usages, nil
}

// GetTotalUsage 는 최근 N일 합계를 조회한다.
func (r *Repository) GetTotalUsage(ctx context.Context, days int) (DailyUsage, error) {
	db, err := r.provider.DB(ctx)
	if err != nil {
		return DailyUsage{}, err
	}
	if days <= 0 {
		days = 30
	}

	today := dateOf(r.now())
	cutoff := today.AddDate(0, 0, -days)

	var result Delta
	if err := db.Model(&TokenUsage{}).
		Select(`COALESCE(SUM(input_tokens), 0) AS input_tokens,
			COALESCE(SUM(output_tokens), 0) AS output_tokens,
			COALESCE(SUM(reasoning_tokens), 0) AS reasoning_tokens,
			COALESCE(SUM(request_count), 0) AS request_count,
			COALESCE(SUM(fallback_count), 0) AS fallback_count`).
		Where("usage_date >= ?", cutoff).
		Scan(&result).Error; err != nil {
		return DailyUsage{}, err
	}

	return DailyUsage{
		UsageDate:       today,
		InputTokens:     result.InputTokens,
		OutputTokens:    result.OutputTokens,
		ReasoningTokens: result.ReasoningTokens,
		RequestCount:    result.RequestCount,
		FallbackCount:   result.FallbackCount,
	}, nil
}

func toDaily(row TokenUsage) DailyUsage {
	return DailyUsage{
		UsageDate:       row.UsageDate,
		InputTokens:     row.InputTokens,
		OutputTokens:    row.OutputTokens,
		ReasoningTokens: row.ReasoningTokens,
		RequestCount:    row.RequestCount,
		FallbackCount:   row.FallbackCount,
	}
}

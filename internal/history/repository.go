package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/database"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/domain/fortune"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ErrNotFound 는 기록 미존재 오류다.
var ErrNotFound = errors.New("reading not found")

// Store: 점괘 기록 저장소 인터페이스입니다.
type Store interface {
	Save(ctx context.Context, result fortune.Result) error
	SetImage(ctx context.Context, id string, url string) error
	Get(ctx context.Context, id string) (fortune.Result, error)
	List(ctx context.Context, mode fortune.Mode, limit int) ([]Summary, error)
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// Repository 는 fortune_readings 테이블 접근을 담당한다.
type Repository struct {
	provider *database.Provider
	now      func() time.Time
}

var _ Store = (*Repository)(nil)

// NewRepository 는 기록 저장소를 생성한다.
func NewRepository(provider *database.Provider) *Repository {
	return &Repository{provider: provider, now: time.Now}
}

// AutoMigrate 는 fortune_readings 테이블을 준비한다.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	db, err := r.provider.DB(ctx)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(&Reading{}); err != nil {
		return fmt.Errorf("migrate fortune_readings: %w", err)
	}
	return nil
}

// Save 는 결과를 기록한다. 같은 ID 가 있으면 덮어쓴다.
func (r *Repository) Save(ctx context.Context, result fortune.Result) error {
	if strings.TrimSpace(result.ID) == "" {
		return errors.New("reading id is empty")
	}
	db, err := r.provider.DB(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}
	createdAt := result.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}

	row := Reading{
		ID:           result.ID,
		Mode:         string(result.Mode),
		Source:       string(result.Source),
		HexagramCode: result.HexagramCode,
		HexagramName: result.HexagramName,
		Rating:       result.Rating,
		LuckyImage:   result.LuckyImage,
		Payload:      datatypes.JSON(payload),
		CreatedAt:    createdAt.UTC(),
	}
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("save reading: %w", err)
	}
	return nil
}

// SetImage 는 기록의 이미지 URL 만 갱신한다.
func (r *Repository) SetImage(ctx context.Context, id string, url string) error {
	db, err := r.provider.DB(ctx)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Model(&Reading{}).Where("id = ?", id).Update("lucky_image", url).Error; err != nil {
		return fmt.Errorf("set reading image: %w", err)
	}
	return nil
}

// Get 은 기록된 결과 전체를 복원한다.
func (r *Repository) Get(ctx context.Context, id string) (fortune.Result, error) {
	db, err := r.provider.DB(ctx)
	if err != nil {
		return fortune.Result{}, err
	}

	var row Reading
	result := db.WithContext(ctx).Where("id = ?", id).First(&row)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fortune.Result{}, ErrNotFound
	}
	if result.Error != nil {
		return fortune.Result{}, fmt.Errorf("get reading: %w", result.Error)
	}

	var out fortune.Result
	if err := json.Unmarshal(row.Payload, &out); err != nil {
		return fortune.Result{}, fmt.Errorf("unmarshal reading: %w", err)
	}
	if row.LuckyImage != "" {
		out.LuckyImage = row.LuckyImage
	}
	return out, nil
}

// List 는 최근 기록을 최신순으로 조회한다. mode 가 비어 있으면 전체 모드다.
func (r *Repository) List(ctx context.Context, mode fortune.Mode, limit int) ([]Summary, error) {
	db, err := r.provider.DB(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	query := db.WithContext(ctx).Model(&Reading{}).Omit("payload")
	if mode != "" {
		query = query.Where("mode = ?", string(mode))
	}

	var rows []Reading
	if err := query.Order("created_at desc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}

	summaries := make([]Summary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, toSummary(row))
	}
	return summaries, nil
}

// Prune 은 olderThan 이전 기록을 지운다.
func (r *Repository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	db, err := r.provider.DB(ctx)
	if err != nil {
		return 0, err
	}
	result := db.WithContext(ctx).Where("created_at < ?", olderThan.UTC()).Delete(&Reading{})
	if result.Error != nil {
		return 0, fmt.Errorf("prune readings: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// RunRetention 은 ctx 가 끝날 때까지 interval 마다 retention 보다 오래된 기록을 지운다.
func RunRetention(ctx context.Context, store Store, retention time.Duration, interval time.Duration, logger *slog.Logger) {
	if retention <= 0 || store == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Hour
	}

	prune := func() {
		deleted, err := store.Prune(ctx, time.Now().Add(-retention))
		if err != nil {
			if !errors.Is(err, database.ErrDisabled) && ctx.Err() == nil {
				logger.Warn("history_prune_failed", "err", err)
			}
			return
		}
		if deleted > 0 {
			logger.Info("history_pruned", "deleted", deleted, "retention", retention)
		}
	}

	prune()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}

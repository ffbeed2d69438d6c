package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/domain/fortune"
)

var (
	// ErrNotFound 는 결과 미존재 오류다.
	ErrNotFound = errors.New("fortune result not found")
	// ErrInvalidID 는 비어 있는 결과 ID 오류다.
	ErrInvalidID = errors.New("fortune result id is empty")
)

// ResultStore 는 점괘 결과 저장소 인터페이스다.
// 이미지는 결과와 별도 키에 저장되어 마지막 쓰기가 이긴다.
type ResultStore interface {
	// Save 결과 저장 (이미지 필드 포함)
	Save(ctx context.Context, result fortune.Result) error

	// Get 결과 조회, 최신 이미지를 합쳐서 반환
	Get(ctx context.Context, id string) (fortune.Result, error)

	// SetImage 이미지 URL 만 갱신
	SetImage(ctx context.Context, id string, url string) error

	// Backend 백엔드 이름 (valkey, memory)
	Backend() string

	// Ping 연결 확인
	Ping(ctx context.Context) error

	// Close 리소스 정리
	Close()
}

// New 는 설정에 맞는 결과 저장소를 생성한다.
// URL 이 비어 있으면 프로세스 메모리 저장소를 사용한다.
func New(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (ResultStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.URL) == "" {
		logger.Info("result_store_memory", "ttl", cfg.TTL())
		return NewMemory(cfg), nil
	}
	s, err := NewValkey(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func resultKey(id string) string {
	return fmt.Sprintf("fortune:%s", id)
}

func imageKey(id string) string {
	return fmt.Sprintf("fortune:%s:image", id)
}

func validID(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", ErrInvalidID
	}
	return trimmed, nil
}

package store

import (
	"context"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/cache"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/domain/fortune"
)

const memoryMaxEntries = 4096

// Memory 는 프로세스 메모리 결과 저장소다. 재시작하면 비워진다.
type Memory struct {
	results *cache.TTLCache[string, fortune.Result]
	images  *cache.TTLCache[string, string]
}

var _ ResultStore = (*Memory)(nil)

// NewMemory 는 메모리 결과 저장소를 생성한다.
func NewMemory(cfg config.StoreConfig) *Memory {
	return &Memory{
		results: cache.NewTTLCache[string, fortune.Result](memoryMaxEntries, cfg.TTL()),
		images:  cache.NewTTLCache[string, string](memoryMaxEntries, cfg.TTL()),
	}
}

// Backend 는 "memory" 를 반환한다.
func (s *Memory) Backend() string { return "memory" }

// Save 결과 저장
func (s *Memory) Save(_ context.Context, result fortune.Result) error {
	id, err := validID(result.ID)
	if err != nil {
		return err
	}
	result.ID = id
	s.results.Set(id, result)
	if result.LuckyImage != "" {
		s.images.Set(id, result.LuckyImage)
	}
	return nil
}

// Get 결과 조회
func (s *Memory) Get(_ context.Context, id string) (fortune.Result, error) {
	id, err := validID(id)
	if err != nil {
		return fortune.Result{}, err
	}
	result, ok := s.results.Get(id)
	if !ok {
		return fortune.Result{}, ErrNotFound
	}
	if image, ok := s.images.Get(id); ok {
		result.LuckyImage = image
	}
	return result, nil
}

// SetImage 이미지 갱신
func (s *Memory) SetImage(_ context.Context, id string, url string) error {
	id, err := validID(id)
	if err != nil {
		return err
	}
	s.images.Set(id, url)
	return nil
}

// Ping 은 항상 성공한다.
func (s *Memory) Ping(context.Context) error { return nil }

// Close 는 아무 것도 하지 않는다.
func (s *Memory) Close() {}

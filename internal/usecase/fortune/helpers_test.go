package fortune

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	fortunedomain "github.com/park285/llm-kakao-bots/fortune-server-go/internal/domain/fortune"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/llm"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/randx"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedStock(urls ...string) *StockImages {
	return NewStockImages(urls, randx.New(nil))
}

type completerFunc func(ctx context.Context, req llm.Request) (llm.Completion, error)

func (f completerFunc) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	return f(ctx, req)
}

type generatorFunc func(ctx context.Context, prompt string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type recordingSink struct {
	mu     sync.Mutex
	images map[string][]string
	notify chan string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{images: make(map[string][]string), notify: make(chan string, 64)}
}

func (s *recordingSink) SetImage(_ context.Context, id string, url string) error {
	s.mu.Lock()
	s.images[id] = append(s.images[id], url)
	s.mu.Unlock()
	s.notify <- id
	return nil
}

func (s *recordingSink) writes(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.images[id]...)
}

func (s *recordingSink) wait(timeout time.Duration) (string, bool) {
	select {
	case id := <-s.notify:
		return id, true
	case <-time.After(timeout):
		return "", false
	}
}

type recordedUsage struct {
	usage    llm.Usage
	fallback bool
}

type fakeUsage struct {
	mu      sync.Mutex
	records []recordedUsage
}

func (f *fakeUsage) Record(_ context.Context, usage llm.Usage, fallback bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, recordedUsage{usage: usage, fallback: fallback})
}

type upperCleaner struct{}

func (upperCleaner) Clean(input string) string {
	if input == "" {
		return ""
	}
	return "[" + input + "]"
}

func fixedNow() time.Time {
	return time.Date(2024, time.August, 20, 10, 30, 0, 0, time.UTC)
}

func sampleProfile(mode fortunedomain.Mode) fortunedomain.Profile {
	return fortunedomain.Profile{
		Name:         "张三",
		Gender:       "男",
		Age:          "30",
		Zodiac:       "狮子座",
		Intent:       "求财运",
		DreamContent: "梦见登山",
		BirthHour:    "unknown",
		Mode:         mode,
	}
}

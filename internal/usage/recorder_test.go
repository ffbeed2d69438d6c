package usage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/database"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/llm"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	repo := NewRepository(database.FromDB(db))
	if err := repo.AutoMigrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	return repo
}

func TestRepositoryAccumulatesPerDay(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	day := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)

	if err := repo.RecordUsage(ctx, Delta{InputTokens: 10, OutputTokens: 5, RequestCount: 1}, day); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := repo.RecordUsage(ctx, Delta{InputTokens: 3, OutputTokens: 2, RequestCount: 1, FallbackCount: 1}, day.Add(3*time.Hour)); err != nil {
		t.Fatalf("record: %v", err)
	}

	daily, err := repo.GetDailyUsage(ctx, day)
	if err != nil {
		t.Fatalf("get daily: %v", err)
	}
	if daily == nil {
		t.Fatalf("expected daily usage")
	}
	if daily.InputTokens != 13 || daily.OutputTokens != 7 || daily.RequestCount != 2 || daily.FallbackCount != 1 {
		t.Fatalf("unexpected daily usage: %+v", daily)
	}
	if daily.TotalTokens() != 20 {
		t.Fatalf("unexpected total tokens: %d", daily.TotalTokens())
	}

	missing, err := repo.GetDailyUsage(ctx, day.AddDate(0, 0, 1))
	if err != nil || missing != nil {
		t.Fatalf("expected no usage, got %+v %v", missing, err)
	}
}

func TestRepositoryRecentAndTotal(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		if err := repo.RecordUsage(ctx, Delta{InputTokens: 1, RequestCount: 1}, now.AddDate(0, 0, -i)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	// 범위 밖
	if err := repo.RecordUsage(ctx, Delta{InputTokens: 100, RequestCount: 1}, now.AddDate(0, 0, -40)); err != nil {
		t.Fatalf("record: %v", err)
	}

	recent, err := repo.GetRecentUsage(ctx, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 || !recent[0].UsageDate.After(recent[1].UsageDate) {
		t.Fatalf("unexpected recent usage: %+v", recent)
	}

	total, err := repo.GetTotalUsage(ctx, 30)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total.InputTokens != 5 || total.RequestCount != 5 {
		t.Fatalf("unexpected total: %+v", total)
	}
}

func TestRecordSkipsEmptyDelta(t *testing.T) {
	repo := newTestRepository(t)
	if err := repo.RecordUsage(context.Background(), Delta{}, time.Time{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	recent, err := repo.GetRecentUsage(context.Background(), 7)
	if err != nil || len(recent) != 0 {
		t.Fatalf("expected no rows, got %+v %v", recent, err)
	}
}

type fakeStore struct {
	mu     sync.Mutex
	fail   bool
	deltas []Delta
}

func (f *fakeStore) RecordUsage(_ context.Context, delta Delta, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("db down")
	}
	f.deltas = append(f.deltas, delta)
	return nil
}

func (f *fakeStore) GetDailyUsage(context.Context, time.Time) (*DailyUsage, error) { return nil, nil }

func (f *fakeStore) GetRecentUsage(context.Context, int) ([]DailyUsage, error) { return nil, nil }

func (f *fakeStore) GetTotalUsage(context.Context, int) (DailyUsage, error) {
	return DailyUsage{}, nil
}

func (f *fakeStore) sum() Delta {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total Delta
	for _, d := range f.deltas {
		total.add(d)
	}
	return total
}

func TestRecorderDirect(t *testing.T) {
	store := &fakeStore{}
	recorder := NewRecorder(config.DatabaseConfig{}, store, nil)
	recorder.Record(context.Background(), llm.Usage{InputTokens: 4, OutputTokens: 6}, false)
	recorder.Record(context.Background(), llm.Usage{}, true)

	total := store.sum()
	if total.RequestCount != 2 || total.FallbackCount != 1 || total.InputTokens != 4 || total.OutputTokens != 6 {
		t.Fatalf("unexpected total: %+v", total)
	}
}

func TestRecorderBatchFlushesOnClose(t *testing.T) {
	store := &fakeStore{}
	cfg := config.DatabaseConfig{
		UsageBatchEnabled:              true,
		UsageBatchFlushIntervalSeconds: 60,
		UsageBatchMaxPendingRequests:   100,
	}
	recorder := NewRecorder(cfg, store, nil)
	for i := 0; i < 3; i++ {
		recorder.Record(context.Background(), llm.Usage{InputTokens: 1, OutputTokens: 1}, false)
	}
	recorder.Close()

	total := store.sum()
	if total.RequestCount != 3 || total.InputTokens != 3 {
		t.Fatalf("unexpected flushed total: %+v", total)
	}
}

func TestRecorderNilStore(t *testing.T) {
	recorder := NewRecorder(config.DatabaseConfig{UsageBatchEnabled: true}, nil, nil)
	recorder.Record(context.Background(), llm.Usage{InputTokens: 1}, false)
	recorder.Close()

	var nilRecorder *Recorder
	nilRecorder.Record(context.Background(), llm.Usage{}, false)
	nilRecorder.Close()
}

func TestBatcherBackoff(t *testing.T) {
	b := newBatcher(config.DatabaseConfig{
		UsageBatchFlushIntervalSeconds: 1,
		UsageBatchMaxBackoffSeconds:    4,
	}, &fakeStore{}, nil)

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 4 * time.Second}
	for i, expected := range want {
		if got := b.retry.NextBackOff(); got != expected {
			t.Fatalf("attempt %d: got %v want %v", i+1, got, expected)
		}
	}

	b.retry.Reset()
	if got := b.retry.NextBackOff(); got != time.Second {
		t.Fatalf("unexpected backoff after reset: %v", got)
	}
}

func TestBatcherRequeuesOnFailure(t *testing.T) {
	store := &fakeStore{fail: true}
	b := newBatcher(config.DatabaseConfig{UsageBatchFlushIntervalSeconds: 1, UsageBatchMaxBackoffSeconds: 1}, store, nil)
	b.add(time.Now(), Delta{InputTokens: 2, RequestCount: 1})

	b.flush(false)
	if b.failures != 1 || b.stats.requeued != 1 || b.holdUntil.IsZero() {
		t.Fatalf("expected requeue after failure: %+v", b.stats)
	}
	if b.pendingRequests() != 1 {
		t.Fatalf("expected pending request to survive")
	}

	store.mu.Lock()
	store.fail = false
	store.mu.Unlock()
	b.flush(true)
	if store.sum().InputTokens != 2 {
		t.Fatalf("expected requeued delta to flush on shutdown")
	}
	if b.failures != 0 || b.stats.flushed != 1 {
		t.Fatalf("expected failure streak reset: failures=%d stats=%+v", b.failures, b.stats)
	}
}

func TestBatcherShouldLogFailure(t *testing.T) {
	b := &batcher{logMaxInterval: time.Hour}
	b.failures = 1
	if !b.shouldLogFailure() {
		t.Fatalf("expected log on first failure")
	}

	b.failures = 3
	b.lastFailureAt = time.Now()
	if b.shouldLogFailure() {
		t.Fatalf("did not expect log for non power-of-two")
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	if !isPowerOfTwo(1) || !isPowerOfTwo(2) || !isPowerOfTwo(4) {
		t.Fatalf("expected power of two")
	}
	if isPowerOfTwo(3) || isPowerOfTwo(0) {
		t.Fatalf("unexpected power of two")
	}
}

package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/database"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/domain/fortune"
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

func reading(id string, mode fortune.Mode, at time.Time) fortune.Result {
	r := fortune.Fallback(mode, at, "")
	r.ID = id
	r.CreatedAt = at
	return r
}

func TestRepositorySaveAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	at := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)

	want := reading("a1", fortune.ModeDream, at)
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Mode != fortune.ModeDream || got.Dream == nil || got.Dream.Title != want.Dream.Title {
		t.Fatalf("unexpected reading: %+v", got)
	}

	if err := repo.SetImage(ctx, "a1", "https://img/a1.png"); err != nil {
		t.Fatalf("set image: %v", err)
	}
	got, err = repo.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LuckyImage != "https://img/a1.png" {
		t.Fatalf("expected image to be merged, got %q", got.LuckyImage)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepositorySaveOverwrites(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	at := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)

	first := reading("dup", fortune.ModeDaily, at)
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := first
	second.Rating = 2
	if err := repo.Save(ctx, second); err != nil {
		t.Fatalf("save again: %v", err)
	}

	list, err := repo.List(ctx, "", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Rating != 2 {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestRepositoryListFiltersAndOrders(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)

	inputs := []fortune.Result{
		reading("d1", fortune.ModeDaily, base),
		reading("z1", fortune.ModeZiWei, base.Add(time.Hour)),
		reading("d2", fortune.ModeDaily, base.Add(2*time.Hour)),
	}
	for _, in := range inputs {
		if err := repo.Save(ctx, in); err != nil {
			t.Fatalf("save %s: %v", in.ID, err)
		}
	}

	all, err := repo.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != "d2" || all[2].ID != "d1" {
		t.Fatalf("unexpected order: %+v", all)
	}

	daily, err := repo.List(ctx, fortune.ModeDaily, 1)
	if err != nil {
		t.Fatalf("list daily: %v", err)
	}
	if len(daily) != 1 || daily[0].ID != "d2" || daily[0].HexagramName != "坤为地" {
		t.Fatalf("unexpected daily list: %+v", daily)
	}
}

func TestRepositoryPrune(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"old1", "old2", "new1"} {
		if err := repo.Save(ctx, reading(id, fortune.ModeDaily, base.AddDate(0, 0, i*10))); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	deleted, err := repo.Prune(ctx, base.AddDate(0, 0, 15))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}
	list, err := repo.List(ctx, "", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "new1" {
		t.Fatalf("unexpected remaining: %+v", list)
	}
}

func TestRepositoryDisabled(t *testing.T) {
	repo := NewRepository(database.NewProvider(config.DatabaseConfig{}, nil))
	if err := repo.Save(context.Background(), reading("x", fortune.ModeDaily, time.Now())); !errors.Is(err, database.ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

type countingStore struct {
	Store
	calls chan time.Time
}

func (s *countingStore) Prune(_ context.Context, olderThan time.Time) (int64, error) {
	s.calls <- olderThan
	return 0, nil
}

func TestRunRetentionPrunesImmediately(t *testing.T) {
	store := &countingStore{calls: make(chan time.Time, 4)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunRetention(ctx, store, 24*time.Hour, time.Hour, nil)
		close(done)
	}()

	select {
	case cutoff := <-store.calls:
		if time.Since(cutoff) < 23*time.Hour {
			t.Fatalf("unexpected cutoff: %v", cutoff)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected prune on start")
	}
	cancel()
	<-done
}

package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/domain/fortune"
)

func newTestValkey(t *testing.T, threshold int) (*Valkey, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)
	cfg := config.StoreConfig{
		URL:                "redis://" + mini.Addr(),
		TTLSeconds:         60,
		CompressThreshold:  threshold,
		ConnectMaxAttempts: 1,
	}
	s, err := NewValkey(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(s.Close)
	return s, mini
}

func sampleResult(id string) fortune.Result {
	r := fortune.Fallback(fortune.ModeDaily, time.Date(2024, 8, 20, 10, 0, 0, 0, time.UTC), "")
	r.ID = id
	return r
}

func TestValkeySaveGetRoundTrip(t *testing.T) {
	s, mini := newTestValkey(t, 0)
	ctx := context.Background()

	want := sampleResult("r1")
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mini.Exists("fortune:r1") {
		t.Fatalf("expected result key")
	}
	if mini.Exists("fortune:r1:image") {
		t.Fatalf("image key should not exist before image is set")
	}
	if ttl := mini.TTL("fortune:r1"); ttl != time.Minute {
		t.Fatalf("unexpected ttl: %v", ttl)
	}

	got, err := s.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.HexagramName != want.HexagramName || got.Reminder != want.Reminder || got.LuckyImage != "" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if len(got.LuckyNumbers) != 3 || got.LuckyNumbers[2] != 8 {
		t.Fatalf("unexpected lucky numbers: %v", got.LuckyNumbers)
	}
}

func TestValkeyCompressesLargePayload(t *testing.T) {
	s, mini := newTestValkey(t, 16)
	ctx := context.Background()

	if err := s.Save(ctx, sampleResult("big")); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, err := mini.Get("fortune:big")
	if err != nil {
		t.Fatalf("raw get: %v", err)
	}
	if raw[0] != formatZstd {
		t.Fatalf("expected compressed payload, got format %q", raw[0])
	}

	got, err := s.Get(ctx, "big")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "big" || got.SolarTerm != "秋分" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestValkeySetImageLastWriteWins(t *testing.T) {
	s, _ := newTestValkey(t, 0)
	ctx := context.Background()

	if err := s.Save(ctx, sampleResult("r2")); err != nil {
		t.Fatalf("save: %v", err)
	}
	for _, url := range []string{"https://img/1.png", "https://img/2.png", "https://img/2.png"} {
		if err := s.SetImage(ctx, "r2", url); err != nil {
			t.Fatalf("set image: %v", err)
		}
	}
	got, err := s.Get(ctx, "r2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LuckyImage != "https://img/2.png" {
		t.Fatalf("unexpected image: %q", got.LuckyImage)
	}
}

func TestValkeyGetMissing(t *testing.T) {
	s, _ := newTestValkey(t, 0)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Get(context.Background(), "  "); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestValkeyPing(t *testing.T) {
	s, _ := newTestValkey(t, 0)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if s.Backend() != "valkey" {
		t.Fatalf("unexpected backend: %s", s.Backend())
	}
}

func TestNewValkeyGivesUpAfterAttempts(t *testing.T) {
	cfg := config.StoreConfig{
		URL:                "redis://127.0.0.1:1",
		ConnectMaxAttempts: 2,
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewValkey(ctx, cfg, nil); err == nil {
		t.Fatalf("expected connect error")
	}
}

func TestNewSelectsMemoryWithoutURL(t *testing.T) {
	s, err := New(context.Background(), config.StoreConfig{TTLSeconds: 60}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer s.Close()
	if s.Backend() != "memory" {
		t.Fatalf("expected memory backend, got %s", s.Backend())
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory(config.StoreConfig{TTLSeconds: 60})
	ctx := context.Background()

	if _, err := s.Get(ctx, "m1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Save(ctx, sampleResult("m1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SetImage(ctx, "m1", "https://img/m.png"); err != nil {
		t.Fatalf("set image: %v", err)
	}
	got, err := s.Get(ctx, "m1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LuckyImage != "https://img/m.png" {
		t.Fatalf("unexpected image: %q", got.LuckyImage)
	}
	if err := s.Save(ctx, fortune.Result{}); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestDecodeResultRejectsUnknownFormat(t *testing.T) {
	if _, err := decodeResult([]byte("x{}")); err == nil || !strings.Contains(err.Error(), "unknown") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
	if _, err := decodeResult(nil); err == nil {
		t.Fatalf("expected empty payload error")
	}
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		raw      string
		addr     string
		user     string
		password string
		db       int
		tls      bool
		wantErr  bool
	}{
		{raw: "redis://localhost:6380/2", addr: "localhost:6380", db: 2},
		{raw: "rediss://u:p@cache.example:6379", addr: "cache.example:6379", user: "u", password: "p", tls: true},
		{raw: "valkeys://cache.example", addr: "cache.example:6379", tls: true},
		{raw: "127.0.0.1", addr: "127.0.0.1:6379"},
		{raw: "127.0.0.1:7000", addr: "127.0.0.1:7000"},
		{raw: "redis://localhost/-1", wantErr: true},
		{raw: "redis://localhost/abc", wantErr: true},
		{raw: "   ", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseURL(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.raw, err)
		}
		if got.addr != tt.addr || got.username != tt.user || got.password != tt.password || got.selectDB != tt.db || got.useTLS != tt.tls {
			t.Fatalf("%q: unexpected conn info: %+v", tt.raw, got)
		}
	}
}

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/database"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/usage"
)

type fakeUsageStore struct {
	daily  *usage.DailyUsage
	recent []usage.DailyUsage
	total  usage.DailyUsage
	err    error
	days   int
}

func (f *fakeUsageStore) RecordUsage(context.Context, usage.Delta, time.Time) error { return f.err }

func (f *fakeUsageStore) GetDailyUsage(context.Context, time.Time) (*usage.DailyUsage, error) {
	return f.daily, f.err
}

func (f *fakeUsageStore) GetRecentUsage(_ context.Context, days int) ([]usage.DailyUsage, error) {
	f.days = days
	return f.recent, f.err
}

func (f *fakeUsageStore) GetTotalUsage(_ context.Context, days int) (usage.DailyUsage, error) {
	f.days = days
	return f.total, f.err
}

func newUsageRouter(store usage.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewUsageHandler("glm-4-flash", store, discardLogger()).RegisterRoutes(router)
	return router
}

func TestParseDays(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query string
		days  int
		ok    bool
	}{
		{"", 7, true},
		{"?days=3", 3, true},
		{"?days=0", 0, false},
		{"?days=400", 0, false},
		{"?days=abc", 0, false},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)

		days, ok := parseDays(c, 7)
		if ok != tt.ok || days != tt.days {
			t.Fatalf("query %q: got %d/%v", tt.query, days, ok)
		}
		if !ok && w.Code != http.StatusBadRequest {
			t.Fatalf("query %q: expected 400, got %d", tt.query, w.Code)
		}
	}
}

func TestUsageDailyEmpty(t *testing.T) {
	router := newUsageRouter(&fakeUsageStore{})

	resp := serve(router, http.MethodGet, "/api/usage/daily?date=2024-08-20", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload DailyUsageResponse
	decodeBody(t, resp, &payload)
	if payload.UsageDate != "2024-08-20" || payload.TotalTokens != 0 || payload.Model != "glm-4-flash" {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	if resp := serve(router, http.MethodGet, "/api/usage/daily?date=yesterday", ""); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", resp.Code)
	}
}

func TestUsageRecentTotals(t *testing.T) {
	store := &fakeUsageStore{recent: []usage.DailyUsage{
		{UsageDate: fixedNow, InputTokens: 1, OutputTokens: 2, RequestCount: 1, FallbackCount: 1},
		{UsageDate: fixedNow.AddDate(0, 0, -1), InputTokens: 3, OutputTokens: 4, RequestCount: 2},
	}}
	router := newUsageRouter(store)

	resp := serve(router, http.MethodGet, "/api/usage/recent?days=2", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload UsageListResponse
	decodeBody(t, resp, &payload)
	if payload.TotalInputTokens != 4 || payload.TotalOutputTokens != 6 || payload.TotalTokens != 10 {
		t.Fatalf("unexpected token totals: %+v", payload)
	}
	if payload.TotalRequestCount != 3 || payload.TotalFallbackCount != 1 || len(payload.Usages) != 2 {
		t.Fatalf("unexpected counts: %+v", payload)
	}
	if store.days != 2 {
		t.Fatalf("expected days=2, got %d", store.days)
	}
}

func TestUsageDatabaseDisabled(t *testing.T) {
	router := newUsageRouter(&fakeUsageStore{err: database.ErrDisabled})
	if resp := serve(router, http.MethodGet, "/api/usage/total", ""); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

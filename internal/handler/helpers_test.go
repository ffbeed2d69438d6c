package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	fortunedomain "github.com/park285/llm-kakao-bots/fortune-server-go/internal/domain/fortune"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/guard"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/history"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/usecase/fortune"
)

var fixedNow = time.Date(2024, 8, 20, 10, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeService struct {
	profiles []fortunedomain.Profile
	stored   map[string]fortunedomain.Result
	readings []history.Summary
	readErr  error
	lastMode fortunedomain.Mode
	limit    int
}

func (f *fakeService) Divine(_ context.Context, profile fortunedomain.Profile) fortunedomain.Result {
	f.profiles = append(f.profiles, profile)
	result := fortunedomain.Fallback(profile.Mode, fixedNow, "https://img.example/a.jpg?q=80&w=1600")
	result.ID = "abc"
	return result
}

func (f *fakeService) Fallback(mode fortunedomain.Mode) fortunedomain.Result {
	return fortunedomain.Fallback(mode, fixedNow, "https://img.example/stock.jpg")
}

func (f *fakeService) Get(_ context.Context, id string) (fortunedomain.Result, error) {
	result, ok := f.stored[id]
	if !ok {
		return fortunedomain.Result{}, fortune.ErrNotFound
	}
	return result, nil
}

func (f *fakeService) Readings(_ context.Context, mode fortunedomain.Mode, limit int) ([]history.Summary, error) {
	f.lastMode = mode
	f.limit = limit
	return f.readings, f.readErr
}

type blockingChecker struct {
	blocked string
}

func (b blockingChecker) EnsureSafe(input string) error {
	if input != "" && input == b.blocked {
		return &guard.BlockedError{Score: 0.9, Threshold: 0.7}
	}
	return nil
}

var errBoom = errors.New("boom")

func newFortuneRouter(service FortuneService, checker InputChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewFortuneHandler(service, checker, discardLogger())
	h.now = func() time.Time { return fixedNow }
	router := gin.New()
	h.RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method string, path string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(resp.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response: %v (%s)", err, resp.Body.String())
	}
}

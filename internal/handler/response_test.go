package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/httperror"
)

func bindRequest(t *testing.T, body string, out any) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/fortune", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return w, bindJSON(c, out)
}

func TestBindJSONRejectsMalformedBody(t *testing.T) {
	var req FortuneRequest
	w, ok := bindRequest(t, `{"mode":`, &req)
	if ok {
		t.Fatalf("expected bindJSON to fail")
	}
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	var payload httperror.ErrorResponse
	decodeBody(t, w, &payload)
	if payload.ErrorCode != string(httperror.ErrorCodeValidation) {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestBindJSONReportsFailedRule(t *testing.T) {
	registerValidators()
	var req FortuneRequest
	w, ok := bindRequest(t, `{"mode":"tarot"}`, &req)
	if ok {
		t.Fatalf("expected bindJSON to fail")
	}
	var payload httperror.ErrorResponse
	decodeBody(t, w, &payload)
	fields, _ := payload.Details["errors"].([]any)
	if len(fields) != 1 {
		t.Fatalf("unexpected details: %+v", payload.Details)
	}
	field, _ := fields[0].(map[string]any)
	if field["field"] != "Mode" || field["rule"] != "oneof" {
		t.Fatalf("unexpected field error: %+v", field)
	}
}

func TestBindJSONAcceptsValidBody(t *testing.T) {
	registerValidators()
	var req FortuneRequest
	if _, ok := bindRequest(t, `{"name":"李四","mode":"ziwei","birthHour":"子时"}`, &req); !ok {
		t.Fatalf("expected bindJSON to succeed")
	}
	if req.Name != "李四" || req.Mode != "ziwei" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

package httpclient

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClientRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	for _, cfg := range []Config{
		{Timeout: time.Second},
		{Timeout: time.Second, HTTP2Enabled: true, Traced: true},
	} {
		client := New(cfg)
		if client.Timeout != time.Second {
			t.Fatalf("unexpected timeout: %v", client.Timeout)
		}
		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if string(body) != "ok" {
			t.Fatalf("unexpected body: %s", body)
		}
	}
}

func TestNewClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	client := New(Config{Timeout: 50 * time.Millisecond})
	if _, err := client.Get(srv.URL); err == nil {
		t.Fatalf("expected timeout error")
	}
}

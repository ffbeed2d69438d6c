// Package httpclient 는 외부 모델 API 호출용 HTTP 클라이언트를 만든다.
package httpclient

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/http2"
)

// Config 는 클라이언트 설정이다.
type Config struct {
	Timeout        time.Duration
	ConnectTimeout time.Duration
	HTTP2Enabled   bool
	Traced         bool
}

// New 는 연결 풀과 타임아웃이 설정된 클라이언트를 만든다.
// HTTP2Enabled 이면 TLS 위 h2 를 명시적으로 구성하고, Traced 이면 otelhttp 로 감싼다.
func New(cfg Config) *http.Client {
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}

	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if cfg.HTTP2Enabled {
		if h2, err := http2.ConfigureTransports(base); err == nil {
			h2.ReadIdleTimeout = 30 * time.Second
			h2.PingTimeout = 15 * time.Second
		}
	}

	var transport http.RoundTripper = base
	if cfg.Traced {
		transport = otelhttp.NewTransport(base)
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}
}

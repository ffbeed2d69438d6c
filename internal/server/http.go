// Package server 는 HTTP 서버 수명 주기를 담당한다.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	// 점괘 호출이 텍스트 제한 시간까지 걸릴 수 있으므로 쓰기 제한은 그보다 길어야 한다.
	writeTimeoutMargin = 15 * time.Second
	idleTimeout        = 120 * time.Second
)

// NewHTTPServer 는 HTTP 서버를 생성한다. HTTP2Enabled 면 h2c 로 감싼다.
func NewHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	addr := net.JoinHostPort(cfg.HTTP.Host, strconv.Itoa(cfg.HTTP.Port))
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      cfg.Oracle.TextTimeout() + writeTimeoutMargin,
		IdleTimeout:       idleTimeout,
	}

	if cfg.HTTP.HTTP2Enabled {
		server.Handler = h2c.NewHandler(handler, &http2.Server{IdleTimeout: idleTimeout})
	}

	return server
}

// Run 은 ctx 가 끝날 때까지 서버를 돌리고, 끝나면 shutdownTimeout 안에 정상 종료한다.
func Run(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_server_started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("http_server_stopped")
	return nil
}

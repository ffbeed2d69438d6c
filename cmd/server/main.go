package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/di"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := di.InitializeApp(ctx)
	if err != nil {
		log.Fatalf("failed to initialize app: %v", err)
	}

	config.LogEnvStatus(app.Config, app.Logger)
	app.Logger.Info(
		"http_server_start",
		"host", app.Config.HTTP.Host,
		"port", app.Config.HTTP.Port,
		"http2", app.Config.HTTP.HTTP2Enabled,
	)

	runErr := server.Run(ctx, app.Server, shutdownTimeout, app.Logger)

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	app.Close(closeCtx)
	cancel()

	if runErr != nil {
		app.Logger.Error("http_server_failed", "err", runErr)
		os.Exit(1)
	}
}

package store

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/valkey-io/valkey-go"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/domain/fortune"
)

const dialTimeout = 5 * time.Second

// Valkey 는 Valkey 기반 결과 저장소다.
type Valkey struct {
	client    valkey.Client
	ttl       time.Duration
	threshold int
	logger    *slog.Logger
}

var _ ResultStore = (*Valkey)(nil)

// NewValkey 는 Valkey 결과 저장소를 생성한다.
// 접속 실패 시 지수 백오프로 ConnectMaxAttempts 회까지 재시도한다.
func NewValkey(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*Valkey, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := parseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse result store url: %w", err)
	}

	var tlsConfig *tls.Config
	if conn.useTLS {
		host, _, splitErr := net.SplitHostPort(conn.addr)
		if splitErr != nil {
			return nil, fmt.Errorf("parse result store addr: %w", splitErr)
		}
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}
	}

	option := valkey.ClientOption{
		TLSConfig:    tlsConfig,
		Username:     conn.username,
		Password:     conn.password,
		InitAddress:  []string{conn.addr},
		SelectDB:     conn.selectDB,
		DisableCache: true,
		Dialer:       net.Dialer{Timeout: dialTimeout},
	}

	client, err := connectWithRetry(ctx, option, cfg, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("result_store_connected", "addr", conn.addr, "db", conn.selectDB, "tls", conn.useTLS)
	return &Valkey{
		client:    client,
		ttl:       cfg.TTL(),
		threshold: cfg.CompressThreshold,
		logger:    logger,
	}, nil
}

func connectWithRetry(ctx context.Context, option valkey.ClientOption, cfg config.StoreConfig, logger *slog.Logger) (valkey.Client, error) {
	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.InitialInterval = time.Duration(max(1, cfg.ConnectRetrySeconds)) * time.Second
	retryBackoff.MaxInterval = 30 * time.Second
	retryBackoff.Multiplier = 2.0
	retryBackoff.RandomizationFactor = 0.2
	retryBackoff.MaxElapsedTime = 0
	retryBackoff.Reset()

	attempts := max(1, cfg.ConnectMaxAttempts)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client, err := valkey.NewClient(option)
		if err == nil {
			return client, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		wait := retryBackoff.NextBackOff()
		logger.Warn("result_store_connect_retry", "attempt", attempt, "err", err, "retry_in", wait.Round(time.Millisecond))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("connect to valkey: %w", ctx.Err())
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("connect to valkey after %d attempts: %w", attempts, lastErr)
}

// Backend 는 "valkey" 를 반환한다.
func (s *Valkey) Backend() string { return "valkey" }

// Save 는 결과를 저장한다. 이미지가 채워져 있으면 이미지 키도 함께 쓴다.
func (s *Valkey) Save(ctx context.Context, result fortune.Result) error {
	id, err := validID(result.ID)
	if err != nil {
		return err
	}
	payload, err := encodeResult(result, s.threshold)
	if err != nil {
		return err
	}

	cmds := make([]valkey.Completed, 0, 2)
	cmds = append(cmds, s.client.B().Set().Key(resultKey(id)).Value(string(payload)).Ex(s.ttl).Build())
	if result.LuckyImage != "" {
		cmds = append(cmds, s.client.B().Set().Key(imageKey(id)).Value(result.LuckyImage).Ex(s.ttl).Build())
	}
	for _, resp := range s.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("save fortune result: %w", err)
		}
	}
	return nil
}

// Get 은 결과와 최신 이미지를 한 번의 왕복으로 읽는다.
func (s *Valkey) Get(ctx context.Context, id string) (fortune.Result, error) {
	id, err := validID(id)
	if err != nil {
		return fortune.Result{}, err
	}

	results := s.client.DoMulti(ctx,
		s.client.B().Get().Key(resultKey(id)).Build(),
		s.client.B().Get().Key(imageKey(id)).Build(),
	)

	payload, err := results[0].AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return fortune.Result{}, ErrNotFound
		}
		return fortune.Result{}, fmt.Errorf("get fortune result: %w", err)
	}
	result, err := decodeResult(payload)
	if err != nil {
		return fortune.Result{}, err
	}

	image, err := results[1].ToString()
	switch {
	case err == nil:
		result.LuckyImage = image
	case valkey.IsValkeyNil(err):
	default:
		s.logger.Warn("result_image_read_failed", "id", id, "err", err)
	}
	return result, nil
}

// SetImage 는 이미지 키만 덮어쓴다. 같은 값으로 여러 번 호출해도 결과는 같다.
func (s *Valkey) SetImage(ctx context.Context, id string, url string) error {
	id, err := validID(id)
	if err != nil {
		return err
	}
	cmd := s.client.B().Set().Key(imageKey(id)).Value(url).Ex(s.ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("set fortune image: %w", err)
	}
	return nil
}

// Ping 은 Valkey 연결을 확인한다.
func (s *Valkey) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping valkey: %w", err)
	}
	return nil
}

// Close 는 Valkey 연결을 종료한다.
func (s *Valkey) Close() {
	if s == nil || s.client == nil {
		return
	}
	s.client.Close()
}

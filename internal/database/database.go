// Package database 는 usage/history 저장소가 공유하는 GORM 연결을 관리한다.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
)

// ErrDisabled 는 DB 가 비활성화된 상태에서 연결을 요청했을 때 반환된다.
var ErrDisabled = errors.New("database disabled")

// Provider 는 첫 사용 시점에 DB 연결을 열고 이후 재사용한다.
type Provider struct {
	cfg    config.DatabaseConfig
	logger *slog.Logger

	mu    sync.Mutex
	db    *gorm.DB
	sqlDB *sql.DB
}

// NewProvider 는 연결 제공자를 생성한다. 실제 연결은 DB 호출 시점에 맺는다.
func NewProvider(cfg config.DatabaseConfig, logger *slog.Logger) *Provider {
	return &Provider{cfg: cfg, logger: logger}
}

// FromDB 는 이미 열린 연결로 Provider 를 만든다. 테스트에서 사용한다.
func FromDB(db *gorm.DB) *Provider {
	return &Provider{cfg: config.DatabaseConfig{Enabled: true}, db: db}
}

// Enabled 는 DB 사용 여부를 반환한다.
func (p *Provider) Enabled() bool {
	return p != nil && (p.cfg.Enabled || p.db != nil)
}

// DB 는 연결을 반환한다. 필요하면 새로 연다.
func (p *Provider) DB(ctx context.Context) (*gorm.DB, error) {
	if p == nil {
		return nil, ErrDisabled
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		return p.db.WithContext(ctx), nil
	}
	if !p.cfg.Enabled {
		return nil, ErrDisabled
	}

	db, hostUsed, err := p.open()
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get db handle: %w", err)
	}
	if p.cfg.IsSQLite() {
		// SQLite 는 단일 writer 다.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxIdleConns(p.cfg.MinPool)
		sqlDB.SetMaxOpenConns(p.cfg.MaxPool)
	}
	if p.cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(p.cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}
	if p.cfg.ConnMaxIdleTimeMinutes > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(p.cfg.ConnMaxIdleTimeMinutes) * time.Minute)
	}

	if p.logger != nil {
		p.logger.Info("db_connected", "driver", p.cfg.Driver, "host", hostUsed, "name", p.cfg.Name)
	}

	p.db = db
	p.sqlDB = sqlDB
	return db.WithContext(ctx), nil
}

// Ping 은 연결을 열고 왕복 확인을 한다.
func (p *Provider) Ping(ctx context.Context) error {
	db, err := p.DB(ctx)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get db handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Close 는 DB 연결을 닫는다.
func (p *Provider) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sqlDB == nil {
		return
	}
	_ = p.sqlDB.Close()
	p.sqlDB = nil
	p.db = nil
}

func (p *Provider) open() (*gorm.DB, string, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	if p.cfg.IsSQLite() {
		db, err := gorm.Open(sqlite.Open(p.cfg.DSN()), gormCfg)
		if err != nil {
			return nil, "", fmt.Errorf("open sqlite db: %w", err)
		}
		return db, p.cfg.Path, nil
	}

	hostUsed := p.cfg.Host
	db, err := gorm.Open(postgres.Open(p.cfg.DSN()), gormCfg)
	if err != nil && shouldFallbackToLocalhost(err, p.cfg.Host) {
		fallback := p.cfg
		fallback.Host = "127.0.0.1"
		db, err = gorm.Open(postgres.Open(fallback.DSN()), gormCfg)
		if err == nil {
			hostUsed = fallback.Host
			if p.logger != nil {
				p.logger.Warn(
					"db_host_fallback",
					"configured_host", p.cfg.Host,
					"effective_host", hostUsed,
				)
			}
		}
	}
	if err != nil {
		return nil, "", fmt.Errorf("open postgres db: %w", err)
	}
	return db, hostUsed, nil
}

// shouldFallbackToLocalhost 는 compose 서비스명 "postgres" 가 해석되지 않는 로컬 실행 환경을 판별한다.
func shouldFallbackToLocalhost(err error, host string) bool {
	if err == nil {
		return false
	}
	if !strings.EqualFold(host, "postgres") {
		return false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return strings.EqualFold(dnsErr.Name, host)
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "no such host") && strings.Contains(lower, strings.ToLower(host))
}

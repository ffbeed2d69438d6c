package store

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// connInfo 는 valkey 접속 정보다. redis://, rediss:// URL 또는 host:port 를 받는다.
type connInfo struct {
	addr     string
	username string
	password string
	selectDB int
	useTLS   bool
}

func parseURL(raw string) (connInfo, error) {
	if strings.TrimSpace(raw) == "" {
		return connInfo{}, errors.New("result store url is empty")
	}

	if !strings.Contains(raw, "://") {
		return parseAddr(raw)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return connInfo{}, fmt.Errorf("parse url: %w", err)
	}

	host := parsed.Hostname()
	if host == "" {
		return connInfo{}, errors.New("result store host missing")
	}

	port := parsed.Port()
	if port == "" {
		port = "6379"
	}

	selectDB := 0
	if strings.TrimSpace(parsed.Path) != "" && parsed.Path != "/" {
		path := strings.TrimPrefix(parsed.Path, "/")
		db, err := strconv.Atoi(path)
		if err != nil {
			return connInfo{}, fmt.Errorf("invalid result store db: %w", err)
		}
		if db < 0 {
			return connInfo{}, errors.New("result store db must be non-negative")
		}
		selectDB = db
	}

	username := ""
	password := ""
	if parsed.User != nil {
		username = parsed.User.Username()
		pw, _ := parsed.User.Password()
		password = pw
	}

	useTLS := strings.EqualFold(parsed.Scheme, "rediss") || strings.EqualFold(parsed.Scheme, "valkeys")

	return connInfo{
		addr:     net.JoinHostPort(host, port),
		username: username,
		password: password,
		selectDB: selectDB,
		useTLS:   useTLS,
	}, nil
}

func parseAddr(addr string) (connInfo, error) {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return connInfo{}, errors.New("result store address is empty")
	}

	host, port, err := net.SplitHostPort(trimmed)
	if err != nil {
		var addrErr *net.AddrError
		if !errors.As(err, &addrErr) {
			return connInfo{}, fmt.Errorf("invalid result store address: %w", err)
		}
		switch addrErr.Err {
		case "missing port in address":
			host = strings.TrimSuffix(strings.TrimPrefix(trimmed, "["), "]")
			port = "6379"
		case "too many colons in address":
			host = trimmed
			port = "6379"
		default:
			return connInfo{}, fmt.Errorf("invalid result store address: %w", err)
		}
	}

	if strings.TrimSpace(host) == "" {
		return connInfo{}, errors.New("result store host missing")
	}

	return connInfo{
		addr:     net.JoinHostPort(host, port),
		selectDB: 0,
		useTLS:   false,
	}, nil
}

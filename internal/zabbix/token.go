package zabbix

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"
)

// TokenSource 提供调用 Zabbix API 所需的 Bearer Token。
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// invalidator 由可以重新获取 token 的 TokenSource 实现。
type invalidator interface {
	Invalidate(token string)
}

// StaticTokenSource 返回固定的 API Token。
type StaticTokenSource struct {
	Value string
}

// Token 返回固定值。
func (s *StaticTokenSource) Token(context.Context) (string, error) {
	return s.Value, nil
}

// LoginTokenSource 通过 user.login 换取会话 Token，并在有效期内复用。
type LoginTokenSource struct {
	url        string
	username   string
	password   string
	ttl        time.Duration
	httpClient *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// LoginTokenConfig 配置基于用户名/密码的 TokenSource。
type LoginTokenConfig struct {
	URL        string
	Username   string
	Password   string
	SessionTTL time.Duration
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewLoginTokenSource 创建一个 LoginTokenSource。
func NewLoginTokenSource(cfg LoginTokenConfig) (*LoginTokenSource, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("zabbix url 不能为空")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("用户名和密码不能为空")
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &LoginTokenSource{
		url:        cfg.URL,
		username:   cfg.Username,
		password:   cfg.Password,
		ttl:        ttl,
		httpClient: client,
	}, nil
}

// Token 实现 TokenSource 接口，过期后重新登录。
func (s *LoginTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && time.Now().Before(s.expiry) {
		return s.token, nil
	}
	var token string
	params := map[string]string{"username": s.username, "password": s.password}
	if err := doRPC(ctx, s.httpClient, s.url, "", 1, "user.login", params, &token); err != nil {
		return "", err
	}
	if token == "" {
		return "", &RemoteError{Method: "user.login", Err: errors.New("empty session token")}
	}
	s.token = token
	s.expiry = time.Now().Add(s.ttl)
	return s.token, nil
}

// Invalidate 丢弃缓存的会话，仅当缓存仍是 token 时生效，下一次调用重新登录。
func (s *LoginTokenSource) Invalidate(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == token {
		s.token = ""
		s.expiry = time.Time{}
	}
}

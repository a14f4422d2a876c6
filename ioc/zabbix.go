package ioc

import (
	"time"

	"go.uber.org/zap"

	"zabbix2es/internal/app"
	"zabbix2es/internal/zabbix"
)

// InitMonitoringClient 构建 Zabbix 客户端，配置了 token 时直接使用，否则通过 user.login 换取会话。
func InitMonitoringClient(cfg app.Config, logger *zap.Logger) (app.Source, error) {
	return newZabbixClient(cfg, logger)
}

func newZabbixClient(cfg app.Config, logger *zap.Logger) (*zabbix.Client, error) {
	timeout := time.Duration(cfg.Zabbix.TimeoutSecond) * time.Second

	var tokenSource zabbix.TokenSource
	if cfg.Zabbix.Token != "" {
		tokenSource = &zabbix.StaticTokenSource{Value: cfg.Zabbix.Token}
	} else {
		ts, err := zabbix.NewLoginTokenSource(zabbix.LoginTokenConfig{
			URL:        cfg.Zabbix.URL,
			Username:   cfg.Zabbix.Username,
			Password:   cfg.Zabbix.Password,
			SessionTTL: time.Duration(cfg.Zabbix.SessionTTLSeconds) * time.Second,
			Timeout:    timeout,
		})
		if err != nil {
			return nil, err
		}
		tokenSource = ts
	}

	return zabbix.NewClient(zabbix.Config{
		URL:         cfg.Zabbix.URL,
		TokenSource: tokenSource,
		Timeout:     timeout,
		Logger:      logger,
	})
}

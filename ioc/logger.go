package ioc

import (
	"go.uber.org/zap"

	"zabbix2es/internal/app"
	"zabbix2es/pkg/logging"
)

// InitLogger 构建全局 logger。
func InitLogger(cfg app.Config) (*zap.Logger, error) {
	return logging.NewLogger(cfg.Log.Level)
}

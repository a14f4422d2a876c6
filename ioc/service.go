package ioc

import (
	"go.uber.org/zap"

	"zabbix2es/internal/app"
	"zabbix2es/internal/graph"
	"zabbix2es/internal/store"
)

// InitAppService 构建采集服务。
func InitAppService(cfg app.Config, source app.Source, storeClient *store.Client, projector *graph.Projector, logger *zap.Logger) (*app.Service, error) {
	return app.NewService(cfg, source, storeClient, projector, logger)
}

package ioc

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"zabbix2es/internal/app"
	"zabbix2es/internal/job"
	"zabbix2es/internal/router"
)

// InitStatusHandler 构建采集器状态 HTTP 处理器。
func InitStatusHandler(scheduler *job.Scheduler, svc *app.Service, logger *zap.Logger) *router.StatusHandler {
	return router.NewStatusHandler(scheduler, svc, logger)
}

// InitGinEngine 构建 gin 引擎。
func InitGinEngine(status *router.StatusHandler, registry *prometheus.Registry) *gin.Engine {
	return router.NewEngine(status, registry)
}

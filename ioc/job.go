package ioc

import (
	"context"

	"go.uber.org/zap"

	"zabbix2es/internal/app"
	"zabbix2es/internal/job"
)

// InitScheduler 构建采集调度器。
func InitScheduler(cfg app.Config, svc *app.Service, logger *zap.Logger) *job.Scheduler {
	var collect func(context.Context) app.Report
	if svc != nil {
		collect = svc.Collect
	}
	return job.NewScheduler(cfg, collect, logger)
}

// InitHeartbeat 构建每小时心跳任务。
func InitHeartbeat(scheduler *job.Scheduler, logger *zap.Logger) *job.Heartbeat {
	return job.NewHeartbeat(scheduler, logger)
}

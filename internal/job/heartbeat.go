package job

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const heartbeatSpec = "@hourly"

// Heartbeat 每小时输出一次调度器状态，便于在日志里确认采集仍在进行。
type Heartbeat struct {
	logger    *zap.Logger
	scheduler *Scheduler
	spec      string
	now       func() time.Time
}

func NewHeartbeat(scheduler *Scheduler, logger *zap.Logger) *Heartbeat {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Heartbeat{logger: logger, scheduler: scheduler, spec: heartbeatSpec, now: time.Now}
}

// Beat 记录一次心跳日志。
func (h *Heartbeat) Beat() Snapshot {
	snap := h.scheduler.Snapshot()
	fields := []zap.Field{
		zap.Time("timestamp", h.now()),
		zap.String("state", string(snap.State)),
		zap.Int("cycles", snap.Cycles),
		zap.Int("consecutive_failures", snap.ConsecutiveFailures),
	}
	if snap.LastReport != nil {
		fields = append(fields,
			zap.String("last_run_id", snap.LastReport.RunID),
			zap.Bool("last_success", snap.LastReport.Success),
			zap.Int("last_hosts", snap.LastReport.Hosts))
	}
	h.logger.Info("collector heartbeat", fields...)
	return snap
}

// Start 启动心跳任务，返回停止函数。
func (h *Heartbeat) Start(parent context.Context) context.CancelFunc {
	if h == nil {
		return func() {}
	}
	c := cron.New()
	if _, err := c.AddFunc(h.spec, func() { h.Beat() }); err != nil {
		h.logger.Error("failed to register heartbeat job", zap.Error(err))
		return func() {}
	}
	c.Start()
	h.logger.Info("heartbeat job started")

	var once sync.Once
	stop := func() {
		once.Do(func() {
			ctx := c.Stop()
			<-ctx.Done()
			h.logger.Info("heartbeat job stopped")
		})
	}
	go func() {
		<-parent.Done()
		stop()
	}()
	return stop
}

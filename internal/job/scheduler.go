package job

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"zabbix2es/internal/app"
)

// State 是调度器的运行状态。
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// Snapshot 是调度器状态的只读副本，供 HTTP 和心跳读取。
type Snapshot struct {
	State               State       `json:"state"`
	Cycles              int         `json:"cycles"`
	ConsecutiveFailures int         `json:"consecutive_failures"`
	LastReport          *app.Report `json:"last_report,omitempty"`
}

// Scheduler 周期性地执行采集，保证同一时刻最多只有一个周期在跑。
type Scheduler struct {
	interval time.Duration
	cronExpr string
	delay    bool
	logger   *zap.Logger
	collect  func(context.Context) app.Report
	sleep    func(context.Context, time.Duration) error

	mu       sync.Mutex
	state    State
	cycles   int
	failures int
	last     *app.Report
	cron     *cron.Cron
}

// NewScheduler 根据配置构建调度器，collect 通常是 Service.Collect。
func NewScheduler(cfg app.Config, collect func(context.Context) app.Report, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.Interval()
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		interval: interval,
		cronExpr: strings.TrimSpace(cfg.Collect.JobCron),
		delay:    !cfg.Collect.InitialCollect,
		logger:   logger,
		collect:  collect,
		sleep:    sleepWithContext,
		state:    StateIdle,
	}
}

// Tick 执行一次 Idle -> Running -> Idle 迁移。周期内的 panic 被转换成失败的 Report。
func (s *Scheduler) Tick(ctx context.Context) (report app.Report) {
	s.mu.Lock()
	if s.state == StateRunning {
		s.mu.Unlock()
		s.logger.Warn("previous collection still running, skip current tick")
		return app.Report{Err: fmt.Errorf("上一个采集周期尚未结束")}
	}
	s.state = StateRunning
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("collection cycle panicked", zap.Any("panic", r))
			report = app.Report{StartedAt: time.Now().UTC(), Err: fmt.Errorf("采集周期 panic: %v", r)}
		}
		s.finish(report)
	}()

	if s.collect == nil {
		return app.Report{Err: fmt.Errorf("未配置采集函数")}
	}
	return s.collect(ctx)
}

func (s *Scheduler) finish(report app.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.cycles++
	if report.Err != nil {
		s.failures++
		s.logger.Error("collection cycle failed",
			zap.String("run_id", report.RunID),
			zap.Int("consecutive_failures", s.failures),
			zap.Error(report.Err))
	} else {
		s.failures = 0
	}
	r := report
	s.last = &r
}

// Run 循环执行 Tick，每次之间等待 interval，直到 ctx 结束。
// initial_collect 关闭时第一次采集推迟一个 interval。
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("collector loop started", zap.Duration("interval", s.interval))
	if s.delay {
		if err := s.sleep(ctx, s.interval); err != nil {
			return nil
		}
	}
	for {
		if err := ctx.Err(); err != nil {
			s.logger.Info("collector loop stopped")
			return nil
		}
		s.Tick(ctx)
		if err := s.sleep(ctx, s.interval); err != nil {
			s.logger.Info("collector loop stopped")
			return nil
		}
	}
}

// Start 在后台启动调度，返回停止函数。配置了 job_cron 时按 cron 表达式触发，否则按固定间隔循环。
func (s *Scheduler) Start(parent context.Context) context.CancelFunc {
	if s == nil {
		return func() {}
	}
	if s.cronExpr == "" {
		ctx, cancel := context.WithCancel(parent)
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = s.Run(ctx)
		}()
		var once sync.Once
		return func() {
			once.Do(func() {
				cancel()
				<-done
			})
		}
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	id, err := c.AddFunc(s.cronExpr, func() { s.Tick(parent) })
	if err != nil {
		s.logger.Error("failed to register cron job", zap.String("cron", s.cronExpr), zap.Error(err))
		return func() {}
	}
	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()
	c.Start()
	s.logger.Info("job scheduler started", zap.String("cron", s.cronExpr), zap.Time("next", c.Entry(id).Next))

	var once sync.Once
	stop := func() {
		once.Do(func() {
			ctx := c.Stop()
			<-ctx.Done()
			s.logger.Info("job scheduler stopped")
		})
	}
	go func() {
		<-parent.Done()
		stop()
	}()
	return stop
}

// Snapshot 返回当前状态的副本。
func (s *Scheduler) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{State: StateIdle}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{State: s.state, Cycles: s.cycles, ConsecutiveFailures: s.failures}
	if s.last != nil {
		r := *s.last
		snap.LastReport = &r
	}
	return snap
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

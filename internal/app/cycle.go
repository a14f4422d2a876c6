package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"zabbix2es/internal/domain"
	"zabbix2es/internal/metrics"
	"zabbix2es/internal/store"
)

// Source 是采集周期读取的监控数据源。
type Source interface {
	ListEnabledHosts(ctx context.Context) ([]domain.HostRecord, error)
	FetchMetrics(ctx context.Context, hostIDs []string) (map[string]domain.Metrics, error)
	FetchAvailability(ctx context.Context, hostIDs []string) (map[string]domain.Status, error)
	FetchActiveProblems(ctx context.Context) ([]domain.Problem, error)
}

// Sink 是采集周期写入的文档存储。
type Sink interface {
	WriteHosts(ctx context.Context, hosts []domain.Host) store.WriteResult
	WriteProblems(ctx context.Context, problems []domain.Problem) store.WriteResult
	WriteFleetSummary(ctx context.Context, summary domain.FleetSummary) store.WriteResult
}

// GraphSink 是可选的图投影。
type GraphSink interface {
	ProjectHosts(ctx context.Context, runID string, hosts []domain.Host) error
	ProjectProblems(ctx context.Context, runID string, problems []domain.Problem) error
}

// Report 是一次采集周期的结果。
type Report struct {
	RunID     string              `json:"run_id"`
	StartedAt time.Time           `json:"started_at"`
	Duration  time.Duration       `json:"duration"`
	Hosts     int                 `json:"hosts"`
	Up        int                 `json:"up"`
	Down      int                 `json:"down"`
	Problems  int                 `json:"problems"`
	Writes    []store.WriteResult `json:"-"`
	Success   bool                `json:"success"`
	Err       error               `json:"-"`
}

// Cycle 执行一次 拉取 -> 关联 -> 写入，并把失败限制在本周期内。
type Cycle struct {
	Source Source
	Sink   Sink
	Graph  GraphSink
	Logger *zap.Logger
	Now    func() time.Time
}

// Run 执行一次采集。拉取阶段（主机、指标、可用性）出错时本周期不写任何数据；
// 告警拉取失败和各集合写入失败只影响自身。
func (c *Cycle) Run(ctx context.Context) (report Report) {
	start := c.now().UTC()
	report = Report{RunID: uuid.NewString(), StartedAt: start}
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("run_id", report.RunID))

	defer func() {
		report.Duration = c.now().Sub(start)
		report.Success = report.Err == nil
		metrics.CyclesTotal.Inc()
		metrics.CycleDuration.Observe(report.Duration.Seconds())
		if !report.Success {
			metrics.CycleFailures.Inc()
		}
	}()

	if c.Source == nil || c.Sink == nil {
		report.Err = errors.New("采集周期依赖未注入完整")
		return report
	}

	logger.Info("starting data collection")
	inventory, err := c.Source.ListEnabledHosts(ctx)
	if err != nil {
		report.Err = fmt.Errorf("拉取主机清单失败: %w", err)
		logger.Error("list hosts failed", zap.Error(err))
		return report
	}
	if len(inventory) == 0 {
		logger.Warn("no hosts found in zabbix")
		return report
	}

	ids := make([]string, 0, len(inventory))
	for _, rec := range inventory {
		ids = append(ids, rec.ID)
	}

	var (
		hostMetrics  map[string]domain.Metrics
		availability map[string]domain.Status
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := c.Source.FetchMetrics(gctx, ids)
		hostMetrics = m
		return err
	})
	g.Go(func() error {
		a, err := c.Source.FetchAvailability(gctx, ids)
		availability = a
		return err
	})
	if err := g.Wait(); err != nil {
		report.Err = fmt.Errorf("拉取指标或可用性失败: %w", err)
		logger.Error("fetch metrics/availability failed", zap.Error(err))
		return report
	}

	hosts, summary := Reconcile(inventory, hostMetrics, availability, start)
	report.Hosts, report.Up, report.Down = summary.Total, summary.Up, summary.Down
	metrics.HostsUp.Set(float64(summary.Up))
	metrics.HostsDown.Set(float64(summary.Down))

	var errs []error
	problems, problemErr := c.Source.FetchActiveProblems(ctx)
	if problemErr != nil {
		logger.Error("fetch problems failed", zap.Error(problemErr))
		errs = append(errs, fmt.Errorf("拉取告警失败: %w", problemErr))
	}
	for i := range problems {
		problems[i].ObservedAt = start
	}

	record := func(res store.WriteResult) {
		report.Writes = append(report.Writes, res)
		if !res.OK() {
			errs = append(errs, fmt.Errorf("写入 %s 失败 %d 条: %w", res.Collection, res.Failed, res.Err))
		}
	}
	record(c.Sink.WriteHosts(ctx, hosts))
	if problemErr == nil {
		record(c.Sink.WriteProblems(ctx, problems))
		report.Problems = len(problems)
	}
	record(c.Sink.WriteFleetSummary(ctx, summary))

	if c.Graph != nil {
		if err := c.Graph.ProjectHosts(ctx, report.RunID, hosts); err != nil {
			logger.Error("graph projection of hosts failed", zap.Error(err))
			errs = append(errs, err)
		} else if problemErr == nil {
			if err := c.Graph.ProjectProblems(ctx, report.RunID, problems); err != nil {
				logger.Error("graph projection of problems failed", zap.Error(err))
				errs = append(errs, err)
			}
		}
	}

	report.Err = errors.Join(errs...)
	logger.Info("collection complete",
		zap.Int("total", summary.Total),
		zap.Int("up", summary.Up),
		zap.Int("down", summary.Down),
		zap.Int("problems", report.Problems),
		zap.Bool("success", report.Err == nil))
	return report
}

func (c *Cycle) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

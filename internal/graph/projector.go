package graph

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"zabbix2es/internal/cypher"
	"zabbix2es/internal/domain"
	"zabbix2es/pkg/util"
)

// ErrDisabled 表示未配置 Neo4j，图投影不可用。
var ErrDisabled = errors.New("graph projection disabled")

// Runner 是投影所需的全部 Neo4j 能力。
type Runner interface {
	Reader
	Writer
	RunRaw(ctx context.Context, query string, params map[string]any) error
}

// Topology 是单台主机及其挂载的未关闭告警。
type Topology struct {
	Host     map[string]any   `json:"host"`
	Problems []map[string]any `json:"problems"`
}

// Projector 把每个周期的主机和告警镜像到 Neo4j：(Problem)-[:RAISED_ON]->(Host)。
// nil Projector 的所有写方法都是空操作。
type Projector struct {
	runner    Runner
	batchSize int
	logger    *zap.Logger
}

// NewProjector 创建图投影器。
func NewProjector(runner Runner, batchSize int, logger *zap.Logger) *Projector {
	if batchSize <= 0 {
		batchSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{runner: runner, batchSize: batchSize, logger: logger}
}

// EnsureSchema 创建唯一约束和索引。
func (p *Projector) EnsureSchema(ctx context.Context) error {
	if p == nil {
		return nil
	}
	for _, query := range cypher.MustStatements(cypher.InitSchema) {
		if err := p.runner.RunRaw(ctx, query, nil); err != nil {
			return fmt.Errorf("执行 schema 语句失败: %w", err)
		}
	}
	return nil
}

// ProjectHosts 按 hostid 合并主机节点。
func (p *Projector) ProjectHosts(ctx context.Context, runID string, hosts []domain.Host) error {
	if p == nil || len(hosts) == 0 {
		return nil
	}
	query := cypher.MustAsset(cypher.UpsertHosts)
	for _, chunk := range util.Batch(hosts, p.batchSize) {
		params := map[string]any{"rows": toHostParameters(chunk), "run_id": runID}
		if err := p.runner.RunWrite(ctx, query, params); err != nil {
			return fmt.Errorf("写入主机节点失败: %w", err)
		}
	}
	return nil
}

// ProjectProblems 合并告警节点并挂到主机上，随后删除本轮未出现的告警（已恢复）。
func (p *Projector) ProjectProblems(ctx context.Context, runID string, problems []domain.Problem) error {
	if p == nil {
		return nil
	}
	query := cypher.MustAsset(cypher.UpsertProblems)
	for _, chunk := range util.Batch(problems, p.batchSize) {
		params := map[string]any{"rows": toProblemParameters(chunk), "run_id": runID}
		if err := p.runner.RunWrite(ctx, query, params); err != nil {
			return fmt.Errorf("写入告警节点失败: %w", err)
		}
	}
	if err := p.runner.RunWrite(ctx, cypher.MustAsset(cypher.CleanProblems), map[string]any{"run_id": runID}); err != nil {
		return fmt.Errorf("删除已恢复告警失败: %w", err)
	}
	p.logger.Debug("projected problems", zap.String("run_id", runID), zap.Int("problems", len(problems)))
	return nil
}

// HostTopology 读取主机节点及其告警，主机不存在时 found 为 false。
func (p *Projector) HostTopology(ctx context.Context, hostID string) (topo Topology, found bool, err error) {
	if p == nil {
		return Topology{}, false, ErrDisabled
	}
	records, err := p.runner.RunRead(ctx, cypher.MustAsset(cypher.HostTopology), map[string]any{"hostid": hostID})
	if err != nil {
		return Topology{}, false, fmt.Errorf("查询主机拓扑失败: %w", err)
	}
	if len(records) == 0 {
		return Topology{}, false, nil
	}
	rec := records[0]
	host, _ := rec["host"].(map[string]any)
	topo = Topology{Host: host, Problems: []map[string]any{}}
	if list, ok := rec["problems"].([]any); ok {
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				topo.Problems = append(topo.Problems, m)
			}
		}
	}
	return topo, true, nil
}

func toHostParameters(hosts []domain.Host) []map[string]any {
	res := make([]map[string]any, 0, len(hosts))
	for _, h := range hosts {
		res = append(res, map[string]any{
			"hostid": h.ID,
			"properties": map[string]any{
				"host":          h.Name,
				"name":          h.DisplayName,
				"status":        string(h.Status),
				"cpu":           h.CPUPercent,
				"ram":           h.RAMPercent,
				"bandwidth_in":  h.BandwidthInBps,
				"bandwidth_out": h.BandwidthOutBps,
			},
			"observed_at": h.ObservedAt,
		})
	}
	return res
}

func toProblemParameters(problems []domain.Problem) []map[string]any {
	res := make([]map[string]any, 0, len(problems))
	for _, pr := range problems {
		res = append(res, map[string]any{
			"eventid": pr.EventID,
			"hostid":  pr.HostID,
			"properties": map[string]any{
				"objectid":     pr.ObjectID,
				"name":         pr.Name,
				"severity":     string(pr.Severity),
				"clock":        pr.OccurredAt,
				"host":         pr.HostName,
				"acknowledged": pr.Acknowledged,
			},
			"observed_at": pr.ObservedAt,
		})
	}
	return res
}

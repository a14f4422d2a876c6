package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"zabbix2es/internal/domain"
	"zabbix2es/internal/mapping"
	"zabbix2es/internal/metrics"
)

// 集合名，用于日志、指标和错误上下文。
const (
	CollectionHosts        = "hosts"
	CollectionProblems     = "problems"
	CollectionFleetSummary = "fleet_summary"
)

// Indices 描述各集合对应的索引名。
type Indices struct {
	Hosts        string
	Problems     string
	FleetSummary string
	SecurityLogs []string
}

// DefaultIndices 返回默认索引名。
func DefaultIndices() Indices {
	return Indices{
		Hosts:        "zabbix-hosts",
		Problems:     "zabbix-problems",
		FleetSummary: "server-status",
		SecurityLogs: []string{"filebeat-*", "syslog-*"},
	}
}

// WriteError 表示单个文档写入失败。
type WriteError struct {
	Collection string
	DocumentID string
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s document %q failed: %v", e.Collection, e.DocumentID, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// WriteResult 汇总一批写入的结果，Err 为所有 WriteError 的合并。
type WriteResult struct {
	Collection string
	Written    int
	Failed     int
	Err        error
}

// OK 表示本批全部写入成功。
func (r WriteResult) OK() bool {
	return r.Failed == 0
}

// Client 负责 schema 初始化以及主机、告警、汇总数据的写入。
type Client struct {
	docs    DocumentStore
	indices Indices
	logger  *zap.Logger
}

// NewClient 创建存储客户端，未填写的索引名使用默认值。
func NewClient(docs DocumentStore, indices Indices, logger *zap.Logger) (*Client, error) {
	if docs == nil {
		return nil, errors.New("必须提供 document store")
	}
	def := DefaultIndices()
	if indices.Hosts == "" {
		indices.Hosts = def.Hosts
	}
	if indices.Problems == "" {
		indices.Problems = def.Problems
	}
	if indices.FleetSummary == "" {
		indices.FleetSummary = def.FleetSummary
	}
	if len(indices.SecurityLogs) == 0 {
		indices.SecurityLogs = def.SecurityLogs
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{docs: docs, indices: indices, logger: logger}, nil
}

// Indices 返回当前使用的索引名。
func (c *Client) Indices() Indices {
	return c.indices
}

type indexSchema struct {
	index   string
	mapping string
}

func (c *Client) schemas() []indexSchema {
	return []indexSchema{
		{c.indices.Hosts, mapping.Hosts},
		{c.indices.Problems, mapping.Problems},
		{c.indices.FleetSummary, mapping.FleetSummary},
	}
}

// MissingIndices 返回尚未创建的索引，不做任何写入。
func (c *Client) MissingIndices(ctx context.Context) ([]string, error) {
	var missing []string
	for _, s := range c.schemas() {
		exists, err := c.docs.IndexExists(ctx, s.index)
		if err != nil {
			return nil, fmt.Errorf("检查索引 %s 失败: %w", s.index, err)
		}
		if !exists {
			missing = append(missing, s.index)
		}
	}
	return missing, nil
}

// EnsureSchema 仅在索引不存在时按固定 mapping 创建，可在每次启动时调用。
func (c *Client) EnsureSchema(ctx context.Context) error {
	for _, s := range c.schemas() {
		exists, err := c.docs.IndexExists(ctx, s.index)
		if err != nil {
			return fmt.Errorf("检查索引 %s 失败: %w", s.index, err)
		}
		if exists {
			continue
		}
		if err := c.docs.CreateIndex(ctx, s.index, mapping.MustAsset(s.mapping)); err != nil {
			return fmt.Errorf("创建索引 %s 失败: %w", s.index, err)
		}
		c.logger.Info("created index", zap.String("index", s.index))
	}
	return nil
}

// WriteHosts 以 hostid_日期 为键 upsert，同一主机同一天只保留一条。
func (c *Client) WriteHosts(ctx context.Context, hosts []domain.Host) WriteResult {
	return upsertAll(ctx, c, CollectionHosts, c.indices.Hosts, hosts, func(h domain.Host) string {
		return domain.HostDocumentID(h.ID, h.ObservedAt)
	})
}

// WriteProblems 以 eventid 为键 upsert，未关闭的告警只保留当前记录。
func (c *Client) WriteProblems(ctx context.Context, problems []domain.Problem) WriteResult {
	return upsertAll(ctx, c, CollectionProblems, c.indices.Problems, problems, domain.ProblemDocumentID)
}

// WriteFleetSummary 追加写入一条汇总记录。
func (c *Client) WriteFleetSummary(ctx context.Context, summary domain.FleetSummary) WriteResult {
	res := WriteResult{Collection: CollectionFleetSummary}
	id, err := c.docs.Insert(ctx, c.indices.FleetSummary, summary)
	if err != nil {
		werr := &WriteError{Collection: CollectionFleetSummary, Err: err}
		c.recordFailure(werr)
		res.Failed = 1
		res.Err = werr
		return res
	}
	res.Written = 1
	c.logger.Info("stored fleet summary",
		zap.String("id", id),
		zap.Int("total", summary.Total),
		zap.Int("up", summary.Up),
		zap.Int("down", summary.Down),
		zap.Float64("percentage", summary.UpPercentage))
	return res
}

func upsertAll[T any](ctx context.Context, c *Client, collection, index string, docs []T, key func(T) string) WriteResult {
	res := WriteResult{Collection: collection}
	var errs []error
	for _, doc := range docs {
		id := key(doc)
		if err := c.docs.Upsert(ctx, index, id, doc); err != nil {
			werr := &WriteError{Collection: collection, DocumentID: id, Err: err}
			c.recordFailure(werr)
			errs = append(errs, werr)
			res.Failed++
			continue
		}
		res.Written++
	}
	res.Err = errors.Join(errs...)
	c.logger.Info("stored documents",
		zap.String("collection", collection),
		zap.String("index", index),
		zap.Int("written", res.Written),
		zap.Int("failed", res.Failed))
	return res
}

func (c *Client) recordFailure(err *WriteError) {
	metrics.StoreWriteFailures.WithLabelValues(err.Collection).Inc()
	c.logger.Error("store write failed",
		zap.String("collection", err.Collection),
		zap.String("id", err.DocumentID),
		zap.Error(err.Err))
}

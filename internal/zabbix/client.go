package zabbix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"zabbix2es/internal/domain"
	"zabbix2es/internal/metrics"
)

const defaultTimeout = 30 * time.Second

// 四类指标各自按 key_ 通配搜索。
const (
	KeyCPU          = "system.cpu.util"
	KeyMemory       = "vm.memory.util"
	KeyBandwidthIn  = "net.if.in"
	KeyBandwidthOut = "net.if.out"
)

type metricFamily struct {
	key string
	set func(m *domain.Metrics, v float64)
}

var metricFamilies = []metricFamily{
	{key: KeyCPU, set: func(m *domain.Metrics, v float64) { m.CPU = v }},
	{key: KeyMemory, set: func(m *domain.Metrics, v float64) { m.RAM = v }},
	{key: KeyBandwidthIn, set: func(m *domain.Metrics, v float64) { m.BandwidthIn = v }},
	{key: KeyBandwidthOut, set: func(m *domain.Metrics, v float64) { m.BandwidthOut = v }},
}

// Config 配置 Zabbix JSON-RPC 客户端。
type Config struct {
	URL          string
	TokenSource  TokenSource
	Timeout      time.Duration
	CustomClient *http.Client
	Logger       *zap.Logger
}

// Client 通过 api_jsonrpc.php 访问 Zabbix，每个逻辑查询对应一次 RPC。
type Client struct {
	url         string
	httpClient  *http.Client
	tokenSource TokenSource
	logger      *zap.Logger
	nextID      atomic.Int64
}

// NewClient 根据配置创建客户端，底层连接在多个周期间复用。
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("zabbix url 不能为空")
	}
	client := cfg.CustomClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url:         cfg.URL,
		httpClient:  client,
		tokenSource: cfg.TokenSource,
		logger:      logger,
	}, nil
}

// ListEnabledHosts 列出所有启用状态（status=0）的主机。
func (c *Client) ListEnabledHosts(ctx context.Context) ([]domain.HostRecord, error) {
	params := map[string]any{
		"output": []string{"hostid", "host", "name", "status"},
		"filter": map[string]any{"status": 0},
	}
	var hosts []domain.HostRecord
	if err := c.call(ctx, "host.get", params, &hosts); err != nil {
		return nil, err
	}
	return hosts, nil
}

// FetchMetrics 并发发起四个 item.get 查询并按 hostid 合并。
// 每台请求的主机都先以 0 占位，解析失败的值被忽略。
func (c *Client) FetchMetrics(ctx context.Context, hostIDs []string) (map[string]domain.Metrics, error) {
	result := make(map[string]domain.Metrics, len(hostIDs))
	for _, id := range hostIDs {
		result[id] = domain.Metrics{}
	}
	if len(hostIDs) == 0 {
		return result, nil
	}

	items := make([][]item, len(metricFamilies))
	g, gctx := errgroup.WithContext(ctx)
	for i, family := range metricFamilies {
		i, family := i, family
		g.Go(func() error {
			params := map[string]any{
				"output":                 []string{"itemid", "hostid", "lastvalue", "name"},
				"hostids":                hostIDs,
				"search":                 map[string]string{"key_": family.key},
				"searchWildcardsEnabled": true,
			}
			return c.call(gctx, "item.get", params, &items[i])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, family := range metricFamilies {
		for _, it := range items[i] {
			m, ok := result[it.HostID]
			if !ok {
				continue
			}
			v, ok := parseMetric(it.LastValue)
			if !ok {
				metrics.MetricParseFailures.WithLabelValues(family.key).Inc()
				c.logger.Debug("ignore unparsable metric value",
					zap.String("key", family.key),
					zap.String("hostid", it.HostID),
					zap.String("itemid", it.ItemID),
					zap.String("lastvalue", it.LastValue))
				continue
			}
			family.set(&m, v)
			result[it.HostID] = m
		}
	}
	return result, nil
}

// FetchActiveProblems 获取当前未关闭的告警，按 eventid 倒序。
func (c *Client) FetchActiveProblems(ctx context.Context) ([]domain.Problem, error) {
	params := map[string]any{
		"output":      []string{"eventid", "objectid", "name", "severity", "clock", "acknowledged"},
		"recent":      true,
		"sortfield":   []string{"eventid"},
		"sortorder":   "DESC",
		"selectHosts": []string{"hostid", "name"},
	}
	var raw []problem
	if err := c.call(ctx, "problem.get", params, &raw); err != nil {
		return nil, err
	}
	problems := make([]domain.Problem, 0, len(raw))
	for _, p := range raw {
		problems = append(problems, toProblem(p))
	}
	return problems, nil
}

// FetchAvailability 查询主机接口可用性；任一接口可用即视为 up。
func (c *Client) FetchAvailability(ctx context.Context, hostIDs []string) (map[string]domain.Status, error) {
	availability := make(map[string]domain.Status, len(hostIDs))
	if len(hostIDs) == 0 {
		return availability, nil
	}
	params := map[string]any{
		"output":  []string{"hostid", "available"},
		"hostids": hostIDs,
	}
	var interfaces []hostInterface
	if err := c.call(ctx, "hostinterface.get", params, &interfaces); err != nil {
		return nil, err
	}
	for _, iface := range interfaces {
		status := availabilityFromString(iface.Available)
		if availability[iface.HostID] == domain.StatusUp {
			continue
		}
		availability[iface.HostID] = status
	}
	return availability, nil
}

func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	var token string
	if c.tokenSource != nil {
		t, err := c.tokenSource.Token(ctx)
		if err != nil {
			return &RemoteError{Method: method, Err: fmt.Errorf("获取 token 失败: %w", err)}
		}
		token = t
	}
	err := doRPC(ctx, c.httpClient, c.url, token, c.nextID.Add(1), method, params, out)
	var rpcErr *RPCError
	if err != nil && token != "" && errors.As(err, &rpcErr) && rpcErr.sessionExpired() {
		if inv, ok := c.tokenSource.(invalidator); ok {
			inv.Invalidate(token)
			c.logger.Warn("zabbix session rejected, will re-login on next call", zap.String("method", method))
		}
	}
	return err
}

func doRPC(ctx context.Context, httpClient *http.Client, url, token string, id int64, method string, params any, out any) error {
	wrap := func(err error) error { return &RemoteError{Method: method, Err: err} }

	payload, err := json.Marshal(request{JSONRPC: "2.0", Method: method, Params: params, ID: id})
	if err != nil {
		return wrap(fmt.Errorf("编码请求失败: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return wrap(fmt.Errorf("构建请求失败: %w", err))
	}
	req.Header.Set("Content-Type", "application/json-rpc")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return wrap(fmt.Errorf("请求 Zabbix 失败: %w", err))
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return wrap(fmt.Errorf("读取 Zabbix 响应失败: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return wrap(fmt.Errorf("Zabbix 返回状态码 %d", resp.StatusCode))
	}

	var envelope response
	if err := json.Unmarshal(body, &envelope); err != nil {
		return wrap(fmt.Errorf("解析 Zabbix 响应失败: %w", err))
	}
	if envelope.Error != nil {
		return wrap(envelope.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return wrap(fmt.Errorf("解析 result 失败: %w", err))
	}
	return nil
}

package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"zabbix2es/internal/domain"
	"zabbix2es/internal/graph"
	"zabbix2es/internal/store"
)

// Service 负责装配各个 Flow 并提供统一入口。
type Service struct {
	cfg       Config
	source    Source
	store     *store.Client
	projector *graph.Projector
	InitFlow  *InitFlow
	Cycle     *Cycle
	logger    *zap.Logger
}

// NewService 根据已构建的客户端装配 Service，projector 为 nil 时不做图投影。
func NewService(cfg Config, source Source, storeClient *store.Client, projector *graph.Projector, logger *zap.Logger) (*Service, error) {
	if source == nil {
		return nil, fmt.Errorf("必须提供监控数据源")
	}
	if storeClient == nil {
		return nil, fmt.Errorf("必须提供 store client")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	initFlow := &InitFlow{Store: storeClient, Logger: logger}
	cycle := &Cycle{Source: source, Sink: storeClient, Logger: logger}
	if projector != nil {
		initFlow.Graph = projector
		cycle.Graph = projector
	}

	return &Service{
		cfg:       cfg,
		source:    source,
		store:     storeClient,
		projector: projector,
		InitFlow:  initFlow,
		Cycle:     cycle,
		logger:    logger,
	}, nil
}

// Close 释放资源。
func (s *Service) Close(context.Context) error {
	if s.logger != nil {
		_ = s.logger.Sync()
	}
	return nil
}

// Init 确保索引（以及可选的图约束）存在。
func (s *Service) Init(ctx context.Context) error {
	if s.InitFlow == nil {
		return fmt.Errorf("未初始化 init flow")
	}
	return s.InitFlow.Run(ctx)
}

// Collect 执行一次采集周期。
func (s *Service) Collect(ctx context.Context) Report {
	if s.Cycle == nil {
		return Report{Err: fmt.Errorf("未初始化 collection cycle")}
	}
	return s.Cycle.Run(ctx)
}

// Validate 只读地检查数据源可达以及索引已创建。
func (s *Service) Validate(ctx context.Context) error {
	hosts, err := s.source.ListEnabledHosts(ctx)
	if err != nil {
		return fmt.Errorf("监控数据源不可用: %w", err)
	}
	missing, err := s.store.MissingIndices(ctx)
	if err != nil {
		return fmt.Errorf("文档存储不可用: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("索引未创建: %s", strings.Join(missing, ","))
	}
	s.logger.Info("validate passed", zap.Int("enabled_hosts", len(hosts)))
	return nil
}

// SecurityLogs 查询安全日志，失败时返回空列表。
func (s *Service) SecurityLogs(ctx context.Context, size int) []domain.SecurityLog {
	return s.store.SecurityLogs(ctx, size)
}

// HostTopology 读取图中的主机及其告警。
func (s *Service) HostTopology(ctx context.Context, hostID string) (graph.Topology, bool, error) {
	return s.projector.HostTopology(ctx, hostID)
}

// Config 返回服务使用的配置。
func (s *Service) Config() Config {
	return s.cfg
}

// Logger 返回服务使用的 logger。
func (s *Service) Logger() *zap.Logger {
	return s.logger
}

package ioc

import (
	"context"

	"go.uber.org/zap"

	"zabbix2es/internal/app"
	"zabbix2es/internal/graph"
)

// InitGraphClient 构建 Neo4j 客户端，未配置 neo4j.uri 时返回 nil。
func InitGraphClient(ctx context.Context, cfg app.Config, logger *zap.Logger) (*graph.Client, func(), error) {
	if !cfg.GraphEnabled() {
		logger.Info("graph projection disabled")
		return nil, func() {}, nil
	}
	client, err := graph.NewClient(ctx, graph.Config{
		URI:                  cfg.Neo4j.URI,
		Username:             cfg.Neo4j.Username,
		Password:             cfg.Neo4j.Password,
		Database:             cfg.Neo4j.Database,
		MaxConnectionPool:    cfg.Neo4j.MaxConnectionPool,
		ConnectionTimeoutSec: cfg.Neo4j.ConnectTimeoutSecond,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(context.Background()); err != nil {
			logger.Warn("close neo4j client failed", zap.Error(err))
		}
	}
	return client, cleanup, nil
}

// InitProjector 构建图投影，client 为 nil 时返回 nil。
func InitProjector(client *graph.Client, cfg app.Config, logger *zap.Logger) *graph.Projector {
	if client == nil {
		return nil
	}
	return graph.NewProjector(client, cfg.Neo4j.BatchSize, logger)
}

package ioc

import (
	"time"

	"go.uber.org/zap"

	"zabbix2es/internal/app"
	"zabbix2es/internal/store"
)

// InitDocumentStore 构建 Elasticsearch 文档存储。
func InitDocumentStore(cfg app.Config) (store.DocumentStore, error) {
	return store.NewElasticStore(store.ElasticConfig{
		Addresses:          cfg.Elastic.Addresses,
		Username:           cfg.Elastic.Username,
		Password:           cfg.Elastic.Password,
		InsecureSkipVerify: cfg.Elastic.InsecureSkipVerify,
		Timeout:            time.Duration(cfg.Elastic.TimeoutSecond) * time.Second,
	})
}

// InitStoreClient 构建按集合写入的 store client，未配置的索引名使用默认值。
func InitStoreClient(docs store.DocumentStore, cfg app.Config, logger *zap.Logger) (*store.Client, error) {
	idx := cfg.Elastic.Indices
	return store.NewClient(docs, store.Indices{
		Hosts:        idx.Hosts,
		Problems:     idx.Problems,
		FleetSummary: idx.FleetSummary,
		SecurityLogs: idx.SecurityLogs,
	}, logger)
}

package ioc

import "github.com/google/wire"

// ProviderSet 汇总 HTTP 服务需要的全部 provider。
var ProviderSet = wire.NewSet(
	InitConfig,
	InitLogger,
	InitMonitoringClient,
	InitDocumentStore,
	InitStoreClient,
	InitGraphClient,
	InitProjector,
	InitAppService,
	InitScheduler,
	InitHeartbeat,
	InitMetricsRegistry,
	InitStatusHandler,
	InitGinEngine,
)

package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "zabbix2es_cycle_duration_seconds",
		Help:    "单次采集周期耗时",
		Buckets: prometheus.DefBuckets,
	})

	CyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zabbix2es_cycles_total",
		Help: "已执行的采集周期数",
	})

	CycleFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zabbix2es_cycle_failures_total",
		Help: "失败的采集周期数",
	})

	HostsUp = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "zabbix2es_hosts_up",
		Help: "最近一次周期 up 的主机数",
	})

	HostsDown = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "zabbix2es_hosts_down",
		Help: "最近一次周期 down 的主机数",
	})

	StoreWriteFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zabbix2es_store_write_failures_total",
		Help: "写入文档存储失败的文档数",
	}, []string{"collection"})

	MetricParseFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zabbix2es_metric_parse_failures_total",
		Help: "无法解析为数字的指标值个数",
	}, []string{"key"})
)

// MustRegister 注册指标，可在 main 中调用。
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(CycleDuration, CyclesTotal, CycleFailures, HostsUp, HostsDown, StoreWriteFailures, MetricParseFailures)
}

package domain

import "time"

// Status 是主机的二值可用状态。
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// Severity 是告警的符号化级别。
type Severity string

const (
	SeverityNotClassified Severity = "not_classified"
	SeverityInformation   Severity = "information"
	SeverityWarning       Severity = "warning"
	SeverityAverage       Severity = "average"
	SeverityHigh          Severity = "high"
	SeverityDisaster      Severity = "disaster"
)

// HostRecord 是监控源返回的原始主机清单记录。
type HostRecord struct {
	ID     string `json:"hostid"`
	Host   string `json:"host"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Metrics 是单台主机的资源指标，缺失的字段保持 0。
type Metrics struct {
	CPU          float64
	RAM          float64
	BandwidthIn  float64
	BandwidthOut float64
}

// Host 是一次采集周期内某台主机的不可变快照。
// 数值字段不带 omitempty，下游可以依赖字段始终存在。
type Host struct {
	ID              string    `json:"hostid"`
	Name            string    `json:"host"`
	DisplayName     string    `json:"name"`
	Status          Status    `json:"status"`
	CPUPercent      float64   `json:"cpu"`
	RAMPercent      float64   `json:"ram"`
	BandwidthInBps  float64   `json:"bandwidth_in"`
	BandwidthOutBps float64   `json:"bandwidth_out"`
	ObservedAt      time.Time `json:"timestamp"`
}

// Problem 表示监控源中一条未关闭的告警。
type Problem struct {
	EventID      string    `json:"eventid"`
	ObjectID     string    `json:"objectid"`
	Name         string    `json:"name"`
	Severity     Severity  `json:"severity"`
	OccurredAt   string    `json:"clock"`
	HostID       string    `json:"hostid"`
	HostName     string    `json:"host"`
	Acknowledged bool      `json:"acknowledged"`
	ObservedAt   time.Time `json:"timestamp"`
}

// FleetSummary 汇总一个周期内全部主机的 up/down 数量。
type FleetSummary struct {
	Total        int       `json:"total"`
	Up           int       `json:"up"`
	Down         int       `json:"down"`
	UpPercentage float64   `json:"percentage"`
	ObservedAt   time.Time `json:"timestamp"`
}

// SecurityLog 是从日志索引中查询出的安全相关日志。
type SecurityLog struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
	Level     string `json:"level"`
	Source    string `json:"source"`
	Type      string `json:"type"`
}

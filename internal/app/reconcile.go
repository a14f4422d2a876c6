package app

import (
	"time"

	"zabbix2es/internal/domain"
)

// Reconcile 按 hostid 关联清单、指标和可用性，生成主机快照和全局汇总。
// 纯函数：缺失的指标为 0，缺失的可用性为 down，所有记录共享同一个 at。
func Reconcile(inventory []domain.HostRecord, metrics map[string]domain.Metrics, availability map[string]domain.Status, at time.Time) ([]domain.Host, domain.FleetSummary) {
	hosts := make([]domain.Host, 0, len(inventory))
	summary := domain.FleetSummary{Total: len(inventory), ObservedAt: at}

	for _, rec := range inventory {
		m := metrics[rec.ID]
		status := availability[rec.ID]
		if status != domain.StatusUp {
			status = domain.StatusDown
		}
		hosts = append(hosts, domain.Host{
			ID:              rec.ID,
			Name:            rec.Host,
			DisplayName:     rec.Name,
			Status:          status,
			CPUPercent:      m.CPU,
			RAMPercent:      m.RAM,
			BandwidthInBps:  m.BandwidthIn,
			BandwidthOutBps: m.BandwidthOut,
			ObservedAt:      at,
		})
		if status == domain.StatusUp {
			summary.Up++
		} else {
			summary.Down++
		}
	}
	if summary.Total > 0 {
		summary.UpPercentage = float64(summary.Up) / float64(summary.Total) * 100
	}
	return hosts, summary
}

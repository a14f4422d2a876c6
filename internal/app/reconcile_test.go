package app

import (
	"fmt"
	"testing"
	"testing/quick"
	"time"

	"zabbix2es/internal/domain"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func TestReconcileScenario(t *testing.T) {
	inventory := []domain.HostRecord{{ID: "10084", Host: "srv1", Name: "Server 1"}}
	metrics := map[string]domain.Metrics{"10084": {CPU: 42.5}}
	availability := map[string]domain.Status{"10084": domain.StatusUp}

	hosts, summary := Reconcile(inventory, metrics, availability, fixedNow)
	if len(hosts) != 1 {
		t.Fatalf("expected 1 host, got %d", len(hosts))
	}
	h := hosts[0]
	if h.ID != "10084" || h.Name != "srv1" || h.DisplayName != "Server 1" || h.Status != domain.StatusUp {
		t.Fatalf("unexpected host %+v", h)
	}
	if h.CPUPercent != 42.5 || h.RAMPercent != 0 || h.BandwidthInBps != 0 || h.BandwidthOutBps != 0 {
		t.Fatalf("unexpected metrics %+v", h)
	}
	if !h.ObservedAt.Equal(fixedNow) {
		t.Fatalf("unexpected timestamp %v", h.ObservedAt)
	}
	if summary.Total != 1 || summary.Up != 1 || summary.Down != 0 || summary.UpPercentage != 100 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestReconcileDefaultsMissingData(t *testing.T) {
	inventory := []domain.HostRecord{{ID: "1"}, {ID: "2"}}
	hosts, summary := Reconcile(inventory, nil, nil, fixedNow)
	for _, h := range hosts {
		if h.Status != domain.StatusDown {
			t.Fatalf("missing availability should default to down, got %s", h.Status)
		}
		if h.CPUPercent != 0 || h.RAMPercent != 0 {
			t.Fatalf("missing metrics should be 0, got %+v", h)
		}
	}
	if summary.Down != 2 || summary.UpPercentage != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestReconcileEmptyInventory(t *testing.T) {
	hosts, summary := Reconcile(nil, nil, nil, fixedNow)
	if len(hosts) != 0 {
		t.Fatalf("expected no hosts")
	}
	if summary.Total != 0 || summary.Up != 0 || summary.Down != 0 || summary.UpPercentage != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestReconcileIgnoresUnexpectedStatus(t *testing.T) {
	inventory := []domain.HostRecord{{ID: "1"}}
	hosts, _ := Reconcile(inventory, nil, map[string]domain.Status{"1": "maintenance"}, fixedNow)
	if hosts[0].Status != domain.StatusDown {
		t.Fatalf("unknown status must collapse to down, got %s", hosts[0].Status)
	}
}

func TestReconcileProperties(t *testing.T) {
	property := func(ids []uint16, upMask []bool, cpu []float32) bool {
		inventory := make([]domain.HostRecord, 0, len(ids))
		metrics := map[string]domain.Metrics{}
		availability := map[string]domain.Status{}
		for i, raw := range ids {
			id := fmt.Sprintf("%d-%d", i, raw)
			inventory = append(inventory, domain.HostRecord{ID: id})
			if i < len(upMask) && upMask[i] {
				availability[id] = domain.StatusUp
			}
			if i < len(cpu) {
				metrics[id] = domain.Metrics{CPU: float64(cpu[i])}
			}
		}
		hosts, summary := Reconcile(inventory, metrics, availability, fixedNow)
		if len(hosts) != len(inventory) || summary.Total != len(inventory) {
			return false
		}
		if summary.Up+summary.Down != summary.Total {
			return false
		}
		up := 0
		for i, h := range hosts {
			if h.ID != inventory[i].ID || !h.ObservedAt.Equal(fixedNow) {
				return false
			}
			switch h.Status {
			case domain.StatusUp:
				up++
			case domain.StatusDown:
			default:
				return false
			}
		}
		if up != summary.Up {
			return false
		}
		if summary.Total == 0 {
			return summary.UpPercentage == 0
		}
		return summary.UpPercentage >= 0 && summary.UpPercentage <= 100
	}
	if err := quick.Check(property, nil); err != nil {
		t.Fatalf("property violated: %v", err)
	}
}

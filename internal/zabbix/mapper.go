package zabbix

import (
	"math"
	"strconv"
	"strings"

	"zabbix2es/internal/domain"
)

const unknownHost = "Unknown"

var severityByCode = [...]domain.Severity{
	domain.SeverityNotClassified,
	domain.SeverityInformation,
	domain.SeverityWarning,
	domain.SeverityAverage,
	domain.SeverityHigh,
	domain.SeverityDisaster,
}

// SeverityFromCode 将 0..5 的数字级别转换为符号级别，越界一律 not_classified。
func SeverityFromCode(code int) domain.Severity {
	if code < 0 || code >= len(severityByCode) {
		return domain.SeverityNotClassified
	}
	return severityByCode[code]
}

func severityFromString(raw string) domain.Severity {
	code, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return domain.SeverityNotClassified
	}
	return SeverityFromCode(code)
}

// 接口可用性：0=unknown，1=available，2=unavailable。
const (
	AvailabilityUnknown     = 0
	AvailabilityAvailable   = 1
	AvailabilityUnavailable = 2
)

// AvailabilityFromCode 把三态可用性压成 up/down，unknown 视为 down。
func AvailabilityFromCode(code int) domain.Status {
	if code == AvailabilityAvailable {
		return domain.StatusUp
	}
	return domain.StatusDown
}

func availabilityFromString(raw string) domain.Status {
	code, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return domain.StatusDown
	}
	return AvailabilityFromCode(code)
}

// parseMetric 解析 lastvalue，失败返回 false，调用方保留默认值 0。
// NaN 和 ±Inf 无法写入 JSON 文档，同样视为解析失败。
func parseMetric(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func toProblem(p problem) domain.Problem {
	out := domain.Problem{
		EventID:      p.EventID,
		ObjectID:     p.ObjectID,
		Name:         p.Name,
		Severity:     severityFromString(p.Severity),
		OccurredAt:   p.Clock,
		HostName:     unknownHost,
		Acknowledged: p.Acknowledged == "1",
	}
	if len(p.Hosts) > 0 {
		out.HostID = p.Hosts[0].HostID
		out.HostName = p.Hosts[0].Name
	}
	return out
}

package domain

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// HostDocumentID 生成主机文档 ID：同一主机同一自然日（UTC）只保留一条。
func HostDocumentID(hostID string, observedAt time.Time) string {
	return fmt.Sprintf("%s_%s", hostID, observedAt.UTC().Format(dayLayout))
}

// ProblemDocumentID 告警文档直接以 eventid 为键，跨天覆盖。
func ProblemDocumentID(p Problem) string {
	return p.EventID
}

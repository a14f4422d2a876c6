package store

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"zabbix2es/internal/domain"
)

// 安全日志分类。
const (
	LogTypeBruteforce = "bruteforce"
	LogTypeDDoS       = "ddos"
	LogTypeNormal     = "normal"
)

const defaultSecurityLogSize = 100

type rawLog struct {
	Timestamp string `json:"@timestamp"`
	Message   string `json:"message"`
	Event     struct {
		Outcome string `json:"outcome"`
	} `json:"event"`
	Log struct {
		Level string `json:"level"`
	} `json:"log"`
	Host struct {
		Name string `json:"name"`
	} `json:"host"`
}

func securityQuery(size int) map[string]any {
	return map[string]any{
		"size": size,
		"sort": []any{map[string]any{"@timestamp": map[string]any{"order": "desc"}}},
		"query": map[string]any{
			"bool": map[string]any{
				"should": []any{
					map[string]any{"match": map[string]any{"event.outcome": "failure"}},
					map[string]any{"wildcard": map[string]any{"message": "*Failed password*"}},
					map[string]any{"wildcard": map[string]any{"message": "*authentication failure*"}},
					map[string]any{"match": map[string]any{"message": "HTTP"}},
				},
				"minimum_should_match": 1,
			},
		},
	}
}

// SecurityLogs 查询暴力破解、DDoS 相关日志。属于辅助读取，任何失败都返回空列表。
func (c *Client) SecurityLogs(ctx context.Context, size int) []domain.SecurityLog {
	if size <= 0 {
		size = defaultSecurityLogSize
	}
	query, err := json.Marshal(securityQuery(size))
	if err != nil {
		c.logger.Warn("could not build security log query", zap.Error(err))
		return []domain.SecurityLog{}
	}
	hits, err := c.docs.Search(ctx, c.indices.SecurityLogs, query, size)
	if err != nil {
		c.logger.Warn("could not fetch security logs", zap.Strings("indices", c.indices.SecurityLogs), zap.Error(err))
		return []domain.SecurityLog{}
	}
	logs := make([]domain.SecurityLog, 0, len(hits))
	for _, hit := range hits {
		var raw rawLog
		if err := json.Unmarshal(hit.Source, &raw); err != nil {
			c.logger.Debug("skip undecodable log document", zap.String("id", hit.ID), zap.Error(err))
			continue
		}
		logs = append(logs, toSecurityLog(hit.ID, raw))
	}
	return logs
}

func toSecurityLog(id string, raw rawLog) domain.SecurityLog {
	logType := ClassifyLog(raw.Message, raw.Event.Outcome)
	source := raw.Host.Name
	if source == "" {
		source = "unknown"
	}
	return domain.SecurityLog{
		ID:        id,
		Timestamp: raw.Timestamp,
		Message:   raw.Message,
		Level:     logLevel(logType, raw.Log.Level),
		Source:    source,
		Type:      logType,
	}
}

// ClassifyLog 按消息内容把日志归为 bruteforce、ddos 或 normal。
func ClassifyLog(message, outcome string) string {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "failed password"),
		strings.Contains(msg, "authentication failure"),
		strings.Contains(msg, "invalid user"):
		return LogTypeBruteforce
	case strings.Contains(msg, "flood"),
		strings.Contains(msg, "rate exceeded"),
		strings.Contains(msg, "ddos"):
		return LogTypeDDoS
	case strings.EqualFold(outcome, "failure"):
		return LogTypeBruteforce
	default:
		return LogTypeNormal
	}
}

func logLevel(logType, original string) string {
	switch strings.ToLower(original) {
	case "info", "warning", "error", "critical":
		return strings.ToLower(original)
	case "warn":
		return "warning"
	}
	switch logType {
	case LogTypeDDoS:
		return "critical"
	case LogTypeBruteforce:
		return "error"
	default:
		return "info"
	}
}

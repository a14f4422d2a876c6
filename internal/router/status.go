package router

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"zabbix2es/internal/domain"
	"zabbix2es/internal/graph"
	"zabbix2es/internal/job"
)

const maxSecurityLogSize = 1000

// SnapshotProvider 提供调度器状态。
type SnapshotProvider interface {
	Snapshot() job.Snapshot
}

// QueryService 提供只读查询。
type QueryService interface {
	SecurityLogs(ctx context.Context, size int) []domain.SecurityLog
	HostTopology(ctx context.Context, hostID string) (graph.Topology, bool, error)
}

// StatusHandler 负责采集器状态和查询相关的 HTTP 请求。
type StatusHandler struct {
	scheduler SnapshotProvider
	query     QueryService
	logger    *zap.Logger
}

// NewStatusHandler 构建一个新的 StatusHandler。
func NewStatusHandler(scheduler SnapshotProvider, query QueryService, logger *zap.Logger) *StatusHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusHandler{scheduler: scheduler, query: query, logger: logger}
}

// RegisterRoutes 将 /api/v1 下的路由注册到给定的路由组。
func (h *StatusHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/collector/status", h.handleStatus)
	rg.GET("/security/logs", h.handleSecurityLogs)
	rg.GET("/topology/hosts/:id", h.handleHostTopology)
}

func (h *StatusHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "state": h.scheduler.Snapshot().State})
}

type statusResponse struct {
	job.Snapshot
	LastError string `json:"last_error,omitempty"`
}

func (h *StatusHandler) handleStatus(c *gin.Context) {
	snap := h.scheduler.Snapshot()
	resp := statusResponse{Snapshot: snap}
	if snap.LastReport != nil && snap.LastReport.Err != nil {
		resp.LastError = snap.LastReport.Err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StatusHandler) handleSecurityLogs(c *gin.Context) {
	size := 0
	if raw := strings.TrimSpace(c.Query("size")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "size must be a positive integer"})
			return
		}
		size = min(n, maxSecurityLogSize)
	}
	logs := h.query.SecurityLogs(c.Request.Context(), size)
	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

func (h *StatusHandler) handleHostTopology(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	topo, found, err := h.query.HostTopology(c.Request.Context(), id)
	switch {
	case errors.Is(err, graph.ErrDisabled):
		c.JSON(http.StatusNotFound, gin.H{"error": "graph projection disabled"})
	case err != nil:
		h.logger.Error("host topology failed", zap.String("hostid", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	case !found:
		c.JSON(http.StatusNotFound, gin.H{"error": "host not found"})
	default:
		c.JSON(http.StatusOK, topo)
	}
}

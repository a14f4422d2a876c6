package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"zabbix2es/internal/app"
	"zabbix2es/internal/job"
	"zabbix2es/pkg/util"
)

const shutdownTimeout = 10 * time.Second

// 启动时等待文档存储就绪。
var startupBackoff = util.Backoff{Attempts: 5, Initial: 2 * time.Second, Max: 30 * time.Second}

// Initializer 在启动时建索引，退出时释放资源。
type Initializer interface {
	Init(ctx context.Context) error
	Close(ctx context.Context) error
}

// Starter 是后台任务，Start 返回停止函数。
type Starter interface {
	Start(parent context.Context) context.CancelFunc
}

// HTTPServer 封装 HTTP 服务运行所需的依赖。
type HTTPServer struct {
	Engine    http.Handler
	Logger    *zap.Logger
	Config    app.Config
	Service   Initializer
	Job       Starter
	Heartbeat Starter
	Backoff   util.Backoff
}

// NewHTTPServer 构建 HTTPServer。
func NewHTTPServer(engine *gin.Engine, logger *zap.Logger, cfg app.Config, svc *app.Service, scheduler *job.Scheduler, heartbeat *job.Heartbeat) *HTTPServer {
	s := &HTTPServer{
		Engine:  engine,
		Logger:  logger,
		Config:  cfg,
		Backoff: startupBackoff,
	}
	if svc != nil {
		s.Service = svc
	}
	if scheduler != nil {
		s.Job = scheduler
	}
	if heartbeat != nil {
		s.Heartbeat = heartbeat
	}
	return s
}

// Run 按顺序执行：建索引（带退避重试）、启动调度器和心跳、启动 HTTP 服务；
// ctx 结束后先关闭 HTTP 服务，再依次停止心跳和调度器。
func (s *HTTPServer) Run(ctx context.Context) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	listen := strings.TrimSpace(s.Config.HTTP.Listen)
	if listen == "" {
		listen = ":8080"
	}

	if s.Service != nil {
		err := util.Retry(ctx, s.Backoff, func(int) error { return s.Service.Init(ctx) },
			func(attempt int, wait time.Duration, err error) {
				logger.Warn("ensure schema failed, retrying", zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
			})
		if err != nil {
			return err
		}
	}

	if s.Job != nil {
		defer s.Job.Start(ctx)()
	}
	if s.Heartbeat != nil {
		defer s.Heartbeat.Start(ctx)()
	}

	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", listen, err)
	}
	srv := &http.Server{Handler: s.Engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("listen", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// Shutdown 释放资源。
func (s *HTTPServer) Shutdown(ctx context.Context) {
	if s.Service != nil {
		if err := s.Service.Close(ctx); err != nil && s.Logger != nil {
			s.Logger.Warn("close app service failed", zap.Error(err))
		}
	}
	if s.Logger != nil {
		_ = s.Logger.Sync()
	}
}

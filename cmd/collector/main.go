package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"zabbix2es/internal/app"
	"zabbix2es/ioc"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "执行失败: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:   "collector",
		Short: "把 Zabbix 主机、指标和告警同步到 Elasticsearch",
		Long: `collector 负责一次性运维操作:

  init       创建缺失的索引（以及可选的图约束）
  collect    执行一次采集周期并输出报告
  run        持续采集直到收到退出信号
  validate   只读检查 Zabbix 与索引是否就绪`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", ioc.DefaultConfigPath, "配置文件路径")

	withService := func(fn func(ctx context.Context, svc *app.Service) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, cleanup, err := buildService(ctx, ioc.ConfigPath(configPath))
			if err != nil {
				return fmt.Errorf("构建服务失败: %w", err)
			}
			defer cleanup()
			defer func() { _ = svc.Close(ctx) }()
			return fn(ctx, svc)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "创建缺失的索引",
			Args:  cobra.NoArgs,
			RunE: withService(func(ctx context.Context, svc *app.Service) error {
				return svc.Init(ctx)
			}),
		},
		&cobra.Command{
			Use:   "collect",
			Short: "执行一次采集周期",
			Args:  cobra.NoArgs,
			RunE: withService(func(ctx context.Context, svc *app.Service) error {
				report := svc.Collect(ctx)
				if err := json.NewEncoder(os.Stdout).Encode(report); err != nil {
					return err
				}
				return report.Err
			}),
		},
		&cobra.Command{
			Use:   "run",
			Short: "持续采集直到退出",
			Args:  cobra.NoArgs,
			RunE: withService(func(ctx context.Context, svc *app.Service) error {
				if err := svc.Init(ctx); err != nil {
					return err
				}
				return ioc.InitScheduler(svc.Config(), svc, svc.Logger()).Run(ctx)
			}),
		},
		&cobra.Command{
			Use:   "validate",
			Short: "只读检查依赖是否就绪",
			Args:  cobra.NoArgs,
			RunE: withService(func(ctx context.Context, svc *app.Service) error {
				return svc.Validate(ctx)
			}),
		},
	)
	return root
}

func buildService(ctx context.Context, path ioc.ConfigPath) (*app.Service, func(), error) {
	cfg, err := ioc.InitConfig(path)
	if err != nil {
		return nil, nil, err
	}
	logger, err := ioc.InitLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	source, err := ioc.InitMonitoringClient(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	docs, err := ioc.InitDocumentStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	storeClient, err := ioc.InitStoreClient(docs, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	graphClient, cleanup, err := ioc.InitGraphClient(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	svc, err := ioc.InitAppService(cfg, source, storeClient, ioc.InitProjector(graphClient, cfg, logger), logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}

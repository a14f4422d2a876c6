package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"zabbix2es/ioc"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", ioc.DefaultConfigPath, "配置文件路径")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, cleanup, err := InitApp(ctx, ioc.ConfigPath(configPath))
	if err != nil {
		log.Fatalf("init app failed: %v", err)
	}
	defer cleanup()
	defer app.Shutdown(context.Background())

	if err := app.Run(ctx); err != nil {
		log.Printf("app run failed: %v", err)
	}
}

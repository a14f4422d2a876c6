//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"zabbix2es/ioc"
	"zabbix2es/pkg/server"
)

func InitApp(ctx context.Context, path ioc.ConfigPath) (*server.HTTPServer, func(), error) {
	panic(wire.Build(
		ioc.ProviderSet,
		server.NewHTTPServer,
	))
}

package ioc

import (
	"strings"

	"zabbix2es/internal/app"
)

const DefaultConfigPath = "configs/config.yaml"

// ConfigPath 是配置文件路径，空值使用默认路径。
type ConfigPath string

// InitConfig 读取应用配置。
func InitConfig(path ConfigPath) (app.Config, error) {
	p := strings.TrimSpace(string(path))
	if p == "" {
		p = DefaultConfigPath
	}
	return app.LoadConfig(p)
}

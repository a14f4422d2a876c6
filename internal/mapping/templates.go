package mapping

import (
	"embed"
	"fmt"
)

//go:embed *.json
var files embed.FS

const (
	Hosts        = "hosts.json"
	Problems     = "problems.json"
	FleetSummary = "fleet_summary.json"
)

// MustAsset 返回索引 mapping 原文，缺失直接 panic，便于在启动阶段暴露错误。
func MustAsset(name string) []byte {
	b, err := files.ReadFile(name)
	if err != nil {
		panic(fmt.Errorf("load %s failed: %w", name, err))
	}
	return b
}

package cypher

import (
	"embed"
	"fmt"
	"strings"
)

// 投影使用的语句文件。
const (
	InitSchema     = "init_schema.cql"
	UpsertHosts    = "upsert_hosts.cql"
	UpsertProblems = "upsert_problems.cql"
	CleanProblems  = "clean_problems.cql"
	HostTopology   = "host_topology.cql"
)

//go:embed *.cql
var files embed.FS

// MustAsset 返回 Cypher 原文，缺失直接 panic，便于在初始化阶段暴露错误。
func MustAsset(name string) string {
	b, err := files.ReadFile(name)
	if err != nil {
		panic(fmt.Errorf("load cypher %s failed: %w", name, err))
	}
	return string(b)
}

// MustStatements 按分号拆分多语句文件，忽略空语句。
func MustStatements(name string) []string {
	var stmts []string
	for _, raw := range strings.Split(MustAsset(name), ";") {
		if s := strings.TrimSpace(raw); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

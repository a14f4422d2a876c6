package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// SchemaEnsurer 负责一次性建索引。
type SchemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// InitFlow 负责首跑初始化：建索引 -> 建图约束（可选）。
type InitFlow struct {
	Store  SchemaEnsurer
	Graph  SchemaEnsurer
	Logger *zap.Logger
}

// Run 执行初始化流程，重复执行无副作用。
func (f *InitFlow) Run(ctx context.Context) error {
	if f.Store == nil {
		return fmt.Errorf("初始化依赖未注入完整")
	}
	if f.Logger == nil {
		f.Logger = zap.NewNop()
	}
	if err := f.Store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("初始化索引失败: %w", err)
	}
	if f.Graph != nil {
		if err := f.Graph.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("初始化图约束失败: %w", err)
		}
	}
	f.Logger.Info("schema ensured")
	return nil
}

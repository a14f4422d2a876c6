package store

import (
	"context"
	"encoding/json"
)

// Hit 是一次搜索返回的单条文档。
type Hit struct {
	ID     string
	Source json.RawMessage
}

// DocumentStore 抽象文档存储的最小能力，便于测试替换实现。
type DocumentStore interface {
	IndexExists(ctx context.Context, index string) (bool, error)
	CreateIndex(ctx context.Context, index string, mapping []byte) error
	// Upsert 按 id 写入，存在即覆盖。
	Upsert(ctx context.Context, index, id string, doc any) error
	// Insert 追加写入一条新文档，返回新文档 id。
	Insert(ctx context.Context, index string, doc any) (string, error)
	Search(ctx context.Context, indices []string, query []byte, size int) ([]Hit, error)
}

package store

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
)

const defaultTimeout = 30 * time.Second

// ElasticConfig 控制 Elasticsearch 连接参数。
type ElasticConfig struct {
	Addresses          []string
	Username           string
	Password           string
	InsecureSkipVerify bool
	Timeout            time.Duration
	Transport          http.RoundTripper
}

// ElasticStore 基于 go-elasticsearch 实现 DocumentStore。
type ElasticStore struct {
	es      *elasticsearch.Client
	timeout time.Duration
}

// NewElasticStore 创建 Elasticsearch 客户端，连接在整个进程生命周期内复用。
func NewElasticStore(cfg ElasticConfig) (*ElasticStore, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New("elasticsearch addresses 不能为空")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := cfg.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}
		t.ResponseHeaderTimeout = timeout
		transport = t
	}
	esCfg := elasticsearch.Config{
		Addresses:    cfg.Addresses,
		Transport:    transport,
		DisableRetry: true,
	}
	if cfg.Username != "" && cfg.Password != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}
	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("创建 elasticsearch client 失败: %w", err)
	}
	return &ElasticStore{es: es, timeout: timeout}, nil
}

// IndexExists 检查索引是否存在。
func (s *ElasticStore) IndexExists(ctx context.Context, index string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.es.Indices.Exists([]string{index}, s.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("检查索引 %s 失败: %w", index, err)
	}
	defer drain(res)
	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("检查索引 %s 返回状态码 %d", index, res.StatusCode)
	}
}

// CreateIndex 使用给定 mapping 创建索引。
func (s *ElasticStore) CreateIndex(ctx context.Context, index string, mapping []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.es.Indices.Create(index,
		s.es.Indices.Create.WithBody(bytes.NewReader(mapping)),
		s.es.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("创建索引 %s 失败: %w", index, err)
	}
	defer drain(res)
	return checkResponse(res)
}

// Upsert 以指定 id 写入文档，已存在则覆盖。
func (s *ElasticStore) Upsert(ctx context.Context, index, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("编码文档失败: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.es.Index(index, bytes.NewReader(body),
		s.es.Index.WithDocumentID(id),
		s.es.Index.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("写入文档失败: %w", err)
	}
	defer drain(res)
	return checkResponse(res)
}

// Insert 以新的 UUID 作为 id 并使用 create 语义，保证不会覆盖已有文档。
func (s *ElasticStore) Insert(ctx context.Context, index string, doc any) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("编码文档失败: %w", err)
	}
	id := uuid.NewString()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.es.Index(index, bytes.NewReader(body),
		s.es.Index.WithDocumentID(id),
		s.es.Index.WithOpType("create"),
		s.es.Index.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("写入文档失败: %w", err)
	}
	defer drain(res)
	if err := checkResponse(res); err != nil {
		return "", err
	}
	return id, nil
}

// Search 执行查询并返回命中文档。
func (s *ElasticStore) Search(ctx context.Context, indices []string, query []byte, size int) ([]Hit, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(indices...),
		s.es.Search.WithBody(bytes.NewReader(query)),
		s.es.Search.WithSize(size),
		s.es.Search.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return nil, fmt.Errorf("搜索失败: %w", err)
	}
	defer drain(res)
	if err := checkResponse(res); err != nil {
		return nil, err
	}
	var payload struct {
		Hits struct {
			Hits []struct {
				ID     string          `json:"_id"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("解析搜索结果失败: %w", err)
	}
	hits := make([]Hit, 0, len(payload.Hits.Hits))
	for _, h := range payload.Hits.Hits {
		hits = append(hits, Hit{ID: h.ID, Source: h.Source})
	}
	return hits, nil
}

func checkResponse(res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("elasticsearch 返回状态码 %d: %s", res.StatusCode, bytes.TrimSpace(body))
}

func drain(res *esapi.Response) {
	if res == nil || res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()
}

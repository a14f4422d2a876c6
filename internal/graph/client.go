package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const defaultQueryTimeout = 30 * time.Second

// Reader 执行只读查询，每条记录转换为 map。
type Reader interface {
	RunRead(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}

// Writer 在托管写事务中执行语句。
type Writer interface {
	RunWrite(ctx context.Context, query string, params map[string]any) error
}

// Config 描述连接 Neo4j 的必要参数。
type Config struct {
	URI                  string
	Username             string
	Password             string
	Database             string
	MaxConnectionPool    int
	ConnectionTimeoutSec int
	QueryTimeout         time.Duration
}

// Client 持有进程内唯一的 driver，主机和告警投影共用。
type Client struct {
	driver       neo4j.DriverWithContext
	database     string
	queryTimeout time.Duration
}

// NewClient 创建 driver 并确认可连通，失败时不保留任何连接。
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("neo4j uri 不能为空")
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""), func(conf *neo4j.Config) {
		if cfg.MaxConnectionPool > 0 {
			conf.MaxConnectionPoolSize = cfg.MaxConnectionPool
		}
		if cfg.ConnectionTimeoutSec > 0 {
			conf.SocketConnectTimeout = time.Duration(cfg.ConnectionTimeoutSec) * time.Second
		}
	})
	if err != nil {
		return nil, fmt.Errorf("创建 neo4j driver 失败: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j 无法连通 %s: %w", cfg.URI, err)
	}
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &Client{driver: driver, database: cfg.Database, queryTimeout: timeout}, nil
}

// Close 关闭 driver。
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.driver == nil {
		return nil
	}
	return c.driver.Close(ctx)
}

func (c *Client) execute(ctx context.Context, query string, params map[string]any, routing neo4j.ExecuteQueryConfigurationOption) (*neo4j.EagerResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()
	return neo4j.ExecuteQuery(ctx, c.driver, query, params, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.database), routing)
}

// RunWrite 在写事务中执行语句，丢弃结果。
func (c *Client) RunWrite(ctx context.Context, query string, params map[string]any) error {
	if _, err := c.execute(ctx, query, params, neo4j.ExecuteQueryWithWritersRouting()); err != nil {
		return fmt.Errorf("执行写入失败: %w", err)
	}
	return nil
}

// RunRead 在读事务中执行查询。
func (c *Client) RunRead(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	res, err := c.execute(ctx, query, params, neo4j.ExecuteQueryWithReadersRouting())
	if err != nil {
		return nil, fmt.Errorf("执行查询失败: %w", err)
	}
	records := make([]map[string]any, 0, len(res.Records))
	for _, rec := range res.Records {
		records = append(records, rec.AsMap())
	}
	return records, nil
}

// RunRaw 以自动提交方式执行语句，CREATE CONSTRAINT 之类的 schema 语句不能放进托管事务。
func (c *Client) RunRaw(ctx context.Context, query string, params map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()
	sess := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database, AccessMode: neo4j.AccessModeWrite})
	defer sess.Close(ctx)
	res, err := sess.Run(ctx, query, params)
	if err != nil {
		return fmt.Errorf("执行语句失败: %w", err)
	}
	if _, err := res.Consume(ctx); err != nil {
		return fmt.Errorf("执行语句失败: %w", err)
	}
	return nil
}

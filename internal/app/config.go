package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Zabbix struct {
	URL               string `yaml:"url"`
	Token             string `yaml:"token"`
	Username          string `yaml:"username"`
	Password          string `yaml:"password"`
	SessionTTLSeconds int    `yaml:"session_ttl_seconds"`
	TimeoutSecond     int    `yaml:"timeout_second"`
}

type Elastic struct {
	Addresses          []string `yaml:"addresses"`
	Username           string   `yaml:"username"`
	Password           string   `yaml:"password"`
	InsecureSkipVerify bool     `yaml:"insecure_skip_verify"`
	TimeoutSecond      int      `yaml:"timeout_second"`
	Indices            Indices  `yaml:"indices"`
}

type Indices struct {
	Hosts        string   `yaml:"hosts"`
	Problems     string   `yaml:"problems"`
	FleetSummary string   `yaml:"fleet_summary"`
	SecurityLogs []string `yaml:"security_logs"`
}

type Neo4j struct {
	URI                  string `yaml:"uri"`
	Username             string `yaml:"username"`
	Password             string `yaml:"password"`
	Database             string `yaml:"database"`
	MaxConnectionPool    int    `yaml:"max_connections"`
	ConnectTimeoutSecond int    `yaml:"connect_timeout_second"`
	BatchSize            int    `yaml:"batch_size"`
}

type Collect struct {
	IntervalSeconds int    `yaml:"interval_seconds"`
	JobCron         string `yaml:"job_cron"`
	InitialCollect  bool   `yaml:"initial_collect"`
}

type HTTP struct {
	Listen string `yaml:"listen"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Config 在启动时加载一次，之后只读。
type Config struct {
	Zabbix  Zabbix  `yaml:"zabbix"`
	Elastic Elastic `yaml:"elastic"`
	Neo4j   Neo4j   `yaml:"neo4j"`
	Collect Collect `yaml:"collect"`
	HTTP    HTTP    `yaml:"http"`
	Log     Log     `yaml:"log"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		Zabbix:  Zabbix{URL: "http://localhost/api_jsonrpc.php", TimeoutSecond: 30, SessionTTLSeconds: 1800},
		Elastic: Elastic{Addresses: []string{"http://localhost:9200"}, InsecureSkipVerify: true, TimeoutSecond: 30},
		Neo4j:   Neo4j{Database: "neo4j", BatchSize: 100},
		Collect: Collect{IntervalSeconds: 60, InitialCollect: true},
		HTTP:    HTTP{Listen: ":8080"},
		Log:     Log{Level: "info"},
	}
}

// LoadConfig 从文件加载配置，文件不存在时使用默认值，随后叠加环境变量并校验。
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("解析配置失败: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("读取配置失败: %w", err)
	}
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("ZABBIX_URL", &c.Zabbix.URL)
	str("ZABBIX_TOKEN", &c.Zabbix.Token)
	str("ZABBIX_USERNAME", &c.Zabbix.Username)
	str("ZABBIX_PASSWORD", &c.Zabbix.Password)
	str("ELASTIC_USERNAME", &c.Elastic.Username)
	str("ELASTIC_PASSWORD", &c.Elastic.Password)
	str("NEO4J_URI", &c.Neo4j.URI)
	str("LOG_LEVEL", &c.Log.Level)
	if v, ok := lookup("ELASTIC_URL"); ok {
		if addrs := splitAddresses(v); len(addrs) > 0 {
			c.Elastic.Addresses = addrs
		}
	}
	if v, ok := lookup("COLLECT_INTERVAL"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.Collect.IntervalSeconds = n
		}
	}
}

// splitAddresses 按逗号拆分地址列表，去掉空白和空项。
func splitAddresses(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// Validate 校验必填项。
func (c Config) Validate() error {
	if strings.TrimSpace(c.Zabbix.URL) == "" {
		return errors.New("zabbix.url is required")
	}
	if c.Zabbix.Token == "" && (c.Zabbix.Username == "" || c.Zabbix.Password == "") {
		return errors.New("zabbix.token or zabbix.username/password is required")
	}
	if len(c.Elastic.Addresses) == 0 || strings.TrimSpace(c.Elastic.Addresses[0]) == "" {
		return errors.New("elastic.addresses is required")
	}
	if c.Collect.IntervalSeconds <= 0 {
		return fmt.Errorf("collect.interval_seconds must be positive, got %d", c.Collect.IntervalSeconds)
	}
	return nil
}

// Interval 返回采集间隔。
func (c Config) Interval() time.Duration {
	return time.Duration(c.Collect.IntervalSeconds) * time.Second
}

// GraphEnabled 表示是否配置了 Neo4j 投影。
func (c Config) GraphEnabled() bool {
	return strings.TrimSpace(c.Neo4j.URI) != ""
}

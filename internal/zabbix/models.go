package zabbix

import "encoding/json"

type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
	ID      json.RawMessage `json:"id"`
}

// Zabbix 的数值字段在 JSON 中均为字符串。

type item struct {
	ItemID    string `json:"itemid"`
	HostID    string `json:"hostid"`
	LastValue string `json:"lastvalue"`
	Name      string `json:"name"`
}

type problemHost struct {
	HostID string `json:"hostid"`
	Name   string `json:"name"`
}

type problem struct {
	EventID      string        `json:"eventid"`
	ObjectID     string        `json:"objectid"`
	Name         string        `json:"name"`
	Severity     string        `json:"severity"`
	Clock        string        `json:"clock"`
	Acknowledged string        `json:"acknowledged"`
	Hosts        []problemHost `json:"hosts"`
}

type hostInterface struct {
	HostID    string `json:"hostid"`
	Available string `json:"available"`
}

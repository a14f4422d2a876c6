package zabbix

import (
	"fmt"
	"strings"
)

// RPCError 是 Zabbix 返回的应用层错误（响应中的 error 字段）。
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("zabbix api error %d: %s %s", e.Code, e.Message, e.Data)
}

// RemoteError 表示一次远程调用失败，包括传输失败、非 2xx、响应无法解析以及应用层错误。
type RemoteError struct {
	Method string
	Err    error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("zabbix %s failed: %v", e.Method, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// sessionExpired 判断应用层错误是否表示会话失效，需要重新登录。
func (e *RPCError) sessionExpired() bool {
	text := strings.ToLower(e.Message + " " + e.Data)
	return strings.Contains(text, "session terminated") ||
		strings.Contains(text, "not authorised") ||
		strings.Contains(text, "not authorized")
}

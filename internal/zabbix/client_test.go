package zabbix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"zabbix2es/internal/domain"
)

type rpcCall struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
	ID     int64          `json:"id"`
}

// fakeZabbix 按 method 分发响应，itemsByKey 以 search.key_ 区分指标族。
type fakeZabbix struct {
	mu          sync.Mutex
	calls       []rpcCall
	authHeaders []string
	results     map[string]any
	itemsByKey  map[string][]item
	errors      map[string]*RPCError
	status      int
}

func (f *fakeZabbix) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var call rpcCall
		if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
			t.Errorf("decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.calls = append(f.calls, call)
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
		f.mu.Unlock()

		if f.status != 0 {
			w.WriteHeader(f.status)
			return
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": call.ID}
		if rpcErr, ok := f.errors[call.Method]; ok {
			resp["error"] = rpcErr
		} else if call.Method == "item.get" {
			search, _ := call.Params["search"].(map[string]any)
			key, _ := search["key_"].(string)
			items := f.itemsByKey[key]
			if items == nil {
				items = []item{}
			}
			resp["result"] = items
		} else {
			resp["result"] = f.results[call.Method]
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (f *fakeZabbix) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Method)
	}
	return out
}

func newTestClient(t *testing.T, fake *fakeZabbix) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	client, err := NewClient(Config{URL: srv.URL, TokenSource: &StaticTokenSource{Value: "secret"}})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientRequiresURL(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestListEnabledHosts(t *testing.T) {
	fake := &fakeZabbix{results: map[string]any{
		"host.get": []map[string]string{{"hostid": "10084", "host": "srv1", "name": "Server 1", "status": "0"}},
	}}
	client := newTestClient(t, fake)

	hosts, err := client.ListEnabledHosts(context.Background())
	if err != nil {
		t.Fatalf("list hosts: %v", err)
	}
	if len(hosts) != 1 || hosts[0].ID != "10084" || hosts[0].Host != "srv1" || hosts[0].Name != "Server 1" {
		t.Fatalf("unexpected hosts %+v", hosts)
	}
	if fake.authHeaders[0] != "Bearer secret" {
		t.Fatalf("unexpected auth header %q", fake.authHeaders[0])
	}
	filter, _ := fake.calls[0].Params["filter"].(map[string]any)
	if filter["status"] != float64(0) {
		t.Fatalf("expected enabled filter, got %v", fake.calls[0].Params)
	}
}

func TestFetchMetricsMergesFamilies(t *testing.T) {
	fake := &fakeZabbix{itemsByKey: map[string][]item{
		KeyCPU:          {{ItemID: "1", HostID: "10084", LastValue: "42.5"}, {ItemID: "2", HostID: "99999", LastValue: "1"}},
		KeyMemory:       {{ItemID: "3", HostID: "10085", LastValue: "not-a-number"}},
		KeyBandwidthIn:  {{ItemID: "4", HostID: "10084", LastValue: "1024"}},
		KeyBandwidthOut: {{ItemID: "5", HostID: "10085", LastValue: "2048"}},
	}}
	client := newTestClient(t, fake)

	got, err := client.FetchMetrics(context.Background(), []string{"10084", "10085", "10086"})
	if err != nil {
		t.Fatalf("fetch metrics: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected every requested host seeded, got %d", len(got))
	}
	if m := got["10084"]; m.CPU != 42.5 || m.RAM != 0 || m.BandwidthIn != 1024 || m.BandwidthOut != 0 {
		t.Fatalf("unexpected metrics for 10084: %+v", m)
	}
	if m := got["10085"]; m.RAM != 0 || m.BandwidthOut != 2048 {
		t.Fatalf("unexpected metrics for 10085: %+v", m)
	}
	if m := got["10086"]; m != (domain.Metrics{}) {
		t.Fatalf("missing host should be zeroed, got %+v", m)
	}
	if _, ok := got["99999"]; ok {
		t.Fatalf("unrequested host must be ignored")
	}
	if n := len(fake.methods()); n != 4 {
		t.Fatalf("expected 4 item.get calls, got %d", n)
	}
}

func TestFetchMetricsNonFiniteValuesStayZero(t *testing.T) {
	fake := &fakeZabbix{itemsByKey: map[string][]item{
		KeyCPU:          {{ItemID: "1", HostID: "10084", LastValue: "NaN"}},
		KeyMemory:       {{ItemID: "2", HostID: "10084", LastValue: "+Inf"}},
		KeyBandwidthIn:  {{ItemID: "3", HostID: "10084", LastValue: "-Inf"}},
		KeyBandwidthOut: {{ItemID: "4", HostID: "10084", LastValue: "512"}},
	}}
	client := newTestClient(t, fake)

	got, err := client.FetchMetrics(context.Background(), []string{"10084"})
	if err != nil {
		t.Fatalf("fetch metrics: %v", err)
	}
	m := got["10084"]
	if m.CPU != 0 || m.RAM != 0 || m.BandwidthIn != 0 || m.BandwidthOut != 512 {
		t.Fatalf("non-finite values should default to 0, got %+v", m)
	}
	host := domain.Host{ID: "10084", Status: domain.StatusUp, CPUPercent: m.CPU, RAMPercent: m.RAM,
		BandwidthInBps: m.BandwidthIn, BandwidthOutBps: m.BandwidthOut}
	if _, err := json.Marshal(host); err != nil {
		t.Fatalf("host document must stay serializable: %v", err)
	}
}

func TestFetchMetricsEmptyHostsSkipsCalls(t *testing.T) {
	fake := &fakeZabbix{}
	client := newTestClient(t, fake)
	got, err := client.FetchMetrics(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("unexpected result %v %v", got, err)
	}
	if len(fake.methods()) != 0 {
		t.Fatalf("no calls expected")
	}
}

func TestFetchActiveProblems(t *testing.T) {
	fake := &fakeZabbix{results: map[string]any{
		"problem.get": []map[string]any{
			{"eventid": "502", "objectid": "301", "name": "High CPU", "severity": "4", "clock": "1700000000", "acknowledged": "1",
				"hosts": []map[string]string{{"hostid": "10084", "name": "Server 1"}}},
			{"eventid": "501", "objectid": "300", "name": "Odd", "severity": "9", "clock": "1699999999", "acknowledged": "0"},
		},
	}}
	client := newTestClient(t, fake)

	problems, err := client.FetchActiveProblems(context.Background())
	if err != nil {
		t.Fatalf("fetch problems: %v", err)
	}
	if len(problems) != 2 {
		t.Fatalf("expected 2 problems, got %d", len(problems))
	}
	first := problems[0]
	if first.Severity != domain.SeverityHigh || first.HostName != "Server 1" || first.HostID != "10084" || !first.Acknowledged {
		t.Fatalf("unexpected first problem %+v", first)
	}
	second := problems[1]
	if second.Severity != domain.SeverityNotClassified || second.HostName != "Unknown" || second.Acknowledged {
		t.Fatalf("unexpected second problem %+v", second)
	}
	if fake.calls[0].Params["sortorder"] != "DESC" {
		t.Fatalf("expected descending sort, got %v", fake.calls[0].Params)
	}
}

func TestFetchAvailability(t *testing.T) {
	fake := &fakeZabbix{results: map[string]any{
		"hostinterface.get": []map[string]string{
			{"hostid": "1", "available": "1"},
			{"hostid": "2", "available": "0"},
			{"hostid": "3", "available": "2"},
			{"hostid": "4", "available": "1"},
			{"hostid": "4", "available": "2"},
		},
	}}
	client := newTestClient(t, fake)

	got, err := client.FetchAvailability(context.Background(), []string{"1", "2", "3", "4"})
	if err != nil {
		t.Fatalf("fetch availability: %v", err)
	}
	want := map[string]domain.Status{"1": domain.StatusUp, "2": domain.StatusDown, "3": domain.StatusDown, "4": domain.StatusUp}
	for id, status := range want {
		if got[id] != status {
			t.Fatalf("host %s: want %s got %s", id, status, got[id])
		}
	}
}

func TestApplicationErrorBecomesRemoteError(t *testing.T) {
	fake := &fakeZabbix{errors: map[string]*RPCError{
		"host.get": {Code: -32602, Message: "Invalid params.", Data: "Not authorised."},
	}}
	client := newTestClient(t, fake)

	_, err := client.ListEnabledHosts(context.Background())
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.Method != "host.get" {
		t.Fatalf("unexpected method %s", remote.Method)
	}
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != -32602 {
		t.Fatalf("expected RPCError cause, got %v", err)
	}
}

func TestNon2xxBecomesRemoteError(t *testing.T) {
	fake := &fakeZabbix{status: http.StatusBadGateway}
	client := newTestClient(t, fake)

	_, err := client.FetchAvailability(context.Background(), []string{"1"})
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Method != "hostinterface.get" {
		t.Fatalf("expected RemoteError for hostinterface.get, got %v", err)
	}
}

func TestMalformedBodyBecomesRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()
	client, _ := NewClient(Config{URL: srv.URL})

	_, err := client.FetchActiveProblems(context.Background())
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Method != "problem.get" {
		t.Fatalf("expected RemoteError, got %v", err)
	}
}

func TestMetricFailureFailsWholeFetch(t *testing.T) {
	fake := &fakeZabbix{errors: map[string]*RPCError{"item.get": {Code: -32500, Message: "Application error."}}}
	client := newTestClient(t, fake)

	if _, err := client.FetchMetrics(context.Background(), []string{"1"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoginTokenSourceCachesSession(t *testing.T) {
	var logins atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call rpcCall
		_ = json.NewDecoder(r.Body).Decode(&call)
		switch call.Method {
		case "user.login":
			logins.Add(1)
			if r.Header.Get("Authorization") != "" {
				t.Errorf("user.login must not carry a token")
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": call.ID, "result": "session-1"})
		default:
			if r.Header.Get("Authorization") != "Bearer session-1" {
				t.Errorf("unexpected auth %q", r.Header.Get("Authorization"))
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": call.ID, "result": []any{}})
		}
	}))
	defer srv.Close()

	ts, err := NewLoginTokenSource(LoginTokenConfig{URL: srv.URL, Username: "Admin", Password: "zabbix"})
	if err != nil {
		t.Fatalf("new token source: %v", err)
	}
	client, _ := NewClient(Config{URL: srv.URL, TokenSource: ts})
	for i := 0; i < 3; i++ {
		if _, err := client.ListEnabledHosts(context.Background()); err != nil {
			t.Fatalf("list hosts: %v", err)
		}
	}
	if logins.Load() != 1 {
		t.Fatalf("expected a single login, got %d", logins.Load())
	}
}

func TestLoginTokenSourceReloginsAfterSessionTerminated(t *testing.T) {
	var logins atomic.Int32
	var dropped atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call rpcCall
		_ = json.NewDecoder(r.Body).Decode(&call)
		resp := map[string]any{"jsonrpc": "2.0", "id": call.ID}
		switch {
		case call.Method == "user.login":
			n := logins.Add(1)
			resp["result"] = fmt.Sprintf("session-%d", n)
		case r.Header.Get("Authorization") == "Bearer session-1" && dropped.Load():
			resp["error"] = &RPCError{Code: -32602, Message: "Invalid params.", Data: "Session terminated, re-login, please."}
		default:
			resp["result"] = []any{}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	ts, err := NewLoginTokenSource(LoginTokenConfig{URL: srv.URL, Username: "Admin", Password: "zabbix"})
	if err != nil {
		t.Fatalf("new token source: %v", err)
	}
	client, _ := NewClient(Config{URL: srv.URL, TokenSource: ts})
	ctx := context.Background()
	if _, err := client.ListEnabledHosts(ctx); err != nil {
		t.Fatalf("first call: %v", err)
	}

	dropped.Store(true)
	if _, err := client.ListEnabledHosts(ctx); err == nil {
		t.Fatalf("call with a terminated session should fail")
	}
	for i := 0; i < 3; i++ {
		if _, err := client.ListEnabledHosts(ctx); err != nil {
			t.Fatalf("call after re-login: %v", err)
		}
	}
	if logins.Load() != 2 {
		t.Fatalf("expected exactly one re-login, got %d logins", logins.Load())
	}
}

func TestOtherRPCErrorsKeepSession(t *testing.T) {
	var logins atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call rpcCall
		_ = json.NewDecoder(r.Body).Decode(&call)
		resp := map[string]any{"jsonrpc": "2.0", "id": call.ID}
		if call.Method == "user.login" {
			logins.Add(1)
			resp["result"] = "session-1"
		} else {
			resp["error"] = &RPCError{Code: -32500, Message: "Application error.", Data: "No permissions to referred object."}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	ts, _ := NewLoginTokenSource(LoginTokenConfig{URL: srv.URL, Username: "Admin", Password: "zabbix"})
	client, _ := NewClient(Config{URL: srv.URL, TokenSource: ts})
	for i := 0; i < 2; i++ {
		_, _ = client.ListEnabledHosts(context.Background())
	}
	if logins.Load() != 1 {
		t.Fatalf("unrelated errors must not drop the session, got %d logins", logins.Load())
	}
}

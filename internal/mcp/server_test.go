package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewiresh/gsapi/internal/client"
	"github.com/codewiresh/gsapi/internal/config"
	"github.com/codewiresh/gsapi/internal/emulator"
	"github.com/codewiresh/gsapi/internal/store"
)

func newEmulatedClient(t *testing.T) *client.Client {
	t.Helper()
	srv, err := emulator.Listen("127.0.0.1:0", emulator.New())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	cfg := config.DefaultConnection()
	cfg.Host = "127.0.0.1"
	cfg.Port = uint16(srv.Addr().Port)
	timing := config.DefaultTiming()
	timing.SettleDelay = 5 * time.Millisecond
	timing.RetryInterval = 10 * time.Millisecond
	cl, err := client.New(cfg, client.WithTiming(timing))
	require.NoError(t, err)
	return cl
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcReply struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type toolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	IsError bool `json:"isError"`
}

// session drives Run over in-memory pipes, one request line at a time.
type session struct {
	t      *testing.T
	in     *io.PipeWriter
	out    *bufio.Reader
	nextID int
}

func startSession(t *testing.T, cl *client.Client, opts ...Option) *session {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, cl, inR, outW, opts...)
		outW.Close()
	}()

	s := &session{t: t, in: inW, out: bufio.NewReader(outR)}
	t.Cleanup(func() {
		inW.Close()
		go io.Copy(io.Discard, outR) //nolint:errcheck
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("Run did not return after stdin closed")
		}
		cancel()
	})

	hello := s.call("initialize", map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]interface{}{},
		"clientInfo":      map[string]interface{}{"name": "gsapi-test", "version": "0"},
	})
	require.Nil(t, hello.Error)
	assert.Contains(t, string(hello.Result), `"`+ServerName+`"`)
	s.send(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	return s
}

func (s *session) send(line string) {
	s.t.Helper()
	_, err := io.WriteString(s.in, line+"\n")
	require.NoError(s.t, err)
}

func (s *session) read() rpcReply {
	s.t.Helper()
	line, err := s.out.ReadBytes('\n')
	require.NoError(s.t, err)
	var r rpcReply
	require.NoError(s.t, json.Unmarshal(line, &r), "reply %s", line)
	return r
}

func (s *session) call(method string, params interface{}) rpcReply {
	s.t.Helper()
	s.nextID++
	req, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      s.nextID,
		"method":  method,
		"params":  params,
	})
	require.NoError(s.t, err)
	s.send(string(req))

	r := s.read()
	assert.JSONEq(s.t, fmt.Sprint(s.nextID), string(r.ID))
	return r
}

func (s *session) tool(name string, args map[string]interface{}) toolResult {
	s.t.Helper()
	r := s.call("tools/call", map[string]interface{}{"name": name, "arguments": args})
	require.Nil(s.t, r.Error, "tools/call %s: %+v", name, r.Error)
	var res toolResult
	require.NoError(s.t, json.Unmarshal(r.Result, &res))
	require.NotEmpty(s.t, res.Content)
	return res
}

func (s *session) text(name string, args map[string]interface{}) string {
	s.t.Helper()
	res := s.tool(name, args)
	require.False(s.t, res.IsError, "%s failed: %s", name, res.Content[0].Text)
	return res.Content[0].Text
}

func TestListTools(t *testing.T) {
	s := startSession(t, nil)

	r := s.call("tools/list", map[string]interface{}{})
	require.Nil(t, r.Error)
	var list struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(r.Result, &list))
	var names []string
	for _, tl := range list.Tools {
		names = append(names, tl.Name)
	}
	assert.ElementsMatch(t, []string{
		"gs_status", "gs_play", "gs_stop", "gs_get_meta", "gs_set_meta",
		"gs_load_patch", "gs_render_patch", "gs_query_patches",
	}, names)
}

func TestUnknownMethod(t *testing.T) {
	s := startSession(t, nil)

	r := s.call("nope/nothing", map[string]interface{}{})
	require.NotNil(t, r.Error)
	assert.Equal(t, -32601, r.Error.Code)
}

func TestToolCalls(t *testing.T) {
	s := startSession(t, newEmulatedClient(t))

	assert.Equal(t, `Set name "Speed" to 0.9`, s.text("gs_set_meta", map[string]interface{}{"name": "Speed", "value": 0.9}))
	assert.Equal(t, "index 0 = 0.9", s.text("gs_get_meta", map[string]interface{}{"index": 0}))
	assert.Equal(t, "Playing", s.text("gs_play", nil))

	var snap client.Snapshot
	require.NoError(t, json.Unmarshal([]byte(s.text("gs_status", nil)), &snap))
	assert.True(t, snap.Playing)
	assert.Equal(t, 0.9, snap.Meta[0].Value)

	assert.Equal(t, "Stopped", s.text("gs_stop", nil))
	assert.Equal(t, "Storm Front", s.text("gs_query_patches", map[string]interface{}{"text": "storm"}))
	assert.Equal(t, "Loaded /p/Howl.gspatch", s.text("gs_load_patch", map[string]interface{}{"path": "/p/Howl.gspatch"}))
	assert.Contains(t, s.text("gs_render_patch", map[string]interface{}{"path": "/tmp/a.wav", "bit_depth": 24}), "24-bit, 2 ch, 1s")
}

func TestToolFailuresAreErrorResults(t *testing.T) {
	s := startSession(t, newEmulatedClient(t))

	tests := []struct {
		name string
		tool string
		args map[string]interface{}
		want string
	}{
		{"missing value", "gs_set_meta", map[string]interface{}{"name": "Speed"}, "value"},
		{"negative index", "gs_get_meta", map[string]interface{}{"index": -1}, "non-negative"},
		{"fractional index", "gs_get_meta", map[string]interface{}{"index": 0.5}, "invalid arguments"},
		{"no key", "gs_get_meta", map[string]interface{}{}, "'name' or 'index'"},
		{"no catalog", "gs_query_patches", map[string]interface{}{"text": "x", "local": true}, "no local catalog"},
		{"no path", "gs_load_patch", map[string]interface{}{}, "path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.tool(tt.tool, tt.args)
			assert.True(t, res.IsError)
			assert.Contains(t, res.Content[0].Text, tt.want)
		})
	}
}

func TestUnreachableToolIsErrorResult(t *testing.T) {
	cfg := config.DefaultConnection()
	cfg.Host = "127.0.0.1"
	cfg.Port = 1
	timing := config.DefaultTiming()
	timing.DialTimeout = 200 * time.Millisecond
	cl, err := client.New(cfg, client.WithTiming(timing))
	require.NoError(t, err)

	s := startSession(t, cl)
	res := s.tool("gs_play", nil)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content[0].Text, "connection")
}

func TestUnknownTool(t *testing.T) {
	s := startSession(t, nil)

	r := s.call("tools/call", map[string]interface{}{"name": "gs_nope", "arguments": map[string]interface{}{}})
	assert.NotNil(t, r.Error)
}

func TestQueryLocalCatalog(t *testing.T) {
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer st.Close()

	rec := store.PatchRecord{}
	rec.FilePath = "/p/breeze.gspatch"
	rec.PatchName = "Breeze"
	_, err = st.PatchUpsert(context.Background(), rec)
	require.NoError(t, err)

	s := startSession(t, nil, WithCatalog(st))
	assert.Equal(t, "Breeze\t/p/breeze.gspatch\n", s.text("gs_query_patches", map[string]interface{}{"text": "bree", "local": true}))
	assert.Equal(t, "No patches found", s.text("gs_query_patches", map[string]interface{}{"text": "zzz", "local": true}))
}

func TestNewServerHandlesMessages(t *testing.T) {
	srv := NewServer(nil)
	resp := srv.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"gs_render_patch"`)
}

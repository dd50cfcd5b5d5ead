package connection

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewiresh/gsapi/internal/config"
	gserrors "github.com/codewiresh/gsapi/internal/errors"
)

// ---------------------------------------------------------------------------
// Scripted net.Conn
// ---------------------------------------------------------------------------

type timeoutError struct{}

func (timeoutError) Error() string { return "i/o timeout" }
func (timeoutError) Timeout() bool { return true }
func (timeoutError) Temporary() bool { return true }

type step struct {
	data []byte
	n    int // for writes: bytes accepted, -1 for all
	err  error
}

type scriptedConn struct {
	mu        sync.Mutex
	writes    []step
	reads     []step
	written   bytes.Buffer
	readCalls int
	closed    bool
}

func (c *scriptedConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.writes) == 0 {
		c.written.Write(p)
		return len(p), nil
	}
	s := c.writes[0]
	c.writes = c.writes[1:]
	n := s.n
	if n < 0 || n > len(p) {
		n = len(p)
	}
	c.written.Write(p[:n])
	return n, s.err
}

func (c *scriptedConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readCalls++
	if len(c.reads) == 0 {
		return 0, timeoutError{}
	}
	s := c.reads[0]
	c.reads = c.reads[1:]
	n := copy(p, s.data)
	return n, s.err
}

func (c *scriptedConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *scriptedConn) LocalAddr() net.Addr { return &net.TCPAddr{} }
func (c *scriptedConn) RemoteAddr() net.Addr { return &net.TCPAddr{} }
func (c *scriptedConn) SetDeadline(time.Time) error { return nil }
func (c *scriptedConn) SetReadDeadline(time.Time) error { return nil }
func (c *scriptedConn) SetWriteDeadline(time.Time) error { return nil }

func fastTiming() config.Timing {
	tm := config.DefaultTiming()
	tm.SettleDelay = 0
	tm.ReceiveTimeout = 50 * time.Millisecond
	tm.RetryInterval = time.Millisecond
	tm.MaxRetries = 3
	tm.MaxSendInterrupts = 3
	return tm
}

func scriptedTransport(conn *scriptedConn, tm config.Timing) *TCP {
	return NewTCP(config.DefaultConnection(), tm, WithDialer(
		func(context.Context, string, string) (net.Conn, error) { return conn, nil },
	))
}

// ---------------------------------------------------------------------------
// Send path
// ---------------------------------------------------------------------------

func TestExchangeRetriesInterruptedWrites(t *testing.T) {
	conn := &scriptedConn{
		writes: []step{
			{n: 3, err: syscall.EINTR},
			{n: 0},
		},
		reads: []step{{data: []byte("ok\r")}},
	}
	tr := scriptedTransport(conn, fastTiming())

	resp, err := tr.Exchange(context.Background(), []byte("set_samplerate 48000\r"))
	require.NoError(t, err)
	assert.Equal(t, "ok\r", string(resp))
	assert.Equal(t, "set_samplerate 48000\r", conn.written.String())
	assert.True(t, conn.closed)
}

func TestExchangeSendErrorSkipsRead(t *testing.T) {
	conn := &scriptedConn{
		writes: []step{{n: 2, err: syscall.EPIPE}},
		reads:  []step{{data: []byte("never")}},
	}
	tr := scriptedTransport(conn, fastTiming())

	_, err := tr.Exchange(context.Background(), []byte("play\r"))
	require.Error(t, err)
	assert.True(t, gserrors.IsSend(err))
	assert.Equal(t, 0, conn.readCalls)
	assert.True(t, conn.closed)
}

func TestExchangeTooManyInterrupts(t *testing.T) {
	conn := &scriptedConn{
		writes: []step{
			{n: 0, err: syscall.EINTR},
			{n: 0, err: syscall.EINTR},
			{n: 0, err: syscall.EINTR},
			{n: 0, err: syscall.EINTR},
		},
	}
	tr := scriptedTransport(conn, fastTiming())

	_, err := tr.Exchange(context.Background(), []byte("stop\r"))
	assert.True(t, gserrors.IsSend(err), "err = %v", err)
	assert.Equal(t, 0, conn.readCalls)
}

// ---------------------------------------------------------------------------
// Receive path
// ---------------------------------------------------------------------------

func TestExchangeReceiveTimeout(t *testing.T) {
	conn := &scriptedConn{}
	tm := fastTiming()
	tm.MaxRetries = 2
	tr := scriptedTransport(conn, tm)

	_, err := tr.Exchange(context.Background(), []byte("get_version\r"))
	require.Error(t, err)
	assert.True(t, gserrors.IsReceiveTimeout(err))
	assert.Equal(t, 3, conn.readCalls)
	assert.True(t, conn.closed)
}

func TestExchangeRetryThenSuccess(t *testing.T) {
	conn := &scriptedConn{
		reads: []step{
			{err: timeoutError{}},
			{err: errors.New("connection reset")},
			{data: []byte("48000\r")},
		},
	}
	tr := scriptedTransport(conn, fastTiming())

	resp, err := tr.Exchange(context.Background(), []byte("get_samplerate\r"))
	require.NoError(t, err)
	assert.Equal(t, "48000\r", string(resp))
	assert.Equal(t, 3, conn.readCalls)
}

func TestExchangeEOFIsEmptyResponse(t *testing.T) {
	conn := &scriptedConn{reads: []step{{err: io.EOF}}}
	tr := scriptedTransport(conn, fastTiming())

	resp, err := tr.Exchange(context.Background(), []byte("window_front\r"))
	require.NoError(t, err)
	assert.Empty(t, resp)
	assert.Equal(t, 1, conn.readCalls)
}

func TestExchangeDrainsFullBuffer(t *testing.T) {
	conn := &scriptedConn{
		reads: []step{
			{data: []byte("abcd")},
			{data: []byte("ef\r")},
			{data: []byte("unread")},
		},
	}
	tm := fastTiming()
	tm.BufferSize = 4
	tr := scriptedTransport(conn, tm)

	resp, err := tr.Exchange(context.Background(), []byte("get_metanames\r"))
	require.NoError(t, err)
	assert.Equal(t, "abcdef\r", string(resp))
}

func TestExchangeJoinsSplitReply(t *testing.T) {
	conn := &scriptedConn{
		reads: []step{
			{data: []byte("Gust,")},
			{data: []byte("Whis")},
			{data: []byte("tle\r")},
			{data: []byte("unread")},
		},
	}
	tr := scriptedTransport(conn, fastTiming())

	resp, err := tr.Exchange(context.Background(), []byte("get_curvenames\r"))
	require.NoError(t, err)
	assert.Equal(t, "Gust,Whistle\r", string(resp))
	assert.Equal(t, 3, conn.readCalls)
}

func TestExchangeUnterminatedReplyEndsWhenPeerGoesQuiet(t *testing.T) {
	conn := &scriptedConn{reads: []step{{data: []byte("0.5")}}}
	tr := scriptedTransport(conn, fastTiming())

	resp, err := tr.Exchange(context.Background(), []byte("get_variation\r"))
	require.NoError(t, err)
	assert.Equal(t, "0.5", string(resp))
	assert.Equal(t, 2, conn.readCalls)
}

func TestExchangeUnterminatedReplyEndsAtEOF(t *testing.T) {
	conn := &scriptedConn{reads: []step{{data: []byte("Wind")}, {err: io.EOF}}}
	tr := scriptedTransport(conn, fastTiming())

	resp, err := tr.Exchange(context.Background(), []byte("get_modelname\r"))
	require.NoError(t, err)
	assert.Equal(t, "Wind", string(resp))
}

func TestExchangeDrainStopsAtLimit(t *testing.T) {
	conn := &scriptedConn{
		reads: []step{
			{data: []byte("abcd")},
			{data: []byte("efgh")},
			{data: []byte("ijkl")},
		},
	}
	tm := fastTiming()
	tm.BufferSize = 4
	tm.MaxResponseBytes = 6
	tr := scriptedTransport(conn, tm)

	resp, err := tr.Exchange(context.Background(), []byte("get_commands\r"))
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(resp))
}

func TestExchangeCancelledDuringSettle(t *testing.T) {
	conn := &scriptedConn{reads: []step{{data: []byte("x")}}}
	tm := fastTiming()
	tm.SettleDelay = time.Hour
	tr := scriptedTransport(conn, tm)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Exchange(ctx, []byte("play\r"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, conn.readCalls)
}

// ---------------------------------------------------------------------------
// Real sockets
// ---------------------------------------------------------------------------

// serveOnce accepts n connections, reads each request up to '\r' and answers
// with reply(request). An empty reply closes without writing.
func serveOnce(t *testing.T, n int, reply func(string) string) (config.ConnectionConfig, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	got := make(chan string, n)
	go func() {
		for i := 0; i < n; i++ {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			req, _ := bufio.NewReader(conn).ReadString('\r')
			got <- req
			if out := reply(req); out != "" {
				conn.Write([]byte(out))
			}
			conn.Close()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	cfg := config.DefaultConnection()
	cfg.Port = uint16(addr.Port)
	return cfg, got
}

func TestExchangeOverTCP(t *testing.T) {
	cfg, got := serveOnce(t, 1, func(string) string { return "2024.1\r" })
	tr := NewTCP(cfg, fastTiming())

	resp, err := tr.Exchange(context.Background(), []byte("get_version\r"))
	require.NoError(t, err)
	assert.Equal(t, "2024.1\r", string(resp))
	assert.Equal(t, "get_version\r", <-got)
}

func TestExchangeConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	cfg := config.DefaultConnection()
	cfg.Port = uint16(port)
	tr := NewTCP(cfg, fastTiming())

	_, err = tr.Exchange(context.Background(), []byte("get_version\r"))
	require.Error(t, err)
	assert.True(t, gserrors.IsConnection(err))
	assert.False(t, IsReachable(context.Background(), tr, "\r"))
}

func TestIsReachableIgnoresContent(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"garbage", "\x00\xffnot a response"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, got := serveOnce(t, 1, func(string) string { return tt.reply })
			tr := NewTCP(cfg, fastTiming())

			assert.True(t, IsReachable(context.Background(), tr, "\r"))
			assert.Equal(t, "\r", <-got)
		})
	}
}

func TestExchangeFunc(t *testing.T) {
	var seen []byte
	ex := ExchangeFunc(func(_ context.Context, req []byte) ([]byte, error) {
		seen = req
		return []byte("1"), nil
	})
	assert.True(t, IsReachable(context.Background(), ex, "\r"))
	assert.Equal(t, "\r", string(seen))
}

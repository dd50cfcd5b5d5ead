// Package emulator is an in-process stand-in for the Tool's TCP API. It
// serves one request per connection, like the Tool does.
package emulator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/codewiresh/gsapi/internal/protocol"
)

// ErrSilent makes the server hold the connection open without replying, so the
// client runs out of receive attempts.
var ErrSilent = errors.New("emulator: no reply")

// Handler answers one parsed request.
type Handler interface {
	Handle(ctx context.Context, req protocol.Request) (string, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req protocol.Request) (string, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, req protocol.Request) (string, error) {
	return f(ctx, req)
}

const defaultReadTimeout = 5 * time.Second

// Server accepts connections and dispatches each request to a Handler.
type Server struct {
	ln          net.Listener
	handler     Handler
	delimiter   string
	readTimeout time.Duration
	log         zerolog.Logger

	mu       sync.Mutex
	requests []string
	conns    map[net.Conn]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithDelimiter sets the request/response terminator.
func WithDelimiter(d string) Option {
	return func(s *Server) { s.delimiter = d }
}

// WithReadTimeout bounds how long the server waits for a full request.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) { s.readTimeout = d }
}

// WithLogger sets the server logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// Listen binds addr (use "127.0.0.1:0" for an ephemeral port). Call Serve to
// start accepting.
func Listen(addr string, h Handler, opts ...Option) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	s := &Server{
		ln:          ln,
		handler:     h,
		delimiter:   protocol.DefaultDelimiter,
		readTimeout: defaultReadTimeout,
		log:         zerolog.Nop(),
		conns:       make(map[net.Conn]struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() *net.TCPAddr {
	return s.ln.Addr().(*net.TCPAddr)
}

// Serve runs the accept loop until ctx is cancelled or Close is called, then
// waits for in-flight connections.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	s.log.Info().Str("addr", s.ln.Addr().String()).Msg("emulator listening")
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return ctx.Err()
			}
			s.log.Error().Err(err).Msg("accept error")
			continue
		}
		if !s.track(conn) {
			conn.Close()
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handle(ctx, conn)
		}()
	}
}

// Close stops the listener and drops open connections.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
	err := s.ln.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Requests returns every raw request received so far, delimiter included.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) track(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) record(raw string) {
	s.mu.Lock()
	s.requests = append(s.requests, raw)
	s.mu.Unlock()
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	raw, err := s.readRequest(conn)
	if err != nil {
		s.log.Debug().Err(err).Msg("reading request")
		return
	}
	s.record(raw)

	req, err := protocol.ParseRequest(raw, s.delimiter)
	if err != nil {
		// A bare delimiter is a reachability probe: close without a reply.
		return
	}

	reply, err := s.handler.Handle(ctx, req)
	switch {
	case errors.Is(err, ErrSilent):
		_ = conn.SetReadDeadline(time.Time{})
		_, _ = io.Copy(io.Discard, conn)
		return
	case err != nil:
		s.log.Warn().Err(err).Str("request", req.String()).Msg("request rejected")
		return
	}

	_ = conn.SetWriteDeadline(time.Now().Add(s.readTimeout))
	if _, err := io.WriteString(conn, reply+s.delimiter); err != nil {
		s.log.Debug().Err(err).Str("command", req.Command).Msg("writing reply")
	}
}

// readRequest reads until the delimiter arrives or the peer stops sending.
func (s *Server) readRequest(conn net.Conn) (string, error) {
	if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
		return "", err
	}
	delim := []byte(s.delimiter)
	var buf []byte
	chunk := make([]byte, 4096)
	for len(delim) == 0 || !bytes.Contains(buf, delim) {
		n, err := conn.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) && len(buf) > 0 {
				break
			}
			return "", err
		}
		if len(delim) == 0 && n > 0 {
			break
		}
	}
	return string(buf), nil
}

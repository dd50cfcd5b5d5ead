package connection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/codewiresh/gsapi/internal/config"
	gserrors "github.com/codewiresh/gsapi/internal/errors"
)

const defaultDrainIdle = 50 * time.Millisecond

var errNoData = errors.New("read returned no data")

// TCP performs each exchange on a fresh TCP connection:
// dial, write the full request, settle, read with bounded retry, close.
type TCP struct {
	addr      string
	delimiter []byte
	timing    config.Timing
	dial      DialFunc
	log       zerolog.Logger
}

// Option configures a TCP transport.
type Option func(*TCP)

// WithDialer replaces the network dialer.
func WithDialer(d DialFunc) Option {
	return func(t *TCP) { t.dial = d }
}

// WithLogger sets the logger used for per-attempt diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(t *TCP) { t.log = l }
}

// NewTCP builds a transport for cfg.Addr() with the given timing.
func NewTCP(cfg config.ConnectionConfig, timing config.Timing, opts ...Option) *TCP {
	t := &TCP{
		addr:      cfg.Addr(),
		delimiter: []byte(cfg.Delimiter),
		timing:    timing,
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(t)
	}
	if t.dial == nil {
		d := &net.Dialer{Timeout: timing.DialTimeout}
		t.dial = d.DialContext
	}
	return t
}

// Addr returns the host:port this transport dials.
func (t *TCP) Addr() string {
	return t.addr
}

// Exchange implements Exchanger. The connection is closed on every path.
func (t *TCP) Exchange(ctx context.Context, request []byte) ([]byte, error) {
	dialCtx := ctx
	if t.timing.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, t.timing.DialTimeout)
		defer cancel()
	}

	conn, err := t.dial(dialCtx, "tcp", t.addr)
	if err != nil {
		t.log.Debug().Err(err).Str("addr", t.addr).Msg("dial failed")
		return nil, gserrors.NewConnectionError(fmt.Sprintf("dial %s", t.addr), err)
	}
	defer conn.Close()

	if err := t.send(conn, request); err != nil {
		t.log.Error().Err(err).Str("addr", t.addr).Msg("send failed")
		return nil, err
	}

	if err := sleepCtx(ctx, t.timing.SettleDelay); err != nil {
		return nil, gserrors.NewReceiveTimeoutError("cancelled before reading response", err)
	}

	return t.receive(ctx, conn)
}

// send writes request in full. Interrupted writes (EINTR, or a zero-byte
// write with no error) are retried up to MaxSendInterrupts times.
func (t *TCP) send(conn net.Conn, request []byte) error {
	interrupts := 0
	for sent := 0; sent < len(request); {
		n, err := conn.Write(request[sent:])
		sent += n
		switch {
		case err == nil && n > 0:
			continue
		case err == nil || errors.Is(err, syscall.EINTR):
			interrupts++
			if interrupts > t.timing.MaxSendInterrupts {
				return gserrors.NewSendError(
					fmt.Sprintf("write interrupted %d times, %d of %d bytes sent", interrupts, sent, len(request)), err)
			}
			t.log.Debug().Int("sent", sent).Int("interrupts", interrupts).Msg("write interrupted, retrying")
		default:
			return gserrors.NewSendError(fmt.Sprintf("%d of %d bytes sent", sent, len(request)), err)
		}
	}
	return nil
}

// receive reads one response. A read that times out or fails transiently is
// retried at a constant interval; EOF before any data is an empty response.
// Once data arrives, reads continue until the delimiter (see drain).
func (t *TCP) receive(ctx context.Context, conn net.Conn) ([]byte, error) {
	buf := make([]byte, t.timing.BufferSize)
	attempt := 0

	read := func() ([]byte, error) {
		attempt++
		if err := conn.SetReadDeadline(time.Now().Add(t.timing.ReceiveTimeout)); err != nil {
			return nil, backoff.Permanent(err)
		}
		n, err := conn.Read(buf)
		t.log.Debug().Int("attempt", attempt).Int("bytes", n).Err(err).Msg("receive")
		if n > 0 {
			resp := append([]byte(nil), buf[:n]...)
			if !t.terminated(resp) {
				resp = t.drain(conn, resp)
			}
			return resp, nil
		}
		if errors.Is(err, io.EOF) {
			return []byte{}, nil
		}
		if err == nil {
			err = errNoData
		}
		return nil, err
	}

	resp, err := backoff.Retry(ctx, read,
		backoff.WithBackOff(backoff.NewConstantBackOff(t.timing.RetryInterval)),
		backoff.WithMaxTries(uint(t.timing.MaxRetries+1)), // #nosec G115 -- validated non-negative
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			t.log.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("no response yet, retrying")
		}),
	)
	if err != nil {
		t.log.Error().Err(err).Int("attempts", attempt).Str("addr", t.addr).Msg("giving up on response")
		return nil, gserrors.NewReceiveTimeoutError(fmt.Sprintf("no response after %d attempts", attempt), err)
	}
	return resp, nil
}

// drain keeps reading a response that does not yet end with the delimiter
// until the delimiter arrives, the peer goes quiet or closes, or
// MaxResponseBytes is reached. Replies split across segments are joined here.
func (t *TCP) drain(conn net.Conn, resp []byte) []byte {
	idle := t.timing.RetryInterval
	if idle <= 0 {
		idle = defaultDrainIdle
	}
	chunk := make([]byte, t.timing.BufferSize)
	for len(resp) < t.timing.MaxResponseBytes && !t.terminated(resp) {
		if err := conn.SetReadDeadline(time.Now().Add(idle)); err != nil {
			break
		}
		n, err := conn.Read(chunk)
		resp = append(resp, chunk[:n]...)
		if err != nil || n == 0 {
			break
		}
	}
	if len(resp) > t.timing.MaxResponseBytes {
		resp = resp[:t.timing.MaxResponseBytes]
	}
	return resp
}

func (t *TCP) terminated(resp []byte) bool {
	return len(t.delimiter) > 0 && bytes.HasSuffix(resp, t.delimiter)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

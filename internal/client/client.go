// Package client is the typed command surface of the Tool's TCP API.
//
// Every method encodes one request, performs one exchange on a fresh
// connection and decodes the reply. A Client holds no connection state and
// may be shared between goroutines; concurrent calls each dial separately.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/codewiresh/gsapi/internal/config"
	"github.com/codewiresh/gsapi/internal/connection"
	"github.com/codewiresh/gsapi/internal/protocol"
)

// Client talks to one Tool instance.
type Client struct {
	conn   config.ConnectionConfig
	timing config.Timing
	codec  protocol.Codec
	ex     connection.Exchanger
	log    zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithExchanger replaces the TCP transport, e.g. with a scripted fake.
func WithExchanger(ex connection.Exchanger) Option {
	return func(c *Client) { c.ex = ex }
}

// WithTiming overrides the transport's timeouts and retry budgets.
func WithTiming(t config.Timing) Option {
	return func(c *Client) { c.timing = t }
}

// WithLogger sets the logger for the client and its default transport.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New validates cfg and returns a Client for it.
func New(cfg config.ConnectionConfig, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid connection config: %w", err)
	}
	codec, err := protocol.LookupCodec(cfg.Codec)
	if err != nil {
		return nil, err
	}

	c := &Client{
		conn:   cfg,
		timing: config.DefaultTiming(),
		codec:  codec,
		log:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	if err := c.timing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timing: %w", err)
	}
	if c.ex == nil {
		c.ex = connection.NewTCP(cfg, c.timing, connection.WithLogger(c.log))
	}
	return c, nil
}

// Config returns the connection settings this client was built with.
func (c *Client) Config() config.ConnectionConfig {
	return c.conn
}

// roundTrip sends cmd with args and returns the decoded response text.
func (c *Client) roundTrip(ctx context.Context, cmd string, args ...string) (string, error) {
	raw := protocol.Encode(cmd, c.conn.Delimiter, args...)
	payload, err := c.codec.EncodeString(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", cmd, err)
	}

	start := time.Now()
	resp, err := c.ex.Exchange(ctx, payload)
	if err != nil {
		c.log.Debug().Str("command", cmd).Err(err).Msg("exchange failed")
		return "", fmt.Errorf("%s: %w", cmd, err)
	}
	c.log.Debug().Str("command", cmd).Int("bytes", len(resp)).Dur("took", time.Since(start)).Msg("exchange")

	text, err := c.codec.DecodeBytes(resp)
	if err != nil {
		return "", fmt.Errorf("%s: %w", cmd, err)
	}
	return text, nil
}

// exec sends a command whose reply carries no information.
func (c *Client) exec(ctx context.Context, cmd string, args ...string) error {
	_, err := c.roundTrip(ctx, cmd, args...)
	return err
}

func (c *Client) scalar(ctx context.Context, cmd string, args ...string) (string, error) {
	resp, err := c.roundTrip(ctx, cmd, args...)
	if err != nil {
		return "", err
	}
	return protocol.Scalar(resp), nil
}

func (c *Client) list(ctx context.Context, cmd string, args ...string) ([]string, error) {
	resp, err := c.scalar(ctx, cmd, args...)
	if err != nil {
		return nil, err
	}
	return protocol.SplitList(resp, protocol.ListSeparator), nil
}

func (c *Client) float(ctx context.Context, cmd string, args ...string) (float64, error) {
	resp, err := c.scalar(ctx, cmd, args...)
	if err != nil {
		return 0, err
	}
	v, err := protocol.ParseFloat(resp)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", cmd, err)
	}
	return v, nil
}

func (c *Client) int(ctx context.Context, cmd string, args ...string) (int, error) {
	resp, err := c.scalar(ctx, cmd, args...)
	if err != nil {
		return 0, err
	}
	v, err := protocol.ParseInt(resp)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", cmd, err)
	}
	return v, nil
}

func (c *Client) flag(ctx context.Context, cmd string, args ...string) (bool, error) {
	resp, err := c.scalar(ctx, cmd, args...)
	if err != nil {
		return false, err
	}
	v, err := protocol.ParseFlag(resp)
	if err != nil {
		return false, fmt.Errorf("%s: %w", cmd, err)
	}
	return v, nil
}

// Key selects a meta parameter or curve either by position or by name.
type Key struct {
	index  int
	name   string
	byName bool
}

// ByIndex selects the i-th entry.
func ByIndex(i int) Key {
	return Key{index: i}
}

// ByName selects the entry with the given name.
func ByName(name string) Key {
	return Key{name: name, byName: true}
}

// args renders the key as wire tokens: BY_INDEX <n> or BY_NAME "<name>".
func (k Key) args() []string {
	if k.byName {
		return []string{protocol.ByNameToken, protocol.Quote(k.name)}
	}
	return []string{protocol.ByIndexToken, protocol.FormatInt(k.index)}
}

func (k Key) String() string {
	if k.byName {
		return fmt.Sprintf("name %q", k.name)
	}
	return fmt.Sprintf("index %d", k.index)
}

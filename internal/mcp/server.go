// Package mcp exposes Tool control to agents as Model Context Protocol tools
// over stdio.
package mcp

import (
	"context"
	"io"
	"log"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/codewiresh/gsapi/internal/client"
	"github.com/codewiresh/gsapi/internal/store"
)

// Version is reported in the initialize handshake.
const Version = "0.1.0"

// ServerName is reported in the initialize handshake.
const ServerName = "gsapi"

// Option configures Run.
type Option func(*bridge)

// WithCatalog lets gs_query_patches search the local patch catalog.
func WithCatalog(st store.Store) Option {
	return func(b *bridge) { b.catalog = st }
}

// WithLogger sets the logger for transport errors and tool failures.
func WithLogger(l zerolog.Logger) Option {
	return func(b *bridge) { b.log = l }
}

// bridge holds what the tool handlers need.
type bridge struct {
	cl      *client.Client
	catalog store.Store
	log     zerolog.Logger
}

// NewServer builds an MCP server with every gs_* tool registered against cl.
func NewServer(cl *client.Client, opts ...Option) *server.MCPServer {
	return newBridge(cl, opts).server()
}

func newBridge(cl *client.Client, opts []Option) *bridge {
	b := &bridge{cl: cl, log: zerolog.Nop()}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *bridge) server() *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, t := range b.tools() {
		s.AddTool(t.def, t.handler)
	}
	return s
}

// Run serves newline-delimited JSON-RPC from in to out until in is exhausted
// or ctx is done.
func Run(ctx context.Context, cl *client.Client, in io.Reader, out io.Writer, opts ...Option) error {
	b := newBridge(cl, opts)

	stdio := server.NewStdioServer(b.server())
	stdio.SetErrorLogger(log.New(b.log, "mcp: ", 0))

	b.log.Debug().Msg("mcp bridge serving on stdio")
	return stdio.Listen(ctx, in, out)
}

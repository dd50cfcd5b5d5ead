// Package connection carries one request/response exchange with the Tool.
package connection

import (
	"context"
	"net"
)

// Exchanger sends one encoded request and returns the raw response bytes.
// Each call is independent; implementations hold no connection between calls.
type Exchanger interface {
	Exchange(ctx context.Context, request []byte) ([]byte, error)
}

// ExchangeFunc adapts a function to Exchanger.
type ExchangeFunc func(ctx context.Context, request []byte) ([]byte, error)

// Exchange calls f.
func (f ExchangeFunc) Exchange(ctx context.Context, request []byte) ([]byte, error) {
	return f(ctx, request)
}

// DialFunc opens a stream connection. It matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// IsReachable sends a request consisting only of the delimiter and reports
// whether any exchange completed. The response content is ignored.
func IsReachable(ctx context.Context, ex Exchanger, delimiter string) bool {
	_, err := ex.Exchange(ctx, []byte(delimiter))
	return err == nil
}

// Package transport provides abstractions for reaching the MOSS
// server.  Transports handle how the byte stream is established (a
// plain TCP socket or a connection forwarded through an SSH gateway),
// independent of the line protocol spoken over it.
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound stream connections.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}

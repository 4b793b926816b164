package proxy

import (
	"github.com/quic-go/quic-go"
)

// Connection describes one leg of a proxied flow. The struct itself is
// owned by the transport layers below; protocol layers only read it.
type Connection struct {
	// Peername is the remote address, for log lines.
	Peername string

	// Error holds the close details once the transport reports the
	// connection gone. It stays nil while the connection is alive and
	// when the peer closed without an application error.
	Error *quic.ApplicationError
}

// Context groups the two legs of one proxied flow: Client is the
// connection the end user opened to the proxy, Server the proxy's own
// connection toward the upstream.
type Context struct {
	Client *Connection
	Server *Connection
}

// Layer is one protocol translation layer driven by the proxy core.
type Layer interface {
	// HandleEvent consumes one event and returns the commands it
	// provokes, in order. It never blocks.
	HandleEvent(Event) []Command
}

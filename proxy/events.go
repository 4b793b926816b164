package proxy

import (
	"github.com/quic-go/quic-go"
)

// Event is a notification the proxy core delivers to a layer. Concrete
// events are plain structs; layers dispatch on the type and must treat
// shapes they do not know as contract violations.
type Event interface{}

// Start is delivered once, before any other event, when a layer becomes
// active.
type Start struct{}

// ConnectionClosed signals that the underlying transport connection is
// gone. The connection's Error field holds the close details, if any
// were reported.
type ConnectionClosed struct {
	Connection *Connection
}

// QuicStreamEvent is raw per-stream activity reported by the QUIC
// transport layer.
type QuicStreamEvent interface {
	StreamID() quic.StreamID
}

// QuicStreamDataReceived carries stream payload bytes, possibly together
// with the FIN bit.
type QuicStreamDataReceived struct {
	Connection *Connection
	Stream     quic.StreamID
	Data       []byte
	EndStream  bool
}

func (e *QuicStreamDataReceived) StreamID() quic.StreamID { return e.Stream }

// QuicStreamReset signals that the peer aborted the sending part of a
// stream.
type QuicStreamReset struct {
	Connection *Connection
	Stream     quic.StreamID
	ErrorCode  quic.StreamErrorCode
}

func (e *QuicStreamReset) StreamID() quic.StreamID { return e.Stream }

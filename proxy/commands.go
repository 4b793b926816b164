package proxy

import (
	"log/slog"

	"github.com/quic-go/quic-go"
)

// Command is an effect a layer asks the proxy core to carry out on its
// behalf. Commands are executed in the order the layer returned them.
type Command interface{}

// Log asks the core to emit a log line.
type Log struct {
	Level   slog.Level
	Message string
}

// SendQuicStreamData writes bytes to a QUIC stream, optionally closing
// the sending side afterwards.
type SendQuicStreamData struct {
	Connection *Connection
	Stream     quic.StreamID
	Data       []byte
	EndStream  bool
}

// ResetQuicStream aborts the sending side of a QUIC stream.
type ResetQuicStream struct {
	Connection *Connection
	Stream     quic.StreamID
	ErrorCode  quic.StreamErrorCode
}

// CloseQuicConnection tears down the whole QUIC connection.
type CloseQuicConnection struct {
	Connection *Connection
	ErrorCode  quic.ApplicationErrorCode
	Reason     string
}

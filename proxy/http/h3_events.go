package http

import (
	"github.com/quic-go/qpack"
	"github.com/quic-go/quic-go"
)

// H3Event is a typed wire event produced when the layered connection
// demultiplexes raw QUIC stream activity.
type H3Event interface {
	StreamID() quic.StreamID

	// PushID returns the push id the event belongs to, or nil for
	// ordinary request/response traffic. Push is unsupported; the
	// engine drops everything carrying a push id.
	PushID() *uint64
}

// HeadersReceived carries a decoded header section. The first one on a
// stream is the message headers; later ones are trailers.
type HeadersReceived struct {
	Stream      quic.StreamID
	Fields      []qpack.HeaderField
	StreamEnded bool
	Push        *uint64
}

func (e *HeadersReceived) StreamID() quic.StreamID { return e.Stream }
func (e *HeadersReceived) PushID() *uint64         { return e.Push }

// DataReceived carries body bytes.
type DataReceived struct {
	Stream      quic.StreamID
	Data        []byte
	StreamEnded bool
	Push        *uint64
}

func (e *DataReceived) StreamID() quic.StreamID { return e.Stream }
func (e *DataReceived) PushID() *uint64         { return e.Push }

// TrailersReceived carries a trailer section.
type TrailersReceived struct {
	Stream      quic.StreamID
	Fields      []qpack.HeaderField
	StreamEnded bool
	Push        *uint64
}

func (e *TrailersReceived) StreamID() quic.StreamID { return e.Stream }
func (e *TrailersReceived) PushID() *uint64         { return e.Push }

// StreamReset reports that the peer aborted a stream.
type StreamReset struct {
	Stream    quic.StreamID
	ErrorCode ErrCode
	Push      *uint64
}

func (e *StreamReset) StreamID() quic.StreamID { return e.Stream }
func (e *StreamReset) PushID() *uint64         { return e.Push }

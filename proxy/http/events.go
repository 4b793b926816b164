package http

import (
	"github.com/quic-go/quic-go"

	"github.com/trellisproxy/trellis/proxy"
)

// HttpEvent is one version-independent HTTP transaction event, tagged
// with the stream id of the transaction it belongs to. Request-flavored
// events travel toward the server, response-flavored events toward the
// client.
type HttpEvent interface {
	StreamID() quic.StreamID

	// withStreamID returns a copy of the event retagged with the given
	// stream id.
	withStreamID(id quic.StreamID) HttpEvent
}

// ReceiveHttp wraps an HttpEvent travelling up toward the proxy core.
type ReceiveHttp struct {
	Event HttpEvent
}

var _ proxy.Command = (*ReceiveHttp)(nil)

// RequestHeaders opens a transaction: request line plus header fields.
type RequestHeaders struct {
	Stream    quic.StreamID
	Request   *Request
	EndStream bool
}

func (e *RequestHeaders) StreamID() quic.StreamID { return e.Stream }
func (e *RequestHeaders) withStreamID(id quic.StreamID) HttpEvent {
	c := *e
	c.Stream = id
	return &c
}

// RequestData carries a chunk of the request body.
type RequestData struct {
	Stream quic.StreamID
	Data   []byte
}

func (e *RequestData) StreamID() quic.StreamID { return e.Stream }
func (e *RequestData) withStreamID(id quic.StreamID) HttpEvent {
	c := *e
	c.Stream = id
	return &c
}

// RequestTrailers carries the trailer fields of a request.
type RequestTrailers struct {
	Stream   quic.StreamID
	Trailers Headers
}

func (e *RequestTrailers) StreamID() quic.StreamID { return e.Stream }
func (e *RequestTrailers) withStreamID(id quic.StreamID) HttpEvent {
	c := *e
	c.Stream = id
	return &c
}

// RequestEndOfMessage marks the request as complete.
type RequestEndOfMessage struct {
	Stream quic.StreamID
}

func (e *RequestEndOfMessage) StreamID() quic.StreamID { return e.Stream }
func (e *RequestEndOfMessage) withStreamID(id quic.StreamID) HttpEvent {
	c := *e
	c.Stream = id
	return &c
}

// RequestProtocolError aborts the request side of a transaction.
type RequestProtocolError struct {
	Stream  quic.StreamID
	Code    int
	Message string
}

func (e *RequestProtocolError) StreamID() quic.StreamID { return e.Stream }
func (e *RequestProtocolError) withStreamID(id quic.StreamID) HttpEvent {
	c := *e
	c.Stream = id
	return &c
}

// ResponseHeaders carries the status line plus header fields.
type ResponseHeaders struct {
	Stream    quic.StreamID
	Response  *Response
	EndStream bool
}

func (e *ResponseHeaders) StreamID() quic.StreamID { return e.Stream }
func (e *ResponseHeaders) withStreamID(id quic.StreamID) HttpEvent {
	c := *e
	c.Stream = id
	return &c
}

// ResponseData carries a chunk of the response body.
type ResponseData struct {
	Stream quic.StreamID
	Data   []byte
}

func (e *ResponseData) StreamID() quic.StreamID { return e.Stream }
func (e *ResponseData) withStreamID(id quic.StreamID) HttpEvent {
	c := *e
	c.Stream = id
	return &c
}

// ResponseTrailers carries the trailer fields of a response.
type ResponseTrailers struct {
	Stream   quic.StreamID
	Trailers Headers
}

func (e *ResponseTrailers) StreamID() quic.StreamID { return e.Stream }
func (e *ResponseTrailers) withStreamID(id quic.StreamID) HttpEvent {
	c := *e
	c.Stream = id
	return &c
}

// ResponseEndOfMessage marks the response as complete.
type ResponseEndOfMessage struct {
	Stream quic.StreamID
}

func (e *ResponseEndOfMessage) StreamID() quic.StreamID { return e.Stream }
func (e *ResponseEndOfMessage) withStreamID(id quic.StreamID) HttpEvent {
	c := *e
	c.Stream = id
	return &c
}

// ResponseProtocolError aborts the response side of a transaction.
type ResponseProtocolError struct {
	Stream  quic.StreamID
	Code    int
	Message string
}

func (e *ResponseProtocolError) StreamID() quic.StreamID { return e.Stream }
func (e *ResponseProtocolError) withStreamID(id quic.StreamID) HttpEvent {
	c := *e
	c.Stream = id
	return &c
}

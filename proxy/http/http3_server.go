package http

import (
	stdhttp "net/http"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/trellisproxy/trellis/proxy"
)

// HTTP3Server is the client-facing HTTP/3 role: it speaks H3 toward the
// end user and emits request-flavored events toward the proxy core.
type HTTP3Server struct {
	http3Connection
}

var _ proxy.Layer = (*HTTP3Server)(nil)

func NewHTTP3Server(ctx *proxy.Context) *HTTP3Server {
	s := &HTTP3Server{}
	s.http3Connection = newHTTP3Connection(ctx, ctx.Client, receiveBindings{
		data: func(id quic.StreamID, data []byte) HttpEvent {
			return &RequestData{Stream: id, Data: data}
		},
		endOfMessage: func(id quic.StreamID) HttpEvent {
			return &RequestEndOfMessage{Stream: id}
		},
		protocolError: func(id quic.StreamID, code int, message string) HttpEvent {
			return &RequestProtocolError{Stream: id, Code: code, Message: message}
		},
		trailers: func(id quic.StreamID, trailers Headers) HttpEvent {
			return &RequestTrailers{Stream: id, Trailers: trailers}
		},
		errorCode: stdhttp.StatusBadRequest,
	}, s.parseHeaders)
	return s
}

// parseHeaders interprets a wire header section as a request, exactly
// the way the HTTP/2 layer does.
func (s *HTTP3Server) parseHeaders(ev *HeadersReceived) (HttpEvent, error) {
	req, err := parseRequestHeaders(ev.Fields)
	if err != nil {
		return nil, err
	}
	req.HTTPVersion = "HTTP/3"
	req.TimestampStart = time.Now()
	return &RequestHeaders{Stream: ev.Stream, Request: req, EndStream: ev.StreamEnded}, nil
}

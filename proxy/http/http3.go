package http

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/quic-go/qpack"
	"github.com/quic-go/quic-go"

	"github.com/trellisproxy/trellis/proxy"
)

// receiveBindings selects, per role, which generic event variants the
// engine emits for inbound wire activity, plus the role's default
// protocol-error status code.
type receiveBindings struct {
	data          func(id quic.StreamID, data []byte) HttpEvent
	endOfMessage  func(id quic.StreamID) HttpEvent
	protocolError func(id quic.StreamID, code int, message string) HttpEvent
	trailers      func(id quic.StreamID, trailers Headers) HttpEvent

	errorCode int
}

// parseHeadersFunc builds the role-flavored inbound headers event from a
// decoded wire header section.
type parseHeadersFunc func(ev *HeadersReceived) (HttpEvent, error)

// http3Connection translates between generic HTTP events and the H3
// wire state of one QUIC connection. HTTP3Server and HTTP3Client
// specialize it for the two legs of the proxy.
type http3Connection struct {
	context *proxy.Context
	conn    *proxy.Connection
	h3      h3Transport

	recv         receiveBindings
	parseHeaders parseHeadersFunc

	// closed flips once, on ConnectionClosed; afterwards every expected
	// event is absorbed without effect.
	closed bool
}

func newHTTP3Connection(ctx *proxy.Context, conn *proxy.Connection, recv receiveBindings, parseHeaders parseHeadersFunc) http3Connection {
	return http3Connection{
		context:      ctx,
		conn:         conn,
		h3:           NewLayeredH3Connection(conn, conn == ctx.Server),
		recv:         recv,
		parseHeaders: parseHeaders,
	}
}

// HandleEvent processes one notification and returns the commands it
// provokes, in order. Event shapes outside the layer's contract panic.
func (c *http3Connection) HandleEvent(ev proxy.Event) []proxy.Command {
	if c.closed {
		switch ev.(type) {
		case HttpEvent, proxy.QuicStreamEvent, *proxy.ConnectionClosed:
			return nil
		default:
			panic(fmt.Sprintf("unexpected event in closed state: %#v", ev))
		}
	}
	switch ev := ev.(type) {
	case *proxy.Start:
		// the layered connection is set up at construction
		return nil
	case HttpEvent:
		return c.handleHttpEvent(ev)
	case proxy.QuicStreamEvent:
		return c.handleStreamEvent(ev)
	case *proxy.ConnectionClosed:
		return c.handleConnectionClosed()
	default:
		panic(fmt.Sprintf("unexpected event: %#v", ev))
	}
}

// handleHttpEvent sends one outbound HTTP event over the wire and
// flushes. Events that violate the current stream state are logged and
// dropped, the same way the HTTP/2 layer tolerates late writes.
func (c *http3Connection) handleHttpEvent(ev HttpEvent) []proxy.Command {
	var err error
	switch ev := ev.(type) {
	case *RequestData:
		err = c.h3.SendData(ev.Stream, ev.Data, false)
	case *ResponseData:
		err = c.h3.SendData(ev.Stream, ev.Data, false)
	case *RequestHeaders:
		err = c.h3.SendHeaders(ev.Stream, formatRequestHeaders(ev.Request), ev.EndStream)
	case *ResponseHeaders:
		err = c.h3.SendHeaders(ev.Stream, formatResponseHeaders(ev.Response), ev.EndStream)
	case *RequestTrailers:
		err = c.h3.SendTrailers(ev.Stream, []qpack.HeaderField(ev.Trailers))
	case *ResponseTrailers:
		err = c.h3.SendTrailers(ev.Stream, []qpack.HeaderField(ev.Trailers))
	case *RequestEndOfMessage:
		err = c.h3.EndStream(ev.Stream)
	case *ResponseEndOfMessage:
		err = c.h3.EndStream(ev.Stream)
	case *RequestProtocolError:
		err = c.abortStream(ev.Stream, ev.Code, ev.Message, false)
	case *ResponseProtocolError:
		err = c.abortStream(ev.Stream, ev.Code, ev.Message, true)
	default:
		panic(fmt.Sprintf("unexpected HTTP event: %#v", ev))
	}
	if err != nil {
		var unexpected *FrameUnexpectedError
		if !errors.As(err, &unexpected) {
			// encoding into a buffer cannot fail; anything else here is
			// a bug in the layered connection
			panic(err)
		}
		return []proxy.Command{&proxy.Log{
			Level:   slog.LevelInfo,
			Message: fmt.Sprintf("dropped %T for stream %d: %v", ev, ev.StreamID(), err),
		}}
	}
	return c.h3.Transmit()
}

// abortStream translates a protocol-error event into wire effects. A
// response-side error on a stream that has no response headers yet turns
// into a synthesized error response; everything else is a raw reset.
func (c *http3Connection) abortStream(id quic.StreamID, code int, message string, isResponse bool) error {
	if c.h3.HasEnded(id) {
		return nil
	}
	if isResponse && !c.h3.HasSentHeaders(id) && code != StatusNoResponse {
		err := c.h3.SendHeaders(id, []qpack.HeaderField{
			{Name: ":status", Value: strconv.Itoa(code)},
			{Name: "server", Value: proxy.Software},
			{Name: "content-type", Value: "text/html"},
		}, false)
		if err != nil {
			return err
		}
		return c.h3.SendData(id, formatErrorPage(code, message), true)
	}
	c.h3.ResetStream(id, errorCodeForStatus(code))
	return nil
}

// handleStreamEvent demultiplexes raw QUIC stream activity and emits the
// matching inbound HTTP events.
func (c *http3Connection) handleStreamEvent(ev proxy.QuicStreamEvent) []proxy.Command {
	var cmds []proxy.Command
	for _, h3ev := range c.h3.HandleStreamEvent(ev) {
		if h3ev.PushID() != nil {
			// no push, no WebTransport
			cmds = append(cmds, &proxy.Log{
				Level:   slog.LevelDebug,
				Message: fmt.Sprintf("Ignored unsupported H3 event: %#v", h3ev),
			})
			continue
		}
		switch h3ev := h3ev.(type) {
		case *StreamReset:
			code := statusForErrorCode(h3ev.ErrorCode, c.recv.errorCode)
			reason := fmt.Sprintf("stream reset by client (%s)", errorCodeName(uint64(h3ev.ErrorCode)))
			cmds = append(cmds, &ReceiveHttp{Event: c.recv.protocolError(h3ev.Stream, code, reason)})
		case *DataReceived:
			if len(h3ev.Data) > 0 {
				cmds = append(cmds, &ReceiveHttp{Event: c.recv.data(h3ev.Stream, h3ev.Data)})
			}
			if h3ev.StreamEnded {
				cmds = append(cmds, &ReceiveHttp{Event: c.recv.endOfMessage(h3ev.Stream)})
			}
		case *HeadersReceived:
			recvEv, err := c.parseHeaders(h3ev)
			if err != nil {
				// malformed headers poison the whole connection
				c.h3.CloseConnection(ErrCodeGeneralProtocolError,
					fmt.Sprintf("Invalid HTTP/3 request headers: %v", err))
				cmds = append(cmds, c.h3.Transmit()...)
				continue
			}
			cmds = append(cmds, &ReceiveHttp{Event: recvEv})
			if h3ev.StreamEnded {
				cmds = append(cmds, &ReceiveHttp{Event: c.recv.endOfMessage(h3ev.Stream)})
			}
		case *TrailersReceived:
			cmds = append(cmds, &ReceiveHttp{Event: c.recv.trailers(h3ev.Stream, Headers(h3ev.Fields))})
			if h3ev.StreamEnded {
				cmds = append(cmds, &ReceiveHttp{Event: c.recv.endOfMessage(h3ev.Stream)})
			}
		default:
			cmds = append(cmds, &proxy.Log{
				Level:   slog.LevelDebug,
				Message: fmt.Sprintf("Ignored unsupported H3 event: %#v", h3ev),
			})
		}
	}
	return cmds
}

// handleConnectionClosed reports a protocol error for every stream still
// open, then goes quiescent.
func (c *http3Connection) handleConnectionClosed() []proxy.Command {
	message := "peer closed connection"
	if closeErr := c.conn.Error; closeErr != nil {
		if closeErr.ErrorMessage != "" {
			message = closeErr.ErrorMessage
		} else {
			message = errorCodeName(uint64(closeErr.ErrorCode))
		}
	}
	var cmds []proxy.Command
	for _, id := range c.h3.ReservedStreamIDs() {
		cmds = append(cmds, &ReceiveHttp{Event: c.recv.protocolError(id, c.recv.errorCode, message)})
	}
	c.closed = true
	return cmds
}

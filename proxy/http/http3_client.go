package http

import (
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/trellisproxy/trellis/proxy"
)

// HTTP3Client is the upstream-facing HTTP/3 role. Stream ids arriving
// from the proxy core are logical ones, possibly mirroring an HTTP/2
// peer on the other leg, and are remapped onto freshly allocated QUIC
// stream ids before the shared dispatch sees them.
type HTTP3Client struct {
	http3Connection

	// ourStreamID and theirStreamID are exact inverses of each other.
	// Entries are created lazily and live for the whole connection.
	ourStreamID   map[quic.StreamID]quic.StreamID // logical -> physical
	theirStreamID map[quic.StreamID]quic.StreamID // physical -> logical
}

var _ proxy.Layer = (*HTTP3Client)(nil)

func NewHTTP3Client(ctx *proxy.Context) *HTTP3Client {
	c := &HTTP3Client{
		ourStreamID:   make(map[quic.StreamID]quic.StreamID),
		theirStreamID: make(map[quic.StreamID]quic.StreamID),
	}
	c.http3Connection = newHTTP3Connection(ctx, ctx.Server, receiveBindings{
		data: func(id quic.StreamID, data []byte) HttpEvent {
			return &ResponseData{Stream: id, Data: data}
		},
		endOfMessage: func(id quic.StreamID) HttpEvent {
			return &ResponseEndOfMessage{Stream: id}
		},
		protocolError: func(id quic.StreamID, code int, message string) HttpEvent {
			return &ResponseProtocolError{Stream: id, Code: code, Message: message}
		},
		trailers: func(id quic.StreamID, trailers Headers) HttpEvent {
			return &ResponseTrailers{Stream: id, Trailers: trailers}
		},
		errorCode: stdhttp.StatusBadGateway,
	}, c.parseHeaders)
	return c
}

// HandleEvent rewrites logical stream ids to physical QUIC ids on the
// way in, and back again on every HTTP event emitted. Physical streams
// are always allocated bidirectional: unidirectionality cannot be
// inferred from the generic event alone.
func (c *HTTP3Client) HandleEvent(ev proxy.Event) []proxy.Command {
	if hev, ok := ev.(HttpEvent); ok {
		ours, ok := c.ourStreamID[hev.StreamID()]
		if !ok {
			ours = c.h3.NextAvailableStreamID()
			c.ourStreamID[hev.StreamID()] = ours
			c.theirStreamID[ours] = hev.StreamID()
		}
		ev = hev.withStreamID(ours)
	}
	cmds := c.http3Connection.HandleEvent(ev)
	for i, cmd := range cmds {
		recv, ok := cmd.(*ReceiveHttp)
		if !ok {
			continue
		}
		theirs, ok := c.theirStreamID[recv.Event.StreamID()]
		if !ok {
			panic(fmt.Sprintf("no logical id for stream %d", recv.Event.StreamID()))
		}
		cmds[i] = &ReceiveHttp{Event: recv.Event.withStreamID(theirs)}
	}
	return cmds
}

// parseHeaders interprets a wire header section as a response, exactly
// the way the HTTP/2 layer does.
func (c *HTTP3Client) parseHeaders(ev *HeadersReceived) (HttpEvent, error) {
	resp, err := parseResponseHeaders(ev.Fields)
	if err != nil {
		return nil, err
	}
	resp.HTTPVersion = "HTTP/3"
	resp.TimestampStart = time.Now()
	return &ResponseHeaders{Stream: ev.Stream, Response: resp, EndStream: ev.StreamEnded}, nil
}

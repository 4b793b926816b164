package http

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/quic-go/qpack"
	"github.com/quic-go/quic-go"

	"github.com/trellisproxy/trellis/internal/wire"
	"github.com/trellisproxy/trellis/proxy"
)

// h3Transport is the wire-state surface the HTTP/3 engine drives.
// LayeredH3Connection is the production implementation.
type h3Transport interface {
	SendHeaders(id quic.StreamID, fields []qpack.HeaderField, endStream bool) error
	SendData(id quic.StreamID, data []byte, endStream bool) error
	SendTrailers(id quic.StreamID, fields []qpack.HeaderField) error
	EndStream(id quic.StreamID) error
	ResetStream(id quic.StreamID, code ErrCode)
	CloseConnection(code ErrCode, reason string)
	HasSentHeaders(id quic.StreamID) bool
	HasEnded(id quic.StreamID) bool
	NextAvailableStreamID() quic.StreamID
	ReservedStreamIDs() []quic.StreamID
	Transmit() []proxy.Command
	HandleStreamEvent(ev proxy.QuicStreamEvent) []H3Event
}

// LayeredH3Connection owns the HTTP/3 wire state of one QUIC connection.
// It does no I/O itself: sends are buffered as proxy commands until
// Transmit drains them, and receives are fed in as raw QUIC stream
// events and handed back as typed H3 events.
type LayeredH3Connection struct {
	conn *proxy.Connection

	// isClient is our perspective on this QUIC connection and decides
	// the stream-id parity of locally initiated streams.
	isClient bool

	streams    map[quic.StreamID]*h3Stream
	nextBidiID quic.StreamID
	nextUniID  quic.StreamID

	decoder *qpack.Decoder

	pending     []proxy.Command
	controlSent bool
	closed      bool
}

var _ h3Transport = (*LayeredH3Connection)(nil)

type h3Stream struct {
	id      quic.StreamID
	recvBuf []byte

	headersSent      bool
	headersReceived  bool
	trailersReceived bool
	localEnded       bool
	remoteEnded      bool
	resetSent        bool
	resetReceived    bool

	// set once the stream-type varint of a peer unidirectional stream
	// has been read
	uniType *wire.StreamType
	pushID  *uint64
}

// NewLayeredH3Connection sets up HTTP/3 state for one QUIC connection.
// isClient selects whether locally initiated streams use client or
// server stream-id parity.
func NewLayeredH3Connection(conn *proxy.Connection, isClient bool) *LayeredH3Connection {
	l := &LayeredH3Connection{
		conn:     conn,
		isClient: isClient,
		streams:  make(map[quic.StreamID]*h3Stream),
		decoder:  qpack.NewDecoder(func(qpack.HeaderField) {}),
	}
	if isClient {
		l.nextBidiID, l.nextUniID = 0, 2
	} else {
		l.nextBidiID, l.nextUniID = 1, 3
	}
	return l
}

func (l *LayeredH3Connection) stream(id quic.StreamID) *h3Stream {
	s, ok := l.streams[id]
	if !ok {
		s = &h3Stream{id: id}
		l.streams[id] = s
	}
	return s
}

func (l *LayeredH3Connection) queue(cmd proxy.Command) {
	l.pending = append(l.pending, cmd)
}

func (s *h3Stream) sendable() error {
	if s.resetSent {
		return &FrameUnexpectedError{Reason: fmt.Sprintf("stream %d was reset", s.id)}
	}
	if s.localEnded {
		return &FrameUnexpectedError{Reason: fmt.Sprintf("stream %d already ended", s.id)}
	}
	return nil
}

// SendHeaders queues a HEADERS frame on the given request stream.
func (l *LayeredH3Connection) SendHeaders(id quic.StreamID, fields []qpack.HeaderField, endStream bool) error {
	s := l.stream(id)
	if err := s.sendable(); err != nil {
		return err
	}
	block, err := encodeFieldSection(fields)
	if err != nil {
		return err
	}
	l.queue(&proxy.SendQuicStreamData{
		Connection: l.conn,
		Stream:     id,
		Data:       wire.AppendFrame(nil, wire.FrameTypeHeaders, block),
		EndStream:  endStream,
	})
	s.headersSent = true
	if endStream {
		s.localEnded = true
	}
	return nil
}

// SendData queues a DATA frame on the given request stream.
func (l *LayeredH3Connection) SendData(id quic.StreamID, data []byte, endStream bool) error {
	s := l.stream(id)
	if err := s.sendable(); err != nil {
		return err
	}
	if !s.headersSent {
		return &FrameUnexpectedError{Reason: fmt.Sprintf("no headers sent yet on stream %d", id)}
	}
	l.queue(&proxy.SendQuicStreamData{
		Connection: l.conn,
		Stream:     id,
		Data:       wire.AppendFrame(nil, wire.FrameTypeData, data),
		EndStream:  endStream,
	})
	if endStream {
		s.localEnded = true
	}
	return nil
}

// SendTrailers queues a trailing HEADERS frame. The stream stays open
// until EndStream is called.
func (l *LayeredH3Connection) SendTrailers(id quic.StreamID, fields []qpack.HeaderField) error {
	s := l.stream(id)
	if err := s.sendable(); err != nil {
		return err
	}
	if !s.headersSent {
		return &FrameUnexpectedError{Reason: fmt.Sprintf("trailers before headers on stream %d", id)}
	}
	block, err := encodeFieldSection(fields)
	if err != nil {
		return err
	}
	l.queue(&proxy.SendQuicStreamData{
		Connection: l.conn,
		Stream:     id,
		Data:       wire.AppendFrame(nil, wire.FrameTypeHeaders, block),
	})
	return nil
}

// EndStream queues the FIN for a stream without further payload.
func (l *LayeredH3Connection) EndStream(id quic.StreamID) error {
	s := l.stream(id)
	if err := s.sendable(); err != nil {
		return err
	}
	l.queue(&proxy.SendQuicStreamData{
		Connection: l.conn,
		Stream:     id,
		EndStream:  true,
	})
	s.localEnded = true
	return nil
}

// ResetStream aborts the sending side of a stream with the given H3
// code. Resetting twice is a no-op.
func (l *LayeredH3Connection) ResetStream(id quic.StreamID, code ErrCode) {
	s := l.stream(id)
	if s.resetSent {
		return
	}
	s.resetSent = true
	s.localEnded = true
	l.queue(&proxy.ResetQuicStream{
		Connection: l.conn,
		Stream:     id,
		ErrorCode:  quic.StreamErrorCode(code),
	})
}

// CloseConnection tears the whole connection down.
func (l *LayeredH3Connection) CloseConnection(code ErrCode, reason string) {
	if l.closed {
		return
	}
	l.closed = true
	l.queue(&proxy.CloseQuicConnection{
		Connection: l.conn,
		ErrorCode:  quic.ApplicationErrorCode(code),
		Reason:     reason,
	})
}

// HasSentHeaders reports whether headers went out on the stream.
func (l *LayeredH3Connection) HasSentHeaders(id quic.StreamID) bool {
	s, ok := l.streams[id]
	return ok && s.headersSent
}

// HasEnded reports whether both directions of the stream are finished,
// by FIN or by reset.
func (l *LayeredH3Connection) HasEnded(id quic.StreamID) bool {
	s, ok := l.streams[id]
	if !ok {
		return false
	}
	if s.resetSent || s.resetReceived {
		return true
	}
	return s.localEnded && s.remoteEnded
}

// NextAvailableStreamID reserves and returns the next locally initiated
// bidirectional stream id.
func (l *LayeredH3Connection) NextAvailableStreamID() quic.StreamID {
	id := l.nextBidiID
	l.nextBidiID += 4
	l.stream(id)
	return id
}

// ReservedStreamIDs lists the request streams that are still open or
// reserved, in ascending order.
func (l *LayeredH3Connection) ReservedStreamIDs() []quic.StreamID {
	var ids []quic.StreamID
	for id := range l.streams {
		if id%4 >= 2 {
			// unidirectional
			continue
		}
		if l.HasEnded(id) {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Transmit drains the buffered wire commands. The first call also
// bootstraps the local control stream with its SETTINGS frame.
func (l *LayeredH3Connection) Transmit() []proxy.Command {
	if !l.controlSent && !l.closed {
		l.controlSent = true
		b := wire.AppendStreamType(nil, wire.StreamTypeControl)
		b = wire.AppendSettings(b, nil)
		bootstrap := &proxy.SendQuicStreamData{
			Connection: l.conn,
			Stream:     l.nextUniID,
			Data:       b,
		}
		l.nextUniID += 4
		l.pending = append([]proxy.Command{bootstrap}, l.pending...)
	}
	cmds := l.pending
	l.pending = nil
	return cmds
}

// HandleStreamEvent turns one raw QUIC stream event into zero or more
// typed H3 events.
func (l *LayeredH3Connection) HandleStreamEvent(ev proxy.QuicStreamEvent) []H3Event {
	switch ev := ev.(type) {
	case *proxy.QuicStreamDataReceived:
		if l.peerInitiatedUni(ev.Stream) {
			return l.handleUniStreamData(ev)
		}
		return l.handleRequestStreamData(ev)
	case *proxy.QuicStreamReset:
		s := l.stream(ev.Stream)
		s.resetReceived = true
		s.remoteEnded = true
		if l.peerInitiatedUni(ev.Stream) {
			if s.uniType != nil && *s.uniType == wire.StreamTypePush {
				return []H3Event{&StreamReset{Stream: ev.Stream, ErrorCode: ErrCode(ev.ErrorCode), Push: s.pushID}}
			}
			return nil
		}
		return []H3Event{&StreamReset{Stream: ev.Stream, ErrorCode: ErrCode(ev.ErrorCode)}}
	default:
		panic(fmt.Sprintf("unexpected QUIC stream event: %#v", ev))
	}
}

// peerInitiatedUni reports whether the stream is a unidirectional stream
// opened by the peer.
func (l *LayeredH3Connection) peerInitiatedUni(id quic.StreamID) bool {
	if id%4 < 2 {
		return false
	}
	return (id%4 == 2) != l.isClient
}

func (l *LayeredH3Connection) handleRequestStreamData(ev *proxy.QuicStreamDataReceived) []H3Event {
	s := l.stream(ev.Stream)
	if s.resetReceived {
		return nil
	}
	s.recvBuf = append(s.recvBuf, ev.Data...)

	var events []H3Event
	for {
		frame, n, ok := wire.ParseFrame(s.recvBuf)
		if !ok {
			break
		}
		s.recvBuf = s.recvBuf[n:]
		switch frame.Type {
		case wire.FrameTypeData:
			events = append(events, &DataReceived{
				Stream: ev.Stream,
				Data:   bytes.Clone(frame.Payload),
			})
		case wire.FrameTypeHeaders:
			fields, err := l.decoder.DecodeFull(frame.Payload)
			if err != nil {
				// surfaced as an unparsable header section
				fields = nil
			}
			if !s.headersReceived {
				s.headersReceived = true
				events = append(events, &HeadersReceived{Stream: ev.Stream, Fields: fields})
			} else {
				s.trailersReceived = true
				events = append(events, &TrailersReceived{Stream: ev.Stream, Fields: fields})
			}
		case wire.FrameTypePushPromise:
			// push id varint, then a header section we never translate
			pushID, m, ok := wire.ParseVarint(frame.Payload)
			if !ok {
				continue
			}
			fields, err := l.decoder.DecodeFull(frame.Payload[m:])
			if err != nil {
				fields = nil
			}
			events = append(events, &HeadersReceived{Stream: ev.Stream, Fields: fields, Push: &pushID})
		default:
			// grease and extension frames
		}
	}

	if ev.EndStream {
		s.remoteEnded = true
		if len(events) > 0 && len(s.recvBuf) == 0 {
			markStreamEnded(events[len(events)-1])
		} else {
			events = append(events, &DataReceived{Stream: ev.Stream, StreamEnded: true})
		}
	}
	return events
}

func (l *LayeredH3Connection) handleUniStreamData(ev *proxy.QuicStreamDataReceived) []H3Event {
	s := l.stream(ev.Stream)
	s.recvBuf = append(s.recvBuf, ev.Data...)
	if ev.EndStream {
		s.remoteEnded = true
	}
	if s.uniType == nil {
		t, n, ok := wire.ParseVarint(s.recvBuf)
		if !ok {
			return nil
		}
		streamType := wire.StreamType(t)
		s.uniType = &streamType
		s.recvBuf = s.recvBuf[n:]
	}
	if *s.uniType != wire.StreamTypePush {
		// control, QPACK and unknown stream types never carry
		// request/response traffic; their frames are absorbed here
		for {
			_, n, ok := wire.ParseFrame(s.recvBuf)
			if !ok {
				return nil
			}
			s.recvBuf = s.recvBuf[n:]
		}
	}
	if s.pushID == nil {
		id, n, ok := wire.ParseVarint(s.recvBuf)
		if !ok {
			return nil
		}
		s.pushID = &id
		s.recvBuf = s.recvBuf[n:]
	}
	return l.parsePushFrames(s)
}

func (l *LayeredH3Connection) parsePushFrames(s *h3Stream) []H3Event {
	var events []H3Event
	for {
		frame, n, ok := wire.ParseFrame(s.recvBuf)
		if !ok {
			break
		}
		s.recvBuf = s.recvBuf[n:]
		switch frame.Type {
		case wire.FrameTypeHeaders:
			fields, err := l.decoder.DecodeFull(frame.Payload)
			if err != nil {
				fields = nil
			}
			if !s.headersReceived {
				s.headersReceived = true
				events = append(events, &HeadersReceived{Stream: s.id, Fields: fields, Push: s.pushID})
			} else {
				events = append(events, &TrailersReceived{Stream: s.id, Fields: fields, Push: s.pushID})
			}
		case wire.FrameTypeData:
			events = append(events, &DataReceived{Stream: s.id, Data: bytes.Clone(frame.Payload), Push: s.pushID})
		}
	}
	if s.remoteEnded && len(s.recvBuf) == 0 && len(events) > 0 {
		markStreamEnded(events[len(events)-1])
	}
	return events
}

func markStreamEnded(ev H3Event) {
	switch ev := ev.(type) {
	case *HeadersReceived:
		ev.StreamEnded = true
	case *DataReceived:
		ev.StreamEnded = true
	case *TrailersReceived:
		ev.StreamEnded = true
	}
}

func encodeFieldSection(fields []qpack.HeaderField) ([]byte, error) {
	var block bytes.Buffer
	encoder := qpack.NewEncoder(&block)
	for _, f := range fields {
		if err := encoder.WriteField(f); err != nil {
			return nil, err
		}
	}
	return block.Bytes(), nil
}

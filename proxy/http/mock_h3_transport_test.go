package http

import (
	"github.com/quic-go/qpack"
	"github.com/quic-go/quic-go"
	"github.com/stretchr/testify/mock"

	"github.com/trellisproxy/trellis/proxy"
)

var _ h3Transport = (*MockH3Transport)(nil)

type MockH3Transport struct {
	mock.Mock
}

func (m *MockH3Transport) SendHeaders(id quic.StreamID, fields []qpack.HeaderField, endStream bool) error {
	args := m.Called(id, fields, endStream)
	return args.Error(0)
}

func (m *MockH3Transport) SendData(id quic.StreamID, data []byte, endStream bool) error {
	args := m.Called(id, data, endStream)
	return args.Error(0)
}

func (m *MockH3Transport) SendTrailers(id quic.StreamID, fields []qpack.HeaderField) error {
	args := m.Called(id, fields)
	return args.Error(0)
}

func (m *MockH3Transport) EndStream(id quic.StreamID) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockH3Transport) ResetStream(id quic.StreamID, code ErrCode) {
	m.Called(id, code)
}

func (m *MockH3Transport) CloseConnection(code ErrCode, reason string) {
	m.Called(code, reason)
}

func (m *MockH3Transport) HasSentHeaders(id quic.StreamID) bool {
	args := m.Called(id)
	return args.Bool(0)
}

func (m *MockH3Transport) HasEnded(id quic.StreamID) bool {
	args := m.Called(id)
	return args.Bool(0)
}

func (m *MockH3Transport) NextAvailableStreamID() quic.StreamID {
	args := m.Called()
	return args.Get(0).(quic.StreamID)
}

func (m *MockH3Transport) ReservedStreamIDs() []quic.StreamID {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]quic.StreamID)
}

func (m *MockH3Transport) Transmit() []proxy.Command {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]proxy.Command)
}

func (m *MockH3Transport) HandleStreamEvent(ev proxy.QuicStreamEvent) []H3Event {
	args := m.Called(ev)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]H3Event)
}

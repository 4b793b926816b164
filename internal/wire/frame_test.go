package wire_test

import (
	"testing"

	"github.com/quic-go/quic-go/quicvarint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisproxy/trellis/internal/wire"
)

func TestAppendParseFrame(t *testing.T) {
	tests := map[string]struct {
		frameType wire.FrameType
		payload   []byte
	}{
		"data frame":       {frameType: wire.FrameTypeData, payload: []byte("hello")},
		"empty data frame": {frameType: wire.FrameTypeData, payload: nil},
		"headers frame":    {frameType: wire.FrameTypeHeaders, payload: []byte{0x00, 0x00, 0xd1}},
		"settings frame":   {frameType: wire.FrameTypeSettings, payload: []byte{}},
		"extension frame":  {frameType: wire.FrameType(0x21), payload: []byte{0xff}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			b := wire.AppendFrame(nil, tc.frameType, tc.payload)

			frame, n, ok := wire.ParseFrame(b)
			require.True(t, ok)
			assert.Equal(t, len(b), n)
			assert.Equal(t, tc.frameType, frame.Type)
			assert.Equal(t, len(tc.payload), len(frame.Payload))
			if len(tc.payload) > 0 {
				assert.Equal(t, tc.payload, frame.Payload)
			}
		})
	}
}

func TestParseFrameIncomplete(t *testing.T) {
	full := wire.AppendFrame(nil, wire.FrameTypeData, []byte("payload"))

	for cut := 0; cut < len(full); cut++ {
		_, _, ok := wire.ParseFrame(full[:cut])
		assert.False(t, ok, "cut at %d", cut)
	}
}

func TestParseFrameConsumesOneFrame(t *testing.T) {
	b := wire.AppendFrame(nil, wire.FrameTypeHeaders, []byte("first"))
	b = wire.AppendFrame(b, wire.FrameTypeData, []byte("second"))

	frame, n, ok := wire.ParseFrame(b)
	require.True(t, ok)
	assert.Equal(t, wire.FrameTypeHeaders, frame.Type)
	assert.Equal(t, []byte("first"), frame.Payload)

	frame, _, ok = wire.ParseFrame(b[n:])
	require.True(t, ok)
	assert.Equal(t, wire.FrameTypeData, frame.Type)
	assert.Equal(t, []byte("second"), frame.Payload)
}

func TestAppendSettings(t *testing.T) {
	b := wire.AppendSettings(nil, map[uint64]uint64{
		wire.SettingQPACKBlockedStreams:   16,
		wire.SettingQPACKMaxTableCapacity: 4096,
	})

	frame, _, ok := wire.ParseFrame(b)
	require.True(t, ok)
	assert.Equal(t, wire.FrameTypeSettings, frame.Type)

	// identifiers must come out in ascending order
	payload := frame.Payload
	id, n, err := quicvarint.Parse(payload)
	require.NoError(t, err)
	assert.Equal(t, wire.SettingQPACKMaxTableCapacity, id)
	value, m, err := quicvarint.Parse(payload[n:])
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), value)

	id, _, err = quicvarint.Parse(payload[n+m:])
	require.NoError(t, err)
	assert.Equal(t, wire.SettingQPACKBlockedStreams, id)
}

func TestAppendSettingsEmpty(t *testing.T) {
	frame, _, ok := wire.ParseFrame(wire.AppendSettings(nil, nil))
	require.True(t, ok)
	assert.Equal(t, wire.FrameTypeSettings, frame.Type)
	assert.Empty(t, frame.Payload)
}

func TestFrameTypeString(t *testing.T) {
	tests := map[string]struct {
		frameType wire.FrameType
		expect    string
	}{
		"data":         {frameType: wire.FrameTypeData, expect: "DATA"},
		"headers":      {frameType: wire.FrameTypeHeaders, expect: "HEADERS"},
		"push promise": {frameType: wire.FrameTypePushPromise, expect: "PUSH_PROMISE"},
		"unknown":      {frameType: wire.FrameType(0x2f), expect: "UNKNOWN(0x2f)"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.frameType.String())
		})
	}
}

func TestStreamTypeString(t *testing.T) {
	tests := map[string]struct {
		streamType wire.StreamType
		expect     string
	}{
		"control": {streamType: wire.StreamTypeControl, expect: "control"},
		"push":    {streamType: wire.StreamTypePush, expect: "push"},
		"unknown": {streamType: wire.StreamType(0x54), expect: "unknown(0x54)"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.streamType.String())
		})
	}
}

func TestParseVarint(t *testing.T) {
	b := wire.AppendStreamType(nil, wire.StreamTypePush)
	v, n, ok := wire.ParseVarint(b)
	require.True(t, ok)
	assert.Equal(t, uint64(wire.StreamTypePush), v)
	assert.Equal(t, len(b), n)

	_, _, ok = wire.ParseVarint(nil)
	assert.False(t, ok)
}

package wire

import (
	"fmt"
	"slices"

	"github.com/quic-go/quic-go/quicvarint"
)

// FrameType identifies an HTTP/3 frame (RFC 9114, section 7.2).
type FrameType uint64

const (
	FrameTypeData        FrameType = 0x00
	FrameTypeHeaders     FrameType = 0x01
	FrameTypeCancelPush  FrameType = 0x03
	FrameTypeSettings    FrameType = 0x04
	FrameTypePushPromise FrameType = 0x05
	FrameTypeGoAway      FrameType = 0x07
	FrameTypeMaxPushID   FrameType = 0x0d
)

var frameTypeNames = map[FrameType]string{
	FrameTypeData:        "DATA",
	FrameTypeHeaders:     "HEADERS",
	FrameTypeCancelPush:  "CANCEL_PUSH",
	FrameTypeSettings:    "SETTINGS",
	FrameTypePushPromise: "PUSH_PROMISE",
	FrameTypeGoAway:      "GOAWAY",
	FrameTypeMaxPushID:   "MAX_PUSH_ID",
}

func (t FrameType) String() string {
	if name, ok := frameTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(0x%x)", uint64(t))
}

// Frame is one HTTP/3 frame with its payload still opaque.
type Frame struct {
	Type    FrameType
	Payload []byte
}

// AppendFrame appends a frame header and payload to b.
func AppendFrame(b []byte, t FrameType, payload []byte) []byte {
	b = quicvarint.Append(b, uint64(t))
	b = quicvarint.Append(b, uint64(len(payload)))
	return append(b, payload...)
}

// ParseFrame reads the first complete frame out of b. It returns the
// frame, the number of bytes consumed, and whether b held a complete
// frame. The payload aliases b.
func ParseFrame(b []byte) (Frame, int, bool) {
	t, n, err := quicvarint.Parse(b)
	if err != nil {
		return Frame{}, 0, false
	}
	length, m, err := quicvarint.Parse(b[n:])
	if err != nil {
		return Frame{}, 0, false
	}
	end := n + m + int(length)
	if len(b) < end {
		return Frame{}, 0, false
	}
	return Frame{Type: FrameType(t), Payload: b[n+m : end]}, end, true
}

// Setting identifiers carried on the control stream (RFC 9114, section
// 7.2.4.1).
const (
	SettingQPACKMaxTableCapacity uint64 = 0x01
	SettingMaxFieldSectionSize   uint64 = 0x06
	SettingQPACKBlockedStreams   uint64 = 0x07
)

// AppendSettings appends a SETTINGS frame carrying the given identifier
// and value pairs, in ascending identifier order.
func AppendSettings(b []byte, settings map[uint64]uint64) []byte {
	ids := make([]uint64, 0, len(settings))
	for id := range settings {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	payload := make([]byte, 0, 8*len(settings))
	for _, id := range ids {
		payload = quicvarint.Append(payload, id)
		payload = quicvarint.Append(payload, settings[id])
	}
	return AppendFrame(b, FrameTypeSettings, payload)
}

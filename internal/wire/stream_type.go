package wire

import (
	"fmt"

	"github.com/quic-go/quic-go/quicvarint"
)

// StreamType identifies a unidirectional HTTP/3 stream (RFC 9114,
// section 6.2).
type StreamType uint64

const (
	StreamTypeControl      StreamType = 0x00
	StreamTypePush         StreamType = 0x01
	StreamTypeQPACKEncoder StreamType = 0x02
	StreamTypeQPACKDecoder StreamType = 0x03
)

var streamTypeNames = map[StreamType]string{
	StreamTypeControl:      "control",
	StreamTypePush:         "push",
	StreamTypeQPACKEncoder: "QPACK encoder",
	StreamTypeQPACKDecoder: "QPACK decoder",
}

func (t StreamType) String() string {
	if name, ok := streamTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(0x%x)", uint64(t))
}

// AppendStreamType appends the stream type varint that opens a
// unidirectional stream.
func AppendStreamType(b []byte, t StreamType) []byte {
	return quicvarint.Append(b, uint64(t))
}

// ParseVarint reads a single varint from b, returning its value, the
// number of bytes consumed, and whether b held a complete varint.
func ParseVarint(b []byte) (uint64, int, bool) {
	v, n, err := quicvarint.Parse(b)
	if err != nil {
		return 0, 0, false
	}
	return v, n, true
}

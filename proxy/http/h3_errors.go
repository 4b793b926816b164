package http

import (
	"fmt"

	"github.com/quic-go/quic-go"
)

/*
 * HTTP/3 error codes
 */

// ErrCode is an HTTP/3 application error code (RFC 9114, section 8.1).
// It rides on streams as a QUIC reset code and on connection closes as
// an application error code.
type ErrCode quic.ApplicationErrorCode

const (
	ErrCodeNoError              ErrCode = 0x100
	ErrCodeGeneralProtocolError ErrCode = 0x101
	ErrCodeInternalError        ErrCode = 0x102
	ErrCodeStreamCreationError  ErrCode = 0x103
	ErrCodeClosedCriticalStream ErrCode = 0x104
	ErrCodeFrameUnexpected      ErrCode = 0x105
	ErrCodeFrameError           ErrCode = 0x106
	ErrCodeExcessiveLoad        ErrCode = 0x107
	ErrCodeIDError              ErrCode = 0x108
	ErrCodeSettingsError        ErrCode = 0x109
	ErrCodeMissingSettings      ErrCode = 0x10a
	ErrCodeRequestRejected      ErrCode = 0x10b
	ErrCodeRequestCancelled     ErrCode = 0x10c
	ErrCodeRequestIncomplete    ErrCode = 0x10d
	ErrCodeMessageError         ErrCode = 0x10e
	ErrCodeConnectError         ErrCode = 0x10f
	ErrCodeVersionFallback      ErrCode = 0x110
)

var errCodeNames = map[ErrCode]string{
	ErrCodeNoError:              "H3_NO_ERROR",
	ErrCodeGeneralProtocolError: "H3_GENERAL_PROTOCOL_ERROR",
	ErrCodeInternalError:        "H3_INTERNAL_ERROR",
	ErrCodeStreamCreationError:  "H3_STREAM_CREATION_ERROR",
	ErrCodeClosedCriticalStream: "H3_CLOSED_CRITICAL_STREAM",
	ErrCodeFrameUnexpected:      "H3_FRAME_UNEXPECTED",
	ErrCodeFrameError:           "H3_FRAME_ERROR",
	ErrCodeExcessiveLoad:        "H3_EXCESSIVE_LOAD",
	ErrCodeIDError:              "H3_ID_ERROR",
	ErrCodeSettingsError:        "H3_SETTINGS_ERROR",
	ErrCodeMissingSettings:      "H3_MISSING_SETTINGS",
	ErrCodeRequestRejected:      "H3_REQUEST_REJECTED",
	ErrCodeRequestCancelled:     "H3_REQUEST_CANCELLED",
	ErrCodeRequestIncomplete:    "H3_REQUEST_INCOMPLETE",
	ErrCodeMessageError:         "H3_MESSAGE_ERROR",
	ErrCodeConnectError:         "H3_CONNECT_ERROR",
	ErrCodeVersionFallback:      "H3_VERSION_FALLBACK",
}

func (c ErrCode) String() string {
	if name, ok := errCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("unknown error (0x%x)", uint64(c))
}

// errorCodeName names an error code from either the H3 or the QUIC
// transport space, for log lines and reason phrases.
func errorCodeName(code uint64) string {
	if name, ok := errCodeNames[ErrCode(code)]; ok {
		return name
	}
	if code <= uint64(quic.NoViablePathError) {
		return quic.TransportErrorCode(code).String()
	}
	return fmt.Sprintf("unknown error (0x%x)", code)
}

// errorCodeForStatus maps a generic proxy status code onto the H3 error
// code used when aborting a stream. Everything without a specific
// counterpart collapses to H3_INTERNAL_ERROR.
func errorCodeForStatus(code int) ErrCode {
	if code == StatusClientClosedRequest {
		return ErrCodeRequestCancelled
	}
	return ErrCodeInternalError
}

// statusForErrorCode is the reverse mapping. Codes without a specific
// counterpart collapse to the role's default protocol-error status.
func statusForErrorCode(code ErrCode, roleDefault int) int {
	if code == ErrCodeRequestCancelled {
		return StatusClientClosedRequest
	}
	return roleDefault
}

// FrameUnexpectedError reports a frame that cannot be sent in the
// stream's current state. The engine tolerates it: late writes to
// finished streams happen whenever the two proxy legs race.
type FrameUnexpectedError struct {
	Reason string
}

func (e *FrameUnexpectedError) Error() string {
	return "frame unexpected: " + e.Reason
}

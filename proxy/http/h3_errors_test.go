package http

import (
	stdhttp "net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrCodeString(t *testing.T) {
	tests := map[string]struct {
		code   ErrCode
		expect string
	}{
		"no error":          {code: ErrCodeNoError, expect: "H3_NO_ERROR"},
		"protocol error":    {code: ErrCodeGeneralProtocolError, expect: "H3_GENERAL_PROTOCOL_ERROR"},
		"internal error":    {code: ErrCodeInternalError, expect: "H3_INTERNAL_ERROR"},
		"request cancelled": {code: ErrCodeRequestCancelled, expect: "H3_REQUEST_CANCELLED"},
		"version fallback":  {code: ErrCodeVersionFallback, expect: "H3_VERSION_FALLBACK"},
		"unknown":           {code: ErrCode(0x42), expect: "unknown error (0x42)"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.code.String())
		})
	}
}

func TestErrorCodeName(t *testing.T) {
	tests := map[string]struct {
		code   uint64
		expect string
	}{
		"h3 code":        {code: 0x10c, expect: "H3_REQUEST_CANCELLED"},
		"transport code": {code: 0x03, expect: "FLOW_CONTROL_ERROR"},
		"unknown":        {code: 0x4242, expect: "unknown error (0x4242)"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expect, errorCodeName(tc.code))
		})
	}
}

func TestStatusErrorCodeMapping(t *testing.T) {
	tests := map[string]struct {
		status int
		expect ErrCode
	}{
		"client closed request": {status: StatusClientClosedRequest, expect: ErrCodeRequestCancelled},
		"internal server error": {status: stdhttp.StatusInternalServerError, expect: ErrCodeInternalError},
		"bad gateway":           {status: stdhttp.StatusBadGateway, expect: ErrCodeInternalError},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expect, errorCodeForStatus(tc.status))
		})
	}
}

// Mapping a status to the wire and back must round-trip exactly for
// CLIENT_CLOSED_REQUEST and collapse to the role default for everything
// else.
func TestStatusErrorCodeRoundTrip(t *testing.T) {
	roleDefault := stdhttp.StatusBadGateway

	status := statusForErrorCode(errorCodeForStatus(StatusClientClosedRequest), roleDefault)
	assert.Equal(t, StatusClientClosedRequest, status)

	for _, original := range []int{200, 400, 500, 502, StatusNoResponse} {
		status := statusForErrorCode(errorCodeForStatus(original), roleDefault)
		assert.Equal(t, roleDefault, status, "status %d", original)
	}
}

func TestFormatErrorPage(t *testing.T) {
	body := string(formatErrorPage(502, "connection <refused>"))
	assert.Contains(t, body, "502 Bad Gateway")
	assert.Contains(t, body, "connection &lt;refused&gt;")

	body = string(formatErrorPage(499, "gone"))
	assert.Contains(t, body, "499 Client Closed Request")
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "No Response", StatusText(StatusNoResponse))
	assert.Equal(t, "Client Closed Request", StatusText(StatusClientClosedRequest))
	assert.Equal(t, "Not Found", StatusText(404))
	assert.Equal(t, "Unknown", StatusText(299))
}

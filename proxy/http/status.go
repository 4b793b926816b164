package http

import (
	stdhttp "net/http"
)

// Status codes the proxy uses beyond the registered IANA set. Both come
// from nginx and are well established in proxy deployments.
const (
	// StatusNoResponse closes the transaction without sending any
	// response at all.
	StatusNoResponse = 444

	// StatusClientClosedRequest records that the client went away
	// mid-request.
	StatusClientClosedRequest = 499
)

// StatusText returns the reason phrase for code, covering the proxy's
// nonstandard codes, or "Unknown" if none is known.
func StatusText(code int) string {
	switch code {
	case StatusNoResponse:
		return "No Response"
	case StatusClientClosedRequest:
		return "Client Closed Request"
	}
	if text := stdhttp.StatusText(code); text != "" {
		return text
	}
	return "Unknown"
}

package http

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/quic-go/qpack"
)

// Header translation shared between the HTTP/2 and HTTP/3 layers: both
// framings carry the request line and status line in the same set of
// pseudo-header fields.

// Connection-specific fields must not appear in an H2/H3 field section
// (RFC 9113, section 8.2.2).
var connectionSpecificFields = map[string]bool{
	"connection":        true,
	"proxy-connection":  true,
	"keep-alive":        true,
	"transfer-encoding": true,
	"upgrade":           true,
}

// splitPseudoFields separates the leading pseudo-header fields from the
// regular fields. It fails on duplicated pseudo headers and on pseudo
// headers appearing after a regular field.
func splitPseudoFields(fields []qpack.HeaderField) (map[string]string, Headers, error) {
	pseudo := make(map[string]string, 4)
	var headers Headers
	for _, f := range fields {
		if !strings.HasPrefix(f.Name, ":") {
			headers = append(headers, f)
			continue
		}
		if len(headers) > 0 {
			return nil, nil, fmt.Errorf("pseudo header %s after regular header field", f.Name)
		}
		if _, ok := pseudo[f.Name]; ok {
			return nil, nil, fmt.Errorf("duplicated pseudo header %s", f.Name)
		}
		pseudo[f.Name] = f.Value
	}
	return pseudo, headers, nil
}

// parseRequestHeaders interprets a request field section. The returned
// request has its target and fields filled in; protocol version and
// timestamps are up to the caller.
func parseRequestHeaders(fields []qpack.HeaderField) (*Request, error) {
	pseudo, headers, err := splitPseudoFields(fields)
	if err != nil {
		return nil, err
	}

	method, hasMethod := pseudo[":method"]
	scheme, hasScheme := pseudo[":scheme"]
	path, hasPath := pseudo[":path"]
	authority := pseudo[":authority"]
	for name := range pseudo {
		switch name {
		case ":method", ":scheme", ":path", ":authority":
		default:
			return nil, fmt.Errorf("unknown pseudo header %s", name)
		}
	}
	if !hasMethod || method == "" {
		return nil, errors.New("required pseudo header :method is missing")
	}

	var host string
	var port int
	if method == "CONNECT" {
		if hasScheme || hasPath {
			return nil, errors.New("CONNECT request must not have :scheme or :path")
		}
		if authority == "" {
			return nil, errors.New("CONNECT request must have :authority")
		}
		host, port, err = splitAuthority(authority, 0)
		if err != nil {
			return nil, err
		}
	} else {
		if !hasScheme || !hasPath {
			return nil, errors.New("request must have both :scheme and :path")
		}
		if path == "" {
			return nil, errors.New("empty :path")
		}
		defaultPort := 80
		if scheme == "https" {
			defaultPort = 443
		}
		if authority != "" {
			host, port, err = splitAuthority(authority, defaultPort)
			if err != nil {
				return nil, err
			}
		} else if host = headers.Get("host"); host != "" {
			port = defaultPort
		} else {
			return nil, errors.New("request must have :authority or a host header")
		}
	}

	return &Request{
		Host:      host,
		Port:      port,
		Method:    method,
		Scheme:    scheme,
		Authority: authority,
		Path:      path,
		Headers:   headers,
	}, nil
}

// parseResponseHeaders interprets a response field section.
func parseResponseHeaders(fields []qpack.HeaderField) (*Response, error) {
	pseudo, headers, err := splitPseudoFields(fields)
	if err != nil {
		return nil, err
	}
	for name := range pseudo {
		if name != ":status" {
			return nil, fmt.Errorf("unknown pseudo header %s", name)
		}
	}
	status, ok := pseudo[":status"]
	if !ok {
		return nil, errors.New("required pseudo header :status is missing")
	}
	code, err := strconv.Atoi(status)
	if err != nil || code < 100 || code > 599 {
		return nil, fmt.Errorf("invalid :status %q", status)
	}
	return &Response{
		StatusCode: code,
		Headers:    headers,
	}, nil
}

// formatRequestHeaders renders req into a wire field section, dropping
// the connection-specific fields the binary framings forbid. The host
// header folds into :authority.
func formatRequestHeaders(req *Request) []qpack.HeaderField {
	fields := make([]qpack.HeaderField, 0, len(req.Headers)+4)
	fields = append(fields, qpack.HeaderField{Name: ":method", Value: req.Method})
	if req.Method != "CONNECT" {
		fields = append(fields,
			qpack.HeaderField{Name: ":scheme", Value: req.Scheme},
			qpack.HeaderField{Name: ":path", Value: req.Path},
		)
	}
	authority := req.Authority
	if authority == "" {
		authority = req.Headers.Get("host")
	}
	if authority != "" {
		fields = append(fields, qpack.HeaderField{Name: ":authority", Value: authority})
	}
	return appendRegularFields(fields, req.Headers)
}

// formatResponseHeaders renders resp into a wire field section.
func formatResponseHeaders(resp *Response) []qpack.HeaderField {
	fields := make([]qpack.HeaderField, 0, len(resp.Headers)+1)
	fields = append(fields, qpack.HeaderField{Name: ":status", Value: strconv.Itoa(resp.StatusCode)})
	return appendRegularFields(fields, resp.Headers)
}

func appendRegularFields(fields []qpack.HeaderField, headers Headers) []qpack.HeaderField {
	for _, f := range headers {
		name := strings.ToLower(f.Name)
		if connectionSpecificFields[name] || name == "host" {
			continue
		}
		fields = append(fields, qpack.HeaderField{Name: name, Value: f.Value})
	}
	return fields
}

// splitAuthority splits an authority into host and port. A defaultPort
// of zero makes the port mandatory, as it is for CONNECT targets.
func splitAuthority(authority string, defaultPort int) (string, int, error) {
	host, portStr, err := net.SplitHostPort(authority)
	if err != nil {
		if defaultPort == 0 {
			return "", 0, fmt.Errorf("authority %q must carry a port", authority)
		}
		return strings.Trim(authority, "[]"), defaultPort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in authority %q", authority)
	}
	return host, port, nil
}

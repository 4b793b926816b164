// Package http holds the proxy's version-independent HTTP representation
// and the protocol layers that translate it onto concrete wire formats.
package http

import (
	"time"

	"github.com/quic-go/qpack"
)

// Headers is an ordered list of header fields. Field names are kept the
// way the wire carried them; on the binary framings that means lower
// case.
type Headers []qpack.HeaderField

// Get returns the value of the first field with the given name, or "".
func (h Headers) Get(name string) string {
	for _, f := range h {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// Add appends a field.
func (h *Headers) Add(name, value string) {
	*h = append(*h, qpack.HeaderField{Name: name, Value: value})
}

// Request is the version-independent representation of an HTTP request.
type Request struct {
	Host      string
	Port      int
	Method    string
	Scheme    string
	Authority string
	Path      string

	HTTPVersion string
	Headers     Headers

	// Content and Trailers stay nil until the body and trailer events
	// for the transaction have been seen.
	Content  []byte
	Trailers Headers

	TimestampStart time.Time
	TimestampEnd   time.Time
}

// Response is the version-independent representation of an HTTP
// response.
type Response struct {
	HTTPVersion string
	StatusCode  int

	// Reason is the status-line reason phrase. The binary framings do
	// not carry one, so it is empty for H2 and H3 responses.
	Reason string

	Headers  Headers
	Content  []byte
	Trailers Headers

	TimestampStart time.Time
	TimestampEnd   time.Time
}

package http

import (
	"fmt"
	"html"
)

// formatErrorPage renders the minimal HTML body the proxy sends when it
// has to synthesize an error response itself.
func formatErrorPage(code int, message string) []byte {
	return []byte(fmt.Sprintf(
		"<html>\n<head>\n<title>%d %s</title>\n</head>\n<body>%s</body>\n</html>\n",
		code, StatusText(code), html.EscapeString(message),
	))
}

package errs

import (
	"regexp"
	"strings"
)

var (
	urlPattern = regexp.MustCompile(`https?://[^\s/$.?#].[^\s]*`)
	ipPattern  = regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}(?::[0-9]+)?\b`)
)

// Sanitize strips infrastructure detail (URLs, IPv4 literals) from upstream
// error text and rewrites well-known transport phrases into stable messages.
// Every error message must pass through here before it is stored on an error
// that can reach the API boundary.
func Sanitize(message string) string {
	sanitized := urlPattern.ReplaceAllString(message, "[rpc-endpoint]")
	sanitized = ipPattern.ReplaceAllString(sanitized, "[rpc-host]")

	lower := strings.ToLower(sanitized)

	switch {
	case strings.Contains(lower, "connection refused"):
		return "RPC connection refused, check if RPC is running and accepting connections"
	case strings.Contains(lower, "no route to host"), strings.Contains(lower, "host unreachable"):
		return "RPC host unreachable, check network connectivity and RPC configuration"
	case strings.Contains(lower, "error sending request"),
		strings.Contains(lower, "timeout"),
		strings.Contains(lower, "timed out"):
		return "RPC request timeout, check if RPC is running and accepting connections"
	}

	return sanitized
}

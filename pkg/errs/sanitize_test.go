package errs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain message unchanged",
			input:    "something went wrong",
			expected: "something went wrong",
		},
		{
			name:     "url stripped",
			input:    "post to https://node.example.com/rpc failed",
			expected: "post to [rpc-endpoint] failed",
		},
		{
			name:     "ip with port stripped",
			input:    "dial tcp 192.168.1.20:8545 failed",
			expected: "dial tcp [rpc-host] failed",
		},
		{
			name:     "connection refused rewritten",
			input:    "dial tcp 127.0.0.1:8545: connect: connection refused",
			expected: "RPC connection refused, check if RPC is running and accepting connections",
		},
		{
			name:     "timeout rewritten",
			input:    "request timed out after 30s",
			expected: "RPC request timeout, check if RPC is running and accepting connections",
		},
		{
			name:     "host unreachable rewritten",
			input:    "No route to host",
			expected: "RPC host unreachable, check network connectivity and RPC configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sanitize(tt.input))
		})
	}
}

func TestSanitizeRemovesURLAndOctets(t *testing.T) {
	out := Sanitize("connecting to http://10.0.0.5:8545/rpc failed hard")

	assert.NotContains(t, out, "http://10.0.0.5:8545/rpc")
	assert.NotContains(t, out, "10.0.0.5")
	assert.NotContains(t, out, "8545")
}

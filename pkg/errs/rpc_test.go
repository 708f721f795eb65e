package errs

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/0xsequence/ethkit/ethrpc/jsonrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRPCNodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected RPCCode
	}{
		{
			name:     "parse error",
			err:      jsonrpc.Error{Code: -32700, Message: "parse error"},
			expected: RPCParse,
		},
		{
			name:     "method not found",
			err:      jsonrpc.Error{Code: -32601, Message: "the method debug_traceCall does not exist"},
			expected: RPCMethodNotFound,
		},
		{
			name:     "invalid params",
			err:      jsonrpc.Error{Code: -32602, Message: "invalid argument 0"},
			expected: RPCInvalidParams,
		},
		{
			name:     "rate limited",
			err:      jsonrpc.Error{Code: -32005, Message: "request limit reached"},
			expected: RPCRateLimited,
		},
		{
			name:     "revert wins over code",
			err:      jsonrpc.Error{Code: -32000, Message: "execution reverted: ERC20: insufficient balance"},
			expected: RPCReverted,
		},
		{
			name:     "syncing",
			err:      jsonrpc.Error{Code: -32000, Message: "node is syncing"},
			expected: RPCNodeSyncing,
		},
		{
			name:     "not found",
			err:      jsonrpc.Error{Code: -32000, Message: "transaction not found"},
			expected: RPCNotFound,
		},
		{
			name:     "unknown node error",
			err:      jsonrpc.Error{Code: -32000, Message: "stack limit reached"},
			expected: RPCInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyRPC("eth_simulateV1", tt.err)
			assert.Equal(t, tt.expected, classified.Code)
			assert.Equal(t, "eth_simulateV1", classified.Method)
		})
	}
}

func TestClassifyRPCTransportErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected RPCCode
	}{
		{
			name:     "deadline exceeded",
			err:      context.DeadlineExceeded,
			expected: RPCTimeout,
		},
		{
			name:     "wrapped deadline",
			err:      errors.Join(errors.New("call failed"), context.DeadlineExceeded),
			expected: RPCTimeout,
		},
		{
			name:     "connection refused text",
			err:      errors.New("dial tcp: connect: connection refused"),
			expected: RPCConnectionFailed,
		},
		{
			name:     "decode failure",
			err:      errors.New("failed to decode response body"),
			expected: RPCParse,
		},
		{
			name:     "http 429",
			err:      errors.New("unexpected status 429"),
			expected: RPCRateLimited,
		},
		{
			name:     "unclassified",
			err:      errors.New("boom"),
			expected: RPCTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyRPC("debug_traceCall", tt.err).Code)
		})
	}
}

func TestClassifyRPCPassthrough(t *testing.T) {
	original := NewRPCError(RPCNotFound, "eth_getTransactionReceipt", "transaction not found", nil)
	wrapped := errors.Join(errors.New("outer"), original)

	classified := ClassifyRPC("other_method", wrapped)
	assert.Same(t, original, classified)
}

func TestRevertReason(t *testing.T) {
	err := jsonrpc.Error{Code: 3, Message: "execution reverted: Ownable: caller is not the owner"}

	classified := ClassifyRPC("debug_traceCall", err)
	require.Equal(t, RPCReverted, classified.Code)
	assert.Equal(t, "Ownable: caller is not the owner", classified.Message)
	assert.Equal(t, http.StatusOK, classified.HTTPStatus())
}

func TestRPCErrorSanitizesMessage(t *testing.T) {
	classified := ClassifyRPC("eth_simulateV1", errors.New("post to http://10.0.0.5:8545 failed: boom"))

	assert.NotContains(t, classified.Message, "10.0.0.5")
	assert.NotContains(t, classified.Error(), "10.0.0.5")
}

func TestRPCErrorHTTPStatus(t *testing.T) {
	tests := []struct {
		code     RPCCode
		expected int
	}{
		{RPCConnectionFailed, http.StatusBadGateway},
		{RPCTransport, http.StatusBadGateway},
		{RPCTimeout, http.StatusGatewayTimeout},
		{RPCMethodNotFound, http.StatusNotImplemented},
		{RPCInvalidParams, http.StatusBadRequest},
		{RPCNodeSyncing, http.StatusServiceUnavailable},
		{RPCNotFound, http.StatusNotFound},
		{RPCReverted, http.StatusOK},
		{RPCRateLimited, http.StatusTooManyRequests},
		{RPCInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			e := NewRPCError(tt.code, "m", "msg", nil)
			assert.Equal(t, tt.expected, e.HTTPStatus())
		})
	}
}

package errs

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorServiceTier(t *testing.T) {
	svc := NewService(ServiceInvalidBlockContext, "cannot specify both blockNumber and blockTag")

	apiErr := FromError(svc)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "INVALID_BLOCK_CONTEXT", apiErr.Code)
	assert.Equal(t, "cannot specify both blockNumber and blockTag", apiErr.Message)
	assert.NotEmpty(t, apiErr.Suggestion)
}

func TestFromErrorRPCTier(t *testing.T) {
	rpc := NewRPCError(RPCReverted, "eth_simulateV1", "Transaction execution reverted", nil)

	apiErr := FromError(rpc)
	assert.Equal(t, http.StatusOK, apiErr.Status)
	assert.Equal(t, "EXECUTION_REVERTED", apiErr.Code)
}

func TestFromErrorRateLimitedRetryAfter(t *testing.T) {
	rpc := NewRPCError(RPCRateLimited, "eth_simulateV1", "rate limited by node", nil)

	apiErr := FromError(WrapRPC(rpc))
	require.NotNil(t, apiErr.RetryAfter)
	assert.Equal(t, 1, *apiErr.RetryAfter)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
}

func TestFromErrorUnknownBecomesInternal(t *testing.T) {
	cause := errors.New("disk on fire at 10.0.0.5")

	apiErr := FromError(cause)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "INTERNAL_ERROR", apiErr.Code)
	assert.Equal(t, "Internal server error", apiErr.Message)
	assert.ErrorIs(t, apiErr, cause)
}

func TestFromErrorPassthrough(t *testing.T) {
	original := BadRequest("missing calls").WithDetails(map[string]any{"field": "params.calls"})

	assert.Same(t, original, FromError(original))
}

func TestServiceErrorDelegation(t *testing.T) {
	rpc := NewRPCError(RPCTimeout, "debug_traceTransaction", "network timeout", nil)
	svc := WrapRPC(rpc)

	assert.Equal(t, "RPC_TIMEOUT", svc.Code())
	assert.Equal(t, http.StatusGatewayTimeout, svc.HTTPStatus())
	assert.Same(t, rpc, svc.RPC())

	var unwrapped *RPCError
	require.ErrorAs(t, svc, &unwrapped)
	assert.Same(t, rpc, unwrapped)
}

func TestServiceErrorStatuses(t *testing.T) {
	tests := []struct {
		code     ServiceCode
		expected int
	}{
		{ServiceSimulationFailed, http.StatusOK},
		{ServiceGasEstimationFailed, http.StatusOK},
		{ServiceTraceFailed, http.StatusInternalServerError},
		{ServiceAccessListFailed, http.StatusInternalServerError},
		{ServiceInvalidBlockContext, http.StatusBadRequest},
		{ServiceInvalidStateOverride, http.StatusBadRequest},
		{ServiceBundleValidation, http.StatusBadRequest},
		{ServiceResourceExhausted, http.StatusServiceUnavailable},
		{ServiceOperationTimeout, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, NewService(tt.code, "x").HTTPStatus())
		})
	}
}
